package fetcher_test

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"testing"
	"time"

	apperrors "github.com/darkkaiser/bikonomi/internal/pkg/errors"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/fetcher"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/fetcher/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newRequest(t *testing.T) *http.Request {
	t.Helper()

	req, err := http.NewRequest(http.MethodGet, "https://www.hepsiburada.com/urun-p-HBC0001", nil)
	require.NoError(t, err)
	return req
}

func TestStatusCodeFetcher_Do(t *testing.T) {
	tests := []struct {
		name            string
		allowed         []int
		statusCode      int
		expectedErrType apperrors.ErrorType
		expectedError   bool
	}{
		{name: "200 OK", statusCode: http.StatusOK},
		{name: "허용 목록의 204", allowed: []int{http.StatusNoContent}, statusCode: http.StatusNoContent},
		{name: "403 차단", statusCode: http.StatusForbidden, expectedError: true, expectedErrType: apperrors.Forbidden},
		{name: "404 없음", statusCode: http.StatusNotFound, expectedError: true, expectedErrType: apperrors.NotFound},
		{name: "410 삭제된 상품", statusCode: http.StatusGone, expectedError: true, expectedErrType: apperrors.NotFound},
		{name: "429 과다 요청", statusCode: http.StatusTooManyRequests, expectedError: true, expectedErrType: apperrors.Unavailable},
		{name: "500 서버 오류", statusCode: http.StatusInternalServerError, expectedError: true, expectedErrType: apperrors.Unavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mocks.NewMockFetcher()
			m.On("Do", mock.Anything).Return(mocks.NewResponse(tt.statusCode, "text/html", "body"), nil)

			resp, err := fetcher.NewStatusCodeFetcher(m, tt.allowed...).Do(newRequest(t))
			if !tt.expectedError {
				require.NoError(t, err)
				assert.Equal(t, tt.statusCode, resp.StatusCode)
				return
			}

			require.Error(t, err)
			assert.Nil(t, resp)
			assert.True(t, apperrors.Is(err, tt.expectedErrType))

			var statusErr *fetcher.HTTPStatusError
			require.True(t, errors.As(err, &statusErr))
			assert.Equal(t, tt.statusCode, statusErr.StatusCode)
			assert.Equal(t, "body", statusErr.BodySnippet)
		})
	}
}

func TestMimeTypeFetcher_Do(t *testing.T) {
	allowed := []string{"text/html", "application/xhtml+xml"}

	tests := []struct {
		name          string
		contentType   string
		allowMissing  bool
		expectedError bool
	}{
		{name: "text/html", contentType: "text/html; charset=utf-8"},
		{name: "대소문자 무시", contentType: "TEXT/HTML"},
		{name: "xhtml", contentType: "application/xhtml+xml"},
		{name: "비표준 형식 폴백", contentType: "text/html;;"},
		{name: "JSON 거부", contentType: "application/json", expectedError: true},
		{name: "헤더 없음 허용", allowMissing: true},
		{name: "헤더 없음 거부", expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := mocks.NewMockFetcher()
			m.On("Do", mock.Anything).Return(mocks.NewResponse(http.StatusOK, tt.contentType, "<html></html>"), nil)

			_, err := fetcher.NewMimeTypeFetcher(m, allowed, tt.allowMissing).Do(newRequest(t))
			if tt.expectedError {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	t.Run("허용 목록이 비어 있으면 delegate를 그대로 반환한다", func(t *testing.T) {
		m := mocks.NewMockFetcher()
		assert.Same(t, m, fetcher.NewMimeTypeFetcher(m, nil, false))
	})
}

func TestMaxBytesFetcher_Do(t *testing.T) {
	t.Run("Content-Length가 한도를 넘으면 즉시 실패한다", func(t *testing.T) {
		m := mocks.NewMockFetcher()
		m.On("Do", mock.Anything).Return(mocks.NewResponse(http.StatusOK, "text/html", strings.Repeat("a", 100)), nil)

		_, err := fetcher.NewMaxBytesFetcher(m, 10).Do(newRequest(t))
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
	})

	t.Run("본문을 읽는 도중 한도를 넘으면 실패한다", func(t *testing.T) {
		resp := mocks.NewResponse(http.StatusOK, "text/html", strings.Repeat("a", 100))
		resp.ContentLength = -1

		m := mocks.NewMockFetcher()
		m.On("Do", mock.Anything).Return(resp, nil)

		got, err := fetcher.NewMaxBytesFetcher(m, 10).Do(newRequest(t))
		require.NoError(t, err)
		defer got.Body.Close()

		_, err = io.ReadAll(got.Body)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
	})

	t.Run("NoLimit이면 delegate를 그대로 반환한다", func(t *testing.T) {
		m := mocks.NewMockFetcher()
		assert.Same(t, m, fetcher.NewMaxBytesFetcher(m, fetcher.NoLimit))
	})
}

func TestUserAgentFetcher_Do(t *testing.T) {
	t.Run("User-Agent가 없으면 목록에서 선택한다", func(t *testing.T) {
		m := mocks.NewMockFetcher()
		m.On("Do", mock.MatchedBy(func(r *http.Request) bool {
			return r.Header.Get("User-Agent") == "bikonomi-test"
		})).Return(mocks.NewResponse(http.StatusOK, "text/html", ""), nil)

		req := newRequest(t)
		_, err := fetcher.NewUserAgentFetcher(m, []string{"bikonomi-test"}).Do(req)
		require.NoError(t, err)
		assert.Empty(t, req.Header.Get("User-Agent"), "원본 요청은 변경하지 않아야 합니다")
		m.AssertExpectations(t)
	})

	t.Run("이미 설정된 User-Agent는 유지한다", func(t *testing.T) {
		m := mocks.NewMockFetcher()
		m.On("Do", mock.MatchedBy(func(r *http.Request) bool {
			return r.Header.Get("User-Agent") == "custom"
		})).Return(mocks.NewResponse(http.StatusOK, "text/html", ""), nil)

		req := newRequest(t)
		req.Header.Set("User-Agent", "custom")
		_, err := fetcher.NewUserAgentFetcher(m, []string{"other"}).Do(req)
		require.NoError(t, err)
		m.AssertExpectations(t)
	})
}

func TestBrowserHeaderFetcher_Do(t *testing.T) {
	m := mocks.NewMockFetcher()
	m.On("Do", mock.MatchedBy(func(r *http.Request) bool {
		return r.Header.Get("Accept-Language") == "en-US" &&
			r.Header.Get("Pragma") == "no-cache" &&
			r.Header.Get("Accept-Encoding") == "gzip, deflate, br" &&
			r.Header.Get("Sec-Fetch-Mode") == "navigate"
	})).Return(mocks.NewResponse(http.StatusOK, "text/html", ""), nil)

	req := newRequest(t)
	req.Header.Set("Accept-Language", "en-US")

	_, err := fetcher.NewBrowserHeaderFetcher(m).Do(req)
	require.NoError(t, err)
	m.AssertExpectations(t)
}

func TestHostRateLimitFetcher_Do(t *testing.T) {
	m := mocks.NewMockFetcher()
	m.On("Do", mock.Anything).Return(mocks.NewResponse(http.StatusOK, "text/html", ""), nil)

	f := fetcher.NewHostRateLimitFetcher(m, 10, 1)

	start := time.Now()
	for range 3 {
		_, err := f.Do(newRequest(t))
		require.NoError(t, err)
	}

	// burst 1, 초당 10회이므로 세 번째 요청까지 최소 약 200ms가 걸린다.
	assert.GreaterOrEqual(t, time.Since(start), 150*time.Millisecond)

	t.Run("rps가 0이면 delegate를 그대로 반환한다", func(t *testing.T) {
		assert.Same(t, m, fetcher.NewHostRateLimitFetcher(m, 0, 0))
	})
}
