package httputil

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/darkkaiser/bikonomi/internal/service/api/model/response"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logEntry struct {
	Level      string `json:"level"`
	Message    string `json:"msg"`
	StatusCode int    `json:"status_code"`
	RemoteIP   string `json:"remote_ip"`
	RequestID  string `json:"request_id"`
}

// captureLog 전역 로거 출력을 버퍼로 돌립니다. 전역 상태를 바꾸므로 병렬로 실행하지 않습니다.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()

	buf := new(bytes.Buffer)
	logger := logrus.StandardLogger()
	out, formatter, level := logger.Out, logger.Formatter, logger.Level

	logger.SetOutput(buf)
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetLevel(logrus.InfoLevel)

	t.Cleanup(func() {
		logger.SetOutput(out)
		logger.SetFormatter(formatter)
		logger.SetLevel(level)
	})

	return buf
}

func TestErrorHandler(t *testing.T) {
	buf := captureLog(t)

	tests := []struct {
		name           string
		method         string
		err            error
		setup          func(c echo.Context, req *http.Request, rec *httptest.ResponseRecorder)
		expectedStatus int
		expectedJSON   string
		expectedLevel  string
		expectNoLog    bool
	}{
		{
			name:           "라우트 없음_표준 메시지",
			method:         http.MethodGet,
			err:            echo.ErrNotFound,
			expectedStatus: http.StatusNotFound,
			expectedJSON:   `{"resultCode":404,"message":"요청한 리소스를 찾을 수 없습니다"}`,
			expectedLevel:  "warning",
		},
		{
			name:           "잘못된 링크",
			method:         http.MethodPost,
			err:            NewBadRequestError("Geçersiz URL"),
			expectedStatus: http.StatusBadRequest,
			expectedJSON:   `{"resultCode":400,"message":"Geçersiz URL"}`,
			expectedLevel:  "warning",
		},
		{
			name:           "문자열 메시지",
			method:         http.MethodPost,
			err:            echo.NewHTTPError(http.StatusMethodNotAllowed, "method not allowed"),
			expectedStatus: http.StatusMethodNotAllowed,
			expectedJSON:   `{"resultCode":405,"message":"method not allowed"}`,
			expectedLevel:  "warning",
		},
		{
			name:           "알 수 없는 에러는 500",
			method:         http.MethodGet,
			err:            errors.New("database is locked"),
			expectedStatus: http.StatusInternalServerError,
			expectedJSON:   `{"resultCode":500,"message":"내부 서버 오류가 발생했습니다"}`,
			expectedLevel:  "error",
		},
		{
			name:           "메시지 타입 불일치는 기본 메시지",
			method:         http.MethodGet,
			err:            echo.NewHTTPError(http.StatusBadRequest, 12345),
			expectedStatus: http.StatusBadRequest,
			expectedJSON:   `{"resultCode":400,"message":"내부 서버 오류가 발생했습니다"}`,
			expectedLevel:  "warning",
		},
		{
			name:           "3xx 는 로그를 남기지 않는다",
			method:         http.MethodGet,
			err:            echo.NewHTTPError(http.StatusFound, "Redirecting"),
			expectedStatus: http.StatusFound,
			expectedJSON:   `{"resultCode":302,"message":"Redirecting"}`,
			expectNoLog:    true,
		},
		{
			name:           "HEAD 요청은 본문이 없다",
			method:         http.MethodHead,
			err:            echo.ErrNotFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:   "이미 커밋된 응답은 건드리지 않는다",
			method: http.MethodGet,
			err:    errors.New("error after write"),
			setup: func(c echo.Context, _ *http.Request, _ *httptest.ResponseRecorder) {
				c.Response().Committed = true
			},
			expectedStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf.Reset()

			e := echo.New()
			req := httptest.NewRequest(tt.method, "/", nil)
			req.RemoteAddr = "192.168.1.100:12345"
			rec := httptest.NewRecorder()
			rec.Header().Set(echo.HeaderXRequestID, "req-1")
			c := e.NewContext(req, rec)
			if tt.setup != nil {
				tt.setup(c, req, rec)
			}

			ErrorHandler(tt.err, c)

			assert.Equal(t, tt.expectedStatus, rec.Code)
			if tt.expectedJSON != "" {
				assert.JSONEq(t, tt.expectedJSON, rec.Body.String())
			} else {
				assert.Empty(t, rec.Body.String())
			}

			if tt.expectNoLog {
				assert.Empty(t, buf.String())
				return
			}
			if tt.expectedLevel != "" {
				var entry logEntry
				require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), buf.String())
				assert.Equal(t, tt.expectedLevel, entry.Level)
				assert.Equal(t, tt.expectedStatus, entry.StatusCode)
				assert.Equal(t, "192.168.1.100", entry.RemoteIP)
				assert.Equal(t, "req-1", entry.RequestID)
			}
		})
	}
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name     string
		create   func(string) error
		expected int
	}{
		{"BadRequest", NewBadRequestError, http.StatusBadRequest},
		{"NotFound", NewNotFoundError, http.StatusNotFound},
		{"TooManyRequests", NewTooManyRequestsError, http.StatusTooManyRequests},
		{"InternalServerError", NewInternalServerError, http.StatusInternalServerError},
		{"ServiceUnavailable", NewServiceUnavailableError, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var he *echo.HTTPError
			require.ErrorAs(t, tt.create("메시지"), &he)
			assert.Equal(t, tt.expected, he.Code)

			resp, ok := he.Message.(response.ErrorResponse)
			require.True(t, ok)
			assert.Equal(t, tt.expected, resp.ResultCode)
			assert.Equal(t, "메시지", resp.Message)
		})
	}
}

func TestSuccess(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)

	require.NoError(t, Success(c))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
}
