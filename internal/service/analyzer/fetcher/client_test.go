package fetcher_test

import (
	"compress/gzip"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/darkkaiser/bikonomi/internal/service/analyzer/fetcher"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/fetcher/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const productHTML = `<html><head><title>Kablosuz Kulaklık | Trendyol</title></head><body><span class="prc-dsc">1.299,90 TL</span></body></html>`

func newTestFetcher(t *testing.T, cfg fetcher.Config) fetcher.Fetcher {
	t.Helper()

	if cfg.MinRetryDelay == 0 {
		cfg.MinRetryDelay = 100 * time.Millisecond
		cfg.MaxRetryDelay = 200 * time.Millisecond
	}
	cfg.DisableLogging = true

	f, err := fetcher.NewFromConfig(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })

	return f
}

func TestClient_Fetch_Direct(t *testing.T) {
	t.Run("정상 페이지는 직접 요청으로 가져온다", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "tr-TR,tr;q=0.9,en-US;q=0.8,en;q=0.7", r.Header.Get("Accept-Language"))
			assert.Equal(t, "no-cache", r.Header.Get("Cache-Control"))
			assert.Contains(t, r.Header.Get("User-Agent"), "Mozilla/5.0")

			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(productHTML))
		}))
		defer srv.Close()

		c := fetcher.NewClient(newTestFetcher(t, fetcher.Config{}))
		res := c.Fetch(context.Background(), srv.URL+"/kulaklik-p-123")

		assert.True(t, res.OK)
		assert.False(t, res.BlockedHint)
		assert.Equal(t, http.StatusOK, res.Status)
		assert.Equal(t, fetcher.ViaDirect, res.Via)
		assert.Contains(t, res.HTML, "1.299,90 TL")
	})

	t.Run("gzip 응답을 해제한다", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.Header().Set("Content-Encoding", "gzip")
			zw := gzip.NewWriter(w)
			_, _ = zw.Write([]byte(productHTML))
			_ = zw.Close()
		}))
		defer srv.Close()

		c := fetcher.NewClient(newTestFetcher(t, fetcher.Config{}))
		res := c.Fetch(context.Background(), srv.URL)

		require.True(t, res.OK)
		assert.Contains(t, res.HTML, "prc-dsc")
	})

	t.Run("HTML이 아닌 응답은 실패로 처리한다", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "image/png")
			_, _ = w.Write([]byte{0x89, 0x50})
		}))
		defer srv.Close()

		c := fetcher.NewClient(newTestFetcher(t, fetcher.Config{}))
		res := c.Fetch(context.Background(), srv.URL)

		assert.False(t, res.OK)
		assert.False(t, res.BlockedHint)
		assert.Error(t, res.Err)
	})

	t.Run("5xx는 재시도한다", func(t *testing.T) {
		var calls atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if calls.Add(1) == 1 {
				w.WriteHeader(http.StatusBadGateway)
				return
			}
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(productHTML))
		}))
		defer srv.Close()

		c := fetcher.NewClient(newTestFetcher(t, fetcher.Config{MaxRetries: 2}))
		res := c.Fetch(context.Background(), srv.URL)

		assert.True(t, res.OK)
		assert.Equal(t, int32(2), calls.Load())
	})
}

func TestClient_Fetch_Blocked(t *testing.T) {
	blocked := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte("<title>Access Denied</title>"))
	}))
	defer blocked.Close()

	t.Run("렌더러가 없으면 차단 결과를 반환한다", func(t *testing.T) {
		c := fetcher.NewClient(newTestFetcher(t, fetcher.Config{MaxRetries: 2}))
		res := c.Fetch(context.Background(), blocked.URL)

		assert.False(t, res.OK)
		assert.True(t, res.BlockedHint)
		assert.Equal(t, http.StatusForbidden, res.Status)

		var statusErr *fetcher.HTTPStatusError
		assert.True(t, errors.As(res.Err, &statusErr))
	})

	t.Run("차단되면 렌더러로 우회한다", func(t *testing.T) {
		r1 := mocks.NewMockRenderer("failing")
		r1.On("Render", mock.Anything, blocked.URL).Return("", errors.New("timeout"))

		r2 := mocks.NewMockRenderer(fetcher.ViaScraperAPI)
		r2.On("Render", mock.Anything, blocked.URL).Return(productHTML, nil)

		c := fetcher.NewClient(newTestFetcher(t, fetcher.Config{}), r1, r2)
		res := c.Fetch(context.Background(), blocked.URL)

		assert.True(t, res.OK)
		assert.Equal(t, fetcher.ViaScraperAPI, res.Via)
		assert.Equal(t, productHTML, res.HTML)
		assert.Nil(t, res.Err)
		r1.AssertExpectations(t)
		r2.AssertExpectations(t)
	})

	t.Run("렌더러 결과도 차단 페이지면 실패한다", func(t *testing.T) {
		r := mocks.NewMockRenderer(fetcher.ViaHeadless)
		r.On("Render", mock.Anything, blocked.URL).Return("<title>Robot Check</title>", nil)

		c := fetcher.NewClient(newTestFetcher(t, fetcher.Config{}), r)
		res := c.Fetch(context.Background(), blocked.URL)

		assert.False(t, res.OK)
		assert.True(t, res.BlockedHint)
		assert.ErrorIs(t, res.Err, fetcher.ErrChallengePage)
	})

	t.Run("200 응답이어도 캡차 페이지면 차단으로 본다", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<form action="/errors/validateCaptcha"></form>`))
		}))
		defer srv.Close()

		c := fetcher.NewClient(newTestFetcher(t, fetcher.Config{}))
		res := c.Fetch(context.Background(), srv.URL)

		assert.False(t, res.OK)
		assert.True(t, res.BlockedHint)
		assert.Equal(t, http.StatusOK, res.Status)
	})
}

func TestClient_Fetch_Robots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			w.Header().Set("Content-Type", "text/plain")
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private\n"))
			return
		}
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(productHTML))
	}))
	defer srv.Close()

	r := mocks.NewMockRenderer(fetcher.ViaScraperAPI)
	c := fetcher.NewClient(newTestFetcher(t, fetcher.Config{RespectRobots: true}), r)

	res := c.Fetch(context.Background(), srv.URL+"/private/item")
	assert.False(t, res.OK)
	assert.ErrorIs(t, res.Err, fetcher.ErrRobotsDisallowed)
	r.AssertNotCalled(t, "Render", mock.Anything, mock.Anything)

	res = c.Fetch(context.Background(), srv.URL+"/public/item")
	assert.True(t, res.OK)
}

func TestScraperAPIRenderer_Render(t *testing.T) {
	const target = "https://www.trendyol.com/marka/urun-p-123"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "KEY", r.URL.Query().Get("api_key"))
		assert.Equal(t, target, r.URL.Query().Get("url"))
		assert.Equal(t, "tr", r.URL.Query().Get("country_code"))
		assert.Equal(t, "true", r.URL.Query().Get("render"))

		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(productHTML))
	}))
	defer srv.Close()

	r := fetcher.NewScraperAPIRenderer(newTestFetcher(t, fetcher.Config{}), "KEY", srv.URL, true)
	assert.Equal(t, fetcher.ViaScraperAPI, r.Name())

	html, err := r.Render(context.Background(), target)
	require.NoError(t, err)
	assert.Equal(t, productHTML, html)
}

func TestScraperAPIRenderer_Render_Error(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	r := fetcher.NewScraperAPIRenderer(newTestFetcher(t, fetcher.Config{}), "WRONG", srv.URL, false)

	_, err := r.Render(context.Background(), "https://www.hepsiburada.com/urun-p-HB1")
	assert.Error(t, err)
	assert.NotContains(t, err.Error(), "WRONG")
}
