package middleware

import (
	"bytes"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/darkkaiser/bikonomi/internal/service/api/httputil"
	applog "github.com/darkkaiser/bikonomi/pkg/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newEcho() *echo.Echo {
	e := echo.New()
	e.HTTPErrorHandler = httputil.ErrorHandler
	return e
}

func okHandler(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}

func TestRateLimiting(t *testing.T) {
	e := newEcho()
	e.Use(RateLimiting(RateLimitConfig{RequestsPerSecond: 1, Burst: 2}))
	e.GET("/", okHandler)

	do := func(ip string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = ip + ":1234"
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, do("10.0.0.1").Code)
	assert.Equal(t, http.StatusOK, do("10.0.0.1").Code)

	rec := do("10.0.0.1")
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.JSONEq(t, `{"resultCode":429,"message":"요청이 너무 많습니다. 잠시 후 다시 시도해주세요"}`, rec.Body.String())

	// 다른 IP 는 독립적으로 제한됩니다.
	assert.Equal(t, http.StatusOK, do("10.0.0.2").Code)
}

func TestRateLimiting_InvalidConfig(t *testing.T) {
	assert.Panics(t, func() { RateLimiting(RateLimitConfig{RequestsPerSecond: 0, Burst: 1}) })
	assert.Panics(t, func() { RateLimiting(RateLimitConfig{RequestsPerSecond: 1, Burst: 0}) })
}

func TestIPRateLimiter_Eviction(t *testing.T) {
	l := newIPRateLimiter(1, 1, 2, time.Hour)

	a := l.getLimiter("a")
	assert.Same(t, a, l.getLimiter("a"))

	l.getLimiter("b")
	l.getLimiter("c") // 가장 오래 쓰지 않은 "a" 가 밀려납니다.

	assert.Equal(t, 2, l.limiters.Len())
	assert.NotSame(t, a, l.getLimiter("a"))
}

func TestIPRateLimiter_Concurrent(t *testing.T) {
	l := newIPRateLimiter(100, 100, 10, time.Hour)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			l.getLimiter("same")
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, l.limiters.Len())
}

func TestPanicRecovery(t *testing.T) {
	e := newEcho()
	e.Use(PanicRecovery())
	e.GET("/panic", func(echo.Context) error { panic("boom") })
	e.GET("/panic-error", func(echo.Context) error { panic(errors.New("boom error")) })

	for _, path := range []string{"/panic", "/panic-error"} {
		t.Run(path, func(t *testing.T) {
			rec := httptest.NewRecorder()
			assert.NotPanics(t, func() {
				e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
			})
			assert.Equal(t, http.StatusInternalServerError, rec.Code)
		})
	}
}

func TestHTTPLogger(t *testing.T) {
	buf := new(bytes.Buffer)
	logger := logrus.StandardLogger()
	out, formatter := logger.Out, logger.Formatter
	logger.SetOutput(buf)
	logger.SetFormatter(&logrus.JSONFormatter{})
	t.Cleanup(func() {
		logger.SetOutput(out)
		logger.SetFormatter(formatter)
	})

	e := newEcho()
	e.Use(HTTPLogger())
	e.GET("/api/v1/analyze", func(c echo.Context) error {
		return httputil.NewBadRequestError("Geçersiz URL")
	})

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/analyze?url=x&api_key=supersecretvalue", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)

	logged := buf.String()
	assert.Contains(t, logged, `"status":400`)
	assert.Contains(t, logged, `"path":"/api/v1/analyze"`)
	assert.NotContains(t, logged, "supersecretvalue")
}

func TestMaskSensitiveQueryParams(t *testing.T) {
	tests := []struct {
		name     string
		uri      string
		contains []string
		excludes []string
	}{
		{
			name:     "민감 파라미터 없음",
			uri:      "/api/v1/history?key=trendyol:x&h=24",
			contains: []string{"/api/v1/history?key=trendyol:x&h=24"},
		},
		{
			name:     "api_key 마스킹",
			uri:      "/api/v1/analyze?url=x&api_key=secret123",
			contains: []string{"api_key=secr", "url=x"},
			excludes: []string{"secret123"},
		},
		{
			name:     "token 마스킹",
			uri:      "/x?token=abcdefghijklmnopqrstuvwxyz",
			contains: []string{"token=abcd"},
			excludes: []string{"efghijklmnop"},
		},
		{
			name:     "파싱 실패는 원본",
			uri:      "%zz",
			contains: []string{"%zz"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := maskSensitiveQueryParams(tt.uri)
			for _, s := range tt.contains {
				assert.Contains(t, got, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, got, s)
			}
		})
	}
}

func TestLogger_Levels(t *testing.T) {
	l := Logger{Logger: logrus.New()}

	tests := []struct {
		echoLevel log.Lvl
		appLevel  applog.Level
	}{
		{log.DEBUG, applog.DebugLevel},
		{log.INFO, applog.InfoLevel},
		{log.WARN, applog.WarnLevel},
		{log.ERROR, applog.ErrorLevel},
	}
	for _, tt := range tests {
		l.SetLevel(tt.echoLevel)
		require.Equal(t, tt.appLevel, l.Logger.Level)
		assert.Equal(t, tt.echoLevel, l.Level())
	}

	l.Logger.SetLevel(applog.FatalLevel)
	assert.Equal(t, log.OFF, l.Level())

	buf := new(bytes.Buffer)
	l.SetOutput(buf)
	l.Logger.SetLevel(applog.InfoLevel)
	l.Infoj(log.JSON{"k": "v"})
	assert.Contains(t, buf.String(), "k=v")
	assert.Same(t, buf, l.Output())
}
