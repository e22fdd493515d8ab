package middleware

import (
	"sync"
	"time"

	"github.com/darkkaiser/bikonomi/internal/service/api/constants"
	"github.com/darkkaiser/bikonomi/internal/service/api/httputil"
	applog "github.com/darkkaiser/bikonomi/pkg/log"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/labstack/echo/v4"
	"golang.org/x/time/rate"
)

// ipRateLimiter IP 주소별 rate.Limiter 를 관리합니다.
//
// Limiter 는 최대 maxClients 개까지 LRU 로 유지되며, idleTTL 동안 요청이 없는 IP 는 제거됩니다.
type ipRateLimiter struct {
	mu       sync.Mutex
	limiters *expirable.LRU[string, *rate.Limiter]
	rate     rate.Limit
	burst    int
}

func newIPRateLimiter(requestsPerSecond float64, burst, maxClients int, idleTTL time.Duration) *ipRateLimiter {
	return &ipRateLimiter{
		limiters: expirable.NewLRU[string, *rate.Limiter](maxClients, nil, idleTTL),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
	}
}

// getLimiter ip 의 Limiter 를 반환합니다. 없으면 새로 만듭니다.
// 조회할 때마다 다시 넣어 만료 시간을 갱신합니다.
func (i *ipRateLimiter) getLimiter(ip string) *rate.Limiter {
	i.mu.Lock()
	defer i.mu.Unlock()

	limiter, ok := i.limiters.Get(ip)
	if !ok {
		limiter = rate.NewLimiter(i.rate, i.burst)
	}
	i.limiters.Add(ip, limiter)

	return limiter
}

// RateLimitConfig IP 기반 요청 제한 설정입니다.
type RateLimitConfig struct {
	RequestsPerSecond float64
	Burst             int

	// MaxClients 기억하는 최대 IP 수 (0이면 기본값)
	MaxClients int

	// IdleTTL 요청이 없는 IP 의 Limiter 를 제거하기까지의 시간 (0이면 기본값)
	IdleTTL time.Duration
}

// RateLimiting IP 기반 Token Bucket 요청 제한 미들웨어를 반환합니다.
// 한도를 넘으면 Retry-After 헤더와 함께 429 로 응답합니다.
//
// Panics:
//   - RequestsPerSecond 또는 Burst 가 0 이하인 경우
func RateLimiting(cfg RateLimitConfig) echo.MiddlewareFunc {
	if cfg.RequestsPerSecond <= 0 {
		panic("[RateLimiting] RequestsPerSecond는 양수여야 합니다")
	}
	if cfg.Burst <= 0 {
		panic("[RateLimiting] Burst는 양수여야 합니다")
	}
	if cfg.MaxClients <= 0 {
		cfg.MaxClients = constants.DefaultRateLimitClients
	}
	if cfg.IdleTTL <= 0 {
		cfg.IdleTTL = constants.DefaultRateLimitIdleTTL
	}

	limiter := newIPRateLimiter(cfg.RequestsPerSecond, cfg.Burst, cfg.MaxClients, cfg.IdleTTL)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ip := c.RealIP()

			if !limiter.getLimiter(ip).Allow() {
				applog.WithComponentAndFields(constants.ComponentMiddleware, applog.Fields{
					"remote_ip": ip,
					"path":      c.Request().URL.Path,
					"method":    c.Request().Method,
				}).Warn("Rate limit 초과")

				c.Response().Header().Set("Retry-After", "1")

				return httputil.NewTooManyRequestsError(constants.ErrMsgTooManyRequests)
			}

			return next(c)
		}
	}
}
