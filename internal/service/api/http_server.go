package api

import (
	"net/http"
	"time"

	"github.com/darkkaiser/bikonomi/internal/service/api/constants"
	"github.com/darkkaiser/bikonomi/internal/service/api/httputil"
	appmiddleware "github.com/darkkaiser/bikonomi/internal/service/api/middleware"
	applog "github.com/darkkaiser/bikonomi/pkg/log"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// HTTPServerConfig HTTP 서버 생성에 필요한 설정을 정의합니다.
type HTTPServerConfig struct {
	// Debug Echo 프레임워크의 디버그 모드 활성화 여부
	Debug bool

	// EnableHSTS HTTPS 로 서비스할 때 Strict-Transport-Security 헤더를 붙입니다.
	EnableHSTS bool

	// AllowOrigins CORS에서 허용할 Origin 목록
	AllowOrigins []string

	// RateLimit nil 이면 IP별 요청 제한을 적용하지 않습니다.
	RateLimit *appmiddleware.RateLimitConfig

	// BodyLimit 요청 본문 최대 크기 (예: "64K", 비어 있으면 기본값)
	BodyLimit string

	// RequestTimeout 요청 하나의 최대 처리 시간 (0이면 기본값)
	RequestTimeout time.Duration
}

// NewHTTPServer 미들웨어 체인이 구성된 Echo 인스턴스를 생성합니다. 라우트는 호출자가 등록합니다.
//
// 미들웨어 적용 순서:
//
//  1. PanicRecovery: 다른 미들웨어의 panic 까지 복구하도록 가장 먼저 적용
//  2. RequestID: UUID 요청 ID (X-Request-ID), 로그에 포함되도록 로깅보다 먼저 적용
//  3. Server 헤더 제거
//  4. HTTPLogger: 429/503 응답도 기록되도록 RateLimiting/Timeout 보다 먼저 적용
//  5. RateLimiting: IP별 요청 제한
//  6. BodyLimit: 요청 본문 크기 제한 (초과 시 413)
//  7. Timeout: 요청 처리 시간 제한 (초과 시 503)
//  8. CORS
//  9. Secure: 보안 헤더
func NewHTTPServer(cfg HTTPServerConfig) *echo.Echo {
	e := echo.New()

	e.Debug = cfg.Debug
	e.HideBanner = true
	e.HidePort = true

	e.Server.ReadTimeout = constants.DefaultReadTimeout
	e.Server.ReadHeaderTimeout = constants.DefaultReadHeaderTimeout
	e.Server.WriteTimeout = constants.DefaultWriteTimeout
	e.Server.IdleTimeout = constants.DefaultIdleTimeout

	e.Logger = appmiddleware.Logger{Logger: applog.StandardLogger()}
	e.HTTPErrorHandler = httputil.ErrorHandler

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = constants.DefaultRequestTimeout
	}
	bodyLimit := cfg.BodyLimit
	if bodyLimit == "" {
		bodyLimit = constants.DefaultMaxBodySize
	}

	e.Use(appmiddleware.PanicRecovery())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(echo.HeaderServer, "")
			return next(c)
		}
	})
	e.Use(appmiddleware.HTTPLogger())
	if cfg.RateLimit != nil {
		e.Use(appmiddleware.RateLimiting(*cfg.RateLimit))
	}
	e.Use(middleware.BodyLimit(bodyLimit))
	e.Use(middleware.ContextTimeoutWithConfig(middleware.ContextTimeoutConfig{
		Timeout: timeout,
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
	}))

	secure := middleware.DefaultSecureConfig
	if cfg.EnableHSTS {
		secure.HSTSMaxAge = 31536000
	}
	e.Use(middleware.SecureWithConfig(secure))

	return e
}
