package api

import (
	"github.com/darkkaiser/bikonomi/internal/service/api/handler/system"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes 서비스 상태 확인(/health)과 버전 정보(/version) 라우트를 등록합니다.
func RegisterRoutes(e *echo.Echo, h *system.Handler) {
	e.GET("/health", h.HealthCheckHandler)
	e.GET("/version", h.VersionHandler)
}
