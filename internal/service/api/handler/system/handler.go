// Package system 헬스체크, 버전 정보 등 시스템 엔드포인트 핸들러를 제공합니다.
package system

import (
	"context"
	"net/http"
	"time"

	"github.com/darkkaiser/bikonomi/internal/pkg/version"
	"github.com/darkkaiser/bikonomi/internal/service/api/constants"
	"github.com/darkkaiser/bikonomi/internal/service/api/model/system"
	applog "github.com/darkkaiser/bikonomi/pkg/log"
	"github.com/labstack/echo/v4"
)

// healthCheckTimeout 의존성 하나를 확인하는 최대 시간
const healthCheckTimeout = 2 * time.Second

// HealthChecker 헬스체크 대상 의존성입니다.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handler 시스템 엔드포인트 핸들러 (헬스체크, 버전 정보)
type Handler struct {
	historyStore HealthChecker

	buildInfo version.Info

	serverStartTime time.Time
}

// NewHandler Handler 인스턴스를 생성합니다. historyStore 가 nil 이면 의존성을 unhealthy 로 보고합니다.
func NewHandler(historyStore HealthChecker, buildInfo version.Info) *Handler {
	return &Handler{
		historyStore: historyStore,

		buildInfo: buildInfo,

		serverStartTime: time.Now(),
	}
}

// HealthCheckHandler godoc
// @Summary 서버 헬스체크
// @Description 서버 가동 시간과 가격 이력 저장소 상태를 반환합니다.
// @Description 의존성이 하나라도 unhealthy 이면 503 으로 응답합니다.
// @Tags System
// @Produce json
// @Success 200 {object} system.HealthResponse "정상"
// @Failure 503 {object} system.HealthResponse "의존성 오류"
// @Router /health [get]
func (h *Handler) HealthCheckHandler(c echo.Context) error {
	deps := map[string]system.DependencyStatus{
		constants.DependencyHistoryStore: h.check(c.Request().Context(), h.historyStore),
	}

	status := constants.HealthStatusHealthy
	code := http.StatusOK
	for _, dep := range deps {
		if dep.Status != constants.HealthStatusHealthy {
			status = constants.HealthStatusUnhealthy
			code = http.StatusServiceUnavailable
			break
		}
	}

	return c.JSON(code, system.HealthResponse{
		Status:       status,
		Uptime:       int64(time.Since(h.serverStartTime).Seconds()),
		Dependencies: deps,
	})
}

func (h *Handler) check(ctx context.Context, checker HealthChecker) system.DependencyStatus {
	if checker == nil {
		return system.DependencyStatus{
			Status:  constants.HealthStatusUnhealthy,
			Message: constants.MsgDepStatusNotInitialized,
		}
	}

	ctx, cancel := context.WithTimeout(ctx, healthCheckTimeout)
	defer cancel()

	start := time.Now()
	if err := checker.Health(ctx); err != nil {
		applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
			"dependency": constants.DependencyHistoryStore,
			"error":      err,
		}).Warn("헬스체크 실패")

		return system.DependencyStatus{
			Status:  constants.HealthStatusUnhealthy,
			Message: err.Error(),
		}
	}

	return system.DependencyStatus{
		Status:    constants.HealthStatusHealthy,
		LatencyMs: time.Since(start).Milliseconds(),
		Message:   constants.MsgDepStatusHealthy,
	}
}

// VersionHandler godoc
// @Summary 서버 버전 정보
// @Description 빌드 버전, 커밋, 빌드 일시와 Go 버전을 반환합니다.
// @Tags System
// @Produce json
// @Success 200 {object} system.VersionResponse "버전 정보"
// @Router /version [get]
func (h *Handler) VersionHandler(c echo.Context) error {
	return c.JSON(http.StatusOK, system.VersionResponse{
		Version:     h.buildInfo.Version,
		Commit:      h.buildInfo.Commit,
		BuildDate:   h.buildInfo.BuildDate,
		BuildNumber: h.buildInfo.BuildNumber,
		GoVersion:   h.buildInfo.GoVersion,
	})
}
