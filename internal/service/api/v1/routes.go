// Package v1 /api/v1 경로 하위의 엔드포인트를 등록합니다.
//
//   - GET  /api/v1/analyze          링크 분석 (쿼리 파라미터)
//   - POST /api/v1/analyze          링크 분석 (JSON 본문)
//   - POST /api/v1/contribute       가격 제보
//   - GET  /api/v1/history          가격 이력 조회
//   - GET  /api/v1/history/export   가격 이력 XLSX 내보내기
package v1

import (
	"net/http"
	"strings"

	"github.com/darkkaiser/bikonomi/internal/service/api/v1/handler"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes Echo 인스턴스에 v1 API 라우트를 등록합니다.
func RegisterRoutes(e *echo.Echo, h *handler.Handler) {
	g := e.Group("/api/v1")

	g.GET("/analyze", h.AnalyzeQueryHandler)
	g.POST("/analyze", h.AnalyzeHandler, requireJSON)
	g.POST("/contribute", h.ContributeHandler, requireJSON)
	g.GET("/history", h.HistoryHandler)
	g.GET("/history/export", h.HistoryExportHandler)
}

// requireJSON 본문이 있는 요청의 Content-Type 이 JSON 인지 확인합니다.
func requireJSON(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		if req.ContentLength == 0 {
			return next(c)
		}

		if !strings.HasPrefix(strings.ToLower(req.Header.Get(echo.HeaderContentType)), echo.MIMEApplicationJSON) {
			return echo.NewHTTPError(http.StatusUnsupportedMediaType, "Content-Type은 application/json이어야 합니다")
		}

		return next(c)
	}
}
