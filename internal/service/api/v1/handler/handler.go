// Package handler v1 API 의 HTTP 요청 핸들러를 제공합니다.
//
// 요청을 바인딩하고 검증한 뒤 분석 파이프라인을 호출하여 JSON 또는 XLSX 로 응답합니다.
package handler

import (
	"context"
	"time"

	"github.com/darkkaiser/bikonomi/internal/service/analyzer"
	"github.com/darkkaiser/bikonomi/internal/service/api/constants"
	applog "github.com/darkkaiser/bikonomi/pkg/log"
	"github.com/labstack/echo/v4"
)

// Analyzer 핸들러가 사용하는 분석 파이프라인 기능입니다.
type Analyzer interface {
	Analyze(ctx context.Context, in analyzer.Input) (analyzer.Response, error)
	Contribute(ctx context.Context, c analyzer.Contribution) error
	History(ctx context.Context, key string, hours int) (analyzer.HistoryResult, error)
}

// Handler v1 API 요청을 처리합니다.
type Handler struct {
	analyzer Analyzer

	// exportLocation XLSX 내보내기에서 시각을 표시할 시간대
	exportLocation *time.Location
}

// NewHandler Handler 인스턴스를 생성합니다.
func NewHandler(a Analyzer) *Handler {
	if a == nil {
		panic(constants.PanicMsgAnalyzerRequired)
	}

	loc, err := time.LoadLocation("Europe/Istanbul")
	if err != nil {
		loc = time.FixedZone("TRT", 3*60*60)
	}

	return &Handler{
		analyzer:       a,
		exportLocation: loc,
	}
}

// log 공통 로깅 필드가 설정된 로거 엔트리를 반환합니다.
func (h *Handler) log(c echo.Context) *applog.Entry {
	return applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
		"endpoint":   c.Path(),
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
	})
}
