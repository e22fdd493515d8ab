package handler

import (
	"net/http"

	"github.com/darkkaiser/bikonomi/internal/service/analyzer"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/numparse"
	"github.com/darkkaiser/bikonomi/internal/service/api/v1/model/request"
	applog "github.com/darkkaiser/bikonomi/pkg/log"
	"github.com/labstack/echo/v4"
)

// AnalyzeQueryHandler godoc
// @Summary 상품 링크 분석 (쿼리)
// @Description 쿼리 파라미터로 받은 Trendyol, Hepsiburada, Amazon TR 상품 링크를 분석해 제안 목록과 점수를 반환합니다.
// @Description
// @Description manualPrice, manualShipping 은 터키식 표기(1.299,90)도 받으며 해석할 수 없으면 무시합니다.
// @Description 페이지 수집이 실패해도 200 으로 응답하며 mode 가 partial 또는 manual_required 가 됩니다.
// @Tags Analyze
// @Produce json
// @Param url query string true "상품 링크" example(https://www.trendyol.com/marka/urun-p-123)
// @Param manualPrice query string false "수동 가격" example(1.299,90)
// @Param manualShipping query string false "수동 배송비" example(29,90)
// @Success 200 {object} analyzer.Response "분석 결과"
// @Failure 400 {object} response.ErrorResponse "잘못된 링크"
// @Failure 429 {object} response.ErrorResponse "요청 한도 초과"
// @Router /api/v1/analyze [get]
func (h *Handler) AnalyzeQueryHandler(c echo.Context) error {
	req := request.AnalyzeRequest{
		URL:            c.QueryParam("url"),
		ManualPrice:    parseAmount(c.QueryParam("manualPrice")),
		ManualShipping: parseAmount(c.QueryParam("manualShipping")),
	}

	return h.analyze(c, req)
}

// AnalyzeHandler godoc
// @Summary 상품 링크 분석
// @Description JSON 본문으로 받은 상품 링크를 분석합니다. manualPrice 가 있으면 캐시를 거치지 않고 수동 제안을 추가합니다.
// @Tags Analyze
// @Accept json
// @Produce json
// @Param request body request.AnalyzeRequest true "분석 요청"
// @Success 200 {object} analyzer.Response "분석 결과"
// @Failure 400 {object} response.ErrorResponse "잘못된 링크 또는 JSON 형식 오류"
// @Failure 415 {object} response.ErrorResponse "JSON 이 아닌 본문"
// @Router /api/v1/analyze [post]
func (h *Handler) AnalyzeHandler(c echo.Context) error {
	req := new(request.AnalyzeRequest)
	if err := c.Bind(req); err != nil {
		return NewErrInvalidBody()
	}

	return h.analyze(c, *req)
}

func (h *Handler) analyze(c echo.Context, req request.AnalyzeRequest) error {
	if err := validateRequest(req); err != nil {
		return NewErrInvalidURL()
	}

	resp, err := h.analyzer.Analyze(c.Request().Context(), analyzer.Input{
		URL:            req.URL,
		ManualPrice:    req.ManualPrice,
		ManualShipping: req.ManualShipping,
	})
	if err != nil {
		if analyzer.IsInvalidURL(err) {
			return NewErrInvalidURL()
		}
		return toHTTPError(err)
	}

	h.log(c).WithFields(applog.Fields{
		"product_key": resp.Product.ProductKey,
		"mode":        resp.Mode,
		"score":       resp.Score.Final,
		"cached":      resp.Cached,
	}).Debug("분석 요청 처리 완료")

	return c.JSON(http.StatusOK, resp)
}

// parseAmount 금액 문자열을 해석합니다. 비어 있거나 해석할 수 없으면 nil 입니다.
func parseAmount(s string) *float64 {
	if s == "" {
		return nil
	}
	v, ok := numparse.Price(s)
	if !ok {
		return nil
	}
	return &v
}
