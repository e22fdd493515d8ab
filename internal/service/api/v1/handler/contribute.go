package handler

import (
	"github.com/darkkaiser/bikonomi/internal/service/analyzer"
	"github.com/darkkaiser/bikonomi/internal/service/api/httputil"
	"github.com/darkkaiser/bikonomi/internal/service/api/v1/model/request"
	applog "github.com/darkkaiser/bikonomi/pkg/log"
	"github.com/labstack/echo/v4"
)

// ContributeHandler godoc
// @Summary 가격 제보
// @Description 사용자가 제보한 가격을 가격 이력(contrib)에 추가하고 해당 상품의 분석 캐시를 비웁니다.
// @Tags History
// @Accept json
// @Produce json
// @Param request body request.ContributeRequest true "제보 정보"
// @Success 200 {object} response.SuccessResponse "성공"
// @Failure 400 {object} response.ErrorResponse "필수 필드 누락, JSON 형식 오류"
// @Failure 503 {object} response.ErrorResponse "가격 이력 저장소 오류"
// @Router /api/v1/contribute [post]
func (h *Handler) ContributeHandler(c echo.Context) error {
	req := new(request.ContributeRequest)
	if err := c.Bind(req); err != nil {
		return NewErrInvalidBody()
	}

	if err := validateRequest(req); err != nil {
		return NewErrValidationFailed(formatValidationError(err))
	}

	err := h.analyzer.Contribute(c.Request().Context(), analyzer.Contribution{
		ProductKey: req.ProductKey,
		Price:      req.Price,
		Shipping:   req.Shipping,
	})
	if err != nil {
		return toHTTPError(err)
	}

	h.log(c).WithFields(applog.Fields{
		"product_key": req.ProductKey,
		"price":       req.Price,
	}).Info("가격 제보 요청 처리 완료")

	return httputil.Success(c)
}
