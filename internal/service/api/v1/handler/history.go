package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/darkkaiser/bikonomi/internal/service/analyzer"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/history"
	"github.com/darkkaiser/bikonomi/internal/service/api/constants"
	"github.com/darkkaiser/bikonomi/internal/service/api/httputil"
	applog "github.com/darkkaiser/bikonomi/pkg/log"
	"github.com/labstack/echo/v4"
)

// mimeXLSX XLSX 파일의 Content-Type
const mimeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// HistoryHandler godoc
// @Summary 가격 이력 조회
// @Description 상품 키의 최근 가격 이력을 오래된 순으로 반환합니다. h 가 없거나 0 이면 168시간입니다.
// @Tags History
// @Produce json
// @Param key query string true "상품 키" example(trendyol:trendyol.com/marka/urun-p-123)
// @Param h query int false "조회 기간(시간)" example(168)
// @Success 200 {object} analyzer.HistoryResult "가격 이력"
// @Failure 400 {object} response.ErrorResponse "상품 키 누락"
// @Failure 503 {object} response.ErrorResponse "가격 이력 저장소 오류"
// @Router /api/v1/history [get]
func (h *Handler) HistoryHandler(c echo.Context) error {
	result, err := h.history(c)
	if err != nil {
		return err
	}

	if result.Points == nil {
		result.Points = []history.Point{}
	}

	return c.JSON(http.StatusOK, result)
}

// HistoryExportHandler godoc
// @Summary 가격 이력 내보내기
// @Description 가격 이력을 XLSX 파일로 내려줍니다. 시각은 Europe/Istanbul 기준입니다.
// @Tags History
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param key query string true "상품 키"
// @Param h query int false "조회 기간(시간)" example(168)
// @Success 200 {file} file "XLSX 파일"
// @Failure 400 {object} response.ErrorResponse "상품 키 누락"
// @Failure 503 {object} response.ErrorResponse "가격 이력 저장소 오류"
// @Router /api/v1/history/export [get]
func (h *Handler) HistoryExportHandler(c echo.Context) error {
	result, err := h.history(c)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	if err := history.WriteXLSX(&buf, result.ProductKey, result.Points, h.exportLocation); err != nil {
		h.log(c).WithFields(applog.Fields{
			"product_key": result.ProductKey,
			"error":       err,
		}).Error("가격 이력 XLSX 생성 실패")

		return httputil.NewInternalServerError(constants.ErrMsgExportFailed)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="%s"`, exportFilename(result.ProductKey)))

	return c.Blob(http.StatusOK, mimeXLSX, buf.Bytes())
}

// history key 와 h(시간) 쿼리 파라미터로 가격 이력을 조회합니다.
// h 가 없거나 숫자가 아니면 기본 기간을 사용합니다.
func (h *Handler) history(c echo.Context) (analyzer.HistoryResult, error) {
	hours, _ := strconv.Atoi(strings.TrimSpace(c.QueryParam("h")))

	result, err := h.analyzer.History(c.Request().Context(), c.QueryParam("key"), hours)
	if err != nil {
		return analyzer.HistoryResult{}, toHTTPError(err)
	}

	return result, nil
}

// exportFilename 상품 키에서 파일 이름으로 쓸 수 있는 문자만 남깁니다.
//
//	"trendyol:trendyol.com/marka/urun-p-1" → "bikonomi-trendyol-trendyol.com-marka-urun-p-1.xlsx"
func exportFilename(productKey string) string {
	name := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '.', r == '_':
			return r
		default:
			return '-'
		}
	}, productKey)

	name = strings.Trim(name, "-.")
	if len(name) > 100 {
		name = name[:100]
	}
	if name == "" {
		name = "history"
	}

	return "bikonomi-" + name + ".xlsx"
}
