package handler

import (
	apperrors "github.com/darkkaiser/bikonomi/internal/pkg/errors"
	"github.com/darkkaiser/bikonomi/internal/service/api/constants"
	"github.com/darkkaiser/bikonomi/internal/service/api/httputil"
)

// NewErrInvalidURL 분석할 링크가 잘못되었을 때의 400 에러를 생성합니다.
func NewErrInvalidURL() error {
	return httputil.NewBadRequestError(constants.ErrMsgInvalidURL)
}

// NewErrInvalidBody 요청 본문을 파싱하지 못했을 때의 400 에러를 생성합니다.
func NewErrInvalidBody() error {
	return httputil.NewBadRequestError(constants.ErrMsgInvalidBody)
}

// NewErrValidationFailed 요청 값 검증에 실패했을 때의 400 에러를 생성합니다.
func NewErrValidationFailed(msg string) error {
	return httputil.NewBadRequestError(msg)
}

// toHTTPError 분석 파이프라인 에러를 HTTP 에러로 바꿉니다.
//
//   - InvalidInput → 400 (AppError 메시지)
//   - System/Unavailable → 503
//   - 그 외 → 그대로 반환하여 전역 에러 핸들러가 500 으로 응답합니다.
func toHTTPError(err error) error {
	var appErr *apperrors.AppError

	switch {
	case apperrors.Is(err, apperrors.InvalidInput):
		msg := constants.ErrMsgBadRequest
		if apperrors.As(err, &appErr) {
			msg = appErr.Message()
		}
		return httputil.NewBadRequestError(msg)

	case apperrors.Is(err, apperrors.System), apperrors.Is(err, apperrors.Unavailable):
		return httputil.NewServiceUnavailableError(constants.ErrMsgServiceUnavailable)
	}

	return err
}
