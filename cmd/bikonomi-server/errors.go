package main

import (
	apperrors "github.com/darkkaiser/bikonomi/internal/pkg/errors"
)

func newErrInvalidAmount(flag, value string) error {
	return apperrors.Newf(apperrors.InvalidInput, "--%s 값을 금액으로 해석할 수 없습니다: '%s'", flag, value)
}

func newErrManualWithMultipleURLs() error {
	return apperrors.New(apperrors.InvalidInput, "--manual-price 와 --manual-shipping 은 링크를 하나만 지정할 때 사용할 수 있습니다")
}
