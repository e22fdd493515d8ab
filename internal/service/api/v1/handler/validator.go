package handler

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

// getValidator korean 태그를 필드명으로 쓰는 validator 를 반환합니다.
func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			if name := fld.Tag.Get("korean"); name != "" {
				return name
			}
			return fld.Name
		})
	})
	return validate
}

// validateRequest 구조체의 validate 태그를 검증합니다.
func validateRequest(req any) error {
	return getValidator().Struct(req)
}

// formatValidationError 첫 번째 검증 에러를 한글 메시지로 변환합니다.
func formatValidationError(err error) string {
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return err.Error()
	}

	fieldErr := validationErrors[0]
	name := fieldErr.Field()

	switch fieldErr.Tag() {
	case "required":
		return fmt.Sprintf("%s는 필수입니다", name)
	case "max":
		if fieldErr.Kind() == reflect.String {
			return fmt.Sprintf("%s는 최대 %s자까지 입력 가능합니다", name, fieldErr.Param())
		}
		return fmt.Sprintf("%s는 최대 %s까지 입력 가능합니다", name, fieldErr.Param())
	case "gt":
		return fmt.Sprintf("%s는 %s보다 커야 합니다", name, fieldErr.Param())
	default:
		return fmt.Sprintf("%s 검증 실패: %s", name, fieldErr.Tag())
	}
}
