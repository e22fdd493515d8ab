package analyzer

import (
	apperrors "github.com/darkkaiser/bikonomi/internal/pkg/errors"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/source"
)

var (
	// ErrInvalidURL 분석할 링크를 해석할 수 없을 때 반환됩니다. 호출자에게 전달되는 유일한 분석 에러입니다.
	ErrInvalidURL = apperrors.New(apperrors.InvalidInput, source.InvalidURLMessage)

	// ErrFetchBlocked 상품 페이지가 봇 차단으로 막혔습니다.
	ErrFetchBlocked = apperrors.New(apperrors.Forbidden, "상품 페이지 요청이 차단되었습니다")

	// ErrFetchTransient 재시도 후에도 상품 페이지를 가져오지 못했습니다.
	ErrFetchTransient = apperrors.New(apperrors.Unavailable, "상품 페이지를 가져오지 못했습니다")

	// ErrExtractionEmpty 페이지는 받았지만 가격을 찾지 못했습니다.
	ErrExtractionEmpty = apperrors.New(apperrors.ParsingFailed, "상품 페이지에서 가격을 찾지 못했습니다")

	// ErrMarketDataInsufficient 시세를 계산할 관측치가 부족합니다.
	ErrMarketDataInsufficient = apperrors.New(apperrors.NotFound, "시세를 계산할 가격 이력이 부족합니다")

	// ErrPersistenceUnavailable 가격 이력 저장소를 사용할 수 없습니다.
	ErrPersistenceUnavailable = apperrors.New(apperrors.System, "가격 이력 저장소를 사용할 수 없습니다")
)

func newErrInvalidURL(cause error) error {
	return apperrors.Wrap(ErrInvalidURL, apperrors.InvalidInput, cause.Error())
}

func newErrPersistence(cause error) error {
	return apperrors.Wrap(ErrPersistenceUnavailable, apperrors.System, cause.Error())
}

// IsInvalidURL err 이 잘못된 링크로 인한 분석 실패인지 확인합니다.
func IsInvalidURL(err error) bool {
	return apperrors.Is(err, apperrors.InvalidInput)
}
