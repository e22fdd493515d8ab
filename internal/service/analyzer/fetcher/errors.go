package fetcher

import (
	"fmt"
	"strings"

	apperrors "github.com/darkkaiser/bikonomi/internal/pkg/errors"
)

var (
	// ErrMaxRetriesExceeded 최대 재시도 횟수를 모두 소진한 경우 반환됩니다.
	ErrMaxRetriesExceeded = apperrors.New(apperrors.Unavailable, "최대 재시도 횟수를 초과하여 요청이 최종 실패했습니다")

	// ErrMissingResponseContentType 응답에 Content-Type 헤더가 없는 경우 반환됩니다.
	ErrMissingResponseContentType = apperrors.New(apperrors.ExecutionFailed, "응답에 Content-Type 헤더가 없습니다")

	// ErrRobotsDisallowed robots.txt 규칙에 의해 수집이 허용되지 않은 경로입니다.
	ErrRobotsDisallowed = apperrors.New(apperrors.Forbidden, "robots.txt 규칙에 의해 접근이 허용되지 않은 경로입니다")

	// ErrChallengePage 봇 차단(캡차) 페이지가 감지되었습니다.
	ErrChallengePage = apperrors.New(apperrors.Forbidden, "봇 차단 페이지가 감지되었습니다")

	// ErrNoRenderer 사용할 수 있는 렌더러가 없습니다.
	ErrNoRenderer = apperrors.New(apperrors.Unavailable, "사용 가능한 렌더러가 없습니다")
)

func newErrInvalidRequest(err error) error {
	return apperrors.Wrap(err, apperrors.InvalidInput, "HTTP 요청 생성에 실패했습니다")
}

func newErrMaxRetriesExceeded(cause error) error {
	return apperrors.Wrap(cause, apperrors.Unavailable, ErrMaxRetriesExceeded.Error())
}

func newErrRetryAfterExceeded(retryAfter, maxDelay string) error {
	return apperrors.Newf(apperrors.Unavailable, "서버가 요구한 재시도 대기 시간(%s)이 허용된 최대 대기 시간(%s)을 초과합니다", retryAfter, maxDelay)
}

func newErrGetBodyFailed(err error) error {
	return apperrors.Wrap(err, apperrors.Internal, "재시도를 위한 요청 본문 재생성에 실패했습니다")
}

func newErrUnsupportedMediaType(mediaType string, allowed []string) error {
	return apperrors.Newf(apperrors.InvalidInput, "지원하지 않는 미디어 타입입니다: %s (허용: %s)", mediaType, strings.Join(allowed, ", "))
}

func newErrResponseBodyTooLarge(limit int64) error {
	return apperrors.Newf(apperrors.InvalidInput, "응답 본문 크기가 허용된 최대 크기(%d바이트)를 초과했습니다", limit)
}

func newErrResponseBodyTooLargeByContentLength(contentLength, limit int64) error {
	return apperrors.Newf(apperrors.InvalidInput, "응답 본문 크기(%d바이트)가 허용된 최대 크기(%d바이트)를 초과했습니다", contentLength, limit)
}

func newErrInvalidProxyURL(redacted string) error {
	return apperrors.Newf(apperrors.InvalidInput, "프록시 URL 형식이 올바르지 않습니다: %s", redacted)
}

func newErrDecodeBody(err error, encoding string) error {
	return apperrors.Wrap(err, apperrors.ParsingFailed, fmt.Sprintf("응답 본문 디코딩에 실패했습니다 (Content-Encoding: %s)", encoding))
}

func newErrRenderFailed(err error, renderer string) error {
	return apperrors.Wrap(err, apperrors.ExecutionFailed, fmt.Sprintf("렌더러(%s)가 페이지를 가져오지 못했습니다", renderer))
}
