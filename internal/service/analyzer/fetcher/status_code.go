package fetcher

import (
	"net/http"
	"slices"

	apperrors "github.com/darkkaiser/bikonomi/internal/pkg/errors"
)

// StatusCodeFetcher HTTP 응답의 상태 코드를 검증하는 데코레이터입니다.
//
// 허용 목록에 없는 상태 코드는 HTTPStatusError로 변환되며, 응답 객체의 Body는 내부에서 정리됩니다.
type StatusCodeFetcher struct {
	delegate Fetcher

	// allowedStatusCodes nil 또는 빈 슬라이스인 경우 200 OK만 허용합니다.
	allowedStatusCodes []int
}

var _ Fetcher = (*StatusCodeFetcher)(nil)

// NewStatusCodeFetcher 지정된 상태 코드들(생략 시 200 OK)만 허용하는 StatusCodeFetcher를 생성합니다.
func NewStatusCodeFetcher(delegate Fetcher, allowedStatusCodes ...int) *StatusCodeFetcher {
	return &StatusCodeFetcher{
		delegate:           delegate,
		allowedStatusCodes: allowedStatusCodes,
	}
}

func (f *StatusCodeFetcher) Do(req *http.Request) (*http.Response, error) {
	resp, err := f.delegate.Do(req)
	if err != nil {
		if resp != nil {
			drainAndCloseBody(resp.Body)
		}

		return nil, err
	}

	if statusErr := CheckResponseStatus(resp, f.allowedStatusCodes...); statusErr != nil {
		drainAndCloseBody(resp.Body)

		return nil, statusErr
	}

	return resp, nil
}

func (f *StatusCodeFetcher) Close() error {
	return f.delegate.Close()
}

// CheckResponseStatus 응답 상태 코드가 허용 목록에 있는지 검사합니다.
//
// 허용되지 않으면 상태 코드에 맞는 에러 타입과 본문 일부(최대 4KB)를 담은 HTTPStatusError를 반환합니다.
// 본문 일부를 읽으므로 호출 이후 resp.Body는 앞부분이 소비된 상태가 됩니다.
func CheckResponseStatus(resp *http.Response, allowedStatusCodes ...int) error {
	var allowed bool
	if len(allowedStatusCodes) == 0 {
		allowed = resp.StatusCode == http.StatusOK
	} else {
		allowed = slices.Contains(allowedStatusCodes, resp.StatusCode)
	}
	if allowed {
		return nil
	}

	var urlStr string
	if resp.Request != nil {
		urlStr = redactURL(resp.Request.URL)
	}

	return &HTTPStatusError{
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		URL:         urlStr,
		Header:      redactHeaders(resp.Header),
		BodySnippet: readBodySnippet(resp.Body),
		Cause:       apperrors.Newf(statusErrorType(resp.StatusCode), "HTTP 요청이 실패했습니다. 상태 코드: %d", resp.StatusCode),
	}
}

func statusErrorType(statusCode int) apperrors.ErrorType {
	switch statusCode {
	case http.StatusNotFound, http.StatusGone:
		return apperrors.NotFound

	case http.StatusForbidden, http.StatusUnauthorized:
		return apperrors.Forbidden

	case http.StatusBadRequest:
		return apperrors.InvalidInput

	case http.StatusTooManyRequests, http.StatusRequestTimeout:
		return apperrors.Unavailable

	default:
		if statusCode >= 500 {
			return apperrors.Unavailable
		}
		return apperrors.ExecutionFailed
	}
}
