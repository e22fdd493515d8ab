package fetcher

import (
	"fmt"
	"net/http"
)

// HTTPStatusError 허용되지 않은 HTTP 상태 코드를 받았을 때 응답 정보를 담는 에러입니다.
//
// 호출자는 errors.As로 꺼내어 상태 코드나 본문 일부(차단 페이지 판별 등)를 확인할 수 있습니다.
type HTTPStatusError struct {
	// StatusCode 서버가 반환한 HTTP 상태 코드
	StatusCode int

	// Status 상태 코드의 텍스트 표현 (예: "403 Forbidden")
	Status string

	// URL 요청 대상 URL (민감 정보는 마스킹됨)
	URL string

	// Header 응답 헤더 (민감 헤더는 마스킹됨)
	Header http.Header

	// BodySnippet 응답 본문의 앞부분 (최대 4KB)
	BodySnippet string

	// Cause 근본 원인이 되는 도메인 에러
	Cause error
}

func (e *HTTPStatusError) Error() string {
	msg := fmt.Sprintf("HTTP %d (%s)", e.StatusCode, e.Status)
	if e.URL != "" {
		msg += fmt.Sprintf(" URL: %s", e.URL)
	}
	if e.BodySnippet != "" {
		msg += fmt.Sprintf(", Body: %s", e.BodySnippet)
	}
	if e.Cause != nil {
		msg += fmt.Sprintf(": %v", e.Cause)
	}
	return msg
}

func (e *HTTPStatusError) Unwrap() error {
	return e.Cause
}
