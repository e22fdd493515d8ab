package fetcher

import (
	"net/http"

	"github.com/darkkaiser/bikonomi/pkg/strutil"
)

// challengeMarkers 봇 차단(캡차, WAF) 페이지에만 등장하는 문구
var challengeMarkers = []string{
	"cf-chl",
	"Just a moment",
	"Access Denied",
	"px-captcha",
	"Robot Check",
	"/errors/validateCaptcha",
}

// smallPageCaptchaLimit 이보다 작은 문서에서만 일반적인 "captcha" 문구를 차단 신호로 본다.
// 정상 상품 페이지도 reCAPTCHA 스크립트를 포함하는 경우가 흔하다.
const smallPageCaptchaLimit = 20 * 1024

// IsChallengePage 본문이 봇 차단 페이지로 보이는지 판별합니다.
func IsChallengePage(html string) bool {
	if html == "" {
		return false
	}
	if strutil.ContainsAnyFold(html, challengeMarkers...) {
		return true
	}
	return len(html) < smallPageCaptchaLimit && strutil.ContainsAnyFold(html, "captcha")
}

// isBlockedStatus 상태 코드와 본문 일부로 차단 여부를 판별합니다.
func isBlockedStatus(statusCode int, bodySnippet string) bool {
	switch statusCode {
	case http.StatusForbidden, http.StatusTooManyRequests:
		return true

	case http.StatusServiceUnavailable:
		return IsChallengePage(bodySnippet)
	}

	return false
}
