package fetcher

import (
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsChallengePage(t *testing.T) {
	tests := []struct {
		name string
		html string
		want bool
	}{
		{"빈 문서", "", false},
		{"Cloudflare 대기 페이지", "<title>Just a moment...</title>", true},
		{"Cloudflare 챌린지 스크립트", `<script src="/cdn-cgi/challenge-platform/h/b/orchestrate/chl_page/v1?ray=1" id="cf-chl-widget"></script>`, true},
		{"PerimeterX", `<div id="px-captcha"></div>`, true},
		{"Amazon 로봇 확인", `<title>Robot Check</title><form action="/errors/validateCaptcha">`, true},
		{"Akamai 접근 거부", "<H1>Access Denied</H1>", true},
		{"작은 캡차 페이지", "<p>Please solve the CAPTCHA</p>", true},
		{"정상 상품 페이지", "<html><title>Kulaklık</title><span class=\"prc-dsc\">1.299,90 TL</span></html>", false},
		{"reCAPTCHA 스크립트를 포함한 큰 상품 페이지", "<script src=\"https://www.google.com/recaptcha/api.js\"></script>" + strings.Repeat("<p>ürün açıklaması</p>", 2000), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsChallengePage(tt.html))
		})
	}
}

func TestIsBlockedStatus(t *testing.T) {
	assert.True(t, isBlockedStatus(http.StatusForbidden, ""))
	assert.True(t, isBlockedStatus(http.StatusTooManyRequests, ""))
	assert.True(t, isBlockedStatus(http.StatusServiceUnavailable, "<title>Just a moment...</title>"))
	assert.False(t, isBlockedStatus(http.StatusServiceUnavailable, "maintenance"))
	assert.False(t, isBlockedStatus(http.StatusNotFound, ""))
}
