package fetcher

import (
	"net/http"
	"net/url"
	"slices"
	"strings"
)

var (
	// sensitiveExactKeys 정확히 일치하면 마스킹할 쿼리 파라미터 이름 (소문자)
	sensitiveExactKeys = []string{
		"token", "auth", "key", "secret", "pass", "password", "signature",
		"access_token", "api_key", "apikey", "client_secret", "refresh_token",
	}

	// sensitiveSuffixes 이 접미사로 끝나면 마스킹할 쿼리 파라미터 이름
	sensitiveSuffixes = []string{
		"_token", "_secret", "_key", "_sig", "_password",
	}

	sensitiveHeaders = []string{"Authorization", "Proxy-Authorization", "Cookie", "Set-Cookie"}
)

const redactedValue = "xxxxx"

// RedactURL 로그나 에러 메시지에 남기기 전에 URL의 민감 정보(사용자 정보, API 키 등)를 마스킹합니다.
func RedactURL(u *url.URL) string {
	return redactURL(u)
}

func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	ru := *u

	if u.User != nil {
		if _, has := u.User.Password(); has {
			ru.User = url.UserPassword(u.User.Username(), redactedValue)
		} else if u.User.Username() != "" {
			ru.User = url.User(redactedValue)
		}
	}

	if u.RawQuery != "" {
		query := ru.Query()
		for key := range query {
			if isSensitiveKey(key) {
				query.Set(key, redactedValue)
			}
		}

		ru.RawQuery = query.Encode()
	}

	return ru.String()
}

// redactRawURL 문자열 형태의 URL을 마스킹합니다. 파싱에 실패하면 사용자 정보 구간만 가립니다.
func redactRawURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		if at := strings.LastIndex(rawURL, "@"); at != -1 {
			if scheme := strings.Index(rawURL[:at], "://"); scheme != -1 {
				return rawURL[:scheme+3] + redactedValue + rawURL[at:]
			}
			return redactedValue + rawURL[at:]
		}
		return rawURL
	}

	return redactURL(u)
}

func redactHeaders(h http.Header) http.Header {
	if h == nil {
		return nil
	}

	masked := h.Clone()
	for _, key := range sensitiveHeaders {
		if masked.Get(key) != "" {
			masked.Set(key, "***")
		}
	}

	return masked
}

func isSensitiveKey(key string) bool {
	lowerKey := strings.ToLower(key)

	if slices.Contains(sensitiveExactKeys, lowerKey) {
		return true
	}

	for _, suffix := range sensitiveSuffixes {
		if strings.HasSuffix(lowerKey, suffix) {
			return true
		}
	}

	return false
}
