// Package source 상품 링크를 정규화하고 판매처(Source)를 판별합니다.
//
// 정규화 결과의 ProductKey는 캐시와 가격 이력의 파티션 키로 사용되므로
// 추적 파라미터만 다른 링크는 반드시 같은 키를 가져야 합니다.
package source

import (
	"net/url"
	"regexp"
	"sort"
	"strings"

	apperrors "github.com/darkkaiser/bikonomi/internal/pkg/errors"
)

// Source 판매처 구분입니다.
type Source string

const (
	Trendyol    Source = "Trendyol"
	Hepsiburada Source = "Hepsiburada"
	Amazon      Source = "Amazon"
	Other       Source = "Other"
	Unknown     Source = "Unknown"
)

// Known 전용 추출 규칙이 있는 판매처인지 여부입니다.
func (s Source) Known() bool {
	return s == Trendyol || s == Hepsiburada || s == Amazon
}

// TrustLevel 판매처 신뢰도(0~2)입니다.
func (s Source) TrustLevel() int {
	switch {
	case s.Known():
		return 2
	case s == Other:
		return 1
	default:
		return 0
	}
}

// TrustLevel 링크 단위 신뢰도입니다. 전용 규칙이 없는 판매처를 암호화되지 않은 http로 연결하면 0입니다.
func (n Normalized) TrustLevel() int {
	if n.Source == Other && strings.HasPrefix(n.CleanURL, "http://") {
		return 0
	}
	return n.Source.TrustLevel()
}

// InvalidURLMessage 잘못된 링크에 대해 사용자에게 보여주는 메시지입니다.
const InvalidURLMessage = "Geçersiz URL"

func newErrInvalidURL(raw string, cause error) error {
	if cause == nil {
		return apperrors.Newf(apperrors.InvalidInput, "%s: %q", InvalidURLMessage, raw)
	}
	return apperrors.Wrapf(cause, apperrors.InvalidInput, "%s: %q", InvalidURLMessage, raw)
}

// IsInvalidURL err이 Normalize의 입력 오류인지 확인합니다.
func IsInvalidURL(err error) bool {
	return apperrors.Is(err, apperrors.InvalidInput)
}

// Normalized 정규화된 링크 정보입니다.
type Normalized struct {
	ProductKey string `json:"productKey"`
	Source     Source `json:"source"`
	CleanURL   string `json:"cleanUrl"`
	Host       string `json:"host"`
	Path       string `json:"path"`
}

var (
	schemePattern = regexp.MustCompile(`(?i)^[a-z][a-z0-9+.-]*://`)

	// /dp/ID, /gp/product/ID, /product/ID (ASIN 10자리)
	amazonIDPattern = regexp.MustCompile(`(?i)/(?:dp|gp/product|product)/([a-z0-9]{10})(?:[/?]|$)`)

	trackingParams = map[string]struct{}{
		"gclid": {}, "fbclid": {}, "yclid": {}, "msclkid": {}, "dclid": {},
		"gbraid": {}, "wbraid": {}, "igshid": {}, "mc_cid": {}, "mc_eid": {},
		"_ga": {}, "ttclid": {},
	}
)

// Normalize raw 링크를 정규화합니다.
//
// 스킴이 없으면 https://를 붙이고, www. 접두사를 제거한 소문자 호스트와
// 추적 파라미터를 제거한 쿼리로 CleanURL을 만듭니다.
// Amazon 링크는 /dp/{ASIN} 형태로 경로를 축약합니다.
func Normalize(raw string) (Normalized, error) {
	s := strings.TrimSpace(raw)
	if s == "" {
		return Normalized{}, newErrInvalidURL(raw, nil)
	}
	if !schemePattern.MatchString(s) {
		s = "https://" + s
	}

	u, err := url.Parse(s)
	if err != nil {
		return Normalized{}, newErrInvalidURL(raw, err)
	}
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return Normalized{}, newErrInvalidURL(raw, nil)
	}

	host := strings.TrimPrefix(strings.ToLower(u.Hostname()), "www.")
	if host == "" || strings.ContainsAny(host, " \t") {
		return Normalized{}, newErrInvalidURL(raw, nil)
	}

	src := Detect(host)

	cleanPath := strings.TrimRight(u.Path, "/")
	query := ""
	if m := amazonIDPattern.FindStringSubmatch(u.Path + "/"); src == Amazon && m != nil {
		cleanPath = "/dp/" + strings.ToUpper(m[1])
	} else {
		query = cleanQuery(u.Query())
	}

	clean := url.URL{Scheme: scheme, Host: host, Path: cleanPath, RawQuery: query}
	if port := u.Port(); port != "" {
		clean.Host = host + ":" + port
	}
	path := clean.EscapedPath()

	return Normalized{
		ProductKey: productKey(src, host, path),
		Source:     src,
		CleanURL:   clean.String(),
		Host:       host,
		Path:       path,
	}, nil
}

// Detect 호스트(www. 제거, 소문자)로 판매처를 판별합니다.
func Detect(host string) Source {
	host = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(host)), "www.")
	switch {
	case host == "":
		return Unknown
	case matchDomain(host, "trendyol.com"):
		return Trendyol
	case matchDomain(host, "hepsiburada.com"):
		return Hepsiburada
	case isAmazonHost(host):
		return Amazon
	default:
		return Other
	}
}

func matchDomain(host, domain string) bool {
	return host == domain || strings.HasSuffix(host, "."+domain)
}

func isAmazonHost(host string) bool {
	labels := strings.Split(host, ".")
	for i, l := range labels {
		if l == "amazon" && i < len(labels)-1 {
			return true
		}
	}
	return false
}

func productKey(src Source, host, path string) string {
	if path == "" {
		path = "/"
	}
	return strings.ToLower(string(src)) + ":" + host + path
}

// cleanQuery 추적 파라미터를 제거하고 키 순서로 정렬된 쿼리를 반환합니다.
func cleanQuery(q url.Values) string {
	for k := range q {
		lk := strings.ToLower(k)
		if strings.HasPrefix(lk, "utm_") {
			q.Del(k)
			continue
		}
		if _, ok := trackingParams[lk]; ok {
			q.Del(k)
		}
	}
	if len(q) == 0 {
		return ""
	}

	keys := make([]string, 0, len(q))
	for k := range q {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	for _, k := range keys {
		for _, v := range q[k] {
			if b.Len() > 0 {
				b.WriteByte('&')
			}
			b.WriteString(url.QueryEscape(k))
			b.WriteByte('=')
			b.WriteString(url.QueryEscape(v))
		}
	}
	return b.String()
}
