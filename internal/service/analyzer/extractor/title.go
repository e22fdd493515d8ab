package extractor

import (
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/darkkaiser/bikonomi/pkg/strutil"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	// DefaultTitle 제목을 전혀 알 수 없을 때 사용하는 제목
	DefaultTitle = "Ürün"

	maxTitleRunes   = 120
	maxSlugWords    = 10
	truncatedLength = 117
)

var siteSuffixPattern = regexp.MustCompile(`(?i)\s*[|\-:]\s*(Trendyol|Hepsiburada|Amazon\.com\.tr|Amazon)\s*$`)

// CleanTitle 공백을 정리하고 "| Trendyol" 같은 사이트 접미사를 제거합니다.
// 120자를 넘으면 117자에서 자르고 "…"를 붙이며, 결과가 비어 있으면 "Ürün"을 반환합니다.
func CleanTitle(title string) string {
	s := strutil.NormalizeSpace(title)
	s = strings.TrimSpace(siteSuffixPattern.ReplaceAllString(s, ""))

	if utf8.RuneCountInString(s) > maxTitleRunes {
		s = strings.TrimSpace(strutil.Prefix(s, truncatedLength)) + "…"
	}
	if s == "" {
		return DefaultTitle
	}
	return s
}

var (
	slugStopwords = map[string]bool{
		"p": true, "pr": true, "product": true, "products": true, "urun": true, "ürün": true,
		"item": true, "items": true, "id": true, "sku": true, "ref": true, "html": true, "htm": true,
		"tr": true, "dp": true,
	}

	// slugWordFixes 슬러그에서 자주 보이는 약어와 브랜드 표기 보정
	slugWordFixes = map[string]string{
		"gb": "GB", "tb": "TB", "ssd": "SSD", "hdd": "HDD", "ram": "RAM",
		"oled": "OLED", "qled": "QLED", "uhd": "UHD", "4k": "4K", "8k": "8K",
		"wifi": "Wi-Fi", "usb": "USB", "typec": "Type-C",
		"iphone": "iPhone", "ipad": "iPad", "macbook": "MacBook", "airpods": "AirPods",
		"ps4": "PS4", "ps5": "PS5",
	}

	slugFileSuffix   = regexp.MustCompile(`(?i)\.(html?|php|aspx)$`)
	slugSymbols      = regexp.MustCompile(`[|()\[\]{}<>"’'` + "`" + `´]+`)
	slugNumericID    = regexp.MustCompile(`^\d{8,}$`)
	slugAlphaNumID   = regexp.MustCompile(`^[A-Za-z0-9]{12,}$`)
	slugASIN         = regexp.MustCompile(`^[A-Z0-9]{10}$`)
	slugCapacityUnit = regexp.MustCompile(`^(\d+)(gb|tb)$`)
	slugHasDigit     = regexp.MustCompile(`\d`)
	slugHasLetter    = regexp.MustCompile(`[A-Za-z]`)
)

// TitleFromURL URL 마지막 경로 구간(슬러그)에서 사람이 읽을 수 있는 제목을 만듭니다.
//
//	/apple-iphone-15-128gb-siyah-p-761245389 → "Apple iPhone 15 128GB Siyah"
func TitleFromURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	var slug string
	for _, part := range strings.Split(u.Path, "/") {
		if part != "" {
			slug = part
		}
	}

	return titleFromSlug(slug)
}

func titleFromSlug(slug string) string {
	if decoded, err := url.PathUnescape(slug); err == nil {
		slug = decoded
	}
	slug = slugFileSuffix.ReplaceAllString(slug, "")
	slug = strings.NewReplacer("+", " ", "-", " ", "_", " ").Replace(slug)
	slug = slugSymbols.ReplaceAllString(slug, " ")

	// cases.Caser는 상태를 가지므로 고루틴 간에 공유하지 않는다.
	lower := cases.Lower(language.Turkish)
	title := cases.Title(language.Turkish)

	words := make([]string, 0, maxSlugWords)
	for _, token := range strings.Fields(slug) {
		if len(words) == maxSlugWords {
			break
		}
		if utf8.RuneCountInString(token) <= 1 || slugStopwords[lower.String(token)] || looksLikeID(token) {
			continue
		}
		words = append(words, titleCaseWord(token, lower, title))
	}

	return strings.Join(words, " ")
}

// looksLikeID 긴 숫자나 숫자와 문자가 섞인 긴 토큰(Amazon ASIN 포함)은 상품 ID로 봅니다.
func looksLikeID(token string) bool {
	if slugNumericID.MatchString(token) {
		return true
	}
	if !slugHasDigit.MatchString(token) || !slugHasLetter.MatchString(token) {
		return false
	}
	return slugAlphaNumID.MatchString(token) || slugASIN.MatchString(token)
}

func titleCaseWord(word string, lower, title cases.Caser) string {
	low := lower.String(word)

	if fixed, ok := slugWordFixes[low]; ok {
		return fixed
	}
	if m := slugCapacityUnit.FindStringSubmatch(low); m != nil {
		return m[1] + strings.ToUpper(m[2])
	}
	return title.String(low)
}
