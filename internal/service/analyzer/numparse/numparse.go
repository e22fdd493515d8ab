// Package numparse 가격과 평점 텍스트를 숫자로 변환합니다.
//
// 페이지에서 찾은 모든 숫자 텍스트는 추출 전략과 무관하게 이 패키지를 거쳐 해석됩니다.
//
//	"1.299,90 TL" → 1299.90
//	"1299,90"     → 1299.90
//	"1299.90"     → 1299.90
//	"₺1.299.000"  → 1299000
//	"1.299 TL"    → 1299
package numparse

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// MaxPlausiblePrice 이 값을 넘는 가격은 상품 ID 등 다른 숫자로 간주합니다.
const MaxPlausiblePrice = 500000

var currencyWords = []string{"TRY", "TL", "USD", "EUR", "₺", "$", "€"}

// Parse text에서 숫자를 해석합니다. 해석할 수 없으면 false를 반환합니다.
//
// 점(.)과 쉼표(,)가 모두 있으면 더 오른쪽에 있는 기호를 소수점으로, 다른 하나를 천 단위 구분자로 봅니다.
// 쉼표만 있으면 쉼표가 소수점입니다. 점이 두 개 이상이거나, 하나뿐이고 뒤에 정확히 세 자리가
// 오면("1.299") 천 단위 구분자입니다.
func Parse(text string) (float64, bool) {
	s := strings.ToUpper(strings.TrimSpace(text))
	for _, w := range currencyWords {
		s = strings.ReplaceAll(s, w, "")
	}
	s = strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) || r == '\'' {
			return -1
		}
		return r
	}, s)

	s = keepNumeric(s)
	if s == "" {
		return 0, false
	}

	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')

	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastComma > lastDot {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.Replace(s, ",", ".", 1)
		}
	case strings.Count(s, ".") > 1:
		s = strings.ReplaceAll(s, ".", "")
	case lastDot >= 0 && len(s)-lastDot-1 == 3:
		// "1.299" 처럼 점 뒤에 정확히 세 자리가 오면 천 단위 구분자입니다.
		s = s[:lastDot] + s[lastDot+1:]
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// Price 가격으로 유효한 값(0 초과)만 반환합니다.
func Price(text string) (float64, bool) {
	v, ok := Parse(text)
	if !ok || v <= 0 {
		return 0, false
	}
	return v, true
}

// Rating 평점으로 유효한 값(0 이상)만 반환합니다.
func Rating(text string) (float64, bool) {
	v, ok := Parse(text)
	if !ok || v < 0 {
		return 0, false
	}
	return v, true
}

// Count 리뷰 수처럼 정수로 표현되는 값을 반환합니다. "1.234 değerlendirme" → 1234
func Count(text string) (int, bool) {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, firstNumberRun(text))
	if digits == "" {
		return 0, false
	}
	n, err := strconv.Atoi(digits)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Float JSON에서 읽은 임의 값(숫자, 문자열)을 가격 후보로 변환합니다.
func Float(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return 0, false
		}
		return x, true
	case float32:
		return Float(float64(x))
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case string:
		return Parse(x)
	default:
		return 0, false
	}
}

// Plausible 앱 상태 JSON에서 찾은 값이 가격으로 그럴듯한지 검사합니다. (1 초과, MaxPlausiblePrice 이하)
func Plausible(v float64) bool {
	return v > 1 && v <= MaxPlausiblePrice
}

// keepNumeric 첫 번째 숫자 구간(숫자, 점, 쉼표, 선행 부호)만 남깁니다.
func keepNumeric(s string) string {
	run := firstNumberRun(s)
	run = strings.Trim(run, ".,")
	if run == "" || strings.IndexFunc(run, unicode.IsDigit) < 0 {
		return ""
	}
	return run
}

func firstNumberRun(s string) string {
	start := strings.IndexFunc(s, func(r rune) bool { return r >= '0' && r <= '9' })
	if start < 0 {
		return ""
	}
	if start > 0 && s[start-1] == '-' {
		start--
	}
	end := start + 1
	for end < len(s) {
		c := s[end]
		if (c >= '0' && c <= '9') || c == '.' || c == ',' {
			end++
			continue
		}
		break
	}
	return s[start:end]
}
