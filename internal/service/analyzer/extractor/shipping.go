package extractor

import (
	"math"
	"regexp"

	"github.com/darkkaiser/bikonomi/internal/service/analyzer/numparse"
	"github.com/darkkaiser/bikonomi/pkg/strutil"
)

var (
	shippingPattern = regexp.MustCompile(`(?i)kargo[^0-9]{0,20}([0-9.,]+)\s*(₺|TL)`)

	freeShippingPhrases = []string{"ücretsiz kargo", "kargo bedava", "ÜCRETSİZ KARGO", "KARGO BEDAVA"}
)

// extractShipping 배송비를 찾습니다. 무료 배송 문구가 있거나 배송비를 찾지 못하면 0을 반환합니다.
// 화면 텍스트를 먼저 확인하고, 없으면 원본 HTML에서 찾습니다. 결과는 반올림합니다.
func extractShipping(text, html string) float64 {
	if strutil.ContainsAnyFold(text, freeShippingPhrases...) {
		return 0
	}

	for _, s := range []string{text, html} {
		m := shippingPattern.FindStringSubmatch(s)
		if len(m) < 2 {
			continue
		}
		if v, ok := numparse.Price(m[1]); ok {
			return math.Round(v)
		}
	}

	return 0
}
