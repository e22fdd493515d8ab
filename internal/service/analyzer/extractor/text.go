package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/numparse"
	"github.com/darkkaiser/bikonomi/pkg/strutil"
)

var textPricePatterns = []*regexp.Regexp{
	regexp.MustCompile(`([0-9][0-9.,]*)\s*(?:TL|₺)`),
	regexp.MustCompile(`₺\s*([0-9][0-9.,]*)`),
}

// TextStrategy 화면에 보이는 텍스트에서 "1.299,90 TL" 형태의 첫 번째 가격을 찾습니다.
type TextStrategy struct{}

func (TextStrategy) Name() string { return "text" }

func (TextStrategy) Extract(p *Page) (Fields, error) {
	text := visibleText(p.Doc)
	for _, re := range textPricePatterns {
		for _, m := range re.FindAllStringSubmatch(text, 20) {
			if v, ok := numparse.Price(m[1]); ok && numparse.Plausible(v) {
				return Fields{Price: ptr(v)}, nil
			}
		}
	}
	return Fields{}, nil
}

// visibleText script, style 등을 제외한 본문 텍스트를 공백 정규화하여 반환합니다.
func visibleText(doc *goquery.Document) string {
	body := doc.Find("body").Clone()
	body.Find("script, style, noscript, template, svg").Remove()
	return strutil.NormalizeSpace(strings.TrimSpace(body.Text()))
}
