package extractor

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/numparse"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/source"
)

// selectors 판매처별 DOM 셀렉터입니다. 앞에 있는 셀렉터가 우선합니다.
type selectors struct {
	title       []string
	price       []string
	image       []string
	rating      []string
	ratingCount []string
}

var sourceSelectors = map[source.Source]selectors{
	source.Trendyol: {
		title: []string{"h1.pr-new-br", "h1.product-title"},
		price: []string{".product-price-container .prc-dsc", ".prc-dsc", ".product-price-container .prc-slg", ".product-price-container"},
		image: []string{".base-product-image img", ".gallery-container img"},
		rating: []string{
			".product-rating-score .value",
			".rating-line-count",
		},
		ratingCount: []string{".total-review-count", ".rvw-cnt-tx"},
	},
	source.Hepsiburada: {
		title:       []string{"h1#product-name", `h1[data-test-id="title"]`},
		price:       []string{`[data-test-id="price-current-price"]`, "#offering-price", `[data-test-id="default-price"]`},
		image:       []string{`img[data-test-id="product-image"]`, ".product-image img"},
		rating:      []string{`[data-test-id="has-review"] span`, ".rating-star"},
		ratingCount: []string{`[data-test-id="review-count"]`, "#comments-container .count"},
	},
	source.Amazon: {
		title:       []string{"#productTitle"},
		price:       []string{"#corePrice_feature_div .a-offscreen", ".a-price .a-offscreen", "#priceblock_ourprice", "#priceblock_dealprice"},
		image:       []string{"#landingImage", "#imgBlkFront"},
		rating:      []string{"#acrPopover"},
		ratingCount: []string{"#acrCustomerReviewText"},
	},
}

// sourcePricePatterns 판매처별로 HTML에 내장된 JSON 키에서 가격을 찾는 정규식입니다.
var sourcePricePatterns = map[source.Source][]*regexp.Regexp{
	source.Trendyol: {
		regexp.MustCompile(`(?i)"price"\s*:\s*"([^"]+)"`),
		regexp.MustCompile(`(?i)"salePrice"\s*:\s*"([^"]+)"`),
		regexp.MustCompile(`(?i)"discountedPrice"\s*:\s*"([^"]+)"`),
		regexp.MustCompile(`(?i)"sellingPrice"\s*:\s*"([^"]+)"`),
		regexp.MustCompile(`(?i)"price"\s*:\s*([0-9]+(?:\.[0-9]+)?)`),
		regexp.MustCompile(`(?i)"salePrice"\s*:\s*([0-9]+(?:\.[0-9]+)?)`),
	},
	source.Hepsiburada: {
		regexp.MustCompile(`(?i)"price"\s*:\s*"([^"]+)"`),
		regexp.MustCompile(`(?i)"finalPrice"\s*:\s*"([^"]+)"`),
		regexp.MustCompile(`(?i)"currentPrice"\s*:\s*"([^"]+)"`),
		regexp.MustCompile(`(?i)"price"\s*:\s*([0-9]+(?:\.[0-9]+)?)`),
		regexp.MustCompile(`(?i)"finalPrice"\s*:\s*([0-9]+(?:\.[0-9]+)?)`),
	},
	source.Amazon: {
		regexp.MustCompile(`(?i)"priceAmount"\s*:\s*"?([0-9.,]+)"?`),
		regexp.MustCompile(`(?i)"price"\s*:\s*"([^"]+)"`),
		regexp.MustCompile(`(?i)([0-9.,]+)\s*TL</span>`),
	},
}

var ratingNumberPattern = regexp.MustCompile(`\d+(?:[.,]\d+)?`)

// DOMStrategy 판매처 전용 CSS 셀렉터와 내장 JSON 키 정규식으로 상품 정보를 읽습니다.
type DOMStrategy struct{}

func (DOMStrategy) Name() string { return "dom" }

func (DOMStrategy) Extract(p *Page) (Fields, error) {
	sel, ok := sourceSelectors[p.Source]
	if !ok {
		return Fields{}, nil
	}

	doc := p.Doc

	f := Fields{
		Title: firstText(doc, sel.title),
		Image: firstImage(doc, sel.image),
	}

	for _, s := range sel.price {
		if v, ok := numparse.Price(selectionValue(doc.Find(s).First())); ok {
			f.Price = ptr(v)
			break
		}
	}
	if f.Price == nil {
		f.Price = matchPrice(p.HTML, sourcePricePatterns[p.Source])
	}

	for _, s := range sel.rating {
		if v, ok := ratingFromText(selectionValue(doc.Find(s).First())); ok {
			f.Rating = ptr(v)
			break
		}
	}
	for _, s := range sel.ratingCount {
		if n, ok := numparse.Count(doc.Find(s).First().Text()); ok {
			f.RatingCount = ptr(n)
			break
		}
	}

	return f, nil
}

func firstText(doc *goquery.Document, selectors []string) string {
	for _, s := range selectors {
		if t := strings.TrimSpace(doc.Find(s).First().Text()); t != "" {
			return t
		}
	}
	return ""
}

// firstImage 고해상도 속성(data-old-hires 등)을 src보다 먼저 확인합니다.
func firstImage(doc *goquery.Document, selectors []string) string {
	for _, s := range selectors {
		img := doc.Find(s).First()
		for _, attr := range []string{"data-old-hires", "data-src", "src"} {
			if v, ok := img.Attr(attr); ok && strings.TrimSpace(v) != "" {
				return strings.TrimSpace(v)
			}
		}
	}
	return ""
}

// selectionValue content 속성이 있으면 그 값을, 없으면 title 속성이나 텍스트를 반환합니다.
func selectionValue(s *goquery.Selection) string {
	if s.Length() == 0 {
		return ""
	}
	for _, attr := range []string{"content", "title"} {
		if v, ok := s.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return v
		}
	}
	return s.Text()
}

// matchPrice 정규식을 순서대로 적용하여 처음으로 유효한 가격을 반환합니다.
func matchPrice(html string, patterns []*regexp.Regexp) *float64 {
	for _, re := range patterns {
		m := re.FindStringSubmatch(html)
		if len(m) < 2 {
			continue
		}
		if v, ok := numparse.Price(m[1]); ok {
			return ptr(v)
		}
	}
	return nil
}

// ratingFromText "4,5 out of 5", "5 yıldız üzerinden 4,6" 같은 문구에서 평점을 읽습니다.
//
// 소수점이 있는 숫자를 우선하고, "üzerinden"(~중에서) 표현이면 마지막 숫자를 사용합니다.
func ratingFromText(text string) (float64, bool) {
	nums := ratingNumberPattern.FindAllString(text, -1)
	if len(nums) == 0 {
		return 0, false
	}

	pick := nums[0]
	if strings.Contains(strings.ToLower(text), "üzerinden") {
		pick = nums[len(nums)-1]
	}
	for _, n := range nums {
		if strings.ContainsAny(n, ".,") {
			pick = n
			break
		}
	}

	v, ok := numparse.Rating(pick)
	if !ok || v > 5 {
		return 0, false
	}
	return v, true
}
