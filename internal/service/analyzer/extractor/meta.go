package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/numparse"
)

// MetaStrategy Open Graph, Twitter 카드, microdata(itemprop) 메타 정보에서 상품 정보를 읽습니다.
type MetaStrategy struct{}

func (MetaStrategy) Name() string { return "meta" }

func (MetaStrategy) Extract(p *Page) (Fields, error) {
	doc := p.Doc

	f := Fields{
		Title:        metaContent(doc, "og:title", "twitter:title"),
		Image:        metaContent(doc, "og:image", "twitter:image", "og:image:secure_url"),
		Currency:     metaContent(doc, "product:price:currency", "og:price:currency"),
		Availability: metaContent(doc, "product:availability", "og:availability"),
	}

	for _, raw := range []string{
		metaContent(doc, "product:price:amount"),
		metaContent(doc, "og:price:amount"),
		metaContent(doc, "price"),
		itempropValue(doc, "price"),
	} {
		if v, ok := numparse.Price(raw); ok {
			f.Price = ptr(v)
			break
		}
	}

	if f.Currency == "" {
		f.Currency = itempropValue(doc, "priceCurrency")
	}
	if f.Availability == "" {
		f.Availability = itempropValue(doc, "availability")
	}

	if v, ok := numparse.Rating(itempropValue(doc, "ratingValue")); ok {
		f.Rating = ptr(v)
	}
	for _, prop := range []string{"ratingCount", "reviewCount"} {
		if n, ok := numparse.Count(itempropValue(doc, prop)); ok {
			f.RatingCount = ptr(n)
			break
		}
	}

	return f, nil
}

// metaContent property 또는 name 속성이 keys 중 하나와 일치하는 첫 번째 meta 태그의 content를 반환합니다.
func metaContent(doc *goquery.Document, keys ...string) string {
	for _, key := range keys {
		for _, attr := range []string{"property", "name"} {
			if v, ok := doc.Find(`meta[` + attr + `="` + key + `"]`).First().Attr("content"); ok {
				if v = strings.TrimSpace(v); v != "" {
					return v
				}
			}
		}
	}
	return ""
}

// itempropValue itemprop 요소의 content, href 속성 또는 텍스트를 반환합니다.
func itempropValue(doc *goquery.Document, prop string) string {
	sel := doc.Find(`[itemprop="` + prop + `"]`).First()
	if sel.Length() == 0 {
		return ""
	}
	for _, attr := range []string{"content", "href"} {
		if v, ok := sel.Attr(attr); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return strings.TrimSpace(sel.Text())
}
