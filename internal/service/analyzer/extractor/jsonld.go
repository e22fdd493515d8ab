package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/numparse"
	"github.com/tidwall/gjson"
)

// maxJSONDepth JSON 트리 탐색의 최대 깊이
const maxJSONDepth = 12

// JSONLDStrategy schema.org Product 노드(JSON-LD)에서 상품 정보를 읽습니다.
type JSONLDStrategy struct{}

func (JSONLDStrategy) Name() string { return "jsonld" }

func (JSONLDStrategy) Extract(p *Page) (Fields, error) {
	var result Fields

	p.Doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, s *goquery.Selection) {
		raw := strings.TrimSpace(s.Text())
		if raw == "" || !gjson.Valid(raw) {
			return
		}

		for _, node := range findProductNodes(gjson.Parse(raw), 0, nil) {
			result.fill(productNodeFields(node))
		}
	})

	return result, nil
}

// field 객체에서 key에 해당하는 값을 찾습니다.
// "@type"처럼 gjson 경로 문법과 충돌하는 키가 있으므로 경로 대신 순회로 찾는다.
func field(v gjson.Result, key string) gjson.Result {
	var found gjson.Result
	v.ForEach(func(k, val gjson.Result) bool {
		if k.String() == key {
			found = val
			return false
		}
		return true
	})
	return found
}

// findProductNodes 배열과 @graph를 펼쳐 가며 @type에 Product가 포함된 노드를 문서 순서대로 모읍니다.
func findProductNodes(v gjson.Result, depth int, acc []gjson.Result) []gjson.Result {
	if depth > maxJSONDepth {
		return acc
	}

	switch {
	case v.IsArray():
		for _, item := range v.Array() {
			acc = findProductNodes(item, depth+1, acc)
		}

	case v.IsObject():
		if isProductType(field(v, "@type")) {
			return append(acc, v)
		}
		v.ForEach(func(_, val gjson.Result) bool {
			if val.IsObject() || val.IsArray() {
				acc = findProductNodes(val, depth+1, acc)
			}
			return true
		})
	}

	return acc
}

func isProductType(t gjson.Result) bool {
	if t.IsArray() {
		for _, item := range t.Array() {
			if isProductType(item) {
				return true
			}
		}
		return false
	}
	return strings.Contains(strings.ToLower(t.String()), "product")
}

func productNodeFields(node gjson.Result) Fields {
	f := Fields{
		Title: field(node, "name").String(),
		Image: imageURL(field(node, "image"), 0),
	}

	offer := offerFields(field(node, "offers"), 0)
	f.Price = offer.Price
	f.Currency = offer.Currency
	f.Availability = offer.Availability

	if rating := field(node, "aggregateRating"); rating.IsObject() {
		if v, ok := numparse.Float(field(rating, "ratingValue").Value()); ok {
			f.Rating = ptr(v)
		}
		for _, key := range []string{"ratingCount", "reviewCount"} {
			if n, ok := numparse.Count(field(rating, key).String()); ok {
				f.RatingCount = ptr(n)
				break
			}
		}
	}

	return f
}

// imageURL image 속성(문자열, 배열, ImageObject)에서 첫 번째 URL을 꺼냅니다.
func imageURL(v gjson.Result, depth int) string {
	if depth > 3 {
		return ""
	}

	switch {
	case v.IsArray():
		for _, item := range v.Array() {
			if u := imageURL(item, depth+1); u != "" {
				return u
			}
		}
		return ""

	case v.IsObject():
		for _, key := range []string{"url", "contentUrl"} {
			if u := field(v, key).String(); u != "" {
				return u
			}
		}
		return ""

	default:
		return v.String()
	}
}

// offerFields offers 속성(객체, 배열, AggregateOffer)에서 가격, 통화, 재고 상태를 읽습니다.
func offerFields(v gjson.Result, depth int) Fields {
	var f Fields
	if depth > 3 || !v.Exists() {
		return f
	}

	if v.IsArray() {
		for _, item := range v.Array() {
			f.fill(offerFields(item, depth+1))
			if f.Price != nil {
				break
			}
		}
		return f
	}

	if !v.IsObject() {
		return f
	}

	for _, key := range []string{"price", "lowPrice"} {
		if price, ok := priceValue(field(v, key)); ok {
			f.Price = ptr(price)
			break
		}
	}

	spec := field(v, "priceSpecification")
	if spec.IsArray() && len(spec.Array()) > 0 {
		spec = spec.Array()[0]
	}
	if f.Price == nil {
		if price, ok := priceValue(field(spec, "price")); ok {
			f.Price = ptr(price)
		}
	}

	f.Currency = field(v, "priceCurrency").String()
	if f.Currency == "" {
		f.Currency = field(spec, "priceCurrency").String()
	}
	f.Availability = field(v, "availability").String()

	// AggregateOffer 안에 개별 offers가 들어 있는 경우
	if f.Price == nil {
		f.fill(offerFields(field(v, "offers"), depth+1))
	}

	return f
}

func priceValue(v gjson.Result) (float64, bool) {
	if !v.Exists() {
		return 0, false
	}
	price, ok := numparse.Float(v.Value())
	if !ok || price <= 0 {
		return 0, false
	}
	return price, true
}
