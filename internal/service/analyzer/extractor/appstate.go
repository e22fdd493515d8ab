package extractor

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/numparse"
	"github.com/iancoleman/strcase"
	"github.com/tidwall/gjson"
)

// appStateMarkers 스크립트 본문에서 앱 초기 상태 객체가 대입되는 지점
var appStateMarkers = []string{
	"window.__PRODUCT_DETAIL_APP_INITIAL_STATE__",
	"window.__INITIAL_STATE__",
	"window.__NEXT_DATA__",
}

// appStatePriceKeys snake_case로 정규화한 가격 키 목록
var appStatePriceKeys = map[string]bool{
	"price":            true,
	"sale_price":       true,
	"selling_price":    true,
	"discounted_price": true,
	"final_price":      true,
	"current_price":    true,
}

// AppStateStrategy 프런트엔드 프레임워크가 페이지에 심어 두는 초기 상태 JSON에서 가격을 찾습니다.
type AppStateStrategy struct{}

func (AppStateStrategy) Name() string { return "appstate" }

func (AppStateStrategy) Extract(p *Page) (Fields, error) {
	for _, blob := range appStateBlobs(p.Doc) {
		if price, ok := findStatePrice(gjson.Parse(blob), 0); ok {
			return Fields{Price: ptr(price)}, nil
		}
	}
	return Fields{}, nil
}

// appStateBlobs 페이지에서 상태 JSON 후보들을 문서 순서대로 모읍니다.
func appStateBlobs(doc *goquery.Document) []string {
	var blobs []string

	doc.Find("script").Each(func(_ int, s *goquery.Selection) {
		text := strings.TrimSpace(s.Text())
		if text == "" {
			return
		}

		id, _ := s.Attr("id")
		typ, _ := s.Attr("type")
		if id == "__NEXT_DATA__" || strings.EqualFold(typ, "application/json") {
			if gjson.Valid(text) {
				blobs = append(blobs, text)
			}
			return
		}

		for _, marker := range appStateMarkers {
			idx := strings.Index(text, marker)
			if idx < 0 {
				continue
			}
			if obj := scanJSONObject(text[idx+len(marker):]); obj != "" && gjson.Valid(obj) {
				blobs = append(blobs, obj)
			}
		}
	})

	return blobs
}

// scanJSONObject 문자열에서 첫 번째 '{'부터 짝이 맞는 '}'까지를 잘라냅니다. 문자열 리터럴 안의 괄호는 무시합니다.
func scanJSONObject(s string) string {
	start := strings.IndexByte(s, '{')
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(s); i++ {
		c := s[i]

		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}

		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return s[start : i+1]
			}
		}
	}

	return ""
}

// findStatePrice 값 트리를 깊이 제한 내에서 순회하며 가격 키에 대응하는 그럴듯한 값을 찾습니다.
//
// 가격 키의 값이 객체이면 value, amount, text 하위 키를 확인합니다. ({"sellingPrice": {"value": 1299.9}})
func findStatePrice(v gjson.Result, depth int) (float64, bool) {
	if depth > maxJSONDepth {
		return 0, false
	}

	var price float64
	var found bool

	switch {
	case v.IsArray():
		for _, item := range v.Array() {
			if price, found = findStatePrice(item, depth+1); found {
				break
			}
		}

	case v.IsObject():
		v.ForEach(func(k, val gjson.Result) bool {
			if appStatePriceKeys[normalizeKey(k.String())] {
				if price, found = statePriceValue(val); found {
					return false
				}
			}
			if val.IsObject() || val.IsArray() {
				if price, found = findStatePrice(val, depth+1); found {
					return false
				}
			}
			return true
		})
	}

	return price, found
}

func statePriceValue(v gjson.Result) (float64, bool) {
	if v.IsObject() {
		for _, key := range []string{"value", "amount", "text"} {
			if price, ok := statePriceValue(field(v, key)); ok {
				return price, true
			}
		}
		return 0, false
	}
	if v.Type != gjson.Number && v.Type != gjson.String {
		return 0, false
	}

	price, ok := numparse.Float(v.Value())
	if !ok || !numparse.Plausible(price) {
		return 0, false
	}
	return price, true
}

// normalizeKey salePrice, SalePrice, SALE_PRICE, sale-price를 모두 sale_price로 맞춥니다.
func normalizeKey(key string) string {
	return strcase.ToSnake(key)
}
