package extractor

import (
	"strings"
)

const (
	CurrencyTRY = "TRY"
	CurrencyUSD = "USD"
	CurrencyEUR = "EUR"
)

// FallbackImage 상품 이미지를 찾지 못했을 때 사용하는 대체 이미지
const FallbackImage = "https://dummyimage.com/600x600/111827/ffffff&text=Bikonomi"

// Fields 추출 전략 하나가 찾아낸 부분 결과입니다. 찾지 못한 필드는 0값(nil, 빈 문자열)입니다.
type Fields struct {
	Title        string
	Image        string
	Price        *float64
	Currency     string
	Rating       *float64
	RatingCount  *int
	Availability string
}

// fill dst에 비어 있는 필드만 src의 값으로 채웁니다. 먼저 채워진 값이 우선합니다.
func (dst *Fields) fill(src Fields) {
	if dst.Title == "" {
		dst.Title = src.Title
	}
	if dst.Image == "" {
		dst.Image = src.Image
	}
	if dst.Price == nil {
		dst.Price = src.Price
	}
	if dst.Currency == "" {
		dst.Currency = src.Currency
	}
	if dst.Rating == nil {
		dst.Rating = src.Rating
	}
	if dst.RatingCount == nil {
		dst.RatingCount = src.RatingCount
	}
	if dst.Availability == "" {
		dst.Availability = src.Availability
	}
}

// Product 페이지 하나에서 추출한 최종 상품 정보입니다.
type Product struct {
	Title       string   `json:"title"`
	Image       string   `json:"image"`
	Price       *float64 `json:"price,omitempty"`
	Currency    string   `json:"currency"`
	Rating      *float64 `json:"rating,omitempty"`
	RatingCount *int     `json:"ratingCount,omitempty"`
	Shipping    float64  `json:"shipping"`
	InStock     bool     `json:"inStock"`

	// PriceVia 가격을 찾아낸 전략 이름
	PriceVia string `json:"-"`
}

// HasPrice 유효한 가격이 추출되었는지 여부입니다.
func (p Product) HasPrice() bool {
	return p.Price != nil && *p.Price > 0
}

// normalizeCurrency 통화 표기를 TRY, USD, EUR 중 하나로 바꿉니다. 알 수 없으면 빈 문자열을 반환합니다.
func normalizeCurrency(s string) string {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "TRY", "TL", "₺", "YTL":
		return CurrencyTRY
	case "USD", "$", "US$":
		return CurrencyUSD
	case "EUR", "€":
		return CurrencyEUR
	default:
		return ""
	}
}

// inStockFromAvailability availability 값에 outofstock이 포함되면 품절입니다. 값이 없으면 재고 있음으로 봅니다.
func inStockFromAvailability(availability string) bool {
	a := strings.ToLower(availability)
	return !strings.Contains(a, "outofstock") && !strings.Contains(a, "out_of_stock")
}

func ptr[T any](v T) *T {
	return &v
}
