// Package scoring 판매처별 제안(Offer)에 대한 판정과 상품 전체의 0~100 점수를 계산합니다.
package scoring

import (
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/market"
)

// OfferVerdict 판매처 제안 하나에 대한 판정입니다.
type OfferVerdict string

const (
	OfferSensible   OfferVerdict = "Mantıklı"
	OfferAcceptable OfferVerdict = "Olur"
	OfferUnwise     OfferVerdict = "Mantıksız"
)

// downgrade 판정을 한 단계 낮춥니다. 가장 낮은 판정은 그대로 둡니다.
func (v OfferVerdict) downgrade() OfferVerdict {
	switch v {
	case OfferSensible:
		return OfferAcceptable
	default:
		return OfferUnwise
	}
}

// TrustLevel 판매처 신뢰 수준(0~2)입니다.
type TrustLevel int

const (
	TrustLow    TrustLevel = 0
	TrustMedium TrustLevel = 1
	TrustHigh   TrustLevel = 2
)

// Offer 한 판매처의 가격 제안입니다.
type Offer struct {
	Store      string       `json:"store"`
	Price      float64      `json:"price"`
	Shipping   float64      `json:"shipping"`
	InStock    bool         `json:"inStock"`
	URL        string       `json:"url"`
	TrustLevel TrustLevel   `json:"trustLevel"`
	Total      float64      `json:"total"`
	Verdict    OfferVerdict `json:"verdict,omitempty"`
}

// NewOffer Total 을 채운 제안을 만듭니다. 음수 배송비는 0으로 봅니다.
func NewOffer(store string, price, shipping float64, inStock bool, url string, trust TrustLevel) Offer {
	shipping = max(shipping, 0)

	return Offer{
		Store:      store,
		Price:      price,
		Shipping:   shipping,
		InStock:    inStock,
		URL:        url,
		TrustLevel: trust,
		Total:      price + shipping,
	}
}

func (o Offer) total() float64 {
	return max(o.Price, 0) + max(o.Shipping, 0)
}

const (
	// 시세 대비 차이율 구간
	marketSensibleDiff   = -0.10
	marketAcceptableDiff = 0.08

	// 최저가 대비 격차 구간 (시세가 없을 때)
	gapSensible   = 0.03
	gapAcceptable = 0.10

	// 가격 대비 배송비 비율
	shippingForceUnwise = 0.15
	shippingDowngrade   = 0.08
)

// Verdict 제안 하나를 판정합니다.
//
// 품절이거나 총액이 0 이하이면 항상 Mantıksız 입니다. 시세가 확실하면 시세 대비,
// 아니면 재고가 있는 최저 총액(bestTotal) 대비로 1차 판정한 뒤 배송비 비율과 신뢰 수준으로만 낮춥니다.
func Verdict(o Offer, m market.Info, bestTotal float64) OfferVerdict {
	total := o.total()
	if !o.InStock || total <= 0 {
		return OfferUnwise
	}

	v := OfferAcceptable
	switch {
	case m.Confident():
		// 시세와의 차이는 제안 총액 기준 비율로 잽니다.
		diff := (total - *m.AvgPrice) / total
		switch {
		case diff <= marketSensibleDiff:
			v = OfferSensible
		case diff <= marketAcceptableDiff:
			v = OfferAcceptable
		default:
			v = OfferUnwise
		}

	case bestTotal > 0:
		gap := (total - bestTotal) / bestTotal
		switch {
		case gap <= gapSensible:
			v = OfferSensible
		case gap <= gapAcceptable:
			v = OfferAcceptable
		default:
			v = OfferUnwise
		}
	}

	shipRatio := 1.0
	if o.Price > 0 {
		shipRatio = max(o.Shipping, 0) / o.Price
	}
	if shipRatio > shippingForceUnwise {
		return OfferUnwise
	}
	if shipRatio > shippingDowngrade {
		v = v.downgrade()
	}

	if o.TrustLevel <= TrustLow {
		v = v.downgrade()
	}

	return v
}

// ApplyVerdicts 모든 제안의 Total 과 Verdict 를 채운 새 슬라이스를 반환합니다.
func ApplyVerdicts(offers []Offer, m market.Info) []Offer {
	best, _ := bestInStockTotal(offers)

	result := make([]Offer, len(offers))
	for i, o := range offers {
		o.Total = o.total()
		o.Verdict = Verdict(o, m, best)
		result[i] = o
	}

	return result
}

// bestInStockTotal 재고가 있는 제안 중 가장 낮은 양수 총액을 반환합니다.
func bestInStockTotal(offers []Offer) (float64, bool) {
	best, found := 0.0, false
	for _, o := range offers {
		t := o.total()
		if !o.InStock || t <= 0 {
			continue
		}
		if !found || t < best {
			best, found = t, true
		}
	}

	return best, found
}
