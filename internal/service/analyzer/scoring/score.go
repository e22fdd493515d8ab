package scoring

import (
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/market"
)

// ScoreVerdict 점수에서 나온 구매 판정입니다.
type ScoreVerdict string

const (
	VerdictBuy      ScoreVerdict = "Alınır"
	VerdictConsider ScoreVerdict = "Düşünülebilir"
	VerdictAvoid    ScoreVerdict = "Uzak Dur"
)

// Breakdown 항목별 점수입니다. price 0~40, shipping/trust/market 각 0~20.
type Breakdown struct {
	Price    int `json:"price"`
	Shipping int `json:"shipping"`
	Trust    int `json:"trust"`
	Market   int `json:"market"`
}

// Sum 항목 점수의 합입니다.
func (b Breakdown) Sum() int {
	return b.Price + b.Shipping + b.Trust + b.Market
}

// Score 상품의 종합 점수입니다.
//
// Computed 가 false 이면 쓸 수 있는 제안이 없어 고정된 중립 점수를 돌려준 것입니다.
type Score struct {
	Final     int          `json:"final"`
	Verdict   ScoreVerdict `json:"verdict"`
	Summary   string       `json:"summary"`
	Breakdown Breakdown    `json:"breakdown"`
	Computed  bool         `json:"computed"`
}

const (
	fallbackFinal = 60

	buyThreshold      = 80
	considerThreshold = 60
)

var fallbackBreakdown = Breakdown{Price: 20, Shipping: 14, Trust: 16, Market: 10}

// Fallback 제안이 하나도 없을 때 쓰는 중립 점수입니다.
func Fallback() Score {
	v := verdictFromScore(fallbackFinal)

	return Score{
		Final:     fallbackFinal,
		Verdict:   v,
		Summary:   Summary(v),
		Breakdown: fallbackBreakdown,
		Computed:  false,
	}
}

// Summary 판정별 한 줄 요약입니다.
func Summary(v ScoreVerdict) string {
	switch v {
	case VerdictBuy:
		return "Bu fiyat, piyasa ortalamasına göre mantıklı."
	case VerdictConsider:
		return "Fiyat makul, alternatifler kontrol edilebilir."
	default:
		return "Bu fiyat, piyasaya göre mantıklı görünmüyor."
	}
}

func verdictFromScore(s int) ScoreVerdict {
	switch {
	case s >= buyThreshold:
		return VerdictBuy
	case s >= considerThreshold:
		return VerdictConsider
	default:
		return VerdictAvoid
	}
}

// Compute 가장 좋은 제안으로 종합 점수를 계산합니다.
//
// 가장 좋은 제안은 재고가 있는 제안 중 총액이 가장 낮은 것이며, 재고가 있는 제안이 없으면
// 총액이 가장 낮은 제안을 씁니다(이때 신뢰 점수는 0). 총액이 양수인 제안이 없으면 Fallback 입니다.
func Compute(offers []Offer, m market.Info) Score {
	best, ok := bestOffer(offers)
	if !ok {
		return Fallback()
	}

	total := best.total()
	b := Breakdown{
		Price:    priceScore(total, m),
		Shipping: shippingScore(best.Price, best.Shipping),
		Trust:    trustScore(best),
		Market:   marketScore(total, m),
	}

	final := min(max(b.Sum(), 0), 100)
	v := verdictFromScore(final)

	return Score{
		Final:     final,
		Verdict:   v,
		Summary:   Summary(v),
		Breakdown: b,
		Computed:  true,
	}
}

func bestOffer(offers []Offer) (Offer, bool) {
	var (
		best      Offer
		found     bool
		bestStock bool
	)
	for _, o := range offers {
		t := o.total()
		if t <= 0 {
			continue
		}

		switch {
		case !found:
		case o.InStock && !bestStock:
		case o.InStock == bestStock && t < best.total():
		default:
			continue
		}
		best, found, bestStock = o, true, o.InStock
	}

	return best, found
}

// priceScore 시세 대비 절약률(0~40). 시세가 없으면 20.
func priceScore(total float64, m market.Info) int {
	if !m.Confident() {
		return 20
	}

	avg := *m.AvgPrice
	saved := (avg - total) / avg
	switch {
	case saved >= 0.20:
		return 40
	case saved >= 0.10:
		return 32
	case saved >= 0:
		return 24
	case saved >= -0.10:
		return 16
	default:
		return 8
	}
}

// shippingScore 배송비 부담(0~20). 무료 배송이 가장 높습니다.
func shippingScore(price, shipping float64) int {
	switch {
	case shipping <= 0:
		return 20
	case price > 0 && shipping <= price*0.03:
		return 14
	case price > 0 && shipping <= price*0.07:
		return 8
	default:
		return 2
	}
}

// trustScore 판매처 신뢰도(0~20). 품절이면 0.
func trustScore(o Offer) int {
	if !o.InStock {
		return 0
	}

	switch {
	case o.TrustLevel >= TrustHigh:
		return 20
	case o.TrustLevel == TrustMedium:
		return 12
	default:
		return 6
	}
}

// marketScore 시세 대비 편차 보너스(0~20). 시세가 없으면 10.
func marketScore(total float64, m market.Info) int {
	if !m.Confident() {
		return 10
	}

	avg := *m.AvgPrice
	diff := (total - avg) / avg
	switch {
	case diff <= -0.15:
		return 20
	case diff <= -0.05:
		return 16
	case diff <= 0.05:
		return 12
	case diff <= 0.15:
		return 6
	default:
		return 2
	}
}
