// Package mark 알림 메시지와 CLI 출력에 사용하는 이모지 상수입니다.
package mark

import "github.com/darkkaiser/bikonomi/internal/service/analyzer/scoring"

// Mark 이모지 상수 타입입니다.
type Mark string

const (
	// 최저가 / 좋은 딜
	BestPrice Mark = "🔥"

	// Alınır
	Buy Mark = "✅"

	// Düşünülebilir
	Consider Mark = "⚠️"

	// Uzak Dur
	Avoid Mark = "❌"

	// 가격 하락
	PriceDown Mark = "📉"

	// 가격 상승
	PriceUp Mark = "📈"
)

// WithSpace 앞에 공백 하나를 붙여 반환합니다. 빈 마크는 빈 문자열입니다.
func (m Mark) WithSpace() string {
	if m == "" {
		return ""
	}
	return " " + string(m)
}

// ForVerdict 판정에 맞는 마크입니다. 알 수 없는 판정은 빈 마크입니다.
func ForVerdict(v scoring.ScoreVerdict) Mark {
	switch v {
	case scoring.VerdictBuy:
		return Buy
	case scoring.VerdictConsider:
		return Consider
	case scoring.VerdictAvoid:
		return Avoid
	default:
		return ""
	}
}

func (m Mark) String() string {
	return string(m)
}
