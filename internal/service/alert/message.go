package alert

import (
	"fmt"
	"html"
	"math"
	"strings"

	"github.com/darkkaiser/bikonomi/internal/pkg/mark"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/scoring"
	"github.com/darkkaiser/bikonomi/pkg/strutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// titleMaxRunes 알림 메시지에 표시할 상품명 최대 길이
const titleMaxRunes = 120

var trPrinter = message.NewPrinter(language.Turkish)

// buildDealMessage 딜 알림용 HTML 메시지를 만듭니다.
//
//	🔥 <b>Kablosuz Kulaklık</b>
//	Toplam: <b>1.299 TL</b> (Trendyol)
//	Skor: <b>85</b> · Alınır ✅
//	Piyasa ort.: 1.450 TL 📉
//	<a href="...">Ürüne git</a>
func buildDealMessage(resp analyzer.Response) string {
	var sb strings.Builder

	title := strutil.Truncate(strutil.NormalizeSpace(resp.Product.Title), titleMaxRunes)
	fmt.Fprintf(&sb, "%s <b>%s</b>\n", mark.BestPrice, html.EscapeString(title))

	best, hasBest := bestOffer(resp.Offers)
	if hasBest {
		fmt.Fprintf(&sb, "Toplam: <b>%s</b> (%s)\n", formatTRY(best.Total), html.EscapeString(best.Store))
	}

	fmt.Fprintf(&sb, "Skor: <b>%d</b> · %s%s\n", resp.Score.Final, html.EscapeString(string(resp.Score.Verdict)), mark.ForVerdict(resp.Score.Verdict).WithSpace())

	if resp.Market.Confident() {
		avg := *resp.Market.AvgPrice

		var trend mark.Mark
		switch {
		case hasBest && best.Total < avg:
			trend = mark.PriceDown
		case hasBest && best.Total > avg:
			trend = mark.PriceUp
		}
		fmt.Fprintf(&sb, "Piyasa ort.: %s%s\n", formatTRY(avg), trend.WithSpace())
	}

	fmt.Fprintf(&sb, `<a href="%s">Ürüne git</a>`, html.EscapeString(resp.Product.URL))

	return sb.String()
}

// bestOffer 재고가 있는 제안 중 총액이 가장 낮은 제안을 고릅니다.
func bestOffer(offers []scoring.Offer) (scoring.Offer, bool) {
	var (
		best  scoring.Offer
		found bool
	)
	for _, o := range offers {
		if !o.InStock || o.Total <= 0 {
			continue
		}
		if !found || o.Total < best.Total {
			best, found = o, true
		}
	}
	return best, found
}

// formatTRY 터키어 천 단위 구분(1.299)으로 금액을 표시합니다.
func formatTRY(v float64) string {
	return trPrinter.Sprintf("%d TL", int64(math.Round(v)))
}
