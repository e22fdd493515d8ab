package analyzer

import (
	"time"

	"github.com/darkkaiser/bikonomi/internal/service/analyzer/history"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/market"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/scoring"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/searchlink"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/source"
)

// Mode 분석 결과의 완성도입니다.
type Mode string

const (
	// ModeAuto 추출 또는 수동 입력으로 가격 제안이 있습니다.
	ModeAuto Mode = "auto"

	// ModePartial 페이지는 받았지만 가격을 찾지 못했습니다.
	ModePartial Mode = "partial"

	// ModeManualRequired 페이지를 받지 못했습니다(차단 또는 네트워크 오류).
	ModeManualRequired Mode = "manual_required"
)

const (
	messagePartial        = "Kısmi veri bulundu. Gerekirse manuel fiyat ekleyebilirsin."
	messageManualRequired = "Bu linkten otomatik veri alınamadı."
)

// Input 분석 요청입니다.
type Input struct {
	URL string `json:"url"`

	// ManualPrice 사용자가 직접 입력한 가격 (선택)
	ManualPrice *float64 `json:"manualPrice,omitempty"`

	// ManualShipping 사용자가 직접 입력한 배송비 (선택, ManualPrice 와 함께만 사용)
	ManualShipping *float64 `json:"manualShipping,omitempty"`
}

// Product 응답에 포함되는 상품 정보입니다.
type Product struct {
	ProductKey string        `json:"productKey"`
	Source     source.Source `json:"source"`
	Title      string        `json:"title"`
	Image      string        `json:"image"`
	URL        string        `json:"url"`

	Currency    string   `json:"currency,omitempty"`
	Rating      *float64 `json:"rating,omitempty"`
	RatingCount *int     `json:"ratingCount,omitempty"`
}

// Actions 사용자가 취할 수 있는 후속 동작입니다.
type Actions struct {
	AllowManual bool              `json:"allowManual"`
	SearchLinks []searchlink.Link `json:"searchLinks"`
}

// Response 분석 결과입니다. 올바른 링크에 대해서는 항상 OK 가 true 입니다.
type Response struct {
	OK      bool            `json:"ok"`
	Mode    Mode            `json:"mode"`
	Product Product         `json:"product"`
	Market  market.Info     `json:"market"`
	Score   scoring.Score   `json:"score"`
	Offers  []scoring.Offer `json:"offers"`
	Actions Actions         `json:"actions"`
	Message string          `json:"message,omitempty"`

	// Cached 캐시에서 꺼낸 응답인지 여부
	Cached bool `json:"cached,omitempty"`
}

// Contribution 사용자가 제보한 가격입니다.
type Contribution struct {
	ProductKey string   `json:"productKey"`
	Price      float64  `json:"price"`
	Shipping   *float64 `json:"shipping,omitempty"`
}

// HistoryResult 상품 키의 가격 이력 조회 결과입니다.
type HistoryResult struct {
	ProductKey string          `json:"productKey"`
	Since      time.Time       `json:"since"`
	Points     []history.Point `json:"points"`
}

const (
	// DefaultHistoryHours 이력 조회 기본 기간(시간)
	DefaultHistoryHours = 168

	// MaxHistoryHours 이력 조회 최대 기간(시간, 90일)
	MaxHistoryHours = 24 * 90
)

// ClampHistoryHours 이력 조회 기간을 [1, MaxHistoryHours] 범위로 맞춥니다. 0 이면 기본값입니다.
func ClampHistoryHours(hours int) int {
	if hours == 0 {
		return DefaultHistoryHours
	}
	return min(max(hours, 1), MaxHistoryHours)
}
