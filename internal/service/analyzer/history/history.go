// Package history 상품 키별 가격 관측치(PricePoint)를 시간순으로 축적합니다.
//
// 관측치는 추가만 가능하며, 오래된 관측치는 보존 기간 정책(Prune)으로만 제거됩니다.
package history

import (
	"context"
	"math"
	"strings"
	"time"

	apperrors "github.com/darkkaiser/bikonomi/internal/pkg/errors"
)

// component 가격 이력 저장소 로깅용 컴포넌트 이름
const component = "analyzer.history"

// MaxRecentPoints RecentPoints 가 한 번에 반환하는 최대 관측치 수입니다.
const MaxRecentPoints = 200

// DefaultMarketWindow 시세 계산에 사용하는 기본 조회 기간입니다.
const DefaultMarketWindow = 14 * 24 * time.Hour

// Kind 관측치의 출처입니다.
type Kind string

const (
	// KindAuto 페이지에서 자동 추출한 가격
	KindAuto Kind = "auto"

	// KindContrib 사용자가 직접 입력한 가격
	KindContrib Kind = "contrib"
)

// Valid 알려진 출처인지 여부를 반환합니다.
func (k Kind) Valid() bool {
	return k == KindAuto || k == KindContrib
}

// Point 한 시점의 총액(가격+배송비) 관측치입니다.
type Point struct {
	ID    string    `json:"id,omitempty"`
	Time  time.Time `json:"t"`
	Total float64   `json:"total"`
	Kind  Kind      `json:"kind"`
}

// Store 가격 관측치 저장소입니다. 모든 구현체는 동시 사용에 안전합니다.
type Store interface {
	// AppendPoint total 을 반올림하여 관측치를 추가합니다.
	AppendPoint(ctx context.Context, key string, total float64, kind Kind) (Point, error)

	// RecentPoints window 안의 관측치를 최신순으로 최대 MaxRecentPoints 개 반환합니다.
	RecentPoints(ctx context.Context, key string, window time.Duration) ([]Point, error)

	// Range since 이후의 관측치를 오래된 순으로 반환합니다.
	Range(ctx context.Context, key string, since time.Time) ([]Point, error)

	// Prune olderThan 이전의 관측치를 모두 삭제하고 삭제된 개수를 반환합니다.
	Prune(ctx context.Context, olderThan time.Time) (int, error)

	Close() error
}

// Backend 이력 저장소 종류입니다.
type Backend string

const (
	BackendMemory Backend = "memory"
	BackendSQLite Backend = "sqlite"
	BackendFile   Backend = "file"
)

var (
	// ErrInvalidPoint 관측치의 키, 총액 또는 출처가 올바르지 않을 때 반환됩니다.
	ErrInvalidPoint = apperrors.New(apperrors.InvalidInput, "가격 관측치가 올바르지 않습니다")
)

// newPoint 입력을 검증하고 반올림된 관측치를 만듭니다.
func newPoint(key string, total float64, kind Kind, now time.Time) (string, Point, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", Point{}, apperrors.Wrap(ErrInvalidPoint, apperrors.InvalidInput, "상품 키가 비어 있습니다")
	}
	if math.IsNaN(total) || math.IsInf(total, 0) {
		return "", Point{}, apperrors.Wrapf(ErrInvalidPoint, apperrors.InvalidInput, "총액이 유한한 숫자가 아닙니다 (%v)", total)
	}

	rounded := math.Round(total)
	if rounded <= 0 {
		return "", Point{}, apperrors.Wrapf(ErrInvalidPoint, apperrors.InvalidInput, "총액은 0보다 커야 합니다 (%v)", total)
	}
	if !kind.Valid() {
		return "", Point{}, apperrors.Wrapf(ErrInvalidPoint, apperrors.InvalidInput, "알 수 없는 관측치 출처입니다 (%s)", kind)
	}

	return key, Point{Time: now, Total: rounded, Kind: kind}, nil
}

// Totals 관측치의 총액만 순서대로 뽑아냅니다.
func Totals(points []Point) []float64 {
	totals := make([]float64, 0, len(points))
	for _, p := range points {
		totals = append(totals, p.Total)
	}
	return totals
}

func normalizeWindow(window time.Duration) time.Duration {
	if window <= 0 {
		return DefaultMarketWindow
	}
	return window
}
