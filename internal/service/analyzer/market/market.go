// Package market 가격 관측치로부터 시세(이상치를 걸러낸 중앙값)와 그 신뢰도를 계산합니다.
package market

import (
	"math"
	"slices"
)

const (
	// MinSamples 시세를 계산하기 위한 최소 관측치 수
	MinSamples = 4

	// OutlierTolerance 1차 중앙값에서 이 비율 이상 벗어난 관측치는 버립니다.
	OutlierTolerance = 0.35
)

// Info 상품의 시세 정보입니다. 관측치가 부족하면 AvgPrice 는 nil 입니다.
type Info struct {
	AvgPrice    *float64 `json:"avgPrice"`
	Confidence  float64  `json:"confidence"`
	SampleCount int      `json:"sampleCount"`
}

// Confident 시세를 비교 기준으로 쓸 수 있는지 여부입니다.
func (i Info) Confident() bool {
	return i.AvgPrice != nil && *i.AvgPrice > 0 && i.Confidence > 0
}

// Compute 관측 총액으로 시세를 계산합니다.
//
// 중앙값을 구한 뒤 그로부터 35% 넘게 벗어난 값을 버리고 다시 중앙값을 구합니다.
// 신뢰도는 걸러진 관측치 수로 정하며, 4개 미만이면 시세 없이 신뢰도 0 을 반환합니다.
func Compute(totals []float64) Info {
	valid := make([]float64, 0, len(totals))
	for _, t := range totals {
		if !math.IsNaN(t) && !math.IsInf(t, 0) && t > 0 {
			valid = append(valid, t)
		}
	}

	m1, ok := median(valid)
	if !ok || len(valid) < MinSamples {
		return Info{SampleCount: len(valid)}
	}

	filtered := make([]float64, 0, len(valid))
	for _, t := range valid {
		if math.Abs(t-m1)/m1 <= OutlierTolerance {
			filtered = append(filtered, t)
		}
	}

	m2, ok := median(filtered)
	if !ok || len(filtered) < MinSamples {
		return Info{SampleCount: len(filtered)}
	}

	avg := math.Round(m2)
	return Info{
		AvgPrice:    &avg,
		Confidence:  confidence(len(filtered)),
		SampleCount: len(filtered),
	}
}

// confidence 걸러진 관측치 수에 따른 계단형 신뢰도입니다.
func confidence(n int) float64 {
	switch {
	case n >= 15:
		return 0.9
	case n >= 8:
		return 0.7
	default:
		return 0.4
	}
}

func median(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}

	sorted := slices.Clone(values)
	slices.Sort(sorted)

	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		return sorted[mid], true
	}
	return (sorted[mid-1] + sorted[mid]) / 2, true
}
