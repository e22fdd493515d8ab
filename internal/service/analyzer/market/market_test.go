package market

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompute(t *testing.T) {
	tests := []struct {
		name        string
		totals      []float64
		wantAvg     *float64
		wantConf    float64
		wantSamples int
	}{
		{
			name:        "관측치 없음",
			totals:      nil,
			wantSamples: 0,
		},
		{
			name:        "3개는 부족",
			totals:      []float64{100, 110, 120},
			wantSamples: 3,
		},
		{
			name:        "정확히 4개",
			totals:      []float64{100, 102, 98, 101},
			wantAvg:     ptr(101),
			wantConf:    0.4,
			wantSamples: 4,
		},
		{
			name:        "이상치 제외",
			totals:      []float64{100, 100, 100, 100, 1000},
			wantAvg:     ptr(100),
			wantConf:    0.4,
			wantSamples: 4,
		},
		{
			name:        "0, 음수, NaN 은 무시",
			totals:      []float64{0, -5, math.NaN(), math.Inf(1), 200, 200, 210},
			wantSamples: 3,
		},
		{
			name:        "8개는 0.7",
			totals:      repeat(500, 8),
			wantAvg:     ptr(500),
			wantConf:    0.7,
			wantSamples: 8,
		},
		{
			name:        "15개는 0.9",
			totals:      repeat(500, 15),
			wantAvg:     ptr(500),
			wantConf:    0.9,
			wantSamples: 15,
		},
		{
			name:        "걸러진 뒤 4개 미만이면 시세 없음",
			totals:      []float64{100, 100, 300, 320, 340},
			wantConf:    0,
			wantSamples: 3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Compute(tt.totals)

			assert.Equal(t, tt.wantConf, got.Confidence)
			assert.Equal(t, tt.wantSamples, got.SampleCount)
			if tt.wantAvg == nil {
				assert.Nil(t, got.AvgPrice)
				return
			}
			require.NotNil(t, got.AvgPrice)
			assert.Equal(t, *tt.wantAvg, *got.AvgPrice)
		})
	}
}

func TestInfo_Confident(t *testing.T) {
	assert.False(t, Info{}.Confident())
	assert.False(t, Info{AvgPrice: ptr(100), Confidence: 0}.Confident())
	assert.True(t, Info{AvgPrice: ptr(100), Confidence: 0.4}.Confident())
}

func ptr(v float64) *float64 { return &v }

func repeat(v float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = v
	}
	return out
}
