package numparse

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParse_LocaleForms(t *testing.T) {
	for _, in := range []string{"1.299,90", "1299,90", "1299.90", "1,299.90", "1.299,90 TL", "₺1.299,90", "1 299,90 TL"} {
		t.Run(in, func(t *testing.T) {
			v, ok := Parse(in)
			assert.True(t, ok)
			assert.InDelta(t, 1299.90, v, 1e-9)
		})
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{in: "1.299.000", want: 1299000, wantOK: true},
		{in: "1.299", want: 1299, wantOK: true},
		{in: "1.299 TL", want: 1299, wantOK: true},
		{in: "₺24.999", want: 24999, wantOK: true},
		{in: "12.99", want: 12.99, wantOK: true},
		{in: "1.2999", want: 1.2999, wantOK: true},
		{in: "1,299,000", want: 1299000, wantOK: true},
		{in: "249 TL", want: 249, wantOK: true},
		{in: "TRY 89,5", want: 89.5, wantOK: true},
		{in: "$19.99", want: 19.99, wantOK: true},
		{in: "4,5", want: 4.5, wantOK: true},
		{in: "0", want: 0, wantOK: true},
		{in: "Fiyat: 349,99 TL'den başlayan", want: 349.99, wantOK: true},
		{in: "", wantOK: false},
		{in: "TL", wantOK: false},
		{in: "abc", wantOK: false},
		{in: ".,", wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			v, ok := Parse(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, v, 1e-9)
			}
		})
	}
}

func TestPrice(t *testing.T) {
	_, ok := Price("0,00 TL")
	assert.False(t, ok)

	_, ok = Price("-10")
	assert.False(t, ok)

	v, ok := Price("1.249 TL")
	assert.True(t, ok)
	assert.InDelta(t, 1249, v, 1e-9)
}

func TestRating(t *testing.T) {
	v, ok := Rating("0")
	assert.True(t, ok)
	assert.Zero(t, v)

	v, ok = Rating("4,6")
	assert.True(t, ok)
	assert.InDelta(t, 4.6, v, 1e-9)

	_, ok = Rating("-1")
	assert.False(t, ok)
}

func TestCount(t *testing.T) {
	n, ok := Count("1.234 değerlendirme")
	assert.True(t, ok)
	assert.Equal(t, 1234, n)

	n, ok = Count("(87)")
	assert.True(t, ok)
	assert.Equal(t, 87, n)

	_, ok = Count("yok")
	assert.False(t, ok)
}

func TestFloat(t *testing.T) {
	v, ok := Float(1299.9)
	assert.True(t, ok)
	assert.InDelta(t, 1299.9, v, 1e-9)

	v, ok = Float("1.299,90")
	assert.True(t, ok)
	assert.InDelta(t, 1299.9, v, 1e-9)

	_, ok = Float(math.NaN())
	assert.False(t, ok)

	_, ok = Float(true)
	assert.False(t, ok)
}

func TestPlausible(t *testing.T) {
	assert.False(t, Plausible(1))
	assert.True(t, Plausible(1.5))
	assert.True(t, Plausible(MaxPlausiblePrice))
	assert.False(t, Plausible(MaxPlausiblePrice+1))
}
