package analyzer_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	apperrors "github.com/darkkaiser/bikonomi/internal/pkg/errors"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/cache"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/fetcher"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/history"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/scoring"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	trendyolURL = "https://www.trendyol.com/marka/kulaklik-p-1?utm_source=ig&boutiqueId=7"
	trendyolKey = "trendyol:trendyol.com/marka/kulaklik-p-1"

	pricedHTML = `<html><head>
<script type="application/ld+json">{"@type":"Product","name":"Kablosuz Kulaklık | Trendyol",
"image":"https://cdn.example.com/k.jpg",
"offers":{"@type":"Offer","price":"1.299,00","priceCurrency":"TRY","availability":"https://schema.org/InStock"}}</script>
</head><body></body></html>`

	emptyHTML = `<html><head><title>Sayfa</title></head><body><p>Merhaba</p></body></html>`
)

// stubFetcher 고정된 결과를 돌려주고 호출 횟수를 셉니다.
type stubFetcher struct {
	result fetcher.Result
	calls  atomic.Int32

	// gate 가 nil 이 아니면 닫힐 때까지 응답을 미룹니다.
	gate chan struct{}
}

func (f *stubFetcher) Fetch(ctx context.Context, _ string) fetcher.Result {
	f.calls.Add(1)
	if f.gate != nil {
		select {
		case <-f.gate:
		case <-ctx.Done():
			return fetcher.Result{Err: ctx.Err()}
		}
	}
	return f.result
}

func okFetcher(html string) *stubFetcher {
	return &stubFetcher{result: fetcher.Result{OK: true, Status: http.StatusOK, HTML: html, Via: fetcher.ViaDirect}}
}

func blockedFetcher() *stubFetcher {
	return &stubFetcher{result: fetcher.Result{Status: http.StatusForbidden, BlockedHint: true, Via: fetcher.ViaDirect, Err: errors.New("403")}}
}

type recordingNotifier struct {
	mu    sync.Mutex
	deals []analyzer.Response
}

func (n *recordingNotifier) NotifyDeal(_ context.Context, resp analyzer.Response) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deals = append(n.deals, resp)
}

func newAnalyzer(t *testing.T, f analyzer.PageFetcher, opts ...func(*analyzer.Options)) (*analyzer.Analyzer, history.Store) {
	t.Helper()

	c := cache.NewMemory[analyzer.Response](16, time.Hour)
	t.Cleanup(func() { _ = c.Close() })

	o := analyzer.Options{
		Fetcher:  f,
		Cache:    c,
		History:  history.NewMemory(),
		Deadline: 2 * time.Second,
	}
	for _, fn := range opts {
		fn(&o)
	}

	a, err := analyzer.New(o)
	require.NoError(t, err)

	return a, o.History
}

func ptr(v float64) *float64 { return &v }

func TestNew(t *testing.T) {
	_, err := analyzer.New(analyzer.Options{})
	require.Error(t, err)
}

func TestAnalyze_InvalidURL(t *testing.T) {
	a, _ := newAnalyzer(t, okFetcher(pricedHTML))

	for _, raw := range []string{"", "   ", "ftp://example.com/x", "http://"} {
		t.Run(raw, func(t *testing.T) {
			_, err := a.Analyze(context.Background(), analyzer.Input{URL: raw})

			require.Error(t, err)
			assert.True(t, analyzer.IsInvalidURL(err))
			assert.ErrorIs(t, err, analyzer.ErrInvalidURL)
		})
	}
}

func TestAnalyze_Auto(t *testing.T) {
	f := okFetcher(pricedHTML)
	n := &recordingNotifier{}
	a, store := newAnalyzer(t, f, func(o *analyzer.Options) { o.Notifier = n })

	resp, err := a.Analyze(context.Background(), analyzer.Input{URL: trendyolURL})
	require.NoError(t, err)

	assert.True(t, resp.OK)
	assert.Equal(t, analyzer.ModeAuto, resp.Mode)
	assert.Empty(t, resp.Message)
	assert.False(t, resp.Actions.AllowManual)
	assert.Len(t, resp.Actions.SearchLinks, 3)

	assert.Equal(t, trendyolKey, resp.Product.ProductKey)
	assert.Equal(t, source.Trendyol, resp.Product.Source)
	assert.Equal(t, "Kablosuz Kulaklık", resp.Product.Title)
	assert.Equal(t, "https://cdn.example.com/k.jpg", resp.Product.Image)

	require.Len(t, resp.Offers, 1)
	o := resp.Offers[0]
	assert.Equal(t, "Trendyol", o.Store)
	assert.Equal(t, 1299.0, o.Total)
	assert.True(t, o.InStock)
	assert.Equal(t, scoring.TrustHigh, o.TrustLevel)
	assert.NotEmpty(t, o.Verdict)

	// 시세 없음: 20(가격) + 20(무료 배송) + 20(신뢰) + 10(시세)
	assert.True(t, resp.Score.Computed)
	assert.Equal(t, 70, resp.Score.Final)
	assert.Equal(t, scoring.VerdictConsider, resp.Score.Verdict)
	assert.Nil(t, resp.Market.AvgPrice)

	points, err := store.RecentPoints(context.Background(), trendyolKey, time.Hour)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, history.KindAuto, points[0].Kind)
	assert.Equal(t, 1299.0, points[0].Total)

	require.Len(t, n.deals, 1)
	assert.Equal(t, trendyolKey, n.deals[0].Product.ProductKey)
}

func TestAnalyze_MarketFromHistory(t *testing.T) {
	a, store := newAnalyzer(t, okFetcher(pricedHTML))

	ctx := context.Background()
	for range 4 {
		_, err := store.AppendPoint(ctx, trendyolKey, 1500, history.KindContrib)
		require.NoError(t, err)
	}

	resp, err := a.Analyze(ctx, analyzer.Input{URL: trendyolURL})
	require.NoError(t, err)

	require.NotNil(t, resp.Market.AvgPrice)
	assert.Equal(t, 1500.0, *resp.Market.AvgPrice)
	assert.Equal(t, 5, resp.Market.SampleCount)
	assert.InDelta(t, 0.4, resp.Market.Confidence, 1e-9)

	require.Len(t, resp.Offers, 1)
	assert.Equal(t, scoring.OfferSensible, resp.Offers[0].Verdict)
	assert.Greater(t, resp.Score.Final, 70)
}

func TestAnalyze_Partial(t *testing.T) {
	a, _ := newAnalyzer(t, okFetcher(emptyHTML))

	resp, err := a.Analyze(context.Background(), analyzer.Input{URL: trendyolURL})
	require.NoError(t, err)

	assert.True(t, resp.OK)
	assert.Equal(t, analyzer.ModePartial, resp.Mode)
	assert.Equal(t, "Kısmi veri bulundu. Gerekirse manuel fiyat ekleyebilirsin.", resp.Message)
	assert.True(t, resp.Actions.AllowManual)
	assert.Empty(t, resp.Offers)
	assert.NotNil(t, resp.Offers)
	assert.Equal(t, scoring.Fallback(), resp.Score)
}

func TestAnalyze_ManualRequired(t *testing.T) {
	f := blockedFetcher()
	n := &recordingNotifier{}
	a, _ := newAnalyzer(t, f, func(o *analyzer.Options) { o.Notifier = n })

	resp, err := a.Analyze(context.Background(), analyzer.Input{URL: trendyolURL})
	require.NoError(t, err)

	assert.True(t, resp.OK)
	assert.Equal(t, analyzer.ModeManualRequired, resp.Mode)
	assert.Equal(t, "Bu linkten otomatik veri alınamadı.", resp.Message)
	assert.True(t, resp.Actions.AllowManual)
	assert.Equal(t, 60, resp.Score.Final)
	assert.False(t, resp.Score.Computed)
	assert.Equal(t, scoring.VerdictConsider, resp.Score.Verdict)

	// URL 슬러그에서 만든 제목과 대체 이미지
	assert.NotEmpty(t, resp.Product.Title)
	assert.NotEmpty(t, resp.Product.Image)
	assert.Empty(t, n.deals)

	// 수집 실패 결과는 캐시하지 않는다.
	_, err = a.Analyze(context.Background(), analyzer.Input{URL: trendyolURL})
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load())
}

func TestAnalyze_UnreachableHost(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	deadURL := srv.URL + "/urun/kulaklik-p-9"
	srv.Close()

	f, err := fetcher.NewFromConfig(fetcher.Config{
		Timeout:        500 * time.Millisecond,
		MaxRetries:     1,
		MinRetryDelay:  100 * time.Millisecond,
		MaxRetryDelay:  200 * time.Millisecond,
		DisableLogging: true,
	})
	require.NoError(t, err)
	defer f.Close()

	a, _ := newAnalyzer(t, fetcher.NewClient(f))

	resp, err := a.Analyze(context.Background(), analyzer.Input{URL: deadURL})
	require.NoError(t, err)

	assert.True(t, resp.OK)
	assert.Equal(t, analyzer.ModeManualRequired, resp.Mode)
	assert.Equal(t, 60, resp.Score.Final)
	assert.False(t, resp.Score.Computed)
	assert.Equal(t, source.Other, resp.Product.Source)
}

func TestAnalyze_Cache(t *testing.T) {
	f := okFetcher(pricedHTML)
	a, _ := newAnalyzer(t, f)
	ctx := context.Background()

	first, err := a.Analyze(ctx, analyzer.Input{URL: trendyolURL})
	require.NoError(t, err)
	assert.False(t, first.Cached)

	// 추적 파라미터만 다른 링크는 같은 상품 키로 캐시를 공유한다.
	second, err := a.Analyze(ctx, analyzer.Input{URL: "trendyol.com/marka/kulaklik-p-1?boutiqueId=7&gclid=abc"})
	require.NoError(t, err)

	assert.True(t, second.Cached)
	assert.Equal(t, first.Score, second.Score)
	assert.Equal(t, int32(1), f.calls.Load())

	t.Run("반환된 제안을 수정해도 캐시는 바뀌지 않는다", func(t *testing.T) {
		require.Len(t, first.Offers, 1)
		require.Len(t, second.Offers, 1)
		first.Offers[0].Total = 1
		second.Offers[0].Total = 2

		third, err := a.Analyze(ctx, analyzer.Input{URL: trendyolURL})
		require.NoError(t, err)

		require.True(t, third.Cached)
		require.Len(t, third.Offers, 1)
		assert.Equal(t, 1299.0, third.Offers[0].Total)
	})
}

func TestAnalyze_PlainHTTPOtherHostIsLowTrust(t *testing.T) {
	a, _ := newAnalyzer(t, okFetcher(pricedHTML))

	resp, err := a.Analyze(context.Background(), analyzer.Input{URL: "http://shop.example.com/kulaklik"})
	require.NoError(t, err)

	require.Len(t, resp.Offers, 1)
	assert.Equal(t, scoring.TrustLow, resp.Offers[0].TrustLevel)
	// 시세가 없고 유일한 제안이라 1차 판정은 Mantıklı, 낮은 신뢰도로 한 단계 내려간다.
	assert.Equal(t, scoring.OfferAcceptable, resp.Offers[0].Verdict)
}

func TestAnalyze_CoalescesConcurrentRequests(t *testing.T) {
	f := okFetcher(pricedHTML)
	f.gate = make(chan struct{})
	a, _ := newAnalyzer(t, f)

	const n = 8
	var wg sync.WaitGroup
	results := make([]analyzer.Response, n)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := a.Analyze(context.Background(), analyzer.Input{URL: trendyolURL})
			assert.NoError(t, err)
			results[i] = resp
		}()
	}

	time.Sleep(100 * time.Millisecond)
	close(f.gate)
	wg.Wait()

	assert.Equal(t, int32(1), f.calls.Load())
	for _, r := range results {
		assert.Equal(t, analyzer.ModeAuto, r.Mode)
	}
}

func TestAnalyze_ManualPrice(t *testing.T) {
	f := blockedFetcher()
	a, store := newAnalyzer(t, f)
	ctx := context.Background()

	resp, err := a.Analyze(ctx, analyzer.Input{URL: trendyolURL, ManualPrice: ptr(499.6), ManualShipping: ptr(29.9)})
	require.NoError(t, err)

	assert.Equal(t, analyzer.ModeAuto, resp.Mode)
	assert.False(t, resp.Actions.AllowManual)
	require.Len(t, resp.Offers, 1)
	assert.Equal(t, 500.0, resp.Offers[0].Price)
	assert.Equal(t, 30.0, resp.Offers[0].Shipping)
	assert.Equal(t, 530.0, resp.Offers[0].Total)
	assert.True(t, resp.Score.Computed)

	points, err := store.RecentPoints(ctx, trendyolKey, time.Hour)
	require.NoError(t, err)
	require.Len(t, points, 1)
	assert.Equal(t, history.KindContrib, points[0].Kind)

	// 수동 입력은 캐시를 건너뛴다.
	_, err = a.Analyze(ctx, analyzer.Input{URL: trendyolURL, ManualPrice: ptr(499)})
	require.NoError(t, err)
	assert.Equal(t, int32(2), f.calls.Load())

	t.Run("0 이하 수동 가격은 무시한다", func(t *testing.T) {
		resp, err := a.Analyze(ctx, analyzer.Input{URL: trendyolURL, ManualPrice: ptr(0)})
		require.NoError(t, err)
		assert.Equal(t, analyzer.ModeManualRequired, resp.Mode)
	})
}

func TestAnalyze_ManualPriceWithExtractedOffer(t *testing.T) {
	a, _ := newAnalyzer(t, okFetcher(pricedHTML))

	resp, err := a.Analyze(context.Background(), analyzer.Input{URL: trendyolURL, ManualPrice: ptr(1199)})
	require.NoError(t, err)

	require.Len(t, resp.Offers, 2)
	assert.Equal(t, 1299.0, resp.Offers[0].Total)
	assert.Equal(t, 1199.0, resp.Offers[1].Total)
}

func TestContribute(t *testing.T) {
	f := okFetcher(pricedHTML)
	a, store := newAnalyzer(t, f)
	ctx := context.Background()

	_, err := a.Analyze(ctx, analyzer.Input{URL: trendyolURL})
	require.NoError(t, err)

	require.NoError(t, a.Contribute(ctx, analyzer.Contribution{ProductKey: trendyolKey, Price: 1249.6, Shipping: ptr(-5)}))

	points, err := store.RecentPoints(ctx, trendyolKey, time.Hour)
	require.NoError(t, err)
	require.Len(t, points, 2)
	assert.Equal(t, history.KindContrib, points[0].Kind)
	assert.Equal(t, 1250.0, points[0].Total)

	// 제보 후에는 캐시가 무효화되어 다시 수집한다.
	resp, err := a.Analyze(ctx, analyzer.Input{URL: trendyolURL})
	require.NoError(t, err)
	assert.False(t, resp.Cached)
	assert.Equal(t, int32(2), f.calls.Load())

	t.Run("배송비 포함 총액", func(t *testing.T) {
		require.NoError(t, a.Contribute(ctx, analyzer.Contribution{ProductKey: "amazon:x", Price: 100, Shipping: ptr(19.5)}))

		pts, err := store.RecentPoints(ctx, "amazon:x", time.Hour)
		require.NoError(t, err)
		require.Len(t, pts, 1)
		assert.Equal(t, 120.0, pts[0].Total)
	})
}

func TestContribute_Invalid(t *testing.T) {
	a, _ := newAnalyzer(t, okFetcher(pricedHTML))

	tests := []struct {
		name string
		in   analyzer.Contribution
	}{
		{"키 없음", analyzer.Contribution{Price: 100}},
		{"공백 키", analyzer.Contribution{ProductKey: "  ", Price: 100}},
		{"가격 0", analyzer.Contribution{ProductKey: trendyolKey}},
		{"음수 가격", analyzer.Contribution{ProductKey: trendyolKey, Price: -3}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := a.Contribute(context.Background(), tt.in)
			require.Error(t, err)
			assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
			assert.False(t, errors.Is(err, analyzer.ErrPersistenceUnavailable))
		})
	}
}

func TestHistory(t *testing.T) {
	a, store := newAnalyzer(t, okFetcher(pricedHTML))
	ctx := context.Background()

	for _, total := range []float64{100, 110, 120} {
		_, err := store.AppendPoint(ctx, trendyolKey, total, history.KindContrib)
		require.NoError(t, err)
	}

	res, err := a.History(ctx, trendyolKey, 0)
	require.NoError(t, err)

	assert.Equal(t, trendyolKey, res.ProductKey)
	assert.WithinDuration(t, time.Now().Add(-168*time.Hour), res.Since, time.Minute)
	require.Len(t, res.Points, 3)
	assert.Equal(t, 100.0, res.Points[0].Total)
	assert.Equal(t, 120.0, res.Points[2].Total)

	_, err = a.History(ctx, " ", 24)
	require.Error(t, err)
}

func TestClampHistoryHours(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 168},
		{-5, 1},
		{1, 1},
		{24, 24},
		{2160, 2160},
		{100000, 2160},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, analyzer.ClampHistoryHours(tt.in), "hours=%d", tt.in)
	}
}

func TestAnalyzer_Health(t *testing.T) {
	a, _ := newAnalyzer(t, okFetcher(emptyHTML))
	assert.NoError(t, a.Health(context.Background()))
}
