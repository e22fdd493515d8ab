// Package analyzer 상품 링크 하나를 받아 정규화, 수집, 추출, 시세 계산, 점수화를 거쳐
// 분석 결과(Response)를 만드는 파이프라인입니다.
//
// 파이프라인은 실패를 단계별로 흡수합니다. 올바른 링크라면 페이지가 차단되거나 가격을 찾지 못해도
// OK=true 인 응답을 돌려주며, 호출자에게 에러를 반환하는 경우는 링크 자체가 잘못된 때뿐입니다.
package analyzer

import (
	"context"
	"errors"
	"math"
	"net/url"
	"slices"
	"strings"
	"time"

	apperrors "github.com/darkkaiser/bikonomi/internal/pkg/errors"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/cache"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/extractor"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/fetcher"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/history"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/market"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/scoring"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/searchlink"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/source"
	applog "github.com/darkkaiser/bikonomi/pkg/log"
	"golang.org/x/sync/singleflight"
)

// component 분석 파이프라인 로깅용 컴포넌트 이름
const component = "analyzer"

// DefaultDeadline 페이지 수집부터 추출까지 전체에 걸리는 최대 시간
const DefaultDeadline = 8 * time.Second

// PageFetcher 상품 페이지 HTML 을 가져옵니다. 실패도 Result 로 표현하며 에러를 반환하지 않습니다.
type PageFetcher interface {
	Fetch(ctx context.Context, targetURL string) fetcher.Result
}

// DealNotifier 점수가 계산된 분석 결과를 전달받습니다. 구현체는 호출자를 오래 막지 않아야 합니다.
type DealNotifier interface {
	NotifyDeal(ctx context.Context, resp Response)
}

// Options Analyzer 구성 요소입니다. Fetcher 를 제외한 항목은 비워 두면 메모리 기반 기본값을 씁니다.
type Options struct {
	Fetcher   PageFetcher
	Extractor *extractor.Extractor
	Cache     cache.Cache[Response]
	History   history.Store
	Notifier  DealNotifier

	// Deadline 수집~추출 구간의 최대 시간
	Deadline time.Duration

	// MarketWindow 시세 계산에 사용할 이력 기간
	MarketWindow time.Duration
}

// Analyzer 분석 파이프라인입니다. 여러 고루틴에서 동시에 사용할 수 있습니다.
type Analyzer struct {
	fetcher   PageFetcher
	extractor *extractor.Extractor
	cache     cache.Cache[Response]
	history   history.Store
	notifier  DealNotifier

	deadline     time.Duration
	marketWindow time.Duration

	// group 같은 상품 키에 대한 동시 분석 요청을 하나로 합칩니다.
	group singleflight.Group

	now func() time.Time
}

// New 새로운 Analyzer 를 생성합니다.
func New(opts Options) (*Analyzer, error) {
	if opts.Fetcher == nil {
		return nil, apperrors.New(apperrors.Internal, "PageFetcher 는 필수입니다")
	}

	a := &Analyzer{
		fetcher:      opts.Fetcher,
		extractor:    opts.Extractor,
		cache:        opts.Cache,
		history:      opts.History,
		notifier:     opts.Notifier,
		deadline:     opts.Deadline,
		marketWindow: opts.MarketWindow,
		now:          time.Now,
	}
	if a.extractor == nil {
		a.extractor = extractor.New()
	}
	if a.cache == nil {
		a.cache = cache.NewMemory[Response](cache.DefaultSize, cache.DefaultTTL)
	}
	if a.history == nil {
		a.history = history.NewMemory()
	}
	if a.deadline <= 0 {
		a.deadline = DefaultDeadline
	}
	if a.marketWindow <= 0 {
		a.marketWindow = history.DefaultMarketWindow
	}

	return a, nil
}

// Analyze 상품 링크를 분석합니다.
//
// 수동 가격이 없으면 캐시를 먼저 확인하고, 같은 상품에 대한 동시 요청은 한 번만 계산합니다.
// 반환되는 에러는 ErrInvalidURL 뿐입니다.
func (a *Analyzer) Analyze(ctx context.Context, in Input) (Response, error) {
	norm, err := source.Normalize(in.URL)
	if err != nil {
		return Response{}, newErrInvalidURL(err)
	}

	manualPrice, hasManual := positive(in.ManualPrice)
	if hasManual {
		manualShipping, _ := positive(in.ManualShipping)
		return a.run(ctx, norm, &manualInput{price: manualPrice, shipping: manualShipping}), nil
	}

	if resp, ok := a.cache.Get(ctx, norm.ProductKey); ok {
		resp.Cached = true
		resp.Offers = slices.Clone(resp.Offers)
		return resp, nil
	}

	// 먼저 들어온 요청이 취소되어도 합류한 다른 요청이 계속 결과를 받을 수 있도록 취소 신호를 떼어 냅니다.
	v, _, _ := a.group.Do(norm.ProductKey, func() (any, error) {
		return a.run(context.WithoutCancel(ctx), norm, nil), nil
	})

	// 합류한 요청끼리 Offers 를 공유하지 않도록 복사합니다.
	resp := v.(Response)
	resp.Offers = slices.Clone(resp.Offers)
	return resp, nil
}

type manualInput struct {
	price    float64
	shipping float64
}

// run Meta → Fetch → Extract → MarketCompute → OfferVerdicts → Score → CacheWrite 단계를 수행합니다.
func (a *Analyzer) run(ctx context.Context, norm source.Normalized, manual *manualInput) Response {
	startedAt := a.now()
	logger := applog.WithComponent(component).WithContext(ctx).WithFields(applog.Fields{
		"product_key": norm.ProductKey,
		"source":      norm.Source,
	})

	pageURL, _ := url.Parse(norm.CleanURL)
	product := Product{
		ProductKey: norm.ProductKey,
		Source:     norm.Source,
		Title:      extractor.CleanTitle(extractor.TitleFromURL(pageURL)),
		Image:      extractor.FallbackImage,
		URL:        norm.CleanURL,
		Currency:   extractor.CurrencyTRY,
	}

	fetched, extracted := a.fetchAndExtract(ctx, norm)
	if extracted != nil {
		product.Title = extracted.Title
		product.Image = extracted.Image
		product.Currency = extracted.Currency
		product.Rating = extracted.Rating
		product.RatingCount = extracted.RatingCount
	}

	store := storeName(norm)
	trust := scoring.TrustLevel(norm.TrustLevel())

	var offers []scoring.Offer
	if extracted != nil && extracted.HasPrice() {
		o := scoring.NewOffer(store, math.Round(*extracted.Price), math.Round(extracted.Shipping), extracted.InStock, norm.CleanURL, trust)
		offers = append(offers, o)
		a.appendPoint(ctx, norm.ProductKey, o.Total, history.KindAuto)
	} else if fetched.OK {
		logger.WithField("error", ErrExtractionEmpty).Info("가격 추출 실패: 부분 결과로 응답합니다")
	}

	if manual != nil {
		o := scoring.NewOffer(store, math.Round(manual.price), math.Round(manual.shipping), true, norm.CleanURL, trust)
		offers = append(offers, o)
		a.appendPoint(ctx, norm.ProductKey, o.Total, history.KindContrib)
	}

	m := a.marketInfo(ctx, norm.ProductKey)
	offers = scoring.ApplyVerdicts(offers, m)
	score := scoring.Compute(offers, m)

	resp := Response{
		OK:      true,
		Product: product,
		Market:  m,
		Score:   score,
		Offers:  offers,
		Actions: Actions{SearchLinks: searchlink.Build(product.Title)},
	}
	if resp.Offers == nil {
		resp.Offers = []scoring.Offer{}
	}

	switch {
	case len(offers) > 0:
		resp.Mode = ModeAuto
	case fetched.OK:
		resp.Mode = ModePartial
		resp.Message = messagePartial
	default:
		resp.Mode = ModeManualRequired
		resp.Message = messageManualRequired
	}
	resp.Actions.AllowManual = resp.Mode != ModeAuto

	// 수동 입력 결과는 요청자 고유의 값이고, 수집 실패는 일시적일 수 있으므로 캐시하지 않습니다.
	if manual == nil && resp.Mode != ModeManualRequired {
		stored := resp
		stored.Offers = slices.Clone(resp.Offers)
		a.cache.Set(ctx, norm.ProductKey, stored)
	}

	if a.notifier != nil && resp.Score.Computed {
		a.notifier.NotifyDeal(ctx, resp)
	}

	logger.WithFields(applog.Fields{
		"mode":     resp.Mode,
		"via":      fetched.Via,
		"offers":   len(resp.Offers),
		"score":    resp.Score.Final,
		"computed": resp.Score.Computed,
		"duration": a.now().Sub(startedAt).String(),
	}).Info("상품 분석 완료")

	return resp
}

// fetchAndExtract 전체 시간 제한 안에서 페이지를 가져와 상품 정보를 추출합니다.
// 페이지를 받지 못하면 추출 결과는 nil 입니다.
func (a *Analyzer) fetchAndExtract(ctx context.Context, norm source.Normalized) (fetcher.Result, *extractor.Product) {
	ctx, cancel := context.WithTimeout(ctx, a.deadline)
	defer cancel()

	res := a.fetcher.Fetch(ctx, norm.CleanURL)
	if !res.OK {
		cause := ErrFetchTransient
		if res.BlockedHint {
			cause = ErrFetchBlocked
		}

		applog.WithComponent(component).WithContext(ctx).WithFields(applog.Fields{
			"product_key": norm.ProductKey,
			"status":      res.Status,
			"blocked":     res.BlockedHint,
			"via":         res.Via,
			"error":       errors.Join(cause, res.Err),
		}).Warn("상품 페이지 수집 실패: 수동 입력이 필요합니다")

		return res, nil
	}

	p, err := a.extractor.Extract(ctx, extractor.Input{HTML: res.HTML, URL: norm.CleanURL, Source: norm.Source})
	if err != nil {
		applog.WithComponent(component).WithContext(ctx).WithFields(applog.Fields{
			"product_key": norm.ProductKey,
			"error":       err,
		}).Warn("상품 정보 추출 실패: 대체 값으로 진행합니다")
	}

	return res, &p
}

// marketInfo 최근 이력으로 시세를 계산합니다. 이력 조회에 실패하면 시세 없음으로 처리합니다.
func (a *Analyzer) marketInfo(ctx context.Context, key string) market.Info {
	points, err := a.history.RecentPoints(ctx, key, a.marketWindow)
	if err != nil {
		applog.WithComponent(component).WithContext(ctx).WithFields(applog.Fields{
			"product_key": key,
			"error":       newErrPersistence(err),
		}).Warn("가격 이력 조회 실패: 시세 없이 계산합니다")

		return market.Info{}
	}

	m := market.Compute(history.Totals(points))
	if !m.Confident() {
		applog.WithComponent(component).WithContext(ctx).WithFields(applog.Fields{
			"product_key": key,
			"samples":     m.SampleCount,
			"error":       ErrMarketDataInsufficient,
		}).Debug("시세 계산 생략: 관측치 부족")
	}

	return m
}

func (a *Analyzer) appendPoint(ctx context.Context, key string, total float64, kind history.Kind) {
	if _, err := a.history.AppendPoint(ctx, key, total, kind); err != nil {
		applog.WithComponent(component).WithContext(ctx).WithFields(applog.Fields{
			"product_key": key,
			"total":       total,
			"kind":        kind,
			"error":       newErrPersistence(err),
		}).Warn("가격 관측치 저장 실패: 분석은 계속 진행합니다")
	}
}

// Contribute 사용자가 제보한 가격을 이력에 추가하고 해당 상품의 캐시를 무효화합니다.
//
// 총액은 반올림한 가격과 반올림한 배송비(음수는 0)의 합입니다.
func (a *Analyzer) Contribute(ctx context.Context, c Contribution) error {
	key := strings.TrimSpace(c.ProductKey)
	if key == "" {
		return apperrors.New(apperrors.InvalidInput, "상품 키가 비어 있습니다")
	}

	price, ok := positive(&c.Price)
	if !ok {
		return apperrors.Newf(apperrors.InvalidInput, "가격은 0보다 커야 합니다 (%v)", c.Price)
	}

	shipping, _ := positive(c.Shipping)
	total := math.Round(price) + max(0, math.Round(shipping))

	if _, err := a.history.AppendPoint(ctx, key, total, history.KindContrib); err != nil {
		if errors.Is(err, history.ErrInvalidPoint) {
			return err
		}
		return newErrPersistence(err)
	}

	a.cache.Delete(ctx, key)

	applog.WithComponent(component).WithContext(ctx).WithFields(applog.Fields{
		"product_key": key,
		"total":       total,
	}).Info("가격 제보 저장 완료")

	return nil
}

// History 최근 hours 시간 동안의 가격 이력을 오래된 순으로 반환합니다.
func (a *Analyzer) History(ctx context.Context, key string, hours int) (HistoryResult, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return HistoryResult{}, apperrors.New(apperrors.InvalidInput, "상품 키가 비어 있습니다")
	}

	since := a.now().Add(-time.Duration(ClampHistoryHours(hours)) * time.Hour)
	points, err := a.history.Range(ctx, key, since)
	if err != nil {
		return HistoryResult{}, newErrPersistence(err)
	}

	return HistoryResult{ProductKey: key, Since: since, Points: points}, nil
}

// PurgeCache 만료된 캐시를 정리합니다.
func (a *Analyzer) PurgeCache(ctx context.Context) int {
	return a.cache.Purge(ctx)
}

// PruneHistory retention 보다 오래된 가격 이력을 삭제합니다.
func (a *Analyzer) PruneHistory(ctx context.Context, retention time.Duration) (int, error) {
	n, err := a.history.Prune(ctx, a.now().Add(-retention))
	if err != nil {
		return n, newErrPersistence(err)
	}
	return n, nil
}

// healthProbeKey 헬스체크 조회에 쓰는, 실제 상품 키와 겹치지 않는 키
const healthProbeKey = "health:probe"

// Health 가격 이력 저장소에 조회가 가능한지 확인합니다.
func (a *Analyzer) Health(ctx context.Context) error {
	if _, err := a.history.Range(ctx, healthProbeKey, a.now()); err != nil {
		return newErrPersistence(err)
	}
	return nil
}

// storeName 전용 판매처는 판매처 이름, 그 외에는 호스트를 판매처 이름으로 씁니다.
func storeName(norm source.Normalized) string {
	if norm.Source.Known() || norm.Host == "" {
		return string(norm.Source)
	}
	return norm.Host
}

func positive(v *float64) (float64, bool) {
	if v == nil || math.IsNaN(*v) || math.IsInf(*v, 0) || *v <= 0 {
		return 0, false
	}
	return *v, true
}
