// Package extractor 상품 페이지 HTML에서 제목, 이미지, 가격, 평점, 배송비, 재고 정보를 추출합니다.
//
// 여러 추출 전략을 정해진 순서대로 실행하고, 필드마다 가장 먼저 찾은 유효한 값을 사용합니다.
package extractor

import (
	"context"
	"fmt"
	"math"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	apperrors "github.com/darkkaiser/bikonomi/internal/pkg/errors"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/source"
	applog "github.com/darkkaiser/bikonomi/pkg/log"
)

const component = "analyzer.extractor"

// Input 추출 대상 페이지 정보입니다.
type Input struct {
	HTML   string
	URL    string
	Source source.Source
}

// Extractor 추출 전략 체인을 실행합니다.
type Extractor struct {
	strategies []Strategy
}

// New strategies를 생략하면 DefaultStrategies를 사용합니다.
func New(strategies ...Strategy) *Extractor {
	if len(strategies) == 0 {
		strategies = DefaultStrategies()
	}

	return &Extractor{strategies: strategies}
}

// Extract 페이지에서 상품 정보를 추출합니다.
//
// 가격을 찾지 못해도 제목과 이미지는 대체 값으로 채워서 반환합니다.
// HTML 문서 자체를 파싱할 수 없는 경우에만 에러를 함께 반환합니다.
func (e *Extractor) Extract(ctx context.Context, in Input) (Product, error) {
	pageURL, _ := url.Parse(in.URL)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(in.HTML))
	if err != nil {
		return fallbackProduct(pageURL), apperrors.Wrap(err, apperrors.ParsingFailed, "상품 페이지 HTML 파싱에 실패했습니다")
	}

	p := &Page{
		HTML:   in.HTML,
		Doc:    doc,
		URL:    pageURL,
		Source: in.Source,
	}

	var merged Fields
	var priceVia string
	for _, s := range e.strategies {
		if ctx.Err() != nil {
			break
		}

		fields := e.run(ctx, s, p)
		if merged.Price == nil && fields.Price != nil {
			priceVia = s.Name()
		}
		merged.fill(fields)
	}

	product := Product{
		Title:       merged.Title,
		Image:       resolveImage(merged.Image, pageURL),
		Price:       merged.Price,
		Currency:    merged.Currency,
		Rating:      merged.Rating,
		RatingCount: merged.RatingCount,
		Shipping:    extractShipping(visibleText(doc), in.HTML),
		InStock:     inStockFromAvailability(merged.Availability),
		PriceVia:    priceVia,
	}

	if product.Title == "" {
		product.Title = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if product.Title == "" {
		product.Title = TitleFromURL(pageURL)
	}
	product.Title = CleanTitle(product.Title)

	if product.Currency == "" {
		product.Currency = CurrencyTRY
	}

	applog.WithComponent(component).
		WithContext(ctx).
		WithFields(applog.Fields{
			"source":    in.Source,
			"has_price": product.HasPrice(),
			"price_via": priceVia,
		}).
		Debug("상품 정보 추출 완료")

	return product, nil
}

// run 전략 하나를 실행합니다. 에러나 패닉은 로그만 남기고 빈 결과로 바꿉니다.
func (e *Extractor) run(ctx context.Context, s Strategy, p *Page) (fields Fields) {
	defer func() {
		if r := recover(); r != nil {
			applog.WithComponent(component).
				WithContext(ctx).
				WithFields(applog.Fields{
					"strategy": s.Name(),
					"panic":    fmt.Sprint(r),
				}).
				Error("추출 전략 실행 중 패닉이 발생하여 결과를 무시합니다")

			fields = Fields{}
		}
	}()

	fields, err := s.Extract(p)
	if err != nil {
		applog.WithComponent(component).
			WithContext(ctx).
			WithFields(applog.Fields{
				"strategy": s.Name(),
				"error":    err.Error(),
			}).
			Debug("추출 전략 실패: 결과 없음으로 처리")

		return Fields{}
	}

	return sanitize(fields)
}

// sanitize 전략이 돌려준 값 중 유효하지 않은 값을 제거합니다.
func sanitize(f Fields) Fields {
	f.Title = strings.TrimSpace(f.Title)
	f.Image = strings.TrimSpace(f.Image)
	if f.Price != nil && (*f.Price <= 0 || math.IsNaN(*f.Price) || math.IsInf(*f.Price, 0)) {
		f.Price = nil
	}
	if f.Rating != nil && (*f.Rating < 0 || *f.Rating > 5) {
		f.Rating = nil
	}
	if f.RatingCount != nil && *f.RatingCount < 0 {
		f.RatingCount = nil
	}
	f.Currency = normalizeCurrency(f.Currency)
	return f
}

func fallbackProduct(pageURL *url.URL) Product {
	return Product{
		Title:    CleanTitle(TitleFromURL(pageURL)),
		Image:    FallbackImage,
		Currency: CurrencyTRY,
		InStock:  true,
	}
}

// resolveImage 상대 경로 이미지를 페이지 URL 기준의 절대 경로로 바꿉니다. 비어 있으면 대체 이미지를 사용합니다.
func resolveImage(image string, base *url.URL) string {
	if image == "" || strings.HasPrefix(image, "data:") {
		return FallbackImage
	}

	ref, err := url.Parse(image)
	if err != nil {
		return FallbackImage
	}
	if base != nil {
		ref = base.ResolveReference(ref)
	}
	if ref.Scheme != "http" && ref.Scheme != "https" {
		return FallbackImage
	}

	return ref.String()
}
