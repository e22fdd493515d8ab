package extractor

import (
	"net/url"

	"github.com/PuerkitoBio/goquery"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/source"
)

// Page 추출 전략들이 공유하는 파싱된 페이지입니다.
type Page struct {
	HTML   string
	Doc    *goquery.Document
	URL    *url.URL
	Source source.Source
}

// Strategy 페이지에서 상품 정보를 찾는 방법 하나를 나타냅니다.
//
// 구현체는 찾지 못한 필드를 비워 두면 되며, 에러나 패닉은 "결과 없음"으로 처리됩니다.
type Strategy interface {
	Name() string
	Extract(p *Page) (Fields, error)
}

// DefaultStrategies 기본 추출 전략 목록을 우선순위 순서대로 반환합니다.
func DefaultStrategies() []Strategy {
	return []Strategy{
		JSONLDStrategy{},
		MetaStrategy{},
		DOMStrategy{},
		AppStateStrategy{},
		TextStrategy{},
	}
}
