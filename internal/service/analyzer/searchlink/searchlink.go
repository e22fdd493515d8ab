// Package searchlink 상품명으로 주요 판매처 검색 결과 링크를 만듭니다.
package searchlink

import (
	"net/url"
	"strings"

	"github.com/darkkaiser/bikonomi/internal/service/analyzer/source"
	"github.com/darkkaiser/bikonomi/pkg/strutil"
)

// maxQueryRunes 검색어 최대 길이(문자 수)
const maxQueryRunes = 120

// defaultQuery 상품명이 비어 있을 때 쓰는 검색어
const defaultQuery = "ürün"

// Link 판매처 검색 링크입니다.
type Link struct {
	Store string `json:"store"`
	URL   string `json:"url"`
}

var searchURLs = []struct {
	store source.Source
	base  string
}{
	{source.Trendyol, "https://www.trendyol.com/sr?q="},
	{source.Hepsiburada, "https://www.hepsiburada.com/ara?q="},
	{source.Amazon, "https://www.amazon.com.tr/s?k="},
}

// Build Trendyol, Hepsiburada, Amazon 순서의 검색 링크를 반환합니다.
func Build(title string) []Link {
	query := strings.TrimSpace(strutil.Prefix(strutil.NormalizeSpace(title), maxQueryRunes))
	if query == "" {
		query = defaultQuery
	}
	escaped := escape(query)

	links := make([]Link, 0, len(searchURLs))
	for _, s := range searchURLs {
		links = append(links, Link{Store: string(s.store), URL: s.base + escaped})
	}

	return links
}

// escape 공백을 "+" 대신 "%20"으로 인코딩합니다.
func escape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
