package fetcher

import (
	"math/rand/v2"
	"net/http"
)

// defaultUserAgents User-Agent 목록이 지정되지 않았을 때 사용할 데스크톱 브라우저 User-Agent
var defaultUserAgents = []string{
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
	"Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0",
	"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15 (KHTML, like Gecko) Version/17.2 Safari/605.1.15",
}

// browserHeaders 일반 브라우저의 최상위 문서 요청과 같은 모양을 만들기 위한 헤더
var browserHeaders = map[string]string{
	"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8",
	"Accept-Language":           "tr-TR,tr;q=0.9,en-US;q=0.8,en;q=0.7",
	"Accept-Encoding":           "gzip, deflate, br",
	"Cache-Control":             "no-cache",
	"Pragma":                    "no-cache",
	"Sec-Fetch-Dest":            "document",
	"Sec-Fetch-Mode":            "navigate",
	"Sec-Fetch-Site":            "none",
	"Sec-Fetch-User":            "?1",
	"Upgrade-Insecure-Requests": "1",
}

// UserAgentFetcher 요청에 User-Agent가 없으면 목록에서 무작위로 골라 설정하는 데코레이터입니다.
type UserAgentFetcher struct {
	delegate Fetcher

	userAgents []string
}

var _ Fetcher = (*UserAgentFetcher)(nil)

// NewUserAgentFetcher userAgents가 비어 있으면 기본 목록을 사용합니다.
func NewUserAgentFetcher(delegate Fetcher, userAgents []string) *UserAgentFetcher {
	return &UserAgentFetcher{
		delegate:   delegate,
		userAgents: userAgents,
	}
}

func (f *UserAgentFetcher) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") != "" {
		return f.delegate.Do(req)
	}

	uas := f.userAgents
	if len(uas) == 0 {
		uas = defaultUserAgents
	}

	// 원본 요청을 변경하지 않도록 복제 후 설정
	clonedReq := req.Clone(req.Context())
	clonedReq.Header.Set("User-Agent", uas[rand.IntN(len(uas))])

	return f.delegate.Do(clonedReq)
}

func (f *UserAgentFetcher) Close() error {
	return f.delegate.Close()
}

// BrowserHeaderFetcher 요청에 브라우저와 같은 Accept 계열 헤더를 채워 넣는 데코레이터입니다.
//
// 호출자가 이미 설정한 헤더는 덮어쓰지 않습니다.
type BrowserHeaderFetcher struct {
	delegate Fetcher
}

var _ Fetcher = (*BrowserHeaderFetcher)(nil)

func NewBrowserHeaderFetcher(delegate Fetcher) *BrowserHeaderFetcher {
	return &BrowserHeaderFetcher{delegate: delegate}
}

func (f *BrowserHeaderFetcher) Do(req *http.Request) (*http.Response, error) {
	clonedReq := req.Clone(req.Context())
	for key, value := range browserHeaders {
		if clonedReq.Header.Get(key) == "" {
			clonedReq.Header.Set(key, value)
		}
	}

	return f.delegate.Do(clonedReq)
}

func (f *BrowserHeaderFetcher) Close() error {
	return f.delegate.Close()
}
