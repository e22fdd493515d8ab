package fetcher

import (
	"net/http"
	"strings"
	"sync"

	"golang.org/x/time/rate"
)

// HostRateLimitFetcher 대상 호스트별로 초당 요청 수를 제한하는 데코레이터입니다.
//
// 한 쇼핑몰에 요청이 몰려 차단되는 것을 막기 위해 호스트마다 별도의 토큰 버킷을 사용합니다.
type HostRateLimitFetcher struct {
	delegate Fetcher

	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

var _ Fetcher = (*HostRateLimitFetcher)(nil)

// NewHostRateLimitFetcher rps가 0 이하이면 제한 없이 delegate를 그대로 반환합니다.
func NewHostRateLimitFetcher(delegate Fetcher, rps float64, burst int) Fetcher {
	if rps <= 0 {
		return delegate
	}
	if burst < 1 {
		burst = 1
	}

	return &HostRateLimitFetcher{
		delegate: delegate,
		limit:    rate.Limit(rps),
		burst:    burst,
		limiters: make(map[string]*rate.Limiter),
	}
}

func (f *HostRateLimitFetcher) Do(req *http.Request) (*http.Response, error) {
	if err := f.limiter(req.URL.Hostname()).Wait(req.Context()); err != nil {
		return nil, err
	}

	return f.delegate.Do(req)
}

func (f *HostRateLimitFetcher) Close() error {
	return f.delegate.Close()
}

func (f *HostRateLimitFetcher) limiter(host string) *rate.Limiter {
	host = strings.TrimPrefix(strings.ToLower(host), "www.")

	f.mu.Lock()
	defer f.mu.Unlock()

	l, ok := f.limiters[host]
	if !ok {
		l = rate.NewLimiter(f.limit, f.burst)
		f.limiters[host] = l
	}
	return l
}
