package fetcher

import (
	"errors"
	"net"
	"net/http"
	"net/url"
	"time"
)

const (
	defaultTimeout             = 8 * time.Second
	defaultTLSHandshakeTimeout = 5 * time.Second
	defaultIdleConnTimeout     = 90 * time.Second
	defaultMaxIdleConns        = 100
	defaultMaxConnsPerHost     = 8
	defaultMaxRedirects        = 10
)

// TransportOptions HTTPFetcher가 사용하는 http.Transport 설정입니다.
type TransportOptions struct {
	// Timeout 요청 1회에 대한 전체 타임아웃 (0이면 기본값 8초)
	Timeout time.Duration

	// ProxyURL 비어 있으면 환경 변수(HTTP_PROXY 등)를 따릅니다.
	ProxyURL string

	MaxIdleConns    int
	MaxConnsPerHost int

	// MaxRedirects 따라갈 최대 리다이렉트 횟수 (0이면 기본값 10)
	MaxRedirects int
}

// HTTPFetcher 데코레이터 체인의 가장 안쪽에서 실제 네트워크 요청을 수행합니다.
type HTTPFetcher struct {
	client    *http.Client
	transport *http.Transport
}

var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher 옵션에 맞는 전용 Transport를 가진 HTTPFetcher를 생성합니다.
func NewHTTPFetcher(opts TransportOptions) (*HTTPFetcher, error) {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   5 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:   true,
		TLSHandshakeTimeout: defaultTLSHandshakeTimeout,
		MaxIdleConns:        defaultMaxIdleConns,
		MaxIdleConnsPerHost: defaultMaxConnsPerHost,
		MaxConnsPerHost:     defaultMaxConnsPerHost,
		IdleConnTimeout:     defaultIdleConnTimeout,
	}

	if opts.ProxyURL != "" {
		proxyURL, err := url.Parse(opts.ProxyURL)
		if err != nil || proxyURL.Host == "" {
			return nil, newErrInvalidProxyURL(redactRawURL(opts.ProxyURL))
		}
		tr.Proxy = http.ProxyURL(proxyURL)
	}
	if opts.MaxIdleConns > 0 {
		tr.MaxIdleConns = opts.MaxIdleConns
	}
	if opts.MaxConnsPerHost > 0 {
		tr.MaxConnsPerHost = opts.MaxConnsPerHost
		tr.MaxIdleConnsPerHost = opts.MaxConnsPerHost
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	maxRedirects := opts.MaxRedirects
	if maxRedirects <= 0 {
		maxRedirects = defaultMaxRedirects
	}

	return &HTTPFetcher{
		client: &http.Client{
			Transport: tr,
			Timeout:   timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= maxRedirects {
					return errors.New("stopped after too many redirects")
				}
				return nil
			},
		},
		transport: tr,
	}, nil
}

func (h *HTTPFetcher) Do(req *http.Request) (*http.Response, error) {
	return h.client.Do(req)
}

// Close 유휴 커넥션을 정리합니다.
func (h *HTTPFetcher) Close() error {
	h.transport.CloseIdleConnections()
	return nil
}
