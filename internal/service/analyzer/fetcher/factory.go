package fetcher

import (
	"time"
)

// Config 상품 페이지 요청용 Fetcher 체인을 구성하기 위한 설정입니다.
type Config struct {
	// Timeout 요청 1회에 대한 전체 타임아웃
	Timeout time.Duration

	// ProxyURL 모든 요청에 사용할 HTTP 프록시 (비어 있으면 환경 변수를 따름)
	ProxyURL string

	MaxConnsPerHost int

	// UserAgents 무작위로 선택할 User-Agent 목록 (비어 있으면 기본 목록)
	UserAgents []string

	// MaxRetries 일시적 오류에 대한 최대 재시도 횟수 (0~10)
	MaxRetries int

	MinRetryDelay time.Duration
	MaxRetryDelay time.Duration

	// MaxBytes 응답 본문 최대 크기 (0이면 기본값, NoLimit이면 무제한)
	MaxBytes int64

	// HostRPS 호스트별 초당 요청 수 (0이면 제한 없음)
	HostRPS   float64
	HostBurst int

	// RespectRobots robots.txt 규칙을 확인할지 여부
	RespectRobots bool
	RobotsAgent   string

	DisableLogging bool
}

// NewFromConfig 설정에 맞는 데코레이터 체인을 조립하여 반환합니다.
//
// 바깥쪽부터 다음 순서로 감쌉니다:
//
//	Logging → UserAgent → BrowserHeader → HostRateLimit → Robots → Retry → MimeType → StatusCode → MaxBytes → Decoding → HTTP
func NewFromConfig(cfg Config) (Fetcher, error) {
	base, err := NewHTTPFetcher(TransportOptions{
		Timeout:         cfg.Timeout,
		ProxyURL:        cfg.ProxyURL,
		MaxConnsPerHost: cfg.MaxConnsPerHost,
	})
	if err != nil {
		return nil, err
	}

	var f Fetcher = NewDecodingFetcher(base)
	f = NewMaxBytesFetcher(f, cfg.MaxBytes)
	f = NewStatusCodeFetcher(f)
	f = NewMimeTypeFetcher(f, htmlMimeTypes, true)
	f = NewRetryFetcher(f, cfg.MaxRetries, cfg.MinRetryDelay, cfg.MaxRetryDelay)

	if cfg.RespectRobots {
		var robotsSource Fetcher = NewMaxBytesFetcher(NewDecodingFetcher(base), maxRobotsTxtBodyBytes)
		robotsSource = NewUserAgentFetcher(robotsSource, cfg.UserAgents)

		f = NewRobotsFetcher(f, robotsSource, cfg.RobotsAgent)
	}

	f = NewHostRateLimitFetcher(f, cfg.HostRPS, cfg.HostBurst)
	f = NewBrowserHeaderFetcher(f)
	f = NewUserAgentFetcher(f, cfg.UserAgents)

	if !cfg.DisableLogging {
		f = NewLoggingFetcher(f)
	}

	return f, nil
}
