package constants

import "time"

// HTTP 서버 기본 설정값입니다.
const (
	DefaultReadTimeout       = 10 * time.Second
	DefaultReadHeaderTimeout = 5 * time.Second

	// DefaultWriteTimeout 분석 요청은 페이지 수집 마감 시간(8초)에 렌더링 재시도까지 포함하므로 여유를 둡니다.
	DefaultWriteTimeout = 30 * time.Second
	DefaultIdleTimeout  = 120 * time.Second

	// DefaultRequestTimeout 요청 하나의 최대 처리 시간
	DefaultRequestTimeout = 15 * time.Second

	// DefaultMaxBodySize 요청 본문 최대 크기
	DefaultMaxBodySize = "64K"

	// DefaultRateLimitPerSecond IP별 초당 허용 요청 수
	DefaultRateLimitPerSecond = 5

	// DefaultRateLimitBurst IP별 버스트 허용량
	DefaultRateLimitBurst = 10

	// DefaultRateLimitClients Rate Limiter 를 기억하는 최대 IP 수
	DefaultRateLimitClients = 10000

	// DefaultRateLimitIdleTTL 이 시간 동안 요청이 없는 IP 의 Rate Limiter 는 제거됩니다.
	DefaultRateLimitIdleTTL = 10 * time.Minute
)
