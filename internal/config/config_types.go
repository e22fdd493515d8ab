package config

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/darkkaiser/bikonomi/internal/pkg/errors"
	"github.com/darkkaiser/bikonomi/pkg/cronx"
	"github.com/go-playground/validator/v10"
)

const (
	// DefaultMaxRetries 상품 페이지 요청 실패 시 최대 재시도 횟수 기본값
	DefaultMaxRetries = 2

	// DefaultRetryDelay 재시도 사이의 최소 대기 시간 기본값
	DefaultRetryDelay = 300 * time.Millisecond

	// DefaultMaxRetryDelay 재시도 사이의 최대 대기 시간 기본값
	DefaultMaxRetryDelay = 3 * time.Second

	// DefaultListenPort API 서버 기본 포트
	DefaultListenPort = 8080
)

// AppConfig 애플리케이션의 모든 설정을 포함하는 최상위 구조체
type AppConfig struct {
	Debug       bool              `json:"debug"`
	HTTPRetry   HTTPRetryConfig   `json:"http_retry"`
	Fetch       FetchConfig       `json:"fetch"`
	Render      RenderConfig      `json:"render"`
	Cache       CacheConfig       `json:"cache"`
	History     HistoryConfig     `json:"history"`
	Analyzer    AnalyzerConfig    `json:"analyzer"`
	Maintenance MaintenanceConfig `json:"maintenance"`
	Alert       AlertConfig       `json:"alert"`
	API         APIConfig         `json:"api"`
}

// newDefaultConfig 설정 파일과 환경 변수가 비어 있을 때 사용하는 기본 설정입니다.
func newDefaultConfig() AppConfig {
	return AppConfig{
		Debug: false,
		HTTPRetry: HTTPRetryConfig{
			MaxRetries:    DefaultMaxRetries,
			RetryDelay:    DefaultRetryDelay,
			MaxRetryDelay: DefaultMaxRetryDelay,
		},
		Fetch: FetchConfig{
			Timeout:         6 * time.Second,
			MaxConnsPerHost: 8,
			UserAgents:      []string{},
			MaxBytes:        5 * 1024 * 1024,
			HostRPS:         2,
			HostBurst:       4,
			RobotsAgent:     AppName,
		},
		Render: RenderConfig{
			ScraperAPIEndpoint: "https://api.scraperapi.com/",
			Headless: HeadlessConfig{
				Concurrency: 2,
				Timeout:     15 * time.Second,
			},
		},
		Cache: CacheConfig{
			Backend: "memory",
			TTL:     6 * time.Hour,
			Size:    4096,
			Path:    "data/bikonomi.db",
		},
		History: HistoryConfig{
			Backend:      "memory",
			Path:         "data/bikonomi.db",
			Dir:          "data/history",
			MarketWindow: 14 * 24 * time.Hour,
		},
		Analyzer: AnalyzerConfig{
			Deadline: 8 * time.Second,
		},
		Maintenance: MaintenanceConfig{
			CachePurgeSpec:   "@every 30m",
			HistoryPruneSpec: "0 0 4 * * *",
			HistoryRetention: 90 * 24 * time.Hour,
		},
		Alert: AlertConfig{
			MinScore:       80,
			Cooldown:       12 * time.Hour,
			RatePerMinute:  20,
			MaxRetries:     3,
			RetryDelay:     time.Second,
			RequestTimeout: 10 * time.Second,
		},
		API: APIConfig{
			WS: WSConfig{
				ListenPort: DefaultListenPort,
			},
			CORS: CORSConfig{
				AllowOrigins: []string{"*"},
			},
			RateLimit: RateLimitConfig{
				Enabled:           true,
				RequestsPerSecond: 5,
				Burst:             10,
			},
			BodyLimit:      "64K",
			RequestTimeout: 15 * time.Second,
		},
	}
}

// validate 설정 파일 로드 직후, 각 설정 항목의 정합성과 필수 값의 유효성을 검증합니다.
func (c *AppConfig) validate(v *validator.Validate) error {
	if err := checkStruct(v, c.HTTPRetry, "HTTP 재시도(http_retry)"); err != nil {
		return err
	}
	if c.HTTPRetry.MaxRetryDelay < c.HTTPRetry.RetryDelay {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("HTTP 최대 재시도 대기 시간(max_retry_delay)은 retry_delay(%v) 이상이어야 합니다: '%v'", c.HTTPRetry.RetryDelay, c.HTTPRetry.MaxRetryDelay))
	}

	if err := checkStruct(v, c.Fetch, "페이지 수집(fetch)"); err != nil {
		return err
	}
	if err := checkStruct(v, c.Render, "렌더링(render)"); err != nil {
		return err
	}
	if err := checkStruct(v, c.Cache, "캐시(cache)"); err != nil {
		return err
	}
	if err := checkStruct(v, c.History, "가격 이력(history)"); err != nil {
		return err
	}
	if err := checkStruct(v, c.Analyzer, "분석(analyzer)"); err != nil {
		return err
	}
	if err := c.Maintenance.validate(v); err != nil {
		return err
	}
	if err := checkStruct(v, c.Alert, "딜 알림(alert)"); err != nil {
		return err
	}
	if err := c.API.validate(v); err != nil {
		return err
	}

	return nil
}

// VerifyRecommendations 서비스 운영의 안정성과 보안을 위해 권장되는 설정 준수 여부를 진단합니다.
// 강제적인 에러를 발생시키지는 않으나, 잠재적 위험 요소에 대한 경고 메시지를 반환합니다.
func (c *AppConfig) VerifyRecommendations() []string {
	var warnings []string

	warnings = append(warnings, c.API.VerifyRecommendations()...)

	if c.Fetch.HostRPS == 0 {
		warnings = append(warnings, "호스트별 요청 제한(fetch.host_rps)이 비활성화되어 있습니다. 판매처에서 봇으로 차단될 가능성이 높아집니다")
	}
	if c.Cache.Backend == "memory" && c.History.Backend == "memory" {
		warnings = append(warnings, "캐시와 가격 이력이 모두 메모리에 저장됩니다. 재시작하면 시세 데이터가 사라집니다")
	}

	return warnings
}

// HTTPRetryConfig 상품 페이지 요청 실패 시 재시도 횟수와 대기 시간을 정의하는 설정 구조체
type HTTPRetryConfig struct {
	MaxRetries    int           `json:"max_retries" validate:"min=0,max=10"`
	RetryDelay    time.Duration `json:"retry_delay" validate:"gt=0"`
	MaxRetryDelay time.Duration `json:"max_retry_delay" validate:"gt=0"`
}

// FetchConfig 직접 요청(HTTP) 클라이언트 설정
type FetchConfig struct {
	Timeout         time.Duration `json:"timeout" validate:"gt=0"`
	ProxyURL        string        `json:"proxy_url" validate:"omitempty,url"`
	MaxConnsPerHost int           `json:"max_conns_per_host" validate:"min=0"`
	UserAgents      []string      `json:"user_agents"`
	MaxBytes        int64         `json:"max_bytes" validate:"min=0"`
	HostRPS         float64       `json:"host_rps" validate:"min=0"`
	HostBurst       int           `json:"host_burst" validate:"min=0"`
	RespectRobots   bool          `json:"respect_robots"`
	RobotsAgent     string        `json:"robots_agent"`
}

// RenderConfig 직접 요청이 막혔을 때 사용할 렌더링 경로 설정
type RenderConfig struct {
	// ScraperAPIKey 비어 있으면 ScraperAPI 경로를 사용하지 않습니다.
	ScraperAPIKey      string         `json:"scraperapi_key"`
	ScraperAPIEndpoint string         `json:"scraperapi_endpoint" validate:"required_with=ScraperAPIKey,omitempty,url"`
	JSRender           bool           `json:"js_render"`
	Headless           HeadlessConfig `json:"headless"`
}

// HeadlessConfig 헤드리스 브라우저 렌더링 설정
type HeadlessConfig struct {
	Enabled bool   `json:"enabled"`
	Bin     string `json:"bin"`

	// ControlURL 이미 실행 중인 브라우저의 DevTools 주소 (비어 있으면 직접 실행)
	ControlURL  string        `json:"control_url" validate:"omitempty,url"`
	Concurrency int           `json:"concurrency" validate:"min=1,max=16"`
	Timeout     time.Duration `json:"timeout" validate:"gt=0"`
}

// CacheConfig 분석 결과 캐시 설정
type CacheConfig struct {
	Backend string        `json:"backend" validate:"oneof=memory sqlite"`
	TTL     time.Duration `json:"ttl" validate:"gt=0"`
	Size    int           `json:"size" validate:"min=1"`
	Path    string        `json:"path" validate:"required_if=Backend sqlite"`
}

// HistoryConfig 가격 이력 저장소 설정
type HistoryConfig struct {
	Backend string `json:"backend" validate:"oneof=memory sqlite file"`
	Path    string `json:"path" validate:"required_if=Backend sqlite"`
	Dir     string `json:"dir" validate:"required_if=Backend file"`

	// MarketWindow 시세 계산에 사용할 이력 기간
	MarketWindow time.Duration `json:"market_window" validate:"gt=0"`
}

// AnalyzerConfig 분석 파이프라인 설정
type AnalyzerConfig struct {
	// Deadline 수집부터 추출까지의 최대 시간
	Deadline time.Duration `json:"deadline" validate:"gt=0"`
}

// MaintenanceConfig 주기적인 정리 작업 설정
type MaintenanceConfig struct {
	CachePurgeSpec   string        `json:"cache_purge_spec" validate:"required"`
	HistoryPruneSpec string        `json:"history_prune_spec" validate:"required"`
	HistoryRetention time.Duration `json:"history_retention" validate:"gt=0"`
}

func (c *MaintenanceConfig) validate(v *validator.Validate) error {
	if err := checkStruct(v, c, "정리 작업(maintenance)"); err != nil {
		return err
	}

	for name, spec := range map[string]string{"cache_purge_spec": c.CachePurgeSpec, "history_prune_spec": c.HistoryPruneSpec} {
		if err := cronx.Validate(spec); err != nil {
			return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("정리 작업의 스케줄(%s) 설정이 유효하지 않습니다: '%s'", name, spec))
		}
	}

	return nil
}

// AlertConfig 텔레그램 딜 알림 설정
type AlertConfig struct {
	Enabled  bool   `json:"enabled"`
	BotToken string `json:"bot_token" validate:"required_if=Enabled true,omitempty,telegram_bot_token"`
	ChatID   int64  `json:"chat_id" validate:"required_if=Enabled true"`

	// MinScore 이 점수 이상일 때만 알림을 보냅니다.
	MinScore int `json:"min_score" validate:"min=0,max=100"`

	// Cooldown 같은 상품에 대해 알림을 다시 보내기까지의 최소 간격
	Cooldown time.Duration `json:"cooldown" validate:"min=0"`

	RatePerMinute  int           `json:"rate_per_minute" validate:"min=1"`
	MaxRetries     int           `json:"max_retries" validate:"min=0,max=10"`
	RetryDelay     time.Duration `json:"retry_delay" validate:"gt=0"`
	RequestTimeout time.Duration `json:"request_timeout" validate:"gt=0"`
}

// APIConfig REST API 서버 설정
type APIConfig struct {
	WS        WSConfig        `json:"ws"`
	CORS      CORSConfig      `json:"cors"`
	RateLimit RateLimitConfig `json:"rate_limit"`

	// BodyLimit 요청 본문 최대 크기 (예: 64K, 1M)
	BodyLimit      string        `json:"body_limit" validate:"required"`
	RequestTimeout time.Duration `json:"request_timeout" validate:"gt=0"`
}

func (c *APIConfig) validate(v *validator.Validate) error {
	if err := checkStruct(v, c.WS, "웹 서버(api.ws)"); err != nil {
		return err
	}
	if err := c.CORS.validate(v); err != nil {
		return err
	}
	if err := checkStruct(v, c.RateLimit, "요청 제한(api.rate_limit)"); err != nil {
		return err
	}
	return checkStruct(v, c, "API(api)", "BodyLimit", "RequestTimeout")
}

func (c *APIConfig) VerifyRecommendations() []string {
	var warnings []string

	// 시스템 예약 포트(1024 미만) 사용 경고
	if c.WS.ListenPort < 1024 {
		warnings = append(warnings, fmt.Sprintf("시스템 예약 포트(1-1023)를 사용하도록 설정되었습니다(port: %d). 이 경우 서버 구동 시 관리자 권한이 필요할 수 있습니다", c.WS.ListenPort))
	}
	if !c.RateLimit.Enabled {
		warnings = append(warnings, "API 요청 제한(api.rate_limit.enabled)이 비활성화되어 있습니다")
	}

	return warnings
}

// WSConfig 웹 서버의 포트 및 TLS(HTTPS) 보안 설정을 정의하는 구조체
type WSConfig struct {
	TLSServer   bool   `json:"tls_server"`
	TLSCertFile string `json:"tls_cert_file" validate:"required_if=TLSServer true,omitempty,file"`
	TLSKeyFile  string `json:"tls_key_file" validate:"required_if=TLSServer true,omitempty,file"`
	ListenPort  int    `json:"listen_port" validate:"min=1,max=65535"`
}

// CORSConfig 웹 브라우저의 교차 출처 리소스 공유(CORS) 정책을 설정하는 구조체
type CORSConfig struct {
	AllowOrigins []string `json:"allow_origins" validate:"dive,cors_origin"`
}

func (c *CORSConfig) validate(v *validator.Validate) error {
	if len(c.AllowOrigins) == 0 {
		return apperrors.New(apperrors.InvalidInput, "CORS 허용 도메인(allow_origins) 목록이 비어있습니다")
	}

	for _, origin := range c.AllowOrigins {
		if strings.TrimSpace(origin) == "*" && len(c.AllowOrigins) > 1 {
			return apperrors.New(apperrors.InvalidInput, "와일드카드(*)는 다른 도메인과 함께 사용할 수 없습니다. 모든 도메인을 허용하려면 와일드카드만 설정하세요")
		}
	}

	return checkStruct(v, c, "CORS(api.cors)")
}

// RateLimitConfig IP별 API 요청 제한 설정
type RateLimitConfig struct {
	Enabled           bool    `json:"enabled"`
	RequestsPerSecond float64 `json:"requests_per_second" validate:"gt=0"`
	Burst             int     `json:"burst" validate:"min=1"`
}
