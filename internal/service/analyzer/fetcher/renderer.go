package fetcher

import (
	"context"
	"io"
	"net/url"
	"time"

	applog "github.com/darkkaiser/bikonomi/pkg/log"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"golang.org/x/sync/semaphore"
)

// Renderer 직접 요청이 차단되었을 때 우회 경로로 페이지 HTML을 가져옵니다.
type Renderer interface {
	// Name 로그와 Result.Via에 기록될 렌더러 이름
	Name() string

	Render(ctx context.Context, targetURL string) (string, error)
}

const (
	// ViaDirect 데코레이터 체인을 통한 직접 요청
	ViaDirect = "direct"

	ViaScraperAPI = "scraperapi"
	ViaHeadless   = "headless"
)

const defaultScraperAPIEndpoint = "https://api.scraperapi.com"

// ScraperAPIRenderer ScraperAPI 프록시를 통해 페이지를 가져오는 렌더러입니다.
type ScraperAPIRenderer struct {
	fetcher Fetcher

	apiKey   string
	endpoint string

	// jsRender 프록시 측에서 자바스크립트 렌더링까지 수행할지 여부
	jsRender bool
}

var _ Renderer = (*ScraperAPIRenderer)(nil)

// NewScraperAPIRenderer endpoint가 비어 있으면 https://api.scraperapi.com을 사용합니다.
func NewScraperAPIRenderer(f Fetcher, apiKey, endpoint string, jsRender bool) *ScraperAPIRenderer {
	if endpoint == "" {
		endpoint = defaultScraperAPIEndpoint
	}

	return &ScraperAPIRenderer{
		fetcher:  f,
		apiKey:   apiKey,
		endpoint: endpoint,
		jsRender: jsRender,
	}
}

func (r *ScraperAPIRenderer) Name() string { return ViaScraperAPI }

func (r *ScraperAPIRenderer) Render(ctx context.Context, targetURL string) (string, error) {
	resp, err := Get(ctx, r.fetcher, r.proxyURL(targetURL))
	if err != nil {
		return "", newErrRenderFailed(err, r.Name())
	}
	defer drainAndCloseBody(resp.Body)

	html, err := readHTML(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		return "", newErrRenderFailed(err, r.Name())
	}

	return html, nil
}

// proxyURL https://api.scraperapi.com?api_key=KEY&url=ENCODED 형식의 요청 URL을 만듭니다.
func (r *ScraperAPIRenderer) proxyURL(targetURL string) string {
	u := r.endpoint + "?api_key=" + url.QueryEscape(r.apiKey) + "&url=" + url.QueryEscape(targetURL) + "&country_code=tr"
	if r.jsRender {
		u += "&render=true"
	}
	return u
}

// HeadlessOptions 헤드리스 브라우저 렌더러 설정입니다.
type HeadlessOptions struct {
	// Bin 크로미움 실행 파일 경로 (비어 있으면 rod가 자동으로 내려받거나 찾음)
	Bin string

	// ControlURL 이미 실행 중인 브라우저의 DevTools 주소 (지정 시 새로 실행하지 않음)
	ControlURL string

	// Concurrency 동시에 열 수 있는 브라우저 수
	Concurrency int

	// Timeout 페이지 하나를 렌더링하는 최대 시간
	Timeout time.Duration
}

// HeadlessRenderer go-rod로 헤드리스 크로미움을 띄워 자바스크립트가 실행된 HTML을 가져옵니다.
type HeadlessRenderer struct {
	opts HeadlessOptions

	sem *semaphore.Weighted
}

var _ Renderer = (*HeadlessRenderer)(nil)

func NewHeadlessRenderer(opts HeadlessOptions) *HeadlessRenderer {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 6 * time.Second
	}

	return &HeadlessRenderer{
		opts: opts,
		sem:  semaphore.NewWeighted(int64(opts.Concurrency)),
	}
}

func (r *HeadlessRenderer) Name() string { return ViaHeadless }

func (r *HeadlessRenderer) Render(ctx context.Context, targetURL string) (string, error) {
	if err := r.sem.Acquire(ctx, 1); err != nil {
		return "", newErrRenderFailed(err, r.Name())
	}
	defer r.sem.Release(1)

	page, cleanup, err := r.openPage(ctx, targetURL)
	if err != nil {
		return "", newErrRenderFailed(err, r.Name())
	}
	defer cleanup()

	timedPage := page.Context(ctx).Timeout(r.opts.Timeout)
	if err := timedPage.WaitStable(time.Second); err != nil {
		applog.WithComponent(component).
			WithContext(ctx).
			WithFields(applog.Fields{
				"url":   redactRawURL(targetURL),
				"error": err.Error(),
			}).
			Debug("페이지 안정화 대기 실패: 현재까지 렌더링된 HTML을 사용합니다")
	}

	html, err := page.HTML()
	if err != nil {
		return "", newErrRenderFailed(err, r.Name())
	}

	return html, nil
}

func (r *HeadlessRenderer) openPage(ctx context.Context, targetURL string) (*rod.Page, func(), error) {
	controlURL := r.opts.ControlURL

	var l *launcher.Launcher
	if controlURL == "" {
		l = launcher.New().Headless(true).Logger(io.Discard)
		if r.opts.Bin != "" {
			l = l.Bin(r.opts.Bin)
		}

		u, err := l.Context(ctx).Launch()
		if err != nil {
			return nil, nil, err
		}
		controlURL = u
	}

	cleanupLauncher := func() {
		if l != nil {
			l.Cleanup()
		}
	}

	browser := rod.New().ControlURL(controlURL).Context(ctx)
	if err := browser.Connect(); err != nil {
		if l != nil {
			l.Kill()
		}
		return nil, nil, err
	}

	page, err := browser.Page(proto.TargetCreateTarget{URL: targetURL})
	if err != nil {
		_ = browser.Close()
		cleanupLauncher()
		return nil, nil, err
	}

	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{Width: 1920, Height: 1080}); err != nil {
		_ = page.Close()
		_ = browser.Close()
		cleanupLauncher()
		return nil, nil, err
	}

	cleanup := func() {
		_ = page.Close()
		// 외부 브라우저에 연결한 경우 브라우저 자체는 닫지 않는다.
		if l != nil {
			_ = browser.Close()
		}
		cleanupLauncher()
	}

	return page, cleanup, nil
}
