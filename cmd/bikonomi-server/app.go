package main

import (
	"context"
	"database/sql"

	"github.com/darkkaiser/bikonomi/internal/config"
	"github.com/darkkaiser/bikonomi/internal/pkg/sqlitedb"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/cache"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/fetcher"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/history"
	applog "github.com/darkkaiser/bikonomi/pkg/log"
)

// app 설정으로 조립한 분석 파이프라인과 종료 시 정리할 자원 목록입니다.
type app struct {
	analyzer *analyzer.Analyzer

	// closers 생성 순서대로 쌓이며 역순으로 닫아야 합니다.
	closers []func() error
}

// newApp 설정에 맞게 Fetcher, 렌더러, 캐시, 가격 이력 저장소를 만들고 Analyzer 로 묶습니다.
//
// 캐시와 이력이 같은 SQLite 파일을 가리키면 연결 하나를 공유합니다.
func newApp(ctx context.Context, appConfig *config.AppConfig, notifier analyzer.DealNotifier) (_ *app, err error) {
	a := &app{}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	var sharedDB *sql.DB
	if appConfig.Cache.Backend == string(cache.BackendSQLite) && appConfig.History.Backend == string(history.BackendSQLite) && appConfig.Cache.Path == appConfig.History.Path {
		if sharedDB, err = sqlitedb.Open(ctx, appConfig.History.Path); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, sharedDB.Close)
	}

	pageFetcher, fetcherClosers, err := newPageFetcher(appConfig)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, fetcherClosers...)

	resultCache, err := cache.New[analyzer.Response](ctx, cache.Options{
		Backend: cache.Backend(appConfig.Cache.Backend),
		TTL:     appConfig.Cache.TTL,
		Size:    appConfig.Cache.Size,
		DB:      sharedDB,
		Path:    appConfig.Cache.Path,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, resultCache.Close)

	historyStore, err := history.New(ctx, history.Options{
		Backend: history.Backend(appConfig.History.Backend),
		DB:      sharedDB,
		Path:    appConfig.History.Path,
		Dir:     appConfig.History.Dir,
	})
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, historyStore.Close)

	if a.analyzer, err = analyzer.New(analyzer.Options{
		Fetcher:      pageFetcher,
		Cache:        resultCache,
		History:      historyStore,
		Notifier:     notifier,
		Deadline:     appConfig.Analyzer.Deadline,
		MarketWindow: appConfig.History.MarketWindow,
	}); err != nil {
		return nil, err
	}

	applog.WithComponentAndFields("main", applog.Fields{
		"cache_backend":   appConfig.Cache.Backend,
		"history_backend": appConfig.History.Backend,
		"shared_db":       sharedDB != nil,
		"scraperapi":      appConfig.Render.ScraperAPIKey != "",
		"headless":        appConfig.Render.Headless.Enabled,
	}).Info("분석 파이프라인 구성 완료")

	return a, nil
}

// newPageFetcher 직접 요청 체인 뒤에 설정된 렌더러(ScraperAPI, 헤드리스 브라우저)를 순서대로 붙입니다.
// 함께 반환하는 closers 는 만들어진 Fetcher 체인들을 닫습니다.
func newPageFetcher(appConfig *config.AppConfig) (*fetcher.Client, []func() error, error) {
	fetchConfig := fetcher.Config{
		Timeout:         appConfig.Fetch.Timeout,
		ProxyURL:        appConfig.Fetch.ProxyURL,
		MaxConnsPerHost: appConfig.Fetch.MaxConnsPerHost,
		UserAgents:      appConfig.Fetch.UserAgents,
		MaxRetries:      appConfig.HTTPRetry.MaxRetries,
		MinRetryDelay:   appConfig.HTTPRetry.RetryDelay,
		MaxRetryDelay:   appConfig.HTTPRetry.MaxRetryDelay,
		MaxBytes:        appConfig.Fetch.MaxBytes,
		HostRPS:         appConfig.Fetch.HostRPS,
		HostBurst:       appConfig.Fetch.HostBurst,
		RespectRobots:   appConfig.Fetch.RespectRobots,
		RobotsAgent:     appConfig.Fetch.RobotsAgent,
	}

	direct, err := fetcher.NewFromConfig(fetchConfig)
	if err != nil {
		return nil, nil, err
	}
	closers := []func() error{direct.Close}

	var renderers []fetcher.Renderer

	if render := appConfig.Render; render.ScraperAPIKey != "" {
		// 프록시 요청은 판매처가 아닌 ScraperAPI 로 가므로 robots.txt 와 호스트별 제한을 적용하지 않습니다.
		proxyConfig := fetchConfig
		proxyConfig.RespectRobots = false
		proxyConfig.HostRPS = 0
		proxyConfig.Timeout = max(fetchConfig.Timeout, render.Headless.Timeout)

		proxy, err := fetcher.NewFromConfig(proxyConfig)
		if err != nil {
			_ = direct.Close()
			return nil, nil, err
		}
		closers = append(closers, proxy.Close)
		renderers = append(renderers, fetcher.NewScraperAPIRenderer(proxy, render.ScraperAPIKey, render.ScraperAPIEndpoint, render.JSRender))
	}

	if headless := appConfig.Render.Headless; headless.Enabled {
		renderers = append(renderers, fetcher.NewHeadlessRenderer(fetcher.HeadlessOptions{
			Bin:         headless.Bin,
			ControlURL:  headless.ControlURL,
			Concurrency: headless.Concurrency,
			Timeout:     headless.Timeout,
		}))
	}

	return fetcher.NewClient(direct, renderers...), closers, nil
}

// Close 자원을 생성 역순으로 닫습니다.
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			applog.WithComponentAndFields("main", applog.Fields{"error": err}).Warn("자원 정리 중 오류가 발생했습니다")
		}
	}
	a.closers = nil
}
