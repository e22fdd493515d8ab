package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	applog "github.com/darkkaiser/bikonomi/pkg/log"
	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/temoto/robotstxt"
)

const (
	defaultRobotsAgent    = "bikonomi"
	robotsCacheSize       = 256
	robotsCacheTTL        = 6 * time.Hour
	robotsFetchTimeout    = 3 * time.Second
	maxRobotsTxtBodyBytes = 512 * 1024
)

// RobotsFetcher 요청 경로가 대상 사이트의 robots.txt에서 허용되는지 확인하는 데코레이터입니다.
//
// robots.txt는 호스트 단위로 캐시하며, robots.txt를 가져오지 못한 경우(네트워크 오류)에는 허용으로 처리합니다.
type RobotsFetcher struct {
	delegate Fetcher

	// robotsSource robots.txt 자체를 내려받을 때 사용할 Fetcher
	robotsSource Fetcher

	agent string
	cache *expirable.LRU[string, *robotstxt.RobotsData]
}

var _ Fetcher = (*RobotsFetcher)(nil)

// NewRobotsFetcher agent는 robots.txt 그룹 매칭에 사용할 이름이며, 비어 있으면 "bikonomi"를 사용합니다.
func NewRobotsFetcher(delegate, robotsSource Fetcher, agent string) *RobotsFetcher {
	if agent == "" {
		agent = defaultRobotsAgent
	}

	return &RobotsFetcher{
		delegate:     delegate,
		robotsSource: robotsSource,
		agent:        agent,
		cache:        expirable.NewLRU[string, *robotstxt.RobotsData](robotsCacheSize, nil, robotsCacheTTL),
	}
}

func (f *RobotsFetcher) Do(req *http.Request) (*http.Response, error) {
	robots := f.robots(req.Context(), req.URL)
	if robots != nil && !robots.TestAgent(req.URL.EscapedPath(), f.agent) {
		applog.WithComponent(component).
			WithContext(req.Context()).
			WithFields(applog.Fields{
				"url":   redactURL(req.URL),
				"agent": f.agent,
			}).
			Info("robots.txt 규칙에 의해 요청을 건너뜁니다")

		return nil, ErrRobotsDisallowed
	}

	return f.delegate.Do(req)
}

func (f *RobotsFetcher) Close() error {
	return f.delegate.Close()
}

func (f *RobotsFetcher) robots(ctx context.Context, target *url.URL) *robotstxt.RobotsData {
	origin := target.Scheme + "://" + target.Host
	if data, ok := f.cache.Get(origin); ok {
		return data
	}

	ctx, cancel := context.WithTimeout(ctx, robotsFetchTimeout)
	defer cancel()

	resp, err := Get(ctx, f.robotsSource, origin+"/robots.txt")
	if err != nil {
		applog.WithComponent(component).
			WithContext(ctx).
			WithFields(applog.Fields{
				"origin": origin,
				"error":  err.Error(),
			}).
			Debug("robots.txt를 가져오지 못해 허용으로 처리합니다")

		return nil
	}
	defer drainAndCloseBody(resp.Body)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRobotsTxtBodyBytes))
	if err != nil {
		return nil
	}

	// 4xx는 전체 허용, 5xx는 전체 불허로 해석된다.
	data, err := robotstxt.FromStatusAndBytes(resp.StatusCode, body)
	if err != nil {
		return nil
	}

	f.cache.Add(origin, data)

	return data
}
