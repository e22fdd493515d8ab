package fetcher

import (
	"context"
	"errors"

	applog "github.com/darkkaiser/bikonomi/pkg/log"
)

// Result 상품 페이지 요청 결과입니다. 실패도 에러 대신 결과 값으로 표현합니다.
type Result struct {
	// OK 차단되지 않은 HTML을 얻었는지 여부
	OK bool

	// Status 직접 요청의 HTTP 상태 코드 (네트워크 오류로 응답을 받지 못했다면 0)
	Status int

	HTML string

	// BlockedHint 봇 차단(403/429/캡차 페이지)이 감지되었는지 여부
	BlockedHint bool

	// Via HTML을 가져온 경로 (direct, scraperapi, headless)
	Via string

	// Err 마지막 실패 원인 (로그용)
	Err error
}

// Client 직접 요청을 시도하고, 실패하거나 차단되면 렌더러 체인으로 우회하는 상품 페이지 클라이언트입니다.
type Client struct {
	fetcher Fetcher

	renderers []Renderer
}

// NewClient renderers는 주어진 순서대로 시도됩니다.
func NewClient(f Fetcher, renderers ...Renderer) *Client {
	return &Client{
		fetcher:   f,
		renderers: renderers,
	}
}

// Fetch 대상 URL의 HTML을 가져옵니다. 에러를 반환하지 않으며 모든 결과는 Result에 담깁니다.
func (c *Client) Fetch(ctx context.Context, targetURL string) Result {
	result := c.fetchDirect(ctx, targetURL)
	if result.OK {
		return result
	}

	// robots.txt에서 막힌 경로는 우회하지 않는다.
	if errors.Is(result.Err, ErrRobotsDisallowed) || ctx.Err() != nil {
		return result
	}

	for _, r := range c.renderers {
		html, err := r.Render(ctx, targetURL)
		if err != nil {
			applog.WithComponent(component).
				WithContext(ctx).
				WithFields(applog.Fields{
					"url":      redactRawURL(targetURL),
					"renderer": r.Name(),
					"error":    err.Error(),
				}).
				Warn("렌더러 요청 실패: 다음 렌더러를 시도합니다")

			result.Err = err
			if ctx.Err() != nil {
				return result
			}
			continue
		}

		if IsChallengePage(html) {
			applog.WithComponent(component).
				WithContext(ctx).
				WithFields(applog.Fields{
					"url":      redactRawURL(targetURL),
					"renderer": r.Name(),
				}).
				Warn("렌더러 결과에서도 봇 차단 페이지가 감지되었습니다")

			result.BlockedHint = true
			result.Err = ErrChallengePage
			continue
		}

		result.OK = true
		result.HTML = html
		result.Via = r.Name()
		result.Err = nil

		return result
	}

	return result
}

func (c *Client) fetchDirect(ctx context.Context, targetURL string) Result {
	result := Result{Via: ViaDirect}

	resp, err := Get(ctx, c.fetcher, targetURL)
	if err != nil {
		result.Err = err

		var statusErr *HTTPStatusError
		if errors.As(err, &statusErr) {
			result.Status = statusErr.StatusCode
			result.BlockedHint = isBlockedStatus(statusErr.StatusCode, statusErr.BodySnippet)
		}

		return result
	}
	defer drainAndCloseBody(resp.Body)

	result.Status = resp.StatusCode

	html, err := readHTML(resp.Body, resp.Header.Get("Content-Type"))
	if err != nil {
		result.Err = err
		return result
	}

	if IsChallengePage(html) {
		result.BlockedHint = true
		result.Err = ErrChallengePage
		return result
	}

	result.OK = true
	result.HTML = html

	return result
}

// Close 내부 Fetcher의 리소스를 정리합니다.
func (c *Client) Close() error {
	return c.fetcher.Close()
}
