package fetcher

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"math/rand/v2"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/darkkaiser/bikonomi/internal/pkg/errors"
	applog "github.com/darkkaiser/bikonomi/pkg/log"
)

const (
	minAllowedRetries = 0
	maxAllowedRetries = 10

	// minAllowedRetryDelay 요청 전체에 짧은 마감 시간이 걸리므로 1초보다 작은 간격도 허용한다.
	minAllowedRetryDelay = 100 * time.Millisecond

	defaultMinRetryDelay = 300 * time.Millisecond
	defaultMaxRetryDelay = 3 * time.Second
)

// RetryFetcher 일시적인 오류(5xx, 네트워크 타임아웃)에 대해 지수 백오프로 재시도하는 데코레이터입니다.
//
// 403/429 응답은 봇 차단으로 간주하여 재시도하지 않고 즉시 반환합니다.
type RetryFetcher struct {
	delegate Fetcher

	maxRetries int

	minRetryDelay time.Duration
	maxRetryDelay time.Duration
}

var _ Fetcher = (*RetryFetcher)(nil)

// NewRetryFetcher maxRetries는 0~10 범위로 보정되며, 재시도 간격은 [minRetryDelay, maxRetryDelay] 사이에서 결정됩니다.
func NewRetryFetcher(delegate Fetcher, maxRetries int, minRetryDelay time.Duration, maxRetryDelay time.Duration) *RetryFetcher {
	minRetryDelay, maxRetryDelay = normalizeRetryDelays(minRetryDelay, maxRetryDelay)

	return &RetryFetcher{
		delegate:      delegate,
		maxRetries:    normalizeMaxRetries(maxRetries),
		minRetryDelay: minRetryDelay,
		maxRetryDelay: maxRetryDelay,
	}
}

func (f *RetryFetcher) Do(req *http.Request) (*http.Response, error) {
	effectiveMaxRetries := f.maxRetries
	if !isIdempotentMethod(req.Method) {
		effectiveMaxRetries = 0
	}

	// 본문을 다시 만들 수 없으면 재시도할 수 없다.
	if req.Body != nil && req.GetBody == nil && f.maxRetries > 0 {
		applog.WithComponent(component).WithContext(req.Context()).WithFields(applog.Fields{
			"url":         redactURL(req.URL),
			"method":      req.Method,
			"max_retries": f.maxRetries,
		}).Warn("재시도 비활성화: 요청 본문 재생성 불가 (GetBody nil)")

		effectiveMaxRetries = 0
	}

	var lastErr error
	var lastResp *http.Response

	for i := 0; i <= effectiveMaxRetries; i++ {
		if i > 0 {
			delay, err := f.retryDelay(i, lastResp, lastErr)
			if err != nil {
				if lastResp != nil {
					drainAndCloseBody(lastResp.Body)
				}
				return nil, err
			}

			fields := applog.Fields{
				"url":               redactURL(req.URL),
				"retry":             i,
				"max_retries":       f.maxRetries,
				"remaining_retries": effectiveMaxRetries - i,
				"delay":             delay.String(),
			}
			if lastErr != nil {
				fields["error"] = lastErr.Error()
			}
			if lastResp != nil {
				fields["status_code"] = lastResp.StatusCode
			}

			applog.WithComponent(component).
				WithContext(req.Context()).
				WithFields(fields).
				Warn("재시도 대기 중: 일시적 오류로 인해 요청 재시도를 준비합니다")

			timer := time.NewTimer(delay)
			select {
			case <-req.Context().Done():
				timer.Stop()
				if lastResp != nil && lastResp.Body != nil {
					lastResp.Body.Close()
				}
				return nil, req.Context().Err()

			case <-timer.C:
			}

			if req.GetBody != nil {
				body, err := req.GetBody()
				if err != nil {
					if lastResp != nil {
						drainAndCloseBody(lastResp.Body)
					}
					return nil, newErrGetBodyFailed(err)
				}
				req = req.Clone(req.Context())
				req.Body = body
			}

			if lastResp != nil {
				drainAndCloseBody(lastResp.Body)
				lastResp = nil
			}
		}

		resp, err := f.delegate.Do(req)

		if err != nil {
			// 부모 Context의 마감 시간이 지났다면 더 시도해도 의미가 없다.
			if req.Context().Err() != nil {
				if resp != nil && resp.Body != nil {
					resp.Body.Close()
				}
				return nil, err
			}

			if !isRetriable(err) {
				if resp != nil {
					drainAndCloseBody(resp.Body)
				}
				return nil, err
			}

			lastErr = err
			lastResp = resp
			continue
		}

		if !shouldRetryStatus(resp.StatusCode) {
			return resp, nil
		}

		lastErr = nil
		lastResp = resp

		if i == effectiveMaxRetries {
			finalErr := &HTTPStatusError{
				StatusCode:  resp.StatusCode,
				Status:      resp.Status,
				URL:         redactURL(req.URL),
				Header:      redactHeaders(resp.Header),
				BodySnippet: readBodySnippet(resp.Body),
				Cause:       ErrMaxRetriesExceeded,
			}
			drainAndCloseBody(resp.Body)

			return nil, finalErr
		}
	}

	if lastResp != nil {
		drainAndCloseBody(lastResp.Body)
	}

	return nil, newErrMaxRetriesExceeded(lastErr)
}

func (f *RetryFetcher) Close() error {
	return f.delegate.Close()
}

// retryDelay i번째 재시도 전에 대기할 시간을 계산합니다.
//
// 기본은 Full Jitter를 적용한 지수 백오프이며, 서버가 Retry-After를 보냈다면 그 값을 따릅니다.
// Retry-After가 최대 대기 시간을 넘으면 재시도를 포기합니다.
func (f *RetryFetcher) retryDelay(i int, lastResp *http.Response, lastErr error) (time.Duration, error) {
	delay := f.minRetryDelay * time.Duration(1<<(i-1))
	if delay > f.maxRetryDelay {
		delay = f.maxRetryDelay
	}
	if delay > 0 {
		delay = time.Duration(rand.Int64N(int64(delay) + 1))
	}

	var retryAfter string
	if lastResp != nil {
		retryAfter = lastResp.Header.Get("Retry-After")
	} else if lastErr != nil {
		var statusErr *HTTPStatusError
		if errors.As(lastErr, &statusErr) && statusErr.Header != nil {
			retryAfter = statusErr.Header.Get("Retry-After")
		}
	}

	if retryAfter != "" {
		if retryAfterDelay, ok := parseRetryAfter(retryAfter); ok {
			if retryAfterDelay > f.maxRetryDelay {
				return 0, newErrRetryAfterExceeded(retryAfterDelay.String(), f.maxRetryDelay.String())
			}
			return retryAfterDelay, nil
		}
	}

	if delay < time.Millisecond {
		delay = f.minRetryDelay
	}

	return delay, nil
}

func normalizeMaxRetries(maxRetries int) int {
	if maxRetries < minAllowedRetries {
		return minAllowedRetries
	}
	if maxRetries > maxAllowedRetries {
		return maxAllowedRetries
	}
	return maxRetries
}

func normalizeRetryDelays(minRetryDelay, maxRetryDelay time.Duration) (time.Duration, time.Duration) {
	if minRetryDelay <= 0 {
		minRetryDelay = defaultMinRetryDelay
	}
	if minRetryDelay < minAllowedRetryDelay {
		minRetryDelay = minAllowedRetryDelay
	}
	if maxRetryDelay == 0 {
		maxRetryDelay = defaultMaxRetryDelay
	}
	if maxRetryDelay < minRetryDelay {
		maxRetryDelay = minRetryDelay
	}
	return minRetryDelay, maxRetryDelay
}

// shouldRetryStatus 5xx 중 일시적인 상태 코드와 408만 재시도 대상입니다.
func shouldRetryStatus(statusCode int) bool {
	switch statusCode {
	case http.StatusRequestTimeout:
		return true

	case http.StatusNotImplemented, http.StatusHTTPVersionNotSupported, http.StatusNetworkAuthenticationRequired:
		return false
	}

	return statusCode >= 500
}

func isRetriable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.Canceled) {
		return false
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		msg := urlErr.Err.Error()
		if strings.HasPrefix(msg, "stopped after") ||
			msg == "invalid control character in URL" ||
			strings.Contains(urlErr.Error(), "unsupported protocol scheme") {
			return false
		}
	}

	var x509HostnameErr x509.HostnameError
	var x509UnknownAuthorityErr x509.UnknownAuthorityError
	var x509CertificateInvalidErr x509.CertificateInvalidError
	if errors.As(err, &x509HostnameErr) || errors.As(err, &x509UnknownAuthorityErr) || errors.As(err, &x509CertificateInvalidErr) {
		return false
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}

	var statusErr *HTTPStatusError
	if errors.As(err, &statusErr) {
		return shouldRetryStatus(statusErr.StatusCode)
	}

	if apperrors.Is(err, apperrors.Unavailable) {
		return true
	}

	if apperrors.Is(err, apperrors.ExecutionFailed) ||
		apperrors.Is(err, apperrors.InvalidInput) ||
		apperrors.Is(err, apperrors.Forbidden) ||
		apperrors.Is(err, apperrors.NotFound) ||
		apperrors.Is(err, apperrors.ParsingFailed) {
		return false
	}

	return true
}

func isIdempotentMethod(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodTrace, http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
}

// parseRetryAfter Retry-After 헤더 값(초 단위 정수 또는 HTTP 날짜)을 대기 시간으로 변환합니다.
func parseRetryAfter(value string) (time.Duration, bool) {
	if value == "" {
		return 0, false
	}

	var seconds int
	if _, err := fmt.Sscanf(value, "%d", &seconds); err == nil && seconds >= 0 {
		return time.Duration(seconds) * time.Second, true
	}

	if date, err := http.ParseTime(value); err == nil {
		duration := time.Until(date)
		if duration < 0 {
			duration = 0
		}
		return duration, true
	}

	return 0, false
}
