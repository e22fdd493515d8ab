package fetcher

import (
	"mime"
	"net/http"
	"strings"

	applog "github.com/darkkaiser/bikonomi/pkg/log"
)

// htmlMimeTypes 상품 페이지로 허용하는 미디어 타입
var htmlMimeTypes = []string{"text/html", "application/xhtml+xml"}

// MimeTypeFetcher 응답의 Content-Type이 허용 목록에 포함되는지 검증하는 데코레이터입니다.
type MimeTypeFetcher struct {
	delegate Fetcher

	allowedMimeTypes []string

	// allowMissingContentType Content-Type 헤더가 없는 응답을 허용할지 여부
	allowMissingContentType bool
}

var _ Fetcher = (*MimeTypeFetcher)(nil)

// NewMimeTypeFetcher 허용 목록이 비어 있으면 검증 없이 delegate를 그대로 반환합니다.
func NewMimeTypeFetcher(delegate Fetcher, allowedMimeTypes []string, allowMissingContentType bool) Fetcher {
	if len(allowedMimeTypes) == 0 {
		return delegate
	}

	return &MimeTypeFetcher{
		delegate:                delegate,
		allowedMimeTypes:        allowedMimeTypes,
		allowMissingContentType: allowMissingContentType,
	}
}

func (f *MimeTypeFetcher) Do(req *http.Request) (*http.Response, error) {
	resp, err := f.delegate.Do(req)
	if err != nil {
		if resp != nil {
			drainAndCloseBody(resp.Body)
		}

		return nil, err
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		if f.allowMissingContentType {
			return resp, nil
		}

		drainAndCloseBody(resp.Body)

		return nil, ErrMissingResponseContentType
	}

	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		applog.WithComponent(component).
			WithContext(req.Context()).
			WithFields(applog.Fields{
				"content_type": contentType,
				"url":          redactURL(req.URL),
				"error":        err.Error(),
			}).
			Warn("Content-Type 파싱 경고: 표준 형식이 아니어서 폴백 처리함")

		mediaType = strings.ToLower(strings.TrimSpace(strings.Split(contentType, ";")[0]))
	}

	for _, t := range f.allowedMimeTypes {
		if strings.EqualFold(mediaType, t) {
			return resp, nil
		}
	}

	drainAndCloseBody(resp.Body)

	return nil, newErrUnsupportedMediaType(mediaType, f.allowedMimeTypes)
}

func (f *MimeTypeFetcher) Close() error {
	return f.delegate.Close()
}
