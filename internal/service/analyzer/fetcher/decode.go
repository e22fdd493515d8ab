package fetcher

import (
	"bufio"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"io"
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"
)

// DecodingFetcher Content-Encoding(gzip, br, deflate)에 따라 응답 본문의 압축을 해제하는 데코레이터입니다.
//
// Accept-Encoding 헤더를 직접 지정하면 http.Transport가 자동으로 압축을 풀어주지 않기 때문에
// 브라우저 헤더를 흉내 내는 요청에서는 이 데코레이터가 필요합니다.
type DecodingFetcher struct {
	delegate Fetcher
}

var _ Fetcher = (*DecodingFetcher)(nil)

func NewDecodingFetcher(delegate Fetcher) *DecodingFetcher {
	return &DecodingFetcher{delegate: delegate}
}

func (f *DecodingFetcher) Do(req *http.Request) (*http.Response, error) {
	resp, err := f.delegate.Do(req)
	if err != nil || resp == nil || resp.Body == nil {
		return resp, err
	}

	encoding := strings.ToLower(strings.TrimSpace(resp.Header.Get("Content-Encoding")))
	if encoding == "" || encoding == "identity" {
		return resp, nil
	}

	decoded, err := newDecodingReader(resp.Body, encoding)
	if err != nil {
		drainAndCloseBody(resp.Body)

		return nil, newErrDecodeBody(err, encoding)
	}

	resp.Body = decoded
	resp.Header.Del("Content-Encoding")
	resp.Header.Del("Content-Length")
	resp.ContentLength = -1
	resp.Uncompressed = true

	return resp, nil
}

func (f *DecodingFetcher) Close() error {
	return f.delegate.Close()
}

// decodingReadCloser 압축 해제 리더와 원본 Body를 함께 닫습니다.
type decodingReadCloser struct {
	io.Reader

	closers []io.Closer
}

func (r *decodingReadCloser) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func newDecodingReader(body io.ReadCloser, encoding string) (io.ReadCloser, error) {
	switch encoding {
	case "gzip", "x-gzip":
		zr, err := gzip.NewReader(body)
		if err != nil {
			return nil, err
		}
		return &decodingReadCloser{Reader: zr, closers: []io.Closer{zr, body}}, nil

	case "br":
		return &decodingReadCloser{Reader: brotli.NewReader(body), closers: []io.Closer{body}}, nil

	case "deflate":
		// deflate는 zlib 래핑된 스트림과 raw deflate 스트림이 혼용되므로 첫 바이트로 구분한다.
		br := bufio.NewReader(body)
		head, err := br.Peek(1)
		if err != nil {
			return nil, err
		}
		if head[0]&0x0f == 8 {
			zr, err := zlib.NewReader(br)
			if err != nil {
				return nil, err
			}
			return &decodingReadCloser{Reader: zr, closers: []io.Closer{zr, body}}, nil
		}
		fr := flate.NewReader(br)
		return &decodingReadCloser{Reader: fr, closers: []io.Closer{fr, body}}, nil

	default:
		// 알 수 없는 인코딩은 원본 그대로 전달한다.
		return body, nil
	}
}

// readHTML 응답 본문을 읽어 Content-Type의 charset(또는 meta 태그)에 맞춰 UTF-8 문자열로 변환합니다.
func readHTML(body io.Reader, contentType string) (string, error) {
	utf8Reader, err := charset.NewReader(body, contentType)
	if err != nil {
		return "", err
	}

	b, err := io.ReadAll(utf8Reader)
	if err != nil {
		return "", err
	}

	return string(b), nil
}
