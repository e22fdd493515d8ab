package fetcher

import (
	"bytes"
	"compress/flate"
	"compress/gzip"
	"compress/zlib"
	"io"
	"net/http"
	"testing"

	"github.com/andybalholm/brotli"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const samplePage = `<html><head><title>Kulaklık</title></head><body>1.299,90 TL</body></html>`

func compress(t *testing.T, encoding string, data string) []byte {
	t.Helper()

	var buf bytes.Buffer
	var w io.WriteCloser

	switch encoding {
	case "gzip":
		w = gzip.NewWriter(&buf)
	case "br":
		w = brotli.NewWriter(&buf)
	case "deflate-zlib":
		w = zlib.NewWriter(&buf)
	case "deflate-raw":
		fw, err := flate.NewWriter(&buf, flate.DefaultCompression)
		require.NoError(t, err)
		w = fw
	default:
		t.Fatalf("알 수 없는 인코딩: %s", encoding)
	}

	_, err := w.Write([]byte(data))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return buf.Bytes()
}

func TestDecodingFetcher_Do(t *testing.T) {
	tests := []struct {
		name     string
		header   string
		encoding string
	}{
		{"gzip", "gzip", "gzip"},
		{"brotli", "br", "br"},
		{"deflate (zlib)", "deflate", "deflate-zlib"},
		{"deflate (raw)", "deflate", "deflate-raw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := compress(t, tt.encoding, samplePage)

			stub := &funcFetcher{fn: func(int, *http.Request) (*http.Response, error) {
				h := make(http.Header)
				h.Set("Content-Encoding", tt.header)
				return &http.Response{
					StatusCode:    http.StatusOK,
					Header:        h,
					Body:          io.NopCloser(bytes.NewReader(payload)),
					ContentLength: int64(len(payload)),
				}, nil
			}}

			req, _ := http.NewRequest(http.MethodGet, "https://www.trendyol.com/p", nil)
			resp, err := NewDecodingFetcher(stub).Do(req)
			require.NoError(t, err)
			defer resp.Body.Close()

			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)

			assert.Equal(t, samplePage, string(body))
			assert.Empty(t, resp.Header.Get("Content-Encoding"))
			assert.Equal(t, int64(-1), resp.ContentLength)
			assert.True(t, resp.Uncompressed)
		})
	}

	t.Run("인코딩이 없으면 그대로 전달한다", func(t *testing.T) {
		stub := &funcFetcher{fn: func(int, *http.Request) (*http.Response, error) {
			return newTestResponse(http.StatusOK, nil, samplePage), nil
		}}

		req, _ := http.NewRequest(http.MethodGet, "https://www.trendyol.com/p", nil)
		resp, err := NewDecodingFetcher(stub).Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()

		body, _ := io.ReadAll(resp.Body)
		assert.Equal(t, samplePage, string(body))
	})

	t.Run("손상된 gzip 본문은 파싱 에러를 반환한다", func(t *testing.T) {
		stub := &funcFetcher{fn: func(int, *http.Request) (*http.Response, error) {
			h := make(http.Header)
			h.Set("Content-Encoding", "gzip")
			return newTestResponse(http.StatusOK, h, "not-gzip"), nil
		}}

		req, _ := http.NewRequest(http.MethodGet, "https://www.trendyol.com/p", nil)
		_, err := NewDecodingFetcher(stub).Do(req)
		assert.Error(t, err)
	})
}

func TestReadHTML_Charset(t *testing.T) {
	// ISO-8859-9(터키어) 인코딩의 "ş" = 0xFE
	body := []byte("<html><body>Kargo bedava \xfe</body></html>")

	html, err := readHTML(bytes.NewReader(body), "text/html; charset=iso-8859-9")
	require.NoError(t, err)
	assert.Contains(t, html, "bedava ş")
}
