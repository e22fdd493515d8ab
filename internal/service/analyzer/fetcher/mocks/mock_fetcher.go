// Package mocks fetcher 패키지의 인터페이스를 위한 testify 기반 Mock 구현체를 제공합니다.
package mocks

import (
	"bytes"
	"context"
	"io"
	"net/http"

	"github.com/darkkaiser/bikonomi/internal/service/analyzer/fetcher"
	"github.com/stretchr/testify/mock"
)

var (
	_ fetcher.Fetcher  = (*MockFetcher)(nil)
	_ fetcher.Renderer = (*MockRenderer)(nil)
)

// MockFetcher Fetcher 인터페이스의 Mock 구현체
type MockFetcher struct {
	mock.Mock
}

func NewMockFetcher() *MockFetcher {
	return &MockFetcher{}
}

func (m *MockFetcher) Do(req *http.Request) (*http.Response, error) {
	args := m.Called(req)

	var resp *http.Response
	if r := args.Get(0); r != nil {
		resp = r.(*http.Response)
	}
	return resp, args.Error(1)
}

func (m *MockFetcher) Close() error {
	args := m.Called()
	return args.Error(0)
}

// MockRenderer Renderer 인터페이스의 Mock 구현체
type MockRenderer struct {
	mock.Mock

	name string
}

func NewMockRenderer(name string) *MockRenderer {
	return &MockRenderer{name: name}
}

func (m *MockRenderer) Name() string { return m.name }

func (m *MockRenderer) Render(ctx context.Context, targetURL string) (string, error) {
	args := m.Called(ctx, targetURL)
	return args.String(0), args.Error(1)
}

// NewResponse 테스트용 HTTP 응답을 생성합니다.
func NewResponse(statusCode int, contentType, body string) *http.Response {
	header := make(http.Header)
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}

	return &http.Response{
		StatusCode:    statusCode,
		Status:        http.StatusText(statusCode),
		Header:        header,
		Body:          io.NopCloser(bytes.NewBufferString(body)),
		ContentLength: int64(len(body)),
	}
}
