package main

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/darkkaiser/bikonomi/internal/config"
	apperrors "github.com/darkkaiser/bikonomi/internal/pkg/errors"
	"github.com/darkkaiser/bikonomi/internal/service/alert"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBanner는 서버 시작 시 출력되는 배너의 형식과 내용이 올바른지 검증합니다.
func TestBanner(t *testing.T) {
	assert.Contains(t, banner, "%s", "배너 템플릿에는 버전 포맷팅을 위한 '%s'가 포함되어야 합니다")
	assert.Contains(t, banner, "DarkKaiser")

	output := fmt.Sprintf(banner, "v1.2.3")
	assert.Contains(t, output, "v1.2.3")
	assert.NotContains(t, output, "%s")
}

func TestRootCommand(t *testing.T) {
	cmd := newRootCommand()

	assert.Equal(t, config.AppName, cmd.Use)
	assert.NotNil(t, cmd.RunE, "하위 명령 없이 실행하면 serve 로 동작해야 합니다")
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))

	names := make([]string, 0)
	for _, c := range cmd.Commands() {
		names = append(names, c.Name())
	}
	assert.Subset(t, names, []string{"serve", "analyze", "mcp"})

	analyze, _, err := cmd.Find([]string{"analyze"})
	require.NoError(t, err)
	assert.NotNil(t, analyze.Flags().Lookup("manual-price"))
	assert.Error(t, analyze.Args(analyze, nil), "링크 인자가 없으면 실패해야 합니다")
	assert.NoError(t, analyze.Args(analyze, []string{"a", "b"}))
}

func TestRootCommand_ConfigFileNotFound(t *testing.T) {
	t.Chdir(t.TempDir())

	var stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetArgs([]string{"--config", "missing.json", "analyze", "https://www.trendyol.com/a-p-1"})
	cmd.SetErr(&stderr)
	cmd.SetOut(&bytes.Buffer{})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, stderr.String(), "환경설정 로드 실패")
}

func TestAnalyzeOptions_Input(t *testing.T) {
	tests := []struct {
		name         string
		opts         analyzeOptions
		wantPrice    *float64
		wantShipping *float64
		wantErr      bool
	}{
		{name: "수동 가격 없음", opts: analyzeOptions{}},
		{name: "터키식 가격", opts: analyzeOptions{manualPrice: "1.299,90"}, wantPrice: ptr(1299.9)},
		{name: "가격과 배송비", opts: analyzeOptions{manualPrice: "999", manualShipping: "29,90"}, wantPrice: ptr(999), wantShipping: ptr(29.9)},
		{name: "해석할 수 없는 가격", opts: analyzeOptions{manualPrice: "abc"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := tt.opts.input("https://www.trendyol.com/a-p-1")
			if tt.wantErr {
				assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, "https://www.trendyol.com/a-p-1", in.URL)
			assert.Equal(t, tt.wantPrice, in.ManualPrice)
			assert.Equal(t, tt.wantShipping, in.ManualShipping)
		})
	}
}

func TestNewApp_Memory(t *testing.T) {
	t.Chdir(t.TempDir())

	appConfig, err := config.Load()
	require.NoError(t, err)

	a, err := newApp(context.Background(), appConfig, alert.Noop{})
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.analyzer)
	assert.NoError(t, a.analyzer.Health(context.Background()))

	_, err = a.analyzer.Analyze(context.Background(), analyzer.Input{URL: "ftp://example.com"})
	assert.ErrorIs(t, err, analyzer.ErrInvalidURL)
}

func TestNewApp_SharedSQLite(t *testing.T) {
	t.Chdir(t.TempDir())

	appConfig, err := config.Load()
	require.NoError(t, err)

	dbPath := filepath.Join(t.TempDir(), "bikonomi.db")
	appConfig.Cache.Backend = "sqlite"
	appConfig.Cache.Path = dbPath
	appConfig.History.Backend = "sqlite"
	appConfig.History.Path = dbPath

	a, err := newApp(context.Background(), appConfig, alert.Noop{})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, a.analyzer.Contribute(ctx, analyzer.Contribution{ProductKey: "trendyol:trendyol.com/a-p-1", Price: 1299}))

	result, err := a.analyzer.History(ctx, "trendyol:trendyol.com/a-p-1", 1)
	require.NoError(t, err)
	require.Len(t, result.Points, 1)
	assert.Equal(t, 1299.0, result.Points[0].Total)

	// 공유 연결은 한 번만 열고 닫습니다. (DB, Fetcher, 캐시, 이력)
	assert.Len(t, a.closers, 4)
	a.Close()
	assert.Empty(t, a.closers)
}

func ptr(v float64) *float64 { return &v }

type fakeAnalyzer struct{}

func (fakeAnalyzer) Analyze(_ context.Context, in analyzer.Input) (analyzer.Response, error) {
	if in.URL == "bad" {
		return analyzer.Response{}, analyzer.ErrInvalidURL
	}
	return analyzer.Response{OK: true, Product: analyzer.Product{URL: in.URL}}, nil
}

func TestAnalyzeAll(t *testing.T) {
	t.Run("입력 순서 유지", func(t *testing.T) {
		inputs := make([]analyzer.Input, 10)
		for i := range inputs {
			inputs[i] = analyzer.Input{URL: fmt.Sprintf("https://example.com/p/%d", i)}
		}

		results, err := analyzeAll(context.Background(), fakeAnalyzer{}, inputs)
		require.NoError(t, err)
		require.Len(t, results, len(inputs))
		for i, r := range results {
			assert.Equal(t, inputs[i].URL, r.Product.URL)
		}
	})

	t.Run("잘못된 링크가 있으면 실패", func(t *testing.T) {
		_, err := analyzeAll(context.Background(), fakeAnalyzer{}, []analyzer.Input{{URL: "https://example.com/p/1"}, {URL: "bad"}})
		require.Error(t, err)
		assert.ErrorIs(t, err, analyzer.ErrInvalidURL)
		assert.Contains(t, err.Error(), "'bad'")
	})
}

func TestAnalyzeCommand_ManualWithMultipleURLs(t *testing.T) {
	t.Chdir(t.TempDir())

	cmd := newRootCommand()
	cmd.SetArgs([]string{"analyze", "--manual-price", "10", "https://a.com/1", "https://a.com/2"})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetOut(&bytes.Buffer{})

	err := cmd.Execute()
	assert.True(t, apperrors.Is(err, apperrors.InvalidInput))
}
