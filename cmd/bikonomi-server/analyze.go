package main

import (
	"context"
	"encoding/json"

	"github.com/darkkaiser/bikonomi/internal/config"
	apperrors "github.com/darkkaiser/bikonomi/internal/pkg/errors"
	"github.com/darkkaiser/bikonomi/internal/service/alert"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer/numparse"
	applog "github.com/darkkaiser/bikonomi/pkg/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

type analyzeOptions struct {
	manualPrice    string
	manualShipping string
}

func newAnalyzeCommand(opts *rootOptions) *cobra.Command {
	o := &analyzeOptions{}

	cmd := &cobra.Command{
		Use:   "analyze <url> [url...]",
		Short: "상품 링크를 분석하고 결과를 JSON 으로 출력합니다",
		Long:  "링크가 하나면 분석 결과 객체를, 여러 개면 입력 순서대로 결과 배열을 출력합니다.",
		Example: `  bikonomi-server analyze "https://www.trendyol.com/marka/urun-p-123"
  bikonomi-server analyze --manual-price "1.299,90" "https://www.hepsiburada.com/urun-p-HBC00001"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 1 && (o.manualPrice != "" || o.manualShipping != "") {
				return newErrManualWithMultipleURLs()
			}

			closeLog, err := setupCLILog(opts.appConfig)
			if err != nil {
				return err
			}
			defer closeLog()

			inputs := make([]analyzer.Input, 0, len(args))
			for _, rawURL := range args {
				in, err := o.input(rawURL)
				if err != nil {
					return err
				}
				inputs = append(inputs, in)
			}

			return runAnalyze(cmd, opts.appConfig, inputs)
		},
	}

	cmd.Flags().StringVar(&o.manualPrice, "manual-price", "", "직접 입력할 가격 (예: 1299.90, 1.299,90)")
	cmd.Flags().StringVar(&o.manualShipping, "manual-shipping", "", "직접 입력할 배송비 (--manual-price 와 함께 사용)")

	return cmd
}

func (o *analyzeOptions) input(rawURL string) (analyzer.Input, error) {
	in := analyzer.Input{URL: rawURL}

	for _, f := range []struct {
		name  string
		value string
		dst   **float64
	}{
		{"manual-price", o.manualPrice, &in.ManualPrice},
		{"manual-shipping", o.manualShipping, &in.ManualShipping},
	} {
		if f.value == "" {
			continue
		}
		v, ok := numparse.Parse(f.value)
		if !ok {
			return analyzer.Input{}, newErrInvalidAmount(f.name, f.value)
		}
		*f.dst = &v
	}

	return in, nil
}

// analyzeConcurrency 여러 링크를 동시에 분석할 최대 개수
const analyzeConcurrency = 4

func runAnalyze(cmd *cobra.Command, appConfig *config.AppConfig, inputs []analyzer.Input) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), appConfig.Analyzer.Deadline+appConfig.Fetch.Timeout)
	defer cancel()

	a, err := newApp(ctx, appConfig, alert.Noop{})
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := analyzeAll(ctx, a.analyzer, inputs)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)

	if len(results) == 1 {
		return enc.Encode(results[0])
	}
	return enc.Encode(results)
}

type analyzeFunc interface {
	Analyze(ctx context.Context, in analyzer.Input) (analyzer.Response, error)
}

// analyzeAll 입력 순서를 유지하며 링크들을 병렬로 분석합니다. 하나라도 잘못된 링크면 전체가 실패합니다.
func analyzeAll(ctx context.Context, a analyzeFunc, inputs []analyzer.Input) ([]analyzer.Response, error) {
	results := make([]analyzer.Response, len(inputs))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(analyzeConcurrency)

	for i, in := range inputs {
		g.Go(func() error {
			resp, err := a.Analyze(ctx, in)
			if err != nil {
				return apperrors.Wrapf(err, apperrors.InvalidInput, "'%s' 분석 실패", in.URL)
			}
			results[i] = resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// setupCLILog 단발성 명령은 경고 이상만 파일로 남기고 표준 출력은 결과 전용으로 둡니다.
func setupCLILog(appConfig *config.AppConfig) (func(), error) {
	closer, err := applog.Setup(applog.NewCLIConfig(config.AppName))
	if err != nil {
		fatalf("로그 시스템 초기화 실패 (Cause: %v)", err)
		return nil, err
	}
	if appConfig.Debug {
		applog.SetDebugMode(true)
	}

	return func() { _ = closer.Close() }, nil
}
