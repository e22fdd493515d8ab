package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/darkkaiser/bikonomi/internal/config"
	"github.com/darkkaiser/bikonomi/internal/pkg/version"
	"github.com/spf13/cobra"
)

// rootOptions 모든 하위 명령이 공유하는 전역 플래그입니다.
type rootOptions struct {
	configFile string

	appConfig *config.AppConfig
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   config.AppName,
		Short: "Trendyol, Hepsiburada, Amazon TR 상품 링크의 가격을 분석하고 점수를 매깁니다",
		Long: "상품 링크에서 가격을 추출하고 과거 관측치로 계산한 시세와 비교하여 0~100 점수와 판정을 제공합니다.\n" +
			"하위 명령 없이 실행하면 serve 와 같습니다.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			appConfig, err := opts.loadConfig()
			if err != nil {
				// 로거 초기화 전이므로 표준 에러에 출력
				fmt.Fprintf(cmd.ErrOrStderr(), "[FATAL] 환경설정 로드 실패: %v\n", err)
				return err
			}
			opts.appConfig = appConfig
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.configFile, "config", "c", "", fmt.Sprintf("설정 파일 경로 (기본값: %s, 없으면 기본값과 환경 변수만 사용)", config.DefaultFilename))

	serve := newServeCommand(opts)
	cmd.RunE = serve.RunE

	cmd.AddCommand(serve, newAnalyzeCommand(opts), newMCPCommand(opts))

	return cmd
}

func (o *rootOptions) loadConfig() (*config.AppConfig, error) {
	if o.configFile != "" {
		return config.LoadWithFile(o.configFile)
	}
	return config.Load()
}

// buildInfo 빌드 정보를 만들어 전역 싱글톤에 등록합니다.
func buildInfo() version.Info {
	bi := version.Info{
		Version:     Version,
		BuildDate:   BuildDate,
		BuildNumber: BuildNumber,
		GoVersion:   runtime.Version(),
		OS:          runtime.GOOS,
		Arch:        runtime.GOARCH,
	}
	version.Set(bi)

	return version.Get()
}

// fatalf 로거 초기화 전 오류를 표준 에러에 출력합니다.
func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, "[FATAL] "+format+"\n", args...)
}
