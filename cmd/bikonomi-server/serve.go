package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/darkkaiser/bikonomi/internal/config"
	"github.com/darkkaiser/bikonomi/internal/service"
	"github.com/darkkaiser/bikonomi/internal/service/alert"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer"
	"github.com/darkkaiser/bikonomi/internal/service/api"
	applog "github.com/darkkaiser/bikonomi/pkg/log"
	"github.com/spf13/cobra"
)

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "HTTP API 서버와 정리 작업, 딜 알림을 실행합니다",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, opts.appConfig)
		},
	}
}

func runServe(cmd *cobra.Command, appConfig *config.AppConfig) error {
	// 1. 로그 시스템 초기화
	var logOpts applog.Options
	if appConfig.Debug {
		logOpts = applog.NewDevelopmentConfig(config.AppName)
	} else {
		logOpts = applog.NewProductionConfig(config.AppName)
	}

	appLogCloser, err := applog.Setup(logOpts)
	if err != nil {
		fatalf("로그 시스템 초기화 실패. 서버 구동을 중단합니다. (Cause: %v)", err)
		return err
	}
	defer appLogCloser.Close()

	// 2. 로그 레벨 최종 확정
	applog.SetDebugMode(appConfig.Debug)

	// 아스키아트 출력(https://ko.rakko.tools/tools/68/, 폰트:standard)
	bi := buildInfo()
	fmt.Fprintf(cmd.OutOrStdout(), banner, bi.Version)

	applog.WithComponentAndFields("main", applog.Fields{
		"version": bi.String(),
		"env":     map[bool]string{true: "development", false: "production"}[appConfig.Debug],
	}).Info("서버 초기화 시작")

	for _, warning := range appConfig.VerifyRecommendations() {
		applog.WithComponent("main").Warn(warning)
	}

	// 3. 서비스 생성
	notifier, notifierService, err := newNotifier(appConfig)
	if err != nil {
		applog.WithComponentAndFields("main", applog.Fields{"error": err}).Error("딜 알림 초기화 실패")
		return err
	}

	serviceStopCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(serviceStopCtx, appConfig, notifier)
	if err != nil {
		applog.WithComponentAndFields("main", applog.Fields{"error": err}).Error("분석 파이프라인 초기화 실패")
		return err
	}

	analyzerService := analyzer.NewService(a.analyzer, analyzer.MaintenanceOptions{
		CachePurgeSpec:   appConfig.Maintenance.CachePurgeSpec,
		HistoryPruneSpec: appConfig.Maintenance.HistoryPruneSpec,
		HistoryRetention: appConfig.Maintenance.HistoryRetention,
	}, a.closers...)
	apiService := api.NewService(appConfig, a.analyzer, bi)

	services := []service.Service{analyzerService, apiService}
	if notifierService != nil {
		services = append(services, notifierService)
	}

	// 4. 서비스 시작
	serviceStopWG := &sync.WaitGroup{}
	for _, s := range services {
		serviceStopWG.Add(1)
		if err := s.Start(serviceStopCtx, serviceStopWG); err != nil {
			applog.WithComponentAndFields("main", applog.Fields{
				"error": err,
			}).Error("서비스 초기화 실패")

			cancel() // 다른 서비스들도 종료
			serviceStopWG.Wait()

			return err
		}
	}

	termC := make(chan os.Signal, 1)
	signal.Notify(termC, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(termC)

	applog.WithComponent("main").Info("서버 가동 완료")

	<-termC

	applog.WithComponent("main").Info("Shutdown signal received")
	cancel()
	serviceStopWG.Wait()

	return nil
}

// newNotifier 알림이 켜져 있으면 텔레그램 Notifier 와 그 전송 워커를, 아니면 Noop 을 반환합니다.
func newNotifier(appConfig *config.AppConfig) (analyzer.DealNotifier, service.Service, error) {
	c := appConfig.Alert
	if !c.Enabled {
		return alert.Noop{}, nil, nil
	}

	t, err := alert.NewTelegram(alert.Options{
		BotToken:       c.BotToken,
		ChatID:         c.ChatID,
		MinScore:       c.MinScore,
		Cooldown:       c.Cooldown,
		RatePerMinute:  c.RatePerMinute,
		MaxRetries:     c.MaxRetries,
		RetryDelay:     c.RetryDelay,
		RequestTimeout: c.RequestTimeout,
	})
	if err != nil {
		return nil, nil, err
	}

	return t, t, nil
}
