package analyzer

import (
	"context"
	"sync"
	"time"

	"github.com/darkkaiser/bikonomi/internal/service/scheduler"
	applog "github.com/darkkaiser/bikonomi/pkg/log"
)

const (
	// DefaultCachePurgeSpec 만료 캐시 정리 주기
	DefaultCachePurgeSpec = "@every 30m"

	// DefaultHistoryPruneSpec 오래된 가격 이력 정리 주기 (매일 04:00)
	DefaultHistoryPruneSpec = "0 0 4 * * *"

	// DefaultHistoryRetention 가격 이력 보관 기간
	DefaultHistoryRetention = 90 * 24 * time.Hour
)

// MaintenanceOptions 주기적인 정리 작업 설정입니다.
type MaintenanceOptions struct {
	CachePurgeSpec   string
	HistoryPruneSpec string
	HistoryRetention time.Duration
}

// Service Analyzer 의 백그라운드 정리 작업(캐시 만료 정리, 이력 보관 기간 관리)을 실행하고
// 종료 시 저장소를 닫는 서비스입니다.
type Service struct {
	analyzer *Analyzer
	sched    *scheduler.Scheduler

	closers []func() error

	closeOnce sync.Once
}

// NewService 새로운 Service 를 생성합니다. closers 는 Close 시점에 역순으로 호출됩니다.
func NewService(a *Analyzer, opts MaintenanceOptions, closers ...func() error) *Service {
	if opts.CachePurgeSpec == "" {
		opts.CachePurgeSpec = DefaultCachePurgeSpec
	}
	if opts.HistoryPruneSpec == "" {
		opts.HistoryPruneSpec = DefaultHistoryPruneSpec
	}
	if opts.HistoryRetention <= 0 {
		opts.HistoryRetention = DefaultHistoryRetention
	}

	s := &Service{analyzer: a, closers: closers}
	s.sched = scheduler.NewService(
		scheduler.Job{
			Name:    "cache-purge",
			Spec:    opts.CachePurgeSpec,
			Timeout: time.Minute,
			Run: func(ctx context.Context) error {
				n := a.PurgeCache(ctx)
				applog.WithComponentAndFields(component, applog.Fields{"purged": n}).Debug("만료 캐시 정리 완료")
				return nil
			},
		},
		scheduler.Job{
			Name: "history-prune",
			Spec: opts.HistoryPruneSpec,
			Run: func(ctx context.Context) error {
				n, err := a.PruneHistory(ctx, opts.HistoryRetention)
				if err != nil {
					return err
				}
				applog.WithComponentAndFields(component, applog.Fields{
					"pruned":    n,
					"retention": opts.HistoryRetention.String(),
				}).Info("오래된 가격 이력 정리 완료")
				return nil
			},
		},
	)

	return s
}

// Analyzer 서비스가 감싸고 있는 분석 파이프라인입니다.
func (s *Service) Analyzer() *Analyzer {
	return s.analyzer
}

// Start 정리 작업 스케줄러를 시작합니다. serviceStopCtx 가 취소되면 스케줄러를 멈추고 저장소를 닫습니다.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	schedWG := &sync.WaitGroup{}
	schedWG.Add(1)
	if err := s.sched.Start(serviceStopCtx, schedWG); err != nil {
		serviceStopWG.Done()
		return err
	}

	go func() {
		defer serviceStopWG.Done()

		schedWG.Wait()

		if err := s.Close(); err != nil {
			applog.WithComponentAndFields(component, applog.Fields{"error": err}).Warn("Analyzer 저장소 종료 중 오류가 발생했습니다")
		}
	}()

	applog.WithComponent(component).Info("서비스 시작 완료: Analyzer 서비스가 정상적으로 초기화되었습니다")

	return nil
}

// Close 캐시와 이력 저장소를 닫습니다. 여러 번 호출해도 안전합니다.
func (s *Service) Close() error {
	var firstErr error
	s.closeOnce.Do(func() {
		s.sched.Stop()

		for i := len(s.closers) - 1; i >= 0; i-- {
			if err := s.closers[i](); err != nil && firstErr == nil {
				firstErr = err
			}
		}
	})
	return firstErr
}
