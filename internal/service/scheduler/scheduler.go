// Package scheduler 등록된 작업(Job)을 Cron 스케줄에 맞춰 주기적으로 실행합니다.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/darkkaiser/bikonomi/pkg/cronx"
	applog "github.com/darkkaiser/bikonomi/pkg/log"
	"github.com/robfig/cron/v3"
)

// component Scheduler 서비스의 로깅용 컴포넌트 이름
const component = "scheduler.service"

// defaultJobTimeout 작업 1회 실행의 기본 최대 시간
const defaultJobTimeout = 5 * time.Minute

// Job 주기적으로 실행할 작업입니다.
type Job struct {
	Name string

	// Spec 초 단위를 포함한 Cron 표현식 (예: "0 0 * * * *", "@every 30m")
	Spec string

	// Timeout 작업 1회 실행의 최대 시간 (0이면 기본값)
	Timeout time.Duration

	Run func(ctx context.Context) error
}

// Scheduler 등록된 작업들을 Cron 스케줄에 맞춰 실행하는 서비스입니다.
type Scheduler struct {
	jobs []Job

	cron *cron.Cron

	running   bool
	runningMu sync.Mutex
}

// NewService 새로운 Scheduler 서비스 인스턴스를 생성합니다.
func NewService(jobs ...Job) *Scheduler {
	for _, j := range jobs {
		if j.Run == nil {
			panic("Job.Run은 필수입니다: " + j.Name)
		}
	}

	return &Scheduler{jobs: jobs}
}

// Start 작업들을 Cron 엔진에 등록하고 스케줄러를 시작합니다.
//
// 매개변수:
//   - serviceStopCtx: 서비스 종료 신호를 받기 위한 Context
//   - serviceStopWG: 서비스 종료 완료를 알리기 위한 WaitGroup
//
// 반환값:
//   - error: 잘못된 Cron 표현식을 가진 작업이 있는 경우
func (s *Scheduler) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(component).Info("서비스 시작 진입: Scheduler 서비스 초기화 프로세스를 시작합니다")

	if s.running {
		serviceStopWG.Done()
		applog.WithComponent(component).Warn("Scheduler 서비스가 이미 실행 중입니다 (중복 호출)")
		return nil
	}

	// - StandardParser: 초 단위 스케줄링 지원 (6개 필드: 초 분 시 일 월 요일)
	// - Recover: 작업 패닉이 다른 작업에 영향을 주지 않음
	// - SkipIfStillRunning: 이전 실행이 끝나지 않았으면 다음 실행을 건너뜀
	c := cron.New(
		cron.WithParser(cronx.StandardParser()),
		cron.WithLogger(cron.VerbosePrintfLogger(applog.StandardLogger())),
		cron.WithChain(
			cron.Recover(cron.VerbosePrintfLogger(applog.StandardLogger())),
			cron.SkipIfStillRunning(cron.VerbosePrintfLogger(applog.StandardLogger())),
		),
	)

	for _, j := range s.jobs {
		if _, err := c.AddFunc(j.Spec, s.wrap(j)); err != nil {
			serviceStopWG.Done()
			return NewErrInvalidCronSpec(j.Name, j.Spec, err)
		}
	}

	s.cron = c
	s.cron.Start()
	s.running = true

	applog.WithComponentAndFields(component, applog.Fields{
		"registered_jobs": len(s.cron.Entries()),
	}).Info("서비스 시작 완료: Scheduler 서비스가 정상적으로 초기화되었습니다")

	go func() {
		defer serviceStopWG.Done()

		<-serviceStopCtx.Done()

		s.Stop()
	}()

	return nil
}

// Stop 실행 중인 스케줄러를 중지하고 실행 중인 작업이 끝날 때까지 기다립니다.
func (s *Scheduler) Stop() {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	if !s.running {
		return
	}

	applog.WithComponent(component).Info("종료 절차 진입: Scheduler 서비스 중지 시그널을 수신했습니다")

	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
	}

	s.cron = nil
	s.running = false

	applog.WithComponent(component).Info("Scheduler 서비스 종료 완료: 모든 리소스가 정리되었습니다")
}

// Running 스케줄러 실행 여부입니다.
func (s *Scheduler) Running() bool {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	return s.running
}

// wrap 작업을 타임아웃과 로깅으로 감쌉니다.
//
// 작업 컨텍스트는 서비스 종료 신호와 분리됩니다. 종료 시 cron.Stop()이 실행 중인 작업의
// 완료를 기다리므로 작업이 중간에 끊기지 않습니다.
func (s *Scheduler) wrap(j Job) func() {
	timeout := j.Timeout
	if timeout <= 0 {
		timeout = defaultJobTimeout
	}

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		startedAt := time.Now()
		err := j.Run(ctx)

		fields := applog.Fields{
			"job":      j.Name,
			"duration": time.Since(startedAt).String(),
		}
		if err != nil {
			fields["error"] = err
			applog.WithComponentAndFields(component, fields).Error("작업 실행 실패")
			return
		}

		applog.WithComponentAndFields(component, fields).Debug("작업 실행 완료")
	}
}
