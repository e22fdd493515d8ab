package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/darkkaiser/bikonomi/internal/config"
	"github.com/darkkaiser/bikonomi/internal/pkg/version"
	"github.com/darkkaiser/bikonomi/internal/service/analyzer"
	"github.com/darkkaiser/bikonomi/internal/service/api/constants"
	"github.com/darkkaiser/bikonomi/internal/service/api/handler/system"
	appmiddleware "github.com/darkkaiser/bikonomi/internal/service/api/middleware"
	v1 "github.com/darkkaiser/bikonomi/internal/service/api/v1"
	v1handler "github.com/darkkaiser/bikonomi/internal/service/api/v1/handler"
	applog "github.com/darkkaiser/bikonomi/pkg/log"
	"github.com/labstack/echo/v4"
)

// shutdownTimeout Graceful Shutdown 시 최대 대기 시간
const shutdownTimeout = 5 * time.Second

// Service 가격 분석 HTTP API 서버의 생명주기를 관리합니다.
//
// Start 로 서버를 고루틴에서 띄우고, serviceStopCtx 가 취소되면 Graceful Shutdown 합니다.
type Service struct {
	appConfig *config.AppConfig

	analyzer *analyzer.Analyzer

	buildInfo version.Info

	// listenAddr 비어 있으면 설정의 포트를 사용합니다. 테스트에서 임의 포트(":0")를 쓰기 위해 둡니다.
	listenAddr string

	running   bool
	runningMu sync.Mutex
}

// NewService Service 인스턴스를 생성합니다.
func NewService(appConfig *config.AppConfig, a *analyzer.Analyzer, buildInfo version.Info) *Service {
	if appConfig == nil {
		panic(constants.PanicMsgAppConfigRequired)
	}

	return &Service{
		appConfig: appConfig,

		analyzer: a,

		buildInfo: buildInfo,
	}
}

// Start API 서비스를 시작합니다. 즉시 반환하며 실제 서버는 고루틴에서 실행됩니다.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(constants.ComponentService).Info(constants.LogMsgServiceStarting)

	if s.analyzer == nil {
		defer serviceStopWG.Done()
		return ErrAnalyzerNotInitialized
	}

	if s.running {
		defer serviceStopWG.Done()
		applog.WithComponent(constants.ComponentService).Warn(constants.LogMsgServiceAlreadyStarted)
		return nil
	}

	s.running = true

	go s.runServiceLoop(serviceStopCtx, serviceStopWG)

	applog.WithComponent(constants.ComponentService).Info(constants.LogMsgServiceStarted)

	return nil
}

func (s *Service) runServiceLoop(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	e := s.setupServer()

	httpServerDone := make(chan struct{})
	go s.startHTTPServer(e, httpServerDone)

	s.waitForShutdown(serviceStopCtx, e, httpServerDone)
}

// setupServer 핸들러와 미들웨어, 라우트가 구성된 Echo 서버를 만듭니다.
func (s *Service) setupServer() *echo.Echo {
	apiConfig := s.appConfig.API

	var rateLimit *appmiddleware.RateLimitConfig
	if apiConfig.RateLimit.Enabled {
		rateLimit = &appmiddleware.RateLimitConfig{
			RequestsPerSecond: apiConfig.RateLimit.RequestsPerSecond,
			Burst:             apiConfig.RateLimit.Burst,
		}
	}

	e := NewHTTPServer(HTTPServerConfig{
		Debug:          s.appConfig.Debug,
		EnableHSTS:     apiConfig.WS.TLSServer,
		AllowOrigins:   apiConfig.CORS.AllowOrigins,
		RateLimit:      rateLimit,
		BodyLimit:      apiConfig.BodyLimit,
		RequestTimeout: apiConfig.RequestTimeout,
	})

	RegisterRoutes(e, system.NewHandler(s.analyzer, s.buildInfo))
	v1.RegisterRoutes(e, v1handler.NewHandler(s.analyzer))

	return e
}

func (s *Service) address() string {
	if s.listenAddr != "" {
		return s.listenAddr
	}
	return fmt.Sprintf(":%d", s.appConfig.API.WS.ListenPort)
}

// startHTTPServer HTTP/HTTPS 서버를 시작합니다. 서버가 종료되면 done 채널을 닫습니다.
func (s *Service) startHTTPServer(e *echo.Echo, done chan struct{}) {
	defer close(done)

	ws := s.appConfig.API.WS
	addr := s.address()

	applog.WithComponentAndFields(constants.ComponentService, applog.Fields{
		"address": addr,
		"tls":     ws.TLSServer,
	}).Info(constants.LogMsgServiceHTTPServerStarting)

	var err error
	if ws.TLSServer {
		err = e.StartTLS(addr, ws.TLSCertFile, ws.TLSKeyFile)
	} else {
		err = e.Start(addr)
	}

	s.handleServerError(err)
}

func (s *Service) handleServerError(err error) {
	if err == nil {
		return
	}

	if errors.Is(err, http.ErrServerClosed) {
		applog.WithComponent(constants.ComponentService).Info(constants.LogMsgServiceHTTPServerStopped)
		return
	}

	applog.WithComponentAndFields(constants.ComponentService, applog.Fields{
		"address": s.address(),
		"error":   err,
	}).Error(constants.LogMsgServiceHTTPServerFatalError)
}

// waitForShutdown 종료 신호 또는 서버의 조기 종료를 기다린 뒤 Graceful Shutdown 을 수행합니다.
func (s *Service) waitForShutdown(serviceStopCtx context.Context, e *echo.Echo, httpServerDone chan struct{}) {
	select {
	case <-serviceStopCtx.Done():
		applog.WithComponent(constants.ComponentService).Info(constants.LogMsgServiceStopping)

	case <-httpServerDone:
		// 포트 바인딩 실패 등으로 이미 종료되었으므로 상태만 정리합니다.
		applog.WithComponent(constants.ComponentService).Error(constants.LogMsgServiceUnexpectedExit)
		s.cleanup()
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		applog.WithComponentAndFields(constants.ComponentService, applog.Fields{
			"error": err,
		}).Error(constants.LogMsgServiceHTTPServerShutdownError)
	}

	<-httpServerDone

	s.cleanup()
}

func (s *Service) cleanup() {
	s.runningMu.Lock()
	s.running = false
	s.runningMu.Unlock()

	applog.WithComponent(constants.ComponentService).Info(constants.LogMsgServiceStopped)
}
