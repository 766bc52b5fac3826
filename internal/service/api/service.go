package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/darkkaiser/push-worker/internal/config"
	"github.com/darkkaiser/push-worker/internal/pkg/version"
	"github.com/darkkaiser/push-worker/internal/service/api/auth"
	"github.com/darkkaiser/push-worker/internal/service/api/constants"
	"github.com/darkkaiser/push-worker/internal/service/api/handler/system"
	v1 "github.com/darkkaiser/push-worker/internal/service/api/v1"
	v1handler "github.com/darkkaiser/push-worker/internal/service/api/v1/handler"
	applog "github.com/darkkaiser/push-worker/pkg/log"
	"github.com/labstack/echo/v4"
)

// requestTimeoutMargin 이벤트 시간 제한이 먼저 만료되어 504가 반환되도록 요청 시간 제한에 더하는 여유분
const requestTimeoutMargin = 30 * time.Second

// Service 라이프사이클 이벤트를 수신하는 HTTP API 서버의 생명주기를 관리하는 서비스입니다.
//
// 서비스는 고루틴으로 실행되며, context를 통해 종료 신호를 받습니다.
// Start() 메서드로 시작하고, context 취소로 종료됩니다.
type Service struct {
	appConfig *config.AppConfig

	dispatcher v1handler.EventDispatcher
	registrar  v1handler.DeviceRegistrar

	buildInfo    version.Info
	dependencies []system.Dependency

	running   bool
	runningMu sync.Mutex
}

// NewService Service 인스턴스를 생성합니다.
// dependencies는 헬스체크 응답에 포함될 의존성 상태 점검 함수입니다.
func NewService(appConfig *config.AppConfig, dispatcher v1handler.EventDispatcher, registrar v1handler.DeviceRegistrar, buildInfo version.Info, dependencies ...system.Dependency) *Service {
	if appConfig == nil {
		panic("AppConfig는 필수입니다")
	}
	if dispatcher == nil {
		panic("EventDispatcher는 필수입니다")
	}
	if registrar == nil {
		panic("DeviceRegistrar는 필수입니다")
	}

	return &Service{
		appConfig: appConfig,

		dispatcher: dispatcher,
		registrar:  registrar,

		buildInfo:    buildInfo,
		dependencies: dependencies,
	}
}

// Start API 서비스를 시작합니다.
//
// 호출 전에 serviceStopWG.Add(1)이 되어 있어야 하며, 서비스가 완전히 종료되면 Done()이 호출됩니다.
// 이 함수는 즉시 반환되며, 실제 서버는 고루틴에서 실행됩니다.
func (s *Service) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	s.runningMu.Lock()
	defer s.runningMu.Unlock()

	applog.WithComponent(constants.ComponentService).Info("수신 API 서비스 시작중...")

	if s.running {
		defer serviceStopWG.Done()
		applog.WithComponent(constants.ComponentService).Warn("수신 API 서비스가 이미 시작됨!!!")
		return nil
	}

	s.running = true

	go s.runServiceLoop(serviceStopCtx, serviceStopWG)

	applog.WithComponent(constants.ComponentService).Info("수신 API 서비스 시작됨")

	return nil
}

func (s *Service) runServiceLoop(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) {
	defer serviceStopWG.Done()

	e := s.setupServer()

	httpServerDone := make(chan struct{})
	go s.startHTTPServer(e, httpServerDone)

	s.waitForShutdown(serviceStopCtx, e, httpServerDone)
}

// setupServer Echo 서버 인스턴스를 생성하고 인증, 핸들러, 라우트 설정을 완료합니다.
func (s *Service) setupServer() *echo.Echo {
	authenticator := auth.NewAuthenticator(s.appConfig.Ingress.AppKey)

	systemHandler := system.NewHandler(s.buildInfo, s.dependencies...)
	v1Handler := v1handler.New(s.dispatcher, s.registrar)

	e := NewHTTPServer(HTTPServerConfig{
		Debug:          s.appConfig.Debug,
		EnableHSTS:     s.appConfig.Ingress.TLSServer,
		AllowOrigins:   s.appConfig.Ingress.AllowOrigins,
		RequestTimeout: s.appConfig.Worker.EventTimeout + requestTimeoutMargin,
	})

	RegisterRoutes(e, systemHandler)
	v1.RegisterRoutes(e, v1Handler, authenticator)

	return e
}

// startHTTPServer HTTP/HTTPS 서버를 시작합니다. 서버가 종료될 때까지 반환되지 않습니다.
func (s *Service) startHTTPServer(e *echo.Echo, done chan struct{}) {
	defer close(done)

	port := s.appConfig.Ingress.ListenPort
	applog.WithComponentAndFields(constants.ComponentService, applog.Fields{
		"port": port,
		"tls":  s.appConfig.Ingress.TLSServer,
	}).Debug("수신 API 서버 시작")

	var err error
	if s.appConfig.Ingress.TLSServer {
		err = e.StartTLS(fmt.Sprintf(":%d", port), s.appConfig.Ingress.TLSCertFile, s.appConfig.Ingress.TLSKeyFile)
	} else {
		err = e.Start(fmt.Sprintf(":%d", port))
	}

	s.handleServerError(err)
}

// handleServerError HTTP 서버 실행 중 발생한 에러를 처리합니다.
func (s *Service) handleServerError(err error) {
	if err == nil {
		return
	}

	if errors.Is(err, http.ErrServerClosed) {
		applog.WithComponent(constants.ComponentService).Info("수신 API 서버 중지됨")
		return
	}

	applog.WithComponentAndFields(constants.ComponentService, applog.Fields{
		"port":  s.appConfig.Ingress.ListenPort,
		"error": err,
	}).Error("수신 API 서버 구동 중 치명적인 오류가 발생하였습니다")
}

// waitForShutdown 종료 신호를 대기하고 Graceful Shutdown을 수행합니다.
func (s *Service) waitForShutdown(serviceStopCtx context.Context, e *echo.Echo, httpServerDone chan struct{}) {
	select {
	case <-serviceStopCtx.Done():
		applog.WithComponent(constants.ComponentService).Info("수신 API 서비스 중지중...")
	case <-httpServerDone:
		// 포트 바인딩 실패 등으로 서버가 먼저 종료된 경우
		applog.WithComponent(constants.ComponentService).Error("수신 API 서버가 예기치 않게 종료되었습니다")

		s.cleanup()

		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(ctx); err != nil {
		applog.WithComponentAndFields(constants.ComponentService, applog.Fields{
			"error": err,
		}).Error("수신 API 서버의 중지 중 오류가 발생하였습니다")
	}

	<-httpServerDone

	s.cleanup()
}

func (s *Service) cleanup() {
	s.runningMu.Lock()
	s.running = false
	s.runningMu.Unlock()

	applog.WithComponent(constants.ComponentService).Info("수신 API 서비스 중지됨")
}
