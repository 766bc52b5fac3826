package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/coreos/go-systemd/v22/daemon"
	"github.com/darkkaiser/push-worker/internal/config"
	"github.com/darkkaiser/push-worker/internal/pkg/version"
	applog "github.com/darkkaiser/push-worker/pkg/log"
)

const (
	banner = `
  ____               _      __        __              _
 |  _ \  _   _  ___ | |__   \ \      / /___   _ __ | | __ ___  _ __
 | |_) || | | |/ __|| '_ \   \ \ /\ / // _ \ | '__|| |/ // _ \| '__|
 |  __/ | |_| |\__ \| | | |   \ V  V /| (_) || |   |   <|  __/| |
 |_|     \__,_||___/|_| |_|    \_/\_/  \___/ |_|   |_|\_\\___||_|
                                                             %s
                                                        developed by DarkKaiser
--------------------------------------------------------------------------------
`
)

func main() {
	// 1. 환경설정 로드 (로그 설정에 필요하므로 가장 먼저 수행한다)
	appConfig, err := loadConfig(os.Args[1:])
	if err != nil {
		// 로거 초기화 전이므로 표준 에러에 출력
		fmt.Fprintf(os.Stderr, "[FATAL] 환경설정 로드 실패: %v\n", err)
		os.Exit(1)
	}

	// 2. 로그 시스템 초기화
	var logOpts applog.Options
	if appConfig.Debug {
		logOpts = applog.NewDevelopmentOptions(config.AppName)
	} else {
		logOpts = applog.NewProductionOptions(config.AppName)
	}

	appLogCloser, err := applog.Setup(logOpts)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[FATAL] 로그 시스템 초기화 실패. 워커 구동을 중단합니다. (Cause: %v)\n", err)
		os.Exit(1)
	}

	os.Exit(run(appConfig, appLogCloser.Close))
}

// loadConfig 첫 번째 실행 인자가 있으면 해당 경로의 설정 파일을, 없으면 기본 설정 파일을 읽습니다.
func loadConfig(args []string) (*config.AppConfig, error) {
	if len(args) > 0 && args[0] != "" {
		return config.LoadWithFile(args[0])
	}
	return config.Load()
}

func run(appConfig *config.AppConfig, closeLog func() error) int {
	defer closeLog()

	buildInfo := version.Get()

	// 아스키아트 출력(https://ko.rakko.tools/tools/68/, 폰트:standard)
	fmt.Printf(banner, buildInfo.Version)

	applog.WithComponentAndFields(component, applog.Fields{
		"version": buildInfo.String(),
		"env":     map[bool]string{true: "development", false: "production"}[appConfig.Debug],
	}).Info("워커 초기화 시작")

	for _, warning := range appConfig.VerifyRecommendations() {
		applog.WithComponent(component).Warn(warning)
	}

	serviceStopCtx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := newApp(serviceStopCtx, appConfig, buildInfo)
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err,
		}).Error("워커 구성 실패")
		return 1
	}
	defer a.Close()

	if err := a.start(serviceStopCtx); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err,
		}).Error("워커 설치 실패로 프로그램을 종료합니다")
		return 1
	}

	serviceStopWG := &sync.WaitGroup{}

	for _, s := range a.services {
		serviceStopWG.Add(1)
		if err := s.Start(serviceStopCtx, serviceStopWG); err != nil {
			applog.WithComponentAndFields(component, applog.Fields{
				"error": err,
			}).Error("서비스 초기화 실패")

			// Start가 실패하면 Done()이 호출되지 않으므로 직접 맞춘다.
			serviceStopWG.Done()

			cancel() // 다른 서비스들도 종료
			serviceStopWG.Wait()

			return 1
		}
	}

	// systemd 환경이 아니면 아무것도 하지 않는다.
	if _, err := daemon.SdNotify(false, daemon.SdNotifyReady); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err,
		}).Warn("systemd 준비 완료 알림 전송 실패")
	}

	termC := make(chan os.Signal, 1)
	signal.Notify(termC, syscall.SIGINT, syscall.SIGTERM)

	applog.WithComponentAndFields(component, applog.Fields{
		"address": appConfig.Ingress.ServerAddress(),
	}).Info("워커 가동 완료")

	<-termC

	applog.WithComponent(component).Info("Shutdown signal received")
	_, _ = daemon.SdNotify(false, daemon.SdNotifyStopping)

	cancel()             // Signal cancellation to context.Context
	serviceStopWG.Wait() // Block here until are workers are done

	return 0
}
