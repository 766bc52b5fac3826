package main

import (
	"context"
	"errors"
	"time"

	"github.com/darkkaiser/push-worker/internal/config"
	"github.com/darkkaiser/push-worker/internal/fetcher"
	"github.com/darkkaiser/push-worker/internal/host/local"
	apperrors "github.com/darkkaiser/push-worker/internal/pkg/errors"
	"github.com/darkkaiser/push-worker/internal/pkg/version"
	"github.com/darkkaiser/push-worker/internal/pushapi"
	"github.com/darkkaiser/push-worker/internal/service"
	"github.com/darkkaiser/push-worker/internal/service/api"
	"github.com/darkkaiser/push-worker/internal/service/api/handler/system"
	"github.com/darkkaiser/push-worker/internal/store"
	"github.com/darkkaiser/push-worker/internal/worker"
	applog "github.com/darkkaiser/push-worker/pkg/log"
)

const (
	component = "main"

	// storePingTimeout 헬스체크에서 원격 저장소 응답을 기다리는 최대 시간
	storePingTimeout = 2 * time.Second
)

// pinger 연결 상태를 확인할 수 있는 원격 저장소
type pinger interface {
	Ping(ctx context.Context) error
}

// app 워커 에이전트를 구성하는 요소들입니다.
type app struct {
	config *config.AppConfig

	store   store.Store
	runtime *local.Runtime
	runner  *worker.Runner

	services []service.Service
}

// newApp 설정에 따라 저장소, 호스트 런타임, 워커, 서비스를 생성하고 서로 연결합니다.
// 워커는 아직 설치되지 않은 상태이며, start를 호출해야 install/activate가 디스패치된다.
func newApp(ctx context.Context, appConfig *config.AppConfig, buildInfo version.Info) (*app, error) {
	s, err := store.New(appConfig.Store)
	if err != nil {
		return nil, err
	}

	written, err := store.Seed(ctx, s, map[string]string{
		store.KeyApplicationCode:          appConfig.Application.Code,
		store.KeyDefaultNotificationTitle: appConfig.Application.DefaultTitle,
		store.KeyDefaultNotificationImage: appConfig.Application.DefaultImage,
		store.KeyDefaultNotificationURL:   appConfig.Application.DefaultURL,
	})
	if err != nil {
		return nil, errors.Join(apperrors.Wrap(err, apperrors.System, "설정 저장소 초기값 기록에 실패했습니다"), s.Close())
	}
	applog.WithComponentAndFields(component, applog.Fields{
		"driver":  appConfig.Store.Driver,
		"written": written,
	}).Debug("설정 저장소 초기값 기록 완료")

	caches, err := local.NewDirCacheStorage(appConfig.Worker.CacheDir)
	if err != nil {
		return nil, errors.Join(err, s.Close())
	}

	var services []service.Service

	var presenter local.Presenter = local.LogPresenter{}
	var telegramPresenter *local.TelegramPresenter
	if appConfig.Presenter.Driver == config.PresenterDriverTelegram {
		telegramPresenter, err = local.NewTelegramPresenter(appConfig.Presenter.Telegram, appConfig.Debug)
		if err != nil {
			return nil, errors.Join(err, s.Close())
		}
		presenter = telegramPresenter
		services = append(services, telegramPresenter)
	}

	rt := local.New(local.Options{
		Subscription: local.SubscriptionFromConfig(appConfig.Subscription),
		Presenter:    presenter,
		EventTimeout: appConfig.Worker.EventTimeout,
	})
	if telegramPresenter != nil {
		telegramPresenter.SetClickHandler(rt.DispatchClick)
	}

	transport := pushapi.NewHTTPTransport(appConfig.Platform.APIURL, fetcher.New(fetcher.Config{
		Timeout:          appConfig.Platform.Timeout,
		UserAgent:        appConfig.Platform.UserAgent,
		MaxResponseBytes: appConfig.Platform.MaxResponseBytes,
	}))

	runner, err := worker.New(worker.Options{
		Store:        s,
		DoAPIMethod:  transport,
		Registration: rt,
		Clients:      rt,
		Caches:       caches,
		Fallback: worker.Defaults{
			Title: appConfig.Worker.Fallback.Title,
			Image: appConfig.Worker.Fallback.Image,
			URL:   appConfig.Worker.Fallback.URL,
		},
		BrowserType:           appConfig.Worker.BrowserType,
		Version:               buildInfo.WorkerVersion(),
		CacheEvictionPrefixes: appConfig.Worker.CacheEvictionPrefixes,
	})
	if err != nil {
		return nil, errors.Join(err, s.Close())
	}
	runner.Bind(rt)

	apiService := api.NewService(appConfig, rt, runner, buildInfo,
		system.Dependency{Name: "store", Check: storeCheck(appConfig.Store.Driver, s)},
		system.Dependency{Name: "worker", Check: workerCheck(rt)},
		system.Dependency{Name: "api_client", Check: func() (string, error) { return runner.State().String(), nil }},
	)
	services = append(services, apiService)

	return &app{
		config:   appConfig,
		store:    s,
		runtime:  rt,
		runner:   runner,
		services: services,
	}, nil
}

// start 워커를 설치하고 활성화합니다. activate 실패는 경고로만 남기며, install이 실패하면 에러를 반환한다.
func (a *app) start(ctx context.Context) error {
	if err := a.runtime.Start(ctx); err != nil {
		if a.runtime.State() == local.StateRedundant {
			return err
		}

		applog.WithComponentAndFields(component, applog.Fields{
			"error": err,
		}).Warn("activate 이벤트 처리 중 오류가 발생하였지만 워커는 활성화되었습니다")
	}

	return nil
}

func (a *app) Close() error {
	return a.store.Close()
}

func storeCheck(driver string, s store.Store) func() (string, error) {
	return func() (string, error) {
		p, ok := s.(pinger)
		if !ok {
			return driver, nil
		}

		ctx, cancel := context.WithTimeout(context.Background(), storePingTimeout)
		defer cancel()

		if err := p.Ping(ctx); err != nil {
			return driver, err
		}
		return driver, nil
	}
}

func workerCheck(rt *local.Runtime) func() (string, error) {
	return func() (string, error) {
		state := rt.State()
		if state == local.StateRedundant {
			return state.String(), apperrors.New(apperrors.Unavailable, "워커 설치에 실패하여 이벤트를 처리할 수 없습니다")
		}
		return state.String(), nil
	}
}
