// Package worker 푸시 알림 워커의 핵심 로직을 구현합니다.
//
// Runner는 호스트의 네 가지 라이프사이클 이벤트(install, activate, push, notificationclick)에
// 반응하며, 첫 푸시 시점에 플랫폼 API 클라이언트를 지연 초기화하여 러너의 수명 동안 재사용합니다.
// 모든 실패는 이벤트의 수명 연장(WaitUntil) 작업을 통해 호스트로 전달되며, 러너는 재시도하지 않습니다.
package worker

import (
	"context"
	"errors"
	"strings"

	"github.com/darkkaiser/push-worker/internal/config"
	"github.com/darkkaiser/push-worker/internal/credential"
	"github.com/darkkaiser/push-worker/internal/host"
	apperrors "github.com/darkkaiser/push-worker/internal/pkg/errors"
	"github.com/darkkaiser/push-worker/internal/pushapi"
	"github.com/darkkaiser/push-worker/internal/store"
	applog "github.com/darkkaiser/push-worker/pkg/log"
	"github.com/darkkaiser/push-worker/pkg/strutil"
	"github.com/tidwall/gjson"
	"golang.org/x/sync/errgroup"
)

const component = "worker"

// DefaultFallback 설정에서 지정하지 않은 최종 기본값
var DefaultFallback = Defaults{
	Title: config.DefaultFallbackTitle,
	Image: config.DefaultFallbackImage,
	URL:   config.DefaultFallbackURL,
}

// ErrNoApplicationCode 설정 저장소에 애플리케이션 코드가 없을 때 반환됩니다.
var ErrNoApplicationCode = apperrors.New(apperrors.Configuration, "애플리케이션 코드가 설정되지 않았습니다 (no code)")

// Options Runner 생성에 필요한 외부 협력자와 설정입니다.
type Options struct {
	Store       store.Store
	DoAPIMethod pushapi.DoAPIMethod

	// Derive nil이면 credential.Derive를 사용한다.
	Derive credential.Deriver

	Registration host.Registration
	Clients      host.Clients
	Caches       host.CacheStorage

	// Fallback 페이로드와 사용자 기본값이 모두 비어 있을 때 사용하는 값.
	// 비어 있는 필드는 DefaultFallback의 값으로 채워진다.
	Fallback Defaults

	// BrowserType 0이면 구독 엔드포인트로부터 추론한다.
	BrowserType int

	// Version install 시 저장소에 기록하는 워커 버전
	Version string

	// CacheEvictionPrefixes 비어 있으면 activate 시 모든 캐시를 삭제하고,
	// 지정되면 이름이 접두사 중 하나로 시작하는 캐시만 삭제한다.
	CacheEvictionPrefixes []string

	// OnTelemetryError 통계 보고 실패를 전달받는 함수. nil이면 경고 로그를 남긴다.
	OnTelemetryError func(err error)
}

// Runner 라이프사이클 이벤트를 처리하는 워커입니다. 전역 상태를 갖지 않으며 Bind로 호스트에 연결한다.
type Runner struct {
	store        store.Store
	doAPIMethod  pushapi.DoAPIMethod
	derive       credential.Deriver
	registration host.Registration
	clients      host.Clients
	caches       host.CacheStorage

	fallback              Defaults
	browserType           int
	version               string
	cacheEvictionPrefixes []string
	onTelemetryError      func(err error)

	api apiHolder
}

// New Runner를 생성합니다.
func New(opts Options) (*Runner, error) {
	switch {
	case opts.Store == nil:
		return nil, apperrors.New(apperrors.Internal, "워커 생성 실패: 설정 저장소가 지정되지 않았습니다")
	case opts.DoAPIMethod == nil:
		return nil, apperrors.New(apperrors.Internal, "워커 생성 실패: API 전송 함수가 지정되지 않았습니다")
	case opts.Registration == nil, opts.Clients == nil, opts.Caches == nil:
		return nil, apperrors.New(apperrors.Internal, "워커 생성 실패: 호스트 기능(Registration, Clients, CacheStorage)이 모두 필요합니다")
	}

	r := &Runner{
		store:                 opts.Store,
		doAPIMethod:           opts.DoAPIMethod,
		derive:                opts.Derive,
		registration:          opts.Registration,
		clients:               opts.Clients,
		caches:                opts.Caches,
		fallback:              withDefaultFallback(opts.Fallback),
		browserType:           opts.BrowserType,
		version:               opts.Version,
		cacheEvictionPrefixes: opts.CacheEvictionPrefixes,
		onTelemetryError:      opts.OnTelemetryError,
	}
	if r.derive == nil {
		r.derive = credential.Derive
	}
	if r.onTelemetryError == nil {
		r.onTelemetryError = func(err error) {
			applog.WithComponentAndFields(component, applog.Fields{
				"error": err,
			}).Warn("통계 보고 실패: 알림 클릭 통계를 전송하지 못했습니다")
		}
	}

	return r, nil
}

// withDefaultFallback 비어 있는 필드를 라이브러리 기본값으로 채웁니다.
func withDefaultFallback(d Defaults) Defaults {
	return Defaults{
		Title: strutil.FirstNonEmpty(d.Title, DefaultFallback.Title),
		Image: strutil.FirstNonEmpty(d.Image, DefaultFallback.Image),
		URL:   strutil.FirstNonEmpty(d.URL, DefaultFallback.URL),
	}
}

// Bind 네 가지 라이프사이클 이벤트 핸들러를 호스트에 등록합니다.
func (r *Runner) Bind(target host.EventTarget) {
	target.AddEventListener(host.EventInstall, r.Install)
	target.AddEventListener(host.EventActivate, r.Activate)
	target.AddEventListener(host.EventPush, r.Push)
	target.AddEventListener(host.EventNotificationClick, r.Click)
}

// State API 클라이언트 초기화 상태를 반환합니다.
func (r *Runner) State() State {
	return r.api.state()
}

// ApplicationCode 설정 저장소에서 애플리케이션 코드를 읽습니다. 없거나 비어 있으면 ErrNoApplicationCode를 반환합니다.
func (r *Runner) ApplicationCode(ctx context.Context) (string, error) {
	code, ok, err := r.store.Get(ctx, store.KeyApplicationCode)
	if err != nil {
		return "", err
	}
	if !ok || code == "" {
		return "", ErrNoApplicationCode
	}

	return code, nil
}

// InitAPI API 클라이언트를 초기화합니다. 이미 초기화되었으면 아무것도 하지 않습니다.
// 동시에 여러 번 호출되어도 인증 정보 유도는 한 번만 수행됩니다.
func (r *Runner) InitAPI(ctx context.Context) error {
	_, err := r.session(ctx)
	return err
}

func (r *Runner) session(ctx context.Context) (*session, error) {
	return r.api.get(ctx, r.newSession)
}

// newSession 구독 조회와 애플리케이션 코드 조회를 동시에 수행한 뒤 인증 정보를 유도하여 클라이언트를 만듭니다.
func (r *Runner) newSession(ctx context.Context) (*session, error) {
	var (
		sub  *host.PushSubscription
		code string
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		if sub, err = r.registration.PushSubscription(gctx); err != nil {
			return wrapHostFailure(err, "푸시 구독 조회에 실패했습니다")
		}
		return nil
	})
	g.Go(func() error {
		var err error
		code, err = r.ApplicationCode(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	creds := r.derive(code, sub)

	client, err := pushapi.NewClient(pushapi.Options{
		DoAPIMethod:     r.doAPIMethod,
		ApplicationCode: code,
		HWID:            creds.HWID,
		PushToken:       creds.PushToken,
		EncryptionKey:   creds.EncryptionKey,
	})
	if err != nil {
		return nil, err
	}

	endpoint := ""
	if sub != nil {
		endpoint = sub.Endpoint
	}
	s := &session{
		client:     client,
		deviceType: credential.BrowserType(r.browserType, endpoint),
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"application": code,
		"hwid":        creds.HWID,
		"push_token":  creds.PushToken,
		"device_type": s.deviceType,
	}).Info("API 클라이언트 초기화 완료")

	return s, nil
}

// ShowMessage getLastMessage 응답으로 알림을 표시합니다.
// 응답에 notification 객체가 없으면 표시하지 않고 Protocol 에러를 반환합니다.
func (r *Runner) ShowMessage(ctx context.Context, result gjson.Result) error {
	notification := result.Get("notification")
	if !notification.IsObject() {
		return apperrors.New(apperrors.Protocol, "getLastMessage 응답에 notification 객체가 없습니다")
	}

	payload := ParsePayload(notification)

	user, err := r.loadDefaults(ctx)
	if err != nil {
		return err
	}

	display, err := Resolve(payload, user, r.fallback)
	if err != nil {
		return err
	}

	applog.WithComponentAndFields(component, applog.Fields{
		"title":        display.Title,
		"message_hash": payload.MessageHash,
	}).Debug("알림 표시 요청")

	opts := host.NotificationOptions{Body: display.Body, Icon: display.Icon, Tag: display.Tag}
	if err := r.registration.ShowNotification(ctx, display.Title, opts); err != nil {
		return wrapHostFailure(err, "알림 표시에 실패했습니다")
	}

	return nil
}

// loadDefaults 사용자 기본값 세 개를 동시에 읽습니다. 없는 값은 빈 문자열입니다.
func (r *Runner) loadDefaults(ctx context.Context) (Defaults, error) {
	var d Defaults

	g, gctx := errgroup.WithContext(ctx)
	for key, dst := range map[string]*string{
		store.KeyDefaultNotificationTitle: &d.Title,
		store.KeyDefaultNotificationImage: &d.Image,
		store.KeyDefaultNotificationURL:   &d.URL,
	} {
		g.Go(func() error {
			v, _, err := r.store.Get(gctx, key)
			*dst = v
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return Defaults{}, err
	}

	return d, nil
}

// Push 푸시 이벤트를 처리합니다. 초기화, 최근 메시지 조회, 알림 표시를 순서대로 수행한다.
func (r *Runner) Push(_ context.Context, event host.ExtendableEvent) error {
	event.WaitUntil(func(ctx context.Context) error {
		s, err := r.session(ctx)
		if err != nil {
			return err
		}

		result, err := s.client.GetLastMessage(ctx, s.deviceType)
		if err != nil {
			return err
		}

		return r.ShowMessage(ctx, result)
	})

	return nil
}

// Click 알림 클릭 이벤트를 처리합니다.
//
// 통계 보고는 수명 연장 작업으로 등록만 하고 기다리지 않으며, 알림 닫기와 창 열기는 즉시 수행한다.
// tag를 해석할 수 없으면 통계를 보고하지 않고 기본 URL로 창을 연 뒤 해석 에러를 반환한다.
func (r *Runner) Click(ctx context.Context, event host.ExtendableEvent) error {
	ne, ok := event.(host.NotificationEvent)
	if !ok {
		return apperrors.New(apperrors.Internal, "notificationclick 이벤트가 알림 정보를 제공하지 않습니다: "+event.Type())
	}

	n := ne.Notification()

	tag, parseErr := DecodeTag(n.Tag())
	if parseErr == nil {
		ne.WaitUntil(func(ctx context.Context) error {
			r.reportStat(ctx, tag.MessageHash)
			return nil
		})
	}

	n.Close()

	url := tag.URL
	if url == "" {
		url = r.defaultURL(ctx)
	}

	if err := r.clients.OpenWindow(ctx, url); err != nil {
		return errors.Join(parseErr, wrapHostFailure(err, "창 열기에 실패했습니다: "+url))
	}

	return parseErr
}

// reportStat 클릭 통계를 보고합니다. 실패는 텔레메트리 에러로만 전달된다.
func (r *Runner) reportStat(ctx context.Context, messageHash string) {
	s, err := r.session(ctx)
	if err == nil {
		err = s.client.PushStat(ctx, messageHash)
	}
	if err != nil {
		r.onTelemetryError(err)
	}
}

// defaultURL 사용자 기본 URL을 반환하고, 없거나 읽을 수 없으면 라이브러리 기본 URL을 반환합니다.
func (r *Runner) defaultURL(ctx context.Context) string {
	v, _, err := r.store.Get(ctx, store.KeyDefaultNotificationURL)
	if err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err,
		}).Warn("사용자 기본 URL 조회 실패: 라이브러리 기본값을 사용합니다")
	}

	return strutil.FirstNonEmpty(v, r.fallback.URL)
}

// Install 워커 버전을 기록한 뒤 대기 없이 활성화되도록 요청합니다.
func (r *Runner) Install(_ context.Context, event host.ExtendableEvent) error {
	event.WaitUntil(func(ctx context.Context) error {
		if err := r.store.Set(ctx, store.KeyWorkerSDKVersion, r.version); err != nil {
			return err
		}

		if err := r.registration.SkipWaiting(ctx); err != nil {
			return wrapHostFailure(err, "대기 단계 건너뛰기에 실패했습니다")
		}
		return nil
	})

	return nil
}

// Activate 캐시를 비우고 열려 있는 클라이언트의 제어권을 가져옵니다.
func (r *Runner) Activate(_ context.Context, event host.ExtendableEvent) error {
	event.WaitUntil(func(ctx context.Context) error {
		names, err := r.caches.Keys(ctx)
		if err != nil {
			return wrapHostFailure(err, "캐시 목록 조회에 실패했습니다")
		}

		g, gctx := errgroup.WithContext(ctx)
		for _, name := range names {
			if !r.evictable(name) {
				continue
			}
			g.Go(func() error {
				if _, err := r.caches.Delete(gctx, name); err != nil {
					return wrapHostFailure(err, "캐시 삭제에 실패했습니다: "+name)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		if err := r.clients.Claim(ctx); err != nil {
			return wrapHostFailure(err, "클라이언트 제어권 획득에 실패했습니다")
		}
		return nil
	})

	return nil
}

func (r *Runner) evictable(name string) bool {
	if len(r.cacheEvictionPrefixes) == 0 {
		return true
	}

	for _, prefix := range r.cacheEvictionPrefixes {
		if strings.HasPrefix(name, prefix) {
			return true
		}
	}
	return false
}

// RegisterDevice API 클라이언트를 초기화한 뒤 현재 기기를 플랫폼에 등록합니다.
func (r *Runner) RegisterDevice(ctx context.Context) error {
	s, err := r.session(ctx)
	if err != nil {
		return err
	}

	return s.client.RegisterDevice(ctx, s.deviceType)
}

// wrapHostFailure 호스트 기능의 실패를 HostFailure로 감쌉니다. 이미 분류된 에러는 그대로 둔다.
func wrapHostFailure(err error, message string) error {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return err
	}

	return apperrors.Wrap(err, apperrors.HostFailure, message)
}
