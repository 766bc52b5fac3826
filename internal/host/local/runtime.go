// Package local 단일 프로세스 안에서 동작하는 호스트 런타임을 제공합니다.
//
// Runtime은 이벤트 리스너 등록과 디스패치, WaitUntil 작업의 수명 관리, 푸시 구독 제공,
// 표시된 알림 레지스트리, 클라이언트 창 열기를 담당하며, 실제 알림 표시는 Presenter에 위임합니다.
package local

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/darkkaiser/push-worker/internal/host"
	apperrors "github.com/darkkaiser/push-worker/internal/pkg/errors"
	applog "github.com/darkkaiser/push-worker/pkg/log"
	"github.com/google/uuid"
)

const component = "host.local"

// defaultEventTimeout 이벤트 수명 연장의 기본 시간 제한
const defaultEventTimeout = 60 * time.Second

// dismissTimeout 알림 닫기 요청을 표시면에 전달할 때의 시간 제한
const dismissTimeout = 5 * time.Second

// State 호스트 런타임의 라이프사이클 상태입니다.
type State int32

const (
	StateNew State = iota
	StateInstalling
	StateActivating
	StateActive
	StateRedundant
)

var stateNames = [...]string{"new", "installing", "activating", "active", "redundant"}

func (s State) String() string {
	if int(s) >= 0 && int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// Options 런타임 생성 옵션입니다.
type Options struct {
	// Subscription nil이면 워커에게 구독이 없다고 응답한다.
	Subscription *host.PushSubscription

	Presenter Presenter

	// EventTimeout 0 이하면 기본값(60초)을 사용한다.
	EventTimeout time.Duration
}

// Runtime 워커를 호스팅하는 로컬 런타임입니다. host.EventTarget, host.Registration, host.Clients를 구현한다.
type Runtime struct {
	subscription *host.PushSubscription
	presenter    Presenter
	eventTimeout time.Duration

	mu        sync.RWMutex
	listeners map[string][]host.Listener

	notifications *registry

	state       atomic.Int32
	skipWaiting atomic.Bool
	claimed     atomic.Bool
}

var (
	_ host.EventTarget  = (*Runtime)(nil)
	_ host.Registration = (*Runtime)(nil)
	_ host.Clients      = (*Runtime)(nil)
)

// New 런타임을 생성합니다.
func New(opts Options) *Runtime {
	presenter := opts.Presenter
	if presenter == nil {
		presenter = LogPresenter{}
	}

	eventTimeout := opts.EventTimeout
	if eventTimeout <= 0 {
		eventTimeout = defaultEventTimeout
	}

	return &Runtime{
		subscription:  opts.Subscription,
		presenter:     presenter,
		eventTimeout:  eventTimeout,
		listeners:     make(map[string][]host.Listener),
		notifications: newRegistry(),
	}
}

// State 현재 라이프사이클 상태를 반환합니다.
func (rt *Runtime) State() State {
	return State(rt.state.Load())
}

// Claimed 워커가 클라이언트 제어권을 가져갔는지 여부를 반환합니다.
func (rt *Runtime) Claimed() bool {
	return rt.claimed.Load()
}

func (rt *Runtime) AddEventListener(eventType string, listener host.Listener) {
	rt.mu.Lock()
	defer rt.mu.Unlock()

	rt.listeners[eventType] = append(rt.listeners[eventType], listener)
}

// Start install과 activate 이벤트를 차례로 디스패치하여 워커를 활성화합니다.
// install이 실패하면 런타임은 redundant 상태가 되고 activate를 디스패치하지 않는다.
func (rt *Runtime) Start(ctx context.Context) error {
	rt.state.Store(int32(StateInstalling))
	if err := rt.Dispatch(ctx, host.EventInstall); err != nil {
		rt.state.Store(int32(StateRedundant))
		return err
	}

	rt.state.Store(int32(StateActivating))
	err := rt.Dispatch(ctx, host.EventActivate)

	// activate가 실패해도 워커는 활성화된다.
	rt.state.Store(int32(StateActive))

	applog.WithComponentAndFields(component, applog.Fields{
		"skip_waiting": rt.skipWaiting.Load(),
		"claimed":      rt.claimed.Load(),
	}).Info("워커 활성화 완료")

	return err
}

// Dispatch 부가 정보가 없는 라이프사이클 이벤트(install, activate)를 디스패치합니다.
func (rt *Runtime) Dispatch(ctx context.Context, eventType string) error {
	return rt.dispatch(ctx, eventType, func(e *extendableEvent) host.ExtendableEvent { return e })
}

// DispatchPush 푸시 이벤트를 디스패치합니다.
func (rt *Runtime) DispatchPush(ctx context.Context, data []byte) error {
	return rt.dispatch(ctx, host.EventPush, func(e *extendableEvent) host.ExtendableEvent {
		return &pushEvent{extendableEvent: e, data: data}
	})
}

// DispatchClick 표시 중인 알림에 대한 클릭 이벤트를 디스패치합니다.
func (rt *Runtime) DispatchClick(ctx context.Context, notificationID string) error {
	n, ok := rt.notifications.get(notificationID)
	if !ok {
		return apperrors.New(apperrors.NotFound, fmt.Sprintf("표시 중인 알림을 찾을 수 없습니다: '%s'", notificationID))
	}

	return rt.dispatchClick(ctx, n)
}

// DispatchClickTag 레지스트리에 없는 알림(예: 이전 실행에서 표시된 알림)을 tag만으로 클릭합니다.
func (rt *Runtime) DispatchClickTag(ctx context.Context, tag string) error {
	return rt.dispatchClick(ctx, &notification{info: NotificationInfo{Tag: tag}})
}

func (rt *Runtime) dispatchClick(ctx context.Context, n *notification) error {
	return rt.dispatch(ctx, host.EventNotificationClick, func(e *extendableEvent) host.ExtendableEvent {
		return &notificationEvent{extendableEvent: e, notification: n}
	})
}

// dispatch 리스너를 등록 순서대로 호출한 뒤 WaitUntil 작업이 모두 끝날 때까지 기다립니다.
// 실패는 로그로 남기고 호출자에게도 반환한다.
func (rt *Runtime) dispatch(ctx context.Context, eventType string, wrap func(e *extendableEvent) host.ExtendableEvent) error {
	rt.mu.RLock()
	listeners := append([]host.Listener(nil), rt.listeners[eventType]...)
	rt.mu.RUnlock()

	eventCtx, cancel := context.WithTimeout(ctx, rt.eventTimeout)
	defer cancel()

	base := newExtendableEvent(eventCtx, eventType)
	event := wrap(base)

	start := time.Now()

	var errs []error
	for _, listener := range listeners {
		if err := listener(eventCtx, event); err != nil {
			errs = append(errs, err)
		}
	}
	if err := base.settle(); err != nil {
		errs = append(errs, err)
	}

	err := errors.Join(errs...)

	fields := applog.Fields{
		"event":     eventType,
		"listeners": len(listeners),
		"duration":  time.Since(start).String(),
	}
	if err != nil {
		fields["error"] = err
		applog.WithComponentAndFields(component, fields).Error("이벤트 처리 실패")
	} else {
		applog.WithComponentAndFields(component, fields).Debug("이벤트 처리 완료")
	}

	return err
}

// PushSubscription 설정된 푸시 구독의 복사본을 반환합니다.
func (rt *Runtime) PushSubscription(ctx context.Context) (*host.PushSubscription, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if rt.subscription == nil {
		return nil, nil
	}

	sub := *rt.subscription
	return &sub, nil
}

// ShowNotification 알림을 레지스트리에 등록하고 표시면에 표시합니다.
func (rt *Runtime) ShowNotification(ctx context.Context, title string, opts host.NotificationOptions) error {
	n := &notification{
		info: NotificationInfo{
			ID:      uuid.NewString(),
			Title:   title,
			Body:    opts.Body,
			Icon:    opts.Icon,
			Tag:     opts.Tag,
			ShownAt: time.Now(),
		},
		onClose: rt.closeNotification,
	}

	rt.notifications.add(n)

	if err := rt.presenter.Present(ctx, n.info); err != nil {
		rt.notifications.remove(n.info.ID)
		return apperrors.Wrap(err, apperrors.HostFailure, "알림 표시면에 알림을 표시하지 못했습니다")
	}

	return nil
}

func (rt *Runtime) closeNotification(id string) {
	if !rt.notifications.remove(id) {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), dismissTimeout)
	defer cancel()

	if err := rt.presenter.Dismiss(ctx, id); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"notification_id": id,
			"error":           err,
		}).Warn("알림 표시면에서 알림을 내리지 못했습니다")
	}
}

// Notifications 표시 중인 알림 목록을 반환합니다.
func (rt *Runtime) Notifications() []NotificationInfo {
	return rt.notifications.list()
}

func (rt *Runtime) SkipWaiting(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rt.skipWaiting.Store(true)
	return nil
}

func (rt *Runtime) Claim(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	rt.claimed.Store(true)
	return nil
}

func (rt *Runtime) OpenWindow(ctx context.Context, url string) error {
	if err := rt.presenter.OpenWindow(ctx, url); err != nil {
		return apperrors.Wrap(err, apperrors.HostFailure, fmt.Sprintf("창을 열지 못했습니다: '%s'", url))
	}
	return nil
}
