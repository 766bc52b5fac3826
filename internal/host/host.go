// Package host 워커가 동작하는 이벤트 기반 호스트 런타임의 추상화를 정의합니다.
//
// 워커는 일반적인 메인 루프 대신 호스트가 전달하는 라이프사이클 이벤트(install, activate,
// push, notificationclick)에 반응합니다. 이벤트 핸들러가 반환된 뒤에도 비동기 작업이 끝날 때까지
// 이벤트를 살려 두려면 ExtendableEvent.WaitUntil로 수명을 연장해야 합니다.
package host

import (
	"context"
)

// 라이프사이클 이벤트 타입
const (
	EventInstall           = "install"
	EventActivate          = "activate"
	EventPush              = "push"
	EventNotificationClick = "notificationclick"
)

// Task WaitUntil로 등록되는 비동기 작업입니다.
// 호스트는 이벤트 타임아웃이 적용된 컨텍스트로 작업을 실행합니다.
type Task func(ctx context.Context) error

// ExtendableEvent 수명 연장이 가능한 라이프사이클 이벤트입니다.
type ExtendableEvent interface {
	Type() string

	// WaitUntil 작업이 끝날 때까지 이벤트의 수명을 연장합니다.
	// 작업이 실패하면 이벤트는 실패(rejected)로 정리됩니다.
	WaitUntil(task Task)
}

// PushEvent 푸시 메시지 도착 이벤트입니다. 페이로드는 보통 비어 있으며, 워커가 플랫폼에서 직접 가져옵니다.
type PushEvent interface {
	ExtendableEvent

	Data() []byte
}

// NotificationEvent 표시된 알림과의 상호작용(클릭) 이벤트입니다.
type NotificationEvent interface {
	ExtendableEvent

	Notification() Notification
}

// Notification 호스트의 알림 표시면에 떠 있는 알림입니다.
type Notification interface {
	ID() string
	Title() string
	Body() string
	Icon() string

	// Tag 표시 시 전달된 불투명 문자열입니다. 호스트는 해석하지 않습니다.
	Tag() string

	// Close 알림을 표시면에서 제거합니다.
	Close()
}

// NotificationOptions 알림 표시 옵션
type NotificationOptions struct {
	Body string
	Icon string
	Tag  string
}

// SubscriptionKeys 푸시 구독의 암호화 키 (base64url 인코딩)
type SubscriptionKeys struct {
	P256dh string `json:"p256dh"`
	Auth   string `json:"auth"`
}

// PushSubscription 호스트가 발급한 푸시 구독 정보입니다. 워커에게는 읽기 전용입니다.
type PushSubscription struct {
	Endpoint       string           `json:"endpoint"`
	ExpirationTime *int64           `json:"expirationTime,omitempty"`
	SubscriptionID string           `json:"subscriptionId,omitempty"`
	Keys           SubscriptionKeys `json:"keys"`
}

// Registration 워커 등록 정보와 그에 딸린 기본 동작입니다.
type Registration interface {
	// PushSubscription 현재 푸시 구독을 반환합니다. 구독이 없으면 nil을 반환합니다.
	PushSubscription(ctx context.Context) (*PushSubscription, error)

	ShowNotification(ctx context.Context, title string, opts NotificationOptions) error

	// SkipWaiting 대기 단계를 건너뛰고 즉시 활성화되도록 요청합니다.
	SkipWaiting(ctx context.Context) error
}

// Clients 워커가 제어하는 클라이언트(창)들입니다.
type Clients interface {
	// Claim 현재 열려 있는 클라이언트들의 제어권을 가져옵니다.
	Claim(ctx context.Context) error

	OpenWindow(ctx context.Context, url string) error
}

// CacheStorage 이름으로 구분되는 캐시 저장소입니다.
type CacheStorage interface {
	Keys(ctx context.Context) ([]string, error)

	// Delete 캐시를 삭제합니다. 존재하지 않았으면 false를 반환합니다.
	Delete(ctx context.Context, name string) (bool, error)
}

// Listener 라이프사이클 이벤트 리스너입니다.
// 반환된 에러는 WaitUntil 작업의 실패와 동일하게 취급됩니다.
type Listener func(ctx context.Context, event ExtendableEvent) error

// EventTarget 라이프사이클 이벤트 리스너를 등록받는 대상입니다.
type EventTarget interface {
	AddEventListener(eventType string, listener Listener)
}
