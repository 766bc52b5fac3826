package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/darkkaiser/push-worker/internal/credential"
	"github.com/darkkaiser/push-worker/internal/host"
	"github.com/darkkaiser/push-worker/internal/store"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

// fakeEvent WaitUntil로 등록된 작업을 모아 두었다가 run에서 동시에 실행합니다.
type fakeEvent struct {
	eventType string

	mu    sync.Mutex
	tasks []host.Task
}

func newFakeEvent(eventType string) *fakeEvent {
	return &fakeEvent{eventType: eventType}
}

func (e *fakeEvent) Type() string { return e.eventType }

func (e *fakeEvent) WaitUntil(task host.Task) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.tasks = append(e.tasks, task)
}

func (e *fakeEvent) taskCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.tasks)
}

func (e *fakeEvent) run(ctx context.Context) error {
	e.mu.Lock()
	tasks := append([]host.Task(nil), e.tasks...)
	e.mu.Unlock()

	errs := make([]error, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = task(ctx)
		}()
	}
	wg.Wait()

	return errors.Join(errs...)
}

type fakeNotification struct {
	tag    string
	closed atomic.Int32
}

func (n *fakeNotification) ID() string    { return "n1" }
func (n *fakeNotification) Title() string { return "" }
func (n *fakeNotification) Body() string  { return "" }
func (n *fakeNotification) Icon() string  { return "" }
func (n *fakeNotification) Tag() string   { return n.tag }
func (n *fakeNotification) Close()        { n.closed.Add(1) }

type fakeNotificationEvent struct {
	*fakeEvent
	notification *fakeNotification
}

func newFakeClickEvent(tag string) *fakeNotificationEvent {
	return &fakeNotificationEvent{
		fakeEvent:    newFakeEvent(host.EventNotificationClick),
		notification: &fakeNotification{tag: tag},
	}
}

func (e *fakeNotificationEvent) Notification() host.Notification { return e.notification }

type shownNotification struct {
	title string
	opts  host.NotificationOptions
}

type fakeRegistration struct {
	sub    *host.PushSubscription
	subErr error

	// gate가 nil이 아니면 PushSubscription은 gate가 닫힐 때까지 대기한다.
	gate chan struct{}

	subCalls    atomic.Int32
	skipWaiting atomic.Int32

	mu    sync.Mutex
	shown []shownNotification
}

func (r *fakeRegistration) PushSubscription(ctx context.Context) (*host.PushSubscription, error) {
	r.subCalls.Add(1)
	if r.gate != nil {
		select {
		case <-r.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return r.sub, r.subErr
}

func (r *fakeRegistration) ShowNotification(_ context.Context, title string, opts host.NotificationOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shown = append(r.shown, shownNotification{title: title, opts: opts})
	return nil
}

func (r *fakeRegistration) SkipWaiting(_ context.Context) error {
	r.skipWaiting.Add(1)
	return nil
}

func (r *fakeRegistration) shownNotifications() []shownNotification {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]shownNotification(nil), r.shown...)
}

type fakeClients struct {
	claimed atomic.Int32

	mu     sync.Mutex
	opened []string
}

func (c *fakeClients) Claim(_ context.Context) error {
	c.claimed.Add(1)
	return nil
}

func (c *fakeClients) OpenWindow(_ context.Context, url string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.opened = append(c.opened, url)
	return nil
}

func (c *fakeClients) openedURLs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.opened...)
}

type fakeCaches struct {
	mu    sync.Mutex
	names map[string]bool
}

func newFakeCaches(names ...string) *fakeCaches {
	c := &fakeCaches{names: make(map[string]bool)}
	for _, n := range names {
		c.names[n] = true
	}
	return c
}

func (c *fakeCaches) Keys(_ context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var keys []string
	for n := range c.names {
		keys = append(keys, n)
	}
	return keys, nil
}

func (c *fakeCaches) Delete(_ context.Context, name string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	existed := c.names[name]
	delete(c.names, name)
	return existed, nil
}

// mockAPI 플랫폼 API 전송(DoAPIMethod)의 Mock 구현체입니다.
//
// Mock 설정 예시:
//
//	env.api.On("DoAPIMethod", pushapi.MethodGetLastMessage, mock.Anything).Return(`{"notification":{}}`, nil)
type mockAPI struct {
	mock.Mock
}

func newMockAPI(t *testing.T) *mockAPI {
	m := &mockAPI{}
	m.Test(t)
	return m
}

func (m *mockAPI) DoAPIMethod(_ context.Context, method string, params map[string]any) (gjson.Result, error) {
	args := m.Called(method, params)
	return gjson.Parse(args.String(0)), args.Error(1)
}

// hasParams params가 지정한 값들을 모두 포함하는지 확인하는 Matcher
func hasParams(want map[string]any) any {
	return mock.MatchedBy(func(params map[string]any) bool {
		for k, v := range want {
			if params[k] != v {
				return false
			}
		}
		return true
	})
}

// testEnv 러너와 모든 가짜 협력자를 묶은 테스트 환경
type testEnv struct {
	runner       *Runner
	store        *store.MemoryStore
	api          *mockAPI
	registration *fakeRegistration
	clients      *fakeClients
	caches       *fakeCaches
	derivations  *atomic.Int32

	telemetryMu   sync.Mutex
	telemetryErrs []error
}

var testFallback = Defaults{Title: "Default", Image: "default.png", URL: "https://example.com"}

func newTestEnv(t *testing.T, initial map[string]string, mutate ...func(o *Options)) *testEnv {
	t.Helper()

	env := &testEnv{
		store: store.NewMemoryStore(initial),
		api:   newMockAPI(t),
		registration: &fakeRegistration{
			sub: &host.PushSubscription{
				Endpoint: "https://fcm.googleapis.com/fcm/send/token-1",
				Keys:     host.SubscriptionKeys{P256dh: "AQID"},
			},
		},
		clients:     &fakeClients{},
		caches:      newFakeCaches(),
		derivations: &atomic.Int32{},
	}

	opts := Options{
		Store:       env.store,
		DoAPIMethod: env.api.DoAPIMethod,
		Derive: func(code string, sub *host.PushSubscription) credential.Credentials {
			env.derivations.Add(1)
			return credential.Derive(code, sub)
		},
		Registration: env.registration,
		Clients:      env.clients,
		Caches:       env.caches,
		Fallback:     testFallback,
		Version:      "1.2.3",
		OnTelemetryError: func(err error) {
			env.telemetryMu.Lock()
			defer env.telemetryMu.Unlock()
			env.telemetryErrs = append(env.telemetryErrs, err)
		},
	}
	for _, m := range mutate {
		m(&opts)
	}

	r, err := New(opts)
	require.NoError(t, err)
	env.runner = r

	return env
}

func (e *testEnv) telemetryErrors() []error {
	e.telemetryMu.Lock()
	defer e.telemetryMu.Unlock()
	return append([]error(nil), e.telemetryErrs...)
}

type fakeTarget struct {
	listeners map[string]host.Listener
}

func (t *fakeTarget) AddEventListener(eventType string, listener host.Listener) {
	t.listeners[eventType] = listener
}
