package worker

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/darkkaiser/push-worker/internal/config"
	"github.com/darkkaiser/push-worker/internal/host"
	apperrors "github.com/darkkaiser/push-worker/internal/pkg/errors"
	"github.com/darkkaiser/push-worker/internal/pushapi"
	"github.com/darkkaiser/push-worker/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
)

const testAppCode = "ABCDE-12345"

const lastMessageResponse = `{"notification":{"chromeTitle":"Sale","content":"Hi","chromeIcon":null,"url":"https://shop.test/sale","messageHash":"h1"}}`

func TestNew_RequiresCollaborators(t *testing.T) {
	_, err := New(Options{})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.Internal))
}

func TestRunner_ApplicationCode(t *testing.T) {
	ctx := context.Background()

	t.Run("저장된 코드", func(t *testing.T) {
		env := newTestEnv(t, map[string]string{store.KeyApplicationCode: testAppCode})
		code, err := env.runner.ApplicationCode(ctx)
		require.NoError(t, err)
		assert.Equal(t, testAppCode, code)
	})

	for name, initial := range map[string]map[string]string{
		"코드 없음":  nil,
		"빈 코드":   {store.KeyApplicationCode: ""},
	} {
		t.Run(name, func(t *testing.T) {
			env := newTestEnv(t, initial)
			_, err := env.runner.ApplicationCode(ctx)
			require.ErrorIs(t, err, ErrNoApplicationCode)
			assert.True(t, apperrors.Is(err, apperrors.Configuration))
		})
	}
}

func TestRunner_InitAPI_ConcurrentCallsDeriveOnce(t *testing.T) {
	env := newTestEnv(t, map[string]string{store.KeyApplicationCode: testAppCode})
	env.registration.gate = make(chan struct{})

	const callers = 20
	errs := make(chan error, callers)

	var wg sync.WaitGroup
	for range callers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- env.runner.InitAPI(context.Background())
		}()
	}

	require.Eventually(t, func() bool {
		return env.runner.State() == StateInitializing
	}, time.Second, time.Millisecond)

	close(env.registration.gate)
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	assert.Equal(t, StateReady, env.runner.State())
	assert.EqualValues(t, 1, env.derivations.Load(), "인증 정보 유도는 한 번만 수행되어야 합니다")
	assert.EqualValues(t, 1, env.registration.subCalls.Load())

	// 이미 준비된 상태에서는 아무것도 하지 않는다.
	require.NoError(t, env.runner.InitAPI(context.Background()))
	assert.EqualValues(t, 1, env.derivations.Load())
}

func TestRunner_InitAPI_MissingCodeNeverConstructsClient(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()

	err := env.runner.InitAPI(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.Configuration))
	assert.Equal(t, StateUninitialized, env.runner.State())
	assert.Zero(t, env.derivations.Load())

	// 코드가 저장된 뒤 다음 호출에서 다시 시도한다.
	require.NoError(t, env.store.Set(ctx, store.KeyApplicationCode, testAppCode))
	require.NoError(t, env.runner.InitAPI(ctx))
	assert.Equal(t, StateReady, env.runner.State())
	assert.EqualValues(t, 1, env.derivations.Load())
}

func TestRunner_InitAPI_SubscriptionFailureIsRetried(t *testing.T) {
	env := newTestEnv(t, map[string]string{store.KeyApplicationCode: testAppCode})
	env.registration.subErr = errors.New("push manager unavailable")

	err := env.runner.InitAPI(context.Background())
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.HostFailure))
	assert.Equal(t, StateUninitialized, env.runner.State())

	env.registration.subErr = nil
	require.NoError(t, env.runner.InitAPI(context.Background()))
	assert.Equal(t, StateReady, env.runner.State())
}

func TestRunner_InitAPI_WaiterCancellationDoesNotAbortInitialization(t *testing.T) {
	env := newTestEnv(t, map[string]string{store.KeyApplicationCode: testAppCode})
	env.registration.gate = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() { firstErr <- env.runner.InitAPI(ctx) }()

	require.Eventually(t, func() bool {
		return env.runner.State() == StateInitializing
	}, time.Second, time.Millisecond)

	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)
	assert.Equal(t, StateInitializing, env.runner.State(), "첫 호출자가 취소해도 초기화는 계속되어야 합니다")

	secondErr := make(chan error, 1)
	go func() { secondErr <- env.runner.InitAPI(context.Background()) }()

	close(env.registration.gate)
	require.NoError(t, <-secondErr)
	assert.Equal(t, StateReady, env.runner.State())
	assert.EqualValues(t, 1, env.derivations.Load())
}

func TestRunner_ShowMessage_Scenario(t *testing.T) {
	env := newTestEnv(t, map[string]string{
		store.KeyDefaultNotificationTitle: "MyApp",
		store.KeyDefaultNotificationImage: "icon.png",
	})

	result := gjson.Parse(`{"notification":{"chromeTitle":null,"content":"Hi","chromeIcon":null,"url":null,"messageHash":"abc"}}`)
	require.NoError(t, env.runner.ShowMessage(context.Background(), result))

	shown := env.registration.shownNotifications()
	require.Len(t, shown, 1)
	assert.Equal(t, "MyApp", shown[0].title)
	assert.Equal(t, "Hi", shown[0].opts.Body)
	assert.Equal(t, "icon.png", shown[0].opts.Icon)
	assert.Equal(t, `{"url":"https://example.com","messageHash":"abc"}`, shown[0].opts.Tag)
}

func TestRunner_ShowMessage_NoDeduplication(t *testing.T) {
	env := newTestEnv(t, nil)
	result := gjson.Parse(lastMessageResponse)

	require.NoError(t, env.runner.ShowMessage(context.Background(), result))
	require.NoError(t, env.runner.ShowMessage(context.Background(), result))
	assert.Len(t, env.registration.shownNotifications(), 2)
}

func TestRunner_ShowMessage_MissingNotification(t *testing.T) {
	env := newTestEnv(t, nil)

	for _, raw := range []string{`{}`, `{"notification":null}`, `{"notification":"x"}`} {
		err := env.runner.ShowMessage(context.Background(), gjson.Parse(raw))
		require.Error(t, err, raw)
		assert.True(t, apperrors.Is(err, apperrors.Protocol), raw)
	}
	assert.Empty(t, env.registration.shownNotifications())
}

func TestRunner_Push(t *testing.T) {
	env := newTestEnv(t, map[string]string{store.KeyApplicationCode: testAppCode})
	env.api.On("DoAPIMethod", pushapi.MethodGetLastMessage, mock.MatchedBy(func(params map[string]any) bool {
		hwid, _ := params["hwid"].(string)
		return params["application"] == testAppCode && params["device_type"] == 11 && strings.HasPrefix(hwid, testAppCode+"_")
	})).Return(lastMessageResponse, nil).Once()

	event := newFakeEvent(host.EventPush)
	require.NoError(t, env.runner.Push(context.Background(), event))
	assert.Equal(t, 1, event.taskCount())
	require.NoError(t, event.run(context.Background()))

	env.api.AssertExpectations(t)

	shown := env.registration.shownNotifications()
	require.Len(t, shown, 1)
	assert.Equal(t, "Sale", shown[0].title)
	assert.Equal(t, "default.png", shown[0].opts.Icon)
	assert.Equal(t, `{"url":"https://shop.test/sale","messageHash":"h1"}`, shown[0].opts.Tag)
}

func TestRunner_Push_BrowserTypeOverride(t *testing.T) {
	env := newTestEnv(t, map[string]string{store.KeyApplicationCode: testAppCode}, func(o *Options) {
		o.BrowserType = 12
	})
	env.api.On("DoAPIMethod", pushapi.MethodGetLastMessage, hasParams(map[string]any{"device_type": 12})).
		Return(lastMessageResponse, nil).Once()

	event := newFakeEvent(host.EventPush)
	require.NoError(t, env.runner.Push(context.Background(), event))
	require.NoError(t, event.run(context.Background()))

	env.api.AssertExpectations(t)
}

func TestRunner_Push_FailuresRejectLifetimeExtension(t *testing.T) {
	t.Run("애플리케이션 코드 없음", func(t *testing.T) {
		env := newTestEnv(t, nil)

		event := newFakeEvent(host.EventPush)
		require.NoError(t, env.runner.Push(context.Background(), event))

		err := event.run(context.Background())
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.Configuration))
		env.api.AssertNotCalled(t, "DoAPIMethod", mock.Anything, mock.Anything)
		assert.Empty(t, env.registration.shownNotifications())
	})

	t.Run("RPC 실패", func(t *testing.T) {
		env := newTestEnv(t, map[string]string{store.KeyApplicationCode: testAppCode})
		env.api.On("DoAPIMethod", pushapi.MethodGetLastMessage, mock.Anything).
			Return("", apperrors.New(apperrors.Transport, "unreachable")).Once()

		event := newFakeEvent(host.EventPush)
		require.NoError(t, env.runner.Push(context.Background(), event))

		err := event.run(context.Background())
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.Transport))
		assert.Empty(t, env.registration.shownNotifications())
		assert.Equal(t, StateReady, env.runner.State(), "RPC 실패는 클라이언트 상태를 바꾸지 않아야 합니다")
	})
}

func TestRunner_Click_Scenario(t *testing.T) {
	env := newTestEnv(t, map[string]string{store.KeyApplicationCode: testAppCode})
	env.api.On("DoAPIMethod", pushapi.MethodPushStat, hasParams(map[string]any{"hash": "m1", "application": testAppCode})).
		Return("", nil).Once()

	event := newFakeClickEvent(`{"url":"https://site.test/x","messageHash":"m1"}`)
	require.NoError(t, env.runner.Click(context.Background(), event))

	// 창 열기와 알림 닫기는 통계 보고를 기다리지 않는다.
	assert.Equal(t, []string{"https://site.test/x"}, env.clients.openedURLs())
	assert.EqualValues(t, 1, event.notification.closed.Load())
	env.api.AssertNotCalled(t, "DoAPIMethod", pushapi.MethodPushStat, mock.Anything)

	require.NoError(t, event.run(context.Background()))

	env.api.AssertExpectations(t)
	assert.Equal(t, []string{"https://site.test/x"}, env.clients.openedURLs())
	assert.Empty(t, env.telemetryErrors())
}

func TestRunner_Click_StatFailureGoesToTelemetrySink(t *testing.T) {
	env := newTestEnv(t, map[string]string{store.KeyApplicationCode: testAppCode})
	env.api.On("DoAPIMethod", pushapi.MethodPushStat, mock.Anything).
		Return("", apperrors.New(apperrors.Transport, "unreachable")).Once()

	event := newFakeClickEvent(`{"url":"https://site.test/x","messageHash":"m1"}`)
	require.NoError(t, env.runner.Click(context.Background(), event))
	require.NoError(t, event.run(context.Background()), "통계 실패는 이벤트를 실패시키지 않아야 합니다")

	errs := env.telemetryErrors()
	require.Len(t, errs, 1)
	assert.True(t, apperrors.Is(errs[0], apperrors.Transport))
}

func TestRunner_Click_MalformedTag(t *testing.T) {
	t.Run("사용자 기본 URL", func(t *testing.T) {
		env := newTestEnv(t, map[string]string{store.KeyDefaultNotificationURL: "https://user.test"})

		event := newFakeClickEvent("not-json")
		err := env.runner.Click(context.Background(), event)
		require.Error(t, err)
		assert.True(t, apperrors.Is(err, apperrors.ParsingFailed))

		assert.EqualValues(t, 1, event.notification.closed.Load())
		assert.Equal(t, []string{"https://user.test"}, env.clients.openedURLs())
		assert.Zero(t, event.taskCount(), "태그를 해석할 수 없으면 통계를 보고하지 않습니다")
	})

	t.Run("라이브러리 기본 URL", func(t *testing.T) {
		env := newTestEnv(t, nil)

		event := newFakeClickEvent(`["array"]`)
		err := env.runner.Click(context.Background(), event)
		require.Error(t, err)
		assert.Equal(t, []string{testFallback.URL}, env.clients.openedURLs())
	})
}

func TestRunner_EmptyFallbackUsesLibraryDefaults(t *testing.T) {
	env := newTestEnv(t, nil, func(o *Options) {
		o.Fallback = Defaults{Image: "custom.png"}
	})

	result := gjson.Parse(`{"notification":{"content":"Hi","messageHash":"abc"}}`)
	require.NoError(t, env.runner.ShowMessage(context.Background(), result))

	shown := env.registration.shownNotifications()
	require.Len(t, shown, 1)
	assert.Equal(t, config.DefaultFallbackTitle, shown[0].title)
	assert.Equal(t, "custom.png", shown[0].opts.Icon, "지정된 필드는 유지해야 합니다")

	event := newFakeClickEvent("not-json")
	require.Error(t, env.runner.Click(context.Background(), event))
	assert.Equal(t, []string{config.DefaultFallbackURL}, env.clients.openedURLs())
}

func TestRunner_Click_RequiresNotificationEvent(t *testing.T) {
	env := newTestEnv(t, nil)

	err := env.runner.Click(context.Background(), newFakeEvent(host.EventNotificationClick))
	require.Error(t, err)
	assert.Empty(t, env.clients.openedURLs())
}

func TestRunner_Install(t *testing.T) {
	env := newTestEnv(t, nil)

	event := newFakeEvent(host.EventInstall)
	require.NoError(t, env.runner.Install(context.Background(), event))
	require.NoError(t, event.run(context.Background()))

	v, ok, err := env.store.Get(context.Background(), store.KeyWorkerSDKVersion)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "1.2.3", v)
	assert.EqualValues(t, 1, env.registration.skipWaiting.Load())
}

func TestRunner_Activate(t *testing.T) {
	for _, names := range [][]string{nil, {"a"}, {"a", "b", "pw-offline", "runtime-v2"}} {
		env := newTestEnv(t, nil)
		for _, n := range names {
			env.caches.names[n] = true
		}

		event := newFakeEvent(host.EventActivate)
		require.NoError(t, env.runner.Activate(context.Background(), event))
		require.NoError(t, event.run(context.Background()))

		keys, err := env.caches.Keys(context.Background())
		require.NoError(t, err)
		assert.Empty(t, keys, "activate 후 남은 캐시가 없어야 합니다: %v", names)
		assert.EqualValues(t, 1, env.clients.claimed.Load())
	}
}

func TestRunner_Activate_ScopedEviction(t *testing.T) {
	env := newTestEnv(t, nil, func(o *Options) {
		o.CacheEvictionPrefixes = []string{"pw-"}
	})
	for _, n := range []string{"pw-offline", "pw-assets", "other-app"} {
		env.caches.names[n] = true
	}

	event := newFakeEvent(host.EventActivate)
	require.NoError(t, env.runner.Activate(context.Background(), event))
	require.NoError(t, event.run(context.Background()))

	keys, err := env.caches.Keys(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"other-app"}, keys)
}

func TestRunner_RegisterDevice(t *testing.T) {
	env := newTestEnv(t, map[string]string{store.KeyApplicationCode: testAppCode})

	env.api.On("DoAPIMethod", pushapi.MethodRegisterDevice, hasParams(map[string]any{
		"push_token": "token-1",
		"public_key": "AQID",
	})).Return("", nil).Once()

	require.NoError(t, env.runner.RegisterDevice(context.Background()))

	env.api.AssertExpectations(t)
}

func TestRunner_Bind(t *testing.T) {
	env := newTestEnv(t, nil)
	target := &fakeTarget{listeners: make(map[string]host.Listener)}

	env.runner.Bind(target)

	for _, eventType := range []string{host.EventInstall, host.EventActivate, host.EventPush, host.EventNotificationClick} {
		assert.Contains(t, target.listeners, eventType)
	}
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "uninitialized", StateUninitialized.String())
	assert.Equal(t, "initializing", StateInitializing.String())
	assert.Equal(t, "ready", StateReady.String())
	assert.Equal(t, "unknown", State(42).String())
}
