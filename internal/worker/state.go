package worker

import (
	"context"
	"fmt"
	"sync"

	apperrors "github.com/darkkaiser/push-worker/internal/pkg/errors"

	"github.com/darkkaiser/push-worker/internal/pushapi"
)

// State API 클라이언트 초기화 상태입니다.
type State int

const (
	StateUninitialized State = iota
	StateInitializing
	StateReady
)

var stateNames = [...]string{"uninitialized", "initializing", "ready"}

func (s State) String() string {
	if int(s) < len(stateNames) {
		return stateNames[s]
	}
	return "unknown"
}

// session 초기화가 끝난 뒤 러너의 수명 동안 유지되는 값
type session struct {
	client     *pushapi.Client
	deviceType int
}

// initCall 진행 중인 초기화 하나를 나타냅니다. done이 닫힌 뒤에만 결과를 읽을 수 있다.
type initCall struct {
	done    chan struct{}
	session *session
	err     error
}

// apiHolder API 클라이언트의 지연 초기화를 관리합니다.
//
// 초기화가 진행 중일 때 들어온 호출은 새로 유도하지 않고 진행 중인 초기화의 결과를 기다린다.
// 초기화에 실패하면 상태가 Uninitialized로 돌아가 다음 호출에서 다시 시도하며,
// 한 번 Ready가 되면 다시 초기화하지 않는다.
type apiHolder struct {
	mu       sync.Mutex
	ready    *session
	inflight *initCall
}

func (h *apiHolder) state() State {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch {
	case h.ready != nil:
		return StateReady
	case h.inflight != nil:
		return StateInitializing
	default:
		return StateUninitialized
	}
}

// get 준비된 세션을 반환하고, 없으면 init으로 초기화합니다.
//
// 초기화는 첫 호출자의 취소와 무관하게 끝까지 진행된다. 각 호출자는 자신의 ctx가 취소되면
// 기다리기를 멈출 뿐이다.
func (h *apiHolder) get(ctx context.Context, init func(ctx context.Context) (*session, error)) (*session, error) {
	h.mu.Lock()
	if h.ready != nil {
		s := h.ready
		h.mu.Unlock()
		return s, nil
	}

	call := h.inflight
	if call == nil {
		call = &initCall{done: make(chan struct{})}
		h.inflight = call

		go h.run(context.WithoutCancel(ctx), call, init)
	}
	h.mu.Unlock()

	select {
	case <-call.done:
		return call.session, call.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (h *apiHolder) run(ctx context.Context, call *initCall, init func(ctx context.Context) (*session, error)) {
	s, err := safeInit(ctx, init)

	h.mu.Lock()
	if err == nil {
		h.ready = s
	}
	h.inflight = nil
	h.mu.Unlock()

	call.session, call.err = s, err
	close(call.done)
}

// safeInit 초기화 함수의 패닉을 에러로 변환합니다. 대기 중인 호출자가 영원히 멈추지 않게 한다.
func safeInit(ctx context.Context, init func(ctx context.Context) (*session, error)) (s *session, err error) {
	defer func() {
		if r := recover(); r != nil {
			s, err = nil, apperrors.New(apperrors.Internal, fmt.Sprintf("API 클라이언트 초기화 중 패닉이 발생했습니다: %v", r))
		}
	}()

	return init(ctx)
}
