package local

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/darkkaiser/push-worker/internal/host"
	apperrors "github.com/darkkaiser/push-worker/internal/pkg/errors"
	applog "github.com/darkkaiser/push-worker/pkg/log"
)

// extendableEvent WaitUntil로 등록된 작업을 각자의 고루틴에서 즉시 실행하고, settle에서 모두 기다립니다.
type extendableEvent struct {
	eventType string

	// ctx 이벤트 타임아웃이 적용된 컨텍스트. 모든 작업이 이 컨텍스트로 실행된다.
	ctx context.Context

	mu      sync.Mutex
	wg      sync.WaitGroup
	errs    []error
	settled bool
}

var _ host.ExtendableEvent = (*extendableEvent)(nil)

func newExtendableEvent(ctx context.Context, eventType string) *extendableEvent {
	return &extendableEvent{
		eventType: eventType,
		ctx:       ctx,
	}
}

func (e *extendableEvent) Type() string {
	return e.eventType
}

func (e *extendableEvent) WaitUntil(task host.Task) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.settled {
		applog.WithComponentAndFields(component, applog.Fields{
			"event": e.eventType,
		}).Warn("이벤트가 이미 종료되어 수명 연장 요청을 무시합니다")

		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()

		err := runTask(e.ctx, task)
		if err != nil {
			e.mu.Lock()
			e.errs = append(e.errs, err)
			e.mu.Unlock()
		}
	}()
}

// settle 더 이상 작업을 받지 않도록 닫고, 등록된 작업이 모두 끝나거나 이벤트 컨텍스트가 끝날 때까지 기다립니다.
func (e *extendableEvent) settle() error {
	e.mu.Lock()
	e.settled = true
	e.mu.Unlock()

	done := make(chan struct{})
	go func() {
		e.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-e.ctx.Done():
		if errors.Is(e.ctx.Err(), context.DeadlineExceeded) {
			return apperrors.Wrap(e.ctx.Err(), apperrors.Timeout, fmt.Sprintf("'%s' 이벤트의 수명 연장 작업이 시간 제한 내에 끝나지 않았습니다", e.eventType))
		}
		return e.ctx.Err()
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	return errors.Join(e.errs...)
}

// runTask 작업의 패닉을 에러로 변환합니다.
func runTask(ctx context.Context, task host.Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = apperrors.New(apperrors.Internal, fmt.Sprintf("수명 연장 작업 실행 중 패닉이 발생했습니다: %v", r))
		}
	}()

	return task(ctx)
}

type pushEvent struct {
	*extendableEvent
	data []byte
}

var _ host.PushEvent = (*pushEvent)(nil)

func (e *pushEvent) Data() []byte {
	return e.data
}

type notificationEvent struct {
	*extendableEvent
	notification host.Notification
}

var _ host.NotificationEvent = (*notificationEvent)(nil)

func (e *notificationEvent) Notification() host.Notification {
	return e.notification
}
