// Package concurrency 동시성 제어 유틸리티를 제공합니다.
package concurrency

import (
	"context"
	"sync"
)

// KeyedMutex 키마다 독립적으로 동작하는 컨텍스트 인식 락입니다.
// 서로 다른 키는 서로를 막지 않으며, 대기자와 소유자가 모두 사라진 키는 곧바로 정리된다.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
}

// slot 용량 1의 채널에 토큰을 넣은 쪽이 락을 소유한다.
type slot struct {
	token chan struct{}
	refs  int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{
		slots: make(map[string]*slot),
	}
}

// Len 소유 중이거나 대기 중인 키의 개수를 반환합니다.
func (km *KeyedMutex) Len() int {
	km.mu.Lock()
	defer km.mu.Unlock()

	return len(km.slots)
}

// Lock 키에 대한 락을 획득하고 해제 함수를 반환합니다.
// ctx가 먼저 끝나면 락을 얻지 못한 채 ctx.Err()를 반환한다. 해제 함수는 여러 번 호출해도 안전하다.
func (km *KeyedMutex) Lock(ctx context.Context, key string) (func(), error) {
	km.mu.Lock()
	s, ok := km.slots[key]
	if !ok {
		s = &slot{token: make(chan struct{}, 1)}
		km.slots[key] = s
	}
	s.refs++
	km.mu.Unlock()

	select {
	case s.token <- struct{}{}:
	case <-ctx.Done():
		km.release(key, s)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-s.token
			km.release(key, s)
		})
	}, nil
}

func (km *KeyedMutex) release(key string, s *slot) {
	km.mu.Lock()
	defer km.mu.Unlock()

	s.refs--
	if s.refs == 0 {
		delete(km.slots, key)
	}
}
