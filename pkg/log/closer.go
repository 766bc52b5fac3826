package log

import (
	"errors"
	"io"
	"sync/atomic"
)

// closer hook과 로그 파일들을 한 번에 정리합니다.
// hook을 먼저 닫아 닫히는 중인 파일로 쓰기가 일어나지 않게 하고, 일부 파일 닫기에 실패해도 나머지는 계속 닫습니다.
type closer struct {
	closers []io.Closer

	hook *hook

	closed atomic.Bool
}

func (c *closer) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}

	if c.hook != nil {
		c.hook.Close()
	}

	var errs error
	for _, cl := range c.closers {
		if cl == nil {
			continue
		}

		if s, ok := cl.(interface{ Sync() error }); ok {
			_ = s.Sync()
		}

		if err := cl.Close(); err != nil {
			errs = errors.Join(errs, err)
		}
	}

	return errs
}
