package log

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/darkkaiser/push-worker/pkg/strutil"
)

// route 레벨 조건을 만족하는 로그를 받아 기록하는 출력 대상입니다.
type route struct {
	name   string
	w      io.Writer
	accept func(Level) bool

	// bestEffort 쓰기 실패를 경고만 하고 Fire의 에러로 돌려주지 않는다.
	bestEffort bool
}

func acceptAll(Level) bool { return true }

// acceptMain INFO 이상. 상세 로그는 메인 로그에 남기지 않는다.
func acceptMain(l Level) bool { return l <= InfoLevel }

func acceptCritical(l Level) bool { return l <= ErrorLevel }

func acceptVerbose(l Level) bool { return l >= DebugLevel }

// hook 로그를 등록된 route들로 분배합니다.
// 분배 전에 redactKeys에 해당하는 필드 값을 마스킹하여 푸시 토큰, HWID, 인증 키가 원문으로 기록되지 않게 한다.
type hook struct {
	formatter Formatter
	routes    []route

	redactKeys map[string]struct{}

	// 로그 기록(Read Lock)과 종료 처리(Write Lock) 사이의 동시성 제어
	mu     sync.RWMutex
	closed bool
}

func newHook(formatter Formatter, redactFields []string) *hook {
	keys := make(map[string]struct{}, len(redactFields))
	for _, f := range redactFields {
		keys[f] = struct{}{}
	}

	return &hook{formatter: formatter, redactKeys: keys}
}

func (h *hook) addRoute(name string, w io.Writer, accept func(Level) bool, bestEffort bool) {
	h.routes = append(h.routes, route{name: name, w: w, accept: accept, bestEffort: bestEffort})
}

func (h *hook) Levels() []Level {
	return AllLevels
}

func (h *hook) Fire(entry *Entry) error {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return nil
	}

	msg, err := h.formatter.Format(h.redact(entry))
	if err != nil {
		return err
	}

	var errs error
	for _, r := range h.routes {
		if !r.accept(entry.Level) {
			continue
		}

		if _, err := r.w.Write(msg); err != nil {
			fmt.Fprintf(os.Stderr, "[LOG-SYSTEM-WARN] %s 로그 쓰기 실패: %v\n", r.name, err)
			if !r.bestEffort {
				errs = errors.Join(errs, err)
			}
		}
	}

	return errs
}

// redact 마스킹할 필드가 있으면 필드 맵을 복사한 Entry를 반환합니다. 원본 Entry는 수정하지 않는다.
func (h *hook) redact(entry *Entry) *Entry {
	if len(h.redactKeys) == 0 {
		return entry
	}

	var data Fields
	for k, v := range entry.Data {
		if _, ok := h.redactKeys[k]; !ok {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}

		if data == nil {
			data = make(Fields, len(entry.Data))
			for k2, v2 := range entry.Data {
				data[k2] = v2
			}
		}
		data[k] = strutil.Mask(s)
	}

	if data == nil {
		return entry
	}

	redacted := *entry
	redacted.Data = data
	return &redacted
}

// Close 진행 중인 Fire 호출이 끝날 때까지 기다린 뒤 이후의 기록을 차단합니다.
func (h *hook) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.closed = true

	return nil
}
