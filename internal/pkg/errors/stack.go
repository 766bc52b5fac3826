package errors

import (
	"path/filepath"
	"runtime"
	"strings"
)

// defaultCallerSkip runtime.Callers, captureStack, newAppError, New/Wrap 프레임을 건너뜁니다.
const defaultCallerSkip = 4

// maxStackFrames 에러 하나에 보관하는 최대 스택 프레임 수
const maxStackFrames = 5

// StackFrame 에러 발생 지점의 호출 스택 정보
type StackFrame struct {
	File     string
	Line     int
	Function string
}

// shortFunction 패키지 경로를 제외한 "패키지.함수" 형태의 이름
func (f StackFrame) shortFunction() string {
	if idx := strings.LastIndexByte(f.Function, '/'); idx != -1 {
		return f.Function[idx+1:]
	}
	return f.Function
}

func captureStack(skip int) []StackFrame {
	pc := make([]uintptr, maxStackFrames)
	n := runtime.Callers(skip, pc)
	if n == 0 {
		return nil
	}

	callersFrames := runtime.CallersFrames(pc[:n])

	frames := make([]StackFrame, 0, n)
	for {
		frame, more := callersFrames.Next()
		frames = append(frames, StackFrame{
			File:     filepath.Base(frame.File),
			Line:     frame.Line,
			Function: frame.Function,
		})
		if !more {
			break
		}
	}

	return frames
}
