// Package errors 푸시 워커 전용 에러 처리 시스템을 제공합니다.
//
// 모든 에러는 ErrorType으로 분류되며 Wrap으로 원인 에러를 체이닝할 수 있습니다.
// 워커는 어떠한 에러도 자체적으로 복구하거나 재시도하지 않는다. 이 패키지는
// 실패의 성격(설정 누락, 통신 실패, 프로토콜 위반 등)을 호스트까지 손실 없이 전달하는 데 쓰입니다.
//
//	if err != nil {
//	    return errors.Wrap(err, errors.Transport, "getLastMessage 호출에 실패했습니다")
//	}
//
//	if errors.Is(err, errors.Configuration) {
//	    // 애플리케이션 코드 누락 등
//	}
package errors

import (
	"errors"
	"fmt"
	"io"
	"strings"
)

// AppError 에러 타입, 메시지, 원인 에러, 생성 시점의 스택을 함께 보관하는 에러입니다.
type AppError struct {
	errType ErrorType
	message string
	cause   error
	stack   []StackFrame
}

func newAppError(errType ErrorType, message string, cause error) *AppError {
	return &AppError{
		errType: errType,
		message: message,
		cause:   cause,
		stack:   captureStack(defaultCallerSkip),
	}
}

// New 지정된 타입과 메시지로 새 에러를 생성합니다.
func New(errType ErrorType, message string) error {
	return newAppError(errType, message, nil)
}

// Wrap 원인 에러에 타입과 메시지를 덧붙입니다. err가 nil이면 nil을 반환합니다.
func Wrap(err error, errType ErrorType, message string) error {
	if err == nil {
		return nil
	}
	return newAppError(errType, message, err)
}

func (e *AppError) Type() ErrorType { return e.errType }

func (e *AppError) Message() string { return e.message }

// Stack 에러 생성 시점에 캡처된 스택 프레임을 반환합니다.
func (e *AppError) Stack() []StackFrame { return e.stack }

func (e *AppError) Unwrap() error { return e.cause }

func (e *AppError) Error() string {
	var sb strings.Builder
	e.writeHeader(&sb)
	if e.cause != nil {
		sb.WriteString(": ")
		sb.WriteString(e.cause.Error())
	}
	return sb.String()
}

func (e *AppError) writeHeader(w io.Writer) {
	fmt.Fprintf(w, "[%s] %s", e.errType, e.message)
}

// Format %+v는 스택과 원인 체인을 함께 출력합니다.
func (e *AppError) Format(s fmt.State, verb rune) {
	switch {
	case verb == 'v' && s.Flag('+'):
		e.writeVerbose(s)
	case verb == 'v' || verb == 's':
		io.WriteString(s, e.Error())
	case verb == 'q':
		fmt.Fprintf(s, "%q", e.Error())
	}
}

func (e *AppError) writeVerbose(s fmt.State) {
	e.writeHeader(s)

	// 스택은 체인의 끝이거나 외부 에러와 만나는 지점에서만 출력한다.
	var inner *AppError
	if !errors.As(e.cause, &inner) && len(e.stack) > 0 {
		io.WriteString(s, "\nStack trace:")
		for _, frame := range e.stack {
			fmt.Fprintf(s, "\n\t%s:%d %s", frame.File, frame.Line, frame.shortFunction())
		}
	}

	if e.cause == nil {
		return
	}

	io.WriteString(s, "\nCaused by:\n")
	if f, ok := e.cause.(fmt.Formatter); ok {
		f.Format(s, 'v')
	} else {
		fmt.Fprintf(s, "\t%v", e.cause)
	}
}

// Is 에러 체인에 지정된 타입의 AppError가 하나라도 있으면 true를 반환합니다.
// errors.Join으로 합쳐진 에러는 각 갈래를 모두 탐색한다.
func Is(err error, errType ErrorType) bool {
	found := false
	walk(err, func(e *AppError) bool {
		found = e.errType == errType
		return !found
	})
	return found
}

// UnderlyingType 체인에서 가장 안쪽에 있는 AppError의 타입을 반환합니다.
// AppError가 없으면 Unknown.
func UnderlyingType(err error) ErrorType {
	t := Unknown
	walk(err, func(e *AppError) bool {
		t = e.errType
		return true
	})
	return t
}

// walk 에러 체인을 바깥에서 안쪽 순서로 따라가며 AppError마다 visit를 호출합니다. visit가 false를 반환하면 중단한다.
func walk(err error, visit func(*AppError) bool) bool {
	for err != nil {
		if appErr, ok := err.(*AppError); ok && !visit(appErr) {
			return false
		}

		if joined, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range joined.Unwrap() {
				if !walk(e, visit) {
					return false
				}
			}
			return true
		}

		err = errors.Unwrap(err)
	}
	return true
}
