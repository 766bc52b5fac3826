// Package log logrus 기반의 애플리케이션 로깅 시스템을 제공합니다.
//
// 로그는 레벨에 따라 메인/중요(Critical)/상세(Verbose) 파일과 콘솔로 분배되며,
// 각 파일은 lumberjack으로 로테이션됩니다.
package log

import (
	"github.com/sirupsen/logrus"
)

// StandardLogger 전역 logrus 로거를 반환합니다.
func StandardLogger() *Logger {
	return logrus.StandardLogger()
}

// WithFields 전역 로거에 필드를 추가한 Entry를 반환합니다.
func WithFields(fields Fields) *Entry {
	return logrus.WithFields(fields)
}

// WithComponent component 필드가 설정된 Entry를 반환합니다.
func WithComponent(component string) *Entry {
	return logrus.WithField("component", component)
}

// WithComponentAndFields component 필드와 추가 필드가 설정된 Entry를 반환합니다.
func WithComponentAndFields(component string, fields Fields) *Entry {
	return logrus.WithField("component", component).WithFields(fields)
}

// ParseLevel 문자열을 로그 레벨로 변환합니다.
func ParseLevel(level string) (Level, error) {
	return logrus.ParseLevel(level)
}
