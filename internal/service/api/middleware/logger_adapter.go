package middleware

import (
	"io"

	applog "github.com/darkkaiser/push-worker/pkg/log"
	"github.com/labstack/gommon/log"
)

// Logger Echo의 echo.Logger 인터페이스를 애플리케이션 로거로 구현하는 어댑터입니다.
// Echo 내부 로그도 애플리케이션 로그와 같은 형식, 같은 출력으로 기록된다.
type Logger struct {
	*applog.Logger
}

func (l Logger) Output() io.Writer {
	return l.Logger.Out
}

func (l Logger) SetOutput(w io.Writer) {
	l.Logger.SetOutput(w)
}

// Prefix 애플리케이션 로거는 접두사를 사용하지 않는다.
func (l Logger) Prefix() string {
	return ""
}

func (l Logger) SetPrefix(string) {}

func (l Logger) Level() log.Lvl {
	switch l.Logger.Level {
	case applog.TraceLevel, applog.DebugLevel:
		return log.DEBUG
	case applog.InfoLevel:
		return log.INFO
	case applog.WarnLevel:
		return log.WARN
	case applog.ErrorLevel:
		return log.ERROR
	}

	return log.OFF
}

// SetLevel 로그 레벨은 애플리케이션 설정이 관리하므로 OFF 요청은 무시한다.
func (l Logger) SetLevel(lvl log.Lvl) {
	switch lvl {
	case log.DEBUG:
		l.Logger.SetLevel(applog.DebugLevel)
	case log.INFO:
		l.Logger.SetLevel(applog.InfoLevel)
	case log.WARN:
		l.Logger.SetLevel(applog.WarnLevel)
	case log.ERROR:
		l.Logger.SetLevel(applog.ErrorLevel)
	}
}

func (l Logger) SetHeader(string) {}

func (l Logger) Print(i ...any)                    { l.Logger.Print(i...) }
func (l Logger) Printf(format string, args ...any) { l.Logger.Printf(format, args...) }
func (l Logger) Printj(j log.JSON)                 { l.Logger.WithFields(applog.Fields(j)).Print() }

func (l Logger) Debug(i ...any)                    { l.Logger.Debug(i...) }
func (l Logger) Debugf(format string, args ...any) { l.Logger.Debugf(format, args...) }
func (l Logger) Debugj(j log.JSON)                 { l.Logger.WithFields(applog.Fields(j)).Debug() }

func (l Logger) Info(i ...any)                    { l.Logger.Info(i...) }
func (l Logger) Infof(format string, args ...any) { l.Logger.Infof(format, args...) }
func (l Logger) Infoj(j log.JSON)                 { l.Logger.WithFields(applog.Fields(j)).Info() }

func (l Logger) Warn(i ...any)                    { l.Logger.Warn(i...) }
func (l Logger) Warnf(format string, args ...any) { l.Logger.Warnf(format, args...) }
func (l Logger) Warnj(j log.JSON)                 { l.Logger.WithFields(applog.Fields(j)).Warn() }

func (l Logger) Error(i ...any)                    { l.Logger.Error(i...) }
func (l Logger) Errorf(format string, args ...any) { l.Logger.Errorf(format, args...) }
func (l Logger) Errorj(j log.JSON)                 { l.Logger.WithFields(applog.Fields(j)).Error() }

func (l Logger) Fatal(i ...any)                    { l.Logger.Fatal(i...) }
func (l Logger) Fatalf(format string, args ...any) { l.Logger.Fatalf(format, args...) }
func (l Logger) Fatalj(j log.JSON)                 { l.Logger.WithFields(applog.Fields(j)).Fatal() }

func (l Logger) Panic(i ...any)                    { l.Logger.Panic(i...) }
func (l Logger) Panicf(format string, args ...any) { l.Logger.Panicf(format, args...) }
func (l Logger) Panicj(j log.JSON)                 { l.Logger.WithFields(applog.Fields(j)).Panic() }
