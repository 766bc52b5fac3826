package log

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	fileExt = "log"

	defaultMaxSizeMB  = 100
	defaultMaxBackups = 20
)

var (
	// 프로세스 생명주기 동안 Setup()이 단 한 번만 실행되도록 보장한다.
	setupOnce sync.Once

	globalCloser   io.Closer
	globalSetupErr error
)

// Setup 전역 로깅 시스템을 초기화하고 설정된 옵션에 따라 파일 출력을 구성합니다.
//
// 두 번째 호출부터는 최초 호출의 결과(Closer, 에러)를 그대로 반환합니다.
// 반환된 Closer는 반드시 defer로 해제해야 합니다.
func Setup(opts Options) (io.Closer, error) {
	setupOnce.Do(func() {
		globalCloser, globalSetupErr = setup(logrus.StandardLogger(), opts)
	})

	return globalCloser, globalSetupErr
}

func setup(l *Logger, opts Options) (io.Closer, error) {
	if err := opts.Validate(); err != nil {
		return nil, fmt.Errorf("유효하지 않은 로그 설정: %w", err)
	}

	level := opts.Level
	if level == 0 {
		level = InfoLevel
	}
	l.SetLevel(level)
	l.SetReportCaller(opts.ReportCaller)

	// 실제 출력은 hook이 담당하므로 기본 출력은 버린다.
	l.SetFormatter(&silentFormatter{})
	l.SetOutput(io.Discard)

	logDir := opts.Dir
	if logDir == "" {
		logDir = "logs"
	}
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("로그 디렉토리 생성 실패: %w", err)
	}

	newFile := func(suffix string) *lumberjack.Logger {
		maxSize := opts.MaxSizeMB
		if maxSize == 0 {
			maxSize = defaultMaxSizeMB
		}
		maxBackups := opts.MaxBackups
		if maxBackups == 0 {
			maxBackups = defaultMaxBackups
		}

		return &lumberjack.Logger{
			Filename:   filepath.Join(logDir, opts.Name+suffix+"."+fileExt),
			MaxSize:    maxSize,
			MaxBackups: maxBackups,
			MaxAge:     opts.MaxAge,
			LocalTime:  true,
		}
	}

	h := newHook(newTextFormatter(opts.CallerPathPrefix), opts.RedactFields)
	c := &closer{hook: h}

	if opts.EnableConsoleLog {
		// 콘솔 쓰기 실패는 로깅 시스템 전체의 실패로 보지 않는다.
		h.addRoute("Console", os.Stdout, acceptAll, true)
	}

	mainLogger := newFile("")
	h.addRoute("Main", mainLogger, acceptMain, false)
	c.closers = append(c.closers, mainLogger)

	if opts.EnableCriticalLog {
		criticalLogger := newFile(".critical")
		h.addRoute("Critical", criticalLogger, acceptCritical, false)
		c.closers = append(c.closers, criticalLogger)
	}
	if opts.EnableVerboseLog {
		verboseLogger := newFile(".verbose")
		h.addRoute("Verbose", verboseLogger, acceptVerbose, true)
		c.closers = append(c.closers, verboseLogger)
	}

	l.AddHook(h)

	// Fatal 로그로 프로세스가 종료되기 직전에 남은 로그를 디스크로 내린다.
	logrus.RegisterExitHandler(func() {
		_ = c.Close()
	})

	return c, nil
}

func newTextFormatter(callerPathPrefix string) *logrus.TextFormatter {
	return &logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
		CallerPrettyfier: func(frame *runtime.Frame) (function string, file string) {
			function = frame.Function + "(line:" + strconv.Itoa(frame.Line) + ")"
			if callerPathPrefix != "" {
				if cut, found := strings.CutPrefix(function, callerPathPrefix); found {
					function = "..." + cut
				}
			}
			return
		},
	}
}
