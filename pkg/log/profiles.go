package log

// callerPathPrefix 로그의 호출자 경로에서 생략할 모듈 경로
const callerPathPrefix = "github.com/darkkaiser/push-worker"

// DefaultRedactFields 기기 식별자와 인증 정보처럼 원문으로 남기면 안 되는 로그 필드
var DefaultRedactFields = []string{"hwid", "push_token", "public_key", "encryption_key", "app_key", "bot_token"}

// NewProductionOptions 운영 환경에 맞춘 로그 설정을 반환합니다.
func NewProductionOptions(appName string) Options {
	return Options{
		Name:  appName,
		Level: InfoLevel,

		MaxAge:     30,
		MaxSizeMB:  100,
		MaxBackups: 20,

		EnableCriticalLog: true,
		EnableVerboseLog:  true,
		EnableConsoleLog:  false,

		ReportCaller:     true,
		CallerPathPrefix: callerPathPrefix,
		RedactFields:     DefaultRedactFields,
	}
}

// NewDevelopmentOptions 개발 환경에 맞춘 로그 설정을 반환합니다.
func NewDevelopmentOptions(appName string) Options {
	return Options{
		Name:  appName,
		Level: TraceLevel,

		MaxAge:     1,
		MaxSizeMB:  50,
		MaxBackups: 5,

		EnableCriticalLog: false,
		EnableVerboseLog:  false,
		EnableConsoleLog:  true,

		ReportCaller:     true,
		CallerPathPrefix: callerPathPrefix,
		RedactFields:     DefaultRedactFields,
	}
}
