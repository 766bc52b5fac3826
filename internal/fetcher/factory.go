package fetcher

import (
	"time"
)

// Config 실행기 체인 구성 설정
type Config struct {
	Timeout time.Duration

	// UserAgent 비어 있으면 Go 기본값을 사용한다.
	UserAgent string

	// MaxResponseBytes 0 이하면 응답 크기를 제한하지 않는다.
	MaxResponseBytes int64

	DisableLogging bool
}

// New 설정에 따라 데코레이터를 조립한 실행기를 생성합니다.
//
// 요청은 Logging -> MaxBytes -> StatusCode -> UserAgent -> HTTP 순서로 통과한다.
func New(cfg Config) Fetcher {
	var f Fetcher = NewHTTPFetcher(cfg.Timeout)

	f = NewUserAgentFetcher(f, cfg.UserAgent)
	f = NewStatusCodeFetcher(f)

	if cfg.MaxResponseBytes > 0 {
		f = NewMaxBytesFetcher(f, cfg.MaxResponseBytes)
	}

	if !cfg.DisableLogging {
		f = NewLoggingFetcher(f)
	}

	return f
}
