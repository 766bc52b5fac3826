// Package constants 수신 API 서비스 전반에서 사용하는 상수를 정의합니다.
package constants

import "time"

// 로그 발생 위치(컴포넌트) 식별을 위한 상수입니다.
const (
	ComponentService                  = "api.service"
	ComponentHandler                  = "api.handler"
	ComponentErrorHandler             = "api.error_handler"
	ComponentMiddlewareAuthentication = "api.middleware.auth"
	ComponentMiddlewareRateLimit      = "api.middleware.rate_limit"
	ComponentMiddlewarePanicRecovery  = "api.middleware.panic_recovery"
	ComponentMiddlewareContentType    = "api.middleware.content_type"
	ComponentMiddlewareHTTPLogger     = "api.middleware.http_logger"
)

// 인증 관련 요청 키
const (
	// HeaderXAppKey 인증 키를 전달하는 HTTP 헤더 (권장 방식)
	HeaderXAppKey = "X-App-Key"

	// QueryParamAppKey 인증 키를 전달하는 쿼리 파라미터 (헤더를 사용할 수 없는 클라이언트용)
	QueryParamAppKey = "app_key"
)

// 서버 기본값
const (
	DefaultRequestTimeout    = 90 * time.Second
	DefaultReadTimeout       = 10 * time.Second
	DefaultReadHeaderTimeout = 5 * time.Second
	DefaultWriteTimeout      = 100 * time.Second

	// WriteTimeoutMargin 응답 쓰기 시간 제한은 요청 시간 제한보다 최소한 이만큼 길어야 한다.
	WriteTimeoutMargin = 10 * time.Second
	DefaultIdleTimeout       = 120 * time.Second

	// DefaultMaxBodySize 요청 본문 최대 크기. 푸시 페이로드를 고려해 넉넉하게 둔다.
	DefaultMaxBodySize = "256K"

	DefaultRateLimitPerSecond = 20
	DefaultRateLimitBurst     = 40

	// ShutdownTimeout Graceful Shutdown 최대 대기 시간
	ShutdownTimeout = 5 * time.Second
)

// 헬스체크 상태
const (
	HealthStatusHealthy   = "healthy"
	HealthStatusUnhealthy = "unhealthy"
)

// SensitiveQueryParams 로그 기록 시 마스킹해야 할 쿼리 파라미터 목록입니다.
var SensitiveQueryParams = []string{
	QueryParamAppKey,
	"api_key",
	"password",
	"token",
	"secret",
}

// 클라이언트에게 반환되는 에러 메시지
const (
	ErrMsgBadRequest            = "잘못된 요청입니다"
	ErrMsgInvalidBody           = "요청 본문을 파싱할 수 없습니다. JSON 형식을 확인해주세요"
	ErrMsgAppKeyRequired        = "app_key는 필수입니다 (X-App-Key 헤더 또는 app_key 쿼리 파라미터)"
	ErrMsgInvalidAppKey         = "app_key가 유효하지 않습니다"
	ErrMsgNotFound              = "요청한 리소스를 찾을 수 없습니다"
	ErrMsgUnsupportedMediaType  = "지원하지 않는 Content-Type 형식입니다"
	ErrMsgRequestEntityTooLarge = "요청 본문이 너무 큽니다"
	ErrMsgTooManyRequests       = "요청이 너무 많습니다. 잠시 후 다시 시도해주세요"
	ErrMsgInternalServer        = "내부 서버 오류가 발생했습니다"
	ErrMsgServiceUnavailable    = "워커가 요청을 처리할 수 없는 상태입니다. 설정을 확인해주세요"
	ErrMsgBadGateway            = "알림 플랫폼 API 호출에 실패했습니다"
	ErrMsgGatewayTimeout        = "이벤트 처리가 시간 제한 내에 끝나지 않았습니다"
)
