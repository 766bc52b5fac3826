package errors

import "strconv"

// ErrorType 에러의 종류를 나타내는 타입입니다.
type ErrorType int

const (
	// Unknown 분류할 수 없는 에러
	Unknown ErrorType = iota

	// Internal 내부 로직 오류 (버그, 잘못된 상태 전이 등)
	Internal

	// System 디스크, 파일시스템 등 실행 환경 오류
	System

	// InvalidInput 잘못된 입력값 (유효성 검사 실패)
	InvalidInput

	// NotFound 리소스를 찾을 수 없음
	NotFound

	// Configuration 필수 설정값 누락 또는 설정 오류 (예: 애플리케이션 코드 없음)
	Configuration

	// Transport 플랫폼 백엔드와의 통신 실패 (네트워크, HTTP 상태 코드)
	Transport

	// Protocol 플랫폼 응답이 약속된 형식을 따르지 않음 (status_code 오류, 필드 누락)
	Protocol

	// ParsingFailed 데이터 파싱 또는 형식 변환 실패 (알림 태그 역직렬화 등)
	ParsingFailed

	// HostFailure 호스트 런타임 기본 동작(캐시 삭제, 알림 표시 등) 실패
	HostFailure

	// Timeout 작업 시간 초과
	Timeout

	// Unavailable 서비스 일시적 사용 불가
	Unavailable
)

var errorTypeNames = [...]string{
	Unknown:       "Unknown",
	Internal:      "Internal",
	System:        "System",
	InvalidInput:  "InvalidInput",
	NotFound:      "NotFound",
	Configuration: "Configuration",
	Transport:     "Transport",
	Protocol:      "Protocol",
	ParsingFailed: "ParsingFailed",
	HostFailure:   "HostFailure",
	Timeout:       "Timeout",
	Unavailable:   "Unavailable",
}

func (t ErrorType) String() string {
	if t < 0 || int(t) >= len(errorTypeNames) {
		return "ErrorType(" + strconv.Itoa(int(t)) + ")"
	}
	return errorTypeNames[t]
}
