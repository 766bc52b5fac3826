// Package middleware 수신 API 서버의 Echo 미들웨어를 제공합니다.
//
//   - PanicRecovery: 패닉 복구 및 에러 로깅
//   - HTTPLogger: 요청/응답 구조화 로깅 (민감 쿼리 파라미터 마스킹)
//   - RateLimiting: IP 기반 요청 속도 제한
//   - RequireAuthentication: app_key 인증
//   - ValidateContentType: 요청 본문의 Content-Type 검증
//   - Logger: Echo 내부 로그를 애플리케이션 로거로 연결하는 어댑터
package middleware
