// Package fetcher 플랫폼 API 호출에 사용하는 HTTP 요청 실행기를 제공합니다.
//
// 기본 실행기(HTTPFetcher) 위에 User-Agent 지정, 상태 코드 검사, 응답 크기 제한,
// 요청 로깅을 데코레이터로 겹쳐 쌓는 구조입니다. 재시도는 하지 않습니다.
package fetcher

import (
	"io"
	"net/http"
)

const component = "fetcher"

// Fetcher HTTP 요청을 실행하는 추상화입니다. http.Client와 같은 시그니처를 가진다.
type Fetcher interface {
	Do(req *http.Request) (*http.Response, error)
}

// FetcherFunc 일반 함수를 Fetcher로 사용할 수 있게 하는 어댑터입니다.
type FetcherFunc func(req *http.Request) (*http.Response, error)

func (f FetcherFunc) Do(req *http.Request) (*http.Response, error) {
	return f(req)
}

// drainAndCloseBody 연결을 재사용할 수 있도록 남은 본문을 일부 읽어 버리고 닫습니다.
func drainAndCloseBody(body io.ReadCloser) {
	if body == nil {
		return
	}

	_, _ = io.CopyN(io.Discard, body, 4096)
	_ = body.Close()
}
