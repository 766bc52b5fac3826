package fetcher

import (
	"net/http"
)

// UserAgentFetcher User-Agent 헤더가 없는 요청에 지정된 값을 채워 넣습니다.
type UserAgentFetcher struct {
	delegate  Fetcher
	userAgent string
}

var _ Fetcher = (*UserAgentFetcher)(nil)

func NewUserAgentFetcher(delegate Fetcher, userAgent string) *UserAgentFetcher {
	return &UserAgentFetcher{
		delegate:  delegate,
		userAgent: userAgent,
	}
}

func (f *UserAgentFetcher) Do(req *http.Request) (*http.Response, error) {
	if f.userAgent == "" || req.Header.Get("User-Agent") != "" {
		return f.delegate.Do(req)
	}

	// 호출자의 요청 객체는 변경하지 않는다.
	clonedReq := req.Clone(req.Context())
	clonedReq.Header.Set("User-Agent", f.userAgent)

	return f.delegate.Do(clonedReq)
}
