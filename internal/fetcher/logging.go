package fetcher

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	applog "github.com/darkkaiser/push-worker/pkg/log"
)

// LoggingFetcher 요청의 처리 결과와 소요 시간을 로깅합니다.
type LoggingFetcher struct {
	delegate Fetcher
}

var _ Fetcher = (*LoggingFetcher)(nil)

func NewLoggingFetcher(delegate Fetcher) *LoggingFetcher {
	return &LoggingFetcher{delegate: delegate}
}

func (f *LoggingFetcher) Do(req *http.Request) (*http.Response, error) {
	start := time.Now()

	resp, err := f.delegate.Do(req)

	fields := applog.Fields{
		"method":   req.Method,
		"url":      redactURL(req.URL),
		"duration": time.Since(start).String(),
	}
	if resp != nil {
		fields["status_code"] = resp.StatusCode
	}

	if err != nil {
		fields["error"] = err.Error()

		applog.WithComponentAndFields(component, fields).
			WithContext(req.Context()).
			Error("HTTP 요청 실패: 요청 처리 중 에러 발생")

		return resp, err
	}

	applog.WithComponentAndFields(component, fields).
		WithContext(req.Context()).
		Debug("HTTP 요청 성공: 정상 처리 완료")

	return resp, nil
}

var sensitiveQueryKeys = []string{"key", "token", "secret", "password", "auth", "hwid"}

// redactURL 로그에 남길 수 있도록 URL의 인증 정보와 민감한 쿼리 값을 마스킹합니다.
func redactURL(u *url.URL) string {
	if u == nil {
		return ""
	}

	ru := *u
	if u.User != nil {
		ru.User = url.User("xxxxx")
	}

	if u.RawQuery != "" {
		query := ru.Query()
		for key := range query {
			lower := strings.ToLower(key)
			for _, s := range sensitiveQueryKeys {
				if strings.Contains(lower, s) {
					query.Set(key, "xxxxx")
					break
				}
			}
		}
		ru.RawQuery = query.Encode()
	}

	return ru.String()
}
