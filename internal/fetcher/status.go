package fetcher

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	apperrors "github.com/darkkaiser/push-worker/internal/pkg/errors"
)

// maxBodySnippetBytes 상태 코드 에러에 포함할 응답 본문의 최대 길이
const maxBodySnippetBytes = 256

// HTTPStatusError 허용되지 않은 HTTP 상태 코드 응답을 나타냅니다.
type HTTPStatusError struct {
	StatusCode  int
	Status      string
	URL         string
	BodySnippet string
}

func (e *HTTPStatusError) Error() string {
	msg := fmt.Sprintf("HTTP %d (%s)", e.StatusCode, e.Status)
	if e.URL != "" {
		msg += " URL: " + e.URL
	}
	if e.BodySnippet != "" {
		msg += ", Body: " + e.BodySnippet
	}
	return msg
}

// StatusCodeFetcher 2xx가 아닌 응답을 HTTPStatusError로 변환합니다.
type StatusCodeFetcher struct {
	delegate Fetcher
}

var _ Fetcher = (*StatusCodeFetcher)(nil)

func NewStatusCodeFetcher(delegate Fetcher) *StatusCodeFetcher {
	return &StatusCodeFetcher{delegate: delegate}
}

func (f *StatusCodeFetcher) Do(req *http.Request) (*http.Response, error) {
	resp, err := f.delegate.Do(req)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}

	statusErr := &HTTPStatusError{
		StatusCode:  resp.StatusCode,
		Status:      resp.Status,
		URL:         redactURL(req.URL),
		BodySnippet: readBodySnippet(resp.Body),
	}
	drainAndCloseBody(resp.Body)

	return nil, apperrors.Wrap(statusErr, apperrors.Transport, fmt.Sprintf("HTTP 요청이 실패했습니다 (상태 코드: %d)", resp.StatusCode))
}

func readBodySnippet(body io.Reader) string {
	if body == nil {
		return ""
	}

	buf, _ := io.ReadAll(io.LimitReader(body, maxBodySnippetBytes))
	s := strings.TrimSpace(string(buf))
	if !utf8.ValidString(s) {
		s = strings.ToValidUTF8(s, "")
	}

	return s
}
