package pushapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/darkkaiser/push-worker/internal/fetcher"
	apperrors "github.com/darkkaiser/push-worker/internal/pkg/errors"
	"github.com/tidwall/gjson"
)

// statusOK 응답 봉투(envelope)의 status_code가 이 값일 때만 성공으로 본다.
const statusOK = 200

// DoAPIMethod 플랫폼 JSON RPC 메서드 하나를 호출하고, 응답 봉투의 response 필드를 반환합니다.
type DoAPIMethod func(ctx context.Context, method string, params map[string]any) (gjson.Result, error)

// NewHTTPTransport baseURL 아래의 메서드 경로로 요청을 보내는 DoAPIMethod를 생성합니다.
//
// 요청 본문은 {"request": params} 형태이며, 응답은 다음 봉투 형식이어야 합니다.
//
//	{"status_code": 200, "status_message": "OK", "response": {...}}
func NewHTTPTransport(baseURL string, f fetcher.Fetcher) DoAPIMethod {
	return func(ctx context.Context, method string, params map[string]any) (gjson.Result, error) {
		body, err := json.Marshal(map[string]any{"request": params})
		if err != nil {
			return gjson.Result{}, apperrors.Wrap(err, apperrors.Internal, fmt.Sprintf("API 요청(%s) 본문 직렬화에 실패했습니다", method))
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+method, bytes.NewReader(body))
		if err != nil {
			return gjson.Result{}, apperrors.Wrap(err, apperrors.Internal, fmt.Sprintf("API 요청(%s) 생성에 실패했습니다", method))
		}
		req.Header.Set("Content-Type", "application/json; charset=UTF-8")
		req.Header.Set("Accept", "application/json")

		resp, err := f.Do(req)
		if err != nil {
			if apperrors.UnderlyingType(err) != apperrors.Unknown {
				return gjson.Result{}, err
			}
			return gjson.Result{}, apperrors.Wrap(err, apperrors.Transport, fmt.Sprintf("API 요청(%s) 전송 중 에러가 발생했습니다", method))
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			if apperrors.UnderlyingType(err) != apperrors.Unknown {
				return gjson.Result{}, err
			}
			return gjson.Result{}, apperrors.Wrap(err, apperrors.Transport, fmt.Sprintf("API 응답(%s) 수신 중 에러가 발생했습니다", method))
		}

		return decodeEnvelope(method, data)
	}
}

// decodeEnvelope 응답 봉투를 검사하고 response 필드를 반환합니다.
func decodeEnvelope(method string, data []byte) (gjson.Result, error) {
	if !gjson.ValidBytes(data) {
		return gjson.Result{}, apperrors.New(apperrors.ParsingFailed, fmt.Sprintf("API 응답(%s)이 올바른 JSON 형식이 아닙니다", method))
	}

	envelope := gjson.ParseBytes(data)
	statusCode := envelope.Get("status_code")
	if !statusCode.Exists() {
		return gjson.Result{}, apperrors.New(apperrors.Protocol, fmt.Sprintf("API 응답(%s)에 status_code가 없습니다", method))
	}

	if statusCode.Int() != statusOK {
		return gjson.Result{}, apperrors.New(apperrors.Protocol, fmt.Sprintf("API 요청(%s)이 거부되었습니다 (status_code: %d, status_message: %s)", method, statusCode.Int(), envelope.Get("status_message").String()))
	}

	return envelope.Get("response"), nil
}
