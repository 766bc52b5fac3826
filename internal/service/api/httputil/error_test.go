package httputil

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apperrors "github.com/darkkaiser/push-worker/internal/pkg/errors"
	"github.com/darkkaiser/push-worker/internal/service/api/constants"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromAppError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code int
	}{
		{"NotFound", apperrors.New(apperrors.NotFound, "x"), http.StatusNotFound},
		{"InvalidInput", apperrors.New(apperrors.InvalidInput, "x"), http.StatusBadRequest},
		{"ParsingFailed", apperrors.New(apperrors.ParsingFailed, "x"), http.StatusBadRequest},
		{"Timeout", apperrors.New(apperrors.Timeout, "x"), http.StatusGatewayTimeout},
		{"Configuration", apperrors.New(apperrors.Configuration, "no code"), http.StatusServiceUnavailable},
		{"Transport", apperrors.New(apperrors.Transport, "x"), http.StatusBadGateway},
		{"Protocol", apperrors.New(apperrors.Protocol, "x"), http.StatusBadGateway},
		{"HostFailure", apperrors.New(apperrors.HostFailure, "x"), http.StatusInternalServerError},
		{"Join 내부의 타입도 찾는다", errors.Join(errors.New("a"), apperrors.New(apperrors.Timeout, "b")), http.StatusGatewayTimeout},
		{"일반 에러", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromAppError(tt.err)

			var he *echo.HTTPError
			require.ErrorAs(t, err, &he)
			assert.Equal(t, tt.code, he.Code)
			assert.Equal(t, tt.err, he.Internal, "원본 에러는 Internal에 보존되어야 합니다")
		})
	}

	assert.NoError(t, FromAppError(nil))

	original := NewUnauthorizedError("no")
	assert.Same(t, original, FromAppError(original), "이미 HTTP 에러면 그대로 반환해야 합니다")
}

func TestErrorHandler(t *testing.T) {
	e := echo.New()

	run := func(method string, err error) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/api/v1/events/push", nil)
		rec := httptest.NewRecorder()
		ErrorHandler(err, e.NewContext(req, rec))
		return rec
	}

	t.Run("표준 응답 형식", func(t *testing.T) {
		rec := run(http.MethodPost, NewBadRequestError("잘못"))
		assert.Equal(t, http.StatusBadRequest, rec.Code)

		var resp ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.Equal(t, ErrorResponse{ResultCode: http.StatusBadRequest, Message: "잘못"}, resp)
	})

	t.Run("문자열 메시지", func(t *testing.T) {
		rec := run(http.MethodPost, echo.NewHTTPError(http.StatusRequestEntityTooLarge, "too large"))
		assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
		assert.Contains(t, rec.Body.String(), "too large")
	})

	t.Run("기본 404 메시지는 한글로 바꾼다", func(t *testing.T) {
		rec := run(http.MethodGet, echo.ErrNotFound)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), constants.ErrMsgNotFound)
	})

	t.Run("일반 에러는 500", func(t *testing.T) {
		rec := run(http.MethodPost, errors.New("boom"))
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "boom")
	})

	t.Run("HEAD 요청은 본문 없이 응답", func(t *testing.T) {
		rec := run(http.MethodHead, NewNotFoundError("x"))
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, rec.Body.String())
	})
}

func TestSuccess(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()

	require.NoError(t, Success(e.NewContext(httptest.NewRequest(http.MethodPost, "/", nil), rec)))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"result_code":0,"message":"성공"}`, rec.Body.String())
}
