package httputil

import (
	"context"
	"errors"
	"net/http"

	apperrors "github.com/darkkaiser/push-worker/internal/pkg/errors"
	"github.com/darkkaiser/push-worker/internal/service/api/constants"
	applog "github.com/darkkaiser/push-worker/pkg/log"
	"github.com/labstack/echo/v4"
)

// FromAppError 워커와 호스트가 반환한 에러를 에러 타입에 맞는 HTTP 에러로 변환합니다.
// 응답 메시지에는 내부 에러 내용을 싣지 않고, 원본 에러는 Internal에 보존해 에러 핸들러가 로그로 남긴다.
func FromAppError(err error) error {
	if err == nil {
		return nil
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he
	}

	var httpErr error
	switch {
	case apperrors.Is(err, apperrors.NotFound):
		httpErr = NewNotFoundError(constants.ErrMsgNotFound)
	case apperrors.Is(err, apperrors.InvalidInput), apperrors.Is(err, apperrors.ParsingFailed):
		httpErr = NewBadRequestError(constants.ErrMsgBadRequest)
	case apperrors.Is(err, apperrors.Timeout), errors.Is(err, context.DeadlineExceeded):
		httpErr = NewGatewayTimeoutError(constants.ErrMsgGatewayTimeout)
	case apperrors.Is(err, apperrors.Configuration), apperrors.Is(err, apperrors.Unavailable):
		httpErr = NewServiceUnavailableError(constants.ErrMsgServiceUnavailable)
	case apperrors.Is(err, apperrors.Transport), apperrors.Is(err, apperrors.Protocol):
		httpErr = NewBadGatewayError(constants.ErrMsgBadGateway)
	default:
		httpErr = NewInternalServerError(constants.ErrMsgInternalServer)
	}

	return httpErr.(*echo.HTTPError).SetInternal(err)
}

// ErrorHandler Echo의 전역 에러 핸들러입니다.
// 모든 에러를 표준 ErrorResponse JSON으로 변환하고, 상태 코드에 맞는 레벨로 로그를 남긴다.
func ErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	message := constants.ErrMsgInternalServer

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		switch m := he.Message.(type) {
		case string:
			message = m
		case ErrorResponse:
			message = m.Message
		}
	}

	if code == http.StatusNotFound && message == http.StatusText(http.StatusNotFound) {
		message = constants.ErrMsgNotFound
	}

	fields := applog.Fields{
		"path":        c.Request().URL.Path,
		"method":      c.Request().Method,
		"status_code": code,
		"error":       err,
		"remote_ip":   c.RealIP(),
		"request_id":  c.Response().Header().Get(echo.HeaderXRequestID),
	}
	if he != nil && he.Internal != nil {
		fields["cause"] = he.Internal
	}

	if code >= http.StatusInternalServerError {
		applog.WithComponentAndFields(constants.ComponentErrorHandler, fields).Error("HTTP 요청 처리 중 서버 오류 발생")
	} else if code >= http.StatusBadRequest {
		applog.WithComponentAndFields(constants.ComponentErrorHandler, fields).Warn("HTTP 요청 거부")
	}

	if c.Response().Committed {
		return
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}

	_ = c.JSON(code, ErrorResponse{
		ResultCode: code,
		Message:    message,
	})
}
