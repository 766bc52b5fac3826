// Package httputil 수신 API의 표준 응답 형식과 에러 변환을 제공합니다.
package httputil

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// ErrorResponse API 오류 응답
type ErrorResponse struct {
	// ResultCode HTTP 상태 코드
	ResultCode int `json:"result_code"`

	Message string `json:"message"`
}

// SuccessResponse API 성공 응답
type SuccessResponse struct {
	// ResultCode 처리 결과 코드 (0: 성공)
	ResultCode int    `json:"result_code"`
	Message    string `json:"message,omitempty"`
}

func newHTTPError(code int, message string) error {
	return echo.NewHTTPError(code, ErrorResponse{
		ResultCode: code,
		Message:    message,
	})
}

func NewBadRequestError(message string) error {
	return newHTTPError(http.StatusBadRequest, message)
}

func NewUnauthorizedError(message string) error {
	return newHTTPError(http.StatusUnauthorized, message)
}

func NewNotFoundError(message string) error {
	return newHTTPError(http.StatusNotFound, message)
}

func NewUnsupportedMediaTypeError(message string) error {
	return newHTTPError(http.StatusUnsupportedMediaType, message)
}

func NewTooManyRequestsError(message string) error {
	return newHTTPError(http.StatusTooManyRequests, message)
}

func NewInternalServerError(message string) error {
	return newHTTPError(http.StatusInternalServerError, message)
}

func NewBadGatewayError(message string) error {
	return newHTTPError(http.StatusBadGateway, message)
}

func NewServiceUnavailableError(message string) error {
	return newHTTPError(http.StatusServiceUnavailable, message)
}

func NewGatewayTimeoutError(message string) error {
	return newHTTPError(http.StatusGatewayTimeout, message)
}

// Success 표준 성공 응답(200 OK)을 반환합니다.
func Success(c echo.Context) error {
	return c.JSON(http.StatusOK, SuccessResponse{
		ResultCode: 0,
		Message:    "성공",
	})
}
