package middleware

import (
	"github.com/darkkaiser/push-worker/internal/service/api/auth"
	"github.com/darkkaiser/push-worker/internal/service/api/constants"
	applog "github.com/darkkaiser/push-worker/pkg/log"
	"github.com/labstack/echo/v4"
)

// RequireAuthentication app_key로 요청을 인증하는 미들웨어를 반환합니다.
// 키는 X-App-Key 헤더를 우선하고, 없으면 app_key 쿼리 파라미터를 사용한다.
func RequireAuthentication(authenticator *auth.Authenticator) echo.MiddlewareFunc {
	if authenticator == nil {
		panic("Authenticator는 필수입니다")
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			appKey := extractAppKey(c)
			if appKey == "" {
				return ErrAppKeyRequired
			}

			if err := authenticator.Authenticate(appKey, c.RealIP()); err != nil {
				return err
			}

			return next(c)
		}
	}
}

func extractAppKey(c echo.Context) string {
	if appKey := c.Request().Header.Get(constants.HeaderXAppKey); appKey != "" {
		return appKey
	}

	appKey := c.QueryParam(constants.QueryParamAppKey)
	if appKey != "" {
		applog.WithComponentAndFields(constants.ComponentMiddlewareAuthentication, applog.Fields{
			"method":    c.Request().Method,
			"path":      c.Path(),
			"remote_ip": c.RealIP(),
		}).Warn("보안 경고: 쿼리 파라미터로 App Key 전달됨 (헤더 사용 권장)")
	}
	return appKey
}
