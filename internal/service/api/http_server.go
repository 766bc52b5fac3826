package api

import (
	"net/http"
	"time"

	"github.com/darkkaiser/push-worker/internal/service/api/constants"
	"github.com/darkkaiser/push-worker/internal/service/api/httputil"
	appmiddleware "github.com/darkkaiser/push-worker/internal/service/api/middleware"
	applog "github.com/darkkaiser/push-worker/pkg/log"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// HTTPServerConfig HTTP 서버 생성 설정
type HTTPServerConfig struct {
	Debug bool

	// EnableHSTS TLS 서버일 때만 Strict-Transport-Security 헤더를 보낸다.
	EnableHSTS bool

	AllowOrigins []string

	// RequestTimeout 0이면 기본값을 사용한다. 이벤트 시간 제한보다 길어야 한다.
	RequestTimeout time.Duration
}

// NewHTTPServer 미들웨어 체인이 구성된 Echo 인스턴스를 생성합니다. 라우트는 등록하지 않는다.
//
// 미들웨어 적용 순서:
//  1. PanicRecovery
//  2. RequestID
//  3. Server 헤더 제거
//  4. HTTPLogger (429/503 응답도 기록되도록 제한 미들웨어보다 먼저)
//  5. RateLimiting
//  6. BodyLimit
//  7. Timeout
//  8. CORS
//  9. Secure
func NewHTTPServer(cfg HTTPServerConfig) *echo.Echo {
	e := echo.New()

	e.Debug = cfg.Debug
	e.HideBanner = true
	e.HidePort = true

	timeout := cfg.RequestTimeout
	if timeout <= 0 {
		timeout = constants.DefaultRequestTimeout
	}

	e.Server.ReadTimeout = constants.DefaultReadTimeout
	e.Server.ReadHeaderTimeout = constants.DefaultReadHeaderTimeout
	e.Server.WriteTimeout = writeTimeout(timeout)
	e.Server.IdleTimeout = constants.DefaultIdleTimeout

	e.Logger = appmiddleware.Logger{Logger: applog.StandardLogger()}
	e.HTTPErrorHandler = httputil.ErrorHandler

	e.Use(appmiddleware.PanicRecovery())
	e.Use(middleware.RequestID())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set(echo.HeaderServer, "")
			return next(c)
		}
	})
	e.Use(appmiddleware.HTTPLogger())
	e.Use(appmiddleware.RateLimiting(constants.DefaultRateLimitPerSecond, constants.DefaultRateLimitBurst))
	e.Use(middleware.BodyLimit(constants.DefaultMaxBodySize))
	e.Use(middleware.TimeoutWithConfig(middleware.TimeoutConfig{
		Timeout:      timeout,
		ErrorMessage: constants.ErrMsgGatewayTimeout,
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: cfg.AllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderContentType, constants.HeaderXAppKey},
	}))

	secureConfig := middleware.DefaultSecureConfig
	if cfg.EnableHSTS {
		secureConfig.HSTSMaxAge = 31536000
	}
	e.Use(middleware.SecureWithConfig(secureConfig))

	return e
}

// writeTimeout 요청 시간 제한이 끝난 뒤에도 에러 응답을 쓸 수 있도록 쓰기 시간 제한을 늘립니다.
func writeTimeout(requestTimeout time.Duration) time.Duration {
	return max(constants.DefaultWriteTimeout, requestTimeout+constants.WriteTimeoutMargin)
}
