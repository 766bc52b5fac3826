// Package v1 수신 API의 v1 라우트를 정의합니다.
//
//   - POST /api/v1/events/push
//   - POST /api/v1/events/notificationclick
//   - POST /api/v1/events/install
//   - POST /api/v1/events/activate
//   - POST /api/v1/device/register
//   - GET  /api/v1/notifications
//
// 모든 엔드포인트는 app_key 인증을 요구한다.
package v1

import (
	"github.com/darkkaiser/push-worker/internal/host"
	"github.com/darkkaiser/push-worker/internal/service/api/auth"
	"github.com/darkkaiser/push-worker/internal/service/api/middleware"
	"github.com/darkkaiser/push-worker/internal/service/api/v1/handler"
	"github.com/labstack/echo/v4"
)

// RegisterRoutes v1 라우트를 등록합니다.
func RegisterRoutes(e *echo.Echo, h *handler.Handler, authenticator *auth.Authenticator) {
	v1Group := e.Group("/api/v1", middleware.RequireAuthentication(authenticator))

	events := v1Group.Group("/events", middleware.ValidateContentType(echo.MIMEApplicationJSON))
	events.POST("/"+host.EventPush, h.PushEventHandler)
	events.POST("/"+host.EventNotificationClick, h.NotificationClickHandler)
	events.POST("/"+host.EventInstall, h.InstallEventHandler)
	events.POST("/"+host.EventActivate, h.ActivateEventHandler)

	v1Group.POST("/device/register", h.RegisterDeviceHandler)
	v1Group.GET("/notifications", h.NotificationsHandler)
}
