// Package handler v1 API의 HTTP 요청 핸들러를 제공합니다.
//
// 요청을 검증한 뒤 호스트 런타임에 라이프사이클 이벤트를 디스패치하고, 처리 결과를 표준 응답으로 변환한다.
package handler

import (
	"context"
	"net/http"

	"github.com/darkkaiser/push-worker/internal/host"
	"github.com/darkkaiser/push-worker/internal/host/local"
	"github.com/darkkaiser/push-worker/internal/pkg/validator"
	"github.com/darkkaiser/push-worker/internal/service/api/constants"
	"github.com/darkkaiser/push-worker/internal/service/api/httputil"
	"github.com/darkkaiser/push-worker/internal/service/api/v1/model/request"
	applog "github.com/darkkaiser/push-worker/pkg/log"
	"github.com/labstack/echo/v4"
)

// EventDispatcher 라이프사이클 이벤트를 디스패치하는 호스트 런타임입니다.
type EventDispatcher interface {
	Dispatch(ctx context.Context, eventType string) error
	DispatchPush(ctx context.Context, data []byte) error
	DispatchClick(ctx context.Context, notificationID string) error
	DispatchClickTag(ctx context.Context, tag string) error
	Notifications() []local.NotificationInfo
}

// DeviceRegistrar 플랫폼에 기기를 등록합니다.
type DeviceRegistrar interface {
	RegisterDevice(ctx context.Context) error
}

// NotificationsResponse 표시 중인 알림 목록 응답
type NotificationsResponse struct {
	Notifications []local.NotificationInfo `json:"notifications"`
}

// Handler v1 API 핸들러
type Handler struct {
	dispatcher EventDispatcher
	registrar  DeviceRegistrar
}

// New Handler를 생성합니다.
func New(dispatcher EventDispatcher, registrar DeviceRegistrar) *Handler {
	if dispatcher == nil {
		panic("EventDispatcher는 필수입니다")
	}
	if registrar == nil {
		panic("DeviceRegistrar는 필수입니다")
	}

	return &Handler{
		dispatcher: dispatcher,
		registrar:  registrar,
	}
}

// PushEventHandler 푸시 이벤트를 디스패치합니다.
func (h *Handler) PushEventHandler(c echo.Context) error {
	req := new(request.PushEventRequest)
	if err := c.Bind(req); err != nil {
		return httputil.NewBadRequestError(constants.ErrMsgInvalidBody)
	}

	if err := h.dispatcher.DispatchPush(c.Request().Context(), req.Data); err != nil {
		return httputil.FromAppError(err)
	}

	h.log(c).Info("푸시 이벤트 처리 완료")

	return httputil.Success(c)
}

// NotificationClickHandler 알림 클릭 이벤트를 디스패치합니다.
func (h *Handler) NotificationClickHandler(c echo.Context) error {
	req := new(request.NotificationClickRequest)
	if err := c.Bind(req); err != nil {
		return httputil.NewBadRequestError(constants.ErrMsgInvalidBody)
	}
	if err := validator.Struct(req); err != nil {
		return httputil.NewBadRequestError(validator.FormatValidationError(err))
	}

	ctx := c.Request().Context()

	var err error
	if req.NotificationID != "" {
		err = h.dispatcher.DispatchClick(ctx, req.NotificationID)
	} else {
		err = h.dispatcher.DispatchClickTag(ctx, req.Tag)
	}
	if err != nil {
		return httputil.FromAppError(err)
	}

	h.log(c).WithField("notification_id", req.NotificationID).Info("알림 클릭 이벤트 처리 완료")

	return httputil.Success(c)
}

// InstallEventHandler install 이벤트를 다시 디스패치합니다.
func (h *Handler) InstallEventHandler(c echo.Context) error {
	return h.dispatchLifecycle(c, host.EventInstall)
}

// ActivateEventHandler activate 이벤트를 다시 디스패치합니다.
func (h *Handler) ActivateEventHandler(c echo.Context) error {
	return h.dispatchLifecycle(c, host.EventActivate)
}

func (h *Handler) dispatchLifecycle(c echo.Context, eventType string) error {
	if err := h.dispatcher.Dispatch(c.Request().Context(), eventType); err != nil {
		return httputil.FromAppError(err)
	}

	h.log(c).WithField("event", eventType).Info("라이프사이클 이벤트 처리 완료")

	return httputil.Success(c)
}

// RegisterDeviceHandler 플랫폼에 기기를 등록합니다.
func (h *Handler) RegisterDeviceHandler(c echo.Context) error {
	if err := h.registrar.RegisterDevice(c.Request().Context()); err != nil {
		return httputil.FromAppError(err)
	}

	return httputil.Success(c)
}

// NotificationsHandler 표시 중인 알림 목록을 반환합니다.
func (h *Handler) NotificationsHandler(c echo.Context) error {
	notifications := h.dispatcher.Notifications()
	if notifications == nil {
		notifications = []local.NotificationInfo{}
	}

	return c.JSON(http.StatusOK, NotificationsResponse{Notifications: notifications})
}

func (h *Handler) log(c echo.Context) *applog.Entry {
	return applog.WithComponentAndFields(constants.ComponentHandler, applog.Fields{
		"endpoint":   c.Path(),
		"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
	})
}
