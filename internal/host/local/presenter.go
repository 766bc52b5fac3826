package local

import (
	"context"

	applog "github.com/darkkaiser/push-worker/pkg/log"
)

// Presenter 알림을 사용자에게 실제로 보여 주는 네이티브 표시면입니다.
type Presenter interface {
	Present(ctx context.Context, n NotificationInfo) error

	// Dismiss 표시된 알림을 내립니다. 이미 내려간 알림이면 아무것도 하지 않는다.
	Dismiss(ctx context.Context, id string) error

	OpenWindow(ctx context.Context, url string) error
}

// ClickHandler 표시면에서 알림이 클릭되었을 때 호출되는 함수입니다.
type ClickHandler func(ctx context.Context, notificationID string) error

// LogPresenter 알림을 구조화 로그로만 남기는 표시면입니다.
type LogPresenter struct{}

var _ Presenter = LogPresenter{}

func (LogPresenter) Present(_ context.Context, n NotificationInfo) error {
	applog.WithComponentAndFields(component, applog.Fields{
		"notification_id": n.ID,
		"title":           n.Title,
		"body":            n.Body,
		"icon":            n.Icon,
		"tag":             n.Tag,
	}).Info("알림 표시")

	return nil
}

func (LogPresenter) Dismiss(_ context.Context, id string) error {
	applog.WithComponentAndFields(component, applog.Fields{
		"notification_id": id,
	}).Info("알림 닫힘")

	return nil
}

func (LogPresenter) OpenWindow(_ context.Context, url string) error {
	applog.WithComponentAndFields(component, applog.Fields{
		"url": url,
	}).Info("창 열기")

	return nil
}
