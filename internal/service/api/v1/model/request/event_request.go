// Package request v1 API의 요청 본문 모델을 정의합니다.
package request

import "encoding/json"

// PushEventRequest 푸시 이벤트 디스패치 요청
// 본문을 생략할 수 있으며, 페이로드는 워커가 사용하지 않으므로 그대로 이벤트에 실린다.
type PushEventRequest struct {
	Data json.RawMessage `json:"data"`
}

// NotificationClickRequest 알림 클릭 이벤트 디스패치 요청
// 표시 중인 알림의 ID 또는 알림 태그 중 정확히 하나를 지정해야 한다.
type NotificationClickRequest struct {
	NotificationID string `json:"notification_id" validate:"required_without=Tag,excluded_with=Tag,omitempty,uuid" korean:"알림 ID"`
	Tag            string `json:"tag" validate:"omitempty,max=4096" korean:"태그"`
}
