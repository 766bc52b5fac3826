package local

import (
	"github.com/darkkaiser/push-worker/internal/config"
	"github.com/darkkaiser/push-worker/internal/host"
)

// SubscriptionFromConfig 설정의 구독 정보로 PushSubscription을 만듭니다.
// 엔드포인트와 subscription_id가 모두 비어 있으면 구독이 없는 것으로 보고 nil을 반환합니다.
func SubscriptionFromConfig(c config.SubscriptionConfig) *host.PushSubscription {
	if c.Endpoint == "" && c.SubscriptionID == "" {
		return nil
	}

	sub := &host.PushSubscription{
		Endpoint:       c.Endpoint,
		SubscriptionID: c.SubscriptionID,
		Keys: host.SubscriptionKeys{
			P256dh: c.Keys.P256dh,
			Auth:   c.Keys.Auth,
		},
	}
	if c.ExpirationTime > 0 {
		t := c.ExpirationTime
		sub.ExpirationTime = &t
	}

	return sub
}
