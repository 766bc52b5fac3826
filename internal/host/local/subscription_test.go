package local

import (
	"testing"

	"github.com/darkkaiser/push-worker/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubscriptionFromConfig(t *testing.T) {
	assert.Nil(t, SubscriptionFromConfig(config.SubscriptionConfig{}))

	sub := SubscriptionFromConfig(config.SubscriptionConfig{
		Endpoint:       "https://updates.push.services.mozilla.com/wpush/v2/abc",
		ExpirationTime: 1700000000000,
		Keys:           config.SubscriptionKeysConfig{P256dh: "p", Auth: "a"},
	})
	require.NotNil(t, sub)
	assert.Equal(t, "https://updates.push.services.mozilla.com/wpush/v2/abc", sub.Endpoint)
	require.NotNil(t, sub.ExpirationTime)
	assert.Equal(t, int64(1700000000000), *sub.ExpirationTime)
	assert.Equal(t, "p", sub.Keys.P256dh)

	sub = SubscriptionFromConfig(config.SubscriptionConfig{SubscriptionID: "sub-1"})
	require.NotNil(t, sub)
	assert.Nil(t, sub.ExpirationTime)
	assert.Equal(t, "sub-1", sub.SubscriptionID)
}
