package store

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/darkkaiser/push-worker/internal/config"
	apperrors "github.com/darkkaiser/push-worker/internal/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// unusedAddr 리스닝하지 않는 로컬 주소를 반환합니다.
func unusedAddr(t *testing.T) string {
	t.Helper()

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	require.NoError(t, l.Close())

	return addr
}

func TestRedisStore_Unreachable(t *testing.T) {
	s := newRedisStore(&redis.Options{
		Addr:        unusedAddr(t),
		DialTimeout: 200 * time.Millisecond,
		MaxRetries:  -1,
	}, "push-worker")
	defer s.Close()

	ctx := context.Background()

	_, _, err := s.Get(ctx, KeyApplicationCode)
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.Unavailable))

	err = s.Set(ctx, KeyApplicationCode, "x")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.Unavailable))

	assert.Error(t, s.Ping(ctx))
}

func TestRedisStore_EmptyKey(t *testing.T) {
	s := newRedisStore(&redis.Options{Addr: unusedAddr(t)}, "push-worker")
	defer s.Close()

	assert.ErrorIs(t, s.Set(context.Background(), "", "v"), ErrEmptyKey)
}

func TestRedisStore_SingleHashLayout(t *testing.T) {
	mr := miniredis.RunT(t)

	s, err := NewRedisStore(config.RedisConfig{Addr: mr.Addr(), Key: "push-worker:config"})
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()

	require.NoError(t, s.Ping(ctx))

	require.NoError(t, s.Set(ctx, KeyApplicationCode, "ABCDE-12345"))
	require.NoError(t, s.Set(ctx, KeyDefaultNotificationURL, "https://example.com"))

	// 모든 키는 설정된 해시 하나의 필드로 저장된다.
	assert.Equal(t, []string{"push-worker:config"}, mr.Keys())
	assert.Equal(t, "ABCDE-12345", mr.HGet("push-worker:config", KeyApplicationCode))
	assert.Equal(t, "https://example.com", mr.HGet("push-worker:config", KeyDefaultNotificationURL))

	t.Run("다른 인스턴스가 기록한 값을 읽는다", func(t *testing.T) {
		mr.HSet("push-worker:config", KeyDefaultNotificationTitle, "Shared")

		v, ok, err := s.Get(ctx, KeyDefaultNotificationTitle)
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, "Shared", v)
	})

	t.Run("다른 해시의 필드는 보이지 않는다", func(t *testing.T) {
		mr.HSet("other-app", KeyWorkerSDKVersion, "9.9.9")

		_, ok, err := s.Get(ctx, KeyWorkerSDKVersion)
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("닫힌 저장소", func(t *testing.T) {
		closed := newRedisStore(&redis.Options{Addr: mr.Addr()}, "push-worker:config")
		require.NoError(t, closed.Close())

		_, _, err := closed.Get(ctx, KeyApplicationCode)
		assert.ErrorIs(t, err, ErrStoreClosed)
	})
}
