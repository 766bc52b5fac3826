package store

import (
	"context"
	"errors"

	"github.com/darkkaiser/push-worker/internal/config"
	"github.com/redis/go-redis/v9"
)

// RedisStore 하나의 Redis 해시(Hash)에 모든 키를 필드로 보관하는 저장소입니다.
// 여러 워커 인스턴스가 같은 설정을 공유해야 할 때 사용한다.
type RedisStore struct {
	client *redis.Client
	key    string
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore Redis 클라이언트를 생성합니다. 연결은 첫 요청 시 맺어집니다.
func NewRedisStore(cfg config.RedisConfig) (*RedisStore, error) {
	return newRedisStore(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	}, cfg.Key), nil
}

func newRedisStore(opts *redis.Options, key string) *RedisStore {
	return &RedisStore{
		client: redis.NewClient(opts),
		key:    key,
	}
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.HGet(ctx, s.key, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		if errors.Is(err, redis.ErrClosed) {
			return "", false, ErrStoreClosed
		}
		return "", false, NewErrReadFailed(err, key)
	}

	return value, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if key == "" {
		return ErrEmptyKey
	}

	if err := s.client.HSet(ctx, s.key, key, value).Err(); err != nil {
		return NewErrWriteFailed(err, key)
	}

	return nil
}

// Ping Redis 서버와의 연결 상태를 확인합니다.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return NewErrReadFailed(err, "PING")
	}
	return nil
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
