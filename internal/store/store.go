// Package store 워커가 사용하는 설정 저장소(Configuration Store)를 제공합니다.
//
// 저장소는 문자열 키-값 쌍을 보관하며, 애플리케이션 코드와 알림 기본값처럼 워커 실행 전에
// 임베딩 애플리케이션이 기록한 값을 워커가 필요할 때마다 읽어 갑니다.
package store

import (
	"context"
	"fmt"
	"io"

	"github.com/darkkaiser/push-worker/internal/config"
)

const component = "store"

// 워커가 읽고 쓰는 설정 키
const (
	KeyApplicationCode          = "applicationCode"
	KeyDefaultNotificationTitle = "defaultNotificationTitle"
	KeyDefaultNotificationImage = "defaultNotificationImage"
	KeyDefaultNotificationURL   = "defaultNotificationUrl"
	KeyWorkerSDKVersion         = "WORKER_SDK_VERSION"
)

// Store 비동기 키-값 설정 저장소입니다.
type Store interface {
	// Get 키에 저장된 값을 반환합니다. 키가 없으면 ok는 false이며 에러는 nil입니다.
	Get(ctx context.Context, key string) (value string, ok bool, err error)

	Set(ctx context.Context, key, value string) error

	io.Closer
}

// New 설정에 지정된 드라이버로 저장소를 생성합니다.
func New(cfg config.StoreConfig) (Store, error) {
	switch cfg.Driver {
	case config.StoreDriverMemory:
		return NewMemoryStore(nil), nil
	case config.StoreDriverFile:
		return NewFileStore(cfg.Path)
	case config.StoreDriverSQLite:
		return NewSQLiteStore(cfg.Path)
	case config.StoreDriverRedis:
		return NewRedisStore(cfg.Redis)
	default:
		return nil, NewErrUnsupportedDriver(cfg.Driver)
	}
}

// Seed 비어 있지 않은 값만 저장소에 기록합니다. 빈 값의 키는 기존에 저장된 값을 유지합니다.
func Seed(ctx context.Context, s Store, values map[string]string) (int, error) {
	written := 0
	for key, value := range values {
		if value == "" {
			continue
		}
		if err := s.Set(ctx, key, value); err != nil {
			return written, fmt.Errorf("%s: %w", key, err)
		}
		written++
	}

	return written, nil
}
