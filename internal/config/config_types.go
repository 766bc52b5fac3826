package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	apperrors "github.com/darkkaiser/push-worker/internal/pkg/errors"
)

// 설정 저장소(Configuration Store) 백엔드
const (
	StoreDriverMemory = "memory"
	StoreDriverFile   = "file"
	StoreDriverSQLite = "sqlite"
	StoreDriverRedis  = "redis"
)

// 알림 표시면(Presenter) 드라이버
const (
	PresenterDriverLog      = "log"
	PresenterDriverTelegram = "telegram"
)

// AppConfig 애플리케이션의 모든 설정을 관장하는 최상위 루트 구조체
type AppConfig struct {
	Debug        bool               `json:"debug"`
	Platform     PlatformConfig     `json:"platform"`
	Worker       WorkerConfig       `json:"worker"`
	Subscription SubscriptionConfig `json:"subscription"`
	Application  ApplicationConfig  `json:"application"`
	Store        StoreConfig        `json:"store"`
	Presenter    PresenterConfig    `json:"presenter"`
	Ingress      IngressConfig      `json:"ingress"`
}

func (c *AppConfig) validate() error {
	if err := c.Platform.validate(); err != nil {
		return err
	}
	if err := c.Worker.validate(); err != nil {
		return err
	}
	if err := checkStruct(validate, &c.Subscription, "구독(subscription)"); err != nil {
		return err
	}
	if err := c.Store.validate(); err != nil {
		return err
	}
	if err := c.Presenter.validate(); err != nil {
		return err
	}
	if err := c.Ingress.validate(); err != nil {
		return err
	}

	return nil
}

// VerifyRecommendations 강제 에러는 아니지만 운영상 주의가 필요한 설정에 대한 경고 메시지를 반환합니다.
func (c *AppConfig) VerifyRecommendations() []string {
	var warnings []string

	if strings.TrimSpace(c.Application.Code) == "" {
		warnings = append(warnings, "애플리케이션 코드(application.code)가 설정되지 않았습니다. 설정 저장소에 코드가 저장되기 전까지 푸시 수신은 실패합니다")
	}
	if c.Subscription.Endpoint == "" && c.Subscription.SubscriptionID == "" {
		warnings = append(warnings, "푸시 구독 정보(subscription)가 비어 있습니다. 임의의 HWID로 기기가 식별됩니다")
	}
	if c.Ingress.ListenPort < 1024 {
		warnings = append(warnings, fmt.Sprintf("시스템 예약 포트(1-1023)를 사용하도록 설정되었습니다(port: %d). 이 경우 서버 구동 시 관리자 권한이 필요할 수 있습니다", c.Ingress.ListenPort))
	}
	if c.Store.Driver == StoreDriverMemory {
		warnings = append(warnings, "메모리 설정 저장소는 프로세스가 종료되면 저장된 값을 잃습니다")
	}

	return warnings
}

// PlatformConfig 알림 플랫폼 JSON RPC API 접속 설정
type PlatformConfig struct {
	APIURL           string        `json:"api_url" validate:"required,http_url"`
	Timeout          time.Duration `json:"timeout" validate:"gt=0"`
	MaxResponseBytes int64         `json:"max_response_bytes" validate:"gt=0"`
	UserAgent        string        `json:"user_agent"`
}

func (c *PlatformConfig) validate() error {
	if err := checkStruct(validate, c, "플랫폼(platform)"); err != nil {
		return err
	}

	// 메서드 이름이 그대로 뒤에 붙으므로 경로는 '/'로 끝나야 한다.
	if !strings.HasSuffix(c.APIURL, "/") {
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("플랫폼 API 주소(api_url)는 '/'로 끝나야 합니다: '%s'", c.APIURL))
	}

	return nil
}

// WorkerConfig 워커 런타임 설정
type WorkerConfig struct {
	// BrowserType 0이면 구독 엔드포인트로부터 추론한다.
	BrowserType           int            `json:"browser_type" validate:"omitempty,oneof=10 11 12"`
	EventTimeout          time.Duration  `json:"event_timeout" validate:"gt=0"`
	CacheDir              string         `json:"cache_dir" validate:"required"`
	CacheEvictionPrefixes []string       `json:"cache_eviction_prefixes" validate:"dive,required"`
	Fallback              FallbackConfig `json:"fallback"`
}

func (c *WorkerConfig) validate() error {
	return checkStruct(validate, c, "워커(worker)")
}

// FallbackConfig 페이로드와 사용자 기본값이 모두 없을 때 사용하는 최종 기본값
type FallbackConfig struct {
	Title string `json:"title" validate:"required"`
	Image string `json:"image" validate:"required"`
	URL   string `json:"url" validate:"required"`
}

// SubscriptionConfig 로컬 호스트가 워커에게 제공하는 푸시 구독 정보
type SubscriptionConfig struct {
	Endpoint       string                 `json:"endpoint" validate:"omitempty,url"`
	ExpirationTime int64                  `json:"expiration_time"`
	SubscriptionID string                 `json:"subscription_id"`
	Keys           SubscriptionKeysConfig `json:"keys"`
}

type SubscriptionKeysConfig struct {
	P256dh string `json:"p256dh" validate:"omitempty,push_key"`
	Auth   string `json:"auth" validate:"omitempty,push_key"`
}

// ApplicationConfig 시작 시 설정 저장소에 기록할 애플리케이션 값
// 비어 있는 항목은 기록하지 않으므로 기존에 저장된 값이 유지된다.
type ApplicationConfig struct {
	Code         string `json:"code"`
	DefaultTitle string `json:"default_title"`
	DefaultImage string `json:"default_image"`
	DefaultURL   string `json:"default_url"`
}

// StoreConfig 설정 저장소(Configuration Store) 백엔드 설정
type StoreConfig struct {
	Driver string      `json:"driver" validate:"oneof=memory file sqlite redis"`
	Path   string      `json:"path"`
	Redis  RedisConfig `json:"redis" validate:"-"`
}

func (c *StoreConfig) validate() error {
	if err := checkStruct(validate, c, "설정 저장소(store)"); err != nil {
		return err
	}

	switch c.Driver {
	case StoreDriverFile, StoreDriverSQLite:
		if strings.TrimSpace(c.Path) == "" {
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("'%s' 설정 저장소는 경로(store.path)가 필요합니다", c.Driver))
		}
	case StoreDriverRedis:
		return checkStruct(validate, &c.Redis, "Redis 설정 저장소(store.redis)")
	}

	return nil
}

type RedisConfig struct {
	Addr     string `json:"addr" validate:"required,hostname_port"`
	Password string `json:"password"`
	DB       int    `json:"db" validate:"min=0"`
	Key      string `json:"key" validate:"required"`
}

// PresenterConfig 알림 표시면 설정
type PresenterConfig struct {
	Driver   string         `json:"driver" validate:"oneof=log telegram"`
	Telegram TelegramConfig `json:"telegram" validate:"-"`
}

func (c *PresenterConfig) validate() error {
	if err := checkStruct(validate, c, "알림 표시면(presenter)"); err != nil {
		return err
	}

	if c.Driver == PresenterDriverTelegram {
		return checkStruct(validate, &c.Telegram, "텔레그램 알림 표시면(presenter.telegram)")
	}

	return nil
}

// TelegramConfig 텔레그램 봇 토큰 및 채팅 ID
type TelegramConfig struct {
	BotToken string `json:"bot_token" validate:"required,telegram_bot_token"`
	ChatID   int64  `json:"chat_id" validate:"required"`
}

// IngressConfig 라이프사이클 이벤트를 수신하는 HTTP 서버 설정
type IngressConfig struct {
	ListenPort   int      `json:"listen_port" validate:"min=1,max=65535"`
	AppKey       string   `json:"app_key" validate:"required"`
	TLSServer    bool     `json:"tls_server"`
	TLSCertFile  string   `json:"tls_cert_file" validate:"required_if=TLSServer true,omitempty,file"`
	TLSKeyFile   string   `json:"tls_key_file" validate:"required_if=TLSServer true,omitempty,file"`
	AllowOrigins []string `json:"allow_origins" validate:"min=1,dive,cors_origin"`
}

func (c *IngressConfig) validate() error {
	if len(c.AllowOrigins) > 1 {
		for _, origin := range c.AllowOrigins {
			if origin == "*" {
				return apperrors.New(apperrors.InvalidInput, "와일드카드(*)는 다른 도메인과 함께 사용할 수 없습니다. 모든 도메인을 허용하려면 와일드카드만 설정하세요")
			}
		}
	}

	return checkStruct(validate, c, "수신 API(ingress)")
}

// ServerAddress 수신 API 서버의 주소를 반환합니다.
func (c *IngressConfig) ServerAddress() string {
	scheme := "http"
	if c.TLSServer {
		scheme = "https"
	}

	u := url.URL{Scheme: scheme, Host: fmt.Sprintf("localhost:%d", c.ListenPort)}
	return u.String()
}
