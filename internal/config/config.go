package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"
	"time"

	apperrors "github.com/darkkaiser/push-worker/internal/pkg/errors"
	"github.com/darkkaiser/push-worker/pkg/strutil"
	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

const (
	// AppName 애플리케이션의 전역 고유 식별자입니다.
	AppName string = "push-worker"

	// DefaultFilename 실행 인자로 경로가 주어지지 않았을 때 읽는 기본 설정 파일명입니다.
	DefaultFilename = AppName + ".json"

	// envPrefix 환경 변수 접두사
	// 이중 언더스코어(__)는 계층 구분자로 변환된다. 예: PUSH_WORKER_STORE__DRIVER -> store.driver
	envPrefix = "PUSH_WORKER_"
)

const (
	// DefaultAPIURL 플랫폼 JSON RPC API의 기본 주소입니다.
	DefaultAPIURL = "https://cp.pushwoosh.com/json/1.3/"

	// 알림 표시 시 페이로드와 사용자 기본값이 모두 비어 있을 때 사용하는 라이브러리 기본값
	DefaultFallbackTitle = "Pushwoosh notification"
	DefaultFallbackImage = "https://cp.pushwoosh.com/img/logo-medium.png"
	DefaultFallbackURL   = "/"

	DefaultPlatformTimeout  = 30 * time.Second
	DefaultMaxResponseBytes = 1 << 20
	DefaultEventTimeout     = 60 * time.Second
	DefaultListenPort       = 2443
)

// newDefaultConfig 모든 설정 항목의 기본값을 담은 AppConfig를 생성합니다.
// 이 값들은 koanf의 가장 낮은 우선순위 계층으로 적재됩니다.
func newDefaultConfig() AppConfig {
	return AppConfig{
		Debug: false,
		Platform: PlatformConfig{
			APIURL:           DefaultAPIURL,
			Timeout:          DefaultPlatformTimeout,
			MaxResponseBytes: DefaultMaxResponseBytes,
			UserAgent:        AppName,
		},
		Worker: WorkerConfig{
			EventTimeout: DefaultEventTimeout,
			CacheDir:     "caches",
			Fallback: FallbackConfig{
				Title: DefaultFallbackTitle,
				Image: DefaultFallbackImage,
				URL:   DefaultFallbackURL,
			},
		},
		Store: StoreConfig{
			Driver: StoreDriverFile,
			Path:   "data",
			Redis: RedisConfig{
				Addr: "127.0.0.1:6379",
				Key:  AppName,
			},
		},
		Presenter: PresenterConfig{
			Driver: PresenterDriverLog,
		},
		Ingress: IngressConfig{
			ListenPort:   DefaultListenPort,
			AllowOrigins: []string{"*"},
		},
	}
}

// normalizeEnvKey 환경 변수 이름을 koanf 키 경로로 변환합니다.
// 예: PUSH_WORKER_PLATFORM__API_URL -> platform.api_url
func normalizeEnvKey(s string) string {
	s = strings.TrimPrefix(s, envPrefix)
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "__", ".")
}

// Load 기본 설정 파일을 읽어 애플리케이션 설정을 로드합니다.
func Load() (*AppConfig, error) {
	return LoadWithFile(DefaultFilename)
}

// LoadWithFile 지정된 경로의 설정 파일을 읽어 AppConfig 객체를 생성합니다.
//
// 적재 우선순위(낮음 -> 높음): 구조체 기본값 -> JSON 설정 파일 -> 환경 변수
// 설정 파일이 존재하지 않으면 기본값과 환경 변수만으로 구성합니다.
func LoadWithFile(filename string) (*AppConfig, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(newDefaultConfig(), "json"), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "애플리케이션 기본 설정 로드에 실패했습니다")
	}

	if err := k.Load(file.Provider(filename), json.Parser()); err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("설정 파일 로드 중 오류가 발생했습니다: '%s'", filename))
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", normalizeEnvKey), nil); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "환경 변수 로드에 실패했습니다")
	}

	unmarshalConf := koanf.UnmarshalConf{
		Tag: "json",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				stringToDurationHookFunc(),
				stringToSliceHookFunc(),
				mapstructure.TextUnmarshallerHookFunc(),
			),
			ErrorUnused:      true,
			WeaklyTypedInput: true,
		},
	}

	var appConfig AppConfig
	unmarshalConf.DecoderConfig.Result = &appConfig

	if err := k.UnmarshalWithConf("", &appConfig, unmarshalConf); err != nil {
		return nil, apperrors.Wrap(err, apperrors.System, "설정 데이터를 애플리케이션 구조체로 변환하는데 실패했습니다")
	}

	if err := appConfig.validate(); err != nil {
		return nil, apperrors.Wrap(err, apperrors.Configuration, fmt.Sprintf("설정 파일('%s')의 유효성 검증에 실패했습니다", filename))
	}

	return &appConfig, nil
}

// stringToDurationHookFunc "30s" 같은 문자열을 time.Duration으로 변환합니다.
// 정확히 time.Duration 타입인 필드에만 적용된다.
func stringToDurationHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		d, err := time.ParseDuration(strings.TrimSpace(reflect.ValueOf(data).String()))
		if err != nil {
			return nil, fmt.Errorf("시간 간격 형식이 올바르지 않습니다: '%v' (예: 30s, 500ms)", data)
		}
		return d, nil
	}
}

// stringToSliceHookFunc 환경 변수로 전달된 "a, b" 형태의 문자열을 []string으로 변환합니다. 빈 항목은 버린다.
func stringToSliceHookFunc() mapstructure.DecodeHookFunc {
	return func(f reflect.Type, t reflect.Type, data any) (any, error) {
		if f.Kind() != reflect.String || t.Kind() != reflect.Slice || t.Elem().Kind() != reflect.String {
			return data, nil
		}

		if parts := strutil.SplitAndTrim(reflect.ValueOf(data).String(), ","); parts != nil {
			return parts, nil
		}
		return []string{}, nil
	}
}
