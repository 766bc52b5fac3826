package config

import (
	"encoding/base64"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	apperrors "github.com/darkkaiser/push-worker/internal/pkg/errors"
	"github.com/darkkaiser/push-worker/pkg/validation"
	"github.com/go-playground/validator/v10"
)

var (
	// 텔레그램 봇 토큰 형식 (예: 123456:ABC-DEF1234ghIkl-zyx57W2v1u123ew11)
	telegramBotTokenRegex = regexp.MustCompile(`^\d{3,20}:[a-zA-Z0-9_-]{30,50}$`)

	validate = newValidator()
)

// newValidator 새로운 Validator 인스턴스를 생성하고 커스텀 유효성 검사 함수를 등록합니다.
func newValidator() *validator.Validate {
	v := validator.New()

	// 에러 메시지에 Go 필드명 대신 JSON 키 이름이 나오도록 한다.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	for tag, fn := range map[string]validator.Func{
		"cors_origin":        validateCORSOrigin,
		"telegram_bot_token": validateTelegramBotToken,
		"push_key":           validatePushKey,
	} {
		if err := v.RegisterValidation(tag, fn); err != nil {
			panic(fmt.Sprintf("초기화 치명적 오류: '%s' 커스텀 유효성 검사 함수 등록에 실패했습니다: %v", tag, err))
		}
	}

	return v
}

func validateCORSOrigin(fl validator.FieldLevel) bool {
	return validation.ValidateCORSOrigin(fl.Field().String()) == nil
}

func validateTelegramBotToken(fl validator.FieldLevel) bool {
	return telegramBotTokenRegex.MatchString(fl.Field().String())
}

// validatePushKey 구독 키가 base64 또는 base64url(패딩 유무 무관)로 인코딩되어 있는지 검증합니다.
func validatePushKey(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	for _, enc := range []*base64.Encoding{base64.RawURLEncoding, base64.URLEncoding, base64.RawStdEncoding, base64.StdEncoding} {
		if _, err := enc.DecodeString(s); err == nil {
			return true
		}
	}
	return false
}

// checkStruct 구조체를 태그 규칙에 따라 검증하고, 첫 번째 위반 항목을 사용자 친화적인 에러로 변환합니다.
// fields를 지정하면 해당 필드만 부분 검증합니다.
func checkStruct(v *validator.Validate, s any, contextName string, fields ...string) error {
	var err error
	if len(fields) > 0 {
		err = v.StructPartial(s, fields...)
	} else {
		err = v.Struct(s)
	}
	if err == nil {
		return nil
	}

	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok || len(validationErrors) == 0 {
		return apperrors.Wrap(err, apperrors.InvalidInput, fmt.Sprintf("%s 유효성 검증에 실패했습니다", contextName))
	}

	firstErr := validationErrors[0]

	switch firstErr.StructField() {
	case "APIURL":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("플랫폼 API 주소(api_url)가 올바른 http(s) URL이 아닙니다: '%v'", firstErr.Value()))
	case "Timeout", "EventTimeout":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 시간 제한(%s)은 0보다 커야 합니다: '%v'", contextName, firstErr.Field(), firstErr.Value()))
	case "BrowserType":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("브라우저 타입(browser_type)은 10(Safari), 11(Chrome), 12(Firefox) 중 하나여야 합니다: '%v'", firstErr.Value()))
	case "Driver":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 드라이버(driver)가 지원되지 않는 값입니다: '%v' (허용: %s)", contextName, firstErr.Value(), firstErr.Param()))
	case "ListenPort":
		return apperrors.New(apperrors.InvalidInput, "웹 서비스 포트(listen_port)는 1에서 65535 사이의 값이어야 합니다")
	case "AppKey":
		return apperrors.New(apperrors.InvalidInput, "수신 API의 인증 키(app_key)가 설정되지 않았습니다")
	case "TLSCertFile", "TLSKeyFile":
		switch firstErr.Tag() {
		case "required_if":
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("TLS 서버 활성화 시 %s는 필수입니다", firstErr.Field()))
		case "file":
			return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("지정된 TLS 파일(%s)을 찾을 수 없습니다: '%v'", firstErr.Field(), firstErr.Value()))
		}
	case "AllowOrigins":
		if firstErr.Tag() == "min" {
			return apperrors.New(apperrors.InvalidInput, "CORS 허용 도메인(allow_origins) 목록이 비어있습니다")
		}
	}

	switch firstErr.Tag() {
	case "cors_origin":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("CORS Origin 형식이 올바르지 않습니다: '%v' (형식: Scheme://Host[:Port], 예: https://example.com)", firstErr.Value()))
	case "telegram_bot_token":
		return apperrors.New(apperrors.InvalidInput, "텔레그램 BotToken 형식이 올바르지 않습니다 (올바른 형식: 123456:ABC-DEF...)")
	case "push_key":
		return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("구독 키(%s)가 base64 형식이 아닙니다", firstErr.Field()))
	}

	return apperrors.New(apperrors.InvalidInput, fmt.Sprintf("%s의 설정이 올바르지 않습니다: %s (조건: %s)", contextName, firstErr.Field(), firstErr.Tag()))
}
