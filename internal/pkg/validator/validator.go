// Package validator 요청 구조체 검증을 위한 공용 validator 인스턴스와 한글 에러 메시지 변환을 제공합니다.
package validator

import (
	"errors"
	"fmt"
	"reflect"
	"sync"

	"github.com/go-playground/validator/v10"
)

var (
	instance *validator.Validate
	once     sync.Once
)

// Get 초기화된 validator 인스턴스를 반환합니다.
// 에러 메시지의 필드명으로 korean 태그를 사용하고, 없으면 json 태그, 그 다음 필드명을 사용한다.
func Get() *validator.Validate {
	once.Do(func() {
		instance = validator.New()
		instance.RegisterTagNameFunc(func(fld reflect.StructField) string {
			if name := fld.Tag.Get("korean"); name != "" {
				return name
			}
			return fld.Name
		})
	})

	return instance
}

// Struct 구조체의 validate 태그를 기반으로 검증합니다.
func Struct(s any) error {
	return Get().Struct(s)
}

// FormatValidationError validator 에러를 사용자 친화적인 한글 메시지로 변환합니다. 첫 번째 위반 항목만 사용한다.
func FormatValidationError(err error) string {
	if err == nil {
		return ""
	}

	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) || len(validationErrors) == 0 {
		return err.Error()
	}

	fe := validationErrors[0]
	name := fe.Field()

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s는 필수입니다", name)
	case "required_without":
		return fmt.Sprintf("%s 또는 %s 중 하나는 필수입니다", name, fe.Param())
	case "excluded_with":
		return fmt.Sprintf("%s는 %s와 함께 지정할 수 없습니다", name, fe.Param())
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s는 최소 %s자 이상이어야 합니다", name, fe.Param())
		}
		return fmt.Sprintf("%s는 최소 %s 이상이어야 합니다", name, fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s는 최대 %s자까지 입력 가능합니다", name, fe.Param())
		}
		return fmt.Sprintf("%s는 최대 %s까지 입력 가능합니다", name, fe.Param())
	case "json":
		return fmt.Sprintf("%s는 올바른 JSON 형식이어야 합니다", name)
	case "uuid":
		return fmt.Sprintf("%s는 올바른 UUID 형식이어야 합니다", name)
	default:
		return fmt.Sprintf("%s 검증 실패: %s", name, fe.Tag())
	}
}
