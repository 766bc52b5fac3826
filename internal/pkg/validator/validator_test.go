package validator_test

import (
	"errors"
	"sync"
	"testing"

	"github.com/darkkaiser/push-worker/internal/pkg/validator"
	govalidator "github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
)

func TestGet_Concurrency(t *testing.T) {
	const routines = 50

	var wg sync.WaitGroup
	instances := make([]*govalidator.Validate, routines)

	wg.Add(routines)
	for i := 0; i < routines; i++ {
		go func(i int) {
			defer wg.Done()
			instances[i] = validator.Get()
		}(i)
	}
	wg.Wait()

	for i := 1; i < routines; i++ {
		assert.Same(t, instances[0], instances[i])
	}
}

type clickRequest struct {
	NotificationID string `validate:"required_without=Tag,excluded_with=Tag,omitempty,uuid" korean:"알림 ID"`
	Tag            string `validate:"omitempty,max=8" korean:"태그"`
}

type sample struct {
	Name  string `validate:"required" korean:"이름"`
	Data  string `validate:"omitempty,json" korean:"데이터"`
	Count int    `validate:"min=1"`
}

func TestFormatValidationError(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  string
	}{
		{"required", sample{Count: 1}, "이름는 필수입니다"},
		{"json", sample{Name: "a", Data: "{", Count: 1}, "데이터는 올바른 JSON 형식이어야 합니다"},
		{"korean 태그가 없으면 필드명", sample{Name: "a"}, "Count는 최소 1 이상이어야 합니다"},
		{"required_without", clickRequest{}, "알림 ID 또는 Tag 중 하나는 필수입니다"},
		{"excluded_with", clickRequest{NotificationID: "2b1c9f6e-3f4a-4d5b-8c7d-9e0f1a2b3c4d", Tag: "t"}, "알림 ID는 Tag와 함께 지정할 수 없습니다"},
		{"uuid", clickRequest{NotificationID: "x"}, "알림 ID는 올바른 UUID 형식이어야 합니다"},
		{"max 문자열", clickRequest{Tag: "123456789"}, "태그는 최대 8자까지 입력 가능합니다"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validator.Struct(tt.input)
			assert.Error(t, err)
			assert.Equal(t, tt.want, validator.FormatValidationError(err))
		})
	}

	assert.Empty(t, validator.FormatValidationError(nil))
	assert.Equal(t, "plain", validator.FormatValidationError(errors.New("plain")))
	assert.NoError(t, validator.Struct(clickRequest{Tag: "t"}))
}
