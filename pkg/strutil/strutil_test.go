package strutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMask(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"빈 문자열", "", ""},
		{"3자 이하", "abc", "***"},
		{"12자 이하", "abcdefgh", "abcd***"},
		{"12자", "abcdefghijkl", "abcd***"},
		{"긴 토큰", "abcdefghijklmnop", "abcd***mnop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Mask(tt.in))
		})
	}
}

func TestSplitAndTrim(t *testing.T) {
	assert.Equal(t, []string{"a", "b", "c"}, SplitAndTrim("a, , b,c", ","))
	assert.Equal(t, []string{"pw-"}, SplitAndTrim(" pw- ", ","))
	assert.Nil(t, SplitAndTrim("", ","))
	assert.Nil(t, SplitAndTrim(" , ,", ","))
}

func TestFirstNonEmpty(t *testing.T) {
	assert.Equal(t, "user", FirstNonEmpty("", "user", "fallback"))
	assert.Equal(t, "payload", FirstNonEmpty("payload", "user", "fallback"))
	assert.Equal(t, "", FirstNonEmpty("", ""))
	assert.Equal(t, "", FirstNonEmpty())
}
