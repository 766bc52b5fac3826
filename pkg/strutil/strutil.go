// Package strutil 문자열 처리 유틸리티를 제공합니다.
package strutil

import (
	"strings"
)

// Mask 토큰, 키 등 민감한 값을 로그에 남길 수 있도록 마스킹합니다.
//
//	""                 -> ""
//	"abc"              -> "***"
//	"abcdefgh"         -> "abcd***"
//	"abcdefghijklmnop" -> "abcd***mnop"
func Mask(data string) string {
	if data == "" {
		return ""
	}

	if len(data) <= 3 {
		return "***"
	}

	if len(data) <= 12 {
		return data[:4] + "***"
	}

	return data[:4] + "***" + data[len(data)-4:]
}

// SplitAndTrim 구분자로 문자열을 분리한 뒤 각 항목의 앞뒤 공백을 제거하고 빈 항목을 제외합니다.
// 결과가 없으면 nil을 반환합니다.
// 예: "a, , b,c" (구분자 ",") -> ["a", "b", "c"]
func SplitAndTrim(s, sep string) []string {
	var result []string
	for token := range strings.SplitSeq(s, sep) {
		if token = strings.TrimSpace(token); token != "" {
			result = append(result, token)
		}
	}

	return result
}

// FirstNonEmpty 비어 있지 않은 첫 번째 값을 반환합니다. 모두 비어 있으면 빈 문자열을 반환합니다.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}

	return ""
}
