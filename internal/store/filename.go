package store

import (
	"fmt"
	"hash/fnv"
	"strings"
	"unicode/utf8"

	"github.com/iancoleman/strcase"
)

// filenameReplacer 파일 시스템에서 문제를 일으킬 수 있는 문자를 하이픈으로 치환합니다.
// 경로 이탈("..", "/", "\")과 Windows 예약 문자를 모두 포함한다.
var filenameReplacer = strings.NewReplacer(
	"..", "--",
	"/", "-",
	"\\", "-",
	"|", "-",
	"<", "-",
	">", "-",
	":", "-",
	"\"", "-",
	"?", "-",
	"*", "-",
)

// maxReadableNameBytes 파일명의 읽을 수 있는 부분에 허용하는 최대 바이트 수
const maxReadableNameBytes = 80

// generateFilename 설정 키로부터 저장소 디렉토리 안에서 고유한 파일명을 만듭니다.
//
// 사람이 알아볼 수 있도록 키를 Kebab-Case로 변환하고, 원본 키의 64비트 해시를 덧붙여
// 정제 후 같아지는 키나 대소문자만 다른 키가 서로 다른 파일에 저장되도록 한다.
//
// 예: "defaultNotificationTitle" -> "config-default-notification-title-{16자리해시}.json"
func generateFilename(key string) string {
	name := truncateByBytes(sanitizeName(key), maxReadableNameBytes)

	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(key))

	return fmt.Sprintf("config-%s-%016x.json", name, hasher.Sum64())
}

// sanitizeName 파일명으로 안전하게 사용할 수 있도록 문자열을 정제합니다.
func sanitizeName(s string) string {
	kebab := strcase.ToKebab(s)

	// 제어 문자(0x00-0x1F)와 DEL(0x7F)은 일부 파일 시스템이 허용하지 않는다.
	kebab = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7F {
			return '-'
		}
		return r
	}, kebab)

	return filenameReplacer.Replace(kebab)
}

// truncateByBytes 문자열을 UTF-8 문자 경계를 지키면서 limit 바이트 이하로 자릅니다.
func truncateByBytes(s string, limit int) string {
	if len(s) <= limit {
		return s
	}

	total := 0
	for total < len(s) {
		_, size := utf8.DecodeRuneInString(s[total:])
		if total+size > limit {
			break
		}
		total += size
	}

	return s[:total]
}
