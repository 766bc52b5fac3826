package worker

import (
	"bytes"
	"encoding/json"
	"strings"

	apperrors "github.com/darkkaiser/push-worker/internal/pkg/errors"
	"github.com/darkkaiser/push-worker/pkg/strutil"
	"github.com/tidwall/gjson"
)

// Payload getLastMessage 응답의 notification 객체에서 읽은 알림 내용입니다.
type Payload struct {
	ChromeTitle   string
	ChromeContent string
	Content       string
	ChromeIcon    string
	URL           string
	MessageHash   string
}

// ParsePayload notification 객체를 Payload로 변환합니다. 문자열이 아닌 값이나 null은 빈 값으로 본다.
func ParsePayload(notification gjson.Result) Payload {
	str := func(path string) string {
		v := notification.Get(path)
		if v.Type != gjson.String {
			return ""
		}
		return v.String()
	}

	return Payload{
		ChromeTitle:   str("chromeTitle"),
		ChromeContent: str("chromeContent"),
		Content:       str("content"),
		ChromeIcon:    str("chromeIcon"),
		URL:           str("url"),
		MessageHash:   str("messageHash"),
	}
}

// Defaults 알림 표시 기본값 묶음입니다. 사용자 기본값과 라이브러리 기본값 모두 이 형태를 사용한다.
type Defaults struct {
	Title string
	Image string
	URL   string
}

// Display 호스트에 표시를 요청할 최종 알림 내용입니다.
type Display struct {
	Title string
	Body  string
	Icon  string
	Tag   string
}

// Tag 표시된 알림의 tag에 직렬화되어 클릭 시점까지 전달되는 값입니다.
// 이미 표시된 알림과의 호환을 위해 JSON 필드 이름은 바뀌면 안 된다.
type Tag struct {
	URL         string `json:"url"`
	MessageHash string `json:"messageHash"`
}

// Resolve 필드별 우선순위에 따라 표시 내용을 결정합니다.
//
//	title: chromeTitle -> 사용자 기본값 -> 라이브러리 기본값
//	body:  chromeContent -> content
//	icon:  chromeIcon -> 사용자 기본값 -> 라이브러리 기본값
//	url:   payload url -> 사용자 기본값 -> 라이브러리 기본값
func Resolve(p Payload, user, fallback Defaults) (Display, error) {
	tag, err := EncodeTag(Tag{
		URL:         strutil.FirstNonEmpty(p.URL, user.URL, fallback.URL),
		MessageHash: p.MessageHash,
	})
	if err != nil {
		return Display{}, err
	}

	return Display{
		Title: strutil.FirstNonEmpty(p.ChromeTitle, user.Title, fallback.Title),
		Body:  strutil.FirstNonEmpty(p.ChromeContent, p.Content),
		Icon:  strutil.FirstNonEmpty(p.ChromeIcon, user.Image, fallback.Image),
		Tag:   tag,
	}, nil
}

// EncodeTag Tag를 JSON 문자열로 직렬화합니다. URL의 '&' 등은 이스케이프하지 않는다.
func EncodeTag(t Tag) (string, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(t); err != nil {
		return "", apperrors.Wrap(err, apperrors.Internal, "알림 태그 직렬화에 실패했습니다")
	}

	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// DecodeTag 클릭된 알림의 tag 문자열을 해석합니다. 알 수 없는 필드는 무시합니다.
func DecodeTag(s string) (Tag, error) {
	if !gjson.Valid(s) || !gjson.Parse(s).IsObject() {
		return Tag{}, apperrors.New(apperrors.ParsingFailed, "알림 태그가 JSON 객체 형식이 아닙니다: '"+s+"'")
	}

	var t Tag
	if err := json.Unmarshal([]byte(s), &t); err != nil {
		return Tag{}, apperrors.Wrap(err, apperrors.ParsingFailed, "알림 태그를 해석할 수 없습니다")
	}

	return t, nil
}
