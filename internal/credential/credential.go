// Package credential 푸시 구독과 애플리케이션 코드로부터 플랫폼 인증 정보를 유도합니다.
//
// 모든 함수는 부수 효과가 없는 순수 함수이며, 구독 정보가 없으면 빈 값으로 유도합니다.
// 단, 푸시 토큰이 비어 있으면 HWID는 매번 새로운 임의 값이 됩니다.
package credential

import (
	"encoding/base64"
	"net/url"
	"strings"

	"github.com/darkkaiser/push-worker/internal/host"
	"github.com/google/uuid"
)

// 플랫폼이 사용하는 브라우저(device_type) 코드
const (
	BrowserSafari  = 10
	BrowserChrome  = 11
	BrowserFirefox = 12
)

// Credentials API 클라이언트 인증에 사용되는 유도 값입니다. 한 번 유도되면 변경되지 않는다.
type Credentials struct {
	PushToken     string
	HWID          string
	EncryptionKey string
}

// Deriver 구독과 애플리케이션 코드로부터 Credentials를 유도하는 함수입니다.
type Deriver func(applicationCode string, sub *host.PushSubscription) Credentials

// Derive 기본 유도 규칙으로 Credentials를 생성합니다.
func Derive(applicationCode string, sub *host.PushSubscription) Credentials {
	pushToken := PushToken(sub)

	return Credentials{
		PushToken:     pushToken,
		HWID:          HWID(applicationCode, pushToken),
		EncryptionKey: EncryptionKey(sub),
	}
}

// fcmEndpointPrefixes 엔드포인트의 마지막 경로 세그먼트가 등록 토큰인 푸시 서비스
var fcmEndpointPrefixes = []string{
	"https://fcm.googleapis.com/fcm/send/",
	"https://android.googleapis.com/gcm/send/",
}

// PushToken 구독으로부터 푸시 토큰을 추출합니다.
//
// subscriptionId가 있으면 그대로 사용하고, FCM/GCM 엔드포인트면 마지막 경로 세그먼트를,
// 그 밖의 푸시 서비스는 엔드포인트 전체를 토큰으로 사용한다.
func PushToken(sub *host.PushSubscription) string {
	if sub == nil {
		return ""
	}
	if sub.SubscriptionID != "" {
		return sub.SubscriptionID
	}

	for _, prefix := range fcmEndpointPrefixes {
		if strings.HasPrefix(sub.Endpoint, prefix) {
			return sub.Endpoint[strings.LastIndex(sub.Endpoint, "/")+1:]
		}
	}

	return sub.Endpoint
}

// HWID 애플리케이션 코드와 푸시 토큰으로 하드웨어 ID를 만듭니다.
// 형식은 "<applicationCode>_<uuid>"이며, 같은 토큰이면 항상 같은 값이 나온다.
func HWID(applicationCode, pushToken string) string {
	var id uuid.UUID
	if pushToken == "" {
		id = uuid.New()
	} else {
		id = uuid.NewSHA1(uuid.NameSpaceURL, []byte(pushToken))
	}

	return applicationCode + "_" + id.String()
}

// keyEncodings 구독 키로 허용하는 인코딩. 호스트는 보통 패딩 없는 base64url을 사용한다.
var keyEncodings = []*base64.Encoding{
	base64.RawURLEncoding,
	base64.URLEncoding,
	base64.RawStdEncoding,
	base64.StdEncoding,
}

// EncryptionKey 구독의 p256dh 공개키를 표준 base64로 다시 인코딩하여 반환합니다.
// 키가 없거나 디코딩할 수 없으면 빈 문자열을 반환합니다.
func EncryptionKey(sub *host.PushSubscription) string {
	if sub == nil || sub.Keys.P256dh == "" {
		return ""
	}

	for _, enc := range keyEncodings {
		if raw, err := enc.DecodeString(sub.Keys.P256dh); err == nil {
			return base64.StdEncoding.EncodeToString(raw)
		}
	}

	return ""
}

// BrowserType 구독 엔드포인트의 푸시 서비스로 브라우저 코드를 추론합니다.
// override가 0이 아니면 추론하지 않고 그대로 사용한다. 알 수 없는 푸시 서비스는 Chrome으로 간주한다.
func BrowserType(override int, endpoint string) int {
	if override != 0 {
		return override
	}

	u, err := url.Parse(endpoint)
	if err != nil {
		return BrowserChrome
	}

	switch hostname := u.Hostname(); {
	case strings.HasSuffix(hostname, "push.services.mozilla.com"):
		return BrowserFirefox
	case strings.HasSuffix(hostname, "push.apple.com"):
		return BrowserSafari
	default:
		return BrowserChrome
	}
}
