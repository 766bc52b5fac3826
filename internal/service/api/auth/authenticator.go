// Package auth 수신 API의 app_key 인증을 제공합니다.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"

	"github.com/darkkaiser/push-worker/internal/service/api/constants"
	"github.com/darkkaiser/push-worker/internal/service/api/httputil"
	applog "github.com/darkkaiser/push-worker/pkg/log"
	"github.com/darkkaiser/push-worker/pkg/strutil"
)

// Authenticator 설정된 app_key와 요청의 키를 비교합니다.
// 키는 SHA-256 해시로만 보관하고 상수 시간으로 비교한다.
type Authenticator struct {
	appKeyHash [sha256.Size]byte
}

// NewAuthenticator Authenticator를 생성합니다.
func NewAuthenticator(appKey string) *Authenticator {
	if appKey == "" {
		panic("Authenticator: app_key가 비어 있습니다")
	}

	return &Authenticator{appKeyHash: sha256.Sum256([]byte(appKey))}
}

// Authenticate 키가 일치하지 않으면 401 에러를 반환합니다.
func (a *Authenticator) Authenticate(appKey, remoteIP string) error {
	hash := sha256.Sum256([]byte(appKey))
	if subtle.ConstantTimeCompare(a.appKeyHash[:], hash[:]) == 1 {
		return nil
	}

	applog.WithComponentAndFields(constants.ComponentMiddlewareAuthentication, applog.Fields{
		"received_app_key": strutil.Mask(appKey),
		"remote_ip":        remoteIP,
	}).Warn("인증 실패: App Key 불일치")

	return httputil.NewUnauthorizedError(constants.ErrMsgInvalidAppKey)
}
