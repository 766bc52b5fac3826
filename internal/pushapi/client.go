// Package pushapi 알림 플랫폼의 JSON RPC API 클라이언트를 제공합니다.
package pushapi

import (
	"context"
	"maps"
	"time"

	apperrors "github.com/darkkaiser/push-worker/internal/pkg/errors"
	"github.com/tidwall/gjson"
)

// 워커가 호출하는 플랫폼 API 메서드
const (
	MethodGetLastMessage = "getLastMessage"
	MethodPushStat       = "pushStat"
	MethodRegisterDevice = "registerDevice"
)

// defaultLanguage 기기 등록 시 언어가 지정되지 않았을 때 사용하는 값
const defaultLanguage = "en"

// Options 클라이언트 생성 옵션입니다. 인증 정보는 생성 이후 변경되지 않습니다.
type Options struct {
	DoAPIMethod DoAPIMethod

	ApplicationCode string
	HWID            string
	PushToken       string
	EncryptionKey   string

	// Language 기기 등록 시 전달하는 언어 코드. 비어 있으면 "en"을 사용한다.
	Language string
}

// Client 유도된 인증 정보를 보관하고 모든 호출에 application과 hwid를 실어 보냅니다.
type Client struct {
	doAPIMethod DoAPIMethod

	applicationCode string
	hwid            string
	pushToken       string
	encryptionKey   string
	language        string
}

// NewClient 클라이언트를 생성합니다.
func NewClient(opts Options) (*Client, error) {
	if opts.DoAPIMethod == nil {
		return nil, apperrors.New(apperrors.Internal, "API 클라이언트 생성 실패: 전송 함수(DoAPIMethod)가 지정되지 않았습니다")
	}
	if opts.ApplicationCode == "" {
		return nil, apperrors.New(apperrors.Configuration, "API 클라이언트 생성 실패: 애플리케이션 코드가 비어 있습니다")
	}

	language := opts.Language
	if language == "" {
		language = defaultLanguage
	}

	return &Client{
		doAPIMethod:     opts.DoAPIMethod,
		applicationCode: opts.ApplicationCode,
		hwid:            opts.HWID,
		pushToken:       opts.PushToken,
		encryptionKey:   opts.EncryptionKey,
		language:        language,
	}, nil
}

func (c *Client) ApplicationCode() string { return c.applicationCode }

func (c *Client) HWID() string { return c.hwid }

func (c *Client) PushToken() string { return c.pushToken }

// CallAPI params에 application과 hwid를 더해 메서드를 호출하고 응답의 response 필드를 반환합니다.
// 호출자의 params는 변경되지 않으며, 같은 이름의 키가 있으면 인증 정보가 우선합니다.
func (c *Client) CallAPI(ctx context.Context, method string, params map[string]any) (gjson.Result, error) {
	request := make(map[string]any, len(params)+2)
	maps.Copy(request, params)
	request["application"] = c.applicationCode
	request["hwid"] = c.hwid

	return c.doAPIMethod(ctx, method, request)
}

// GetLastMessage 가장 최근에 발송된 메시지를 조회합니다.
func (c *Client) GetLastMessage(ctx context.Context, deviceType int) (gjson.Result, error) {
	return c.CallAPI(ctx, MethodGetLastMessage, map[string]any{"device_type": deviceType})
}

// PushStat 메시지 해시에 대한 열람 통계를 보고합니다.
// 실패는 호출자가 텔레메트리 에러로 처리하도록 그대로 반환한다.
func (c *Client) PushStat(ctx context.Context, messageHash string) error {
	_, err := c.CallAPI(ctx, MethodPushStat, map[string]any{"hash": messageHash})
	return err
}

// RegisterDevice 현재 푸시 토큰과 공개키로 기기를 플랫폼에 등록합니다.
func (c *Client) RegisterDevice(ctx context.Context, deviceType int) error {
	_, offset := time.Now().Zone()

	_, err := c.CallAPI(ctx, MethodRegisterDevice, map[string]any{
		"push_token":  c.pushToken,
		"public_key":  c.encryptionKey,
		"device_type": deviceType,
		"language":    c.language,
		"timezone":    offset,
	})
	return err
}
