package local

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/darkkaiser/push-worker/internal/config"
	apperrors "github.com/darkkaiser/push-worker/internal/pkg/errors"
	applog "github.com/darkkaiser/push-worker/pkg/log"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"
)

const (
	// clickCallbackPrefix 인라인 버튼의 콜백 데이터 접두사. 뒤에 알림 ID가 붙는다.
	clickCallbackPrefix = "click:"

	telegramHTTPClientTimeout = 70 * time.Second

	// 텔레그램은 같은 채팅에 초당 1건 정도의 전송을 권장한다.
	telegramRateLimit = 1
	telegramRateBurst = 5

	// telegramPollTimeout Long Polling 대기 시간(초)
	telegramPollTimeout = 60
)

// telegramClient 프레젠터가 사용하는 봇 API의 부분 집합
type telegramClient interface {
	GetSelf() tgbotapi.User

	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)

	StopReceivingUpdates()
}

type tgClient struct {
	*tgbotapi.BotAPI
}

func (c *tgClient) GetSelf() tgbotapi.User {
	return c.Self
}

// TelegramPresenter 알림을 텔레그램 채팅 메시지로 표시합니다.
//
// 메시지에는 "열기" 인라인 버튼이 붙으며, 버튼이 눌리면 ClickHandler로 클릭 이벤트를 전달한다.
// 창 열기 요청은 URL 버튼이 달린 메시지로 전송된다.
type TelegramPresenter struct {
	chatID int64
	client telegramClient

	limiter *rate.Limiter

	mu       sync.Mutex
	messages map[string]int
	onClick  ClickHandler
}

var _ Presenter = (*TelegramPresenter)(nil)

// NewTelegramPresenter 봇 토큰으로 텔레그램 클라이언트를 만들고 프레젠터를 생성합니다.
func NewTelegramPresenter(cfg config.TelegramConfig, debug bool) (*TelegramPresenter, error) {
	applog.WithComponentAndFields(component, applog.Fields{
		"bot_token": cfg.BotToken,
		"chat_id":   cfg.ChatID,
	}).Debug("텔레그램 봇 클라이언트 초기화")

	botAPI, err := tgbotapi.NewBotAPIWithClient(cfg.BotToken, tgbotapi.APIEndpoint, &http.Client{Timeout: telegramHTTPClientTimeout})
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.InvalidInput, "텔레그램 봇 API 클라이언트 초기화에 실패했습니다. BotToken이 올바른지 확인해주세요")
	}
	botAPI.Debug = debug

	return newTelegramPresenter(cfg.ChatID, &tgClient{BotAPI: botAPI}), nil
}

func newTelegramPresenter(chatID int64, client telegramClient) *TelegramPresenter {
	return &TelegramPresenter{
		chatID:   chatID,
		client:   client,
		limiter:  rate.NewLimiter(rate.Limit(telegramRateLimit), telegramRateBurst),
		messages: make(map[string]int),
	}
}

// SetClickHandler 버튼 클릭을 전달받을 함수를 지정합니다. Start 전에 호출해야 한다.
func (p *TelegramPresenter) SetClickHandler(h ClickHandler) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.onClick = h
}

func (p *TelegramPresenter) clickHandler() ClickHandler {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.onClick
}

func (p *TelegramPresenter) Present(ctx context.Context, n NotificationInfo) error {
	text := fmt.Sprintf("<b>%s</b>\n%s", html.EscapeString(n.Title), html.EscapeString(n.Body))

	msg := tgbotapi.NewMessage(p.chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData("열기", clickCallbackPrefix+n.ID)),
	)

	sent, err := p.send(ctx, msg)
	if err != nil {
		return err
	}

	p.mu.Lock()
	p.messages[n.ID] = sent.MessageID
	p.mu.Unlock()

	return nil
}

func (p *TelegramPresenter) Dismiss(ctx context.Context, id string) error {
	p.mu.Lock()
	messageID, ok := p.messages[id]
	delete(p.messages, id)
	p.mu.Unlock()

	if !ok {
		return nil
	}

	if err := p.limiter.Wait(ctx); err != nil {
		return err
	}

	if _, err := p.client.Request(tgbotapi.NewDeleteMessage(p.chatID, messageID)); err != nil {
		return apperrors.Wrap(err, apperrors.Unavailable, "텔레그램 메시지 삭제에 실패했습니다")
	}
	return nil
}

// OpenWindow 절대 http(s) URL이면 URL 버튼이 달린 메시지를, 그 밖에는 경로만 담은 메시지를 전송합니다.
func (p *TelegramPresenter) OpenWindow(ctx context.Context, rawURL string) error {
	msg := tgbotapi.NewMessage(p.chatID, html.EscapeString(rawURL))
	msg.ParseMode = tgbotapi.ModeHTML

	if u, err := url.Parse(rawURL); err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != "" {
		msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
			tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonURL("페이지 열기", rawURL)),
		)
	}

	_, err := p.send(ctx, msg)
	return err
}

func (p *TelegramPresenter) send(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return tgbotapi.Message{}, err
	}

	sent, err := p.client.Send(c)
	if err != nil {
		return tgbotapi.Message{}, apperrors.Wrap(err, apperrors.Unavailable, "텔레그램 메시지 전송에 실패했습니다")
	}
	return sent, nil
}

// Start 텔레그램 업데이트 수신 루프를 시작합니다. serviceStopCtx가 취소되면 진행 중인 클릭 처리를 기다린 뒤 종료한다.
func (p *TelegramPresenter) Start(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup) error {
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = telegramPollTimeout
	updateConfig.AllowedUpdates = []string{"callback_query"}

	updateC := p.client.GetUpdatesChan(updateConfig)

	applog.WithComponentAndFields(component, applog.Fields{
		"bot_username": p.client.GetSelf().UserName,
		"chat_id":      p.chatID,
	}).Info("텔레그램 알림 표시면 시작됨: Long Polling 활성화")

	go p.receiveLoop(serviceStopCtx, serviceStopWG, updateC)

	return nil
}

func (p *TelegramPresenter) receiveLoop(serviceStopCtx context.Context, serviceStopWG *sync.WaitGroup, updateC tgbotapi.UpdatesChannel) {
	defer serviceStopWG.Done()

	var handlers sync.WaitGroup
	defer func() {
		p.client.StopReceivingUpdates()
		handlers.Wait()

		applog.WithComponent(component).Info("텔레그램 알림 표시면 종료됨")
	}()

	for {
		select {
		case update, ok := <-updateC:
			if !ok {
				applog.WithComponent(component).Error("Long Polling 채널 종료됨: 수신 루프를 종료합니다")
				return
			}

			id, ok := p.clickedNotificationID(update)
			if !ok {
				continue
			}

			handlers.Add(1)
			go func() {
				defer handlers.Done()
				p.handleClick(serviceStopCtx, update.CallbackQuery.ID, id)
			}()

		case <-serviceStopCtx.Done():
			return
		}
	}
}

// clickedNotificationID 설정된 채팅에서 눌린 "열기" 버튼이면 알림 ID를 반환합니다.
func (p *TelegramPresenter) clickedNotificationID(update tgbotapi.Update) (string, bool) {
	q := update.CallbackQuery
	if q == nil || q.Message == nil || q.Message.Chat == nil || q.Message.Chat.ID != p.chatID {
		return "", false
	}

	id, ok := strings.CutPrefix(q.Data, clickCallbackPrefix)
	if !ok || id == "" {
		return "", false
	}
	return id, true
}

func (p *TelegramPresenter) handleClick(ctx context.Context, callbackID, notificationID string) {
	// 버튼의 로딩 표시를 없앤다.
	if _, err := p.client.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"error": err,
		}).Warn("텔레그램 콜백 응답 실패")
	}

	onClick := p.clickHandler()
	if onClick == nil {
		return
	}

	if err := onClick(ctx, notificationID); err != nil {
		applog.WithComponentAndFields(component, applog.Fields{
			"notification_id": notificationID,
			"error":           err,
		}).Warn("알림 클릭 처리 실패")
	}
}
