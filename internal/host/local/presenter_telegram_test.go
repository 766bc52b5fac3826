package local

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	apperrors "github.com/darkkaiser/push-worker/internal/pkg/errors"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

const testChatID int64 = 12345

var _ telegramClient = (*mockTelegramClient)(nil)

// mockTelegramClient 봇 API 클라이언트의 Mock 구현체입니다.
type mockTelegramClient struct {
	mock.Mock
}

func newMockTelegramClient(t *testing.T) *mockTelegramClient {
	m := &mockTelegramClient{}
	m.Test(t)
	return m
}

func (m *mockTelegramClient) GetSelf() tgbotapi.User {
	args := m.Called()
	if u, ok := args.Get(0).(tgbotapi.User); ok {
		return u
	}
	return tgbotapi.User{}
}

func (m *mockTelegramClient) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	args := m.Called(config)
	if c, ok := args.Get(0).(chan tgbotapi.Update); ok {
		return c
	}
	return args.Get(0).(tgbotapi.UpdatesChannel)
}

func (m *mockTelegramClient) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)

	var msg tgbotapi.Message
	if args.Get(0) != nil {
		msg = args.Get(0).(tgbotapi.Message)
	}
	return msg, args.Error(1)
}

func (m *mockTelegramClient) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	args := m.Called(c)

	var resp *tgbotapi.APIResponse
	if args.Get(0) != nil {
		resp = args.Get(0).(*tgbotapi.APIResponse)
	}
	return resp, args.Error(1)
}

func (m *mockTelegramClient) StopReceivingUpdates() {
	m.Called()
}

func newTestTelegramPresenter(client *mockTelegramClient) *TelegramPresenter {
	p := newTelegramPresenter(testChatID, client)
	p.limiter = rate.NewLimiter(rate.Inf, 0)
	return p
}

// isMessage 지정한 텍스트를 가진 MessageConfig인지 확인하는 Matcher
func isMessage(text string) any {
	return mock.MatchedBy(func(c tgbotapi.MessageConfig) bool {
		return c.ChatID == testChatID && c.Text == text
	})
}

func TestTelegramPresenter_Present(t *testing.T) {
	client := newMockTelegramClient(t)
	p := newTestTelegramPresenter(client)

	client.On("Send", isMessage("<b>&lt;Sale&gt;</b>\na &amp; b")).Return(tgbotapi.Message{MessageID: 41}, nil).Once()

	require.NoError(t, p.Present(context.Background(), NotificationInfo{ID: "n-1", Title: "<Sale>", Body: "a & b"}))

	msg := client.Calls[0].Arguments.Get(0).(tgbotapi.MessageConfig)
	assert.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)

	markup, ok := msg.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.NotNil(t, markup.InlineKeyboard[0][0].CallbackData)
	assert.Equal(t, "click:n-1", *markup.InlineKeyboard[0][0].CallbackData)

	t.Run("Dismiss는 보낸 메시지를 삭제한다", func(t *testing.T) {
		client.On("Request", mock.MatchedBy(func(c tgbotapi.DeleteMessageConfig) bool {
			return c.ChatID == testChatID && c.MessageID == 41
		})).Return(&tgbotapi.APIResponse{Ok: true}, nil).Once()

		require.NoError(t, p.Dismiss(context.Background(), "n-1"))

		// 이미 내려간 알림은 요청을 보내지 않는다.
		require.NoError(t, p.Dismiss(context.Background(), "n-1"))
		client.AssertNumberOfCalls(t, "Request", 1)
	})

	client.AssertExpectations(t)
}

func TestTelegramPresenter_SendFailure(t *testing.T) {
	client := newMockTelegramClient(t)
	p := newTestTelegramPresenter(client)

	client.On("Send", mock.Anything).Return(nil, errors.New("network")).Once()

	err := p.Present(context.Background(), NotificationInfo{ID: "n-1", Title: "t"})
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.Unavailable))

	// 전송되지 않은 알림은 기록되지 않으므로 Dismiss는 아무것도 하지 않는다.
	require.NoError(t, p.Dismiss(context.Background(), "n-1"))
	client.AssertNotCalled(t, "Request", mock.Anything)
}

func TestTelegramPresenter_DismissFailure(t *testing.T) {
	client := newMockTelegramClient(t)
	p := newTestTelegramPresenter(client)

	client.On("Send", mock.Anything).Return(tgbotapi.Message{MessageID: 7}, nil).Once()
	client.On("Request", mock.AnythingOfType("tgbotapi.DeleteMessageConfig")).Return(nil, errors.New("message can't be deleted")).Once()

	require.NoError(t, p.Present(context.Background(), NotificationInfo{ID: "n-1", Title: "t"}))

	err := p.Dismiss(context.Background(), "n-1")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.Unavailable))
	assert.ErrorContains(t, err, "message can't be deleted")

	// 실패해도 기록은 지워지므로 같은 알림을 다시 삭제하지 않는다.
	require.NoError(t, p.Dismiss(context.Background(), "n-1"))
	client.AssertExpectations(t)
}

func TestTelegramPresenter_OpenWindow(t *testing.T) {
	client := newMockTelegramClient(t)
	p := newTestTelegramPresenter(client)

	client.On("Send", isMessage("https://example.com/sale?a=1&amp;b=2")).Return(tgbotapi.Message{MessageID: 1}, nil).Once()
	client.On("Send", isMessage("/relative")).Return(tgbotapi.Message{MessageID: 2}, nil).Once()

	require.NoError(t, p.OpenWindow(context.Background(), "https://example.com/sale?a=1&b=2"))
	require.NoError(t, p.OpenWindow(context.Background(), "/relative"))

	withButton := client.Calls[0].Arguments.Get(0).(tgbotapi.MessageConfig)
	markup, ok := withButton.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
	require.True(t, ok)
	require.NotNil(t, markup.InlineKeyboard[0][0].URL)
	assert.Equal(t, "https://example.com/sale?a=1&b=2", *markup.InlineKeyboard[0][0].URL)

	plain := client.Calls[1].Arguments.Get(0).(tgbotapi.MessageConfig)
	assert.Nil(t, plain.ReplyMarkup)

	client.AssertExpectations(t)
}

func TestTelegramPresenter_Start(t *testing.T) {
	client := newMockTelegramClient(t)
	p := newTestTelegramPresenter(client)

	updateC := make(chan tgbotapi.Update, 10)
	client.On("GetUpdatesChan", mock.MatchedBy(func(c tgbotapi.UpdateConfig) bool {
		return c.Timeout == telegramPollTimeout
	})).Return(updateC).Once()
	client.On("GetSelf").Return(tgbotapi.User{UserName: "push_worker_bot"})
	client.On("Request", mock.MatchedBy(func(c tgbotapi.CallbackConfig) bool {
		return c.CallbackQueryID == "cb"
	})).Return(&tgbotapi.APIResponse{Ok: true}, nil).Once()
	client.On("StopReceivingUpdates").Return().Once()

	clickedC := make(chan string, 1)
	p.SetClickHandler(func(ctx context.Context, notificationID string) error {
		clickedC <- notificationID
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	wg := &sync.WaitGroup{}
	wg.Add(1)
	require.NoError(t, p.Start(ctx, wg))

	callback := func(chatID int64, data string) tgbotapi.Update {
		return tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb",
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: chatID}},
			Data:    data,
		}}
	}

	// 다른 채팅과 알 수 없는 데이터는 무시한다.
	updateC <- callback(999, "click:other")
	updateC <- callback(testChatID, "unknown")
	updateC <- tgbotapi.Update{Message: &tgbotapi.Message{Text: "hi"}}
	updateC <- callback(testChatID, "click:n-7")

	select {
	case id := <-clickedC:
		assert.Equal(t, "n-7", id)
	case <-time.After(2 * time.Second):
		t.Fatal("클릭 처리가 호출되지 않았습니다")
	}

	cancel()
	wg.Wait()

	client.AssertExpectations(t)
}
