package telegram

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/mock"

	service "github.com/gsbelarus/tetrisbot/internal/app"
	"github.com/gsbelarus/tetrisbot/internal/domain/model"
	"github.com/gsbelarus/tetrisbot/internal/domain/types"
	"github.com/gsbelarus/tetrisbot/pkg/logger"
)

func init() {
	err := logger.Init()
	if err != nil {
		panic(err)
	}
}

// MockBotAPI mocks the Telegram client.
type MockBotAPI struct {
	mock.Mock
}

func (m *MockBotAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	args := m.Called(c)
	if msg, ok := args.Get(0).(tgbotapi.Message); ok {
		return msg, args.Error(1)
	}
	return tgbotapi.Message{}, args.Error(1)
}

func (m *MockBotAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	args := m.Called(c)
	if resp, ok := args.Get(0).(*tgbotapi.APIResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockBotAPI) MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error) {
	args := m.Called(endpoint, params)
	if resp, ok := args.Get(0).(*tgbotapi.APIResponse); ok {
		return resp, args.Error(1)
	}
	return nil, args.Error(1)
}

// MockService mocks the game service.
type MockService struct {
	mock.Mock
}

func (m *MockService) SeenUpdate(ctx context.Context, updateID int64) bool {
	return m.Called(updateID).Bool(0)
}

func (m *MockService) CallbackReceived() {
	m.Called()
}

func (m *MockService) RegisterPlayer(ctx context.Context, userID int64, name string, chatID int64) (bool, error) {
	args := m.Called(userID, name, chatID)
	return args.Bool(0), args.Error(1)
}

func (m *MockService) RememberChat(cc model.ChatContext) {
	m.Called(cc)
}

func (m *MockService) TopN(ctx context.Context, n int) []types.Entry {
	args := m.Called(n)
	if entries, ok := args.Get(0).([]types.Entry); ok {
		return entries
	}
	return nil
}

func (m *MockService) History(ctx context.Context, userID int64) (string, []string, bool) {
	args := m.Called(userID)
	rows, _ := args.Get(1).([]string)
	return args.String(0), rows, args.Bool(2)
}

func (m *MockService) Diagnostics(ctx context.Context) service.Stats {
	return m.Called().Get(0).(service.Stats)
}

const gameRoot = "https://tetris.example.org:8443/tetris"

func newTestBot() (*Bot, *MockBotAPI, *MockService) {
	api := new(MockBotAPI)
	svc := new(MockService)
	return NewBot(api, svc, gameRoot), api, svc
}

func fresh(svc *MockService, updateID int64) {
	svc.On("SeenUpdate", updateID).Return(false).Once()
	svc.On("CallbackReceived").Return().Once()
}

func TestHandleStart(t *testing.T) {
	bot, api, svc := newTestBot()
	fresh(svc, 1)

	api.On("Send", mock.MatchedBy(func(c tgbotapi.GameConfig) bool {
		kb, ok := c.ReplyMarkup.(tgbotapi.InlineKeyboardMarkup)
		return ok &&
			c.ChatID == 10 &&
			c.GameShortName == "tetris" &&
			len(kb.InlineKeyboard) == 3 &&
			kb.InlineKeyboard[0][0].CallbackGame != nil &&
			strings.Contains(kb.InlineKeyboard[0][0].Text, "Играть одному")
	})).Return(tgbotapi.Message{}, nil).Once()

	msg := &tgbotapi.Message{
		Chat:     &tgbotapi.Chat{ID: 10},
		From:     &tgbotapi.User{ID: 7, LanguageCode: "ru"},
		Text:     "/start",
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: 6}},
	}
	bot.HandleUpdate(context.Background(), tgbotapi.Update{UpdateID: 1, Message: msg})

	api.AssertExpectations(t)
	svc.AssertExpectations(t)
}

func TestHandleUpdate_Duplicate(t *testing.T) {
	bot, api, svc := newTestBot()
	svc.On("SeenUpdate", int64(5)).Return(true).Once()

	bot.HandleUpdate(context.Background(), tgbotapi.Update{UpdateID: 5, Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 1}}})

	svc.AssertNotCalled(t, "CallbackReceived")
	api.AssertNotCalled(t, "Send", mock.Anything)
	svc.AssertExpectations(t)
}

func topCallback(updateID int, data string) tgbotapi.Update {
	return tgbotapi.Update{
		UpdateID: updateID,
		CallbackQuery: &tgbotapi.CallbackQuery{
			ID:      "cb",
			From:    &tgbotapi.User{ID: 42, LanguageCode: "en"},
			Message: &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 10}},
			Data:    data,
		},
	}
}

func TestHandleTop(t *testing.T) {
	t.Run("with results", func(t *testing.T) {
		bot, api, svc := newTestBot()
		fresh(svc, 2)
		svc.On("TopN", 40).Return([]types.Entry{
			{Rank: 1, UserID: 2, UserName: "B", Score: 10},
			{Rank: 2, UserID: 3, UserName: "C", Score: 5},
		}).Once()

		api.On("Request", tgbotapi.NewCallback("cb", "")).Return(nil, nil).Once()
		api.On("Send", mock.MatchedBy(func(c tgbotapi.MessageConfig) bool {
			want := "```\n#  Player              Score\n" + strings.Repeat("=", 28) + "\n" +
				"1  B                      10\n" +
				"2  C                       5```"
			return c.ParseMode == tgbotapi.ModeMarkdownV2 && c.Text == want
		})).Return(tgbotapi.Message{}, nil).Once()

		bot.HandleUpdate(context.Background(), topCallback(2, DataTop40))

		api.AssertExpectations(t)
		svc.AssertExpectations(t)
	})

	t.Run("without results", func(t *testing.T) {
		bot, api, svc := newTestBot()
		fresh(svc, 3)
		svc.On("TopN", 40).Return([]types.Entry{}).Once()

		api.On("Request", mock.Anything).Return(nil, nil).Once()
		api.On("Send", tgbotapi.NewMessage(10, "No results yet!")).Return(tgbotapi.Message{}, nil).Once()

		bot.HandleUpdate(context.Background(), topCallback(3, DataTop40))

		api.AssertExpectations(t)
	})
}

func TestHandleHistory(t *testing.T) {
	bot, api, svc := newTestBot()
	fresh(svc, 4)
	svc.On("History", int64(42)).Return("Ann Lee", []string{"01.02.2024   300  2   00:01:00"}, true).Once()

	api.On("Request", mock.Anything).Return(nil, nil).Once()
	api.On("Send", mock.MatchedBy(func(c tgbotapi.MessageConfig) bool {
		return strings.HasPrefix(c.Text, "```\nHistory of play for Ann Lee\n\nDate       Score  Lvl Time\n"+strings.Repeat("=", 30)) &&
			strings.HasSuffix(c.Text, "00:01:00```")
	})).Return(tgbotapi.Message{}, nil).Once()

	bot.HandleUpdate(context.Background(), topCallback(4, DataHistory))

	api.AssertExpectations(t)
	svc.AssertExpectations(t)
}

func TestHandleDiagnostics(t *testing.T) {
	bot, api, svc := newTestBot()
	fresh(svc, 6)
	svc.On("Diagnostics").Return(service.Stats{
		StartedAt:         time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		GoVersion:         "go1.24",
		Players:           3,
		CallbacksReceived: 9,
	}).Once()

	api.On("Send", mock.MatchedBy(func(c tgbotapi.MessageConfig) bool {
		return strings.Contains(c.Text, "Players registered: 3") &&
			strings.Contains(c.Text, "Callbacks received: 9") &&
			strings.Contains(c.Text, "Go version: go1.24")
	})).Return(tgbotapi.Message{}, nil).Once()

	msg := &tgbotapi.Message{Chat: &tgbotapi.Chat{ID: 10}, From: &tgbotapi.User{ID: 1}, Text: "diagnostics"}
	bot.HandleUpdate(context.Background(), tgbotapi.Update{UpdateID: 6, Message: msg})

	api.AssertExpectations(t)
	svc.AssertExpectations(t)
}

func gameCallback(updateID int, withChat bool) tgbotapi.Update {
	cb := &tgbotapi.CallbackQuery{
		ID:            "game",
		From:          &tgbotapi.User{ID: 42, FirstName: "Ann", LastName: "Lee", LanguageCode: "be-BY"},
		GameShortName: "tetris",
	}
	if withChat {
		cb.Message = &tgbotapi.Message{MessageID: 77, Chat: &tgbotapi.Chat{ID: -100}}
	} else {
		cb.InlineMessageID = "inline"
	}
	return tgbotapi.Update{UpdateID: updateID, CallbackQuery: cb}
}

func TestHandleGameLaunch(t *testing.T) {
	t.Run("from a chat", func(t *testing.T) {
		bot, api, svc := newTestBot()
		fresh(svc, 7)
		svc.On("RegisterPlayer", int64(42), "Ann Lee", int64(-100)).Return(true, nil).Once()
		svc.On("RememberChat", model.ChatContext{ChatID: -100, MessageID: 77}).Return().Once()

		want := tgbotapi.NewCallback("game", "")
		want.URL = gameRoot + "/index.html?userId=42&chatId=-100&lang=be"
		api.On("Request", want).Return(nil, nil).Once()

		bot.HandleUpdate(context.Background(), gameCallback(7, true))

		api.AssertExpectations(t)
		svc.AssertExpectations(t)
	})

	t.Run("answer fails", func(t *testing.T) {
		bot, api, svc := newTestBot()
		fresh(svc, 8)
		svc.On("RegisterPlayer", int64(42), "Ann Lee", int64(-100)).Return(false, nil).Once()
		api.On("Request", mock.Anything).Return(nil, errors.New("query is too old")).Once()

		bot.HandleUpdate(context.Background(), gameCallback(8, true))

		svc.AssertNotCalled(t, "RememberChat", mock.Anything)
		api.AssertExpectations(t)
	})

	t.Run("from a shared message", func(t *testing.T) {
		bot, api, svc := newTestBot()
		fresh(svc, 9)

		want := tgbotapi.NewCallback("game", "")
		want.URL = gameRoot + "/index.html?no_chat_warning"
		api.On("Request", want).Return(nil, nil).Once()

		bot.HandleUpdate(context.Background(), gameCallback(9, false))

		svc.AssertNotCalled(t, "RegisterPlayer", mock.Anything, mock.Anything, mock.Anything)
		api.AssertExpectations(t)
	})
}

func TestRegisterCommands(t *testing.T) {
	bot, api, _ := newTestBot()
	api.On("Request", tgbotapi.NewSetMyCommands(tgbotapi.BotCommand{Command: "start", Description: "Start the game"})).
		Return(nil, nil).Once()

	if err := bot.RegisterCommands(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	api.AssertExpectations(t)
}

func TestRun(t *testing.T) {
	bot, api, svc := newTestBot()
	fresh(svc, 11)
	api.On("Request", mock.Anything).Return(nil, nil).Once()

	updates := make(chan tgbotapi.Update, 1)
	updates <- gameCallback(11, false)
	close(updates)

	if err := bot.Run(context.Background(), updates); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	api.AssertExpectations(t)
	svc.AssertExpectations(t)
}

type pollAnswerEvent struct{}

func (pollAnswerEvent) Kind() string { return "poll_answer" }
func (pollAnswerEvent) isEvent() {}

func TestDispatch_UnknownEvent(t *testing.T) {
	bot, api, svc := newTestBot()

	defer func() {
		if r := recover(); r != nil {
			t.Fatalf("dispatch panicked: %v", r)
		}
	}()
	bot.dispatch(context.Background(), pollAnswerEvent{})

	api.AssertNotCalled(t, "Send", mock.Anything)
	api.AssertNotCalled(t, "Request", mock.Anything)
	svc.AssertExpectations(t)
}
