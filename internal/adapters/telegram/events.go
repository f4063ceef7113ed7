package telegram

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/gsbelarus/tetrisbot/internal/domain/model"
)

// Callback data carried by the inline keyboard buttons.
const (
	DataTop40   = "top40"
	DataHistory = "history"

	commandStart    = "start"
	textDiagnostics = "diagnostics"
)

// Sender is the user an update came from.
type Sender struct {
	ID           int64
	FirstName    string
	LastName     string
	LanguageCode string
}

// DisplayName is the name stored for a new player.
func (s Sender) DisplayName() string {
	return s.FirstName + " " + s.LastName
}

// Event is an inbound update after validation. The set of implementations is
// closed; handlers switch over all of them.
type Event interface {
	Kind() string
	isEvent()
}

// StartEvent is the /start command.
type StartEvent struct {
	ChatID int64
	From   Sender
}

// TopEvent is a press of the leaderboard button.
type TopEvent struct {
	CallbackID string
	ChatID     int64
	From       Sender
}

// HistoryEvent is a press of the history button.
type HistoryEvent struct {
	CallbackID string
	ChatID     int64
	From       Sender
}

// DiagnosticsEvent is the plain-text "diagnostics" message.
type DiagnosticsEvent struct {
	ChatID int64
	From   Sender
}

// GameLaunchEvent is a press of the play button in a chat the bot can see.
type GameLaunchEvent struct {
	CallbackID string
	From       Sender
	Context    model.ChatContext
}

// SharedLaunchEvent is a callback from a message the bot has no chat for,
// typically a game shared into another conversation.
type SharedLaunchEvent struct {
	CallbackID string
	From       Sender
}

// IgnoredEvent is any update the bot does not act on.
type IgnoredEvent struct {
	ChatID int64
	Reason string
}

func (StartEvent) Kind() string        { return "start" }
func (TopEvent) Kind() string          { return "top" }
func (HistoryEvent) Kind() string      { return "history" }
func (DiagnosticsEvent) Kind() string  { return "diagnostics" }
func (GameLaunchEvent) Kind() string   { return "game_launch" }
func (SharedLaunchEvent) Kind() string { return "shared_launch" }
func (IgnoredEvent) Kind() string      { return "ignored" }

func (StartEvent) isEvent()        {}
func (TopEvent) isEvent()          {}
func (HistoryEvent) isEvent()      {}
func (DiagnosticsEvent) isEvent()  {}
func (GameLaunchEvent) isEvent()   {}
func (SharedLaunchEvent) isEvent() {}
func (IgnoredEvent) isEvent()      {}

// Parse turns a raw update into an Event. gameShortName is the game the bot
// serves; launches of any other game are ignored.
func Parse(u tgbotapi.Update, gameShortName string) Event { //nolint:gocritic // hugeParam: updates arrive by value from the library channel
	switch {
	case u.Message != nil:
		return parseMessage(u.Message)
	case u.CallbackQuery != nil:
		return parseCallback(u.CallbackQuery, gameShortName)
	default:
		return IgnoredEvent{Reason: "unsupported update"}
	}
}

func parseMessage(m *tgbotapi.Message) Event {
	if m.Chat == nil {
		return IgnoredEvent{Reason: "message without chat"}
	}
	chatID := m.Chat.ID
	from := senderOf(m.From)

	switch {
	case m.IsCommand() && m.Command() == commandStart:
		return StartEvent{ChatID: chatID, From: from}
	case m.Text == textDiagnostics:
		return DiagnosticsEvent{ChatID: chatID, From: from}
	default:
		return IgnoredEvent{ChatID: chatID, Reason: "unhandled message"}
	}
}

func parseCallback(cb *tgbotapi.CallbackQuery, gameShortName string) Event {
	from := senderOf(cb.From)
	if cb.Message == nil || cb.Message.Chat == nil {
		return SharedLaunchEvent{CallbackID: cb.ID, From: from}
	}
	chatID := cb.Message.Chat.ID

	switch {
	case cb.Data == DataTop40:
		return TopEvent{CallbackID: cb.ID, ChatID: chatID, From: from}
	case cb.Data == DataHistory:
		return HistoryEvent{CallbackID: cb.ID, ChatID: chatID, From: from}
	case cb.GameShortName != "" && cb.GameShortName == gameShortName:
		if from.ID == 0 {
			return IgnoredEvent{ChatID: chatID, Reason: "game launch without user"}
		}
		return GameLaunchEvent{
			CallbackID: cb.ID,
			From:       from,
			Context: model.ChatContext{
				ChatID:          chatID,
				MessageID:       cb.Message.MessageID,
				InlineMessageID: cb.InlineMessageID,
			},
		}
	default:
		return IgnoredEvent{ChatID: chatID, Reason: "unhandled callback"}
	}
}

func senderOf(u *tgbotapi.User) Sender {
	if u == nil {
		return Sender{}
	}
	return Sender{
		ID:           u.ID,
		FirstName:    u.FirstName,
		LastName:     u.LastName,
		LanguageCode: u.LanguageCode,
	}
}

// describe renders the update the way it is logged: the raw kind and the
// text, data or game name it carried.
func describe(u tgbotapi.Update) (chatID int64, kind, payload string) { //nolint:gocritic // hugeParam: see Parse
	switch {
	case u.Message != nil:
		if u.Message.Chat != nil {
			chatID = u.Message.Chat.ID
		}
		return chatID, "message", u.Message.Text
	case u.CallbackQuery != nil:
		cb := u.CallbackQuery
		if cb.Message != nil && cb.Message.Chat != nil {
			chatID = cb.Message.Chat.ID
		}
		payload = cb.Data
		if payload == "" {
			payload = cb.GameShortName
		}
		return chatID, "callback_query", payload
	default:
		return 0, "other", ""
	}
}
