// Package telegram adapts Telegram bot updates to the game service and pushes
// scores back to Telegram.
package telegram

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	service "github.com/gsbelarus/tetrisbot/internal/app"
	"github.com/gsbelarus/tetrisbot/internal/domain/leaderboard"
	"github.com/gsbelarus/tetrisbot/internal/domain/model"
	"github.com/gsbelarus/tetrisbot/internal/domain/types"
	"github.com/gsbelarus/tetrisbot/internal/i18n"
	"github.com/gsbelarus/tetrisbot/pkg/logger"
	"github.com/gsbelarus/tetrisbot/pkg/metrics"
)

// Default bot configuration constants.
const (
	defaultGameShortName = "tetris"
	defaultTopSize       = 40
	defaultFriendsURL    = "https://telegram.me/GoldenTetrisBot?game=tetris"
	defaultSiteURL       = "http://gsbelarus.com"
)

// BotAPI is the part of the Telegram client the bot uses.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
}

// Service is what the bot needs from the game service.
type Service interface {
	SeenUpdate(ctx context.Context, updateID int64) bool
	CallbackReceived()
	RegisterPlayer(ctx context.Context, userID int64, name string, chatID int64) (bool, error)
	RememberChat(cc model.ChatContext)
	TopN(ctx context.Context, n int) []types.Entry
	History(ctx context.Context, userID int64) (string, []string, bool)
	Diagnostics(ctx context.Context) service.Stats
}

// Bot handles Telegram updates.
type Bot struct {
	api      BotAPI
	svc      Service
	texts    *i18n.Catalog
	gameRoot string

	gameShortName string
	topSize       int
	friendsURL    string
	siteURL       string

	logger logger.Logger
}

// NewBot creates a Bot. gameRoot is the public URL the game is served under,
// e.g. https://host:port/tetris.
func NewBot(api BotAPI, svc Service, gameRoot string, opts ...Option) *Bot {
	b := &Bot{
		api:           api,
		svc:           svc,
		gameRoot:      strings.TrimSuffix(gameRoot, "/"),
		gameShortName: defaultGameShortName,
		topSize:       defaultTopSize,
		friendsURL:    defaultFriendsURL,
		siteURL:       defaultSiteURL,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.texts == nil {
		b.texts = i18n.MustNew()
	}
	if b.logger == nil {
		b.logger = logger.Get().Named("telegram")
	}
	return b
}

// RegisterCommands publishes the bot's command list.
func (b *Bot) RegisterCommands(ctx context.Context) error {
	cfg := tgbotapi.NewSetMyCommands(tgbotapi.BotCommand{
		Command:     commandStart,
		Description: b.texts.Text(i18n.DefaultLang, i18n.StartDescription),
	})
	if _, err := b.api.Request(cfg); err != nil {
		return fmt.Errorf("set commands: %w", err)
	}
	b.logger.Info(ctx, "bot commands registered")
	return nil
}

// Run handles updates in arrival order until ctx is cancelled or updates is
// closed.
func (b *Bot) Run(ctx context.Context, updates <-chan tgbotapi.Update) error {
	b.logger.Info(ctx, "bot started")
	for {
		select {
		case <-ctx.Done():
			b.logger.Info(ctx, "bot stopped")
			return nil
		case u, ok := <-updates:
			if !ok {
				return nil
			}
			b.HandleUpdate(ctx, u)
		}
	}
}

// HandleUpdate processes one update. Redelivered update ids are skipped.
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) { //nolint:gocritic // hugeParam: updates arrive by value from the library channel
	if b.svc.SeenUpdate(ctx, int64(u.UpdateID)) {
		b.logger.Debug(ctx, "duplicate update skipped", logger.Int("update_id", u.UpdateID))
		return
	}

	b.svc.CallbackReceived()
	chatID, kind, payload := describe(u)
	b.logger.Info(ctx, fmt.Sprintf("Chat %d: %s %q", chatID, kind, payload))

	ev := Parse(u, b.gameShortName)
	metrics.RecordUpdateReceived(ev.Kind())
	b.dispatch(ctx, ev)
}

// dispatch routes ev to its handler. Unknown events are logged and dropped so
// the update loop keeps running.
func (b *Bot) dispatch(ctx context.Context, ev Event) {
	switch e := ev.(type) {
	case StartEvent:
		b.handleStart(ctx, e)
	case TopEvent:
		b.handleTop(ctx, e)
	case HistoryEvent:
		b.handleHistory(ctx, e)
	case DiagnosticsEvent:
		b.handleDiagnostics(ctx, e)
	case GameLaunchEvent:
		b.handleGameLaunch(ctx, e)
	case SharedLaunchEvent:
		b.handleSharedLaunch(ctx, e)
	case IgnoredEvent:
		b.logger.Debug(ctx, "update ignored", logger.ChatID(e.ChatID), logger.String("reason", e.Reason))
	default:
		metrics.RecordErrorByComponent("telegram", "unhandled_event")
		b.logger.Warn(ctx, "unhandled update event", logger.String("event", fmt.Sprintf("%T", ev)))
	}
}

func (b *Bot) handleStart(ctx context.Context, e StartEvent) {
	game := tgbotapi.GameConfig{
		BaseChat: tgbotapi.BaseChat{
			ChatID:      e.ChatID,
			ReplyMarkup: b.keyboard(e.From.LanguageCode),
		},
		GameShortName: b.gameShortName,
	}
	if _, err := b.api.Send(game); err != nil {
		b.sendFailed(ctx, "send game failed", e.From.ID, e.ChatID, err)
	}
}

func (b *Bot) handleTop(ctx context.Context, e TopEvent) {
	b.answerEmpty(ctx, e.CallbackID, e.From.ID, e.ChatID)

	lang := e.From.LanguageCode
	entries := b.svc.TopN(ctx, b.topSize)
	if len(entries) == 0 {
		b.reply(ctx, e.ChatID, e.From.ID, b.texts.Text(lang, i18n.NoResults))
		return
	}

	lines := make([]string, 0, len(entries)+2)
	lines = append(lines,
		b.texts.Text(lang, i18n.TopHeader),
		leaderboard.Rule(leaderboard.TopRuleWidth),
	)
	lines = append(lines, leaderboard.RenderTop(entries)...)
	b.replyCode(ctx, e.ChatID, e.From.ID, lines)
}

func (b *Bot) handleHistory(ctx context.Context, e HistoryEvent) {
	b.answerEmpty(ctx, e.CallbackID, e.From.ID, e.ChatID)

	lang := e.From.LanguageCode
	name, rows, ok := b.svc.History(ctx, e.From.ID)
	if !ok {
		b.reply(ctx, e.ChatID, e.From.ID, b.texts.Text(lang, i18n.NoResults))
		return
	}

	lines := make([]string, 0, len(rows)+4)
	lines = append(lines,
		b.texts.Text(lang, i18n.HistoryFor)+name,
		"",
		b.texts.Text(lang, i18n.HistoryHeader),
		leaderboard.Rule(leaderboard.HistoryRuleWidth),
	)
	lines = append(lines, rows...)
	b.replyCode(ctx, e.ChatID, e.From.ID, lines)
}

func (b *Bot) handleDiagnostics(ctx context.Context, e DiagnosticsEvent) {
	b.replyCode(ctx, e.ChatID, e.From.ID, DiagnosticsLines(b.svc.Diagnostics(ctx)))
}

func (b *Bot) handleGameLaunch(ctx context.Context, e GameLaunchEvent) {
	userID, chatID := e.From.ID, e.Context.ChatID

	if _, err := b.svc.RegisterPlayer(ctx, userID, e.From.DisplayName(), chatID); err != nil {
		b.logger.Error(ctx, "register player failed",
			logger.UserID(userID), logger.ChatID(chatID), logger.Error(err))
	}

	url := fmt.Sprintf("%s/index.html?userId=%d&chatId=%d&lang=%s",
		b.gameRoot, userID, chatID, i18n.LangFromCode(e.From.LanguageCode))
	if err := b.answerURL(e.CallbackID, url); err != nil {
		b.sendFailed(ctx, "answer game query failed", userID, chatID, err)
		return
	}

	b.svc.RememberChat(e.Context)
	b.logger.Info(ctx, "game launched", logger.UserID(userID), logger.ChatID(chatID))
}

func (b *Bot) handleSharedLaunch(ctx context.Context, e SharedLaunchEvent) {
	if err := b.answerURL(e.CallbackID, b.gameRoot+"/index.html?no_chat_warning"); err != nil {
		b.sendFailed(ctx, "answer game query failed", e.From.ID, 0, err)
	}
}

func (b *Bot) answerURL(callbackID, url string) error {
	cfg := tgbotapi.NewCallback(callbackID, "")
	cfg.URL = url
	_, err := b.api.Request(cfg)
	return err
}

func (b *Bot) answerEmpty(ctx context.Context, callbackID string, userID, chatID int64) {
	if _, err := b.api.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		b.sendFailed(ctx, "answer callback failed", userID, chatID, err)
	}
}

func (b *Bot) reply(ctx context.Context, chatID, userID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		b.sendFailed(ctx, "send message failed", userID, chatID, err)
	}
}

func (b *Bot) replyCode(ctx context.Context, chatID, userID int64, lines []string) {
	msg := tgbotapi.NewMessage(chatID, CodeBlock(lines))
	msg.ParseMode = tgbotapi.ModeMarkdownV2
	if _, err := b.api.Send(msg); err != nil {
		b.sendFailed(ctx, "send message failed", userID, chatID, err)
	}
}

func (b *Bot) sendFailed(ctx context.Context, msg string, userID, chatID int64, err error) {
	metrics.RecordErrorByComponent("telegram", "send")
	b.logger.Error(ctx, msg, logger.UserID(userID), logger.ChatID(chatID), logger.Error(err))
}

// CodeBlock wraps lines in a MarkdownV2 pre block.
func CodeBlock(lines []string) string {
	body := strings.Join(lines, "\n")
	body = strings.NewReplacer(`\`, `\\`, "`", "\\`").Replace(body)
	return "```\n" + body + "```"
}

// DiagnosticsLines renders process counters for the diagnostics reply.
func DiagnosticsLines(st service.Stats) []string { //nolint:gocritic // hugeParam: read-only snapshot
	mem, _ := json.MarshalIndent(struct {
		HeapAlloc uint64 `json:"heapAlloc"`
		HeapSys   uint64 `json:"heapSys"`
		Sys       uint64 `json:"sys"`
		NumGC     uint32 `json:"numGC"`
	}{st.HeapAlloc, st.HeapSys, st.Sys, st.NumGC}, "", "  ")

	return []string{
		"Server started: " + st.StartedAt.Format(time.RFC1123),
		"Go version: " + st.GoVersion,
		"Memory usage:",
		string(mem),
		fmt.Sprintf("Contexts count: %d", st.Contexts),
		fmt.Sprintf("Players registered: %d", st.Players),
		fmt.Sprintf("Games registered: %d", st.Games),
		fmt.Sprintf("Callbacks received: %d", st.CallbacksReceived),
		fmt.Sprintf("Games served: %d", st.GamesServed),
		fmt.Sprintf("Log records: %d", st.LogRecords),
	}
}
