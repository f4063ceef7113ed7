package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/gsbelarus/tetrisbot/internal/domain/model"
	"github.com/gsbelarus/tetrisbot/pkg/logger"
	"github.com/gsbelarus/tetrisbot/pkg/metrics"
)

// scoreNotModified is Telegram's reply when the stored score is already at
// least as high.
const scoreNotModified = "BOT_SCORE_NOT_MODIFIED"

const methodSetGameScore = "setGameScore"

// ScorePusher delivers scores with setGameScore.
type ScorePusher struct {
	api    BotAPI
	logger logger.Logger
}

// NewScorePusher creates a ScorePusher.
func NewScorePusher(api BotAPI, l logger.Logger) *ScorePusher {
	if l == nil {
		l = logger.Get().Named("score-pusher")
	}
	return &ScorePusher{api: api, logger: l}
}

// PushScore implements worker.Pusher. A score that does not beat the one
// Telegram holds is not an error.
func (p *ScorePusher) PushScore(ctx context.Context, sp model.ScorePush) error { //nolint:gocritic // hugeParam: value semantics for queued data
	params := ScoreParams(sp)

	// The client has no context support; give up waiting when ctx ends.
	done := make(chan error, 1)
	go func() {
		_, err := p.api.MakeRequest(methodSetGameScore, params)
		done <- err
	}()

	var err error
	select {
	case err = <-done:
	case <-ctx.Done():
		metrics.RecordScorePush("timeout")
		return ctx.Err()
	}

	switch {
	case err == nil:
		metrics.RecordScorePush("sent")
		p.logger.Debug(ctx, "score pushed",
			logger.UserID(sp.UserID), logger.ChatID(sp.Context.ChatID), logger.Int("points", sp.Points))
		return nil
	case IsScoreNotModified(err):
		metrics.RecordScorePush("not_modified")
		p.logger.Info(ctx, "There are higher scores registered with Telegram.",
			logger.UserID(sp.UserID), logger.ChatID(sp.Context.ChatID))
		return nil
	default:
		metrics.RecordScorePush("error")
		return err
	}
}

// ScoreParams builds the setGameScore form. The library's SetGameScoreConfig
// sends the score under a misspelled key, so the form is assembled here. A
// known inline message id is used alone; otherwise the chat and message ids.
func ScoreParams(sp model.ScorePush) tgbotapi.Params { //nolint:gocritic // hugeParam: value semantics for queued data
	params := tgbotapi.Params{
		"user_id": strconv.FormatInt(sp.UserID, 10),
		"score":   strconv.Itoa(sp.Points),
	}
	if sp.Context.InlineMessageID != "" {
		params["inline_message_id"] = sp.Context.InlineMessageID
		return params
	}
	params["chat_id"] = strconv.FormatInt(sp.Context.ChatID, 10)
	params["message_id"] = strconv.Itoa(sp.Context.MessageID)
	return params
}

// IsScoreNotModified reports whether err is Telegram's BOT_SCORE_NOT_MODIFIED.
func IsScoreNotModified(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *tgbotapi.Error
	if errors.As(err, &apiErr) {
		return strings.Contains(apiErr.Message, scoreNotModified)
	}
	return strings.Contains(err.Error(), scoreNotModified)
}
