package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/gsbelarus/tetrisbot/internal/domain/ledger"
	"github.com/gsbelarus/tetrisbot/internal/domain/model"
	"github.com/gsbelarus/tetrisbot/pkg/logger"
	"github.com/gsbelarus/tetrisbot/pkg/metrics"
)

// SubmitAck is the body of every submit response.
const SubmitAck = "Score submitted"

// SubmitDependencies defines the interface for score submission.
type SubmitDependencies interface {
	SubmitScore(ctx context.Context, sub model.Submission) (bool, error)
}

// SubmitHandler handles score reports from the game page.
type SubmitHandler struct {
	deps   SubmitDependencies
	logger logger.Logger
}

// NewSubmitHandler creates a new submit handler.
func NewSubmitHandler(deps SubmitDependencies, l logger.Logger) *SubmitHandler {
	return &SubmitHandler{deps: deps, logger: l}
}

// HandleSubmit handles GET /tetris/telegramBot/v1/submitTetris/. The game
// page does not inspect the reply, so every request is acknowledged with 200
// and problems only reach the log.
func (h *SubmitHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(SubmitAck))

	ctx := r.Context()
	sub, err := ParseSubmission(r.URL.Query())
	if err != nil {
		metrics.RecordSubmissionRejected("malformed")
		h.logger.Warn(ctx, "Invalid submit scores request",
			logger.String("query", r.URL.RawQuery),
			logger.Error(err),
		)
		return
	}

	if _, err := h.deps.SubmitScore(ctx, sub); err != nil && !errors.Is(err, ledger.ErrUnknownUser) {
		metrics.RecordErrorByComponent("http", "submit")
		h.logger.Error(ctx, "submit score failed",
			logger.UserID(sub.UserID),
			logger.ChatID(sub.ChatID),
			logger.Error(err),
		)
	}
}

// ParseSubmission reads the seven integer query parameters of a score
// report. Every parameter is required.
func ParseSubmission(q url.Values) (model.Submission, error) {
	var (
		sub  model.Submission
		errs []error
	)
	int64Param := func(name string) int64 {
		v, err := strconv.ParseInt(q.Get(name), 10, 64)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		return v
	}
	intParam := func(name string) int {
		v, err := strconv.Atoi(q.Get(name))
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
		}
		return v
	}

	sub.ChatID = int64Param("chatId")
	sub.UserID = int64Param("userId")
	sub.Points = intParam("points")
	sub.Figures = intParam("figures")
	sub.Lines = intParam("lines")
	sub.Level = intParam("level")
	sub.Duration = int64Param("duration")

	if len(errs) > 0 {
		return model.Submission{}, fmt.Errorf("%w: %w", ErrMalformedQuery, errors.Join(errs...))
	}
	return sub, nil
}
