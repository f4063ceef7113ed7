// Package ledger keeps each player's bounded, best-first score history.
package ledger

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/gsbelarus/tetrisbot/internal/adapters/repository"
	"github.com/gsbelarus/tetrisbot/internal/domain/model"
	"github.com/gsbelarus/tetrisbot/pkg/logger"
)

// DefaultMaxHistory is the number of results kept per player.
const DefaultMaxHistory = 100

// DateLayout is the layout of model.Result.Date.
const DateLayout = "02.01.2006"

// Ledger applies score submissions and chat registrations to the store.
// It trusts its input; parsing happens at the transport boundary.
type Ledger struct {
	store      repository.Store[model.UserHistory]
	maxHistory int
	now        func() time.Time
	logger     logger.Logger
}

// New creates a Ledger on top of store.
func New(store repository.Store[model.UserHistory], opts ...Option) *Ledger {
	l := &Ledger{
		store:      store,
		maxHistory: DefaultMaxHistory,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.logger == nil {
		l.logger = logger.Get().Named("ledger")
	}
	return l
}

// MaxHistory returns the per-player history cap.
func (l *Ledger) MaxHistory() int {
	return l.maxHistory
}

// Submit records result for userID. It reports whether the result beats every
// earlier one. An empty Date is filled with today's date.
func (l *Ledger) Submit(ctx context.Context, userID int64, result model.Result) (bool, error) {
	if result.Date == "" {
		result.Date = l.now().Format(DateLayout)
	}

	var known, newHigh bool
	l.store.Update(ctx, userID, func(h model.UserHistory, exists bool) (model.UserHistory, bool) {
		if !exists {
			return h, false
		}
		known = true
		newHigh = len(h.Results) == 0 || h.Best() < result.Points

		next := h.Clone()
		next.Results = append(next.Results, result)
		slices.SortStableFunc(next.Results, func(a, b model.Result) int {
			return cmp.Compare(b.Points, a.Points)
		})
		if len(next.Results) > l.maxHistory {
			next.Results = next.Results[:l.maxHistory]
		}
		return next, true
	})
	if !known {
		return false, fmt.Errorf("submit for %d: %w", userID, ErrUnknownUser)
	}

	l.logger.Debug(ctx, "result recorded",
		logger.UserID(userID),
		logger.Int("points", result.Points),
		logger.Bool("new_high", newHigh),
	)
	return newHigh, nil
}

// Register makes sure userID has a record reachable in chatID. A new record
// gets name; existing names are left alone. It reports whether a record was
// created.
func (l *Ledger) Register(ctx context.Context, userID int64, name string, chatID int64) (bool, error) {
	var created bool
	l.store.Update(ctx, userID, func(h model.UserHistory, exists bool) (model.UserHistory, bool) {
		if !exists {
			created = true
			return model.UserHistory{
				UserName: name,
				ChatIDs:  []int64{chatID},
				Results:  []model.Result{},
			}, true
		}
		if h.HasChat(chatID) {
			return h, false
		}
		next := h.Clone()
		next.ChatIDs = append(next.ChatIDs, chatID)
		return next, true
	})

	if created {
		l.logger.Info(ctx, "player registered",
			logger.UserID(userID),
			logger.ChatID(chatID),
			logger.String("name", name),
		)
	}
	return created, nil
}

// History returns the stored record for userID.
func (l *Ledger) History(ctx context.Context, userID int64) (model.UserHistory, bool) {
	return l.store.Read(ctx, userID)
}
