// Package leaderboard derives ranked and per-player text views from the
// score store.
package leaderboard

import (
	"cmp"
	"context"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gsbelarus/tetrisbot/internal/adapters/repository"
	"github.com/gsbelarus/tetrisbot/internal/domain/ledger"
	"github.com/gsbelarus/tetrisbot/internal/domain/model"
	"github.com/gsbelarus/tetrisbot/internal/domain/types"
)

// Column widths of the rendered tables.
const (
	rankWidth  = 3
	nameWidth  = 20
	scoreWidth = 5
	dateWidth  = 11

	// TopRuleWidth and HistoryRuleWidth are the lengths of the "=" lines
	// under each table header.
	TopRuleWidth     = 28
	HistoryRuleWidth = 30
)

// Builder reads the store and renders leaderboard and history tables.
type Builder struct {
	store repository.Store[model.UserHistory]
}

// New creates a Builder over store.
func New(store repository.Store[model.UserHistory]) *Builder {
	return &Builder{store: store}
}

// TopN returns up to n players ranked by best score. Players whose best is
// zero, including those with no results, are left out; negative bests rank
// last. Equal scores keep ascending user id order.
func (b *Builder) TopN(_ context.Context, n int) []types.Entry {
	if n <= 0 {
		return nil
	}

	table := b.store.Entries(false)
	ids := slices.Sorted(maps.Keys(table))

	entries := make([]types.Entry, 0, len(ids))
	for _, id := range ids {
		h := table[id]
		best := h.Best()
		if best == 0 {
			continue
		}
		entries = append(entries, types.Entry{UserID: id, UserName: h.UserName, Score: best})
	}

	slices.SortStableFunc(entries, func(a, b types.Entry) int {
		return cmp.Compare(b.Score, a.Score)
	})
	if len(entries) > n {
		entries = entries[:n]
	}
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// RenderTop formats entries as fixed-width rows: rank, name, score.
func RenderTop(entries []types.Entry) []string {
	rows := make([]string, 0, len(entries))
	for _, e := range entries {
		var sb strings.Builder
		sb.WriteString(padRight(strconv.Itoa(e.Rank), rankWidth))
		sb.WriteString(padRight(truncate(e.UserName, nameWidth), nameWidth))
		sb.WriteString(padLeft(strconv.Itoa(e.Score), scoreWidth))
		rows = append(rows, sb.String())
	}
	return rows
}

// HistoryFor returns the player's name and one row per stored result.
// ok is false for unknown players and players without results.
func (b *Builder) HistoryFor(ctx context.Context, userID int64) (name string, rows []string, ok bool) {
	h, found := b.store.Read(ctx, userID)
	if !found || len(h.Results) == 0 {
		return "", nil, false
	}

	rows = make([]string, 0, len(h.Results))
	for _, r := range h.Results {
		rows = append(rows, fmt.Sprintf("%s%s  %d   %s",
			padRight(r.Date, dateWidth),
			padLeft(strconv.Itoa(r.Points), scoreWidth),
			r.Level,
			FormatDuration(r.Duration),
		))
	}
	return h.UserName, rows, true
}

// Rule returns a line of n "=" characters.
func Rule(n int) string {
	return strings.Repeat("=", n)
}

// FormatDuration renders milliseconds as hh:mm:ss. Hours are not wrapped.
func FormatDuration(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	d := time.Duration(ms) * time.Millisecond
	hrs := int64(d / time.Hour)
	mins := int64(d/time.Minute) % 60
	secs := int64(d/time.Second) % 60
	return fmt.Sprintf("%02d:%02d:%02d", hrs, mins, secs)
}

// FormatDate renders t as DD.MM.YYYY.
func FormatDate(t time.Time) string {
	return t.Format(ledger.DateLayout)
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

func padRight(s string, width int) string {
	if pad := width - utf8.RuneCountInString(s); pad > 0 {
		return s + strings.Repeat(" ", pad)
	}
	return s
}

func padLeft(s string, width int) string {
	if pad := width - utf8.RuneCountInString(s); pad > 0 {
		return strings.Repeat(" ", pad) + s
	}
	return s
}
