package model

import "time"

// Submission is a validated score report from the game page.
type Submission struct {
	ChatID   int64
	UserID   int64
	Points   int
	Figures  int
	Lines    int
	Level    int
	Duration int64 // milliseconds
}

// ChatContext remembers the game message a player launched from, which is
// what the bot platform needs to attach a score to.
type ChatContext struct {
	ChatID          int64
	MessageID       int
	InlineMessageID string
}

// ScorePush is a pending score update for the bot platform.
type ScorePush struct {
	UserID   int64
	Points   int
	Context  ChatContext
	QueuedAt time.Time
}
