// Package model contains domain models passed between layers.
package model

import "slices"

// Result is one finished game as stored in a player's history.
type Result struct {
	Date     string `json:"date"` // DD.MM.YYYY
	Points   int    `json:"points"`
	Lines    int    `json:"lines"`
	Figures  int    `json:"figures"`
	Level    int    `json:"level"`
	Duration int64  `json:"duration"` // milliseconds
}

// UserHistory is the per-player record kept in the store.
// Results are sorted by points, best first.
type UserHistory struct {
	UserName string   `json:"userName"`
	ChatIDs  []int64  `json:"chatId"`
	Results  []Result `json:"results"`
}

// Best returns the player's top score, or 0 without results.
func (h UserHistory) Best() int {
	if len(h.Results) == 0 {
		return 0
	}
	return h.Results[0].Points
}

// HasChat reports whether the player is reachable in chatID.
func (h UserHistory) HasChat(chatID int64) bool {
	return slices.Contains(h.ChatIDs, chatID)
}

// Clone returns a copy that shares no slices with h.
func (h UserHistory) Clone() UserHistory {
	return UserHistory{
		UserName: h.UserName,
		ChatIDs:  slices.Clone(h.ChatIDs),
		Results:  slices.Clone(h.Results),
	}
}
