// Package types contains common types used across the application
package types

// Entry represents a leaderboard entry
type Entry struct {
	Rank     int    `json:"rank"`
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
	Score    int    `json:"score"`
}
