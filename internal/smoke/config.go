package smoke

import "time"

// Config holds configuration for a smoke run.
type Config struct {
	BaseURL     string        // Base URL of the service
	Players     int           // User ids 1..Players are used for valid submissions
	Submissions int           // Number of valid submissions
	Malformed   int           // Number of malformed submissions
	ChatID      int64         // Chat id sent with every submission
	TopN        int           // Number of leaderboard entries to fetch
	Workers     int           // Number of concurrent workers
	Timeout     time.Duration // HTTP request timeout
	Insecure    bool          // Skip TLS certificate verification
	OutputFile  string        // Where to save the generated submissions; empty skips saving
	Verbose     bool          // Enable verbose logging
}

// Submission is one generated request to the submit endpoint.
type Submission struct {
	ID        string `json:"id"`
	Query     string `json:"query"`
	Malformed bool   `json:"malformed"`
	UserID    int64  `json:"user_id,omitempty"`
	Points    int    `json:"points,omitempty"`
}

// Entry mirrors a leaderboard entry.
type Entry struct {
	Rank     int    `json:"rank"`
	UserID   int64  `json:"user_id"`
	UserName string `json:"user_name"`
	Score    int    `json:"score"`
}

// Stats holds run statistics.
type Stats struct {
	RunID              string
	Generated          int
	Sent               int
	Acknowledged       int
	Failed             int
	LeaderboardEntries int
	StartTime          time.Time
	EndTime            time.Time
	Duration           time.Duration
}
