package smoke

import "os"

// ShowHelp prints usage information for the smoke tool.
func ShowHelp() {
	_, _ = os.Stdout.WriteString(`Golden Tetris smoke test
========================

Fires score submissions at a running bot backend and checks the replies.
Only players already registered through the bot appear on the leaderboard;
submissions for unknown players must still be acknowledged.

Usage:
  go run ./cmd/smoke [options]

Options:
  -url string        Base URL of the service (default "https://localhost:8443")
  -players int       Submit for user ids 1..N (default 20)
  -submissions int   Number of valid submissions (default 200)
  -malformed int     Number of malformed submissions (default 20)
  -chat int          Chat id sent with every submission (default 0)
  -top int           Leaderboard entries to fetch (default 40)
  -workers int       Concurrent workers (default 8)
  -timeout duration  HTTP request timeout (default 10s)
  -insecure          Skip TLS certificate verification
  -output string     Save generated submissions as JSON
  -verbose           Log every failed submission
  -help              Show this help message
`)
}
