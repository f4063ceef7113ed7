// Package smoke exercises a running bot backend over HTTP: it fires valid and
// malformed score submissions, checks every acknowledgement and reads back
// the leaderboard.
package smoke

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/gsbelarus/tetrisbot/pkg/logger"
)

// File permission constants.
const (
	directoryPermission = 0o750
	filePermission      = 0o600
)

// ErrUnacknowledged is returned when any submission was not answered with the
// fixed acknowledgement.
var ErrUnacknowledged = errors.New("submissions not acknowledged")

// Run executes the complete smoke test.
func Run(ctx context.Context, config *Config) (*Stats, error) {
	stats := &Stats{
		RunID:     uuid.NewString(),
		StartTime: time.Now(),
	}
	log := logger.Get().Named("smoke")

	log.Info(ctx, "starting smoke run",
		logger.String("run_id", stats.RunID),
		logger.String("base_url", config.BaseURL),
		logger.Int("submissions", config.Submissions),
		logger.Int("malformed", config.Malformed),
		logger.Int("workers", config.Workers),
	)

	// Step 1: Check service health
	if err := checkServiceHealth(ctx, config); err != nil {
		return stats, fmt.Errorf("service health check failed: %w", err)
	}

	// Step 2: Generate and send submissions
	subs := Generate(ctx, config, stats)
	submitAll(ctx, config, subs, stats)

	// Step 3: Read the leaderboard
	entries, err := getLeaderboard(ctx, config, stats)
	if err != nil {
		return stats, fmt.Errorf("leaderboard retrieval failed: %w", err)
	}

	// Step 4: Verify
	if err := VerifyLeaderboard(entries, BestByUser(subs)); err != nil {
		return stats, fmt.Errorf("leaderboard verification failed: %w", err)
	}

	// Step 5: Save submissions to file
	if config.OutputFile != "" {
		if err := saveSubmissions(config.OutputFile, subs); err != nil {
			log.Warn(ctx, "failed to save submissions", logger.Error(err))
		}
	}

	stats.EndTime = time.Now()
	stats.Duration = stats.EndTime.Sub(stats.StartTime)
	displayFinalStats(ctx, stats)

	if stats.Failed > 0 {
		return stats, fmt.Errorf("%w: %d of %d", ErrUnacknowledged, stats.Failed, stats.Sent)
	}
	return stats, nil
}

// checkServiceHealth verifies the service is running.
func checkServiceHealth(ctx context.Context, config *Config) error {
	resp, err := newHTTPClient(config).Get(ctx, config.BaseURL+"/healthz", "")
	if err != nil {
		return fmt.Errorf("failed to connect to service: %w", err)
	}
	_, _ = readResponseBody(resp)

	if resp.StatusCode != StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}
	return nil
}

// getLeaderboard fetches the top entries as JSON.
func getLeaderboard(ctx context.Context, config *Config, stats *Stats) ([]Entry, error) {
	url := config.BaseURL + "/leaderboard?limit=" + strconv.Itoa(config.TopN)
	resp, err := newHTTPClient(config).Get(ctx, url, stats.RunID+"/leaderboard")
	if err != nil {
		return nil, err
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, body)
	}

	var entries []Entry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("decode leaderboard: %w", err)
	}
	stats.LeaderboardEntries = len(entries)
	return entries, nil
}

func saveSubmissions(filename string, subs []Submission) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, directoryPermission); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	data, err := json.MarshalIndent(subs, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, filePermission)
}

// displayFinalStats logs the final run statistics.
func displayFinalStats(ctx context.Context, stats *Stats) {
	var successRate, perSecond float64
	if stats.Sent > 0 {
		successRate = float64(stats.Acknowledged) / float64(stats.Sent) * PercentageMultiplier
	}
	if stats.Duration > 0 {
		perSecond = float64(stats.Sent) / stats.Duration.Seconds()
	}

	logger.Get().Info(ctx, "final statistics",
		logger.String("run_id", stats.RunID),
		logger.Int("generated", stats.Generated),
		logger.Int("sent", stats.Sent),
		logger.Int("acknowledged", stats.Acknowledged),
		logger.Int("failed", stats.Failed),
		logger.Int("leaderboard_entries", stats.LeaderboardEntries),
		logger.String("duration", stats.Duration.String()),
		logger.Float64("success_rate", successRate),
		logger.Float64("requests_per_second", perSecond),
	)
}
