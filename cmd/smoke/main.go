package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gsbelarus/tetrisbot/internal/smoke"
	"github.com/gsbelarus/tetrisbot/pkg/logger"
)

// Default configuration constants.
const (
	defaultPlayers     = 20
	defaultSubmissions = 200
	defaultMalformed   = 20
	defaultTopN        = 40
	defaultWorkers     = 8
	defaultTimeout     = 10 * time.Second
	defaultRunTimeout  = 5 * time.Minute
)

func main() {
	var (
		baseURL     = flag.String("url", "https://localhost:8443", "Base URL of the service")
		players     = flag.Int("players", defaultPlayers, "Submit for user ids 1..N")
		submissions = flag.Int("submissions", defaultSubmissions, "Number of valid submissions")
		malformed   = flag.Int("malformed", defaultMalformed, "Number of malformed submissions")
		chatID      = flag.Int64("chat", 0, "Chat id sent with every submission")
		topN        = flag.Int("top", defaultTopN, "Leaderboard entries to fetch")
		workers     = flag.Int("workers", defaultWorkers, "Concurrent workers")
		timeout     = flag.Duration("timeout", defaultTimeout, "HTTP request timeout")
		insecure    = flag.Bool("insecure", false, "Skip TLS certificate verification")
		outputFile  = flag.String("output", "", "Save generated submissions as JSON")
		verbose     = flag.Bool("verbose", false, "Log every failed submission")
		help        = flag.Bool("help", false, "Show help")
	)
	flag.Parse()

	if *help {
		smoke.ShowHelp()
		return
	}

	if err := logger.Init(); err != nil {
		_, _ = os.Stderr.WriteString("Failed to setup logging: " + err.Error() + "\n")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, defaultRunTimeout)
	defer cancel()

	config := &smoke.Config{
		BaseURL:     *baseURL,
		Players:     *players,
		Submissions: *submissions,
		Malformed:   *malformed,
		ChatID:      *chatID,
		TopN:        *topN,
		Workers:     max(*workers, 1),
		Timeout:     *timeout,
		Insecure:    *insecure,
		OutputFile:  *outputFile,
		Verbose:     *verbose,
	}

	if _, err := smoke.Run(ctx, config); err != nil {
		logger.Get().Error(ctx, "smoke run failed", logger.Error(err))
		cancel()
		stop()
		os.Exit(1)
	}
}
