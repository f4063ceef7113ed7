package ledger

import (
	"time"

	"github.com/gsbelarus/tetrisbot/pkg/logger"
)

// Option applies a configuration option to the Ledger.
type Option func(*Ledger)

// WithMaxHistory caps the number of results kept per player.
func WithMaxHistory(n int) Option {
	return func(l *Ledger) {
		if n > 0 {
			l.maxHistory = n
		}
	}
}

// WithClock sets the time source used to date results.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets a custom logger for the ledger.
func WithLogger(log logger.Logger) Option {
	return func(l *Ledger) {
		if log != nil {
			l.logger = log
		}
	}
}
