package api

import "github.com/gsbelarus/tetrisbot/pkg/logger"

const (
	defaultAssetsDir           = "tetris"
	defaultLeaderboardLimit    = 40
	defaultMaxLeaderboardLimit = 100
)

type settings struct {
	assetsDir           string
	defaultLimit        int
	maxLeaderboardLimit int
	ring                *logger.Ring
	logger              logger.Logger
}

// Option configures a Server.
type Option func(*settings)

// WithAssetsDir sets the directory served under /tetris/.
func WithAssetsDir(dir string) Option {
	return func(s *settings) {
		if dir != "" {
			s.assetsDir = dir
		}
	}
}

// WithMaxLeaderboardLimit caps the limit accepted by GET /leaderboard.
func WithMaxLeaderboardLimit(n int) Option {
	return func(s *settings) {
		if n > 0 {
			s.maxLeaderboardLimit = n
		}
	}
}

// WithLogRing sets the buffer behind /log and /log/stream.
func WithLogRing(r *logger.Ring) Option {
	return func(s *settings) {
		s.ring = r
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		s.logger = l
	}
}
