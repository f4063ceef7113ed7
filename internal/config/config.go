// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults.
// - Loading layers defaults, an optional YAML file and the environment.
// - External errors are wrapped with this package's sentinel errors.
package config

import (
	"fmt"
	"net"
	"strconv"
	"time"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Host is the external hostname the game is reachable under.
	Host string `koanf:"host"`

	// Port is both the listen port and the port in generated game URLs.
	Port int `koanf:"port"`

	// Token is the bot platform API token.
	Token string `koanf:"token"`

	// DataFile is the JSON document holding every player's history.
	DataFile string `koanf:"data_file"`

	// AssetsDir is the root of the static game files served under /tetris/.
	AssetsDir string `koanf:"assets_dir"`

	// TLS material. The CA bundle is optional.
	TLSCertFile string `koanf:"tls_cert_file"`
	TLSKeyFile  string `koanf:"tls_key_file"`
	TLSCAFile   string `koanf:"tls_ca_file"`

	// FlushInterval is the period of the background store flush.
	FlushInterval time.Duration `koanf:"flush_interval"`

	// LogBufferSize bounds the in-memory log shown at /log.
	LogBufferSize int `koanf:"log_buffer_size"`

	// PushQueueSize bounds the queue of pending score pushes.
	PushQueueSize int `koanf:"push_queue_size"`

	// PushWorkers sets how many goroutines push scores to the bot platform.
	PushWorkers int `koanf:"push_workers"`

	// MaxLeaderboardLimit caps GET /leaderboard?limit.
	MaxLeaderboardLimit int `koanf:"max_leaderboard_limit"`

	// GameShortName is the game registered with the bot platform.
	GameShortName string `koanf:"game_short_name"`

	// BotUsername builds the "play with friends" deep link.
	BotUsername string `koanf:"bot_username"`

	// SiteURL is the vendor link shown under the game invite.
	SiteURL string `koanf:"site_url"`
}

// New creates a Config populated with defaults.
func New() *Config {
	return &Config{
		LogLevel:            "info",
		DataFile:            "data/results.json",
		AssetsDir:           "tetris",
		TLSCertFile:         "ssl/gdmn.app.crt",
		TLSKeyFile:          "ssl/gdmn.app.key",
		TLSCAFile:           "ssl/gdmn.app.ca-bundle",
		FlushInterval:       time.Hour,
		LogBufferSize:       10_000,
		PushQueueSize:       1_000,
		PushWorkers:         2,
		MaxLeaderboardLimit: 100,
		GameShortName:       "tetris",
		BotUsername:         "GoldenTetrisBot",
		SiteURL:             "http://gsbelarus.com",
	}
}

// Validate reports the first missing or out-of-range setting.
func (c *Config) Validate() error {
	switch {
	case c.Host == "":
		return fmt.Errorf("%w: host must not be empty", ErrInvalidConfig)
	case c.Port <= 0 || c.Port > 65535:
		return fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, c.Port)
	case c.Token == "":
		return fmt.Errorf("%w: token must not be empty", ErrInvalidConfig)
	case c.FlushInterval <= 0:
		return fmt.Errorf("%w: flush_interval must be positive", ErrInvalidConfig)
	case c.DataFile == "":
		return fmt.Errorf("%w: data_file must not be empty", ErrInvalidConfig)
	case c.GameShortName == "":
		return fmt.Errorf("%w: game_short_name must not be empty", ErrInvalidConfig)
	}
	return nil
}

// Addr is the listen address.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

// GameRoot is the public URL prefix of the game assets.
func (c *Config) GameRoot() string {
	return "https://" + net.JoinHostPort(c.Host, strconv.Itoa(c.Port)) + "/tetris"
}

// FriendsURL is the deep link that lets a player share the game.
func (c *Config) FriendsURL() string {
	return "https://telegram.me/" + c.BotUsername + "?game=" + c.GameShortName
}
