package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const (
	// EnvPrefix prefixes every environment setting, e.g. GOLDEN_TETRIS_TELEGRAM_BOT_HOST.
	EnvPrefix = "GOLDEN_TETRIS_TELEGRAM_BOT_"
	// EnvConfigFile points at an optional YAML file.
	EnvConfigFile = "GOLDEN_TETRIS_CONFIG"
	// DotEnvFile is read before the environment if present.
	DotEnvFile = ".env"
)

// Load builds a Config by layering defaults, optional file, and env vars.
// Order of precedence (low -> high):
//  1. defaults (New())
//  2. file (YAML) if GOLDEN_TETRIS_CONFIG is set
//  3. env (prefix GOLDEN_TETRIS_TELEGRAM_BOT_), including values from .env
func Load(ctx context.Context) (*Config, error) {
	return LoadWithDotEnv(ctx, DotEnvFile)
}

// LoadWithDotEnv is Load with an explicit .env path. An empty path or a missing
// file skips the .env step. Variables already set in the process win.
func LoadWithDotEnv(_ context.Context, dotEnv string) (*Config, error) {
	if dotEnv != "" {
		if err := godotenv.Load(dotEnv); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: read %s: %w", ErrLoadConfig, dotEnv, err)
		}
	}

	base := New()

	k := koanf.New(".")

	if path := os.Getenv(EnvConfigFile); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
		}
	}

	// Map GOLDEN_TETRIS_TELEGRAM_BOT_FLUSH_INTERVAL -> flush_interval (flat keys).
	envProvider := env.Provider(EnvPrefix, ".", func(s string) string {
		return strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
	})
	if err := k.Load(envProvider, nil); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrLoadConfig, err)
	}

	cfg := *base
	if err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{Tag: "koanf"}); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}
