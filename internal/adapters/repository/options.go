package repository

import (
	"io/fs"

	"github.com/gsbelarus/tetrisbot/pkg/logger"
)

// Option applies a configuration option to a FileStore.
type Option func(*settings)

type settings struct {
	fileMode fs.FileMode
	dirMode  fs.FileMode
	logger   logger.Logger
}

// WithFileMode sets the permissions of the backing file.
func WithFileMode(mode fs.FileMode) Option {
	return func(s *settings) {
		if mode != 0 {
			s.fileMode = mode
		}
	}
}

// WithLogger sets a custom logger for the store.
func WithLogger(l logger.Logger) Option {
	return func(s *settings) {
		if l != nil {
			s.logger = l
		}
	}
}
