package repository

import "errors"

// Sentinel kinds for store errors.
var (
	ErrCorrupt = errors.New("store file is corrupt")
	ErrLoad    = errors.New("store load failed")
	ErrFlush   = errors.New("store flush failed")
)
