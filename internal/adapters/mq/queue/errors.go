package queue

import "errors"

// Sentinel kinds for enqueue errors.
var (
	ErrQueueFull   = errors.New("queue full")
	ErrQueueClosed = errors.New("queue closed")
)
