package queue

import "errors"

// Sentinel errors returned by Enqueue.
var (
	ErrQueueFull = errors.New("queue full")
	ErrClosed    = errors.New("queue closed")
)
