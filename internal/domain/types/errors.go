package types

import "errors"

// Errors shared by the service and the adapters that classify them.
var (
	ErrNotStarted    = errors.New("service not started")
	ErrTooManyEvents = errors.New("too many events")
	ErrInvalidZoom   = errors.New("invalid zoom level")
	ErrInvalidEvent  = errors.New("invalid event")
	ErrEventNotFound = errors.New("event not found")
)
