package service

import "github.com/okian/eventmap/internal/domain/types"

// Sentinel errors returned by the Service. They are declared in types so
// adapters can classify them without importing this package.
var (
	ErrNotStarted    = types.ErrNotStarted
	ErrTooManyEvents = types.ErrTooManyEvents
	ErrInvalidZoom   = types.ErrInvalidZoom
	ErrInvalidEvent  = types.ErrInvalidEvent
	ErrEventNotFound = types.ErrEventNotFound
)
