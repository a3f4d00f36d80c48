package cluster

import (
	"errors"
	"fmt"
)

// ErrInvalidParams marks a clustering configuration that cannot produce a
// meaningful partition. It is a programming error on the caller side.
var ErrInvalidParams = errors.New("invalid clustering parameters")

// ParamsError names the offending parameter.
type ParamsError struct {
	Field string
	Value any
}

func (e *ParamsError) Error() string {
	return fmt.Sprintf("%s: %s=%v", ErrInvalidParams, e.Field, e.Value)
}

// Unwrap lets errors.Is match ErrInvalidParams.
func (e *ParamsError) Unwrap() error { return ErrInvalidParams }
