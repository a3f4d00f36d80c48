package validate

import "errors"

// Sentinel errors for input validation.
var (
	ErrInvalidProfile = errors.New("invalid user profile")
)
