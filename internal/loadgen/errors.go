package loadgen

import "errors"

var (
	// ErrUnhealthy is returned when the health probe does not answer 200.
	ErrUnhealthy = errors.New("service unhealthy")
	// ErrUnexpectedStatus is returned for any other non-success response.
	ErrUnexpectedStatus = errors.New("unexpected status")
	// ErrNotComputed is returned when background recompute does not catch up in time.
	ErrNotComputed = errors.New("snapshot not computed in time")
	// ErrVerification is returned when a response contradicts the uploaded data.
	ErrVerification = errors.New("verification failed")
)
