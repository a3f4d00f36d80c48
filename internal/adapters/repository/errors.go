package repository

import "errors"

// Sentinel kinds for repository errors.
var (
	ErrNotFound     = errors.New("event not ranked")
	ErrInvalidLimit = errors.New("invalid leaderboard limit")
	ErrStaleVersion = errors.New("snapshot version is older than the stored one")
)
