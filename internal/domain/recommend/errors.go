package recommend

import "errors"

// Sentinel errors for recommendation requests.
var (
	ErrInvalidLimit = errors.New("topN must be at least 1")
)
