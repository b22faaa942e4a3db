package ranking

import "errors"

// Sentinel kinds for ranking errors.
var (
	ErrInvalidArgument = errors.New("invalid argument: k must not be negative")
	ErrInvalidWeight   = errors.New("invalid ranking weight")
)
