package popularity

import "errors"

// Sentinel kinds for popularity errors.
var (
	ErrInvalidTrendWindow = errors.New("invalid trend window")
)
