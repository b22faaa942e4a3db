package explain

import "errors"

// Sentinel error kinds for explanation calls.
var (
	ErrDisabled      = errors.New("explainer disabled")
	ErrMissingAPIKey = errors.New("api key is required")
	ErrUpstream      = errors.New("language model request failed")
	ErrEmptyResponse = errors.New("language model returned no text")
	ErrBreakerOpen   = errors.New("language model circuit open")
	ErrRateLimited   = errors.New("language model rate limit wait aborted")
)
