package service

import "errors"

// Sentinel error kinds returned by the service.
var (
	ErrNoCatalog     = errors.New("catalog is required")
	ErrLimitExceeded = errors.New("limit exceeds maximum")
)
