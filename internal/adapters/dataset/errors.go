package dataset

import "errors"

// Sentinel error kinds for dataset loading.
var (
	ErrReadFile      = errors.New("read dataset file")
	ErrDecode        = errors.New("decode dataset")
	ErrInvalidRecord = errors.New("invalid dataset record")
	ErrMissingPath   = errors.New("products path is required")
)
