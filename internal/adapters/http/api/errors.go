package api

import "errors"

// Sentinel kinds for API errors.
var (
	ErrBadRequest    = errors.New("bad request")
	ErrInvalidID     = errors.New("invalid product id")
	ErrInvalidLimit  = errors.New("k must be a non-negative integer")
	ErrLimitExceeded = errors.New("k exceeds maximum")
)

// Error carries the handler operation, a sentinel kind and the cause.
// errors.Is matches both the kind and anything in the cause chain.
type Error struct {
	Op   string
	Kind error
	Err  error
}

func (e *Error) Error() string {
	switch {
	case e.Kind != nil && e.Err != nil:
		return e.Kind.Error() + ": " + e.Err.Error()
	case e.Err != nil:
		return e.Err.Error()
	case e.Kind != nil:
		return e.Kind.Error()
	default:
		return e.Op
	}
}

// Unwrap exposes kind and cause to errors.Is/As.
func (e *Error) Unwrap() []error {
	var errs []error
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// NewKind returns an error of the given kind without a cause.
func NewKind(op string, kind error) error {
	return &Error{Op: op, Kind: kind}
}

// Wrap attaches op to an upstream error.
func Wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Op: op, Err: err}
}

// WrapKind attaches op and kind to an upstream error.
func WrapKind(op string, kind, err error) error {
	return &Error{Op: op, Kind: kind, Err: err}
}

// opOf returns the operation recorded on err, if any.
func opOf(err error) string {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Op
	}
	return ""
}
