package explain

import (
	"context"
	"sync/atomic"
	"time"
)

// stubExplainer returns text or err and counts calls.
type stubExplainer struct {
	text  string
	err   error
	delay time.Duration
	calls atomic.Int32
}

func (s *stubExplainer) Explain(ctx context.Context, _ Prompt) (string, error) {
	s.calls.Add(1)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return s.text, s.err
}
