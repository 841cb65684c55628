package app

import (
	"context"
	"errors"
	"strings"
	"time"

	"reviewit/internal/domain"
)

var errInvalidShape = errors.New("no response passed validation")

// RetryPolicy bounds how often a summarization is re-requested when the
// response has the wrong shape. A collaborator error ends the attempts at once.
type RetryPolicy struct {
	MaxAttempts int
	Delay       time.Duration
	Valid       func(string) bool
}

func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{MaxAttempts: 5, Delay: time.Second, Valid: ValidHeadline}
}

// Run calls fn until Valid accepts a (trimmed) response. On failure the
// error is SummarizationUnavailable.
func (p RetryPolicy) Run(ctx context.Context, fn func(ctx context.Context) (string, error)) (string, error) {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	for i := 1; i <= attempts; i++ {
		out, err := fn(ctx)
		if err != nil {
			return "", domain.SummarizationUnavailable(err)
		}
		out = trimHeadline(out)
		if p.Valid == nil || p.Valid(out) {
			return out, nil
		}
		if i < attempts && !sleepCtx(ctx, p.Delay) {
			return "", domain.SummarizationUnavailable(ctx.Err())
		}
	}
	return "", domain.SummarizationUnavailable(errInvalidShape)
}

func trimHeadline(s string) string {
	s = strings.TrimSpace(s)
	return strings.TrimSpace(strings.TrimSuffix(s, "."))
}

// ValidHeadline accepts a plain sentence ending in 다 with at most five words.
func ValidHeadline(s string) bool {
	s = trimHeadline(s)
	return strings.HasSuffix(s, "다") && len(strings.Fields(s)) <= 5
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
