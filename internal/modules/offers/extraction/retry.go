package extraction

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/yungbote/lvflow-backend/internal/platform/httpx"
	"github.com/yungbote/lvflow-backend/internal/platform/logger"
)

type retryingCompleter struct {
	next       Completer
	maxRetries int
	initial    time.Duration
	log        *logger.Logger
}

// WithRetry wraps c with exponential backoff for transient failures.
// maxRetries <= 0 returns c unchanged: a single call, no retry.
func WithRetry(c Completer, maxRetries int, log *logger.Logger) Completer {
	if maxRetries <= 0 {
		return c
	}
	return &retryingCompleter{next: c, maxRetries: maxRetries, initial: time.Second, log: log.With("component", "RetryingCompleter")}
}

func (r *retryingCompleter) GenerateText(ctx context.Context, system string, user string) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initial
	b.MaxInterval = 30 * time.Second

	op := func() (string, error) {
		out, err := r.next.GenerateText(ctx, system, user)
		if err != nil && !isTransient(err) {
			return "", backoff.Permanent(err)
		}
		return out, err
	}
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(r.maxRetries+1)),
		backoff.WithNotify(func(err error, d time.Duration) {
			r.log.Warn("extraction call retrying", "sleep", d.String(), "error", err)
		}),
	)
}

// isTransient treats unknown failures as retryable; known HTTP statuses decide for themselves.
func isTransient(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	var sc httpx.HTTPStatusCoder
	if errors.As(err, &sc) {
		return httpx.IsRetryableHTTPStatus(sc.HTTPStatusCode())
	}
	return true
}
