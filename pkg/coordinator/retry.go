package coordinator

import (
	"context"
	"time"

	"github.com/matzehuels/flowscope/pkg/errors"
)

// withTimeout races the job against a timer. On expiry the wrapper returns
// a timeout error so callers can tell "never finished" apart from "threw";
// the job keeps the expired context and is expected to unwind on its own.
func withTimeout(d time.Duration, job Job) Job {
	if d <= 0 {
		return job
	}
	return func(ctx context.Context) (any, error) {
		tctx, cancel := context.WithTimeout(ctx, d)
		defer cancel()

		ch := make(chan Result, 1)
		go func() {
			v, err := job(tctx)
			ch <- Result{Value: v, Err: err}
		}()

		select {
		case res := <-ch:
			return res.Value, res.Err
		case <-tctx.Done():
			if tctx.Err() == context.DeadlineExceeded {
				return nil, errors.New(errors.ErrCodeTimeout, "operation exceeded %s", d)
			}
			return nil, errors.Wrap(errors.ErrCodeCancelled, tctx.Err(), "operation cancelled")
		}
	}
}

// withRetry re-runs the job up to maxRetries additional times on failure
// and returns the last error once the budget is exhausted. Each attempt
// gets its own timeout when composed as withRetry(withTimeout(job)).
func withRetry(maxRetries int, job Job) Job {
	if maxRetries <= 0 {
		return job
	}
	return func(ctx context.Context) (any, error) {
		var lastErr error
		for attempt := 0; attempt <= maxRetries; attempt++ {
			v, err := job(ctx)
			if err == nil {
				return v, nil
			}
			lastErr = err
			if ctx.Err() != nil {
				break
			}
		}
		return nil, lastErr
	}
}
