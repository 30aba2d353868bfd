package httpapi

import (
	"context"
	"errors"
	"time"

	"github.com/jacentio/tickets/ticket"
)

// call runs fn under the request timeout, retrying transient storage
// failures. Once the deadline passes the error is reported as a timeout,
// whatever fn returned.
func call[T any](ctx context.Context, h *Handler, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	return run(ctx, h, op, h.options.Retries, fn)
}

// callOnce is call without retries. A cascading delete that failed part way
// has already removed its root, so running it again would report NotFound
// instead of the storage error.
func callOnce[T any](ctx context.Context, h *Handler, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	return run(ctx, h, op, 0, fn)
}

func run[T any](ctx context.Context, h *Handler, op string, retries int, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, h.options.Timeout)
	defer cancel()

	var (
		result T
		err    error
	)
	for attempt := 0; ; attempt++ {
		result, err = fn(ctx)
		if err == nil {
			return result, nil
		}
		if ticket.KindOf(err) != ticket.KindTransientStorage || attempt >= retries {
			break
		}

		h.logger.Warn("retrying after storage error",
			"requestID", requestIDFrom(ctx),
			"op", op,
			"attempt", attempt+1,
			"error", err,
		)
		if wait(ctx, h.options.RetryDelay) != nil {
			break
		}
	}

	if errors.Is(ctx.Err(), context.DeadlineExceeded) && ticket.KindOf(err) != ticket.KindTimeout {
		err = &ticket.Error{Kind: ticket.KindTimeout, Op: op, Msg: "request timed out", Err: err}
	}
	return result, err
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
