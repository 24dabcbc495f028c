package retry

import (
	"context"
	"time"

	apperr "github.com/yungbote/coursecast-backend/internal/pkg/errors"
	"github.com/yungbote/coursecast-backend/internal/pkg/httpx"
	"github.com/yungbote/coursecast-backend/internal/pkg/logger"
)

const (
	DefaultMaxRetries = 2
	DefaultBaseDelay  = time.Second
)

// Attempt describes one scheduled retry. Attempt is 1-based.
type Attempt struct {
	Op         string
	Attempt    int
	MaxRetries int
	Delay      time.Duration
	Err        error
}

type Options struct {
	MaxRetries int
	BaseDelay  time.Duration
	Jitter     bool

	// IsTransient decides whether a failure is retried. Defaults to IsTransient.
	IsTransient func(error) bool
	// Sleep waits between attempts. Defaults to a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
	// OnRetry observes every scheduled retry.
	OnRetry func(Attempt)
}

// Caller runs operations with bounded exponential backoff.
type Caller struct {
	log  *logger.Logger
	opts Options
}

func New(log *logger.Logger, opts Options) *Caller {
	if opts.MaxRetries < 0 {
		opts.MaxRetries = 0
	}
	if opts.BaseDelay <= 0 {
		opts.BaseDelay = DefaultBaseDelay
	}
	if opts.IsTransient == nil {
		opts.IsTransient = IsTransient
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepCtx
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Caller{log: log.With("service", "RetryableCaller"), opts: opts}
}

// Default is a Caller with two retries after the first attempt and a one second base delay.
func Default(log *logger.Logger) *Caller {
	return New(log, Options{MaxRetries: DefaultMaxRetries, BaseDelay: DefaultBaseDelay})
}

// IsTransient treats network errors, 408/429/5xx statuses and errors already tagged
// KindTransient as retryable.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if apperr.IsKind(err, apperr.KindTransient) {
		return true
	}
	if apperr.KindOf(err) != "" {
		return false
	}
	return httpx.IsRetryableError(err)
}

// Do runs fn until it succeeds, fails non-transiently, or the retry budget is spent.
// The last error is returned unchanged.
func Do[T any](ctx context.Context, c *Caller, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	delay := c.opts.BaseDelay

	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return zero, err
		}

		out, err := fn(ctx)
		if err == nil {
			return out, nil
		}
		if !c.opts.IsTransient(err) || attempt >= c.opts.MaxRetries {
			return zero, err
		}

		sleepFor := delay
		if c.opts.Jitter {
			sleepFor = httpx.JitterSleep(sleepFor)
		}
		a := Attempt{Op: op, Attempt: attempt + 1, MaxRetries: c.opts.MaxRetries, Delay: sleepFor, Err: err}
		c.log.Warn("Retrying operation",
			"op", op,
			"attempt", a.Attempt,
			"max_retries", a.MaxRetries,
			"sleep", sleepFor.String(),
			"error", err.Error(),
		)
		if c.opts.OnRetry != nil {
			c.opts.OnRetry(a)
		}

		if sErr := c.opts.Sleep(ctx, sleepFor); sErr != nil {
			return zero, err
		}
		delay *= 2
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
