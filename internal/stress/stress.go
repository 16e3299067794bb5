// Package stress hammers the loader from many goroutines the way a busy
// service would: every task opens the component, runs a short session and
// closes it, while loads collide on the single in-flight guard.
package stress

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/sync/errgroup"

	"github.com/hsiuhsiu/acbrlib-go/pkg/acbrlib"
	"github.com/hsiuhsiu/acbrlib-go/pkg/acbrlib/esocial"
	"github.com/hsiuhsiu/acbrlib-go/pkg/acbrlib/logging"
)

// Task is one unit of work. n numbers the task from 1.
type Task func(ctx context.Context, n int) error

type Options struct {
	Tasks       int
	Concurrency int
	// MaxRetries bounds the retries of a task that failed with
	// acbrlib.ErrAlreadyLoading. Other errors are not retried.
	MaxRetries      uint64
	InitialInterval time.Duration
	MaxInterval     time.Duration
	Logger          logging.Logger
}

func (o Options) withDefaults() Options {
	if o.Concurrency < 1 {
		o.Concurrency = 1
	}
	if o.InitialInterval <= 0 {
		o.InitialInterval = 5 * time.Millisecond
	}
	if o.MaxInterval <= 0 {
		o.MaxInterval = 250 * time.Millisecond
	}
	if o.Logger == nil {
		o.Logger = logging.Nop()
	}
	return o
}

// Report summarizes a run.
type Report struct {
	Total     int
	Succeeded int
	Failed    int
	// AlreadyLoading counts attempts rejected by the load guard, retried or
	// not.
	AlreadyLoading int
	// Errors counts final failures per category (see Category).
	Errors  map[string]int
	Elapsed time.Duration
}

// Categories returns the keys of Errors in sorted order.
func (r *Report) Categories() []string {
	keys := make([]string, 0, len(r.Errors))
	for k := range r.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Run executes opts.Tasks invocations of task with at most opts.Concurrency
// in flight. Task failures are counted, not returned; the error is non-nil
// only when ctx ends before every task was started.
func Run(ctx context.Context, task Task, opts Options) (*Report, error) {
	opts = opts.withDefaults()
	start := time.Now()

	var (
		mu       sync.Mutex
		rep      = &Report{Total: opts.Tasks, Errors: map[string]int{}}
		rejected atomic.Int64
	)

	g := new(errgroup.Group)
	g.SetLimit(opts.Concurrency)

	var runErr error
	for n := 1; n <= opts.Tasks; n++ {
		if err := ctx.Err(); err != nil {
			runErr = err
			break
		}
		g.Go(func() error {
			err := backoff.Retry(func() error {
				err := task(ctx, n)
				if errors.Is(err, acbrlib.ErrAlreadyLoading) {
					rejected.Add(1)
					return err
				}
				if err != nil {
					return backoff.Permanent(err)
				}
				return nil
			}, opts.policy(ctx))

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				rep.Failed++
				rep.Errors[Category(err)]++
				opts.Logger.Debug(ctx, "task failed", "task", n, "error", err)
				return nil
			}
			rep.Succeeded++
			return nil
		})
	}
	_ = g.Wait()

	rep.AlreadyLoading = int(rejected.Load())
	rep.Elapsed = time.Since(start)
	opts.Logger.Info(ctx, "stress run finished",
		"total", rep.Total,
		"succeeded", rep.Succeeded,
		"failed", rep.Failed,
		"already_loading", rep.AlreadyLoading,
		"elapsed", rep.Elapsed,
	)
	return rep, runErr
}

func (o Options) policy(ctx context.Context) backoff.BackOff {
	boff := backoff.NewExponentialBackOff()
	boff.InitialInterval = o.InitialInterval
	boff.MaxInterval = o.MaxInterval
	boff.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(boff, o.MaxRetries), ctx)
}

// Category maps an error onto a short, stable label for the report.
func Category(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, acbrlib.ErrAlreadyLoading):
		return "already_loading"
	case errors.Is(err, acbrlib.ErrNotFound):
		return "not_found"
	case errors.Is(err, acbrlib.ErrLoadFailed):
		return "load_failed"
	case errors.Is(err, acbrlib.ErrSymbolNotFound):
		return "symbol_not_found"
	case errors.Is(err, esocial.ErrCallFailed):
		return "call_failed"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "other"
	}
}
