package poolz

import (
	"context"
	"time"

	"github.com/zoobzio/clockz"
)

// config holds construction-time pool settings assembled by Option values.
// Unlike pipz's fluent post-construction With* methods, these are fixed at
// New() because the census geometry (max_workers, the 12/12/8 bit layout)
// cannot change once workers exist.
//
// handler is stored boxed as any because Option itself is not generic over
// the pool's item type T (a generic Option[T] would force callers to
// instantiate every With* call explicitly). WithHandler closes over the
// type assertion back to T so the boxing is invisible to callers.
type config struct {
	trimPeriod        time.Duration
	stealAwakePeriod  time.Duration
	maxQueueExtension int
	managementPeriod  time.Duration
	clock             clockz.Clock
	handler           func(ctx context.Context, item any) error
	letFinishDefault  bool
}

func defaultConfig() config {
	return config{
		trimPeriod:        300 * time.Second,
		stealAwakePeriod:  2 * time.Second,
		maxQueueExtension: 256,
		managementPeriod:  500 * time.Millisecond,
		clock:             clockz.RealClock,
		letFinishDefault:  true,
	}
}

// Option configures a Pool at construction time.
type Option func(*config)

// WithTrimPeriod sets the idle duration after which a surplus worker may
// self-retire. A negative duration disables trimming entirely.
func WithTrimPeriod(d time.Duration) Option {
	return func(c *config) { c.trimPeriod = d }
}

// WithStealAwakePeriod sets the short-poll timeout used once active workers
// exceed the reasonable-workers threshold (spec default 2s).
func WithStealAwakePeriod(d time.Duration) Option {
	return func(c *config) { c.stealAwakePeriod = d }
}

// WithMaxQueueExtension bounds how far a bounded queue may grow above its
// base capacity via the manager's queue-extension step.
func WithMaxQueueExtension(n int) Option {
	return func(c *config) { c.maxQueueExtension = n }
}

// WithManagementPeriod sets the minimum elapsed time between manager ticks.
func WithManagementPeriod(d time.Duration) Option {
	return func(c *config) { c.managementPeriod = d }
}

// WithClock overrides the clock used throughout the pool. Intended for
// tests, mirroring pipz connectors' WithClock(clockz.Clock).
func WithClock(clock clockz.Clock) Option {
	return func(c *config) { c.clock = clock }
}

// WithLetFinishDefault sets the initial value of the shutdown-drain policy
// (spec §4.4 step 4). Stop overwrites it with its own letFinish argument
// before any worker drains, so the drain always follows Stop's argument.
func WithLetFinishDefault(letFinish bool) Option {
	return func(c *config) { c.letFinishDefault = letFinish }
}

// WithHandler sets the function every worker runs against each item it
// takes from the queue. Required: a pool constructed without a handler
// returns ErrInvalidArgument from New.
func WithHandler[T any](handler func(ctx context.Context, item T) error) Option {
	return func(c *config) {
		c.handler = func(ctx context.Context, item any) error {
			return handler(ctx, item.(T))
		}
	}
}
