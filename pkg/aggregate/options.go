package aggregate

import (
	"context"
	"fmt"
	"time"

	"github.com/bft-labs/batchship/internal/app"
	"github.com/bft-labs/batchship/internal/domain"
	"github.com/bft-labs/batchship/pkg/log"
)

// Default configuration values.
const (
	DefaultInterval = app.DefaultInterval
	DefaultMax      = app.DefaultMax
)

// Config holds the configuration of an Aggregator. It is read once by New.
type Config[T any] struct {
	// Interval is the time between flush cycles.
	// Default: 1 second
	Interval time.Duration

	// Max is an advisory pending-queue size. Exceeding it is logged as a
	// warning; items are never dropped or rejected because of it.
	// Default: 1000
	Max int

	// Transform, if set, runs on every intercepted item before it is
	// buffered. It may return a replacement item; returning false drops
	// the item.
	Transform func(item T) (T, bool)

	// Closer overrides the close operation invoked after the final drain.
	// If nil and the target implements Closer, the target is closed.
	Closer Closer
}

// SetDefaults fills zero values with defaults.
func (c *Config[T]) SetDefaults() {
	if c.Interval == 0 {
		c.Interval = DefaultInterval
	}
	if c.Max == 0 {
		c.Max = DefaultMax
	}
}

// Validate checks the configuration for errors.
func (c Config[T]) Validate() error {
	if c.Interval < 0 {
		return invalidConfig("interval must be positive, got %s", c.Interval)
	}
	if c.Max < 0 {
		return invalidConfig("max must not be negative, got %d", c.Max)
	}
	return nil
}

// Option configures optional behavior of an Aggregator.
type Option func(*options)

// options holds the optional configuration for an Aggregator.
type options struct {
	ctx          context.Context
	name         string
	logger       log.Logger
	eventHandler EventHandler
}

// defaultOptions returns options with sensible defaults.
func defaultOptions() options {
	return options{
		ctx: context.Background(),
	}
}

// WithLogger sets the sink for non-fatal errors.
// If not provided, a zerolog console logger on stderr is used.
func WithLogger(logger log.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithEventHandler sets a handler for aggregator events.
func WithEventHandler(handler EventHandler) Option {
	return func(o *options) {
		o.eventHandler = handler
	}
}

// WithContext sets the context passed to every Flush call.
// Close does not cancel it, so an in-flight flush always runs to completion.
func WithContext(ctx context.Context) Option {
	return func(o *options) {
		o.ctx = ctx
	}
}

// WithName labels log lines and events from this aggregator.
func WithName(name string) Option {
	return func(o *options) {
		o.name = name
	}
}

func invalidConfig(format string, args ...any) error {
	return fmt.Errorf("%w: %s", domain.ErrInvalidConfig, fmt.Sprintf(format, args...))
}
