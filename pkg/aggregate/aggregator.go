package aggregate

import (
	"context"
	"fmt"
	"sync"

	"github.com/bft-labs/batchship/internal/app"
	"github.com/bft-labs/batchship/internal/domain"
	"github.com/bft-labs/batchship/internal/ports"
	"github.com/bft-labs/batchship/pkg/log"
)

// Errors returned by the aggregate package. Check them with errors.Is.
var (
	ErrInvalidConfig   = domain.ErrInvalidConfig
	ErrShutdownTimeout = domain.ErrShutdownTimeout
	ErrClosed          = domain.ErrClosed
)

// Flusher is the bulk operation every target must provide.
type Flusher[T any] interface {
	Flush(ctx context.Context, items []T) error
}

// FlusherFunc adapts an ordinary function to the Flusher interface.
type FlusherFunc[T any] func(ctx context.Context, items []T) error

// Flush calls f(ctx, items).
func (f FlusherFunc[T]) Flush(ctx context.Context, items []T) error {
	return f(ctx, items)
}

// Closer is the optional close operation of a target.
type Closer = ports.Closer

// CloserFunc adapts an ordinary function to the Closer interface.
type CloserFunc = ports.CloserFunc

// State is the state of the flush loop.
type State = app.FlushState

// Flush loop states.
const (
	StateIdle     = app.StateIdle
	StateFlushing = app.StateFlushing
	StateDraining = app.StateDraining
	StateStopped  = app.StateStopped
)

// Aggregator buffers items and hands them to a target in periodic batches.
// It is safe for concurrent use.
type Aggregator[T any] struct {
	name      string
	target    Flusher[T]
	closer    Closer
	transform func(T) (T, bool)
	buffer    *app.Buffer[T]
	loop      *app.Loop[T]
	logger    log.Logger
	events    *eventEmitterWrapper

	closeOnce sync.Once
	closeErr  error
}

// New creates an Aggregator in front of target and starts its flush loop.
// Returns an error wrapping ErrInvalidConfig if target is nil or cfg is invalid.
func New[T any](target Flusher[T], cfg Config[T], opts ...Option) (*Aggregator[T], error) {
	if target == nil {
		return nil, invalidConfig("target is required")
	}

	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = log.NewZerologAdapter()
	}
	if o.name != "" {
		logger = logger.With(log.String("aggregator", o.name))
	}

	closer := cfg.Closer
	if closer == nil {
		if c, ok := target.(Closer); ok {
			closer = c
		}
	}

	events := &eventEmitterWrapper{name: o.name, handler: o.eventHandler}
	buffer := app.NewBuffer[T]()
	loop := app.NewLoop[T](o.ctx, app.LoopConfig{
		Interval: cfg.Interval,
		Max:      cfg.Max,
	}, buffer, target, logger, events)

	a := &Aggregator[T]{
		name:      o.name,
		target:    target,
		closer:    closer,
		transform: cfg.Transform,
		buffer:    buffer,
		loop:      loop,
		logger:    logger,
		events:    events,
	}
	loop.Start()

	return a, nil
}

// Intercept buffers item for the next flush. It never calls the target and
// never blocks on I/O.
//
// If a Transform is configured it runs first and may replace or drop the
// item. Items intercepted after Close has drained the queue are dropped
// and logged.
func (a *Aggregator[T]) Intercept(item T) {
	if a.transform != nil {
		var keep bool
		item, keep = a.transform(item)
		if !keep {
			a.events.onDrop(DropTransform)
			return
		}
	}

	if !a.buffer.Add(item) {
		a.logger.Warn("item dropped after close")
		a.events.onDrop(DropClosed)
	}
}

// Close stops the flush loop, waits for the final batch to be flushed, then
// closes the target. The target's close error is returned.
//
// If ctx ends before the drain finishes, Close returns an error wrapping
// ErrShutdownTimeout; the drain keeps running and a later Close call can
// wait for it again. Once the target close has run, further calls return
// its result without invoking it again, whatever their ctx. A nil ctx is
// treated as context.Background().
func (a *Aggregator[T]) Close(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	done := a.loop.Stop()
	// A finished drain wins over an expired ctx.
	select {
	case <-done:
	default:
		select {
		case <-done:
		case <-ctx.Done():
			return fmt.Errorf("%w: %w", ErrShutdownTimeout, ctx.Err())
		}
	}

	a.closeOnce.Do(func() {
		if a.closer == nil {
			return
		}
		if err := a.closer.Close(ctx); err != nil {
			a.closeErr = fmt.Errorf("close target: %w", err)
		}
	})
	return a.closeErr
}

// Done returns a channel closed once the flush loop has drained and exited.
func (a *Aggregator[T]) Done() <-chan struct{} {
	return a.loop.Done()
}

// Pending returns the number of buffered items not yet flushed.
func (a *Aggregator[T]) Pending() int {
	return a.buffer.Len()
}

// State returns the current flush loop state.
func (a *Aggregator[T]) State() State {
	return a.loop.State()
}

// Name returns the name set with WithName.
func (a *Aggregator[T]) Name() string {
	return a.name
}
