package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/bft-labs/batchship/internal/ports"
	"github.com/bft-labs/batchship/pkg/log"
)

// Default loop configuration values.
const (
	DefaultInterval = time.Second
	DefaultMax      = 1000
)

// LoopConfig contains configuration for the flush loop.
type LoopConfig struct {
	// Interval is the sleep between flush cycles.
	Interval time.Duration

	// Max is an advisory queue size. Crossing it is logged, nothing more.
	Max int
}

// FlushEmitter receives flush loop events.
type FlushEmitter interface {
	StateEmitter
	OnFlushSuccess(items int, duration time.Duration)
	OnFlushError(err error, items int)
}

// Loop periodically moves the contents of a Buffer to a Flusher.
//
// One goroutine runs the loop. Cycles are strictly sequential: the timer is
// re-armed only after the previous bulk call returned, so at most one call
// to the flusher is in flight.
type Loop[T any] struct {
	ctx       context.Context
	config    LoopConfig
	buffer    *Buffer[T]
	flusher   ports.Flusher[T]
	logger    ports.Logger
	emitter   FlushEmitter
	lifecycle *FlushLifecycle

	stop     chan struct{}
	stopOnce sync.Once
	done     chan struct{}

	// aboveMax is only touched by the loop goroutine.
	aboveMax bool
}

// NewLoop creates a loop over buffer. Call Start to run it.
// ctx is passed to every Flush call; cancelling it does not stop the loop.
func NewLoop[T any](
	ctx context.Context,
	config LoopConfig,
	buffer *Buffer[T],
	flusher ports.Flusher[T],
	logger ports.Logger,
	emitter FlushEmitter,
) *Loop[T] {
	if config.Interval <= 0 {
		config.Interval = DefaultInterval
	}
	if emitter == nil {
		emitter = noopEmitter{}
	}
	return &Loop[T]{
		ctx:       ctx,
		config:    config,
		buffer:    buffer,
		flusher:   flusher,
		logger:    logger,
		emitter:   emitter,
		lifecycle: NewFlushLifecycle(logger, emitter),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
}

// Start runs the loop in a new goroutine. It must be called once.
func (l *Loop[T]) Start() {
	go l.run()
}

// Stop asks the loop to drain and exit. It is safe to call more than once;
// every call returns the same channel, closed after the drain completed.
func (l *Loop[T]) Stop() <-chan struct{} {
	l.stopOnce.Do(func() {
		close(l.stop)
	})
	return l.done
}

// Done returns a channel closed once the loop has exited.
func (l *Loop[T]) Done() <-chan struct{} {
	return l.done
}

// State returns the current flush state.
func (l *Loop[T]) State() FlushState {
	return l.lifecycle.State()
}

func (l *Loop[T]) run() {
	defer close(l.done)

	timer := time.NewTimer(l.config.Interval)
	defer timer.Stop()

	for {
		select {
		case <-l.stop:
			l.drain("stop requested")
			return
		case <-timer.C:
		}

		l.checkAdvisoryMax()

		batch := l.buffer.Take()
		if len(batch) > 0 {
			l.transition(StateFlushing, "tick")
			l.flushOnce(batch)

			select {
			case <-l.stop:
				l.drain("stop requested during flush")
				return
			default:
				l.transition(StateIdle, "flush complete")
			}
		}

		timer.Reset(l.config.Interval)
	}
}

// drain performs the final flush. Anything still pending after a failed
// final flush stays in the sealed buffer and is reported.
func (l *Loop[T]) drain(reason string) {
	l.transition(StateDraining, reason)

	batch := l.buffer.TakeAndSeal()
	if len(batch) > 0 && !l.flushOnce(batch) {
		l.logger.Error("drain incomplete, items were not delivered",
			log.Items(l.buffer.Len()),
		)
	}

	l.transition(StateStopped, "drained")
}

// flushOnce hands batch to the flusher. On failure the batch goes back to
// the head of the queue. Returns true on success.
func (l *Loop[T]) flushOnce(batch []T) bool {
	start := time.Now()
	err := l.callFlusher(batch)
	duration := time.Since(start)

	if err != nil {
		l.buffer.Requeue(batch)
		l.logger.Error("flush failed",
			log.Err(err),
			log.Items(len(batch)),
		)
		l.emitter.OnFlushError(err, len(batch))
		return false
	}

	l.logger.Debug("batch flushed",
		log.Items(len(batch)),
		log.Duration("duration", duration),
	)
	l.emitter.OnFlushSuccess(len(batch), duration)
	return true
}

// callFlusher turns a panicking flusher into a flush error so the loop
// keeps running and Close does not wait forever.
func (l *Loop[T]) callFlusher(batch []T) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("flush panicked: %v", r)
		}
	}()
	return l.flusher.Flush(l.ctx, batch)
}

func (l *Loop[T]) checkAdvisoryMax() {
	if l.config.Max <= 0 {
		return
	}
	n := l.buffer.Len()
	if n <= l.config.Max {
		l.aboveMax = false
		return
	}
	if !l.aboveMax {
		l.aboveMax = true
		l.logger.Warn("pending queue above advisory max",
			log.Items(n),
			log.Int("max", l.config.Max),
		)
	}
}

func (l *Loop[T]) transition(state FlushState, reason string) {
	// Only the loop goroutine transitions, so failures indicate a bug here.
	if err := l.lifecycle.TransitionTo(state, reason); err != nil {
		l.logger.Error("flush state transition rejected",
			log.Err(err),
			log.String("from", l.lifecycle.State().String()),
			log.String("to", state.String()),
		)
	}
}

type noopEmitter struct{}

func (noopEmitter) OnStateChange(previous, current FlushState, reason string) {}
func (noopEmitter) OnFlushSuccess(items int, duration time.Duration)          {}
func (noopEmitter) OnFlushError(err error, items int)                         {}
