package app

import (
	"errors"
	"sync"

	"github.com/bft-labs/batchship/internal/ports"
	"github.com/bft-labs/batchship/pkg/log"
)

// ErrInvalidTransition is returned when a flush state change is not allowed.
var ErrInvalidTransition = errors.New("batchship: invalid flush state transition")

// FlushState is the state of an aggregator's flush loop.
type FlushState int

const (
	// StateIdle waits for the next tick.
	StateIdle FlushState = iota
	// StateFlushing has a bulk call to the target in flight.
	StateFlushing
	// StateDraining runs the final flush after stop was requested.
	StateDraining
	// StateStopped means the loop has exited. It is terminal.
	StateStopped
)

// String returns a human-readable representation of the state.
func (s FlushState) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateFlushing:
		return "Flushing"
	case StateDraining:
		return "Draining"
	case StateStopped:
		return "Stopped"
	default:
		return "Unknown"
	}
}

// StateEmitter is called when the flush state changes.
type StateEmitter interface {
	OnStateChange(previous, current FlushState, reason string)
}

// FlushLifecycle guards the flush state machine.
//
// Valid transitions:
//   - Idle -> Flushing, Draining
//   - Flushing -> Idle, Draining
//   - Draining -> Stopped
type FlushLifecycle struct {
	mu      sync.RWMutex
	state   FlushState
	logger  ports.Logger
	emitter StateEmitter
}

// NewFlushLifecycle creates a state machine in StateIdle.
func NewFlushLifecycle(logger ports.Logger, emitter StateEmitter) *FlushLifecycle {
	return &FlushLifecycle{
		state:   StateIdle,
		logger:  logger,
		emitter: emitter,
	}
}

// State returns the current flush state.
func (l *FlushLifecycle) State() FlushState {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.state
}

// TransitionTo moves to newState.
// Returns ErrInvalidTransition and leaves the state unchanged if the move
// is not allowed.
func (l *FlushLifecycle) TransitionTo(newState FlushState, reason string) error {
	l.mu.Lock()
	oldState := l.state

	if !validTransition(oldState, newState) {
		l.mu.Unlock()
		return ErrInvalidTransition
	}

	l.state = newState
	l.mu.Unlock()

	// Emit event outside of lock
	if l.emitter != nil {
		l.emitter.OnStateChange(oldState, newState, reason)
	}

	l.logger.Debug("flush state transition",
		log.String("from", oldState.String()),
		log.String("to", newState.String()),
		log.String("reason", reason),
	)

	return nil
}

// Stopped reports whether the loop has reached its terminal state.
func (l *FlushLifecycle) Stopped() bool {
	return l.State() == StateStopped
}

func validTransition(from, to FlushState) bool {
	switch from {
	case StateIdle:
		return to == StateFlushing || to == StateDraining
	case StateFlushing:
		return to == StateIdle || to == StateDraining
	case StateDraining:
		return to == StateStopped
	default:
		return false
	}
}
