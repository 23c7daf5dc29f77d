package aggregate

import (
	"time"

	"github.com/bft-labs/batchship/internal/app"
)

// EventHandler receives notifications about aggregator activity.
// Methods are called synchronously from the flush goroutine (drops from the
// intercepting goroutine) and should return quickly.
type EventHandler interface {
	OnStateChange(event StateChangeEvent)
	OnFlushSuccess(event FlushSuccessEvent)
	OnFlushError(event FlushErrorEvent)
	OnDrop(event DropEvent)
}

// BaseEventHandler implements EventHandler with no-ops. Embed it to handle
// only the events you care about.
type BaseEventHandler struct{}

func (BaseEventHandler) OnStateChange(StateChangeEvent)   {}
func (BaseEventHandler) OnFlushSuccess(FlushSuccessEvent) {}
func (BaseEventHandler) OnFlushError(FlushErrorEvent)     {}
func (BaseEventHandler) OnDrop(DropEvent)                 {}

// StateChangeEvent describes a flush loop state transition.
type StateChangeEvent struct {
	Aggregator string
	Previous   State
	Current    State
	Reason     string
}

// FlushSuccessEvent describes a batch accepted by the target.
type FlushSuccessEvent struct {
	Aggregator string
	Items      int
	Duration   time.Duration
}

// FlushErrorEvent describes a batch the target rejected. The batch has
// already been put back at the head of the queue.
type FlushErrorEvent struct {
	Aggregator string
	Error      error
	Items      int
}

// DropReason says why an intercepted item was not buffered.
type DropReason string

const (
	// DropTransform means the Transform function rejected the item.
	DropTransform DropReason = "transform"
	// DropClosed means the item arrived after the final drain.
	DropClosed DropReason = "closed"
)

// DropEvent describes an intercepted item that was never buffered.
type DropEvent struct {
	Aggregator string
	Reason     DropReason
}

// eventEmitterWrapper adapts EventHandler to the loop's emitter interface.
type eventEmitterWrapper struct {
	name    string
	handler EventHandler
}

func (e *eventEmitterWrapper) OnStateChange(previous, current app.FlushState, reason string) {
	if e.handler == nil {
		return
	}
	e.handler.OnStateChange(StateChangeEvent{
		Aggregator: e.name,
		Previous:   previous,
		Current:    current,
		Reason:     reason,
	})
}

func (e *eventEmitterWrapper) OnFlushSuccess(items int, duration time.Duration) {
	if e.handler == nil {
		return
	}
	e.handler.OnFlushSuccess(FlushSuccessEvent{
		Aggregator: e.name,
		Items:      items,
		Duration:   duration,
	})
}

func (e *eventEmitterWrapper) OnFlushError(err error, items int) {
	if e.handler == nil {
		return
	}
	e.handler.OnFlushError(FlushErrorEvent{
		Aggregator: e.name,
		Error:      err,
		Items:      items,
	})
}

func (e *eventEmitterWrapper) onDrop(reason DropReason) {
	if e.handler == nil {
		return
	}
	e.handler.OnDrop(DropEvent{Aggregator: e.name, Reason: reason})
}
