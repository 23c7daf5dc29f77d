// Package aggregate provides a write-behind batching layer for expensive sinks.
//
// An [Aggregator] sits in front of a target that can write many items at
// once. Callers hand it single items through [Aggregator.Intercept]; a
// background loop wakes every Interval, takes everything that is pending and
// passes it, in order, to the target's Flush method. A failed flush is
// logged and its batch is retried on the next cycle ahead of newer items.
// [Aggregator.Close] stops the loop, flushes the last partial batch, and only
// then closes the target.
//
// # Basic Usage
//
//	agg, err := aggregate.New[string](sink, aggregate.Config[string]{
//	    Interval: time.Second,
//	})
//	if err != nil {
//	    return err
//	}
//	agg.Intercept("hello")
//	defer agg.Close(ctx)
//
// # Transparent Wrappers
//
// To make batching invisible to existing callers, embed the target in a
// struct and override only the intercepted method and Close:
//
//	type BatchedLogger struct {
//	    *Logger
//	    agg *aggregate.Aggregator[string]
//	}
//
//	func (b *BatchedLogger) Info(msg string)                 { b.agg.Intercept(msg) }
//	func (b *BatchedLogger) Close(ctx context.Context) error { return b.agg.Close(ctx) }
//
// Every other method of Logger is promoted unchanged.
//
// # Binding by Method Name
//
// When the target's method names only become known at runtime (for example
// from configuration), [Bind] validates them by reflection and buffers raw
// argument tuples ([Args]).
//
// # Events
//
// Implement [EventHandler] (or embed [BaseEventHandler]) and pass it with
// [WithEventHandler] to observe flushes, failures, drops and state changes.
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package aggregate
