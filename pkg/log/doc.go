// Package log provides the logging abstraction used by batchship components.
//
// The aggregator never writes to a concrete logging library directly. It
// reports non-fatal conditions (failed flushes, advisory size warnings,
// items dropped after close) through the [Logger] interface, so embedding
// applications can route them into whatever they already use.
//
// # Usage
//
// Use the zerolog adapter writing to stderr (the default sink):
//
//	logger := log.NewConsoleAdapter(os.Stderr, zerolog.InfoLevel)
//
// Wrap an existing zerolog.Logger:
//
//	logger := log.NewZerologAdapterWithLogger(zl)
//
// Or discard everything in tests:
//
//	logger := log.NewNoopLogger()
//
// # Version
//
// Current version: 1.0.0
// Minimum compatible version: 1.0.0
package log
