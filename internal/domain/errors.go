package domain

import "errors"

// Domain errors represent error conditions surfaced by batchship.
// These errors are returned by the public API and can be checked with errors.Is.
var (
	// ErrInvalidConfig is returned when an aggregator cannot be constructed
	// from its configuration (missing target, unknown flush method, ...).
	ErrInvalidConfig = errors.New("batchship: invalid configuration")

	// ErrShutdownTimeout is returned by Close when the caller's context ends
	// before the final drain has finished.
	ErrShutdownTimeout = errors.New("batchship: shutdown timeout")

	// ErrClosed is returned by operations invoked after Close completed.
	ErrClosed = errors.New("batchship: closed")
)
