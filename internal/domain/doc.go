// Package domain contains the core entities and errors for batchship.
//
// It has no dependencies on infrastructure concerns (HTTP, SQL, logging).
//
//   - [Record]: one captured line, the item type shipped by the CLI
//   - [ErrInvalidConfig], [ErrShutdownTimeout], [ErrClosed]: sentinel errors
package domain
