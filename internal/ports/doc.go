// Package ports defines the interfaces (ports) that connect the application
// layer to infrastructure adapters.
//
// # Port Interfaces
//
//   - [Flusher]: the bulk operation a batch is handed to
//   - [Closer]: the optional close operation run after the final drain
//   - [Logger]: Structured logging abstraction
//   - [HTTPClient]: HTTP request abstraction for dependency injection
//
// # Usage
//
// The application layer (internal/app) depends only on these interfaces.
// Infrastructure adapters (internal/adapters) implement them with concrete
// sinks (stdout, HTTP, SQLite) and the zerolog logger.
package ports
