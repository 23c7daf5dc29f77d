package ports

import "github.com/bft-labs/batchship/pkg/log"

// Logger is the structured logging port. It is the public pkg/log interface
// so adapters can be shared between the library and the CLI.
type Logger = log.Logger

// Field is a structured log field.
type Field = log.Field
