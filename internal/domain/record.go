package domain

import (
	"time"

	"github.com/google/uuid"
)

// Record is a single line captured by the CLI and shipped to a sink.
type Record struct {
	// ID is a random identifier assigned at capture time; sinks use it to
	// deduplicate rows when a failed batch is retried.
	ID string `json:"id"`

	// Time is the capture time.
	Time time.Time `json:"ts"`

	// Source names where the line came from (file path or "stdin").
	Source string `json:"source"`

	// Line is the payload without the trailing newline.
	Line string `json:"line"`
}

// NewRecord creates a Record for line captured now from source.
func NewRecord(source, line string) Record {
	return Record{
		ID:     uuid.NewString(),
		Time:   time.Now().UTC(),
		Source: source,
		Line:   line,
	}
}
