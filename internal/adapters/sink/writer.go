package sink

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/bft-labs/batchship/internal/domain"
)

// WriterSink writes records as JSON lines.
type WriterSink struct {
	mu  sync.Mutex
	out io.Writer
}

// NewWriterSink creates a sink writing to out.
func NewWriterSink(out io.Writer) *WriterSink {
	return &WriterSink{out: out}
}

// Name returns "stdout".
func (s *WriterSink) Name() string { return KindStdout }

// Write writes a single record.
func (s *WriterSink) Write(ctx context.Context, rec domain.Record) error {
	return s.Flush(ctx, []domain.Record{rec})
}

// Flush encodes recs through one buffered writer.
func (s *WriterSink) Flush(ctx context.Context, recs []domain.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w := bufio.NewWriter(s.out)
	enc := json.NewEncoder(w)
	for _, rec := range recs {
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("encode record %s: %w", rec.ID, err)
		}
	}
	return w.Flush()
}

// Close flushes nothing; the writer is owned by the caller.
func (s *WriterSink) Close(ctx context.Context) error {
	return nil
}
