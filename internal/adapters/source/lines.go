// Package source reads lines from files or stdin and turns them into records.
package source

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/bft-labs/batchship/internal/domain"
)

// maxLineBytes bounds a single line; longer lines fail the scan.
const maxLineBytes = 1 << 20

// Emit receives each captured record.
type Emit func(rec domain.Record)

// ReadLines emits one record per line of r until EOF or ctx is cancelled.
func ReadLines(ctx context.Context, r io.Reader, source string, emit Emit) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return err
		}
		emit(domain.NewRecord(source, scanner.Text()))
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read %s: %w", source, err)
	}
	return nil
}
