// Package sink contains the targets the CLI ships records to.
//
// Every sink writes single records directly through Write and whole
// batches through Flush. [Buffered] wraps a sink so that Write is batched
// by an aggregator while every other method is delegated unchanged.
package sink

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/bft-labs/batchship/internal/domain"
	"github.com/bft-labs/batchship/internal/ports"
)

// Sink receives records.
type Sink interface {
	// Name identifies the sink in logs and metrics.
	Name() string

	// Write delivers a single record.
	Write(ctx context.Context, rec domain.Record) error

	// Flush delivers records in order as one bulk operation.
	Flush(ctx context.Context, recs []domain.Record) error

	// Close releases the sink's resources.
	Close(ctx context.Context) error
}

// Sink kinds accepted by Open.
const (
	KindStdout = "stdout"
	KindHTTP   = "http"
	KindSQLite = "sqlite"
)

// Params selects and configures a sink.
type Params struct {
	Kind string

	// Out is used by KindStdout.
	Out io.Writer

	// ServiceURL, AuthKey, HTTPTimeout and HTTPClient are used by KindHTTP.
	// HTTPClient defaults to an *http.Client with HTTPTimeout.
	ServiceURL  string
	AuthKey     string
	HTTPTimeout time.Duration
	HTTPClient  ports.HTTPClient

	// SQLitePath is used by KindSQLite.
	SQLitePath string

	Logger ports.Logger
}

// Open creates the sink described by p.
func Open(p Params) (Sink, error) {
	switch p.Kind {
	case KindStdout:
		return NewWriterSink(p.Out), nil
	case KindHTTP:
		client := p.HTTPClient
		if client == nil {
			client = &http.Client{Timeout: p.HTTPTimeout}
		}
		return NewHTTPSink(client, p.ServiceURL, p.AuthKey, p.Logger), nil
	case KindSQLite:
		return OpenSQLiteSink(p.SQLitePath)
	default:
		return nil, fmt.Errorf("%w: unknown sink %q", domain.ErrInvalidConfig, p.Kind)
	}
}
