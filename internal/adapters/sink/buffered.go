package sink

import (
	"context"

	"github.com/bft-labs/batchship/internal/domain"
	"github.com/bft-labs/batchship/pkg/aggregate"
)

// Buffered is a Sink whose Write calls are batched.
//
// Write and Close are re-routed through an aggregator; Name, Flush and any
// other method of the wrapped sink are promoted unchanged.
type Buffered struct {
	Sink
	agg *aggregate.Aggregator[domain.Record]
}

// NewBuffered wraps s. The wrapped sink's Flush receives the batches and
// its Close runs after the final drain.
func NewBuffered(s Sink, cfg aggregate.Config[domain.Record], opts ...aggregate.Option) (*Buffered, error) {
	opts = append([]aggregate.Option{aggregate.WithName(s.Name())}, opts...)
	agg, err := aggregate.New[domain.Record](s, cfg, opts...)
	if err != nil {
		return nil, err
	}
	return &Buffered{Sink: s, agg: agg}, nil
}

// Write buffers rec for the next flush. It never fails.
func (b *Buffered) Write(ctx context.Context, rec domain.Record) error {
	b.agg.Intercept(rec)
	return nil
}

// Close drains pending records, then closes the wrapped sink.
func (b *Buffered) Close(ctx context.Context) error {
	return b.agg.Close(ctx)
}

// Pending returns the number of records waiting for the next flush.
func (b *Buffered) Pending() int {
	return b.agg.Pending()
}
