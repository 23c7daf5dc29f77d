package metrics

import (
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/batchship/pkg/aggregate"
)

func scrape(t *testing.T, c *Collector) string {
	t.Helper()
	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Result().Body)
	require.NoError(t, err)
	return string(body)
}

func TestCollector_RecordsEvents(t *testing.T) {
	c, err := NewCollector(nil)
	require.NoError(t, err)

	c.OnFlushSuccess(aggregate.FlushSuccessEvent{Aggregator: "http", Items: 3, Duration: 20 * time.Millisecond})
	c.OnFlushSuccess(aggregate.FlushSuccessEvent{Aggregator: "http", Items: 2, Duration: 10 * time.Millisecond})
	c.OnFlushError(aggregate.FlushErrorEvent{Aggregator: "http", Error: errors.New("boom"), Items: 4})
	c.OnDrop(aggregate.DropEvent{Aggregator: "http", Reason: aggregate.DropTransform})
	c.OnStateChange(aggregate.StateChangeEvent{Aggregator: "http", Previous: aggregate.StateIdle, Current: aggregate.StateDraining})

	body := scrape(t, c)
	assert.Contains(t, body, `batchship_flushes_total{aggregator="http",result="success"} 2`)
	assert.Contains(t, body, `batchship_flushes_total{aggregator="http",result="error"} 1`)
	assert.Contains(t, body, `batchship_items_flushed_total{aggregator="http"} 5`)
	assert.Contains(t, body, `batchship_items_dropped_total{aggregator="http",reason="transform"} 1`)
	assert.Contains(t, body, `batchship_flush_duration_seconds_count{aggregator="http"} 2`)
	assert.Contains(t, body, `batchship_flush_state{aggregator="http"} 2`)
}

func TestCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)

	_, err = NewCollector(reg)
	assert.Error(t, err)
}
