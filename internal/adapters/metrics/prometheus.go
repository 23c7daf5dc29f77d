// Package metrics exposes aggregator activity as Prometheus metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bft-labs/batchship/pkg/aggregate"
)

const namespace = "batchship"

// Collector records aggregator events. It implements aggregate.EventHandler.
type Collector struct {
	aggregate.BaseEventHandler

	gatherer prometheus.Gatherer

	flushes       *prometheus.CounterVec
	itemsFlushed  *prometheus.CounterVec
	itemsDropped  *prometheus.CounterVec
	flushDuration *prometheus.HistogramVec
	flushState    *prometheus.GaugeVec
}

// NewCollector creates a collector and registers its metrics with reg.
// A nil reg uses a fresh registry.
func NewCollector(reg *prometheus.Registry) (*Collector, error) {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	c := &Collector{
		gatherer: reg,
		flushes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "flushes_total",
			Help:      "Flush attempts by result.",
		}, []string{"aggregator", "result"}),
		itemsFlushed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_flushed_total",
			Help:      "Items delivered to the target.",
		}, []string{"aggregator"}),
		itemsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "items_dropped_total",
			Help:      "Intercepted items that were never buffered.",
		}, []string{"aggregator", "reason"}),
		flushDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "flush_duration_seconds",
			Help:      "Duration of successful flushes.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"aggregator"}),
		flushState: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "flush_state",
			Help:      "Current flush loop state (0 idle, 1 flushing, 2 draining, 3 stopped).",
		}, []string{"aggregator"}),
	}

	for _, col := range []prometheus.Collector{
		c.flushes, c.itemsFlushed, c.itemsDropped, c.flushDuration, c.flushState,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// OnStateChange implements aggregate.EventHandler.
func (c *Collector) OnStateChange(event aggregate.StateChangeEvent) {
	c.flushState.WithLabelValues(event.Aggregator).Set(float64(event.Current))
}

// OnFlushSuccess implements aggregate.EventHandler.
func (c *Collector) OnFlushSuccess(event aggregate.FlushSuccessEvent) {
	c.flushes.WithLabelValues(event.Aggregator, "success").Inc()
	c.itemsFlushed.WithLabelValues(event.Aggregator).Add(float64(event.Items))
	c.flushDuration.WithLabelValues(event.Aggregator).Observe(event.Duration.Seconds())
}

// OnFlushError implements aggregate.EventHandler.
func (c *Collector) OnFlushError(event aggregate.FlushErrorEvent) {
	c.flushes.WithLabelValues(event.Aggregator, "error").Inc()
}

// OnDrop implements aggregate.EventHandler.
func (c *Collector) OnDrop(event aggregate.DropEvent) {
	c.itemsDropped.WithLabelValues(event.Aggregator, string(event.Reason)).Inc()
}

// Handler serves the registered metrics in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.gatherer, promhttp.HandlerOpts{})
}
