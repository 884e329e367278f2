// Package metrics wires the engine's counters into Prometheus, adapted
// from pkg/metrics/lux_metrics.go's registry/counter/gauge/histogram
// shape and trimmed to what a single-symbol matching engine actually
// emits (no consensus/blockchain fields).
package metrics

import (
	"context"
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/luxfi/log"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds every Prometheus collector the matching engine reports.
type Metrics struct {
	namespace string
	registry  *prometheus.Registry
	logger    log.Logger

	ordersProcessed  prometheus.Counter
	tradesExecuted   prometheus.Counter
	messagesRejected prometheus.Counter
	orderBookDepth   *prometheus.GaugeVec
	bestPrice        *prometheus.GaugeVec
	matchingLatency  prometheus.Histogram
	poolUtilization  prometheus.Gauge

	zmqMessagesIn  prometheus.Counter
	natsPublished  prometheus.Counter
	wsClients      prometheus.Gauge

	memoryUsage prometheus.Gauge
	goroutines  prometheus.Gauge
}

// New builds and registers every collector under namespace.
func New(namespace string, logger log.Logger) *Metrics {
	if logger == nil {
		logger = log.Root().New("module", "metrics")
	}
	registry := prometheus.NewRegistry()

	m := &Metrics{
		namespace: namespace,
		registry:  registry,
		logger:    logger,

		ordersProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "orders_processed_total",
			Help:      "Total number of order messages successfully applied to the book",
		}),
		tradesExecuted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "trades_executed_total",
			Help:      "Total number of individual fills produced by matching",
		}),
		messagesRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_rejected_total",
			Help:      "Total number of order messages rejected by the book",
		}),
		orderBookDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "orderbook_depth",
			Help:      "Aggregate resting quantity at a market depth level",
		}, []string{"side", "level"}),
		bestPrice: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_price",
			Help:      "Current best bid/ask price",
		}, []string{"side"}),
		matchingLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "matching_latency_nanoseconds",
			Help:      "Per-message processing latency in nanoseconds",
			Buckets:   []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 25000, 50000},
		}),
		poolUtilization: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "order_pool_utilization",
			Help:      "Fraction of the order object pool currently in use",
		}),
		zmqMessagesIn: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "zmq_messages_received_total",
			Help:      "Total ZeroMQ order messages received",
		}),
		natsPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "nats_events_published_total",
			Help:      "Total trade/order events published to NATS",
		}),
		wsClients: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "websocket_clients",
			Help:      "Current number of connected depth/trade feed clients",
		}),
		memoryUsage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "memory_usage_bytes",
			Help:      "Current bytes of allocated heap objects",
		}),
		goroutines: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "goroutines_count",
			Help:      "Current number of goroutines",
		}),
	}

	registry.MustRegister(
		m.ordersProcessed,
		m.tradesExecuted,
		m.messagesRejected,
		m.orderBookDepth,
		m.bestPrice,
		m.matchingLatency,
		m.poolUtilization,
		m.zmqMessagesIn,
		m.natsPublished,
		m.wsClients,
		m.memoryUsage,
		m.goroutines,
	)

	return m
}

// Handler returns the http.Handler serving this registry's /metrics
// endpoint (mounted by cmd/lob-server).
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) RecordOrderProcessed()  { m.ordersProcessed.Inc() }
func (m *Metrics) RecordMessageRejected() { m.messagesRejected.Inc() }
func (m *Metrics) RecordTrades(n int) {
	m.tradesExecuted.Add(float64(n))
}
func (m *Metrics) RecordMatchingLatency(nanoseconds float64) { m.matchingLatency.Observe(nanoseconds) }
func (m *Metrics) SetPoolUtilization(fraction float64)       { m.poolUtilization.Set(fraction) }

func (m *Metrics) SetBestPrice(side string, price float64) { m.bestPrice.WithLabelValues(side).Set(price) }
func (m *Metrics) SetDepthLevel(side string, level int, quantity float64) {
	m.orderBookDepth.WithLabelValues(side, strconv.Itoa(level)).Set(quantity)
}

func (m *Metrics) RecordZMQMessage()   { m.zmqMessagesIn.Inc() }
func (m *Metrics) RecordNATSPublish()  { m.natsPublished.Inc() }
func (m *Metrics) SetWSClients(n int)  { m.wsClients.Set(float64(n)) }

// CollectRuntimeMetrics samples process-level stats every interval
// until ctx is cancelled, mirroring LXMetrics.CollectSystemMetrics.
func (m *Metrics) CollectRuntimeMetrics(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			var memStats runtime.MemStats
			runtime.ReadMemStats(&memStats)
			m.memoryUsage.Set(float64(memStats.Alloc))
			m.goroutines.Set(float64(runtime.NumGoroutine()))
		}
	}
}
