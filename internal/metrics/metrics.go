package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"crawling_observer/internal/domain"
)

const namespace = "crawling_observer"

// Collector exposes gate, distributor and analysis client metrics on a
// private registry. It satisfies the recorder interfaces of those packages.
type Collector struct {
	registry        *prometheus.Registry
	gateDecisions   *prometheus.CounterVec
	batchOutcomes   *prometheus.CounterVec
	batchDuration   *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

func New() (*Collector, error) {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		gateDecisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "gate",
			Name:      "decisions_total",
			Help:      "Gate decisions per producer.",
		}, []string{"producer", "allowed"}),
		batchOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "distributor",
			Name:      "batches_total",
			Help:      "Distributed batches by tag and outcome.",
		}, []string{"tag", "outcome"}),
		batchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "distributor",
			Name:      "batch_duration_seconds",
			Help:      "Time spent recording one batch.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"tag"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "analysis_rpc",
			Name:      "requests_total",
			Help:      "Analysis service requests by outcome.",
		}, []string{"outcome"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "analysis_rpc",
			Name:      "request_duration_seconds",
			Help:      "Latency of analysis service requests.",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"outcome"}),
	}

	for _, col := range []prometheus.Collector{
		c.gateDecisions,
		c.batchOutcomes,
		c.batchDuration,
		c.requestTotal,
		c.requestDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := registry.Register(col); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Handler returns an HTTP handler for exposing Prometheus metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

func (c *Collector) ObserveGateDecision(producer string, allowed bool) {
	c.gateDecisions.WithLabelValues(producer, strconv.FormatBool(allowed)).Inc()
}

func (c *Collector) ObserveBatch(tag string, outcome domain.Outcome, duration time.Duration) {
	c.batchOutcomes.WithLabelValues(tag, outcome.String()).Inc()
	c.batchDuration.WithLabelValues(tag).Observe(duration.Seconds())
}

func (c *Collector) ObserveRequest(outcome string, duration time.Duration) {
	c.requestTotal.WithLabelValues(outcome).Inc()
	c.requestDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}
