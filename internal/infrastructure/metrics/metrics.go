package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"pricehub/internal/application/port"
)

// Prometheus implements port.Metrics.
type Prometheus struct {
	fetchDuration   *prometheus.HistogramVec
	fetchSymbols    *prometheus.GaugeVec
	fetchErrors     *prometheus.CounterVec
	cycleDuration   prometheus.Histogram
	cycleSymbols    prometheus.Gauge
	cycleFailures   prometheus.Counter
	subscribers     prometheus.Gauge
	messagesSent    *prometheus.CounterVec
	deliveryFailure *prometheus.CounterVec
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) *Prometheus {
	m := &Prometheus{
		fetchDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pricehub_fetch_duration_seconds",
			Help:    "Duration of one exchange fetch",
			Buckets: prometheus.DefBuckets,
		}, []string{"exchange"}),
		fetchSymbols: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "pricehub_fetch_symbols",
			Help: "Symbols reported by an exchange in the last successful fetch",
		}, []string{"exchange"}),
		fetchErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricehub_fetch_errors_total",
			Help: "Failed exchange fetches by kind",
		}, []string{"exchange", "kind"}),
		cycleDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "pricehub_cycle_duration_seconds",
			Help:    "Duration of one refresh cycle",
			Buckets: prometheus.DefBuckets,
		}),
		cycleSymbols: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pricehub_snapshot_symbols",
			Help: "Symbols present in the latest snapshot",
		}),
		cycleFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pricehub_cycle_failures_total",
			Help: "Refresh cycles that ended with an error",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "pricehub_subscribers",
			Help: "Currently registered subscribers",
		}),
		messagesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricehub_messages_sent_total",
			Help: "Messages queued to subscribers by type",
		}, []string{"type"}),
		deliveryFailure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pricehub_delivery_failures_total",
			Help: "Messages that could not be delivered by type",
		}, []string{"type"}),
	}

	reg.MustRegister(
		m.fetchDuration,
		m.fetchSymbols,
		m.fetchErrors,
		m.cycleDuration,
		m.cycleSymbols,
		m.cycleFailures,
		m.subscribers,
		m.messagesSent,
		m.deliveryFailure,
	)
	return m
}

func (m *Prometheus) FetchCompleted(source string, symbols int, elapsed time.Duration) {
	m.fetchDuration.WithLabelValues(source).Observe(elapsed.Seconds())
	m.fetchSymbols.WithLabelValues(source).Set(float64(symbols))
}

func (m *Prometheus) FetchFailed(source string, kind port.FetchErrorKind) {
	m.fetchErrors.WithLabelValues(source, string(kind)).Inc()
}

func (m *Prometheus) CycleCompleted(symbols int, elapsed time.Duration) {
	m.cycleDuration.Observe(elapsed.Seconds())
	m.cycleSymbols.Set(float64(symbols))
}

func (m *Prometheus) CycleFailed() { m.cycleFailures.Inc() }

func (m *Prometheus) SubscribersChanged(active int) { m.subscribers.Set(float64(active)) }

func (m *Prometheus) MessageDelivered(msgType string) {
	m.messagesSent.WithLabelValues(msgType).Inc()
}

func (m *Prometheus) DeliveryFailed(msgType string) {
	m.deliveryFailure.WithLabelValues(msgType).Inc()
}

var _ port.Metrics = (*Prometheus)(nil)
