package probe

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics exports probe progress. A nil *Metrics records nothing.
type Metrics struct {
	heap    prometheus.Gauge
	average prometheus.Gauge
	delta   prometheus.Gauge
	queries prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		heap: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tormprobe_heap_bytes",
			Help: "Heap bytes allocated after the latest query.",
		}),
		average: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tormprobe_window_average_bytes",
			Help: "Average heap bytes over the latest reported window.",
		}),
		delta: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tormprobe_window_delta_bytes",
			Help: "Change of the window average against the previous window.",
		}),
		queries: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tormprobe_queries_total",
			Help: "Queries issued, warm-up included.",
		}),
	}
	reg.MustRegister(m.heap, m.average, m.delta, m.queries)
	return m
}

// Handler serves the metrics gathered by reg.
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

func (m *Metrics) query() {
	if m != nil {
		m.queries.Inc()
	}
}

func (m *Metrics) sample(heapBytes uint64) {
	if m != nil {
		m.heap.Set(float64(heapBytes))
	}
}

func (m *Metrics) report(r Report) {
	if m != nil {
		m.average.Set(r.Average)
		m.delta.Set(r.Delta)
	}
}
