package metrics

import "github.com/prometheus/client_golang/prometheus"

// QueryMetrics exposes counters/histograms for query dispatch.
type QueryMetrics struct {
	queriesTotal  *prometheus.CounterVec
	llmLatency *prometheus.HistogramVec
}

func NewQueryMetrics(reg prometheus.Registerer) *QueryMetrics {
	m := &QueryMetrics{
		queriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hospital",
			Subsystem: "assistant",
			Name:      "queries_total",
			Help:      "Total dispatched queries",
		}, []string{"action", "status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "hospital",
			Subsystem: "assistant",
			Name:      "llm_latency_seconds",
			Help:      "Latency of LLM completions",
			Buckets:   prometheus.DefBuckets,
		}, []string{"purpose"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.queriesTotal, m.llmLatency)
	return m
}

func (m *QueryMetrics) ObserveQuery(action, status string) {
	if m == nil {
		return
	}
	m.queriesTotal.WithLabelValues(action, status).Inc()
}

func (m *QueryMetrics) ObserveLLMLatency(purpose string, seconds float64) {
	if m == nil {
		return
	}
	m.llmLatency.WithLabelValues(purpose).Observe(seconds)
}

// AllocatorMetrics exposes counters for the doctor pool.
type AllocatorMetrics struct {
	reservationsTotal *prometheus.CounterVec
	releasedTotal     prometheus.Counter
}

func NewAllocatorMetrics(reg prometheus.Registerer) *AllocatorMetrics {
	m := &AllocatorMetrics{
		reservationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "hospital",
			Subsystem: "doctors",
			Name:      "reservations_total",
			Help:      "Total doctor reservation attempts",
		}, []string{"outcome"}),
		releasedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "hospital",
			Subsystem: "doctors",
			Name:      "stale_released_total",
			Help:      "Total reservations reclaimed by the stale sweep",
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.reservationsTotal, m.releasedTotal)
	return m
}

func (m *AllocatorMetrics) ObserveReservation(outcome string) {
	if m == nil {
		return
	}
	m.reservationsTotal.WithLabelValues(outcome).Inc()
}

func (m *AllocatorMetrics) ObserveReleased(count float64) {
	if m == nil {
		return
	}
	m.releasedTotal.Add(count)
}
