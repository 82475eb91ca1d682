package metrics

import "github.com/prometheus/client_golang/prometheus"

// AnalyticsMetrics exposes counters/histograms for dataset loads and
// aggregation queries.
type AnalyticsMetrics struct {
	loadsTotal    *prometheus.CounterVec
	datasetRows   *prometheus.GaugeVec
	queriesTotal  *prometheus.CounterVec
	queryDuration *prometheus.HistogramVec
}

func NewAnalyticsMetrics(reg prometheus.Registerer) *AnalyticsMetrics {
	m := &AnalyticsMetrics{
		loadsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinsight",
			Subsystem: "dataset",
			Name:      "loads_total",
			Help:      "Total dataset load attempts",
		}, []string{"status"}),
		datasetRows: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "clinsight",
			Subsystem: "dataset",
			Name:      "rows",
			Help:      "Row counts of the currently loaded tables",
		}, []string{"table"}),
		queriesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinsight",
			Subsystem: "analytics",
			Name:      "queries_total",
			Help:      "Total aggregation queries served",
		}, []string{"query", "status"}),
		queryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinsight",
			Subsystem: "analytics",
			Name:      "query_duration_seconds",
			Help:      "Latency of aggregation queries",
			Buckets:   prometheus.DefBuckets,
		}, []string{"query"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.loadsTotal, m.datasetRows, m.queriesTotal, m.queryDuration)
	return m
}

func (m *AnalyticsMetrics) ObserveLoad(status string) {
	if m == nil {
		return
	}
	m.loadsTotal.WithLabelValues(status).Inc()
}

func (m *AnalyticsMetrics) SetRows(table string, rows int) {
	if m == nil {
		return
	}
	m.datasetRows.WithLabelValues(table).Set(float64(rows))
}

func (m *AnalyticsMetrics) ObserveQuery(query, status string, seconds float64) {
	if m == nil {
		return
	}
	m.queriesTotal.WithLabelValues(query, status).Inc()
	m.queryDuration.WithLabelValues(query).Observe(seconds)
}

// AssistantMetrics exposes counters/histograms for upstream AI calls.
type AssistantMetrics struct {
	llmRequests *prometheus.CounterVec
	llmLatency  *prometheus.HistogramVec
}

func NewAssistantMetrics(reg prometheus.Registerer) *AssistantMetrics {
	m := &AssistantMetrics{
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinsight",
			Subsystem: "assistant",
			Name:      "llm_requests_total",
			Help:      "Total upstream AI requests",
		}, []string{"provider", "status"}),
		llmLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinsight",
			Subsystem: "assistant",
			Name:      "llm_latency_seconds",
			Help:      "Latency of upstream AI requests",
			Buckets:   []float64{0.25, 0.5, 1, 2, 4, 8, 16, 30},
		}, []string{"provider"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.llmRequests, m.llmLatency)
	return m
}

func (m *AssistantMetrics) ObserveLLM(provider, status string, seconds float64) {
	if m == nil {
		return
	}
	m.llmRequests.WithLabelValues(provider, status).Inc()
	m.llmLatency.WithLabelValues(provider).Observe(seconds)
}
