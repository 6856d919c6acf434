package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "fitdash"

// Collector 持有应用的 Prometheus 指标，每个实例使用独立的 registry
type Collector struct {
	registry *prometheus.Registry

	imports        *prometheus.CounterVec
	records        *prometheus.CounterVec
	fitbitRequests *prometheus.CounterVec
	importDuration *prometheus.HistogramVec
}

// New 创建并注册全部指标
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		imports: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "Import attempts by source and outcome.",
		}, []string{"source", "outcome"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_imported_total",
			Help:      "Canonical records persisted by kind.",
		}, []string{"kind"}),
		fitbitRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fitbit_requests_total",
			Help:      "Fitbit API requests by endpoint and outcome.",
		}, []string{"endpoint", "outcome"}),
		importDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_duration_seconds",
			Help:      "Time spent processing and persisting an import.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"source"}),
	}

	c.registry.MustRegister(c.imports, c.records, c.fitbitRequests, c.importDuration)
	return c
}

// Registry 返回内部 registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler 返回 /metrics 的 HTTP handler
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveImport 记录一次导入的结果与耗时
func (c *Collector) ObserveImport(source, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	c.imports.WithLabelValues(source, outcome).Inc()
	c.importDuration.WithLabelValues(source).Observe(elapsed.Seconds())
}

// AddRecords 累加持久化的记录数
func (c *Collector) AddRecords(kind string, n int) {
	if c == nil || n <= 0 {
		return
	}
	c.records.WithLabelValues(kind).Add(float64(n))
}

// ObserveFitbitRequest 记录一次 Fitbit 请求
func (c *Collector) ObserveFitbitRequest(endpoint, outcome string) {
	if c == nil {
		return
	}
	c.fitbitRequests.WithLabelValues(endpoint, outcome).Inc()
}
