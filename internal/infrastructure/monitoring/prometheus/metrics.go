package prometheus

import (
	"strconv"
	"time"
)

// AppMetrics holds every metric family exported by CDNAtlas.
type AppMetrics struct {
	// HTTP
	HTTPRequestsTotal   CounterVec
	HTTPRequestDuration HistogramVec
	HTTPActiveRequests  GaugeVec

	// Atlas
	LayerBuildsTotal    CounterVec
	LayerBuildDuration  HistogramVec
	RelationsFiltered   HistogramVec
	ArcsBuiltTotal      CounterVec
	ArcsSkippedTotal    CounterVec
	CriticalityScores   HistogramVec
	DatasetRecords      GaugeVec
	DatasetLoadsTotal   CounterVec
	DatasetLoadDuration HistogramVec

	// Cache
	CacheHitsTotal   CounterVec
	CacheMissesTotal CounterVec
	CacheErrorsTotal CounterVec

	// Health
	ServiceUptime     GaugeVec
	HealthCheckStatus GaugeVec
	ErrorsTotal       CounterVec
}

var (
	DefaultHTTPDurationBuckets  = []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5}
	DefaultBuildDurationBuckets = []float64{.0005, .001, .005, .01, .05, .1, .5, 1}
	RelationCountBuckets        = []float64{0, 1, 5, 10, 25, 50, 100, 250, 500, 1000}
	CriticalityBuckets          = []float64{10, 20, 30, 40, 50, 60, 70, 80, 90, 100}
)

// NewAppMetrics registers every family on collector.
func NewAppMetrics(collector MetricsCollector) *AppMetrics {
	m := &AppMetrics{}

	m.HTTPRequestsTotal = collector.RegisterCounter("http_requests_total", "Total HTTP requests", "method", "path", "status_code")
	m.HTTPRequestDuration = collector.RegisterHistogram("http_request_duration_seconds", "HTTP request duration", DefaultHTTPDurationBuckets, "method", "path")
	m.HTTPActiveRequests = collector.RegisterGauge("http_active_requests", "In-flight HTTP requests", "method")

	m.LayerBuildsTotal = collector.RegisterCounter("layer_builds_total", "Arc layer computations", "source")
	m.LayerBuildDuration = collector.RegisterHistogram("layer_build_duration_seconds", "Arc layer computation time", DefaultBuildDurationBuckets, "operation")
	m.RelationsFiltered = collector.RegisterHistogram("relations_filtered", "Relations remaining after filtering", RelationCountBuckets, "operation")
	m.ArcsBuiltTotal = collector.RegisterCounter("arcs_built_total", "Arc polylines generated")
	m.ArcsSkippedTotal = collector.RegisterCounter("arcs_skipped_total", "Relations skipped for unknown countries")
	m.CriticalityScores = collector.RegisterHistogram("criticality_score", "Computed criticality scores", CriticalityBuckets, "level")
	m.DatasetRecords = collector.RegisterGauge("dataset_records", "Records in the loaded dataset", "kind")
	m.DatasetLoadsTotal = collector.RegisterCounter("dataset_loads_total", "Dataset load attempts", "format", "status")
	m.DatasetLoadDuration = collector.RegisterHistogram("dataset_load_duration_seconds", "Dataset load time", DefaultBuildDurationBuckets, "format")

	m.CacheHitsTotal = collector.RegisterCounter("cache_hits_total", "Cache hits", "cache")
	m.CacheMissesTotal = collector.RegisterCounter("cache_misses_total", "Cache misses", "cache")
	m.CacheErrorsTotal = collector.RegisterCounter("cache_errors_total", "Cache backend errors", "cache", "operation")

	m.ServiceUptime = collector.RegisterGauge("service_uptime_seconds", "Service uptime", "service")
	m.HealthCheckStatus = collector.RegisterGauge("health_check_status", "Health check status (1=up, 0=down)", "component")
	m.ErrorsTotal = collector.RegisterCounter("errors_total", "Errors by component and code", "component", "code")

	return m
}

// NewNoopAppMetrics returns AppMetrics whose families discard observations.
func NewNoopAppMetrics() *AppMetrics {
	c, h, g := noopCounterVec{}, noopHistogramVec{}, noopGaugeVec{}
	return &AppMetrics{
		HTTPRequestsTotal: c, HTTPRequestDuration: h, HTTPActiveRequests: g,
		LayerBuildsTotal: c, LayerBuildDuration: h, RelationsFiltered: h,
		ArcsBuiltTotal: c, ArcsSkippedTotal: c, CriticalityScores: h,
		DatasetRecords: g, DatasetLoadsTotal: c, DatasetLoadDuration: h,
		CacheHitsTotal: c, CacheMissesTotal: c, CacheErrorsTotal: c,
		ServiceUptime: g, HealthCheckStatus: g, ErrorsTotal: c,
	}
}

// ── Helpers ──────────────────────────────────────────────────────────────────

func RecordHTTPRequest(m *AppMetrics, method, path string, statusCode int, duration time.Duration) {
	m.HTTPRequestsTotal.WithLabelValues(method, path, strconv.Itoa(statusCode)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordLayerBuild records one computed layer.  source is "computed" or
// "cache".
func RecordLayerBuild(m *AppMetrics, source string, duration time.Duration, relations, arcs, skipped int) {
	m.LayerBuildsTotal.WithLabelValues(source).Inc()
	if source != "computed" {
		return
	}
	m.LayerBuildDuration.WithLabelValues("layer").Observe(duration.Seconds())
	m.RelationsFiltered.WithLabelValues("layer").Observe(float64(relations))
	m.ArcsBuiltTotal.WithLabelValues().Add(float64(arcs))
	m.ArcsSkippedTotal.WithLabelValues().Add(float64(skipped))
}

func RecordCriticality(m *AppMetrics, level string, score float64) {
	m.CriticalityScores.WithLabelValues(level).Observe(score)
}

func RecordDatasetLoad(m *AppMetrics, format string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.DatasetLoadsTotal.WithLabelValues(format, status).Inc()
	m.DatasetLoadDuration.WithLabelValues(format).Observe(duration.Seconds())
}

func RecordCacheAccess(m *AppMetrics, cache string, hit bool) {
	if hit {
		m.CacheHitsTotal.WithLabelValues(cache).Inc()
		return
	}
	m.CacheMissesTotal.WithLabelValues(cache).Inc()
}

func RecordCacheError(m *AppMetrics, cache, operation string) {
	m.CacheErrorsTotal.WithLabelValues(cache, operation).Inc()
}

func RecordError(m *AppMetrics, component, code string) {
	m.ErrorsTotal.WithLabelValues(component, code).Inc()
}
