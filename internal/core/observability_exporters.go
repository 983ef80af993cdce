package core

import (
	"context"
	"expvar"
	"fmt"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsExporter is a MetricsRecorder whose totals can be scraped over HTTP
// at Path.
type MetricsExporter interface {
	MetricsRecorder
	Handler() http.Handler
	Path() string
}

// PrometheusMetricsRecorder exports per-operation counters and latency
// histograms on a private registry.
type PrometheusMetricsRecorder struct {
	registry   *prometheus.Registry
	operations *prometheus.CounterVec
	durations  *prometheus.HistogramVec
}

// NewPrometheusMetricsRecorder builds a recorder whose metric names are
// prefixed with namespace. Go runtime and process collectors are included.
func NewPrometheusMetricsRecorder(namespace string) (*PrometheusMetricsRecorder, error) {
	if namespace == "" {
		namespace = "mskboard"
	}
	reg := prometheus.NewRegistry()
	rec := &PrometheusMetricsRecorder{
		registry: reg,
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "operations_total",
			Help:      "Service operations by name and outcome.",
		}, []string{"operation", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "operation_duration_seconds",
			Help:      "Service operation latency, including any simulated delay.",
			Buckets:   []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5},
		}, []string{"operation"}),
	}
	for _, c := range []prometheus.Collector{
		rec.operations,
		rec.durations,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics collector: %w", err)
		}
	}
	return rec, nil
}

// Observe records a service operation outcome.
func (r *PrometheusMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.operations.WithLabelValues(operation, outcome(success)).Inc()
	r.durations.WithLabelValues(operation).Observe(duration.Seconds())
}

// Registry exposes the underlying registry for gathering in tests.
func (r *PrometheusMetricsRecorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus text format.
func (r *PrometheusMetricsRecorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Path is the conventional Prometheus scrape path.
func (r *PrometheusMetricsRecorder) Path() string { return "/metrics" }

var expvarSeq uint64

// ExpvarMetricsRecorder publishes running totals through expvar, for
// deployments that only scrape /debug/vars.
type ExpvarMetricsRecorder struct {
	name      string
	durations *expvar.Map
	results   *expvar.Map
}

// ExpvarMetricsSnapshot is a point-in-time copy of the recorded totals.
type ExpvarMetricsSnapshot struct {
	DurationsMS map[string]float64          `json:"durations_ms_total"`
	Results     map[string]map[string]int64 `json:"results_total"`
}

// NewExpvarMetricsRecorder publishes a recorder under name. expvar names are
// process-global, so an empty or already published name gets a numbered
// suffix instead.
func NewExpvarMetricsRecorder(name string) *ExpvarMetricsRecorder {
	if name == "" || expvar.Get(name) != nil {
		base := name
		if base == "" {
			base = "mskboard_service_metrics"
		}
		name = fmt.Sprintf("%s_%d", base, atomic.AddUint64(&expvarSeq, 1))
	}
	rec := &ExpvarMetricsRecorder{
		name:      name,
		durations: new(expvar.Map).Init(),
		results:   new(expvar.Map).Init(),
	}
	root := new(expvar.Map).Init()
	root.Set("durations_ms_total", rec.durations)
	root.Set("results_total", rec.results)
	expvar.Publish(name, root)
	return rec
}

// Name returns the expvar export name.
func (r *ExpvarMetricsRecorder) Name() string {
	return r.name
}

// Handler serves every published expvar, this recorder included, as JSON.
func (r *ExpvarMetricsRecorder) Handler() http.Handler {
	return expvar.Handler()
}

// Path is the conventional expvar path.
func (r *ExpvarMetricsRecorder) Path() string { return "/debug/vars" }

// Observe records a service operation outcome.
func (r *ExpvarMetricsRecorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	if operation == "" {
		return
	}
	r.durations.AddFloat(operation, float64(duration)/float64(time.Millisecond))
	r.results.Add(operation+"/"+outcome(success), 1)
}

// Snapshot copies the current totals.
func (r *ExpvarMetricsRecorder) Snapshot() ExpvarMetricsSnapshot {
	snap := ExpvarMetricsSnapshot{
		DurationsMS: make(map[string]float64),
		Results:     make(map[string]map[string]int64),
	}
	r.durations.Do(func(kv expvar.KeyValue) {
		if f, ok := kv.Value.(*expvar.Float); ok {
			snap.DurationsMS[kv.Key] = f.Value()
		}
	})
	r.results.Do(func(kv expvar.KeyValue) {
		counter, ok := kv.Value.(*expvar.Int)
		if !ok {
			return
		}
		op, status, found := strings.Cut(kv.Key, "/")
		if !found {
			return
		}
		if snap.Results[op] == nil {
			snap.Results[op] = make(map[string]int64, 2)
		}
		snap.Results[op][status] = counter.Value()
	})
	return snap
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "error"
}
