package core

import (
	"context"
	"expvar"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestNoopLoggerAndClock(t *testing.T) {
	logger := NoopLogger()
	logger.Debug("d")
	logger.Info("i", "k", "v")
	logger.Warn("w")
	logger.Error("e")
	fixed := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !ClockFunc(func() time.Time { return fixed }).Now().Equal(fixed) {
		t.Fatalf("expected ClockFunc to return fixed time")
	}
	if (systemClock{}).Now().Location() != time.UTC {
		t.Fatalf("expected UTC system clock")
	}
}

func TestPrometheusMetricsRecorder(t *testing.T) {
	rec, err := NewPrometheusMetricsRecorder("msktest")
	if err != nil {
		t.Fatalf("new recorder: %v", err)
	}
	ctx := context.Background()
	rec.Observe(ctx, "create_suggestion", true, 20*time.Millisecond)
	rec.Observe(ctx, "create_suggestion", false, 5*time.Millisecond)
	rec.Observe(ctx, "delete_suggestion", true, time.Millisecond)
	rec.Observe(ctx, "", true, time.Millisecond)

	if got := testutil.ToFloat64(rec.operations.WithLabelValues("create_suggestion", "success")); got != 1 {
		t.Fatalf("expected one successful create, got %v", got)
	}
	if got := testutil.ToFloat64(rec.operations.WithLabelValues("create_suggestion", "error")); got != 1 {
		t.Fatalf("expected one failed create, got %v", got)
	}
	if n := testutil.CollectAndCount(rec.durations); n != 2 {
		t.Fatalf("expected two histogram series, got %d", n)
	}

	srv := httptest.NewServer(rec.Handler())
	defer srv.Close()
	resp, err := srv.Client().Get(srv.URL)
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}
	defer func() { _ = resp.Body.Close() }()
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), `msktest_operations_total{operation="delete_suggestion",status="success"} 1`) {
		t.Fatalf("expected counter in scrape output:\n%s", body)
	}
	if !strings.Contains(string(body), "go_goroutines") {
		t.Fatalf("expected go collector output")
	}
	if rec.Registry() == nil {
		t.Fatalf("expected registry")
	}
	if exporter := MetricsExporter(rec); exporter.Path() != "/metrics" {
		t.Fatalf("unexpected path %s", exporter.Path())
	}
}

func TestExpvarMetricsRecorder(t *testing.T) {
	rec := NewExpvarMetricsRecorder("")
	ctx := context.Background()
	rec.Observe(ctx, "update_status", true, 2*time.Millisecond)
	rec.Observe(ctx, "update_status", true, 3*time.Millisecond)
	rec.Observe(ctx, "update_status", false, time.Millisecond)

	snap := rec.Snapshot()
	if snap.Results["update_status"]["success"] != 2 || snap.Results["update_status"]["error"] != 1 {
		t.Fatalf("unexpected results: %+v", snap.Results)
	}
	if snap.DurationsMS["update_status"] != 6 {
		t.Fatalf("unexpected duration total: %v", snap.DurationsMS)
	}
	published := expvar.Get(rec.Name())
	if published == nil || !strings.Contains(published.String(), "results_total") {
		t.Fatalf("expected recorder published under %s", rec.Name())
	}
	if other := NewExpvarMetricsRecorder(""); other.Name() == rec.Name() {
		t.Fatalf("expected unique generated names")
	}
	if again := NewExpvarMetricsRecorder(rec.Name()); again.Name() == rec.Name() {
		t.Fatalf("a taken name must not be published twice")
	}

	var exporter MetricsExporter = rec
	if exporter.Path() != "/debug/vars" {
		t.Fatalf("unexpected path %s", exporter.Path())
	}
	resp := httptest.NewRecorder()
	exporter.Handler().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, exporter.Path(), nil))
	if !strings.Contains(resp.Body.String(), `"`+rec.Name()+`"`) {
		t.Fatalf("expected %s in expvar output", rec.Name())
	}
}
