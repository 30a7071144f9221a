package observability

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newTestMetrics(t *testing.T) (*Metrics, *sdkmetric.ManualReader) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = mp.Shutdown(context.Background()) })

	m, err := NewMetrics(mp.Meter("test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	return m, reader
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]metricdata.Metrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collect: %v", err)
	}
	out := make(map[string]metricdata.Metrics)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			out[m.Name] = m
		}
	}
	return out
}

func TestMetrics_RecordJobByOutcome(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()

	m.RecordJob(ctx, "hit")
	m.RecordJob(ctx, "success")
	m.RecordJob(ctx, "success")

	got := collect(t, reader)
	sum, ok := got[MetricJobs].Data.(metricdata.Sum[int64])
	if !ok {
		t.Fatalf("expected int64 sum for %s, got %T", MetricJobs, got[MetricJobs].Data)
	}
	counts := make(map[string]int64)
	for _, dp := range sum.DataPoints {
		v, _ := dp.Attributes.Value(attribute.Key(AttrOutcome))
		counts[v.AsString()] = dp.Value
	}
	if counts["hit"] != 1 || counts["success"] != 2 {
		t.Errorf("unexpected counts: %v", counts)
	}
}

func TestMetrics_RecordTranscription(t *testing.T) {
	m, reader := newTestMetrics(t)
	m.RecordTranscription(context.Background(), "whisper", true, 1500*time.Millisecond)

	got := collect(t, reader)
	hist, ok := got[MetricTranscriptionDuration].Data.(metricdata.Histogram[float64])
	if !ok {
		t.Fatalf("expected float64 histogram, got %T", got[MetricTranscriptionDuration].Data)
	}
	if len(hist.DataPoints) != 1 {
		t.Fatalf("expected one data point, got %d", len(hist.DataPoints))
	}
	dp := hist.DataPoints[0]
	if dp.Count != 1 || dp.Sum != 1.5 {
		t.Errorf("count=%d sum=%v", dp.Count, dp.Sum)
	}
	if got[MetricTranscriptionDuration].Unit != "s" {
		t.Errorf("unit = %q", got[MetricTranscriptionDuration].Unit)
	}
}

func TestMetrics_PassCleanupAndUpdates(t *testing.T) {
	m, reader := newTestMetrics(t)
	ctx := context.Background()
	m.RecordPass(ctx, 0)
	m.RecordPass(ctx, 3)
	m.RecordCleanupPartial(ctx)
	m.RecordUpdate(ctx, "message")

	got := collect(t, reader)
	for _, name := range []string{MetricPasses, MetricCleanupPartial, MetricUpdates} {
		if _, ok := got[name]; !ok {
			t.Errorf("metric %s not recorded", name)
		}
	}
	passes := got[MetricPasses].Data.(metricdata.Sum[int64])
	if len(passes.DataPoints) != 2 {
		t.Errorf("expected empty and non-empty pass series, got %d", len(passes.DataPoints))
	}
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	m.RecordJob(ctx, "hit")
	m.RecordPass(ctx, 1)
	m.RecordTranscription(ctx, "whisper", false, time.Second)
	m.RecordCleanupPartial(ctx)
	m.RecordUpdate(ctx, "message")

	empty := &Metrics{}
	empty.RecordJob(ctx, "hit")
}

func withRecorder(t *testing.T) *tracetest.InMemoryExporter {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		_ = tp.Shutdown(context.Background())
		otel.SetTracerProvider(prev)
	})
	return exporter
}

func TestStartSpanAndAttributes(t *testing.T) {
	exporter := withRecorder(t)

	ctx, span := StartSpan(context.Background(), SpanWorkerProcess)
	SetSpanAttribute(ctx, AttrJobID, uint(7))
	SetSpanAttribute(ctx, AttrChatID, int64(42))
	SetSpanAttribute(ctx, AttrOutcome, "hit")
	SetSpanAttribute(ctx, "ignored", struct{}{})
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	if spans[0].Name != SpanWorkerProcess {
		t.Errorf("span name = %q", spans[0].Name)
	}
	attrs := make(map[attribute.Key]attribute.Value)
	for _, kv := range spans[0].Attributes {
		attrs[kv.Key] = kv.Value
	}
	if attrs[AttrJobID].AsInt64() != 7 || attrs[AttrChatID].AsInt64() != 42 {
		t.Errorf("unexpected attributes: %v", spans[0].Attributes)
	}
	if attrs[AttrOutcome].AsString() != "hit" {
		t.Errorf("outcome = %v", attrs[AttrOutcome])
	}
	if _, ok := attrs["ignored"]; ok {
		t.Error("unsupported value type should be ignored")
	}
}

func TestSetSpanError(t *testing.T) {
	exporter := withRecorder(t)

	ctx, span := StartSpan(context.Background(), SpanWorkerProcess)
	SetSpanError(ctx, errors.New("engine crashed"))
	SetSpanError(ctx, nil)
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("expected one span, got %d", len(spans))
	}
	if spans[0].Status.Code != codes.Error || spans[0].Status.Description != "engine crashed" {
		t.Errorf("unexpected status: %+v", spans[0].Status)
	}
	if len(spans[0].Events) != 1 {
		t.Errorf("expected one error event, got %d", len(spans[0].Events))
	}
}

func TestSpanHelpersWithoutSpan(t *testing.T) {
	ctx := context.Background()
	SetSpanAttribute(ctx, "key", "value")
	SetSpanError(ctx, errors.New("no span"))
}

func TestSampler(t *testing.T) {
	tests := []struct {
		rate float64
		want string
	}{
		{1.0, sdktrace.AlwaysSample().Description()},
		{0, sdktrace.NeverSample().Description()},
		{0.5, sdktrace.ParentBased(sdktrace.TraceIDRatioBased(0.5)).Description()},
	}
	for _, tc := range tests {
		if got := sampler(tc.rate).Description(); got != tc.want {
			t.Errorf("sampler(%v) = %q, want %q", tc.rate, got, tc.want)
		}
	}
}

func TestConfig(t *testing.T) {
	var cfg Config
	cfg.ApplyDefaults()
	if cfg.Endpoint != "localhost:4318" || cfg.SampleRate != 1.0 || cfg.Interval != 15*time.Second {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled config should validate: %v", err)
	}

	bad := Config{Enabled: true, Endpoint: "x:4318", SampleRate: 2}
	if err := bad.Validate(); err == nil {
		t.Error("expected sample_rate error")
	}
	noEndpoint := Config{Enabled: true, SampleRate: 1}
	if err := noEndpoint.Validate(); err == nil {
		t.Error("expected endpoint error")
	}
}

func TestComponentDisabled(t *testing.T) {
	c := NewComponent(Config{}, "transcribot", "test", nil)
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if h := c.Health(ctx); h.Message != "export disabled" {
		t.Errorf("unexpected health: %+v", h)
	}
	if d := c.Describe(); d.Details != "disabled" {
		t.Errorf("unexpected description: %+v", d)
	}
	if err := c.Stop(ctx); err != nil {
		t.Fatalf("Stop: %v", err)
	}
}

func TestComponentEnabledStartStop(t *testing.T) {
	prevTP, prevMP := otel.GetTracerProvider(), otel.GetMeterProvider()
	t.Cleanup(func() {
		otel.SetTracerProvider(prevTP)
		otel.SetMeterProvider(prevMP)
	})

	// Exporters connect lazily, so an unreachable endpoint still starts.
	c := NewComponent(Config{Enabled: true, Endpoint: "127.0.0.1:1", Insecure: true}, "transcribot", "test", nil)
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if c.tp == nil || c.mp == nil {
		t.Fatal("expected both providers")
	}
	stopCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	_ = c.Stop(stopCtx)
	if c.tp != nil || c.mp != nil {
		t.Error("providers should be released after Stop")
	}
}
