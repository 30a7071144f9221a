package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/kbukum/transcribot/logger"
)

// Metric names.
const (
	MetricJobs                  = "transcribot.jobs"
	MetricPasses                = "transcribot.worker.passes"
	MetricTranscriptionDuration = "transcribot.transcription.duration"
	MetricCleanupPartial        = "transcribot.cleanup.partial"
	MetricUpdates               = "transcribot.bot.updates"
)

// InitMeter installs a global meter provider exporting over OTLP HTTP.
// The returned provider must be shut down on exit.
func InitMeter(ctx context.Context, cfg Config, service, version string, log *logger.Logger) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(service, version)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	var readerOpts []sdkmetric.PeriodicReaderOption
	if cfg.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(cfg.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(mp)

	if log != nil {
		log.Info("Meter initialized", logger.Fields(
			"endpoint", cfg.Endpoint,
			"interval", cfg.Interval.String(),
		))
	}
	return mp, nil
}

// Meter returns the service meter from the global provider.
func Meter() metric.Meter {
	return otel.Meter(InstrumentationName)
}

// Metrics holds the instruments recorded by the worker and the bot.
type Metrics struct {
	jobs                  metric.Int64Counter
	passes                metric.Int64Counter
	transcriptionDuration metric.Float64Histogram
	cleanupPartial        metric.Int64Counter
	updates               metric.Int64Counter
}

// NewMetrics creates the instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	jobs, err := meter.Int64Counter(MetricJobs,
		metric.WithDescription("Processed jobs by outcome"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricJobs, err)
	}

	passes, err := meter.Int64Counter(MetricPasses,
		metric.WithDescription("Completed worker passes"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricPasses, err)
	}

	duration, err := meter.Float64Histogram(MetricTranscriptionDuration,
		metric.WithDescription("Duration of transcription engine runs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s histogram: %w", MetricTranscriptionDuration, err)
	}

	cleanup, err := meter.Int64Counter(MetricCleanupPartial,
		metric.WithDescription("Cleanups that left files behind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricCleanupPartial, err)
	}

	updates, err := meter.Int64Counter(MetricUpdates,
		metric.WithDescription("Telegram updates handled by kind"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating %s counter: %w", MetricUpdates, err)
	}

	return &Metrics{
		jobs:                  jobs,
		passes:                passes,
		transcriptionDuration: duration,
		cleanupPartial:        cleanup,
		updates:               updates,
	}, nil
}

// RecordJob counts one processed job.
func (m *Metrics) RecordJob(ctx context.Context, outcome string) {
	if m == nil || m.jobs == nil {
		return
	}
	m.jobs.Add(ctx, 1, metric.WithAttributes(attribute.String(AttrOutcome, outcome)))
}

// RecordPass counts one worker pass over n jobs.
func (m *Metrics) RecordPass(ctx context.Context, n int) {
	if m == nil || m.passes == nil {
		return
	}
	m.passes.Add(ctx, 1, metric.WithAttributes(attribute.Bool("empty", n == 0)))
}

// RecordTranscription records one engine run.
func (m *Metrics) RecordTranscription(ctx context.Context, provider string, success bool, d time.Duration) {
	if m == nil || m.transcriptionDuration == nil {
		return
	}
	m.transcriptionDuration.Record(ctx, d.Seconds(), metric.WithAttributes(
		attribute.String(AttrProvider, provider),
		attribute.Bool("success", success),
	))
}

// RecordCleanupPartial counts a cleanup that could not remove every file.
func (m *Metrics) RecordCleanupPartial(ctx context.Context) {
	if m == nil || m.cleanupPartial == nil {
		return
	}
	m.cleanupPartial.Add(ctx, 1)
}

// RecordUpdate counts one handled Telegram update.
func (m *Metrics) RecordUpdate(ctx context.Context, kind string) {
	if m == nil || m.updates == nil {
		return
	}
	m.updates.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}
