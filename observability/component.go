package observability

import (
	"context"
	"errors"
	"fmt"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/kbukum/transcribot/component"
	"github.com/kbukum/transcribot/logger"
)

// Component owns the tracer and meter providers.
type Component struct {
	cfg     Config
	service string
	version string
	log     *logger.Logger

	tp *sdktrace.TracerProvider
	mp *sdkmetric.MeterProvider
}

var _ component.Component = (*Component)(nil)

// NewComponent creates the observability lifecycle component.
func NewComponent(cfg Config, service, version string, log *logger.Logger) *Component {
	cfg.ApplyDefaults()
	if log == nil {
		log = logger.Nop()
	}
	return &Component{cfg: cfg, service: service, version: version, log: log.WithComponent("observability")}
}

func (c *Component) Name() string { return "observability" }

// Start installs the OTLP exporters. With export disabled it does nothing.
func (c *Component) Start(ctx context.Context) error {
	if !c.cfg.Enabled {
		c.log.Debug("Telemetry export disabled")
		return nil
	}
	tp, err := InitTracer(ctx, c.cfg, c.service, c.version, c.log)
	if err != nil {
		return fmt.Errorf("observability: %w", err)
	}
	c.tp = tp

	mp, err := InitMeter(ctx, c.cfg, c.service, c.version, c.log)
	if err != nil {
		_ = tp.Shutdown(ctx)
		c.tp = nil
		return fmt.Errorf("observability: %w", err)
	}
	c.mp = mp
	return nil
}

// Stop flushes and shuts both providers down.
func (c *Component) Stop(ctx context.Context) error {
	var errs []error
	if c.tp != nil {
		errs = append(errs, c.tp.Shutdown(ctx))
		c.tp = nil
	}
	if c.mp != nil {
		errs = append(errs, c.mp.Shutdown(ctx))
		c.mp = nil
	}
	return errors.Join(errs...)
}

func (c *Component) Health(_ context.Context) component.Health {
	h := component.Health{Name: c.Name(), Status: component.StatusHealthy}
	if !c.cfg.Enabled {
		h.Message = "export disabled"
	}
	return h
}

func (c *Component) Describe() component.Description {
	details := "disabled"
	if c.cfg.Enabled {
		details = fmt.Sprintf("otlp %s", c.cfg.Endpoint)
	}
	return component.Description{Type: "telemetry", Details: details}
}
