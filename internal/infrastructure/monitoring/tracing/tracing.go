// Package tracing configures the OpenTelemetry tracer provider used around
// layer builds and HTTP requests.
package tracing

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/turtacn/CDNAtlas/internal/infrastructure/monitoring/logging"
)

// InstrumentationName names the tracer used by CDNAtlas packages.
const InstrumentationName = "github.com/turtacn/CDNAtlas"

// Exporter names accepted by Config.Exporter.
const (
	ExporterStdout = "stdout"
	ExporterNone   = "none"
)

// Config governs tracer provider construction.
type Config struct {
	Enabled     bool    `mapstructure:"enabled" yaml:"enabled"`
	ServiceName string  `mapstructure:"service_name" yaml:"service_name"`
	Exporter    string  `mapstructure:"exporter" yaml:"exporter"`
	SampleRatio float64 `mapstructure:"sample_ratio" yaml:"sample_ratio"`

	// Writer receives stdout-exported spans.  Defaults to os.Stdout.
	Writer io.Writer `mapstructure:"-" yaml:"-"`
}

// ShutdownFunc flushes and stops the provider.
type ShutdownFunc func(context.Context) error

// Init builds a tracer provider from cfg and installs it as the global
// provider.  A disabled config installs the noop provider.
func Init(ctx context.Context, cfg Config, log logging.Logger) (trace.TracerProvider, ShutdownFunc, error) {
	if log == nil {
		log = logging.NewNopLogger()
	}
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	if !cfg.Enabled {
		tp := noop.NewTracerProvider()
		otel.SetTracerProvider(tp)
		log.Debug("tracing disabled; using noop tracer provider")
		return tp, func(context.Context) error { return nil }, nil
	}

	exp, err := newExporter(cfg)
	if err != nil {
		return nil, nil, err
	}

	res, err := resource.New(ctx, resource.WithAttributes(
		attribute.String("service.name", cfg.ServiceName),
		attribute.String("service.namespace", "cdnatlas"),
	))
	if err != nil {
		return nil, nil, fmt.Errorf("tracing: create resource: %w", err)
	}

	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
		sdktrace.WithResource(res),
	}
	if exp != nil {
		opts = append(opts, sdktrace.WithBatcher(exp))
	}
	tp := sdktrace.NewTracerProvider(opts...)
	otel.SetTracerProvider(tp)

	log.Info("tracing enabled",
		logging.String("exporter", cfg.Exporter),
		logging.String("service_name", cfg.ServiceName),
		logging.Float64("sample_ratio", cfg.SampleRatio),
	)
	return tp, tp.Shutdown, nil
}

func newExporter(cfg Config) (sdktrace.SpanExporter, error) {
	switch strings.ToLower(cfg.Exporter) {
	case ExporterStdout, "":
		w := cfg.Writer
		if w == nil {
			w = os.Stdout
		}
		return stdouttrace.New(stdouttrace.WithWriter(w), stdouttrace.WithoutTimestamps())
	case ExporterNone:
		return nil, nil
	default:
		return nil, fmt.Errorf("tracing: unsupported exporter %q", cfg.Exporter)
	}
}

// Tracer returns the named CDNAtlas tracer from tp, or from the global
// provider when tp is nil.
func Tracer(tp trace.TracerProvider) trace.Tracer {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return tp.Tracer(InstrumentationName)
}

// ShutdownWithTimeout calls shutdown with a bounded deadline and logs
// failures instead of returning them.
func ShutdownWithTimeout(ctx context.Context, shutdown ShutdownFunc, log logging.Logger) {
	if shutdown == nil {
		return
	}
	if log == nil {
		log = logging.NewNopLogger()
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := shutdown(ctx); err != nil {
		log.Warn("tracing shutdown failed", logging.Err(err))
	}
}
