// Package telemetry initializes the OpenTelemetry trace, metric and log
// providers used by the server.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/contrib/bridges/otelslog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	otellog "go.opentelemetry.io/otel/log"
	lognoop "go.opentelemetry.io/otel/log/noop"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// DefaultServiceName is the service.name resource attribute when none is set.
const DefaultServiceName = "alertmail"

// Options configures the OpenTelemetry providers.
type Options struct {
	// Enabled turns on OTLP export of traces, metrics and logs. When false
	// tracing and log export are no-ops; metrics are still served through
	// the Prometheus registerer.
	Enabled bool

	ServiceName    string
	ServiceVersion string

	// Endpoint is the OTLP gRPC collector endpoint (e.g. "localhost:4317").
	Endpoint string

	// Insecure disables TLS for the OTLP gRPC connections.
	Insecure bool

	// SamplingRate is the probability of sampling a trace (0.0-1.0).
	SamplingRate float64

	// Logger is used for diagnostics during initialization.
	Logger *slog.Logger

	// Registerer receives the Prometheus bridge for OpenTelemetry metrics.
	// Defaults to prometheus.DefaultRegisterer.
	Registerer prometheus.Registerer
}

// Providers holds the initialized providers.
type Providers struct {
	Tracer trace.TracerProvider
	Meter  metric.MeterProvider
	Logs   otellog.LoggerProvider
}

// SlogHandler returns a slog.Handler that forwards records to the log
// provider under the given instrumentation scope.
func (p *Providers) SlogHandler(scope string) slog.Handler {
	return otelslog.NewHandler(scope, otelslog.WithLoggerProvider(p.Logs))
}

// ShutdownFunc flushes and stops every provider created by Init.
type ShutdownFunc func(ctx context.Context) error

// Init builds the providers, installs them as the OpenTelemetry globals and
// returns a shutdown function that must be called during graceful shutdown.
func Init(ctx context.Context, opts Options) (*Providers, ShutdownFunc, error) {
	if opts.ServiceName == "" {
		opts.ServiceName = DefaultServiceName
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	if opts.Registerer == nil {
		opts.Registerer = prometheus.DefaultRegisterer
	}
	if opts.SamplingRate <= 0 || opts.SamplingRate > 1 {
		if opts.Enabled {
			log.Warn("OTel sampling rate out of range, using 1.0", "provided", opts.SamplingRate)
		}
		opts.SamplingRate = 1.0
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewSchemaless(
			attribute.String("service.name", opts.ServiceName),
			attribute.String("service.version", opts.ServiceVersion),
		),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("creating OTel resource: %w", err)
	}

	promExporter, err := otelprom.New(otelprom.WithRegisterer(opts.Registerer))
	if err != nil {
		return nil, nil, fmt.Errorf("creating prometheus exporter: %w", err)
	}
	meterOpts := []sdkmetric.Option{
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(promExporter),
	}

	var shutdowns []ShutdownFunc
	p := &Providers{
		Tracer: tracenoop.NewTracerProvider(),
		Logs:   lognoop.NewLoggerProvider(),
	}

	if opts.Enabled {
		tp, err := newTracerProvider(ctx, opts, res)
		if err != nil {
			return nil, nil, err
		}
		p.Tracer = tp
		shutdowns = append(shutdowns, tp.Shutdown)

		metricExporter, err := otlpmetricgrpc.New(ctx, metricOptions(opts)...)
		if err != nil {
			return nil, nil, fmt.Errorf("creating OTLP metric exporter: %w", err)
		}
		meterOpts = append(meterOpts, sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter)))

		logExporter, err := otlploggrpc.New(ctx, logOptions(opts)...)
		if err != nil {
			return nil, nil, fmt.Errorf("creating OTLP log exporter: %w", err)
		}
		lp := sdklog.NewLoggerProvider(
			sdklog.WithResource(res),
			sdklog.WithProcessor(sdklog.NewBatchProcessor(logExporter)),
		)
		p.Logs = lp
		shutdowns = append(shutdowns, lp.Shutdown)

		otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
			log.Warn("OpenTelemetry internal error", "error", err)
		}))
		log.Info("OTel OTLP exporters initialized", "endpoint", opts.Endpoint, "insecure", opts.Insecure)
	}

	mp := sdkmetric.NewMeterProvider(meterOpts...)
	p.Meter = mp
	shutdowns = append(shutdowns, mp.Shutdown)

	otel.SetTracerProvider(p.Tracer)
	otel.SetMeterProvider(p.Meter)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	log.Info("OpenTelemetry initialized",
		"service_name", opts.ServiceName,
		"otlp", opts.Enabled,
		"sampling_rate", opts.SamplingRate,
	)

	shutdown := func(ctx context.Context) error {
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		var errs []error
		for i := len(shutdowns) - 1; i >= 0; i-- {
			errs = append(errs, shutdowns[i](shutdownCtx))
		}
		return errors.Join(errs...)
	}
	return p, shutdown, nil
}

func newTracerProvider(ctx context.Context, opts Options, res *resource.Resource) (*sdktrace.TracerProvider, error) {
	grpcOpts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(opts.Endpoint)}
	if opts.Insecure {
		grpcOpts = append(grpcOpts, otlptracegrpc.WithInsecure())
	}
	exporter, err := otlptracegrpc.New(ctx, grpcOpts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP trace exporter: %w", err)
	}
	return sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(opts.SamplingRate))),
	), nil
}

func metricOptions(opts Options) []otlpmetricgrpc.Option {
	o := []otlpmetricgrpc.Option{otlpmetricgrpc.WithEndpoint(opts.Endpoint)}
	if opts.Insecure {
		o = append(o, otlpmetricgrpc.WithInsecure())
	}
	return o
}

func logOptions(opts Options) []otlploggrpc.Option {
	o := []otlploggrpc.Option{otlploggrpc.WithEndpoint(opts.Endpoint)}
	if opts.Insecure {
		o = append(o, otlploggrpc.WithInsecure())
	}
	return o
}
