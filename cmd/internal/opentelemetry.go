package internal

import (
	"context"
	"os"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/runtime"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"

	"github.com/sanLimbu/task-tracker/internal"
	"github.com/sanLimbu/task-tracker/internal/envvar"
)

// OTExporter holds the OpenTelemetry providers registered globally.
type OTExporter struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *metric.MeterProvider
}

// NewOTExporter instantiates the OpenTelemetry exporters using configuration defined in environment variables.
// Metrics are exposed through the default Prometheus registry, traces are sent to Jaeger unless
// OTEL_TRACES_EXPORTER is "stdout".
func NewOTExporter(conf *envvar.Configuration, serviceName string) (*OTExporter, error) {
	promExporter, err := prometheus.New(prometheus.WithoutUnits())
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "prometheus.New")
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(serviceName),
	)

	meterProvider := metric.NewMeterProvider(
		metric.WithReader(promExporter),
		metric.WithResource(res),
	)

	otel.SetMeterProvider(meterProvider)

	if err := runtime.Start(runtime.WithMinimumReadMemStatsInterval(time.Second)); err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "runtime.Start")
	}

	exporter, err := newSpanExporter(conf)
	if err != nil {
		return nil, err
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)

	otel.SetTracerProvider(tracerProvider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return &OTExporter{
		tracerProvider: tracerProvider,
		meterProvider:  meterProvider,
	}, nil
}

// Shutdown flushes and stops the providers.
func (o *OTExporter) Shutdown(ctx context.Context) error {
	if err := o.tracerProvider.Shutdown(ctx); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "tracerProvider.Shutdown")
	}

	if err := o.meterProvider.Shutdown(ctx); err != nil {
		return internal.WrapErrorf(err, internal.ErrorCodeUnknown, "meterProvider.Shutdown")
	}

	return nil
}

func newSpanExporter(conf *envvar.Configuration) (sdktrace.SpanExporter, error) {
	kind, err := conf.GetDefault("OTEL_TRACES_EXPORTER", "jaeger")
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "conf.Get OTEL_TRACES_EXPORTER")
	}

	if kind == "stdout" {
		exporter, err := stdouttrace.New(stdouttrace.WithWriter(os.Stderr), stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "stdouttrace.New")
		}

		return exporter, nil
	}

	jaegerEndpoint, err := conf.Get("JAEGER_ENDPOINT")
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "conf.Get JAEGER_ENDPOINT")
	}

	var opts []jaeger.CollectorEndpointOption
	if jaegerEndpoint != "" {
		opts = append(opts, jaeger.WithEndpoint(jaegerEndpoint))
	}

	exporter, err := jaeger.New(jaeger.WithCollectorEndpoint(opts...))
	if err != nil {
		return nil, internal.WrapErrorf(err, internal.ErrorCodeUnknown, "jaeger.New")
	}

	return exporter, nil
}
