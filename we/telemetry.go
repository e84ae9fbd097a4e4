package we

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/jaeger"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.7.0"
	"google.golang.org/grpc/credentials"
)

func ConsoleExporter() (trace.SpanExporter, error) {
	return stdouttrace.New(stdouttrace.WithPrettyPrint())
}

func HoneycombExporter(ctx context.Context, team string, dataset string) (*otlptrace.Exporter, error) {
	opts := []otlptracegrpc.Option{
		otlptracegrpc.WithEndpoint("api.honeycomb.io:443"),
		otlptracegrpc.WithHeaders(map[string]string{
			"x-honeycomb-team":    team,
			"x-honeycomb-dataset": dataset,
		}),
		otlptracegrpc.WithTLSCredentials(credentials.NewClientTLSFromCert(nil, "")),
	}

	client := otlptracegrpc.NewClient(opts...)
	return otlptrace.New(ctx, client)
}

func JaegerExporter(endpoint string) (*jaeger.Exporter, error) {
	if endpoint == "" {
		endpoint = "http://localhost:14268/api/traces"
	}

	return jaeger.New(jaeger.WithCollectorEndpoint(jaeger.WithEndpoint(endpoint)))
}

// TraceExporter selects an exporter by name: console, honeycomb, jaeger or none.
// Honeycomb reads HONEYCOMB_TEAM and HONEYCOMB_DATASET, jaeger reads JAEGER_ENDPOINT.
func TraceExporter(ctx context.Context, name string) (trace.SpanExporter, error) {
	switch name {
	case "", "none":
		return nil, nil
	case "console":
		return ConsoleExporter()
	case "honeycomb":
		return HoneycombExporter(ctx, os.Getenv("HONEYCOMB_TEAM"), os.Getenv("HONEYCOMB_DATASET"))
	case "jaeger":
		return JaegerExporter(os.Getenv("JAEGER_ENDPOINT"))
	default:
		return nil, fmt.Errorf("unknown trace exporter: %s", name)
	}
}

// InstallTracing registers a global tracer provider for service. The returned function flushes and stops it.
func InstallTracing(ctx context.Context, service string, exporterName string) (func(context.Context) error, error) {
	exporter, err := TraceExporter(ctx, exporterName)
	if err != nil {
		return nil, err
	}

	if exporter == nil {
		return func(context.Context) error { return nil }, nil
	}

	provider := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(resource.NewWithAttributes(semconv.SchemaURL, semconv.ServiceNameKey.String(service))),
	)
	otel.SetTracerProvider(provider)

	return provider.Shutdown, nil
}
