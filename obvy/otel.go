package meter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/honeycombio/otel-config-go/otelconfig"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/maroda/meter"

// InitOTelHNY uses the Honeycomb library to interface with OTel
func InitOTelHNY() (func(), error) {
	otelShutdown, err := otelconfig.ConfigureOpenTelemetry()
	if err != nil {
		return nil, fmt.Errorf("failed to configure OpenTelemetry: %w", err)
	}
	return func() { otelShutdown() }, nil
}

// InitOTelGRF uses the Grafana recommended configuration including Baggage for propagation
func InitOTelGRF() (*sdktrace.TracerProvider, error) {
	exporter, err := otlptrace.New(context.Background(), otlptracehttp.NewClient())
	if err != nil {
		return nil, err
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{}, propagation.Baggage{}))
	return tp, err
}

// InitOTel picks an exporter by name: off, hny or grf.
// The returned shutdown is never nil.
func InitOTel(mode string) (func(), error) {
	switch strings.ToLower(mode) {
	case "", "off":
		return func() {}, nil
	case "hny":
		return InitOTelHNY()
	case "grf":
		tp, err := InitOTelGRF()
		if err != nil {
			return func() {}, err
		}
		return func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				slog.Error("Could not shut down tracer provider", slog.Any("Error", err))
			}
		}, nil
	default:
		return func() {}, fmt.Errorf("unknown otel mode %q", mode)
	}
}

// Tracer is the tracer for session spans, a no-op until InitOTel installs a provider
func Tracer() trace.Tracer {
	return otel.Tracer(tracerName)
}
