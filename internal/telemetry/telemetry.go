// Package telemetry exports tracked time as OpenTelemetry metrics over OTLP.
package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"

	"github.com/fakeyudi/codepulse/internal/session"
)

const (
	serviceName    = "codepulse"
	serviceVersion = "1.0.0"
)

// Config selects the collector endpoint. An empty Endpoint disables export.
type Config struct {
	Endpoint string
	Insecure bool
}

// Recorder records flushed time and finished sessions.
type Recorder struct {
	provider *sdkmetric.MeterProvider
	tracked  metric.Int64Counter
	sessions metric.Float64Histogram
}

// New creates a Recorder exporting to cfg.Endpoint. It returns a nil
// *Recorder, which is safe to use, when export is disabled.
func New(ctx context.Context, cfg Config) (*Recorder, error) {
	if cfg.Endpoint == "" {
		return nil, nil
	}

	opts := []otlpmetricgrpc.Option{
		otlpmetricgrpc.WithEndpoint(cfg.Endpoint),
		otlpmetricgrpc.WithDialOption(grpc.WithUserAgent(serviceName + "/" + serviceVersion)),
	}
	if cfg.Insecure {
		opts = append(opts, otlpmetricgrpc.WithInsecure())
	}

	exp, err := otlpmetricgrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating OTLP exporter: %w", err)
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp)),
		sdkmetric.WithResource(res),
	)
	otel.SetMeterProvider(provider)
	return newRecorder(provider)
}

func newRecorder(provider *sdkmetric.MeterProvider) (*Recorder, error) {
	meter := provider.Meter(serviceName)

	tracked, err := meter.Int64Counter(
		"codepulse_tracked_ms_total",
		metric.WithDescription("Coding time attributed to a language and project"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating tracked time counter: %w", err)
	}

	sessions, err := meter.Float64Histogram(
		"codepulse_session_duration_seconds",
		metric.WithDescription("Duration of finished coding sessions"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating session histogram: %w", err)
	}

	return &Recorder{provider: provider, tracked: tracked, sessions: sessions}, nil
}

// RecordFlush adds d to the tracked time of the attribution's language and
// project.
func (r *Recorder) RecordFlush(ctx context.Context, attribution session.Context, d time.Duration) {
	if r == nil {
		return
	}
	lang := attribution.LanguageID
	if lang == "" {
		lang = "plaintext"
	}
	r.tracked.Add(ctx, d.Milliseconds(), metric.WithAttributes(
		attribute.String("language", lang),
		attribute.String("project", attribution.WorkspaceName),
	))
}

// RecordSessionEnd observes a finished session's duration.
func (r *Recorder) RecordSessionEnd(ctx context.Context, d time.Duration) {
	if r == nil {
		return
	}
	r.sessions.Record(ctx, d.Seconds())
}

// Close flushes pending metrics and shuts the exporter down.
func (r *Recorder) Close(ctx context.Context) error {
	if r == nil {
		return nil
	}
	return r.provider.Shutdown(ctx)
}
