// Package telemetry provides OpenTelemetry instrumentation for the
// index synchronizer.
package telemetry

import (
	"fmt"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	"github.com/daaslabs/indexsync/internal/config"
	"github.com/daaslabs/indexsync/internal/versions"
)

// serviceName identifies this process in exported metrics.
const serviceName = "indexsync"

// Meter bundles the meter provider with the Prometheus registry its
// metrics are scraped from.
type Meter struct {
	Provider metric.MeterProvider

	// Registry is nil when metrics are disabled.
	Registry *prometheus.Registry
}

// NewMeter creates the metrics pipeline: an OpenTelemetry meter provider
// exporting to a dedicated Prometheus registry. Returns a no-op provider
// when metrics are disabled.
func NewMeter(cfg *config.MetricsConfig) (*Meter, error) {
	if cfg == nil || !cfg.Enabled {
		slog.Info("Metrics disabled, using no-op meter provider")
		return &Meter{Provider: noop.NewMeterProvider()}, nil
	}

	registry := prometheus.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), resource.NewSchemaless(
		semconv.ServiceName(serviceName),
		semconv.ServiceVersion(versions.GetVersionInfo().Version),
	))
	if err != nil {
		return nil, fmt.Errorf("failed to build telemetry resource: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(exporter),
		sdkmetric.WithResource(res),
	)

	return &Meter{Provider: provider, Registry: registry}, nil
}
