// Package telemetry provides OpenTelemetry metrics instrumentation for the
// update server, exported in Prometheus exposition format.
package telemetry

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

const (
	// ServiceName identifies the service in exported telemetry
	ServiceName = "sfr-update-server"

	// MeterName is the name used for the update fetch meter
	MeterName = "github.com/sfr-mod/update-server/coordinator"
)

// NewMeterProvider creates an OpenTelemetry MeterProvider whose metrics are
// collected through the given Prometheus registry. The caller is responsible
// for calling Shutdown on the returned provider.
func NewMeterProvider(ctx context.Context, registry *prometheus.Registry, serviceVersion string) (*sdkmetric.MeterProvider, error) {
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(ServiceName),
			semconv.ServiceVersion(serviceVersion),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	return mp, nil
}

var _ metric.MeterProvider = (*sdkmetric.MeterProvider)(nil)
