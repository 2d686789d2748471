package metrics

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

// Config configures the metrics provider.
type Config struct {
	Enabled          bool
	ExporterEndpoint string
	ExporterProtocol string
	ServiceName      string
	Environment      string
}

// Metrics exposes application-level instruments.
type Metrics struct {
	taxCorrections  metric.Int64Counter
	ordersSubmitted metric.Int64Counter
	shipments       metric.Int64Counter
	providerCalls   metric.Int64Counter
}

// NewProvider configures and registers the meter provider.
func NewProvider(lc fx.Lifecycle, cfg Config, log *zap.Logger) (metric.MeterProvider, error) {
	if !cfg.Enabled {
		provider := noop.NewMeterProvider()
		otel.SetMeterProvider(provider)
		return provider, nil
	}

	exporter, err := newExporter(cfg.ExporterProtocol, cfg.ExporterEndpoint)
	if err != nil {
		return nil, err
	}

	reader := sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(10*time.Second))
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	otel.SetMeterProvider(provider)

	if lc != nil {
		lc.Append(fx.Hook{
			OnStop: func(ctx context.Context) error {
				if log != nil {
					log.Info("shutting down meter provider")
				}
				return provider.Shutdown(ctx)
			},
		})
	}

	if log != nil {
		log.Info("metrics initialized",
			zap.String("endpoint", cfg.ExporterEndpoint),
			zap.String("protocol", cfg.ExporterProtocol),
		)
	}

	return provider, nil
}

func newExporter(protocol, endpoint string) (sdkmetric.Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(protocol)) {
	case "http", "http/protobuf":
		return otlpmetrichttp.New(context.Background(),
			otlpmetrichttp.WithEndpoint(endpoint),
			otlpmetrichttp.WithInsecure(),
		)
	case "", "grpc":
		return otlpmetricgrpc.New(context.Background(),
			otlpmetricgrpc.WithEndpoint(endpoint),
			otlpmetricgrpc.WithInsecure(),
		)
	default:
		return nil, fmt.Errorf("unsupported otlp metrics protocol %q", protocol)
	}
}

// New configures the domain metrics instruments.
func New(cfg Config, provider metric.MeterProvider) (*Metrics, error) {
	name := strings.TrimSpace(cfg.ServiceName)
	if name == "" {
		name = "salesdesk"
	}
	meter := provider.Meter(name)

	taxCorrections, err := meter.Int64Counter("salesdesk_tax_corrections_total")
	if err != nil {
		return nil, err
	}
	ordersSubmitted, err := meter.Int64Counter("salesdesk_orders_submitted_total")
	if err != nil {
		return nil, err
	}
	shipments, err := meter.Int64Counter("salesdesk_shipments_created_total")
	if err != nil {
		return nil, err
	}
	providerCalls, err := meter.Int64Counter("salesdesk_provider_requests_total")
	if err != nil {
		return nil, err
	}

	return &Metrics{
		taxCorrections:  taxCorrections,
		ordersSubmitted: ordersSubmitted,
		shipments:       shipments,
		providerCalls:   providerCalls,
	}, nil
}

// RecordTaxCorrection increments auto-correction counts by direction.
func (m *Metrics) RecordTaxCorrection(ctx context.Context, direction string) {
	if m == nil {
		return
	}
	m.taxCorrections.Add(ctx, 1, metric.WithAttributes(
		attribute.String("direction", strings.TrimSpace(direction)),
	))
}

// RecordOrderSubmitted increments submitted order counts.
func (m *Metrics) RecordOrderSubmitted(ctx context.Context, interstate bool) {
	if m == nil {
		return
	}
	m.ordersSubmitted.Add(ctx, 1, metric.WithAttributes(
		attribute.Bool("interstate", interstate),
	))
}

// RecordShipmentCreated increments created shipment counts.
func (m *Metrics) RecordShipmentCreated(ctx context.Context) {
	if m == nil {
		return
	}
	m.shipments.Add(ctx, 1)
}

// RecordProviderCall increments outbound collaborator request counts.
func (m *Metrics) RecordProviderCall(ctx context.Context, provider, operation string, success bool) {
	if m == nil {
		return
	}
	m.providerCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("provider", strings.TrimSpace(provider)),
		attribute.String("operation", strings.TrimSpace(operation)),
		attribute.Bool("success", success),
	))
}
