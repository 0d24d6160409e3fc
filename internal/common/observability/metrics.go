package observability

import (
	"context"
	"log"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	turnCounter   otelmetric.Int64Counter
	turnDuration  otelmetric.Float64Histogram
}

func New(serviceName string) *Observability {
	exporter, err := prometheus.New()
	if err != nil {
		log.Printf("Failed to create Prometheus exporter: %v", err)
		return &Observability{}
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)

	turnCounter, _ := meter.Int64Counter(
		"turns.processed",
		otelmetric.WithDescription("Number of conversation turns processed"),
	)

	turnDuration, _ := meter.Float64Histogram(
		"turns.duration",
		otelmetric.WithDescription("Turn processing duration"),
		otelmetric.WithUnit("ms"),
	)

	return &Observability{
		meterProvider: provider,
		meter:         meter,
		turnCounter:   turnCounter,
		turnDuration:  turnDuration,
	}
}

func (o *Observability) RecordTurnProcessed(ctx context.Context, status string) {
	if o.turnCounter != nil {
		o.turnCounter.Add(ctx, 1, otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) RecordTurnDuration(ctx context.Context, duration time.Duration, status string) {
	if o.turnDuration != nil {
		o.turnDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
			attribute.String("status", status),
		))
	}
}

func (o *Observability) Shutdown() {
	if o.meterProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = o.meterProvider.Shutdown(ctx)
	}
}
