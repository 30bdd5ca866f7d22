package observability

import (
	"context"
	"fmt"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	otelmetric "go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/metric"
)

// Observability holds the OpenTelemetry instruments exported through Prometheus.
type Observability struct {
	meterProvider *metric.MeterProvider
	meter         otelmetric.Meter
	jobCounter    otelmetric.Int64Counter
	jobDuration   otelmetric.Float64Histogram
	scoreCounter  otelmetric.Int64Counter
	scoreValue    otelmetric.Int64Histogram
}

// New registers an OpenTelemetry meter provider whose readings are exposed on reg.
// A nil reg uses the default Prometheus registerer.
func New(serviceName string, reg promclient.Registerer) (*Observability, error) {
	opts := []prometheus.Option{}
	if reg != nil {
		opts = append(opts, prometheus.WithRegisterer(reg))
	}

	exporter, err := prometheus.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create prometheus exporter: %w", err)
	}

	provider := metric.NewMeterProvider(metric.WithReader(exporter))
	otel.SetMeterProvider(provider)

	meter := provider.Meter(serviceName)
	o := &Observability{meterProvider: provider, meter: meter}

	if o.jobCounter, err = meter.Int64Counter(
		"jobs.processed",
		otelmetric.WithDescription("Number of jobs processed"),
	); err != nil {
		return nil, err
	}
	if o.jobDuration, err = meter.Float64Histogram(
		"jobs.duration",
		otelmetric.WithDescription("Job processing duration"),
		otelmetric.WithUnit("ms"),
	); err != nil {
		return nil, err
	}
	if o.scoreCounter, err = meter.Int64Counter(
		"admission.scores",
		otelmetric.WithDescription("Admission chance scores computed"),
	); err != nil {
		return nil, err
	}
	if o.scoreValue, err = meter.Int64Histogram(
		"admission.score",
		otelmetric.WithDescription("Admission chance score on the 0-100 basis"),
		otelmetric.WithExplicitBucketBoundaries(40, 70, 100),
	); err != nil {
		return nil, err
	}

	return o, nil
}

func (o *Observability) RecordJobProcessed(ctx context.Context, taskType, status string) {
	if o == nil || o.jobCounter == nil {
		return
	}
	o.jobCounter.Add(ctx, 1, otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

func (o *Observability) RecordJobDuration(ctx context.Context, taskType string, duration time.Duration, status string) {
	if o == nil || o.jobDuration == nil {
		return
	}
	o.jobDuration.Record(ctx, float64(duration.Milliseconds()), otelmetric.WithAttributes(
		attribute.String("task_type", taskType),
		attribute.String("status", status),
	))
}

// RecordScore counts a scored program and records its score.
func (o *Observability) RecordScore(ctx context.Context, weightSet, category string, score int) {
	if o == nil || o.scoreCounter == nil {
		return
	}
	attrs := otelmetric.WithAttributes(
		attribute.String("weight_set", weightSet),
		attribute.String("category", category),
	)
	o.scoreCounter.Add(ctx, 1, attrs)
	o.scoreValue.Record(ctx, int64(score), attrs)
}

func (o *Observability) Shutdown(ctx context.Context) error {
	if o == nil || o.meterProvider == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return o.meterProvider.Shutdown(ctx)
}
