package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	"github.com/sandevgo/hashia/internal/core"
	"github.com/sandevgo/hashia/pkg/log"
)

const (
	meterName      = "hashia"
	exportInterval = 30 * time.Second
)

// Metrics records relay counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	events      metric.Int64Counter
	completions metric.Int64Counter
	chunks      metric.Int64Counter
	searches    metric.Int64Counter
	snapshots   metric.Int64Counter
}

// Init builds the metrics pipeline. With an empty file a no-op meter is used;
// otherwise metrics are exported periodically as JSON to a rotating file.
// The returned func flushes and stops the exporter.
func Init(ctx context.Context, file string) (*Metrics, func(context.Context) error, error) {
	if file == "" {
		m, err := New(noop.NewMeterProvider().Meter(meterName))
		return m, func(context.Context) error { return nil }, err
	}

	out := log.NewRotatingFile(file)
	exporter, err := stdoutmetric.New(stdoutmetric.WithWriter(out))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create metric exporter: %w", err)
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", "hashia"),
		attribute.String("service.version", core.BotVersion),
	)

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, sdkmetric.WithInterval(exportInterval))),
		sdkmetric.WithResource(res),
	)

	m, err := New(mp.Meter(meterName))
	if err != nil {
		return nil, nil, err
	}

	log.FromCtx(ctx).Info().Str("file", file).Msg("metrics export enabled")

	shutdown := func(ctx context.Context) error {
		err := mp.Shutdown(ctx)
		if cerr := out.Close(); err == nil {
			err = cerr
		}
		return err
	}
	return m, shutdown, nil
}

func New(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.events, err = meter.Int64Counter("hashia.events", metric.WithDescription("Inbound messaging events by route")); err != nil {
		return nil, fmt.Errorf("failed to create events counter: %w", err)
	}
	if m.completions, err = meter.Int64Counter("hashia.completions", metric.WithDescription("Completion calls by path and outcome")); err != nil {
		return nil, fmt.Errorf("failed to create completions counter: %w", err)
	}
	if m.chunks, err = meter.Int64Counter("hashia.replies.chunks", metric.WithDescription("Reply chunks delivered")); err != nil {
		return nil, fmt.Errorf("failed to create chunks counter: %w", err)
	}
	if m.searches, err = meter.Int64Counter("hashia.search.requests", metric.WithDescription("Image search requests by outcome")); err != nil {
		return nil, fmt.Errorf("failed to create search counter: %w", err)
	}
	if m.snapshots, err = meter.Int64Counter("hashia.snapshots", metric.WithDescription("Snapshot writes by sink and outcome")); err != nil {
		return nil, fmt.Errorf("failed to create snapshots counter: %w", err)
	}
	return &m, nil
}

func (m *Metrics) EventRouted(ctx context.Context, route string) {
	if m == nil {
		return
	}
	m.events.Add(ctx, 1, metric.WithAttributes(attribute.String("route", route)))
}

func (m *Metrics) CompletionDone(ctx context.Context, path string, err error) {
	if m == nil {
		return
	}
	m.completions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("path", path),
		attribute.String("outcome", outcome(err)),
	))
}

func (m *Metrics) ChunksSent(ctx context.Context, n int) {
	if m == nil || n == 0 {
		return
	}
	m.chunks.Add(ctx, int64(n))
}

func (m *Metrics) SearchDone(ctx context.Context, results int, err error) {
	if m == nil {
		return
	}
	o := outcome(err)
	if err == nil && results == 0 {
		o = "empty"
	}
	m.searches.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", o)))
}

func (m *Metrics) SnapshotSaved(ctx context.Context, sink string, err error) {
	if m == nil {
		return
	}
	m.snapshots.Add(ctx, 1, metric.WithAttributes(
		attribute.String("sink", sink),
		attribute.String("outcome", outcome(err)),
	))
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
