package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/sandevgo/hashia/internal/core"
	"github.com/sandevgo/hashia/internal/telemetry"
	"github.com/sandevgo/hashia/pkg/log"
)

type snapshotter interface {
	Snapshot() core.Snapshot
	Len() int
}

// Flusher writes store snapshots to its sinks on a schedule and once more on shutdown.
type Flusher struct {
	store    snapshotter
	sinks    []core.SnapshotSink
	schedule string
	metrics  *telemetry.Metrics

	mu      sync.Mutex // guards cron
	cron    *cron.Cron
	flushMu sync.Mutex // one flush at a time
}

// NewFlusher validates schedule (standard cron spec or descriptor such as
// "@every 10m"); an empty schedule only flushes on shutdown.
func NewFlusher(store snapshotter, schedule string, metrics *telemetry.Metrics, sinks ...core.SnapshotSink) (*Flusher, error) {
	if schedule != "" {
		if _, err := cron.ParseStandard(schedule); err != nil {
			return nil, fmt.Errorf("invalid snapshot schedule %q: %w", schedule, err)
		}
	}
	return &Flusher{
		store:    store,
		sinks:    sinks,
		schedule: schedule,
		metrics:  metrics,
	}, nil
}

func (f *Flusher) Start(ctx context.Context) error {
	if f.schedule == "" {
		return nil
	}

	logger := log.FromCtx(ctx).With().Str("component", "snapshot_flusher").Logger()

	c := cron.New()
	if _, err := c.AddFunc(f.schedule, func() {
		if err := f.Flush(ctx); err != nil {
			logger.Warn().Err(err).Msg("periodic snapshot incomplete")
		}
	}); err != nil {
		return fmt.Errorf("failed to schedule snapshots: %w", err)
	}

	f.mu.Lock()
	f.cron = c
	f.mu.Unlock()

	c.Start()
	logger.Info().Str("schedule", f.schedule).Msg("periodic snapshots enabled")
	return nil
}

// Shutdown stops the schedule, waits for a running flush and drains the store
// to every sink.
func (f *Flusher) Shutdown(ctx context.Context) error {
	f.mu.Lock()
	c := f.cron
	f.cron = nil
	f.mu.Unlock()

	if c != nil {
		select {
		case <-c.Stop().Done():
		case <-ctx.Done():
		}
	}

	log.FromCtx(ctx).Info().Int("sessions", f.store.Len()).Msg("saving chat history before shutdown")
	return f.Flush(ctx)
}

// Flush saves one snapshot to all sinks. A failing sink does not stop the others.
func (f *Flusher) Flush(ctx context.Context) error {
	f.flushMu.Lock()
	defer f.flushMu.Unlock()

	logger := log.FromCtx(ctx)
	snap := f.store.Snapshot()

	var errs []error
	for _, sink := range f.sinks {
		err := sink.Save(ctx, snap)
		f.metrics.SnapshotSaved(ctx, sink.Name(), err)
		if err != nil {
			logger.Error().Err(err).Str("sink", sink.Name()).Msg("failed to save chat history")
			errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
			continue
		}
		logger.Debug().Str("sink", sink.Name()).Int("sessions", len(snap)).Msg("chat history saved")
	}
	return errors.Join(errs...)
}
