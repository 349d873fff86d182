package telemetry

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func collect(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	totals := make(map[string]int64)
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				continue
			}
			for _, dp := range sum.DataPoints {
				totals[m.Name] += dp.Value
			}
		}
	}
	return totals
}

func TestMetrics_Counters(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	mp := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	m, err := New(mp.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	m.EventRouted(ctx, "text")
	m.EventRouted(ctx, "search")
	m.CompletionDone(ctx, "text", nil)
	m.CompletionDone(ctx, "image", errors.New("down"))
	m.ChunksSent(ctx, 3)
	m.ChunksSent(ctx, 0)
	m.SearchDone(ctx, 0, nil)
	m.SnapshotSaved(ctx, "file", nil)

	totals := collect(t, reader)
	assert.Equal(t, int64(2), totals["hashia.events"])
	assert.Equal(t, int64(2), totals["hashia.completions"])
	assert.Equal(t, int64(3), totals["hashia.replies.chunks"])
	assert.Equal(t, int64(1), totals["hashia.search.requests"])
	assert.Equal(t, int64(1), totals["hashia.snapshots"])
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	ctx := context.Background()
	assert.NotPanics(t, func() {
		m.EventRouted(ctx, "text")
		m.CompletionDone(ctx, "text", nil)
		m.ChunksSent(ctx, 1)
		m.SearchDone(ctx, 1, nil)
		m.SnapshotSaved(ctx, "file", nil)
	})
}

func TestInit_FileExport(t *testing.T) {
	file := filepath.Join(t.TempDir(), "metrics.log")
	ctx := context.Background()

	m, shutdown, err := Init(ctx, file)
	require.NoError(t, err)
	m.EventRouted(ctx, "text")
	require.NoError(t, shutdown(ctx))

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "hashia.events")
}

func TestInit_Disabled(t *testing.T) {
	m, shutdown, err := Init(context.Background(), "")
	require.NoError(t, err)
	require.NotNil(t, m)
	assert.NoError(t, shutdown(context.Background()))
}
