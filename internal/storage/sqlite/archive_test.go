package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/hashia/internal/core"
)

func newTestArchive(t *testing.T, keep int) *Archive {
	t.Helper()

	db, err := NewDB(context.Background(), filepath.Join(t.TempDir(), "data", "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return NewArchive(db, keep)
}

func TestArchive_EmptyLatest(t *testing.T) {
	a := newTestArchive(t, 0)

	_, _, ok, err := a.Latest(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestArchive_SaveAndLatest(t *testing.T) {
	ctx := context.Background()
	a := newTestArchive(t, 0)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	snap := core.Snapshot{
		"u1": {
			core.NewTextTurn(core.RoleUser, "Hello", at),
			core.NewTextTurn(core.RoleModel, "Hi there!", at.Add(time.Second)),
		},
		"u2": {{
			Role: core.RoleUser,
			Parts: []core.Part{
				core.ImagePart(core.InlineImage{MIMEType: "image/png", Data: "iVBORw0K"}),
				core.TextPart("what is it?"),
			},
			Timestamp: at,
		}},
	}

	require.NoError(t, a.Save(ctx, snap))

	got, _, ok, err := a.Latest(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, got, 2)

	require.Len(t, got["u1"], 2)
	assert.Equal(t, core.RoleUser, got["u1"][0].Role)
	assert.Equal(t, "Hello", got["u1"][0].Text())
	assert.Equal(t, "Hi there!", got["u1"][1].Text())
	assert.True(t, got["u1"][1].Timestamp.Equal(at.Add(time.Second)))

	require.Len(t, got["u2"][0].Parts, 2)
	require.NotNil(t, got["u2"][0].Parts[0].Image)
	assert.Equal(t, "image/png", got["u2"][0].Parts[0].Image.MIMEType)
}

func TestArchive_EmptySnapshotIsRecorded(t *testing.T) {
	ctx := context.Background()
	a := newTestArchive(t, 0)

	require.NoError(t, a.Save(ctx, core.Snapshot{}))

	n, err := a.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	got, _, ok, err := a.Latest(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Empty(t, got)
}

func TestArchive_Prunes(t *testing.T) {
	ctx := context.Background()
	a := newTestArchive(t, 2)
	at := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	for i, text := range []string{"one", "two", "three"} {
		snap := core.Snapshot{"u1": {core.NewTextTurn(core.RoleUser, text, at.Add(time.Duration(i)*time.Minute))}}
		require.NoError(t, a.Save(ctx, snap))
	}

	n, err := a.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var orphans int
	require.NoError(t, a.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snapshot_turns WHERE snapshot_id NOT IN (SELECT id FROM snapshots)`).Scan(&orphans))
	assert.Zero(t, orphans)

	got, _, _, err := a.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, "three", got["u1"][0].Text())
}
