package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sandevgo/hashia/internal/core"
)

type memorySink struct {
	name string
	err  error

	mu    sync.Mutex
	saved []core.Snapshot
}

func (m *memorySink) Name() string { return m.name }

func (m *memorySink) Save(ctx context.Context, snap core.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, snap)
	return m.err
}

func (m *memorySink) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.saved)
}

func TestNewFlusher_InvalidSchedule(t *testing.T) {
	_, err := NewFlusher(NewStore(core.MaxTurns), "every now and then", nil)
	assert.Error(t, err)
}

func TestFlusher_ShutdownDrainsStore(t *testing.T) {
	store := NewStore(core.MaxTurns)
	store.Append("u1", turnN(0), turnN(1))

	broken := &memorySink{name: "broken", err: errors.New("disk full")}
	good := &memorySink{name: "good"}

	f, err := NewFlusher(store, "", nil, broken, good)
	require.NoError(t, err)
	require.NoError(t, f.Start(context.Background()))

	err = f.Shutdown(context.Background())
	assert.ErrorContains(t, err, "disk full")

	require.Equal(t, 1, good.count(), "a failing sink must not block the others")
	assert.Len(t, good.saved[0]["u1"], 2)
}

func TestFlusher_EmptyStore(t *testing.T) {
	sink := &memorySink{name: "mem"}
	f, err := NewFlusher(NewStore(core.MaxTurns), "", nil, sink)
	require.NoError(t, err)

	require.NoError(t, f.Flush(context.Background()))
	require.Equal(t, 1, sink.count())
	assert.Empty(t, sink.saved[0])
}

func TestFlusher_Periodic(t *testing.T) {
	store := NewStore(core.MaxTurns)
	sink := &memorySink{name: "mem"}

	f, err := NewFlusher(store, "@every 1s", nil, sink)
	require.NoError(t, err)
	require.NoError(t, f.Start(context.Background()))

	assert.Eventually(t, func() bool { return sink.count() >= 1 }, 3*time.Second, 50*time.Millisecond)

	require.NoError(t, f.Shutdown(context.Background()))
	after := sink.count()

	time.Sleep(1200 * time.Millisecond)
	assert.Equal(t, after, sink.count(), "no periodic flush after shutdown")
}
