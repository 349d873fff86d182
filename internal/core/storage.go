package core

import "context"

// HistoryStore owns the per-user conversation histories.
type HistoryStore interface {
	Get(userID string) Session
	Append(userID string, turns ...Turn)
	Clear(userID string)
}

// SnapshotSink persists a snapshot of every session.
type SnapshotSink interface {
	Name() string
	Save(ctx context.Context, snap Snapshot) error
}
