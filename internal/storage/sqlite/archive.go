package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/sandevgo/hashia/internal/core"
	"github.com/sandevgo/hashia/pkg/log"
)

// Archive keeps every flushed snapshot as rows. Older snapshots beyond keep are pruned.
type Archive struct {
	db   *sql.DB
	keep int
	now  func() time.Time
}

func NewArchive(db *sql.DB, keep int) *Archive {
	return &Archive{db: db, keep: keep, now: time.Now}
}

func (a *Archive) Name() string {
	return "sqlite"
}

func (a *Archive) Save(ctx context.Context, snap core.Snapshot) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO snapshots (taken_at, session_count) VALUES (?, ?)`,
		a.now().UTC(), len(snap))
	if err != nil {
		return fmt.Errorf("failed to insert snapshot: %w", err)
	}
	snapshotID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get snapshot id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO snapshot_turns (snapshot_id, user_id, position, role, parts, created_at) VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare turn insert: %w", err)
	}
	defer stmt.Close()

	for userID, turns := range snap {
		for i, turn := range turns {
			parts, err := json.Marshal(turn.Parts)
			if err != nil {
				return fmt.Errorf("failed to marshal parts: %w", err)
			}
			if _, err := stmt.ExecContext(ctx, snapshotID, userID, i, string(turn.Role), string(parts), turn.Timestamp.UTC()); err != nil {
				return fmt.Errorf("failed to insert turn: %w", err)
			}
		}
	}

	if a.keep > 0 {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM snapshots WHERE id NOT IN (SELECT id FROM snapshots ORDER BY id DESC LIMIT ?)`,
			a.keep); err != nil {
			return fmt.Errorf("failed to prune snapshots: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit snapshot: %w", err)
	}

	log.FromCtx(ctx).Debug().Int64("snapshot_id", snapshotID).Int("sessions", len(snap)).Msg("snapshot archived")
	return nil
}

// Latest loads the most recent archived snapshot. ok is false when the archive is empty.
func (a *Archive) Latest(ctx context.Context) (snap core.Snapshot, takenAt time.Time, ok bool, err error) {
	var snapshotID int64
	err = a.db.QueryRowContext(ctx,
		`SELECT id, taken_at FROM snapshots ORDER BY id DESC LIMIT 1`).Scan(&snapshotID, &takenAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, time.Time{}, false, nil
	}
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("failed to query snapshot: %w", err)
	}

	rows, err := a.db.QueryContext(ctx,
		`SELECT user_id, role, parts, created_at FROM snapshot_turns WHERE snapshot_id = ? ORDER BY user_id, position`,
		snapshotID)
	if err != nil {
		return nil, time.Time{}, false, fmt.Errorf("failed to query turns: %w", err)
	}
	defer rows.Close()

	snap = make(core.Snapshot)
	for rows.Next() {
		var (
			userID, role, parts string
			turn                core.Turn
		)
		if err := rows.Scan(&userID, &role, &parts, &turn.Timestamp); err != nil {
			return nil, time.Time{}, false, fmt.Errorf("failed to scan turn: %w", err)
		}
		if err := json.Unmarshal([]byte(parts), &turn.Parts); err != nil {
			return nil, time.Time{}, false, fmt.Errorf("failed to unmarshal parts: %w", err)
		}
		turn.Role = core.Role(role)
		snap[userID] = append(snap[userID], turn)
	}
	if err := rows.Err(); err != nil {
		return nil, time.Time{}, false, err
	}

	return snap, takenAt, true, nil
}

// Count returns the number of archived snapshots.
func (a *Archive) Count(ctx context.Context) (int, error) {
	var n int
	if err := a.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count snapshots: %w", err)
	}
	return n, nil
}
