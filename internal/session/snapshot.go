package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sandevgo/hashia/internal/core"
)

const snapshotVersion = 1

type snapshotFile struct {
	Version  int                    `yaml:"version"`
	TakenAt  time.Time              `yaml:"taken_at"`
	Sessions map[string][]core.Turn `yaml:"sessions"`
}

func EncodeSnapshot(snap core.Snapshot, takenAt time.Time) ([]byte, error) {
	doc := snapshotFile{
		Version:  snapshotVersion,
		TakenAt:  takenAt.UTC(),
		Sessions: map[string][]core.Turn(snap),
	}
	if doc.Sessions == nil {
		doc.Sessions = make(map[string][]core.Turn)
	}

	data, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	return data, nil
}

func DecodeSnapshot(data []byte) (core.Snapshot, time.Time, error) {
	var doc snapshotFile
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if doc.Version != snapshotVersion {
		return nil, time.Time{}, fmt.Errorf("unsupported snapshot version %d", doc.Version)
	}
	if doc.Sessions == nil {
		doc.Sessions = make(map[string][]core.Turn)
	}
	return core.Snapshot(doc.Sessions), doc.TakenAt, nil
}

// ReadSnapshotFile loads a snapshot written by FileSink.
func ReadSnapshotFile(path string) (core.Snapshot, time.Time, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, time.Time{}, fmt.Errorf("failed to read snapshot: %w", err)
	}
	return DecodeSnapshot(data)
}

// FileSink writes snapshots as a YAML document, replacing the file atomically.
type FileSink struct {
	path string
	now  func() time.Time
}

func NewFileSink(path string) *FileSink {
	return &FileSink{path: path, now: time.Now}
}

func (f *FileSink) Name() string {
	return "file"
}

func (f *FileSink) Path() string {
	return f.path
}

func (f *FileSink) Save(ctx context.Context, snap core.Snapshot) error {
	data, err := EncodeSnapshot(snap, f.now())
	if err != nil {
		return err
	}

	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create snapshot directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close snapshot: %w", err)
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		return fmt.Errorf("failed to chmod snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to replace snapshot: %w", err)
	}
	return nil
}
