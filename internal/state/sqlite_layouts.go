package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/leapstack-labs/phylopart/pkg/core"
)

// SaveLayout appends a snapshot of layout, recording the operation that
// produced it.
func (s *SQLiteStore) SaveLayout(ctx context.Context, operation string, layout *core.Layout) (*Snapshot, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	data, err := json.Marshal(layout)
	if err != nil {
		return nil, fmt.Errorf("encode layout: %w", err)
	}

	snap := &Snapshot{
		ID:        generateID(),
		Operation: operation,
		Layout:    layout.Clone(),
		CreatedAt: time.Now().UTC(),
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO layouts (id, operation, dialect, partitions, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, snap.ID, snap.Operation, layout.Dialect, len(layout.Partitions), string(data), snap.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to save layout: %w", err)
	}

	s.logger.Debug("saved layout snapshot", "id", snap.ID, "operation", operation, "partitions", len(layout.Partitions))
	return snap, nil
}

// LatestLayout returns the most recent snapshot, or nil when none exists.
func (s *SQLiteStore) LatestLayout(ctx context.Context) (*Snapshot, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, operation, data, created_at FROM layouts ORDER BY seq DESC LIMIT 1
	`)
	snap, err := scanSnapshot(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// History returns up to limit snapshots, newest first. A limit of zero or
// less returns every snapshot.
func (s *SQLiteStore) History(ctx context.Context, limit int) ([]Snapshot, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, operation, data, created_at FROM layouts ORDER BY seq DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list layouts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *snap)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSnapshot(row scanner) (*Snapshot, error) {
	var (
		snap Snapshot
		data string
	)
	if err := row.Scan(&snap.ID, &snap.Operation, &data, &snap.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to scan layout: %w", err)
	}
	snap.Layout = &core.Layout{}
	if err := json.Unmarshal([]byte(data), snap.Layout); err != nil {
		return nil, fmt.Errorf("decode layout %s: %w", snap.ID, err)
	}
	return &snap, nil
}
