package state

import (
	"context"
	"fmt"
	"time"
)

// SaveAlignments replaces the registered alignments with the given list,
// keeping their order.
func (s *SQLiteStore) SaveAlignments(ctx context.Context, alignments []Alignment) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM alignments`); err != nil {
		return fmt.Errorf("clear alignments: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO alignments (id, name, path, format, length, taxa, position, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare statement: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	now := time.Now().UTC()
	for i := range alignments {
		a := &alignments[i]
		if a.ID == "" {
			a.ID = generateID()
		}
		a.Position = i
		a.CreatedAt = now
		if _, err := stmt.ExecContext(ctx, a.ID, a.Name, a.Path, a.Format, a.Length, a.Taxa, a.Position, a.CreatedAt); err != nil {
			return fmt.Errorf("insert alignment %s: %w", a.Name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	s.logger.Debug("saved alignments", "count", len(alignments))
	return nil
}

// ListAlignments returns the registered alignments in concatenation order.
func (s *SQLiteStore) ListAlignments(ctx context.Context) ([]Alignment, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, path, format, length, taxa, position, created_at
		FROM alignments ORDER BY position
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list alignments: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []Alignment
	for rows.Next() {
		var a Alignment
		if err := rows.Scan(&a.ID, &a.Name, &a.Path, &a.Format, &a.Length, &a.Taxa, &a.Position, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan alignment: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}
