// Package state persists the alignments a workspace was built from and a
// history of partition layout snapshots in SQLite.
package state

import (
	"context"
	"time"

	"github.com/leapstack-labs/phylopart/pkg/core"
)

// Alignment is a source alignment registered with the workspace.
type Alignment struct {
	ID        string
	Name      string
	Path      string
	Format    string
	Length    int
	Taxa      int
	Position  int
	CreatedAt time.Time
}

// Snapshot is one saved partition layout.
type Snapshot struct {
	ID        string
	Operation string
	Layout    *core.Layout
	CreatedAt time.Time
}

// Store is the persistence contract used by the CLI.
type Store interface {
	SaveAlignments(ctx context.Context, alignments []Alignment) error
	ListAlignments(ctx context.Context) ([]Alignment, error)
	SaveLayout(ctx context.Context, operation string, layout *core.Layout) (*Snapshot, error)
	LatestLayout(ctx context.Context) (*Snapshot, error)
	History(ctx context.Context, limit int) ([]Snapshot, error)
	Close() error
}
