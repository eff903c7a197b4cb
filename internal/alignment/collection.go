// Package alignment holds the alignment collection a partition set is bound
// to: the concatenated source alignments, their lengths and an opaque store
// handle.
package alignment

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"slices"

	"github.com/leapstack-labs/phylopart/pkg/core"
	"github.com/leapstack-labs/phylopart/pkg/partition"
)

// Source is one alignment in concatenation order.
type Source struct {
	Name   string
	Path   string
	Format string
	Length int
	Taxa   int
}

// LengthMismatchError reports a partition set that does not cover the
// concatenated alignment exactly.
type LengthMismatchError struct {
	Partitions int
	Alignments int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("partitions cover %d columns but the alignments have %d", e.Partitions, e.Alignments)
}

// UnalignedError reports a FASTA record whose length differs from the first.
type UnalignedError struct {
	Taxon  string
	Length int
	Want   int
}

func (e *UnalignedError) Error() string {
	return fmt.Sprintf("sequence %q has %d columns, expected %d", e.Taxon, e.Length, e.Want)
}

// Collection is an ordered set of alignments and the partition set
// describing them. It is not safe for concurrent use.
type Collection struct {
	store   *sql.DB
	logger  *slog.Logger
	sources []Source
	parts   *partition.Partitions
}

// New creates an empty collection. store is never queried here; it is only
// handed to collaborators through Store. Extra options configure the owned
// partition set.
func New(store *sql.DB, logger *slog.Logger, opts ...partition.Option) *Collection {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	opts = append([]partition.Option{partition.WithLogger(logger)}, opts...)
	return &Collection{
		store:  store,
		logger: logger,
		parts:  partition.New(opts...),
	}
}

// Add appends an alignment and registers one partition for it, named after
// the alignment, right after the current end of the coordinate space.
func (c *Collection) Add(src Source) error {
	if src.Length < 1 {
		return &core.MalformedPartitionError{Name: src.Name, Message: "alignment has no columns"}
	}
	if slices.ContainsFunc(c.sources, func(s Source) bool { return s.Name == src.Name }) {
		return &core.DuplicateNameError{Name: src.Name}
	}
	if err := c.parts.Append(src.Name, src.Length, src.Name); err != nil {
		return err
	}
	c.sources = append(c.sources, src)
	c.logger.Debug("added alignment", "alignment", src.Name, "length", src.Length, "taxa", src.Taxa)
	return nil
}

// Import scans the alignment files and adds them in path order. Nothing is
// added unless every file scans and every alignment can be added.
func (c *Collection) Import(ctx context.Context, paths ...string) error {
	sources, err := ScanAll(ctx, paths)
	if err != nil {
		return err
	}
	if err := c.addAll(sources); err != nil {
		return err
	}
	c.logger.Info("imported alignments", "count", len(sources), "total_length", c.TotalLength())
	return nil
}

// addAll appends a batch of alignments as one partition load, after checking
// the batch for empty alignments and names already taken.
func (c *Collection) addAll(batch []Source) error {
	layout := &core.Layout{}
	seen := make(map[string]bool, len(batch))
	start := c.parts.End()
	for _, src := range batch {
		if src.Length < 1 {
			return &core.MalformedPartitionError{Name: src.Name, Message: "alignment has no columns"}
		}
		if seen[src.Name] || slices.ContainsFunc(c.sources, func(s Source) bool { return s.Name == src.Name }) {
			return &core.DuplicateNameError{Name: src.Name}
		}
		seen[src.Name] = true
		r := core.Range{Start: start, End: start + src.Length - 1}
		layout.Partitions = append(layout.Partitions, core.NewPartition(src.Name, r, src.Name))
		start += src.Length
	}

	if err := c.parts.Load(layout); err != nil {
		return err
	}
	c.sources = append(c.sources, batch...)
	for _, src := range batch {
		c.logger.Debug("added alignment", "alignment", src.Name, "length", src.Length, "taxa", src.Taxa)
	}
	return nil
}

// Restore rebuilds a collection from saved sources and a saved layout.
func (c *Collection) Restore(sources []Source, layout *core.Layout) error {
	if err := c.parts.Restore(layout); err != nil {
		return err
	}
	c.sources = slices.Clone(sources)
	return nil
}

// Sources returns the alignments in concatenation order.
func (c *Collection) Sources() []Source {
	return slices.Clone(c.sources)
}

// Partitions returns the owned partition set.
func (c *Collection) Partitions() *partition.Partitions {
	return c.parts
}

// Store returns the opaque store handle.
func (c *Collection) Store() *sql.DB {
	return c.store
}

// Lengths returns the column count of each alignment.
func (c *Collection) Lengths() map[string]int {
	out := make(map[string]int, len(c.sources))
	for _, s := range c.sources {
		out[s.Name] = s.Length
	}
	return out
}

// TotalLength is the length of the concatenated alignment.
func (c *Collection) TotalLength() int {
	n := 0
	for _, s := range c.sources {
		n += s.Length
	}
	return n
}

// Validate checks that the partitions cover exactly the concatenated length
// and that the partition set is internally consistent.
func (c *Collection) Validate() error {
	if err := c.parts.Check(); err != nil {
		return err
	}
	if got, want := c.parts.TotalLength(), c.TotalLength(); got != want {
		return &LengthMismatchError{Partitions: got, Alignments: want}
	}
	return nil
}

// Clear drops every alignment and partition.
func (c *Collection) Clear() {
	c.sources = nil
	c.parts.Reset()
}
