// Package partition maintains the ordered partition set of a concatenated
// alignment: coordinate ranges, model assignments and source alignment
// associations for every named partition.
//
// All three views live on one record per partition (core.Partition), so the
// set of names and their order is shared by construction. Every mutation runs
// as a transaction: it is applied to a copy of the records, the copy is
// checked, and only then committed. A failed call leaves the set untouched.
package partition

import (
	"log/slog"
	"slices"

	"github.com/leapstack-labs/phylopart/pkg/core"
)

// Partitions is the ordered partition set owned by one alignment collection.
// It is not safe for concurrent use; the owner serializes calls.
type Partitions struct {
	records []core.Partition
	index   map[string]int

	logger    *slog.Logger
	listeners []Listener
}

// Option configures a Partitions value.
type Option func(*Partitions)

// WithLogger sets the structured logger (discarded when nil).
func WithLogger(logger *slog.Logger) Option {
	return func(p *Partitions) {
		if logger != nil {
			p.logger = logger
		}
	}
}

// WithListener registers a listener notified after every committed change.
func WithListener(l Listener) Option {
	return func(p *Partitions) {
		if l != nil {
			p.listeners = append(p.listeners, l)
		}
	}
}

// New creates an empty partition set.
func New(opts ...Option) *Partitions {
	p := &Partitions{
		index:  make(map[string]int),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Subscribe adds a listener after construction.
func (p *Partitions) Subscribe(l Listener) {
	if l != nil {
		p.listeners = append(p.listeners, l)
	}
}

// Len returns the number of registered partitions.
func (p *Partitions) Len() int {
	return len(p.records)
}

// Has reports whether name is registered.
func (p *Partitions) Has(name string) bool {
	_, ok := p.index[name]
	return ok
}

// Get returns a copy of the named partition.
func (p *Partitions) Get(name string) (core.Partition, bool) {
	i, ok := p.index[name]
	if !ok {
		return core.Partition{}, false
	}
	return p.records[i].Clone(), true
}

// Records returns copies of all partitions in registration order.
func (p *Partitions) Records() []core.Partition {
	out := make([]core.Partition, len(p.records))
	for i, r := range p.records {
		out[i] = r.Clone()
	}
	return out
}

// Keys returns the partition names in registration order.
func (p *Partitions) Keys() []string {
	names := make([]string, len(p.records))
	for i, r := range p.records {
		names[i] = r.Name
	}
	return names
}

// Names returns the model slot names in registration order. Codon
// partitions contribute one name per codon position (X_1, X_2, X_3) in
// place of their own name, so the result has one entry per model slot.
func (p *Partitions) Names() []string {
	var names []string
	for _, r := range p.records {
		names = append(names, r.SlotNames()...)
	}
	return names
}

// Models returns the model assignment of every partition keyed by name.
func (p *Partitions) Models() map[string]core.Model {
	out := make(map[string]core.Model, len(p.records))
	for _, r := range p.records {
		out[r.Name] = r.Model.Clone()
	}
	return out
}

// Alignments returns the source alignment identifiers keyed by partition name.
func (p *Partitions) Alignments() map[string][]string {
	out := make(map[string][]string, len(p.records))
	for _, r := range p.records {
		out[r.Name] = slices.Clone(r.Alignments)
	}
	return out
}

// TotalLength returns the sum of all registered range extents.
func (p *Partitions) TotalLength() int {
	n := 0
	for _, r := range p.records {
		n += r.Length()
	}
	return n
}

// End returns the first coordinate after every registered range.
func (p *Partitions) End() int {
	end := 0
	for _, r := range p.records {
		for _, rg := range r.Ranges {
			end = max(end, rg.End+1)
		}
	}
	return end
}

// IsSingle reports whether exactly one partition is registered and it covers
// the whole coordinate space without gaps.
func (p *Partitions) IsSingle() bool {
	if len(p.records) != 1 {
		return false
	}
	cover := core.Normalize(p.records[0].Ranges)
	return len(cover) == 1 && cover[0].Start == 0
}

// Contiguous reports whether the registered ranges, sorted by start, form a
// gap-free cover of [0, TotalLength).
func (p *Partitions) Contiguous() bool {
	ranges := p.allRanges()
	core.SortRanges(ranges)
	next := 0
	for _, r := range ranges {
		if r.Start != next {
			return false
		}
		next = r.End + 1
	}
	return true
}

// SortedByStart returns copies of all partitions ordered by first coordinate.
func (p *Partitions) SortedByStart() []core.Partition {
	out := p.Records()
	slices.SortStableFunc(out, func(a, b core.Partition) int {
		return a.Start() - b.Start()
	})
	return out
}

// Ranges returns every registered range ordered by start.
func (p *Partitions) Ranges() []core.Range {
	ranges := p.allRanges()
	core.SortRanges(ranges)
	return ranges
}

// Snapshot returns the current layout.
func (p *Partitions) Snapshot() *core.Layout {
	return &core.Layout{Partitions: p.Records()}
}

func (p *Partitions) allRanges() []core.Range {
	var ranges []core.Range
	for _, r := range p.records {
		ranges = append(ranges, r.Ranges...)
	}
	return ranges
}

func buildIndex(records []core.Partition) map[string]int {
	index := make(map[string]int, len(records))
	for i, r := range records {
		index[r.Name] = i
	}
	return index
}
