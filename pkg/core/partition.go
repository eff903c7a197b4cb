package core

import (
	"fmt"
	"slices"
)

// CodonStride is the step between consecutive columns of one codon position.
const CodonStride = 3

// Partition is a named region of a concatenated alignment.
// The record owns its ranges, its model assignment and the identifiers of
// the source alignments that produced it, so the three views of a partition
// can never disagree on which partitions exist.
type Partition struct {
	// Name is unique within a partition set.
	Name string `json:"name" yaml:"name"`
	// Ranges holds one contiguous range, or several when the partition was
	// declared with non-contiguous membership or produced by a merge.
	Ranges []Range `json:"ranges" yaml:"ranges"`
	// Codon holds codon frame offsets relative to the partition start
	// (normally 0, 1, 2). Nil when the partition is not split by codon position.
	Codon []int `json:"codon,omitempty" yaml:"codon,omitempty"`
	// Alignments lists the source alignment identifiers behind the partition.
	Alignments []string `json:"alignments" yaml:"alignments"`
	// Model is the substitution model assignment.
	Model Model `json:"model" yaml:"model"`
}

// Model is the substitution model assignment of a partition.
type Model struct {
	// Params holds one option list per model slot, e.g. ["nst=6", "rates=gamma"].
	// Order is preserved and duplicates are allowed.
	Params [][]string `json:"params" yaml:"params"`
	// Names holds one model name per slot. An empty string means unset.
	Names []string `json:"names" yaml:"names"`
	// Links describes which codon position groups share a model, e.g. ["12", "3"].
	Links []string `json:"links,omitempty" yaml:"links,omitempty"`
}

// CodonPosition is one reading-frame view of a codon partition: every
// CodonStride-th column from Start up to End.
type CodonPosition struct {
	Index int // 1-based frame index
	Start int
	End   int
}

// Layout is an ordered partition set together with the dialect it came from.
type Layout struct {
	Dialect    string      `json:"dialect,omitempty" yaml:"dialect,omitempty"`
	Partitions []Partition `json:"partitions" yaml:"partitions"`
}

// DefaultModel returns an empty assignment with the given number of slots.
func DefaultModel(slots int) Model {
	if slots < 1 {
		slots = 1
	}
	m := Model{
		Params: make([][]string, slots),
		Names:  make([]string, slots),
	}
	for i := range m.Params {
		m.Params[i] = []string{}
	}
	return m
}

// Clone returns a deep copy of the model.
func (m Model) Clone() Model {
	out := Model{
		Names: slices.Clone(m.Names),
		Links: slices.Clone(m.Links),
	}
	if m.Params != nil {
		out.Params = make([][]string, len(m.Params))
		for i, p := range m.Params {
			out.Params[i] = slices.Clone(p)
			if out.Params[i] == nil {
				out.Params[i] = []string{}
			}
		}
	}
	return out
}

// NewPartition builds a single-range partition with an empty model.
func NewPartition(name string, r Range, sourceID string) Partition {
	p := Partition{
		Name:   name,
		Ranges: []Range{r},
		Model:  DefaultModel(1),
	}
	if sourceID != "" {
		p.Alignments = []string{sourceID}
	}
	return p
}

// Clone returns a deep copy of the partition.
func (p Partition) Clone() Partition {
	return Partition{
		Name:       p.Name,
		Ranges:     slices.Clone(p.Ranges),
		Codon:      slices.Clone(p.Codon),
		Alignments: slices.Clone(p.Alignments),
		Model:      p.Model.Clone(),
	}
}

// IsCodon reports whether the partition is split by codon position.
func (p Partition) IsCodon() bool {
	return len(p.Codon) > 0
}

// Extent returns the smallest range enclosing every range of the partition.
func (p Partition) Extent() Range {
	if len(p.Ranges) == 0 {
		return Range{Start: 0, End: -1}
	}
	ext := p.Ranges[0]
	for _, r := range p.Ranges[1:] {
		ext.Start = min(ext.Start, r.Start)
		ext.End = max(ext.End, r.End)
	}
	return ext
}

// Start returns the first coordinate of the partition.
func (p Partition) Start() int {
	return p.Extent().Start
}

// Length returns the number of columns owned by the partition.
func (p Partition) Length() int {
	n := 0
	for _, r := range p.Ranges {
		n += r.Len()
	}
	return n
}

// Slots returns the number of model slots: one per codon position, or one.
func (p Partition) Slots() int {
	if p.IsCodon() {
		return len(p.Codon)
	}
	return 1
}

// SlotNames returns the names of the model slots. Codon partitions expand to
// <name>_1 .. <name>_k.
func (p Partition) SlotNames() []string {
	if !p.IsCodon() {
		return []string{p.Name}
	}
	names := make([]string, len(p.Codon))
	for i := range p.Codon {
		names[i] = fmt.Sprintf("%s_%d", p.Name, i+1)
	}
	return names
}

// CodonPositions returns the frame views of a codon partition.
func (p Partition) CodonPositions() []CodonPosition {
	if !p.IsCodon() {
		return nil
	}
	ext := p.Extent()
	out := make([]CodonPosition, len(p.Codon))
	for i, off := range p.Codon {
		out[i] = CodonPosition{Index: i + 1, Start: ext.Start + off, End: ext.End}
	}
	return out
}

// Len returns the number of columns in the frame view.
func (c CodonPosition) Len() int {
	if c.End < c.Start {
		return 0
	}
	return (c.End-c.Start)/CodonStride + 1
}

// Names returns partition names in layout order.
func (l *Layout) Names() []string {
	names := make([]string, len(l.Partitions))
	for i, p := range l.Partitions {
		names[i] = p.Name
	}
	return names
}

// Clone returns a deep copy of the layout.
func (l *Layout) Clone() *Layout {
	out := &Layout{Dialect: l.Dialect, Partitions: make([]Partition, len(l.Partitions))}
	for i, p := range l.Partitions {
		out.Partitions[i] = p.Clone()
	}
	return out
}
