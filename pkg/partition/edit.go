package partition

import (
	"fmt"
	"slices"

	"github.com/leapstack-labs/phylopart/pkg/core"
)

// commit runs fn against a copy of the records and installs the result only
// if fn succeeds and the result passes check.
func (p *Partitions) commit(change Change, fn func(records []core.Partition) ([]core.Partition, error)) error {
	next, err := fn(p.Records())
	if err != nil {
		return err
	}
	index := buildIndex(next)
	if err := check(next, index); err != nil {
		p.logger.Error("rejected partition change", "kind", string(change.Kind), "error", err.Error())
		return err
	}

	p.records = next
	p.index = index

	p.logger.Debug("partition change committed", "kind", string(change.Kind), "partitions", change.Names, "count", len(next))
	for _, l := range p.listeners {
		l.PartitionsChanged(change)
	}
	return nil
}

// Register adds a partition with one range, one source alignment and an
// empty model assignment.
func (p *Partitions) Register(name string, r core.Range, sourceID string) error {
	part := core.NewPartition(name, r, sourceID)
	return p.commit(Change{Kind: ChangeRegistered, Names: []string{name}}, func(records []core.Partition) ([]core.Partition, error) {
		if err := validateIncoming(records, []core.Partition{part}); err != nil {
			return nil, err
		}
		return append(records, part), nil
	})
}

// Append registers a partition of the given length immediately after the
// current end of the coordinate space, as happens when alignments are
// concatenated one after another.
func (p *Partitions) Append(name string, length int, sourceID string) error {
	if length <= 0 {
		return &core.MalformedPartitionError{Name: name, Message: fmt.Sprintf("length must be positive, got %d", length)}
	}
	start := p.End()
	return p.Register(name, core.Range{Start: start, End: start + length - 1}, sourceID)
}

// Load adds every partition of the layout in order. Either all partitions
// are added or, on any error, none are. A nil layout adds nothing.
func (p *Partitions) Load(layout *core.Layout) error {
	if layout == nil {
		layout = &core.Layout{}
	}
	incoming := prepare(layout)
	return p.commit(Change{Kind: ChangeLoaded, Names: layout.Names()}, func(records []core.Partition) ([]core.Partition, error) {
		if err := validateIncoming(records, incoming); err != nil {
			return nil, err
		}
		return append(records, incoming...), nil
	})
}

// Restore atomically swaps the whole partition set for the layout, as saved
// by Snapshot or produced by a parser. A nil layout empties the set.
func (p *Partitions) Restore(layout *core.Layout) error {
	if layout == nil {
		layout = &core.Layout{}
	}
	incoming := prepare(layout)
	return p.commit(Change{Kind: ChangeLoaded, Names: layout.Names()}, func(_ []core.Partition) ([]core.Partition, error) {
		if err := validateIncoming(nil, incoming); err != nil {
			return nil, err
		}
		return incoming, nil
	})
}

// Reset removes every partition.
func (p *Partitions) Reset() {
	_ = p.commit(Change{Kind: ChangeReset}, func(_ []core.Partition) ([]core.Partition, error) {
		return nil, nil
	})
}

// Rename relabels a partition, keeping its position.
func (p *Partitions) Rename(oldName, newName string) error {
	return p.commit(Change{Kind: ChangeRenamed, Names: []string{oldName, newName}}, func(records []core.Partition) ([]core.Partition, error) {
		i, err := position(records, oldName)
		if err != nil {
			return nil, err
		}
		if oldName == newName {
			return records, nil
		}
		if newName == "" {
			return nil, &core.MalformedPartitionError{Name: oldName, Message: "new name is empty"}
		}
		if _, err := position(records, newName); err == nil {
			return nil, &core.DuplicateNameError{Name: newName}
		}
		records[i].Name = newName
		return records, nil
	})
}

// Remove deletes a partition. The ranges of the remaining partitions are not
// renumbered; call Compact to close the gap.
func (p *Partitions) Remove(name string) error {
	return p.commit(Change{Kind: ChangeRemoved, Names: []string{name}}, func(records []core.Partition) ([]core.Partition, error) {
		i, err := position(records, name)
		if err != nil {
			return nil, err
		}
		return slices.Delete(records, i, i+1), nil
	})
}

// RemoveCompact deletes a partition and renumbers the remaining ranges in
// the same change, as Remove followed by Compact would.
func (p *Partitions) RemoveCompact(name string) error {
	return p.commit(Change{Kind: ChangeRemoved, Names: []string{name}}, func(records []core.Partition) ([]core.Partition, error) {
		i, err := position(records, name)
		if err != nil {
			return nil, err
		}
		return compact(slices.Delete(records, i, i+1)), nil
	})
}

// Merge joins the named partitions into one partition called newName, placed
// where the earliest of them was. Ranges and alignment associations are
// concatenated in the order of names. The merged partition has a single model
// slot: its option list is the concatenation of every member's option lists
// and its model name is the first non-empty member model name. Codon
// sub-partitioning and linkage are not carried over.
func (p *Partitions) Merge(names []string, newName string) error {
	change := Change{Kind: ChangeMerged, Names: append(slices.Clone(names), newName)}
	return p.commit(change, func(records []core.Partition) ([]core.Partition, error) {
		if len(names) == 0 {
			return nil, &core.MalformedPartitionError{Name: newName, Message: "no partitions to merge"}
		}
		if newName == "" {
			return nil, &core.MalformedPartitionError{Message: "merged partition name is empty"}
		}

		members := make(map[string]bool, len(names))
		first := len(records)
		for _, name := range names {
			if members[name] {
				return nil, &core.DuplicateNameError{Name: name}
			}
			i, err := position(records, name)
			if err != nil {
				return nil, err
			}
			members[name] = true
			first = min(first, i)
		}
		if j, err := position(records, newName); err == nil && !members[records[j].Name] {
			return nil, &core.DuplicateNameError{Name: newName}
		}

		merged := core.Partition{Name: newName, Model: core.DefaultModel(1)}
		for _, name := range names {
			src := records[mustPosition(records, name)]
			merged.Ranges = append(merged.Ranges, src.Ranges...)
			merged.Alignments = append(merged.Alignments, src.Alignments...)
			for _, params := range src.Model.Params {
				merged.Model.Params[0] = append(merged.Model.Params[0], params...)
			}
			if merged.Model.Names[0] == "" {
				if k := slices.IndexFunc(src.Model.Names, func(n string) bool { return n != "" }); k >= 0 {
					merged.Model.Names[0] = src.Model.Names[k]
				}
			}
		}

		out := make([]core.Partition, 0, len(records)-len(names)+1)
		for i, rec := range records {
			if i == first {
				out = append(out, merged)
			}
			if !members[rec.Name] {
				out = append(out, rec)
			}
		}
		return out, nil
	})
}

// Split replaces a partition with one new partition per range, in place.
// The ranges must rebuild the original coverage exactly: no overlaps, no
// gaps, nothing outside it. Each child receives a copy of the parent's model
// assignment and alignment associations.
func (p *Partitions) Split(name string, ranges []core.Range, newNames []string) error {
	change := Change{Kind: ChangeSplit, Names: append([]string{name}, newNames...)}
	return p.commit(change, func(records []core.Partition) ([]core.Partition, error) {
		i, err := position(records, name)
		if err != nil {
			return nil, err
		}
		if len(ranges) != len(newNames) {
			return nil, &core.ArityMismatchError{Ranges: len(ranges), Names: len(newNames)}
		}
		if len(ranges) == 0 {
			return nil, &core.InvalidSplitError{Name: name, Message: "no ranges given"}
		}

		seen := make(map[string]bool, len(newNames))
		for _, n := range newNames {
			if n == "" {
				return nil, &core.InvalidSplitError{Name: name, Message: "empty partition name"}
			}
			if seen[n] {
				return nil, &core.DuplicateNameError{Name: n}
			}
			seen[n] = true
			if n != name && slices.ContainsFunc(records, func(r core.Partition) bool { return r.Name == n }) {
				return nil, &core.DuplicateNameError{Name: n}
			}
		}

		parent := records[i]
		if err := validateSplit(parent, ranges); err != nil {
			return nil, err
		}

		children := make([]core.Partition, len(ranges))
		for k, r := range ranges {
			child := parent.Clone()
			child.Name = newNames[k]
			child.Ranges = []core.Range{r}
			if parent.IsCodon() {
				child.Codon = rephase(parent.Codon, r.Start-parent.Start())
			}
			children[k] = child
		}
		return slices.Concat(records[:i], children, records[i+1:]), nil
	})
}

// ModelUpdate is a change to the model assignment of one or all partitions.
// Nil fields are left untouched.
type ModelUpdate struct {
	// Names holds one model name per slot, a single name for every slot, or
	// with Links one name per linked group of codon positions.
	Names []string
	// Links groups codon positions sharing a model, e.g. ["12", "3"].
	Links []string
	// Params holds one option list per slot, or a single list for every slot.
	Params [][]string
	// All applies the update to every registered partition.
	All bool
}

// SetModel assigns model names and linkage to a partition. With applyToAll
// the same assignment is written to every registered partition. Model option
// lists are left untouched.
func (p *Partitions) SetModel(name string, models []string, links []string, applyToAll bool) error {
	return p.UpdateModel(name, ModelUpdate{Names: models, Links: links, All: applyToAll})
}

// SetModelParams replaces the per-slot model option lists of a partition.
func (p *Partitions) SetModelParams(name string, params [][]string) error {
	return p.UpdateModel(name, ModelUpdate{Params: params})
}

// UpdateModel applies u to the named partition, or to every partition when
// u.All is set, as a single change. name must exist either way.
func (p *Partitions) UpdateModel(name string, u ModelUpdate) error {
	names := []string{name}
	if u.All {
		names = p.Keys()
	}
	return p.commit(Change{Kind: ChangeModel, Names: names}, func(records []core.Partition) ([]core.Partition, error) {
		i, err := position(records, name)
		if err != nil {
			return nil, err
		}
		targets := []int{i}
		if u.All {
			targets = make([]int, len(records))
			for k := range records {
				targets[k] = k
			}
		}
		for _, k := range targets {
			if err := u.apply(&records[k]); err != nil {
				return nil, err
			}
		}
		return records, nil
	})
}

func (u ModelUpdate) apply(rec *core.Partition) error {
	slots := rec.Slots()
	if u.Names != nil {
		names, err := slotNames(*rec, u.Names, u.Links)
		if err != nil {
			return err
		}
		rec.Model.Names = names
		rec.Model.Links = nil
		if rec.IsCodon() {
			rec.Model.Links = slices.Clone(u.Links)
		}
	}
	if u.Params != nil {
		switch len(u.Params) {
		case slots:
			rec.Model.Params = core.Model{Params: u.Params}.Clone().Params
		case 1:
			rec.Model.Params = make([][]string, slots)
			for s := range rec.Model.Params {
				rec.Model.Params[s] = slices.Clone(u.Params[0])
				if rec.Model.Params[s] == nil {
					rec.Model.Params[s] = []string{}
				}
			}
		default:
			return &core.MalformedPartitionError{
				Name:    rec.Name,
				Message: fmt.Sprintf("%d option lists for %d model slots", len(u.Params), slots),
			}
		}
	}
	return nil
}

// slotNames spreads model names over the slots of rec: one name per slot, a
// single name for every slot, or for codon partitions with links one name per
// linked group of 1-based positions.
func slotNames(rec core.Partition, models, links []string) ([]string, error) {
	slots := rec.Slots()
	if len(links) > 0 && rec.IsCodon() {
		if len(links) != len(models) {
			return nil, &core.MalformedPartitionError{
				Name:    rec.Name,
				Message: fmt.Sprintf("%d model names for %d linked groups", len(models), len(links)),
			}
		}
		out := make([]string, slots)
		for g, group := range links {
			for _, c := range group {
				k := int(c - '1')
				if k < 0 || k >= slots {
					return nil, &core.MalformedPartitionError{
						Name:    rec.Name,
						Message: fmt.Sprintf("link group %q names a position outside 1-%d", group, slots),
					}
				}
				out[k] = models[g]
			}
		}
		return out, nil
	}

	switch len(models) {
	case slots:
		return slices.Clone(models), nil
	case 1:
		out := make([]string, slots)
		for s := range out {
			out[s] = models[0]
		}
		return out, nil
	default:
		return nil, &core.MalformedPartitionError{
			Name:    rec.Name,
			Message: fmt.Sprintf("%d model names for %d model slots", len(models), slots),
		}
	}
}

// Compact renumbers every range so that, sorted by start, they cover
// [0, TotalLength) without gaps. Order and lengths are preserved.
// Remove leaves gaps; RemoveCompact closes them in the same change.
func (p *Partitions) Compact() error {
	return p.commit(Change{Kind: ChangeCompacted, Names: p.Keys()}, func(records []core.Partition) ([]core.Partition, error) {
		return compact(records), nil
	})
}

// compact renumbers the ranges of records in place, keeping their order by
// start and their lengths.
func compact(records []core.Partition) []core.Partition {
	type ref struct{ rec, rng int }
	var refs []ref
	for i, rec := range records {
		for j := range rec.Ranges {
			refs = append(refs, ref{i, j})
		}
	}
	slices.SortStableFunc(refs, func(a, b ref) int {
		return records[a.rec].Ranges[a.rng].Start - records[b.rec].Ranges[b.rng].Start
	})
	cursor := 0
	for _, rf := range refs {
		r := &records[rf.rec].Ranges[rf.rng]
		n := r.Len()
		r.Start, r.End = cursor, cursor+n-1
		cursor += n
	}
	return records
}

// validateSplit checks that ranges exactly rebuild the parent's coverage.
func validateSplit(parent core.Partition, ranges []core.Range) error {
	sorted := slices.Clone(ranges)
	core.SortRanges(sorted)
	for k, r := range sorted {
		if !r.Valid() {
			return &core.InvalidSplitError{Name: parent.Name, Message: fmt.Sprintf("range %s is invalid", r)}
		}
		if k > 0 && r.Overlaps(sorted[k-1]) {
			return &core.InvalidSplitError{
				Name:    parent.Name,
				Message: fmt.Sprintf("ranges %s and %s overlap", sorted[k-1], r),
			}
		}
	}

	want := core.Normalize(parent.Ranges)
	got := core.Normalize(sorted)
	if !slices.Equal(want, got) {
		return &core.InvalidSplitError{
			Name:    parent.Name,
			Message: fmt.Sprintf("ranges cover %v, partition covers %v", got, want),
		}
	}
	return nil
}

// rephase moves codon frame offsets to a new origin shift columns to the
// right, keeping the slot order so each slot still names the same position.
func rephase(offsets []int, shift int) []int {
	out := make([]int, len(offsets))
	for i, off := range offsets {
		out[i] = ((off-shift)%core.CodonStride + core.CodonStride) % core.CodonStride
	}
	return out
}

// prepare clones the layout partitions and pads missing model slots.
func prepare(layout *core.Layout) []core.Partition {
	if layout == nil {
		return nil
	}
	out := make([]core.Partition, len(layout.Partitions))
	for i, part := range layout.Partitions {
		c := part.Clone()
		for len(c.Model.Params) < c.Slots() {
			c.Model.Params = append(c.Model.Params, []string{})
		}
		for len(c.Model.Names) < c.Slots() {
			c.Model.Names = append(c.Model.Names, "")
		}
		out[i] = c
	}
	return out
}

// validateIncoming reports user-level problems with partitions about to be
// added to existing: empty or duplicate names, models that do not fit the
// slot count, invalid or overlapping ranges.
func validateIncoming(existing, incoming []core.Partition) error {
	names := make(map[string]bool, len(existing)+len(incoming))
	var taken []core.Range
	owner := make(map[core.Range]string)
	for _, rec := range existing {
		names[rec.Name] = true
		for _, r := range rec.Ranges {
			taken = append(taken, r)
			owner[r] = rec.Name
		}
	}

	for _, rec := range incoming {
		if rec.Name == "" {
			return &core.MalformedPartitionError{Message: "partition name is empty"}
		}
		if names[rec.Name] {
			return &core.DuplicateNameError{Name: rec.Name}
		}
		names[rec.Name] = true
		if len(rec.Ranges) == 0 {
			return &core.MalformedPartitionError{Name: rec.Name, Message: "no ranges"}
		}
		if len(rec.Model.Params) != rec.Slots() || len(rec.Model.Names) != rec.Slots() {
			return &core.MalformedPartitionError{
				Name:    rec.Name,
				Message: fmt.Sprintf("model has %d option lists and %d names for %d slots", len(rec.Model.Params), len(rec.Model.Names), rec.Slots()),
			}
		}
		for _, r := range rec.Ranges {
			if !r.Valid() {
				return &core.MalformedPartitionError{Name: rec.Name, Message: fmt.Sprintf("invalid range %s", r)}
			}
			for _, t := range taken {
				if r.Overlaps(t) {
					return &core.MalformedPartitionError{
						Name:    rec.Name,
						Message: fmt.Sprintf("range %s overlaps %s of partition %q", r, t, owner[t]),
					}
				}
			}
			taken = append(taken, r)
			owner[r] = rec.Name
		}
	}
	return nil
}

func position(records []core.Partition, name string) (int, error) {
	for i, r := range records {
		if r.Name == name {
			return i, nil
		}
	}
	return -1, &core.NotFoundError{Name: name}
}

func mustPosition(records []core.Partition, name string) int {
	i, _ := position(records, name)
	return i
}
