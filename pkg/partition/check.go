package partition

import (
	"fmt"

	"github.com/leapstack-labs/phylopart/pkg/core"
)

// Check verifies the internal consistency of the partition set.
func (p *Partitions) Check() error {
	return check(p.records, p.index)
}

// check validates a candidate record list and its name index:
//   - names are non-empty and unique, and the index agrees with the order
//   - every range is valid and no two ranges overlap
//   - codon partitions own exactly one range and distinct frame offsets
//   - every model slot has one option list and one model name
func check(records []core.Partition, index map[string]int) error {
	if len(index) != len(records) {
		return &core.InvariantViolationError{
			Message: fmt.Sprintf("index has %d names for %d partitions", len(index), len(records)),
		}
	}

	type owned struct {
		r    core.Range
		name string
	}
	var all []owned

	for i, rec := range records {
		if rec.Name == "" {
			return &core.InvariantViolationError{Message: fmt.Sprintf("partition at position %d has no name", i)}
		}
		if j, ok := index[rec.Name]; !ok || j != i {
			return &core.InvariantViolationError{
				Message: fmt.Sprintf("partition %q is at position %d but indexed at %d", rec.Name, i, j),
			}
		}
		if len(rec.Ranges) == 0 {
			return &core.InvariantViolationError{Message: fmt.Sprintf("partition %q has no ranges", rec.Name)}
		}
		for _, r := range rec.Ranges {
			if !r.Valid() {
				return &core.InvariantViolationError{
					Message: fmt.Sprintf("partition %q has invalid range %s", rec.Name, r),
				}
			}
			all = append(all, owned{r: r, name: rec.Name})
		}
		if n := rec.Slots(); len(rec.Model.Params) != n || len(rec.Model.Names) != n {
			return &core.InvariantViolationError{
				Message: fmt.Sprintf("partition %q has %d option lists and %d model names for %d slots",
					rec.Name, len(rec.Model.Params), len(rec.Model.Names), n),
			}
		}
		if rec.IsCodon() {
			if err := checkCodon(rec); err != nil {
				return err
			}
		}
	}

	for i := 0; i < len(all); i++ {
		for j := i + 1; j < len(all); j++ {
			if all[i].r.Overlaps(all[j].r) {
				return &core.InvariantViolationError{
					Message: fmt.Sprintf("range %s of %q overlaps range %s of %q",
						all[i].r, all[i].name, all[j].r, all[j].name),
				}
			}
		}
	}
	return nil
}

func checkCodon(rec core.Partition) error {
	if len(rec.Ranges) != 1 {
		return &core.InvariantViolationError{
			Message: fmt.Sprintf("codon partition %q must own one contiguous range, has %d", rec.Name, len(rec.Ranges)),
		}
	}
	if len(rec.Codon) > core.CodonStride {
		return &core.InvariantViolationError{
			Message: fmt.Sprintf("codon partition %q has %d frames", rec.Name, len(rec.Codon)),
		}
	}
	seen := make(map[int]bool, len(rec.Codon))
	for _, off := range rec.Codon {
		if off < 0 || off >= core.CodonStride || seen[off] {
			return &core.InvariantViolationError{
				Message: fmt.Sprintf("codon partition %q has bad frame offsets %v", rec.Name, rec.Codon),
			}
		}
		seen[off] = true
	}
	return nil
}
