package core

import (
	"cmp"
	"fmt"
	"slices"
)

// Range is a closed interval [Start, End] over the 0-based concatenated
// alignment coordinate space.
type Range struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Len returns the number of columns covered by the range.
func (r Range) Len() int {
	if r.End < r.Start {
		return 0
	}
	return r.End - r.Start + 1
}

// Valid reports whether the range is non-negative and not inverted.
func (r Range) Valid() bool {
	return r.Start >= 0 && r.End >= r.Start
}

// Overlaps reports whether r and o share at least one column.
func (r Range) Overlaps(o Range) bool {
	return r.Start <= o.End && o.Start <= r.End
}

// String renders the range with 0-based coordinates.
func (r Range) String() string {
	return fmt.Sprintf("%d-%d", r.Start, r.End)
}

// Normalize sorts ranges by start and coalesces adjacent or overlapping
// intervals. The input slice is not modified.
func Normalize(ranges []Range) []Range {
	if len(ranges) == 0 {
		return nil
	}
	sorted := make([]Range, len(ranges))
	copy(sorted, ranges)
	SortRanges(sorted)

	out := []Range{sorted[0]}
	for _, r := range sorted[1:] {
		last := &out[len(out)-1]
		if r.Start <= last.End+1 {
			if r.End > last.End {
				last.End = r.End
			}
			continue
		}
		out = append(out, r)
	}
	return out
}

// SortRanges sorts ranges in place by start, then end.
func SortRanges(ranges []Range) {
	slices.SortFunc(ranges, func(a, b Range) int {
		if c := cmp.Compare(a.Start, b.Start); c != 0 {
			return c
		}
		return cmp.Compare(a.End, b.End)
	})
}
