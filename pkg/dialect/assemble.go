package dialect

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/leapstack-labs/phylopart/pkg/core"
)

// Declaration is one named range declaration, in source order.
type Declaration struct {
	Name  string
	Terms []Term
	Line  int
	// Model is a model name given inline with the declaration (RAxML style).
	Model string
	// Label, when set on the first declaration of a codon group, names the
	// codon partition instead of the derived <base>_<start>.
	Label string
}

// SlotRef addresses the model slots a declaration maps to.
type SlotRef struct {
	Partition int
	Slots     []int
}

// Assembly is the partition list built from declarations.
type Assembly struct {
	Partitions []core.Partition
	// Refs maps every declaration name to the model slots it addresses.
	Refs map[string]SlotRef
	// Order lists declaration names in source order.
	Order []string
}

var frameLabel = regexp.MustCompile(`^(.+)_([1-3])$`)

// Assemble turns declarations into partitions.
//
// Plain declarations become one partition each, keeping every range.
// Codon declarations (a single a-b\3 term) are grouped: up to three
// consecutive declarations whose starts fall within one codon become a single
// codon partition named <base>_<start>, with the 1-based start column. The
// base is X when the names carry frame labels (X_1, X_2, X_3) and the first
// name otherwise. A lone codon declaration is expanded to all three positions
// of its block and named the same way. A Label on the first declaration of
// the group overrides the derived name.
func Assemble(decls []Declaration) (*Assembly, error) {
	asm := &Assembly{Refs: make(map[string]SlotRef, len(decls))}
	var lines []int

	for _, d := range decls {
		if _, dup := asm.Refs[d.Name]; dup || d.Name == "" {
			return nil, &core.MalformedPartitionError{Line: d.Line, Name: d.Name, Message: "declared more than once or unnamed"}
		}
		asm.Refs[d.Name] = SlotRef{Partition: -1}
	}

	for i := 0; i < len(decls); {
		d := decls[i]
		asm.Order = append(asm.Order, d.Name)

		if !isCodon(d) {
			for _, t := range d.Terms {
				if t.Stride != 1 {
					return nil, &core.MalformedPartitionError{
						Line: d.Line, Name: d.Name,
						Message: "a codon stride range cannot be combined with other ranges",
					}
				}
			}
			part := core.Partition{Name: d.Name, Alignments: []string{d.Name}, Model: core.DefaultModel(1)}
			for _, t := range d.Terms {
				part.Ranges = append(part.Ranges, t.Range)
			}
			asm.Refs[d.Name] = SlotRef{Partition: len(asm.Partitions), Slots: []int{0}}
			asm.Partitions = append(asm.Partitions, part)
			lines = append(lines, d.Line)
			i++
			continue
		}

		group := codonGroup(decls[i:])
		for _, g := range group[1:] {
			asm.Order = append(asm.Order, g.Name)
		}
		part, refs := codonPartition(group)
		idx := len(asm.Partitions)
		for name, slots := range refs {
			asm.Refs[name] = SlotRef{Partition: idx, Slots: slots}
		}
		asm.Partitions = append(asm.Partitions, part)
		lines = append(lines, d.Line)
		i += len(group)
	}

	for i := range decls {
		if decls[i].Model == "" {
			continue
		}
		ref := asm.Refs[decls[i].Name]
		for _, s := range ref.Slots {
			asm.Partitions[ref.Partition].Model.Names[s] = decls[i].Model
		}
	}

	if err := checkAssembly(asm.Partitions, lines); err != nil {
		return nil, err
	}
	return asm, nil
}

func isCodon(d Declaration) bool {
	return len(d.Terms) == 1 && d.Terms[0].Stride == core.CodonStride
}

// codonGroup returns the leading run of codon declarations that belong to
// one codon block.
func codonGroup(decls []Declaration) []Declaration {
	group := decls[:1]
	lo, hi := decls[0].Terms[0].Range.Start, decls[0].Terms[0].Range.Start
	seen := map[int]bool{lo: true}

	for _, d := range decls[1:] {
		if len(group) == core.CodonStride || !isCodon(d) {
			break
		}
		s := d.Terms[0].Range.Start
		nlo, nhi := min(lo, s), max(hi, s)
		if seen[s] || nhi-nlo >= core.CodonStride {
			break
		}
		lo, hi = nlo, nhi
		seen[s] = true
		group = decls[:len(group)+1]
	}
	return group
}

func codonPartition(group []Declaration) (core.Partition, map[string][]int) {
	refs := make(map[string][]int, core.CodonStride)
	first := group[0].Terms[0].Range

	if len(group) == 1 {
		name := group[0].Name
		part := core.Partition{
			Name:       codonName(group[0], name, first.Start),
			Ranges:     []core.Range{first},
			Codon:      []int{0, 1, 2},
			Alignments: []string{name},
			Model:      core.DefaultModel(core.CodonStride),
		}
		refs[name] = []int{0, 1, 2}
		return part, refs
	}

	ext := first
	for _, d := range group[1:] {
		r := d.Terms[0].Range
		ext.Start = min(ext.Start, r.Start)
		ext.End = max(ext.End, r.End)
	}

	codon := make([]int, len(group))
	for k, d := range group {
		codon[k] = d.Terms[0].Range.Start - ext.Start
		refs[d.Name] = []int{k}
	}

	base := frameBase(group)
	return core.Partition{
		Name:       codonName(group[0], base, ext.Start),
		Ranges:     []core.Range{ext},
		Codon:      codon,
		Alignments: []string{base},
		Model:      core.DefaultModel(len(group)),
	}, refs
}

func codonName(first Declaration, base string, start int) string {
	if first.Label != "" {
		return first.Label
	}
	return base + "_" + strconv.Itoa(start+1)
}

// frameBase returns X when the group is named X_1, X_2, ... in declaration
// order, and the first name otherwise.
func frameBase(group []Declaration) string {
	base := ""
	for k, d := range group {
		m := frameLabel.FindStringSubmatch(d.Name)
		if m == nil || m[2] != strconv.Itoa(k+1) {
			return group[0].Name
		}
		if k == 0 {
			base = m[1]
		} else if m[1] != base {
			return group[0].Name
		}
	}
	return base
}

// checkAssembly rejects duplicate partition names and overlapping ranges.
func checkAssembly(parts []core.Partition, lines []int) error {
	names := make(map[string]bool, len(parts))
	for i, p := range parts {
		if names[p.Name] {
			return &core.MalformedPartitionError{Line: lines[i], Name: p.Name, Message: "partition name produced twice"}
		}
		names[p.Name] = true

		for a := 0; a < len(p.Ranges); a++ {
			for b := a + 1; b < len(p.Ranges); b++ {
				if p.Ranges[a].Overlaps(p.Ranges[b]) {
					return &core.MalformedPartitionError{
						Line: lines[i], Name: p.Name,
						Message: fmt.Sprintf("ranges %s and %s overlap", FormatRange(p.Ranges[a]), FormatRange(p.Ranges[b])),
					}
				}
			}
		}
		for j := 0; j < i; j++ {
			for _, r := range p.Ranges {
				for _, o := range parts[j].Ranges {
					if r.Overlaps(o) {
						return &core.MalformedPartitionError{
							Line: lines[i], Name: p.Name,
							Message: fmt.Sprintf("range %s overlaps partition %q", FormatRange(r), parts[j].Name),
						}
					}
				}
			}
		}
	}
	return nil
}
