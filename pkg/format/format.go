package format

import (
	"fmt"
	"io"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/phylopart/pkg/core"
	"github.com/leapstack-labs/phylopart/pkg/dialect"
)

// Supported export formats.
const (
	FormatNexus = "nexus"
	FormatRAxML = "raxml"
	FormatYAML  = "yaml"
)

// DefaultRAxMLModel is written for partitions without a model name.
const DefaultRAxMLModel = "DNA"

// Formats lists the export format names.
func Formats() []string {
	return []string{FormatNexus, FormatRAxML, FormatYAML}
}

// Write renders layout in the named format.
func Write(w io.Writer, format string, layout *core.Layout) error {
	switch strings.ToLower(format) {
	case FormatNexus:
		return Nexus(w, layout.Partitions)
	case FormatRAxML:
		return RAxML(w, layout.Partitions)
	case FormatYAML:
		return YAML(w, layout)
	default:
		return fmt.Errorf("unknown export format %q (available: %s)", format, strings.Join(Formats(), ", "))
	}
}

// prsetOptions are the option keys MrBayes accepts in prset rather than lset.
var prsetOptions = []string{
	"aamodelpr", "brlenspr", "pinvarpr", "ratepr", "revmatpr",
	"shapepr", "statefreqpr", "topologypr", "tratiopr",
}

func isPrset(option string) bool {
	key, _, _ := strings.Cut(option, "=")
	return slices.Contains(prsetOptions, strings.ToLower(key))
}

// Nexus writes a MrBayes block: one charset per partition (one per frame for
// codon partitions), a partition statement over every model slot, lset/prset
// statements for slot options and a charpartition for model names. A codon
// partition whose name is not <base>_<start> carries a [&partition=<name>]
// comment on its first frame charset so it reads back under that name.
func Nexus(w io.Writer, parts []core.Partition) error {
	p := newPrinter()
	p.linef("#NEXUS")
	p.blank()
	p.linef("begin mrbayes;")
	p.indent()

	var slots []string
	for _, part := range parts {
		if part.IsCodon() {
			base := codonBase(part)
			for k, pos := range part.CodonPositions() {
				name := fmt.Sprintf("%s_%d", base, k+1)
				slots = append(slots, name)
				note := ""
				if k == 0 && base == part.Name {
					note = " [&partition=" + quote(part.Name) + "]"
				}
				p.linef("charset %s = %s%s;", quote(name), dialect.FormatCodon(pos), note)
			}
			continue
		}
		terms := make([]string, len(part.Ranges))
		for i, r := range part.Ranges {
			terms[i] = dialect.FormatRange(r)
		}
		slots = append(slots, part.Name)
		p.linef("charset %s = %s;", quote(part.Name), strings.Join(terms, " "))
	}

	quoted := make([]string, len(slots))
	for i, s := range slots {
		quoted[i] = quote(s)
	}
	p.blank()
	p.linef("partition part = %d: %s;", len(slots), strings.Join(quoted, ", "))
	p.linef("set partition = part;")

	var (
		slot   int
		models = make(map[string][]string)
		order  []string
	)
	for _, part := range parts {
		for s := range part.Slots() {
			slot++
			if s < len(part.Model.Params) {
				writeOptions(p, slot, part.Model.Params[s])
			}
			if s < len(part.Model.Names) && part.Model.Names[s] != "" {
				model := part.Model.Names[s]
				if _, ok := models[model]; !ok {
					order = append(order, model)
				}
				models[model] = append(models[model], quoted[slot-1])
			}
		}
	}

	if len(order) > 0 {
		entries := make([]string, len(order))
		for i, model := range order {
			entries[i] = model + ": " + strings.Join(models[model], " ")
		}
		p.linef("charpartition models = %s;", strings.Join(entries, ", "))
	}

	p.dedent()
	p.linef("end;")
	return p.flush(w)
}

// writeOptions emits slot options as alternating lset/prset runs, which
// keeps their order when the block is read back.
func writeOptions(p *printer, slot int, options []string) {
	for start := 0; start < len(options); {
		prset := isPrset(options[start])
		end := start + 1
		for end < len(options) && isPrset(options[end]) == prset {
			end++
		}
		cmd := "lset"
		if prset {
			cmd = "prset"
		}
		p.linef("%s applyto=(%d) %s;", cmd, slot, strings.Join(options[start:end], " "))
		start = end
	}
}

// RAxML writes one "MODEL, name = ranges" line per partition. Codon
// partitions list one stride term per frame. The model is that of the first
// slot.
func RAxML(w io.Writer, parts []core.Partition) error {
	p := newPrinter()
	for _, part := range parts {
		model := DefaultRAxMLModel
		if len(part.Model.Names) > 0 && part.Model.Names[0] != "" {
			model = part.Model.Names[0]
		}

		var terms []string
		if part.IsCodon() {
			for _, pos := range part.CodonPositions() {
				terms = append(terms, dialect.FormatCodon(pos))
			}
		} else {
			for _, r := range part.Ranges {
				terms = append(terms, dialect.FormatRange(r))
			}
		}
		p.linef("%s, %s = %s", model, part.Name, strings.Join(terms, ", "))
	}
	return p.flush(w)
}

// YAML writes the full layout, including alignments and model links.
func YAML(w io.Writer, layout *core.Layout) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(layout); err != nil {
		return fmt.Errorf("encoding layout: %w", err)
	}
	return enc.Close()
}

// ReadYAML decodes a layout written by YAML.
func ReadYAML(r io.Reader) (*core.Layout, error) {
	var layout core.Layout
	if err := yaml.NewDecoder(r).Decode(&layout); err != nil {
		return nil, fmt.Errorf("decoding layout: %w", err)
	}
	return &layout, nil
}

var startSuffix = regexp.MustCompile(`_(\d+)$`)

// codonBase strips the _<start> suffix codon partitions are named with when
// read, so the frame charsets written for them group back under the same
// name. Other names are returned unchanged.
func codonBase(part core.Partition) string {
	m := startSuffix.FindStringSubmatch(part.Name)
	if m != nil && m[1] == strconv.Itoa(part.Start()+1) {
		return strings.TrimSuffix(part.Name, "_"+m[1])
	}
	return part.Name
}
