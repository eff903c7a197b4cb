package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leapstack-labs/phylopart/internal/cli/output"
	"github.com/leapstack-labs/phylopart/pkg/core"
	"github.com/leapstack-labs/phylopart/pkg/dialect"
	"github.com/spf13/cobra"
)

// NewListCommand creates the list command.
func NewListCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List partitions with their ranges and models",
		Long: `List the partitions of the current layout in order, with their
coordinate ranges, codon positions, models and source alignments.

Output adapts to environment:
  - Terminal: Styled table
  - Piped/Scripted: Markdown format (agent-friendly)

Use --output to override: auto, text, markdown, json`,
		Example: `  # List partitions (auto-detect output format)
  phylopart list

  # List partitions as JSON
  phylopart list --output json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()
			return renderLayout(cc.Renderer, cc.Dialect, cc.Partitions().Records(), cc.Partitions().Contiguous())
		},
	}

	return cmd
}

// listOutput is the JSON form of the list command.
type listOutput struct {
	Dialect     string           `json:"dialect,omitempty"`
	TotalLength int              `json:"total_length"`
	Contiguous  bool             `json:"contiguous"`
	Partitions  []core.Partition `json:"partitions"`
}

// renderLayout writes a partition list in the renderer's mode.
func renderLayout(r *output.Renderer, dialectName string, parts []core.Partition, contiguous bool) error {
	total := 0
	for _, p := range parts {
		total += p.Length()
	}

	if r.EffectiveMode() == output.ModeJSON {
		if parts == nil {
			parts = []core.Partition{}
		}
		return r.JSON(listOutput{Dialect: dialectName, TotalLength: total, Contiguous: contiguous, Partitions: parts})
	}

	title := fmt.Sprintf("Partitions (%d total, %d columns)", len(parts), total)
	if dialectName != "" {
		title += " from " + output.Title(dialectName)
	}
	r.Header(1, title)
	if len(parts) == 0 {
		r.Muted("No partitions. Import alignments or load a partition file.")
		return nil
	}

	rows := make([][]string, len(parts))
	for i, p := range parts {
		rows[i] = []string{
			strconv.Itoa(i + 1),
			p.Name,
			formatRanges(p.Ranges),
			formatCodon(p),
			formatModels(p.Model),
			strings.Join(p.Alignments, ", "),
		}
	}
	r.Table([]string{"#", "Name", "Ranges", "Codon", "Models", "Alignments"}, rows)

	if !contiguous {
		r.Warning("ranges do not form a gap-free cover; run compact to renumber them")
	}
	return nil
}

func formatRanges(ranges []core.Range) string {
	terms := make([]string, len(ranges))
	for i, r := range ranges {
		terms[i] = dialect.FormatRange(r)
	}
	return strings.Join(terms, " ")
}

func formatCodon(p core.Partition) string {
	if !p.IsCodon() {
		return "-"
	}
	positions := p.CodonPositions()
	terms := make([]string, len(positions))
	for i, c := range positions {
		terms[i] = dialect.FormatCodon(c)
	}
	return strings.Join(terms, " ")
}

func formatModels(m core.Model) string {
	names := make([]string, len(m.Names))
	for i, n := range m.Names {
		if n == "" {
			n = "-"
		}
		names[i] = n
	}
	s := strings.Join(names, " / ")
	if len(m.Links) > 0 {
		s += " [" + strings.Join(m.Links, ",") + "]"
	}
	return s
}
