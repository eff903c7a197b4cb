package commands

import (
	"fmt"
	"strings"

	"github.com/leapstack-labs/phylopart/pkg/core"
	"github.com/leapstack-labs/phylopart/pkg/dialect"
	"github.com/leapstack-labs/phylopart/pkg/partition"
	"github.com/spf13/cobra"
)

// NewRenameCommand creates the rename command.
func NewRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a partition",
		Long:  `Rename a partition, keeping its position, ranges and model assignment.`,
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, "rename", func(cc *CommandContext) (string, error) {
				if err := cc.Partitions().Rename(args[0], args[1]); err != nil {
					return "", err
				}
				return fmt.Sprintf("Renamed %s to %s", args[0], args[1]), nil
			})
		},
	}
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand() *cobra.Command {
	var compact bool

	cmd := &cobra.Command{
		Use:     "remove <name>",
		Aliases: []string{"rm"},
		Short:   "Remove a partition",
		Long: `Remove a partition from the layout.

The remaining partitions keep their coordinates, so removing a partition in
the middle leaves a gap. Pass --compact (or set compact_on_remove) to shift
the following partitions down and close it.`,
		Example: `  # Remove a partition, leaving a gap
  phylopart remove BaseConc3.fas

  # Remove and renumber
  phylopart remove BaseConc3.fas --compact`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, "remove", func(cc *CommandContext) (string, error) {
				parts := cc.Partitions()
				if compact || cc.Cfg.CompactOnRemove {
					if err := parts.RemoveCompact(args[0]); err != nil {
						return "", err
					}
					return fmt.Sprintf("Removed %s and compacted coordinates", args[0]), nil
				}
				if err := parts.Remove(args[0]); err != nil {
					return "", err
				}
				if !parts.Contiguous() {
					cc.Renderer.Warning("coordinates now have a gap; run with --compact to close it")
				}
				return fmt.Sprintf("Removed %s", args[0]), nil
			})
		},
	}

	cmd.Flags().BoolVar(&compact, "compact", false, "Renumber remaining partitions to close the gap")
	return cmd
}

// NewCompactCommand creates the compact command.
func NewCompactCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "compact",
		Short: "Close coordinate gaps left by removed partitions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return mutate(cmd, "compact", func(cc *CommandContext) (string, error) {
				if err := cc.Partitions().Compact(); err != nil {
					return "", err
				}
				return fmt.Sprintf("Compacted %d columns", cc.Partitions().TotalLength()), nil
			})
		},
	}
}

// NewMergeCommand creates the merge command.
func NewMergeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "merge <new-name> <partition>...",
		Short: "Merge partitions into one",
		Long: `Merge partitions into a single partition placed where the earliest of
them was. Ranges, models and alignment associations are concatenated.`,
		Example: `  phylopart merge New_part BaseConc1.fas BaseConc2.fas`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return mutate(cmd, "merge", func(cc *CommandContext) (string, error) {
				if err := cc.Partitions().Merge(args[1:], args[0]); err != nil {
					return "", err
				}
				return fmt.Sprintf("Merged %d partitions into %s", len(args)-1, args[0]), nil
			})
		},
	}
}

// NewSplitCommand creates the split command.
func NewSplitCommand() *cobra.Command {
	var (
		ranges []string
		names  []string
	)

	cmd := &cobra.Command{
		Use:   "split <name>",
		Short: "Split a partition by coordinate ranges",
		Long: `Split a partition into one partition per --range. Ranges are 1-based and
inclusive and must cover the original partition exactly.`,
		Example: `  phylopart split BaseConc1.fas --range 1-51 --range 52-85 --names part1,part2`,
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			parsed, err := parseRanges(args[0], ranges)
			if err != nil {
				return err
			}
			return mutate(cmd, "split", func(cc *CommandContext) (string, error) {
				if err := cc.Partitions().Split(args[0], parsed, names); err != nil {
					return "", err
				}
				return fmt.Sprintf("Split %s into %s", args[0], strings.Join(names, ", ")), nil
			})
		},
	}

	cmd.Flags().StringArrayVar(&ranges, "range", nil, "Range of one new partition, e.g. 1-51 (repeatable)")
	cmd.Flags().StringSliceVar(&names, "names", nil, "Names of the new partitions, in range order")
	_ = cmd.MarkFlagRequired("range")
	_ = cmd.MarkFlagRequired("names")
	return cmd
}

// parseRanges converts 1-based --range values to core ranges.
func parseRanges(name string, specs []string) ([]core.Range, error) {
	out := make([]core.Range, 0, len(specs))
	for _, spec := range specs {
		terms, err := dialect.ParseTerms(spec, 0, name)
		if err != nil {
			return nil, err
		}
		for _, t := range terms {
			if t.Stride != 1 {
				return nil, &core.InvalidSplitError{Name: name, Message: fmt.Sprintf("range %q has a stride", spec)}
			}
			out = append(out, t.Range)
		}
	}
	return out, nil
}

// NewModelCommand creates the model command.
func NewModelCommand() *cobra.Command {
	var (
		links  []string
		params []string
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "model <name> [model]...",
		Short: "Set the substitution model of a partition",
		Long: `Assign model names to a partition, one per model slot (one for a plain
partition, up to three for a codon partition). A single name is used for
every slot. --links records which codon positions share a model, one name per
linked group, and --all applies the same assignment everywhere.

--params replaces the option lists of the slots, one quoted value per slot or
a single value for every slot. Names and options are applied together.`,
		Example: `  # One model for one partition
  phylopart model BaseConc1.fas GTR

  # The same model everywhere
  phylopart model BaseConc1.fas GTR --all

  # Codon positions 1 and 2 linked, 3 separate
  phylopart model gene_1 GTR HKY --links 12,3

  # MrBayes options per slot
  phylopart model gene_1 --params "nst=6 rates=gamma" --params "nst=2"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name, models := args[0], args[1:]
			if len(models) == 0 && len(params) == 0 {
				return fmt.Errorf("nothing to set: give model names or --params")
			}
			return mutate(cmd, "model", func(cc *CommandContext) (string, error) {
				parts := cc.Partitions()
				update := partition.ModelUpdate{All: all}
				if len(models) > 0 {
					update.Names, update.Links = models, links
				}
				for _, p := range params {
					update.Params = append(update.Params, strings.Fields(p))
				}
				if err := parts.UpdateModel(name, update); err != nil {
					return "", err
				}
				target := name
				if all {
					target = fmt.Sprintf("all %d partitions", parts.Len())
				}
				return fmt.Sprintf("Updated model of %s", target), nil
			})
		},
	}

	cmd.Flags().StringSliceVar(&links, "links", nil, "Codon position linkage, e.g. 12,3")
	cmd.Flags().StringArrayVar(&params, "params", nil, "Model options of one slot (repeatable)")
	cmd.Flags().BoolVar(&all, "all", false, "Apply the models to every partition")
	return cmd
}
