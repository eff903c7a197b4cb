package commands

import (
	"fmt"

	"github.com/leapstack-labs/phylopart/pkg/parser"
	"github.com/spf13/cobra"
)

// NewImportCommand creates the import command.
func NewImportCommand() *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import <alignment>...",
		Short: "Add alignments to the concatenation",
		Long: `Scan FASTA, Phylip or Nexus alignments and append them to the
concatenated alignment. Each alignment gets one partition named after its
file, placed right after the current end of the coordinate space.`,
		Example: `  phylopart import BaseConc1.fas BaseConc2.fas

  # Start over with a new set of alignments
  phylopart import --replace genes/*.fas`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			coll := cc.Collection
			if replace {
				coll.Clear()
				cc.Dialect = ""
			}
			if err := coll.Import(ctx, args...); err != nil {
				return err
			}
			if err := cc.SaveAlignments(ctx); err != nil {
				return err
			}
			if _, err := cc.SaveLayout(ctx, "import"); err != nil {
				return err
			}

			r := cc.Renderer
			r.Success(fmt.Sprintf("Imported %d alignments (%d columns total)", len(args), coll.TotalLength()))
			return nil
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "Drop existing alignments and partitions first")
	return cmd
}

// NewLoadCommand creates the load command.
func NewLoadCommand() *cobra.Command {
	var appendMode bool

	cmd := &cobra.Command{
		Use:   "load <partition-file>",
		Short: "Load a Nexus or Phylip partition file",
		Long: `Parse a partition file and make it the current layout. The dialect is
detected from the content unless --dialect is given. Loading is atomic: a
malformed file leaves the current layout untouched.

With --append the file's partitions are added after the existing ones
instead of replacing them.`,
		Example: `  phylopart load partitions.nex
  phylopart load --dialect phylip partitions.part`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			ctx := cmd.Context()
			parts := cc.Partitions()
			opts := cc.ParserOptions()

			if appendMode {
				layout, err := parser.ReadFile(ctx, parts, args[0], opts)
				if err != nil {
					return err
				}
				if cc.Dialect == "" {
					cc.Dialect = layout.Dialect
				}
			} else {
				layout, err := parser.ParseFile(ctx, args[0], opts)
				if err != nil {
					return err
				}
				if err := parts.Restore(layout); err != nil {
					return err
				}
				cc.Dialect = layout.Dialect
			}

			if len(cc.Collection.Sources()) > 0 {
				if err := cc.Collection.Validate(); err != nil {
					cc.Renderer.Warning(err.Error())
				}
			}
			if _, err := cc.SaveLayout(ctx, "load"); err != nil {
				return err
			}

			cc.Renderer.Success(fmt.Sprintf("Loaded %d partitions from %s (%s)", parts.Len(), args[0], cc.Dialect))
			return nil
		},
	}

	cmd.Flags().BoolVar(&appendMode, "append", false, "Add to the current layout instead of replacing it")
	return cmd
}
