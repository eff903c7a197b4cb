package commands

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/leapstack-labs/phylopart/internal/alignment"
	"github.com/leapstack-labs/phylopart/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewHistoryCommand creates the history command.
func NewHistoryCommand() *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show saved layout snapshots",
		Long:  `Show the layout snapshots saved by previous commands, newest first.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			snaps, err := cc.Store.History(cmd.Context(), limit)
			if err != nil {
				return err
			}

			r := cc.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				type entry struct {
					ID         string    `json:"id"`
					Operation  string    `json:"operation"`
					Partitions []string  `json:"partitions"`
					CreatedAt  time.Time `json:"created_at"`
				}
				out := make([]entry, len(snaps))
				for i, s := range snaps {
					out[i] = entry{ID: s.ID, Operation: s.Operation, Partitions: s.Layout.Names(), CreatedAt: s.CreatedAt}
				}
				return r.JSON(out)
			}

			r.Header(1, fmt.Sprintf("History (%d snapshots)", len(snaps)))
			rows := make([][]string, len(snaps))
			for i, s := range snaps {
				rows[i] = []string{
					s.ID[:8],
					s.Operation,
					strconv.Itoa(len(s.Layout.Partitions)),
					s.CreatedAt.Local().Format(time.DateTime),
				}
			}
			r.Table([]string{"Snapshot", "Operation", "Partitions", "Saved"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of snapshots (0 for all)")
	return cmd
}

// NewCheckCommand creates the check command.
func NewCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check the layout against the imported alignments",
		Long: `Check that partition names are unique, that no ranges overlap, that
codon partitions are consistent and, when alignments were imported, that the
partitions cover the concatenated alignment exactly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cc, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			parts := cc.Partitions()
			if len(cc.Collection.Sources()) > 0 {
				err = cc.Collection.Validate()
			} else {
				err = parts.Check()
			}
			var mismatch *alignment.LengthMismatchError
			switch {
			case errors.As(err, &mismatch):
				return err
			case err != nil:
				return fmt.Errorf("layout is inconsistent: %w", err)
			}

			if !parts.Contiguous() {
				cc.Renderer.Warning("ranges leave gaps; run compact to renumber them")
			}
			cc.Renderer.Success(fmt.Sprintf("%d partitions, %d columns", parts.Len(), parts.TotalLength()))
			return nil
		},
	}
}
