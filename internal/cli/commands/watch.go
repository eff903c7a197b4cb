package commands

import (
	"fmt"

	"github.com/leapstack-labs/phylopart/internal/notifier"
	"github.com/leapstack-labs/phylopart/internal/state"
	"github.com/leapstack-labs/phylopart/internal/watch"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// NewWatchCommand creates the watch command.
func NewWatchCommand() *cobra.Command {
	var save bool

	cmd := &cobra.Command{
		Use:   "watch <partition-file>",
		Short: "Re-parse a partition file whenever it changes",
		Long: `Watch a partition file and print its layout every time it is saved.
A save that does not parse is reported and the last good layout is kept.

With --save each good layout is also stored as a snapshot, so the other
commands pick it up. Stop with Ctrl-C.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cc := NewCommandContextWithoutStore(cmd)
			r := cc.Renderer

			var store *state.SQLiteStore
			if save {
				store = state.NewSQLiteStore(cc.Logger)
				if err := store.Open(cc.Cfg.StatePath); err != nil {
					return fmt.Errorf("failed to open state database: %w", err)
				}
				defer func() { _ = store.Close() }()
			}

			n := notifier.New()
			events := n.Subscribe()
			defer n.Unsubscribe(events)

			w := watch.New(args[0], cc.ParserOptions(), n,
				watch.WithLogger(cc.Logger),
				watch.WithErrorHandler(func(err error) { r.Error(err.Error()) }),
			)

			eg, ctx := errgroup.WithContext(cmd.Context())
			eg.Go(func() error {
				return w.Run(ctx)
			})
			eg.Go(func() error {
				for {
					select {
					case <-ctx.Done():
						return nil
					case _, ok := <-events:
						if !ok {
							return nil
						}
						layout := w.Layout()
						if err := renderLayout(r, layout.Dialect, layout.Partitions, w.Contiguous()); err != nil {
							return err
						}
						if store != nil {
							if _, err := store.SaveLayout(ctx, "watch", layout); err != nil {
								return err
							}
						}
					}
				}
			})
			return eg.Wait()
		},
	}

	cmd.Flags().BoolVar(&save, "save", false, "Store every reloaded layout as a snapshot")
	return cmd
}
