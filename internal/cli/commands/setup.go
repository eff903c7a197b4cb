package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/phylopart/internal/alignment"
	"github.com/leapstack-labs/phylopart/internal/cli/config"
	"github.com/leapstack-labs/phylopart/internal/cli/output"
	"github.com/leapstack-labs/phylopart/internal/state"
	"github.com/leapstack-labs/phylopart/pkg/core"
	"github.com/leapstack-labs/phylopart/pkg/parser"
	"github.com/leapstack-labs/phylopart/pkg/partition"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg        *config.Config
	Logger     *slog.Logger
	Renderer   *output.Renderer
	Store      *state.SQLiteStore
	Collection *alignment.Collection
	// Dialect is the dialect the current layout was read from, if any.
	Dialect string
}

// NewCommandContext opens the state store and rebuilds the alignment
// collection from the saved alignments and the latest layout snapshot.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cc := NewCommandContextWithoutStore(cmd)

	store := state.NewSQLiteStore(cc.Logger)
	if err := store.Open(cc.Cfg.StatePath); err != nil {
		return nil, nil, fmt.Errorf("failed to open state database: %w", err)
	}
	cleanup := func() {
		_ = store.Close()
	}
	cc.Store = store
	cc.Collection = alignment.New(store.DB(), cc.Logger)

	if err := cc.restore(cmd.Context()); err != nil {
		cleanup()
		return nil, nil, err
	}
	return cc, cleanup, nil
}

// NewCommandContextWithoutStore creates a CommandContext without a store.
// Useful for commands that only read partition files.
func NewCommandContextWithoutStore(cmd *cobra.Command) *CommandContext {
	cfg := config.FromContext(cmd.Context())
	return &CommandContext{
		Cfg:      cfg,
		Logger:   config.GetLogger(cmd.Context()),
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat)),
	}
}

func (cc *CommandContext) restore(ctx context.Context) error {
	saved, err := cc.Store.ListAlignments(ctx)
	if err != nil {
		return err
	}
	snap, err := cc.Store.LatestLayout(ctx)
	if err != nil {
		return err
	}

	sources := make([]alignment.Source, len(saved))
	for i, a := range saved {
		sources[i] = alignment.Source{Name: a.Name, Path: a.Path, Format: a.Format, Length: a.Length, Taxa: a.Taxa}
	}
	layout := &core.Layout{}
	if snap != nil {
		layout = snap.Layout
		cc.Dialect = layout.Dialect
		cc.Logger.Debug("restored layout", "snapshot", snap.ID, "operation", snap.Operation, "partitions", len(layout.Partitions))
	}
	if err := cc.Collection.Restore(sources, layout); err != nil {
		return fmt.Errorf("saved layout is invalid: %w", err)
	}
	return nil
}

// Partitions returns the partition set of the collection.
func (cc *CommandContext) Partitions() *partition.Partitions {
	return cc.Collection.Partitions()
}

// ParserOptions returns the parse options for the configured dialect.
func (cc *CommandContext) ParserOptions() parser.Options {
	return parser.Options{Dialect: cc.Cfg.Dialect, Logger: cc.Logger}
}

// SaveLayout stores the current layout as a snapshot of operation.
func (cc *CommandContext) SaveLayout(ctx context.Context, operation string) (*state.Snapshot, error) {
	layout := cc.Partitions().Snapshot()
	layout.Dialect = cc.Dialect
	snap, err := cc.Store.SaveLayout(ctx, operation, layout)
	if err != nil {
		return nil, fmt.Errorf("failed to save layout: %w", err)
	}
	return snap, nil
}

// SaveAlignments stores the collection's alignments in concatenation order.
func (cc *CommandContext) SaveAlignments(ctx context.Context) error {
	sources := cc.Collection.Sources()
	saved := make([]state.Alignment, len(sources))
	for i, s := range sources {
		saved[i] = state.Alignment{Name: s.Name, Path: s.Path, Format: s.Format, Length: s.Length, Taxa: s.Taxa, Position: i}
	}
	return cc.Store.SaveAlignments(ctx, saved)
}

// mutationResult is the JSON form of a mutating command's outcome.
type mutationResult struct {
	Operation  string   `json:"operation"`
	Snapshot   string   `json:"snapshot"`
	Message    string   `json:"message"`
	Partitions []string `json:"partitions"`
}

// mutate runs one edit against the restored partition set and, if it
// succeeds, saves the result as a new snapshot and reports the message
// returned by edit.
func mutate(cmd *cobra.Command, operation string, edit func(cc *CommandContext) (string, error)) error {
	cc, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	msg, err := edit(cc)
	if err != nil {
		return err
	}
	snap, err := cc.SaveLayout(cmd.Context(), operation)
	if err != nil {
		return err
	}
	cc.Logger.Debug("saved layout", "snapshot", snap.ID, "operation", operation)

	r := cc.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(mutationResult{
			Operation:  operation,
			Snapshot:   snap.ID,
			Message:    msg,
			Partitions: cc.Partitions().Keys(),
		})
	}
	r.Success(msg)
	return nil
}
