// Package parser reads partition files into layouts and loads them into a
// partition set. The dialect is either named by the caller or detected from
// the content.
package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/leapstack-labs/phylopart/pkg/core"
	"github.com/leapstack-labs/phylopart/pkg/dialect"
	"github.com/leapstack-labs/phylopart/pkg/partition"

	_ "github.com/leapstack-labs/phylopart/pkg/dialects/nexus"  // Register Nexus dialect
	_ "github.com/leapstack-labs/phylopart/pkg/dialects/phylip" // Register Phylip dialect
)

// AutoDialect selects content-based detection.
const AutoDialect = "auto"

// Options controls parsing.
type Options struct {
	// Dialect forces a dialect by name. Empty or "auto" detects it.
	Dialect string
	Logger  *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.New(slog.DiscardHandler)
}

// Parse parses partition content. Nothing is registered anywhere; callers
// load the returned layout themselves.
func Parse(content []byte, opts Options) (*core.Layout, error) {
	log := opts.logger()

	if opts.Dialect != "" && !strings.EqualFold(opts.Dialect, AutoDialect) {
		d, ok := dialect.Get(opts.Dialect)
		if !ok {
			return nil, fmt.Errorf("unknown dialect %q (available: %s)", opts.Dialect, strings.Join(dialect.List(), ", "))
		}
		layout, err := d.Parse(content)
		if err != nil {
			return nil, err
		}
		layout.Dialect = d.Name()
		log.Debug("parsed partition file", "dialect", d.Name(), "partitions", len(layout.Partitions))
		return layout, nil
	}

	d, layout, err := dialect.Detect(content)
	if err != nil {
		return nil, err
	}
	log.Debug("detected partition dialect", "dialect", d.Name(), "partitions", len(layout.Partitions))
	return layout, nil
}

// ParseFile reads and parses a partition file. Parse errors carry the path.
func ParseFile(ctx context.Context, path string, opts Options) (*core.Layout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading partition file: %w", err)
	}

	layout, err := Parse(content, opts)
	if err != nil {
		return nil, withFile(err, path)
	}
	return layout, nil
}

// ReadFile parses a partition file and appends its partitions to parts.
// The load is atomic: on error parts is unchanged.
func ReadFile(ctx context.Context, parts *partition.Partitions, path string, opts Options) (*core.Layout, error) {
	layout, err := ParseFile(ctx, path, opts)
	if err != nil {
		return nil, err
	}
	if err := parts.Load(layout); err != nil {
		return nil, withFile(err, path)
	}
	opts.logger().Info("loaded partition file", "path", path, "dialect", layout.Dialect, "partitions", len(layout.Partitions))
	return layout, nil
}

func withFile(err error, path string) error {
	var malformed *core.MalformedPartitionError
	if errors.As(err, &malformed) && malformed.File == "" {
		malformed.File = path
	}
	var unknown *core.UnknownDialectError
	if errors.As(err, &unknown) && unknown.File == "" {
		unknown.File = path
	}
	return err
}
