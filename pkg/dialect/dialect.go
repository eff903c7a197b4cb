// Package dialect provides the partition-file dialect contract and registry.
//
// A dialect recognizes and parses one textual convention for declaring
// partitions (Nexus charset blocks, RAxML/Phylip partition files, ...).
// Concrete dialects live in pkg/dialects/*/ and register themselves from
// their init() functions. Detection tries every registered dialect in
// priority order; dialects never mutate shared state, so a failed attempt
// leaves nothing behind.
package dialect

import "github.com/leapstack-labs/phylopart/pkg/core"

// Dialect is one partition-file syntax.
type Dialect interface {
	// Name is the dialect identifier, e.g. "nexus".
	Name() string
	// Priority orders detection; lower values are tried first.
	Priority() int
	// Sniff reports whether content plausibly uses this dialect.
	Sniff(content []byte) bool
	// Parse builds a layout from content. It must not retain content or
	// touch any state outside the returned layout.
	Parse(content []byte) (*core.Layout, error)
}
