package dialect

import (
	"errors"
	"slices"
	"strings"
	"sync"

	"github.com/leapstack-labs/phylopart/pkg/core"
)

// Dialect registry
var (
	dialectsMu sync.RWMutex
	dialects   = make(map[string]Dialect)
)

// ErrDialectRequired is returned when a dialect is required but not provided.
var ErrDialectRequired = errors.New("dialect is required")

// Get returns a dialect by name.
func Get(name string) (Dialect, bool) {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	d, ok := dialects[strings.ToLower(name)]
	return d, ok
}

// Register registers a dialect in the global registry.
// Called by dialect implementations in their init() functions.
func Register(d Dialect) {
	dialectsMu.Lock()
	defer dialectsMu.Unlock()
	dialects[strings.ToLower(d.Name())] = d
}

// List returns all registered dialect names (sorted).
func List() []string {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	names := make([]string, 0, len(dialects))
	for name := range dialects {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Candidates returns the registered dialects in detection order.
func Candidates() []Dialect {
	dialectsMu.RLock()
	defer dialectsMu.RUnlock()
	out := make([]Dialect, 0, len(dialects))
	for _, d := range dialects {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b Dialect) int {
		if a.Priority() != b.Priority() {
			return a.Priority() - b.Priority()
		}
		return strings.Compare(a.Name(), b.Name())
	})
	return out
}

// Detect tries every candidate whose Sniff accepts content, in priority
// order, and returns the first successful parse.
//
// When at least one dialect recognized the content but none could parse it,
// the first parse error is returned, since it names the offending line.
// When nothing recognized the content an *core.UnknownDialectError is returned.
func Detect(content []byte) (Dialect, *core.Layout, error) {
	candidates := Candidates()
	tried := make([]string, 0, len(candidates))
	var firstErr error

	for _, d := range candidates {
		tried = append(tried, d.Name())
		if !d.Sniff(content) {
			continue
		}
		layout, err := d.Parse(content)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		layout.Dialect = d.Name()
		return d, layout, nil
	}

	if firstErr != nil {
		return nil, nil, firstErr
	}
	return nil, nil, &core.UnknownDialectError{Tried: tried}
}
