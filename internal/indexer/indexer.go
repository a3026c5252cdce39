// Package indexer maps sky coordinates to spatial cell ids and cell ids to
// shard storage keys. Indexing algorithms register by name; the ingestion
// pipeline only sees the Indexer interface.
package indexer

import (
	"fmt"
	"sort"
)

// Indexer assigns a spatial cell id to each (ra, dec) pair, both in
// degrees. Implementations reject coordinates outside the standard ranges.
type Indexer interface {
	// Name returns the registered algorithm name.
	Name() string
	// Depth returns the subdivision depth the indexer was built with.
	Depth() int
	// IndexPoints returns one cell id per input point, in input order.
	IndexPoints(ra, dec []float64) ([]int64, error)
}

var registry = map[string]func(depth int) (Indexer, error){
	"htm": func(depth int) (Indexer, error) { return NewHTM(depth) },
}

// New builds the named indexing algorithm at the given depth.
func New(name string, depth int) (Indexer, error) {
	build, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown indexer %q (have %v)", name, Names())
	}
	return build(depth)
}

// Names returns the registered algorithm names, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
