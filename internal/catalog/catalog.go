// Package catalog holds the static indicator registry: one immutable
// descriptor per indicator name, built at process start and read-only
// afterwards. Lookups are case-insensitive.
package catalog

import (
	"fmt"
	"sort"
	"strings"
)

// Kind identifies which computation backend natively serves a descriptor.
type Kind string

const (
	KindManual Kind = "manual"
	KindCinar  Kind = "cinar"
	KindTalib  Kind = "talib"
	KindTechan Kind = "techan"
)

// Kinds lists all backend kinds in dispatcher fallback order: the manual
// backend is last because it only serves its own descriptors.
var Kinds = []Kind{KindCinar, KindTalib, KindTechan, KindManual}

// ParseKind maps a string to a Kind. Returns false for unknown values.
func ParseKind(s string) (Kind, bool) {
	switch Kind(strings.ToLower(s)) {
	case KindManual:
		return KindManual, true
	case KindCinar:
		return KindCinar, true
	case KindTalib:
		return KindTalib, true
	case KindTechan:
		return KindTechan, true
	}
	return "", false
}

// Descriptor describes how to compute one indicator: which backend owns it,
// the backend-specific function id, generic default parameters, and the
// minimum number of bars required before computation is attempted.
type Descriptor struct {
	Name    string             `json:"name"`
	Kind    Kind               `json:"kind"`
	Fn      string             `json:"fn"`
	Params  map[string]float64 `json:"params"`
	MinBars int                `json:"min_bars"`
}

// Param returns a named parameter or the given default when absent.
func (d Descriptor) Param(key string, def float64) float64 {
	if v, ok := d.Params[key]; ok {
		return v
	}
	return def
}

// IntParam returns a named parameter truncated to int, or the default.
func (d Descriptor) IntParam(key string, def int) int {
	if v, ok := d.Params[key]; ok {
		return int(v)
	}
	return def
}

// Catalog is the process-wide indicator registry. Entries never change
// after build, so it is safe to share across goroutines without locking.
type Catalog struct {
	byName map[string]Descriptor
	sorted []Descriptor
}

// build constructs a catalog from entries, rejecting duplicate names.
// The registry is static configuration: a duplicate is a programming error
// and fails loudly at startup instead of silently shadowing an entry.
func build(entries []Descriptor) *Catalog {
	c := &Catalog{byName: make(map[string]Descriptor, len(entries))}
	for _, d := range entries {
		key := strings.ToLower(d.Name)
		if _, dup := c.byName[key]; dup {
			panic(fmt.Sprintf("catalog: duplicate indicator name %q", key))
		}
		d.Name = key
		c.byName[key] = d
	}
	c.sorted = make([]Descriptor, 0, len(c.byName))
	for _, d := range c.byName {
		c.sorted = append(c.sorted, d)
	}
	sort.Slice(c.sorted, func(i, j int) bool { return c.sorted[i].Name < c.sorted[j].Name })
	return c
}

// New builds a catalog from explicit descriptors. It panics on duplicate
// names, same as the default registry. Intended for tests and embedders
// that curate their own indicator set.
func New(entries []Descriptor) *Catalog { return build(entries) }

// Lookup returns the descriptor for a name (case-insensitive).
func (c *Catalog) Lookup(name string) (Descriptor, bool) {
	d, ok := c.byName[strings.ToLower(name)]
	return d, ok
}

// ListAll returns all descriptors sorted by name.
func (c *Catalog) ListAll() []Descriptor {
	return c.sorted
}

// Names returns all indicator names sorted alphabetically.
func (c *Catalog) Names() []string {
	names := make([]string, len(c.sorted))
	for i, d := range c.sorted {
		names[i] = d.Name
	}
	return names
}

// Len returns the number of registered indicators.
func (c *Catalog) Len() int { return len(c.byName) }

// defaultCatalog is built once at init from the static entry table.
var defaultCatalog = build(entries)

// Default returns the process-wide catalog.
func Default() *Catalog { return defaultCatalog }
