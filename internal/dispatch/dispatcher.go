// Package dispatch routes indicator requests to backends. Each indicator
// runs through a priority chain derived from its descriptor: the native
// backend first, then the remaining library backends in a fixed order for
// any that expose a same-named function. Failures are isolated per
// indicator; one bad request never aborts the batch.
package dispatch

import (
	"fmt"
	"strings"

	"analysis-systemv1/internal/backend"
	"analysis-systemv1/internal/catalog"
	"analysis-systemv1/internal/frame"
	"analysis-systemv1/internal/model"
)

// LibraryNone labels skips recorded before any backend was attempted.
const LibraryNone = "none"

// Dispatcher holds the catalog, the adapter set, and the capability
// snapshot. It is immutable after construction and safe for concurrent use.
type Dispatcher struct {
	catalog  *catalog.Catalog
	adapters map[catalog.Kind]backend.Adapter
	caps     backend.Capabilities
}

// New builds a dispatcher over the given catalog and capabilities.
func New(cat *catalog.Catalog, adapters map[catalog.Kind]backend.Adapter, caps backend.Capabilities) *Dispatcher {
	return &Dispatcher{catalog: cat, adapters: adapters, caps: caps}
}

// Outcome is the result of one Compute call. Frame is an enriched copy of
// the input; the original is never mutated. Libraries records which backend
// produced each computed indicator.
type Outcome struct {
	Frame     *frame.Frame
	Computed  []string
	Libraries map[string]string
	Skipped   []model.Skip
}

// link is one step of an indicator's fallback chain: an adapter plus the
// descriptor to hand it. Fallback links rebind Fn to the indicator name so
// the alternate backend resolves its own same-named function.
type link struct {
	adapter backend.Adapter
	desc    catalog.Descriptor
}

// chain builds the priority chain for a descriptor under the current
// capabilities. The native backend leads; the external backends follow in
// catalog.Kinds order. The manual backend only ever serves descriptors it
// natively owns, so it never appears as a fallback.
func (dp *Dispatcher) chain(d catalog.Descriptor) []link {
	var links []link
	if dp.caps.Usable(d.Kind) {
		links = append(links, link{dp.adapters[d.Kind], d})
	}
	for _, k := range catalog.Kinds {
		if k == d.Kind || k == catalog.KindManual || !dp.caps.Usable(k) {
			continue
		}
		a := dp.adapters[k]
		if !a.Has(d.Name) {
			continue
		}
		alt := d
		alt.Fn = d.Name
		links = append(links, link{a, alt})
	}
	return links
}

// Compute resolves and computes the requested indicators over f, returning
// an enriched copy. It errors only when there is no data to work on; every
// per-indicator problem becomes a skip entry instead. Requested names are
// normalized to lower case, and every occurrence lands in exactly one of
// Computed or Skipped, so the outcome counts always add up to the request
// length. A duplicate occurrence recomputes the same column.
func (dp *Dispatcher) Compute(f *frame.Frame, names []string) (*Outcome, error) {
	if f == nil || f.Len() == 0 {
		return nil, fmt.Errorf("dispatch: no rows to analyze")
	}
	out := &Outcome{Frame: f.Copy(), Libraries: make(map[string]string)}
	for _, raw := range names {
		name := strings.ToLower(strings.TrimSpace(raw))

		d, ok := dp.catalog.Lookup(name)
		if !ok {
			out.Skipped = append(out.Skipped, model.Skip{Name: name, Reason: "unknown indicator", Library: LibraryNone})
			continue
		}
		if out.Frame.Len() < d.MinBars {
			out.Skipped = append(out.Skipped, model.Skip{
				Name: name, Reason: fmt.Sprintf("insufficient data (need %d)", d.MinBars), Library: LibraryNone,
			})
			continue
		}
		links := dp.chain(d)
		if len(links) == 0 {
			out.Skipped = append(out.Skipped, model.Skip{
				Name: name, Reason: fmt.Sprintf("%s backend not available", d.Kind), Library: LibraryNone,
			})
			continue
		}

		lastReason, lastLib := "", LibraryNone
		done := false
		for _, l := range links {
			ok, reason := l.adapter.Apply(out.Frame, name, l.desc)
			if ok {
				out.Computed = append(out.Computed, name)
				out.Libraries[name] = string(l.adapter.Kind())
				done = true
				break
			}
			lastReason, lastLib = reason, string(l.adapter.Kind())
		}
		if !done {
			out.Skipped = append(out.Skipped, model.Skip{Name: name, Reason: lastReason, Library: lastLib})
		}
	}
	return out, nil
}
