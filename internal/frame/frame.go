// Package frame provides an ordered-column table over OHLCV bars.
//
// A Frame is a time index plus named float64 columns, kept in insertion
// order. Indicator backends append columns to it; the dispatcher copies a
// frame before the first mutation so caller data is never touched.
package frame

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"analysis-systemv1/internal/model"
)

// The five price columns every backend recognises.
const (
	ColOpen   = "Open"
	ColHigh   = "High"
	ColLow    = "Low"
	ColClose  = "Close"
	ColVolume = "Volume"
)

// OHLCVColumns lists the required price columns in canonical order.
var OHLCVColumns = []string{ColOpen, ColHigh, ColLow, ColClose, ColVolume}

// Frame is an ordered sequence of bars with named float64 columns.
// Missing values are NaN. Column order is insertion order; setting an
// existing column replaces its values in place (last write wins).
type Frame struct {
	index []time.Time
	order []string
	cols  map[string][]float64
}

// New builds a frame from bars, populating the index and the five OHLCV
// columns. Bars must be in ascending timestamp order with no duplicates.
func New(bars []model.Bar) (*Frame, error) {
	f := &Frame{
		index: make([]time.Time, len(bars)),
		cols:  make(map[string][]float64, 8),
	}
	open := make([]float64, len(bars))
	high := make([]float64, len(bars))
	low := make([]float64, len(bars))
	closes := make([]float64, len(bars))
	volume := make([]float64, len(bars))

	for i, b := range bars {
		if i > 0 && !bars[i-1].TS.Before(b.TS) {
			return nil, fmt.Errorf("bar %d: timestamp %s not after %s", i, b.TS, bars[i-1].TS)
		}
		f.index[i] = b.TS
		open[i] = b.Open
		high[i] = b.High
		low[i] = b.Low
		closes[i] = b.Close
		volume[i] = b.Volume
	}

	f.SetColumn(ColOpen, open)
	f.SetColumn(ColHigh, high)
	f.SetColumn(ColLow, low)
	f.SetColumn(ColClose, closes)
	f.SetColumn(ColVolume, volume)
	return f, nil
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.index) }

// Index returns the time index. Callers must not mutate it.
func (f *Frame) Index() []time.Time { return f.index }

// Names returns column names in insertion order.
func (f *Frame) Names() []string { return f.order }

// Column returns the values for a named column. The second return is false
// if the column does not exist.
func (f *Frame) Column(name string) ([]float64, bool) {
	vals, ok := f.cols[name]
	return vals, ok
}

// SetColumn stores values under name. An existing column is overwritten in
// place, keeping its original position. Values of the wrong length are the
// caller's bug; adapters length-check before merging.
func (f *Frame) SetColumn(name string, vals []float64) {
	if _, exists := f.cols[name]; !exists {
		f.order = append(f.order, name)
	}
	f.cols[name] = vals
}

// MissingOHLCV returns the required price columns that are absent, in
// canonical order. Empty means the frame is complete.
func (f *Frame) MissingOHLCV() []string {
	var missing []string
	for _, c := range OHLCVColumns {
		if _, ok := f.cols[c]; !ok {
			missing = append(missing, c)
		}
	}
	return missing
}

// HasOHLCV reports whether all five price columns are present.
func (f *Frame) HasOHLCV() bool { return len(f.MissingOHLCV()) == 0 }

// MissingColumnsReason formats the standard failure reason for absent
// price columns, e.g. "Missing OHLCV columns: High, Volume".
func MissingColumnsReason(missing []string) string {
	return "Missing OHLCV columns: " + strings.Join(missing, ", ")
}

// Copy returns a deep copy: the index slice and every column are cloned so
// mutations of the copy never reach the original.
func (f *Frame) Copy() *Frame {
	out := &Frame{
		index: append([]time.Time(nil), f.index...),
		order: append([]string(nil), f.order...),
		cols:  make(map[string][]float64, len(f.cols)),
	}
	for name, vals := range f.cols {
		out.cols[name] = append([]float64(nil), vals...)
	}
	return out
}

// Records materializes the frame as row-major records with the index under
// the "date" key. Values are raw float64 (possibly NaN); callers wanting
// JSON-safe output route the result through the sanitize package.
func (f *Frame) Records() []map[string]any {
	records := make([]map[string]any, f.Len())
	for i := range f.index {
		row := make(map[string]any, len(f.order)+1)
		row["date"] = f.index[i]
		for _, name := range f.order {
			row[name] = f.cols[name][i]
		}
		records[i] = row
	}
	return records
}

// SortedNames returns column names sorted alphabetically. Used by tests and
// deterministic debug output; Records keeps insertion order semantics.
func (f *Frame) SortedNames() []string {
	names := append([]string(nil), f.order...)
	sort.Strings(names)
	return names
}

// NaNCount returns how many values in the named column are NaN. Returns -1
// if the column does not exist.
func (f *Frame) NaNCount(name string) int {
	vals, ok := f.cols[name]
	if !ok {
		return -1
	}
	n := 0
	for _, v := range vals {
		if math.IsNaN(v) {
			n++
		}
	}
	return n
}
