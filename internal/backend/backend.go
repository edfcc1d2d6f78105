// Package backend implements the four indicator computation backends behind
// one adapter contract: manual closed-form math, cinar/indicator, go-talib,
// and techan. Each adapter encapsulates its library's calling conventions in
// a static binding table and converts every failure, panics included, into
// a (false, reason) outcome. No adapter failure escapes to the caller.
package backend

import (
	"fmt"
	"strings"

	"analysis-systemv1/internal/catalog"
	"analysis-systemv1/internal/frame"
)

// Adapter is the uniform contract all four backends implement.
type Adapter interface {
	// Kind returns the backend kind this adapter serves.
	Kind() catalog.Kind

	// Has reports whether the backend exposes a function for the given id.
	// Ids are matched case-insensitively, so a fallback lookup by indicator
	// name finds same-named functions in alternate backends.
	Has(fnID string) bool

	// Apply computes the indicator and merges its output columns into f.
	// On failure f is left unmodified and reason is non-empty. Apply never
	// panics: internal errors are recovered into the reason string.
	Apply(f *frame.Frame, name string, d catalog.Descriptor) (ok bool, reason string)
}

// Capabilities records which backends are usable for the process lifetime.
// It is constructed once at startup and injected into the dispatcher, so
// tests can run with synthetic capability sets.
type Capabilities struct {
	Manual bool
	Cinar  bool
	Talib  bool
	Techan bool
}

// Detect probes backend availability at process start. All four backends
// are compiled in, so the production answer is all-true; the probe exists
// so callers depend on a capability value rather than ambient state.
func Detect() Capabilities {
	return Capabilities{Manual: true, Cinar: true, Talib: true, Techan: true}
}

// Usable reports whether the given backend kind can be invoked.
func (c Capabilities) Usable(k catalog.Kind) bool {
	switch k {
	case catalog.KindManual:
		return c.Manual
	case catalog.KindCinar:
		return c.Cinar
	case catalog.KindTalib:
		return c.Talib
	case catalog.KindTechan:
		return c.Techan
	}
	return false
}

// NewAdapters returns one adapter per backend kind.
func NewAdapters() map[catalog.Kind]Adapter {
	return map[catalog.Kind]Adapter{
		catalog.KindManual: NewManual(),
		catalog.KindCinar:  NewCinar(),
		catalog.KindTalib:  NewTalib(),
		catalog.KindTechan: NewTechan(),
	}
}

// insufficientReason is the shared bar-count failure text. The dispatcher
// and every adapter produce the identical string for a given minimum.
func insufficientReason(minBars int) string {
	return fmt.Sprintf("insufficient data (need %d)", minBars)
}

// panicReason converts a recovered panic value into a diagnostic reason.
func panicReason(r any) string {
	if err, ok := r.(error); ok {
		return fmt.Sprintf("%T: %v", err, err)
	}
	return fmt.Sprintf("panic: %v", r)
}

// lowerID normalizes a function id for table lookup.
func lowerID(id string) string { return strings.ToLower(id) }

// isPriceColumn reports whether a result column duplicates one of the five
// input price columns. Such columns are filtered before merging.
func isPriceColumn(name string) bool {
	switch strings.ToLower(name) {
	case "open", "high", "low", "close", "volume":
		return true
	}
	return false
}

// column is one named output series produced by a backend call.
type column struct {
	name string
	vals []float64
}

// mergeColumns validates and merges backend output into the frame. Every
// column must match the frame's row count; price-identity columns are
// dropped. All lengths are checked before the first write, so a mismatch
// anywhere in the batch leaves the frame untouched. Returns a failure if
// nothing was merged.
func mergeColumns(f *frame.Frame, cols []column) (bool, string) {
	kept := cols[:0:0]
	for _, c := range cols {
		if isPriceColumn(c.name) {
			continue
		}
		if len(c.vals) != f.Len() {
			return false, fmt.Sprintf("length mismatch: expected %d, got %d", f.Len(), len(c.vals))
		}
		kept = append(kept, c)
	}
	if len(kept) == 0 {
		return false, "no indicator columns added"
	}
	for _, c := range kept {
		f.SetColumn(c.name, c.vals)
	}
	return true, "ok"
}

// gate runs the preconditions shared by all adapters: bar-count minimum and
// required input columns. required is nil for backends needing full OHLCV.
func gate(f *frame.Frame, d catalog.Descriptor, required []string) (bool, string) {
	if f.Len() < d.MinBars {
		return false, insufficientReason(d.MinBars)
	}
	if required == nil {
		if missing := f.MissingOHLCV(); len(missing) > 0 {
			return false, frame.MissingColumnsReason(missing)
		}
		return true, "ok"
	}
	var missing []string
	for _, c := range required {
		if _, ok := f.Column(c); !ok {
			missing = append(missing, c)
		}
	}
	if len(missing) > 0 {
		return false, frame.MissingColumnsReason(missing)
	}
	return true, "ok"
}

// ohlcv pulls the five price columns out of a frame. Callers gate() first.
func ohlcv(f *frame.Frame) (open, high, low, closes, volume []float64) {
	open, _ = f.Column(frame.ColOpen)
	high, _ = f.Column(frame.ColHigh)
	low, _ = f.Column(frame.ColLow)
	closes, _ = f.Column(frame.ColClose)
	volume, _ = f.Column(frame.ColVolume)
	return
}
