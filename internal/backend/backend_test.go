package backend

import (
	"errors"
	"math"
	"testing"

	"analysis-systemv1/internal/catalog"
)

func TestCapabilities_Usable(t *testing.T) {
	caps := Capabilities{Manual: true, Talib: true}
	if !caps.Usable(catalog.KindManual) || !caps.Usable(catalog.KindTalib) {
		t.Error("expected manual and talib usable")
	}
	if caps.Usable(catalog.KindCinar) || caps.Usable(catalog.KindTechan) {
		t.Error("expected cinar and techan unusable")
	}
	if caps.Usable(catalog.Kind("pandas")) {
		t.Error("unknown kind must be unusable")
	}
}

func TestDetect_AllCompiledIn(t *testing.T) {
	caps := Detect()
	if !caps.Manual || !caps.Cinar || !caps.Talib || !caps.Techan {
		t.Errorf("expected all backends usable, got %+v", caps)
	}
}

func TestNewAdapters_CoversAllKinds(t *testing.T) {
	adapters := NewAdapters()
	for _, k := range []catalog.Kind{catalog.KindManual, catalog.KindCinar, catalog.KindTalib, catalog.KindTechan} {
		a, ok := adapters[k]
		if !ok {
			t.Fatalf("no adapter for %s", k)
		}
		if a.Kind() != k {
			t.Errorf("adapter for %s reports kind %s", k, a.Kind())
		}
	}
}

func TestMergeColumns_LengthMismatch(t *testing.T) {
	f := newFrame(t, barsFromCloses(100, 101, 102))
	ok, reason := mergeColumns(f, []column{{"X", []float64{1, 2}}})
	if ok {
		t.Fatal("expected failure")
	}
	if reason != "length mismatch: expected 3, got 2" {
		t.Errorf("unexpected reason: %q", reason)
	}
	if _, exists := f.Column("X"); exists {
		t.Error("mismatched column must not be added")
	}
}

func TestMergeColumns_MismatchLeavesFrameUntouched(t *testing.T) {
	// A bad length anywhere in the batch rejects the whole batch, even the
	// columns that would have merged cleanly on their own.
	f := newFrame(t, barsFromCloses(100, 101, 102))
	ok, reason := mergeColumns(f, []column{
		{"GOOD", []float64{1, 2, 3}},
		{"BAD", []float64{1, 2}},
	})
	if ok {
		t.Fatal("expected failure")
	}
	if reason != "length mismatch: expected 3, got 2" {
		t.Errorf("unexpected reason: %q", reason)
	}
	if _, exists := f.Column("GOOD"); exists {
		t.Error("valid column must not survive a failed merge")
	}
	if _, exists := f.Column("BAD"); exists {
		t.Error("mismatched column must not be added")
	}
}

func TestMergeColumns_FiltersPriceIdentity(t *testing.T) {
	f := newFrame(t, barsFromCloses(100, 101, 102))
	ok, reason := mergeColumns(f, []column{
		{"close", []float64{1, 2, 3}},
		{"TYPPRICE", []float64{1, 2, 3}},
	})
	if !ok {
		t.Fatalf("merge failed: %s", reason)
	}
	vals, _ := f.Column("Close")
	if vals[0] != 100 {
		t.Error("input close column must be untouched")
	}
	if _, exists := f.Column("close"); exists {
		t.Error("price-identity output must be filtered")
	}
	if _, exists := f.Column("TYPPRICE"); !exists {
		t.Error("real output column missing")
	}
}

func TestMergeColumns_AllFilteredFails(t *testing.T) {
	f := newFrame(t, barsFromCloses(100, 101))
	ok, reason := mergeColumns(f, []column{{"Volume", []float64{1, 2}}})
	if ok {
		t.Fatal("expected failure when every column is filtered")
	}
	if reason != "no indicator columns added" {
		t.Errorf("unexpected reason: %q", reason)
	}
}

func TestPanicReason(t *testing.T) {
	if got := panicReason(errors.New("index out of range")); got != "*errors.errorString: index out of range" {
		t.Errorf("unexpected error reason: %q", got)
	}
	if got := panicReason("boom"); got != "panic: boom" {
		t.Errorf("unexpected string reason: %q", got)
	}
}

func TestInsufficientReason(t *testing.T) {
	if got := insufficientReason(14); got != "insufficient data (need 14)" {
		t.Errorf("unexpected reason: %q", got)
	}
}

func TestRollingStd_SampleVariance(t *testing.T) {
	vals := rollingStd([]float64{100, 102, 104}, 3)
	assertNaN(t, "std[1]", vals[1])
	assertClose(t, "std[2]", vals[2], 2.0, 1e-9)
}

func TestShift_BothDirections(t *testing.T) {
	fwd := shift([]float64{1, 2, 3, 4}, 2)
	assertNaN(t, "fwd[0]", fwd[0])
	assertNaN(t, "fwd[1]", fwd[1])
	assertClose(t, "fwd[2]", fwd[2], 1, 0)
	assertClose(t, "fwd[3]", fwd[3], 2, 0)

	back := shift([]float64{1, 2, 3, 4}, -2)
	assertClose(t, "back[0]", back[0], 3, 0)
	assertClose(t, "back[1]", back[1], 4, 0)
	assertNaN(t, "back[2]", back[2])
	assertNaN(t, "back[3]", back[3])
}

func TestEwmAlpha_SkipsLeadingNaN(t *testing.T) {
	vals := ewmAlpha([]float64{math.NaN(), 10, 20}, 0.5, 2)
	assertNaN(t, "ewm[0]", vals[0])
	assertNaN(t, "ewm[1]", vals[1]) // only one observation seen
	assertClose(t, "ewm[2]", vals[2], 15, 1e-9)
}
