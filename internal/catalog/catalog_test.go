package catalog

import (
	"sort"
	"strings"
	"testing"
)

func TestDefault_NoDuplicatesAndLowercase(t *testing.T) {
	cat := Default()
	seen := make(map[string]bool, cat.Len())
	for _, d := range cat.ListAll() {
		if d.Name != strings.ToLower(d.Name) {
			t.Errorf("name %q not lowercase", d.Name)
		}
		if seen[d.Name] {
			t.Errorf("duplicate name %q", d.Name)
		}
		seen[d.Name] = true
	}
}

func TestBuild_PanicsOnDuplicate(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic on duplicate name")
		}
	}()
	build([]Descriptor{
		{Name: "sma", Kind: KindManual, Fn: "sma"},
		{Name: "SMA", Kind: KindTalib, Fn: "SMA"},
	})
}

func TestLookup_CaseInsensitive(t *testing.T) {
	cat := Default()
	for _, name := range []string{"sma", "SMA", "Sma"} {
		d, ok := cat.Lookup(name)
		if !ok {
			t.Fatalf("Lookup(%q) failed", name)
		}
		if d.Name != "sma" || d.Kind != KindManual {
			t.Errorf("Lookup(%q) = %+v", name, d)
		}
	}
	if _, ok := cat.Lookup("bogus_indicator"); ok {
		t.Fatal("expected lookup miss for unknown name")
	}
}

func TestListAll_Sorted(t *testing.T) {
	names := Default().Names()
	if !sort.StringsAreSorted(names) {
		t.Errorf("names not sorted: %v", names)
	}
	if len(names) != Default().Len() {
		t.Errorf("len mismatch: %d vs %d", len(names), Default().Len())
	}
}

func TestDescriptor_Params(t *testing.T) {
	d, _ := Default().Lookup("macd")
	if d.IntParam("fast", 0) != 12 || d.IntParam("slow", 0) != 26 || d.IntParam("signal", 0) != 9 {
		t.Errorf("unexpected macd params: %v", d.Params)
	}
	if d.IntParam("nope", 7) != 7 {
		t.Error("expected default for absent param")
	}

	b, _ := Default().Lookup("bbands")
	if b.Param("std", 0) != 2.0 {
		t.Errorf("expected bbands std=2.0, got %v", b.Param("std", 0))
	}
}

func TestMinBarsSanity(t *testing.T) {
	cases := map[string]int{
		"sma":      20,
		"rsi":      14,
		"macd":     26,
		"ichimoku": 52,
		"vwap":     1,
		"aroon":    25,
	}
	for name, want := range cases {
		d, ok := Default().Lookup(name)
		if !ok {
			t.Fatalf("missing %q", name)
		}
		if d.MinBars != want {
			t.Errorf("%s: min bars %d, want %d", name, d.MinBars, want)
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, s := range []string{"manual", "cinar", "talib", "techan"} {
		if _, ok := ParseKind(s); !ok {
			t.Errorf("ParseKind(%q) failed", s)
		}
	}
	if _, ok := ParseKind("pandas"); ok {
		t.Error("expected failure for unknown kind")
	}
}
