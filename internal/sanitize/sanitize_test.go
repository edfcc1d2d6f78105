package sanitize

import (
	"encoding/json"
	"math"
	"reflect"
	"testing"
	"time"
)

func TestValue_NonFiniteBecomesNil(t *testing.T) {
	cases := []float64{math.NaN(), math.Inf(1), math.Inf(-1)}
	for _, c := range cases {
		if got := Value(c); got != nil {
			t.Errorf("Value(%v) = %v, want nil", c, got)
		}
	}
	if got := Value(1.5); got != 1.5 {
		t.Errorf("finite float must pass through, got %v", got)
	}
}

func TestValue_TimeToRFC3339(t *testing.T) {
	ts := time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)
	got := Value(ts)
	if got != "2024-03-01T12:30:00Z" {
		t.Errorf("got %v", got)
	}
}

func TestValue_NestedContainers(t *testing.T) {
	in := map[string]any{
		"symbol": "BTCUSDT",
		"rows":   3,
		"data": []any{
			map[string]any{"close": 100.5, "SMA_20": math.NaN()},
			map[string]any{"close": math.Inf(1), "date": time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)},
		},
	}
	got := Value(in).(map[string]any)

	data := got["data"].([]any)
	row0 := data[0].(map[string]any)
	if row0["SMA_20"] != nil {
		t.Errorf("nested NaN should be nil, got %v", row0["SMA_20"])
	}
	if row0["close"] != 100.5 {
		t.Errorf("finite value lost: %v", row0["close"])
	}
	row1 := data[1].(map[string]any)
	if row1["close"] != nil {
		t.Errorf("nested +Inf should be nil, got %v", row1["close"])
	}
	if row1["date"] != "2024-01-01T00:00:00Z" {
		t.Errorf("nested time not formatted: %v", row1["date"])
	}
}

func TestValue_FloatSlice(t *testing.T) {
	got := Value([]float64{1, math.NaN(), 3}).([]any)
	if got[0] != 1.0 || got[1] != nil || got[2] != 3.0 {
		t.Errorf("unexpected: %v", got)
	}
}

func TestValue_NonStringMapKeys(t *testing.T) {
	got := Value(map[int]float64{1: math.NaN(), 2: 5}).(map[string]any)
	if got["1"] != nil {
		t.Errorf("expected nil under key 1, got %v", got["1"])
	}
	if got["2"] != 5.0 {
		t.Errorf("expected 5 under key 2, got %v", got["2"])
	}
}

func TestValue_Idempotent(t *testing.T) {
	in := map[string]any{
		"a": math.NaN(),
		"b": []any{1.0, math.Inf(-1), "x"},
		"t": time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	}
	once := Value(in)
	twice := Value(once)
	if !reflect.DeepEqual(once, twice) {
		t.Errorf("not idempotent:\nonce:  %#v\ntwice: %#v", once, twice)
	}
}

func TestValue_OutputAlwaysEncodable(t *testing.T) {
	in := map[string]any{
		"nan":   math.NaN(),
		"inf":   math.Inf(1),
		"rows":  []float64{math.NaN(), 1, math.Inf(-1)},
		"time":  time.Now(),
		"mixed": map[int]any{7: math.NaN()},
	}
	if _, err := json.Marshal(Value(in)); err != nil {
		t.Fatalf("sanitized output must encode: %v", err)
	}
}

func TestMarshal(t *testing.T) {
	out := Marshal(map[string]any{"x": math.NaN(), "y": 2.0})
	var back map[string]any
	if err := json.Unmarshal(out, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back["x"] != nil || back["y"] != 2.0 {
		t.Errorf("unexpected roundtrip: %v", back)
	}
}

func TestValue_NilAndPointers(t *testing.T) {
	if Value(nil) != nil {
		t.Error("nil must stay nil")
	}
	var p *float64
	if Value(p) != nil {
		t.Error("nil pointer must become nil")
	}
	v := math.NaN()
	if Value(&v) != nil {
		t.Error("pointer to NaN must become nil")
	}
}
