package ringbuf

import (
	"sync"
	"testing"
	"time"

	"analysis-systemv1/internal/model"
)

func TestRing_BasicPushPop(t *testing.T) {
	r := New(4) // rounds to 4

	r1 := model.AnalysisResult{Symbol: "BTCUSDT", Rows: 100}
	r2 := model.AnalysisResult{Symbol: "ETHUSDT", Rows: 200}

	if !r.Push(r1) {
		t.Fatal("push r1 should succeed")
	}
	if !r.Push(r2) {
		t.Fatal("push r2 should succeed")
	}

	if r.Len() != 2 {
		t.Fatalf("expected len=2, got %d", r.Len())
	}

	got, ok := r.Pop()
	if !ok || got.Symbol != "BTCUSDT" {
		t.Fatalf("expected BTCUSDT, got %v ok=%v", got.Symbol, ok)
	}

	got, ok = r.Pop()
	if !ok || got.Symbol != "ETHUSDT" {
		t.Fatalf("expected ETHUSDT, got %v ok=%v", got.Symbol, ok)
	}

	_, ok = r.Pop()
	if ok {
		t.Fatal("pop from empty should return false")
	}
}

func TestRing_Overflow(t *testing.T) {
	r := New(2) // capacity = 2

	r.Push(model.AnalysisResult{Symbol: "1"})
	r.Push(model.AnalysisResult{Symbol: "2"})

	// Buffer is full
	ok := r.Push(model.AnalysisResult{Symbol: "3"})
	if ok {
		t.Fatal("push to full buffer should return false")
	}
	if r.Overflow() != 1 {
		t.Fatalf("expected overflow=1, got %d", r.Overflow())
	}
}

func TestRing_PushEvict(t *testing.T) {
	r := New(2)

	if r.PushEvict(model.AnalysisResult{Symbol: "1"}) {
		t.Fatal("push into empty ring must not evict")
	}
	if r.PushEvict(model.AnalysisResult{Symbol: "2"}) {
		t.Fatal("push into non-full ring must not evict")
	}
	if !r.PushEvict(model.AnalysisResult{Symbol: "3"}) { // evicts "1"
		t.Fatal("push into full ring must report the eviction")
	}

	if r.Len() != 2 {
		t.Fatalf("expected len=2, got %d", r.Len())
	}
	got, _ := r.Pop()
	if got.Symbol != "2" {
		t.Fatalf("expected oldest=2 after eviction, got %s", got.Symbol)
	}
	got, _ = r.Pop()
	if got.Symbol != "3" {
		t.Fatalf("expected 3, got %s", got.Symbol)
	}
}

func TestRing_Snapshot(t *testing.T) {
	r := New(4)

	r.Push(model.AnalysisResult{Symbol: "A"})
	r.Push(model.AnalysisResult{Symbol: "B"})
	r.Push(model.AnalysisResult{Symbol: "C"})

	snap := r.Snapshot()
	if len(snap) != 3 {
		t.Fatalf("expected snapshot len=3, got %d", len(snap))
	}
	for i, want := range []string{"A", "B", "C"} {
		if snap[i].Symbol != want {
			t.Errorf("snapshot[%d] = %s, want %s", i, snap[i].Symbol, want)
		}
	}

	// Snapshot must not consume
	if r.Len() != 3 {
		t.Fatalf("expected len unchanged after snapshot, got %d", r.Len())
	}
}

func TestRing_Wraparound(t *testing.T) {
	r := New(4)

	// Fill and drain multiple times to test wraparound
	for round := 0; round < 5; round++ {
		for i := 0; i < 4; i++ {
			if !r.Push(model.AnalysisResult{Symbol: "X", Rows: round*10 + i}) {
				t.Fatalf("round %d push %d failed", round, i)
			}
		}
		for i := 0; i < 4; i++ {
			res, ok := r.Pop()
			if !ok {
				t.Fatalf("round %d pop %d failed", round, i)
			}
			if res.Rows != round*10+i {
				t.Fatalf("round %d pop %d: expected rows=%d, got %d", round, i, round*10+i, res.Rows)
			}
		}
	}
}

func TestRing_SPSC_Concurrent(t *testing.T) {
	const count = 100_000
	r := New(1024)

	var wg sync.WaitGroup
	wg.Add(2)

	// Producer
	go func() {
		defer wg.Done()
		for i := 0; i < count; i++ {
			for !r.Push(model.AnalysisResult{Rows: i}) {
				// spin-wait (busy loop for test only)
			}
		}
	}()

	// Consumer
	received := make([]int, 0, count)
	go func() {
		defer wg.Done()
		for len(received) < count {
			res, ok := r.Pop()
			if ok {
				received = append(received, res.Rows)
			}
		}
	}()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("SPSC test timed out")
	}

	// Verify ordering
	for i, v := range received {
		if v != i {
			t.Fatalf("at index %d: expected %d, got %d", i, i, v)
		}
	}
}

func TestRing_NextPow2(t *testing.T) {
	cases := []struct{ in, want int }{
		{0, 1}, {1, 1}, {2, 2}, {3, 4}, {5, 8}, {7, 8}, {8, 8}, {9, 16}, {1023, 1024},
	}
	for _, tc := range cases {
		got := nextPow2(tc.in)
		if got != tc.want {
			t.Errorf("nextPow2(%d) = %d, want %d", tc.in, got, tc.want)
		}
	}
}
