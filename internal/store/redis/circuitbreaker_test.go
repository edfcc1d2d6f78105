package redis

import (
	"errors"
	"testing"
	"time"
)

var errWriteFail = errors.New("write fail")

func tripBreaker(cb *CircuitBreaker, n int) {
	for i := 0; i < n; i++ {
		cb.Execute(func() error { return errWriteFail })
	}
}

func TestCircuitBreaker_ClosedByDefault(t *testing.T) {
	cb := NewCircuitBreaker(3, 100*time.Millisecond)
	if cb.CurrentState() != StateClosed {
		t.Errorf("expected Closed, got %v", cb.CurrentState())
	}
	if cb.Failures() != 0 {
		t.Errorf("fresh breaker should have 0 failures, got %d", cb.Failures())
	}
}

func TestCircuitBreaker_OpensAtThreshold(t *testing.T) {
	cb := NewCircuitBreaker(3, 100*time.Millisecond)

	tripBreaker(cb, 2)
	if cb.CurrentState() != StateClosed {
		t.Fatal("breaker opened below the threshold")
	}
	if cb.Failures() != 2 {
		t.Errorf("failures = %d, want 2", cb.Failures())
	}

	tripBreaker(cb, 1)
	if cb.CurrentState() != StateOpen {
		t.Errorf("expected Open after 3 failures, got %v", cb.CurrentState())
	}

	// While open, calls are rejected before reaching the writer.
	called := false
	err := cb.Execute(func() error { called = true; return nil })
	if !errors.Is(err, ErrCircuitOpen) {
		t.Errorf("expected ErrCircuitOpen, got %v", err)
	}
	if called {
		t.Error("open breaker must not invoke the write")
	}
}

func TestCircuitBreaker_ProbeClosesOnSuccess(t *testing.T) {
	cb := NewCircuitBreaker(2, 50*time.Millisecond)
	tripBreaker(cb, 2)
	if cb.CurrentState() != StateOpen {
		t.Fatal("expected Open")
	}

	time.Sleep(60 * time.Millisecond)

	if err := cb.Execute(func() error { return nil }); err != nil {
		t.Fatalf("probe should pass through: %v", err)
	}
	if cb.CurrentState() != StateClosed {
		t.Errorf("expected Closed after successful probe, got %v", cb.CurrentState())
	}
	if cb.Failures() != 0 {
		t.Errorf("close must reset failures, got %d", cb.Failures())
	}
}

func TestCircuitBreaker_ProbeFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(2, 50*time.Millisecond)
	tripBreaker(cb, 2)

	time.Sleep(60 * time.Millisecond)
	tripBreaker(cb, 1)

	if cb.CurrentState() != StateOpen {
		t.Errorf("expected Open after failed probe, got %v", cb.CurrentState())
	}
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	cb := NewCircuitBreaker(3, 100*time.Millisecond)

	tripBreaker(cb, 2)
	cb.Execute(func() error { return nil })
	tripBreaker(cb, 2)

	if cb.CurrentState() != StateClosed {
		t.Errorf("expected Closed, a success in between resets the count, got %v", cb.CurrentState())
	}
}

func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	var transitions []State
	cb := NewCircuitBreaker(1, 50*time.Millisecond)
	cb.OnStateChange = func(from, to State) {
		transitions = append(transitions, to)
	}

	tripBreaker(cb, 1)
	if len(transitions) != 1 || transitions[0] != StateOpen {
		t.Errorf("expected [open], got %v", transitions)
	}

	time.Sleep(60 * time.Millisecond)
	cb.Execute(func() error { return nil })

	if len(transitions) != 3 || transitions[1] != StateHalfOpen || transitions[2] != StateClosed {
		t.Errorf("expected [open half-open closed], got %v", transitions)
	}
}

func TestCircuitBreaker_StateStrings(t *testing.T) {
	for s, want := range map[State]string{
		StateClosed:   "closed",
		StateOpen:     "open",
		StateHalfOpen: "half-open",
		State(9):      "unknown",
	} {
		if s.String() != want {
			t.Errorf("State(%d).String() = %q, want %q", s, s.String(), want)
		}
	}
}
