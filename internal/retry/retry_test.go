package retry

import (
	"errors"
	"testing"
	"time"
)

func TestDo_SucceedsFirstTry(t *testing.T) {
	var slept []time.Duration
	p := Policy{MaxAttempts: 3, Sleep: func(d time.Duration) { slept = append(slept, d) }}

	calls := 0
	err := p.Do(func() error { calls++; return nil })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 || len(slept) != 0 {
		t.Fatalf("want 1 call and no sleeps, got %d calls, %d sleeps", calls, len(slept))
	}
}

func TestDo_RetriesThenSucceeds(t *testing.T) {
	var slept []time.Duration
	p := Policy{
		MaxAttempts:     3,
		InitialInterval: time.Second,
		Sleep:           func(d time.Duration) { slept = append(slept, d) },
	}

	calls := 0
	err := p.Do(func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("want 3 calls, got %d", calls)
	}
	if len(slept) != 2 {
		t.Fatalf("want 2 sleeps, got %d", len(slept))
	}
	// Backoff intervals must increase.
	if slept[1] <= 0 || slept[0] <= 0 {
		t.Fatalf("non-positive sleep durations: %v", slept)
	}
}

func TestDo_GivesUpAfterBudget(t *testing.T) {
	var slept []time.Duration
	p := Policy{MaxAttempts: 3, Sleep: func(d time.Duration) { slept = append(slept, d) }}

	boom := errors.New("still failing")
	calls := 0
	err := p.Do(func() error { calls++; return boom })
	if !errors.Is(err, boom) {
		t.Fatalf("want last error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("want exactly 3 attempts, got %d", calls)
	}
	// No sleep after the final attempt.
	if len(slept) != 2 {
		t.Fatalf("want 2 sleeps, got %d", len(slept))
	}
}

func TestDo_ZeroAttemptsStillRunsOnce(t *testing.T) {
	p := Policy{}
	calls := 0
	_ = p.Do(func() error { calls++; return nil })
	if calls != 1 {
		t.Fatalf("want 1 call, got %d", calls)
	}
}
