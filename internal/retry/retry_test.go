// Encore - Concert and Event Listing Aggregator
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/encore

package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

// recordSleep captures requested pauses without waiting.
func recordSleep(delays *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	}
}

func TestPolicyDelayAndTimeout(t *testing.T) {
	p := Policy{BaseDelay: 2 * time.Second, FirstTimeout: 20 * time.Second, RetryTimeout: 12 * time.Second}

	for attempt, want := range map[int]time.Duration{0: 0, 1: 2 * time.Second, 2: 4 * time.Second, 3: 6 * time.Second} {
		if got := p.Delay(attempt); got != want {
			t.Errorf("Delay(%d) = %v, want %v", attempt, got, want)
		}
	}
	if p.Timeout(1) != 20*time.Second || p.Timeout(2) != 12*time.Second || p.Timeout(3) != 12*time.Second {
		t.Errorf("Timeout() = %v/%v/%v", p.Timeout(1), p.Timeout(2), p.Timeout(3))
	}
	p.RetryTimeout = 0
	if p.Timeout(2) != 20*time.Second {
		t.Errorf("Timeout(2) without RetryTimeout = %v", p.Timeout(2))
	}
}

func TestPolicyBudget(t *testing.T) {
	p := Policy{MaxAttempts: 3, BaseDelay: 2 * time.Second, FirstTimeout: 20 * time.Second, RetryTimeout: 12 * time.Second}
	// 20 + 2 + 12 + 4 + 12
	if got := p.Budget(); got != 50*time.Second {
		t.Errorf("Budget() = %v, want 50s", got)
	}
	if got := p.WithAttempts(1).Budget(); got != 20*time.Second {
		t.Errorf("single attempt Budget() = %v, want 20s", got)
	}
}

func TestDo_SucceedsAfterFailures(t *testing.T) {
	var delays []time.Duration
	var retried []int
	p := Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Sleep:       recordSleep(&delays),
		OnRetry:     func(attempt int, _ time.Duration, _ error) { retried = append(retried, attempt) },
	}

	calls := 0
	got, err := Do(context.Background(), p, func(_ context.Context, attempt int) (string, error) {
		calls++
		if attempt < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil || got != "ok" {
		t.Fatalf("Do() = %q, %v", got, err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if len(delays) != 2 || delays[0] != time.Second || delays[1] != 2*time.Second {
		t.Errorf("delays = %v, want [1s 2s]", delays)
	}
	if len(retried) != 2 || retried[0] != 1 || retried[1] != 2 {
		t.Errorf("OnRetry attempts = %v", retried)
	}
}

func TestDo_Exhausted(t *testing.T) {
	var delays []time.Duration
	p := Policy{MaxAttempts: 2, BaseDelay: time.Millisecond, Sleep: recordSleep(&delays)}
	cause := errors.New("down")

	_, err := Do(context.Background(), p, func(context.Context, int) (int, error) { return 0, cause })
	if !errors.Is(err, ErrExhausted) || !errors.Is(err, cause) {
		t.Fatalf("error = %v, want ErrExhausted wrapping cause", err)
	}
	if len(delays) != 1 {
		t.Errorf("no pause after the final attempt, got %v", delays)
	}
}

func TestDo_Permanent(t *testing.T) {
	cause := errors.New("unauthorized")
	calls := 0
	_, err := Do(context.Background(), Policy{MaxAttempts: 5}, func(context.Context, int) (int, error) {
		calls++
		return 0, Permanent(cause)
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
	if err != cause {
		t.Errorf("error = %v, want the unwrapped cause", err)
	}
	if Permanent(nil) != nil {
		t.Error("Permanent(nil) should be nil")
	}
	if !IsPermanent(Permanent(cause)) || IsPermanent(cause) {
		t.Error("IsPermanent mismatch")
	}
}

func TestDo_ContextCanceledDuringPause(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := Policy{
		MaxAttempts: 3,
		BaseDelay:   time.Hour,
		Sleep: func(ctx context.Context, _ time.Duration) error {
			cancel()
			return ctx.Err()
		},
	}
	_, err := Do(ctx, p, func(context.Context, int) (int, error) { return 0, errors.New("fail") })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("error = %v, want context.Canceled", err)
	}
}

func TestDo_PerAttemptTimeouts(t *testing.T) {
	p := Policy{
		MaxAttempts:  2,
		FirstTimeout: 20 * time.Millisecond,
		RetryTimeout: time.Second,
		BaseDelay:    30 * time.Millisecond,
	}

	start := time.Now()
	got, err := Do(context.Background(), p, func(ctx context.Context, attempt int) (string, error) {
		if attempt == 1 {
			<-ctx.Done() // first attempt hangs until its own timeout
			return "", ctx.Err()
		}
		if _, ok := ctx.Deadline(); !ok {
			return "", errors.New("retry attempt has no deadline")
		}
		return "second", nil
	})
	elapsed := time.Since(start)

	if err != nil || got != "second" {
		t.Fatalf("Do() = %q, %v", got, err)
	}
	if elapsed < 50*time.Millisecond {
		t.Errorf("elapsed %v should include the first timeout and the backoff pause", elapsed)
	}
}

func TestDo_ZeroAttemptsRunsOnce(t *testing.T) {
	calls := 0
	_, _ = Do(context.Background(), Policy{}, func(context.Context, int) (int, error) {
		calls++
		return 0, errors.New("x")
	})
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}
