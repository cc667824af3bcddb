package retry

import (
	"context"
	"fmt"
	"testing"
	"time"

	"git.home.luguber.info/inful/debforge/internal/config"
	forgeerr "git.home.luguber.info/inful/debforge/internal/errors"
)

// TestDefaultPolicy verifies the baseline default values.
func TestDefaultPolicy(t *testing.T) {
	p := DefaultPolicy()
	if p.Mode != config.RetryBackoffLinear {
		t.Fatalf("expected linear default mode got %s", p.Mode)
	}
	if p.Initial != time.Second {
		t.Fatalf("expected initial 1s got %v", p.Initial)
	}
	if p.Max != 30*time.Second {
		t.Fatalf("expected max 30s got %v", p.Max)
	}
	if p.MaxRetries != 2 {
		t.Fatalf("expected max retries 2 got %d", p.MaxRetries)
	}
}

// TestFromConfigOverrides checks override precedence and clamping when initial > max.
func TestFromConfigOverrides(t *testing.T) {
	p := FromConfig(config.RetryConfig{Mode: config.RetryBackoffFixed, Initial: 5 * time.Second, Max: 2 * time.Second, MaxRetries: intPtr(5)})
	// initial > max -> clamped
	if p.Initial != 2*time.Second {
		t.Fatalf("expected clamped initial 2s got %v", p.Initial)
	}
	if p.Mode != config.RetryBackoffFixed {
		t.Fatalf("expected fixed mode got %s", p.Mode)
	}
	if p.MaxRetries != 5 {
		t.Fatalf("expected maxRetries 5 got %d", p.MaxRetries)
	}
}

// TestDelayModes ensures fixed, linear, exponential behave and respect cap.
func TestDelayModes(t *testing.T) {
	fixed := FromConfig(config.RetryConfig{Mode: config.RetryBackoffFixed, Initial: 100 * time.Millisecond, Max: 500 * time.Millisecond, MaxRetries: intPtr(3)})
	for i := 1; i <= 3; i++ {
		if d := fixed.Delay(i); d != 100*time.Millisecond {
			t.Fatalf("fixed attempt %d expected 100ms got %v", i, d)
		}
	}

	linear := FromConfig(config.RetryConfig{Mode: config.RetryBackoffLinear, Initial: 100 * time.Millisecond, Max: 250 * time.Millisecond, MaxRetries: intPtr(5)})
	cases := []struct {
		attempt int
		want    time.Duration
	}{{1, 100 * time.Millisecond}, {2, 200 * time.Millisecond}, {3, 250 * time.Millisecond}, {4, 250 * time.Millisecond}}
	for _, c := range cases {
		if got := linear.Delay(c.attempt); got != c.want {
			t.Fatalf("linear attempt %d expected %v got %v", c.attempt, c.want, got)
		}
	}

	exp := FromConfig(config.RetryConfig{Mode: config.RetryBackoffExponential, Initial: 50 * time.Millisecond, Max: 160 * time.Millisecond, MaxRetries: intPtr(5)})
	expCases := []struct {
		attempt int
		want    time.Duration
	}{{1, 50 * time.Millisecond}, {2, 100 * time.Millisecond}, {3, 160 * time.Millisecond}, {4, 160 * time.Millisecond}}
	for _, c := range expCases {
		if got := exp.Delay(c.attempt); got != c.want {
			t.Fatalf("exp attempt %d expected %v got %v", c.attempt, c.want, got)
		}
	}
}

// TestDelayEdgeCases ensures non-positive attempts yield zero and negative attempts don't panic.
func TestDelayEdgeCases(t *testing.T) {
	p := FromConfig(config.RetryConfig{Mode: config.RetryBackoffLinear, Initial: 10 * time.Millisecond, Max: 20 * time.Millisecond, MaxRetries: intPtr(1)})
	if d := p.Delay(0); d != 0 {
		t.Fatalf("attempt 0 expected 0 got %v", d)
	}
	if d := p.Delay(-1); d != 0 {
		t.Fatalf("attempt -1 expected 0 got %v", d)
	}
}

// TestUnknownModeFallsBack leaves mode default when unknown string supplied.
func TestUnknownModeFallsBack(t *testing.T) {
	p := FromConfig(config.RetryConfig{Mode: "weird", Initial: 250 * time.Millisecond, Max: 500 * time.Millisecond, MaxRetries: intPtr(1)})
	if p.Mode != config.RetryBackoffLinear {
		t.Fatalf("unknown mode should fall back to linear got %s", p.Mode)
	}
}

// TestFromConfigZeroRetries keeps an operator-supplied 0 instead of the default.
func TestFromConfigZeroRetries(t *testing.T) {
	p := FromConfig(config.RetryConfig{Mode: config.RetryBackoffFixed, Initial: time.Second, Max: time.Second, MaxRetries: intPtr(0)})
	if p.MaxRetries != 0 {
		t.Fatalf("explicit 0 expected to survive, got %d", p.MaxRetries)
	}
	q := FromConfig(config.RetryConfig{Mode: config.RetryBackoffFixed, Initial: time.Second, Max: time.Second})
	if q.MaxRetries != 2 {
		t.Fatalf("unset expected default 2, got %d", q.MaxRetries)
	}
}

func intPtr(n int) *int { return &n }

func quickPolicy(retries int) Policy {
	return Policy{Mode: config.RetryBackoffFixed, Initial: time.Millisecond, Max: time.Millisecond, MaxRetries: retries}
}

// TestDoRetriesOnlyRetryable verifies permanent errors end the loop immediately.
func TestDoRetriesOnlyRetryable(t *testing.T) {
	calls := 0
	permanent := forgeerr.New(forgeerr.CategoryAuth, forgeerr.SeverityFatal, "denied")
	err := Do(context.Background(), quickPolicy(3), func(context.Context) error {
		calls++
		return permanent
	}, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("permanent error retried: %d calls", calls)
	}
}

// TestDoSucceedsAfterTransientFailures exercises the retry loop and the onRetry hook.
func TestDoSucceedsAfterTransientFailures(t *testing.T) {
	calls := 0
	var retries []int
	err := Do(context.Background(), quickPolicy(3), func(context.Context) error {
		calls++
		if calls < 3 {
			return forgeerr.WrapRetryable(fmt.Errorf("503"), forgeerr.CategoryNetwork, forgeerr.SeverityWarning, "transient")
		}
		return nil
	}, func(retry int, err error) {
		retries = append(retries, retry)
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls got %d", calls)
	}
	if len(retries) != 2 || retries[0] != 1 || retries[1] != 2 {
		t.Fatalf("unexpected retry sequence: %v", retries)
	}
}

// TestDoExhaustsRetries returns the last error once the budget is spent.
func TestDoExhaustsRetries(t *testing.T) {
	calls := 0
	err := Do(context.Background(), quickPolicy(2), func(context.Context) error {
		calls++
		return forgeerr.WrapRetryable(fmt.Errorf("reset"), forgeerr.CategoryNetwork, forgeerr.SeverityWarning, "transient")
	}, nil)
	if err == nil {
		t.Fatal("expected error after exhaustion")
	}
	if calls != 3 { // initial attempt + 2 retries
		t.Fatalf("expected 3 calls got %d", calls)
	}
}

// TestDoHonorsCancellation stops between attempts when the context is done.
func TestDoHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := Do(ctx, quickPolicy(5), func(context.Context) error {
		return forgeerr.WrapRetryable(fmt.Errorf("x"), forgeerr.CategoryNetwork, forgeerr.SeverityWarning, "transient")
	}, nil)
	if err != context.Canceled {
		t.Fatalf("expected context.Canceled got %v", err)
	}
}
