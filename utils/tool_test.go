package utils

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestClamp(t *testing.T) {
	if got := Clamp(1.5, 0.0, 1.0); got != 1.0 {
		t.Errorf("Clamp(1.5) = %f, want 1.0", got)
	}
	if got := Clamp(-0.2, 0.0, 1.0); got != 0.0 {
		t.Errorf("Clamp(-0.2) = %f, want 0.0", got)
	}
	if got := Clamp(0.42, 0.0, 1.0); got != 0.42 {
		t.Errorf("Clamp(0.42) = %f, want 0.42", got)
	}
}

func TestInSlice(t *testing.T) {
	categories := []string{"maintenance", "insurance"}
	if got := InSlice(categories, "insurance"); got != 1 {
		t.Errorf("InSlice = %d, want 1", got)
	}
	if got := InSlice(categories, "levies"); got != -1 {
		t.Errorf("InSlice of absent value = %d, want -1", got)
	}
}

func TestContainsAny(t *testing.T) {
	if !ContainsAny("please speak to a human", []string{"human", "manager"}) {
		t.Error("expected match")
	}
	if ContainsAny("all good here", []string{"human", "manager"}) {
		t.Error("unexpected match")
	}
	if ContainsAny("anything", nil) {
		t.Error("empty substring list must not match")
	}
}

func TestGetTTLWithJitter(t *testing.T) {
	if got := GetTTLWithJitter(0); got != 0 {
		t.Errorf("zero base TTL must yield 0, got %v", got)
	}

	base := int64(100)
	for i := 0; i < 50; i++ {
		ttl := GetTTLWithJitter(base)
		if ttl < 100*time.Second || ttl > 110*time.Second {
			t.Fatalf("jittered TTL %v outside [100s, 110s]", ttl)
		}
	}
}

func TestRetry(t *testing.T) {
	calls := 0
	err := Retry(context.Background(), 3, time.Millisecond, func() error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Errorf("retry should have succeeded on third call, got %v", err)
	}
	if calls != 3 {
		t.Errorf("fn called %d times, want 3", calls)
	}

	calls = 0
	wantErr := errors.New("still failing")
	err = Retry(context.Background(), 2, time.Millisecond, func() error {
		calls++
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("exhausted retry must return the last error, got %v", err)
	}
	if calls != 2 {
		t.Errorf("fn called %d times, want 2", calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err = Retry(ctx, 5, time.Second, func() error { return errors.New("x") })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled context must stop retries, got %v", err)
	}
}

func TestParseDateFromLogFileName(t *testing.T) {
	loc := time.UTC

	parsed, ok := ParseDateFromLogFileName("run.log.2026-08-30", loc)
	if !ok {
		t.Fatal("expected a parse")
	}
	if parsed.Year() != 2026 || parsed.Month() != time.August || parsed.Day() != 30 {
		t.Errorf("parsed %v, want 2026-08-30", parsed)
	}

	for _, name := range []string{"run.log", "data.db", "run.log.yesterday"} {
		if _, ok := ParseDateFromLogFileName(name, loc); ok {
			t.Errorf("%q must not parse as a dated log file", name)
		}
	}
}

func TestNextBackoffDoubles(t *testing.T) {
	start := time.Now()
	_ = Retry(context.Background(), 3, 2*time.Millisecond, func() error {
		return errors.New("always")
	})
	// Two waits: 2ms then 4ms.
	if elapsed := time.Since(start); elapsed < 6*time.Millisecond {
		t.Errorf("backoff too short: %v", elapsed)
	}
}
