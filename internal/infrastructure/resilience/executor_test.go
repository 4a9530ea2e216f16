package resilience

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
)

func retryingClassifier(error) ErrorClassification {
	return ErrorClassification{Retryable: true, RecordFailure: true}
}

func permanentClassifier(error) ErrorClassification {
	return ErrorClassification{Retryable: false, RecordFailure: true}
}

func TestExecuteRetriesTemporaryFailure(t *testing.T) {
	e := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})

	calls := 0
	err := e.Execute(context.Background(), "embed", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("temporary")
		}
		return nil
	}, retryingClassifier)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestExecuteStopsAtMaxAttempts(t *testing.T) {
	e := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})

	wantErr := errors.New("still broken")
	calls := 0
	err := e.Execute(context.Background(), "embed", func(context.Context) error {
		calls++
		return wantErr
	}, retryingClassifier)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected final attempt error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 attempts, got %d", calls)
	}
}

func TestExecuteDoesNotRetryPermanentFailure(t *testing.T) {
	e := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})

	wantErr := errors.New("bad request")
	calls := 0
	err := e.Execute(context.Background(), "embed", func(context.Context) error {
		calls++
		return wantErr
	}, permanentClassifier)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected original error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestExecuteHonorsCancelledContext(t *testing.T) {
	e := NewExecutor(Config{
		RetryMaxAttempts:    3,
		RetryInitialBackoff: time.Millisecond,
		RetryMaxBackoff:     2 * time.Millisecond,
		RetryMultiplier:     2,
		BreakerEnabled:      false,
	})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := e.Execute(ctx, "embed", func(context.Context) error {
		calls++
		return errors.New("temporary")
	}, retryingClassifier)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no attempts on cancelled context, got %d", calls)
	}
}

func TestExecuteOpensCircuitAfterFailures(t *testing.T) {
	e := NewExecutor(Config{
		RetryMaxAttempts:        1,
		RetryInitialBackoff:     time.Millisecond,
		RetryMaxBackoff:         time.Millisecond,
		RetryMultiplier:         1,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	})

	fail := func(context.Context) error { return errors.New("provider down") }
	for i := 0; i < 2; i++ {
		if err := e.Execute(context.Background(), "generate", fail, retryingClassifier); err == nil {
			t.Fatal("expected failure")
		}
	}

	err := e.Execute(context.Background(), "generate", fail, retryingClassifier)
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected open circuit, got %v", err)
	}
	if !IsCircuitOpen(err) {
		t.Fatal("IsCircuitOpen must recognize the breaker error")
	}
}

func TestBreakersAreIsolatedPerOperation(t *testing.T) {
	e := NewExecutor(Config{
		RetryMaxAttempts:        1,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	})

	fail := func(context.Context) error { return errors.New("provider down") }
	for i := 0; i < 3; i++ {
		_ = e.Execute(context.Background(), "embed", fail, retryingClassifier)
	}

	err := e.Execute(context.Background(), "generate", func(context.Context) error { return nil }, retryingClassifier)
	if err != nil {
		t.Fatalf("open embed breaker must not affect generate: %v", err)
	}
}

func TestExecuteIgnoredFailuresDoNotTrip(t *testing.T) {
	e := NewExecutor(Config{
		RetryMaxAttempts:        1,
		BreakerEnabled:          true,
		BreakerMinRequests:      2,
		BreakerFailureRatio:     0.5,
		BreakerOpenTimeout:      time.Minute,
		BreakerHalfOpenMaxCalls: 1,
	})

	ignored := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}
	fail := func(context.Context) error { return errors.New("client mistake") }
	for i := 0; i < 5; i++ {
		if err := e.Execute(context.Background(), "embed", fail, ignored); errors.Is(err, gobreaker.ErrOpenState) {
			t.Fatalf("non-recorded failures tripped the breaker on call %d", i+1)
		}
	}
}
