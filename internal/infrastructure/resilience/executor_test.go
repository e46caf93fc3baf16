package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func retryableClassifier(error) ErrorClassification {
	return ErrorClassification{Retryable: true, RecordFailure: true}
}

func terminalClassifier(error) ErrorClassification {
	return ErrorClassification{Retryable: false, RecordFailure: true}
}

func TestExecuteSingleAttemptByDefault(t *testing.T) {
	executor := NewExecutor(Config{BreakerEnabled: false})

	calls := 0
	err := executor.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return errors.New("always fails")
	}, retryableClassifier)

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("default config must make exactly one attempt, made %d", calls)
	}
}

func TestExecuteRetriesUpToMaxAttempts(t *testing.T) {
	executor := NewExecutor(Config{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     2 * time.Millisecond,
		BreakerEnabled: false,
	})

	calls := 0
	err := executor.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, retryableClassifier)

	if err != nil {
		t.Fatalf("expected recovery on third attempt, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("calls = %d, want 3", calls)
	}
}

func TestExecuteDoesNotRetryTerminalErrors(t *testing.T) {
	executor := NewExecutor(Config{
		MaxAttempts:    5,
		InitialBackoff: time.Millisecond,
		BreakerEnabled: false,
	})

	calls := 0
	err := executor.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return errors.New("terminal")
	}, terminalClassifier)

	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 1 {
		t.Fatalf("terminal errors must not retry, made %d calls", calls)
	}
}

func TestExecuteHonorsContextCancellation(t *testing.T) {
	executor := NewExecutor(Config{
		MaxAttempts:    10,
		InitialBackoff: time.Hour,
		BreakerEnabled: false,
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- executor.Execute(ctx, "op", func(context.Context) error {
			return errors.New("transient")
		}, retryableClassifier)
	}()

	cancel()
	select {
	case err := <-done:
		if err == nil {
			t.Fatal("expected error after cancellation")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("executor did not return after context cancellation")
	}
}

func TestCircuitOpensAfterFailureRatio(t *testing.T) {
	executor := NewExecutor(Config{
		MaxAttempts:         1,
		BreakerEnabled:      true,
		BreakerMinRequests:  3,
		BreakerFailureRatio: 0.5,
		BreakerOpenTimeout:  time.Minute,
	})

	fail := func(context.Context) error { return errors.New("boom") }
	for i := 0; i < 3; i++ {
		_ = executor.Execute(context.Background(), "flaky", fail, retryableClassifier)
	}

	err := executor.Execute(context.Background(), "flaky", fail, retryableClassifier)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open circuit, got %v", err)
	}
}

func TestBreakersAreIsolatedPerOperation(t *testing.T) {
	executor := NewExecutor(Config{
		MaxAttempts:         1,
		BreakerEnabled:      true,
		BreakerMinRequests:  3,
		BreakerFailureRatio: 0.5,
		BreakerOpenTimeout:  time.Minute,
	})

	fail := func(context.Context) error { return errors.New("boom") }
	for i := 0; i < 4; i++ {
		_ = executor.Execute(context.Background(), "broken-op", fail, retryableClassifier)
	}

	err := executor.Execute(context.Background(), "healthy-op", func(context.Context) error {
		return nil
	}, retryableClassifier)
	if err != nil {
		t.Fatalf("unrelated operation must not share the open circuit: %v", err)
	}
}

func TestUnrecordedFailuresDoNotTrip(t *testing.T) {
	executor := NewExecutor(Config{
		MaxAttempts:         1,
		BreakerEnabled:      true,
		BreakerMinRequests:  3,
		BreakerFailureRatio: 0.5,
		BreakerOpenTimeout:  time.Minute,
	})

	ignored := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}
	fail := func(context.Context) error { return errors.New("client mistake") }
	for i := 0; i < 10; i++ {
		_ = executor.Execute(context.Background(), "op", fail, ignored)
	}

	err := executor.Execute(context.Background(), "op", fail, ignored)
	if IsCircuitOpen(err) {
		t.Fatal("unrecorded failures must not open the circuit")
	}
}
