package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

func quickConfig(maxRetries int) Config {
	return Config{
		MaxRetries: maxRetries,
		BaseDelay:  10 * time.Millisecond,
		MaxDelay:   100 * time.Millisecond,
		Multiplier: 2.0,
		Jitter:     false,
	}
}

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.MaxRetries != 2 {
		t.Errorf("Expected MaxRetries=2, got %d", config.MaxRetries)
	}
	if config.BaseDelay != 2*time.Second {
		t.Errorf("Expected BaseDelay=2s, got %v", config.BaseDelay)
	}
	if config.MaxDelay != 60*time.Second {
		t.Errorf("Expected MaxDelay=60s, got %v", config.MaxDelay)
	}
	if config.Multiplier != 2.5 {
		t.Errorf("Expected Multiplier=2.5, got %f", config.Multiplier)
	}
	if !config.Jitter {
		t.Error("Expected Jitter=true")
	}
}

func TestWithBackoff_FirstAttemptSuccess(t *testing.T) {
	result := WithBackoff(context.Background(), quickConfig(2), func() error {
		return nil
	})

	if !result.Success {
		t.Error("Expected success=true")
	}
	if result.Attempts != 1 {
		t.Errorf("Expected 1 attempt, got %d", result.Attempts)
	}
	if result.LastError != nil {
		t.Errorf("Expected no error, got %v", result.LastError)
	}
	if len(result.RetryReasons) != 0 {
		t.Errorf("Expected no retry reasons, got %d", len(result.RetryReasons))
	}
}

func TestWithBackoff_EventualSuccess(t *testing.T) {
	attempts := 0
	result := WithBackoff(context.Background(), quickConfig(3), func() error {
		attempts++
		if attempts < 3 {
			return errors.New("temporary failure")
		}
		return nil
	})

	if !result.Success {
		t.Error("Expected success=true")
	}
	if result.Attempts != 3 {
		t.Errorf("Expected 3 attempts, got %d", result.Attempts)
	}
	if len(result.RetryReasons) != 2 {
		t.Errorf("Expected 2 retry reasons, got %d", len(result.RetryReasons))
	}
	if result.TotalDuration == 0 {
		t.Error("Expected non-zero total duration")
	}
}

func TestWithBackoff_BudgetExhausted(t *testing.T) {
	wantErr := errors.New("service unavailable")
	result := WithBackoff(context.Background(), quickConfig(2), func() error {
		return wantErr
	})

	if result.Success {
		t.Error("Expected success=false")
	}
	if result.Attempts != 3 { // MaxRetries + 1
		t.Errorf("Expected 3 attempts, got %d", result.Attempts)
	}
	if result.LastError != wantErr {
		t.Errorf("Expected last error %v, got %v", wantErr, result.LastError)
	}
	if len(result.RetryReasons) != 3 {
		t.Errorf("Expected 3 retry reasons, got %d", len(result.RetryReasons))
	}
}

func TestWithBackoff_NonRetryableStopsImmediately(t *testing.T) {
	attempts := 0
	result := WithBackoff(context.Background(), quickConfig(5), func() error {
		attempts++
		return errors.New("permission denied")
	})

	if result.Success {
		t.Error("Expected success=false")
	}
	if result.Attempts != 1 {
		t.Errorf("Expected 1 attempt for a non-retryable error, got %d", result.Attempts)
	}
}

func TestWithBackoff_ContextCancellation(t *testing.T) {
	config := Config{
		MaxRetries: 5,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   time.Second,
		Multiplier: 2.0,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	result := WithBackoff(ctx, config, func() error {
		return errors.New("connection refused")
	})

	if result.Success {
		t.Error("Expected success=false after cancellation")
	}
	if result.Attempts > 2 {
		t.Errorf("Expected few attempts before the deadline, got %d", result.Attempts)
	}
}

func TestBackoffDelay(t *testing.T) {
	config := Config{
		BaseDelay:  time.Second,
		MaxDelay:   10 * time.Second,
		Multiplier: 2.0,
	}

	if d := backoffDelay(config, 0); d != time.Second {
		t.Errorf("Expected 1s for attempt 0, got %v", d)
	}
	if d := backoffDelay(config, 1); d != 2*time.Second {
		t.Errorf("Expected 2s for attempt 1, got %v", d)
	}
	if d := backoffDelay(config, 2); d != 4*time.Second {
		t.Errorf("Expected 4s for attempt 2, got %v", d)
	}
	if d := backoffDelay(config, 10); d != 10*time.Second {
		t.Errorf("Expected MaxDelay cap for attempt 10, got %v", d)
	}
}

func TestBackoffDelay_Jitter(t *testing.T) {
	config := Config{
		BaseDelay:  time.Second,
		MaxDelay:   10 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
	}

	expected := 2 * time.Second
	tolerance := 200 * time.Millisecond
	a := backoffDelay(config, 1)
	b := backoffDelay(config, 1)
	c := backoffDelay(config, 1)

	for _, d := range []time.Duration{a, b, c} {
		if diff := d - expected; diff < -tolerance || diff > tolerance {
			t.Errorf("delay %v strayed more than 10%% from %v", d, expected)
		}
	}
	if a == b && b == c {
		t.Error("Expected some variation with jitter enabled")
	}
}

func TestIsRetryable(t *testing.T) {
	retryable := []error{
		errors.New("connection refused"),
		errors.New("connection timeout"),
		errors.New("temporary failure"),
		errors.New("HTTP 429 Too Many Requests"),
		errors.New("HTTP 502 Bad Gateway"),
		errors.New("HTTP 503 Service Unavailable"),
		errors.New("DNS lookup failed"),
		errors.New("context deadline exceeded"),
	}
	for _, err := range retryable {
		if !IsRetryable(err) {
			t.Errorf("Expected %v to be retryable", err)
		}
	}

	nonRetryable := []error{
		errors.New("invalid input"),
		errors.New("permission denied"),
		errors.New("HTTP 400 Bad Request"),
		errors.New("HTTP 401 Unauthorized"),
		errors.New("HTTP 404 Not Found"),
	}
	for _, err := range nonRetryable {
		if IsRetryable(err) {
			t.Errorf("Expected %v to NOT be retryable", err)
		}
	}

	if IsRetryable(nil) {
		t.Error("Expected nil error to NOT be retryable")
	}
}
