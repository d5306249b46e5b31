package retry

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"strings"
	"time"

	"snippetcorpus/internal/application/common/slogger"
)

// RetryConfig defines retry behavior.
type RetryConfig struct {
	MaxRetries    int           `json:"max_retries"`
	InitialDelay  time.Duration `json:"initial_delay"`
	MaxDelay      time.Duration `json:"max_delay"`
	BackoffFactor float64       `json:"backoff_factor"`
	Jitter        bool          `json:"jitter"`
}

// DefaultRetryConfig returns a default retry configuration.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxRetries:    3,
		InitialDelay:  100 * time.Millisecond,
		MaxDelay:      5 * time.Second,
		BackoffFactor: 2.0,
		Jitter:        true,
	}
}

// RetryableOperation represents an operation that can be retried.
type RetryableOperation func(ctx context.Context) error

// RetryableChecker is an interface for custom retry logic.
type RetryableChecker interface {
	IsRetryable(err error) bool
}

// DelayHint is implemented by errors that know when the next attempt may succeed,
// such as a rate limit that resets at a fixed time.
type DelayHint interface {
	RetryAfter() time.Duration
}

// RetryExecutor handles retry logic with exponential backoff.
type RetryExecutor struct {
	config           *RetryConfig
	retryableChecker RetryableChecker
}

// NewRetryExecutor creates a new retry executor with default retry behavior.
func NewRetryExecutor(config *RetryConfig) *RetryExecutor {
	return NewRetryExecutorWithChecker(config, nil)
}

// NewRetryExecutorWithChecker creates a new retry executor with custom retry behavior.
func NewRetryExecutorWithChecker(config *RetryConfig, checker RetryableChecker) *RetryExecutor {
	if config == nil {
		config = DefaultRetryConfig()
	}
	if checker == nil {
		checker = &DefaultRetryableChecker{}
	}
	return &RetryExecutor{
		config:           config,
		retryableChecker: checker,
	}
}

// Execute executes an operation with retry logic.
func (r *RetryExecutor) Execute(ctx context.Context, operation RetryableOperation) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.delayFor(attempt, lastErr)
			slogger.Debug(ctx, "Retrying operation after delay", slogger.Fields3(
				"attempt", attempt,
				"max_retries", r.config.MaxRetries,
				"delay_ms", delay.Milliseconds(),
			))

			timer := time.NewTimer(delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
		}

		err := operation(ctx)
		if err == nil {
			if attempt > 0 {
				slogger.Info(ctx, "Operation succeeded after retries", slogger.Field("attempt", attempt+1))
			}
			return nil
		}

		lastErr = err

		if !r.retryableChecker.IsRetryable(err) {
			return err
		}

		slogger.Warn(ctx, "Operation failed, will retry", slogger.Fields3(
			"error", err.Error(),
			"attempt", attempt+1,
			"max_retries", r.config.MaxRetries,
		))
	}

	return fmt.Errorf("operation failed after %d retries: %w", r.config.MaxRetries, lastErr)
}

// delayFor honours an error's DelayHint, otherwise falls back to exponential backoff.
// Either way the result never exceeds MaxDelay.
func (r *RetryExecutor) delayFor(attempt int, lastErr error) time.Duration {
	var hint DelayHint
	if errors.As(lastErr, &hint) {
		if d := hint.RetryAfter(); d > 0 {
			return min(d, r.config.MaxDelay)
		}
	}
	return r.calculateDelay(attempt)
}

// calculateDelay calculates the delay for a given attempt using exponential backoff.
func (r *RetryExecutor) calculateDelay(attempt int) time.Duration {
	delay := float64(r.config.InitialDelay) * math.Pow(r.config.BackoffFactor, float64(attempt-1))

	if delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}

	// up to ±25% jitter
	if r.config.Jitter {
		jitterRange := delay * 0.25
		delay += (rand.Float64()*2 - 1) * jitterRange
	}

	return time.Duration(delay)
}

// DefaultRetryableChecker implements basic retry logic for common transient errors.
type DefaultRetryableChecker struct{}

// IsRetryable checks if an error should be retried based on common patterns.
func (d *DefaultRetryableChecker) IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}

	var hint DelayHint
	if errors.As(err, &hint) {
		return true
	}

	return containsAny(strings.ToLower(err.Error()), []string{
		"connection refused",
		"connection reset",
		"timeout",
		"deadlock",
		"too many connections",
		"temporary",
		"try again",
		"resource temporarily unavailable",
		"network is unreachable",
		"no route to host",
		"bad gateway",
		"service unavailable",
	})
}

// containsAny checks if the string contains any of the substrings.
func containsAny(s string, substrings []string) bool {
	for _, substr := range substrings {
		if strings.Contains(s, substr) {
			return true
		}
	}
	return false
}

// WithRetry executes a function with retry logic using the default configuration.
func WithRetry(ctx context.Context, operation RetryableOperation) error {
	return NewRetryExecutor(DefaultRetryConfig()).Execute(ctx, operation)
}

// WithRetryAndChecker executes a function with custom retry configuration and checker.
func WithRetryAndChecker(
	ctx context.Context,
	config *RetryConfig,
	checker RetryableChecker,
	operation RetryableOperation,
) error {
	return NewRetryExecutorWithChecker(config, checker).Execute(ctx, operation)
}
