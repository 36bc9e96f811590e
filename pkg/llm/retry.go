package llm

import (
	"context"
	"math"
	"math/rand"
	"time"
)

// RetryConfig defines exponential backoff behavior for retryable errors.
type RetryConfig struct {
	MaxRetries    int
	InitialDelay  time.Duration
	MaxDelay      time.Duration
	BackoffFactor float64
	Jitter        bool
}

// DefaultRetryConfig provides reasonable defaults. A voice turn cannot wait
// long, so the envelope is tighter than a batch workload would use.
//
//nolint:gochecknoglobals // package default
var DefaultRetryConfig = RetryConfig{
	MaxRetries:    2,
	InitialDelay:  200 * time.Millisecond,
	MaxDelay:      2 * time.Second,
	BackoffFactor: 2.0,
	Jitter:        true,
}

// RetryableClient wraps a Client with classified-error retry logic.
type RetryableClient struct {
	client Client
	config RetryConfig
}

// NewRetryableClient wraps client with the given retry configuration.
func NewRetryableClient(client Client, config RetryConfig) *RetryableClient {
	return &RetryableClient{client: client, config: config}
}

// Complete implements Client, retrying rate-limit/transient/empty errors with
// exponential backoff. Auth and bad-prompt errors fail immediately.
func (r *RetryableClient) Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error) {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		if attempt > 0 {
			delay := r.backoffDelay(attempt)
			select {
			case <-ctx.Done():
				return CompletionResponse{}, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := r.client.Complete(ctx, in)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if !Classify(err).Retryable() {
			return CompletionResponse{}, err
		}
	}

	return CompletionResponse{}, lastErr
}

// ModelName implements Client.
func (r *RetryableClient) ModelName() string {
	return r.client.ModelName()
}

func (r *RetryableClient) backoffDelay(attempt int) time.Duration {
	delay := float64(r.config.InitialDelay) * math.Pow(r.config.BackoffFactor, float64(attempt-1))
	if delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}
	if r.config.Jitter {
		delay *= 0.5 + rand.Float64()*0.5 //nolint:gosec // jitter, not crypto
	}
	return time.Duration(delay)
}
