package llm

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// flakyClient fails n times then succeeds.
type flakyClient struct {
	failures int32
	failWith error
}

func (f *flakyClient) Complete(_ context.Context, _ CompletionRequest) (CompletionResponse, error) {
	if atomic.AddInt32(&f.failures, -1) >= 0 {
		return CompletionResponse{}, f.failWith
	}
	return CompletionResponse{Content: "ok"}, nil
}

func (f *flakyClient) ModelName() string { return "flaky" }

func fastRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    3,
		InitialDelay:  time.Millisecond,
		MaxDelay:      5 * time.Millisecond,
		BackoffFactor: 2.0,
	}
}

func TestRetryableClient_RetriesTransient(t *testing.T) {
	inner := &flakyClient{failures: 2, failWith: NewError(ErrorTypeTransient, "boom")}
	client := NewRetryableClient(inner, fastRetryConfig())

	resp, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []CompletionMessage{NewUserMessage("hi")},
	})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Content)
}

func TestRetryableClient_DoesNotRetryAuth(t *testing.T) {
	inner := &flakyClient{failures: 10, failWith: NewError(ErrorTypeAuth, "bad key")}
	client := NewRetryableClient(inner, fastRetryConfig())

	_, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []CompletionMessage{NewUserMessage("hi")},
	})
	require.Error(t, err)
	assert.Equal(t, ErrorTypeAuth, Classify(err))
	// One initial attempt only: 10 scripted failures minus 1 consumed.
	assert.Equal(t, int32(9), atomic.LoadInt32(&inner.failures))
}

func TestRetryableClient_ExhaustsRetries(t *testing.T) {
	inner := &flakyClient{failures: 10, failWith: NewError(ErrorTypeRateLimit, "slow down")}
	client := NewRetryableClient(inner, fastRetryConfig())

	_, err := client.Complete(context.Background(), CompletionRequest{
		Messages: []CompletionMessage{NewUserMessage("hi")},
	})
	require.Error(t, err)
	assert.Equal(t, ErrorTypeRateLimit, Classify(err))
}

func TestRetryableClient_HonorsContextCancel(t *testing.T) {
	inner := &flakyClient{failures: 10, failWith: NewError(ErrorTypeTransient, "boom")}
	cfg := fastRetryConfig()
	cfg.InitialDelay = time.Hour // forces the cancel path during backoff
	client := NewRetryableClient(inner, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	_, err := client.Complete(ctx, CompletionRequest{
		Messages: []CompletionMessage{NewUserMessage("hi")},
	})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClassify_PlainError(t *testing.T) {
	assert.Equal(t, ErrorTypeUnknown, Classify(assert.AnError))
}

func TestErrorTypeRetryable(t *testing.T) {
	assert.True(t, ErrorTypeRateLimit.Retryable())
	assert.True(t, ErrorTypeTransient.Retryable())
	assert.True(t, ErrorTypeEmptyResponse.Retryable())
	assert.False(t, ErrorTypeAuth.Retryable())
	assert.False(t, ErrorTypeBadPrompt.Retryable())
	assert.False(t, ErrorTypeUnknown.Retryable())
}
