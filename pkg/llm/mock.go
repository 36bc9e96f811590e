package llm

import (
	"context"
	"sync"
)

// MockClient is a scripted Client for tests. Responses are consumed in
// order; when the script runs out, the last entry repeats.
type MockClient struct {
	mu        sync.Mutex
	responses []CompletionResponse
	err       error
	calls     []CompletionRequest
}

// NewMockClient creates a mock that replays the given responses.
func NewMockClient(responses ...CompletionResponse) *MockClient {
	return &MockClient{responses: responses}
}

// NewFailingMockClient creates a mock that always returns err.
func NewFailingMockClient(err error) *MockClient {
	return &MockClient{err: err}
}

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, in CompletionRequest) (CompletionResponse, error) {
	if err := ctx.Err(); err != nil {
		return CompletionResponse{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, in)
	if m.err != nil {
		return CompletionResponse{}, m.err
	}
	if len(m.responses) == 0 {
		return CompletionResponse{Content: ""}, nil
	}

	idx := len(m.calls) - 1
	if idx >= len(m.responses) {
		idx = len(m.responses) - 1
	}
	return m.responses[idx], nil
}

// ModelName implements Client.
func (m *MockClient) ModelName() string { return "mock-model" }

// Calls returns a copy of the requests seen so far.
func (m *MockClient) Calls() []CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]CompletionRequest, len(m.calls))
	copy(out, m.calls)
	return out
}
