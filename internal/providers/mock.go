package providers

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

const MockName = "mock"

// MockProvider is a CaptionProvider for testing.
type MockProvider struct {
	// Configurable behavior
	Latency    time.Duration
	ShouldFail bool
	FailFirst  int // Fail the first N requests, then succeed.
	Response   Caption

	// Rate limiting
	RPS        float64
	Retries    int
	RetryDelay time.Duration

	requestCount atomic.Int64
}

// NewMockProvider creates a mock provider with sensible defaults.
func NewMockProvider() *MockProvider {
	return &MockProvider{
		Response:   Caption{Title: "mock title", Tags: []string{"#mock", "#test", "#image"}},
		RPS:        100,
		Retries:    3,
		RetryDelay: time.Millisecond,
	}
}

// Name returns the provider identifier.
func (m *MockProvider) Name() string {
	return MockName
}

// RequestsPerSecond returns the rate limit.
func (m *MockProvider) RequestsPerSecond() float64 {
	return m.RPS
}

// MaxRetries returns the maximum retry attempts.
func (m *MockProvider) MaxRetries() int {
	return m.Retries
}

// RetryDelayBase returns the base delay between retries.
func (m *MockProvider) RetryDelayBase() time.Duration {
	return m.RetryDelay
}

// Caption returns the configured response after the configured latency.
func (m *MockProvider) Caption(ctx context.Context, _ []byte) (*Caption, error) {
	n := m.requestCount.Add(1)

	if m.Latency > 0 {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(m.Latency):
		}
	}

	if m.ShouldFail || n <= int64(m.FailFirst) {
		return nil, fmt.Errorf("mock caption failure (request %d)", n)
	}

	c := m.Response
	return &c, nil
}

// RequestCount returns how many Caption calls have been made.
func (m *MockProvider) RequestCount() int64 {
	return m.requestCount.Load()
}

// Verify interface
var _ CaptionProvider = (*MockProvider)(nil)
