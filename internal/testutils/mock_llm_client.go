// Package testutils provides deterministic test doubles for the jury engine.
package testutils

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ahrav/go-jury/internal/ports"
)

var _ ports.LLMClient = (*MockLLMClient)(nil)

// MockResponse defines a pre-configured reply for prompts containing Pattern.
// An empty Pattern matches every prompt.
type MockResponse struct {
	Pattern  string
	Response string
	Err      error
}

// MockLLMClient implements ports.LLMClient with scripted replies.
// Queued replies are consumed first, in order; after that, pattern replies
// are matched in the order they were added. It is safe for concurrent use.
type MockLLMClient struct {
	mu       sync.Mutex
	model    string
	queue    []MockResponse
	patterns []MockResponse
	calls    []MockCall
}

// MockCall records one Complete invocation.
type MockCall struct {
	Prompt  string
	Options map[string]any
}

// NewMockLLMClient creates a client reporting model.
func NewMockLLMClient(model string) *MockLLMClient {
	return &MockLLMClient{model: model}
}

// Enqueue appends one-shot replies. Each reply is returned once.
func (m *MockLLMClient) Enqueue(responses ...MockResponse) *MockLLMClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, responses...)
	return m
}

// AddResponse adds a reusable reply for prompts containing the pattern.
func (m *MockLLMClient) AddResponse(response MockResponse) *MockLLMClient {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.patterns = append(m.patterns, response)
	return m
}

// Complete implements ports.LLMClient.
func (m *MockLLMClient) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if prompt == "" {
		return "", fmt.Errorf("prompt cannot be empty")
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, MockCall{Prompt: prompt, Options: options})

	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next.Response, next.Err
	}

	for _, r := range m.patterns {
		if r.Pattern == "" || strings.Contains(prompt, r.Pattern) {
			return r.Response, r.Err
		}
	}
	return "", fmt.Errorf("mock: no response configured for prompt")
}

// EstimateTokens approximates four characters per token.
func (m *MockLLMClient) EstimateTokens(text string) (int, error) {
	if text == "" {
		return 0, nil
	}
	return max(len(text)/4, 1), nil
}

// GetModel implements ports.LLMClient.
func (m *MockLLMClient) GetModel() string { return m.model }

// Calls returns a copy of the recorded invocations.
func (m *MockLLMClient) Calls() []MockCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]MockCall(nil), m.calls...)
}
