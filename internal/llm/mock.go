package llm

import (
	"context"
	"fmt"
	"sync"
)

// MockClient is a scriptable in-memory Client for tests and local
// development. Hook functions override individual calls; without
// hooks the mock answers deterministically and background runs
// complete after CompleteAfter polls.
type MockClient struct {
	// ChatFunc overrides ChatCompletion when set.
	ChatFunc func(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// CreateFunc overrides CreateResponse when set.
	CreateFunc func(ctx context.Context, req ResponseRequest) (*Response, error)

	// GetFunc overrides GetResponse when set.
	GetFunc func(ctx context.Context, id string) (*Response, error)

	// CompleteAfter is how many GetResponse polls a background run
	// stays in progress before completing. Zero completes on the
	// first poll.
	CompleteAfter int

	mu          sync.Mutex
	seq         int
	polls       map[string]int
	chatCalls   []ChatRequest
	createCalls []ResponseRequest
	getCalls    []string
}

// NewMockClient creates a mock with default canned answers.
func NewMockClient() *MockClient {
	return &MockClient{polls: make(map[string]int)}
}

// Provider returns "mock".
func (m *MockClient) Provider() string { return "mock" }

// Model returns a fixed model id.
func (m *MockClient) Model() string { return "mock-1" }

const mockPayload = `{"status":"mock"}`

// ChatCompletion records the call and returns the scripted or canned answer.
func (m *MockClient) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	m.mu.Lock()
	m.chatCalls = append(m.chatCalls, req)
	m.seq++
	seq := m.seq
	m.mu.Unlock()

	if m.ChatFunc != nil {
		return m.ChatFunc(ctx, req)
	}
	return &ChatResponse{
		ID:      fmt.Sprintf("chatcmpl_mock_%d", seq),
		Model:   m.Model(),
		Content: mockPayload,
		Usage:   Usage{PromptTokens: 12, CompletionTokens: 7, TotalTokens: 19},
	}, nil
}

// CreateResponse records the call. Background requests come back
// queued; synchronous ones complete immediately.
func (m *MockClient) CreateResponse(ctx context.Context, req ResponseRequest) (*Response, error) {
	m.mu.Lock()
	m.createCalls = append(m.createCalls, req)
	m.seq++
	id := fmt.Sprintf("resp_mock_%d", m.seq)
	m.polls[id] = 0
	m.mu.Unlock()

	if m.CreateFunc != nil {
		return m.CreateFunc(ctx, req)
	}

	if req.Background {
		return &Response{ID: id, Model: m.Model(), Status: StatusQueued}, nil
	}
	return &Response{
		ID:     id,
		Model:  m.Model(),
		Status: StatusCompleted,
		Output: mockPayload,
		Usage:  Usage{PromptTokens: 20, CompletionTokens: 11, TotalTokens: 31},
	}, nil
}

// GetResponse records the call and walks the run toward completion.
func (m *MockClient) GetResponse(ctx context.Context, id string) (*Response, error) {
	m.mu.Lock()
	m.getCalls = append(m.getCalls, id)
	count, known := m.polls[id]
	if known {
		m.polls[id] = count + 1
	}
	m.mu.Unlock()

	if m.GetFunc != nil {
		return m.GetFunc(ctx, id)
	}
	if !known {
		return nil, fmt.Errorf("response not found: %s", id)
	}

	if count < m.CompleteAfter {
		return &Response{ID: id, Model: m.Model(), Status: StatusInProgress}, nil
	}
	return &Response{
		ID:     id,
		Model:  m.Model(),
		Status: StatusCompleted,
		Output: mockPayload,
		Usage:  Usage{PromptTokens: 20, CompletionTokens: 11, TotalTokens: 31},
	}, nil
}

// ChatCalls returns a copy of the recorded chat requests.
func (m *MockClient) ChatCalls() []ChatRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ChatRequest, len(m.chatCalls))
	copy(out, m.chatCalls)
	return out
}

// CreateCalls returns a copy of the recorded template requests.
func (m *MockClient) CreateCalls() []ResponseRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]ResponseRequest, len(m.createCalls))
	copy(out, m.createCalls)
	return out
}

// GetCalls returns a copy of the recorded poll ids.
func (m *MockClient) GetCalls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.getCalls))
	copy(out, m.getCalls)
	return out
}
