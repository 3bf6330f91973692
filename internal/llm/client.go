// Package llm adapts external language model providers behind a single
// Client interface.
//
// Two call shapes are supported: chat completions built from prompt
// text assembled locally, and provider-side prompt templates addressed
// by id (the Responses API). Template runs may be started in the
// background, in which case the caller gets back a response id to poll
// with GetResponse until the status turns terminal.
package llm

import (
	"context"
	"errors"
	"time"
)

// Client errors.
var (
	// ErrNotConfigured is returned when a client is built without an API key.
	ErrNotConfigured = errors.New("llm: API key not configured")

	// ErrNotSupported is returned when a provider cannot serve the
	// requested call shape (e.g. prompt templates on Gemini).
	ErrNotSupported = errors.New("llm: operation not supported by provider")

	// ErrNoCompletion is returned when the provider answers with no choices.
	ErrNoCompletion = errors.New("llm: no completion returned")
)

// Status is the lifecycle state of a provider-side response.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
	StatusIncomplete Status = "incomplete"
)

// Terminal reports whether the status ends the response lifecycle.
// Unknown statuses are treated as still running so pollers keep going.
func (s Status) Terminal() bool {
	switch s {
	case StatusCompleted, StatusFailed, StatusCancelled, StatusIncomplete:
		return true
	}
	return false
}

// Usage reports token consumption for a single call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ChatRequest is a locally-assembled system+user message pair.
type ChatRequest struct {
	System      string
	User        string
	MaxTokens   int     // 0 means provider default
	Temperature float64 // 0 means provider default
	JSONOnly    bool    // ask the provider for a JSON object response
}

// ChatResponse is the completed result of a chat call.
type ChatResponse struct {
	ID      string
	Model   string
	Content string
	Usage   Usage
}

// ResponseRequest runs a prompt template published with the provider.
type ResponseRequest struct {
	// PromptID addresses the server-side template.
	PromptID string

	// Version pins a template version; empty means latest.
	Version string

	// Variables fill the template's placeholders.
	Variables map[string]string

	// Background enqueues the run and returns immediately with an id
	// to poll instead of blocking until completion.
	Background bool

	// MaxOutputTokens caps the response length; 0 means provider default.
	MaxOutputTokens int
}

// Response is the current state of a template run. For background
// runs Output stays empty until Status is StatusCompleted.
type Response struct {
	ID     string
	Model  string
	Status Status
	Output string
	Usage  Usage

	// Error carries the provider-reported failure detail when Status
	// is StatusFailed or StatusIncomplete.
	Error string
}

// Client is the provider adapter used by all agents.
type Client interface {
	// CreateResponse runs a server-side prompt template.
	CreateResponse(ctx context.Context, req ResponseRequest) (*Response, error)

	// GetResponse fetches the current state of a template run by id.
	GetResponse(ctx context.Context, id string) (*Response, error)

	// ChatCompletion sends a system+user message pair and waits for
	// the completed answer.
	ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error)

	// Provider names the backing provider for metadata stamping.
	Provider() string

	// Model returns the configured model id.
	Model() string
}

// Config holds provider-agnostic client settings.
type Config struct {
	APIKey     string
	BaseURL    string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}
