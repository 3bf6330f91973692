package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// OpenAIClient implements Client against the OpenAI HTTP API.
// Chat completions go through /chat/completions; prompt templates go
// through /responses, which also backs the background polling flow.
type OpenAIClient struct {
	apiKey       string
	baseURL      string
	model        string
	maxRetries   int
	retryBackoff time.Duration
	httpClient   *http.Client
	logger       *zap.Logger

	mu          sync.Mutex
	lastRequest time.Time
}

// DefaultOpenAIConfig returns sensible defaults.
func DefaultOpenAIConfig(apiKey string) Config {
	return Config{
		APIKey:     apiKey,
		BaseURL:    "https://api.openai.com/v1",
		Model:      "gpt-4o",
		Timeout:    120 * time.Second,
		MaxRetries: 3,
	}
}

// NewOpenAIClient creates a new OpenAI client. Zero-value config
// fields fall back to DefaultOpenAIConfig values.
func NewOpenAIClient(cfg Config, logger *zap.Logger) *OpenAIClient {
	defaults := DefaultOpenAIConfig(cfg.APIKey)
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.BaseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaults.Model
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = defaults.MaxRetries
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &OpenAIClient{
		apiKey:       cfg.APIKey,
		baseURL:      strings.TrimSuffix(cfg.BaseURL, "/"),
		model:        cfg.Model,
		maxRetries:   cfg.MaxRetries,
		retryBackoff: time.Second,
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		logger:       logger.Named("openai"),
	}
}

// Provider returns "openai".
func (c *OpenAIClient) Provider() string { return "openai" }

// Model returns the configured model.
func (c *OpenAIClient) Model() string { return c.model }

// chat completions wire format

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponseFormat struct {
	Type string `json:"type"` // "json_object"
}

type chatRequest struct {
	Model          string              `json:"model"`
	Messages       []chatMessage       `json:"messages"`
	MaxTokens      int                 `json:"max_tokens,omitempty"`
	Temperature    float64             `json:"temperature,omitempty"`
	ResponseFormat *chatResponseFormat `json:"response_format,omitempty"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index   int `json:"index"`
		Message struct {
			Role    string `json:"role"`
			Content string `json:"content"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage Usage     `json:"usage"`
	Error *apiError `json:"error,omitempty"`
}

// responses API wire format

type responsePrompt struct {
	ID        string            `json:"id"`
	Version   string            `json:"version,omitempty"`
	Variables map[string]string `json:"variables,omitempty"`
}

type responseRequest struct {
	Model           string          `json:"model,omitempty"`
	Prompt          *responsePrompt `json:"prompt"`
	Background      bool            `json:"background,omitempty"`
	MaxOutputTokens int             `json:"max_output_tokens,omitempty"`
}

type responseBody struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Model  string `json:"model"`
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content,omitempty"`
	} `json:"output"`
	Usage *struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
		TotalTokens  int `json:"total_tokens"`
	} `json:"usage,omitempty"`
	Error *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
	IncompleteDetails *struct {
		Reason string `json:"reason"`
	} `json:"incomplete_details,omitempty"`
}

// outputText concatenates the message output_text parts.
func (b *responseBody) outputText() string {
	var sb strings.Builder
	for _, item := range b.Output {
		if item.Type != "message" {
			continue
		}
		for _, part := range item.Content {
			if part.Type == "output_text" {
				sb.WriteString(part.Text)
			}
		}
	}
	return sb.String()
}

func (b *responseBody) toResponse() *Response {
	resp := &Response{
		ID:     b.ID,
		Model:  b.Model,
		Status: Status(b.Status),
		Output: b.outputText(),
	}
	if b.Usage != nil {
		resp.Usage = Usage{
			PromptTokens:     b.Usage.InputTokens,
			CompletionTokens: b.Usage.OutputTokens,
			TotalTokens:      b.Usage.TotalTokens,
		}
	}
	if b.Error != nil {
		resp.Error = b.Error.Message
	} else if b.IncompleteDetails != nil {
		resp.Error = b.IncompleteDetails.Reason
	}
	return resp
}

// ChatCompletion sends a system+user message pair.
func (c *OpenAIClient) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}

	messages := make([]chatMessage, 0, 2)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.System})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.User})

	body := chatRequest{
		Model:       c.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
	}
	if req.JSONOnly {
		body.ResponseFormat = &chatResponseFormat{Type: "json_object"}
	}

	start := time.Now()
	raw, err := c.post(ctx, "/chat/completions", body)
	if err != nil {
		return nil, err
	}

	var parsed chatResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("API error: %s", parsed.Error.Message)
	}
	if len(parsed.Choices) == 0 {
		return nil, ErrNoCompletion
	}

	c.logger.Debug("chat completion finished",
		zap.String("model", parsed.Model),
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("completion_tokens", parsed.Usage.CompletionTokens))

	return &ChatResponse{
		ID:      parsed.ID,
		Model:   parsed.Model,
		Content: strings.TrimSpace(parsed.Choices[0].Message.Content),
		Usage:   parsed.Usage,
	}, nil
}

// CreateResponse runs a server-side prompt template. With
// req.Background set the provider answers immediately with a queued
// response whose id is polled via GetResponse.
func (c *OpenAIClient) CreateResponse(ctx context.Context, req ResponseRequest) (*Response, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if req.PromptID == "" {
		return nil, fmt.Errorf("prompt id is required")
	}

	body := responseRequest{
		Model: c.model,
		Prompt: &responsePrompt{
			ID:        req.PromptID,
			Version:   req.Version,
			Variables: req.Variables,
		},
		Background:      req.Background,
		MaxOutputTokens: req.MaxOutputTokens,
	}

	raw, err := c.post(ctx, "/responses", body)
	if err != nil {
		return nil, err
	}

	var parsed responseBody
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	c.logger.Debug("response created",
		zap.String("response_id", parsed.ID),
		zap.String("status", parsed.Status),
		zap.Bool("background", req.Background))

	return parsed.toResponse(), nil
}

// GetResponse fetches the current state of a template run by id.
func (c *OpenAIClient) GetResponse(ctx context.Context, id string) (*Response, error) {
	if c.apiKey == "" {
		return nil, ErrNotConfigured
	}
	if id == "" {
		return nil, fmt.Errorf("response id is required")
	}

	raw, err := c.get(ctx, "/responses/"+id)
	if err != nil {
		return nil, err
	}

	var parsed responseBody
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return parsed.toResponse(), nil
}

func (c *OpenAIClient) post(ctx context.Context, path string, body any) ([]byte, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	return c.do(ctx, "POST", path, jsonData)
}

func (c *OpenAIClient) get(ctx context.Context, path string) ([]byte, error) {
	return c.do(ctx, "GET", path, nil)
}

// do issues one API call with rate limiting and a retry loop for
// rate-limit and transport failures.
func (c *OpenAIClient) do(ctx context.Context, method, path string, jsonData []byte) ([]byte, error) {
	// Auto-apply timeout if context has no deadline
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.httpClient.Timeout)
		defer cancel()
	}

	// Rate limiting
	c.mu.Lock()
	elapsed := time.Since(c.lastRequest)
	if elapsed < 100*time.Millisecond {
		time.Sleep(100*time.Millisecond - elapsed)
	}
	c.lastRequest = time.Now()
	c.mu.Unlock()

	var lastErr error

	for i := 0; i <= c.maxRetries; i++ {
		if i > 0 {
			select {
			case <-time.After(time.Duration(1<<uint(i-1)) * c.retryBackoff):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		var reqBody io.Reader
		if jsonData != nil {
			reqBody = bytes.NewReader(jsonData)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Authorization", "Bearer "+c.apiKey)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			lastErr = fmt.Errorf("failed to read response: %w", err)
			continue
		}

		if resp.StatusCode == http.StatusTooManyRequests {
			lastErr = fmt.Errorf("rate limit exceeded (429)")
			c.logger.Warn("rate limited, backing off", zap.Int("attempt", i+1))
			continue
		}

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
		}

		return body, nil
	}

	return nil, fmt.Errorf("max retries exceeded: %w", lastErr)
}
