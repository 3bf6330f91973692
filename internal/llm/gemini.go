package llm

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiClient implements Client on top of the official genai SDK.
// Gemini has no prompt template store, so CreateResponse and
// GetResponse report ErrNotSupported; only the chat flow is served.
type GeminiClient struct {
	client *genai.Client
	model  string
	logger *zap.Logger
}

const defaultGeminiModel = "gemini-2.5-flash"

// NewGeminiClient creates a new Gemini client.
func NewGeminiClient(ctx context.Context, cfg Config, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	gc, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}
	if cfg.Model == "" {
		cfg.Model = defaultGeminiModel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeminiClient{
		client: gc,
		model:  cfg.Model,
		logger: logger.Named("gemini"),
	}, nil
}

// Provider returns "gemini".
func (c *GeminiClient) Provider() string { return "gemini" }

// Model returns the configured model.
func (c *GeminiClient) Model() string { return c.model }

// ChatCompletion sends a system+user message pair.
func (c *GeminiClient) ChatCompletion(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	config := &genai.GenerateContentConfig{}
	if req.MaxTokens > 0 {
		config.MaxOutputTokens = int32(req.MaxTokens)
	}
	if req.System != "" {
		config.SystemInstruction = &genai.Content{
			Parts: []*genai.Part{{Text: req.System}},
		}
	}
	if req.Temperature > 0 {
		temp := float32(req.Temperature)
		config.Temperature = &temp
	}
	if req.JSONOnly {
		config.ResponseMIMEType = "application/json"
	}

	result, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(req.User), config)
	if err != nil {
		return nil, fmt.Errorf("gemini: %w", err)
	}

	text := candidateText(result)
	if text == "" {
		return nil, ErrNoCompletion
	}

	resp := &ChatResponse{
		Model:   c.model,
		Content: strings.TrimSpace(text),
	}
	if result.UsageMetadata != nil {
		resp.Usage = Usage{
			PromptTokens:     int(result.UsageMetadata.PromptTokenCount),
			CompletionTokens: int(result.UsageMetadata.CandidatesTokenCount),
			TotalTokens:      int(result.UsageMetadata.TotalTokenCount),
		}
	}

	c.logger.Debug("chat completion finished",
		zap.String("model", c.model),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens))

	return resp, nil
}

// CreateResponse is not available on Gemini.
func (c *GeminiClient) CreateResponse(ctx context.Context, req ResponseRequest) (*Response, error) {
	return nil, fmt.Errorf("%w: prompt templates require the openai provider", ErrNotSupported)
}

// GetResponse is not available on Gemini.
func (c *GeminiClient) GetResponse(ctx context.Context, id string) (*Response, error) {
	return nil, fmt.Errorf("%w: background responses require the openai provider", ErrNotSupported)
}

// candidateText concatenates the text parts of the first candidate.
func candidateText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil {
			sb.WriteString(part.Text)
		}
	}
	return sb.String()
}
