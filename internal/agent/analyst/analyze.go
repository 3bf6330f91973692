package analyst

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"bizradar/internal/agent"
	"bizradar/internal/llm"
	"bizradar/internal/store"
)

// Analysis is the structured verdict analyze_website produces and
// caches on the profile.
type Analysis struct {
	Summary    string   `json:"summary"`
	Industry   string   `json:"industry"`
	Audience   string   `json:"audience"`
	Strengths  []string `json:"strengths"`
	Weaknesses []string `json:"weaknesses"`
	Keywords   []string `json:"keywords"`
}

func (a *Analyst) analyzeWebsiteTool() *agent.Tool {
	return &agent.Tool{
		Name:        "analyze_website",
		Description: "Fetch the profile's website and produce a structured business analysis",
		Execute:     a.executeAnalyzeWebsite,
		Schema: agent.Schema{
			Properties: map[string]agent.Property{
				"url": {
					Type:        "string",
					Description: "Page to analyze instead of the profile's website URL",
				},
				"max_chars": {
					Type:        "number",
					Description: "Maximum characters of page text sent to the model (default 40000)",
				},
			},
		},
	}
}

func (a *Analyst) executeAnalyzeWebsite(ctx context.Context, in agent.Input) (*agent.Output, error) {
	start := time.Now()

	profile, err := a.store.ProfileByID(ctx, in.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	pageURL := in.String("url", profile.WebsiteURL)
	if pageURL == "" {
		return nil, errors.New("profile has no website_url; pass url explicitly")
	}

	maxChars := 0
	if v, ok := in.Args["max_chars"].(float64); ok {
		maxChars = int(v)
	}

	text, err := a.fetchPageText(ctx, pageURL, maxChars)
	if err != nil {
		return nil, fmt.Errorf("fetch website: %w", err)
	}

	system, err := a.prompts.Render("analyze_website", map[string]string{
		"business_name": profile.Name,
		"website_url":   pageURL,
	})
	if err != nil {
		return nil, err
	}

	reqJSON, _ := json.Marshal(map[string]any{"url": pageURL, "chars": len(text)})
	inter := &store.Interaction{
		UserID:    in.UserID,
		ProfileID: profile.ID,
		Agent:     agentName,
		Tool:      "analyze_website",
		Request:   reqJSON,
	}

	chat, err := a.llm.ChatCompletion(ctx, llm.ChatRequest{
		System:    system,
		User:      text,
		MaxTokens: 1500,
		JSONOnly:  true,
	})
	if err != nil {
		a.recordFailure(ctx, inter, start, err)
		return nil, fmt.Errorf("chat completion: %w", err)
	}

	payload := llm.ExtractJSON(chat.Content)
	if payload == "" {
		err := errors.New("model returned no JSON object")
		a.recordFailure(ctx, inter, start, err)
		return nil, err
	}
	var verdict Analysis
	if err := json.Unmarshal([]byte(payload), &verdict); err != nil {
		err = fmt.Errorf("bad analysis payload: %w", err)
		a.recordFailure(ctx, inter, start, err)
		return nil, err
	}

	if err := a.store.SetProfileAnalysis(ctx, profile.ID, json.RawMessage(payload)); err != nil {
		return nil, fmt.Errorf("store analysis: %w", err)
	}

	inter.Status = store.InteractionCompleted
	inter.Response = json.RawMessage(payload)
	inter.Model = chat.Model
	inter.PromptTokens = chat.Usage.PromptTokens
	inter.CompletionTokens = chat.Usage.CompletionTokens
	inter.DurationMs = time.Since(start).Milliseconds()
	now := time.Now().UTC()
	inter.CompletedAt = &now
	if err := a.store.CreateInteraction(ctx, inter); err != nil {
		a.logger.Warn("failed to record interaction", zap.Error(err))
	}

	a.logger.Info("website analyzed",
		zap.String("profile", profile.ID.String()),
		zap.String("url", pageURL),
		zap.Int("page_chars", len(text)))

	out := agent.Succeed(json.RawMessage(payload))
	out.Metadata = agent.Metadata{
		Provider:         a.llm.Provider(),
		Model:            chat.Model,
		ResponseID:       chat.ID,
		PromptTokens:     chat.Usage.PromptTokens,
		CompletionTokens: chat.Usage.CompletionTokens,
	}
	return out, nil
}
