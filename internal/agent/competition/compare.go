package competition

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"bizradar/internal/agent"
	"bizradar/internal/llm"
	"bizradar/internal/store"
)

// comparison is the verdict shape the comparison prompt is instructed
// to return.
type comparison struct {
	Position   string   `json:"position"`
	Advantages []string `json:"advantages"`
	Risks      []string `json:"risks"`
	Actions    []string `json:"actions"`
}

func (c *Competition) compareCompetitorTool() *agent.Tool {
	return &agent.Tool{
		Name:        "compare_competitor",
		Description: "Compare the profile against a named competitor and store the verdict",
		Execute:     c.executeCompareCompetitor,
		Schema: agent.Schema{
			Required: []string{"competitor"},
			Properties: map[string]agent.Property{
				"competitor": {Type: "string", Description: "Competitor name to compare against"},
			},
		},
	}
}

func (c *Competition) executeCompareCompetitor(ctx context.Context, in agent.Input) (*agent.Output, error) {
	start := time.Now()

	profile, err := c.store.ProfileByID(ctx, in.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	name := strings.TrimSpace(in.String("competitor", ""))
	if name == "" {
		return nil, errors.New("competitor name is required")
	}

	// A stored row is optional context: comparisons work against
	// competitors the scan never surfaced.
	known, err := c.store.CompetitionsByProfile(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("load competitors: %w", err)
	}
	var matched *store.Competition
	for i := range known {
		if strings.EqualFold(known[i].Name, name) {
			matched = &known[i]
			break
		}
	}

	system, err := c.prompts.Render("compare_competitor", map[string]string{
		"business_name":   profile.Name,
		"competitor_name": name,
	})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Business: %s\n", profile.Name)
	if profile.Industry != "" {
		fmt.Fprintf(&sb, "Industry: %s\n", profile.Industry)
	}
	if profile.Description != "" {
		fmt.Fprintf(&sb, "Description: %s\n", profile.Description)
	}
	if len(profile.Analysis) > 0 {
		fmt.Fprintf(&sb, "Latest analysis: %s\n", profile.Analysis)
	}
	if matched != nil {
		fmt.Fprintf(&sb, "\nKnown facts about %s:\n", matched.Name)
		if matched.WebsiteURL != "" {
			fmt.Fprintf(&sb, "Website: %s\n", matched.WebsiteURL)
		}
		if matched.Summary != "" {
			fmt.Fprintf(&sb, "Summary: %s\n", matched.Summary)
		}
		if matched.Strengths != "" {
			fmt.Fprintf(&sb, "Strengths: %s\n", matched.Strengths)
		}
		if matched.Weaknesses != "" {
			fmt.Fprintf(&sb, "Weaknesses: %s\n", matched.Weaknesses)
		}
	}

	requestJSON, _ := json.Marshal(map[string]any{"competitor": name})
	inter := &store.Interaction{
		UserID:    in.UserID,
		ProfileID: profile.ID,
		Agent:     agentName,
		Tool:      "compare_competitor",
		Request:   requestJSON,
	}

	chat, err := c.llm.ChatCompletion(ctx, llm.ChatRequest{
		System:    system,
		User:      sb.String(),
		MaxTokens: 1000,
		JSONOnly:  true,
	})
	if err != nil {
		c.recordFailure(ctx, inter, start, err)
		return nil, fmt.Errorf("comparison: %w", err)
	}

	inter.ProviderResponseID = chat.ID
	inter.Model = chat.Model

	payload := llm.ExtractJSON(chat.Content)
	if payload == "" {
		cause := errors.New("model returned no JSON object")
		c.recordFailure(ctx, inter, start, cause)
		return nil, cause
	}

	var verdict comparison
	if err := json.Unmarshal([]byte(payload), &verdict); err != nil {
		cause := fmt.Errorf("parse comparison: %w", err)
		c.recordFailure(ctx, inter, start, cause)
		return nil, cause
	}

	if matched != nil && verdict.Position != "" {
		if err := c.store.UpdateCompetitionPosition(ctx, matched.ID, verdict.Position); err != nil {
			c.logger.Warn("failed to store position", zap.Error(err))
		}
	}

	inter.Status = store.InteractionCompleted
	inter.Response = json.RawMessage(payload)
	inter.PromptTokens = chat.Usage.PromptTokens
	inter.CompletionTokens = chat.Usage.CompletionTokens
	inter.DurationMs = time.Since(start).Milliseconds()
	now := time.Now().UTC()
	inter.CompletedAt = &now
	if err := c.store.CreateInteraction(ctx, inter); err != nil {
		c.logger.Warn("failed to record interaction", zap.Error(err))
	}

	c.logger.Info("comparison finished",
		zap.String("profile", profile.ID.String()),
		zap.String("competitor", name),
		zap.Int64("duration_ms", inter.DurationMs))

	out := agent.Succeed(json.RawMessage(payload))
	out.Metadata = agent.Metadata{
		Provider:         c.llm.Provider(),
		Model:            chat.Model,
		ResponseID:       chat.ID,
		PromptTokens:     chat.Usage.PromptTokens,
		CompletionTokens: chat.Usage.CompletionTokens,
	}
	return out, nil
}
