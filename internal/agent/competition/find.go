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

// competitorList is the payload shape the competitor-scan prompt is
// instructed to return.
type competitorList struct {
	Competitors []struct {
		Name       string `json:"name"`
		WebsiteURL string `json:"website_url"`
		Summary    string `json:"summary"`
		Strengths  string `json:"strengths"`
		Weaknesses string `json:"weaknesses"`
	} `json:"competitors"`
}

func (c *Competition) findCompetitorsTool() *agent.Tool {
	return &agent.Tool{
		Name:        "find_competitors",
		Description: "Scan the market for the profile's main competitors and store the results",
		Execute:     c.executeFindCompetitors,
		Schema: agent.Schema{
			Properties: map[string]agent.Property{},
		},
	}
}

func (c *Competition) executeFindCompetitors(ctx context.Context, in agent.Input) (*agent.Output, error) {
	start := time.Now()

	profile, err := c.store.ProfileByID(ctx, in.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}

	promptID := c.promptIDs["find_competitors"]
	if promptID == "" {
		return nil, errors.New("no prompt configured for competitor scans")
	}

	variables := map[string]string{
		"business_name": profile.Name,
		"website_url":   profile.WebsiteURL,
		"industry":      profile.Industry,
	}

	requestJSON, _ := json.Marshal(map[string]any{
		"prompt_id": promptID,
		"variables": variables,
	})
	inter := &store.Interaction{
		UserID:    in.UserID,
		ProfileID: profile.ID,
		Agent:     agentName,
		Tool:      "find_competitors",
		Request:   requestJSON,
	}

	resp, err := c.llm.CreateResponse(ctx, llm.ResponseRequest{
		PromptID:        promptID,
		Variables:       variables,
		MaxOutputTokens: 2000,
	})
	if err != nil {
		c.recordFailure(ctx, inter, start, err)
		return nil, fmt.Errorf("competitor scan: %w", err)
	}

	inter.ProviderResponseID = resp.ID
	inter.Model = resp.Model

	if resp.Status != llm.StatusCompleted {
		cause := fmt.Errorf("competitor scan ended %s: %s", resp.Status, resp.Error)
		c.recordFailure(ctx, inter, start, cause)
		return nil, cause
	}

	payload := llm.ExtractJSON(resp.Output)
	if payload == "" {
		cause := errors.New("model returned no JSON object")
		c.recordFailure(ctx, inter, start, cause)
		return nil, cause
	}

	var list competitorList
	if err := json.Unmarshal([]byte(payload), &list); err != nil {
		cause := fmt.Errorf("parse competitor list: %w", err)
		c.recordFailure(ctx, inter, start, cause)
		return nil, cause
	}

	comps := make([]store.Competition, 0, len(list.Competitors))
	for _, item := range list.Competitors {
		if strings.TrimSpace(item.Name) == "" {
			continue
		}
		comps = append(comps, store.Competition{
			Name:       strings.TrimSpace(item.Name),
			WebsiteURL: item.WebsiteURL,
			Summary:    item.Summary,
			Strengths:  item.Strengths,
			Weaknesses: item.Weaknesses,
		})
	}

	stored, err := c.store.ReplaceCompetitions(ctx, profile.ID, comps)
	if err != nil {
		return nil, fmt.Errorf("store competitors: %w", err)
	}

	inter.Status = store.InteractionCompleted
	inter.Response = json.RawMessage(payload)
	inter.PromptTokens = resp.Usage.PromptTokens
	inter.CompletionTokens = resp.Usage.CompletionTokens
	inter.DurationMs = time.Since(start).Milliseconds()
	now := time.Now().UTC()
	inter.CompletedAt = &now
	if err := c.store.CreateInteraction(ctx, inter); err != nil {
		c.logger.Warn("failed to record interaction", zap.Error(err))
	}

	c.logger.Info("competitor scan finished",
		zap.String("profile", profile.ID.String()),
		zap.Int("competitors", len(stored)),
		zap.Int64("duration_ms", inter.DurationMs))

	out := agent.Succeed(map[string]any{"competitors": stored})
	out.Metadata = agent.Metadata{
		Provider:         c.llm.Provider(),
		Model:            resp.Model,
		ResponseID:       resp.ID,
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
	}
	return out, nil
}
