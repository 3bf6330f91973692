package analyst

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"bizradar/internal/agent"
	"bizradar/internal/jobs"
	"bizradar/internal/llm"
	"bizradar/internal/store"
)

func (a *Analyst) startSiteAuditTool() *agent.Tool {
	return &agent.Tool{
		Name:        "start_site_audit",
		Description: "Queue a deep site audit with the provider; poll check_audit for the result",
		Execute:     a.executeStartSiteAudit,
		Background:  true,
		Schema: agent.Schema{
			Properties: map[string]agent.Property{
				"notes": {
					Type:        "string",
					Description: "Extra context forwarded to the audit prompt",
				},
			},
		},
	}
}

func (a *Analyst) executeStartSiteAudit(ctx context.Context, in agent.Input) (*agent.Output, error) {
	profile, err := a.store.ProfileByID(ctx, in.ProfileID)
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	if profile.WebsiteURL == "" {
		return nil, errors.New("profile has no website_url")
	}

	promptID := a.promptIDs["site_audit"]
	if promptID == "" {
		return nil, errors.New("no site_audit prompt id configured")
	}

	variables := map[string]string{
		"business_name": profile.Name,
		"website_url":   profile.WebsiteURL,
	}
	if notes := in.String("notes", ""); notes != "" {
		variables["notes"] = notes
	}

	resp, err := a.llm.CreateResponse(ctx, llm.ResponseRequest{
		PromptID:        promptID,
		Variables:       variables,
		Background:      true,
		MaxOutputTokens: 4000,
	})
	if err != nil {
		return nil, fmt.Errorf("create response: %w", err)
	}

	reqJSON, _ := json.Marshal(variables)
	inter := &store.Interaction{
		UserID:             in.UserID,
		ProfileID:          profile.ID,
		Agent:              agentName,
		Tool:               "start_site_audit",
		Request:            reqJSON,
		ProviderResponseID: resp.ID,
		Model:              resp.Model,
	}
	if err := a.store.CreateInteraction(ctx, inter); err != nil {
		return nil, fmt.Errorf("record interaction: %w", err)
	}

	a.logger.Info("site audit queued",
		zap.String("profile", profile.ID.String()),
		zap.String("interaction", inter.ID.String()),
		zap.String("response_id", resp.ID))

	out := agent.Succeed(map[string]any{
		"interaction_id": inter.ID,
		"status":         resp.Status,
	})
	out.Metadata = agent.Metadata{
		Provider:   a.llm.Provider(),
		Model:      resp.Model,
		ResponseID: resp.ID,
	}
	return out, nil
}

func (a *Analyst) checkAuditTool() *agent.Tool {
	return &agent.Tool{
		Name:        "check_audit",
		Description: "Check a queued site audit and finalize it once the provider is done",
		Execute:     a.executeCheckAudit,
		Schema: agent.Schema{
			Required: []string{"interaction_id"},
			Properties: map[string]agent.Property{
				"interaction_id": {
					Type:        "string",
					Description: "ID returned by start_site_audit",
				},
			},
		},
	}
}

func (a *Analyst) executeCheckAudit(ctx context.Context, in agent.Input) (*agent.Output, error) {
	id, err := uuid.Parse(in.String("interaction_id", ""))
	if err != nil {
		return nil, fmt.Errorf("bad interaction_id: %w", err)
	}

	inter, err := a.store.InteractionByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load interaction: %w", err)
	}
	if inter.UserID != in.UserID {
		return nil, store.ErrNotFound
	}

	// Already finalized, by the poller or an earlier check.
	if inter.Status != store.InteractionPending {
		return auditResult(inter), nil
	}
	if inter.ProviderResponseID == "" {
		return nil, errors.New("interaction has no provider response id")
	}

	resp, err := a.llm.GetResponse(ctx, inter.ProviderResponseID)
	if err != nil {
		return nil, fmt.Errorf("get response: %w", err)
	}

	if !resp.Status.Terminal() {
		out := agent.Succeed(map[string]any{
			"interaction_id": inter.ID,
			"status":         resp.Status,
			"done":           false,
		})
		out.Metadata = agent.Metadata{
			Provider:   a.llm.Provider(),
			Model:      inter.Model,
			ResponseID: inter.ProviderResponseID,
		}
		return out, nil
	}

	jobs.ApplyResponse(inter, resp)
	if err := a.store.FinalizeInteraction(ctx, inter); err != nil {
		return nil, fmt.Errorf("finalize interaction: %w", err)
	}

	a.logger.Info("site audit finalized",
		zap.String("interaction", inter.ID.String()),
		zap.String("status", string(inter.Status)))

	return auditResult(inter), nil
}

// auditResult shapes a terminal interaction for the caller. Failed
// audits ride the envelope's error field like any other tool failure.
func auditResult(inter *store.Interaction) *agent.Output {
	var out *agent.Output
	if inter.Status == store.InteractionCompleted {
		out = agent.Succeed(map[string]any{
			"interaction_id": inter.ID,
			"status":         inter.Status,
			"done":           true,
			"audit":          inter.Response,
		})
	} else {
		out = agent.Fail(errors.New(inter.Error))
	}
	out.Metadata = agent.Metadata{
		Model:            inter.Model,
		ResponseID:       inter.ProviderResponseID,
		PromptTokens:     inter.PromptTokens,
		CompletionTokens: inter.CompletionTokens,
	}
	return out
}
