// Package analyst implements the site_analyst agent: on-demand website
// analysis and queued deep site audits.
package analyst

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"bizradar/internal/agent"
	"bizradar/internal/llm"
	"bizradar/internal/prompt"
	"bizradar/internal/store"
)

const agentName = "site_analyst"

// Deps carries what the agent needs to run.
type Deps struct {
	Store     *store.Store
	LLM       llm.Client
	Prompts   *prompt.Registry
	PromptIDs map[string]string
	Logger    *zap.Logger
}

// Analyst holds the agent's collaborators behind its tools.
type Analyst struct {
	store      *store.Store
	llm        llm.Client
	prompts    *prompt.Registry
	promptIDs  map[string]string
	httpClient *http.Client
	logger     *zap.Logger
}

// New builds the site_analyst agent with its tools registered.
func New(deps Deps) *agent.Agent {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	a := &Analyst{
		store:      deps.Store,
		llm:        deps.LLM,
		prompts:    deps.Prompts,
		promptIDs:  deps.PromptIDs,
		httpClient: http.DefaultClient,
		logger:     logger.Named(agentName),
	}

	ag := agent.New(agentName, "Analyzes business websites and runs deep site audits", logger)
	ag.MustRegister(a.analyzeWebsiteTool())
	ag.MustRegister(a.startSiteAuditTool())
	ag.MustRegister(a.checkAuditTool())
	return ag
}

// recordFailure persists a failed run so the interaction history shows
// what was attempted. Insert errors are logged, not returned; the
// caller already has the real failure to report.
func (a *Analyst) recordFailure(ctx context.Context, inter *store.Interaction, start time.Time, cause error) {
	inter.Status = store.InteractionFailed
	inter.Error = cause.Error()
	inter.DurationMs = time.Since(start).Milliseconds()
	now := time.Now().UTC()
	inter.CompletedAt = &now

	if err := a.store.CreateInteraction(ctx, inter); err != nil {
		a.logger.Warn("failed to record interaction", zap.Error(err))
	}
}
