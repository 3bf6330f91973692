// Package competition implements the competition agent: market scans
// for competitors and one-on-one positioning comparisons.
package competition

import (
	"context"
	"time"

	"go.uber.org/zap"

	"bizradar/internal/agent"
	"bizradar/internal/llm"
	"bizradar/internal/prompt"
	"bizradar/internal/store"
)

const agentName = "competition"

// Deps carries what the agent needs to run.
type Deps struct {
	Store     *store.Store
	LLM       llm.Client
	Prompts   *prompt.Registry
	PromptIDs map[string]string
	Logger    *zap.Logger
}

// Competition holds the agent's collaborators behind its tools.
type Competition struct {
	store     *store.Store
	llm       llm.Client
	prompts   *prompt.Registry
	promptIDs map[string]string
	logger    *zap.Logger
}

// New builds the competition agent with its tools registered.
func New(deps Deps) *agent.Agent {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Competition{
		store:     deps.Store,
		llm:       deps.LLM,
		prompts:   deps.Prompts,
		promptIDs: deps.PromptIDs,
		logger:    logger.Named(agentName),
	}

	ag := agent.New(agentName, "Maps the profile's competitive landscape", logger)
	ag.MustRegister(c.findCompetitorsTool())
	ag.MustRegister(c.compareCompetitorTool())
	return ag
}

// recordFailure persists a failed run so the interaction history shows
// what was attempted.
func (c *Competition) recordFailure(ctx context.Context, inter *store.Interaction, start time.Time, cause error) {
	inter.Status = store.InteractionFailed
	inter.Error = cause.Error()
	inter.DurationMs = time.Since(start).Milliseconds()
	now := time.Now().UTC()
	inter.CompletedAt = &now

	if err := c.store.CreateInteraction(ctx, inter); err != nil {
		c.logger.Warn("failed to record interaction", zap.Error(err))
	}
}
