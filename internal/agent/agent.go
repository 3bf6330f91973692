package agent

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Agent is a named collection of tools sharing a domain.
// It is thread-safe and supports registration at runtime.
type Agent struct {
	name        string
	description string

	mu    sync.RWMutex
	tools map[string]*Tool

	logger *zap.Logger
}

// New creates an empty agent. A nil logger is replaced with a no-op.
func New(name, description string, logger *zap.Logger) *Agent {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Agent{
		name:        name,
		description: description,
		tools:       make(map[string]*Tool),
		logger:      logger.Named(name),
	}
}

// Name returns the agent's unique name.
func (a *Agent) Name() string { return a.name }

// Description returns the agent's human-readable description.
func (a *Agent) Description() string { return a.description }

// Register adds a tool to the agent.
// Returns an error if a tool with the same name already exists.
func (a *Agent) Register(tool *Tool) error {
	if err := tool.Validate(); err != nil {
		return fmt.Errorf("invalid tool: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if _, exists := a.tools[tool.Name]; exists {
		return fmt.Errorf("%w: %s", ErrToolAlreadyRegistered, tool.Name)
	}

	a.tools[tool.Name] = tool
	a.logger.Debug("registered tool", zap.String("tool", tool.Name))
	return nil
}

// MustRegister registers a tool and panics on error.
// Use this for static tool registration at construction time.
func (a *Agent) MustRegister(tool *Tool) {
	if err := a.Register(tool); err != nil {
		panic(fmt.Sprintf("failed to register tool %s: %v", tool.Name, err))
	}
}

// Tool returns a tool by name, or nil if not found.
func (a *Agent) Tool(name string) *Tool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.tools[name]
}

// Tools returns all registered tools, sorted by name.
func (a *Agent) Tools() []*Tool {
	a.mu.RLock()
	defer a.mu.RUnlock()

	result := make([]*Tool, 0, len(a.tools))
	for _, tool := range a.tools {
		result = append(result, tool)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Capability describes a tool for API discovery.
type Capability struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Background  bool   `json:"background,omitempty"`
	Schema      Schema `json:"schema"`
}

// Capabilities returns the discovery view of every registered tool.
func (a *Agent) Capabilities() []Capability {
	tools := a.Tools()
	caps := make([]Capability, 0, len(tools))
	for _, tool := range tools {
		caps = append(caps, Capability{
			Name:        tool.Name,
			Description: tool.Description,
			Background:  tool.Background,
			Schema:      tool.Schema,
		})
	}
	return caps
}

// Execute runs a tool by name with the given input.
//
// The returned Output is never nil: argument validation failures,
// execution errors, and tools that return nothing are all normalized
// into a failed envelope with the duration stamped. The error is
// returned alongside so callers can branch on sentinels.
func (a *Agent) Execute(ctx context.Context, name string, in Input) (*Output, error) {
	tool := a.Tool(name)
	if tool == nil {
		return nil, fmt.Errorf("%w: %s/%s", ErrToolNotFound, a.name, name)
	}

	start := time.Now()

	if err := tool.Schema.Validate(in.Args); err != nil {
		out := Fail(err)
		out.Metadata.DurationMs = time.Since(start).Milliseconds()
		return out, err
	}

	a.logger.Debug("executing tool",
		zap.String("tool", tool.Name),
		zap.String("request_id", in.RequestID))

	out, err := tool.Execute(ctx, in)
	duration := time.Since(start)

	switch {
	case err != nil:
		if out == nil {
			out = Fail(err)
		}
		out.Success = false
		if out.Error == "" {
			out.Error = err.Error()
		}
	case out == nil:
		err = fmt.Errorf("tool %s/%s returned no output", a.name, tool.Name)
		out = Fail(err)
	}

	out.Metadata.DurationMs = duration.Milliseconds()

	a.logger.Info("tool finished",
		zap.String("tool", tool.Name),
		zap.String("request_id", in.RequestID),
		zap.Bool("success", out.Success),
		zap.Int64("duration_ms", out.Metadata.DurationMs))

	return out, err
}
