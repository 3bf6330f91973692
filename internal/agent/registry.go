package agent

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Registry holds all available agents and provides lookup functionality.
// It is thread-safe and supports registration at runtime.
type Registry struct {
	mu     sync.RWMutex
	agents map[string]*Agent
}

// NewRegistry creates a new empty agent registry.
func NewRegistry() *Registry {
	return &Registry{
		agents: make(map[string]*Agent),
	}
}

// Register adds an agent to the registry.
// Returns an error if an agent with the same name already exists.
func (r *Registry) Register(a *Agent) error {
	if a == nil || a.Name() == "" {
		return ErrAgentNameEmpty
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.agents[a.Name()]; exists {
		return fmt.Errorf("%w: %s", ErrAgentAlreadyRegistered, a.Name())
	}

	r.agents[a.Name()] = a
	return nil
}

// MustRegister registers an agent and panics on error.
func (r *Registry) MustRegister(a *Agent) {
	if err := r.Register(a); err != nil {
		panic(fmt.Sprintf("failed to register agent: %v", err))
	}
}

// Get returns an agent by name, or nil if not found.
func (r *Registry) Get(name string) *Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.agents[name]
}

// Has returns true if an agent with the given name is registered.
func (r *Registry) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.agents[name]
	return ok
}

// Names returns all registered agent names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.agents))
	for name := range r.agents {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns all registered agents, sorted by name.
func (r *Registry) All() []*Agent {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*Agent, 0, len(r.agents))
	for _, a := range r.agents {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name() < result[j].Name() })
	return result
}

// Count returns the number of registered agents.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.agents)
}

// Execute runs a tool on a named agent.
// Returns ErrAgentNotFound if the agent doesn't exist.
func (r *Registry) Execute(ctx context.Context, agentName, toolName string, in Input) (*Output, error) {
	a := r.Get(agentName)
	if a == nil {
		return nil, fmt.Errorf("%w: %s", ErrAgentNotFound, agentName)
	}
	return a.Execute(ctx, toolName, in)
}
