// Package agent provides the tool execution framework behind the
// analysis API.
//
// An Agent is a named set of tools sharing a domain. Tools validate
// their arguments against a JSON schema, run synchronously or enqueue
// provider-side background work, and always report through the same
// Output envelope so results can be returned to clients and persisted
// as interactions without caring which tool produced them.
package agent

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Property describes a single parameter property for JSON schema.
type Property struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Default     any    `json:"default,omitempty"`
	Enum        []any  `json:"enum,omitempty"`
	// Items describes array element schema (required for type="array")
	Items *PropertyItems `json:"items,omitempty"`
}

// PropertyItems describes the schema for array elements.
type PropertyItems struct {
	Type string `json:"type"`
}

// Schema defines the JSON schema for tool arguments.
type Schema struct {
	// Required lists parameters that must be provided.
	Required []string `json:"required"`

	// Properties describes each parameter.
	Properties map[string]Property `json:"properties"`
}

// Validate checks args against the schema: every required parameter
// must be present, and every declared parameter that is present must
// match its declared type.
func (s Schema) Validate(args map[string]any) error {
	for _, required := range s.Required {
		if _, ok := args[required]; !ok {
			return fmt.Errorf("%w: %s", ErrMissingRequiredArg, required)
		}
	}
	for name, prop := range s.Properties {
		value, ok := args[name]
		if !ok || value == nil {
			continue
		}
		if !prop.accepts(value) {
			return fmt.Errorf("%w: %s expects %s", ErrInvalidArgType, name, prop.Type)
		}
	}
	return nil
}

// accepts reports whether a decoded JSON value matches the declared
// type. Unknown types accept anything.
func (p Property) accepts(value any) bool {
	switch p.Type {
	case "string":
		_, ok := value.(string)
		return ok
	case "number":
		switch value.(type) {
		case float64, float32, int, int32, int64:
			return true
		}
		return false
	case "boolean":
		_, ok := value.(bool)
		return ok
	case "object":
		_, ok := value.(map[string]any)
		return ok
	case "array":
		_, ok := value.([]any)
		return ok
	}
	return true
}

// Input carries the arguments and caller identity for one tool run.
type Input struct {
	// Args holds the tool arguments, validated against the tool schema.
	Args map[string]any

	// UserID identifies the authenticated caller.
	UserID uuid.UUID

	// ProfileID identifies the business profile under analysis.
	ProfileID uuid.UUID

	// RequestID correlates log lines and stored interactions.
	RequestID string
}

// String returns an argument as a string, or the fallback when absent.
func (in Input) String(key, fallback string) string {
	if v, ok := in.Args[key].(string); ok && v != "" {
		return v
	}
	return fallback
}

// Metadata records provider-side facts about a tool run.
type Metadata struct {
	Provider         string `json:"provider,omitempty"`
	Model            string `json:"model,omitempty"`
	ResponseID       string `json:"response_id,omitempty"`
	PromptTokens     int    `json:"prompt_tokens,omitempty"`
	CompletionTokens int    `json:"completion_tokens,omitempty"`
	DurationMs       int64  `json:"duration_ms"`
}

// Output is the envelope every tool reports through.
type Output struct {
	Success  bool            `json:"success"`
	Data     json.RawMessage `json:"data,omitempty"`
	Error    string          `json:"error,omitempty"`
	Metadata Metadata        `json:"metadata"`
}

// Succeed builds a successful Output with v marshaled into Data.
func Succeed(v any) *Output {
	data, err := json.Marshal(v)
	if err != nil {
		return Fail(fmt.Errorf("encode tool output: %w", err))
	}
	return &Output{Success: true, Data: data}
}

// Fail builds a failed Output carrying the error text.
func Fail(err error) *Output {
	return &Output{Success: false, Error: err.Error()}
}

// ExecuteFunc is the signature for tool execution.
// Implementations must not return (nil, nil); the agent normalizes
// that case into an error so callers always get an envelope.
type ExecuteFunc func(ctx context.Context, in Input) (*Output, error)

// Tool defines one named operation an agent can run.
type Tool struct {
	// Name is the unique identifier for the tool within its agent.
	Name string

	// Description explains what the tool does.
	Description string

	// Execute runs the tool with the given input.
	Execute ExecuteFunc

	// Schema defines the expected arguments.
	Schema Schema

	// Background marks tools that enqueue provider work and return a
	// pending interaction instead of a final result.
	Background bool
}

// Validate checks if the tool definition is valid.
func (t *Tool) Validate() error {
	if t.Name == "" {
		return ErrToolNameEmpty
	}
	if t.Execute == nil {
		return ErrToolExecuteNil
	}
	return nil
}
