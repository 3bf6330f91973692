package agent

import "errors"

// Agent and tool registry errors.
var (
	// ErrAgentNotFound is returned when an agent is not registered.
	ErrAgentNotFound = errors.New("agent not found")

	// ErrAgentNameEmpty is returned when an agent has no name.
	ErrAgentNameEmpty = errors.New("agent name cannot be empty")

	// ErrAgentAlreadyRegistered is returned when registering a duplicate agent.
	ErrAgentAlreadyRegistered = errors.New("agent already registered")

	// ErrToolNotFound is returned when a tool is not registered.
	ErrToolNotFound = errors.New("tool not found")

	// ErrToolNameEmpty is returned when a tool has no name.
	ErrToolNameEmpty = errors.New("tool name cannot be empty")

	// ErrToolExecuteNil is returned when a tool has no execute function.
	ErrToolExecuteNil = errors.New("tool execute function cannot be nil")

	// ErrToolAlreadyRegistered is returned when registering a duplicate tool.
	ErrToolAlreadyRegistered = errors.New("tool already registered")

	// ErrMissingRequiredArg is returned when a required argument is missing.
	ErrMissingRequiredArg = errors.New("missing required argument")

	// ErrInvalidArgType is returned when an argument has the wrong type.
	ErrInvalidArgType = errors.New("invalid argument type")
)
