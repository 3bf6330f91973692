package store

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// User is a registered account. The password hash never leaves the
// backend.
type User struct {
	ID           uuid.UUID `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// BusinessProfile describes one business a user wants analyzed.
// Analysis holds the most recent website analysis as raw JSON.
type BusinessProfile struct {
	ID          uuid.UUID       `json:"id"`
	UserID      uuid.UUID       `json:"user_id"`
	Name        string          `json:"name"`
	WebsiteURL  string          `json:"website_url,omitempty"`
	Industry    string          `json:"industry,omitempty"`
	Description string          `json:"description,omitempty"`
	Analysis    json.RawMessage `json:"analysis,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// Competition is one competitor identified for a business profile.
// Rows are replaced wholesale on each new competitor scan.
type Competition struct {
	ID         uuid.UUID `json:"id"`
	ProfileID  uuid.UUID `json:"profile_id"`
	Name       string    `json:"name"`
	WebsiteURL string    `json:"website_url,omitempty"`
	Summary    string    `json:"summary,omitempty"`
	Strengths  string    `json:"strengths,omitempty"`
	Weaknesses string    `json:"weaknesses,omitempty"`
	Position   string    `json:"position,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// InteractionStatus tracks the lifecycle of an agent tool run.
type InteractionStatus string

const (
	InteractionPending   InteractionStatus = "pending"
	InteractionCompleted InteractionStatus = "completed"
	InteractionFailed    InteractionStatus = "failed"
)

// Interaction records a single agent tool run: who asked, what ran,
// the request and response payloads, and token accounting. Background
// runs stay pending with a provider response ID until the poller
// finalizes them.
type Interaction struct {
	ID                 uuid.UUID         `json:"id"`
	UserID             uuid.UUID         `json:"user_id"`
	ProfileID          uuid.UUID         `json:"profile_id,omitempty"`
	Agent              string            `json:"agent"`
	Tool               string            `json:"tool"`
	Status             InteractionStatus `json:"status"`
	Request            json.RawMessage   `json:"request,omitempty"`
	Response           json.RawMessage   `json:"response,omitempty"`
	Error              string            `json:"error,omitempty"`
	ProviderResponseID string            `json:"provider_response_id,omitempty"`
	Model              string            `json:"model,omitempty"`
	PromptTokens       int               `json:"prompt_tokens"`
	CompletionTokens   int               `json:"completion_tokens"`
	DurationMs         int64             `json:"duration_ms"`
	CreatedAt          time.Time         `json:"created_at"`
	CompletedAt        *time.Time        `json:"completed_at,omitempty"`
}
