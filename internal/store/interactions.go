package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const interactionColumns = `id, user_id, profile_id, agent, tool, status, request, response, error,
	provider_response_id, model, prompt_tokens, completion_tokens, duration_ms, created_at, completed_at`

// CreateInteraction inserts an interaction record. Synchronous runs
// are inserted already terminal; background runs start pending with a
// provider response ID for the poller to pick up.
func (s *Store) CreateInteraction(ctx context.Context, in *Interaction) error {
	if in.ID == uuid.Nil {
		in.ID = uuid.New()
	}
	if in.Status == "" {
		in.Status = InteractionPending
	}
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now().UTC()
	}

	var profileID string
	if in.ProfileID != uuid.Nil {
		profileID = in.ProfileID.String()
	}
	var completedAt any
	if in.CompletedAt != nil {
		completedAt = in.CompletedAt.UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO interactions (`+interactionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		in.ID, in.UserID, profileID, in.Agent, in.Tool, in.Status,
		string(in.Request), string(in.Response), in.Error,
		in.ProviderResponseID, in.Model, in.PromptTokens, in.CompletionTokens,
		in.DurationMs, in.CreatedAt, completedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create interaction: %w", err)
	}
	return nil
}

// FinalizeInteraction records the terminal state of a run: status,
// response or error, token usage, and completion time.
func (s *Store) FinalizeInteraction(ctx context.Context, in *Interaction) error {
	if in.CompletedAt == nil {
		now := time.Now().UTC()
		in.CompletedAt = &now
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE interactions
		 SET status = ?, response = ?, error = ?, model = ?,
		     prompt_tokens = ?, completion_tokens = ?, duration_ms = ?, completed_at = ?
		 WHERE id = ?`,
		in.Status, string(in.Response), in.Error, in.Model,
		in.PromptTokens, in.CompletionTokens, in.DurationMs, in.CompletedAt.UTC(),
		in.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize interaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// InteractionByID fetches one interaction.
func (s *Store) InteractionByID(ctx context.Context, id uuid.UUID) (*Interaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+interactionColumns+` FROM interactions WHERE id = ?`, id)
	return scanInteraction(row)
}

// InteractionsByProfile lists a profile's interactions, newest first.
func (s *Store) InteractionsByProfile(ctx context.Context, profileID uuid.UUID, limit int) ([]Interaction, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+interactionColumns+` FROM interactions
		 WHERE profile_id = ? ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		profileID.String(), limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list interactions: %w", err)
	}
	defer rows.Close()
	return collectInteractions(rows)
}

// PendingInteractions lists background runs still awaiting a terminal
// provider status, oldest first.
func (s *Store) PendingInteractions(ctx context.Context) ([]Interaction, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+interactionColumns+` FROM interactions
		 WHERE status = ? AND provider_response_id != '' ORDER BY created_at, rowid`,
		InteractionPending,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending interactions: %w", err)
	}
	defer rows.Close()
	return collectInteractions(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInteraction(row rowScanner) (*Interaction, error) {
	var in Interaction
	var profileID, request, response string
	var completedAt sql.NullTime

	err := row.Scan(&in.ID, &in.UserID, &profileID, &in.Agent, &in.Tool, &in.Status,
		&request, &response, &in.Error, &in.ProviderResponseID, &in.Model,
		&in.PromptTokens, &in.CompletionTokens, &in.DurationMs, &in.CreatedAt, &completedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan interaction: %w", err)
	}

	if profileID != "" {
		in.ProfileID, _ = uuid.Parse(profileID)
	}
	if request != "" {
		in.Request = json.RawMessage(request)
	}
	if response != "" {
		in.Response = json.RawMessage(response)
	}
	if completedAt.Valid {
		t := completedAt.Time
		in.CompletedAt = &t
	}
	return &in, nil
}

func collectInteractions(rows *sql.Rows) ([]Interaction, error) {
	var out []Interaction
	for rows.Next() {
		in, err := scanInteraction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *in)
	}
	return out, rows.Err()
}
