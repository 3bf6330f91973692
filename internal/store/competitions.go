package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ReplaceCompetitions atomically swaps the competitor set for a
// profile. Each scan produces a complete picture, so stale rows are
// dropped rather than merged.
func (s *Store) ReplaceCompetitions(ctx context.Context, profileID uuid.UUID, comps []Competition) ([]Competition, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM competitions WHERE profile_id = ?`, profileID); err != nil {
		return nil, fmt.Errorf("failed to clear competitions: %w", err)
	}

	now := time.Now().UTC()
	out := make([]Competition, 0, len(comps))
	for _, c := range comps {
		c.ID = uuid.New()
		c.ProfileID = profileID
		c.CreatedAt = now

		_, err := tx.ExecContext(ctx,
			`INSERT INTO competitions (id, profile_id, name, website_url, summary, strengths, weaknesses, position, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.ProfileID, c.Name, c.WebsiteURL, c.Summary, c.Strengths, c.Weaknesses, c.Position, c.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to insert competition %q: %w", c.Name, err)
		}
		out = append(out, c)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit competitions: %w", err)
	}
	return out, nil
}

// CompetitionsByProfile lists competitors for a profile in insertion
// order, which preserves the ranking the scan produced.
func (s *Store) CompetitionsByProfile(ctx context.Context, profileID uuid.UUID) ([]Competition, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, profile_id, name, website_url, summary, strengths, weaknesses, position, created_at
		 FROM competitions WHERE profile_id = ? ORDER BY rowid`,
		profileID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list competitions: %w", err)
	}
	defer rows.Close()

	var comps []Competition
	for rows.Next() {
		var c Competition
		if err := rows.Scan(&c.ID, &c.ProfileID, &c.Name, &c.WebsiteURL, &c.Summary, &c.Strengths, &c.Weaknesses, &c.Position, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan competition: %w", err)
		}
		comps = append(comps, c)
	}
	return comps, rows.Err()
}

// UpdateCompetitionPosition stores the market positioning summary from
// a one-on-one comparison.
func (s *Store) UpdateCompetitionPosition(ctx context.Context, id uuid.UUID, position string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE competitions SET position = ? WHERE id = ?`,
		position, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update position: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// CompetitionByID fetches one competitor row.
func (s *Store) CompetitionByID(ctx context.Context, id uuid.UUID) (*Competition, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, profile_id, name, website_url, summary, strengths, weaknesses, position, created_at
		 FROM competitions WHERE id = ?`,
		id,
	)

	var c Competition
	err := row.Scan(&c.ID, &c.ProfileID, &c.Name, &c.WebsiteURL, &c.Summary, &c.Strengths, &c.Weaknesses, &c.Position, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan competition: %w", err)
	}
	return &c, nil
}
