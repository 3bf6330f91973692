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

// CreateProfile inserts a business profile, assigning ID and
// timestamps.
func (s *Store) CreateProfile(ctx context.Context, p *BusinessProfile) error {
	p.ID = uuid.New()
	p.CreatedAt = time.Now().UTC()
	p.UpdatedAt = p.CreatedAt

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO business_profiles (id, user_id, name, website_url, industry, description, analysis, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.UserID, p.Name, p.WebsiteURL, p.Industry, p.Description, string(p.Analysis), p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}
	return nil
}

// ProfileByID fetches one business profile.
func (s *Store) ProfileByID(ctx context.Context, id uuid.UUID) (*BusinessProfile, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, website_url, industry, description, analysis, created_at, updated_at
		 FROM business_profiles WHERE id = ?`,
		id,
	)

	var p BusinessProfile
	var analysis string
	err := row.Scan(&p.ID, &p.UserID, &p.Name, &p.WebsiteURL, &p.Industry, &p.Description, &analysis, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan profile: %w", err)
	}
	if analysis != "" {
		p.Analysis = json.RawMessage(analysis)
	}
	return &p, nil
}

// ProfilesByUser lists a user's business profiles, newest first.
func (s *Store) ProfilesByUser(ctx context.Context, userID uuid.UUID) ([]BusinessProfile, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, name, website_url, industry, description, analysis, created_at, updated_at
		 FROM business_profiles WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list profiles: %w", err)
	}
	defer rows.Close()

	var profiles []BusinessProfile
	for rows.Next() {
		var p BusinessProfile
		var analysis string
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &p.WebsiteURL, &p.Industry, &p.Description, &analysis, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan profile: %w", err)
		}
		if analysis != "" {
			p.Analysis = json.RawMessage(analysis)
		}
		profiles = append(profiles, p)
	}
	return profiles, rows.Err()
}

// UpdateProfile updates the editable fields of a profile and bumps
// updated_at.
func (s *Store) UpdateProfile(ctx context.Context, p *BusinessProfile) error {
	p.UpdatedAt = time.Now().UTC()

	res, err := s.db.ExecContext(ctx,
		`UPDATE business_profiles SET name = ?, website_url = ?, industry = ?, description = ?, updated_at = ?
		 WHERE id = ?`,
		p.Name, p.WebsiteURL, p.Industry, p.Description, p.UpdatedAt, p.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetProfileAnalysis stores the latest website analysis for a profile.
func (s *Store) SetProfileAnalysis(ctx context.Context, id uuid.UUID, analysis json.RawMessage) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE business_profiles SET analysis = ?, updated_at = ? WHERE id = ?`,
		string(analysis), time.Now().UTC(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to store analysis: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteProfile removes a profile and, via foreign keys, its
// competitions.
func (s *Store) DeleteProfile(ctx context.Context, id uuid.UUID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM business_profiles WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
