package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/stacit/stacit/backend/internal/domain"
)

// ProfileRepo defines the persistence operations for user profiles.
type ProfileRepo interface {
	// Upsert writes the profile keyed by p.ID. Empty string fields and a zero
	// birth date keep the stored value, matching a merge-style document write.
	Upsert(ctx context.Context, p domain.UserProfile) (domain.UserProfile, error)

	// GetByID returns the profile for a user.
	// Returns domain.ErrNotFound if the user never completed onboarding.
	GetByID(ctx context.Context, id string) (domain.UserProfile, error)
}

// pgProfileRepo is the Postgres implementation of ProfileRepo.
type pgProfileRepo struct {
	db db
}

// NewProfileRepo constructs a ProfileRepo backed by the provided db connection.
func NewProfileRepo(db db) ProfileRepo {
	return &pgProfileRepo{db: db}
}

// Upsert inserts or merges a profile row.
func (r *pgProfileRepo) Upsert(ctx context.Context, p domain.UserProfile) (domain.UserProfile, error) {
	const q = `
		INSERT INTO users (id, full_name, birth_date, gender, email)
		VALUES (@id, @full_name, @birth_date, @gender, @email)
		ON CONFLICT (id) DO UPDATE SET
		    full_name  = COALESCE(NULLIF(EXCLUDED.full_name, ''), users.full_name),
		    birth_date = COALESCE(EXCLUDED.birth_date, users.birth_date),
		    gender     = COALESCE(NULLIF(EXCLUDED.gender, ''), users.gender),
		    email      = COALESCE(NULLIF(EXCLUDED.email, ''), users.email),
		    updated_at = now()
		RETURNING id, full_name, birth_date, gender, email, created_at, updated_at`

	birth := pgtype.Date{Time: p.BirthDate, Valid: !p.BirthDate.IsZero()}
	args := pgx.NamedArgs{
		"id":         p.ID,
		"full_name":  p.FullName,
		"birth_date": birth,
		"gender":     p.Gender,
		"email":      p.Email,
	}

	result, err := scanProfile(r.db.QueryRow(ctx, q, args))
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("repo.ProfileRepo.Upsert: %w", err)
	}
	return result, nil
}

// GetByID retrieves a profile by user id.
func (r *pgProfileRepo) GetByID(ctx context.Context, id string) (domain.UserProfile, error) {
	const q = `
		SELECT id, full_name, birth_date, gender, email, created_at, updated_at
		FROM users
		WHERE id = @id`

	result, err := scanProfile(r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id}))
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("repo.ProfileRepo.GetByID: %w", err)
	}
	return result, nil
}

func scanProfile(s scanner) (domain.UserProfile, error) {
	var (
		p     domain.UserProfile
		birth pgtype.Date
	)
	err := s.Scan(&p.ID, &p.FullName, &birth, &p.Gender, &p.Email, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.UserProfile{}, domain.ErrNotFound
		}
		return domain.UserProfile{}, err
	}
	if birth.Valid {
		p.BirthDate = birth.Time
	}
	return p, nil
}
