// Package repo contains all storage access logic for the STAC-IT API.
// Each resource has its own file with an interface and an implementation:
// Postgres for stacs and users, an in-memory TTL cache for creation flows.
// No business logic lives here, only SQL and type mapping.
package repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/stacit/stacit/backend/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool, pgx.Conn, and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows integration
// tests to pass a transaction that is rolled back after each test.
type db interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// StacRepo defines the persistence operations for STAC records.
// The service layer depends on this interface, not the Postgres implementation.
type StacRepo interface {
	// Upsert inserts the record keyed by id, or merges patch into the existing
	// record. Nil patch fields keep the stored value. Applying the same patch
	// twice leaves the record unchanged. Returns domain.ErrNotFound if id
	// exists but belongs to another owner.
	Upsert(ctx context.Context, ownerID string, id uuid.UUID, patch domain.StacPatch) (domain.StacRecord, error)

	// GetByID retrieves one record owned by ownerID.
	// Returns domain.ErrNotFound if no such record exists.
	GetByID(ctx context.Context, ownerID string, id uuid.UUID) (domain.StacRecord, error)

	// ListByOwner returns every record owned by ownerID ordered by date.
	ListByOwner(ctx context.Context, ownerID string) ([]domain.StacRecord, error)

	// Delete removes a record and returns it as it was before deletion.
	// Returns domain.ErrNotFound if it does not exist.
	Delete(ctx context.Context, ownerID string, id uuid.UUID) (domain.StacRecord, error)

	// DeleteDuplicates removes draft records of ownerID with the same name and
	// date, except keepID, and returns how many were removed.
	DeleteDuplicates(ctx context.Context, ownerID, name string, date time.Time, keepID uuid.UUID) (int64, error)
}

// pgStacRepo is the Postgres implementation of StacRepo.
type pgStacRepo struct {
	db db
}

// NewStacRepo constructs a StacRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewStacRepo(db db) StacRepo {
	return &pgStacRepo{db: db}
}

const stacColumns = `id, owner_id, name, date, start_at, end_at, location, preferences,
		budget_category, budget_amount, party_size,
		preference_order, selected_options, detailed_options, preference_timings,
		created_at, updated_at`

// Upsert writes the patch. COALESCE keeps the stored column whenever the
// patch leaves a field nil. The WHERE clause on the conflict branch
// suppresses the update (and RETURNING) for a key owned by someone else.
func (r *pgStacRepo) Upsert(ctx context.Context, ownerID string, id uuid.UUID, patch domain.StacPatch) (domain.StacRecord, error) {
	const q = `
		INSERT INTO stacs (id, owner_id, name, date, start_at, end_at, location, preferences,
		                   budget_category, budget_amount, party_size,
		                   preference_order, selected_options, detailed_options, preference_timings)
		VALUES (@id, @owner_id,
		        COALESCE(@name::text, ''),
		        COALESCE(@date::date, CURRENT_DATE),
		        COALESCE(@start_at::timestamptz, now()),
		        COALESCE(@end_at::timestamptz, now()),
		        COALESCE(@location::text, ''),
		        COALESCE(@preferences::text, ''),
		        COALESCE(@budget_category::text, ''),
		        COALESCE(@budget_amount::numeric, 0),
		        COALESCE(@party_size::integer, 0),
		        COALESCE(@preference_order::jsonb, '[]'::jsonb),
		        COALESCE(@selected_options::jsonb, '{}'::jsonb),
		        COALESCE(@detailed_options::jsonb, '{}'::jsonb),
		        COALESCE(@preference_timings::jsonb, '{}'::jsonb))
		ON CONFLICT (id) DO UPDATE SET
		    name               = COALESCE(@name::text, stacs.name),
		    date               = COALESCE(@date::date, stacs.date),
		    start_at           = COALESCE(@start_at::timestamptz, stacs.start_at),
		    end_at             = COALESCE(@end_at::timestamptz, stacs.end_at),
		    location           = COALESCE(@location::text, stacs.location),
		    preferences        = COALESCE(@preferences::text, stacs.preferences),
		    budget_category    = COALESCE(@budget_category::text, stacs.budget_category),
		    budget_amount      = COALESCE(@budget_amount::numeric, stacs.budget_amount),
		    party_size         = COALESCE(@party_size::integer, stacs.party_size),
		    preference_order   = COALESCE(@preference_order::jsonb, stacs.preference_order),
		    selected_options   = COALESCE(@selected_options::jsonb, stacs.selected_options),
		    detailed_options   = COALESCE(@detailed_options::jsonb, stacs.detailed_options),
		    preference_timings = COALESCE(@preference_timings::jsonb, stacs.preference_timings),
		    updated_at         = now()
		WHERE stacs.owner_id = EXCLUDED.owner_id
		RETURNING ` + stacColumns

	args, err := patchArgs(patch)
	if err != nil {
		return domain.StacRecord{}, fmt.Errorf("repo.StacRepo.Upsert: %w", err)
	}
	args["id"] = id
	args["owner_id"] = ownerID

	row := r.db.QueryRow(ctx, q, args)
	result, err := scanStac(row)
	if err != nil {
		return domain.StacRecord{}, fmt.Errorf("repo.StacRepo.Upsert: %w", err)
	}
	return result, nil
}

// GetByID retrieves a record by primary key, scoped to its owner.
func (r *pgStacRepo) GetByID(ctx context.Context, ownerID string, id uuid.UUID) (domain.StacRecord, error) {
	q := `SELECT ` + stacColumns + ` FROM stacs WHERE id = @id AND owner_id = @owner_id`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "owner_id": ownerID})
	result, err := scanStac(row)
	if err != nil {
		return domain.StacRecord{}, fmt.Errorf("repo.StacRepo.GetByID: %w", err)
	}
	return result, nil
}

// ListByOwner returns all records of one owner ordered by date, then creation.
func (r *pgStacRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.StacRecord, error) {
	q := `SELECT ` + stacColumns + ` FROM stacs WHERE owner_id = @owner_id ORDER BY date, created_at`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"owner_id": ownerID})
	if err != nil {
		return nil, fmt.Errorf("repo.StacRepo.ListByOwner: %w", err)
	}
	defer rows.Close()

	var stacs []domain.StacRecord
	for rows.Next() {
		s, err := scanStac(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.StacRepo.ListByOwner: scan: %w", err)
		}
		stacs = append(stacs, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.StacRepo.ListByOwner: rows: %w", err)
	}
	return stacs, nil
}

// Delete removes a record by primary key, scoped to its owner.
func (r *pgStacRepo) Delete(ctx context.Context, ownerID string, id uuid.UUID) (domain.StacRecord, error) {
	q := `DELETE FROM stacs WHERE id = @id AND owner_id = @owner_id RETURNING ` + stacColumns

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"id": id, "owner_id": ownerID})
	result, err := scanStac(row)
	if err != nil {
		return domain.StacRecord{}, fmt.Errorf("repo.StacRepo.Delete: %w", err)
	}
	return result, nil
}

// DeleteDuplicates removes same-owner, same-name, same-date draft records
// other than keepID. Records with a selection payload are never matched.
func (r *pgStacRepo) DeleteDuplicates(ctx context.Context, ownerID, name string, date time.Time, keepID uuid.UUID) (int64, error) {
	const q = `
		DELETE FROM stacs
		WHERE owner_id = @owner_id AND name = @name AND date = @date AND id <> @keep_id
		  AND selected_options = '{}'::jsonb AND detailed_options = '{}'::jsonb`

	tag, err := r.db.Exec(ctx, q, pgx.NamedArgs{
		"owner_id": ownerID,
		"name":     name,
		"date":     pgtype.Date{Time: date, Valid: true},
		"keep_id":  keepID,
	})
	if err != nil {
		return 0, fmt.Errorf("repo.StacRepo.DeleteDuplicates: %w", err)
	}
	return tag.RowsAffected(), nil
}

// patchArgs converts a patch into named args. Nil fields become SQL NULL so
// the COALESCE in Upsert falls back to the stored or default value.
func patchArgs(p domain.StacPatch) (pgx.NamedArgs, error) {
	args := pgx.NamedArgs{
		"name":               p.Name,
		"start_at":           p.StartAt,
		"end_at":             p.EndAt,
		"location":           p.Location,
		"preferences":        p.Preferences,
		"budget_amount":      p.BudgetAmount,
		"party_size":         p.PartySize,
		"date":               nil,
		"budget_category":    nil,
		"preference_order":   nil,
		"selected_options":   nil,
		"detailed_options":   nil,
		"preference_timings": nil,
	}
	if p.Date != nil {
		args["date"] = pgtype.Date{Time: *p.Date, Valid: true}
	}
	if p.BudgetCategory != nil {
		args["budget_category"] = string(*p.BudgetCategory)
	}
	if sel := p.Selection; sel != nil {
		for key, v := range map[string]any{
			"preference_order":   nonNilSlice(sel.PreferenceOrder),
			"selected_options":   nonNilMap(sel.SelectedOptions),
			"detailed_options":   nonNilMap(sel.DetailedOptions),
			"preference_timings": nonNilMap(sel.PreferenceTimings),
		} {
			b, err := json.Marshal(v)
			if err != nil {
				return nil, fmt.Errorf("encode %s: %w", key, err)
			}
			args[key] = b
		}
	}
	return args, nil
}

func nonNilSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMap[V any](m map[string]V) map[string]V {
	if m == nil {
		return map[string]V{}
	}
	return m
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing scanStac to be
// reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanStac maps a single database row into a domain.StacRecord.
// It handles the UUID, date and JSONB conversions.
func scanStac(s scanner) (domain.StacRecord, error) {
	var (
		rec                          domain.StacRecord
		id                           pgtype.UUID
		date                         pgtype.Date
		category                     string
		order, sel, detail, timingsB []byte
	)

	err := s.Scan(&id, &rec.OwnerID, &rec.Name, &date, &rec.StartAt, &rec.EndAt,
		&rec.Location, &rec.Preferences, &category, &rec.BudgetAmount, &rec.PartySize,
		&order, &sel, &detail, &timingsB, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.StacRecord{}, domain.ErrNotFound
		}
		return domain.StacRecord{}, err
	}

	rec.ID = uuid.UUID(id.Bytes)
	rec.Date = date.Time
	rec.BudgetCategory = domain.BudgetCategory(category)

	for _, f := range []struct {
		raw []byte
		dst any
	}{
		{order, &rec.PreferenceOrder},
		{sel, &rec.SelectedOptions},
		{detail, &rec.DetailedOptions},
		{timingsB, &rec.PreferenceTimings},
	} {
		if len(f.raw) == 0 {
			continue
		}
		if err := json.Unmarshal(f.raw, f.dst); err != nil {
			return domain.StacRecord{}, fmt.Errorf("decode jsonb column: %w", err)
		}
	}

	return rec, nil
}
