package service_test

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/stacit/stacit/backend/internal/domain"
	"github.com/stacit/stacit/backend/internal/repo"
	"github.com/stacit/stacit/backend/internal/sms"
)

// memStacRepo is an in-memory repo.StacRepo with the same merge semantics as
// the Postgres implementation. Error fields, when set, are returned instead.
type memStacRepo struct {
	mu      sync.Mutex
	records map[uuid.UUID]domain.StacRecord
	upserts int

	upsertErr     error
	deleteDupsErr error
}

func newMemStacRepo(recs ...domain.StacRecord) *memStacRepo {
	r := &memStacRepo{records: map[uuid.UUID]domain.StacRecord{}}
	for _, rec := range recs {
		r.records[rec.ID] = rec
	}
	return r
}

// compile-time check: memStacRepo must satisfy repo.StacRepo.
var _ repo.StacRepo = (*memStacRepo)(nil)

func (r *memStacRepo) Upsert(_ context.Context, ownerID string, id uuid.UUID, p domain.StacPatch) (domain.StacRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return domain.StacRecord{}, r.upsertErr
	}
	r.upserts++

	rec, ok := r.records[id]
	if ok && rec.OwnerID != ownerID {
		return domain.StacRecord{}, domain.ErrNotFound
	}
	if !ok {
		rec = domain.StacRecord{ID: id, OwnerID: ownerID, CreatedAt: time.Now()}
	}
	if p.Name != nil {
		rec.Name = *p.Name
	}
	if p.Date != nil {
		rec.Date = *p.Date
	}
	if p.StartAt != nil {
		rec.StartAt = *p.StartAt
	}
	if p.EndAt != nil {
		rec.EndAt = *p.EndAt
	}
	if p.Location != nil {
		rec.Location = *p.Location
	}
	if p.Preferences != nil {
		rec.Preferences = *p.Preferences
	}
	if p.BudgetCategory != nil {
		rec.BudgetCategory = *p.BudgetCategory
	}
	if p.BudgetAmount != nil {
		rec.BudgetAmount = *p.BudgetAmount
	}
	if p.PartySize != nil {
		rec.PartySize = *p.PartySize
	}
	if s := p.Selection; s != nil {
		rec.PreferenceOrder = s.PreferenceOrder
		rec.SelectedOptions = s.SelectedOptions
		rec.DetailedOptions = s.DetailedOptions
		rec.PreferenceTimings = s.PreferenceTimings
	}
	rec.UpdatedAt = time.Now()
	r.records[id] = rec
	return rec, nil
}

func (r *memStacRepo) GetByID(_ context.Context, ownerID string, id uuid.UUID) (domain.StacRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok || rec.OwnerID != ownerID {
		return domain.StacRecord{}, domain.ErrNotFound
	}
	return rec, nil
}

func (r *memStacRepo) ListByOwner(_ context.Context, ownerID string) ([]domain.StacRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []domain.StacRecord
	for _, rec := range r.records {
		if rec.OwnerID == ownerID {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *memStacRepo) Delete(_ context.Context, ownerID string, id uuid.UUID) (domain.StacRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.records[id]
	if !ok || rec.OwnerID != ownerID {
		return domain.StacRecord{}, domain.ErrNotFound
	}
	delete(r.records, id)
	return rec, nil
}

func (r *memStacRepo) DeleteDuplicates(_ context.Context, ownerID, name string, date time.Time, keepID uuid.UUID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.deleteDupsErr != nil {
		return 0, r.deleteDupsErr
	}
	var n int64
	for id, rec := range r.records {
		if id != keepID && rec.OwnerID == ownerID && rec.Name == name && rec.Date.Equal(date) && !rec.IsComplete() {
			delete(r.records, id)
			n++
		}
	}
	return n, nil
}

func (r *memStacRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// mockProfileRepo is a hand-written test double for repo.ProfileRepo.
// Each method is a function field, set only the ones your test needs.
type mockProfileRepo struct {
	upsert  func(ctx context.Context, p domain.UserProfile) (domain.UserProfile, error)
	getByID func(ctx context.Context, id string) (domain.UserProfile, error)
}

var _ repo.ProfileRepo = (*mockProfileRepo)(nil)

func (m *mockProfileRepo) Upsert(ctx context.Context, p domain.UserProfile) (domain.UserProfile, error) {
	return m.upsert(ctx, p)
}
func (m *mockProfileRepo) GetByID(ctx context.Context, id string) (domain.UserProfile, error) {
	return m.getByID(ctx, id)
}

// mockSuggester records every prompt and answers with reply.
type mockSuggester struct {
	prompts []string
	reply   func(prompt string) (string, error)
}

func (m *mockSuggester) Suggest(_ context.Context, message string) (string, error) {
	m.prompts = append(m.prompts, message)
	return m.reply(message)
}

// mockGateway is a hand-written sms.Gateway.
type mockGateway struct {
	available bool
	send      func(ctx context.Context, to []string, body string) (string, error)
}

var _ sms.Gateway = (*mockGateway)(nil)

func (m *mockGateway) Available() bool { return m.available }
func (m *mockGateway) Send(ctx context.Context, to []string, body string) (string, error) {
	return m.send(ctx, to, body)
}
