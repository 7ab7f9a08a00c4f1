package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/stacit/stacit/backend/internal/domain"
)

// FlowRepo stores open creation flows. Flows are ephemeral: they expire after
// a period of inactivity and are never written to Postgres.
type FlowRepo interface {
	// Save stores the flow, resetting its expiry.
	Save(ctx context.Context, flow *domain.CreationFlow) error

	// Get returns the flow with id. Returns domain.ErrNotFound if it never
	// existed, expired or was removed.
	Get(ctx context.Context, id uuid.UUID) (*domain.CreationFlow, error)

	// Remove evicts the flow. Removing an unknown flow is not an error.
	Remove(ctx context.Context, id uuid.UUID) error
}

// memFlowRepo is the go-cache implementation of FlowRepo.
type memFlowRepo struct {
	cache *cache.Cache
}

// NewFlowRepo constructs a FlowRepo whose entries expire ttl after their last
// Save. Expired entries are purged every cleanup interval.
func NewFlowRepo(ttl, cleanup time.Duration) FlowRepo {
	return &memFlowRepo{cache: cache.New(ttl, cleanup)}
}

// Save stores a copy of the flow so callers cannot mutate cached state
// without saving again.
func (r *memFlowRepo) Save(_ context.Context, flow *domain.CreationFlow) error {
	r.cache.SetDefault(flow.ID.String(), cloneFlow(flow))
	return nil
}

// Get returns a copy of the cached flow.
func (r *memFlowRepo) Get(_ context.Context, id uuid.UUID) (*domain.CreationFlow, error) {
	v, ok := r.cache.Get(id.String())
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneFlow(v.(*domain.CreationFlow)), nil
}

// Remove deletes the flow from the cache.
func (r *memFlowRepo) Remove(_ context.Context, id uuid.UUID) error {
	r.cache.Delete(id.String())
	return nil
}

// cloneFlow deep-copies the mutable slices and maps of a flow.
func cloneFlow(f *domain.CreationFlow) *domain.CreationFlow {
	c := *f
	c.Draft.Activities = append([]string(nil), f.Draft.Activities...)
	if f.Submitted != nil {
		s := *f.Submitted
		s.Preferences = append([]string(nil), f.Submitted.Preferences...)
		c.Submitted = &s
	}
	c.Suggestions.Preferences = make([]domain.PreferenceSuggestions, len(f.Suggestions.Preferences))
	for i, p := range f.Suggestions.Preferences {
		p.Options = append([]domain.Option(nil), p.Options...)
		if p.Timing != nil {
			t := *p.Timing
			p.Timing = &t
		}
		c.Suggestions.Preferences[i] = p
	}
	c.Selection = make(domain.Selection, len(f.Selection))
	for k, v := range f.Selection {
		c.Selection[k] = append([]string(nil), v...)
	}
	return &c
}
