package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/samber/lo"

	"github.com/stacit/stacit/backend/internal/domain"
	"github.com/stacit/stacit/backend/internal/repo"
)

// minAge is the youngest age allowed to finish onboarding.
const minAge = 18

// genders lists the accepted values of the optional gender answer.
var genders = []string{"female", "male", "non_binary", "other", "prefer_not_to_say"}

// ProfileService implements business logic for onboarding profiles.
type ProfileService struct {
	repo repo.ProfileRepo
	opts Options
}

// NewProfileService constructs a ProfileService backed by the provided ProfileRepo.
func NewProfileService(r repo.ProfileRepo, opts Options) *ProfileService {
	return &ProfileService{repo: r, opts: opts.withDefaults()}
}

// Save validates the onboarding answers and merges them into the caller's
// profile. The profile id and email always come from the session.
func (s *ProfileService) Save(ctx context.Context, sess domain.Session, p domain.UserProfile) (domain.UserProfile, error) {
	p.FullName = strings.TrimSpace(p.FullName)
	p.Gender = strings.ToLower(strings.TrimSpace(p.Gender))

	if p.FullName == "" {
		return domain.UserProfile{}, fmt.Errorf("service.ProfileService.Save: %w: full name is required", domain.ErrValidation)
	}
	if p.BirthDate.IsZero() {
		return domain.UserProfile{}, fmt.Errorf("service.ProfileService.Save: %w: birth date is required", domain.ErrValidation)
	}
	if !oldEnough(p.BirthDate, s.opts) {
		return domain.UserProfile{}, fmt.Errorf("service.ProfileService.Save: %w: must be at least %d", domain.ErrValidation, minAge)
	}
	if p.Gender != "" && !lo.Contains(genders, p.Gender) {
		return domain.UserProfile{}, fmt.Errorf("service.ProfileService.Save: %w: unknown gender %q", domain.ErrValidation, p.Gender)
	}

	p.ID = sess.UserID
	p.Email = sess.Email

	saved, err := s.repo.Upsert(ctx, p)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("service.ProfileService.Save: %w", err)
	}
	return saved, nil
}

// Get returns the caller's profile.
// Returns domain.ErrNotFound if onboarding never happened.
func (s *ProfileService) Get(ctx context.Context, sess domain.Session) (domain.UserProfile, error) {
	p, err := s.repo.GetByID(ctx, sess.UserID)
	if err != nil {
		return domain.UserProfile{}, fmt.Errorf("service.ProfileService.Get: %w", err)
	}
	return p, nil
}

// oldEnough reports whether someone born on birth has turned minAge today.
func oldEnough(birth time.Time, o Options) bool {
	cutoff := o.today().AddDate(-minAge, 0, 0)
	return !civilDate(birth).After(cutoff)
}
