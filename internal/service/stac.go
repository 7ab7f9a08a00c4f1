package service

import (
	"cmp"
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/stacit/stacit/backend/internal/domain"
	"github.com/stacit/stacit/backend/internal/metrics"
	"github.com/stacit/stacit/backend/internal/repo"
)

// Options carries the collaborators every service shares.
// Zero fields fall back to UTC, time.Now, slog.Default and no metrics.
type Options struct {
	Location *time.Location
	Now      func() time.Time
	Logger   *slog.Logger
	Metrics  *metrics.Metrics
}

func (o Options) withDefaults() Options {
	if o.Location == nil {
		o.Location = time.UTC
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	return o
}

// today returns the current calendar date in the configured zone, expressed
// the way record dates are stored (midnight UTC).
func (o Options) today() time.Time {
	n := o.Now().In(o.Location)
	return time.Date(n.Year(), n.Month(), n.Day(), 0, 0, 0, 0, time.UTC)
}

// StacService implements business logic for saved STACs.
type StacService struct {
	repo repo.StacRepo
	opts Options
}

// NewStacService constructs a StacService backed by the provided StacRepo.
func NewStacService(r repo.StacRepo, opts Options) *StacService {
	return &StacService{repo: r, opts: opts.withDefaults()}
}

// List returns the caller's complete STACs split around today: scheduled
// ones soonest first, past ones most recent first. Records that never got a
// selection are left out.
func (s *StacService) List(ctx context.Context, sess domain.Session) (domain.StacListing, error) {
	all, err := s.repo.ListByOwner(ctx, sess.UserID)
	if err != nil {
		return domain.StacListing{}, fmt.Errorf("service.StacService.List: %w", err)
	}

	today := s.opts.today()
	complete := lo.Filter(all, func(r domain.StacRecord, _ int) bool { return r.IsComplete() })
	scheduled, past := lo.FilterReject(complete, func(r domain.StacRecord, _ int) bool {
		return !civilDate(r.Date).Before(today)
	})

	slices.SortStableFunc(scheduled, func(a, b domain.StacRecord) int {
		return cmp.Or(a.Date.Compare(b.Date), a.StartAt.Compare(b.StartAt))
	})
	slices.SortStableFunc(past, func(a, b domain.StacRecord) int {
		return cmp.Or(b.Date.Compare(a.Date), b.StartAt.Compare(a.StartAt))
	})

	return domain.StacListing{
		Scheduled: lo.Ternary(scheduled == nil, []domain.StacRecord{}, scheduled),
		Past:      lo.Ternary(past == nil, []domain.StacRecord{}, past),
	}, nil
}

// GetByID returns one STAC owned by the caller.
func (s *StacService) GetByID(ctx context.Context, sess domain.Session, id uuid.UUID) (domain.StacRecord, error) {
	rec, err := s.repo.GetByID(ctx, sess.UserID, id)
	if err != nil {
		return domain.StacRecord{}, fmt.Errorf("service.StacService.GetByID: %w", err)
	}
	return rec, nil
}

// Delete removes a STAC, then removes any draft record of the caller with
// the same name and date. The second step is best effort: its failure is
// logged and does not fail the delete.
func (s *StacService) Delete(ctx context.Context, sess domain.Session, id uuid.UUID) error {
	deleted, err := s.repo.Delete(ctx, sess.UserID, id)
	if err != nil {
		return fmt.Errorf("service.StacService.Delete: %w", err)
	}

	n, err := s.repo.DeleteDuplicates(ctx, sess.UserID, deleted.Name, deleted.Date, deleted.ID)
	if err != nil {
		s.opts.Logger.WarnContext(ctx, "duplicate cleanup failed",
			slog.String("stac_id", id.String()),
			slog.String("error", err.Error()),
		)
		return nil
	}
	if n > 0 {
		s.opts.Logger.InfoContext(ctx, "removed duplicate stacs",
			slog.String("stac_id", id.String()),
			slog.Int64("count", n),
		)
	}
	return nil
}

// Export returns one ExportRow per selected option across the caller's
// complete STACs, ordered by date.
func (s *StacService) Export(ctx context.Context, sess domain.Session) ([]domain.ExportRow, error) {
	all, err := s.repo.ListByOwner(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("service.StacService.Export: %w", err)
	}

	rows := []domain.ExportRow{}
	for _, rec := range all {
		if !rec.IsComplete() {
			continue
		}
		for _, pref := range rec.SelectedPreferences() {
			timing := rec.PreferenceTimings[pref]
			for _, opt := range rec.SelectedOptions[pref] {
				d := rec.OptionDetail(pref, opt)
				rows = append(rows, domain.ExportRow{
					StacID:         rec.ID.String(),
					StacName:       rec.Name,
					Date:           rec.Date.Format("2006-01-02"),
					StartAt:        rec.StartAt,
					EndAt:          rec.EndAt,
					Location:       rec.Location,
					BudgetCategory: string(rec.BudgetCategory),
					PartySize:      rec.PartySize,
					Preference:     pref,
					OptionName:     opt,
					Description:    d.Description,
					OptionPlace:    d.Location,
					TimingStart:    timing.Start,
					TimingEnd:      timing.End,
				})
			}
		}
	}
	return rows, nil
}

// civilDate drops the clock part of a stored date.
func civilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
