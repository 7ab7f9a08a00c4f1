package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/stacit/stacit/backend/internal/domain"
	"github.com/stacit/stacit/backend/internal/metrics"
	"github.com/stacit/stacit/backend/internal/repo"
	"github.com/stacit/stacit/backend/internal/sms"
)

// ShareService formats STACs as text messages and sends them over SMS.
type ShareService struct {
	repo    repo.StacRepo
	gateway sms.Gateway
	opts    Options
}

// NewShareService constructs a ShareService.
func NewShareService(r repo.StacRepo, g sms.Gateway, opts Options) *ShareService {
	return &ShareService{repo: r, gateway: g, opts: opts.withDefaults()}
}

// ShareStac sends a saved STAC of the caller to the comma-separated
// recipients and returns the gateway status.
func (s *ShareService) ShareStac(ctx context.Context, sess domain.Session, id uuid.UUID, recipients string) (string, error) {
	to, err := ParseRecipients(recipients)
	if err != nil {
		return "", fmt.Errorf("service.ShareService.ShareStac: %w", err)
	}
	rec, err := s.repo.GetByID(ctx, sess.UserID, id)
	if err != nil {
		return "", fmt.Errorf("service.ShareService.ShareStac: %w", err)
	}
	status, err := s.send(ctx, to, rec)
	if err != nil {
		return "", fmt.Errorf("service.ShareService.ShareStac: %w", err)
	}
	return status, nil
}

// send formats rec and delivers it to already parsed recipients.
func (s *ShareService) send(ctx context.Context, to []string, rec domain.StacRecord) (string, error) {
	if !s.gateway.Available() {
		s.opts.Metrics.ObserveSMS(metrics.OutcomeSkipped)
		return "", domain.ErrSMSUnavailable
	}
	status, err := s.gateway.Send(ctx, to, s.FormatMessage(rec))
	if err != nil {
		s.opts.Metrics.ObserveSMS(metrics.OutcomeError)
		s.opts.Logger.WarnContext(ctx, "sms send failed",
			slog.String("stac_id", rec.ID.String()),
			slog.String("error", err.Error()),
		)
		if errors.Is(err, domain.ErrSendFailed) || errors.Is(err, domain.ErrSMSUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("%w: %v", domain.ErrSendFailed, err)
	}
	s.opts.Metrics.ObserveSMS(metrics.OutcomeOK)
	return status, nil
}

// FormatMessage renders rec as a plain-text message.
func (s *ShareService) FormatMessage(rec domain.StacRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "STAC: %s\n", rec.Name)
	fmt.Fprintf(&b, "Date: %s\n", rec.Date.Format("Mon Jan 02 2006"))
	if !rec.StartAt.IsZero() && !rec.EndAt.IsZero() {
		fmt.Fprintf(&b, "Time: %s - %s\n", clock(rec.StartAt.In(s.opts.Location)), clock(rec.EndAt.In(s.opts.Location)))
	}
	fmt.Fprintf(&b, "Location: %s\n", rec.Location)
	fmt.Fprintf(&b, "Preferences: %s\n", rec.Preferences)
	if rec.BudgetAmount > 0 {
		fmt.Fprintf(&b, "Budget: %s ($%s per person)\n", rec.BudgetCategory, strconv.FormatFloat(rec.BudgetAmount, 'f', -1, 64))
	} else {
		fmt.Fprintf(&b, "Budget: %s\n", rec.BudgetCategory)
	}
	fmt.Fprintf(&b, "Party size: %d\n", rec.PartySize)

	prefs := rec.SelectedPreferences()
	if len(prefs) == 0 {
		return strings.TrimRight(b.String(), "\n")
	}
	b.WriteString("\nRecommendations:\n")
	for _, pref := range prefs {
		b.WriteString(pref)
		if t, ok := rec.PreferenceTimings[pref]; ok && (t.Start != "" || t.End != "") {
			fmt.Fprintf(&b, " (%s - %s)", t.Start, t.End)
		}
		b.WriteString("\n")
		for _, opt := range rec.SelectedOptions[pref] {
			d := rec.OptionDetail(pref, opt)
			fmt.Fprintf(&b, "- %s", opt)
			if d.Description != "" {
				fmt.Fprintf(&b, ": %s", d.Description)
			}
			if d.Location != "" {
				fmt.Fprintf(&b, " (%s)", d.Location)
			}
			b.WriteString("\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

// ParseRecipients splits a comma-separated recipient list, trimming entries
// and dropping empty ones. Returns domain.ErrNoRecipients if none remain.
func ParseRecipients(csv string) ([]string, error) {
	to := lo.Compact(lo.Map(strings.Split(csv, ","), func(r string, _ int) string {
		return strings.TrimSpace(r)
	}))
	if len(to) == 0 {
		return nil, domain.ErrNoRecipients
	}
	return to, nil
}

// clock formats an instant as "8:00am".
func clock(t time.Time) string {
	return domain.TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}.Kitchen()
}
