package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/stacit/stacit/backend/internal/domain"
	"github.com/stacit/stacit/backend/internal/repo"
	"github.com/stacit/stacit/backend/internal/suggest"
)

// Suggester sends one prompt to the suggestion endpoint and returns the raw
// reply. *suggest.Client satisfies it.
type Suggester interface {
	Suggest(ctx context.Context, message string) (string, error)
}

// FlowService drives a STAC creation flow from the empty form through
// suggestions and selection to the finalized record.
type FlowService struct {
	flows     repo.FlowRepo
	stacs     repo.StacRepo
	suggester Suggester
	share     *ShareService
	opts      Options
}

// NewFlowService constructs a FlowService.
func NewFlowService(flows repo.FlowRepo, stacs repo.StacRepo, s Suggester, share *ShareService, opts Options) *FlowService {
	return &FlowService{flows: flows, stacs: stacs, suggester: s, share: share, opts: opts.withDefaults()}
}

// Start opens a flow for the caller. initial, when non-nil, pre-fills the form.
func (s *FlowService) Start(ctx context.Context, sess domain.Session, initial *domain.DraftUpdate) (*domain.CreationFlow, error) {
	draft := domain.NewDraft()
	if initial != nil {
		draft.Apply(*initial)
	}
	flow := domain.NewCreationFlow(sess.UserID, draft, s.opts.Now())
	if err := s.save(ctx, flow); err != nil {
		return nil, fmt.Errorf("service.FlowService.Start: %w", err)
	}
	return flow, nil
}

// Get returns one of the caller's open flows.
func (s *FlowService) Get(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.CreationFlow, error) {
	flow, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, fmt.Errorf("service.FlowService.Get: %w", err)
	}
	return flow, nil
}

// UpdateDraft applies a partial form edit.
func (s *FlowService) UpdateDraft(ctx context.Context, sess domain.Session, id uuid.UUID, u domain.DraftUpdate) (*domain.CreationFlow, error) {
	flow, err := s.editDraft(ctx, sess, id, func(d *domain.Draft) error {
		d.Apply(u)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("service.FlowService.UpdateDraft: %w", err)
	}
	return flow, nil
}

// AddActivity appends an empty activity slot to the form.
func (s *FlowService) AddActivity(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.CreationFlow, error) {
	flow, err := s.editDraft(ctx, sess, id, func(d *domain.Draft) error {
		d.AddActivity()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("service.FlowService.AddActivity: %w", err)
	}
	return flow, nil
}

// SetActivity replaces the text of one activity slot.
func (s *FlowService) SetActivity(ctx context.Context, sess domain.Session, id uuid.UUID, index int, text string) (*domain.CreationFlow, error) {
	flow, err := s.editDraft(ctx, sess, id, func(d *domain.Draft) error {
		return d.SetActivity(index, text)
	})
	if err != nil {
		return nil, fmt.Errorf("service.FlowService.SetActivity: %w", err)
	}
	return flow, nil
}

// RemoveActivity removes one activity slot. The first slot stays.
func (s *FlowService) RemoveActivity(ctx context.Context, sess domain.Session, id uuid.UUID, index int) (*domain.CreationFlow, error) {
	flow, err := s.editDraft(ctx, sess, id, func(d *domain.Draft) error {
		d.RemoveActivity(index)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("service.FlowService.RemoveActivity: %w", err)
	}
	return flow, nil
}

// Submit validates the form, writes the draft record and asks for the first
// round of suggestions. A validation or suggestion failure puts the flow back
// into editing. Resubmitting reuses the same record key.
func (s *FlowService) Submit(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.CreationFlow, error) {
	flow, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, fmt.Errorf("service.FlowService.Submit: %w", err)
	}
	if err := flow.Transition(domain.FlowValidating); err != nil {
		return nil, fmt.Errorf("service.FlowService.Submit: %w", err)
	}

	valid, err := ValidateDraft(flow.Draft)
	if err != nil {
		return nil, s.fail(ctx, flow, domain.FlowEditing, fmt.Errorf("service.FlowService.Submit: %w", err))
	}
	flow.Submitted = &valid
	if err := flow.Transition(domain.FlowSubmitting); err != nil {
		return nil, fmt.Errorf("service.FlowService.Submit: %w", err)
	}
	if flow.RecordID == uuid.Nil {
		if flow.RecordID, err = uuid.NewV7(); err != nil {
			return nil, fmt.Errorf("service.FlowService.Submit: record key: %w", err)
		}
	}
	if err := s.save(ctx, flow); err != nil {
		return nil, fmt.Errorf("service.FlowService.Submit: %w", err)
	}

	if _, err := s.stacs.Upsert(ctx, sess.UserID, flow.RecordID, draftPatch(valid, s.opts)); err != nil {
		return nil, s.fail(ctx, flow, domain.FlowEditing, fmt.Errorf("service.FlowService.Submit: %w", err))
	}

	body, err := s.suggester.Suggest(ctx, suggest.BuildPrompt(valid, nil, nil))
	if err != nil {
		return nil, s.fail(ctx, flow, domain.FlowEditing, fmt.Errorf("service.FlowService.Submit: %w", err))
	}

	s.applySuggestions(ctx, flow, body)
	if err := flow.Transition(domain.FlowSuggestionsShown); err != nil {
		return nil, fmt.Errorf("service.FlowService.Submit: %w", err)
	}
	if err := s.save(ctx, flow); err != nil {
		return nil, fmt.Errorf("service.FlowService.Submit: %w", err)
	}
	return flow, nil
}

// Toggle selects or deselects one suggested option.
func (s *FlowService) Toggle(ctx context.Context, sess domain.Session, id uuid.UUID, preference, option string) (*domain.CreationFlow, error) {
	flow, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, fmt.Errorf("service.FlowService.Toggle: %w", err)
	}
	if err := flow.Require(domain.FlowSuggestionsShown, domain.FlowSelecting); err != nil {
		return nil, fmt.Errorf("service.FlowService.Toggle: %w", err)
	}
	if err := flow.Selection.Toggle(flow.Suggestions, preference, option); err != nil {
		return nil, fmt.Errorf("service.FlowService.Toggle: %w", err)
	}
	if err := flow.Transition(domain.FlowSelecting); err != nil {
		return nil, fmt.Errorf("service.FlowService.Toggle: %w", err)
	}
	if err := s.save(ctx, flow); err != nil {
		return nil, fmt.Errorf("service.FlowService.Toggle: %w", err)
	}
	return flow, nil
}

// Refresh asks for a new round of suggestions, telling the endpoint to keep
// the current selections. Selections missing from the new round are dropped.
// On failure the previous suggestions stay in place.
func (s *FlowService) Refresh(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.CreationFlow, error) {
	flow, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, fmt.Errorf("service.FlowService.Refresh: %w", err)
	}
	if err := flow.Transition(domain.FlowRefreshing); err != nil {
		return nil, fmt.Errorf("service.FlowService.Refresh: %w", err)
	}
	if err := s.save(ctx, flow); err != nil {
		return nil, fmt.Errorf("service.FlowService.Refresh: %w", err)
	}

	prompt := suggest.BuildPrompt(*flow.Submitted, flow.Selection, flow.Suggestions.Order())
	body, err := s.suggester.Suggest(ctx, prompt)
	if err != nil {
		return nil, s.fail(ctx, flow, domain.FlowSuggestionsShown, fmt.Errorf("service.FlowService.Refresh: %w", err))
	}

	s.applySuggestions(ctx, flow, body)
	flow.Selection.Retain(flow.Suggestions)
	if err := flow.Transition(domain.FlowSuggestionsShown); err != nil {
		return nil, fmt.Errorf("service.FlowService.Refresh: %w", err)
	}
	if err := s.save(ctx, flow); err != nil {
		return nil, fmt.Errorf("service.FlowService.Refresh: %w", err)
	}
	return flow, nil
}

// Finalize merges the selections into the draft record and closes the flow.
// Returns domain.ErrNoActivitySelected, without writing, when nothing is
// selected.
func (s *FlowService) Finalize(ctx context.Context, sess domain.Session, id uuid.UUID) (domain.StacRecord, error) {
	flow, err := s.load(ctx, sess, id)
	if err != nil {
		return domain.StacRecord{}, fmt.Errorf("service.FlowService.Finalize: %w", err)
	}
	if err := flow.Require(domain.FlowSuggestionsShown, domain.FlowSelecting); err != nil {
		return domain.StacRecord{}, fmt.Errorf("service.FlowService.Finalize: %w", err)
	}
	chosen := flow.Selection.NonEmpty()
	if len(chosen) == 0 {
		return domain.StacRecord{}, fmt.Errorf("service.FlowService.Finalize: %w", domain.ErrNoActivitySelected)
	}
	if err := flow.Transition(domain.FlowFinalizing); err != nil {
		return domain.StacRecord{}, fmt.Errorf("service.FlowService.Finalize: %w", err)
	}
	if err := s.save(ctx, flow); err != nil {
		return domain.StacRecord{}, fmt.Errorf("service.FlowService.Finalize: %w", err)
	}

	patch := domain.StacPatch{Selection: finalSelection(flow.Suggestions, chosen)}
	rec, err := s.stacs.Upsert(ctx, sess.UserID, flow.RecordID, patch)
	if err != nil {
		return domain.StacRecord{}, s.fail(ctx, flow, domain.FlowSuggestionsShown, fmt.Errorf("service.FlowService.Finalize: %w", err))
	}

	if err := flow.Transition(domain.FlowClosed); err != nil {
		return domain.StacRecord{}, fmt.Errorf("service.FlowService.Finalize: %w", err)
	}
	if err := s.flows.Remove(ctx, flow.ID); err != nil {
		return domain.StacRecord{}, fmt.Errorf("service.FlowService.Finalize: %w", err)
	}
	s.opts.Metrics.IncFinalized()
	return rec, nil
}

// Discard closes the flow without finalizing. A draft record written by an
// earlier submit is deleted.
func (s *FlowService) Discard(ctx context.Context, sess domain.Session, id uuid.UUID) error {
	flow, err := s.load(ctx, sess, id)
	if err != nil {
		return fmt.Errorf("service.FlowService.Discard: %w", err)
	}
	if err := flow.Transition(domain.FlowClosed); err != nil {
		return fmt.Errorf("service.FlowService.Discard: %w", err)
	}
	if err := s.flows.Remove(ctx, flow.ID); err != nil {
		return fmt.Errorf("service.FlowService.Discard: %w", err)
	}
	if flow.RecordID == uuid.Nil {
		return nil
	}
	if _, err := s.stacs.Delete(ctx, sess.UserID, flow.RecordID); err != nil && !errors.Is(err, domain.ErrNotFound) {
		return fmt.Errorf("service.FlowService.Discard: %w", err)
	}
	return nil
}

// Share sends the plan as it currently stands, selections included, to the
// comma-separated recipients.
func (s *FlowService) Share(ctx context.Context, sess domain.Session, id uuid.UUID, recipients string) (string, error) {
	to, err := ParseRecipients(recipients)
	if err != nil {
		return "", fmt.Errorf("service.FlowService.Share: %w", err)
	}
	flow, err := s.load(ctx, sess, id)
	if err != nil {
		return "", fmt.Errorf("service.FlowService.Share: %w", err)
	}
	if err := flow.Require(domain.FlowSuggestionsShown, domain.FlowSelecting); err != nil {
		return "", fmt.Errorf("service.FlowService.Share: %w", err)
	}
	status, err := s.share.send(ctx, to, planRecord(flow, s.opts))
	if err != nil {
		return "", fmt.Errorf("service.FlowService.Share: %w", err)
	}
	return status, nil
}

// load fetches a flow and hides flows owned by someone else.
func (s *FlowService) load(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.CreationFlow, error) {
	flow, err := s.flows.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if flow.OwnerID != sess.UserID {
		return nil, domain.ErrNotFound
	}
	return flow, nil
}

func (s *FlowService) save(ctx context.Context, flow *domain.CreationFlow) error {
	flow.UpdatedAt = s.opts.Now()
	return s.flows.Save(ctx, flow)
}

func (s *FlowService) editDraft(ctx context.Context, sess domain.Session, id uuid.UUID, edit func(*domain.Draft) error) (*domain.CreationFlow, error) {
	flow, err := s.load(ctx, sess, id)
	if err != nil {
		return nil, err
	}
	if err := flow.Require(domain.FlowEditing); err != nil {
		return nil, err
	}
	if err := edit(&flow.Draft); err != nil {
		return nil, err
	}
	flow.LastError = ""
	if err := s.save(ctx, flow); err != nil {
		return nil, err
	}
	return flow, nil
}

// fail moves the flow to a stable state, records cause on it and returns
// cause. A failure to save the flow is logged, cause still wins.
func (s *FlowService) fail(ctx context.Context, flow *domain.CreationFlow, to domain.FlowState, cause error) error {
	if err := flow.Transition(to); err != nil {
		return errors.Join(cause, err)
	}
	flow.LastError = userMessage(cause)
	if err := s.save(ctx, flow); err != nil {
		s.opts.Logger.ErrorContext(ctx, "save flow after failure",
			slog.String("flow_id", flow.ID.String()),
			slog.String("error", err.Error()),
		)
	}
	return cause
}

// applySuggestions decodes body onto the flow. A malformed reply is logged and
// shown as an empty set.
func (s *FlowService) applySuggestions(ctx context.Context, flow *domain.CreationFlow, body string) {
	flow.LastError = ""
	set, err := suggest.Decode(body)
	if err != nil {
		s.opts.Logger.WarnContext(ctx, "malformed suggestion response",
			slog.String("flow_id", flow.ID.String()),
			slog.String("error", err.Error()),
		)
		flow.Suggestions = domain.SuggestionSet{Preferences: []domain.PreferenceSuggestions{}}
		flow.SuggestionStatus = domain.SuggestionsMalformed
		return
	}
	flow.Suggestions = set
	flow.SuggestionStatus = lo.Ternary(set.IsEmpty(), domain.SuggestionsEmpty, domain.SuggestionsOK)
}

// draftPatch is the record written at submit, before any selection.
func draftPatch(v domain.ValidDraft, o Options) domain.StacPatch {
	date := civilDate(v.Date)
	start := v.Start.On(date, o.Location)
	end := v.End.On(date, o.Location)
	location := v.Location()
	prefs := strings.Join(v.Preferences, ", ")
	category := v.BudgetCategory
	budget := v.Budget
	party := v.PartySize
	name := v.Name
	return domain.StacPatch{
		Name:           &name,
		Date:           &date,
		StartAt:        &start,
		EndAt:          &end,
		Location:       &location,
		Preferences:    &prefs,
		BudgetCategory: &category,
		BudgetAmount:   &budget,
		PartySize:      &party,
	}
}

// finalSelection enriches the chosen option names with the details and
// timings of the suggestion round they came from.
func finalSelection(set domain.SuggestionSet, chosen domain.Selection) *domain.FinalSelection {
	detailed := make(map[string][]domain.SelectedOption, len(chosen))
	for pref, opts := range chosen {
		for _, name := range opts {
			o, _ := set.Option(pref, name)
			detailed[pref] = append(detailed[pref], domain.SelectedOption{
				Name:        name,
				Description: o.Description,
				Location:    o.Location,
			})
		}
	}
	return &domain.FinalSelection{
		PreferenceOrder:   set.Order(),
		SelectedOptions:   map[string][]string(chosen),
		DetailedOptions:   detailed,
		PreferenceTimings: set.Timings(),
	}
}

// planRecord renders an open flow as the record it would finalize into.
func planRecord(flow *domain.CreationFlow, o Options) domain.StacRecord {
	v := *flow.Submitted
	p := draftPatch(v, o)
	rec := domain.StacRecord{
		ID:             flow.RecordID,
		OwnerID:        flow.OwnerID,
		Name:           *p.Name,
		Date:           *p.Date,
		StartAt:        *p.StartAt,
		EndAt:          *p.EndAt,
		Location:       *p.Location,
		Preferences:    *p.Preferences,
		BudgetCategory: *p.BudgetCategory,
		BudgetAmount:   *p.BudgetAmount,
		PartySize:      *p.PartySize,
	}
	if sel := flow.Selection.NonEmpty(); len(sel) > 0 {
		fs := finalSelection(flow.Suggestions, sel)
		rec.PreferenceOrder = fs.PreferenceOrder
		rec.SelectedOptions = fs.SelectedOptions
		rec.DetailedOptions = fs.DetailedOptions
		rec.PreferenceTimings = fs.PreferenceTimings
	}
	return rec
}

// userMessage strips the wrapping prefixes so the flow carries the message a
// person should read, e.g. "invalid state code".
func userMessage(err error) string {
	for _, target := range []error{
		domain.ErrIncompleteFields, domain.ErrInvalidStateCode, domain.ErrInvalidBudget,
		domain.ErrInvalidPartySize, domain.ErrInvalidTimeWindow,
	} {
		if errors.Is(err, target) {
			return strings.TrimPrefix(target.Error(), domain.ErrValidation.Error()+": ")
		}
	}
	switch {
	case errors.Is(err, domain.ErrSuggestionUnavailable):
		return domain.ErrSuggestionUnavailable.Error()
	case errors.Is(err, domain.ErrNotFound):
		return domain.ErrNotFound.Error()
	}
	return "internal error"
}
