// Package service contains the business logic for the STAC-IT API.
// Services validate inputs, enforce business rules, and orchestrate repo,
// suggestion and SMS calls. No SQL lives here; services depend on
// interfaces, not implementations.
package service

import (
	"math"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/stacit/stacit/backend/internal/domain"
)

// Upper bounds of the stacs.budget_amount NUMERIC(10,2) and
// stacs.party_size INTEGER columns.
const (
	maxBudget    = 99_999_999.99
	maxPartySize = math.MaxInt32
)

// ValidateDraft checks a draft and parses it into a ValidDraft.
// Rules are checked in a fixed order and the first failure is returned.
func ValidateDraft(d domain.Draft) (domain.ValidDraft, error) {
	prefs := lo.Filter(lo.Map(d.Activities, func(a string, _ int) string {
		return strings.TrimSpace(a)
	}), func(a string, _ int) bool { return a != "" })

	required := []string{d.Name, d.StartTime, d.EndTime, d.City, d.State, d.PartySize, d.Budget}
	if d.Date.IsZero() || len(prefs) == 0 || lo.SomeBy(required, isBlank) {
		return domain.ValidDraft{}, domain.ErrIncompleteFields
	}

	state := strings.ToUpper(strings.TrimSpace(d.State))
	if !domain.IsStateCode(state) {
		return domain.ValidDraft{}, domain.ErrInvalidStateCode
	}

	// Budgets are stored in cents, so the category is taken from the rounded value.
	budget, err := strconv.ParseFloat(strings.TrimSpace(d.Budget), 64)
	budget = math.Round(budget*100) / 100
	if err != nil || !(budget > 0) || budget > maxBudget {
		return domain.ValidDraft{}, domain.ErrInvalidBudget
	}

	party, err := strconv.Atoi(strings.TrimSpace(d.PartySize))
	if err != nil || party <= 0 || party > maxPartySize {
		return domain.ValidDraft{}, domain.ErrInvalidPartySize
	}

	start, err := domain.ParseTimeOfDay(d.StartTime)
	if err != nil {
		return domain.ValidDraft{}, domain.ErrInvalidTimeWindow
	}
	end, err := domain.ParseTimeOfDay(d.EndTime)
	if err != nil || end.Minutes() < start.Minutes() {
		return domain.ValidDraft{}, domain.ErrInvalidTimeWindow
	}

	return domain.ValidDraft{
		Name:           strings.TrimSpace(d.Name),
		Date:           d.Date,
		Start:          start,
		End:            end,
		City:           strings.TrimSpace(d.City),
		State:          state,
		PartySize:      party,
		Budget:         budget,
		BudgetCategory: domain.CategorizeBudget(budget),
		Preferences:    prefs,
	}, nil
}

func isBlank(s string) bool { return strings.TrimSpace(s) == "" }
