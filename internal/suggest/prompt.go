// Package suggest talks to the activity suggestion endpoint: it renders the
// request message for a validated draft, posts it, and decodes the reply.
package suggest

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/stacit/stacit/backend/internal/domain"
)

// promptDateLayout matches the calendar date style the endpoint was trained on.
const promptDateLayout = "Mon Jan 02 2006"

// BuildPrompt renders the single summary message for a draft.
// When sel holds choices, a "Keep these options" clause asks the endpoint to
// keep them in the next answer. order gives the preference order of the
// clause; chosen preferences absent from order follow alphabetically.
func BuildPrompt(valid domain.ValidDraft, sel domain.Selection, order []string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Date: %s. ", valid.Date.Format(promptDateLayout))
	fmt.Fprintf(&b, "Location: %s. ", valid.Location())
	fmt.Fprintf(&b, "Preferences: %s. ", strings.Join(valid.Preferences, ", "))
	fmt.Fprintf(&b, "Budget: %s (%s per person). ", valid.BudgetCategory, formatAmount(valid.Budget))
	fmt.Fprintf(&b, "Time period: %s to %s. ", valid.Start.Kitchen(), valid.End.Kitchen())
	fmt.Fprintf(&b, "Number of people: %d.", valid.PartySize)
	b.WriteString(KeepClause(sel, order))
	return b.String()
}

// KeepClause renders " (Keep these options: Pref: A; Pref2: B)" or the empty
// string when nothing is selected.
func KeepClause(sel domain.Selection, order []string) string {
	chosen := sel.NonEmpty()
	if len(chosen) == 0 {
		return ""
	}

	prefs := lo.Filter(lo.Uniq(order), func(p string, _ int) bool {
		_, ok := chosen[p]
		return ok
	})
	var rest []string
	for p := range chosen {
		if !lo.Contains(prefs, p) {
			rest = append(rest, p)
		}
	}
	sort.Strings(rest)
	prefs = append(prefs, rest...)

	parts := lo.Map(prefs, func(p string, _ int) string {
		return p + ": " + strings.Join(chosen[p], ", ")
	})
	return " (Keep these options: " + strings.Join(parts, "; ") + ")"
}

func formatAmount(v float64) string {
	return "$" + strconv.FormatFloat(v, 'f', -1, 64)
}
