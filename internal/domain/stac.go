// Package domain contains the core data types for the STAC-IT planning API.
// This package depends only on the standard library and uuid, and is
// imported by every other internal package (repo, service, handler).
package domain

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// BudgetCategory is the coarse price band sent to the suggestion backend and
// stored on a record in place of the raw amount.
type BudgetCategory string

const (
	BudgetCheap     BudgetCategory = "cheap"
	BudgetModerate  BudgetCategory = "moderate"
	BudgetExpensive BudgetCategory = "expensive"
)

// CategorizeBudget maps a per-person budget to its category.
// Both 30 and 60 fall in the moderate band.
func CategorizeBudget(amount float64) BudgetCategory {
	switch {
	case amount < 30:
		return BudgetCheap
	case amount <= 60:
		return BudgetModerate
	default:
		return BudgetExpensive
	}
}

// TimeWindow is a free-text start/end pair as produced by the suggestion
// backend (e.g. "9:00 AM" / "10:30 AM"). It is never parsed.
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// SelectedOption is a chosen option enriched with the description and
// location the backend returned for it.
type SelectedOption struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location"`
}

// StacRecord is a persisted STAC. A record is written once at draft
// submission (no selections yet) and merged again at finalize.
type StacRecord struct {
	ID             uuid.UUID
	OwnerID        string
	Name           string
	Date           time.Time // calendar date, midnight UTC
	StartAt        time.Time
	EndAt          time.Time
	Location       string // "City, ST"
	Preferences    string // original free-text activities, comma joined
	BudgetCategory BudgetCategory
	BudgetAmount   float64
	PartySize      int

	// Populated by finalize.
	PreferenceOrder   []string
	SelectedOptions   map[string][]string
	DetailedOptions   map[string][]SelectedOption
	PreferenceTimings map[string]TimeWindow

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsComplete reports whether the record carries a selection payload.
// Records that never got past submission are not listed.
func (r StacRecord) IsComplete() bool {
	return len(r.SelectedOptions) > 0 || len(r.DetailedOptions) > 0
}

// SelectedPreferences returns the preferences that have a selection, in the
// order the backend returned them. Preferences missing from PreferenceOrder
// (older records) follow in alphabetical order.
func (r StacRecord) SelectedPreferences() []string {
	seen := make(map[string]bool, len(r.SelectedOptions))
	var out []string
	for _, p := range r.PreferenceOrder {
		if len(r.SelectedOptions[p]) > 0 && !seen[p] {
			out = append(out, p)
			seen[p] = true
		}
	}
	var rest []string
	for p, opts := range r.SelectedOptions {
		if len(opts) > 0 && !seen[p] {
			rest = append(rest, p)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

// OptionDetail returns the stored description and location for an option
// under a preference. Missing details yield empty strings.
func (r StacRecord) OptionDetail(preference, option string) SelectedOption {
	for _, d := range r.DetailedOptions[preference] {
		if d.Name == option {
			return d
		}
	}
	return SelectedOption{Name: option}
}

// FinalSelection is the payload merged into a record at finalize.
type FinalSelection struct {
	PreferenceOrder   []string
	SelectedOptions   map[string][]string
	DetailedOptions   map[string][]SelectedOption
	PreferenceTimings map[string]TimeWindow
}

// StacPatch is the input to the idempotent upsert. Nil fields keep the
// stored value on conflict and take an empty default on insert.
type StacPatch struct {
	Name           *string
	Date           *time.Time
	StartAt        *time.Time
	EndAt          *time.Time
	Location       *string
	Preferences    *string
	BudgetCategory *BudgetCategory
	BudgetAmount   *float64
	PartySize      *int
	Selection      *FinalSelection
}

// StacListing is the home-screen view: upcoming STACs soonest first and past
// STACs most recent first.
type StacListing struct {
	Scheduled []StacRecord
	Past      []StacRecord
}
