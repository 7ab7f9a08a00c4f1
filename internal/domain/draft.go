package domain

import (
	"fmt"
	"strings"
	"time"
)

// Draft is the in-progress STAC form. Numeric and time fields are kept as the
// raw text the user typed; ValidateDraft in the service layer parses them.
type Draft struct {
	Name       string
	Date       time.Time // zero when not chosen yet
	StartTime  string    // "HH:MM" or "h:MM AM"
	EndTime    string
	City       string
	State      string
	PartySize  string
	Budget     string
	Activities []string
}

// NewDraft returns an empty draft with the single required activity slot.
func NewDraft() Draft {
	return Draft{Activities: []string{""}}
}

// AddActivity appends an empty activity slot.
func (d *Draft) AddActivity() {
	d.Activities = append(d.Activities, "")
}

// RemoveActivity removes the activity at index. The first slot is permanent,
// so index 0 is a no-op, as is any index out of range.
func (d *Draft) RemoveActivity(index int) {
	if index <= 0 || index >= len(d.Activities) {
		return
	}
	d.Activities = append(d.Activities[:index:index], d.Activities[index+1:]...)
}

// SetActivity replaces the text of the activity at index.
// Returns ErrValidation if index is out of range.
func (d *Draft) SetActivity(index int, text string) error {
	if index < 0 || index >= len(d.Activities) {
		return fmt.Errorf("%w: activity index %d out of range", ErrValidation, index)
	}
	d.Activities[index] = text
	return nil
}

// DraftUpdate carries a partial form edit. Nil fields are left unchanged.
type DraftUpdate struct {
	Name       *string
	Date       *time.Time
	StartTime  *string
	EndTime    *string
	City       *string
	State      *string
	PartySize  *string
	Budget     *string
	Activities []string // replaces the whole list when non-nil
}

// Apply copies every set field of u onto d. A replacement activity list that
// is empty is normalized to the single required slot.
func (d *Draft) Apply(u DraftUpdate) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&d.Name, u.Name)
	set(&d.StartTime, u.StartTime)
	set(&d.EndTime, u.EndTime)
	set(&d.City, u.City)
	set(&d.State, u.State)
	set(&d.PartySize, u.PartySize)
	set(&d.Budget, u.Budget)
	if u.Date != nil {
		d.Date = *u.Date
	}
	if u.Activities != nil {
		d.Activities = append([]string(nil), u.Activities...)
		if len(d.Activities) == 0 {
			d.Activities = []string{""}
		}
	}
}

// TimeOfDay is a wall-clock time without a date.
type TimeOfDay struct {
	Hour   int
	Minute int
}

// Minutes returns the number of minutes since midnight.
func (t TimeOfDay) Minutes() int { return t.Hour*60 + t.Minute }

// String formats t in 24-hour "15:04" form.
func (t TimeOfDay) String() string { return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute) }

// Kitchen formats t the way the suggestion prompt expects ("8:00am").
func (t TimeOfDay) Kitchen() string {
	h := t.Hour % 12
	if h == 0 {
		h = 12
	}
	period := "am"
	if t.Hour >= 12 {
		period = "pm"
	}
	return fmt.Sprintf("%d:%02d%s", h, t.Minute, period)
}

// On returns the instant at which t occurs on the calendar date of day in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour, t.Minute, 0, 0, loc)
}

// ParseTimeOfDay accepts "15:04", "3:04PM", "3:04 PM" and "3:04pm".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for _, layout := range []string{"15:04", "3:04PM", "3:04 PM"} {
		if t, err := time.Parse(layout, s); err == nil {
			return TimeOfDay{Hour: t.Hour(), Minute: t.Minute()}, nil
		}
	}
	return TimeOfDay{}, fmt.Errorf("unrecognized time of day %q", s)
}

// ValidDraft is a draft that passed validation, with every field parsed.
type ValidDraft struct {
	Name           string
	Date           time.Time
	Start          TimeOfDay
	End            TimeOfDay
	City           string
	State          string // upper-cased two-letter code
	PartySize      int
	Budget         float64
	BudgetCategory BudgetCategory
	Preferences    []string // non-empty, trimmed activities in form order
}

// Location renders the "City, ST" string stored on records.
func (v ValidDraft) Location() string {
	return v.City + ", " + v.State
}
