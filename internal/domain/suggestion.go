package domain

// Option is one concrete suggestion the backend returned for a preference.
type Option struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Location    string `json:"location,omitempty"`
}

// PreferenceSuggestions groups the options suggested for one preference.
type PreferenceSuggestions struct {
	Preference string      `json:"preference"`
	Options    []Option    `json:"options"`
	Timing     *TimeWindow `json:"timing,omitempty"`
}

// SuggestionSet is the decoded backend response, preferences in the order the
// backend listed them.
type SuggestionSet struct {
	Preferences []PreferenceSuggestions `json:"preferences"`
}

// IsEmpty reports whether the set has no options at all.
func (s SuggestionSet) IsEmpty() bool {
	for _, p := range s.Preferences {
		if len(p.Options) > 0 {
			return false
		}
	}
	return true
}

// Order returns the preference names in backend order.
func (s SuggestionSet) Order() []string {
	out := make([]string, 0, len(s.Preferences))
	for _, p := range s.Preferences {
		out = append(out, p.Preference)
	}
	return out
}

// Find returns the suggestions for preference.
func (s SuggestionSet) Find(preference string) (PreferenceSuggestions, bool) {
	for _, p := range s.Preferences {
		if p.Preference == preference {
			return p, true
		}
	}
	return PreferenceSuggestions{}, false
}

// Option looks up an option by name under a preference.
func (s SuggestionSet) Option(preference, name string) (Option, bool) {
	p, ok := s.Find(preference)
	if !ok {
		return Option{}, false
	}
	for _, o := range p.Options {
		if o.Name == name {
			return o, true
		}
	}
	return Option{}, false
}

// Timings returns the time window of every preference that has one.
func (s SuggestionSet) Timings() map[string]TimeWindow {
	out := make(map[string]TimeWindow)
	for _, p := range s.Preferences {
		if p.Timing != nil {
			out[p.Preference] = *p.Timing
		}
	}
	return out
}

// SuggestionStatus tells a client whether an empty suggestion list means the
// backend had nothing to offer or answered with something unreadable.
type SuggestionStatus string

const (
	SuggestionsNone      SuggestionStatus = ""
	SuggestionsOK        SuggestionStatus = "ok"
	SuggestionsEmpty     SuggestionStatus = "empty"
	SuggestionsMalformed SuggestionStatus = "malformed"
)
