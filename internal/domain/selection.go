package domain

import "fmt"

// Selection maps a preference to the option names chosen for it.
// Only one option per preference is ever held.
type Selection map[string][]string

// Toggle selects option under preference, replacing any previous choice.
// Toggling the current sole choice clears the preference.
// Returns ErrUnknownOption if set does not contain the option.
func (s Selection) Toggle(set SuggestionSet, preference, option string) error {
	if _, ok := set.Option(preference, option); !ok {
		return fmt.Errorf("%w: %q under %q", ErrUnknownOption, option, preference)
	}
	if cur := s[preference]; len(cur) == 1 && cur[0] == option {
		delete(s, preference)
		return nil
	}
	s[preference] = []string{option}
	return nil
}

// NonEmpty returns the preferences that have at least one chosen option.
func (s Selection) NonEmpty() Selection {
	out := make(Selection, len(s))
	for p, opts := range s {
		if len(opts) > 0 {
			out[p] = append([]string(nil), opts...)
		}
	}
	return out
}

// Retain drops choices that no longer exist in set. Used after a refresh
// replaces the suggestions.
func (s Selection) Retain(set SuggestionSet) {
	for p, opts := range s {
		kept := opts[:0]
		for _, o := range opts {
			if _, ok := set.Option(p, o); ok {
				kept = append(kept, o)
			}
		}
		if len(kept) == 0 {
			delete(s, p)
			continue
		}
		s[p] = kept
	}
}
