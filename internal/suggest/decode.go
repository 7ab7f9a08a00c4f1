package suggest

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/stacit/stacit/backend/internal/domain"
)

// ErrMalformedResponse is returned by Decode when the endpoint answered with
// something that is not a suggestion document.
var ErrMalformedResponse = errors.New("malformed suggestion response")

type wireTiming struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

type wireOption struct {
	Name        string      `json:"name"`
	Description string      `json:"activity_description"`
	Location    string      `json:"location"`
	Timing      *wireTiming `json:"timing"`
}

type wirePreference struct {
	Preference string       `json:"preference"`
	Timing     *wireTiming  `json:"timing"`
	Options    []wireOption `json:"options"`
}

type wireResponse struct {
	Preferences *[]wirePreference `json:"preferences"`
}

// Decode parses the endpoint's reply. The document may be wrapped in a
// fenced code block. A preference without its own timing takes the timing of
// its first option.
func Decode(body string) (domain.SuggestionSet, error) {
	raw := stripFence(strings.TrimSpace(body))

	var resp wireResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return domain.SuggestionSet{}, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if resp.Preferences == nil {
		return domain.SuggestionSet{}, fmt.Errorf("%w: missing preferences", ErrMalformedResponse)
	}

	set := domain.SuggestionSet{Preferences: make([]domain.PreferenceSuggestions, 0, len(*resp.Preferences))}
	for _, wp := range *resp.Preferences {
		if strings.TrimSpace(wp.Preference) == "" {
			return domain.SuggestionSet{}, fmt.Errorf("%w: preference without a name", ErrMalformedResponse)
		}
		ps := domain.PreferenceSuggestions{
			Preference: wp.Preference,
			Options:    make([]domain.Option, 0, len(wp.Options)),
		}
		for _, wo := range wp.Options {
			ps.Options = append(ps.Options, domain.Option{
				Name:        wo.Name,
				Description: wo.Description,
				Location:    wo.Location,
			})
		}
		timing := wp.Timing
		if timing == nil && len(wp.Options) > 0 {
			timing = wp.Options[0].Timing
		}
		if timing != nil {
			ps.Timing = &domain.TimeWindow{Start: timing.Start, End: timing.End}
		}
		set.Preferences = append(set.Preferences, ps)
	}
	return set, nil
}

// stripFence removes a surrounding fenced code block. Anything after the
// opening fence on its line (```json, ```JSON, ```js) is the info string and
// is dropped with it.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") || !strings.HasSuffix(s, "```") || len(s) < 6 {
		return s
	}
	s = strings.TrimSuffix(strings.TrimPrefix(s, "```"), "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		if !strings.HasPrefix(strings.TrimSpace(s[:i]), "{") {
			s = s[i+1:]
		}
	} else {
		s = strings.TrimLeftFunc(s, func(r rune) bool { return r != '{' })
	}
	return strings.TrimSpace(s)
}
