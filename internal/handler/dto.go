package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	openapi_types "github.com/oapi-codegen/runtime/types"

	"github.com/stacit/stacit/backend/internal/domain"
)

// ---- requests --------------------------------------------------------------

// DraftRequest is a partial form edit. Absent fields are left unchanged;
// activities, when present, replace the whole list.
type DraftRequest struct {
	Name       *string             `json:"name,omitempty"`
	Date       *openapi_types.Date `json:"date,omitempty"`
	StartTime  *string             `json:"start_time,omitempty"`
	EndTime    *string             `json:"end_time,omitempty"`
	City       *string             `json:"city,omitempty"`
	State      *string             `json:"state,omitempty"`
	PartySize  *string             `json:"party_size,omitempty"`
	Budget     *string             `json:"budget,omitempty"`
	Activities []string            `json:"activities,omitempty"`
}

// ActivityRequest sets the text of one activity slot.
type ActivityRequest struct {
	Text string `json:"text"`
}

// ToggleRequest selects or deselects one suggested option.
type ToggleRequest struct {
	Preference string `json:"preference"`
	Option     string `json:"option"`
}

// ShareRequest names the comma-separated SMS recipients.
type ShareRequest struct {
	Recipients string `json:"recipients"`
}

// ProfileRequest carries the onboarding answers.
type ProfileRequest struct {
	FullName  string              `json:"full_name"`
	BirthDate *openapi_types.Date `json:"birth_date"`
	Gender    string              `json:"gender,omitempty"`
}

// ---- responses -------------------------------------------------------------

// Draft is the form as last edited.
type Draft struct {
	Name       string              `json:"name"`
	Date       *openapi_types.Date `json:"date"`
	StartTime  string              `json:"start_time"`
	EndTime    string              `json:"end_time"`
	City       string              `json:"city"`
	State      string              `json:"state"`
	PartySize  string              `json:"party_size"`
	Budget     string              `json:"budget"`
	Activities []string            `json:"activities"`
}

// Flow is the client view of a creation flow.
type Flow struct {
	Id               uuid.UUID                      `json:"id"`
	State            domain.FlowState               `json:"state"`
	Draft            Draft                          `json:"draft"`
	RecordId         *uuid.UUID                     `json:"record_id,omitempty"`
	Suggestions      []domain.PreferenceSuggestions `json:"suggestions"`
	SuggestionStatus domain.SuggestionStatus        `json:"suggestion_status,omitempty"`
	Selection        map[string][]string            `json:"selection"`
	LastError        string                         `json:"last_error,omitempty"`
	CreatedAt        time.Time                      `json:"created_at"`
	UpdatedAt        time.Time                      `json:"updated_at"`
}

// Stac is a saved STAC.
type Stac struct {
	Id                uuid.UUID                          `json:"id"`
	Name              string                             `json:"name"`
	Date              openapi_types.Date                 `json:"date"`
	StartAt           time.Time                          `json:"start_at"`
	EndAt             time.Time                          `json:"end_at"`
	Location          string                             `json:"location"`
	Preferences       string                             `json:"preferences"`
	BudgetCategory    domain.BudgetCategory              `json:"budget_category"`
	BudgetAmount      float64                            `json:"budget_amount"`
	PartySize         int                                `json:"party_size"`
	PreferenceOrder   []string                           `json:"preference_order"`
	SelectedOptions   map[string][]string                `json:"selected_options"`
	DetailedOptions   map[string][]domain.SelectedOption `json:"detailed_options"`
	PreferenceTimings map[string]domain.TimeWindow       `json:"preference_timings"`
	CreatedAt         time.Time                          `json:"created_at"`
	UpdatedAt         time.Time                          `json:"updated_at"`
}

// StacListing is the home screen: upcoming and past STACs.
type StacListing struct {
	Scheduled []Stac `json:"scheduled"`
	Past      []Stac `json:"past"`
}

// ShareResponse reports what the SMS gateway did with the message.
type ShareResponse struct {
	Status string `json:"status"`
}

// Profile is a saved onboarding profile.
type Profile struct {
	Id        string              `json:"id"`
	FullName  string              `json:"full_name"`
	BirthDate *openapi_types.Date `json:"birth_date,omitempty"`
	Gender    string              `json:"gender,omitempty"`
	Email     string              `json:"email,omitempty"`
	CreatedAt time.Time           `json:"created_at"`
	UpdatedAt time.Time           `json:"updated_at"`
}

// ---- mapping helpers -------------------------------------------------------

// decodeBody decodes the JSON body into v. An empty body is an error unless
// optional is set, in which case it reports false and leaves v untouched.
func decodeBody(r *http.Request, v any, optional bool) (bool, error) {
	err := json.NewDecoder(r.Body).Decode(v)
	if errors.Is(err, io.EOF) {
		if optional {
			return false, nil
		}
		return false, errors.New("request body is required")
	}
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return false, err
		}
		return false, errors.New("request body is not valid JSON")
	}
	return true, nil
}

func (d DraftRequest) toDomain() domain.DraftUpdate {
	u := domain.DraftUpdate{
		Name:       d.Name,
		StartTime:  d.StartTime,
		EndTime:    d.EndTime,
		City:       d.City,
		State:      d.State,
		PartySize:  d.PartySize,
		Budget:     d.Budget,
		Activities: d.Activities,
	}
	if d.Date != nil {
		t := d.Date.Time
		u.Date = &t
	}
	return u
}

func flowToResponse(f *domain.CreationFlow) Flow {
	resp := Flow{
		Id:               f.ID,
		State:            f.State,
		Draft:            draftToResponse(f.Draft),
		Suggestions:      f.Suggestions.Preferences,
		SuggestionStatus: f.SuggestionStatus,
		Selection:        f.Selection,
		LastError:        f.LastError,
		CreatedAt:        f.CreatedAt,
		UpdatedAt:        f.UpdatedAt,
	}
	if resp.Suggestions == nil {
		resp.Suggestions = []domain.PreferenceSuggestions{}
	}
	if resp.Selection == nil {
		resp.Selection = map[string][]string{}
	}
	if f.RecordID != uuid.Nil {
		id := f.RecordID
		resp.RecordId = &id
	}
	return resp
}

func draftToResponse(d domain.Draft) Draft {
	resp := Draft{
		Name:       d.Name,
		StartTime:  d.StartTime,
		EndTime:    d.EndTime,
		City:       d.City,
		State:      d.State,
		PartySize:  d.PartySize,
		Budget:     d.Budget,
		Activities: d.Activities,
	}
	if !d.Date.IsZero() {
		resp.Date = &openapi_types.Date{Time: d.Date}
	}
	return resp
}

// stacToResponse converts a domain.StacRecord into its JSON shape. Nil maps
// and slices become empty ones so clients never see null.
func stacToResponse(r domain.StacRecord) Stac {
	resp := Stac{
		Id:                r.ID,
		Name:              r.Name,
		Date:              openapi_types.Date{Time: r.Date},
		StartAt:           r.StartAt,
		EndAt:             r.EndAt,
		Location:          r.Location,
		Preferences:       r.Preferences,
		BudgetCategory:    r.BudgetCategory,
		BudgetAmount:      r.BudgetAmount,
		PartySize:         r.PartySize,
		PreferenceOrder:   r.PreferenceOrder,
		SelectedOptions:   r.SelectedOptions,
		DetailedOptions:   r.DetailedOptions,
		PreferenceTimings: r.PreferenceTimings,
		CreatedAt:         r.CreatedAt,
		UpdatedAt:         r.UpdatedAt,
	}
	if resp.PreferenceOrder == nil {
		resp.PreferenceOrder = []string{}
	}
	if resp.SelectedOptions == nil {
		resp.SelectedOptions = map[string][]string{}
	}
	if resp.DetailedOptions == nil {
		resp.DetailedOptions = map[string][]domain.SelectedOption{}
	}
	if resp.PreferenceTimings == nil {
		resp.PreferenceTimings = map[string]domain.TimeWindow{}
	}
	return resp
}

func stacsToResponse(recs []domain.StacRecord) []Stac {
	out := make([]Stac, 0, len(recs))
	for _, r := range recs {
		out = append(out, stacToResponse(r))
	}
	return out
}

func profileToResponse(p domain.UserProfile) Profile {
	resp := Profile{
		Id:        p.ID,
		FullName:  p.FullName,
		Gender:    p.Gender,
		Email:     p.Email,
		CreatedAt: p.CreatedAt,
		UpdatedAt: p.UpdatedAt,
	}
	if !p.BirthDate.IsZero() {
		resp.BirthDate = &openapi_types.Date{Time: p.BirthDate}
	}
	return resp
}
