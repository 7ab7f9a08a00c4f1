package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FlowState is a step of the STAC creation flow.
type FlowState string

const (
	FlowEditing          FlowState = "editing"
	FlowValidating       FlowState = "validating"
	FlowSubmitting       FlowState = "submitting"
	FlowSuggestionsShown FlowState = "suggestions_shown"
	FlowSelecting        FlowState = "selecting"
	FlowRefreshing       FlowState = "refreshing"
	FlowFinalizing       FlowState = "finalizing"
	FlowClosed           FlowState = "closed"
)

// flowTransitions lists the states reachable from each state.
var flowTransitions = map[FlowState][]FlowState{
	FlowEditing:          {FlowValidating, FlowClosed},
	FlowValidating:       {FlowEditing, FlowSubmitting},
	FlowSubmitting:       {FlowEditing, FlowSuggestionsShown},
	FlowSuggestionsShown: {FlowSelecting, FlowRefreshing, FlowFinalizing, FlowClosed},
	FlowSelecting:        {FlowSelecting, FlowRefreshing, FlowFinalizing, FlowClosed},
	FlowRefreshing:       {FlowSuggestionsShown},
	FlowFinalizing:       {FlowClosed, FlowSuggestionsShown},
}

// CanTransition reports whether the flow may move from one state to another.
func CanTransition(from, to FlowState) bool {
	for _, s := range flowTransitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// CreationFlow is one open STAC creation session.
// RecordID is the key the draft and the finalized record are upserted under.
type CreationFlow struct {
	ID               uuid.UUID
	OwnerID          string
	State            FlowState
	Draft            Draft
	Submitted        *ValidDraft // set once the draft passed validation
	RecordID         uuid.UUID   // zero until the draft record is written
	Suggestions      SuggestionSet
	SuggestionStatus SuggestionStatus
	Selection        Selection
	LastError        string
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewCreationFlow starts a flow in the editing state.
func NewCreationFlow(ownerID string, draft Draft, now time.Time) *CreationFlow {
	if len(draft.Activities) == 0 {
		draft.Activities = []string{""}
	}
	return &CreationFlow{
		ID:        uuid.New(),
		OwnerID:   ownerID,
		State:     FlowEditing,
		Draft:     draft,
		Selection: Selection{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Transition moves the flow to state to.
// Returns ErrInvalidTransition if the move is not allowed.
func (f *CreationFlow) Transition(to FlowState) error {
	if !CanTransition(f.State, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, f.State, to)
	}
	f.State = to
	return nil
}

// Require returns ErrInvalidTransition unless the flow is in one of states.
func (f *CreationFlow) Require(states ...FlowState) error {
	for _, s := range states {
		if f.State == s {
			return nil
		}
	}
	return fmt.Errorf("%w: not allowed in state %s", ErrInvalidTransition, f.State)
}
