package domain

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by repo and service functions when the requested
// resource does not exist or is not owned by the caller.
// Handlers should map this to HTTP 404.
var ErrNotFound = errors.New("not found")

// ErrValidation is returned by service functions when input fails business
// rule validation (e.g. missing required field, end time before start time).
// Handlers should map this to HTTP 422 Unprocessable Entity.
var ErrValidation = errors.New("validation error")

// ErrInvalidTransition is returned when an action is not allowed in the
// creation flow's current state. Handlers should map this to HTTP 409.
var ErrInvalidTransition = errors.New("invalid flow transition")

// ErrSuggestionUnavailable is returned when the suggestion endpoint cannot be
// reached or answers with a non-2xx status. Handlers map it to HTTP 502.
var ErrSuggestionUnavailable = errors.New("failed to reach suggestion service")

// ErrSMSUnavailable is returned when no SMS gateway is configured.
var ErrSMSUnavailable = errors.New("SMS unavailable")

// ErrSendFailed is returned when the SMS gateway rejects or fails a send.
var ErrSendFailed = errors.New("send failed")

// ErrUnauthorized is returned when the request carries no valid session.
var ErrUnauthorized = errors.New("unauthorized")

// Draft validation failures. Each wraps ErrValidation so callers can match
// either the specific rule or the whole class.
var (
	ErrIncompleteFields   = fmt.Errorf("%w: incomplete fields", ErrValidation)
	ErrInvalidStateCode   = fmt.Errorf("%w: invalid state code", ErrValidation)
	ErrInvalidBudget      = fmt.Errorf("%w: invalid budget", ErrValidation)
	ErrInvalidPartySize   = fmt.Errorf("%w: invalid party size", ErrValidation)
	ErrInvalidTimeWindow  = fmt.Errorf("%w: invalid time window", ErrValidation)
	ErrNoActivitySelected = fmt.Errorf("%w: no activity selected", ErrValidation)
	ErrUnknownOption      = fmt.Errorf("%w: unknown option", ErrValidation)
	ErrNoRecipients       = fmt.Errorf("%w: at least one recipient is required", ErrValidation)
)
