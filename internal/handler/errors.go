package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/stacit/stacit/backend/internal/domain"
)

// ErrorDetail is the machine code and human message of a failed request.
type ErrorDetail struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorResponse is the envelope of every non-2xx JSON response.
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// writeJSON writes v as the JSON body with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErrorBody(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}

// requestError answers a request rejected before reaching the service layer
// (e.g. missing or malformed body).
func requestError(w http.ResponseWriter, message string) {
	writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", message)
}

// notFound answers a lookup of something the caller cannot see. The caller
// supplies the message (e.g. "stac not found") because the handler is the
// layer that knows what was being looked up.
func notFound(w http.ResponseWriter, message string) {
	writeErrorBody(w, http.StatusNotFound, "not_found", message)
}

// fail maps a service error to its HTTP response. notFoundMsg is used for
// domain.ErrNotFound. Unexpected errors are logged and become 500.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, notFoundMsg string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.Is(err, domain.ErrValidation):
		writeErrorBody(w, http.StatusUnprocessableEntity, "validation_error", unwrapMessage(err, domain.ErrValidation))
	case errors.Is(err, domain.ErrNotFound):
		notFound(w, notFoundMsg)
	case errors.Is(err, domain.ErrInvalidTransition):
		writeErrorBody(w, http.StatusConflict, "conflict", unwrapMessage(err, domain.ErrInvalidTransition))
	case errors.Is(err, domain.ErrUnauthorized):
		writeErrorBody(w, http.StatusUnauthorized, "unauthorized", domain.ErrUnauthorized.Error())
	case errors.Is(err, domain.ErrSuggestionUnavailable):
		writeErrorBody(w, http.StatusBadGateway, "bad_gateway", domain.ErrSuggestionUnavailable.Error())
	case errors.Is(err, domain.ErrSendFailed):
		writeErrorBody(w, http.StatusBadGateway, "bad_gateway", domain.ErrSendFailed.Error())
	case errors.Is(err, domain.ErrSMSUnavailable):
		writeErrorBody(w, http.StatusServiceUnavailable, "unavailable", domain.ErrSMSUnavailable.Error())
	case errors.As(err, &tooLarge):
		writeErrorBody(w, http.StatusRequestEntityTooLarge, "payload_too_large", "request body too large")
	default:
		s.log.ErrorContext(r.Context(), "request failed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()),
		)
		writeErrorBody(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// unwrapMessage extracts the human-readable part that follows a wrapped
// sentinel, e.g.
// "service.FlowService.Submit: validation error: invalid state code" -> "invalid state code".
func unwrapMessage(err error, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if i := strings.Index(msg, prefix); i >= 0 && len(msg) > i+len(prefix) {
		return msg[i+len(prefix):]
	}
	return sentinel.Error()
}
