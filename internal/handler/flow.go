package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stacit/stacit/backend/internal/domain"
	"github.com/stacit/stacit/backend/internal/middleware"
)

const flowNotFound = "flow not found"

// StartFlow handles POST /flows. The body, when present, pre-fills the form.
func (s *Server) StartFlow(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var body DraftRequest
	present, err := decodeBody(r, &body, true)
	if err != nil {
		s.badBody(w, r, err)
		return
	}
	var initial *domain.DraftUpdate
	if present {
		u := body.toDomain()
		initial = &u
	}

	flow, err := s.flows.Start(r.Context(), sess, initial)
	if err != nil {
		s.fail(w, r, err, flowNotFound)
		return
	}
	writeJSON(w, http.StatusCreated, flowToResponse(flow))
}

// GetFlow handles GET /flows/{id}.
func (s *Server) GetFlow(w http.ResponseWriter, r *http.Request) {
	s.flowAction(w, r, func(sess domain.Session, id uuid.UUID) (*domain.CreationFlow, error) {
		return s.flows.Get(r.Context(), sess, id)
	})
}

// UpdateDraft handles PATCH /flows/{id}/draft.
func (s *Server) UpdateDraft(w http.ResponseWriter, r *http.Request) {
	var body DraftRequest
	if _, err := decodeBody(r, &body, false); err != nil {
		s.badBody(w, r, err)
		return
	}
	s.flowAction(w, r, func(sess domain.Session, id uuid.UUID) (*domain.CreationFlow, error) {
		return s.flows.UpdateDraft(r.Context(), sess, id, body.toDomain())
	})
}

// AddActivity handles POST /flows/{id}/activities.
func (s *Server) AddActivity(w http.ResponseWriter, r *http.Request) {
	s.flowAction(w, r, func(sess domain.Session, id uuid.UUID) (*domain.CreationFlow, error) {
		return s.flows.AddActivity(r.Context(), sess, id)
	})
}

// SetActivity handles PUT /flows/{id}/activities/{index}.
func (s *Server) SetActivity(w http.ResponseWriter, r *http.Request) {
	index, ok := activityIndex(w, r)
	if !ok {
		return
	}
	var body ActivityRequest
	if _, err := decodeBody(r, &body, false); err != nil {
		s.badBody(w, r, err)
		return
	}
	s.flowAction(w, r, func(sess domain.Session, id uuid.UUID) (*domain.CreationFlow, error) {
		return s.flows.SetActivity(r.Context(), sess, id, index, body.Text)
	})
}

// RemoveActivity handles DELETE /flows/{id}/activities/{index}.
func (s *Server) RemoveActivity(w http.ResponseWriter, r *http.Request) {
	index, ok := activityIndex(w, r)
	if !ok {
		return
	}
	s.flowAction(w, r, func(sess domain.Session, id uuid.UUID) (*domain.CreationFlow, error) {
		return s.flows.RemoveActivity(r.Context(), sess, id, index)
	})
}

// SubmitFlow handles POST /flows/{id}/submit.
func (s *Server) SubmitFlow(w http.ResponseWriter, r *http.Request) {
	s.flowAction(w, r, func(sess domain.Session, id uuid.UUID) (*domain.CreationFlow, error) {
		return s.flows.Submit(r.Context(), sess, id)
	})
}

// ToggleSelection handles POST /flows/{id}/selections.
func (s *Server) ToggleSelection(w http.ResponseWriter, r *http.Request) {
	var body ToggleRequest
	if _, err := decodeBody(r, &body, false); err != nil {
		s.badBody(w, r, err)
		return
	}
	s.flowAction(w, r, func(sess domain.Session, id uuid.UUID) (*domain.CreationFlow, error) {
		return s.flows.Toggle(r.Context(), sess, id, body.Preference, body.Option)
	})
}

// RefreshFlow handles POST /flows/{id}/refresh.
func (s *Server) RefreshFlow(w http.ResponseWriter, r *http.Request) {
	s.flowAction(w, r, func(sess domain.Session, id uuid.UUID) (*domain.CreationFlow, error) {
		return s.flows.Refresh(r.Context(), sess, id)
	})
}

// FinalizeFlow handles POST /flows/{id}/finalize and returns the saved STAC.
func (s *Server) FinalizeFlow(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := s.sessionAndID(w, r, flowNotFound)
	if !ok {
		return
	}
	rec, err := s.flows.Finalize(r.Context(), sess, id)
	if err != nil {
		s.fail(w, r, err, flowNotFound)
		return
	}
	writeJSON(w, http.StatusOK, stacToResponse(rec))
}

// ShareFlow handles POST /flows/{id}/share.
func (s *Server) ShareFlow(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := s.sessionAndID(w, r, flowNotFound)
	if !ok {
		return
	}
	var body ShareRequest
	if _, err := decodeBody(r, &body, false); err != nil {
		s.badBody(w, r, err)
		return
	}
	status, err := s.flows.Share(r.Context(), sess, id, body.Recipients)
	if err != nil {
		s.fail(w, r, err, flowNotFound)
		return
	}
	writeJSON(w, http.StatusOK, ShareResponse{Status: status})
}

// DiscardFlow handles DELETE /flows/{id}.
func (s *Server) DiscardFlow(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := s.sessionAndID(w, r, flowNotFound)
	if !ok {
		return
	}
	if err := s.flows.Discard(r.Context(), sess, id); err != nil {
		s.fail(w, r, err, flowNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ---- shared plumbing -------------------------------------------------------

// flowAction runs a flow operation that answers with the updated flow.
func (s *Server) flowAction(w http.ResponseWriter, r *http.Request, op func(domain.Session, uuid.UUID) (*domain.CreationFlow, error)) {
	sess, id, ok := s.sessionAndID(w, r, flowNotFound)
	if !ok {
		return
	}
	flow, err := op(sess, id)
	if err != nil {
		s.fail(w, r, err, flowNotFound)
		return
	}
	writeJSON(w, http.StatusOK, flowToResponse(flow))
}

// session returns the caller's session, answering 401 when there is none.
func (s *Server) session(w http.ResponseWriter, r *http.Request) (domain.Session, bool) {
	sess, ok := middleware.SessionFromContext(r.Context())
	if !ok {
		s.fail(w, r, domain.ErrUnauthorized, "")
		return domain.Session{}, false
	}
	return sess, true
}

// sessionAndID returns the session and the {id} path parameter. An id that
// is not a UUID cannot name anything, so it answers 404.
func (s *Server) sessionAndID(w http.ResponseWriter, r *http.Request, notFoundMsg string) (domain.Session, uuid.UUID, bool) {
	sess, ok := s.session(w, r)
	if !ok {
		return domain.Session{}, uuid.Nil, false
	}
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		notFound(w, notFoundMsg)
		return domain.Session{}, uuid.Nil, false
	}
	return sess, id, true
}

func activityIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		requestError(w, "activity index must be an integer")
		return 0, false
	}
	return index, true
}

// badBody answers a body that could not be decoded.
func (s *Server) badBody(w http.ResponseWriter, r *http.Request, err error) {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		s.fail(w, r, err, "")
		return
	}
	requestError(w, err.Error())
}
