package handler

import (
	"net/http"
)

const stacNotFound = "stac not found"

// ListStacs handles GET /stacs.
func (s *Server) ListStacs(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	listing, err := s.stacs.List(r.Context(), sess)
	if err != nil {
		s.fail(w, r, err, stacNotFound)
		return
	}
	writeJSON(w, http.StatusOK, StacListing{
		Scheduled: stacsToResponse(listing.Scheduled),
		Past:      stacsToResponse(listing.Past),
	})
}

// GetStac handles GET /stacs/{id}.
func (s *Server) GetStac(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := s.sessionAndID(w, r, stacNotFound)
	if !ok {
		return
	}
	rec, err := s.stacs.GetByID(r.Context(), sess, id)
	if err != nil {
		s.fail(w, r, err, stacNotFound)
		return
	}
	writeJSON(w, http.StatusOK, stacToResponse(rec))
}

// DeleteStac handles DELETE /stacs/{id}.
func (s *Server) DeleteStac(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := s.sessionAndID(w, r, stacNotFound)
	if !ok {
		return
	}
	if err := s.stacs.Delete(r.Context(), sess, id); err != nil {
		s.fail(w, r, err, stacNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ShareStac handles POST /stacs/{id}/share.
func (s *Server) ShareStac(w http.ResponseWriter, r *http.Request) {
	sess, id, ok := s.sessionAndID(w, r, stacNotFound)
	if !ok {
		return
	}
	var body ShareRequest
	if _, err := decodeBody(r, &body, false); err != nil {
		s.badBody(w, r, err)
		return
	}
	status, err := s.share.ShareStac(r.Context(), sess, id, body.Recipients)
	if err != nil {
		s.fail(w, r, err, stacNotFound)
		return
	}
	writeJSON(w, http.StatusOK, ShareResponse{Status: status})
}
