package handler

import (
	"net/http"

	"github.com/stacit/stacit/backend/internal/domain"
)

const profileNotFound = "profile not found"

// GetProfile handles GET /profile.
func (s *Server) GetProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	p, err := s.profiles.Get(r.Context(), sess)
	if err != nil {
		s.fail(w, r, err, profileNotFound)
		return
	}
	writeJSON(w, http.StatusOK, profileToResponse(p))
}

// SaveProfile handles PUT /profile.
func (s *Server) SaveProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var body ProfileRequest
	if _, err := decodeBody(r, &body, false); err != nil {
		s.badBody(w, r, err)
		return
	}
	p := domain.UserProfile{FullName: body.FullName, Gender: body.Gender}
	if body.BirthDate != nil {
		p.BirthDate = body.BirthDate.Time
	}

	saved, err := s.profiles.Save(r.Context(), sess, p)
	if err != nil {
		s.fail(w, r, err, profileNotFound)
		return
	}
	writeJSON(w, http.StatusOK, profileToResponse(saved))
}
