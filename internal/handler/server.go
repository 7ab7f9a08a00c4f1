// Package handler implements the HTTP handlers for the STAC-IT API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (flow.go, stac.go, etc.) but share the same Server struct so they can
// access its dependencies.
package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/stacit/stacit/backend/internal/domain"
)

// FlowServicer defines the creation-flow operations the handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the cache or service layer.
type FlowServicer interface {
	Start(ctx context.Context, sess domain.Session, initial *domain.DraftUpdate) (*domain.CreationFlow, error)
	Get(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.CreationFlow, error)
	UpdateDraft(ctx context.Context, sess domain.Session, id uuid.UUID, u domain.DraftUpdate) (*domain.CreationFlow, error)
	AddActivity(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.CreationFlow, error)
	SetActivity(ctx context.Context, sess domain.Session, id uuid.UUID, index int, text string) (*domain.CreationFlow, error)
	RemoveActivity(ctx context.Context, sess domain.Session, id uuid.UUID, index int) (*domain.CreationFlow, error)
	Submit(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.CreationFlow, error)
	Toggle(ctx context.Context, sess domain.Session, id uuid.UUID, preference, option string) (*domain.CreationFlow, error)
	Refresh(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.CreationFlow, error)
	Finalize(ctx context.Context, sess domain.Session, id uuid.UUID) (domain.StacRecord, error)
	Discard(ctx context.Context, sess domain.Session, id uuid.UUID) error
	Share(ctx context.Context, sess domain.Session, id uuid.UUID, recipients string) (string, error)
}

// StacServicer defines the saved-STAC operations the handlers depend on.
type StacServicer interface {
	List(ctx context.Context, sess domain.Session) (domain.StacListing, error)
	GetByID(ctx context.Context, sess domain.Session, id uuid.UUID) (domain.StacRecord, error)
	Delete(ctx context.Context, sess domain.Session, id uuid.UUID) error
	Export(ctx context.Context, sess domain.Session) ([]domain.ExportRow, error)
}

// ShareServicer sends a saved STAC over SMS.
type ShareServicer interface {
	ShareStac(ctx context.Context, sess domain.Session, id uuid.UUID, recipients string) (string, error)
}

// ProfileServicer reads and saves onboarding profiles.
type ProfileServicer interface {
	Save(ctx context.Context, sess domain.Session, p domain.UserProfile) (domain.UserProfile, error)
	Get(ctx context.Context, sess domain.Session) (domain.UserProfile, error)
}

// Server holds the services every handler needs.
type Server struct {
	flows    FlowServicer
	stacs    StacServicer
	share    ShareServicer
	profiles ProfileServicer
	log      *slog.Logger
}

// NewServer constructs the Server with all its dependencies.
// A nil logger uses slog.Default.
func NewServer(flows FlowServicer, stacs StacServicer, share ShareServicer, profiles ProfileServicer, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{flows: flows, stacs: stacs, share: share, profiles: profiles, log: log}
}

// NewHealthHandler returns a Server for health-check-only use.
func NewHealthHandler() *Server {
	return NewServer(nil, nil, nil, nil, nil)
}

// Handler returns the API router. auth guards every route except /healthz.
func (s *Server) Handler(auth func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Get("/healthz", s.GetHealth)

	r.Group(func(r chi.Router) {
		r.Use(auth)

		r.Route("/flows", func(r chi.Router) {
			r.Post("/", s.StartFlow)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetFlow)
				r.Delete("/", s.DiscardFlow)
				r.Patch("/draft", s.UpdateDraft)
				r.Post("/activities", s.AddActivity)
				r.Put("/activities/{index}", s.SetActivity)
				r.Delete("/activities/{index}", s.RemoveActivity)
				r.Post("/submit", s.SubmitFlow)
				r.Post("/selections", s.ToggleSelection)
				r.Post("/refresh", s.RefreshFlow)
				r.Post("/finalize", s.FinalizeFlow)
				r.Post("/share", s.ShareFlow)
			})
		})

		r.Route("/stacs", func(r chi.Router) {
			r.Get("/", s.ListStacs)
			r.Get("/export", s.GetExport)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.GetStac)
				r.Delete("/", s.DeleteStac)
				r.Post("/share", s.ShareStac)
				r.Get("/calendar.ics", s.GetStacCalendar)
			})
		})

		r.Get("/profile", s.GetProfile)
		r.Put("/profile", s.SaveProfile)
	})
	return r
}
