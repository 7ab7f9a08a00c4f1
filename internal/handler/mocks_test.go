package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/stacit/stacit/backend/internal/domain"
	"github.com/stacit/stacit/backend/internal/handler"
	"github.com/stacit/stacit/backend/internal/middleware"
)

// ---- auth doubles ------------------------------------------------------------

var alice = domain.Session{UserID: "user-alice", Email: "alice@example.com"}

// denyAll rejects every request the way the real auth middleware rejects a
// missing token.
func denyAll(http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"unauthorized","message":"missing bearer token"}}`))
	})
}

// allowAs attaches sess to every request.
func allowAs(sess domain.Session) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(middleware.ContextWithSession(r.Context(), sess)))
		})
	}
}

// passThrough forwards requests without a session, exercising the handlers'
// own session check.
func passThrough(next http.Handler) http.Handler { return next }

// ---- mock FlowServicer -------------------------------------------------------

type mockFlowServicer struct {
	start          func(ctx context.Context, sess domain.Session, initial *domain.DraftUpdate) (*domain.CreationFlow, error)
	get            func(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.CreationFlow, error)
	updateDraft    func(ctx context.Context, sess domain.Session, id uuid.UUID, u domain.DraftUpdate) (*domain.CreationFlow, error)
	addActivity    func(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.CreationFlow, error)
	setActivity    func(ctx context.Context, sess domain.Session, id uuid.UUID, index int, text string) (*domain.CreationFlow, error)
	removeActivity func(ctx context.Context, sess domain.Session, id uuid.UUID, index int) (*domain.CreationFlow, error)
	submit         func(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.CreationFlow, error)
	toggle         func(ctx context.Context, sess domain.Session, id uuid.UUID, preference, option string) (*domain.CreationFlow, error)
	refresh        func(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.CreationFlow, error)
	finalize       func(ctx context.Context, sess domain.Session, id uuid.UUID) (domain.StacRecord, error)
	discard        func(ctx context.Context, sess domain.Session, id uuid.UUID) error
	share          func(ctx context.Context, sess domain.Session, id uuid.UUID, recipients string) (string, error)
}

func (m *mockFlowServicer) Start(ctx context.Context, sess domain.Session, initial *domain.DraftUpdate) (*domain.CreationFlow, error) {
	return m.start(ctx, sess, initial)
}

func (m *mockFlowServicer) Get(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.CreationFlow, error) {
	return m.get(ctx, sess, id)
}

func (m *mockFlowServicer) UpdateDraft(ctx context.Context, sess domain.Session, id uuid.UUID, u domain.DraftUpdate) (*domain.CreationFlow, error) {
	return m.updateDraft(ctx, sess, id, u)
}

func (m *mockFlowServicer) AddActivity(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.CreationFlow, error) {
	return m.addActivity(ctx, sess, id)
}

func (m *mockFlowServicer) SetActivity(ctx context.Context, sess domain.Session, id uuid.UUID, index int, text string) (*domain.CreationFlow, error) {
	return m.setActivity(ctx, sess, id, index, text)
}

func (m *mockFlowServicer) RemoveActivity(ctx context.Context, sess domain.Session, id uuid.UUID, index int) (*domain.CreationFlow, error) {
	return m.removeActivity(ctx, sess, id, index)
}

func (m *mockFlowServicer) Submit(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.CreationFlow, error) {
	return m.submit(ctx, sess, id)
}

func (m *mockFlowServicer) Toggle(ctx context.Context, sess domain.Session, id uuid.UUID, preference, option string) (*domain.CreationFlow, error) {
	return m.toggle(ctx, sess, id, preference, option)
}

func (m *mockFlowServicer) Refresh(ctx context.Context, sess domain.Session, id uuid.UUID) (*domain.CreationFlow, error) {
	return m.refresh(ctx, sess, id)
}

func (m *mockFlowServicer) Finalize(ctx context.Context, sess domain.Session, id uuid.UUID) (domain.StacRecord, error) {
	return m.finalize(ctx, sess, id)
}

func (m *mockFlowServicer) Discard(ctx context.Context, sess domain.Session, id uuid.UUID) error {
	return m.discard(ctx, sess, id)
}

func (m *mockFlowServicer) Share(ctx context.Context, sess domain.Session, id uuid.UUID, recipients string) (string, error) {
	return m.share(ctx, sess, id, recipients)
}

// ---- mock StacServicer -------------------------------------------------------

type mockStacServicer struct {
	list    func(ctx context.Context, sess domain.Session) (domain.StacListing, error)
	getByID func(ctx context.Context, sess domain.Session, id uuid.UUID) (domain.StacRecord, error)
	delete  func(ctx context.Context, sess domain.Session, id uuid.UUID) error
	export  func(ctx context.Context, sess domain.Session) ([]domain.ExportRow, error)
}

func (m *mockStacServicer) List(ctx context.Context, sess domain.Session) (domain.StacListing, error) {
	return m.list(ctx, sess)
}

func (m *mockStacServicer) GetByID(ctx context.Context, sess domain.Session, id uuid.UUID) (domain.StacRecord, error) {
	return m.getByID(ctx, sess, id)
}

func (m *mockStacServicer) Delete(ctx context.Context, sess domain.Session, id uuid.UUID) error {
	return m.delete(ctx, sess, id)
}

func (m *mockStacServicer) Export(ctx context.Context, sess domain.Session) ([]domain.ExportRow, error) {
	return m.export(ctx, sess)
}

// ---- mock ShareServicer ------------------------------------------------------

type mockShareServicer struct {
	shareStac func(ctx context.Context, sess domain.Session, id uuid.UUID, recipients string) (string, error)
}

func (m *mockShareServicer) ShareStac(ctx context.Context, sess domain.Session, id uuid.UUID, recipients string) (string, error) {
	return m.shareStac(ctx, sess, id, recipients)
}

// ---- mock ProfileServicer ----------------------------------------------------

type mockProfileServicer struct {
	save func(ctx context.Context, sess domain.Session, p domain.UserProfile) (domain.UserProfile, error)
	get  func(ctx context.Context, sess domain.Session) (domain.UserProfile, error)
}

func (m *mockProfileServicer) Save(ctx context.Context, sess domain.Session, p domain.UserProfile) (domain.UserProfile, error) {
	return m.save(ctx, sess, p)
}

func (m *mockProfileServicer) Get(ctx context.Context, sess domain.Session) (domain.UserProfile, error) {
	return m.get(ctx, sess)
}

// compile-time checks: the mocks must satisfy the handler interfaces.
var (
	_ handler.FlowServicer    = (*mockFlowServicer)(nil)
	_ handler.StacServicer    = (*mockStacServicer)(nil)
	_ handler.ShareServicer   = (*mockShareServicer)(nil)
	_ handler.ProfileServicer = (*mockProfileServicer)(nil)
)

// ---- helpers -----------------------------------------------------------------

// services bundles the mocks a test wires into a Server. Nil fields stay nil.
type services struct {
	flows    *mockFlowServicer
	stacs    *mockStacServicer
	share    *mockShareServicer
	profiles *mockProfileServicer
}

// newHTTPHandler wires a Server from the given mocks behind allowAs(alice).
func newHTTPHandler(s services) http.Handler {
	var (
		flows    handler.FlowServicer
		stacs    handler.StacServicer
		share    handler.ShareServicer
		profiles handler.ProfileServicer
	)
	if s.flows != nil {
		flows = s.flows
	}
	if s.stacs != nil {
		stacs = s.stacs
	}
	if s.share != nil {
		share = s.share
	}
	if s.profiles != nil {
		profiles = s.profiles
	}
	return handler.NewServer(flows, stacs, share, profiles, nil).Handler(allowAs(alice))
}

// decodeError decodes the error envelope from a response body.
func decodeError(t *testing.T, body io.Reader) handler.ErrorResponse {
	t.Helper()
	var resp handler.ErrorResponse
	require.NoError(t, json.NewDecoder(body).Decode(&resp))
	return resp
}
