package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/foliodev/folio/internal/model"
	"github.com/foliodev/folio/internal/security"
	"github.com/foliodev/folio/internal/server/middleware"
	"github.com/foliodev/folio/internal/service"
	"github.com/foliodev/folio/internal/storage"
	"github.com/foliodev/folio/internal/store"
	"github.com/foliodev/folio/internal/store/sqlstore"
)

const (
	testJWTSecret = "test-secret-for-handler-tests"
	testUsername  = "admin"
	testPassword  = "supersecretpassword"
)

// testEnv holds shared state for handler integration tests.
type testEnv struct {
	store   store.Store
	authSvc *service.AuthService
	objects *fakeObjects
	account *model.Account
	router  chi.Router
}

// newTestEnv creates a fresh test environment with an in-memory store, a
// seeded admin account, a fake object store, and a Chi router with every
// handler mounted. Admin routes carry the real auth middleware.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	st, err := sqlstore.Open(ctx, store.Config{Driver: sqlstore.DriverSQLite})
	if err != nil {
		t.Fatalf("sqlstore.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })

	acct, err := service.NewAccountService(st).Create(ctx, service.NewAccount{
		Username: testUsername,
		Email:    "admin@example.com",
		Password: testPassword,
		Role:     model.RoleSuperAdmin,
	})
	if err != nil {
		t.Fatalf("create account: %v", err)
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	authSvc := service.NewAuthService(testJWTSecret, time.Hour)
	limiter := security.NewRateLimiter()
	login, err := service.NewLoginService(st, authSvc, limiter, service.WithLogger(logger))
	if err != nil {
		t.Fatalf("NewLoginService: %v", err)
	}

	objects := newFakeObjects()
	authH := NewAuthHandler(login, st, false, logger)
	contentH := NewContentHandler(st, logger)
	projectH := NewProjectHandler(st, logger)
	uploadH := NewUploadHandler(objects, logger)

	r := chi.NewRouter()
	r.Route("/api", func(r chi.Router) {
		r.Get("/profile", contentH.Profile)
		r.Get("/projects", contentH.ListProjects)
		r.Get("/projects/{id}", contentH.GetProject)
		r.Get("/skills", contentH.Skills)
		r.Get("/contact", contentH.Contact)

		r.Route("/admin", func(r chi.Router) {
			r.Post("/auth/login", authH.Login)
			r.Post("/auth/logout", authH.Logout)

			r.Group(func(r chi.Router) {
				r.Use(middleware.Authenticate(authSvc))
				r.Get("/auth/me", authH.Me)

				r.Get("/projects", projectH.ListProjects)
				r.Post("/projects", projectH.CreateProject)
				r.Get("/projects/{id}", projectH.GetProject)
				r.Put("/projects/{id}", projectH.UpdateProject)
				r.Delete("/projects/{id}", projectH.DeleteProject)

				r.Post("/upload/image", uploadH.UploadImage)
				r.Post("/upload/delete", uploadH.DeleteImage)
				r.Post("/upload/fix-policy", uploadH.FixPolicy)
			})
		})
	})

	return &testEnv{
		store:   st,
		authSvc: authSvc,
		objects: objects,
		account: acct,
		router:  r,
	}
}

// token issues a session token for the seeded account.
func (e *testEnv) token(t *testing.T) string {
	t.Helper()
	tok, _, err := e.authSvc.IssueToken(e.account)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	return tok
}

// do executes an HTTP request against the test router and returns the recorder.
func (e *testEnv) do(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

// doAuth is like do but carries a bearer token for the seeded account.
func (e *testEnv) doAuth(t *testing.T, method, path string, body io.Reader) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Authorization", "Bearer "+e.token(t))
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func toJSON(t *testing.T, v interface{}) *bytes.Buffer {
	t.Helper()
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(v); err != nil {
		t.Fatalf("toJSON: %v", err)
	}
	return buf
}

func assertStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Errorf("status = %d, want %d; body = %s", rr.Code, want, rr.Body.String())
	}
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(rr.Body).Decode(v); err != nil {
		t.Fatalf("decodeJSON: %v; body = %s", err, rr.Body.String())
	}
}

func errorMessage(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	var resp model.ErrorResponse
	decodeJSON(t, rr, &resp)
	return resp.Error.Message
}

// seedProject stores a project directly and returns it.
func (e *testEnv) seedProject(t *testing.T, projectID string, published bool) *model.Project {
	t.Helper()
	p := &model.Project{
		ProjectID:     projectID,
		Slug:          projectID,
		Title:         "Project " + projectID,
		Category:      "web",
		Year:          "2024",
		Description:   "desc",
		Tags:          []string{"go"},
		Color:         "#fff",
		CoverGradient: "linear-gradient(#000, #fff)",
		Published:     published,
		ShowResults:   true,
		Results:       []model.ProjectResult{{Value: "2x", Label: "faster", Order: 1}},
	}
	if err := e.store.CreateProject(context.Background(), p); err != nil {
		t.Fatalf("seedProject: %v", err)
	}
	return p
}

// fakeObjects is an in-memory storage.ObjectStore.
type fakeObjects struct {
	objects  map[string][]byte
	types    map[string]string
	policies int
	putErr   error
}

func newFakeObjects() *fakeObjects {
	return &fakeObjects{objects: map[string][]byte{}, types: map[string]string{}}
}

const fakeBase = "http://objects.test/media/"

func (f *fakeObjects) Put(_ context.Context, name string, r io.Reader, _ int64, contentType string) (string, error) {
	if f.putErr != nil {
		return "", f.putErr
	}
	b, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	f.objects[name] = b
	f.types[name] = contentType
	return fakeBase + name, nil
}

func (f *fakeObjects) Delete(_ context.Context, name string) error {
	delete(f.objects, name)
	return nil
}

func (f *fakeObjects) EnsurePublic(context.Context) error {
	f.policies++
	return nil
}

func (f *fakeObjects) ObjectName(rawURL string) (string, error) {
	return storage.Config{Endpoint: "objects.test", Bucket: "media"}.ObjectName(rawURL)
}
