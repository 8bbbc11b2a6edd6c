package auth_test

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/bcrypt"

	"github.com/fixpoint-app/fixpoint/internal/auth"
	"github.com/fixpoint-app/fixpoint/internal/authz"
	"github.com/fixpoint-app/fixpoint/internal/shared"
	_ "github.com/fixpoint-app/fixpoint/testing"
)

type stubRepo struct {
	user *auth.User
}

func (s *stubRepo) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	if s.user == nil || s.user.Email != email {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	if s.user == nil || s.user.ID != id {
		return nil, shared.ErrNotFound
	}
	return s.user, nil
}

func (s *stubRepo) CreateAccount(ctx context.Context, companyName string, user auth.User) (*auth.User, error) {
	created := user
	created.ID = 99
	created.CompanyID = 10
	created.LocationID = 11
	created.IsActive = true
	return &created, nil
}

func (s *stubRepo) CreateSession(ctx context.Context, id string, userID int64, expiresAt time.Time, ip, ua string) error {
	return nil
}

func (s *stubRepo) DeleteSession(ctx context.Context, id string) error {
	return nil
}

type allowAllSettings struct{}

func (allowAllSettings) MaintenanceEnabled(context.Context) (bool, error) { return false, nil }

func newAuthRouter(t *testing.T, repo auth.Repository) (chi.Router, *shared.SessionManager) {
	t.Helper()
	mr := miniredis.RunT(t)
	redisClient := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	sessionManager := shared.NewSessionManager(redisClient, "test_session", "secret", time.Hour, false)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	service := auth.NewService(repo, "0123456789abcdef0123456789abcdef", 15*time.Minute)
	resolver := authz.NewResolver(&authz.StaticCatalog{}, nil)
	gate := authz.MaintenanceGate{Settings: allowAllSettings{}, Auth: auth.IdentityAuthenticator{Service: service}, Logger: logger}
	handler := auth.NewHandler(logger, service, sessionManager, resolver, gate)

	r := chi.NewRouter()
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			sess, err := sessionManager.Load(req.Context(), req)
			if err != nil {
				t.Fatalf("load session: %v", err)
			}
			ctx := shared.ContextWithSession(req.Context(), sess)
			next.ServeHTTP(w, req.WithContext(ctx))
		})
	})
	r.Route("/auth", handler.MountRoutes)
	return r, sessionManager
}

func TestLoginSuccessIssuesToken(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct horse battery"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo := &stubRepo{user: &auth.User{
		ID: 1, Email: "user@shop.test", PasswordHash: string(hashed),
		CompanyID: 3, Role: authz.RoleManager, IsActive: true,
	}}
	router, _ := newAuthRouter(t, repo)

	body := `{"email":"user@shop.test","password":"correct horse battery"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var payload struct {
		Token string `json:"token"`
		User  struct {
			ID        int64  `json:"id"`
			CompanyID int64  `json:"company_id"`
			Role      string `json:"role"`
		} `json:"user"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Token == "" {
		t.Fatalf("expected access token in response")
	}
	if payload.User.CompanyID != 3 || payload.User.Role != "manager" {
		t.Fatalf("unexpected user payload: %+v", payload.User)
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct horse battery"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo := &stubRepo{user: &auth.User{
		ID: 1, Email: "user@shop.test", PasswordHash: string(hashed),
		CompanyID: 3, Role: authz.RoleManager, IsActive: true,
	}}
	router, _ := newAuthRouter(t, repo)

	body := `{"email":"user@shop.test","password":"wrong password!"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestLoginInactiveUserRejected(t *testing.T) {
	hashed, err := bcrypt.GenerateFromPassword([]byte("correct horse battery"), bcrypt.DefaultCost)
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	repo := &stubRepo{user: &auth.User{
		ID: 1, Email: "user@shop.test", PasswordHash: string(hashed),
		CompanyID: 3, Role: authz.RoleManager, IsActive: false,
	}}
	router, _ := newAuthRouter(t, repo)

	body := `{"email":"user@shop.test","password":"correct horse battery"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/login", strings.NewReader(body))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", res.Code)
	}
}

func TestRegisterCreatesAdminAccount(t *testing.T) {
	router, _ := newAuthRouter(t, &stubRepo{})

	body := `{"company_name":"Bay Area Repairs","name":"Pat","email":"pat@shop.test","password":"long enough pass"}`
	req := httptest.NewRequest(http.MethodPost, "/auth/register", strings.NewReader(body))
	res := httptest.NewRecorder()
	router.ServeHTTP(res, req)

	if res.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", res.Code, res.Body.String())
	}
	var payload struct {
		Role string `json:"role"`
	}
	if err := json.NewDecoder(res.Body).Decode(&payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Role != "admin" {
		t.Fatalf("first registered user must be admin, got %q", payload.Role)
	}
}
