package authz

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubSettings struct {
	enabled bool
	err     error
}

func (s stubSettings) MaintenanceEnabled(context.Context) (bool, error) {
	return s.enabled, s.err
}

type stubAuth struct {
	identities map[string]*Identity
	password   string
}

func (s stubAuth) Authenticate(_ context.Context, email, password string) (*Identity, error) {
	id, ok := s.identities[email]
	if !ok || password != s.password {
		return nil, errors.New("invalid credentials")
	}
	return id, nil
}

func maintenanceRequest(t *testing.T, gate MaintenanceGate, path string, body any) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	passed := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		passed = true
		// Downstream must still be able to read the full body.
		if body != nil {
			data, err := io.ReadAll(r.Body)
			if err != nil || len(data) == 0 {
				t.Errorf("body not restored for downstream handler")
			}
		}
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodPost, path, reader)
	res := httptest.NewRecorder()
	gate.Wrap(next).ServeHTTP(res, req)
	return res, passed
}

func requireMaintenanceBlock(t *testing.T, res *httptest.ResponseRecorder) ProblemBody {
	t.Helper()
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
	var problem ProblemBody
	if err := json.NewDecoder(res.Body).Decode(&problem); err != nil {
		t.Fatalf("decode problem: %v", err)
	}
	if !problem.Maintenance {
		t.Fatalf("503 must carry the maintenance marker")
	}
	return problem
}

// ProblemBody mirrors the wire shape of httpx.ProblemDetail for assertions.
type ProblemBody struct {
	Title       string `json:"title"`
	Status      int    `json:"status"`
	Detail      string `json:"detail"`
	Maintenance bool   `json:"maintenance"`
}

func testGate(enabled bool, settingsErr error) MaintenanceGate {
	return MaintenanceGate{
		Settings: stubSettings{enabled: enabled, err: settingsErr},
		Auth: stubAuth{
			password: "hunter2hunter2",
			identities: map[string]*Identity{
				"root@fixpoint.test":  {UserID: 1, CompanyID: 1, Role: RoleSuperuser},
				"admin@fixpoint.test": {UserID: 2, CompanyID: 1, Role: RoleAdmin},
			},
		},
		Logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

type loginBody struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func TestMaintenanceOffPassesThrough(t *testing.T) {
	gate := testGate(false, nil)
	_, passed := maintenanceRequest(t, gate, "/auth/login", loginBody{Email: "admin@fixpoint.test", Password: "hunter2hunter2"})
	if !passed {
		t.Fatalf("expected pass-through when flag is off")
	}
}

func TestMaintenanceSettingsErrorFailsOpen(t *testing.T) {
	gate := testGate(true, errors.New("settings table missing"))
	_, passed := maintenanceRequest(t, gate, "/auth/login", loginBody{Email: "admin@fixpoint.test", Password: "hunter2hunter2"})
	if !passed {
		t.Fatalf("settings read error must fail open")
	}
}

func TestMaintenanceRegisterAlwaysBlocked(t *testing.T) {
	gate := testGate(true, nil)

	res, passed := maintenanceRequest(t, gate, "/auth/register", map[string]string{"email": "root@fixpoint.test", "password": "hunter2hunter2"})
	if passed {
		t.Fatalf("register must be blocked even for superuser credentials")
	}
	requireMaintenanceBlock(t, res)

	res, passed = maintenanceRequest(t, gate, "/auth/register", nil)
	if passed {
		t.Fatalf("register must be blocked with no credentials")
	}
	requireMaintenanceBlock(t, res)
}

func TestMaintenanceLoginSuperuserBypass(t *testing.T) {
	gate := testGate(true, nil)
	_, passed := maintenanceRequest(t, gate, "/auth/login", loginBody{Email: "root@fixpoint.test", Password: "hunter2hunter2"})
	if !passed {
		t.Fatalf("superuser login must bypass maintenance")
	}
}

func TestMaintenanceLoginNonSuperuserAndBadPasswordIndistinguishable(t *testing.T) {
	gate := testGate(true, nil)

	wrongPassword, passed := maintenanceRequest(t, gate, "/auth/login", loginBody{Email: "admin@fixpoint.test", Password: "wrong-password"})
	if passed {
		t.Fatalf("bad password must be blocked")
	}
	validNonSuper, passed := maintenanceRequest(t, gate, "/auth/login", loginBody{Email: "admin@fixpoint.test", Password: "hunter2hunter2"})
	if passed {
		t.Fatalf("non-superuser must be blocked")
	}

	a := requireMaintenanceBlock(t, wrongPassword)
	b := requireMaintenanceBlock(t, validNonSuper)
	if a != b {
		t.Fatalf("responses must be identical to avoid leaking account existence: %+v vs %+v", a, b)
	}
}

func TestMaintenanceLoginMissingCredentialsDefersDownstream(t *testing.T) {
	gate := testGate(true, nil)
	_, passed := maintenanceRequest(t, gate, "/auth/login", map[string]string{"email": "admin@fixpoint.test"})
	if !passed {
		t.Fatalf("missing credentials must defer to downstream validation")
	}
}

func TestMaintenanceOtherRoutePassesThrough(t *testing.T) {
	gate := testGate(true, nil)
	_, passed := maintenanceRequest(t, gate, "/auth/refresh", nil)
	if !passed {
		t.Fatalf("unknown routes must pass through unchanged")
	}
}
