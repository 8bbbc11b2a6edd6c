package authz

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/fixpoint-app/fixpoint/internal/platform/httpx"
)

const maintenanceMessage = "the platform is undergoing maintenance, please try again later"

// SettingsSource reads the global maintenance toggle. A missing setting
// reports (false, nil).
type SettingsSource interface {
	MaintenanceEnabled(ctx context.Context) (bool, error)
}

// Authenticator verifies credentials and returns the matching identity.
// Used by the gate solely to decide superuser bypass.
type Authenticator interface {
	Authenticate(ctx context.Context, email, password string) (*Identity, error)
}

// MaintenanceGate blocks ordinary authentication traffic while maintenance
// mode is on. Mounted in front of the login and register endpoints only;
// any other route passes through unchanged.
type MaintenanceGate struct {
	Settings SettingsSource
	Auth     Authenticator
	Logger   *slog.Logger
}

type maintenanceCredentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Wrap applies the gate to next.
func (g MaintenanceGate) Wrap(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		enabled, err := g.Settings.MaintenanceEnabled(r.Context())
		if err != nil {
			// Fail open: a broken settings read must never lock out all
			// authentication.
			if g.Logger != nil {
				g.Logger.Error("maintenance flag read", slog.Any("error", err))
			}
			next.ServeHTTP(w, r)
			return
		}
		if !enabled {
			next.ServeHTTP(w, r)
			return
		}

		switch {
		case strings.HasSuffix(r.URL.Path, "/register"):
			// Registrations are always blocked during maintenance; the
			// superuser bypass applies only to already-provisioned accounts.
			httpx.MaintenanceProblem(w, maintenanceMessage)
		case strings.HasSuffix(r.URL.Path, "/login"):
			g.gateLogin(w, r, next)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// gateLogin authenticates the supplied credentials purely to learn the
// caller's role. Failed credentials and valid non-superuser credentials
// produce the identical maintenance response so a lockdown never reveals
// whether an account exists.
func (g MaintenanceGate) gateLogin(w http.ResponseWriter, r *http.Request, next http.Handler) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		httpx.MaintenanceProblem(w, maintenanceMessage)
		return
	}
	r.Body = io.NopCloser(bytes.NewReader(body))

	var creds maintenanceCredentials
	if err := json.Unmarshal(body, &creds); err != nil || creds.Email == "" || creds.Password == "" {
		// Missing credentials are handled by downstream input validation;
		// duplicating presence checks here would mean two layers disagree
		// on the error shape.
		next.ServeHTTP(w, r)
		return
	}

	id, err := g.Auth.Authenticate(r.Context(), creds.Email, creds.Password)
	if err == nil && id != nil && id.Role == RoleSuperuser {
		next.ServeHTTP(w, r)
		return
	}
	httpx.MaintenanceProblem(w, maintenanceMessage)
}
