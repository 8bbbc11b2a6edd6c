package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/fixpoint-app/fixpoint/internal/auth"
	"github.com/fixpoint-app/fixpoint/internal/checklists"
	"github.com/fixpoint-app/fixpoint/internal/companies"
	"github.com/fixpoint-app/fixpoint/internal/customers"
	"github.com/fixpoint-app/fixpoint/internal/drawers"
	"github.com/fixpoint-app/fixpoint/internal/inventory"
	"github.com/fixpoint-app/fixpoint/internal/invoices"
	"github.com/fixpoint-app/fixpoint/internal/observability"
	"github.com/fixpoint-app/fixpoint/internal/settings"
	"github.com/fixpoint-app/fixpoint/internal/shared"
	"github.com/fixpoint-app/fixpoint/internal/tickets"
	"github.com/fixpoint-app/fixpoint/internal/users"
	"github.com/fixpoint-app/fixpoint/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger         *slog.Logger
	Config         *Config
	SessionManager *shared.SessionManager
	CSRFManager    *shared.CSRFManager
	Identity       auth.IdentityLoader

	AuthHandler       *auth.Handler
	UsersHandler      *users.Handler
	CompaniesHandler  *companies.Handler
	SettingsHandler   *settings.Handler
	CustomersHandler  *customers.Handler
	TicketsHandler    *tickets.Handler
	InvoicesHandler   *invoices.Handler
	InventoryHandler  *inventory.Handler
	DrawersHandler    *drawers.Handler
	ChecklistsHandler *checklists.Handler
	JobHandler        *jobs.Handler

	Metrics *observability.Metrics
}

// NewRouter constructs the chi.Router with application defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:         params.Logger,
		Config:         params.Config,
		SessionManager: params.SessionManager,
		CSRFManager:    params.CSRFManager,
		Metrics:        params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)
	r.Use(params.Identity.Middleware)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/auth", params.AuthHandler.MountRoutes)

	r.Group(func(r chi.Router) {
		r.Use(auth.RequireAuth)

		r.Route("/users", params.UsersHandler.MountRoutes)
		r.Route("/company", params.CompaniesHandler.MountRoutes)
		r.Route("/settings", params.SettingsHandler.MountRoutes)
		r.Route("/customers", params.CustomersHandler.MountRoutes)
		r.Route("/tickets", params.TicketsHandler.MountRoutes)
		r.Route("/invoices", params.InvoicesHandler.MountRoutes)
		r.Route("/inventory", params.InventoryHandler.MountRoutes)
		r.Route("/drawers", params.DrawersHandler.MountRoutes)
		r.Route("/checklists", params.ChecklistsHandler.MountRoutes)
		if params.JobHandler != nil {
			r.Route("/jobs", params.JobHandler.MountRoutes)
		}
	})

	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	return r
}
