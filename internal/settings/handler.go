package settings

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/fixpoint-app/fixpoint/internal/authz"
	"github.com/fixpoint-app/fixpoint/internal/platform/httpx"
)

// Handler exposes the settings endpoints. Reading the maintenance state is
// open to any settings-capable user; flipping it is superuser only.
type Handler struct {
	logger  *slog.Logger
	service *Service
	authz   authz.Middleware
}

// NewHandler constructs a Handler.
func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: mw}
}

// MountRoutes registers settings routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermSettingsAccess))
		r.Get("/maintenance", h.showMaintenance)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequireRole(authz.RoleSuperuser))
		r.Put("/maintenance", h.setMaintenance)
	})
}

func (h *Handler) showMaintenance(w http.ResponseWriter, r *http.Request) {
	mode, err := h.service.Maintenance(r.Context())
	if err != nil {
		h.logger.Error("read maintenance", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	httpx.JSON(w, http.StatusOK, mode)
}

type maintenanceRequest struct {
	Enabled bool   `json:"enabled"`
	Message string `json:"message"`
}

func (h *Handler) setMaintenance(w http.ResponseWriter, r *http.Request) {
	var req maintenanceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	id := authz.IdentityFromContext(r.Context())
	actorID := int64(0)
	if id != nil {
		actorID = id.UserID
	}
	if err := h.service.SetMaintenance(r.Context(), req.Enabled, req.Message, actorID); err != nil {
		h.logger.Error("set maintenance", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
