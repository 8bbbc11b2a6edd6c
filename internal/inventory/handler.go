package inventory

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/fixpoint-app/fixpoint/internal/authz"
	"github.com/fixpoint-app/fixpoint/internal/platform/httpx"
	"github.com/fixpoint-app/fixpoint/internal/shared"
)

type Handler struct {
	logger    *slog.Logger
	service   *Service
	authz     authz.Middleware
	validator *validator.Validate
}

func NewHandler(logger *slog.Logger, service *Service, mw authz.Middleware) *Handler {
	return &Handler{logger: logger, service: service, authz: mw, validator: validator.New()}
}

func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermInventoryRead))
		r.Get("/parts", h.listParts)
		r.Get("/parts/{id}", h.showPart)
		r.Get("/balances", h.balances)
		r.Get("/card", h.stockCard)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.authz.RequirePermission(authz.PermInventoryEdit))
		r.Post("/parts", h.createPart)
		r.Post("/receipts", h.receipt)
		r.Post("/adjustments", h.adjust)
		r.Post("/transfers", h.transfer)
		r.Post("/consumptions", h.consume)
	})
}

func (h *Handler) identity(r *http.Request) *authz.Identity {
	return authz.IdentityFromContext(r.Context())
}

type createPartRequest struct {
	SKU            string `json:"sku" validate:"required,max=64"`
	Name           string `json:"name" validate:"required,max=255"`
	UnitPriceCents int64  `json:"unit_price_cents" validate:"gte=0"`
}

func (h *Handler) createPart(w http.ResponseWriter, r *http.Request) {
	var req createPartRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	p, err := h.service.CreatePart(r.Context(), h.identity(r).CompanyID, req.SKU, req.Name, req.UnitPriceCents)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, p)
}

func (h *Handler) listParts(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	parts, err := h.service.ListParts(r.Context(), h.identity(r).CompanyID, activeOnly)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"parts": parts})
}

func (h *Handler) showPart(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "invalid part id")
		return
	}
	p, err := h.service.GetPart(r.Context(), h.identity(r).CompanyID, id)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, p)
}

func (h *Handler) balances(w http.ResponseWriter, r *http.Request) {
	locationID, err := strconv.ParseInt(r.URL.Query().Get("location_id"), 10, 64)
	if err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "location_id required")
		return
	}
	out, err := h.service.Balances(r.Context(), h.identity(r).CompanyID, locationID)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"balances": out})
}

func (h *Handler) stockCard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filter := StockCardFilter{}
	filter.LocationID, _ = strconv.ParseInt(q.Get("location_id"), 10, 64)
	filter.PartID, _ = strconv.ParseInt(q.Get("part_id"), 10, 64)
	if filter.LocationID == 0 || filter.PartID == 0 {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "location_id and part_id required")
		return
	}
	if v, err := time.Parse(time.RFC3339, q.Get("from")); err == nil {
		filter.From = v
	}
	if v, err := time.Parse(time.RFC3339, q.Get("to")); err == nil {
		filter.To = v
	}
	if v, err := strconv.Atoi(q.Get("limit")); err == nil {
		filter.Limit = v
	}
	entries, err := h.service.GetStockCard(r.Context(), h.identity(r).CompanyID, filter)
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"entries": entries})
}

type receiptRequest struct {
	LocationID    int64  `json:"location_id" validate:"required"`
	PartID        int64  `json:"part_id" validate:"required"`
	Qty           int64  `json:"qty" validate:"required,gt=0"`
	UnitCostCents int64  `json:"unit_cost_cents" validate:"gte=0"`
	Reference     string `json:"reference" validate:"omitempty,max=64"`
	Note          string `json:"note" validate:"omitempty,max=500"`
}

func (h *Handler) receipt(w http.ResponseWriter, r *http.Request) {
	var req receiptRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	identity := h.identity(r)
	card, err := h.service.PostReceipt(r.Context(), identity.CompanyID, ReceiptInput{
		LocationID:    req.LocationID,
		PartID:        req.PartID,
		Qty:           req.Qty,
		UnitCostCents: req.UnitCostCents,
		Reference:     req.Reference,
		Note:          req.Note,
		ActorID:       identity.UserID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, card)
}

type adjustRequest struct {
	LocationID    int64  `json:"location_id" validate:"required"`
	PartID        int64  `json:"part_id" validate:"required"`
	Qty           int64  `json:"qty" validate:"required"`
	UnitCostCents int64  `json:"unit_cost_cents" validate:"gte=0"`
	Note          string `json:"note" validate:"required,max=500"`
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request) {
	var req adjustRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	identity := h.identity(r)
	card, err := h.service.PostAdjustment(r.Context(), identity.CompanyID, AdjustInput{
		LocationID:    req.LocationID,
		PartID:        req.PartID,
		Qty:           req.Qty,
		UnitCostCents: req.UnitCostCents,
		Note:          req.Note,
		ActorID:       identity.UserID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, card)
}

type transferRequest struct {
	SrcLocation int64  `json:"src_location_id" validate:"required"`
	DstLocation int64  `json:"dst_location_id" validate:"required"`
	PartID      int64  `json:"part_id" validate:"required"`
	Qty         int64  `json:"qty" validate:"required,gt=0"`
	Note        string `json:"note" validate:"omitempty,max=500"`
}

func (h *Handler) transfer(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	identity := h.identity(r)
	out, in, err := h.service.PostTransfer(r.Context(), identity.CompanyID, TransferInput{
		SrcLocation: req.SrcLocation,
		DstLocation: req.DstLocation,
		PartID:      req.PartID,
		Qty:         req.Qty,
		Note:        req.Note,
		ActorID:     identity.UserID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"out": out, "in": in})
}

type consumeRequest struct {
	LocationID int64  `json:"location_id" validate:"required"`
	PartID     int64  `json:"part_id" validate:"required"`
	Qty        int64  `json:"qty" validate:"required,gt=0"`
	Reference  string `json:"reference" validate:"omitempty,max=64"`
}

func (h *Handler) consume(w http.ResponseWriter, r *http.Request) {
	var req consumeRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", "malformed request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		httpx.Problem(w, http.StatusBadRequest, "Validation Failed", err.Error())
		return
	}
	identity := h.identity(r)
	card, err := h.service.PostConsume(r.Context(), identity.CompanyID, ConsumeInput{
		LocationID: req.LocationID,
		PartID:     req.PartID,
		Qty:        req.Qty,
		Reference:  req.Reference,
		ActorID:    identity.UserID,
	})
	if err != nil {
		h.respondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, card)
}

func (h *Handler) respondError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrPartNotFound):
		httpx.Problem(w, http.StatusNotFound, "Not Found", "part not found")
	case errors.Is(err, ErrSKUTaken), errors.Is(err, ErrNegativeStock),
		errors.Is(err, shared.ErrIdempotencyConflict):
		httpx.Problem(w, http.StatusConflict, "Conflict", err.Error())
	case errors.Is(err, ErrInvalidQuantity), errors.Is(err, ErrInvalidUnitCost):
		httpx.Problem(w, http.StatusUnprocessableEntity, "Unprocessable", err.Error())
	default:
		h.logger.Error("inventory handler", slog.Any("error", err))
		httpx.Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
