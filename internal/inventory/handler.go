package inventory

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// Handler wires HTTP endpoints for inventory module.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/adjustments", h.handleAdjustment)
	r.Post("/availability", h.handleAvailability)
	r.Get("/low-stock", h.handleLowStock)
}

type availabilityRequest struct {
	Items []LineItem `json:"items" validate:"required,min=1,dive"`
}

func (h *Handler) handleAdjustment(w http.ResponseWriter, r *http.Request) {
	var input AdjustmentInput
	if err := httpx.DecodeAndValidate(w, r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input.Actor = shared.ActorFromRequest(r)
	product, err := h.service.Adjust(r.Context(), input)
	if err != nil {
		h.logger.Error("post adjustment failed", slog.Any("error", err), slog.String("product_id", input.ProductID))
		httpx.RespondError(w, err)
		return
	}
	h.logger.Info("stock adjusted",
		slog.String("product_id", product.ID),
		slog.Int("quantity", input.Quantity),
		slog.Int("stock", product.Stock))
	httpx.JSON(w, http.StatusOK, product)
}

func (h *Handler) handleAvailability(w http.ResponseWriter, r *http.Request) {
	var req availabilityRequest
	if err := httpx.DecodeAndValidate(w, r, &req); err != nil {
		httpx.RespondError(w, err)
		return
	}
	report, err := h.service.CheckAvailability(r.Context(), req.Items)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"items": report})
}

func (h *Handler) handleLowStock(w http.ResponseWriter, r *http.Request) {
	items, err := h.service.LowStock(r.Context())
	if err != nil {
		h.logger.Error("low stock listing failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"threshold": h.service.Threshold(), "items": items})
}
