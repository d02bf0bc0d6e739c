package procurement

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

// Handler manages procurement endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers procurement routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.handleListPOs)
	r.Post("/", h.createPO)
	r.Post("/inline-products", h.createInlineProduct)
	r.Get("/{id}", h.showPO)
	r.Delete("/{id}", h.deletePO)
}

type listResponse struct {
	Orders     []store.PurchaseOrder `json:"orders"`
	Pagination shared.Pagination     `json:"pagination"`
}

func (h *Handler) handleListPOs(w http.ResponseWriter, r *http.Request) {
	from, err := httpx.ParseDate(r.URL.Query().Get("from"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	to, err := httpx.ParseDate(r.URL.Query().Get("to"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if !to.IsZero() {
		to = to.AddDate(0, 0, 1)
	}
	orders, err := h.service.ListPurchaseOrders(r.Context(), ListPurchaseOrdersRequest{From: from, To: to})
	if err != nil {
		h.logger.Error("list purchase orders failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	page := shared.PaginationFromRequest(r, len(orders))
	httpx.JSON(w, http.StatusOK, listResponse{Orders: shared.Page(orders, page), Pagination: page})
}

func (h *Handler) createPO(w http.ResponseWriter, r *http.Request) {
	var input CreatePurchaseOrderInput
	if err := httpx.DecodeAndValidate(w, r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input.Actor = shared.ActorFromRequest(r)
	order, err := h.service.CreatePurchaseOrder(r.Context(), input)
	if err != nil {
		h.logger.Warn("create purchase order rejected", slog.Any("error", err), slog.String("supplier_id", input.SupplierID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) createInlineProduct(w http.ResponseWriter, r *http.Request) {
	var input InlineProductInput
	if err := httpx.DecodeAndValidate(w, r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input.Actor = shared.ActorFromRequest(r)
	result, err := h.service.CreateInlineProduct(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) showPO(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetPurchaseOrder(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) deletePO(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeletePurchaseOrder(r.Context(), id, shared.ActorFromRequest(r)); err != nil {
		h.logger.Error("delete purchase order failed", slog.Any("error", err), slog.String("order_id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
