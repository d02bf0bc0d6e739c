package sales

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

// IdempotencyHeader lets a till retry a submission safely.
const IdempotencyHeader = "Idempotency-Key"

// Handler manages sales endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers sales routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.list)
	r.Post("/", h.create)
	r.Post("/stock-check", h.stockCheck)
	r.Get("/{id}", h.show)
	r.Delete("/{id}", h.delete)
}

type listResponse struct {
	Orders     []store.SalesOrder `json:"orders"`
	Pagination shared.Pagination  `json:"pagination"`
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
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
		// the query names the last day included
		to = to.AddDate(0, 0, 1)
	}
	orders, err := h.service.ListSales(r.Context(), ListSalesRequest{From: from, To: to})
	if err != nil {
		h.logger.Error("list sales failed", slog.Any("error", err))
		httpx.RespondError(w, err)
		return
	}
	page := shared.PaginationFromRequest(r, len(orders))
	httpx.JSON(w, http.StatusOK, listResponse{Orders: shared.Page(orders, page), Pagination: page})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var input CreateSaleInput
	if err := httpx.DecodeAndValidate(w, r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	input.IdempotencyKey = r.Header.Get(IdempotencyHeader)
	input.Actor = shared.ActorFromRequest(r)
	order, err := h.service.CreateSale(r.Context(), input)
	if err != nil {
		h.logger.Warn("create sale rejected", slog.Any("error", err), slog.String("customer_id", input.CustomerID))
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, order)
}

func (h *Handler) stockCheck(w http.ResponseWriter, r *http.Request) {
	var input StockCheckInput
	if err := httpx.DecodeAndValidate(w, r, &input); err != nil {
		httpx.RespondError(w, err)
		return
	}
	result, err := h.service.CheckStock(r.Context(), input)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, result)
}

func (h *Handler) show(w http.ResponseWriter, r *http.Request) {
	order, err := h.service.GetSale(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, order)
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := h.service.DeleteSale(r.Context(), id, shared.ActorFromRequest(r)); err != nil {
		h.logger.Error("delete sale failed", slog.Any("error", err), slog.String("order_id", id))
		httpx.RespondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
