package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	analytichttp "github.com/odyssey-erp/odyssey-pos/internal/analytics/http"
	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/expenses"
	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	"github.com/odyssey-erp/odyssey-pos/internal/observability"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
	"github.com/odyssey-erp/odyssey-pos/internal/procurement"
	"github.com/odyssey-erp/odyssey-pos/internal/sales"
	"github.com/odyssey-erp/odyssey-pos/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger      *slog.Logger
	Config      *Config
	Catalog     *catalog.Handler
	Inventory   *inventory.Handler
	Sales       *sales.Handler
	Procurement *procurement.Handler
	Expenses    *expenses.Handler
	Analytics   *analytichttp.Handler
	Jobs        *jobs.Handler
	Metrics     *observability.Metrics
}

// NewRouter constructs the chi.Router with Odyssey defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}
	if !params.Config.IsProduction() {
		r.Use(chimw.Logger)
	}

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		httpx.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if params.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", params.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		if params.Catalog != nil {
			r.Route("/products", params.Catalog.MountProductRoutes)
			r.Route("/customers", params.Catalog.MountCustomerRoutes)
			r.Route("/suppliers", params.Catalog.MountSupplierRoutes)
		}
		if params.Inventory != nil {
			r.Route("/inventory", params.Inventory.MountRoutes)
		}
		if params.Sales != nil {
			r.Route("/sales", params.Sales.MountRoutes)
		}
		if params.Procurement != nil {
			r.Route("/purchase-orders", params.Procurement.MountRoutes)
		}
		if params.Expenses != nil {
			r.Route("/expenses", params.Expenses.MountRoutes)
		}
		if params.Analytics != nil {
			r.Route("/dashboard", params.Analytics.MountRoutes)
		}
	})
	if params.Jobs != nil {
		r.Route("/jobs", params.Jobs.MountRoutes)
	}

	return r
}
