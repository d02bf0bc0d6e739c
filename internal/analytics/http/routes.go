package analytichttp

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
)

// MountRoutes registers dashboard endpoints onto the router.
func (h *Handler) MountRoutes(r chi.Router) {
	if h == nil {
		return
	}
	limiter := httprate.Limit(10, time.Minute,
		httprate.WithKeyFuncs(rateLimitKey),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
		}),
	)

	r.Get("/kpis", h.handleKPIs)
	r.Get("/trend", h.handleTrend)
	r.Group(func(gr chi.Router) {
		gr.Use(limiter)
		gr.Get("/kpis.csv", h.handleKPICSV)
		gr.Get("/trend.csv", h.handleTrendCSV)
	})
}

func rateLimitKey(r *http.Request) (string, error) {
	if actor := r.Header.Get(shared.ActorHeader); actor != "" {
		return "actor:" + actor, nil
	}
	key, err := httprate.KeyByIP(r)
	if err != nil {
		return "", err
	}
	return "ip:" + key, nil
}
