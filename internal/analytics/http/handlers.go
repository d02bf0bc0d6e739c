package analytichttp

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/odyssey-erp/odyssey-pos/internal/analytics"
	"github.com/odyssey-erp/odyssey-pos/internal/analytics/export"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/httpx"
)

const trendWindowMonths = 12
const requestTimeout = 5 * time.Second

// AnalyticsService defines the dashboard data contract used by the handler.
type AnalyticsService interface {
	GetKPIs(ctx context.Context, filter analytics.KPIFilter) (analytics.KPISummary, error)
	GetProfitTrend(ctx context.Context, filter analytics.KPIFilter) ([]analytics.TrendPoint, error)
}

// Handler coordinates HTTP requests for the profit dashboard.
type Handler struct {
	logger  *slog.Logger
	service AnalyticsService
	csvPool sync.Pool
	now     func() time.Time
}

// NewHandler constructs the analytics HTTP handler.
func NewHandler(logger *slog.Logger, service AnalyticsService) *Handler {
	h := &Handler{logger: logger, service: service, now: time.Now}
	h.csvPool.New = func() any { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

type kpiResponse struct {
	From    string               `json:"from,omitempty"`
	To      string               `json:"to,omitempty"`
	Summary analytics.KPISummary `json:"summary"`
}

type trendResponse struct {
	From   string                 `json:"from"`
	To     string                 `json:"to"`
	Points []analytics.TrendPoint `json:"points"`
}

func (h *Handler) handleKPIs(w http.ResponseWriter, r *http.Request) {
	filter, label, err := h.parseKPIFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	summary, err := h.service.GetKPIs(ctx, filter)
	if err != nil {
		h.logError("load kpis", err)
		httpx.RespondError(w, err)
		return
	}
	resp := kpiResponse{Summary: summary}
	resp.From, resp.To = label[0], label[1]
	httpx.JSON(w, http.StatusOK, resp)
}

func (h *Handler) handleTrend(w http.ResponseWriter, r *http.Request) {
	filter, from, to, err := h.parseTrendFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	points, err := h.service.GetProfitTrend(ctx, filter)
	if err != nil {
		h.logError("load trend", err)
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, trendResponse{From: from, To: to, Points: points})
}

func (h *Handler) handleKPICSV(w http.ResponseWriter, r *http.Request) {
	filter, label, err := h.parseKPIFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	summary, err := h.service.GetKPIs(ctx, filter)
	if err != nil {
		h.logError("load kpis", err)
		httpx.RespondError(w, err)
		return
	}
	period := strings.Trim(label[0]+"_"+label[1], "_")
	if period == "" {
		period = "all"
	}
	h.streamCSV(w, fmt.Sprintf("kpis-%s.csv", period), func(buf *bytes.Buffer) error {
		return export.WriteKPICSV(buf, summary, period)
	})
}

func (h *Handler) handleTrendCSV(w http.ResponseWriter, r *http.Request) {
	filter, from, to, err := h.parseTrendFilter(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	points, err := h.service.GetProfitTrend(ctx, filter)
	if err != nil {
		h.logError("load trend", err)
		httpx.RespondError(w, err)
		return
	}
	h.streamCSV(w, fmt.Sprintf("profit-trend-%s_%s.csv", from, to), func(buf *bytes.Buffer) error {
		return export.WriteTrendCSV(buf, points)
	})
}

func (h *Handler) streamCSV(w http.ResponseWriter, filename string, write func(*bytes.Buffer) error) {
	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()
	if err := write(buf); err != nil {
		h.logError("write csv", err)
		httpx.RespondError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

// parseKPIFilter reads from/to as YYYY-MM-DD with to naming the last included day.
// Without both, the current month is used.
func (h *Handler) parseKPIFilter(r *http.Request) (analytics.KPIFilter, [2]string, error) {
	q := r.URL.Query()
	rawFrom, rawTo := strings.TrimSpace(q.Get("from")), strings.TrimSpace(q.Get("to"))
	if rawFrom == "" && rawTo == "" {
		now := h.now().UTC()
		start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
		end := start.AddDate(0, 1, 0)
		return analytics.KPIFilter{From: start, To: end}, [2]string{start.Format("2006-01-02"), end.AddDate(0, 0, -1).Format("2006-01-02")}, nil
	}
	from, err := httpx.ParseDate(rawFrom)
	if err != nil {
		return analytics.KPIFilter{}, [2]string{}, err
	}
	to, err := httpx.ParseDate(rawTo)
	if err != nil {
		return analytics.KPIFilter{}, [2]string{}, err
	}
	if !to.IsZero() {
		to = to.AddDate(0, 0, 1)
	}
	return analytics.KPIFilter{From: from, To: to}, [2]string{rawFrom, rawTo}, nil
}

// parseTrendFilter reads from/to as YYYY-MM. The default window ends with the current month.
func (h *Handler) parseTrendFilter(r *http.Request) (analytics.KPIFilter, string, string, error) {
	q := r.URL.Query()
	now := h.now().UTC()
	toMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	if raw := strings.TrimSpace(q.Get("to")); raw != "" {
		parsed, err := analytics.ParsePeriod(raw)
		if err != nil {
			return analytics.KPIFilter{}, "", "", err
		}
		toMonth = parsed
	}
	fromMonth := toMonth.AddDate(0, -trendWindowMonths+1, 0)
	if raw := strings.TrimSpace(q.Get("from")); raw != "" {
		parsed, err := analytics.ParsePeriod(raw)
		if err != nil {
			return analytics.KPIFilter{}, "", "", err
		}
		fromMonth = parsed
	}
	filter := analytics.KPIFilter{From: fromMonth, To: toMonth.AddDate(0, 1, 0)}
	return filter, fromMonth.Format("2006-01"), toMonth.Format("2006-01"), nil
}

func (h *Handler) logError(context string, err error) {
	if h.logger != nil {
		h.logger.Error(context, slog.Any("error", err))
	}
}
