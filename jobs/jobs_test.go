package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/hibiken/asynq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/analytics"
	jobmetrics "github.com/odyssey-erp/odyssey-pos/internal/jobs"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
	"github.com/odyssey-erp/odyssey-pos/internal/store/memory"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestTaskConstructors(t *testing.T) {
	task, err := NewLowStockScanTask(LowStockScanPayload{Trigger: "sale", OrderID: "o1"})
	require.NoError(t, err)
	assert.Equal(t, TaskInventoryLowStockScan, task.Type())
	var payload LowStockScanPayload
	require.NoError(t, json.Unmarshal(task.Payload(), &payload))
	assert.Equal(t, "o1", payload.OrderID)

	cron, err := DefaultCron(time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, cron, 2)
	assert.Equal(t, TaskAnalyticsKPIWarmup, cron[0].Task.Type())
	assert.Equal(t, "*/15 * * * *", cron[0].Spec)
	assert.Equal(t, TaskInventoryLowStockScan, cron[1].Task.Type())
}

func TestLowStockScan(t *testing.T) {
	st := memory.New()
	err := st.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		for _, p := range []store.Product{
			{ID: "soap", Name: "Soap", Stock: 2},
			{ID: "rice", Name: "Rice", Stock: 50},
			{ID: "shirt", Name: "Shirt", Stock: 11, HasVariants: true},
		} {
			if err := tx.InsertProduct(ctx, p); err != nil {
				return err
			}
		}
		for _, v := range []store.Variant{
			{ID: "m", ProductID: "shirt", Name: "M", Stock: 10},
			{ID: "l", ProductID: "shirt", Name: "L", Stock: 1},
		} {
			if err := tx.InsertVariant(ctx, v); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	job := NewLowStockScanJob(st, 5, discardLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))
	items, err := job.Scan(context.Background(), LowStockScanPayload{Trigger: "cron"})
	require.NoError(t, err)
	require.Len(t, items, 2)
	ids := []string{items[0].ProductID + "/" + items[0].VariantID, items[1].ProductID + "/" + items[1].VariantID}
	assert.ElementsMatch(t, []string{"soap/", "shirt/l"}, ids)

	task, err := NewLowStockScanTask(LowStockScanPayload{Trigger: "cron"})
	require.NoError(t, err)
	assert.NoError(t, job.Handle(context.Background(), task))

	bad := asynq.NewTask(TaskInventoryLowStockScan, []byte("{"))
	assert.ErrorIs(t, job.Handle(context.Background(), bad), asynq.SkipRetry)
}

type stubKPISource struct {
	kpiFilter   analytics.KPIFilter
	trendFilter analytics.KPIFilter
	err         error
}

func (s *stubKPISource) MonthToDate() analytics.KPIFilter {
	from := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	return analytics.KPIFilter{From: from, To: from.AddDate(0, 1, 0)}
}

func (s *stubKPISource) GetKPIs(ctx context.Context, filter analytics.KPIFilter) (analytics.KPISummary, error) {
	s.kpiFilter = filter
	return analytics.KPISummary{SalesTotal: decimal.NewFromInt(10), OrderCount: 1}, s.err
}

func (s *stubKPISource) GetProfitTrend(ctx context.Context, filter analytics.KPIFilter) ([]analytics.TrendPoint, error) {
	s.trendFilter = filter
	return nil, nil
}

func TestKPIWarmup(t *testing.T) {
	source := &stubKPISource{}
	job := NewKPIWarmupJob(source, discardLogger(), jobmetrics.NewMetrics(prometheus.NewRegistry()))
	task, err := NewKPIWarmupTask(time.Now())
	require.NoError(t, err)
	require.NoError(t, job.Handle(context.Background(), task))

	assert.Equal(t, time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), source.kpiFilter.From)
	assert.Equal(t, time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC), source.trendFilter.From)
	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), source.trendFilter.To)

	source.err = shared.ErrStore
	assert.ErrorIs(t, job.Warm(context.Background()), shared.ErrStore)
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (f *fakeEnqueuer) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.tasks = append(f.tasks, task)
	return &asynq.TaskInfo{Type: task.Type(), Queue: QueueDefault}, nil
}

func (f *fakeEnqueuer) Close() error { return nil }

func TestSaleNotifierEnqueuesScanOnSalesOnly(t *testing.T) {
	fake := &fakeEnqueuer{}
	client := &Client{client: fake}
	notifier := client.SaleNotifier(discardLogger())

	notifier.NotifyChange(context.Background(), shared.ChangeEvent{Kind: shared.ChangeExpense, EntityID: "e1"})
	notifier.NotifyChange(context.Background(), shared.ChangeEvent{Kind: shared.ChangeSales, EntityID: "o1"})
	require.Len(t, fake.tasks, 1)
	assert.Equal(t, TaskInventoryLowStockScan, fake.tasks[0].Type())

	fake.err = errors.New("redis down")
	assert.NotPanics(t, func() {
		notifier.NotifyChange(context.Background(), shared.ChangeEvent{Kind: shared.ChangeSales, EntityID: "o2"})
	})
}

type fakeInspector struct {
	info *asynq.QueueInfo
	err  error
}

func (f fakeInspector) GetQueueInfo(string) (*asynq.QueueInfo, error) { return f.info, f.err }

func TestHealthEndpoint(t *testing.T) {
	serve := func(h *Handler) *httptest.ResponseRecorder {
		r := chi.NewRouter()
		r.Route("/jobs", h.MountRoutes)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/jobs/health", nil))
		return rr
	}

	rr := serve(NewHandler(nil, discardLogger()))
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"queue":"default","pending":0,"active":0,"scheduled":0,"retry":0,"failed":0}`, rr.Body.String())

	rr = serve(&Handler{inspector: fakeInspector{info: &asynq.QueueInfo{Queue: "default", Pending: 3, Failed: 1}}, logger: discardLogger()})
	require.Equal(t, http.StatusOK, rr.Code)
	var resp healthResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, 3, resp.Pending)
	assert.Equal(t, 1, resp.Failed)

	rr = serve(&Handler{inspector: fakeInspector{err: errors.New("redis down")}, logger: discardLogger()})
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
