package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	jobmetrics "github.com/odyssey-erp/odyssey-pos/internal/jobs"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

var defaultJobMetrics = jobmetrics.NewMetrics(nil)

// LowStockScanJob logs one warning per product or variant below the threshold.
type LowStockScanJob struct {
	Reader    store.Reader
	Threshold int
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
}

// NewLowStockScanJob wires dependencies for the scan handler.
func NewLowStockScanJob(reader store.Reader, threshold int, logger *slog.Logger, metrics *jobmetrics.Metrics) *LowStockScanJob {
	if threshold <= 0 {
		threshold = inventory.DefaultLowStockThreshold
	}
	return &LowStockScanJob{Reader: reader, Threshold: threshold, Logger: logger, Metrics: metrics}
}

// Handle processes low-stock scan tasks.
func (j *LowStockScanJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Reader == nil {
		return errors.New("low stock scan: handler not configured")
	}
	var payload LowStockScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	_, err := j.Scan(ctx, payload)
	return err
}

// Scan runs one pass and returns what it found.
func (j *LowStockScanJob) Scan(ctx context.Context, payload LowStockScanPayload) ([]inventory.LowStockItem, error) {
	tracker := j.metrics().Track(TaskInventoryLowStockScan)
	logger := j.logger().With(slog.String("trigger", payload.Trigger))

	products, err := j.Reader.ListProducts(ctx)
	if err != nil {
		logger.Error("load products", slog.Any("error", err))
		return nil, tracker.End(shared.StoreError("jobs.low_stock_scan", err))
	}
	items := inventory.CollectLowStock(products, j.Threshold)
	for _, item := range items {
		logger.Warn("low stock",
			slog.String("product_id", item.ProductID),
			slog.String("variant_id", item.VariantID),
			slog.String("name", item.Name),
			slog.Int("stock", item.Stock),
			slog.Int("threshold", j.Threshold))
	}
	j.metrics().SetLowStock(len(items))
	logger.Info("low stock scan completed", slog.Int("items", len(items)))
	return items, tracker.End(nil)
}

func (j *LowStockScanJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskInventoryLowStockScan))
	}
	return slog.Default().With(slog.String("job", TaskInventoryLowStockScan))
}

func (j *LowStockScanJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
