package jobs

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskInventoryLowStockScan lists products and variants below the low-stock threshold.
	TaskInventoryLowStockScan = "inventory:low_stock_scan"
	// TaskAnalyticsKPIWarmup recomputes month-to-date KPIs into the cache.
	TaskAnalyticsKPIWarmup = "analytics:kpi_warmup"
)

// LowStockScanPayload records what triggered a scan.
type LowStockScanPayload struct {
	Trigger string `json:"trigger"`
	OrderID string `json:"order_id,omitempty"`
}

// NewLowStockScanTask builds a scan task. trigger is "cron" or "sale".
func NewLowStockScanTask(payload LowStockScanPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("jobs: encode low stock payload: %w", err)
	}
	return asynq.NewTask(TaskInventoryLowStockScan, body, asynq.Queue(QueueDefault), asynq.MaxRetry(3)), nil
}

// KPIWarmupPayload carries scheduling metadata.
type KPIWarmupPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewKPIWarmupTask builds a warm-up task.
func NewKPIWarmupTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(KPIWarmupPayload{ScheduledFor: at})
	if err != nil {
		return nil, fmt.Errorf("jobs: encode warmup payload: %w", err)
	}
	return asynq.NewTask(TaskAnalyticsKPIWarmup, body, asynq.Queue(QueueDefault), asynq.MaxRetry(1)), nil
}

// DefaultCron schedules a warm-up every 15 minutes and a scan every night at 02:00 UTC.
func DefaultCron(now time.Time) ([]CronRegistration, error) {
	warmup, err := NewKPIWarmupTask(now)
	if err != nil {
		return nil, err
	}
	scan, err := NewLowStockScanTask(LowStockScanPayload{Trigger: "cron"})
	if err != nil {
		return nil, err
	}
	return []CronRegistration{
		{Spec: "*/15 * * * *", Task: warmup},
		{Spec: "0 2 * * *", Task: scan},
	}, nil
}
