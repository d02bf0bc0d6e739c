package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/odyssey-erp/odyssey-pos/internal/analytics"
	jobmetrics "github.com/odyssey-erp/odyssey-pos/internal/jobs"
)

// KPISource is the slice of the analytics service the warm-up needs.
type KPISource interface {
	MonthToDate() analytics.KPIFilter
	GetKPIs(ctx context.Context, filter analytics.KPIFilter) (analytics.KPISummary, error)
	GetProfitTrend(ctx context.Context, filter analytics.KPIFilter) ([]analytics.TrendPoint, error)
}

// KPIWarmupJob pre-populates the KPI cache so the dashboard opens on a warm key.
type KPIWarmupJob struct {
	Analytics KPISource
	Logger    *slog.Logger
	Metrics   *jobmetrics.Metrics
	Timeout   time.Duration
}

// NewKPIWarmupJob wires dependencies for the warm-up handler.
func NewKPIWarmupJob(source KPISource, logger *slog.Logger, metrics *jobmetrics.Metrics) *KPIWarmupJob {
	return &KPIWarmupJob{Analytics: source, Logger: logger, Metrics: metrics, Timeout: 20 * time.Second}
}

// Handle processes warm-up tasks.
func (j *KPIWarmupJob) Handle(ctx context.Context, t *asynq.Task) error {
	if j == nil || j.Analytics == nil {
		return errors.New("kpi warmup: handler not configured")
	}
	var payload KPIWarmupPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	return j.Warm(ctx)
}

// Warm loads month-to-date KPIs and the trailing twelve-month trend.
func (j *KPIWarmupJob) Warm(ctx context.Context) error {
	tracker := j.metrics().Track(TaskAnalyticsKPIWarmup)
	logger := j.logger()
	start := time.Now()

	if j.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, j.Timeout)
		defer cancel()
	}

	month := j.Analytics.MonthToDate()
	summary, err := j.Analytics.GetKPIs(ctx, month)
	if err != nil {
		logger.Error("warm kpis", slog.Any("error", err))
		return tracker.End(err)
	}
	trend := analytics.KPIFilter{From: month.From.AddDate(0, -11, 0), To: month.To}
	if _, err := j.Analytics.GetProfitTrend(ctx, trend); err != nil {
		logger.Error("warm profit trend", slog.Any("error", err))
		return tracker.End(err)
	}

	logger.Info("completed kpi warmup",
		slog.String("period", month.From.Format("2006-01")),
		slog.Int("orders", summary.OrderCount),
		slog.Duration("duration", time.Since(start)))
	return tracker.End(nil)
}

func (j *KPIWarmupJob) logger() *slog.Logger {
	if j.Logger != nil {
		return j.Logger.With(slog.String("job", TaskAnalyticsKPIWarmup))
	}
	return slog.Default().With(slog.String("job", TaskAnalyticsKPIWarmup))
}

func (j *KPIWarmupJob) metrics() *jobmetrics.Metrics {
	if j.Metrics != nil {
		return j.Metrics
	}
	return defaultJobMetrics
}
