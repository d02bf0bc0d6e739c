package app

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/odyssey-erp/odyssey-pos/internal/analytics"
	analytichttp "github.com/odyssey-erp/odyssey-pos/internal/analytics/http"
	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/expenses"
	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	"github.com/odyssey-erp/odyssey-pos/internal/observability"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-pos/internal/procurement"
	"github.com/odyssey-erp/odyssey-pos/internal/sales"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
	"github.com/odyssey-erp/odyssey-pos/jobs"
)

// Container owns the long-lived dependencies of the API process.
type Container struct {
	Config    *Config
	Logger    *slog.Logger
	Store     store.Store
	Pool      *pgxpool.Pool
	Redis     *redis.Client
	Metrics   *observability.Metrics
	Analytics *analytics.Service
	Handler   http.Handler

	jobsClient *jobs.Client
	inspector  *asynq.Inspector
}

// Build opens the store and Redis, then wires every service and handler.
// Redis is optional: without it the KPI cache, the job client and Redis idempotency are disabled.
func Build(ctx context.Context, cfg *Config, logger *slog.Logger) (*Container, error) {
	st, pool, err := OpenStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c := &Container{Config: cfg, Logger: logger, Store: st, Pool: pool, Metrics: observability.NewMetrics()}

	redisClient, err := cache.New(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Warn("redis unavailable, continuing without cache and jobs", slog.Any("error", err))
	}
	c.Redis = redisClient

	var audit shared.AuditPort = shared.NewSlogAuditor(logger)
	if pool != nil {
		audit = shared.NewAuditLogger(pool)
	}

	var idempotency shared.IdempotencyPort
	switch {
	case redisClient != nil:
		idempotency = shared.NewRedisIdempotency(redisClient, shared.DefaultIdempotencyRetention)
	case pool != nil:
		idempotency = shared.NewIdempotencyStore(pool, shared.DefaultIdempotencyRetention)
	}

	var kpiCache *analytics.Cache
	notifiers := shared.Notifiers{}
	if redisClient != nil {
		kpiCache = analytics.NewCache(redisClient, cfg.KPICacheTTL)
		notifiers = append(notifiers, kpiCache.Invalidator(logger))
		err := kpiCache.ListenForInvalidation(ctx, func(_ context.Context, version int64) {
			logger.Debug("kpi cache invalidated", slog.Int64("version", version))
		})
		if err != nil {
			logger.Warn("subscribe kpi invalidation", slog.Any("error", err))
		}

		redisOpts := asynq.RedisClientOpt{Addr: cfg.RedisAddr, Password: cfg.RedisPassword, DB: cfg.RedisDB}
		c.jobsClient = jobs.NewClient(redisOpts)
		c.inspector = asynq.NewInspector(redisOpts)
		notifiers = append(notifiers, c.jobsClient.SaleNotifier(logger))
	}

	ledger := inventory.NewLedger(c.Metrics)
	catalogService := catalog.NewService(st, ledger, logger, audit, notifiers)
	inventoryService := inventory.NewService(st, ledger, logger, audit, notifiers, inventory.ServiceConfig{
		LowStockThreshold: cfg.LowStockThreshold,
	})
	salesService := sales.NewService(st, ledger, logger, sales.ServiceConfig{
		EnforceStockCheck: cfg.SalesEnforceStockCheck,
		Audit:             audit,
		Notifier:          notifiers,
		Idempotency:       idempotency,
	})
	procurementService := procurement.NewService(st, ledger, catalogService, logger, procurement.ServiceConfig{
		Audit:    audit,
		Notifier: notifiers,
	})
	expenseService := expenses.NewService(st, logger, audit, notifiers)
	c.Analytics = analytics.NewService(st, kpiCache, cfg.LowStockThreshold)

	c.Handler = NewRouter(RouterParams{
		Logger:      logger,
		Config:      cfg,
		Catalog:     catalog.NewHandler(logger, catalogService),
		Inventory:   inventory.NewHandler(logger, inventoryService),
		Sales:       sales.NewHandler(logger, salesService),
		Procurement: procurement.NewHandler(logger, procurementService),
		Expenses:    expenses.NewHandler(logger, expenseService),
		Analytics:   analytichttp.NewHandler(logger, c.Analytics),
		Jobs:        jobs.NewHandler(c.inspector, logger),
		Metrics:     c.Metrics,
	})
	return c, nil
}

// Close releases every resource Build opened.
func (c *Container) Close() {
	if c.inspector != nil {
		if err := c.inspector.Close(); err != nil {
			c.Logger.Warn("close asynq inspector", slog.Any("error", err))
		}
	}
	if err := c.jobsClient.Close(); err != nil {
		c.Logger.Warn("close asynq client", slog.Any("error", err))
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.Logger.Warn("close redis", slog.Any("error", err))
		}
	}
	if err := c.Store.Close(); err != nil {
		c.Logger.Warn("close store", slog.Any("error", err))
	}
}
