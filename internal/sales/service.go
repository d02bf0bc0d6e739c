package sales

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

const idempotencyModule = "sales"

// Service provides business logic for sales operations.
type Service struct {
	store        store.Store
	ledger       *inventory.Ledger
	logger       *slog.Logger
	audit        shared.AuditPort
	notifier     shared.ChangeNotifier
	idempotency  shared.IdempotencyPort
	enforceStock bool
	now          func() time.Time
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	EnforceStockCheck bool
	Audit             shared.AuditPort
	Notifier          shared.ChangeNotifier
	Idempotency       shared.IdempotencyPort
	Now               func() time.Time
}

// NewService constructs a sales service.
func NewService(st store.Store, ledger *inventory.Ledger, logger *slog.Logger, cfg ServiceConfig) *Service {
	if ledger == nil {
		ledger = inventory.NewLedger(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) }
	}
	return &Service{
		store:        st,
		ledger:       ledger,
		logger:       logger,
		audit:        cfg.Audit,
		notifier:     cfg.Notifier,
		idempotency:  cfg.Idempotency,
		enforceStock: cfg.EnforceStockCheck,
		now:          now,
	}
}

// ============================================================================
// SALE LIFECYCLE
// ============================================================================

// CreateSale persists the order and its lines and deducts stock, all in one unit of work.
func (s *Service) CreateSale(ctx context.Context, input CreateSaleInput) (store.SalesOrder, error) {
	if err := validateCreate(input); err != nil {
		return store.SalesOrder{}, err
	}
	if s.enforceStock {
		if err := s.ledger.EnsureAvailable(ctx, s.store, input.Items); err != nil {
			return store.SalesOrder{}, err
		}
	}

	claimed := false
	if s.idempotency != nil && input.IdempotencyKey != "" {
		if err := s.idempotency.CheckAndInsert(ctx, input.IdempotencyKey, idempotencyModule); err != nil {
			return store.SalesOrder{}, err
		}
		claimed = true
	}

	var created store.SalesOrder
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.GetCustomer(ctx, input.CustomerID); err != nil {
			return shared.StoreError("sales.get_customer", err)
		}
		orderID := uuid.NewString()
		items, err := s.priceItems(ctx, tx, orderID, input.Items)
		if err != nil {
			return err
		}
		total := input.TotalAmount
		if total.IsZero() {
			total = SumSubtotals(items)
		}
		order := store.SalesOrder{
			ID:          orderID,
			CustomerID:  input.CustomerID,
			CreatedAt:   s.now(),
			Status:      store.SalesOrderStatusCompleted,
			Subtotal:    total,
			TotalAmount: total,
		}
		if err := tx.InsertSalesOrder(ctx, order); err != nil {
			return shared.StoreError("sales.insert_order", err)
		}
		if err := tx.InsertSalesItems(ctx, items); err != nil {
			return shared.StoreError("sales.insert_items", err)
		}
		if err := s.ledger.ApplyBatch(ctx, tx, inventory.MovementsFromSalesItems(items), inventory.DirectionDeduct); err != nil {
			return err
		}
		created, err = tx.GetSalesOrder(ctx, orderID)
		return shared.StoreError("sales.reload_order", err)
	})
	if err != nil {
		if claimed {
			// release even when the request context is already gone, or the retry stays blocked
			if delErr := s.idempotency.Delete(context.WithoutCancel(ctx), input.IdempotencyKey, idempotencyModule); delErr != nil {
				s.logger.Warn("release idempotency key failed",
					slog.String("key", input.IdempotencyKey),
					slog.Any("error", delErr))
			}
		}
		return store.SalesOrder{}, err
	}

	s.logger.Info("sale created",
		slog.String("order_id", created.ID),
		slog.Int("lines", len(created.Items)),
		slog.String("total", created.TotalAmount.StringFixed(2)))
	s.recordAudit(ctx, input.Actor, "sales:create", created.ID, map[string]any{
		"customer_id": created.CustomerID,
		"total":       created.TotalAmount.String(),
		"lines":       len(created.Items),
	})
	s.notify(ctx, created.ID)
	return created, nil
}

// DeleteSale restores the stock taken by the order's persisted lines, then removes the order.
func (s *Service) DeleteSale(ctx context.Context, id, actor string) error {
	if strings.TrimSpace(id) == "" {
		return shared.Validationf("order id required")
	}
	var removed store.SalesOrder
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		order, err := tx.GetSalesOrder(ctx, id)
		if err != nil {
			return shared.StoreError("sales.get_order", err)
		}
		// cancelled orders no longer hold stock
		if order.Status == store.SalesOrderStatusCompleted {
			if err := s.ledger.ApplyBatch(ctx, tx, inventory.MovementsFromSalesItems(order.Items), inventory.DirectionAdd); err != nil {
				return err
			}
		}
		if err := tx.DeleteSalesOrder(ctx, id); err != nil {
			return shared.StoreError("sales.delete_order", err)
		}
		removed = order
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("sale deleted", slog.String("order_id", id), slog.Int("lines", len(removed.Items)))
	s.recordAudit(ctx, actor, "sales:delete", id, map[string]any{
		"customer_id": removed.CustomerID,
		"total":       removed.TotalAmount.String(),
	})
	s.notify(ctx, id)
	return nil
}

// GetSale returns one order with its lines.
func (s *Service) GetSale(ctx context.Context, id string) (store.SalesOrder, error) {
	order, err := s.store.GetSalesOrder(ctx, id)
	if err != nil {
		return store.SalesOrder{}, shared.StoreError("sales.get_order", err)
	}
	return order, nil
}

// ListSales returns orders newest first, joined with customer and lines.
func (s *Service) ListSales(ctx context.Context, req ListSalesRequest) ([]store.SalesOrder, error) {
	if !req.From.IsZero() && !req.To.IsZero() && req.To.Before(req.From) {
		return nil, shared.Validationf("period end before start")
	}
	orders, err := s.store.ListSalesOrders(ctx, store.PeriodFilter{From: req.From, To: req.To})
	if err != nil {
		return nil, shared.StoreError("sales.list_orders", err)
	}
	return orders, nil
}

// CheckStock runs the pre-submission availability check on its own.
func (s *Service) CheckStock(ctx context.Context, input StockCheckInput) (StockCheckResult, error) {
	if len(input.Items) == 0 {
		return StockCheckResult{}, shared.Validationf("at least one item required")
	}
	report, err := s.ledger.CheckAvailability(ctx, s.store, input.Items)
	if err != nil {
		return StockCheckResult{}, err
	}
	result := StockCheckResult{OK: true, Items: report}
	for _, entry := range report {
		if !entry.Sufficient() {
			result.OK = false
		}
	}
	return result, nil
}

// ============================================================================
// HELPERS
// ============================================================================

func validateCreate(input CreateSaleInput) error {
	if strings.TrimSpace(input.CustomerID) == "" {
		return shared.Validationf("customer id required")
	}
	if len(input.Items) == 0 {
		return shared.Validationf("at least one item required")
	}
	if input.TotalAmount.IsNegative() {
		return shared.Validationf("total amount must not be negative")
	}
	for i, item := range input.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return shared.Validationf("line %d: product id required", i+1)
		}
		if item.Quantity <= 0 {
			return shared.Validationf("line %d: quantity must be positive", i+1)
		}
		if item.UnitAmount.IsNegative() {
			return shared.Validationf("line %d: unit amount must not be negative", i+1)
		}
	}
	return nil
}

// priceItems snapshots the effective unit price of every line. A non-zero client amount wins.
func (s *Service) priceItems(ctx context.Context, tx store.Tx, orderID string, lines []inventory.LineItem) ([]store.SalesItem, error) {
	items := make([]store.SalesItem, 0, len(lines))
	for i, line := range lines {
		target := line.Target()
		product, err := tx.GetProduct(ctx, target.ProductID)
		if err != nil {
			return nil, shared.StoreError("sales.get_product", err)
		}
		var variant *store.Variant
		if target.HasVariant() {
			v, err := tx.GetVariant(ctx, *target.VariantID)
			if err != nil {
				return nil, shared.StoreError("sales.get_variant", err)
			}
			if v.ProductID != product.ID {
				return nil, shared.Validationf("line %d: variant %s does not belong to product %s", i+1, v.ID, product.ID)
			}
			variant = &v
		} else if product.HasVariants {
			return nil, shared.Validationf("line %d: %s requires a variant", i+1, product.Name)
		}
		unit := line.UnitAmount
		if unit.IsZero() {
			unit = EffectiveUnitPrice(product, variant)
		}
		items = append(items, store.SalesItem{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			Position:  i + 1,
			ProductID: product.ID,
			VariantID: target.VariantID,
			Quantity:  line.Quantity,
			UnitPrice: unit,
			Subtotal:  CalculateLineSubtotal(line.Quantity, unit),
		})
	}
	return items, nil
}

func (s *Service) recordAudit(ctx context.Context, actor, action, orderID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{
		Actor:    actor,
		Action:   action,
		Entity:   "sales_order",
		EntityID: orderID,
		Meta:     meta,
		At:       s.now(),
	}); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *Service) notify(ctx context.Context, orderID string) {
	if s.notifier != nil {
		s.notifier.NotifyChange(ctx, shared.ChangeEvent{Kind: shared.ChangeSales, EntityID: orderID})
	}
}
