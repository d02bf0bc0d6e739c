package procurement

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

// CatalogPort creates products on behalf of the purchase flow.
type CatalogPort interface {
	CreateProduct(ctx context.Context, input catalog.CreateProductInput) (store.Product, error)
}

// Service orchestrates purchase orders.
type Service struct {
	store    store.Store
	ledger   *inventory.Ledger
	catalog  CatalogPort
	logger   *slog.Logger
	audit    shared.AuditPort
	notifier shared.ChangeNotifier
	now      func() time.Time
}

// ServiceConfig groups optional collaborators.
type ServiceConfig struct {
	Audit    shared.AuditPort
	Notifier shared.ChangeNotifier
	Now      func() time.Time
}

// NewService constructs procurement service.
func NewService(st store.Store, ledger *inventory.Ledger, products CatalogPort, logger *slog.Logger, cfg ServiceConfig) *Service {
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
		store:    st,
		ledger:   ledger,
		catalog:  products,
		logger:   logger,
		audit:    cfg.Audit,
		notifier: cfg.Notifier,
		now:      now,
	}
}

// ============================================================================
// PURCHASE ORDERS
// ============================================================================

// CreatePurchaseOrder records received goods and adds them to stock in one unit of work.
// The order total is always computed here from quantity and unit cost.
func (s *Service) CreatePurchaseOrder(ctx context.Context, input CreatePurchaseOrderInput) (store.PurchaseOrder, error) {
	if err := validateCreate(input); err != nil {
		return store.PurchaseOrder{}, err
	}
	var created store.PurchaseOrder
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if _, err := tx.GetSupplier(ctx, input.SupplierID); err != nil {
			return shared.StoreError("procurement.get_supplier", err)
		}
		orderID := uuid.NewString()
		items, err := buildItems(ctx, tx, orderID, input.Items)
		if err != nil {
			return err
		}
		order := store.PurchaseOrder{
			ID:          orderID,
			SupplierID:  input.SupplierID,
			CreatedAt:   s.now(),
			TotalAmount: SumLineTotals(items),
		}
		if err := tx.InsertPurchaseOrder(ctx, order); err != nil {
			return shared.StoreError("procurement.insert_order", err)
		}
		if err := tx.InsertPurchaseItems(ctx, items); err != nil {
			return shared.StoreError("procurement.insert_items", err)
		}
		if err := s.ledger.ApplyBatch(ctx, tx, inventory.MovementsFromPurchaseItems(items), inventory.DirectionAdd); err != nil {
			return err
		}
		created, err = tx.GetPurchaseOrder(ctx, orderID)
		return shared.StoreError("procurement.reload_order", err)
	})
	if err != nil {
		return store.PurchaseOrder{}, err
	}
	s.logger.Info("purchase order created",
		slog.String("order_id", created.ID),
		slog.String("supplier_id", created.SupplierID),
		slog.String("total", created.TotalAmount.StringFixed(2)))
	s.recordAudit(ctx, input.Actor, "procurement:create", created.ID, map[string]any{
		"supplier_id": created.SupplierID,
		"total":       created.TotalAmount.String(),
		"lines":       len(created.Items),
	})
	s.notify(ctx, created.ID)
	return created, nil
}

// DeletePurchaseOrder takes the received quantities back out of stock and removes the order.
func (s *Service) DeletePurchaseOrder(ctx context.Context, id, actor string) error {
	if strings.TrimSpace(id) == "" {
		return shared.Validationf("order id required")
	}
	var removed store.PurchaseOrder
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		order, err := tx.GetPurchaseOrder(ctx, id)
		if err != nil {
			return shared.StoreError("procurement.get_order", err)
		}
		if err := s.ledger.ApplyBatch(ctx, tx, inventory.MovementsFromPurchaseItems(order.Items), inventory.DirectionDeduct); err != nil {
			return err
		}
		if err := tx.DeletePurchaseOrder(ctx, id); err != nil {
			return shared.StoreError("procurement.delete_order", err)
		}
		removed = order
		return nil
	})
	if err != nil {
		return err
	}
	s.logger.Info("purchase order deleted", slog.String("order_id", id), slog.Int("lines", len(removed.Items)))
	s.recordAudit(ctx, actor, "procurement:delete", id, map[string]any{
		"supplier_id": removed.SupplierID,
		"total":       removed.TotalAmount.String(),
	})
	s.notify(ctx, id)
	return nil
}

// GetPurchaseOrder returns one order with supplier name and lines.
func (s *Service) GetPurchaseOrder(ctx context.Context, id string) (store.PurchaseOrder, error) {
	order, err := s.store.GetPurchaseOrder(ctx, id)
	if err != nil {
		return store.PurchaseOrder{}, shared.StoreError("procurement.get_order", err)
	}
	return order, nil
}

// ListPurchaseOrders returns orders newest first.
func (s *Service) ListPurchaseOrders(ctx context.Context, req ListPurchaseOrdersRequest) ([]store.PurchaseOrder, error) {
	if !req.From.IsZero() && !req.To.IsZero() && req.To.Before(req.From) {
		return nil, shared.Validationf("period end before start")
	}
	orders, err := s.store.ListPurchaseOrders(ctx, store.PeriodFilter{From: req.From, To: req.To})
	if err != nil {
		return nil, shared.StoreError("procurement.list_orders", err)
	}
	return orders, nil
}

// CreateInlineProduct registers a product with zero stock, plus one variant when named,
// so a draft can reference goods that were not in the catalog yet.
func (s *Service) CreateInlineProduct(ctx context.Context, input InlineProductInput) (InlineProductResult, error) {
	if s.catalog == nil {
		return InlineProductResult{}, shared.Validationf("inline products unavailable")
	}
	req := catalog.CreateProductInput{
		Name:      input.Name,
		SKU:       input.SKU,
		CostPrice: input.CostPrice,
		SellPrice: input.SellPrice,
		Actor:     input.Actor,
	}
	if name := strings.TrimSpace(input.VariantName); name != "" {
		req.Variants = []catalog.CreateVariantInput{{
			Name:            name,
			SKU:             input.VariantSKU,
			PriceAdjustment: input.PriceAdjustment,
		}}
	}
	product, err := s.catalog.CreateProduct(ctx, req)
	if err != nil {
		return InlineProductResult{}, err
	}
	result := InlineProductResult{ProductID: product.ID, SKU: product.SKU}
	if len(product.Variants) > 0 {
		variantID := product.Variants[0].ID
		result.VariantID = &variantID
	}
	s.logger.Info("inline product created", slog.String("product_id", product.ID), slog.Bool("variant", result.VariantID != nil))
	return result, nil
}

// ============================================================================
// HELPERS
// ============================================================================

// CalculateLineTotal returns quantity × unit cost.
func CalculateLineTotal(qty int, unitCost decimal.Decimal) decimal.Decimal {
	return unitCost.Mul(decimal.NewFromInt(int64(qty)))
}

// SumLineTotals adds up the line totals of a purchase.
func SumLineTotals(items []store.PurchaseItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineTotal)
	}
	return total
}

func validateCreate(input CreatePurchaseOrderInput) error {
	if strings.TrimSpace(input.SupplierID) == "" {
		return shared.Validationf("supplier id required")
	}
	if len(input.Items) == 0 {
		return shared.Validationf("at least one item required")
	}
	for i, item := range input.Items {
		if strings.TrimSpace(item.ProductID) == "" {
			return shared.Validationf("line %d: product id required", i+1)
		}
		if item.Quantity <= 0 {
			return shared.Validationf("line %d: quantity must be positive", i+1)
		}
		if item.UnitAmount.IsNegative() {
			return shared.Validationf("line %d: unit cost must not be negative", i+1)
		}
	}
	return nil
}

func buildItems(ctx context.Context, tx store.Tx, orderID string, lines []inventory.LineItem) ([]store.PurchaseItem, error) {
	items := make([]store.PurchaseItem, 0, len(lines))
	for i, line := range lines {
		target := line.Target()
		product, err := tx.GetProduct(ctx, target.ProductID)
		if err != nil {
			return nil, shared.StoreError("procurement.get_product", err)
		}
		if target.HasVariant() {
			v, err := tx.GetVariant(ctx, *target.VariantID)
			if err != nil {
				return nil, shared.StoreError("procurement.get_variant", err)
			}
			if v.ProductID != product.ID {
				return nil, shared.Validationf("line %d: variant %s does not belong to product %s", i+1, v.ID, product.ID)
			}
		} else if product.HasVariants {
			return nil, shared.Validationf("line %d: %s requires a variant", i+1, product.Name)
		}
		items = append(items, store.PurchaseItem{
			ID:        uuid.NewString(),
			OrderID:   orderID,
			Position:  i + 1,
			ProductID: product.ID,
			VariantID: target.VariantID,
			Quantity:  line.Quantity,
			UnitCost:  line.UnitAmount,
			LineTotal: CalculateLineTotal(line.Quantity, line.UnitAmount),
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
		Entity:   "purchase_order",
		EntityID: orderID,
		Meta:     meta,
		At:       s.now(),
	}); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *Service) notify(ctx context.Context, orderID string) {
	if s.notifier != nil {
		s.notifier.NotifyChange(ctx, shared.ChangeEvent{Kind: shared.ChangePurchase, EntityID: orderID})
	}
}
