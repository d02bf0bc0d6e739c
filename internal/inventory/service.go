package inventory

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

// Service exposes stock operations that are not driven by orders.
type Service struct {
	store     store.Store
	ledger    *Ledger
	logger    *slog.Logger
	audit     shared.AuditPort
	notifier  shared.ChangeNotifier
	threshold int
}

// ServiceConfig groups optional settings.
type ServiceConfig struct {
	LowStockThreshold int
}

// NewService builds Service. logger, audit and notifier may be nil.
func NewService(st store.Store, ledger *Ledger, logger *slog.Logger, audit shared.AuditPort, notifier shared.ChangeNotifier, cfg ServiceConfig) *Service {
	if ledger == nil {
		ledger = NewLedger(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	threshold := cfg.LowStockThreshold
	if threshold <= 0 {
		threshold = DefaultLowStockThreshold
	}
	return &Service{store: st, ledger: ledger, logger: logger, audit: audit, notifier: notifier, threshold: threshold}
}

// DefaultLowStockThreshold applies when no threshold is configured.
const DefaultLowStockThreshold = 5

// AdjustmentInput is a manual stock correction. Quantity is signed.
type AdjustmentInput struct {
	ProductID string  `json:"product_id" validate:"required"`
	VariantID *string `json:"variant_id,omitempty"`
	Quantity  int     `json:"quantity" validate:"ne=0"`
	Note      string  `json:"note" validate:"max=255"`
	Actor     string  `json:"-"`
}

// LowStockItem is a product or variant below the threshold.
type LowStockItem struct {
	ProductID string `json:"product_id"`
	VariantID string `json:"variant_id,omitempty"`
	Name      string `json:"name"`
	SKU       string `json:"sku"`
	Stock     int    `json:"stock"`
	Threshold int    `json:"threshold"`
}

// Threshold returns the configured low-stock threshold.
func (s *Service) Threshold() int {
	return s.threshold
}

// Adjust applies a manual correction through the ledger and returns the product afterwards.
func (s *Service) Adjust(ctx context.Context, input AdjustmentInput) (store.Product, error) {
	if strings.TrimSpace(input.ProductID) == "" {
		return store.Product{}, shared.Validationf("product id required")
	}
	if input.Quantity == 0 {
		return store.Product{}, shared.Validationf("quantity must not be zero")
	}
	target := LineItem{ProductID: input.ProductID, VariantID: input.VariantID}.Target()
	var product store.Product
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := s.ledger.ApplyDelta(ctx, tx, target, input.Quantity); err != nil {
			return err
		}
		var err error
		product, err = tx.GetProduct(ctx, input.ProductID)
		return shared.StoreError("inventory.reload_product", err)
	})
	if err != nil {
		return store.Product{}, err
	}
	entityID := input.ProductID
	if target.HasVariant() {
		entityID = *target.VariantID
	}
	if s.audit != nil {
		if err := s.audit.Record(ctx, shared.AuditLog{
			Actor:    input.Actor,
			Action:   "inventory:adjust",
			Entity:   "stock",
			EntityID: entityID,
			Meta: map[string]any{
				"product_id": input.ProductID,
				"quantity":   input.Quantity,
				"note":       input.Note,
			},
		}); err != nil {
			s.logger.Warn("audit record failed", slog.String("action", "inventory:adjust"), slog.Any("error", err))
		}
	}
	if s.notifier != nil {
		s.notifier.NotifyChange(ctx, shared.ChangeEvent{Kind: shared.ChangeStock, EntityID: entityID})
	}
	return product, nil
}

// CheckAvailability reports visible stock for a cart without locking anything.
func (s *Service) CheckAvailability(ctx context.Context, items []LineItem) ([]Availability, error) {
	if len(items) == 0 {
		return nil, shared.Validationf("at least one item required")
	}
	return s.ledger.CheckAvailability(ctx, s.store, items)
}

// LowStock lists non-variant products and individual variants whose stock is below the threshold.
func (s *Service) LowStock(ctx context.Context) ([]LowStockItem, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, shared.StoreError("inventory.list_products", err)
	}
	items := CollectLowStock(products, s.threshold)
	sort.SliceStable(items, func(i, j int) bool { return items[i].Stock < items[j].Stock })
	return items, nil
}

// CollectLowStock counts each variant independently and skips the parent of variant products.
func CollectLowStock(products []store.Product, threshold int) []LowStockItem {
	out := make([]LowStockItem, 0)
	for _, p := range products {
		if !p.HasVariants {
			if p.Stock < threshold {
				out = append(out, LowStockItem{ProductID: p.ID, Name: p.Name, SKU: p.SKU, Stock: p.Stock, Threshold: threshold})
			}
			continue
		}
		for _, v := range p.Variants {
			if v.Stock < threshold {
				out = append(out, LowStockItem{
					ProductID: p.ID,
					VariantID: v.ID,
					Name:      p.Name + " (" + v.Name + ")",
					SKU:       v.SKU,
					Stock:     v.Stock,
					Threshold: threshold,
				})
			}
		}
	}
	return out
}
