// Package catalog manages products, variants and the parties referenced by orders.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

// Service owns catalog writes. Stock is only ever changed through the ledger.
type Service struct {
	store    store.Store
	ledger   *inventory.Ledger
	logger   *slog.Logger
	audit    shared.AuditPort
	notifier shared.ChangeNotifier
	now      func() time.Time
}

// NewService constructs the catalog service. logger, audit and notifier may be nil.
func NewService(st store.Store, ledger *inventory.Ledger, logger *slog.Logger, audit shared.AuditPort, notifier shared.ChangeNotifier) *Service {
	if ledger == nil {
		ledger = inventory.NewLedger(nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:    st,
		ledger:   ledger,
		logger:   logger,
		audit:    audit,
		notifier: notifier,
		now:      func() time.Time { return time.Now().UTC().Truncate(time.Microsecond) },
	}
}

// CreateVariantInput describes a new variant.
type CreateVariantInput struct {
	Name            string          `json:"name" validate:"required,max=120"`
	SKU             string          `json:"sku" validate:"max=64"`
	Stock           int             `json:"stock" validate:"gte=0"`
	PriceAdjustment decimal.Decimal `json:"price_adjustment"`
}

// CreateProductInput describes a new product, optionally with its variants.
type CreateProductInput struct {
	Name      string               `json:"name" validate:"required,max=200"`
	SKU       string               `json:"sku" validate:"max=64"`
	CostPrice decimal.Decimal      `json:"cost_price"`
	SellPrice decimal.Decimal      `json:"sell_price"`
	Stock     int                  `json:"stock" validate:"gte=0"`
	Variants  []CreateVariantInput `json:"variants" validate:"dive"`
	Actor     string               `json:"-"`
}

// UpdateProductInput edits descriptive fields and prices.
type UpdateProductInput struct {
	Name      string          `json:"name" validate:"required,max=200"`
	SKU       string          `json:"sku" validate:"max=64"`
	CostPrice decimal.Decimal `json:"cost_price"`
	SellPrice decimal.Decimal `json:"sell_price"`
	Actor     string          `json:"-"`
}

// PartyInput creates a customer or a supplier.
type PartyInput struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"omitempty,email"`
	Phone   string `json:"phone" validate:"max=50"`
	Address string `json:"address" validate:"max=500"`
}

// ============================================================================
// PRODUCTS
// ============================================================================

// CreateProduct inserts a product. With variants, the product stock is their sum.
func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput) (store.Product, error) {
	if err := validatePrices(input.CostPrice, input.SellPrice); err != nil {
		return store.Product{}, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return store.Product{}, shared.Validationf("product name required")
	}
	if input.Stock < 0 {
		return store.Product{}, shared.Validationf("stock must not be negative")
	}
	product := store.Product{
		ID:          uuid.NewString(),
		Name:        strings.TrimSpace(input.Name),
		SKU:         defaultSKU(input.SKU, "PRD"),
		CostPrice:   input.CostPrice,
		SellPrice:   input.SellPrice,
		Stock:       input.Stock,
		HasVariants: len(input.Variants) > 0,
		CreatedAt:   s.now(),
	}
	variants := make([]store.Variant, 0, len(input.Variants))
	for i, v := range input.Variants {
		if strings.TrimSpace(v.Name) == "" {
			return store.Product{}, shared.Validationf("variant %d: name required", i+1)
		}
		if v.Stock < 0 {
			return store.Product{}, shared.Validationf("variant %d: stock must not be negative", i+1)
		}
		variants = append(variants, store.Variant{
			ID:              uuid.NewString(),
			ProductID:       product.ID,
			Name:            strings.TrimSpace(v.Name),
			SKU:             defaultSKU(v.SKU, product.SKU),
			Stock:           v.Stock,
			PriceAdjustment: v.PriceAdjustment,
		})
	}
	if product.HasVariants {
		product.Stock = 0
	}

	var created store.Product
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.InsertProduct(ctx, product); err != nil {
			return shared.StoreError("catalog.insert_product", err)
		}
		for _, v := range variants {
			if err := tx.InsertVariant(ctx, v); err != nil {
				return shared.StoreError("catalog.insert_variant", err)
			}
		}
		if product.HasVariants {
			if err := s.ledger.RecalculateProduct(ctx, tx, product.ID); err != nil {
				return err
			}
		}
		var err error
		created, err = tx.GetProduct(ctx, product.ID)
		return shared.StoreError("catalog.reload_product", err)
	})
	if err != nil {
		return store.Product{}, err
	}
	s.recordAudit(ctx, input.Actor, "catalog:product_create", created.ID, map[string]any{"sku": created.SKU, "variants": len(variants)})
	s.notify(ctx, created.ID)
	return created, nil
}

// UpdateProduct edits name, sku and prices. Historic sales keep their price snapshots.
func (s *Service) UpdateProduct(ctx context.Context, id string, input UpdateProductInput) (store.Product, error) {
	if err := validatePrices(input.CostPrice, input.SellPrice); err != nil {
		return store.Product{}, err
	}
	if strings.TrimSpace(input.Name) == "" {
		return store.Product{}, shared.Validationf("product name required")
	}
	var updated store.Product
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		current, err := tx.GetProductForUpdate(ctx, id)
		if err != nil {
			return shared.StoreError("catalog.get_product", err)
		}
		current.Name = strings.TrimSpace(input.Name)
		current.SKU = defaultSKU(input.SKU, current.SKU)
		current.CostPrice = input.CostPrice
		current.SellPrice = input.SellPrice
		if err := tx.UpdateProduct(ctx, current); err != nil {
			return shared.StoreError("catalog.update_product", err)
		}
		updated, err = tx.GetProduct(ctx, id)
		return shared.StoreError("catalog.reload_product", err)
	})
	if err != nil {
		return store.Product{}, err
	}
	s.recordAudit(ctx, input.Actor, "catalog:product_update", id, map[string]any{
		"cost_price": updated.CostPrice.String(),
		"sell_price": updated.SellPrice.String(),
	})
	s.notify(ctx, id)
	return updated, nil
}

// AddVariant attaches a variant and re-derives the product stock from all variants.
// A product that already holds stock at product level must be zeroed first.
func (s *Service) AddVariant(ctx context.Context, productID string, input CreateVariantInput, actor string) (store.Variant, error) {
	if strings.TrimSpace(input.Name) == "" {
		return store.Variant{}, shared.Validationf("variant name required")
	}
	if input.Stock < 0 {
		return store.Variant{}, shared.Validationf("stock must not be negative")
	}
	var created store.Variant
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		product, err := tx.GetProductForUpdate(ctx, productID)
		if err != nil {
			return shared.StoreError("catalog.get_product", err)
		}
		if !product.HasVariants {
			if product.Stock != 0 {
				return shared.Validationf("product %s holds %d units at product level, adjust it to zero before adding variants", product.Name, product.Stock)
			}
			if err := tx.SetProductHasVariants(ctx, product.ID, true); err != nil {
				return shared.StoreError("catalog.flag_variants", err)
			}
		}
		created = store.Variant{
			ID:              uuid.NewString(),
			ProductID:       product.ID,
			Name:            strings.TrimSpace(input.Name),
			SKU:             defaultSKU(input.SKU, product.SKU),
			Stock:           input.Stock,
			PriceAdjustment: input.PriceAdjustment,
		}
		if err := tx.InsertVariant(ctx, created); err != nil {
			return shared.StoreError("catalog.insert_variant", err)
		}
		return s.ledger.RecalculateProduct(ctx, tx, product.ID)
	})
	if err != nil {
		return store.Variant{}, err
	}
	s.recordAudit(ctx, actor, "catalog:variant_create", created.ID, map[string]any{"product_id": productID})
	s.notify(ctx, productID)
	return created, nil
}

// GetProduct returns the product with its variants.
func (s *Service) GetProduct(ctx context.Context, id string) (store.Product, error) {
	product, err := s.store.GetProduct(ctx, id)
	if err != nil {
		return store.Product{}, shared.StoreError("catalog.get_product", err)
	}
	return product, nil
}

// ListProducts returns every product ordered by name.
func (s *Service) ListProducts(ctx context.Context) ([]store.Product, error) {
	products, err := s.store.ListProducts(ctx)
	if err != nil {
		return nil, shared.StoreError("catalog.list_products", err)
	}
	return products, nil
}

// DeleteProduct removes the product and its variants. Products referenced by orders are kept.
func (s *Service) DeleteProduct(ctx context.Context, id, actor string) error {
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return shared.StoreError("catalog.delete_product", tx.DeleteProduct(ctx, id))
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, actor, "catalog:product_delete", id, nil)
	s.notify(ctx, id)
	return nil
}

// ============================================================================
// PARTIES
// ============================================================================

// CreateCustomer inserts a customer.
func (s *Service) CreateCustomer(ctx context.Context, input PartyInput) (store.Customer, error) {
	if strings.TrimSpace(input.Name) == "" {
		return store.Customer{}, shared.Validationf("customer name required")
	}
	customer := store.Customer{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(input.Name),
		Email:     input.Email,
		Phone:     input.Phone,
		Address:   input.Address,
		CreatedAt: s.now(),
	}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return shared.StoreError("catalog.insert_customer", tx.InsertCustomer(ctx, customer))
	})
	if err != nil {
		return store.Customer{}, err
	}
	return customer, nil
}

// ListCustomers returns customers ordered by name.
func (s *Service) ListCustomers(ctx context.Context) ([]store.Customer, error) {
	customers, err := s.store.ListCustomers(ctx)
	if err != nil {
		return nil, shared.StoreError("catalog.list_customers", err)
	}
	return customers, nil
}

// CreateSupplier inserts a supplier.
func (s *Service) CreateSupplier(ctx context.Context, input PartyInput) (store.Supplier, error) {
	if strings.TrimSpace(input.Name) == "" {
		return store.Supplier{}, shared.Validationf("supplier name required")
	}
	supplier := store.Supplier{
		ID:        uuid.NewString(),
		Name:      strings.TrimSpace(input.Name),
		Email:     input.Email,
		Phone:     input.Phone,
		Address:   input.Address,
		CreatedAt: s.now(),
	}
	err := s.store.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return shared.StoreError("catalog.insert_supplier", tx.InsertSupplier(ctx, supplier))
	})
	if err != nil {
		return store.Supplier{}, err
	}
	return supplier, nil
}

// ListSuppliers returns suppliers ordered by name.
func (s *Service) ListSuppliers(ctx context.Context) ([]store.Supplier, error) {
	suppliers, err := s.store.ListSuppliers(ctx)
	if err != nil {
		return nil, shared.StoreError("catalog.list_suppliers", err)
	}
	return suppliers, nil
}

func validatePrices(cost, sell decimal.Decimal) error {
	if cost.IsNegative() {
		return shared.Validationf("cost price must not be negative")
	}
	if sell.IsNegative() {
		return shared.Validationf("sell price must not be negative")
	}
	return nil
}

func defaultSKU(sku, prefix string) string {
	if trimmed := strings.TrimSpace(sku); trimmed != "" {
		return trimmed
	}
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(uuid.NewString()[:8]))
}

func (s *Service) recordAudit(ctx context.Context, actor, action, entityID string, meta map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.Record(ctx, shared.AuditLog{Actor: actor, Action: action, Entity: "catalog", EntityID: entityID, Meta: meta}); err != nil {
		s.logger.Warn("audit record failed", slog.String("action", action), slog.Any("error", err))
	}
}

func (s *Service) notify(ctx context.Context, id string) {
	if s.notifier != nil {
		s.notifier.NotifyChange(ctx, shared.ChangeEvent{Kind: shared.ChangeCatalog, EntityID: id})
	}
}
