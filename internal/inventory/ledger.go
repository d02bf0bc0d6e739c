package inventory

import (
	"cmp"
	"context"
	"fmt"
	"slices"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

// MovementRecorder receives one observation per applied movement.
type MovementRecorder interface {
	ObserveStockMovement(direction string, quantity int)
}

// Ledger mutates product and variant stock and keeps the variant-sum invariant.
// It never clamps: stock may go negative here. Callers wanting a floor run CheckAvailability first.
type Ledger struct {
	recorder MovementRecorder
}

// NewLedger builds a Ledger. recorder may be nil.
func NewLedger(recorder MovementRecorder) *Ledger {
	return &Ledger{recorder: recorder}
}

// ApplyDelta adds qty (signed) to the target inside tx.
// For a variant target the owning product's stock is re-derived from all of its variants.
func (l *Ledger) ApplyDelta(ctx context.Context, tx store.Tx, target LineTarget, qty int) error {
	if target.ProductID == "" {
		return shared.Validationf("product id required")
	}
	// product row before variant row; ApplyBatch orders targets so every batch locks in the same order
	product, err := tx.GetProductForUpdate(ctx, target.ProductID)
	if err != nil {
		return shared.StoreError("inventory.get_product", err)
	}
	if !target.HasVariant() {
		if product.HasVariants {
			return shared.Validationf("product %s has variants, a variant must be selected", product.Name)
		}
		if err := tx.UpdateProductStock(ctx, product.ID, product.Stock+qty); err != nil {
			return shared.StoreError("inventory.update_product", err)
		}
		l.observe(qty)
		return nil
	}

	variant, err := tx.GetVariantForUpdate(ctx, *target.VariantID)
	if err != nil {
		return shared.StoreError("inventory.get_variant", err)
	}
	if variant.ProductID != product.ID {
		return shared.Validationf("variant %s does not belong to product %s", variant.ID, product.ID)
	}
	if err := tx.UpdateVariantStock(ctx, variant.ID, variant.Stock+qty); err != nil {
		return shared.StoreError("inventory.update_variant", err)
	}
	if err := l.RecalculateProduct(ctx, tx, product.ID); err != nil {
		return err
	}
	l.observe(qty)
	return nil
}

// ApplyBatch applies every movement with the given direction inside the caller's transaction.
// Lines are applied in (product, variant) order so concurrent batches take row locks in the same
// sequence; errors still name the caller's line number. The first failure aborts the batch and the
// caller's transaction discards earlier lines.
func (l *Ledger) ApplyBatch(ctx context.Context, tx store.Tx, movements []Movement, direction Direction) error {
	order := make([]int, len(movements))
	for i, m := range movements {
		if m.Quantity <= 0 {
			return shared.Validationf("line %d: quantity must be positive", i+1)
		}
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		ta, tb := movements[a].Target, movements[b].Target
		if c := cmp.Compare(ta.ProductID, tb.ProductID); c != 0 {
			return c
		}
		return cmp.Compare(variantKey(ta), variantKey(tb))
	})
	for _, i := range order {
		m := movements[i]
		if err := l.ApplyDelta(ctx, tx, m.Target, int(direction)*m.Quantity); err != nil {
			return fmt.Errorf("line %d: %w", i+1, err)
		}
	}
	return nil
}

func variantKey(t LineTarget) string {
	if !t.HasVariant() {
		return ""
	}
	return *t.VariantID
}

// RecalculateProduct writes Σ variant.stock onto the product.
func (l *Ledger) RecalculateProduct(ctx context.Context, tx store.Tx, productID string) error {
	variants, err := tx.ListVariants(ctx, productID)
	if err != nil {
		return shared.StoreError("inventory.list_variants", err)
	}
	total := 0
	for _, v := range variants {
		total += v.Stock
	}
	if err := tx.UpdateProductStock(ctx, productID, total); err != nil {
		return shared.StoreError("inventory.update_product", err)
	}
	return nil
}

// CheckAvailability reports the visible stock for each requested line. Quantities for the same
// cell are summed so a cart that repeats a product is checked against its combined demand.
// The result is advisory: nothing is locked.
func (l *Ledger) CheckAvailability(ctx context.Context, reader store.Reader, items []LineItem) ([]Availability, error) {
	type cell struct{ product, variant string }
	requested := make(map[cell]int, len(items))
	order := make([]cell, 0, len(items))
	for _, item := range items {
		target := item.Target()
		key := cell{product: target.ProductID}
		if target.HasVariant() {
			key.variant = *target.VariantID
		}
		if _, seen := requested[key]; !seen {
			order = append(order, key)
		}
		requested[key] += item.Quantity
	}

	result := make([]Availability, 0, len(order))
	for _, key := range order {
		product, err := reader.GetProduct(ctx, key.product)
		if err != nil {
			return nil, shared.StoreError("inventory.get_product", err)
		}
		entry := Availability{
			ProductID: product.ID,
			Name:      product.Name,
			Requested: requested[key],
			Available: product.Stock,
		}
		if key.variant != "" {
			variant, err := reader.GetVariant(ctx, key.variant)
			if err != nil {
				return nil, shared.StoreError("inventory.get_variant", err)
			}
			entry.VariantID = variant.ID
			entry.Name = fmt.Sprintf("%s (%s)", product.Name, variant.Name)
			entry.Available = variant.Stock
		}
		result = append(result, entry)
	}
	return result, nil
}

// EnsureAvailable runs CheckAvailability and returns the first shortfall as *shared.InsufficientStockError.
func (l *Ledger) EnsureAvailable(ctx context.Context, reader store.Reader, items []LineItem) error {
	report, err := l.CheckAvailability(ctx, reader, items)
	if err != nil {
		return err
	}
	for _, entry := range report {
		if !entry.Sufficient() {
			return &shared.InsufficientStockError{
				ProductID: entry.ProductID,
				VariantID: entry.VariantID,
				Name:      entry.Name,
				Requested: entry.Requested,
				Available: entry.Available,
			}
		}
	}
	return nil
}

// MovementsFromSalesItems maps persisted sale lines back to ledger movements.
func MovementsFromSalesItems(items []store.SalesItem) []Movement {
	out := make([]Movement, 0, len(items))
	for _, item := range items {
		out = append(out, Movement{Target: LineTarget{ProductID: item.ProductID, VariantID: item.VariantID}, Quantity: item.Quantity})
	}
	return out
}

// MovementsFromPurchaseItems maps persisted purchase lines back to ledger movements.
func MovementsFromPurchaseItems(items []store.PurchaseItem) []Movement {
	out := make([]Movement, 0, len(items))
	for _, item := range items {
		out = append(out, Movement{Target: LineTarget{ProductID: item.ProductID, VariantID: item.VariantID}, Quantity: item.Quantity})
	}
	return out
}

func (l *Ledger) observe(qty int) {
	if l == nil || l.recorder == nil || qty == 0 {
		return
	}
	direction := DirectionAdd
	if qty < 0 {
		direction = DirectionDeduct
		qty = -qty
	}
	l.recorder.ObserveStockMovement(direction.String(), qty)
}
