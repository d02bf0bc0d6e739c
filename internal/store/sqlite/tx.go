package sqlite

import (
	"context"

	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

// txStore is the unit of work handed to WithTx callbacks. The single connection
// serialises transactions, so the ForUpdate reads need no extra locking.
type txStore struct {
	queries
}

var _ store.Tx = (*txStore)(nil)

func (t *txStore) GetProductForUpdate(ctx context.Context, id string) (store.Product, error) {
	return t.getProduct(ctx, id)
}

func (t *txStore) GetVariantForUpdate(ctx context.Context, id string) (store.Variant, error) {
	return t.GetVariant(ctx, id)
}

func (t *txStore) exec(ctx context.Context, op, query string, args ...any) error {
	_, err := t.q.ExecContext(ctx, query, args...)
	return mapError(op, err)
}

func (t *txStore) execOne(ctx context.Context, op, what, id, query string, args ...any) error {
	res, err := t.q.ExecContext(ctx, query, args...)
	if err != nil {
		return mapError(op, err)
	}
	return notFoundIfNone(res, what, id)
}

func (t *txStore) UpdateProductStock(ctx context.Context, id string, stock int) error {
	return t.execOne(ctx, "update product stock", "product", id, `UPDATE products SET stock = ? WHERE id = ?`, stock, id)
}

func (t *txStore) UpdateVariantStock(ctx context.Context, id string, stock int) error {
	return t.execOne(ctx, "update variant stock", "variant", id, `UPDATE product_variants SET stock = ? WHERE id = ?`, stock, id)
}

func (t *txStore) InsertProduct(ctx context.Context, p store.Product) error {
	return t.exec(ctx, "insert product", `INSERT INTO products (id, name, sku, cost_price, sell_price, stock, has_variants, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.SKU, p.CostPrice, p.SellPrice, p.Stock, p.HasVariants, formatTime(p.CreatedAt))
}

func (t *txStore) UpdateProduct(ctx context.Context, p store.Product) error {
	return t.execOne(ctx, "update product", "product", p.ID,
		`UPDATE products SET name = ?, sku = ?, cost_price = ?, sell_price = ? WHERE id = ?`,
		p.Name, p.SKU, p.CostPrice, p.SellPrice, p.ID)
}

func (t *txStore) SetProductHasVariants(ctx context.Context, id string, hasVariants bool) error {
	return t.execOne(ctx, "set product has_variants", "product", id, `UPDATE products SET has_variants = ? WHERE id = ?`, hasVariants, id)
}

func (t *txStore) DeleteProduct(ctx context.Context, id string) error {
	return t.execOne(ctx, "delete product", "product", id, `DELETE FROM products WHERE id = ?`, id)
}

func (t *txStore) InsertVariant(ctx context.Context, v store.Variant) error {
	return t.exec(ctx, "insert variant", `INSERT INTO product_variants (id, product_id, name, sku, stock, price_adjustment)
VALUES (?, ?, ?, ?, ?, ?)`,
		v.ID, v.ProductID, v.Name, v.SKU, v.Stock, v.PriceAdjustment)
}

func (t *txStore) InsertCustomer(ctx context.Context, c store.Customer) error {
	return t.exec(ctx, "insert customer", `INSERT INTO customers (id, name, email, phone, address, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Name, c.Email, c.Phone, c.Address, formatTime(c.CreatedAt))
}

func (t *txStore) InsertSupplier(ctx context.Context, s store.Supplier) error {
	return t.exec(ctx, "insert supplier", `INSERT INTO suppliers (id, name, email, phone, address, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		s.ID, s.Name, s.Email, s.Phone, s.Address, formatTime(s.CreatedAt))
}

func (t *txStore) InsertSalesOrder(ctx context.Context, o store.SalesOrder) error {
	return t.exec(ctx, "insert sales order", `INSERT INTO sales_orders (id, customer_id, created_at, status, subtotal, total_amount)
VALUES (?, ?, ?, ?, ?, ?)`,
		o.ID, o.CustomerID, formatTime(o.CreatedAt), string(o.Status), o.Subtotal, o.TotalAmount)
}

func (t *txStore) InsertSalesItems(ctx context.Context, items []store.SalesItem) error {
	for _, it := range items {
		err := t.exec(ctx, "insert sales item", `INSERT INTO sales_items (id, order_id, position, product_id, variant_id, quantity, unit_price, subtotal)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			it.ID, it.OrderID, it.Position, it.ProductID, it.VariantID, it.Quantity, it.UnitPrice, it.Subtotal)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *txStore) DeleteSalesOrder(ctx context.Context, id string) error {
	return t.execOne(ctx, "delete sales order", "sales order", id, `DELETE FROM sales_orders WHERE id = ?`, id)
}

func (t *txStore) InsertPurchaseOrder(ctx context.Context, o store.PurchaseOrder) error {
	return t.exec(ctx, "insert purchase order", `INSERT INTO purchase_orders (id, supplier_id, created_at, total_amount) VALUES (?, ?, ?, ?)`,
		o.ID, o.SupplierID, formatTime(o.CreatedAt), o.TotalAmount)
}

func (t *txStore) InsertPurchaseItems(ctx context.Context, items []store.PurchaseItem) error {
	for _, it := range items {
		err := t.exec(ctx, "insert purchase item", `INSERT INTO purchase_items (id, order_id, position, product_id, variant_id, quantity, unit_cost, line_total)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			it.ID, it.OrderID, it.Position, it.ProductID, it.VariantID, it.Quantity, it.UnitCost, it.LineTotal)
		if err != nil {
			return err
		}
	}
	return nil
}

func (t *txStore) DeletePurchaseOrder(ctx context.Context, id string) error {
	return t.execOne(ctx, "delete purchase order", "purchase order", id, `DELETE FROM purchase_orders WHERE id = ?`, id)
}

func (t *txStore) InsertExpense(ctx context.Context, e store.Expense) error {
	return t.exec(ctx, "insert expense", `INSERT INTO expenses (id, expense_date, category, amount, description, payment_mode, vendor, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, formatTime(e.ExpenseDate), e.Category, e.Amount, e.Description, e.PaymentMode, e.Vendor, formatTime(e.CreatedAt))
}

func (t *txStore) DeleteExpense(ctx context.Context, id string) error {
	return t.execOne(ctx, "delete expense", "expense", id, `DELETE FROM expenses WHERE id = ?`, id)
}
