package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

// queries implements store.Reader on any querier.
type queries struct {
	q querier
}

const productColumns = `id, name, sku, cost_price, sell_price, stock, has_variants, created_at`

const variantColumns = `id, product_id, name, sku, stock, price_adjustment`

func scanProduct(row pgx.Row) (store.Product, error) {
	var p store.Product
	err := row.Scan(&p.ID, &p.Name, &p.SKU, &p.CostPrice, &p.SellPrice, &p.Stock, &p.HasVariants, &p.CreatedAt)
	return p, err
}

func scanVariant(row pgx.Row) (store.Variant, error) {
	var v store.Variant
	err := row.Scan(&v.ID, &v.ProductID, &v.Name, &v.SKU, &v.Stock, &v.PriceAdjustment)
	return v, err
}

func (q queries) getProduct(ctx context.Context, sql, id string) (store.Product, error) {
	p, err := scanProduct(q.q.QueryRow(ctx, sql, id))
	if err != nil {
		return store.Product{}, mapError("get product "+id, err)
	}
	p.Variants, err = q.ListVariants(ctx, id)
	if err != nil {
		return store.Product{}, err
	}
	return p, nil
}

func (q queries) GetProduct(ctx context.Context, id string) (store.Product, error) {
	return q.getProduct(ctx, `SELECT `+productColumns+` FROM products WHERE id = $1`, id)
}

func (q queries) ListProducts(ctx context.Context) ([]store.Product, error) {
	rows, err := q.q.Query(ctx, `SELECT `+productColumns+` FROM products ORDER BY name, id`)
	if err != nil {
		return nil, mapError("list products", err)
	}
	products, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.Product, error) {
		return scanProduct(row)
	})
	if err != nil {
		return nil, mapError("list products", err)
	}
	variants, err := q.ListAllVariants(ctx)
	if err != nil {
		return nil, err
	}
	byProduct := make(map[string][]store.Variant)
	for _, v := range variants {
		byProduct[v.ProductID] = append(byProduct[v.ProductID], v)
	}
	for i := range products {
		products[i].Variants = byProduct[products[i].ID]
	}
	return products, nil
}

func (q queries) GetVariant(ctx context.Context, id string) (store.Variant, error) {
	v, err := scanVariant(q.q.QueryRow(ctx, `SELECT `+variantColumns+` FROM product_variants WHERE id = $1`, id))
	if err != nil {
		return store.Variant{}, mapError("get variant "+id, err)
	}
	return v, nil
}

func (q queries) ListVariants(ctx context.Context, productID string) ([]store.Variant, error) {
	return q.listVariants(ctx, `SELECT `+variantColumns+` FROM product_variants WHERE product_id = $1 ORDER BY name, id`, productID)
}

func (q queries) ListAllVariants(ctx context.Context) ([]store.Variant, error) {
	return q.listVariants(ctx, `SELECT `+variantColumns+` FROM product_variants ORDER BY name, id`)
}

func (q queries) listVariants(ctx context.Context, sql string, args ...any) ([]store.Variant, error) {
	rows, err := q.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, mapError("list variants", err)
	}
	variants, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.Variant, error) {
		return scanVariant(row)
	})
	if err != nil {
		return nil, mapError("list variants", err)
	}
	return variants, nil
}

func (q queries) GetCustomer(ctx context.Context, id string) (store.Customer, error) {
	var c store.Customer
	err := q.q.QueryRow(ctx, `SELECT id, name, email, phone, address, created_at FROM customers WHERE id = $1`, id).
		Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt)
	if err != nil {
		return store.Customer{}, mapError("get customer "+id, err)
	}
	return c, nil
}

func (q queries) ListCustomers(ctx context.Context) ([]store.Customer, error) {
	rows, err := q.q.Query(ctx, `SELECT id, name, email, phone, address, created_at FROM customers ORDER BY name, id`)
	if err != nil {
		return nil, mapError("list customers", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.Customer, error) {
		var c store.Customer
		err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Address, &c.CreatedAt)
		return c, err
	})
	return out, mapError("list customers", err)
}

func (q queries) GetSupplier(ctx context.Context, id string) (store.Supplier, error) {
	var s store.Supplier
	err := q.q.QueryRow(ctx, `SELECT id, name, email, phone, address, created_at FROM suppliers WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &s.Address, &s.CreatedAt)
	if err != nil {
		return store.Supplier{}, mapError("get supplier "+id, err)
	}
	return s, nil
}

func (q queries) ListSuppliers(ctx context.Context) ([]store.Supplier, error) {
	rows, err := q.q.Query(ctx, `SELECT id, name, email, phone, address, created_at FROM suppliers ORDER BY name, id`)
	if err != nil {
		return nil, mapError("list suppliers", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.Supplier, error) {
		var s store.Supplier
		err := row.Scan(&s.ID, &s.Name, &s.Email, &s.Phone, &s.Address, &s.CreatedAt)
		return s, err
	})
	return out, mapError("list suppliers", err)
}

// ============================================================================
// ORDERS
// ============================================================================

const salesOrderSelect = `SELECT o.id, o.customer_id, COALESCE(c.name, ''), o.created_at, o.status, o.subtotal, o.total_amount
FROM sales_orders o LEFT JOIN customers c ON c.id = o.customer_id`

const salesItemSelect = `SELECT i.id, i.order_id, i.position, i.product_id, COALESCE(p.name, ''), i.variant_id, COALESCE(v.name, ''),
       i.quantity, i.unit_price, i.subtotal
FROM sales_items i
LEFT JOIN products p ON p.id = i.product_id
LEFT JOIN product_variants v ON v.id = i.variant_id`

func scanSalesOrder(row pgx.Row) (store.SalesOrder, error) {
	var o store.SalesOrder
	err := row.Scan(&o.ID, &o.CustomerID, &o.CustomerName, &o.CreatedAt, &o.Status, &o.Subtotal, &o.TotalAmount)
	return o, err
}

func (q queries) GetSalesOrder(ctx context.Context, id string) (store.SalesOrder, error) {
	o, err := scanSalesOrder(q.q.QueryRow(ctx, salesOrderSelect+` WHERE o.id = $1`, id))
	if err != nil {
		return store.SalesOrder{}, mapError("get sales order "+id, err)
	}
	items, err := q.salesItems(ctx, []string{id})
	if err != nil {
		return store.SalesOrder{}, err
	}
	o.Items = items[id]
	if o.Items == nil {
		o.Items = []store.SalesItem{}
	}
	return o, nil
}

func (q queries) ListSalesOrders(ctx context.Context, filter store.PeriodFilter) ([]store.SalesOrder, error) {
	rows, err := q.q.Query(ctx, salesOrderSelect+`
WHERE ($1::timestamptz IS NULL OR o.created_at >= $1)
  AND ($2::timestamptz IS NULL OR o.created_at < $2)
ORDER BY o.created_at DESC, o.id DESC`, optionalTime(filter.From), optionalTime(filter.To))
	if err != nil {
		return nil, mapError("list sales orders", err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.SalesOrder, error) {
		return scanSalesOrder(row)
	})
	if err != nil {
		return nil, mapError("list sales orders", err)
	}
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	items, err := q.salesItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (q queries) salesItems(ctx context.Context, orderIDs []string) (map[string][]store.SalesItem, error) {
	out := make(map[string][]store.SalesItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	rows, err := q.q.Query(ctx, salesItemSelect+` WHERE i.order_id = ANY($1) ORDER BY i.order_id, i.position`, orderIDs)
	if err != nil {
		return nil, mapError("list sales items", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.SalesItem, error) {
		var it store.SalesItem
		err := row.Scan(&it.ID, &it.OrderID, &it.Position, &it.ProductID, &it.ProductName, &it.VariantID, &it.VariantName,
			&it.Quantity, &it.UnitPrice, &it.Subtotal)
		return it, err
	})
	if err != nil {
		return nil, mapError("list sales items", err)
	}
	for _, it := range items {
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, nil
}

const purchaseOrderSelect = `SELECT o.id, o.supplier_id, COALESCE(s.name, ''), o.created_at, o.total_amount
FROM purchase_orders o LEFT JOIN suppliers s ON s.id = o.supplier_id`

const purchaseItemSelect = `SELECT i.id, i.order_id, i.position, i.product_id, COALESCE(p.name, ''), i.variant_id, COALESCE(v.name, ''),
       i.quantity, i.unit_cost, i.line_total
FROM purchase_items i
LEFT JOIN products p ON p.id = i.product_id
LEFT JOIN product_variants v ON v.id = i.variant_id`

func scanPurchaseOrder(row pgx.Row) (store.PurchaseOrder, error) {
	var o store.PurchaseOrder
	err := row.Scan(&o.ID, &o.SupplierID, &o.SupplierName, &o.CreatedAt, &o.TotalAmount)
	return o, err
}

func (q queries) GetPurchaseOrder(ctx context.Context, id string) (store.PurchaseOrder, error) {
	o, err := scanPurchaseOrder(q.q.QueryRow(ctx, purchaseOrderSelect+` WHERE o.id = $1`, id))
	if err != nil {
		return store.PurchaseOrder{}, mapError("get purchase order "+id, err)
	}
	items, err := q.purchaseItems(ctx, []string{id})
	if err != nil {
		return store.PurchaseOrder{}, err
	}
	o.Items = items[id]
	if o.Items == nil {
		o.Items = []store.PurchaseItem{}
	}
	return o, nil
}

func (q queries) ListPurchaseOrders(ctx context.Context, filter store.PeriodFilter) ([]store.PurchaseOrder, error) {
	rows, err := q.q.Query(ctx, purchaseOrderSelect+`
WHERE ($1::timestamptz IS NULL OR o.created_at >= $1)
  AND ($2::timestamptz IS NULL OR o.created_at < $2)
ORDER BY o.created_at DESC, o.id DESC`, optionalTime(filter.From), optionalTime(filter.To))
	if err != nil {
		return nil, mapError("list purchase orders", err)
	}
	orders, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.PurchaseOrder, error) {
		return scanPurchaseOrder(row)
	})
	if err != nil {
		return nil, mapError("list purchase orders", err)
	}
	ids := make([]string, len(orders))
	for i, o := range orders {
		ids[i] = o.ID
	}
	items, err := q.purchaseItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = items[orders[i].ID]
	}
	return orders, nil
}

func (q queries) purchaseItems(ctx context.Context, orderIDs []string) (map[string][]store.PurchaseItem, error) {
	out := make(map[string][]store.PurchaseItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return out, nil
	}
	rows, err := q.q.Query(ctx, purchaseItemSelect+` WHERE i.order_id = ANY($1) ORDER BY i.order_id, i.position`, orderIDs)
	if err != nil {
		return nil, mapError("list purchase items", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.PurchaseItem, error) {
		var it store.PurchaseItem
		err := row.Scan(&it.ID, &it.OrderID, &it.Position, &it.ProductID, &it.ProductName, &it.VariantID, &it.VariantName,
			&it.Quantity, &it.UnitCost, &it.LineTotal)
		return it, err
	})
	if err != nil {
		return nil, mapError("list purchase items", err)
	}
	for _, it := range items {
		out[it.OrderID] = append(out[it.OrderID], it)
	}
	return out, nil
}

func (q queries) ListExpenses(ctx context.Context, filter store.PeriodFilter) ([]store.Expense, error) {
	rows, err := q.q.Query(ctx, `SELECT id, expense_date, category, amount, description, payment_mode, vendor, created_at
FROM expenses
WHERE ($1::timestamptz IS NULL OR expense_date >= $1)
  AND ($2::timestamptz IS NULL OR expense_date < $2)
ORDER BY expense_date DESC, id DESC`, optionalTime(filter.From), optionalTime(filter.To))
	if err != nil {
		return nil, mapError("list expenses", err)
	}
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (store.Expense, error) {
		var e store.Expense
		err := row.Scan(&e.ID, &e.ExpenseDate, &e.Category, &e.Amount, &e.Description, &e.PaymentMode, &e.Vendor, &e.CreatedAt)
		return e, err
	})
	return out, mapError("list expenses", err)
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
