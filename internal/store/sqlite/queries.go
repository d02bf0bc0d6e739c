package sqlite

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

// queries implements store.Reader on the database or an open transaction.
type queries struct {
	q sqlx.ExtContext
}

const productColumns = `id, name, sku, cost_price, sell_price, stock, has_variants, created_at`

const variantColumns = `id, product_id, name, sku, stock, price_adjustment`

func (q queries) getProduct(ctx context.Context, id string) (store.Product, error) {
	var row productRow
	if err := sqlx.GetContext(ctx, q.q, &row, `SELECT `+productColumns+` FROM products WHERE id = ?`, id); err != nil {
		return store.Product{}, mapError("get product "+id, err)
	}
	p, err := row.toDomain()
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
	return q.getProduct(ctx, id)
}

func (q queries) ListProducts(ctx context.Context) ([]store.Product, error) {
	var rows []productRow
	if err := sqlx.SelectContext(ctx, q.q, &rows, `SELECT `+productColumns+` FROM products ORDER BY name, id`); err != nil {
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
	products := make([]store.Product, 0, len(rows))
	for _, row := range rows {
		p, err := row.toDomain()
		if err != nil {
			return nil, mapError("list products", err)
		}
		p.Variants = byProduct[p.ID]
		products = append(products, p)
	}
	return products, nil
}

func (q queries) GetVariant(ctx context.Context, id string) (store.Variant, error) {
	var row variantRow
	if err := sqlx.GetContext(ctx, q.q, &row, `SELECT `+variantColumns+` FROM product_variants WHERE id = ?`, id); err != nil {
		return store.Variant{}, mapError("get variant "+id, err)
	}
	return row.toDomain(), nil
}

func (q queries) ListVariants(ctx context.Context, productID string) ([]store.Variant, error) {
	return q.listVariants(ctx, `SELECT `+variantColumns+` FROM product_variants WHERE product_id = ? ORDER BY name, id`, productID)
}

func (q queries) ListAllVariants(ctx context.Context) ([]store.Variant, error) {
	return q.listVariants(ctx, `SELECT `+variantColumns+` FROM product_variants ORDER BY name, id`)
}

func (q queries) listVariants(ctx context.Context, query string, args ...any) ([]store.Variant, error) {
	var rows []variantRow
	if err := sqlx.SelectContext(ctx, q.q, &rows, query, args...); err != nil {
		return nil, mapError("list variants", err)
	}
	variants := make([]store.Variant, len(rows))
	for i, row := range rows {
		variants[i] = row.toDomain()
	}
	return variants, nil
}

func (q queries) GetCustomer(ctx context.Context, id string) (store.Customer, error) {
	var row partyRow
	if err := sqlx.GetContext(ctx, q.q, &row, `SELECT id, name, email, phone, address, created_at FROM customers WHERE id = ?`, id); err != nil {
		return store.Customer{}, mapError("get customer "+id, err)
	}
	c, err := row.toCustomer()
	return c, mapError("get customer "+id, err)
}

func (q queries) ListCustomers(ctx context.Context) ([]store.Customer, error) {
	var rows []partyRow
	if err := sqlx.SelectContext(ctx, q.q, &rows, `SELECT id, name, email, phone, address, created_at FROM customers ORDER BY name, id`); err != nil {
		return nil, mapError("list customers", err)
	}
	out := make([]store.Customer, 0, len(rows))
	for _, row := range rows {
		c, err := row.toCustomer()
		if err != nil {
			return nil, mapError("list customers", err)
		}
		out = append(out, c)
	}
	return out, nil
}

func (q queries) GetSupplier(ctx context.Context, id string) (store.Supplier, error) {
	var row partyRow
	if err := sqlx.GetContext(ctx, q.q, &row, `SELECT id, name, email, phone, address, created_at FROM suppliers WHERE id = ?`, id); err != nil {
		return store.Supplier{}, mapError("get supplier "+id, err)
	}
	s, err := row.toSupplier()
	return s, mapError("get supplier "+id, err)
}

func (q queries) ListSuppliers(ctx context.Context) ([]store.Supplier, error) {
	var rows []partyRow
	if err := sqlx.SelectContext(ctx, q.q, &rows, `SELECT id, name, email, phone, address, created_at FROM suppliers ORDER BY name, id`); err != nil {
		return nil, mapError("list suppliers", err)
	}
	out := make([]store.Supplier, 0, len(rows))
	for _, row := range rows {
		s, err := row.toSupplier()
		if err != nil {
			return nil, mapError("list suppliers", err)
		}
		out = append(out, s)
	}
	return out, nil
}

// ============================================================================
// ORDERS
// ============================================================================

const salesOrderSelect = `SELECT o.id, o.customer_id, COALESCE(c.name, '') AS customer_name, o.created_at, o.status, o.subtotal, o.total_amount
FROM sales_orders o LEFT JOIN customers c ON c.id = o.customer_id`

const purchaseOrderSelect = `SELECT o.id, o.supplier_id, COALESCE(s.name, '') AS supplier_name, o.created_at, o.total_amount
FROM purchase_orders o LEFT JOIN suppliers s ON s.id = o.supplier_id`

// periodWhere expects the lower bound as ?1 and the upper bound as ?2.
func periodWhere(column string) string {
	return ` WHERE (?1 IS NULL OR ` + column + ` >= ?1) AND (?2 IS NULL OR ` + column + ` < ?2)`
}

func (q queries) GetSalesOrder(ctx context.Context, id string) (store.SalesOrder, error) {
	var row salesOrderRow
	if err := sqlx.GetContext(ctx, q.q, &row, salesOrderSelect+` WHERE o.id = ?`, id); err != nil {
		return store.SalesOrder{}, mapError("get sales order "+id, err)
	}
	o, err := row.toDomain()
	if err != nil {
		return store.SalesOrder{}, mapError("get sales order "+id, err)
	}
	lines, err := q.lines(ctx, "sales_items", "unit_price", "subtotal", []string{id})
	if err != nil {
		return store.SalesOrder{}, err
	}
	o.Items = make([]store.SalesItem, 0, len(lines[id]))
	for _, l := range lines[id] {
		o.Items = append(o.Items, l.toSalesItem())
	}
	return o, nil
}

func (q queries) ListSalesOrders(ctx context.Context, filter store.PeriodFilter) ([]store.SalesOrder, error) {
	var rows []salesOrderRow
	err := sqlx.SelectContext(ctx, q.q, &rows, salesOrderSelect+periodWhere("o.created_at")+` ORDER BY o.created_at DESC, o.id DESC`,
		optionalTime(filter.From), optionalTime(filter.To))
	if err != nil {
		return nil, mapError("list sales orders", err)
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	lines, err := q.lines(ctx, "sales_items", "unit_price", "subtotal", ids)
	if err != nil {
		return nil, err
	}
	orders := make([]store.SalesOrder, 0, len(rows))
	for _, row := range rows {
		o, err := row.toDomain()
		if err != nil {
			return nil, mapError("list sales orders", err)
		}
		for _, l := range lines[o.ID] {
			o.Items = append(o.Items, l.toSalesItem())
		}
		orders = append(orders, o)
	}
	return orders, nil
}

func (q queries) GetPurchaseOrder(ctx context.Context, id string) (store.PurchaseOrder, error) {
	var row purchaseOrderRow
	if err := sqlx.GetContext(ctx, q.q, &row, purchaseOrderSelect+` WHERE o.id = ?`, id); err != nil {
		return store.PurchaseOrder{}, mapError("get purchase order "+id, err)
	}
	o, err := row.toDomain()
	if err != nil {
		return store.PurchaseOrder{}, mapError("get purchase order "+id, err)
	}
	lines, err := q.lines(ctx, "purchase_items", "unit_cost", "line_total", []string{id})
	if err != nil {
		return store.PurchaseOrder{}, err
	}
	o.Items = make([]store.PurchaseItem, 0, len(lines[id]))
	for _, l := range lines[id] {
		o.Items = append(o.Items, l.toPurchaseItem())
	}
	return o, nil
}

func (q queries) ListPurchaseOrders(ctx context.Context, filter store.PeriodFilter) ([]store.PurchaseOrder, error) {
	var rows []purchaseOrderRow
	err := sqlx.SelectContext(ctx, q.q, &rows, purchaseOrderSelect+periodWhere("o.created_at")+` ORDER BY o.created_at DESC, o.id DESC`,
		optionalTime(filter.From), optionalTime(filter.To))
	if err != nil {
		return nil, mapError("list purchase orders", err)
	}
	ids := make([]string, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}
	lines, err := q.lines(ctx, "purchase_items", "unit_cost", "line_total", ids)
	if err != nil {
		return nil, err
	}
	orders := make([]store.PurchaseOrder, 0, len(rows))
	for _, row := range rows {
		o, err := row.toDomain()
		if err != nil {
			return nil, mapError("list purchase orders", err)
		}
		for _, l := range lines[o.ID] {
			o.Items = append(o.Items, l.toPurchaseItem())
		}
		orders = append(orders, o)
	}
	return orders, nil
}

// lineBatchSize keeps each IN list far below SQLite's bound-variable limit.
const lineBatchSize = 500

// lines loads the items of the given orders keyed by order id, in cart order.
// table, price and total are package constants, never caller input.
func (q queries) lines(ctx context.Context, table, price, total string, orderIDs []string) (map[string][]lineRow, error) {
	out := make(map[string][]lineRow, len(orderIDs))
	for start := 0; start < len(orderIDs); start += lineBatchSize {
		end := min(start+lineBatchSize, len(orderIDs))
		query, args, err := sqlx.In(`SELECT i.id, i.order_id, i.position, i.product_id, COALESCE(p.name, '') AS product_name,
       i.variant_id, COALESCE(v.name, '') AS variant_name, i.quantity, i.`+price+` AS price, i.`+total+` AS total
FROM `+table+` i
LEFT JOIN products p ON p.id = i.product_id
LEFT JOIN product_variants v ON v.id = i.variant_id
WHERE i.order_id IN (?)
ORDER BY i.order_id, i.position`, orderIDs[start:end])
		if err != nil {
			return nil, mapError("list "+table, err)
		}
		var rows []lineRow
		if err := sqlx.SelectContext(ctx, q.q, &rows, query, args...); err != nil {
			return nil, mapError("list "+table, err)
		}
		for _, row := range rows {
			out[row.OrderID] = append(out[row.OrderID], row)
		}
	}
	return out, nil
}

func (q queries) ListExpenses(ctx context.Context, filter store.PeriodFilter) ([]store.Expense, error) {
	var rows []expenseRow
	err := sqlx.SelectContext(ctx, q.q, &rows, `SELECT id, expense_date, category, amount, description, payment_mode, vendor, created_at
FROM expenses`+periodWhere("expense_date")+` ORDER BY expense_date DESC, id DESC`,
		optionalTime(filter.From), optionalTime(filter.To))
	if err != nil {
		return nil, mapError("list expenses", err)
	}
	out := make([]store.Expense, 0, len(rows))
	for _, row := range rows {
		e, err := row.toDomain()
		if err != nil {
			return nil, mapError("list expenses", err)
		}
		out = append(out, e)
	}
	return out, nil
}
