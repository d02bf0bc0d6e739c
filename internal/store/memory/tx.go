package memory

import (
	"context"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

type tx struct {
	state *state
}

var _ store.Tx = (*tx)(nil)

func (t *tx) GetProduct(ctx context.Context, id string) (store.Product, error) {
	return t.state.getProduct(id)
}

func (t *tx) ListProducts(ctx context.Context) ([]store.Product, error) {
	return t.state.listProducts(), nil
}

func (t *tx) GetVariant(ctx context.Context, id string) (store.Variant, error) {
	return t.state.getVariant(id)
}

func (t *tx) ListVariants(ctx context.Context, productID string) ([]store.Variant, error) {
	return t.state.listVariants(productID), nil
}

func (t *tx) ListAllVariants(ctx context.Context) ([]store.Variant, error) {
	return t.state.listVariants(""), nil
}

func (t *tx) GetCustomer(ctx context.Context, id string) (store.Customer, error) {
	return t.state.getCustomer(id)
}

func (t *tx) ListCustomers(ctx context.Context) ([]store.Customer, error) {
	return t.state.listCustomers(), nil
}

func (t *tx) GetSupplier(ctx context.Context, id string) (store.Supplier, error) {
	return t.state.getSupplier(id)
}

func (t *tx) ListSuppliers(ctx context.Context) ([]store.Supplier, error) {
	return t.state.listSuppliers(), nil
}

func (t *tx) GetSalesOrder(ctx context.Context, id string) (store.SalesOrder, error) {
	return t.state.getSalesOrder(id)
}

func (t *tx) ListSalesOrders(ctx context.Context, filter store.PeriodFilter) ([]store.SalesOrder, error) {
	return t.state.listSalesOrders(filter), nil
}

func (t *tx) GetPurchaseOrder(ctx context.Context, id string) (store.PurchaseOrder, error) {
	return t.state.getPurchaseOrder(id)
}

func (t *tx) ListPurchaseOrders(ctx context.Context, filter store.PeriodFilter) ([]store.PurchaseOrder, error) {
	return t.state.listPurchaseOrders(filter), nil
}

func (t *tx) ListExpenses(ctx context.Context, filter store.PeriodFilter) ([]store.Expense, error) {
	return t.state.listExpenses(filter), nil
}

// The whole store is already held exclusively for the unit of work.
func (t *tx) GetProductForUpdate(ctx context.Context, id string) (store.Product, error) {
	return t.state.getProduct(id)
}

func (t *tx) GetVariantForUpdate(ctx context.Context, id string) (store.Variant, error) {
	return t.state.getVariant(id)
}

func (t *tx) UpdateProductStock(ctx context.Context, id string, stock int) error {
	p, ok := t.state.products[id]
	if !ok {
		return shared.NotFoundf("product %s", id)
	}
	p.Stock = stock
	t.state.products[id] = p
	return nil
}

func (t *tx) UpdateVariantStock(ctx context.Context, id string, stock int) error {
	v, ok := t.state.variants[id]
	if !ok {
		return shared.NotFoundf("variant %s", id)
	}
	v.Stock = stock
	t.state.variants[id] = v
	return nil
}

func (t *tx) InsertProduct(ctx context.Context, p store.Product) error {
	if _, exists := t.state.products[p.ID]; exists {
		return shared.Validationf("product %s already exists", p.ID)
	}
	for _, existing := range t.state.products {
		if p.SKU != "" && existing.SKU == p.SKU {
			return shared.Validationf("sku %s already in use", p.SKU)
		}
	}
	p.Variants = nil
	t.state.products[p.ID] = p
	return nil
}

func (t *tx) UpdateProduct(ctx context.Context, p store.Product) error {
	current, ok := t.state.products[p.ID]
	if !ok {
		return shared.NotFoundf("product %s", p.ID)
	}
	for id, existing := range t.state.products {
		if id != p.ID && p.SKU != "" && existing.SKU == p.SKU {
			return shared.Validationf("sku %s already in use", p.SKU)
		}
	}
	current.Name = p.Name
	current.SKU = p.SKU
	current.CostPrice = p.CostPrice
	current.SellPrice = p.SellPrice
	t.state.products[p.ID] = current
	return nil
}

func (t *tx) SetProductHasVariants(ctx context.Context, id string, hasVariants bool) error {
	p, ok := t.state.products[id]
	if !ok {
		return shared.NotFoundf("product %s", id)
	}
	p.HasVariants = hasVariants
	t.state.products[id] = p
	return nil
}

func (t *tx) DeleteProduct(ctx context.Context, id string) error {
	if _, ok := t.state.products[id]; !ok {
		return shared.NotFoundf("product %s", id)
	}
	if t.state.productReferenced(id) {
		return shared.Validationf("product %s is referenced by orders", id)
	}
	for vid, v := range t.state.variants {
		if v.ProductID == id {
			delete(t.state.variants, vid)
		}
	}
	delete(t.state.products, id)
	return nil
}

func (t *tx) InsertVariant(ctx context.Context, v store.Variant) error {
	if _, ok := t.state.products[v.ProductID]; !ok {
		return shared.NotFoundf("product %s", v.ProductID)
	}
	if _, exists := t.state.variants[v.ID]; exists {
		return shared.Validationf("variant %s already exists", v.ID)
	}
	t.state.variants[v.ID] = v
	return nil
}

func (t *tx) InsertCustomer(ctx context.Context, c store.Customer) error {
	if _, exists := t.state.customers[c.ID]; exists {
		return shared.Validationf("customer %s already exists", c.ID)
	}
	t.state.customers[c.ID] = c
	return nil
}

func (t *tx) InsertSupplier(ctx context.Context, s store.Supplier) error {
	if _, exists := t.state.suppliers[s.ID]; exists {
		return shared.Validationf("supplier %s already exists", s.ID)
	}
	t.state.suppliers[s.ID] = s
	return nil
}

func (t *tx) InsertSalesOrder(ctx context.Context, o store.SalesOrder) error {
	if _, ok := t.state.customers[o.CustomerID]; !ok {
		return shared.NotFoundf("customer %s", o.CustomerID)
	}
	if _, exists := t.state.salesOrders[o.ID]; exists {
		return shared.Validationf("sales order %s already exists", o.ID)
	}
	o.Items = nil
	o.CustomerName = ""
	t.state.salesOrders[o.ID] = o
	return nil
}

func (t *tx) InsertSalesItems(ctx context.Context, items []store.SalesItem) error {
	for _, item := range items {
		if _, ok := t.state.salesOrders[item.OrderID]; !ok {
			return shared.NotFoundf("sales order %s", item.OrderID)
		}
		if err := t.checkLineRefs(item.ProductID, item.VariantID); err != nil {
			return err
		}
		existing := t.state.salesItems[item.OrderID]
		next := make([]store.SalesItem, len(existing), len(existing)+1)
		copy(next, existing)
		item.ProductName, item.VariantName = "", ""
		t.state.salesItems[item.OrderID] = append(next, item)
	}
	return nil
}

func (t *tx) DeleteSalesOrder(ctx context.Context, id string) error {
	if _, ok := t.state.salesOrders[id]; !ok {
		return shared.NotFoundf("sales order %s", id)
	}
	delete(t.state.salesItems, id)
	delete(t.state.salesOrders, id)
	return nil
}

func (t *tx) InsertPurchaseOrder(ctx context.Context, o store.PurchaseOrder) error {
	if _, ok := t.state.suppliers[o.SupplierID]; !ok {
		return shared.NotFoundf("supplier %s", o.SupplierID)
	}
	if _, exists := t.state.purchaseOrders[o.ID]; exists {
		return shared.Validationf("purchase order %s already exists", o.ID)
	}
	o.Items = nil
	o.SupplierName = ""
	t.state.purchaseOrders[o.ID] = o
	return nil
}

func (t *tx) InsertPurchaseItems(ctx context.Context, items []store.PurchaseItem) error {
	for _, item := range items {
		if _, ok := t.state.purchaseOrders[item.OrderID]; !ok {
			return shared.NotFoundf("purchase order %s", item.OrderID)
		}
		if err := t.checkLineRefs(item.ProductID, item.VariantID); err != nil {
			return err
		}
		existing := t.state.purchaseItems[item.OrderID]
		next := make([]store.PurchaseItem, len(existing), len(existing)+1)
		copy(next, existing)
		item.ProductName, item.VariantName = "", ""
		t.state.purchaseItems[item.OrderID] = append(next, item)
	}
	return nil
}

func (t *tx) DeletePurchaseOrder(ctx context.Context, id string) error {
	if _, ok := t.state.purchaseOrders[id]; !ok {
		return shared.NotFoundf("purchase order %s", id)
	}
	delete(t.state.purchaseItems, id)
	delete(t.state.purchaseOrders, id)
	return nil
}

func (t *tx) InsertExpense(ctx context.Context, e store.Expense) error {
	if _, exists := t.state.expenses[e.ID]; exists {
		return shared.Validationf("expense %s already exists", e.ID)
	}
	t.state.expenses[e.ID] = e
	return nil
}

func (t *tx) DeleteExpense(ctx context.Context, id string) error {
	if _, ok := t.state.expenses[id]; !ok {
		return shared.NotFoundf("expense %s", id)
	}
	delete(t.state.expenses, id)
	return nil
}

func (t *tx) checkLineRefs(productID string, variantID *string) error {
	if _, ok := t.state.products[productID]; !ok {
		return shared.NotFoundf("product %s", productID)
	}
	if variantID != nil {
		v, ok := t.state.variants[*variantID]
		if !ok {
			return shared.NotFoundf("variant %s", *variantID)
		}
		if v.ProductID != productID {
			return shared.Validationf("variant %s does not belong to product %s", *variantID, productID)
		}
	}
	return nil
}
