// Package memory provides an in-process store used by tests and local runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

// Store keeps every table in maps guarded by a single mutex.
// A unit of work runs against a private copy that replaces the live state on success.
type Store struct {
	mu    sync.RWMutex
	state *state
}

var _ store.Store = (*Store)(nil)

// New returns an empty store.
func New() *Store {
	return &Store{state: newState()}
}

// WithTx serialises units of work. fn sees a snapshot and its writes are published only when it returns nil.
func (s *Store) WithTx(ctx context.Context, fn func(context.Context, store.Tx) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	work := s.state.clone()
	if err := fn(ctx, &tx{state: work}); err != nil {
		return err
	}
	s.state = work
	return nil
}

// Close is a no-op.
func (s *Store) Close() error { return nil }

func (s *Store) read() *state {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Reads outside a unit of work see the last published state. Published states are never mutated.

func (s *Store) GetProduct(ctx context.Context, id string) (store.Product, error) {
	return s.read().getProduct(id)
}

func (s *Store) ListProducts(ctx context.Context) ([]store.Product, error) {
	return s.read().listProducts(), nil
}

func (s *Store) GetVariant(ctx context.Context, id string) (store.Variant, error) {
	return s.read().getVariant(id)
}

func (s *Store) ListVariants(ctx context.Context, productID string) ([]store.Variant, error) {
	return s.read().listVariants(productID), nil
}

func (s *Store) ListAllVariants(ctx context.Context) ([]store.Variant, error) {
	return s.read().listVariants(""), nil
}

func (s *Store) GetCustomer(ctx context.Context, id string) (store.Customer, error) {
	return s.read().getCustomer(id)
}

func (s *Store) ListCustomers(ctx context.Context) ([]store.Customer, error) {
	return s.read().listCustomers(), nil
}

func (s *Store) GetSupplier(ctx context.Context, id string) (store.Supplier, error) {
	return s.read().getSupplier(id)
}

func (s *Store) ListSuppliers(ctx context.Context) ([]store.Supplier, error) {
	return s.read().listSuppliers(), nil
}

func (s *Store) GetSalesOrder(ctx context.Context, id string) (store.SalesOrder, error) {
	return s.read().getSalesOrder(id)
}

func (s *Store) ListSalesOrders(ctx context.Context, filter store.PeriodFilter) ([]store.SalesOrder, error) {
	return s.read().listSalesOrders(filter), nil
}

func (s *Store) GetPurchaseOrder(ctx context.Context, id string) (store.PurchaseOrder, error) {
	return s.read().getPurchaseOrder(id)
}

func (s *Store) ListPurchaseOrders(ctx context.Context, filter store.PeriodFilter) ([]store.PurchaseOrder, error) {
	return s.read().listPurchaseOrders(filter), nil
}

func (s *Store) ListExpenses(ctx context.Context, filter store.PeriodFilter) ([]store.Expense, error) {
	return s.read().listExpenses(filter), nil
}

type state struct {
	products       map[string]store.Product
	variants       map[string]store.Variant
	customers      map[string]store.Customer
	suppliers      map[string]store.Supplier
	salesOrders    map[string]store.SalesOrder
	salesItems     map[string][]store.SalesItem
	purchaseOrders map[string]store.PurchaseOrder
	purchaseItems  map[string][]store.PurchaseItem
	expenses       map[string]store.Expense
}

func newState() *state {
	return &state{
		products:       map[string]store.Product{},
		variants:       map[string]store.Variant{},
		customers:      map[string]store.Customer{},
		suppliers:      map[string]store.Supplier{},
		salesOrders:    map[string]store.SalesOrder{},
		salesItems:     map[string][]store.SalesItem{},
		purchaseOrders: map[string]store.PurchaseOrder{},
		purchaseItems:  map[string][]store.PurchaseItem{},
		expenses:       map[string]store.Expense{},
	}
}

func (s *state) clone() *state {
	return &state{
		products:       copyMap(s.products),
		variants:       copyMap(s.variants),
		customers:      copyMap(s.customers),
		suppliers:      copyMap(s.suppliers),
		salesOrders:    copyMap(s.salesOrders),
		salesItems:     copyMap(s.salesItems),
		purchaseOrders: copyMap(s.purchaseOrders),
		purchaseItems:  copyMap(s.purchaseItems),
		expenses:       copyMap(s.expenses),
	}
}

// copyMap is shallow. Item slices are replaced wholesale on write, never appended in place.
func copyMap[K comparable, V any](in map[K]V) map[K]V {
	out := make(map[K]V, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func (s *state) getProduct(id string) (store.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return store.Product{}, shared.NotFoundf("product %s", id)
	}
	p.Variants = s.listVariants(id)
	return p, nil
}

func (s *state) listProducts() []store.Product {
	out := make([]store.Product, 0, len(s.products))
	for id := range s.products {
		p, _ := s.getProduct(id)
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (s *state) getVariant(id string) (store.Variant, error) {
	v, ok := s.variants[id]
	if !ok {
		return store.Variant{}, shared.NotFoundf("variant %s", id)
	}
	return v, nil
}

// listVariants returns every variant when productID is empty.
func (s *state) listVariants(productID string) []store.Variant {
	out := make([]store.Variant, 0)
	for _, v := range s.variants {
		if productID == "" || v.ProductID == productID {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name == out[j].Name {
			return out[i].ID < out[j].ID
		}
		return out[i].Name < out[j].Name
	})
	return out
}

func (s *state) getCustomer(id string) (store.Customer, error) {
	c, ok := s.customers[id]
	if !ok {
		return store.Customer{}, shared.NotFoundf("customer %s", id)
	}
	return c, nil
}

func (s *state) listCustomers() []store.Customer {
	out := make([]store.Customer, 0, len(s.customers))
	for _, c := range s.customers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *state) getSupplier(id string) (store.Supplier, error) {
	sup, ok := s.suppliers[id]
	if !ok {
		return store.Supplier{}, shared.NotFoundf("supplier %s", id)
	}
	return sup, nil
}

func (s *state) listSuppliers() []store.Supplier {
	out := make([]store.Supplier, 0, len(s.suppliers))
	for _, sup := range s.suppliers {
		out = append(out, sup)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (s *state) getSalesOrder(id string) (store.SalesOrder, error) {
	o, ok := s.salesOrders[id]
	if !ok {
		return store.SalesOrder{}, shared.NotFoundf("sales order %s", id)
	}
	if c, ok := s.customers[o.CustomerID]; ok {
		o.CustomerName = c.Name
	}
	items := s.salesItems[id]
	o.Items = make([]store.SalesItem, len(items))
	for i, item := range items {
		item.ProductName, item.VariantName = s.lineNames(item.ProductID, item.VariantID)
		o.Items[i] = item
	}
	sort.SliceStable(o.Items, func(i, j int) bool { return o.Items[i].Position < o.Items[j].Position })
	return o, nil
}

func (s *state) listSalesOrders(filter store.PeriodFilter) []store.SalesOrder {
	out := make([]store.SalesOrder, 0)
	for id, o := range s.salesOrders {
		if !filter.Contains(o.CreatedAt) {
			continue
		}
		full, _ := s.getSalesOrder(id)
		out = append(out, full)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *state) getPurchaseOrder(id string) (store.PurchaseOrder, error) {
	o, ok := s.purchaseOrders[id]
	if !ok {
		return store.PurchaseOrder{}, shared.NotFoundf("purchase order %s", id)
	}
	if sup, ok := s.suppliers[o.SupplierID]; ok {
		o.SupplierName = sup.Name
	}
	items := s.purchaseItems[id]
	o.Items = make([]store.PurchaseItem, len(items))
	for i, item := range items {
		item.ProductName, item.VariantName = s.lineNames(item.ProductID, item.VariantID)
		o.Items[i] = item
	}
	sort.SliceStable(o.Items, func(i, j int) bool { return o.Items[i].Position < o.Items[j].Position })
	return o, nil
}

func (s *state) listPurchaseOrders(filter store.PeriodFilter) []store.PurchaseOrder {
	out := make([]store.PurchaseOrder, 0)
	for id, o := range s.purchaseOrders {
		if !filter.Contains(o.CreatedAt) {
			continue
		}
		full, _ := s.getPurchaseOrder(id)
		out = append(out, full)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func (s *state) listExpenses(filter store.PeriodFilter) []store.Expense {
	out := make([]store.Expense, 0)
	for _, e := range s.expenses {
		if filter.Contains(e.ExpenseDate) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].ExpenseDate.Equal(out[j].ExpenseDate) {
			return out[i].ID > out[j].ID
		}
		return out[i].ExpenseDate.After(out[j].ExpenseDate)
	})
	return out
}

func (s *state) lineNames(productID string, variantID *string) (string, string) {
	var productName, variantName string
	if p, ok := s.products[productID]; ok {
		productName = p.Name
	}
	if variantID != nil {
		if v, ok := s.variants[*variantID]; ok {
			variantName = v.Name
		}
	}
	return productName, variantName
}

func (s *state) productReferenced(id string) bool {
	for _, items := range s.salesItems {
		for _, item := range items {
			if item.ProductID == id {
				return true
			}
		}
	}
	for _, items := range s.purchaseItems {
		for _, item := range items {
			if item.ProductID == id {
				return true
			}
		}
	}
	return false
}
