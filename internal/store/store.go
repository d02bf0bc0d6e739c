// Package store defines the persistence port shared by the stock ledger, the order engines and
// the dashboard aggregator. Implementations live in the memory, postgres and sqlite subpackages.
package store

import "context"

// Reader exposes the read operations available both inside and outside a unit of work.
type Reader interface {
	GetProduct(ctx context.Context, id string) (Product, error)
	ListProducts(ctx context.Context) ([]Product, error)
	GetVariant(ctx context.Context, id string) (Variant, error)
	ListVariants(ctx context.Context, productID string) ([]Variant, error)
	ListAllVariants(ctx context.Context) ([]Variant, error)

	GetCustomer(ctx context.Context, id string) (Customer, error)
	ListCustomers(ctx context.Context) ([]Customer, error)
	GetSupplier(ctx context.Context, id string) (Supplier, error)
	ListSuppliers(ctx context.Context) ([]Supplier, error)

	// GetSalesOrder returns the order joined with its customer and items.
	GetSalesOrder(ctx context.Context, id string) (SalesOrder, error)
	// ListSalesOrders returns orders newest first, items included.
	ListSalesOrders(ctx context.Context, filter PeriodFilter) ([]SalesOrder, error)
	GetPurchaseOrder(ctx context.Context, id string) (PurchaseOrder, error)
	ListPurchaseOrders(ctx context.Context, filter PeriodFilter) ([]PurchaseOrder, error)

	ListExpenses(ctx context.Context, filter PeriodFilter) ([]Expense, error)
}

// Tx is a unit of work. Every write made through it commits or rolls back together.
type Tx interface {
	Reader

	// GetProductForUpdate reads a product and locks it until the unit of work ends.
	GetProductForUpdate(ctx context.Context, id string) (Product, error)
	// GetVariantForUpdate reads a variant and locks it until the unit of work ends.
	GetVariantForUpdate(ctx context.Context, id string) (Variant, error)
	UpdateProductStock(ctx context.Context, id string, stock int) error
	UpdateVariantStock(ctx context.Context, id string, stock int) error

	InsertProduct(ctx context.Context, p Product) error
	// UpdateProduct rewrites name, sku and prices. Stock and has_variants are left alone.
	UpdateProduct(ctx context.Context, p Product) error
	SetProductHasVariants(ctx context.Context, id string, hasVariants bool) error
	// DeleteProduct removes the product and its variants.
	DeleteProduct(ctx context.Context, id string) error
	InsertVariant(ctx context.Context, v Variant) error

	InsertCustomer(ctx context.Context, c Customer) error
	InsertSupplier(ctx context.Context, s Supplier) error

	InsertSalesOrder(ctx context.Context, o SalesOrder) error
	InsertSalesItems(ctx context.Context, items []SalesItem) error
	// DeleteSalesOrder removes the order and its items.
	DeleteSalesOrder(ctx context.Context, id string) error

	InsertPurchaseOrder(ctx context.Context, o PurchaseOrder) error
	InsertPurchaseItems(ctx context.Context, items []PurchaseItem) error
	// DeletePurchaseOrder removes the order and its items.
	DeletePurchaseOrder(ctx context.Context, id string) error

	InsertExpense(ctx context.Context, e Expense) error
	DeleteExpense(ctx context.Context, id string) error
}

// Store is the injectable persistence backend.
type Store interface {
	Reader
	// WithTx runs fn inside a unit of work, committing when fn returns nil.
	WithTx(ctx context.Context, fn func(context.Context, Tx) error) error
	Close() error
}
