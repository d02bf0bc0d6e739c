// Package storetest holds behaviour checks every store backend must pass.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

// Factory returns an empty store. It registers its own cleanup.
type Factory func(t *testing.T) store.Store

var base = time.Date(2024, 5, 1, 9, 30, 0, 123456000, time.UTC)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func strPtr(s string) *string { return &s }

// Run executes the suite against stores built by open.
func Run(t *testing.T, open Factory) {
	t.Run("catalog", func(t *testing.T) { testCatalog(t, open(t)) })
	t.Run("sales orders", func(t *testing.T) { testSalesOrders(t, open(t)) })
	t.Run("purchase orders", func(t *testing.T) { testPurchaseOrders(t, open(t)) })
	t.Run("expenses", func(t *testing.T) { testExpenses(t, open(t)) })
	t.Run("rollback", func(t *testing.T) { testRollback(t, open(t)) })
}

func seedCatalog(t *testing.T, st store.Store) {
	t.Helper()
	err := st.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		for _, p := range []store.Product{
			{ID: "soap", Name: "Soap", SKU: "SOAP-1", CostPrice: dec("9"), SellPrice: dec("15"), Stock: 7, CreatedAt: base},
			{ID: "shirt", Name: "Shirt", SKU: "SHIRT-1", CostPrice: dec("8"), SellPrice: dec("20"), Stock: 13, HasVariants: true, CreatedAt: base},
		} {
			if err := tx.InsertProduct(ctx, p); err != nil {
				return err
			}
		}
		for _, v := range []store.Variant{
			{ID: "shirt-m", ProductID: "shirt", Name: "M", SKU: "SHIRT-1-M", Stock: 10, PriceAdjustment: dec("0")},
			{ID: "shirt-l", ProductID: "shirt", Name: "L", SKU: "SHIRT-1-L", Stock: 3, PriceAdjustment: dec("2.50")},
		} {
			if err := tx.InsertVariant(ctx, v); err != nil {
				return err
			}
		}
		if err := tx.InsertCustomer(ctx, store.Customer{ID: "c1", Name: "Walk-in", CreatedAt: base}); err != nil {
			return err
		}
		return tx.InsertSupplier(ctx, store.Supplier{ID: "s1", Name: "Acme", Email: "acme@example.com", CreatedAt: base})
	})
	require.NoError(t, err)
}

func testCatalog(t *testing.T, st store.Store) {
	ctx := context.Background()
	seedCatalog(t, st)

	products, err := st.ListProducts(ctx)
	require.NoError(t, err)
	require.Len(t, products, 2)
	assert.Equal(t, "shirt", products[0].ID)
	assert.Equal(t, "soap", products[1].ID)
	require.Len(t, products[0].Variants, 2)
	assert.Equal(t, "L", products[0].Variants[0].Name)
	assert.Empty(t, products[1].Variants)

	shirt, err := st.GetProduct(ctx, "shirt")
	require.NoError(t, err)
	assert.True(t, shirt.HasVariants)
	assert.True(t, dec("8").Equal(shirt.CostPrice))
	assert.True(t, base.Equal(shirt.CreatedAt))
	require.Len(t, shirt.Variants, 2)

	variant, err := st.GetVariant(ctx, "shirt-l")
	require.NoError(t, err)
	assert.True(t, dec("2.5").Equal(variant.PriceAdjustment))

	_, err = st.GetProduct(ctx, "missing")
	assert.ErrorIs(t, err, shared.ErrNotFound)

	err = st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.InsertProduct(ctx, store.Product{ID: "dup", Name: "Dup", SKU: "SOAP-1", CreatedAt: base})
	})
	assert.ErrorIs(t, err, shared.ErrValidation)

	err = st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		p, err := tx.GetProductForUpdate(ctx, "soap")
		if err != nil {
			return err
		}
		p.Name = "Bar Soap"
		p.SellPrice = dec("16")
		p.Stock = 999
		if err := tx.UpdateProduct(ctx, p); err != nil {
			return err
		}
		v, err := tx.GetVariantForUpdate(ctx, "shirt-m")
		if err != nil {
			return err
		}
		return tx.UpdateVariantStock(ctx, v.ID, v.Stock-4)
	})
	require.NoError(t, err)

	soap, err := st.GetProduct(ctx, "soap")
	require.NoError(t, err)
	assert.Equal(t, "Bar Soap", soap.Name)
	assert.Equal(t, 7, soap.Stock)
	variant, err = st.GetVariant(ctx, "shirt-m")
	require.NoError(t, err)
	assert.Equal(t, 6, variant.Stock)

	customers, err := st.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	supplier, err := st.GetSupplier(ctx, "s1")
	require.NoError(t, err)
	assert.Equal(t, "acme@example.com", supplier.Email)

	err = st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.DeleteProduct(ctx, "shirt")
	})
	require.NoError(t, err)
	_, err = st.GetVariant(ctx, "shirt-m")
	assert.ErrorIs(t, err, shared.ErrNotFound)
	all, err := st.ListAllVariants(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	err = st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.DeleteProduct(ctx, "shirt")
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func testSalesOrders(t *testing.T, st store.Store) {
	ctx := context.Background()
	seedCatalog(t, st)

	err := st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		for i, id := range []string{"o1", "o2"} {
			if err := tx.InsertSalesOrder(ctx, store.SalesOrder{
				ID: id, CustomerID: "c1", CreatedAt: base.AddDate(0, 0, i), Status: store.SalesOrderStatusCompleted,
				Subtotal: dec("55"), TotalAmount: dec("55"),
			}); err != nil {
				return err
			}
		}
		return tx.InsertSalesItems(ctx, []store.SalesItem{
			{ID: "o1-2", OrderID: "o1", Position: 2, ProductID: "shirt", VariantID: strPtr("shirt-m"), Quantity: 2, UnitPrice: dec("20"), Subtotal: dec("40")},
			{ID: "o1-1", OrderID: "o1", Position: 1, ProductID: "soap", Quantity: 1, UnitPrice: dec("15"), Subtotal: dec("15")},
			{ID: "o2-1", OrderID: "o2", Position: 1, ProductID: "soap", Quantity: 1, UnitPrice: dec("15"), Subtotal: dec("15")},
		})
	})
	require.NoError(t, err)

	order, err := st.GetSalesOrder(ctx, "o1")
	require.NoError(t, err)
	assert.Equal(t, "Walk-in", order.CustomerName)
	assert.Equal(t, store.SalesOrderStatusCompleted, order.Status)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Soap", order.Items[0].ProductName)
	assert.Nil(t, order.Items[0].VariantID)
	assert.Equal(t, "Shirt", order.Items[1].ProductName)
	assert.Equal(t, "M", order.Items[1].VariantName)
	require.NotNil(t, order.Items[1].VariantID)
	assert.Equal(t, "shirt-m", *order.Items[1].VariantID)

	orders, err := st.ListSalesOrders(ctx, store.PeriodFilter{})
	require.NoError(t, err)
	require.Len(t, orders, 2)
	assert.Equal(t, "o2", orders[0].ID)
	assert.Len(t, orders[1].Items, 2)

	orders, err = st.ListSalesOrders(ctx, store.PeriodFilter{From: base, To: base.AddDate(0, 0, 1)})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "o1", orders[0].ID)

	err = st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.DeleteProduct(ctx, "soap")
	})
	assert.ErrorIs(t, err, shared.ErrValidation)

	err = st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.DeleteSalesOrder(ctx, "o1")
	})
	require.NoError(t, err)
	_, err = st.GetSalesOrder(ctx, "o1")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func testPurchaseOrders(t *testing.T, st store.Store) {
	ctx := context.Background()
	seedCatalog(t, st)

	err := st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.InsertPurchaseOrder(ctx, store.PurchaseOrder{ID: "po1", SupplierID: "s1", CreatedAt: base, TotalAmount: dec("80")}); err != nil {
			return err
		}
		return tx.InsertPurchaseItems(ctx, []store.PurchaseItem{
			{ID: "po1-1", OrderID: "po1", Position: 1, ProductID: "shirt", VariantID: strPtr("shirt-l"), Quantity: 10, UnitCost: dec("8"), LineTotal: dec("80")},
		})
	})
	require.NoError(t, err)

	order, err := st.GetPurchaseOrder(ctx, "po1")
	require.NoError(t, err)
	assert.Equal(t, "Acme", order.SupplierName)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "L", order.Items[0].VariantName)
	assert.True(t, dec("80").Equal(order.Items[0].LineTotal))

	orders, err := st.ListPurchaseOrders(ctx, store.PeriodFilter{From: base.AddDate(0, 0, 1)})
	require.NoError(t, err)
	assert.Empty(t, orders)

	err = st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.DeletePurchaseOrder(ctx, "po1")
	})
	require.NoError(t, err)
	err = st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.DeletePurchaseOrder(ctx, "po1")
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func testExpenses(t *testing.T, st store.Store) {
	ctx := context.Background()
	err := st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		for i, id := range []string{"e1", "e2", "e3"} {
			if err := tx.InsertExpense(ctx, store.Expense{
				ID: id, ExpenseDate: base.AddDate(0, i, 0), Category: "Rent", Amount: dec("20.50"), CreatedAt: base,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	expenses, err := st.ListExpenses(ctx, store.PeriodFilter{To: base.AddDate(0, 2, 0)})
	require.NoError(t, err)
	require.Len(t, expenses, 2)
	assert.Equal(t, "e2", expenses[0].ID)
	assert.True(t, dec("20.5").Equal(expenses[0].Amount))

	err = st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.DeleteExpense(ctx, "e2")
	})
	require.NoError(t, err)
	expenses, err = st.ListExpenses(ctx, store.PeriodFilter{})
	require.NoError(t, err)
	assert.Len(t, expenses, 2)
}

func testRollback(t *testing.T, st store.Store) {
	ctx := context.Background()
	seedCatalog(t, st)
	boom := errors.New("boom")

	err := st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.UpdateProductStock(ctx, "soap", 0); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	soap, err := st.GetProduct(ctx, "soap")
	require.NoError(t, err)
	assert.Equal(t, 7, soap.Stock)

	err = st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.UpdateProductStock(ctx, "missing", 1)
	})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
