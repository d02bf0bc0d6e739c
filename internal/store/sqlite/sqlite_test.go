package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
	"github.com/odyssey-erp/odyssey-pos/internal/store/storetest"
)

func openMemory(t *testing.T) store.Store {
	t.Helper()
	st, err := Open(context.Background(), ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })
	return st
}

func TestStoreBehaviour(t *testing.T) {
	storetest.Run(t, openMemory)
}

func TestTimeEncodingSortsLexically(t *testing.T) {
	early := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	late := early.Add(1500 * time.Microsecond)
	assert.Less(t, formatTime(early), formatTime(late))
	assert.Equal(t, "2024-05-01T09:00:00.000000Z", formatTime(early))

	parsed, err := parseTime(formatTime(late))
	require.NoError(t, err)
	assert.True(t, late.Equal(parsed))

	jakarta := time.FixedZone("WIB", 7*3600)
	assert.Equal(t, "2024-05-01T02:00:00.000000Z", formatTime(time.Date(2024, 5, 1, 9, 0, 0, 0, jakarta)))
	assert.Nil(t, optionalTime(time.Time{}))
}

func TestMapError(t *testing.T) {
	assert.NoError(t, mapError("noop", nil))
	assert.ErrorIs(t, mapError("other", errors.New("disk I/O error")), shared.ErrStore)

	st := openMemory(t)
	ctx := context.Background()
	err := st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.InsertSalesOrder(ctx, store.SalesOrder{
			ID: "o1", CustomerID: "nobody", CreatedAt: time.Now(), Status: store.SalesOrderStatusCompleted,
		})
	})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

// 33000 orders need more bound variables than SQLite allows in one statement.
func TestListOrdersBeyondVariableLimit(t *testing.T) {
	orders := 33000
	if testing.Short() {
		orders = 2*lineBatchSize + 3
	}
	st := openMemory(t)
	ctx := context.Background()
	created := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	price := decimal.NewFromInt(15)

	err := st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.InsertCustomer(ctx, store.Customer{ID: "c1", Name: "Walk-in", CreatedAt: created}); err != nil {
			return err
		}
		if err := tx.InsertSupplier(ctx, store.Supplier{ID: "s1", Name: "Grosir", CreatedAt: created}); err != nil {
			return err
		}
		if err := tx.InsertProduct(ctx, store.Product{ID: "soap", Name: "Soap", SKU: "SOAP", CreatedAt: created}); err != nil {
			return err
		}
		for i := 0; i < orders; i++ {
			id := fmt.Sprintf("o%05d", i)
			at := created.Add(time.Duration(i) * time.Second)
			if err := tx.InsertSalesOrder(ctx, store.SalesOrder{
				ID: id, CustomerID: "c1", CreatedAt: at, Status: store.SalesOrderStatusCompleted,
				Subtotal: price, TotalAmount: price,
			}); err != nil {
				return err
			}
			if err := tx.InsertSalesItems(ctx, []store.SalesItem{
				{ID: id + "-1", OrderID: id, Position: 1, ProductID: "soap", Quantity: 1, UnitPrice: price, Subtotal: price},
			}); err != nil {
				return err
			}
		}
		for i := 0; i < 2*lineBatchSize+1; i++ {
			id := fmt.Sprintf("po%05d", i)
			if err := tx.InsertPurchaseOrder(ctx, store.PurchaseOrder{
				ID: id, SupplierID: "s1", CreatedAt: created.Add(time.Duration(i) * time.Second), TotalAmount: price,
			}); err != nil {
				return err
			}
			if err := tx.InsertPurchaseItems(ctx, []store.PurchaseItem{
				{ID: id + "-1", OrderID: id, Position: 1, ProductID: "soap", Quantity: 1, UnitCost: price, LineTotal: price},
			}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	sales, err := st.ListSalesOrders(ctx, store.PeriodFilter{})
	require.NoError(t, err)
	require.Len(t, sales, orders)
	for _, o := range sales {
		require.Len(t, o.Items, 1, o.ID)
	}
	assert.Equal(t, fmt.Sprintf("o%05d", orders-1), sales[0].ID)

	purchases, err := st.ListPurchaseOrders(ctx, store.PeriodFilter{})
	require.NoError(t, err)
	require.Len(t, purchases, 2*lineBatchSize+1)
	for _, o := range purchases {
		require.Len(t, o.Items, 1, o.ID)
	}
}
