package procurement

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/catalog"
	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
	"github.com/odyssey-erp/odyssey-pos/internal/store/memory"
)

func strPtr(s string) *string { return &s }

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

func discardLogger() *slog.Logger { return slog.New(slog.NewTextHandler(io.Discard, nil)) }

func newFixtureStore(t *testing.T) *memory.Store {
	t.Helper()
	st := memory.New()
	err := st.WithTx(context.Background(), func(ctx context.Context, tx store.Tx) error {
		if err := tx.InsertSupplier(ctx, store.Supplier{ID: "s1", Name: "Acme"}); err != nil {
			return err
		}
		products := []store.Product{
			{ID: "p", Name: "Soap", SKU: "SOAP", SellPrice: dec("15"), CostPrice: dec("9"), Stock: 10},
			{ID: "shirt", Name: "Shirt", SKU: "SHIRT", SellPrice: dec("20"), CostPrice: dec("8"), Stock: 15, HasVariants: true},
		}
		for _, p := range products {
			if err := tx.InsertProduct(ctx, p); err != nil {
				return err
			}
		}
		for _, v := range []store.Variant{
			{ID: "v1", ProductID: "shirt", Name: "M", Stock: 10},
			{ID: "v2", ProductID: "shirt", Name: "L", Stock: 5},
		} {
			if err := tx.InsertVariant(ctx, v); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
	return st
}

func newTestService(st store.Store) *Service {
	ledger := inventory.NewLedger(nil)
	products := catalog.NewService(st, ledger, discardLogger(), nil, nil)
	return NewService(st, ledger, products, discardLogger(), ServiceConfig{
		Now: func() time.Time { return time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC) },
	})
}

func stockOf(t *testing.T, st store.Store, productID string) int {
	t.Helper()
	p, err := st.GetProduct(context.Background(), productID)
	require.NoError(t, err)
	return p.Stock
}

func variantStock(t *testing.T, st store.Store, variantID string) int {
	t.Helper()
	v, err := st.GetVariant(context.Background(), variantID)
	require.NoError(t, err)
	return v.Stock
}

func TestCreatePurchaseOrderAddsVariantStock(t *testing.T) {
	st := newFixtureStore(t)
	svc := newTestService(st)
	ctx := context.Background()

	order, err := svc.CreatePurchaseOrder(ctx, CreatePurchaseOrderInput{
		SupplierID: "s1",
		Items: []inventory.LineItem{
			{ProductID: "shirt", VariantID: strPtr("v1"), Quantity: 5, UnitAmount: dec("7.50")},
			{ProductID: "p", Quantity: 2, UnitAmount: dec("9")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 15, variantStock(t, st, "v1"))
	assert.Equal(t, 5, variantStock(t, st, "v2"))
	assert.Equal(t, 20, stockOf(t, st, "shirt"))
	assert.Equal(t, 12, stockOf(t, st, "p"))

	assert.True(t, dec("55.50").Equal(order.TotalAmount), order.TotalAmount.String())
	assert.Equal(t, "Acme", order.SupplierName)
	require.Len(t, order.Items, 2)
	for _, item := range order.Items {
		assert.True(t, item.UnitCost.Mul(decimal.NewFromInt(int64(item.Quantity))).Equal(item.LineTotal))
	}
}

func TestPurchaseOrderRoundTripIsStockNeutral(t *testing.T) {
	st := newFixtureStore(t)
	svc := newTestService(st)
	ctx := context.Background()

	order, err := svc.CreatePurchaseOrder(ctx, CreatePurchaseOrderInput{
		SupplierID: "s1",
		Items: []inventory.LineItem{
			{ProductID: "shirt", VariantID: strPtr("v2"), Quantity: 4},
			{ProductID: "p", Quantity: 3, UnitAmount: dec("1")},
		},
	})
	require.NoError(t, err)
	require.NoError(t, svc.DeletePurchaseOrder(ctx, order.ID, "tester"))

	assert.Equal(t, 10, stockOf(t, st, "p"))
	assert.Equal(t, 15, stockOf(t, st, "shirt"))
	assert.Equal(t, 5, variantStock(t, st, "v2"))

	_, err = svc.GetPurchaseOrder(ctx, order.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)
	err = svc.DeletePurchaseOrder(ctx, order.ID, "tester")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestCreatePurchaseOrderRejects(t *testing.T) {
	st := newFixtureStore(t)
	svc := newTestService(st)
	ctx := context.Background()

	cases := []struct {
		name  string
		input CreatePurchaseOrderInput
		err   error
	}{
		{"no supplier", CreatePurchaseOrderInput{Items: []inventory.LineItem{{ProductID: "p", Quantity: 1}}}, shared.ErrValidation},
		{"no items", CreatePurchaseOrderInput{SupplierID: "s1"}, shared.ErrValidation},
		{"zero quantity", CreatePurchaseOrderInput{SupplierID: "s1", Items: []inventory.LineItem{{ProductID: "p"}}}, shared.ErrValidation},
		{"negative cost", CreatePurchaseOrderInput{SupplierID: "s1", Items: []inventory.LineItem{{ProductID: "p", Quantity: 1, UnitAmount: dec("-1")}}}, shared.ErrValidation},
		{"unknown supplier", CreatePurchaseOrderInput{SupplierID: "nope", Items: []inventory.LineItem{{ProductID: "p", Quantity: 1}}}, shared.ErrNotFound},
		{"unknown product", CreatePurchaseOrderInput{SupplierID: "s1", Items: []inventory.LineItem{{ProductID: "ghost", Quantity: 1}}}, shared.ErrNotFound},
		{"variant required", CreatePurchaseOrderInput{SupplierID: "s1", Items: []inventory.LineItem{{ProductID: "shirt", Quantity: 1}}}, shared.ErrValidation},
		{"foreign variant", CreatePurchaseOrderInput{SupplierID: "s1", Items: []inventory.LineItem{{ProductID: "p", VariantID: strPtr("v1"), Quantity: 1}}}, shared.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.CreatePurchaseOrder(ctx, tc.input)
			assert.ErrorIs(t, err, tc.err)
			assert.Equal(t, 10, stockOf(t, st, "p"))
			assert.Equal(t, 15, stockOf(t, st, "shirt"))
		})
	}
}

func TestInlineProductCanBePurchased(t *testing.T) {
	st := newFixtureStore(t)
	svc := newTestService(st)
	ctx := context.Background()

	plain, err := svc.CreateInlineProduct(ctx, InlineProductInput{Name: "Towel", CostPrice: dec("4"), SellPrice: dec("9")})
	require.NoError(t, err)
	assert.Nil(t, plain.VariantID)
	assert.NotEmpty(t, plain.SKU)

	withVariant, err := svc.CreateInlineProduct(ctx, InlineProductInput{Name: "Cap", VariantName: "Red"})
	require.NoError(t, err)
	require.NotNil(t, withVariant.VariantID)
	assert.Equal(t, 0, stockOf(t, st, withVariant.ProductID))

	_, err = svc.CreatePurchaseOrder(ctx, CreatePurchaseOrderInput{
		SupplierID: "s1",
		Items: []inventory.LineItem{
			{ProductID: plain.ProductID, Quantity: 6, UnitAmount: dec("4")},
			{ProductID: withVariant.ProductID, VariantID: withVariant.VariantID, Quantity: 3, UnitAmount: dec("2")},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 6, stockOf(t, st, plain.ProductID))
	assert.Equal(t, 3, stockOf(t, st, withVariant.ProductID))
	assert.Equal(t, 3, variantStock(t, st, *withVariant.VariantID))

	_, err = svc.CreateInlineProduct(ctx, InlineProductInput{Name: ""})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestListPurchaseOrders(t *testing.T) {
	st := newFixtureStore(t)
	svc := newTestService(st)
	ctx := context.Background()

	clock := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return clock }
	first, err := svc.CreatePurchaseOrder(ctx, CreatePurchaseOrderInput{SupplierID: "s1", Items: []inventory.LineItem{{ProductID: "p", Quantity: 1}}})
	require.NoError(t, err)
	clock = clock.AddDate(0, 0, 2)
	second, err := svc.CreatePurchaseOrder(ctx, CreatePurchaseOrderInput{SupplierID: "s1", Items: []inventory.LineItem{{ProductID: "p", Quantity: 1}}})
	require.NoError(t, err)

	all, err := svc.ListPurchaseOrders(ctx, ListPurchaseOrdersRequest{})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, second.ID, all[0].ID)
	assert.Equal(t, first.ID, all[1].ID)

	firstDay, err := svc.ListPurchaseOrders(ctx, ListPurchaseOrdersRequest{
		From: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, firstDay, 1)
	assert.Equal(t, first.ID, firstDay[0].ID)

	_, err = svc.ListPurchaseOrders(ctx, ListPurchaseOrdersRequest{From: clock, To: clock.AddDate(0, 0, -1)})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestHandlerPurchaseOrderRoutes(t *testing.T) {
	st := newFixtureStore(t)
	handler := NewHandler(discardLogger(), newTestService(st))
	r := chi.NewRouter()
	r.Route("/api/purchase-orders", handler.MountRoutes)

	do := func(method, path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, httptest.NewRequest(method, path, &buf))
		return rr
	}

	rr := do(http.MethodPost, "/api/purchase-orders", map[string]any{
		"supplier_id": "s1",
		"items":       []map[string]any{{"product_id": "shirt", "variant_id": "v1", "quantity": 5, "unit_amount": "3"}},
	})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created store.PurchaseOrder
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, 20, stockOf(t, st, "shirt"))

	rr = do(http.MethodGet, "/api/purchase-orders", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list listResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Orders, 1)

	rr = do(http.MethodPost, "/api/purchase-orders/inline-products", map[string]any{"name": "Scarf", "variant_name": "Wool"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var inline InlineProductResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &inline))
	assert.NotNil(t, inline.VariantID)

	rr = do(http.MethodDelete, "/api/purchase-orders/"+created.ID, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 15, stockOf(t, st, "shirt"))

	rr = do(http.MethodGet, "/api/purchase-orders/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
