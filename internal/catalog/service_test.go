package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/inventory"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/store"
	"github.com/odyssey-erp/odyssey-pos/internal/store/memory"
)

func dec(v string) decimal.Decimal { return decimal.RequireFromString(v) }

type recordingNotifier struct {
	events []shared.ChangeEvent
}

func (n *recordingNotifier) NotifyChange(_ context.Context, evt shared.ChangeEvent) {
	n.events = append(n.events, evt)
}

func newTestService(t *testing.T) (*Service, *memory.Store, *recordingNotifier) {
	t.Helper()
	st := memory.New()
	notifier := &recordingNotifier{}
	return NewService(st, inventory.NewLedger(nil), nil, nil, notifier), st, notifier
}

func TestCreateProductWithVariantsDerivesStock(t *testing.T) {
	svc, _, notifier := newTestService(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:      "Shirt",
		SKU:       "SHIRT",
		CostPrice: dec("8"),
		SellPrice: dec("20"),
		Stock:     99,
		Variants: []CreateVariantInput{
			{Name: "M", Stock: 10, PriceAdjustment: dec("2.5")},
			{Name: "L", Stock: 5},
		},
	})
	require.NoError(t, err)
	assert.True(t, product.HasVariants)
	assert.Equal(t, 15, product.Stock)
	require.Len(t, product.Variants, 2)
	for _, v := range product.Variants {
		assert.Contains(t, v.SKU, "SHIRT-")
	}
	require.Len(t, notifier.events, 1)
	assert.Equal(t, shared.ChangeCatalog, notifier.events[0].Kind)
}

func TestCreateProductValidation(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	cases := []CreateProductInput{
		{Name: " "},
		{Name: "Soap", Stock: -1},
		{Name: "Soap", SellPrice: dec("-1")},
		{Name: "Soap", Variants: []CreateVariantInput{{Name: ""}}},
	}
	for _, input := range cases {
		_, err := svc.CreateProduct(ctx, input)
		assert.ErrorIs(t, err, shared.ErrValidation)
	}

	_, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Soap", SKU: "DUP"})
	require.NoError(t, err)
	_, err = svc.CreateProduct(ctx, CreateProductInput{Name: "Other soap", SKU: "DUP"})
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestCreateProductGeneratesSKU(t *testing.T) {
	svc, _, _ := newTestService(t)
	product, err := svc.CreateProduct(context.Background(), CreateProductInput{Name: "Candle", Stock: 3})
	require.NoError(t, err)
	assert.Regexp(t, `^PRD-[0-9A-F]{8}$`, product.SKU)
	assert.False(t, product.HasVariants)
	assert.Equal(t, 3, product.Stock)
}

func TestAddVariant(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	empty, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Mug", SKU: "MUG"})
	require.NoError(t, err)
	variant, err := svc.AddVariant(ctx, empty.ID, CreateVariantInput{Name: "Blue", Stock: 4}, "tester")
	require.NoError(t, err)
	assert.Equal(t, empty.ID, variant.ProductID)

	reloaded, err := svc.GetProduct(ctx, empty.ID)
	require.NoError(t, err)
	assert.True(t, reloaded.HasVariants)
	assert.Equal(t, 4, reloaded.Stock)

	_, err = svc.AddVariant(ctx, empty.ID, CreateVariantInput{Name: "Red", Stock: 6}, "tester")
	require.NoError(t, err)
	reloaded, err = svc.GetProduct(ctx, empty.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, reloaded.Stock)

	stocked, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Plate", SKU: "PLATE", Stock: 7})
	require.NoError(t, err)
	_, err = svc.AddVariant(ctx, stocked.ID, CreateVariantInput{Name: "Large"}, "tester")
	assert.ErrorIs(t, err, shared.ErrValidation)

	_, err = svc.AddVariant(ctx, "missing", CreateVariantInput{Name: "Large"}, "tester")
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestUpdateProductKeepsStock(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Soap", SKU: "SOAP", SellPrice: dec("15"), Stock: 10})
	require.NoError(t, err)

	updated, err := svc.UpdateProduct(ctx, product.ID, UpdateProductInput{Name: "Lavender soap", SellPrice: dec("17.5"), CostPrice: dec("9")})
	require.NoError(t, err)
	assert.Equal(t, "Lavender soap", updated.Name)
	assert.Equal(t, "SOAP", updated.SKU)
	assert.True(t, dec("17.5").Equal(updated.SellPrice))
	assert.Equal(t, 10, updated.Stock)

	_, err = svc.UpdateProduct(ctx, "missing", UpdateProductInput{Name: "x"})
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestDeleteProductCascadesAndGuardsReferences(t *testing.T) {
	svc, st, _ := newTestService(t)
	ctx := context.Background()

	product, err := svc.CreateProduct(ctx, CreateProductInput{
		Name:     "Shirt",
		Variants: []CreateVariantInput{{Name: "M", Stock: 1}},
	})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteProduct(ctx, product.ID, "tester"))

	variants, err := st.ListAllVariants(ctx)
	require.NoError(t, err)
	assert.Empty(t, variants)
	_, err = svc.GetProduct(ctx, product.ID)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	sold, err := svc.CreateProduct(ctx, CreateProductInput{Name: "Soap", Stock: 5})
	require.NoError(t, err)
	customer, err := svc.CreateCustomer(ctx, PartyInput{Name: "Walk-in"})
	require.NoError(t, err)
	require.NoError(t, st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		if err := tx.InsertSalesOrder(ctx, store.SalesOrder{ID: "so", CustomerID: customer.ID, Status: store.SalesOrderStatusCompleted}); err != nil {
			return err
		}
		return tx.InsertSalesItems(ctx, []store.SalesItem{{ID: "si", OrderID: "so", Position: 1, ProductID: sold.ID, Quantity: 1}})
	}))
	err = svc.DeleteProduct(ctx, sold.ID, "tester")
	assert.ErrorIs(t, err, shared.ErrValidation)
}

func TestParties(t *testing.T) {
	svc, _, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.CreateCustomer(ctx, PartyInput{Name: "Zed"})
	require.NoError(t, err)
	_, err = svc.CreateCustomer(ctx, PartyInput{Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	customers, err := svc.ListCustomers(ctx)
	require.NoError(t, err)
	require.Len(t, customers, 2)
	assert.Equal(t, "Ana", customers[0].Name)

	_, err = svc.CreateSupplier(ctx, PartyInput{Name: ""})
	assert.ErrorIs(t, err, shared.ErrValidation)
	supplier, err := svc.CreateSupplier(ctx, PartyInput{Name: "Acme"})
	require.NoError(t, err)
	suppliers, err := svc.ListSuppliers(ctx)
	require.NoError(t, err)
	require.Len(t, suppliers, 1)
	assert.Equal(t, supplier.ID, suppliers[0].ID)
}

type failingAuditor struct{ err error }

func (a failingAuditor) Record(context.Context, shared.AuditLog) error { return a.err }

func TestAuditFailureIsLoggedNotReturned(t *testing.T) {
	var logs bytes.Buffer
	svc := NewService(memory.New(), inventory.NewLedger(nil), slog.New(slog.NewTextHandler(&logs, nil)),
		failingAuditor{err: errors.New("audit sink offline")}, nil)

	product, err := svc.CreateProduct(context.Background(), CreateProductInput{Name: "Soap", SellPrice: dec("3"), Stock: 4})
	require.NoError(t, err)
	assert.Equal(t, 4, product.Stock)
	assert.Contains(t, logs.String(), "audit record failed")
	assert.Contains(t, logs.String(), "audit sink offline")
}

func TestHandlerProductRoutes(t *testing.T) {
	svc, _, _ := newTestService(t)
	handler := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), svc)
	r := chi.NewRouter()
	r.Route("/api/products", handler.MountProductRoutes)
	r.Route("/api/customers", handler.MountCustomerRoutes)

	do := func(method, path string, body any) *httptest.ResponseRecorder {
		var buf bytes.Buffer
		if body != nil {
			require.NoError(t, json.NewEncoder(&buf).Encode(body))
		}
		req := httptest.NewRequest(method, path, &buf)
		rr := httptest.NewRecorder()
		r.ServeHTTP(rr, req)
		return rr
	}

	rr := do(http.MethodPost, "/api/products", map[string]any{"name": "Soap", "sku": "SOAP", "sell_price": "15", "stock": 4})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var created store.Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))

	rr = do(http.MethodPost, "/api/products/"+created.ID+"/variants", map[string]any{"name": "Mini"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(http.MethodGet, "/api/products", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var products []store.Product
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &products))
	require.Len(t, products, 1)

	rr = do(http.MethodPost, "/api/customers", map[string]any{"name": "Ana", "email": "not-an-email"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(http.MethodDelete, "/api/products/"+created.ID, nil)
	assert.Equal(t, http.StatusNoContent, rr.Code)
	rr = do(http.MethodGet, "/api/products/"+created.ID, nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}
