package sales

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/store"
)

func newTestRouter(t *testing.T, cfg ServiceConfig) (http.Handler, store.Store) {
	t.Helper()
	st := newFixtureStore(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	handler := NewHandler(logger, newTestService(st, cfg))
	r := chi.NewRouter()
	r.Route("/api/sales", handler.MountRoutes)
	return r, st
}

func doJSON(t *testing.T, h http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHandlerCreateListDelete(t *testing.T) {
	router, st := newTestRouter(t, ServiceConfig{EnforceStockCheck: true})

	rr := doJSON(t, router, http.MethodPost, "/api/sales", map[string]any{
		"customer_id":  "c1",
		"total_amount": "45",
		"items":        []map[string]any{{"product_id": "p", "quantity": 3, "unit_amount": "15"}},
	}, map[string]string{"X-Actor": "till-2"})
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created store.SalesOrder
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.Equal(t, 7, productStock(t, st, "p"))

	rr = doJSON(t, router, http.MethodGet, "/api/sales?from=2024-05-01&to=2024-05-01", nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var list listResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Orders, 1)
	assert.Equal(t, created.ID, list.Orders[0].ID)
	assert.Equal(t, 1, list.Pagination.Total)

	rr = doJSON(t, router, http.MethodGet, "/api/sales/"+created.ID, nil, nil)
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, router, http.MethodDelete, "/api/sales/"+created.ID, nil, nil)
	require.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, 10, productStock(t, st, "p"))

	rr = doJSON(t, router, http.MethodDelete, "/api/sales/"+created.ID, nil, nil)
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlerErrorMapping(t *testing.T) {
	router, _ := newTestRouter(t, ServiceConfig{EnforceStockCheck: true})

	rr := doJSON(t, router, http.MethodPost, "/api/sales", map[string]any{
		"customer_id": "c1",
		"items":       []map[string]any{{"product_id": "p", "quantity": 0}},
	}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, router, http.MethodPost, "/api/sales", map[string]any{
		"customer_id": "c1",
		"items":       []map[string]any{{"product_id": "p", "quantity": 11}},
	}, nil)
	require.Equal(t, http.StatusConflict, rr.Code)
	var problem map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &problem))
	assert.Equal(t, "p", problem["product_id"])
	assert.EqualValues(t, 10, problem["available"])

	rr = doJSON(t, router, http.MethodPost, "/api/sales", map[string]any{"customer_id": "c1", "bogus": true}, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doJSON(t, router, http.MethodGet, "/api/sales?from=yesterday", nil, nil)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestHandlerStockCheck(t *testing.T) {
	router, _ := newTestRouter(t, ServiceConfig{})

	rr := doJSON(t, router, http.MethodPost, "/api/sales/stock-check", map[string]any{
		"items": []map[string]any{{"product_id": "shirt", "variant_id": "v1", "quantity": 3}},
	}, nil)
	require.Equal(t, http.StatusOK, rr.Code)
	var result StockCheckResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &result))
	assert.True(t, result.OK)
	require.Len(t, result.Items, 1)
	assert.Equal(t, 10, result.Items[0].Available)
}
