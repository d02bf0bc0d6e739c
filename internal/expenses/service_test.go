package expenses

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
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/store/memory"
)

type countingNotifier struct{ n int }

func (c *countingNotifier) NotifyChange(context.Context, shared.ChangeEvent) { c.n++ }

func TestCreateListDelete(t *testing.T) {
	notifier := &countingNotifier{}
	svc := NewService(memory.New(), nil, nil, notifier)
	ctx := context.Background()

	rent, err := svc.Create(ctx, CreateExpenseInput{ExpenseDate: "2024-05-01", Category: "Rent", Amount: decimal.NewFromInt(500)})
	require.NoError(t, err)
	power, err := svc.Create(ctx, CreateExpenseInput{ExpenseDate: "2024-05-20", Category: "Utilities", Amount: decimal.RequireFromString("42.10")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, CreateExpenseInput{ExpenseDate: "2024-06-02", Category: "Rent", Amount: decimal.NewFromInt(500)})
	require.NoError(t, err)

	may, err := svc.List(ctx, ListRequest{
		From: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC),
		To:   time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	require.Len(t, may, 2)
	assert.Equal(t, power.ID, may[0].ID)
	assert.Equal(t, rent.ID, may[1].ID)
	assert.Equal(t, "542.1", Total(may).String())

	require.NoError(t, svc.Delete(ctx, rent.ID, "tester"))
	all, err := svc.List(ctx, ListRequest{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
	assert.ErrorIs(t, svc.Delete(ctx, rent.ID, "tester"), shared.ErrNotFound)
	assert.Equal(t, 4, notifier.n)
}

func TestCreateValidation(t *testing.T) {
	svc := NewService(memory.New(), nil, nil, nil)
	cases := []CreateExpenseInput{
		{ExpenseDate: "01/05/2024", Category: "Rent", Amount: decimal.NewFromInt(1)},
		{ExpenseDate: "2024-05-01", Category: " ", Amount: decimal.NewFromInt(1)},
		{ExpenseDate: "2024-05-01", Category: "Rent"},
		{ExpenseDate: "2024-05-01", Category: "Rent", Amount: decimal.NewFromInt(-3)},
	}
	for _, input := range cases {
		_, err := svc.Create(context.Background(), input)
		assert.ErrorIs(t, err, shared.ErrValidation)
	}
}

type failingAuditor struct{ err error }

func (a failingAuditor) Record(context.Context, shared.AuditLog) error { return a.err }

func TestAuditFailureIsLoggedNotReturned(t *testing.T) {
	var logs bytes.Buffer
	svc := NewService(memory.New(), slog.New(slog.NewTextHandler(&logs, nil)), failingAuditor{err: errors.New("audit sink offline")}, nil)

	_, err := svc.Create(context.Background(), CreateExpenseInput{ExpenseDate: "2024-05-01", Category: "Rent", Amount: decimal.NewFromInt(500)})
	require.NoError(t, err)
	assert.Contains(t, logs.String(), "audit record failed")
	assert.Contains(t, logs.String(), "expenses:create")
}

func TestHandlerRoutes(t *testing.T) {
	handler := NewHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), NewService(memory.New(), nil, nil, nil))
	r := chi.NewRouter()
	r.Route("/api/expenses", handler.MountRoutes)

	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]any{"expense_date": "2024-05-03", "category": "Rent", "amount": "250"}))
	rr := httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/expenses", &buf))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/expenses?from=2024-05-03&to=2024-05-03", nil))
	require.Equal(t, http.StatusOK, rr.Code)
	var list listResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &list))
	require.Len(t, list.Expenses, 1)
	assert.Equal(t, "250.00", list.Total)

	buf.Reset()
	require.NoError(t, json.NewEncoder(&buf).Encode(map[string]any{"expense_date": "tomorrow", "category": "Rent", "amount": "1"}))
	rr = httptest.NewRecorder()
	r.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/expenses", &buf))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
