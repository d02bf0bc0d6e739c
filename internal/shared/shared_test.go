package shared

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreErrorKeepsDomainErrors(t *testing.T) {
	assert.NoError(t, StoreError("op", nil))

	notFound := NotFoundf("product %s", "p1")
	assert.Same(t, notFound, StoreError("get product", notFound))

	wrapped := StoreError("insert sale", errors.New("disk full"))
	assert.ErrorIs(t, wrapped, ErrStore)
	assert.Contains(t, wrapped.Error(), "insert sale")
	assert.Equal(t, "storage temporarily unavailable", UserSafeMessage(wrapped))
}

func TestUserSafeMessage(t *testing.T) {
	stock := &InsufficientStockError{Name: "Soap", Requested: 5, Available: 2}
	assert.ErrorIs(t, stock, ErrInsufficientStock)
	assert.Equal(t, "insufficient stock for Soap: requested 5, available 2", UserSafeMessage(stock))
	assert.Equal(t, "validation failed: name is required", UserSafeMessage(Validationf("name is required")))
	assert.Equal(t, "internal error", UserSafeMessage(errors.New("boom")))
	assert.Empty(t, UserSafeMessage(nil))
}

func TestPagination(t *testing.T) {
	p := NewPagination(2, 2, 5)
	assert.Equal(t, Pagination{Page: 2, PerPage: 2, Total: 5, TotalPages: 3}, p)
	assert.Equal(t, []int{3, 4}, Page([]int{1, 2, 3, 4, 5}, p))

	p = NewPagination(9, 2, 5)
	assert.Empty(t, Page([]int{1, 2, 3, 4, 5}, p))

	req := httptest.NewRequest(http.MethodGet, "/api/sales?page=x&per_page=10000", nil)
	p = PaginationFromRequest(req, 10)
	assert.Equal(t, 1, p.Page)
	assert.Equal(t, maxPerPage, p.PerPage)
}

func TestNotifiersFanOut(t *testing.T) {
	var got []ChangeKind
	record := ChangeNotifierFunc(func(ctx context.Context, evt ChangeEvent) { got = append(got, evt.Kind) })
	Notifiers{record, nil, record}.NotifyChange(context.Background(), ChangeEvent{Kind: ChangeSales, EntityID: "o1"})
	assert.Equal(t, []ChangeKind{ChangeSales, ChangeSales}, got)
}

func TestActorMiddleware(t *testing.T) {
	var actor string
	h := ActorMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		actor = ActorFromContext(r.Context())
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(ActorHeader, "  cashier-2 ")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "cashier-2", actor)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, "anonymous", actor)
}

func TestSlogAuditor(t *testing.T) {
	var buf bytes.Buffer
	auditor := NewSlogAuditor(slog.New(slog.NewTextHandler(&buf, nil)))
	require.NoError(t, auditor.Record(context.Background(), AuditLog{
		Actor: "cashier-1", Action: "sale.created", Entity: "sales_order", EntityID: "o1",
	}))
	assert.Contains(t, buf.String(), "action=sale.created")
	assert.Error(t, auditor.Record(context.Background(), AuditLog{Action: "sale.created"}))
}

func TestRedisIdempotency(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	guard := NewRedisIdempotency(client, time.Minute)
	ctx := context.Background()

	require.NoError(t, guard.CheckAndInsert(ctx, "k1", "sales"))
	assert.ErrorIs(t, guard.CheckAndInsert(ctx, "k1", "sales"), ErrIdempotencyConflict)
	assert.NoError(t, guard.CheckAndInsert(ctx, "k1", "purchase"))

	require.NoError(t, guard.Delete(ctx, "k1", "sales"))
	assert.NoError(t, guard.CheckAndInsert(ctx, "k1", "sales"))

	mr.FastForward(2 * time.Minute)
	assert.NoError(t, guard.CheckAndInsert(ctx, "k1", "sales"))

	assert.Error(t, guard.CheckAndInsert(ctx, "", "sales"))
}
