package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odyssey-erp/odyssey-pos/internal/store"
	"github.com/odyssey-erp/odyssey-pos/internal/store/storetest"
)

func TestStoreBehaviour(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Store { return New() })
}

func TestReadsOutsideTxSeePublishedState(t *testing.T) {
	st := New()
	ctx := context.Background()
	require.NoError(t, st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		return tx.InsertProduct(ctx, store.Product{ID: "p1", Name: "Soap", Stock: 3})
	}))

	err := st.WithTx(ctx, func(ctx context.Context, tx store.Tx) error {
		require.NoError(t, tx.UpdateProductStock(ctx, "p1", 9))
		inTx, err := tx.GetProduct(ctx, "p1")
		require.NoError(t, err)
		assert.Equal(t, 9, inTx.Stock)
		return nil
	})
	require.NoError(t, err)

	p, err := st.GetProduct(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 9, p.Stock)
}

func TestWithTxHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	called := false
	err := New().WithTx(ctx, func(context.Context, store.Tx) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}
