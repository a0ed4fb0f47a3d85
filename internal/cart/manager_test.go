package cart_test

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/angelmondragon/storefront/internal/cart"
	"github.com/angelmondragon/storefront/internal/catalog"
	"github.com/angelmondragon/storefront/pkg/kv"
	"github.com/angelmondragon/storefront/pkg/logger"
)

const cartKey = "cartItems"

func newTestLogger() *logger.Logger {
	return logger.New(logger.Options{ServiceName: "test", Output: &bytes.Buffer{}})
}

func newManager(t *testing.T, store kv.Store) *cart.Manager {
	t.Helper()
	mgr, err := cart.NewManager(context.Background(), store, cartKey, newTestLogger(), nil)
	require.NoError(t, err)
	return mgr
}

func product(id int64, price string) catalog.Product {
	return catalog.Product{
		ID:       id,
		Title:    "Product",
		Price:    decimal.RequireFromString(price),
		Category: "test",
	}
}

func TestAddAccumulatesIntoOneLine(t *testing.T) {
	ctx := context.Background()
	mgr := newManager(t, kv.NewMemory())
	p := product(1, "10.00")

	require.NoError(t, mgr.Add(ctx, p, 2))
	require.NoError(t, mgr.Add(ctx, p, 3))

	lines := mgr.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 5, lines[0].Quantity)
	assert.Equal(t, 5, mgr.Count())
	assert.True(t, mgr.Total().Equal(decimal.RequireFromString("50.00")))
}

func TestAddKeepsInsertionOrder(t *testing.T) {
	ctx := context.Background()
	mgr := newManager(t, kv.NewMemory())

	require.NoError(t, mgr.Add(ctx, product(3, "1.00"), 1))
	require.NoError(t, mgr.Add(ctx, product(1, "1.00"), 1))
	require.NoError(t, mgr.Add(ctx, product(2, "1.00"), 1))
	require.NoError(t, mgr.Add(ctx, product(1, "1.00"), 1))

	lines := mgr.Lines()
	require.Len(t, lines, 3)
	assert.Equal(t, int64(3), lines[0].ID)
	assert.Equal(t, int64(1), lines[1].ID)
	assert.Equal(t, int64(2), lines[2].ID)
}

func TestUpdateQuantityReplaces(t *testing.T) {
	ctx := context.Background()
	mgr := newManager(t, kv.NewMemory())
	require.NoError(t, mgr.Add(ctx, product(1, "2.50"), 4))

	require.NoError(t, mgr.UpdateQuantity(ctx, 1, "2"))
	lines := mgr.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 2, lines[0].Quantity)
}

func TestUpdateQuantityInvalidValuesRemove(t *testing.T) {
	ctx := context.Background()

	for _, raw := range []string{"0", "-3", "abc", "", "1.5"} {
		mgr := newManager(t, kv.NewMemory())
		require.NoError(t, mgr.Add(ctx, product(1, "2.50"), 4))
		require.NoError(t, mgr.UpdateQuantity(ctx, 1, raw))
		assert.Emptyf(t, mgr.Lines(), "raw=%q should remove the line", raw)
	}
}

func TestUpdateQuantityUnknownIDNoop(t *testing.T) {
	ctx := context.Background()
	mgr := newManager(t, kv.NewMemory())
	require.NoError(t, mgr.Add(ctx, product(1, "2.50"), 4))

	require.NoError(t, mgr.UpdateQuantity(ctx, 99, "7"))
	lines := mgr.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 4, lines[0].Quantity)
}

func TestRemoveMissingLeavesCartUnchanged(t *testing.T) {
	ctx := context.Background()
	mgr := newManager(t, kv.NewMemory())
	require.NoError(t, mgr.Add(ctx, product(1, "2.50"), 1))

	require.NoError(t, mgr.Remove(ctx, 42))
	assert.Len(t, mgr.Lines(), 1)
}

func TestClearPersistsEmptyCollection(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	mgr := newManager(t, store)
	require.NoError(t, mgr.Add(ctx, product(1, "2.50"), 3))

	require.NoError(t, mgr.Clear(ctx))
	assert.Zero(t, mgr.Count())

	raw, err := store.Get(ctx, cartKey)
	require.NoError(t, err)
	var persisted []cart.Line
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	assert.Empty(t, persisted)
}

func TestCartSurvivesRestart(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	mgr := newManager(t, store)
	require.NoError(t, mgr.Add(ctx, product(1, "10.00"), 2))
	require.NoError(t, mgr.Add(ctx, product(2, "5.25"), 1))

	reloaded := newManager(t, store)
	require.Len(t, reloaded.Lines(), 2)
	assert.Equal(t, 3, reloaded.Count())
	assert.True(t, reloaded.Total().Equal(decimal.RequireFromString("25.25")))
}

func TestCorruptStoredCartStartsEmpty(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	require.NoError(t, store.Set(ctx, cartKey, "{definitely not json"))

	mgr := newManager(t, store)
	assert.Empty(t, mgr.Lines())

	// The container stays usable and the next write replaces the junk.
	require.NoError(t, mgr.Add(ctx, product(1, "1.00"), 1))
	raw, err := store.Get(ctx, cartKey)
	require.NoError(t, err)
	var persisted []cart.Line
	require.NoError(t, json.Unmarshal([]byte(raw), &persisted))
	require.Len(t, persisted, 1)
}

func TestAddQuantityPassesThroughArithmetically(t *testing.T) {
	// Quantity is not validated on add; a non-positive value flows into the
	// line arithmetic as given.
	ctx := context.Background()
	mgr := newManager(t, kv.NewMemory())
	p := product(1, "1.00")

	require.NoError(t, mgr.Add(ctx, p, 2))
	require.NoError(t, mgr.Add(ctx, p, -1))

	lines := mgr.Lines()
	require.Len(t, lines, 1)
	assert.Equal(t, 1, lines[0].Quantity)
}

func TestInterleavedMutationsAlwaysDeserializable(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemory()
	mgr := newManager(t, store)

	ops := []func() error{
		func() error { return mgr.Add(ctx, product(1, "3.00"), 1) },
		func() error { return mgr.Clear(ctx) },
		func() error { return mgr.Add(ctx, product(2, "4.00"), 2) },
		func() error { return mgr.UpdateQuantity(ctx, 2, "5") },
		func() error { return mgr.Add(ctx, product(1, "3.00"), 3) },
		func() error { return mgr.Remove(ctx, 2) },
		func() error { return mgr.Clear(ctx) },
	}
	for i, op := range ops {
		require.NoError(t, op())
		raw, err := store.Get(ctx, cartKey)
		require.NoError(t, err)
		var persisted []cart.Line
		require.NoErrorf(t, json.Unmarshal([]byte(raw), &persisted), "op %d left undeserializable cart", i)
	}
}

func TestLineSubtotal(t *testing.T) {
	line := cart.Line{Product: product(1, "10.00"), Quantity: 3}
	assert.True(t, line.Subtotal().Equal(decimal.RequireFromString("30.00")))
}
