package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/stocksync/internal/domain/inventory"
	"github.com/rpggio/stocksync/internal/domain/stock"
	"github.com/rpggio/stocksync/internal/repository"
)

func ledgerEntry(itemID, id string, delta int, typ inventory.TransactionType, at time.Time) *stock.Entry {
	actor := "Ada"
	name := "Widget"
	return &stock.Entry{
		Transaction: inventory.Transaction{
			ID:             id,
			QuantityChange: delta,
			Type:           typ,
			Reason:         "test",
			PerformedBy:    &actor,
			ItemName:       &name,
			CreatedAt:      inventory.Timestamp{Time: at},
		},
		ItemID: itemID,
	}
}

func TestTransactionRepository_LogList(t *testing.T) {
	db := NewTestDB(t)
	items := NewItemRepository(db)
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	insertItem(t, items, "tenant1", "i1", "Widget", 5, nil)
	insertItem(t, items, "tenant1", "i2", "Gadget", 5, nil)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	_, err := items.ApplyMovement(ctx, "tenant1", ledgerEntry("i1", "t1", 5, inventory.TypeStockIn, base))
	require.NoError(t, err)
	moved, err := items.ApplyMovement(ctx, "tenant1", ledgerEntry("i1", "t2", -2, inventory.TypeStockOut, base.Add(time.Minute)))
	require.NoError(t, err)
	require.Equal(t, 8, moved.Quantity)
	require.NoError(t, items.SetDeleted(ctx, "tenant1", "i2", strPtr("Ada"), ledgerEntry("i2", "t3", 0, inventory.TypeDeleted, base.Add(2*time.Minute))))

	history, err := repo.ListByItem(ctx, "tenant1", "i1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	require.Equal(t, "t2", history[0].ID)
	require.Equal(t, -2, history[0].QuantityChange)
	require.Equal(t, inventory.TypeStockOut, history[0].Type)
	require.Equal(t, "Ada", *history[0].PerformedBy)
	require.Equal(t, "Widget", *history[0].ItemName)

	recent, err := repo.ListRecent(ctx, "tenant1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	require.Equal(t, "t3", recent[0].ID)

	all, err := repo.ListRecent(ctx, "tenant1", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	other, err := repo.ListRecent(ctx, "tenant2", 10)
	require.NoError(t, err)
	require.Empty(t, other)

	require.NoError(t, items.Purge(ctx, "tenant1", "i2"))
	history, err = repo.ListByItem(ctx, "tenant1", "i2")
	require.NoError(t, err)
	require.Empty(t, history)
}

func TestItemRepository_ApplyMovementRejects(t *testing.T) {
	db := NewTestDB(t)
	items := NewItemRepository(db)
	repo := NewTransactionRepository(db)
	ctx := context.Background()
	now := time.Now()

	insertItem(t, items, "tenant1", "i1", "Widget", 3, nil)

	_, err := items.ApplyMovement(ctx, "tenant1", ledgerEntry("i1", "t1", -4, inventory.TypeStockOut, now))
	require.ErrorIs(t, err, stock.ErrInsufficientStock)

	_, err = items.ApplyMovement(ctx, "tenant2", ledgerEntry("i1", "t2", 1, inventory.TypeStockIn, now))
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, items.SetDeleted(ctx, "tenant1", "i1", strPtr("Ada"), nil))
	_, err = items.ApplyMovement(ctx, "tenant1", ledgerEntry("i1", "t3", 1, inventory.TypeStockIn, now))
	require.ErrorIs(t, err, repository.ErrNotFound)

	history, err := repo.ListByItem(ctx, "tenant1", "i1")
	require.NoError(t, err)
	require.Empty(t, history, "rejected movements leave no ledger rows")

	got, err := items.Get(ctx, "tenant1", "i1")
	require.NoError(t, err)
	require.Equal(t, 3, got.Quantity)
}

func TestItemRepository_LedgerFailureKeepsQuantity(t *testing.T) {
	db := NewTestDB(t)
	items := NewItemRepository(db)
	ctx := context.Background()

	insertItem(t, items, "tenant1", "i1", "Widget", 3, nil)
	_, err := items.ApplyMovement(ctx, "tenant1", ledgerEntry("i1", "t1", 1, inventory.TypeStockIn, time.Now()))
	require.NoError(t, err)

	// Reusing the ledger id fails the insert after the quantity update.
	_, err = items.ApplyMovement(ctx, "tenant1", ledgerEntry("i1", "t1", 1, inventory.TypeStockIn, time.Now()))
	require.Error(t, err)

	got, err := items.Get(ctx, "tenant1", "i1")
	require.NoError(t, err)
	require.Equal(t, 4, got.Quantity)
}
