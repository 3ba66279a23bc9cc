package inventory_test

import (
	"encoding/json"
	"testing"

	"github.com/rpggio/stocksync/internal/domain/inventory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func TestMovementRequest_Delta(t *testing.T) {
	require.Equal(t, 5, inventory.MovementRequest{Amount: 5, Type: inventory.TypeStockIn}.Delta())
	require.Equal(t, -5, inventory.MovementRequest{Amount: 5, Type: inventory.TypeStockOut}.Delta())
	require.Equal(t, -5, inventory.MovementRequest{Amount: -5, Type: inventory.TypeStockOut}.Delta())
}

func TestItemPatch_ApplyDoesNotAlias(t *testing.T) {
	sku := "A-1"
	item := inventory.Item{ID: "a", Name: "Widget", SKU: &sku, Quantity: 3}

	name := "Gadget"
	newSKU := "B-2"
	price := decimal.RequireFromString("4.50")
	out := inventory.ItemPatch{Name: &name, SKU: &newSKU, Price: &price}.Apply(item)

	require.Equal(t, "Gadget", out.Name)
	require.Equal(t, "B-2", out.SKUValue())
	require.True(t, out.Price.Equal(price))
	require.Equal(t, 3, out.Quantity)
	require.Equal(t, "A-1", item.SKUValue())
	require.Equal(t, "Widget", item.Name)
}

func TestItem_IsLowStock(t *testing.T) {
	require.True(t, inventory.Item{Quantity: 2, MinThreshold: 2}.IsLowStock())
	require.False(t, inventory.Item{Quantity: 3, MinThreshold: 2}.IsLowStock())
	require.False(t, inventory.Item{Quantity: 0, MinThreshold: 0}.IsLowStock())
}

func TestTransaction_DecodesZonelessTimestamp(t *testing.T) {
	body := `{"id":"t1","quantityChange":5,"type":"STOCK_IN","reason":"Restock","createdAt":"2026-01-31T10:15:30.123456"}`
	var tx inventory.Transaction
	require.NoError(t, json.Unmarshal([]byte(body), &tx))
	require.Equal(t, 2026, tx.CreatedAt.Year())
	require.Nil(t, tx.ItemName)
	require.Nil(t, tx.PerformedBy)

	body = `{"id":"t2","quantityChange":0,"type":"DELETED","reason":"x","itemName":"Widget","createdAt":"2026-01-31T10:15:30Z"}`
	require.NoError(t, json.Unmarshal([]byte(body), &tx))
	require.NotNil(t, tx.ItemName)
	require.Equal(t, "Widget", *tx.ItemName)
}

func TestValidateMovement(t *testing.T) {
	require.NoError(t, inventory.ValidateMovement(inventory.MovementRequest{Amount: 1, Type: inventory.TypeStockOut}))
	require.ErrorIs(t, inventory.ValidateMovement(inventory.MovementRequest{Amount: 0, Type: inventory.TypeStockIn}), inventory.ErrInvalidAmount)
	require.ErrorIs(t, inventory.ValidateMovement(inventory.MovementRequest{Amount: 1, Type: inventory.TypeDeleted}), inventory.ErrInvalidMovementType)
}

func TestValidateNewItem(t *testing.T) {
	require.NoError(t, inventory.ValidateNewItem(inventory.NewItem{Name: "Widget", Quantity: 0}))
	require.ErrorIs(t, inventory.ValidateNewItem(inventory.NewItem{Name: " ", Quantity: 1}), inventory.ErrInvalidInput)
	require.ErrorIs(t, inventory.ValidateNewItem(inventory.NewItem{Name: "Widget", Quantity: -1}), inventory.ErrInvalidInput)
}
