package stock_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/stocksync/internal/domain/inventory"
	"github.com/rpggio/stocksync/internal/domain/stock"
	"github.com/rpggio/stocksync/internal/repository"
	"github.com/rpggio/stocksync/internal/repository/mocks"
)

func stored(id string, qty int, deleted bool) *stock.StoredItem {
	return &stock.StoredItem{Item: inventory.Item{ID: id, Name: "Widget", Quantity: qty, TenantID: "tenant1"}, Deleted: deleted}
}

func TestStockService_Create_LimitReached(t *testing.T) {
	ctx := context.Background()
	items := &mocks.ItemRepository{}
	items.On("CountActive", ctx, "tenant1").Return(int64(5), nil)

	svc := stock.NewService(items, &mocks.TransactionRepository{}, nil)
	_, err := svc.Create(ctx, "tenant1", "free", inventory.NewItem{Name: "Widget"})
	require.ErrorIs(t, err, stock.ErrSKULimitReached)
	require.EqualError(t, err, "SKU Limit reached (5). Please upgrade your plan to add more items.")
	items.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
}

func TestStockService_Create_DuplicateSKU(t *testing.T) {
	ctx := context.Background()
	items := &mocks.ItemRepository{}
	items.On("CountActive", ctx, "tenant1").Return(int64(1), nil)
	items.On("FindBySKU", ctx, "tenant1", "W-1").Return(stored("other", 1, false), nil)

	sku := " W-1 "
	svc := stock.NewService(items, &mocks.TransactionRepository{}, nil)
	_, err := svc.Create(ctx, "tenant1", "pro", inventory.NewItem{Name: "Widget", SKU: &sku})
	require.ErrorIs(t, err, stock.ErrDuplicateSKU)
	require.EqualError(t, err, "Product with SKU 'W-1' already exists.")
}

func TestStockService_Create(t *testing.T) {
	ctx := context.Background()
	items := &mocks.ItemRepository{}
	items.On("CountActive", ctx, "tenant1").Return(int64(4), nil)
	items.On("Create", ctx, "tenant1", mock.Anything).Return(nil)

	svc := stock.NewService(items, &mocks.TransactionRepository{}, nil)
	item, err := svc.Create(ctx, "tenant1", "free", inventory.NewItem{Name: " Widget ", Quantity: 3})
	require.NoError(t, err)
	require.NotEmpty(t, item.ID)
	require.Equal(t, "Widget", item.Name)
	require.Nil(t, item.SKU)
}

func TestStockService_RecordMovement(t *testing.T) {
	ctx := context.Background()
	items := &mocks.ItemRepository{}

	items.On("Get", ctx, "tenant1", "i1").Return(stored("i1", 10, false), nil)
	items.On("ApplyMovement", ctx, "tenant1", mock.MatchedBy(func(e *stock.Entry) bool {
		return e.QuantityChange == 5 && e.Type == inventory.TypeStockIn && *e.PerformedBy == "System" && e.ItemID == "i1" && *e.ItemName == "Widget"
	})).Return(stored("i1", 15, false), nil)

	svc := stock.NewService(items, &mocks.TransactionRepository{}, nil)
	item, err := svc.RecordMovement(ctx, "tenant1", "i1", inventory.MovementRequest{Amount: 5, Type: inventory.TypeStockIn, Reason: "Restock"})
	require.NoError(t, err)
	require.Equal(t, 15, item.Quantity)
	items.AssertExpectations(t)
}

func TestStockService_RecordMovement_Insufficient(t *testing.T) {
	ctx := context.Background()
	items := &mocks.ItemRepository{}
	items.On("Get", ctx, "tenant1", "i1").Return(stored("i1", 3, false), nil)
	items.On("ApplyMovement", ctx, "tenant1", mock.MatchedBy(func(e *stock.Entry) bool {
		return e.QuantityChange == -5
	})).Return(nil, fmt.Errorf("%w: 3 on hand", stock.ErrInsufficientStock))

	svc := stock.NewService(items, &mocks.TransactionRepository{}, nil)
	_, err := svc.RecordMovement(ctx, "tenant1", "i1", inventory.MovementRequest{Amount: 5, Type: inventory.TypeStockOut})
	require.ErrorIs(t, err, stock.ErrInsufficientStock)
}

func TestStockService_RecordMovement_ItemTrashedMeanwhile(t *testing.T) {
	ctx := context.Background()
	items := &mocks.ItemRepository{}
	items.On("Get", ctx, "tenant1", "i1").Return(stored("i1", 3, false), nil)
	items.On("ApplyMovement", ctx, "tenant1", mock.Anything).Return(nil, repository.ErrNotFound)

	svc := stock.NewService(items, &mocks.TransactionRepository{}, nil)
	_, err := svc.RecordMovement(ctx, "tenant1", "i1", inventory.MovementRequest{Amount: 1, Type: inventory.TypeStockIn})
	require.ErrorIs(t, err, inventory.ErrItemNotFound)
}

func TestStockService_Update_ReturnsCurrentQuantity(t *testing.T) {
	ctx := context.Background()
	items := &mocks.ItemRepository{}
	items.On("Get", ctx, "tenant1", "i1").Return(stored("i1", 3, false), nil).Once()
	items.On("Update", ctx, "tenant1", mock.MatchedBy(func(it *stock.StoredItem) bool {
		return it.Name == "Widget XL"
	})).Return(nil)
	items.On("Get", ctx, "tenant1", "i1").Return(stored("i1", 7, false), nil).Once()

	name := "Widget XL"
	svc := stock.NewService(items, &mocks.TransactionRepository{}, nil)
	item, err := svc.Update(ctx, "tenant1", "i1", inventory.ItemPatch{Name: &name})
	require.NoError(t, err)
	require.Equal(t, 7, item.Quantity)
	items.AssertExpectations(t)
}

func TestStockService_Delete_WritesLedgerRow(t *testing.T) {
	ctx := context.Background()
	items := &mocks.ItemRepository{}

	items.On("Get", ctx, "tenant1", "i1").Return(stored("i1", 3, false), nil)
	items.On("SetDeleted", ctx, "tenant1", "i1", mock.MatchedBy(func(by *string) bool {
		return by != nil && *by == "Admin"
	}), mock.MatchedBy(func(e *stock.Entry) bool {
		return e.Type == inventory.TypeDeleted && e.QuantityChange == 0 && e.Reason == "Item moved to recycle bin"
	})).Return(nil)

	svc := stock.NewService(items, &mocks.TransactionRepository{}, nil)
	require.NoError(t, svc.Delete(ctx, "tenant1", "i1", ""))
	items.AssertExpectations(t)
}

func TestStockService_LifecycleRules(t *testing.T) {
	ctx := context.Background()
	items := &mocks.ItemRepository{}
	txs := &mocks.TransactionRepository{}

	items.On("Get", ctx, "tenant1", "active").Return(stored("active", 1, false), nil)
	items.On("Get", ctx, "tenant1", "trashed").Return(stored("trashed", 1, true), nil)
	items.On("Get", ctx, "tenant1", "gone").Return(nil, repository.ErrNotFound)

	svc := stock.NewService(items, txs, nil)
	require.ErrorIs(t, svc.Delete(ctx, "tenant1", "trashed", "Ada"), inventory.ErrInvalidTransition)
	require.ErrorIs(t, svc.Restore(ctx, "tenant1", "active", "Ada"), stock.ErrNotTrashed)
	require.ErrorIs(t, svc.Purge(ctx, "tenant1", "active"), stock.ErrNotTrashed)
	require.ErrorIs(t, svc.Purge(ctx, "tenant1", "gone"), inventory.ErrItemNotFound)

	_, err := svc.RecordMovement(ctx, "tenant1", "trashed", inventory.MovementRequest{Amount: 1, Type: inventory.TypeStockIn})
	require.ErrorIs(t, err, inventory.ErrItemNotFound)
}

func TestStockService_Purge(t *testing.T) {
	ctx := context.Background()
	items := &mocks.ItemRepository{}

	items.On("Get", ctx, "tenant1", "i1").Return(stored("i1", 1, true), nil)
	items.On("Purge", ctx, "tenant1", "i1").Return(nil)

	svc := stock.NewService(items, &mocks.TransactionRepository{}, nil)
	require.NoError(t, svc.Purge(ctx, "tenant1", "i1"))
	items.AssertExpectations(t)
}

func TestLimitsFor(t *testing.T) {
	require.Equal(t, int64(5), stock.LimitsFor("free").MaxSKUs)
	require.Equal(t, 60, stock.LimitsFor("").RequestsPerMinute)
	require.Equal(t, int64(10000), stock.LimitsFor("Pro Monthly").MaxSKUs)
	require.True(t, stock.LimitsFor("test").Reports)
}

func TestWeeklySummary_RequiresPro(t *testing.T) {
	svc := stock.NewService(&mocks.ItemRepository{}, &mocks.TransactionRepository{}, nil)
	_, err := svc.WeeklySummary(context.Background(), "tenant1", "free", "Acme")
	require.ErrorIs(t, err, stock.ErrReportsNotIncluded)
}

func TestRenderPDF(t *testing.T) {
	pdf, err := stock.RenderPDF(stock.ReportSummary{OrgName: "Acme (East)", ActiveItems: 3})
	require.NoError(t, err)
	require.Equal(t, "%PDF-", string(pdf[:5]))
	require.Contains(t, string(pdf), "%%EOF")
}
