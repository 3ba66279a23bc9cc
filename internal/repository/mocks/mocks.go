package mocks

import (
	"context"
	"time"

	"github.com/rpggio/stocksync/internal/domain/inventory"
	"github.com/rpggio/stocksync/internal/domain/stock"
	"github.com/rpggio/stocksync/internal/repository"
	"github.com/rpggio/stocksync/internal/tenant"
	"github.com/stretchr/testify/mock"
)

// ItemRepository is a mock for stock.ItemRepository.
type ItemRepository struct {
	mock.Mock
}

func (m *ItemRepository) Create(ctx context.Context, tenantID string, item *stock.StoredItem) error {
	args := m.Called(ctx, tenantID, item)
	return args.Error(0)
}

func (m *ItemRepository) Get(ctx context.Context, tenantID, id string) (*stock.StoredItem, error) {
	args := m.Called(ctx, tenantID, id)
	if item, ok := args.Get(0).(*stock.StoredItem); ok {
		return item, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ItemRepository) Update(ctx context.Context, tenantID string, item *stock.StoredItem) error {
	args := m.Called(ctx, tenantID, item)
	return args.Error(0)
}

func (m *ItemRepository) ApplyMovement(ctx context.Context, tenantID string, entry *stock.Entry) (*stock.StoredItem, error) {
	args := m.Called(ctx, tenantID, entry)
	if item, ok := args.Get(0).(*stock.StoredItem); ok {
		return item, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ItemRepository) SetDeleted(ctx context.Context, tenantID, id string, deletedBy *string, entry *stock.Entry) error {
	args := m.Called(ctx, tenantID, id, deletedBy, entry)
	return args.Error(0)
}

func (m *ItemRepository) Purge(ctx context.Context, tenantID, id string) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *ItemRepository) List(ctx context.Context, tenantID string, opts inventory.FetchOptions) ([]inventory.Item, int, error) {
	args := m.Called(ctx, tenantID, opts)
	if list, ok := args.Get(0).([]inventory.Item); ok {
		return list, args.Int(1), args.Error(2)
	}
	return nil, args.Int(1), args.Error(2)
}

func (m *ItemRepository) ListDeleted(ctx context.Context, tenantID string) ([]inventory.Item, error) {
	args := m.Called(ctx, tenantID)
	if list, ok := args.Get(0).([]inventory.Item); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *ItemRepository) CountActive(ctx context.Context, tenantID string) (int64, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *ItemRepository) FindBySKU(ctx context.Context, tenantID, sku string) (*stock.StoredItem, error) {
	args := m.Called(ctx, tenantID, sku)
	if item, ok := args.Get(0).(*stock.StoredItem); ok {
		return item, args.Error(1)
	}
	return nil, args.Error(1)
}

// TransactionRepository is a mock for stock.TransactionRepository.
type TransactionRepository struct {
	mock.Mock
}

func (m *TransactionRepository) ListByItem(ctx context.Context, tenantID, itemID string) ([]inventory.Transaction, error) {
	args := m.Called(ctx, tenantID, itemID)
	if list, ok := args.Get(0).([]inventory.Transaction); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *TransactionRepository) ListRecent(ctx context.Context, tenantID string, limit int) ([]inventory.Transaction, error) {
	args := m.Called(ctx, tenantID, limit)
	if list, ok := args.Get(0).([]inventory.Transaction); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

// APIKeyRepository is a mock for repository.APIKeyRepository.
type APIKeyRepository struct {
	mock.Mock
}

func (m *APIKeyRepository) Create(ctx context.Context, key *repository.APIKey) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *APIKeyRepository) GetByHash(ctx context.Context, keyHash string) (*repository.APIKey, error) {
	args := m.Called(ctx, keyHash)
	if key, ok := args.Get(0).(*repository.APIKey); ok {
		return key, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *APIKeyRepository) Touch(ctx context.Context, keyHash string, at time.Time) error {
	args := m.Called(ctx, keyHash, at)
	return args.Error(0)
}

// InventoryAPI is a mock of the client-side inventory API used by the
// cache and the mutation pipeline.
type InventoryAPI struct {
	mock.Mock
}

func (m *InventoryAPI) ListItems(ctx context.Context, tc tenant.Context, opts inventory.FetchOptions) (inventory.Page, error) {
	args := m.Called(ctx, tc, opts)
	if page, ok := args.Get(0).(inventory.Page); ok {
		return page, args.Error(1)
	}
	return inventory.Page{}, args.Error(1)
}

func (m *InventoryAPI) ListTrash(ctx context.Context, tc tenant.Context) ([]inventory.Item, error) {
	args := m.Called(ctx, tc)
	if list, ok := args.Get(0).([]inventory.Item); ok {
		return list, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *InventoryAPI) CreateItem(ctx context.Context, tc tenant.Context, item inventory.NewItem) (inventory.Item, error) {
	args := m.Called(ctx, tc, item)
	if created, ok := args.Get(0).(inventory.Item); ok {
		return created, args.Error(1)
	}
	return inventory.Item{}, args.Error(1)
}

func (m *InventoryAPI) UpdateItem(ctx context.Context, tc tenant.Context, id string, patch inventory.ItemPatch) (inventory.Item, error) {
	args := m.Called(ctx, tc, id, patch)
	if updated, ok := args.Get(0).(inventory.Item); ok {
		return updated, args.Error(1)
	}
	return inventory.Item{}, args.Error(1)
}

func (m *InventoryAPI) RecordMovement(ctx context.Context, tc tenant.Context, id string, mv inventory.MovementRequest) error {
	args := m.Called(ctx, tc, id, mv)
	return args.Error(0)
}

func (m *InventoryAPI) DeleteItem(ctx context.Context, tc tenant.Context, id, performedBy string) error {
	args := m.Called(ctx, tc, id, performedBy)
	return args.Error(0)
}

func (m *InventoryAPI) RestoreItem(ctx context.Context, tc tenant.Context, id, performedBy string) error {
	args := m.Called(ctx, tc, id, performedBy)
	return args.Error(0)
}

func (m *InventoryAPI) PurgeItem(ctx context.Context, tc tenant.Context, id string) error {
	args := m.Called(ctx, tc, id)
	return args.Error(0)
}
