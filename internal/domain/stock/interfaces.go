package stock

import (
	"context"

	"github.com/rpggio/stocksync/internal/domain/inventory"
)

// ItemRepository provides persistence for items, including trashed rows.
type ItemRepository interface {
	Create(ctx context.Context, tenantID string, item *StoredItem) error
	Get(ctx context.Context, tenantID, id string) (*StoredItem, error)
	Update(ctx context.Context, tenantID string, item *StoredItem) error
	// ApplyMovement changes the quantity by entry.QuantityChange and logs
	// entry atomically. It fails with ErrInsufficientStock when the result
	// would be negative.
	ApplyMovement(ctx context.Context, tenantID string, entry *Entry) (*StoredItem, error)
	// SetDeleted trashes (deletedBy set) or restores an item and logs
	// entry atomically.
	SetDeleted(ctx context.Context, tenantID, id string, deletedBy *string, entry *Entry) error
	// Purge removes a trashed item together with its ledger.
	Purge(ctx context.Context, tenantID, id string) error
	List(ctx context.Context, tenantID string, opts inventory.FetchOptions) ([]inventory.Item, int, error)
	ListDeleted(ctx context.Context, tenantID string) ([]inventory.Item, error)
	CountActive(ctx context.Context, tenantID string) (int64, error)
	FindBySKU(ctx context.Context, tenantID, sku string) (*StoredItem, error)
}

// TransactionRepository provides persistence for the stock ledger.
type TransactionRepository interface {
	ListByItem(ctx context.Context, tenantID, itemID string) ([]inventory.Transaction, error)
	ListRecent(ctx context.Context, tenantID string, limit int) ([]inventory.Transaction, error)
}
