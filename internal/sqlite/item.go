package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rpggio/stocksync/internal/domain/inventory"
	"github.com/rpggio/stocksync/internal/domain/stock"
	"github.com/rpggio/stocksync/internal/repository"
)

// ItemRepository implements stock.ItemRepository for SQLite
type ItemRepository struct {
	db *DB
}

// NewItemRepository creates a new ItemRepository
func NewItemRepository(db *DB) *ItemRepository {
	return &ItemRepository{db: db}
}

const itemColumns = `id, tenant_id, name, quantity, sku, category, price, min_threshold, deleted, deleted_by, created_at, updated_at`

// Create inserts a new item
func (r *ItemRepository) Create(ctx context.Context, tenantID string, item *stock.StoredItem) error {
	query := `
		INSERT INTO items (` + itemColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	createdAt := item.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	updatedAt := item.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err := r.db.ExecContext(ctx, query,
		item.ID,
		tenantID,
		item.Name,
		item.Quantity,
		item.SKU,
		item.Category,
		item.Price.String(),
		item.MinThreshold,
		item.Deleted,
		item.DeletedBy,
		createdAt,
		updatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create item: %w", err)
	}

	item.TenantID = tenantID
	item.CreatedAt = createdAt
	item.UpdatedAt = updatedAt
	return nil
}

// Get retrieves an item by ID, trashed or not
func (r *ItemRepository) Get(ctx context.Context, tenantID, id string) (*stock.StoredItem, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = ? AND tenant_id = ?`
	item, err := scanItem(r.db.QueryRowContext(ctx, query, id, tenantID))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	return item, nil
}

// FindBySKU retrieves the item holding sku, trashed or not
func (r *ItemRepository) FindBySKU(ctx context.Context, tenantID, sku string) (*stock.StoredItem, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE tenant_id = ? AND sku = ?`
	item, err := scanItem(r.db.QueryRowContext(ctx, query, tenantID, sku))
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find item by sku: %w", err)
	}
	return item, nil
}

// Update overwrites the descriptive fields of an item. Quantity only
// changes through ApplyMovement.
func (r *ItemRepository) Update(ctx context.Context, tenantID string, item *stock.StoredItem) error {
	query := `
		UPDATE items
		SET name = ?, sku = ?, category = ?, price = ?, min_threshold = ?, updated_at = ?
		WHERE id = ? AND tenant_id = ? AND deleted = 0
	`

	updatedAt := item.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	result, err := r.db.ExecContext(ctx, query,
		item.Name,
		item.SKU,
		item.Category,
		item.Price.String(),
		item.MinThreshold,
		updatedAt,
		item.ID,
		tenantID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to update item: %w", err)
	}
	return requireAffected(result)
}

// ApplyMovement adds entry.QuantityChange to an active item and appends
// entry to the ledger in one transaction. The update is conditional on
// the resulting quantity staying non-negative.
func (r *ItemRepository) ApplyMovement(ctx context.Context, tenantID string, entry *stock.Entry) (*stock.StoredItem, error) {
	var updated *stock.StoredItem
	err := r.db.withTx(ctx, func(tx *sql.Tx) error {
		at := entry.CreatedAt.Time
		if at.IsZero() {
			at = time.Now()
		}
		result, err := tx.ExecContext(ctx, `
			UPDATE items
			SET quantity = quantity + ?, updated_at = ?
			WHERE id = ? AND tenant_id = ? AND deleted = 0 AND quantity + ? >= 0`,
			entry.QuantityChange, at, entry.ItemID, tenantID, entry.QuantityChange,
		)
		if err != nil {
			return fmt.Errorf("failed to update quantity: %w", err)
		}
		if n, err := result.RowsAffected(); err != nil {
			return fmt.Errorf("failed to read affected rows: %w", err)
		} else if n == 0 {
			return movementRejected(ctx, tx, tenantID, entry.ItemID)
		}

		if err := insertEntry(ctx, tx, tenantID, entry); err != nil {
			return err
		}

		query := `SELECT ` + itemColumns + ` FROM items WHERE id = ? AND tenant_id = ?`
		updated, err = scanItem(tx.QueryRowContext(ctx, query, entry.ItemID, tenantID))
		if err != nil {
			return fmt.Errorf("failed to reload item: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// movementRejected tells a missing or trashed item apart from one whose
// stock would go negative.
func movementRejected(ctx context.Context, tx *sql.Tx, tenantID, id string) error {
	var quantity int
	var deleted bool
	err := tx.QueryRowContext(ctx, `SELECT quantity, deleted FROM items WHERE id = ? AND tenant_id = ?`, id, tenantID).Scan(&quantity, &deleted)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && deleted) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to check item: %w", err)
	}
	return fmt.Errorf("%w: %d on hand", stock.ErrInsufficientStock, quantity)
}

// SetDeleted trashes the item when deletedBy is set and restores it
// otherwise, appending entry to the ledger in the same transaction. An
// item already in the target state is reported as ErrNotFound.
func (r *ItemRepository) SetDeleted(ctx context.Context, tenantID, id string, deletedBy *string, entry *stock.Entry) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		trash := deletedBy != nil
		result, err := tx.ExecContext(ctx,
			`UPDATE items SET deleted = ?, deleted_by = ?, updated_at = ? WHERE id = ? AND tenant_id = ? AND deleted = ?`,
			trash, deletedBy, time.Now(), id, tenantID, !trash)
		if err != nil {
			return fmt.Errorf("failed to set deleted: %w", err)
		}
		if err := requireAffected(result); err != nil {
			return err
		}
		if entry == nil {
			return nil
		}
		return insertEntry(ctx, tx, tenantID, entry)
	})
}

// Purge removes a trashed item and its ledger permanently
func (r *ItemRepository) Purge(ctx context.Context, tenantID, id string) error {
	return r.db.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM stock_transactions WHERE tenant_id = ? AND item_id = ?`, tenantID, id); err != nil {
			return fmt.Errorf("failed to delete transactions: %w", err)
		}
		result, err := tx.ExecContext(ctx, `DELETE FROM items WHERE id = ? AND tenant_id = ? AND deleted = 1`, id, tenantID)
		if err != nil {
			return fmt.Errorf("failed to delete item: %w", err)
		}
		return requireAffected(result)
	})
}

// List returns one page of active items sorted by name, and the total
// number of matching items
func (r *ItemRepository) List(ctx context.Context, tenantID string, opts inventory.FetchOptions) ([]inventory.Item, int, error) {
	opts = opts.Normalize()

	where := "tenant_id = ? AND deleted = 0"
	args := []interface{}{tenantID}
	if search := strings.TrimSpace(opts.Search); search != "" {
		where += " AND (name LIKE ? ESCAPE '\\' OR sku LIKE ? ESCAPE '\\')"
		pattern := "%" + escapeLike(search) + "%"
		args = append(args, pattern, pattern)
	}
	if opts.Category != "" {
		where += " AND category = ?"
		args = append(args, opts.Category)
	}

	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	query := `SELECT ` + itemColumns + ` FROM items WHERE ` + where + ` ORDER BY name COLLATE NOCASE ASC, id ASC LIMIT ? OFFSET ?`
	args = append(args, opts.Limit, (opts.Page-1)*opts.Limit)

	items, err := r.queryItems(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListDeleted returns trashed items, most recently trashed first
func (r *ItemRepository) ListDeleted(ctx context.Context, tenantID string) ([]inventory.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE tenant_id = ? AND deleted = 1 ORDER BY updated_at DESC, id ASC`
	return r.queryItems(ctx, query, tenantID)
}

// CountActive counts a tenant's active items
func (r *ItemRepository) CountActive(ctx context.Context, tenantID string) (int64, error) {
	var count int64
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE tenant_id = ? AND deleted = 0`, tenantID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count items: %w", err)
	}
	return count, nil
}

func (r *ItemRepository) queryItems(ctx context.Context, query string, args ...interface{}) ([]inventory.Item, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := []inventory.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item.Item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating item rows: %w", err)
	}
	return items, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*stock.StoredItem, error) {
	var item stock.StoredItem
	var sku, deletedBy sql.NullString
	var price string
	if err := row.Scan(
		&item.ID,
		&item.TenantID,
		&item.Name,
		&item.Quantity,
		&sku,
		&item.Category,
		&price,
		&item.MinThreshold,
		&item.Deleted,
		&deletedBy,
		&item.CreatedAt,
		&item.UpdatedAt,
	); err != nil {
		return nil, err
	}
	if sku.Valid {
		item.SKU = &sku.String
	}
	if deletedBy.Valid {
		item.DeletedBy = &deletedBy.String
	}
	parsed, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("invalid price %q: %w", price, err)
	}
	item.Price = parsed
	return &item, nil
}

func requireAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`)
	return r.Replace(s)
}
