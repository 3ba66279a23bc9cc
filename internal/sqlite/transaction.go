package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/stocksync/internal/domain/inventory"
	"github.com/rpggio/stocksync/internal/domain/stock"
)

// TransactionRepository implements stock.TransactionRepository for SQLite
type TransactionRepository struct {
	db *DB
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(db *DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
}

// insertEntry appends a ledger entry through ex, usually the transaction
// that changed the item.
func insertEntry(ctx context.Context, ex execer, tenantID string, entry *stock.Entry) error {
	createdAt := entry.CreatedAt.Time
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `
		INSERT INTO stock_transactions (
			id, tenant_id, item_id, item_name, quantity_change,
			type, reason, performed_by, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := ex.ExecContext(ctx, query,
		entry.ID,
		tenantID,
		entry.ItemID,
		entry.ItemName,
		entry.QuantityChange,
		entry.Type,
		entry.Reason,
		entry.PerformedBy,
		createdAt,
	)
	if err != nil {
		return fmt.Errorf("failed to log transaction: %w", err)
	}

	entry.TenantID = tenantID
	entry.CreatedAt = inventory.Timestamp{Time: createdAt}
	return nil
}

// ListByItem returns the ledger of one item, newest first
func (r *TransactionRepository) ListByItem(ctx context.Context, tenantID, itemID string) ([]inventory.Transaction, error) {
	query := `
		SELECT id, item_name, quantity_change, type, reason, performed_by, created_at
		FROM stock_transactions
		WHERE tenant_id = ? AND item_id = ?
		ORDER BY created_at DESC, rowid DESC
	`
	return r.query(ctx, query, tenantID, itemID)
}

// ListRecent returns the newest ledger entries of a tenant. A limit of
// zero returns all entries.
func (r *TransactionRepository) ListRecent(ctx context.Context, tenantID string, limit int) ([]inventory.Transaction, error) {
	query := `
		SELECT id, item_name, quantity_change, type, reason, performed_by, created_at
		FROM stock_transactions
		WHERE tenant_id = ?
		ORDER BY created_at DESC, rowid DESC
	`
	args := []interface{}{tenantID}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}
	return r.query(ctx, query, args...)
}

func (r *TransactionRepository) query(ctx context.Context, query string, args ...interface{}) ([]inventory.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list transactions: %w", err)
	}
	defer rows.Close()

	txs := []inventory.Transaction{}
	for rows.Next() {
		var tx inventory.Transaction
		var itemName, performedBy sql.NullString
		var createdAt time.Time
		if err := rows.Scan(
			&tx.ID,
			&itemName,
			&tx.QuantityChange,
			&tx.Type,
			&tx.Reason,
			&performedBy,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		if itemName.Valid {
			tx.ItemName = &itemName.String
		}
		if performedBy.Valid {
			tx.PerformedBy = &performedBy.String
		}
		tx.CreatedAt = inventory.Timestamp{Time: createdAt}
		txs = append(txs, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transaction rows: %w", err)
	}
	return txs, nil
}
