package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

// NewTestDB creates a new in-memory SQLite database for testing
func NewTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := New(":memory:")
	require.NoError(t, err, "failed to create test database")
	// Each connection to :memory: is a separate database.
	db.SetMaxOpenConns(1)

	err = db.RunMigrations()
	require.NoError(t, err, "failed to run migrations")

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

// TestMigrations verifies that migrations run successfully
func TestMigrations(t *testing.T) {
	db := NewTestDB(t)

	tables := []string{
		"items",
		"stock_transactions",
		"api_keys",
	}

	for _, table := range tables {
		var count int
		err := db.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name=?", table).Scan(&count)
		require.NoError(t, err, "failed to query table %s", table)
		require.Equal(t, 1, count, "table %s not found", table)
	}

	// Running twice is harmless.
	require.NoError(t, db.RunMigrations())
}

// TestForeignKeys verifies that foreign key constraints are enabled
func TestForeignKeys(t *testing.T) {
	db := NewTestDB(t)

	var enabled int
	err := db.QueryRow("PRAGMA foreign_keys").Scan(&enabled)
	require.NoError(t, err)
	require.Equal(t, 1, enabled, "foreign keys not enabled")

	_, err = db.ExecContext(context.Background(),
		`INSERT INTO stock_transactions (id, tenant_id, item_id, quantity_change, type) VALUES (?, ?, ?, ?, ?)`,
		"t1", "tenant1", "missing", 1, "STOCK_IN")
	require.Error(t, err, "should fail with unknown item")
}

// TestItemsConstraints verifies the quantity and type checks
func TestItemsConstraints(t *testing.T) {
	db := NewTestDB(t)
	ctx := context.Background()

	_, err := db.ExecContext(ctx,
		`INSERT INTO items (id, tenant_id, name, quantity) VALUES (?, ?, ?, ?)`,
		"i1", "tenant1", "Widget", -1)
	require.Error(t, err, "should reject negative quantity")

	_, err = db.ExecContext(ctx,
		`INSERT INTO items (id, tenant_id, name, quantity) VALUES (?, ?, ?, ?)`,
		"i1", "tenant1", "Widget", 1)
	require.NoError(t, err)

	_, err = db.ExecContext(ctx,
		`INSERT INTO stock_transactions (id, tenant_id, item_id, quantity_change, type) VALUES (?, ?, ?, ?, ?)`,
		"t1", "tenant1", "i1", 1, "TELEPORT")
	require.Error(t, err, "should reject unknown transaction type")
}
