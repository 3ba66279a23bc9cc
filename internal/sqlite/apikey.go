package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rpggio/stocksync/internal/repository"
)

// APIKeyRepository implements repository.APIKeyRepository for SQLite
type APIKeyRepository struct {
	db *DB
}

// NewAPIKeyRepository creates a new APIKeyRepository
func NewAPIKeyRepository(db *DB) *APIKeyRepository {
	return &APIKeyRepository{db: db}
}

// Create stores a hashed key
func (r *APIKeyRepository) Create(ctx context.Context, key *repository.APIKey) error {
	createdAt := key.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO api_keys (key_hash, user_id, tenant_id, role, created_at, description) VALUES (?, ?, ?, ?, ?, ?)`,
		key.KeyHash, key.UserID, key.TenantID, key.Role, createdAt, key.Description,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return fmt.Errorf("failed to create api key: %w", err)
	}
	key.CreatedAt = createdAt
	return nil
}

// GetByHash looks up a key by its hash
func (r *APIKeyRepository) GetByHash(ctx context.Context, keyHash string) (*repository.APIKey, error) {
	var key repository.APIKey
	var lastUsed sql.NullTime
	var description sql.NullString
	err := r.db.QueryRowContext(ctx,
		`SELECT key_hash, user_id, tenant_id, role, created_at, last_used, description FROM api_keys WHERE key_hash = ?`,
		keyHash,
	).Scan(&key.KeyHash, &key.UserID, &key.TenantID, &key.Role, &key.CreatedAt, &lastUsed, &description)
	if err == sql.ErrNoRows {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get api key: %w", err)
	}
	if lastUsed.Valid {
		key.LastUsed = &lastUsed.Time
	}
	key.Description = description.String
	return &key, nil
}

// Touch records the last use of a key
func (r *APIKeyRepository) Touch(ctx context.Context, keyHash string, at time.Time) error {
	_, err := r.db.ExecContext(ctx, `UPDATE api_keys SET last_used = ? WHERE key_hash = ?`, at, keyHash)
	if err != nil {
		return fmt.Errorf("failed to touch api key: %w", err)
	}
	return nil
}
