package repository

import (
	"context"
	"time"
)

// Role is the permission level of an API key holder.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// APIKey is a stored credential. The raw token is never persisted.
type APIKey struct {
	KeyHash     string
	UserID      string
	TenantID    string
	Role        Role
	Description string
	CreatedAt   time.Time
	LastUsed    *time.Time
}

// APIKeyRepository manages API key persistence
type APIKeyRepository interface {
	Create(ctx context.Context, key *APIKey) error
	GetByHash(ctx context.Context, keyHash string) (*APIKey, error)
	Touch(ctx context.Context, keyHash string, at time.Time) error
}
