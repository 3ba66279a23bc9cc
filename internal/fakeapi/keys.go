package fakeapi

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/rpggio/stocksync/internal/repository"
	"github.com/rpggio/stocksync/internal/transport"
)

// HashToken returns the stored form of a bearer token.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// KeyResolver resolves bearer tokens against stored API keys.
type KeyResolver struct {
	keys repository.APIKeyRepository
}

// NewKeyResolver creates a resolver over keys.
func NewKeyResolver(keys repository.APIKeyRepository) *KeyResolver {
	return &KeyResolver{keys: keys}
}

// ResolvePrincipal implements transport.PrincipalResolver.
func (k *KeyResolver) ResolvePrincipal(ctx context.Context, token string) (transport.Principal, error) {
	hash := HashToken(token)
	key, err := k.keys.GetByHash(ctx, hash)
	if err != nil {
		return transport.Principal{}, transport.ErrUnauthorized
	}
	_ = k.keys.Touch(ctx, hash, time.Now())
	return transport.Principal{
		UserID:   key.UserID,
		TenantID: key.TenantID,
		IsAdmin:  key.Role == repository.RoleAdmin,
	}, nil
}

// Issue stores a new key for token.
func (k *KeyResolver) Issue(ctx context.Context, token, userID, tenantID string, role repository.Role) error {
	if err := k.keys.Create(ctx, &repository.APIKey{
		KeyHash:  HashToken(token),
		UserID:   userID,
		TenantID: tenantID,
		Role:     role,
	}); err != nil {
		return fmt.Errorf("issuing api key: %w", err)
	}
	return nil
}
