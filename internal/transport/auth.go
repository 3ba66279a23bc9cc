package transport

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

// ErrUnauthorized indicates invalid or missing credentials.
var ErrUnauthorized = errors.New("unauthorized")

// Header names read by the middleware.
const (
	HeaderTenant      = "X-Tenant-ID"
	HeaderPlan        = "X-Organization-Plan"
	HeaderPerformedBy = "X-Performed-By"
)

// Principal is the authenticated caller.
type Principal struct {
	UserID string
	// TenantID pins the key to one tenant. Empty allows any tenant the
	// caller names in X-Tenant-ID.
	TenantID string
	IsAdmin  bool
}

type principalKey struct{}
type tenantKey struct{}
type planKey struct{}

// PrincipalResolver resolves a caller from a bearer token.
type PrincipalResolver interface {
	ResolvePrincipal(ctx context.Context, token string) (Principal, error)
}

// PrincipalFromContext returns the authenticated caller, if present.
func PrincipalFromContext(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey{}).(Principal)
	return p, ok
}

// TenantFromContext returns the tenant ID from context, if present.
func TenantFromContext(ctx context.Context) (string, bool) {
	tenantID, ok := ctx.Value(tenantKey{}).(string)
	return tenantID, ok
}

// PlanFromContext returns the billing plan named by the caller.
func PlanFromContext(ctx context.Context) string {
	plan, _ := ctx.Value(planKey{}).(string)
	return plan
}

// AuthMiddleware enforces bearer token authentication and scopes the
// request to a tenant. The tenant is the key's pinned tenant, or the
// X-Tenant-ID header, or the caller's personal scope.
func AuthMiddleware(resolver PrincipalResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			auth := r.Header.Get("Authorization")
			token := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))
			if token == "" {
				WriteError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			principal, err := resolver.ResolvePrincipal(r.Context(), token)
			if err != nil || principal.UserID == "" {
				WriteError(w, http.StatusUnauthorized, "invalid bearer token")
				return
			}

			tenantID := strings.TrimSpace(r.Header.Get(HeaderTenant))
			if tenantID == "personal" {
				tenantID = principal.UserID
			}
			switch {
			case principal.TenantID != "" && tenantID != "" && tenantID != principal.TenantID:
				WriteError(w, http.StatusForbidden, "You do not have access to this organization.")
				return
			case principal.TenantID != "":
				tenantID = principal.TenantID
			case tenantID == "":
				tenantID = principal.UserID
			}

			ctx := context.WithValue(r.Context(), principalKey{}, principal)
			ctx = context.WithValue(ctx, tenantKey{}, tenantID)
			ctx = context.WithValue(ctx, planKey{}, strings.TrimSpace(r.Header.Get(HeaderPlan)))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects callers without the admin role.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, ok := PrincipalFromContext(r.Context())
		if !ok || !principal.IsAdmin {
			WriteError(w, http.StatusForbidden, "You do not have permission to perform this action.")
			return
		}
		next.ServeHTTP(w, r)
	})
}
