package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/rpggio/stocksync/internal/tenant"
)

type tenantIDKey struct{}

// getTenantID returns the tenant a request was served for.
func getTenantID(ctx context.Context) string {
	v, _ := ctx.Value(tenantIDKey{}).(string)
	return v
}

// tenantMiddleware tags each request with the tenant resolved at the
// moment it arrives.
func tenantMiddleware(resolve func() tenant.Context) sdkmcp.Middleware {
	return func(next sdkmcp.MethodHandler) sdkmcp.MethodHandler {
		return func(ctx context.Context, method string, req sdkmcp.Request) (sdkmcp.Result, error) {
			ctx = context.WithValue(ctx, tenantIDKey{}, resolve().TenantID)
			return next(ctx, method, req)
		}
	}
}
