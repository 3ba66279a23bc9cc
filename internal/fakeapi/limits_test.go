package fakeapi

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/stocksync/internal/transport"
)

type anyToken struct{}

func (anyToken) ResolvePrincipal(_ context.Context, token string) (transport.Principal, error) {
	return transport.Principal{UserID: token, IsAdmin: true}, nil
}

func limited(l *RateLimiter) http.Handler {
	ok := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return transport.AuthMiddleware(anyToken{})(l.Middleware(ok))
}

func send(h http.Handler, tenant, plan string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/api/inventory", nil)
	req.Header.Set("Authorization", "Bearer user-1")
	req.Header.Set(transport.HeaderTenant, tenant)
	req.Header.Set(transport.HeaderPlan, plan)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestRateLimiterRejectsPastFreeLimit(t *testing.T) {
	h := limited(NewRateLimiter())

	for i := 0; i < 60; i++ {
		require.Equal(t, http.StatusOK, send(h, "org-1", "free").Code, "request %d", i+1)
	}
	last := send(h, "org-1", "free")

	require.Equal(t, http.StatusTooManyRequests, last.Code)
	require.Equal(t, "60", last.Header().Get("Retry-After"))
	var body rateLimitBody
	require.NoError(t, json.Unmarshal(last.Body.Bytes(), &body))
	require.Equal(t, "RATE_LIMIT_EXCEEDED", body.Error)
	require.Equal(t, 60, body.Limit)
}

func TestRateLimiterCountsPerTenantAndPlan(t *testing.T) {
	h := limited(NewRateLimiter())

	for i := 0; i < 60; i++ {
		send(h, "org-1", "free")
	}
	require.Equal(t, http.StatusTooManyRequests, send(h, "org-1", "free").Code)
	require.Equal(t, http.StatusOK, send(h, "org-2", "free").Code, "other tenants keep their own window")

	for i := 0; i < 100; i++ {
		require.Equal(t, http.StatusOK, send(h, "org-3", "pro").Code, "request %d", i+1)
	}
}
