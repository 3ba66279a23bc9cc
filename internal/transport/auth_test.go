package transport

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

type testResolver struct {
	tokens map[string]Principal
	err    error
}

func (r *testResolver) ResolvePrincipal(_ context.Context, token string) (Principal, error) {
	if r.err != nil {
		return Principal{}, r.err
	}
	p, ok := r.tokens[token]
	if !ok {
		return Principal{}, ErrUnauthorized
	}
	return p, nil
}

func serve(t *testing.T, h http.Handler, token string, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuthMiddleware(t *testing.T) {
	resolver := &testResolver{tokens: map[string]Principal{
		"free":   {UserID: "user_1", IsAdmin: true},
		"pinned": {UserID: "user_2", TenantID: "org_A"},
		"own":    {UserID: "user_3", TenantID: "user_3"},
	}}

	var gotTenant, gotPlan string
	handler := AuthMiddleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var ok bool
		gotTenant, ok = TenantFromContext(r.Context())
		require.True(t, ok)
		gotPlan = PlanFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	rec := serve(t, handler, "free", map[string]string{HeaderTenant: "org_B", HeaderPlan: "pro"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "org_B", gotTenant)
	require.Equal(t, "pro", gotPlan)

	rec = serve(t, handler, "free", map[string]string{HeaderTenant: "personal"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user_1", gotTenant)

	rec = serve(t, handler, "pinned", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "org_A", gotTenant)

	rec = serve(t, handler, "pinned", map[string]string{HeaderTenant: "org_B"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec = serve(t, handler, "own", map[string]string{HeaderTenant: "personal"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "user_3", gotTenant)

	rec = serve(t, handler, "own", map[string]string{HeaderTenant: "org_A"})
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestAuthMiddleware_Invalid(t *testing.T) {
	resolver := &testResolver{err: errors.New("invalid")}

	handler := AuthMiddleware(resolver)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := serve(t, handler, "token", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var body ErrorBody
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, http.StatusUnauthorized, body.Status)
	require.Equal(t, "Unauthorized", body.Error)
	require.Equal(t, "invalid bearer token", body.Message)

	rec = serve(t, handler, "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAdmin(t *testing.T) {
	resolver := &testResolver{tokens: map[string]Principal{
		"admin":  {UserID: "a", IsAdmin: true},
		"member": {UserID: "m"},
	}}
	handler := AuthMiddleware(resolver)(RequireAdmin(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})))

	require.Equal(t, http.StatusNoContent, serve(t, handler, "admin", nil).Code)

	rec := serve(t, handler, "member", nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Contains(t, rec.Body.String(), "You do not have permission to perform this action.")
}
