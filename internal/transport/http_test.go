package transport

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"
)

type echoRoutes struct{}

func (echoRoutes) Register(r chi.Router) {
	r.Get("/whoami", func(w http.ResponseWriter, r *http.Request) {
		tenantID, _ := TenantFromContext(r.Context())
		actor, _ := ActorFromContext(r.Context())
		WriteJSON(w, http.StatusOK, map[string]string{"tenant": tenantID, "actor": actor})
	})
}

func TestHTTPServer_Routes(t *testing.T) {
	resolver := &testResolver{tokens: map[string]Principal{"token": {UserID: "user_1"}}}
	server := httptest.NewServer(NewServer(echoRoutes{}, AuthMiddleware(resolver)))
	t.Cleanup(server.Close)

	req, err := http.NewRequest(http.MethodGet, server.URL+"/whoami", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer token")
	req.Header.Set(HeaderTenant, "org_A")
	req.Header.Set(HeaderPerformedBy, "Ada")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))
}

func TestHTTPServer_Health(t *testing.T) {
	server := httptest.NewServer(NewServer(echoRoutes{}, nil))
	t.Cleanup(server.Close)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(server.URL + "/nope")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
