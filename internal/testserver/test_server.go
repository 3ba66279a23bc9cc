// Package testserver runs the reference inventory API over an in-memory
// database for tests.
package testserver

import (
	"context"
	"fmt"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/stocksync/internal/fakeapi"
	"github.com/rpggio/stocksync/internal/repository"
	"github.com/rpggio/stocksync/internal/sqlite"
)

type TestServer struct {
	Server *httptest.Server
	DB     *sqlite.DB
	API    *fakeapi.Server
	// Token belongs to an admin without a pinned tenant.
	Token  string
	UserID string
}

func New(t *testing.T, token, userID string) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	api := fakeapi.NewServer(db, nil)
	server := httptest.NewServer(api.Handler)

	ts := &TestServer{
		Server: server,
		DB:     db,
		API:    api,
		Token:  token,
		UserID: userID,
	}

	require.NoError(t, ts.AddAPIKey(token, userID, "", repository.RoleAdmin))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return ts
}

// AddAPIKey issues token for userID. An empty tenantID lets the caller
// choose the tenant per request.
func (ts *TestServer) AddAPIKey(token, userID, tenantID string, role repository.Role) error {
	return ts.API.Keys.Issue(context.Background(), token, userID, tenantID, role)
}

// URL is the base URL of the running server.
func (ts *TestServer) URL() string {
	return ts.Server.URL
}
