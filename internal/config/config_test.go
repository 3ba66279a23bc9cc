package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, Default(), cfg)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	path := filepath.Join(dir, "stocksync.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
api:
  base_url: http://inventory.local
  timeout: 5s
session:
  user_id: user-1
  organization_id: org-1
  organization_role: org:admin
  plan: pro
cache:
  page_size: 25
`), 0o644))

	t.Setenv("STOCKSYNC_CONFIG_PATH", path)
	t.Setenv("STOCKSYNC_PLAN", "free")
	t.Setenv("STOCKSYNC_DEBOUNCE", "50ms")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "http://inventory.local", cfg.API.BaseURL)
	require.Equal(t, 5*time.Second, cfg.API.Timeout)
	require.Equal(t, "org-1", cfg.Session.OrganizationID)
	require.Equal(t, "free", cfg.Session.Plan)
	require.Equal(t, 25, cfg.Cache.PageSize)
	require.Equal(t, 50*time.Millisecond, cfg.Cache.Debounce)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("STOCKSYNC_TOKEN=from-dotenv\n"), 0o644))
	t.Cleanup(func() { _ = os.Unsetenv("STOCKSYNC_TOKEN") })

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "from-dotenv", cfg.Session.Token)
}

func TestLoadRejectsBadPort(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("STOCKSYNC_SERVER_PORT", "eighty")

	_, err := Load()
	require.Error(t, err)
}
