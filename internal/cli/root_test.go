package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rpggio/stocksync/internal/config"
	"github.com/rpggio/stocksync/internal/domain/inventory"
	"github.com/rpggio/stocksync/internal/testserver"
)

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand(NewApp())
	commands := []string{
		"items", "trash", "add", "update", "move", "delete", "restore",
		"purge", "history", "recent", "report", "usage", "watch", "mcp",
	}

	for _, name := range commands {
		t.Run(name, func(t *testing.T) {
			sub, _, err := cmd.Find([]string{name})
			require.NoError(t, err)
			assert.Equal(t, name, sub.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand(NewApp())

	verbose := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verbose)
	assert.Equal(t, "v", verbose.Shorthand)

	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
}

type harness struct {
	t   *testing.T
	cfg config.Config
}

func newHarness(t *testing.T, plan string) *harness {
	t.Helper()
	ts := testserver.New(t, "admin-token", "user-1")
	cfg := config.Default()
	cfg.API.BaseURL = ts.URL()
	cfg.Log.Level = "error"
	cfg.Session = config.SessionConfig{
		UserID:           "user-1",
		DisplayName:      "Dana",
		OrganizationID:   "org-1",
		OrganizationRole: "org:admin",
		Plan:             plan,
		Token:            "admin-token",
	}
	return &harness{t: t, cfg: cfg}
}

// run executes args and returns the exit code, stdout and stderr.
func (h *harness) run(stdin string, args ...string) (int, string, string) {
	h.t.Helper()
	var out, errOut bytes.Buffer
	app := &App{
		In:         strings.NewReader(stdin),
		Out:        &out,
		Err:        &errOut,
		LoadConfig: func() (config.Config, error) { return h.cfg, nil },
	}
	code := Execute(context.Background(), app, args)
	return code, out.String(), errOut.String()
}

func decodeData(t *testing.T, raw string, v any) {
	t.Helper()
	var resp struct {
		Status string          `json:"status"`
		Data   json.RawMessage `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(raw), &resp))
	require.Equal(t, "ok", resp.Status)
	require.NoError(t, json.Unmarshal(resp.Data, v))
}

func TestAddMoveAndList(t *testing.T) {
	h := newHarness(t, "free")

	code, out, errOut := h.run("", "add", "Hex bolt", "--sku", "HB-8", "--quantity", "5", "--price", "0.25", "--format", "json")
	require.Equal(t, ExitSuccess, code, errOut)
	var created inventory.Item
	decodeData(t, out, &created)
	require.Equal(t, "HB-8", created.SKUValue())

	code, _, errOut = h.run("", "move", created.ID, "in", "10", "--reason", "delivery")
	require.Equal(t, ExitSuccess, code, errOut)

	code, out, _ = h.run("", "items", "--format", "json")
	require.Equal(t, ExitSuccess, code)
	var list itemList
	decodeData(t, out, &list)
	require.Equal(t, 1, list.Total)
	require.Equal(t, 15, list.Items[0].Quantity)

	code, out, _ = h.run("", "items")
	require.Equal(t, ExitSuccess, code)
	require.Contains(t, out, "Hex bolt")
	require.Contains(t, out, "page 1 of 1")
}

func TestDuplicateSKUExitCode(t *testing.T) {
	h := newHarness(t, "free")

	code, _, _ := h.run("", "add", "A", "--sku", "X-1")
	require.Equal(t, ExitSuccess, code)

	code, _, errOut := h.run("", "add", "B", "--sku", "X-1")
	require.Equal(t, ExitFailure, code)
	require.Contains(t, errOut, "A product with this SKU already exists.")
}

func TestLifecycleCommands(t *testing.T) {
	h := newHarness(t, "pro")

	_, out, _ := h.run("", "add", "Widget", "--format", "json")
	var created inventory.Item
	decodeData(t, out, &created)

	code, out, errOut := h.run("", "delete", created.ID)
	require.Equal(t, ExitSuccess, code, errOut)
	require.Contains(t, out, "TRASHED")

	code, out, _ = h.run("", "trash", "--format", "json")
	require.Equal(t, ExitSuccess, code)
	var trash itemList
	decodeData(t, out, &trash)
	require.Len(t, trash.Items, 1)

	code, out, _ = h.run("", "restore", created.ID)
	require.Equal(t, ExitSuccess, code)
	require.Contains(t, out, "ACTIVE")

	code, out, _ = h.run("", "history", created.ID, "--format", "json")
	require.Equal(t, ExitSuccess, code)
	var l ledger
	decodeData(t, out, &l)
	require.Len(t, l.Transactions, 2)

	code, _, errOut = h.run("", "purge", created.ID)
	require.Equal(t, ExitFailure, code)
	require.Contains(t, errOut, "INVALID_INPUT")
}

func TestUsageReportsQuota(t *testing.T) {
	h := newHarness(t, "free")
	for _, name := range []string{"a", "b", "c", "d"} {
		code, _, errOut := h.run("", "add", name)
		require.Equal(t, ExitSuccess, code, errOut)
	}

	code, out, _ := h.run("", "usage")
	require.Equal(t, ExitSuccess, code)
	require.Contains(t, out, "tenant org-1 (organization, free, admin)")
	require.Contains(t, out, "SKUs: 4/5 (80%)")
	require.Contains(t, out, "approaching the SKU limit (4/5)")
}

func TestAddStopsAtSKULimit(t *testing.T) {
	h := newHarness(t, "free")
	for _, name := range []string{"a", "b", "c"} {
		code, _, errOut := h.run("", "add", name)
		require.Equal(t, ExitSuccess, code, errOut)
	}

	code, out, errOut := h.run("", "add", "d")
	require.Equal(t, ExitSuccess, code, errOut)
	require.Contains(t, out, "approaching the SKU limit (4/5)")

	code, out, errOut = h.run("", "add", "e")
	require.Equal(t, ExitSuccess, code, errOut)
	require.Contains(t, out, "SKU limit reached (5/5)")

	// Rejected locally: the server's 402 message is worded differently.
	code, _, errOut = h.run("", "add", "f")
	require.Equal(t, ExitFailure, code)
	require.Contains(t, errOut, "QUOTA_EXCEEDED")
	require.Contains(t, errOut, "SKU limit reached. Please upgrade your plan to add more items.")
}

func TestWatchDebouncesSearch(t *testing.T) {
	h := newHarness(t, "pro")
	for _, name := range []string{"Bolt", "Nut", "Washer"} {
		code, _, errOut := h.run("", "add", name)
		require.Equal(t, ExitSuccess, code, errOut)
	}

	code, out, errOut := h.run("W\nWa\nWas\n", "watch")
	require.Equal(t, ExitSuccess, code, errOut)
	pages := strings.Split(strings.TrimSpace(out), "items\n")
	last := pages[len(pages)-1]
	require.Contains(t, out, "Washer")
	require.NotContains(t, last, "Bolt")
}

func TestInvalidFormat(t *testing.T) {
	h := newHarness(t, "free")

	code, _, errOut := h.run("", "items", "--format", "yaml")
	require.Equal(t, ExitCommandError, code)
	require.Contains(t, errOut, "invalid format")
}

func TestItemsRejectsPageOutOfRange(t *testing.T) {
	h := newHarness(t, "free")

	code, _, errOut := h.run("", "items", "--page", "2")
	require.Equal(t, ExitCommandError, code)
	require.Contains(t, errOut, "page out of range")

	code, _, errOut = h.run("", "add", "Bolt")
	require.Equal(t, ExitSuccess, code, errOut)

	code, _, errOut = h.run("", "items", "--page", "2", "--limit", "1")
	require.Equal(t, ExitCommandError, code)
	require.Contains(t, errOut, "page 2 of 1")

	code, _, errOut = h.run("", "items", "--page", "0")
	require.Equal(t, ExitCommandError, code)
	require.Contains(t, errOut, "page out of range")
}
