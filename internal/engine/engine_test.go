package engine_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/stocksync/internal/config"
	"github.com/rpggio/stocksync/internal/domain/inventory"
	"github.com/rpggio/stocksync/internal/domain/usage"
	"github.com/rpggio/stocksync/internal/engine"
	"github.com/rpggio/stocksync/internal/gateway"
	"github.com/rpggio/stocksync/internal/notify"
	"github.com/rpggio/stocksync/internal/optimistic"
	"github.com/rpggio/stocksync/internal/repository"
	"github.com/rpggio/stocksync/internal/testserver"
)

func newEngine(t *testing.T, ts *testserver.TestServer, session config.SessionConfig) (*engine.Engine, *notify.Recorder) {
	t.Helper()
	cfg := config.Default()
	cfg.API.BaseURL = ts.URL()
	cfg.Session = session
	cfg.Cache.Debounce = 10 * time.Millisecond

	rec := &notify.Recorder{}
	e := engine.New(cfg, engine.WithNotifier(rec))
	t.Cleanup(e.Close)
	return e, rec
}

func adminSession(token, plan string) config.SessionConfig {
	return config.SessionConfig{
		UserID:           "user-1",
		DisplayName:      "Dana",
		OrganizationID:   "org-1",
		OrganizationRole: "org:admin",
		Plan:             plan,
		Token:            token,
	}
}

// postCounter counts POST requests that reach the transport.
type postCounter struct {
	posts atomic.Int32
}

func (c *postCounter) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method == http.MethodPost {
		c.posts.Add(1)
	}
	return http.DefaultTransport.RoundTrip(req)
}

func TestFreePlanCreateStopsAtLimit(t *testing.T) {
	ts := testserver.New(t, "admin-token", "user-1")
	counter := &postCounter{}
	cfg := config.Default()
	cfg.API.BaseURL = ts.URL()
	cfg.Session = adminSession("admin-token", "free")
	rec := &notify.Recorder{}
	e := engine.New(cfg, engine.WithNotifier(rec), engine.WithHTTPClient(&http.Client{Transport: counter}))
	t.Cleanup(e.Close)
	ctx := context.Background()
	tc := e.Tenant()

	for i := 0; i < 5; i++ {
		_, err := e.Pipeline.CreateItem(ctx, tc, inventory.NewItem{Name: fmt.Sprintf("Item %d", i), Quantity: 1})
		require.NoError(t, err)
	}
	require.Equal(t, 5, e.Store.TotalCount())

	snap := e.Usage()
	require.NotNil(t, snap.SKU)
	require.True(t, snap.SKUGate().IsLimitReached)

	require.Equal(t, int32(5), counter.posts.Load())

	_, err := e.Pipeline.CreateItem(ctx, tc, inventory.NewItem{Name: "Sixth"})
	require.Error(t, err)
	require.ErrorIs(t, err, usage.ErrLimitReached)
	var me *optimistic.MutationError
	require.True(t, errors.As(err, &me))
	require.Equal(t, gateway.ClassQuota, me.Class)
	require.Equal(t, int32(5), counter.posts.Load(), "a tripped gate sends no request")
	require.NotContains(t, rec.Kinds(), notify.KindPlanLimit)

	require.Len(t, e.Store.Items(), 5)
	for _, it := range e.Store.Items() {
		require.False(t, optimistic.IsProvisional(it.ID))
	}
}

func TestMemberDeleteIsRolledBack(t *testing.T) {
	ts := testserver.New(t, "admin-token", "user-1")
	require.NoError(t, ts.AddAPIKey("member-token", "user-2", "org-1", repository.RoleMember))
	ctx := context.Background()

	admin, _ := newEngine(t, ts, adminSession("admin-token", "free"))
	created, err := admin.Pipeline.CreateItem(ctx, admin.Tenant(), inventory.NewItem{Name: "Widget", Quantity: 3})
	require.NoError(t, err)

	member, _ := newEngine(t, ts, config.SessionConfig{
		UserID:           "user-2",
		OrganizationID:   "org-1",
		OrganizationRole: "org:member",
		Token:            "member-token",
	})
	require.False(t, member.Tenant().IsAdmin)
	require.NoError(t, member.Sync(ctx))

	err = member.Pipeline.DeleteItem(ctx, member.Tenant(), created.ID)
	require.True(t, optimistic.IsPermission(err))
	_, ok := member.Store.Find(created.ID)
	require.True(t, ok)
	require.Equal(t, 1, member.Store.TotalCount())
}

func TestTrashLifecycle(t *testing.T) {
	ts := testserver.New(t, "admin-token", "user-1")
	e, _ := newEngine(t, ts, adminSession("admin-token", "pro"))
	ctx := context.Background()
	tc := e.Tenant()

	created, err := e.Pipeline.CreateItem(ctx, tc, inventory.NewItem{Name: "Widget", Quantity: 3})
	require.NoError(t, err)

	require.NoError(t, e.Pipeline.DeleteItem(ctx, tc, created.ID))
	require.Equal(t, inventory.StateTrashed, e.Store.StateOf(created.ID))
	trashed, ok := e.Store.FindTrashed(created.ID)
	require.True(t, ok)
	require.NotNil(t, trashed.DeletedBy)
	require.Equal(t, "Dana", *trashed.DeletedBy)

	require.NoError(t, e.Pipeline.RestoreItem(ctx, tc, created.ID))
	require.Equal(t, inventory.StateActive, e.Store.StateOf(created.ID))

	require.NoError(t, e.Pipeline.DeleteItem(ctx, tc, created.ID))
	history, err := e.API.ItemHistory(ctx, tc, created.ID)
	require.NoError(t, err)
	require.Len(t, history, 2)

	require.NoError(t, e.Pipeline.PurgeItem(ctx, tc, created.ID))
	require.Equal(t, inventory.StatePurged, e.Store.StateOf(created.ID))

	require.NoError(t, e.Sync(ctx))
	require.Empty(t, e.Store.Items())
	require.Empty(t, e.Store.Trash())
}

func TestMovementReconcilesQuantity(t *testing.T) {
	ts := testserver.New(t, "admin-token", "user-1")
	e, _ := newEngine(t, ts, adminSession("admin-token", "free"))
	ctx := context.Background()
	tc := e.Tenant()

	created, err := e.Pipeline.CreateItem(ctx, tc, inventory.NewItem{Name: "Widget", Quantity: 3})
	require.NoError(t, err)

	require.NoError(t, e.Pipeline.RecordMovement(ctx, tc, created.ID, inventory.MovementRequest{Amount: 4, Type: inventory.TypeStockIn, Reason: "delivery"}))
	item, ok := e.Store.Find(created.ID)
	require.True(t, ok)
	require.Equal(t, 7, item.Quantity)

	err = e.Pipeline.RecordMovement(ctx, tc, created.ID, inventory.MovementRequest{Amount: 8, Type: inventory.TypeStockOut})
	require.Error(t, err)
	item, _ = e.Store.Find(created.ID)
	require.Equal(t, 7, item.Quantity)

	recent, err := e.API.RecentActivity(ctx, tc)
	require.NoError(t, err)
	require.Len(t, recent, 1)
	require.NotNil(t, recent[0].PerformedBy)
	require.Equal(t, "Dana", *recent[0].PerformedBy)
}

func TestDebouncedSearch(t *testing.T) {
	ts := testserver.New(t, "admin-token", "user-1")
	e, _ := newEngine(t, ts, adminSession("admin-token", "pro"))
	ctx := context.Background()
	tc := e.Tenant()

	for _, name := range []string{"Bolt", "Nut", "Washer"} {
		_, err := e.Pipeline.CreateItem(ctx, tc, inventory.NewItem{Name: name})
		require.NoError(t, err)
	}

	for _, term := range []string{"W", "Wa", "Was"} {
		e.Store.SetFilter(ctx, tc, inventory.FetchOptions{Search: term})
	}
	e.Store.FlushFilter()

	require.Eventually(t, func() bool {
		items := e.Store.Items()
		return len(items) == 1 && items[0].Name == "Washer"
	}, time.Second, 10*time.Millisecond)
}

func TestSignedOutSessionFails(t *testing.T) {
	ts := testserver.New(t, "admin-token", "user-1")
	e, _ := newEngine(t, ts, config.SessionConfig{})

	err := e.Sync(context.Background())
	require.Error(t, err)
}
