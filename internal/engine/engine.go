// Package engine assembles the sync engine from configuration: tenant
// resolution, the gateway, the typed API, the collection cache and the
// optimistic pipeline.
package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/sync/errgroup"

	"github.com/rpggio/stocksync/internal/api"
	"github.com/rpggio/stocksync/internal/cache"
	"github.com/rpggio/stocksync/internal/config"
	"github.com/rpggio/stocksync/internal/domain/usage"
	"github.com/rpggio/stocksync/internal/gateway"
	"github.com/rpggio/stocksync/internal/notify"
	"github.com/rpggio/stocksync/internal/optimistic"
	"github.com/rpggio/stocksync/internal/tenant"
)

// Engine is one signed-in client session.
type Engine struct {
	Resolver *tenant.Resolver
	Gateway  *gateway.Client
	API      *api.Client
	Store    *cache.Store
	Pipeline *optimistic.Pipeline
	Notifier notify.Notifier

	logger *slog.Logger
}

// Option configures an Engine.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	notifier notify.Notifier
	http     *http.Client
	session  tenant.Session
}

// WithLogger sets the logger shared by every component.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithNotifier adds n to the notification fan-out. Notifications are
// always logged.
func WithNotifier(n notify.Notifier) Option {
	return func(o *options) { o.notifier = n }
}

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *options) { o.http = hc }
}

// WithSession replaces the session built from configuration.
func WithSession(s tenant.Session) Option {
	return func(o *options) { o.session = s }
}

// New builds an engine from cfg.
func New(cfg config.Config, opts ...Option) *Engine {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if o.session == nil {
		o.session = SessionFromConfig(cfg.Session)
	}

	var notifier notify.Notifier = notify.NewLogNotifier(o.logger)
	if o.notifier != nil {
		notifier = notify.Multi{notifier, o.notifier}
	}

	gwOpts := []gateway.Option{
		gateway.WithNotifier(notifier),
		gateway.WithLogger(o.logger),
		gateway.WithTimeout(cfg.API.Timeout),
	}
	if o.http != nil {
		gwOpts = append(gwOpts, gateway.WithHTTPClient(o.http))
	}
	gw := gateway.New(cfg.API.BaseURL, gwOpts...)
	client := api.New(gw)

	storeOpts := []cache.Option{cache.WithLogger(o.logger)}
	if cfg.Cache.Debounce > 0 {
		storeOpts = append(storeOpts, cache.WithDebounce(cfg.Cache.Debounce))
	}
	if cfg.Cache.PageSize > 0 {
		storeOpts = append(storeOpts, cache.WithPageSize(cfg.Cache.PageSize))
	}
	store := cache.New(client, storeOpts...)

	return &Engine{
		Resolver: tenant.NewResolver(o.session),
		Gateway:  gw,
		API:      client,
		Store:    store,
		Pipeline: optimistic.New(client, store, optimistic.WithLogger(o.logger), optimistic.WithUsage(gw.Usage())),
		Notifier: notifier,
		logger:   o.logger,
	}
}

// SessionFromConfig builds a static session. Without a token the session
// is signed out.
func SessionFromConfig(sc config.SessionConfig) *tenant.StaticSession {
	s := tenant.NewStaticSession(tenant.SessionInfo{
		UserID:           sc.UserID,
		DisplayName:      sc.DisplayName,
		OrganizationID:   sc.OrganizationID,
		OrganizationRole: sc.OrganizationRole,
		Plan:             sc.Plan,
	}, sc.Token)
	s.SignedIn = sc.Token != ""
	return s
}

// Tenant resolves the current tenant scope.
func (e *Engine) Tenant() tenant.Context {
	return e.Resolver.Resolve()
}

// Sync loads the active page and the trash concurrently.
func (e *Engine) Sync(ctx context.Context) error {
	tc := e.Tenant()
	var g errgroup.Group
	g.Go(func() error { return e.Store.Refresh(ctx, tc) })
	g.Go(func() error { return e.Store.FetchTrash(ctx, tc) })
	if err := g.Wait(); err != nil {
		return fmt.Errorf("syncing %s: %w", tc.TenantID, err)
	}
	return nil
}

// Usage returns the last quotas reported by the server.
func (e *Engine) Usage() usage.Snapshot {
	return e.Gateway.Usage().Snapshot()
}

// SwitchTenant drops everything cached for the previous tenant and the
// cached bearer token.
func (e *Engine) SwitchTenant() {
	e.Store.Reset()
	e.Gateway.Usage().Reset()
	e.Resolver.Invalidate()
	e.logger.Info("tenant switched", "tenant_id", e.Tenant().TenantID)
}

// Close stops pending debounced work.
func (e *Engine) Close() {
	e.Store.Close()
}
