package tenant

import (
	"context"
	"fmt"
	"sync"
	"time"
)

const (
	// PersonalTenant is the sentinel scope used when no session is present.
	PersonalTenant = "personal"
	// DefaultPlan applies when the session does not report a plan.
	DefaultPlan = "free"

	defaultExpirySkew = 30 * time.Second
)

// TokenSource supplies bearer tokens for a resolved Context.
type TokenSource interface {
	Token(ctx context.Context, forceRefresh bool) (string, error)
}

// Context is the resolved tenant scope of a single operation. It is a
// value: later session changes do not alter an already resolved Context.
type Context struct {
	TenantID string
	Plan     string
	IsAdmin  bool
	UserID   string
	Actor    string

	tokens TokenSource
}

// Token fetches a bearer token from the resolver this Context came from.
func (c Context) Token(ctx context.Context, forceRefresh bool) (string, error) {
	if c.tokens == nil {
		return "", ErrNoTokenSource
	}
	return c.tokens.Token(ctx, forceRefresh)
}

// IsPersonal reports whether the scope is not an organization.
func (c Context) IsPersonal() bool {
	return c.TenantID == PersonalTenant || (c.UserID != "" && c.TenantID == c.UserID)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithExpirySkew sets how long before expiry a cached token is refreshed.
func WithExpirySkew(d time.Duration) Option {
	return func(r *Resolver) { r.skew = d }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// Resolver derives tenant Contexts and bearer tokens from a Session.
type Resolver struct {
	session Session
	skew    time.Duration
	now     func() time.Time

	mu     sync.Mutex
	cached Token
}

// NewResolver creates a resolver for session.
func NewResolver(session Session, opts ...Option) *Resolver {
	r := &Resolver{session: session, skew: defaultExpirySkew, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the current tenant scope from cached session data.
func (r *Resolver) Resolve() Context {
	tc := Context{
		TenantID: PersonalTenant,
		Plan:     DefaultPlan,
		IsAdmin:  true,
		tokens:   r,
	}
	if r.session == nil {
		return tc
	}
	info, ok := r.session.Info()
	if !ok {
		return tc
	}

	tc.UserID = info.UserID
	tc.Actor = info.DisplayName
	if tc.Actor == "" {
		tc.Actor = info.UserID
	}
	if info.Plan != "" {
		tc.Plan = info.Plan
	}
	switch {
	case info.OrganizationID != "":
		tc.TenantID = info.OrganizationID
		tc.IsAdmin = isAdminRole(info.OrganizationRole)
	case info.UserID != "":
		tc.TenantID = info.UserID
	}
	return tc
}

func isAdminRole(role string) bool {
	return role == "org:admin" || role == "admin"
}

// Token returns a bearer token, reusing the cached one unless it is near
// expiry or forceRefresh is set.
func (r *Resolver) Token(ctx context.Context, forceRefresh bool) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !forceRefresh && r.cached.Value != "" && !r.expiring(r.cached) {
		return r.cached.Value, nil
	}
	if r.session == nil {
		return "", ErrNoSession
	}

	tok, err := r.session.IssueToken(ctx)
	if err != nil {
		return "", fmt.Errorf("issuing token: %w", err)
	}
	if tok.Value == "" {
		return "", ErrEmptyToken
	}
	r.cached = tok
	return tok.Value, nil
}

func (r *Resolver) expiring(tok Token) bool {
	if tok.ExpiresAt.IsZero() {
		return false
	}
	return !r.now().Add(r.skew).Before(tok.ExpiresAt)
}

// Invalidate drops the cached token. Call it on tenant switch, membership
// change or plan change.
func (r *Resolver) Invalidate() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cached = Token{}
}
