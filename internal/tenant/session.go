package tenant

import (
	"context"
	"time"
)

// SessionInfo holds the cached identity facts of an authenticated session.
type SessionInfo struct {
	UserID           string
	DisplayName      string
	OrganizationID   string
	OrganizationRole string
	Plan             string
}

// Token is a bearer credential with its expiry. A zero ExpiresAt never expires.
type Token struct {
	Value     string
	ExpiresAt time.Time
}

// Session is the external identity provider.
type Session interface {
	// Info returns the cached session facts, or false when signed out.
	Info() (SessionInfo, bool)
	// IssueToken mints a fresh bearer token.
	IssueToken(ctx context.Context) (Token, error)
}

// StaticSession is a Session backed by fixed values, used by the CLI and tests.
type StaticSession struct {
	Session  SessionInfo
	Bearer   string
	TTL      time.Duration
	SignedIn bool

	now func() time.Time
}

// NewStaticSession creates a signed-in static session.
func NewStaticSession(info SessionInfo, bearer string) *StaticSession {
	return &StaticSession{Session: info, Bearer: bearer, SignedIn: true}
}

func (s *StaticSession) Info() (SessionInfo, bool) {
	if !s.SignedIn {
		return SessionInfo{}, false
	}
	return s.Session, true
}

func (s *StaticSession) IssueToken(_ context.Context) (Token, error) {
	if !s.SignedIn {
		return Token{}, ErrNoSession
	}
	tok := Token{Value: s.Bearer}
	if s.TTL > 0 {
		now := time.Now
		if s.now != nil {
			now = s.now
		}
		tok.ExpiresAt = now().Add(s.TTL)
	}
	return tok, nil
}
