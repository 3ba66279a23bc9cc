package tenant

import "errors"

var (
	// ErrNoSession indicates no authenticated session is available to issue a token.
	ErrNoSession = errors.New("no active session")
	// ErrNoTokenSource indicates a Context that was not produced by a Resolver.
	ErrNoTokenSource = errors.New("context has no token source")
	// ErrEmptyToken indicates the session issued an empty token.
	ErrEmptyToken = errors.New("session issued an empty token")
)
