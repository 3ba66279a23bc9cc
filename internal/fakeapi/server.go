package fakeapi

import (
	"log/slog"
	"net/http"

	"github.com/rpggio/stocksync/internal/domain/stock"
	"github.com/rpggio/stocksync/internal/sqlite"
	"github.com/rpggio/stocksync/internal/transport"
)

// Server bundles the reference API over one database.
type Server struct {
	Handler http.Handler
	Keys    *KeyResolver
	Service *stock.Service
	Limiter *RateLimiter
}

// NewServer wires repositories, service and router over db.
func NewServer(db *sqlite.DB, logger *slog.Logger) *Server {
	svc := stock.NewService(sqlite.NewItemRepository(db), sqlite.NewTransactionRepository(db), logger)
	keys := NewKeyResolver(sqlite.NewAPIKeyRepository(db))
	limiter := NewRateLimiter()

	handler := transport.NewServer(New(svc, logger), transport.AuthMiddleware(keys), limiter.Middleware, UsageHeaders(svc))
	return &Server{Handler: handler, Keys: keys, Service: svc, Limiter: limiter}
}
