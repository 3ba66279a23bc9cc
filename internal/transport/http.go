package transport

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes registers API endpoints on an authenticated router.
type Routes interface {
	Register(r chi.Router)
}

// NewServer creates an HTTP router. Authenticated routes run behind
// authMiddleware, the actor middleware and any extra middleware, in order.
func NewServer(routes Routes, authMiddleware func(http.Handler) http.Handler, extra ...func(http.Handler) http.Handler) *chi.Mux {
	r := chi.NewRouter()

	r.Get("/health", handleHealth)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusNotFound, "No handler found.")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		WriteError(w, http.StatusMethodNotAllowed, "Method not allowed.")
	})

	r.Group(func(r chi.Router) {
		if authMiddleware != nil {
			r.Use(authMiddleware)
		}
		r.Use(ActorMiddleware)
		for _, mw := range extra {
			r.Use(mw)
		}
		routes.Register(r)
	})

	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
