// Package fakeapi serves the inventory REST API from SQLite for local
// development and end-to-end tests.
package fakeapi

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/rpggio/stocksync/internal/domain/inventory"
	"github.com/rpggio/stocksync/internal/domain/stock"
	"github.com/rpggio/stocksync/internal/transport"
)

// API implements the inventory endpoints.
type API struct {
	svc    *stock.Service
	logger *slog.Logger
}

// New creates the API handlers.
func New(svc *stock.Service, logger *slog.Logger) *API {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &API{svc: svc, logger: logger}
}

// Register mounts the endpoints.
func (a *API) Register(r chi.Router) {
	r.Route("/api/inventory", func(r chi.Router) {
		r.Get("/", a.listItems)
		r.Get("/trash", a.listTrash)
		r.Group(func(r chi.Router) {
			r.Use(transport.RequireAdmin)
			r.Post("/", a.createItem)
			r.Put("/{id}", a.updateItem)
			r.Delete("/{id}", a.deleteItem)
			r.Put("/restore/{id}", a.restoreItem)
			r.Delete("/permanent/{id}", a.purgeItem)
		})
	})
	r.Route("/api/transactions", func(r chi.Router) {
		r.Get("/recent", a.recent)
		r.Get("/{itemId}", a.history)
		r.Post("/{itemId}", a.recordMovement)
	})
	r.Get("/api/reports/weekly", a.weeklyReport)
}

func (a *API) listItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	opts := inventory.FetchOptions{
		Page:     atoiDefault(q.Get("page"), 1),
		Limit:    atoiDefault(q.Get("limit"), inventory.DefaultPageSize),
		Search:   q.Get("search"),
		Category: q.Get("category"),
	}
	page, err := a.svc.List(r.Context(), tenantID(r), opts)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, page)
}

func (a *API) listTrash(w http.ResponseWriter, r *http.Request) {
	items, err := a.svc.ListTrash(r.Context(), tenantID(r))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, items)
}

func (a *API) createItem(w http.ResponseWriter, r *http.Request) {
	var req inventory.NewItem
	if err := transport.DecodeJSON(r, &req); err != nil {
		transport.WriteError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	item, err := a.svc.Create(r.Context(), tenantID(r), transport.PlanFromContext(r.Context()), req)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusCreated, item)
}

func (a *API) updateItem(w http.ResponseWriter, r *http.Request) {
	var patch inventory.ItemPatch
	if err := transport.DecodeJSON(r, &patch); err != nil {
		transport.WriteError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	item, err := a.svc.Update(r.Context(), tenantID(r), chi.URLParam(r, "id"), patch)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, item)
}

func (a *API) deleteItem(w http.ResponseWriter, r *http.Request) {
	actor, _ := transport.ActorFromContext(r.Context())
	if err := a.svc.Delete(r.Context(), tenantID(r), chi.URLParam(r, "id"), actor); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) restoreItem(w http.ResponseWriter, r *http.Request) {
	actor, _ := transport.ActorFromContext(r.Context())
	if err := a.svc.Restore(r.Context(), tenantID(r), chi.URLParam(r, "id"), actor); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) purgeItem(w http.ResponseWriter, r *http.Request) {
	if err := a.svc.Purge(r.Context(), tenantID(r), chi.URLParam(r, "id")); err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (a *API) recordMovement(w http.ResponseWriter, r *http.Request) {
	var req inventory.MovementRequest
	if err := transport.DecodeJSON(r, &req); err != nil {
		transport.WriteError(w, http.StatusBadRequest, "Malformed request body.")
		return
	}
	if req.PerformedBy == "" {
		req.PerformedBy, _ = transport.ActorFromContext(r.Context())
	}
	item, err := a.svc.RecordMovement(r.Context(), tenantID(r), chi.URLParam(r, "itemId"), req)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, item)
}

func (a *API) history(w http.ResponseWriter, r *http.Request) {
	txs, err := a.svc.History(r.Context(), tenantID(r), chi.URLParam(r, "itemId"))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, txs)
}

func (a *API) recent(w http.ResponseWriter, r *http.Request) {
	txs, err := a.svc.Recent(r.Context(), tenantID(r))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	transport.WriteJSON(w, http.StatusOK, txs)
}

func (a *API) weeklyReport(w http.ResponseWriter, r *http.Request) {
	summary, err := a.svc.WeeklySummary(r.Context(), tenantID(r), transport.PlanFromContext(r.Context()), r.URL.Query().Get("orgName"))
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	pdf, err := stock.RenderPDF(summary)
	if err != nil {
		a.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="weekly-report.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(pdf)
}

func (a *API) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var dup *stock.DuplicateSKUError
	var limit *stock.LimitError
	switch {
	case errors.As(err, &dup):
		transport.WriteError(w, http.StatusBadRequest, dup.Error())
	case errors.As(err, &limit):
		transport.WriteError(w, http.StatusPaymentRequired, limit.Error())
	case errors.Is(err, stock.ErrReportsNotIncluded):
		transport.WriteError(w, http.StatusPaymentRequired, "Weekly reports are available on the Pro plan.")
	case errors.Is(err, inventory.ErrItemNotFound):
		transport.WriteError(w, http.StatusNotFound, "Item not found.")
	case errors.Is(err, stock.ErrNotTrashed):
		transport.WriteError(w, http.StatusNotFound, "Item not found in trash.")
	case errors.Is(err, stock.ErrInsufficientStock):
		transport.WriteError(w, http.StatusBadRequest, "Insufficient stock for this movement.")
	case errors.Is(err, inventory.ErrInvalidTransition),
		errors.Is(err, inventory.ErrInvalidInput),
		errors.Is(err, inventory.ErrInvalidAmount),
		errors.Is(err, inventory.ErrInvalidMovementType):
		transport.WriteError(w, http.StatusBadRequest, err.Error())
	default:
		a.logger.ErrorContext(r.Context(), "request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		transport.WriteError(w, http.StatusInternalServerError, "An unexpected error occurred.")
	}
}

func tenantID(r *http.Request) string {
	id, _ := transport.TenantFromContext(r.Context())
	return id
}

func atoiDefault(raw string, def int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return def
	}
	return n
}
