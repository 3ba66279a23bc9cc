// Package optimistic applies inventory mutations to the local cache before
// the server confirms them, then reconciles or rolls back.
package optimistic

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/rpggio/stocksync/internal/cache"
	"github.com/rpggio/stocksync/internal/domain/inventory"
	"github.com/rpggio/stocksync/internal/domain/usage"
	"github.com/rpggio/stocksync/internal/tenant"
)

// ProvisionalPrefix marks ids of rows created locally and not yet confirmed.
const ProvisionalPrefix = "tmp-"

// Remote is the server surface used by the pipeline.
type Remote interface {
	CreateItem(ctx context.Context, tc tenant.Context, item inventory.NewItem) (inventory.Item, error)
	UpdateItem(ctx context.Context, tc tenant.Context, id string, patch inventory.ItemPatch) (inventory.Item, error)
	RecordMovement(ctx context.Context, tc tenant.Context, id string, m inventory.MovementRequest) error
	DeleteItem(ctx context.Context, tc tenant.Context, id, performedBy string) error
	RestoreItem(ctx context.Context, tc tenant.Context, id, performedBy string) error
	PurgeItem(ctx context.Context, tc tenant.Context, id string) error
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pipeline) { p.logger = l }
}

// WithUsage gates creates on the tracker's SKU quota.
func WithUsage(t *usage.Tracker) Option {
	return func(p *Pipeline) { p.usage = t }
}

// Pipeline runs snapshot, projection, call and reconcile-or-rollback for
// every mutation.
type Pipeline struct {
	remote Remote
	store  *cache.Store
	locks  *keyedLocker
	usage  *usage.Tracker
	logger *slog.Logger
}

// New creates a pipeline writing to store.
func New(remote Remote, store *cache.Store, opts ...Option) *Pipeline {
	p := &Pipeline{remote: remote, store: store, locks: newKeyedLocker()}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return p
}

// IsProvisional reports whether id belongs to an unconfirmed local row.
func IsProvisional(id string) bool {
	return strings.HasPrefix(id, ProvisionalPrefix)
}

// CreateItem appends a provisional row, posts the item, and re-fetches the
// page on success. A tripped SKU gate rejects the create without a request.
func (p *Pipeline) CreateItem(ctx context.Context, tc tenant.Context, item inventory.NewItem) (inventory.Item, error) {
	if err := inventory.ValidateNewItem(item); err != nil {
		return inventory.Item{}, p.fail(OpCreate, "", err)
	}
	if p.usage != nil && !p.usage.CanCreate() {
		q := p.usage.Snapshot().SKU
		return inventory.Item{}, p.fail(OpCreate, "", fmt.Errorf("%w: %s SKUs", usage.ErrLimitReached, q))
	}

	tmpID := ProvisionalPrefix + uuid.NewString()
	unlock := p.locks.Lock(tmpID)
	defer unlock()

	snap := p.store.Snapshot()
	provisional := inventory.Item{
		ID:           tmpID,
		Name:         item.Name,
		Quantity:     item.Quantity,
		TenantID:     tc.TenantID,
		SKU:          item.SKU,
		Category:     item.Category,
		Price:        item.Price,
		MinThreshold: item.MinThreshold,
		IsSending:    true,
	}
	p.store.UpdateItems(func(items []inventory.Item, total int) ([]inventory.Item, int) {
		return append(items, provisional.Clone()), total + 1
	})

	created, err := p.remote.CreateItem(ctx, tc, item)
	if err != nil {
		p.store.Rollback(snap, tmpID, 1)
		return inventory.Item{}, p.fail(OpCreate, tmpID, err)
	}

	p.logger.InfoContext(ctx, "item created", "tenant_id", tc.TenantID, "item_id", created.ID)
	p.reconcileItems(ctx, tc)
	return created, nil
}

// UpdateItem merges patch into the cached row, then sends it.
func (p *Pipeline) UpdateItem(ctx context.Context, tc tenant.Context, id string, patch inventory.ItemPatch) error {
	unlock := p.locks.Lock(id)
	defer unlock()

	if _, ok := p.store.Find(id); !ok {
		return p.fail(OpUpdate, id, inventory.ErrItemNotFound)
	}
	if err := inventory.ValidatePatch(patch); err != nil {
		return p.fail(OpUpdate, id, err)
	}

	snap := p.store.Snapshot()
	p.store.UpdateItems(func(items []inventory.Item, total int) ([]inventory.Item, int) {
		if i := indexOf(items, id); i >= 0 {
			items[i] = patch.Apply(items[i])
		}
		return items, total
	})

	if _, err := p.remote.UpdateItem(ctx, tc, id, patch); err != nil {
		p.store.Rollback(snap, id, 1)
		return p.fail(OpUpdate, id, err)
	}

	p.reconcileItems(ctx, tc)
	return nil
}

// RecordMovement adjusts the cached quantity by the signed delta, then
// posts the movement.
func (p *Pipeline) RecordMovement(ctx context.Context, tc tenant.Context, id string, m inventory.MovementRequest) error {
	unlock := p.locks.Lock(id)
	defer unlock()

	if _, ok := p.store.Find(id); !ok {
		return p.fail(OpMovement, id, inventory.ErrItemNotFound)
	}
	if err := inventory.ValidateMovement(m); err != nil {
		return p.fail(OpMovement, id, err)
	}
	if m.PerformedBy == "" {
		m.PerformedBy = tc.Actor
	}

	snap := p.store.Snapshot()
	delta := m.Delta()
	p.store.UpdateItems(func(items []inventory.Item, total int) ([]inventory.Item, int) {
		if i := indexOf(items, id); i >= 0 {
			items[i].Quantity += delta
		}
		return items, total
	})

	if err := p.remote.RecordMovement(ctx, tc, id, m); err != nil {
		p.store.Rollback(snap, id, 1)
		return p.fail(OpMovement, id, err)
	}

	p.logger.InfoContext(ctx, "stock movement recorded", "tenant_id", tc.TenantID, "item_id", id, "type", m.Type, "delta", delta)
	p.reconcileItems(ctx, tc)
	return nil
}

// DeleteItem removes the item from the active page and moves it to the
// trash on the server.
func (p *Pipeline) DeleteItem(ctx context.Context, tc tenant.Context, id string) error {
	unlock := p.locks.Lock(id)
	defer unlock()

	if err := p.checkTransition(id, inventory.EventDelete); err != nil {
		return p.fail(OpDelete, id, err)
	}

	snap := p.store.Snapshot()
	p.store.UpdateItems(func(items []inventory.Item, total int) ([]inventory.Item, int) {
		if i := indexOf(items, id); i >= 0 {
			return slices.Delete(items, i, i+1), total - 1
		}
		return items, total
	})

	if err := p.remote.DeleteItem(ctx, tc, id, tc.Actor); err != nil {
		p.store.Rollback(snap, id, 1)
		return p.fail(OpDelete, id, err)
	}

	p.logger.InfoContext(ctx, "item trashed", "tenant_id", tc.TenantID, "item_id", id)
	p.reconcileBoth(ctx, tc)
	return nil
}

// RestoreItem moves a trashed item back to the active set. There is no
// projection; both collections are re-fetched on success.
func (p *Pipeline) RestoreItem(ctx context.Context, tc tenant.Context, id string) error {
	unlock := p.locks.Lock(id)
	defer unlock()

	if err := p.checkTransition(id, inventory.EventRestore); err != nil {
		return p.fail(OpRestore, id, err)
	}

	if err := p.remote.RestoreItem(ctx, tc, id, tc.Actor); err != nil {
		return p.fail(OpRestore, id, err)
	}

	p.logger.InfoContext(ctx, "item restored", "tenant_id", tc.TenantID, "item_id", id)
	p.reconcileBoth(ctx, tc)
	return nil
}

// PurgeItem permanently deletes a trashed item. The purge is terminal once
// the server confirms it.
func (p *Pipeline) PurgeItem(ctx context.Context, tc tenant.Context, id string) error {
	unlock := p.locks.Lock(id)
	defer unlock()

	if err := p.checkTransition(id, inventory.EventPurge); err != nil {
		return p.fail(OpPurge, id, err)
	}

	snap := p.store.Snapshot()
	p.store.UpdateTrash(func(trash []inventory.Item) []inventory.Item {
		if i := indexOf(trash, id); i >= 0 {
			return slices.Delete(trash, i, i+1)
		}
		return trash
	})

	if err := p.remote.PurgeItem(ctx, tc, id); err != nil {
		p.store.Rollback(snap, id, 1)
		return p.fail(OpPurge, id, err)
	}

	p.store.MarkPurged(id)
	p.logger.InfoContext(ctx, "item purged", "tenant_id", tc.TenantID, "item_id", id)
	return nil
}

// checkTransition validates a lifecycle event against the cached state.
// Ids the store has never seen, or has purged, are reported as not found.
func (p *Pipeline) checkTransition(id string, event inventory.Event) error {
	state := p.store.StateOf(id)
	if state == inventory.StateUnknown || state.IsTerminal() {
		return fmt.Errorf("%w: %s", inventory.ErrItemNotFound, id)
	}
	if _, err := inventory.Transition(state, event); err != nil {
		return fmt.Errorf("%s %s: %w", event, id, err)
	}
	return nil
}

func (p *Pipeline) fail(op Op, id string, err error) error {
	me := newMutationError(op, id, err)
	p.store.SetErr(me)
	p.logger.Warn("mutation failed", "op", op, "item_id", id, "class", me.Class, "error", err)
	return me
}

func (p *Pipeline) reconcileItems(ctx context.Context, tc tenant.Context) {
	if err := p.store.Refresh(ctx, tc); err != nil && !errors.Is(err, cache.ErrStaleResponse) {
		p.logger.WarnContext(ctx, "reconcile fetch failed", "tenant_id", tc.TenantID, "error", err)
	}
}

func (p *Pipeline) reconcileBoth(ctx context.Context, tc tenant.Context) {
	var g errgroup.Group
	g.Go(func() error { return p.store.Refresh(ctx, tc) })
	g.Go(func() error { return p.store.FetchTrash(ctx, tc) })
	if err := g.Wait(); err != nil && !errors.Is(err, cache.ErrStaleResponse) {
		p.logger.WarnContext(ctx, "reconcile fetch failed", "tenant_id", tc.TenantID, "error", err)
	}
}

func indexOf(items []inventory.Item, id string) int {
	return slices.IndexFunc(items, func(it inventory.Item) bool { return it.ID == id })
}
