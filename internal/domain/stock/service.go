package stock

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rpggio/stocksync/internal/domain/inventory"
	"github.com/rpggio/stocksync/internal/domain/usage"
	"github.com/rpggio/stocksync/internal/repository"
)

const (
	defaultMovementActor = "System"
	defaultDeleteActor   = "Admin"
	recentLimit          = 20

	reasonDeleted  = "Item moved to recycle bin"
	reasonRestored = "Item restored from recycle bin"
)

// Service holds the server-side inventory rules.
type Service struct {
	items        ItemRepository
	transactions TransactionRepository
	logger       *slog.Logger
	now          func() time.Time
}

// NewService creates a new stock service.
func NewService(items ItemRepository, transactions TransactionRepository, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Service{items: items, transactions: transactions, logger: logger, now: time.Now}
}

// List returns one page of active items sorted by name.
func (s *Service) List(ctx context.Context, tenantID string, opts inventory.FetchOptions) (inventory.Page, error) {
	items, total, err := s.items.List(ctx, tenantID, opts.Normalize())
	if err != nil {
		return inventory.Page{}, fmt.Errorf("listing items: %w", err)
	}
	if items == nil {
		items = []inventory.Item{}
	}
	return inventory.Page{Items: items, Total: total}, nil
}

// ListTrash returns the trashed items of a tenant.
func (s *Service) ListTrash(ctx context.Context, tenantID string) ([]inventory.Item, error) {
	items, err := s.items.ListDeleted(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("listing trash: %w", err)
	}
	if items == nil {
		items = []inventory.Item{}
	}
	return items, nil
}

// Usage returns the SKU quota of a tenant on plan.
func (s *Service) Usage(ctx context.Context, tenantID, plan string) (usage.Quota, error) {
	count, err := s.items.CountActive(ctx, tenantID)
	if err != nil {
		return usage.Quota{}, fmt.Errorf("counting items: %w", err)
	}
	return usage.Quota{Current: count, Limit: LimitsFor(plan).MaxSKUs}, nil
}

// Create adds an item after checking the plan quota and SKU uniqueness.
func (s *Service) Create(ctx context.Context, tenantID, plan string, req inventory.NewItem) (*inventory.Item, error) {
	if err := inventory.ValidateNewItem(req); err != nil {
		return nil, err
	}

	quota, err := s.Usage(ctx, tenantID, plan)
	if err != nil {
		return nil, err
	}
	if quota.Gate().IsLimitReached {
		return nil, &LimitError{Limit: quota.Limit}
	}

	sku := normalizeSKU(req.SKU)
	if err := s.ensureSKUFree(ctx, tenantID, sku, ""); err != nil {
		return nil, err
	}

	now := s.now()
	item := &StoredItem{
		Item: inventory.Item{
			ID:           uuid.NewString(),
			Name:         strings.TrimSpace(req.Name),
			Quantity:     req.Quantity,
			TenantID:     tenantID,
			SKU:          sku,
			Category:     req.Category,
			Price:        req.Price,
			MinThreshold: req.MinThreshold,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.items.Create(ctx, tenantID, item); err != nil {
		if errors.Is(err, repository.ErrConflict) && sku != nil {
			return nil, &DuplicateSKUError{SKU: *sku}
		}
		return nil, fmt.Errorf("creating item: %w", err)
	}

	s.logger.InfoContext(ctx, "item created", "tenant_id", tenantID, "item_id", item.ID)
	out := item.Item
	return &out, nil
}

// Update merges patch into an active item.
func (s *Service) Update(ctx context.Context, tenantID, id string, patch inventory.ItemPatch) (*inventory.Item, error) {
	if err := inventory.ValidatePatch(patch); err != nil {
		return nil, err
	}
	current, err := s.getActive(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	var sku *string
	if patch.SKU != nil {
		sku = normalizeSKU(patch.SKU)
		if err := s.ensureSKUFree(ctx, tenantID, sku, id); err != nil {
			return nil, err
		}
	}

	updated := *current
	updated.Item = patch.Apply(current.Item)
	if patch.SKU != nil {
		updated.SKU = sku
	}
	updated.UpdatedAt = s.now()
	if err := s.items.Update(ctx, tenantID, &updated); err != nil {
		if errors.Is(err, repository.ErrConflict) && updated.SKU != nil {
			return nil, &DuplicateSKUError{SKU: *updated.SKU}
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", inventory.ErrItemNotFound, id)
		}
		return nil, fmt.Errorf("updating item: %w", err)
	}

	// Quantity may have moved since the read above.
	fresh, err := s.getActive(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	out := fresh.Item
	return &out, nil
}

// RecordMovement applies a stock movement and appends one ledger row in
// the same transaction. Concurrent movements never lose an update.
func (s *Service) RecordMovement(ctx context.Context, tenantID, id string, m inventory.MovementRequest) (*inventory.Item, error) {
	if err := inventory.ValidateMovement(m); err != nil {
		return nil, err
	}
	current, err := s.getActive(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	actor := strings.TrimSpace(m.PerformedBy)
	if actor == "" {
		actor = defaultMovementActor
	}
	entry := s.entry(tenantID, current, m.Delta(), m.Type, m.Reason, actor)
	updated, err := s.items.ApplyMovement(ctx, tenantID, entry)
	if err != nil {
		switch {
		case errors.Is(err, ErrInsufficientStock):
			return nil, fmt.Errorf("%w: %d requested", err, m.Amount)
		case errors.Is(err, repository.ErrNotFound):
			return nil, fmt.Errorf("%w: %s", inventory.ErrItemNotFound, id)
		}
		s.logger.ErrorContext(ctx, "movement failed", "tenant_id", tenantID, "item_id", id, "error", err)
		return nil, fmt.Errorf("recording movement: %w", err)
	}

	out := updated.Item
	return &out, nil
}

// Delete moves an active item to the trash.
func (s *Service) Delete(ctx context.Context, tenantID, id, performedBy string) error {
	current, err := s.get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if _, err := inventory.Transition(current.State(), inventory.EventDelete); err != nil {
		return err
	}

	actor := strings.TrimSpace(performedBy)
	if actor == "" {
		actor = defaultDeleteActor
	}
	entry := s.entry(tenantID, current, 0, inventory.TypeDeleted, reasonDeleted, actor)
	if err := s.items.SetDeleted(ctx, tenantID, id, &actor, entry); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %s", inventory.ErrItemNotFound, id)
		}
		return fmt.Errorf("trashing item: %w", err)
	}
	return nil
}

// Restore moves a trashed item back to the active set.
func (s *Service) Restore(ctx context.Context, tenantID, id, performedBy string) error {
	current, err := s.get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if _, err := inventory.Transition(current.State(), inventory.EventRestore); err != nil {
		return fmt.Errorf("%w: %w", ErrNotTrashed, err)
	}

	actor := strings.TrimSpace(performedBy)
	if actor == "" {
		actor = defaultDeleteActor
	}
	entry := s.entry(tenantID, current, 0, inventory.TypeRestored, reasonRestored, actor)
	if err := s.items.SetDeleted(ctx, tenantID, id, nil, entry); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %s", inventory.ErrItemNotFound, id)
		}
		return fmt.Errorf("restoring item: %w", err)
	}
	return nil
}

// Purge permanently removes a trashed item and its ledger.
func (s *Service) Purge(ctx context.Context, tenantID, id string) error {
	current, err := s.get(ctx, tenantID, id)
	if err != nil {
		return err
	}
	if _, err := inventory.Transition(current.State(), inventory.EventPurge); err != nil {
		return fmt.Errorf("%w: %w", ErrNotTrashed, err)
	}

	if err := s.items.Purge(ctx, tenantID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: %s", inventory.ErrItemNotFound, id)
		}
		return fmt.Errorf("purging item: %w", err)
	}
	s.logger.InfoContext(ctx, "item purged", "tenant_id", tenantID, "item_id", id)
	return nil
}

// History returns the ledger of one item, newest first.
func (s *Service) History(ctx context.Context, tenantID, id string) ([]inventory.Transaction, error) {
	if _, err := s.get(ctx, tenantID, id); err != nil {
		return nil, err
	}
	txs, err := s.transactions.ListByItem(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("listing history: %w", err)
	}
	if txs == nil {
		txs = []inventory.Transaction{}
	}
	return txs, nil
}

// Recent returns the latest ledger rows of a tenant.
func (s *Service) Recent(ctx context.Context, tenantID string) ([]inventory.Transaction, error) {
	txs, err := s.transactions.ListRecent(ctx, tenantID, recentLimit)
	if err != nil {
		return nil, fmt.Errorf("listing recent activity: %w", err)
	}
	if txs == nil {
		txs = []inventory.Transaction{}
	}
	return txs, nil
}

func (s *Service) get(ctx context.Context, tenantID, id string) (*StoredItem, error) {
	item, err := s.items.Get(ctx, tenantID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", inventory.ErrItemNotFound, id)
		}
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

func (s *Service) getActive(ctx context.Context, tenantID, id string) (*StoredItem, error) {
	item, err := s.get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if item.Deleted {
		return nil, fmt.Errorf("%w: %s", inventory.ErrItemNotFound, id)
	}
	return item, nil
}

func (s *Service) ensureSKUFree(ctx context.Context, tenantID string, sku *string, selfID string) error {
	if sku == nil {
		return nil
	}
	existing, err := s.items.FindBySKU(ctx, tenantID, *sku)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("checking sku: %w", err)
	}
	if existing.ID != selfID {
		return &DuplicateSKUError{SKU: *sku}
	}
	return nil
}

func (s *Service) entry(tenantID string, item *StoredItem, delta int, typ inventory.TransactionType, reason, actor string) *Entry {
	name := item.Name
	return &Entry{
		Transaction: inventory.Transaction{
			ID:             uuid.NewString(),
			QuantityChange: delta,
			Type:           typ,
			Reason:         reason,
			PerformedBy:    &actor,
			ItemName:       &name,
			CreatedAt:      inventory.Timestamp{Time: s.now()},
		},
		ItemID:   item.ID,
		TenantID: tenantID,
	}
}

func normalizeSKU(sku *string) *string {
	if sku == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*sku)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
