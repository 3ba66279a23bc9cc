package cache

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/rpggio/stocksync/internal/domain/inventory"
	"github.com/rpggio/stocksync/internal/tenant"
)

// ErrStaleResponse indicates a fetch response superseded by a later fetch.
// It is never stored as the user-facing error.
var ErrStaleResponse = errors.New("stale response discarded")

// Lister fetches the server collections.
type Lister interface {
	ListItems(ctx context.Context, tc tenant.Context, opts inventory.FetchOptions) (inventory.Page, error)
	ListTrash(ctx context.Context, tc tenant.Context) ([]inventory.Item, error)
}

// View is a consistent copy of the store state.
type View struct {
	Items   []inventory.Item
	Trash   []inventory.Item
	Total   int
	Loading bool
	Err     error
	Filter  inventory.FetchOptions
}

// Snapshot captures the collections before a mutation.
type Snapshot struct {
	items   []inventory.Item
	trash   []inventory.Item
	total   int
	version uint64
}

// Version is the store write counter at capture time.
func (s Snapshot) Version() uint64 {
	return s.version
}

// Items returns the captured active items.
func (s Snapshot) Items() []inventory.Item {
	return cloneItems(s.items)
}

// Trash returns the captured trashed items.
func (s Snapshot) Trash() []inventory.Item {
	return cloneItems(s.trash)
}

// Total returns the captured total count.
func (s Snapshot) Total() int {
	return s.total
}

// Option configures a Store.
type Option func(*Store)

// WithDebounce sets the filter quiet window.
func WithDebounce(d time.Duration) Option {
	return func(s *Store) { s.debounce = d }
}

// WithPageSize sets the default page size.
func WithPageSize(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.filter.Limit = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// Store caches one page of active items, the trash and the total count for
// a single tenant view.
type Store struct {
	remote    Lister
	logger    *slog.Logger
	debounce  time.Duration
	debouncer *Debouncer

	mu       sync.Mutex
	items    []inventory.Item
	trash    []inventory.Item
	total    int
	inflight int
	err      error
	filter   inventory.FetchOptions
	itemsSeq uint64
	trashSeq uint64
	version  uint64
	purged   map[string]struct{}
}

// New creates an empty store.
func New(remote Lister, opts ...Option) *Store {
	s := &Store{
		remote:   remote,
		debounce: DefaultDebounce,
		filter:   inventory.FetchOptions{Page: 1, Limit: inventory.DefaultPageSize},
		items:    []inventory.Item{},
		trash:    []inventory.Item{},
		purged:   make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s.debouncer = NewDebouncer(s.debounce)
	return s
}

// Items returns a copy of the active page.
func (s *Store) Items() []inventory.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

// Trash returns a copy of the trashed items.
func (s *Store) Trash() []inventory.Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.trash)
}

// TotalCount returns the server-reported number of active items.
func (s *Store) TotalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.total
}

// Loading reports whether a fetch is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.inflight > 0
}

// Err returns the last user-facing error.
func (s *Store) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// SetErr records a user-facing error.
func (s *Store) SetErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// ClearError resets the user-facing error.
func (s *Store) ClearError() {
	s.SetErr(nil)
}

// Filter returns the current fetch options.
func (s *Store) Filter() inventory.FetchOptions {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.filter
}

// View returns a consistent copy of the whole state.
func (s *Store) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()
	return View{
		Items:   cloneItems(s.items),
		Trash:   cloneItems(s.trash),
		Total:   s.total,
		Loading: s.inflight > 0,
		Err:     s.err,
		Filter:  s.filter,
	}
}

// Find returns the active item with id.
func (s *Store) Find(id string) (inventory.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.items, id); i >= 0 {
		return s.items[i].Clone(), true
	}
	return inventory.Item{}, false
}

// FindTrashed returns the trashed item with id.
func (s *Store) FindTrashed(id string) (inventory.Item, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i := indexOf(s.trash, id); i >= 0 {
		return s.trash[i].Clone(), true
	}
	return inventory.Item{}, false
}

// StateOf reports the lifecycle state of id as seen by this store.
func (s *Store) StateOf(id string) inventory.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.purged[id]; ok {
		return inventory.StatePurged
	}
	if indexOf(s.items, id) >= 0 {
		return inventory.StateActive
	}
	if indexOf(s.trash, id) >= 0 {
		return inventory.StateTrashed
	}
	return inventory.StateUnknown
}

// Refresh re-fetches the active page with the current filter.
func (s *Store) Refresh(ctx context.Context, tc tenant.Context) error {
	return s.FetchItems(ctx, tc, s.Filter())
}

// FetchItems replaces the active page with the server response for opts.
// A response superseded by a later fetch is discarded with ErrStaleResponse.
func (s *Store) FetchItems(ctx context.Context, tc tenant.Context, opts inventory.FetchOptions) error {
	opts = opts.Normalize()

	s.mu.Lock()
	s.filter = opts
	s.itemsSeq++
	seq := s.itemsSeq
	s.inflight++
	s.mu.Unlock()

	page, err := s.remote.ListItems(ctx, tc, opts)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	if seq != s.itemsSeq {
		s.logger.DebugContext(ctx, "discarding stale item page", "tenant_id", tc.TenantID, "seq", seq, "latest", s.itemsSeq)
		return ErrStaleResponse
	}
	if err != nil {
		s.err = err
		return fmt.Errorf("fetching items: %w", err)
	}

	items := make([]inventory.Item, 0, len(page.Items))
	for _, it := range page.Items {
		if _, gone := s.purged[it.ID]; gone {
			continue
		}
		items = append(items, it.Clone())
	}
	s.items = items
	s.total = page.Total
	s.trash = without(s.trash, s.items)
	s.version++
	return nil
}

// FetchTrash replaces the trash with the server response.
func (s *Store) FetchTrash(ctx context.Context, tc tenant.Context) error {
	s.mu.Lock()
	s.trashSeq++
	seq := s.trashSeq
	s.inflight++
	s.mu.Unlock()

	trash, err := s.remote.ListTrash(ctx, tc)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight--
	if seq != s.trashSeq {
		s.logger.DebugContext(ctx, "discarding stale trash", "tenant_id", tc.TenantID, "seq", seq, "latest", s.trashSeq)
		return ErrStaleResponse
	}
	if err != nil {
		s.err = err
		return fmt.Errorf("fetching trash: %w", err)
	}

	items := make([]inventory.Item, 0, len(trash))
	for _, it := range trash {
		if _, gone := s.purged[it.ID]; gone {
			continue
		}
		items = append(items, it.Clone())
	}
	s.trash = items
	s.items = without(s.items, s.trash)
	s.version++
	return nil
}

// SetFilter records a filter change and schedules a debounced fetch. Only
// the last change within the quiet window is fetched.
func (s *Store) SetFilter(ctx context.Context, tc tenant.Context, opts inventory.FetchOptions) {
	opts = opts.Normalize()
	s.mu.Lock()
	s.filter = opts
	s.mu.Unlock()

	s.debouncer.Trigger(func() {
		err := s.FetchItems(ctx, tc, opts)
		if err != nil && !errors.Is(err, ErrStaleResponse) {
			s.logger.WarnContext(ctx, "debounced fetch failed", "tenant_id", tc.TenantID, "error", err)
		}
	})
}

// FlushFilter runs a pending debounced fetch immediately.
func (s *Store) FlushFilter() {
	s.debouncer.Flush()
}

// Close cancels any pending debounced fetch.
func (s *Store) Close() {
	s.debouncer.Stop()
}

// Snapshot captures both collections and the total count.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		items:   cloneItems(s.items),
		trash:   cloneItems(s.trash),
		total:   s.total,
		version: s.version,
	}
}

// Rollback undoes a mutation of id captured by snap. When the only writes
// since snap are the caller's own ownWrites, the whole snapshot is
// restored. Otherwise only the rows of id are put back so concurrent
// changes to other items survive.
func (s *Store) Rollback(snap Snapshot, id string, ownWrites uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.version == snap.version+ownWrites {
		s.items = cloneItems(snap.items)
		s.trash = cloneItems(snap.trash)
		s.total = snap.total
		s.version++
		return
	}

	hadActive := indexOf(s.items, id) >= 0
	s.items = restoreRow(s.items, snap.items, id)
	s.trash = restoreRow(s.trash, snap.trash, id)
	hasActive := indexOf(s.items, id) >= 0
	switch {
	case hasActive && !hadActive:
		s.total++
	case !hasActive && hadActive:
		s.total--
	}
	if s.total < 0 {
		s.total = 0
	}
	s.version++
}

// UpdateItems applies fn to the active page and total count. Ids left in
// the active page are removed from the trash.
func (s *Store) UpdateItems(fn func(items []inventory.Item, total int) ([]inventory.Item, int)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items, total := fn(cloneItems(s.items), s.total)
	if items == nil {
		items = []inventory.Item{}
	}
	if total < 0 {
		total = 0
	}
	s.items = items
	s.total = total
	s.trash = without(s.trash, s.items)
	s.version++
}

// UpdateTrash applies fn to the trash. Ids left in the trash are removed
// from the active page.
func (s *Store) UpdateTrash(fn func(trash []inventory.Item) []inventory.Item) {
	s.mu.Lock()
	defer s.mu.Unlock()
	trash := fn(cloneItems(s.trash))
	if trash == nil {
		trash = []inventory.Item{}
	}
	s.trash = trash
	s.items = without(s.items, s.trash)
	s.version++
}

// MarkPurged tombstones id so it never re-enters either collection.
func (s *Store) MarkPurged(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.purged[id] = struct{}{}
	if i := indexOf(s.items, id); i >= 0 {
		s.items = slices.Delete(s.items, i, i+1)
		if s.total > 0 {
			s.total--
		}
	}
	if i := indexOf(s.trash, id); i >= 0 {
		s.trash = slices.Delete(s.trash, i, i+1)
	}
	s.version++
}

// Reset clears all cached state, e.g. after a tenant switch.
func (s *Store) Reset() {
	s.debouncer.Cancel()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = []inventory.Item{}
	s.trash = []inventory.Item{}
	s.total = 0
	s.err = nil
	s.itemsSeq++
	s.trashSeq++
	s.purged = make(map[string]struct{})
	s.version++
}

func indexOf(items []inventory.Item, id string) int {
	return slices.IndexFunc(items, func(it inventory.Item) bool { return it.ID == id })
}

func cloneItems(items []inventory.Item) []inventory.Item {
	out := make([]inventory.Item, len(items))
	for i, it := range items {
		out[i] = it.Clone()
	}
	return out
}

// without returns items minus any id present in exclude.
func without(items, exclude []inventory.Item) []inventory.Item {
	if len(exclude) == 0 {
		return items
	}
	ids := make(map[string]struct{}, len(exclude))
	for _, it := range exclude {
		ids[it.ID] = struct{}{}
	}
	out := items[:0:0]
	for _, it := range items {
		if _, ok := ids[it.ID]; !ok {
			out = append(out, it)
		}
	}
	return out
}

// restoreRow replaces the row of id in current with its snapshot version at
// the snapshot position, or removes it when the snapshot lacks it.
func restoreRow(current, snap []inventory.Item, id string) []inventory.Item {
	if i := indexOf(current, id); i >= 0 {
		current = slices.Delete(current, i, i+1)
	}
	j := indexOf(snap, id)
	if j < 0 {
		return current
	}
	row := snap[j].Clone()
	if j > len(current) {
		j = len(current)
	}
	return slices.Insert(current, j, row)
}
