package usage

import (
	"fmt"
	"sync"
)

// Snapshot holds the most recent server-reported quotas. A nil quota was
// not reported yet.
type Snapshot struct {
	SKU *Quota `json:"sku,omitempty"`
	AI  *Quota `json:"ai,omitempty"`
}

// SKUGate evaluates the SKU quota, or an open gate when unknown.
func (s Snapshot) SKUGate() Gate {
	if s.SKU == nil {
		return Gate{}
	}
	return s.SKU.Gate()
}

// AIGate evaluates the AI quota, or an open gate when unknown.
func (s Snapshot) AIGate() Gate {
	if s.AI == nil {
		return Gate{}
	}
	return s.AI.Gate()
}

// SKUWarning describes a tripped or nearly tripped SKU gate, or returns ""
// when there is nothing to say.
func (s Snapshot) SKUWarning() string {
	g := s.SKUGate()
	switch {
	case g.IsLimitReached:
		return fmt.Sprintf("SKU limit reached (%s): new items are blocked", s.SKU)
	case g.IsNearLimit:
		return fmt.Sprintf("approaching the SKU limit (%s)", s.SKU)
	}
	return ""
}

// Tracker keeps the latest usage snapshot for one engine instance.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// Publish records the quotas present in a response. Absent quotas keep
// their previous value.
func (t *Tracker) Publish(sku, ai *Quota) {
	if sku == nil && ai == nil {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if sku != nil {
		q := *sku
		t.snap.SKU = &q
	}
	if ai != nil {
		q := *ai
		t.snap.AI = &q
	}
}

// Snapshot returns a copy of the latest quotas.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := Snapshot{}
	if t.snap.SKU != nil {
		q := *t.snap.SKU
		out.SKU = &q
	}
	if t.snap.AI != nil {
		q := *t.snap.AI
		out.AI = &q
	}
	return out
}

// CanCreate reports whether creating another SKU is allowed by the last
// reported quota.
func (t *Tracker) CanCreate() bool {
	return !t.Snapshot().SKUGate().IsLimitReached
}

// Reset forgets all quotas, e.g. after a tenant switch.
func (t *Tracker) Reset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.snap = Snapshot{}
}
