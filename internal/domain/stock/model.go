package stock

import (
	"strings"
	"time"

	"github.com/rpggio/stocksync/internal/domain/inventory"
)

// StoredItem is an item row as persisted, including trashed rows.
type StoredItem struct {
	inventory.Item
	Deleted   bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// State returns the lifecycle state of the row.
func (s StoredItem) State() inventory.State {
	if s.Deleted {
		return inventory.StateTrashed
	}
	return inventory.StateActive
}

// Entry is a ledger row with the item it belongs to.
type Entry struct {
	inventory.Transaction
	ItemID   string
	TenantID string
}

// Limits are the quotas of a billing plan.
type Limits struct {
	MaxSKUs           int64
	MonthlyTokens     int64
	RequestsPerMinute int
	Reports           bool
}

var (
	freeLimits = Limits{MaxSKUs: 5, MonthlyTokens: 15000, RequestsPerMinute: 60}
	proLimits  = Limits{MaxSKUs: 10000, MonthlyTokens: 500000, RequestsPerMinute: 1000, Reports: true}
)

// LimitsFor returns the quotas of plan. Any plan naming "pro" or "test"
// gets the paid limits.
func LimitsFor(plan string) Limits {
	p := strings.ToLower(plan)
	if strings.Contains(p, "pro") || strings.Contains(p, "test") {
		return proLimits
	}
	return freeLimits
}

// ReportSummary aggregates a tenant's ledger over a period.
type ReportSummary struct {
	TenantID     string
	OrgName      string
	From         time.Time
	To           time.Time
	ActiveItems  int
	LowStock     []inventory.Item
	StockIn      int
	StockOut     int
	Deleted      int
	Restored     int
	Transactions int
}
