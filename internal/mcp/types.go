package mcp

import (
	"time"

	"github.com/rpggio/stocksync/internal/domain/inventory"
	"github.com/rpggio/stocksync/internal/domain/usage"
)

type ListItemsParams struct {
	Page     int    `json:"page,omitempty" jsonschema:"page number starting at 1"`
	Limit    int    `json:"limit,omitempty" jsonschema:"page size, default 10"`
	Search   string `json:"search,omitempty" jsonschema:"substring of name or SKU"`
	Category string `json:"category,omitempty"`
}

type EmptyParams struct{}

type AddItemParams struct {
	Name         string `json:"name" jsonschema:"display name"`
	Quantity     int    `json:"quantity,omitempty"`
	SKU          string `json:"sku,omitempty" jsonschema:"unique per tenant when set"`
	Category     string `json:"category,omitempty"`
	Price        string `json:"price,omitempty" jsonschema:"decimal price, e.g. 4.99"`
	MinThreshold int    `json:"min_threshold,omitempty" jsonschema:"low-stock threshold"`
}

type UpdateItemParams struct {
	ID           string  `json:"id"`
	Name         *string `json:"name,omitempty"`
	SKU          *string `json:"sku,omitempty"`
	Category     *string `json:"category,omitempty"`
	Price        *string `json:"price,omitempty"`
	MinThreshold *int    `json:"min_threshold,omitempty"`
}

type MoveStockParams struct {
	ID     string `json:"id"`
	Type   string `json:"type" jsonschema:"STOCK_IN or STOCK_OUT"`
	Amount int    `json:"amount" jsonschema:"positive quantity"`
	Reason string `json:"reason,omitempty"`
}

type ItemIDParams struct {
	ID string `json:"id"`
}

type WeeklyReportParams struct {
	OrgName  string `json:"org_name,omitempty"`
	FileName string `json:"file_name,omitempty" jsonschema:"plain file name to save under the server's report directory; omit to get the PDF inline"`
}

type ItemView struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Quantity     int    `json:"quantity"`
	SKU          string `json:"sku,omitempty"`
	Category     string `json:"category,omitempty"`
	Price        string `json:"price"`
	MinThreshold int    `json:"min_threshold"`
	LowStock     bool   `json:"low_stock"`
	DeletedBy    string `json:"deleted_by,omitempty"`
	Pending      bool   `json:"pending,omitempty"`
	Warning      string `json:"warning,omitempty"`
}

func newItemView(it inventory.Item) ItemView {
	v := ItemView{
		ID:           it.ID,
		Name:         it.Name,
		Quantity:     it.Quantity,
		SKU:          it.SKUValue(),
		Category:     it.Category,
		Price:        it.Price.StringFixed(2),
		MinThreshold: it.MinThreshold,
		LowStock:     it.IsLowStock(),
		Pending:      it.IsSending,
	}
	if it.DeletedBy != nil {
		v.DeletedBy = *it.DeletedBy
	}
	return v
}

func newItemViews(items []inventory.Item) []ItemView {
	out := make([]ItemView, 0, len(items))
	for _, it := range items {
		out = append(out, newItemView(it))
	}
	return out
}

type ItemsResult struct {
	Items      []ItemView `json:"items"`
	Total      int        `json:"total"`
	Page       int        `json:"page,omitempty"`
	TotalPages int        `json:"total_pages,omitempty"`
}

type LifecycleResult struct {
	ID    string `json:"id"`
	State string `json:"state"`
}

type TransactionView struct {
	ID             string `json:"id"`
	Type           string `json:"type"`
	QuantityChange int    `json:"quantity_change"`
	Reason         string `json:"reason,omitempty"`
	PerformedBy    string `json:"performed_by,omitempty"`
	ItemName       string `json:"item_name,omitempty"`
	CreatedAt      string `json:"created_at"`
}

type HistoryResult struct {
	Transactions []TransactionView `json:"transactions"`
}

func newHistoryResult(txs []inventory.Transaction) HistoryResult {
	out := HistoryResult{Transactions: make([]TransactionView, 0, len(txs))}
	for _, tx := range txs {
		v := TransactionView{
			ID:             tx.ID,
			Type:           string(tx.Type),
			QuantityChange: tx.QuantityChange,
			Reason:         tx.Reason,
			CreatedAt:      tx.CreatedAt.Format(time.RFC3339),
		}
		if tx.PerformedBy != nil {
			v.PerformedBy = *tx.PerformedBy
		}
		if tx.ItemName != nil {
			v.ItemName = *tx.ItemName
		}
		out.Transactions = append(out.Transactions, v)
	}
	return out
}

type QuotaView struct {
	Current        int64   `json:"current"`
	Limit          int64   `json:"limit"`
	Percent        float64 `json:"percent"`
	IsNearLimit    bool    `json:"is_near_limit"`
	IsLimitReached bool    `json:"is_limit_reached"`
}

func newQuotaView(q *usage.Quota) *QuotaView {
	if q == nil {
		return nil
	}
	g := q.Gate()
	return &QuotaView{
		Current:        q.Current,
		Limit:          q.Limit,
		Percent:        q.Percent(),
		IsNearLimit:    g.IsNearLimit,
		IsLimitReached: g.IsLimitReached,
	}
}

type UsageResult struct {
	TenantID string     `json:"tenant_id"`
	Plan     string     `json:"plan"`
	IsAdmin  bool       `json:"is_admin"`
	Personal bool       `json:"personal"`
	SKU      *QuotaView `json:"sku,omitempty"`
	AI       *QuotaView `json:"ai,omitempty"`
}

type ReportResult struct {
	File  string `json:"file,omitempty"`
	Bytes int    `json:"bytes"`
}
