package inventory

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType identifies the kind of ledger entry.
type TransactionType string

const (
	TypeStockIn  TransactionType = "STOCK_IN"
	TypeStockOut TransactionType = "STOCK_OUT"
	TypeDeleted  TransactionType = "DELETED"
	TypeRestored TransactionType = "RESTORED"
)

// IsMovement reports whether the type changes quantity.
func (t TransactionType) IsMovement() bool {
	return t == TypeStockIn || t == TypeStockOut
}

// Item is one stock-keeping unit of a tenant.
type Item struct {
	ID           string          `json:"id"`
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	TenantID     string          `json:"tenantId"`
	SKU          *string         `json:"sku,omitempty"`
	Category     string          `json:"category,omitempty"`
	Price        decimal.Decimal `json:"price"`
	MinThreshold int             `json:"minThreshold"`
	DeletedBy    *string         `json:"deletedBy,omitempty"`

	// IsSending marks a provisional row created locally and not yet
	// confirmed by the server.
	IsSending bool `json:"-"`
}

// IsLowStock reports whether quantity is at or below the minimum threshold.
func (i Item) IsLowStock() bool {
	return i.MinThreshold > 0 && i.Quantity <= i.MinThreshold
}

// SKUValue returns the SKU or an empty string.
func (i Item) SKUValue() string {
	if i.SKU == nil {
		return ""
	}
	return *i.SKU
}

// Equal compares two items field by field.
func (i Item) Equal(o Item) bool {
	return i.ID == o.ID &&
		i.Name == o.Name &&
		i.Quantity == o.Quantity &&
		i.TenantID == o.TenantID &&
		ptrEqual(i.SKU, o.SKU) &&
		i.Category == o.Category &&
		i.Price.Equal(o.Price) &&
		i.MinThreshold == o.MinThreshold &&
		ptrEqual(i.DeletedBy, o.DeletedBy) &&
		i.IsSending == o.IsSending
}

// Clone returns a deep copy of the item.
func (i Item) Clone() Item {
	out := i
	if i.SKU != nil {
		sku := *i.SKU
		out.SKU = &sku
	}
	if i.DeletedBy != nil {
		by := *i.DeletedBy
		out.DeletedBy = &by
	}
	return out
}

// Transaction is an immutable ledger entry for one item.
type Transaction struct {
	ID             string          `json:"id"`
	QuantityChange int             `json:"quantityChange"`
	Type           TransactionType `json:"type"`
	Reason         string          `json:"reason"`
	PerformedBy    *string         `json:"performedBy,omitempty"`
	ItemName       *string         `json:"itemName,omitempty"`
	CreatedAt      Timestamp       `json:"createdAt"`
}

// ItemPatch holds the fields of an update; nil fields are left unchanged.
type ItemPatch struct {
	Name         *string          `json:"name,omitempty"`
	SKU          *string          `json:"sku,omitempty"`
	Category     *string          `json:"category,omitempty"`
	Price        *decimal.Decimal `json:"price,omitempty"`
	MinThreshold *int             `json:"minThreshold,omitempty"`
}

// Apply merges the patch into a copy of item.
func (p ItemPatch) Apply(item Item) Item {
	out := item.Clone()
	if p.Name != nil {
		out.Name = *p.Name
	}
	if p.SKU != nil {
		sku := *p.SKU
		out.SKU = &sku
	}
	if p.Category != nil {
		out.Category = *p.Category
	}
	if p.Price != nil {
		out.Price = *p.Price
	}
	if p.MinThreshold != nil {
		out.MinThreshold = *p.MinThreshold
	}
	return out
}

// NewItem describes an item to create.
type NewItem struct {
	Name         string          `json:"name"`
	Quantity     int             `json:"quantity"`
	SKU          *string         `json:"sku,omitempty"`
	Category     string          `json:"category,omitempty"`
	Price        decimal.Decimal `json:"price"`
	MinThreshold int             `json:"minThreshold"`
}

// MovementRequest is the body of a stock movement.
type MovementRequest struct {
	Amount      int             `json:"amount"`
	Type        TransactionType `json:"type"`
	Reason      string          `json:"reason"`
	PerformedBy string          `json:"performedBy,omitempty"`
}

// Delta returns the signed quantity change of the movement.
func (m MovementRequest) Delta() int {
	amount := m.Amount
	if amount < 0 {
		amount = -amount
	}
	if m.Type == TypeStockOut {
		return -amount
	}
	return amount
}

// Timestamp accepts RFC 3339 times as well as zone-less local date-times.
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized format %q", raw)
}

// MarshalJSON implements json.Marshaler.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte(`""`), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

func ptrEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
