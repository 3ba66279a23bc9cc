package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/rpggio/stocksync/internal/domain/inventory"
	"github.com/rpggio/stocksync/internal/domain/usage"
)

type itemList struct {
	Items      []inventory.Item `json:"items"`
	Total      int              `json:"total"`
	Page       int              `json:"page,omitempty"`
	TotalPages int              `json:"totalPages,omitempty"`
}

func (l itemList) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSKU\tQTY\tPRICE\tFLAG")
	for _, it := range l.Items {
		flag := ""
		if it.IsLowStock() {
			flag = "low"
		}
		if it.IsSending {
			flag = "sending"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%s\t%s\n", it.ID, it.Name, it.SKUValue(), it.Quantity, it.Price.StringFixed(2), flag)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if l.Page > 0 {
		_, err := fmt.Fprintf(w, "page %d of %d, %d items\n", l.Page, l.TotalPages, l.Total)
		return err
	}
	_, err := fmt.Fprintf(w, "%d items\n", l.Total)
	return err
}

type itemResult struct {
	inventory.Item
	Warning string `json:"warning,omitempty"`
}

func (r itemResult) WriteText(w io.Writer) error {
	if _, err := fmt.Fprintf(w, "%s  %s  qty=%d  price=%s\n", r.ID, r.Name, r.Quantity, r.Price.StringFixed(2)); err != nil {
		return err
	}
	if r.Warning != "" {
		_, err := fmt.Fprintln(w, r.Warning)
		return err
	}
	return nil
}

type lifecycleResult struct {
	ID    string          `json:"id"`
	State inventory.State `json:"state"`
}

func (r lifecycleResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s: %s\n", r.ID, r.State)
	return err
}

type ledger struct {
	Transactions []inventory.Transaction `json:"transactions"`
}

func (l ledger) WriteText(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "WHEN\tTYPE\tCHANGE\tITEM\tBY\tREASON")
	for _, tx := range l.Transactions {
		fmt.Fprintf(tw, "%s\t%s\t%+d\t%s\t%s\t%s\n",
			tx.CreatedAt.Format("2006-01-02 15:04"), tx.Type, tx.QuantityChange,
			deref(tx.ItemName), deref(tx.PerformedBy), tx.Reason)
	}
	return tw.Flush()
}

type usageReport struct {
	TenantID string       `json:"tenantId"`
	Plan     string       `json:"plan"`
	IsAdmin  bool         `json:"isAdmin"`
	Personal bool         `json:"personal"`
	SKU      *usage.Quota `json:"sku,omitempty"`
	AI       *usage.Quota `json:"ai,omitempty"`
	SKUGate  usage.Gate   `json:"skuGate"`
	Warning  string       `json:"warning,omitempty"`
}

func (u usageReport) WriteText(w io.Writer) error {
	role := "member"
	if u.IsAdmin {
		role = "admin"
	}
	scope := "organization"
	if u.Personal {
		scope = "personal"
	}
	fmt.Fprintf(w, "tenant %s (%s, %s, %s)\n", u.TenantID, scope, u.Plan, role)
	writeQuota(w, "SKUs", u.SKU)
	writeQuota(w, "AI tokens", u.AI)
	if u.Warning != "" {
		fmt.Fprintln(w, u.Warning)
	}
	return nil
}

func writeQuota(w io.Writer, label string, q *usage.Quota) {
	if q == nil {
		fmt.Fprintf(w, "%s: unknown\n", label)
		return
	}
	fmt.Fprintf(w, "%s: %s (%.0f%%)\n", label, q.String(), q.Percent())
}

type reportResult struct {
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

func (r reportResult) WriteText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "wrote %d bytes to %s\n", r.Bytes, r.Path)
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
