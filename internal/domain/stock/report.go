package stock

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"

	"github.com/rpggio/stocksync/internal/domain/inventory"
)

const reportWindow = 7 * 24 * time.Hour

// WeeklySummary aggregates the last seven days of a tenant's ledger.
func (s *Service) WeeklySummary(ctx context.Context, tenantID, plan, orgName string) (ReportSummary, error) {
	if !LimitsFor(plan).Reports {
		return ReportSummary{}, ErrReportsNotIncluded
	}

	to := s.now()
	summary := ReportSummary{TenantID: tenantID, OrgName: orgName, From: to.Add(-reportWindow), To: to}

	txs, err := s.transactions.ListRecent(ctx, tenantID, 0)
	if err != nil {
		return ReportSummary{}, fmt.Errorf("listing ledger: %w", err)
	}
	for _, tx := range txs {
		if tx.CreatedAt.Before(summary.From) {
			continue
		}
		summary.Transactions++
		switch tx.Type {
		case inventory.TypeStockIn:
			summary.StockIn += tx.QuantityChange
		case inventory.TypeStockOut:
			summary.StockOut -= tx.QuantityChange
		case inventory.TypeDeleted:
			summary.Deleted++
		case inventory.TypeRestored:
			summary.Restored++
		}
	}

	items, total, err := s.items.List(ctx, tenantID, inventory.FetchOptions{Page: 1, Limit: int(LimitsFor(plan).MaxSKUs)})
	if err != nil {
		return ReportSummary{}, fmt.Errorf("listing items: %w", err)
	}
	summary.ActiveItems = total
	for _, it := range items {
		if it.IsLowStock() {
			summary.LowStock = append(summary.LowStock, it)
		}
	}
	return summary, nil
}

// Lines renders the summary as plain text lines.
func (r ReportSummary) Lines() []string {
	title := "Weekly Inventory Report"
	if r.OrgName != "" {
		title += " - " + r.OrgName
	}
	lines := []string{
		title,
		fmt.Sprintf("Period: %s to %s", r.From.Format("2006-01-02"), r.To.Format("2006-01-02")),
		"",
		fmt.Sprintf("Active items: %d", r.ActiveItems),
		fmt.Sprintf("Units received: %d", r.StockIn),
		fmt.Sprintf("Units shipped: %d", r.StockOut),
		fmt.Sprintf("Items trashed: %d", r.Deleted),
		fmt.Sprintf("Items restored: %d", r.Restored),
		fmt.Sprintf("Ledger entries: %d", r.Transactions),
		"",
		fmt.Sprintf("Low stock (%d):", len(r.LowStock)),
	}
	for _, it := range r.LowStock {
		lines = append(lines, fmt.Sprintf("  %s: %d on hand, minimum %d", it.Name, it.Quantity, it.MinThreshold))
	}
	return lines
}

const (
	reportMargin = 15.0
	reportLine   = 6.0
)

// RenderPDF lays the summary out as an A4 document. Long low-stock lists
// continue on further pages.
func RenderPDF(r ReportSummary) ([]byte, error) {
	var out bytes.Buffer
	if err := newReportPDF(r).Output(&out); err != nil {
		return nil, fmt.Errorf("rendering report: %w", err)
	}
	return out.Bytes(), nil
}

func newReportPDF(r ReportSummary) *fpdf.Fpdf {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(reportMargin, reportMargin, reportMargin)
	pdf.SetAutoPageBreak(true, reportMargin)
	pdf.SetCreationDate(r.To)
	pdf.AliasNbPages("")
	// Core fonts are cp1252; names outside it degrade instead of garbling.
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	lines := r.Lines()
	pdf.SetTitle(lines[0], true)
	pdf.SetFooterFunc(func() {
		pdf.SetY(-reportMargin)
		pdf.SetFont("Helvetica", "I", 8)
		pdf.CellFormat(0, 10, fmt.Sprintf("Page %d/{nb}", pdf.PageNo()), "", 0, "C", false, 0, "")
	})
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 8, tr(lines[0]), "", "L", false)
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, reportLine, lines[1], "", 1, "L", false, 0, "")
	pdf.Ln(reportLine)

	metrics := []struct {
		label string
		value int
	}{
		{"Active items", r.ActiveItems},
		{"Units received", r.StockIn},
		{"Units shipped", r.StockOut},
		{"Items trashed", r.Deleted},
		{"Items restored", r.Restored},
		{"Ledger entries", r.Transactions},
	}
	pdf.SetFont("Helvetica", "", 11)
	for _, m := range metrics {
		pdf.CellFormat(60, reportLine, m.label, "B", 0, "L", false, 0, "")
		pdf.CellFormat(30, reportLine, fmt.Sprint(m.value), "B", 1, "R", false, 0, "")
	}
	pdf.Ln(reportLine)

	pdf.SetFont("Helvetica", "B", 12)
	pdf.CellFormat(0, reportLine+1, fmt.Sprintf("Low stock (%d)", len(r.LowStock)), "", 1, "L", false, 0, "")
	if len(r.LowStock) == 0 {
		return pdf
	}

	header := func() {
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(110, reportLine, "Item", "B", 0, "L", false, 0, "")
		pdf.CellFormat(35, reportLine, "On hand", "B", 0, "R", false, 0, "")
		pdf.CellFormat(35, reportLine, "Minimum", "B", 1, "R", false, 0, "")
		pdf.SetFont("Helvetica", "", 10)
	}
	header()
	_, pageHeight := pdf.GetPageSize()
	for _, it := range r.LowStock {
		if pdf.GetY()+reportLine > pageHeight-reportMargin {
			pdf.AddPage()
			header()
		}
		pdf.CellFormat(110, reportLine, tr(it.Name), "", 0, "L", false, 0, "")
		pdf.CellFormat(35, reportLine, fmt.Sprint(it.Quantity), "", 0, "R", false, 0, "")
		pdf.CellFormat(35, reportLine, fmt.Sprint(it.MinThreshold), "", 1, "R", false, 0, "")
	}
	return pdf
}
