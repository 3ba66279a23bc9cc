package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/shopspring/decimal"

	"github.com/rpggio/stocksync/internal/cache"
	"github.com/rpggio/stocksync/internal/domain/inventory"
	"github.com/rpggio/stocksync/internal/engine"
	"github.com/rpggio/stocksync/internal/tenant"
)

const reportURI = "stocksync://reports/weekly.pdf"

type tools struct {
	eng       *engine.Engine
	reportDir string
}

func registerTools(server *sdkmcp.Server, eng *engine.Engine, reportDir string) {
	t := &tools{eng: eng, reportDir: reportDir}

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_items",
		Description: "List one page of active items, optionally filtered by search text or category",
	}, t.listItems)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_trash",
		Description: "List trashed items that can still be restored or purged",
	}, t.listTrash)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "add_item",
		Description: "Add an item to the inventory (admins only, counts against the SKU quota)",
	}, t.addItem)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_item",
		Description: "Change an item's name, SKU, category, price or low-stock threshold (admins only)",
	}, t.updateItem)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "move_stock",
		Description: "Record a STOCK_IN or STOCK_OUT movement for an item",
	}, t.moveStock)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_item",
		Description: "Move an active item to the trash (admins only)",
	}, t.deleteItem)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "restore_item",
		Description: "Restore a trashed item (admins only)",
	}, t.restoreItem)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "purge_item",
		Description: "Permanently delete a trashed item and its history (admins only, irreversible)",
	}, t.purgeItem)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "item_history",
		Description: "List the ledger of one item, newest first",
	}, t.itemHistory)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "recent_activity",
		Description: "List the tenant's most recent ledger entries",
	}, t.recentActivity)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_usage",
		Description: "Report the tenant, plan and the last quotas the server sent",
	}, t.getUsage)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "weekly_report",
		Description: "Fetch the weekly PDF report (paid plans); file_name saves it under the configured report directory",
	}, t.weeklyReport)
}

func (t *tools) listItems(ctx context.Context, _ *sdkmcp.CallToolRequest, in ListItemsParams) (*sdkmcp.CallToolResult, ItemsResult, error) {
	opts := inventory.FetchOptions{Page: in.Page, Limit: in.Limit, Search: in.Search, Category: in.Category}.Normalize()
	if err := t.eng.Store.FetchItems(ctx, t.eng.Tenant(), opts); err != nil {
		return nil, ItemsResult{}, MapError(err)
	}
	total := t.eng.Store.TotalCount()
	if page := cache.ClampPage(opts.Page, total, opts.Limit); page != opts.Page {
		opts.Page = page
		if err := t.eng.Store.FetchItems(ctx, t.eng.Tenant(), opts); err != nil {
			return nil, ItemsResult{}, MapError(err)
		}
		total = t.eng.Store.TotalCount()
	}
	return nil, ItemsResult{
		Items:      newItemViews(t.eng.Store.Items()),
		Total:      total,
		Page:       opts.Page,
		TotalPages: cache.TotalPages(total, opts.Limit),
	}, nil
}

func (t *tools) listTrash(ctx context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, ItemsResult, error) {
	if err := t.eng.Store.FetchTrash(ctx, t.eng.Tenant()); err != nil {
		return nil, ItemsResult{}, MapError(err)
	}
	trash := t.eng.Store.Trash()
	return nil, ItemsResult{Items: newItemViews(trash), Total: len(trash)}, nil
}

func (t *tools) addItem(ctx context.Context, _ *sdkmcp.CallToolRequest, in AddItemParams) (*sdkmcp.CallToolResult, ItemView, error) {
	price, err := parsePrice(in.Price)
	if err != nil {
		return nil, ItemView{}, err
	}
	req := inventory.NewItem{
		Name:         in.Name,
		Quantity:     in.Quantity,
		Category:     in.Category,
		Price:        price,
		MinThreshold: in.MinThreshold,
	}
	if sku := strings.TrimSpace(in.SKU); sku != "" {
		req.SKU = &sku
	}
	if t.eng.Usage().SKU == nil {
		if err := t.eng.Sync(ctx); err != nil {
			return nil, ItemView{}, MapError(err)
		}
	}
	created, err := t.eng.Pipeline.CreateItem(ctx, t.eng.Tenant(), req)
	if err != nil {
		return nil, ItemView{}, MapError(err)
	}
	view := newItemView(created)
	view.Warning = t.eng.Usage().SKUWarning()
	return nil, view, nil
}

func (t *tools) updateItem(ctx context.Context, _ *sdkmcp.CallToolRequest, in UpdateItemParams) (*sdkmcp.CallToolResult, ItemView, error) {
	patch := inventory.ItemPatch{
		Name:         in.Name,
		SKU:          in.SKU,
		Category:     in.Category,
		MinThreshold: in.MinThreshold,
	}
	if in.Price != nil {
		price, err := parsePrice(*in.Price)
		if err != nil {
			return nil, ItemView{}, err
		}
		patch.Price = &price
	}
	if err := t.ensureKnown(ctx, in.ID); err != nil {
		return nil, ItemView{}, err
	}
	if err := t.eng.Pipeline.UpdateItem(ctx, t.eng.Tenant(), in.ID, patch); err != nil {
		return nil, ItemView{}, MapError(err)
	}
	return t.current(in.ID)
}

func (t *tools) moveStock(ctx context.Context, _ *sdkmcp.CallToolRequest, in MoveStockParams) (*sdkmcp.CallToolResult, ItemView, error) {
	if err := t.ensureKnown(ctx, in.ID); err != nil {
		return nil, ItemView{}, err
	}
	m := inventory.MovementRequest{
		Amount: in.Amount,
		Type:   inventory.TransactionType(strings.ToUpper(strings.TrimSpace(in.Type))),
		Reason: in.Reason,
	}
	if err := t.eng.Pipeline.RecordMovement(ctx, t.eng.Tenant(), in.ID, m); err != nil {
		return nil, ItemView{}, MapError(err)
	}
	return t.current(in.ID)
}

func (t *tools) deleteItem(ctx context.Context, _ *sdkmcp.CallToolRequest, in ItemIDParams) (*sdkmcp.CallToolResult, LifecycleResult, error) {
	return t.lifecycle(ctx, in.ID, t.eng.Pipeline.DeleteItem)
}

func (t *tools) restoreItem(ctx context.Context, _ *sdkmcp.CallToolRequest, in ItemIDParams) (*sdkmcp.CallToolResult, LifecycleResult, error) {
	return t.lifecycle(ctx, in.ID, t.eng.Pipeline.RestoreItem)
}

func (t *tools) purgeItem(ctx context.Context, _ *sdkmcp.CallToolRequest, in ItemIDParams) (*sdkmcp.CallToolResult, LifecycleResult, error) {
	return t.lifecycle(ctx, in.ID, t.eng.Pipeline.PurgeItem)
}

func (t *tools) itemHistory(ctx context.Context, _ *sdkmcp.CallToolRequest, in ItemIDParams) (*sdkmcp.CallToolResult, HistoryResult, error) {
	txs, err := t.eng.API.ItemHistory(ctx, t.eng.Tenant(), in.ID)
	if err != nil {
		return nil, HistoryResult{}, MapError(err)
	}
	return nil, newHistoryResult(txs), nil
}

func (t *tools) recentActivity(ctx context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, HistoryResult, error) {
	txs, err := t.eng.API.RecentActivity(ctx, t.eng.Tenant())
	if err != nil {
		return nil, HistoryResult{}, MapError(err)
	}
	return nil, newHistoryResult(txs), nil
}

func (t *tools) getUsage(_ context.Context, _ *sdkmcp.CallToolRequest, _ EmptyParams) (*sdkmcp.CallToolResult, UsageResult, error) {
	tc := t.eng.Tenant()
	snap := t.eng.Usage()
	return nil, UsageResult{
		TenantID: tc.TenantID,
		Plan:     tc.Plan,
		IsAdmin:  tc.IsAdmin,
		Personal: tc.IsPersonal(),
		SKU:      newQuotaView(snap.SKU),
		AI:       newQuotaView(snap.AI),
	}, nil
}

func (t *tools) weeklyReport(ctx context.Context, _ *sdkmcp.CallToolRequest, in WeeklyReportParams) (*sdkmcp.CallToolResult, ReportResult, error) {
	var target string
	if in.FileName != "" {
		var err error
		if target, err = t.reportPath(in.FileName); err != nil {
			return nil, ReportResult{}, err
		}
	}

	pdf, err := t.eng.API.WeeklyReport(ctx, t.eng.Tenant(), in.OrgName)
	if err != nil {
		return nil, ReportResult{}, MapError(err)
	}

	out := ReportResult{Bytes: len(pdf)}
	if target != "" {
		if err := os.WriteFile(target, pdf, 0o644); err != nil {
			return nil, ReportResult{}, fmt.Errorf("writing report: %w", err)
		}
		out.File = target
	}
	res := &sdkmcp.CallToolResult{Content: []sdkmcp.Content{
		&sdkmcp.EmbeddedResource{Resource: &sdkmcp.ResourceContents{
			URI:      reportURI,
			MIMEType: "application/pdf",
			Blob:     pdf,
		}},
	}}
	return res, out, nil
}

// reportPath resolves a client-chosen file name inside the report
// directory. Paths, "..", and absolute names are rejected.
func (t *tools) reportPath(name string) (string, error) {
	if t.reportDir == "" {
		return "", &APIError{Code: "INVALID_INPUT", Message: "saving reports is disabled on this server", RecoveryHint: "Omit file_name to receive the PDF inline"}
	}
	if !filepath.IsLocal(name) || filepath.Base(name) != name {
		return "", &APIError{Code: "INVALID_INPUT", Message: fmt.Sprintf("invalid report file name %q", name), RecoveryHint: "Use a plain file name such as weekly.pdf"}
	}
	return filepath.Join(t.reportDir, name), nil
}

func (t *tools) lifecycle(ctx context.Context, id string, op func(context.Context, tenant.Context, string) error) (*sdkmcp.CallToolResult, LifecycleResult, error) {
	if err := t.ensureKnown(ctx, id); err != nil {
		return nil, LifecycleResult{}, err
	}
	if err := op(ctx, t.eng.Tenant(), id); err != nil {
		return nil, LifecycleResult{}, MapError(err)
	}
	return nil, LifecycleResult{ID: id, State: string(t.eng.Store.StateOf(id))}, nil
}

// ensureKnown syncs the cache when id has not been seen yet, so the
// lifecycle checks run against server state.
func (t *tools) ensureKnown(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return &APIError{Code: "INVALID_INPUT", Message: "id is required"}
	}
	if t.eng.Store.StateOf(id) != inventory.StateUnknown {
		return nil
	}
	if err := t.eng.Sync(ctx); err != nil {
		return MapError(err)
	}
	return nil
}

func (t *tools) current(id string) (*sdkmcp.CallToolResult, ItemView, error) {
	it, ok := t.eng.Store.Find(id)
	if !ok {
		return nil, ItemView{}, MapError(inventory.ErrItemNotFound)
	}
	return nil, newItemView(it), nil
}

func parsePrice(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, &APIError{Code: "INVALID_INPUT", Message: fmt.Sprintf("invalid price %q", raw)}
	}
	return d, nil
}
