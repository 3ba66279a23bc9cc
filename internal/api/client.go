// Package api exposes the inventory REST endpoints as typed calls.
package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rpggio/stocksync/internal/domain/inventory"
	"github.com/rpggio/stocksync/internal/gateway"
	"github.com/rpggio/stocksync/internal/tenant"
)

const (
	inventoryPath    = "/api/inventory"
	transactionsPath = "/api/transactions"
	reportsPath      = "/api/reports"
)

// Doer sends gateway requests.
type Doer interface {
	Do(ctx context.Context, tc tenant.Context, req gateway.Request) (*gateway.Response, error)
}

// Client is a typed inventory API client.
type Client struct {
	gw Doer
}

// New creates a typed client over gw.
func New(gw Doer) *Client {
	return &Client{gw: gw}
}

func (c *Client) call(ctx context.Context, tc tenant.Context, req gateway.Request, out any) error {
	resp, err := c.gw.Do(ctx, tc, req)
	if err != nil {
		return err
	}
	if err := resp.Err(); err != nil {
		return err
	}
	if out == nil || len(resp.Body) == 0 {
		return nil
	}
	return resp.Decode(out)
}

// ListItems fetches one page of active items.
func (c *Client) ListItems(ctx context.Context, tc tenant.Context, opts inventory.FetchOptions) (inventory.Page, error) {
	var page inventory.Page
	err := c.call(ctx, tc, gateway.Request{Method: http.MethodGet, Path: inventoryPath, Query: opts.Query()}, &page)
	if err != nil {
		return inventory.Page{}, err
	}
	if page.Items == nil {
		page.Items = []inventory.Item{}
	}
	return page, nil
}

// ListTrash fetches all trashed items.
func (c *Client) ListTrash(ctx context.Context, tc tenant.Context) ([]inventory.Item, error) {
	var items []inventory.Item
	if err := c.call(ctx, tc, gateway.Request{Method: http.MethodGet, Path: inventoryPath + "/trash"}, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []inventory.Item{}
	}
	return items, nil
}

// CreateItem creates an item and returns the server copy.
func (c *Client) CreateItem(ctx context.Context, tc tenant.Context, item inventory.NewItem) (inventory.Item, error) {
	var created inventory.Item
	err := c.call(ctx, tc, gateway.Request{Method: http.MethodPost, Path: inventoryPath, Body: item}, &created)
	return created, err
}

// UpdateItem applies patch to item id.
func (c *Client) UpdateItem(ctx context.Context, tc tenant.Context, id string, patch inventory.ItemPatch) (inventory.Item, error) {
	var updated inventory.Item
	err := c.call(ctx, tc, gateway.Request{Method: http.MethodPut, Path: itemPath(id), Body: patch}, &updated)
	return updated, err
}

// DeleteItem moves item id to the trash.
func (c *Client) DeleteItem(ctx context.Context, tc tenant.Context, id, performedBy string) error {
	return c.call(ctx, tc, gateway.Request{Method: http.MethodDelete, Path: itemPath(id), PerformedBy: performedBy}, nil)
}

// RestoreItem moves item id from the trash back to the active set.
func (c *Client) RestoreItem(ctx context.Context, tc tenant.Context, id, performedBy string) error {
	return c.call(ctx, tc, gateway.Request{
		Method:      http.MethodPut,
		Path:        inventoryPath + "/restore/" + url.PathEscape(id),
		PerformedBy: performedBy,
	}, nil)
}

// PurgeItem permanently deletes a trashed item.
func (c *Client) PurgeItem(ctx context.Context, tc tenant.Context, id string) error {
	return c.call(ctx, tc, gateway.Request{Method: http.MethodDelete, Path: inventoryPath + "/permanent/" + url.PathEscape(id)}, nil)
}

// RecordMovement posts a stock movement for item id.
func (c *Client) RecordMovement(ctx context.Context, tc tenant.Context, id string, m inventory.MovementRequest) error {
	return c.call(ctx, tc, gateway.Request{
		Method:      http.MethodPost,
		Path:        transactionsPath + "/" + url.PathEscape(id),
		Body:        m,
		PerformedBy: m.PerformedBy,
	}, nil)
}

// ItemHistory returns the ledger of item id, newest first.
func (c *Client) ItemHistory(ctx context.Context, tc tenant.Context, id string) ([]inventory.Transaction, error) {
	var txs []inventory.Transaction
	if err := c.call(ctx, tc, gateway.Request{Method: http.MethodGet, Path: transactionsPath + "/" + url.PathEscape(id)}, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// RecentActivity returns the tenant-wide activity feed.
func (c *Client) RecentActivity(ctx context.Context, tc tenant.Context) ([]inventory.Transaction, error) {
	var txs []inventory.Transaction
	if err := c.call(ctx, tc, gateway.Request{Method: http.MethodGet, Path: transactionsPath + "/recent"}, &txs); err != nil {
		return nil, err
	}
	return txs, nil
}

// WeeklyReport downloads the weekly PDF report.
func (c *Client) WeeklyReport(ctx context.Context, tc tenant.Context, orgName string) ([]byte, error) {
	resp, err := c.gw.Do(ctx, tc, gateway.Request{
		Method: http.MethodGet,
		Path:   reportsPath + "/weekly",
		Query:  url.Values{"orgName": {orgName}},
	})
	if err != nil {
		return nil, err
	}
	if err := resp.Err(); err != nil {
		return nil, fmt.Errorf("downloading report: %w", err)
	}
	return resp.Body, nil
}

func itemPath(id string) string {
	return inventoryPath + "/" + url.PathEscape(id)
}
