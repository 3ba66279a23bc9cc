package mcp

import (
	"context"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

const serverInstructions = `stocksync manages one tenant's inventory: active items, the trash, and
the stock ledger.

Lifecycle: an item is Active, then Trashed (delete_item), then either
Active again (restore_item) or Purged (purge_item). Purge is permanent.

Workflow:
1) Orient: call get_usage and list_items.
2) Move stock with move_stock (STOCK_IN or STOCK_OUT with a positive amount).
3) Check history with item_history or recent_activity.

Errors carry a code: QUOTA_EXCEEDED, RATE_LIMITED, PERMISSION_DENIED,
NOT_FOUND, INVALID_INPUT, UNREACHABLE.

Docs:
- stocksync://docs/lifecycle
- stocksync://docs/plans
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "stocksync://docs/lifecycle",
		Name:        "docs_lifecycle",
		Title:       "Item lifecycle",
		Description: "States an item moves through and the ledger rows each move writes.",
		Content: `# Item lifecycle

| From    | Action        | To      | Ledger row |
|---------|---------------|---------|------------|
| Active  | delete_item   | Trashed | DELETED    |
| Trashed | restore_item  | Active  | RESTORED   |
| Trashed | purge_item    | Purged  | none, history removed |

Only admins may create, update, delete, restore or purge. Any member may
record stock movements.

Stock out may not take the quantity below zero.
`,
	},
	{
		URI:         "stocksync://docs/plans",
		Name:        "docs_plans",
		Title:       "Plans and quotas",
		Description: "SKU and request limits per plan.",
		Content: `# Plans

| Plan | SKUs  | Requests per minute | Weekly report |
|------|-------|---------------------|---------------|
| free | 5     | 60                  | no            |
| pro  | 10000 | 1000                | yes           |

get_usage reports the last quota the server sent. At 80% the gate is
"near limit"; at 100% add_item is refused.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}
