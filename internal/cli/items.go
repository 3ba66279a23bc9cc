package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"

	"github.com/rpggio/stocksync/internal/cache"
	"github.com/rpggio/stocksync/internal/domain/inventory"
	"github.com/rpggio/stocksync/internal/engine"
)

func newItemsCommand(app *App) *cobra.Command {
	var opts inventory.FetchOptions

	cmd := &cobra.Command{
		Use:   "items",
		Short: "List one page of active items",
		Example: `  stocksync items --search bolt
  stocksync items --page 2 --limit 20 --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := app.engine()
			if !cmd.Flags().Changed("limit") {
				opts.Limit = eng.Store.Filter().Limit
			}
			if err := checkPage(cmd.Context(), eng, opts); err != nil {
				return err
			}
			opts = opts.Normalize()
			if err := eng.Store.FetchItems(cmd.Context(), eng.Tenant(), opts); err != nil {
				return err
			}
			total := eng.Store.TotalCount()
			return app.formatter().Success(itemList{
				Items:      eng.Store.Items(),
				Total:      total,
				Page:       opts.Page,
				TotalPages: cache.TotalPages(total, opts.Limit),
			})
		},
	}
	cmd.Flags().IntVar(&opts.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&opts.Limit, "limit", inventory.DefaultPageSize, "page size")
	cmd.Flags().StringVar(&opts.Search, "search", "", "match name or SKU")
	cmd.Flags().StringVar(&opts.Category, "category", "", "filter by category")
	return cmd
}

// checkPage rejects a page outside the server's page range before that page
// is requested. Pages past the first need the total, so page 1 is fetched
// with the same filter to learn it.
func checkPage(ctx context.Context, eng *engine.Engine, opts inventory.FetchOptions) error {
	if opts.Page < 1 {
		return WrapExitError(ExitCommandError, "invalid page",
			cache.ValidatePage(opts.Page, 0, opts.Limit))
	}
	if opts.Page == 1 {
		return nil
	}
	first := opts.Normalize()
	first.Page = 1
	if err := eng.Store.FetchItems(ctx, eng.Tenant(), first); err != nil {
		return err
	}
	if err := cache.ValidatePage(opts.Page, eng.Store.TotalCount(), first.Limit); err != nil {
		return WrapExitError(ExitCommandError, "invalid page", err)
	}
	return nil
}

func newTrashCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "trash",
		Short: "List trashed items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := app.engine()
			if err := eng.Store.FetchTrash(cmd.Context(), eng.Tenant()); err != nil {
				return err
			}
			trash := eng.Store.Trash()
			return app.formatter().Success(itemList{Items: trash, Total: len(trash)})
		},
	}
}

type itemFlags struct {
	sku       string
	category  string
	price     string
	threshold int
}

func newAddCommand(app *App) *cobra.Command {
	var f itemFlags
	var quantity int

	cmd := &cobra.Command{
		Use:   "add NAME",
		Short: "Add an item (admins only)",
		Example: `  stocksync add "Hex bolt M8" --sku HB-M8 --quantity 100 --price 0.12 --threshold 20`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			price, err := parseDecimal(f.price)
			if err != nil {
				return err
			}
			req := inventory.NewItem{
				Name:         args[0],
				Quantity:     quantity,
				Category:     f.category,
				Price:        price,
				MinThreshold: f.threshold,
			}
			if sku := strings.TrimSpace(f.sku); sku != "" {
				req.SKU = &sku
			}
			// Syncing first loads the SKU quota that gates the create.
			eng, err := app.synced(cmd.Context())
			if err != nil {
				return err
			}
			created, err := eng.Pipeline.CreateItem(cmd.Context(), eng.Tenant(), req)
			if err != nil {
				return err
			}
			return app.formatter().Success(itemResult{Item: created, Warning: eng.Usage().SKUWarning()})
		},
	}
	cmd.Flags().IntVar(&quantity, "quantity", 0, "opening quantity")
	cmd.Flags().StringVar(&f.sku, "sku", "", "stock-keeping unit code")
	cmd.Flags().StringVar(&f.category, "category", "", "category")
	cmd.Flags().StringVar(&f.price, "price", "0", "unit price")
	cmd.Flags().IntVar(&f.threshold, "threshold", 0, "low-stock threshold")
	return cmd
}

func newUpdateCommand(app *App) *cobra.Command {
	var f itemFlags
	var name string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Change an item's details (admins only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch inventory.ItemPatch
			flags := cmd.Flags()
			if flags.Changed("name") {
				patch.Name = &name
			}
			if flags.Changed("sku") {
				patch.SKU = &f.sku
			}
			if flags.Changed("category") {
				patch.Category = &f.category
			}
			if flags.Changed("threshold") {
				patch.MinThreshold = &f.threshold
			}
			if flags.Changed("price") {
				price, err := parseDecimal(f.price)
				if err != nil {
					return err
				}
				patch.Price = &price
			}

			eng, err := app.synced(cmd.Context())
			if err != nil {
				return err
			}
			id := args[0]
			if err := eng.Pipeline.UpdateItem(cmd.Context(), eng.Tenant(), id, patch); err != nil {
				return err
			}
			item, _ := eng.Store.Find(id)
			return app.formatter().Success(itemResult{Item: item})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "new name")
	cmd.Flags().StringVar(&f.sku, "sku", "", "new SKU, empty to clear")
	cmd.Flags().StringVar(&f.category, "category", "", "new category")
	cmd.Flags().StringVar(&f.price, "price", "", "new unit price")
	cmd.Flags().IntVar(&f.threshold, "threshold", 0, "new low-stock threshold")
	return cmd
}

func newMoveCommand(app *App) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "move ID in|out AMOUNT",
		Short: "Record a stock movement",
		Example: `  stocksync move ITEM_ID in 24 --reason "supplier delivery"
  stocksync move ITEM_ID out 2`,
		Args: cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			typ, err := parseMovementType(args[1])
			if err != nil {
				return err
			}
			var amount int
			if _, err := fmt.Sscan(args[2], &amount); err != nil {
				return WrapExitError(ExitCommandError, "invalid amount", err)
			}

			eng, err := app.synced(cmd.Context())
			if err != nil {
				return err
			}
			id := args[0]
			m := inventory.MovementRequest{Amount: amount, Type: typ, Reason: reason}
			if err := eng.Pipeline.RecordMovement(cmd.Context(), eng.Tenant(), id, m); err != nil {
				return err
			}
			item, _ := eng.Store.Find(id)
			return app.formatter().Success(itemResult{Item: item})
		},
	}
	cmd.Flags().StringVar(&reason, "reason", "", "why the stock moved")
	return cmd
}

func newDeleteCommand(app *App) *cobra.Command {
	return lifecycleCommand(app, "delete ID", "Move an item to the trash (admins only)", inventory.EventDelete)
}

func newRestoreCommand(app *App) *cobra.Command {
	return lifecycleCommand(app, "restore ID", "Restore a trashed item (admins only)", inventory.EventRestore)
}

func newPurgeCommand(app *App) *cobra.Command {
	return lifecycleCommand(app, "purge ID", "Permanently delete a trashed item (admins only)", inventory.EventPurge)
}

func lifecycleCommand(app *App, use, short string, event inventory.Event) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, err := app.synced(cmd.Context())
			if err != nil {
				return err
			}
			id, tc := args[0], eng.Tenant()
			switch event {
			case inventory.EventDelete:
				err = eng.Pipeline.DeleteItem(cmd.Context(), tc, id)
			case inventory.EventRestore:
				err = eng.Pipeline.RestoreItem(cmd.Context(), tc, id)
			case inventory.EventPurge:
				err = eng.Pipeline.PurgeItem(cmd.Context(), tc, id)
			}
			if err != nil {
				return err
			}
			return app.formatter().Success(lifecycleResult{ID: id, State: eng.Store.StateOf(id)})
		},
	}
}

func parseDecimal(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return decimal.Zero, WrapExitError(ExitCommandError, "invalid price", err)
	}
	return d, nil
}

func parseMovementType(raw string) (inventory.TransactionType, error) {
	switch strings.ToLower(raw) {
	case "in", "stock_in":
		return inventory.TypeStockIn, nil
	case "out", "stock_out":
		return inventory.TypeStockOut, nil
	}
	return "", WrapExitError(ExitCommandError, "invalid movement", fmt.Errorf("%q: want in or out", raw))
}
