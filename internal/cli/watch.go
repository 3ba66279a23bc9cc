package cli

import (
	"bufio"
	"context"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rpggio/stocksync/internal/cache"
	"github.com/rpggio/stocksync/internal/domain/inventory"
)

const watchPoll = 50 * time.Millisecond

func newWatchCommand(app *App) *cobra.Command {
	var category string

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Search interactively: each stdin line replaces the search term",
		Long: `Read search terms from stdin, one per line. Terms typed in quick
succession are debounced so only the last one is fetched. The page is
printed whenever it changes. EOF ends the session.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := app.engine()
			tc := eng.Tenant()
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			if err := eng.Store.Refresh(ctx, tc); err != nil {
				return err
			}
			out := app.formatter()
			printed := eng.Store.Snapshot().Version()
			if err := out.Success(currentPage(eng.Store)); err != nil {
				return err
			}

			printIfChanged := func() error {
				snap := eng.Store.Snapshot()
				if snap.Version() == printed {
					return nil
				}
				printed = snap.Version()
				return out.Success(currentPage(eng.Store))
			}

			lines := make(chan string)
			go func() {
				defer close(lines)
				scanner := bufio.NewScanner(app.In)
				for scanner.Scan() {
					select {
					case lines <- strings.TrimSpace(scanner.Text()):
					case <-ctx.Done():
						return
					}
				}
			}()

			ticker := time.NewTicker(watchPoll)
			defer ticker.Stop()
			for {
				select {
				case term, ok := <-lines:
					if !ok {
						eng.Store.FlushFilter()
						return printIfChanged()
					}
					eng.Store.SetFilter(ctx, tc, inventory.FetchOptions{Search: term, Category: category, Limit: eng.Store.Filter().Limit})
				case <-ticker.C:
					if err := printIfChanged(); err != nil {
						return err
					}
				case <-ctx.Done():
					return ctx.Err()
				}
			}
		},
	}
	cmd.Flags().StringVar(&category, "category", "", "filter by category")
	return cmd
}

func currentPage(store *cache.Store) itemList {
	view := store.View()
	return itemList{
		Items:      view.Items,
		Total:      view.Total,
		Page:       view.Filter.Page,
		TotalPages: cache.TotalPages(view.Total, view.Filter.Limit),
	}
}
