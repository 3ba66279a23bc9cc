package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/rpggio/stocksync/internal/domain/usage"
)

func newHistoryCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "history ID",
		Short: "Show the ledger of one item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := app.engine()
			txs, err := eng.API.ItemHistory(cmd.Context(), eng.Tenant(), args[0])
			if err != nil {
				return err
			}
			return app.formatter().Success(ledger{Transactions: txs})
		},
	}
}

func newRecentCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "recent",
		Short: "Show the most recent ledger entries of the tenant",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := app.engine()
			txs, err := eng.API.RecentActivity(cmd.Context(), eng.Tenant())
			if err != nil {
				return err
			}
			return app.formatter().Success(ledger{Transactions: txs})
		},
	}
}

func newReportCommand(app *App) *cobra.Command {
	var orgName, output string

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Download the weekly PDF report (paid plans)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := app.engine()
			pdf, err := eng.API.WeeklyReport(cmd.Context(), eng.Tenant(), orgName)
			if err != nil {
				return err
			}
			if err := os.WriteFile(output, pdf, 0o644); err != nil {
				return WrapExitError(ExitFailure, "writing report", err)
			}
			return app.formatter().Success(reportResult{Path: output, Bytes: len(pdf)})
		},
	}
	cmd.Flags().StringVar(&orgName, "org-name", "", "organization name printed on the report")
	cmd.Flags().StringVarP(&output, "output", "o", "weekly-report.pdf", "file to write")
	return cmd
}

func newUsageCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show the tenant, plan and quotas",
		Long: `Fetch the active page and the trash in parallel and report the quotas
the server sent back.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			snap, err := refreshUsage(cmd.Context(), app)
			if err != nil {
				return err
			}
			tc := app.engine().Tenant()
			return app.formatter().Success(usageReport{
				TenantID: tc.TenantID,
				Plan:     tc.Plan,
				IsAdmin:  tc.IsAdmin,
				Personal: tc.IsPersonal(),
				SKU:      snap.SKU,
				AI:       snap.AI,
				SKUGate:  snap.SKUGate(),
				Warning:  snap.SKUWarning(),
			})
		},
	}
}

// refreshUsage issues the list calls whose responses carry the usage
// headers, then returns the tracker snapshot.
func refreshUsage(ctx context.Context, app *App) (usage.Snapshot, error) {
	eng := app.engine()
	tc := eng.Tenant()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Store.Refresh(gctx, tc) })
	g.Go(func() error {
		_, err := eng.API.RecentActivity(gctx, tc)
		return err
	})
	if err := g.Wait(); err != nil {
		return usage.Snapshot{}, fmt.Errorf("refreshing usage: %w", err)
	}
	return eng.Usage(), nil
}
