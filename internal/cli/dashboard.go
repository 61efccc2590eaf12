package cli

import (
	"context"
	"flag"
	"fmt"

	"gastos/internal/export"
)

func (a *App) runDashboard(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("dashboard", flag.ContinueOnError)
	refresh := fs.Bool("refresh", false, "bypass the cached stats")
	if err := fs.Parse(args); err != nil {
		return err
	}

	tenant, err := a.requireTenant()
	if err != nil {
		return err
	}

	stats, err := a.dash.Stats(ctx, *refresh)
	if err != nil {
		return err
	}

	fmt.Fprintf(a.out, "Dashboard: %s\n\n", tenant.Nome)
	renderStats(a.out, stats)
	return nil
}

func (a *App) runExport(ctx context.Context) error {
	tenant, err := a.requireTenant()
	if err != nil {
		return err
	}
	if !a.cfg.ExportConfigured() {
		return fmt.Errorf("export not configured (set GOOGLE_SPREADSHEET_ID)")
	}

	page, err := a.gastosPage(ctx)
	if err != nil {
		return err
	}

	exporter, err := export.NewSheetsExporter(ctx,
		a.cfg.GoogleSpreadsheetID, a.cfg.GoogleSheetName, a.logger)
	if err != nil {
		return err
	}

	n, err := exporter.Export(ctx, page.Gastos())
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Exported %d gastos from %s to sheet %q\n",
		n, tenant.Nome, a.cfg.GoogleSheetName)
	return nil
}
