package cli

import (
	"context"
	"fmt"
	"strings"

	"gastos/internal/core"
	"gastos/internal/pages"
)

func (a *App) runTenants(ctx context.Context, args []string) error {
	if err := a.requireAuth(); err != nil {
		return err
	}
	page := pages.NewTenantsPage(a.backend, a.session, a.logger)

	if len(args) == 0 {
		args = []string{"list"}
	}

	switch args[0] {
	case "list":
		if err := page.Load(ctx); err != nil {
			return err
		}
		renderTenants(a.out, page.Tenants(), page.Current())
		return nil

	case "create":
		if len(args) < 2 {
			return fmt.Errorf("usage: gastos tenants create <nome>")
		}
		nome := strings.Join(args[1:], " ")
		tenant, err := page.Create(ctx, core.CreateTenant{Nome: nome})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Created tenant %s (%s), now active\n", tenant.Nome, tenant.ID)
		return nil

	case "join":
		if len(args) != 2 {
			return fmt.Errorf("usage: gastos tenants join <id>")
		}
		if err := page.Join(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Joined tenant %s, now active\n", args[1])
		return nil

	case "select":
		if len(args) != 2 {
			return fmt.Errorf("usage: gastos tenants select <id>")
		}
		if err := page.Load(ctx); err != nil {
			return err
		}
		if err := page.Select(ctx, args[1]); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Active tenant: %s\n", page.Current().Nome)
		return nil

	case "users":
		if _, err := a.requireTenant(); err != nil {
			return err
		}
		members, err := page.Members(ctx)
		if err != nil {
			return err
		}
		renderMembers(a.out, members)
		return nil

	default:
		return fmt.Errorf("unknown tenants subcommand %q", args[0])
	}
}
