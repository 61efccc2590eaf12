package cli

import (
	"context"
	"flag"
	"fmt"

	"gastos/internal/core"
	"gastos/internal/events"
	"gastos/internal/pages"
)

func (a *App) runList(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("list", flag.ContinueOnError)
	grupo := fs.String("grupo", "", "filter by grupo name, id, or 'personal'")
	categoria := fs.String("categoria", "", "filter by categoria name or id")
	search := fs.String("search", "", "substring match on descricao")
	if err := fs.Parse(args); err != nil {
		return err
	}

	page, err := a.gastosPage(ctx)
	if err != nil {
		return err
	}

	filter := core.GastoFilter{Search: *search}
	if *grupo != "" {
		if *grupo == core.FilterPersonal {
			filter.GrupoID = core.FilterPersonal
		} else if g, ok := page.GrupoByNome(*grupo); ok {
			filter.GrupoID = g.ID
		} else {
			return fmt.Errorf("unknown grupo %q", *grupo)
		}
	}
	if *categoria != "" {
		c, ok := page.CategoriaByNome(*categoria)
		if !ok {
			return fmt.Errorf("unknown categoria %q", *categoria)
		}
		filter.CategoriaID = c.ID
	}
	page.SetFilter(filter)

	filtered := page.Filtered()
	renderGastos(a.out, filtered)
	if len(filtered) > 0 {
		fmt.Fprintf(a.out, "\nTotal: %s (%d gastos)\n", core.FormatBRL(page.Total()), len(filtered))
	}
	return nil
}

func (a *App) runAdd(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	valor := fs.String("valor", "", "amount, e.g. 12,50 or 12.50")
	categoria := fs.String("categoria", "", "categoria name or id")
	descricao := fs.String("descricao", "", "description")
	grupo := fs.String("grupo", "", "grupo name or id (omit for a personal gasto)")
	data := fs.String("data", "", "date YYYY-MM-DD (default today)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	page, err := a.gastosPage(ctx)
	if err != nil {
		return err
	}

	amount, err := core.ParseAmount(*valor)
	if err != nil {
		return fmt.Errorf("valor %q: %w", *valor, err)
	}

	cat, ok := page.CategoriaByNome(*categoria)
	if !ok {
		return fmt.Errorf("unknown categoria %q (run 'gastos categorias')", *categoria)
	}

	create := core.CreateGasto{
		CategoriaID: cat.ID,
		Valor:       amount,
		Data:        core.Today(),
		Descricao:   *descricao,
	}
	if *data != "" {
		if create.Data, err = core.ParseDate(*data); err != nil {
			return err
		}
	}
	if *grupo != "" {
		g, ok := page.GrupoByNome(*grupo)
		if !ok {
			return fmt.Errorf("unknown grupo %q (run 'gastos grupos')", *grupo)
		}
		create.GrupoID = &g.ID
	}

	created, err := page.Create(ctx, create)
	if err != nil {
		return err
	}
	a.publishGastoEvent(ctx, events.EventGastoCreated, created)
	a.dash.Invalidate(ctx, created.TenantID)

	fmt.Fprintf(a.out, "Added %s %s (%s)\n",
		core.FormatBRL(created.Valor), created.Descricao, shortID(created.ID))
	return nil
}

func (a *App) runEdit(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: gastos edit <id> [flags]")
	}
	idArg, rest := args[0], args[1:]

	fs := flag.NewFlagSet("edit", flag.ContinueOnError)
	valor := fs.String("valor", "", "new amount")
	categoria := fs.String("categoria", "", "new categoria name or id")
	descricao := fs.String("descricao", "", "new description")
	grupo := fs.String("grupo", "", "new grupo name or id")
	data := fs.String("data", "", "new date YYYY-MM-DD")
	if err := fs.Parse(rest); err != nil {
		return err
	}

	page, err := a.gastosPage(ctx)
	if err != nil {
		return err
	}
	id, err := resolveGastoID(page, idArg)
	if err != nil {
		return err
	}

	var update core.UpdateGasto
	touched := false

	if *valor != "" {
		amount, err := core.ParseAmount(*valor)
		if err != nil {
			return fmt.Errorf("valor %q: %w", *valor, err)
		}
		update.Valor = &amount
		touched = true
	}
	if *categoria != "" {
		cat, ok := page.CategoriaByNome(*categoria)
		if !ok {
			return fmt.Errorf("unknown categoria %q", *categoria)
		}
		update.CategoriaID = &cat.ID
		touched = true
	}
	if *descricao != "" {
		update.Descricao = descricao
		touched = true
	}
	if *grupo != "" {
		grp, ok := page.GrupoByNome(*grupo)
		if !ok {
			return fmt.Errorf("unknown grupo %q", *grupo)
		}
		update.GrupoID = &grp.ID
		touched = true
	}
	if *data != "" {
		d, err := core.ParseDate(*data)
		if err != nil {
			return err
		}
		update.Data = &d
		touched = true
	}

	if !touched {
		return fmt.Errorf("nothing to change (pass at least one flag)")
	}

	updated, err := page.Update(ctx, id, update)
	if err != nil {
		return err
	}
	a.publishGastoEvent(ctx, events.EventGastoUpdated, updated)
	a.dash.Invalidate(ctx, updated.TenantID)

	fmt.Fprintf(a.out, "Updated %s: %s %s\n",
		shortID(updated.ID), core.FormatBRL(updated.Valor), updated.Descricao)
	return nil
}

func (a *App) runRemove(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: gastos rm <id>")
	}

	page, err := a.gastosPage(ctx)
	if err != nil {
		return err
	}
	id, err := resolveGastoID(page, args[0])
	if err != nil {
		return err
	}

	var removed core.Gasto
	for _, g := range page.Gastos() {
		if g.ID == id {
			removed = g
			break
		}
	}

	if err := page.Delete(ctx, id); err != nil {
		return err
	}
	a.publishGastoEvent(ctx, events.EventGastoDeleted, &removed)
	a.dash.Invalidate(ctx, removed.TenantID)

	fmt.Fprintf(a.out, "Removed %s %s\n", core.FormatBRL(removed.Valor), removed.Descricao)
	return nil
}

// resolveGastoID accepts a full id or a unique prefix, matching the
// truncated ids shown in listings.
func resolveGastoID(page *pages.GastosPage, arg string) (string, error) {
	return resolvePrefix(arg, page.Gastos(), func(g core.Gasto) string { return g.ID })
}
