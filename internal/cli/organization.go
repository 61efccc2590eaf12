package cli

import (
	"context"
	"fmt"
	"strings"

	"gastos/internal/core"
	"gastos/internal/pages"
)

func (a *App) runCategorias(ctx context.Context, args []string) error {
	if _, err := a.requireTenant(); err != nil {
		return err
	}
	page := pages.NewCategoriasPage(a.backend, a.logger)
	if err := page.Load(ctx); err != nil {
		return err
	}

	if len(args) == 0 {
		renderCategorias(a.out, page.Categorias())
		return nil
	}

	switch args[0] {
	case "add":
		if len(args) != 3 {
			return fmt.Errorf("usage: gastos categorias add <nome> <tipo>")
		}
		created, err := page.Create(ctx, core.CreateCategoria{Nome: args[1], Tipo: args[2]})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Created categoria %s (%s)\n", created.Nome, shortID(created.ID))
		return nil

	case "rm":
		if len(args) != 2 {
			return fmt.Errorf("usage: gastos categorias rm <id>")
		}
		id, err := resolvePrefix(args[1], page.Categorias(), func(c core.Categoria) string { return c.ID })
		if err != nil {
			return err
		}
		if err := page.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Removed categoria")
		return nil

	default:
		return fmt.Errorf("unknown categorias subcommand %q", args[0])
	}
}

func (a *App) runGrupos(ctx context.Context, args []string) error {
	if _, err := a.requireTenant(); err != nil {
		return err
	}
	page := pages.NewGruposPage(a.backend, a.logger)
	if err := page.Load(ctx); err != nil {
		return err
	}

	if len(args) == 0 {
		renderGrupos(a.out, page.Grupos())
		return nil
	}

	switch args[0] {
	case "add":
		if len(args) != 3 {
			return fmt.Errorf("usage: gastos grupos add <nome> <tipo> (tipo: familia, viagem, evento)")
		}
		created, err := page.Create(ctx, core.CreateGrupo{
			Nome: args[1], Tipo: core.GrupoTipo(args[2]),
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Created grupo %s (%s)\n", created.Nome, shortID(created.ID))
		return nil

	case "rm":
		if len(args) != 2 {
			return fmt.Errorf("usage: gastos grupos rm <id>")
		}
		id, err := resolvePrefix(args[1], page.Grupos(), func(g core.Grupo) string { return g.ID })
		if err != nil {
			return err
		}
		if err := page.Delete(ctx, id); err != nil {
			return err
		}
		fmt.Fprintln(a.out, "Removed grupo")
		return nil

	default:
		return fmt.Errorf("unknown grupos subcommand %q", args[0])
	}
}

// resolvePrefix matches a full id or a unique prefix against a loaded
// collection.
func resolvePrefix[T any](arg string, items []T, idOf func(T) string) (string, error) {
	var matches []string
	for _, it := range items {
		id := idOf(it)
		if id == arg {
			return arg, nil
		}
		if strings.HasPrefix(id, arg) {
			matches = append(matches, id)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return "", fmt.Errorf("no match for id %q", arg)
	default:
		return "", fmt.Errorf("id %q is ambiguous (%d matches)", arg, len(matches))
	}
}
