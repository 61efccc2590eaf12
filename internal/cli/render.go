package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"gastos/internal/core"
)

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func renderGastos(w io.Writer, gastos []core.Gasto) {
	if len(gastos) == 0 {
		fmt.Fprintln(w, "no gastos")
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tDATA\tDESCRICAO\tCATEGORIA\tGRUPO\tQUEM\tVALOR")
	for _, g := range gastos {
		grupo := g.GrupoNome
		if g.IsPersonal() {
			grupo = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(g.ID), g.Data.String(), g.Descricao,
			g.CategoriaNome, grupo, g.UserNome, core.FormatBRL(g.Valor))
	}
	tw.Flush()
}

func renderCategorias(w io.Writer, categorias []core.Categoria) {
	if len(categorias) == 0 {
		fmt.Fprintln(w, "no categorias")
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNOME\tTIPO")
	for _, c := range categorias {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", shortID(c.ID), c.Nome, c.Tipo)
	}
	tw.Flush()
}

func renderGrupos(w io.Writer, grupos []core.Grupo) {
	if len(grupos) == 0 {
		fmt.Fprintln(w, "no grupos")
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "ID\tNOME\tTIPO")
	for _, g := range grupos {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", shortID(g.ID), g.Nome, g.Tipo)
	}
	tw.Flush()
}

func renderTenants(w io.Writer, tenants []core.Tenant, current *core.Tenant) {
	if len(tenants) == 0 {
		fmt.Fprintln(w, "no tenants")
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, " \tID\tNOME\tPLANO")
	for _, t := range tenants {
		marker := " "
		if current != nil && t.ID == current.ID {
			marker = "*"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", marker, t.ID, t.Nome, t.Plano)
	}
	tw.Flush()
}

func renderMembers(w io.Writer, members []core.TenantUser) {
	if len(members) == 0 {
		fmt.Fprintln(w, "no members")
		return
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "NOME\tEMAIL\tROLE")
	for _, m := range members {
		nome, email := m.UserID, ""
		if m.User != nil {
			nome, email = m.User.Nome, m.User.Email
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", nome, email, m.Role)
	}
	tw.Flush()
}

func renderStats(w io.Writer, stats *core.DashboardStats) {
	tw := newTable(w)
	fmt.Fprintf(tw, "Total\t%s\n", core.FormatBRL(stats.TotalGastos))
	fmt.Fprintf(tw, "Pessoais\t%s\n", core.FormatBRL(stats.GastosPessoais))
	fmt.Fprintf(tw, "Em grupo\t%s\n", core.FormatBRL(stats.GastosGrupo))
	fmt.Fprintf(tw, "Mes atual\t%s\n", core.FormatBRL(stats.TotalMesAtual))
	tw.Flush()

	if len(stats.GastosPorCategoria) > 0 {
		fmt.Fprintln(w, "\nPor categoria:")
		tw = newTable(w)
		for _, c := range stats.GastosPorCategoria {
			fmt.Fprintf(tw, "  %s\t%s\n", c.Categoria, core.FormatBRL(c.Valor))
		}
		tw.Flush()
	}

	if len(stats.GastosPorMes) > 0 {
		fmt.Fprintln(w, "\nPor mes:")
		tw = newTable(w)
		for _, m := range stats.GastosPorMes {
			fmt.Fprintf(tw, "  %s\t%s\n", m.Mes, core.FormatBRL(m.Valor))
		}
		tw.Flush()
	}
}

// shortID truncates backend ids for table display; full ids still
// work as command arguments.
func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
