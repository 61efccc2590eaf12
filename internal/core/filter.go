package core

import "strings"

// FilterPersonal selects gastos with no grupo when used as the GrupoID
// of a GastoFilter.
const FilterPersonal = "personal"

// GastoFilter is the client-side view filter applied after fetching.
// Zero-value fields match everything. Filtering is pure local
// computation; no backend round-trip is involved.
type GastoFilter struct {
	// Search matches case-insensitively against the description.
	Search string
	// GrupoID is empty (all), FilterPersonal, or a grupo id.
	GrupoID string
	// CategoriaID is empty (all) or a categoria id.
	CategoriaID string
}

func (f GastoFilter) Match(g Gasto) bool {
	if f.Search != "" &&
		!strings.Contains(strings.ToLower(g.Descricao), strings.ToLower(f.Search)) {
		return false
	}
	switch f.GrupoID {
	case "":
	case FilterPersonal:
		if !g.IsPersonal() {
			return false
		}
	default:
		if g.GrupoID == nil || *g.GrupoID != f.GrupoID {
			return false
		}
	}
	if f.CategoriaID != "" && g.CategoriaID != f.CategoriaID {
		return false
	}
	return true
}

// Apply returns the gastos matching the filter, preserving order.
func (f GastoFilter) Apply(gastos []Gasto) []Gasto {
	out := make([]Gasto, 0, len(gastos))
	for _, g := range gastos {
		if f.Match(g) {
			out = append(out, g)
		}
	}
	return out
}

// Total sums the valor over the given gastos.
func Total(gastos []Gasto) float64 {
	var sum float64
	for _, g := range gastos {
		sum += g.Valor
	}
	return sum
}
