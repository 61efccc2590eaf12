package pages

import (
	"testing"

	"gastos/internal/core"
)

func idOf(g core.Gasto) string { return g.ID }

func gastosFixture() []core.Gasto {
	return []core.Gasto{
		{ID: "1", Descricao: "Mercado", Valor: 100},
		{ID: "2", Descricao: "Gasolina", Valor: 50},
		{ID: "3", Descricao: "Cinema", Valor: 30},
	}
}

func TestPrepend(t *testing.T) {
	in := gastosFixture()
	out := Prepend(in, core.Gasto{ID: "4", Descricao: "Farmacia", Valor: 20})

	if len(out) != 4 {
		t.Fatalf("len = %d, want 4", len(out))
	}
	if out[0].ID != "4" {
		t.Fatalf("new item not at front: %s", out[0].ID)
	}
	if len(in) != 3 {
		t.Fatal("input slice was modified")
	}
}

func TestRemoveByID(t *testing.T) {
	in := gastosFixture()
	out := RemoveByID(in, "2", idOf)

	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	for _, g := range out {
		if g.ID == "2" {
			t.Fatal("removed item still present")
		}
	}
	if out[0].ID != "1" || out[1].ID != "3" {
		t.Fatalf("order not preserved: %s, %s", out[0].ID, out[1].ID)
	}
	if len(in) != 3 {
		t.Fatal("input slice was modified")
	}
}

func TestRemoveByIDMissing(t *testing.T) {
	out := RemoveByID(gastosFixture(), "missing", idOf)
	if len(out) != 3 {
		t.Fatalf("len = %d, want 3", len(out))
	}
}

func TestReplaceByID(t *testing.T) {
	in := gastosFixture()
	out := ReplaceByID(in, core.Gasto{ID: "2", Descricao: "Gasolina", Valor: 75}, idOf)

	if out[1].Valor != 75 {
		t.Fatalf("Valor = %v, want 75", out[1].Valor)
	}
	if out[1].ID != "2" {
		t.Fatal("position not preserved")
	}
	if in[1].Valor != 50 {
		t.Fatal("input slice was modified")
	}
}

func TestReplaceByIDMissing(t *testing.T) {
	in := gastosFixture()
	out := ReplaceByID(in, core.Gasto{ID: "missing", Valor: 1}, idOf)
	for i := range in {
		if out[i].ID != in[i].ID || out[i].Valor != in[i].Valor {
			t.Fatal("replace of absent id must be a no-op")
		}
	}
}
