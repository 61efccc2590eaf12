package core

import (
	"encoding/json"
	"testing"
)

func strptr(s string) *string { return &s }

func TestCreateGastoValidate(t *testing.T) {
	good := CreateGasto{
		CategoriaID: "cat-1",
		Valor:       12.50,
		Data:        NewDate(2026, 8, 1),
		Descricao:   "mercado",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []CreateGasto{
		{CategoriaID: "", Valor: 1, Data: NewDate(2026, 8, 1), Descricao: "a"},
		{CategoriaID: "c", Valor: 0, Data: NewDate(2026, 8, 1), Descricao: "a"},
		{CategoriaID: "c", Valor: -5, Data: NewDate(2026, 8, 1), Descricao: "a"},
		{CategoriaID: "c", Valor: 1, Data: Date{}, Descricao: "a"},
		{CategoriaID: "c", Valor: 1, Data: NewDate(2026, 8, 1), Descricao: "   "},
	}
	for i, c := range bads {
		if err := c.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestCreateGrupoValidate(t *testing.T) {
	cases := []struct {
		c  CreateGrupo
		ok bool
	}{
		{CreateGrupo{Nome: "Familia", Tipo: GrupoFamilia}, true},
		{CreateGrupo{Nome: "Praia 2026", Tipo: GrupoViagem}, true},
		{CreateGrupo{Nome: "", Tipo: GrupoEvento}, false},
		{CreateGrupo{Nome: "x", Tipo: "clube"}, false},
	}
	for i, tc := range cases {
		err := tc.c.Validate()
		if tc.ok && err != nil {
			t.Fatalf("case %d expected ok, got %v", i, err)
		}
		if !tc.ok && err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestCreateCategoriaValidate(t *testing.T) {
	if err := (CreateCategoria{Nome: "Alimentação", Tipo: "despesa"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (CreateCategoria{Nome: "", Tipo: "despesa"}).Validate(); err == nil {
		t.Fatalf("expected error for empty nome")
	}
	if err := (CreateCategoria{Nome: "x", Tipo: ""}).Validate(); err == nil {
		t.Fatalf("expected error for empty tipo")
	}
}

func TestDateJSON(t *testing.T) {
	d, err := ParseDate("2026-08-29")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	b, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(b) != `"2026-08-29"` {
		t.Fatalf("unexpected encoding %s", b)
	}

	var back Date
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if back.String() != "2026-08-29" {
		t.Fatalf("roundtrip mismatch: %s", back)
	}

	// Timestamp fallback
	var ts Date
	if err := json.Unmarshal([]byte(`"2026-08-29T00:00:00Z"`), &ts); err != nil {
		t.Fatalf("timestamp fallback: %v", err)
	}
	if ts.String() != "2026-08-29" {
		t.Fatalf("timestamp fallback mismatch: %s", ts)
	}

	if err := json.Unmarshal([]byte(`"29/08/2026"`), &ts); err == nil {
		t.Fatalf("expected error for unknown layout")
	}
}

func TestGastoIsPersonal(t *testing.T) {
	if !(Gasto{}).IsPersonal() {
		t.Fatalf("nil grupo_id should be personal")
	}
	if !(Gasto{GrupoID: strptr("")}).IsPersonal() {
		t.Fatalf("empty grupo_id should be personal")
	}
	if (Gasto{GrupoID: strptr("g1")}).IsPersonal() {
		t.Fatalf("grupo gasto reported personal")
	}
}

func TestGastoJSONNullGrupo(t *testing.T) {
	raw := `{"id":"1","tenant_id":"t1","user_id":"u1","grupo_id":null,` +
		`"categoria_id":"c1","valor":10.5,"data":"2026-01-15",` +
		`"descricao":"almoço","created_at":"2026-01-15T12:00:00Z","categoria_nome":"Alimentação"}`
	var g Gasto
	if err := json.Unmarshal([]byte(raw), &g); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if g.GrupoID != nil {
		t.Fatalf("expected nil grupo_id, got %v", *g.GrupoID)
	}
	if g.Valor != 10.5 || g.CategoriaNome != "Alimentação" {
		t.Fatalf("unexpected record: %+v", g)
	}
}
