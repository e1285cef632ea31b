package parser_test

import (
	"testing"

	"github.com/Techmetria-Diego/IoT-Monitor/internal/parser"
)

func TestExtractUnits_EndToEnd(t *testing.T) {
	t.Parallel()

	data := buildReportWorkbook(t, map[int][]interface{}{
		12: standardHeader(),
		13: {"Apto 101", "S1", 100, 105, 5, "Estável"},
		14: {"Apto 102", "S2", 200, 212, 12, "Alto Consumo"},
		15: {"Apto 103", "S3", 300, 330, 30, "Alto Consumo"},
	})
	wb, err := parser.ParseWorkbook(data, parser.FormatXLSX)
	if err != nil {
		t.Fatalf("ParseWorkbook failed: %v", err)
	}
	grid := wb.Sheets[0].Grid

	mapping, err := parser.NewHeaderResolver().Resolve(grid)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	if mapping.HeaderRow != 11 {
		t.Fatalf("HeaderRow=%d, want 11", mapping.HeaderRow)
	}

	units := parser.ExtractUnits(grid, mapping)
	if len(units) != 3 {
		t.Fatalf("units=%d, want 3", len(units))
	}
	wantConsumo := []float64{5, 12, 30}
	wantHigh := []bool{false, true, true}
	for i, u := range units {
		if u.Consumo != wantConsumo[i] {
			t.Fatalf("units[%d].Consumo=%v, want %v", i, u.Consumo, wantConsumo[i])
		}
		if u.IsHighConsumption != wantHigh[i] {
			t.Fatalf("units[%d].IsHighConsumption=%v, want %v", i, u.IsHighConsumption, wantHigh[i])
		}
		if u.Projecao30Dias != wantConsumo[i]*30 {
			t.Fatalf("units[%d].Projecao30Dias=%v, want %v", i, u.Projecao30Dias, wantConsumo[i]*30)
		}
	}
	if units[1].NumeroSerie != "S2" || units[1].LeituraAtual != 212 {
		t.Fatalf("unexpected unit: %+v", units[1])
	}
}

func TestExtractUnits_SkipsBlankRowsAndDefaultsLabels(t *testing.T) {
	t.Parallel()

	grid := parser.Grid{
		{"DESCRIÇÃO", "LEITURA ANTERIOR", "LEITURA ATUAL", "CONSUMO", "PROJEÇÃO 30 DIAS"},
		{"", "", "", ""},
		{"", "1", "4", "3", "0"},
	}
	mapping, err := parser.NewHeaderResolver().Resolve(grid)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	units := parser.ExtractUnits(grid, mapping)
	if len(units) != 1 {
		t.Fatalf("units=%d, want 1", len(units))
	}
	u := units[0]
	if u.ID != "unit-2" || u.Unidade != "Unidade 2" {
		t.Fatalf("ID=%q Unidade=%q, want unit-2 / Unidade 2", u.ID, u.Unidade)
	}
	if u.Projecao30Dias != 0 {
		t.Fatalf("explicit zero projection must be kept, got %v", u.Projecao30Dias)
	}
}

func TestExtractUnits_FallbackTrendWithoutTrendColumn(t *testing.T) {
	t.Parallel()

	grid := parser.Grid{
		{"DESCRIÇÃO", "LEITURA ANTERIOR", "LEITURA ATUAL", "CONSUMO"},
		{"A", "0", "0", "0"},
		{"B", "0", "11", "11"},
		{"C", "0", "25", "25"},
		{"D", "5", "2", "-3"},
		{"E", "0", "7", "7,5"},
	}
	mapping, err := parser.NewHeaderResolver().Resolve(grid)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	units := parser.ExtractUnits(grid, mapping)

	want := []struct {
		trend string
		high  bool
	}{
		{"Sem Consumo", false},
		{"Aumento", true},
		{"Aumento Crítico", true},
		{"Crédito/Erro", false},
		{"Estável", false},
	}
	for i, w := range want {
		if units[i].Tendencia != w.trend || units[i].IsHighConsumption != w.high {
			t.Fatalf("units[%d]=%q/%v, want %q/%v", i, units[i].Tendencia, units[i].IsHighConsumption, w.trend, w.high)
		}
	}
	if units[4].Consumo != 7.5 {
		t.Fatalf("decimal comma: got %v, want 7.5", units[4].Consumo)
	}
}

func TestExtractUnits_SideFields(t *testing.T) {
	t.Parallel()

	grid := parser.Grid{
		{"DESCRIÇÃO", "LEITURA ANTERIOR", "LEITURA ATUAL", "CONSUMO", "STATUS", "Bloco"},
		{"Apto 1", "1", "2", "1", "OK", "B"},
	}
	mapping, err := parser.NewHeaderResolver().Resolve(grid)
	if err != nil {
		t.Fatalf("Resolve failed: %v", err)
	}
	units := parser.ExtractUnits(grid, mapping)
	side := units[0].SideFields
	if len(side) != 1 || side["Bloco"] != "B" {
		t.Fatalf("SideFields=%v, want map[Bloco:B]", side)
	}
}

func TestIsHighConsumptionTrend(t *testing.T) {
	t.Parallel()

	cases := map[string]bool{
		"Alto Consumo":       true,
		"  ALTO CONSUMO  ":   true,
		"consumo muito alto": true,
		"Estável":            false,
		"Alto":               false,
		"":                   false,
	}
	for in, want := range cases {
		if got := parser.IsHighConsumptionTrend(in); got != want {
			t.Fatalf("IsHighConsumptionTrend(%q)=%v, want %v", in, got, want)
		}
	}
}
