package exporter

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/Techmetria-Diego/IoT-Monitor/internal/model"
)

func reopen(t *testing.T, f *excelize.File) *excelize.File {
	t.Helper()
	buf, err := f.WriteToBuffer()
	if err != nil {
		t.Fatalf("write: %v", err)
	}
	out, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	t.Cleanup(func() { _ = out.Close() })
	return out
}

func TestExportAlerts(t *testing.T) {
	t.Parallel()

	overview := &model.AlertsOverview{
		PeriodID:   "p1",
		LatestDate: "10/10/2025",
		Error: []model.ReportFile{
			{Name: "Condominio Alfa", Date: "10/10/2025", Status: model.StatusError, HighConsumptionUnitsCount: 25, AlertBudget: 20, ServiceType: model.ServiceWater},
		},
		Alert: []model.ReportFile{
			{Name: "Condominio Beta", Date: "10/10/2025", Status: model.StatusAlert, HighConsumptionUnitsCount: 12, AlertBudget: 20},
			{Name: "Condominio Gama", Date: "10/10/2025", Status: model.StatusAlert, HighConsumptionUnitsCount: 11, AlertBudget: 20},
		},
	}

	f, err := NewExporter().ExportAlerts(overview)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	out := reopen(t, f)

	if got := out.GetSheetList(); len(got) != 2 || got[0] != "Erros" || got[1] != "Alertas" {
		t.Fatalf("unexpected sheets: %v", got)
	}
	errRows, err := out.GetRows("Erros")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(errRows) != 2 || errRows[1][0] != "Condominio Alfa" || errRows[1][2] != "water" || errRows[1][4] != "25" {
		t.Fatalf("unexpected error rows: %v", errRows)
	}
	alertRows, _ := out.GetRows("Alertas")
	if len(alertRows) != 3 {
		t.Fatalf("expected header + 2 alert rows, got %d", len(alertRows))
	}
}

func TestExportDetails(t *testing.T) {
	t.Parallel()

	details := &model.ReportDetails{
		ID:                        "f1",
		Name:                      "Condominio Alfa",
		TotalUnits:                2,
		HighConsumptionUnitsCount: 1,
		AverageConsumption:        8.5,
		Status:                    model.StatusNormal,
		Units: []model.UnitRecord{
			{Unidade: "Apto 101", LeituraAnterior: 100, LeituraAtual: 105, Consumo: 5, Tendencia: "estável"},
			{Unidade: "Apto 102", LeituraAnterior: 200, LeituraAtual: 212, Consumo: 12, Tendencia: "alto", IsHighConsumption: true},
		},
	}

	f, err := NewExporter().ExportDetails(details)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	out := reopen(t, f)

	rows, err := out.GetRows("Unidades")
	if err != nil {
		t.Fatalf("rows: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 units, got %d", len(rows))
	}
	if rows[2][0] != "Apto 102" || rows[2][6] != "12" || rows[2][9] != "Sim" {
		t.Fatalf("unexpected unit row: %v", rows[2])
	}

	avg, err := out.GetCellValue("Resumo", "B6")
	if err != nil {
		t.Fatalf("cell: %v", err)
	}
	if avg != "8.50" {
		t.Fatalf("unexpected average: %q", avg)
	}
}
