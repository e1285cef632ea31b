package exporter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/Techmetria-Diego/IoT-Monitor/internal/model"
)

// ContentType xlsx 响应类型
const ContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// 工作表名沿用报告语言
const (
	sheetErrors  = "Erros"
	sheetAlerts  = "Alertas"
	sheetUnits   = "Unidades"
	sheetSummary = "Resumo"
)

var reportHeaders = []interface{}{
	"Condomínio", "Data", "Tipo", "Status", "Unidades em alto consumo", "Limite de alertas", "Arquivo",
}

var unitHeaders = []interface{}{
	"Unidade", "Número de série", "Dispositivo", "Data leitura",
	"Leitura anterior", "Leitura atual", "Consumo", "Projeção 30 dias", "Tendência", "Alto consumo",
}

// Exporter Excel导出器
type Exporter struct{}

// NewExporter 创建导出器
func NewExporter() *Exporter {
	return &Exporter{}
}

// ExportAlerts 导出周期告警汇总（error / alert 各一张表）
func (e *Exporter) ExportAlerts(overview *model.AlertsOverview) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetErrors); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(sheetAlerts); err != nil {
		_ = f.Close()
		return nil, err
	}

	headerStyle, err := newHeaderStyle(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	for sheet, reports := range map[string][]model.ReportFile{
		sheetErrors: overview.Error,
		sheetAlerts: overview.Alert,
	} {
		rows := make([][]interface{}, 0, len(reports)+1)
		rows = append(rows, reportHeaders)
		for _, r := range reports {
			rows = append(rows, []interface{}{
				r.Name, r.Date, string(r.ServiceType), string(r.Status),
				r.HighConsumptionUnitsCount, r.AlertBudget, r.FileName,
			})
		}
		if err := writeRows(f, sheet, rows, headerStyle); err != nil {
			_ = f.Close()
			return nil, err
		}
		f.SetColWidth(sheet, "A", "A", 40)
		f.SetColWidth(sheet, "B", "F", 15)
		f.SetColWidth(sheet, "G", "G", 50)
	}

	f.SetActiveSheet(0)
	return f, nil
}

// ExportDetails 导出单报告的单元明细与汇总
func (e *Exporter) ExportDetails(details *model.ReportDetails) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", sheetUnits); err != nil {
		_ = f.Close()
		return nil, err
	}
	if _, err := f.NewSheet(sheetSummary); err != nil {
		_ = f.Close()
		return nil, err
	}

	headerStyle, err := newHeaderStyle(f)
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	rows := make([][]interface{}, 0, len(details.Units)+1)
	rows = append(rows, unitHeaders)
	for _, u := range details.Units {
		high := "Não"
		if u.IsHighConsumption {
			high = "Sim"
		}
		rows = append(rows, []interface{}{
			u.Unidade, u.NumeroSerie, u.Dispositivo, u.DataLeitura,
			u.LeituraAnterior, u.LeituraAtual, u.Consumo, u.Projecao30Dias, u.Tendencia, high,
		})
	}
	if err := writeRows(f, sheetUnits, rows, headerStyle); err != nil {
		_ = f.Close()
		return nil, err
	}
	f.SetColWidth(sheetUnits, "A", "A", 30)
	f.SetColWidth(sheetUnits, "B", "J", 16)

	summary := [][]interface{}{
		{"Indicador", "Valor"},
		{"Relatório", details.Name},
		{"Status", string(details.Status)},
		{"Total de unidades", details.TotalUnits},
		{"Unidades em alto consumo", details.HighConsumptionUnitsCount},
		{"Consumo médio", fmt.Sprintf("%.2f", details.AverageConsumption)},
	}
	if err := writeRows(f, sheetSummary, summary, headerStyle); err != nil {
		_ = f.Close()
		return nil, err
	}
	f.SetColWidth(sheetSummary, "A", "A", 28)
	f.SetColWidth(sheetSummary, "B", "B", 40)

	f.SetActiveSheet(0)
	return f, nil
}

// newHeaderStyle 表头样式
func newHeaderStyle(f *excelize.File) (int, error) {
	return f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#E2E8F0"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
}

// writeRows 从 A1 开始写入，第一行为表头
func writeRows(f *excelize.File, sheet string, rows [][]interface{}, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return f.SetRowStyle(sheet, 1, 1, headerStyle)
}
