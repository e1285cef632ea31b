package parser_test

import (
	"fmt"
	"testing"

	"github.com/xuri/excelize/v2"
)

// buildReportWorkbook 生成报告工作簿：rows 的 key 为 1 起始的 Excel 行号
func buildReportWorkbook(t *testing.T, rows map[int][]interface{}) []byte {
	t.Helper()

	wb := excelize.NewFile()
	defer wb.Close()
	sheet := wb.GetSheetName(wb.GetActiveSheetIndex())

	for rowNum, values := range rows {
		row := values
		if err := wb.SetSheetRow(sheet, fmt.Sprintf("A%d", rowNum), &row); err != nil {
			t.Fatalf("SetSheetRow row %d failed: %v", rowNum, err)
		}
	}
	buf, err := wb.WriteToBuffer()
	if err != nil {
		t.Fatalf("WriteToBuffer failed: %v", err)
	}
	return buf.Bytes()
}

func standardHeader() []interface{} {
	return []interface{}{"DESCRIÇÃO", "Nº SÉRIE", "LEITURA ANTERIOR (m³)", "LEITURA ATUAL (m³)", "CONSUMO (m³)", "TENDÊNCIA"}
}
