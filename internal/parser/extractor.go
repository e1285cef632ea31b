package parser

import (
	"fmt"
	"strings"

	"github.com/Techmetria-Diego/IoT-Monitor/internal/model"
)

// 无趋势列时的高消耗阈值（m³）
const fallbackHighConsumption = 10

// ExtractUnits 从表头之后的行中提取单元记录
func ExtractUnits(grid Grid, mapping ColumnMapping) []model.UnitRecord {
	canonical := make(map[string]bool, len(mapping.Fields)+1)
	for f := range mapping.Fields {
		canonical[string(f)] = true
	}
	canonical[string(FieldSkip)] = true

	var units []model.UnitRecord
	for i := mapping.HeaderRow + 1; i < len(grid); i++ {
		row := grid[i]
		if isBlankRow(row) {
			continue
		}
		units = append(units, extractUnit(row, i, mapping, canonical))
	}
	return units
}

func extractUnit(row []string, rowIndex int, mapping ColumnMapping, canonical map[string]bool) model.UnitRecord {
	cell := func(f Field) (string, bool) {
		idx, ok := mapping.Fields[f]
		if !ok {
			return "", false
		}
		return getCell(row, idx), true
	}

	unidade, _ := cell(FieldUnidade)
	consumo := 0.0
	if v, ok := cell(FieldConsumo); ok {
		consumo = parseFloat(v)
	}

	u := model.UnitRecord{
		ID:      unidade,
		Unidade: unidade,
		Consumo: consumo,
	}
	if u.ID == "" {
		u.ID = fmt.Sprintf("unit-%d", rowIndex)
	}
	if u.Unidade == "" {
		u.Unidade = fmt.Sprintf("Unidade %d", rowIndex)
	}
	u.NumeroSerie, _ = cell(FieldNumeroSerie)
	u.Dispositivo, _ = cell(FieldDispositivo)
	u.DataLeitura, _ = cell(FieldDataLeitura)
	if v, ok := cell(FieldLeituraAnterior); ok {
		u.LeituraAnterior = parseFloat(v)
	}
	if v, ok := cell(FieldLeituraAtual); ok {
		u.LeituraAtual = parseFloat(v)
	}

	u.Projecao30Dias = consumo * 30
	if v, ok := cell(FieldProjecao30Dias); ok {
		if p, parsed := parseOptionalFloat(v); parsed {
			u.Projecao30Dias = p
		}
	}

	trend, _ := cell(FieldTendencia)
	if trend != "" {
		u.Tendencia = trend
		u.IsHighConsumption = IsHighConsumptionTrend(trend)
	} else {
		u.Tendencia = FallbackTrend(consumo)
		u.IsHighConsumption = consumo > fallbackHighConsumption
	}

	for idx, label := range mapping.Labels {
		label = strings.TrimSpace(label)
		if label == "" || isMappedColumn(mapping, idx) || canonical[label] {
			continue
		}
		if u.SideFields == nil {
			u.SideFields = make(map[string]string)
		}
		u.SideFields[label] = getCell(row, idx)
	}
	return u
}

// IsHighConsumptionTrend 判断趋势文本是否表示高消耗
func IsHighConsumptionTrend(trend string) bool {
	t := strings.ToLower(strings.TrimSpace(trend))
	if strings.Contains(t, "alto consumo") {
		return true
	}
	return strings.Contains(t, "alto") && strings.Contains(t, "consumo")
}

// FallbackTrend 缺少趋势列时按消耗量推导的标签
func FallbackTrend(consumo float64) string {
	switch {
	case consumo < 0:
		return "Crédito/Erro"
	case consumo == 0:
		return "Sem Consumo"
	case consumo > 20:
		return "Aumento Crítico"
	case consumo > 10:
		return "Aumento"
	default:
		return "Estável"
	}
}

func isMappedColumn(mapping ColumnMapping, idx int) bool {
	for _, i := range mapping.Fields {
		if i == idx {
			return true
		}
	}
	for _, i := range mapping.Skipped {
		if i == idx {
			return true
		}
	}
	return false
}

func isBlankRow(row []string) bool {
	for _, c := range row {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
