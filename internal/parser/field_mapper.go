package parser

// fieldRule 单条列名匹配规则
type fieldRule struct {
	field Field
	match func(label string) bool
}

// FieldMapper 字段映射器：按顺序匹配规则，首个命中者生效
type FieldMapper struct {
	rules []fieldRule
}

// NewFieldMapper 创建字段映射器
func NewFieldMapper() *FieldMapper {
	return &FieldMapper{rules: defaultRules()}
}

func defaultRules() []fieldRule {
	return []fieldRule{
		{FieldUnidade, func(l string) bool { return ContainsAny(l, "descricao", "descri") }},
		{FieldNumeroSerie, func(l string) bool { return ContainsAny(l, "serie") }},
		{FieldDispositivo, func(l string) bool { return ContainsAny(l, "dispositivo") }},
		{FieldDataLeitura, func(l string) bool {
			return ContainsAny(l, "lido de", "data leitura", "data da leitura", "data de leitura")
		}},
		{FieldLeituraAnterior, func(l string) bool { return ContainsAny(l, "leitura anterior") }},
		{FieldLeituraAtual, func(l string) bool { return ContainsAny(l, "leitura atual") }},
		// "PROJEÇÃO DE CONSUMO" 先于 consumo 匹配
		{FieldProjecao30Dias, func(l string) bool { return ContainsAny(l, "projecao") }},
		{FieldConsumo, func(l string) bool { return ContainsAny(l, "consumo") }},
		{FieldTendencia, func(l string) bool { return ContainsAny(l, "tendencia") }},
		{FieldSkip, func(l string) bool { return ContainsAny(l, "status") }},
	}
}

// MapColumn 映射单个列，未命中返回空字段
func (m *FieldMapper) MapColumn(label string) Field {
	normalized := NormalizeLabel(label)
	if normalized == "" {
		return ""
	}
	for _, r := range m.rules {
		if r.match(normalized) {
			return r.field
		}
	}
	return ""
}

// MapColumns 映射表头行
func (m *FieldMapper) MapColumns(labels []string) ColumnMapping {
	mapping := ColumnMapping{
		Labels: labels,
		Fields: make(map[Field]int),
		Extra:  make(map[string]int),
	}
	for idx, label := range labels {
		field := m.MapColumn(label)
		switch field {
		case "":
			key := NormalizeColumnName(label)
			if key == "" {
				continue
			}
			if _, exists := mapping.Extra[key]; !exists {
				mapping.Extra[key] = idx
			}
		case FieldSkip:
			mapping.Skipped = append(mapping.Skipped, idx)
		default:
			if _, exists := mapping.Fields[field]; !exists {
				mapping.Fields[field] = idx
			}
		}
	}
	return mapping
}

// ColumnMapping 规范字段到列索引的映射
type ColumnMapping struct {
	HeaderRow int
	Labels    []string
	Fields    map[Field]int
	Skipped   []int
	Extra     map[string]int
}

// Index 返回字段的列索引
func (m ColumnMapping) Index(f Field) (int, bool) {
	idx, ok := m.Fields[f]
	return idx, ok
}

// FoundKeys 按列顺序列出已识别的键
func (m ColumnMapping) FoundKeys() []string {
	byCol := make(map[int]string, len(m.Fields)+len(m.Extra))
	for f, idx := range m.Fields {
		byCol[idx] = string(f)
	}
	for k, idx := range m.Extra {
		byCol[idx] = k
	}
	keys := make([]string, 0, len(byCol))
	for idx := range m.Labels {
		if k, ok := byCol[idx]; ok {
			keys = append(keys, k)
		}
	}
	return keys
}
