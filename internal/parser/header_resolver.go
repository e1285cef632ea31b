package parser

import (
	"fmt"
	"strings"
)

// HeaderResolver 表头定位与列映射
type HeaderResolver struct {
	mapper *FieldMapper
}

// NewHeaderResolver 创建表头解析器
func NewHeaderResolver() *HeaderResolver {
	return &HeaderResolver{mapper: NewFieldMapper()}
}

// FindHeaderRow 在前若干行内查找包含表头标记的行
func FindHeaderRow(grid Grid) (int, bool) {
	limit := len(grid)
	if limit > HeaderScanRows {
		limit = HeaderScanRows
	}
	for i := 0; i < limit; i++ {
		if len(grid[i]) == 0 {
			continue
		}
		joined := strings.ToUpper(FoldDiacritics(strings.Join(grid[i], " ")))
		for _, marker := range HeaderMarkers {
			if strings.Contains(joined, strings.ToUpper(FoldDiacritics(marker))) {
				return i, true
			}
		}
	}
	return -1, false
}

// Resolve 定位表头并映射列，缺少必需列时返回 *MissingColumnsError
func (r *HeaderResolver) Resolve(grid Grid) (ColumnMapping, error) {
	headerRow, ok := FindHeaderRow(grid)
	if !ok {
		return ColumnMapping{}, fmt.Errorf("%w: no row within the first %d contains %s",
			ErrHeaderNotFound, HeaderScanRows, strings.Join(HeaderMarkers, " or "))
	}

	mapping := r.mapper.MapColumns(grid[headerRow])
	mapping.HeaderRow = headerRow

	var missing []string
	for _, f := range RequiredFields {
		if _, ok := mapping.Fields[f]; !ok {
			missing = append(missing, string(f))
		}
	}
	if len(missing) > 0 {
		return mapping, &MissingColumnsError{Missing: missing, Found: mapping.FoundKeys()}
	}
	return mapping, nil
}
