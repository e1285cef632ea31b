package parser

import (
	"fmt"
	"log"
	"regexp"
	"strings"
)

var (
	// 仅移除可执行标记的整个标签，其余尖括号只删字符本身
	markupTagRe    = regexp.MustCompile(`(?i)</?(script|style|iframe|object|embed|svg|link|meta)\b[^<>]*>`)
	unsafeCharRe   = regexp.MustCompile(`[<>'"&]`)
	pollutionKeyRe = regexp.MustCompile(`(?i)__proto__|constructor|prototype`)
	scriptProtoRe  = regexp.MustCompile(`(?i)javascript:`)
)

// SanitizeCell 将单元格值转换为安全字符串
func SanitizeCell(v interface{}) (out string) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[parser] cell conversion panicked: %v", r)
			out = ""
		}
	}()

	var s string
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		s = val
	default:
		s = fmt.Sprint(val)
	}

	s = markupTagRe.ReplaceAllString(s, "")
	s = unsafeCharRe.ReplaceAllString(s, "")
	s = pollutionKeyRe.ReplaceAllString(s, "")
	s = scriptProtoRe.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// GridFromValues 将远端读取的二维值转换为网格（应用相同的限制与清洗）
func GridFromValues(values [][]interface{}) Grid {
	n := len(values)
	if n > MaxRowsPerSheet {
		log.Printf("[parser] tabular range truncated: %d rows > %d", n, MaxRowsPerSheet)
		n = MaxRowsPerSheet
	}
	grid := make(Grid, 0, n)
	for _, row := range values[:n] {
		if len(row) > MaxColsPerRow {
			row = row[:MaxColsPerRow]
		}
		cells := make([]string, len(row))
		for i, v := range row {
			cells[i] = SanitizeCell(v)
		}
		grid = append(grid, cells)
	}
	return grid
}
