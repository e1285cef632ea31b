package parser

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"log"

	"github.com/h2non/filetype"
	"github.com/xuri/excelize/v2"
)

// ParseWorkbook 解析文件字节为命名网格
func ParseWorkbook(data []byte, format Format) (*Workbook, error) {
	if format != FormatXLSX {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	if err := validateContainer(data); err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, classifyOpenError(err)
	}
	defer f.Close()

	names := f.GetSheetList()
	wb := &Workbook{}
	if len(names) > MaxSheets {
		log.Printf("[parser] workbook has %d sheets, only the first %d are processed", len(names), MaxSheets)
		names = names[:MaxSheets]
		wb.SheetsTruncated = true
	}

	for _, name := range names {
		sheet, err := readSheet(f, name)
		if err != nil {
			log.Printf("[parser] read sheet %q failed: %v", name, err)
			return nil, fmt.Errorf("%w: sheet %q", ErrParseFailed, name)
		}
		wb.Sheets = append(wb.Sheets, sheet)
	}
	return wb, nil
}

func validateContainer(data []byte) error {
	if len(data) > MaxFileSize {
		return ErrFileTooLarge
	}
	if len(data) < MinFileSize || data[0] != 'P' || data[1] != 'K' {
		return ErrInvalidSignature
	}
	kind, err := filetype.Match(data)
	if err == nil && kind != filetype.Unknown && kind.Extension != "xlsx" && kind.Extension != "zip" {
		return fmt.Errorf("%w: detected %s", ErrUnsupportedFormat, kind.Extension)
	}
	return nil
}

func classifyOpenError(err error) error {
	log.Printf("[parser] open workbook failed: %v", err)
	switch {
	case errors.Is(err, zip.ErrFormat), errors.Is(err, zip.ErrChecksum), errors.Is(err, zip.ErrAlgorithm):
		return ErrCorruptedFile
	case errors.Is(err, excelize.ErrWorkbookFileFormat):
		return ErrUnsupportedFormat
	default:
		return ErrCorruptedFile
	}
}

func readSheet(f *excelize.File, name string) (Sheet, error) {
	sheet := Sheet{Name: name}
	rows, err := f.Rows(name)
	if err != nil {
		return sheet, err
	}
	defer rows.Close()

	for rows.Next() {
		if len(sheet.Grid) >= MaxRowsPerSheet {
			sheet.RowsTruncated = true
			log.Printf("[parser] sheet %q truncated at %d rows", name, MaxRowsPerSheet)
			break
		}
		cols, err := rows.Columns()
		if err != nil {
			return sheet, err
		}
		if len(cols) > MaxColsPerRow {
			cols = cols[:MaxColsPerRow]
			sheet.ColsTruncated = true
		}
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = SanitizeCell(c)
		}
		sheet.Grid = append(sheet.Grid, cells)
	}
	if sheet.ColsTruncated {
		log.Printf("[parser] sheet %q has rows wider than %d columns", name, MaxColsPerRow)
	}
	return sheet, rows.Error()
}
