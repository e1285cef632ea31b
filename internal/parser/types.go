package parser

import (
	"errors"
	"fmt"
	"strings"
)

// Grid 单个工作表的网格数据（行可以长短不一）
type Grid [][]string

// Sheet 命名的工作表
type Sheet struct {
	Name          string `json:"name"`
	Grid          Grid   `json:"-"`
	RowsTruncated bool   `json:"rowsTruncated"`
	ColsTruncated bool   `json:"colsTruncated"`
}

// Workbook 解析后的工作簿
type Workbook struct {
	Sheets          []Sheet `json:"sheets"`
	SheetsTruncated bool    `json:"sheetsTruncated"`
}

// Format 文件声明格式
type Format string

const (
	FormatXLSX Format = "xlsx"
)

// Field 规范字段名
type Field string

const (
	FieldUnidade         Field = "unidade"
	FieldNumeroSerie     Field = "numeroserie"
	FieldDispositivo     Field = "dispositivo"
	FieldDataLeitura     Field = "dataleitura"
	FieldLeituraAnterior Field = "leituraanterior"
	FieldLeituraAtual    Field = "leituraatual"
	FieldConsumo         Field = "consumo"
	FieldProjecao30Dias  Field = "projecao30dias"
	FieldTendencia       Field = "tendencia"
	FieldSkip            Field = "skip"
)

// RequiredFields 必须存在的字段
var RequiredFields = []Field{FieldUnidade, FieldLeituraAnterior, FieldLeituraAtual, FieldConsumo}

// HeaderMarkers 表头标记
var HeaderMarkers = []string{"DESCRIÇÃO", "DESCRICAO"}

// 安全限制
const (
	MaxFileSize     = 50 * 1024 * 1024
	MinFileSize     = 100
	MaxSheets       = 10
	MaxRowsPerSheet = 10000
	MaxColsPerRow   = 100
	HeaderScanRows  = 20
)

var (
	ErrFileTooLarge          = errors.New("file exceeds the 50 MB limit")
	ErrInvalidSignature      = errors.New("file does not carry a valid spreadsheet signature")
	ErrCorruptedFile         = errors.New("spreadsheet container is corrupted")
	ErrUnsupportedFormat     = errors.New("unsupported spreadsheet format")
	ErrParseFailed           = errors.New("spreadsheet could not be parsed")
	ErrEmptySheet            = errors.New("sheet has no data rows")
	ErrHeaderNotFound        = errors.New("header row not found")
	ErrMissingRequiredColumn = errors.New("missing required column")
)

// MissingColumnsError 缺少必需列
type MissingColumnsError struct {
	Missing []string
	Found   []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("missing required columns: %s (found: %s)",
		strings.Join(e.Missing, ", "), strings.Join(e.Found, ", "))
}

func (e *MissingColumnsError) Is(target error) bool {
	return target == ErrMissingRequiredColumn
}

// IsFormatError 判断错误是否来自文件内容本身（同一文件重复解析结果不变）
func IsFormatError(err error) bool {
	for _, target := range []error{
		ErrFileTooLarge, ErrInvalidSignature, ErrCorruptedFile, ErrUnsupportedFormat,
		ErrParseFailed, ErrEmptySheet, ErrHeaderNotFound, ErrMissingRequiredColumn,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
