package classifier

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/Techmetria-Diego/IoT-Monitor/internal/drive"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/model"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/parser"
)

// ConversionRange 转换副本的读取范围
const ConversionRange = "A:Z"

// Source 远端文件读取能力
type Source interface {
	DownloadBytes(ctx context.Context, fileID string) ([]byte, error)
	CreateTabularCopy(ctx context.Context, fileID string) (string, error)
	ReadTabularRange(ctx context.Context, resourceID, rangeSpec string) ([][]interface{}, error)
	DeleteResource(ctx context.Context, resourceID string) error
	GetMetadata(ctx context.Context, fileID string) (*drive.Metadata, error)
}

// Pipeline 下载 → 解析 → 表头 → 记录 → 分类
type Pipeline struct {
	src      Source
	resolver *parser.HeaderResolver
}

// NewPipeline 创建分类流水线
func NewPipeline(src Source) *Pipeline {
	return &Pipeline{src: src, resolver: parser.NewHeaderResolver()}
}

// Classify 计算单个报告的分类；失败时返回默认分类与错误，由调用方决定是否降级
func (p *Pipeline) Classify(ctx context.Context, fileID string) (model.ReportClassification, error) {
	grid, err := p.LoadGrid(ctx, fileID)
	if err != nil {
		return model.DefaultClassification(), err
	}
	units, err := p.extract(grid)
	if err != nil {
		return model.DefaultClassification(), err
	}
	return Classify(units), nil
}

// Details 严格模式：错误连同列诊断信息一起返回
func (p *Pipeline) Details(ctx context.Context, fileID string) (*model.ReportDetails, error) {
	meta, err := p.src.GetMetadata(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if meta.Trashed {
		return nil, &drive.APIError{Kind: drive.ErrNotFound, ResourceID: fileID, Detail: "file is in trash"}
	}

	grid, err := p.LoadGrid(ctx, fileID)
	if err != nil {
		return nil, err
	}
	units, err := p.extract(grid)
	if err != nil {
		return nil, err
	}

	cls := Classify(units)
	return &model.ReportDetails{
		ID:                        fileID,
		Name:                      meta.Name,
		TotalUnits:                len(units),
		HighConsumptionUnitsCount: cls.HighConsumptionUnitsCount,
		AverageConsumption:        AverageConsumption(units),
		Status:                    cls.Status,
		Units:                     units,
	}, nil
}

func (p *Pipeline) extract(grid parser.Grid) ([]model.UnitRecord, error) {
	if len(grid) < 2 {
		return nil, parser.ErrEmptySheet
	}
	mapping, err := p.resolver.Resolve(grid)
	if err != nil {
		return nil, err
	}
	return parser.ExtractUnits(grid, mapping), nil
}

// LoadGrid 优先直接解析文件，失败或找不到表头时改用远端转换副本
func (p *Pipeline) LoadGrid(ctx context.Context, fileID string) (parser.Grid, error) {
	var (
		direct    parser.Grid
		directErr error
	)

	data, err := p.src.DownloadBytes(ctx, fileID)
	switch {
	case errors.Is(err, drive.ErrUnauthorized):
		return nil, err
	case err != nil:
		directErr = err
	default:
		wb, perr := parser.ParseWorkbook(data, parser.FormatXLSX)
		if perr != nil {
			directErr = perr
		} else if grid, ok := pickSheet(wb); ok {
			return grid, nil
		} else if len(wb.Sheets) > 0 {
			direct = wb.Sheets[0].Grid
		}
	}

	reason := "no header marker"
	if directErr != nil {
		reason = directErr.Error()
	}
	log.Printf("[classifier] %s: direct parse unusable (%s), trying tabular conversion", fileID, reason)
	grid, cerr := p.readViaConversion(ctx, fileID)
	if cerr == nil {
		return grid, nil
	}
	if errors.Is(cerr, drive.ErrUnauthorized) {
		return nil, cerr
	}
	if direct != nil {
		return direct, nil
	}
	if directErr != nil {
		return nil, fmt.Errorf("%w (conversion fallback: %v)", directErr, cerr)
	}
	return nil, cerr
}

func (p *Pipeline) readViaConversion(ctx context.Context, fileID string) (parser.Grid, error) {
	copyID, err := p.src.CreateTabularCopy(ctx, fileID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if derr := p.src.DeleteResource(context.WithoutCancel(ctx), copyID); derr != nil {
			log.Printf("[classifier] delete temporary copy %s failed: %v", copyID, derr)
		}
	}()

	values, err := p.src.ReadTabularRange(ctx, copyID, ConversionRange)
	if err != nil {
		return nil, err
	}
	return parser.GridFromValues(values), nil
}

// pickSheet 选择第一个含表头标记的工作表
func pickSheet(wb *parser.Workbook) (parser.Grid, bool) {
	for _, s := range wb.Sheets {
		if _, ok := parser.FindHeaderRow(s.Grid); ok {
			return s.Grid, true
		}
	}
	return nil, false
}
