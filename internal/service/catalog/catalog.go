package catalog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Techmetria-Diego/IoT-Monitor/internal/drive"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/model"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/parser"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/service/batch"
)

// 统计周期报告数时的并发上限
const listConcurrency = 5

// ErrInvalidArgument 参数缺失
var ErrInvalidArgument = errors.New("invalid argument")

// Remote 远端目录读取
type Remote interface {
	ListChildren(ctx context.Context, folderID, mimeType string, keep func(drive.Item) bool) ([]drive.Item, error)
}

// Orchestrator 批量分类
type Orchestrator interface {
	ClassifyAll(ctx context.Context, items []batch.Item, onProgress func(batch.Progress)) (map[string]model.ReportClassification, batch.Summary, error)
}

// DetailSource 单报告详情（严格模式）
type DetailSource interface {
	Details(ctx context.Context, fileID string) (*model.ReportDetails, error)
}

// RunRecorder 批量分类执行记录
type RunRecorder interface {
	CreateRunLog(periodID string, total int) (string, error)
	FinishRunLog(id string, cacheHits, computed, failed int, status string) error
}

// Options 目录参数
type Options struct {
	RootFolderID     string
	ExcludeSubstring string
}

// Catalog 周期 / 日期 / 报告目录
type Catalog struct {
	remote       Remote
	orchestrator Orchestrator
	details      DetailSource
	runs         RunRecorder
	rootFolderID string
	exclude      string
}

// New 创建目录服务；runs 可以为 nil
func New(remote Remote, orchestrator Orchestrator, details DetailSource, runs RunRecorder, opts Options) *Catalog {
	exclude := opts.ExcludeSubstring
	if exclude == "" {
		exclude = DefaultExcludeSubstring
	}
	return &Catalog{
		remote:       remote,
		orchestrator: orchestrator,
		details:      details,
		runs:         runs,
		rootFolderID: opts.RootFolderID,
		exclude:      strings.ToLower(exclude),
	}
}

func (c *Catalog) excluded(name string) bool {
	return strings.Contains(strings.ToLower(name), c.exclude)
}

// ListPeriods 列出周期文件夹（按名称倒序），并统计每个周期的报告数
func (c *Catalog) ListPeriods(ctx context.Context) ([]model.PeriodFolder, error) {
	folders, err := c.periodFolders(ctx)
	if err != nil {
		return nil, err
	}

	periods := make([]model.PeriodFolder, len(folders))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i, f := range folders {
		g.Go(func() error {
			files, err := c.reportFiles(gctx, f.ID)
			if err != nil {
				return fmt.Errorf("count reports in %s: %w", f.Name, err)
			}
			periods[i] = model.PeriodFolder{
				ID:           f.ID,
				Name:         f.Name,
				LastModified: f.ModifiedTime,
				ReportCount:  len(files),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return periods, nil
}

func (c *Catalog) periodFolders(ctx context.Context) ([]drive.Item, error) {
	if c.rootFolderID == "" {
		return nil, fmt.Errorf("%w: root folder id is not configured", ErrInvalidArgument)
	}
	folders, err := c.remote.ListChildren(ctx, c.rootFolderID, drive.MimeFolder, func(it drive.Item) bool {
		return it.Name != baseFolderName && IsPeriodFolder(it.Name) && !c.excluded(it.Name)
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(folders, func(i, j int) bool { return folders[i].Name > folders[j].Name })
	return folders, nil
}

// reportFile 报告文件及所在日期文件夹
type reportFile struct {
	drive.Item
	date string
}

func (c *Catalog) reportFiles(ctx context.Context, periodID string) ([]reportFile, error) {
	days, err := c.remote.ListChildren(ctx, periodID, drive.MimeFolder, func(it drive.Item) bool {
		return IsDailyFolder(it.Name)
	})
	if err != nil {
		return nil, err
	}

	perDay := make([][]reportFile, len(days))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(listConcurrency)
	for i, day := range days {
		g.Go(func() error {
			files, err := c.remote.ListChildren(gctx, day.ID, drive.MimeXLSX, func(it drive.Item) bool {
				return !c.excluded(it.Name)
			})
			if err != nil {
				return err
			}
			date := DateFromDailyFolder(day.Name)
			for _, f := range files {
				perDay[i] = append(perDay[i], reportFile{Item: f, date: date})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []reportFile
	for _, files := range perDay {
		all = append(all, files...)
	}
	return all, nil
}

// ListReports 列出周期内的报告并分类（缓存优先），onProgress 可以为 nil
func (c *Catalog) ListReports(ctx context.Context, periodID string, onProgress func(batch.Progress)) ([]model.ReportFile, error) {
	if periodID == "" {
		return nil, fmt.Errorf("%w: period id is required", ErrInvalidArgument)
	}
	files, err := c.reportFiles(ctx, periodID)
	if err != nil {
		return nil, err
	}

	items := make([]batch.Item, len(files))
	for i, f := range files {
		items[i] = batch.Item{FileID: f.ID, DisplayName: f.Name, ModifiedTime: f.ModifiedTime}
	}

	runID := c.startRun(periodID, len(items))
	started := time.Now()
	statuses, summary, classifyErr := c.orchestrator.ClassifyAll(ctx, items, onProgress)
	c.finishRun(runID, summary, classifyErr)
	log.Printf("[catalog] period %s: %d reports (%d cached, %d computed, %d failed) in %s",
		periodID, summary.Total, summary.CacheHits, summary.Computed, summary.Failed, time.Since(started).Round(time.Millisecond))
	if classifyErr != nil {
		return nil, classifyErr
	}

	reports := make([]model.ReportFile, len(files))
	for i, f := range files {
		cls, ok := statuses[f.ID]
		if !ok {
			cls = model.DefaultClassification()
		}
		reports[i] = model.ReportFile{
			ID:                        f.ID,
			Name:                      ReportName(f.Name),
			FileName:                  f.Name,
			Date:                      f.date,
			PeriodID:                  periodID,
			Status:                    cls.Status,
			HighConsumptionUnitsCount: cls.HighConsumptionUnitsCount,
			AlertBudget:               model.DefaultAlertBudget,
			ServiceType:               ServiceTypeOf(f.Name),
			ModifiedTime:              f.ModifiedTime,
		}
	}
	sort.SliceStable(reports, func(i, j int) bool { return reports[i].Name < reports[j].Name })
	return reports, nil
}

func (c *Catalog) startRun(periodID string, total int) string {
	if c.runs == nil {
		return ""
	}
	id, err := c.runs.CreateRunLog(periodID, total)
	if err != nil {
		log.Printf("[catalog] create run log failed: %v", err)
		return ""
	}
	return id
}

func (c *Catalog) finishRun(id string, s batch.Summary, err error) {
	if c.runs == nil || id == "" {
		return
	}
	status := "completed"
	if err != nil {
		status = "unauthorized"
	} else if s.Failed > 0 {
		status = "partial"
	}
	if ferr := c.runs.FinishRunLog(id, s.CacheHits, s.Computed, s.Failed, status); ferr != nil {
		log.Printf("[catalog] finish run log failed: %v", ferr)
	}
}

// ReportDetails 报告详情，名称按报告规则清理
func (c *Catalog) ReportDetails(ctx context.Context, fileID string) (*model.ReportDetails, error) {
	if fileID == "" {
		return nil, fmt.Errorf("%w: report id is required", ErrInvalidArgument)
	}
	details, err := c.details.Details(ctx, fileID)
	if err != nil {
		return nil, err
	}
	details.Name = ReportName(details.Name)
	return details, nil
}

// Alerts 最新日期的告警汇总（error 在前，其次按名称）
func (c *Catalog) Alerts(ctx context.Context, periodID string) (*model.AlertsOverview, error) {
	reports, err := c.ListReports(ctx, periodID, nil)
	if err != nil {
		return nil, err
	}
	return BuildAlertsOverview(periodID, reports), nil
}

// BuildAlertsOverview 从已分类的报告构建告警汇总
func BuildAlertsOverview(periodID string, reports []model.ReportFile) *model.AlertsOverview {
	overview := &model.AlertsOverview{PeriodID: periodID, Error: []model.ReportFile{}, Alert: []model.ReportFile{}}

	var latest time.Time
	for _, r := range reports {
		if d, err := time.Parse("02/01/2006", r.Date); err == nil && d.After(latest) {
			latest = d
		}
	}
	if latest.IsZero() {
		return overview
	}
	overview.LatestDate = latest.Format("02/01/2006")

	for _, r := range reports {
		if r.Date != overview.LatestDate {
			continue
		}
		switch r.Status {
		case model.StatusError:
			overview.Error = append(overview.Error, r)
		case model.StatusAlert:
			overview.Alert = append(overview.Alert, r)
		}
	}
	byName := func(list []model.ReportFile) {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Name < list[j].Name })
	}
	byName(overview.Error)
	byName(overview.Alert)
	return overview
}

// AllPeriods Search 中表示所有周期的取值
const AllPeriods = "all"

// Search 按 condomínio 名称搜索报告；periodID 为空或 "all" 时搜索全部周期
func (c *Catalog) Search(ctx context.Context, query, periodID string) ([]model.ReportFile, error) {
	var periodIDs []string
	if periodID == "" || periodID == AllPeriods {
		folders, err := c.periodFolders(ctx)
		if err != nil {
			return nil, err
		}
		for _, f := range folders {
			periodIDs = append(periodIDs, f.ID)
		}
	} else {
		periodIDs = []string{periodID}
	}

	needle := strings.ToLower(parser.FoldDiacritics(strings.TrimSpace(query)))
	matches := []model.ReportFile{}
	for _, id := range periodIDs {
		reports, err := c.ListReports(ctx, id, nil)
		if err != nil {
			return nil, err
		}
		for _, r := range reports {
			if needle == "" || strings.Contains(strings.ToLower(parser.FoldDiacritics(r.Name)), needle) {
				matches = append(matches, r)
			}
		}
	}
	return matches, nil
}
