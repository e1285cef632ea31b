package batch

import (
	"context"
	"errors"
	"log"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/Techmetria-Diego/IoT-Monitor/internal/drive"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/model"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/parser"
)

// DefaultBatchSize 每批并发处理的文件数
const DefaultBatchSize = 5

// Classifier 单文件分类
type Classifier interface {
	Classify(ctx context.Context, fileID string) (model.ReportClassification, error)
}

// Cache 分类结果缓存
type Cache interface {
	Get(fileID, modifiedTime string) (model.ReportClassification, bool)
	Put(fileID string, cls model.ReportClassification, modifiedTime string)
}

// Item 待分类文件
type Item struct {
	FileID       string
	DisplayName  string
	ModifiedTime string
}

// Progress 进度事件
type Progress struct {
	Completed      int                        `json:"completed"`
	Total          int                        `json:"total"`
	FileID         string                     `json:"fileId"`
	DisplayName    string                     `json:"displayName"`
	CacheHit       bool                       `json:"cacheHit"`
	Failed         bool                       `json:"failed"`
	Batch          int                        `json:"batch"`
	Classification model.ReportClassification `json:"classification"`
}

// Summary 一次执行的统计
type Summary struct {
	Total     int
	CacheHits int
	Computed  int
	Failed    int
}

// Orchestrator 缓存优先、分批并发的分类调度
type Orchestrator struct {
	classifier Classifier
	cache      Cache
	batchSize  int
}

// NewOrchestrator 创建调度器
func NewOrchestrator(classifier Classifier, cache Cache, batchSize int) *Orchestrator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Orchestrator{classifier: classifier, cache: cache, batchSize: batchSize}
}

// ClassifyAll 返回每个文件的分类；单个文件失败降级为 normal。
// 任一文件遇到未授权错误时，结果仍然完整，同时返回该错误。
func (o *Orchestrator) ClassifyAll(ctx context.Context, items []Item, onProgress func(Progress)) (map[string]model.ReportClassification, Summary, error) {
	results := make(map[string]model.ReportClassification, len(items))
	summary := Summary{Total: len(items)}

	var (
		mu      sync.Mutex
		authErr error
	)
	completed := 0
	report := func(p Progress) {
		completed++
		p.Completed = completed
		p.Total = len(items)
		if onProgress != nil {
			onProgress(p)
		}
	}

	var misses []Item
	for _, it := range items {
		if cls, ok := o.cache.Get(it.FileID, it.ModifiedTime); ok {
			results[it.FileID] = cls
			summary.CacheHits++
			report(Progress{FileID: it.FileID, DisplayName: it.DisplayName, CacheHit: true, Classification: cls})
			continue
		}
		misses = append(misses, it)
	}

	batchNo := 0
	for start := 0; start < len(misses); start += o.batchSize {
		end := start + o.batchSize
		if end > len(misses) {
			end = len(misses)
		}
		batchNo++
		current := batchNo

		var g errgroup.Group
		for _, it := range misses[start:end] {
			g.Go(func() error {
				cls, err := o.classifier.Classify(ctx, it.FileID)
				failed := err != nil
				if failed {
					log.Printf("[batch] classify %s (%s) failed, defaulting to normal: %v", it.FileID, it.DisplayName, err)
					cls = model.DefaultClassification()
				}
				if !failed || parser.IsFormatError(err) {
					o.cache.Put(it.FileID, cls, it.ModifiedTime)
				}

				mu.Lock()
				defer mu.Unlock()
				results[it.FileID] = cls
				if failed {
					summary.Failed++
				} else {
					summary.Computed++
				}
				report(Progress{FileID: it.FileID, DisplayName: it.DisplayName, Batch: current, Failed: failed, Classification: cls})
				// 其余文件照常完成，只有未授权错误会终止后续批次
				if errors.Is(err, drive.ErrUnauthorized) {
					return err
				}
				return nil
			})
		}
		// 不使用 errgroup.WithContext：同批其他文件不因未授权而被取消
		if err := g.Wait(); err != nil {
			authErr = err
		}
		log.Printf("[batch] batch %d done (%d files)", current, end-start)

		if authErr != nil {
			// 未授权时不再发起后续批次
			for _, it := range misses[end:] {
				results[it.FileID] = model.DefaultClassification()
				summary.Failed++
				report(Progress{FileID: it.FileID, DisplayName: it.DisplayName, Batch: current, Failed: true, Classification: model.DefaultClassification()})
			}
			break
		}
	}

	return results, summary, authErr
}
