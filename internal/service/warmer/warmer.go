package warmer

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/Techmetria-Diego/IoT-Monitor/internal/auth"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/drive"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/model"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/service/batch"
)

// Catalog 预热所需的目录能力
type Catalog interface {
	ListPeriods(ctx context.Context) ([]model.PeriodFolder, error)
	ListReports(ctx context.Context, periodID string, onProgress func(batch.Progress)) ([]model.ReportFile, error)
}

// Warmer 定时重新分类最新周期，保持缓存新鲜
type Warmer struct {
	catalog  Catalog
	interval time.Duration
}

// New 创建预热任务；interval <= 0 时 Run 立即返回
func New(catalog Catalog, interval time.Duration) *Warmer {
	return &Warmer{catalog: catalog, interval: interval}
}

// Run 阻塞运行直到 ctx 取消
func (w *Warmer) Run(ctx context.Context) {
	if w.interval <= 0 {
		return
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.WarmOnce(ctx); err != nil {
				log.Printf("[warmer] refresh failed: %v", err)
			}
		}
	}
}

// WarmOnce 对最新周期执行一次缓存优先的分类；未登录时跳过
func (w *Warmer) WarmOnce(ctx context.Context) error {
	periods, err := w.catalog.ListPeriods(ctx)
	if err != nil {
		if isUnauthenticated(err) {
			log.Printf("[warmer] not signed in, skipping refresh")
			return nil
		}
		return err
	}
	if len(periods) == 0 {
		return nil
	}

	latest := periods[0]
	reports, err := w.catalog.ListReports(ctx, latest.ID, nil)
	if err != nil {
		if isUnauthenticated(err) {
			log.Printf("[warmer] not signed in, skipping refresh")
			return nil
		}
		return err
	}
	log.Printf("[warmer] refreshed %q: %d reports", latest.Name, len(reports))
	return nil
}

func isUnauthenticated(err error) bool {
	return errors.Is(err, drive.ErrUnauthorized) || errors.Is(err, auth.ErrNotAuthenticated)
}
