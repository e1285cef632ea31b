package v1

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/Techmetria-Diego/IoT-Monitor/internal/auth"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/exporter"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/model"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/service/batch"
)

// Catalog 报告目录
type Catalog interface {
	ListPeriods(ctx context.Context) ([]model.PeriodFolder, error)
	ListReports(ctx context.Context, periodID string, onProgress func(batch.Progress)) ([]model.ReportFile, error)
	ReportDetails(ctx context.Context, fileID string) (*model.ReportDetails, error)
	Alerts(ctx context.Context, periodID string) (*model.AlertsOverview, error)
	Search(ctx context.Context, query, periodID string) ([]model.ReportFile, error)
}

// Auth 登录流程，服务账号模式下为 nil
type Auth interface {
	AuthCodeURL() string
	Exchange(ctx context.Context, state, code string) error
	Logout() error
	Status() auth.Status
}

// Cache 分类缓存
type Cache interface {
	Invalidate(fileID string)
	InvalidateAll()
	Len() int
}

// RunLogs 批量分类执行记录
type RunLogs interface {
	LastRunLog() (*model.RunLog, error)
}

// Handler V1 API 处理器
type Handler struct {
	catalog Catalog
	auth    Auth
	cache   Cache
	runs    RunLogs
	export  *exporter.Exporter
	// 登录完成后跳转的前端地址
	homeURL string
}

// NewHandler 创建 V1 API 处理器
func NewHandler(catalog Catalog, authFlow Auth, cache Cache, runs RunLogs, homeURL string) *Handler {
	if homeURL == "" {
		homeURL = "/"
	}
	return &Handler{
		catalog: catalog,
		auth:    authFlow,
		cache:   cache,
		runs:    runs,
		export:  exporter.NewExporter(),
		homeURL: homeURL,
	}
}

// RegisterRoutes 注册 V1 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 周期与报告
	router.GET("/periods", h.ListPeriods)
	router.GET("/periods/:id/reports", h.ListReports)
	router.GET("/periods/:id/reports/stream", h.StreamReports)
	router.GET("/periods/:id/alerts", h.GetAlerts)
	router.GET("/reports/:id", h.GetReport)
	router.GET("/search", h.Search)

	// 导出
	router.GET("/periods/:id/alerts/export", h.ExportAlerts)
	router.GET("/reports/:id/export", h.ExportReport)

	// 缓存
	router.POST("/cache/invalidate", h.InvalidateCache)

	// 登录
	router.GET("/auth/login", h.Login)
	router.GET("/auth/callback", h.Callback)
	router.POST("/auth/logout", h.Logout)
}
