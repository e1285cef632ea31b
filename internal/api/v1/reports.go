package v1

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/Techmetria-Diego/IoT-Monitor/internal/service/batch"
)

// ListPeriods 周期列表
// GET /api/periods
func (h *Handler) ListPeriods(c *gin.Context) {
	periods, err := h.catalog.ListPeriods(c.Request.Context())
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"periods": periods})
}

// ListReports 某周期的报告及分类
// GET /api/periods/:id/reports
func (h *Handler) ListReports(c *gin.Context) {
	reports, err := h.catalog.ListReports(c.Request.Context(), c.Param("id"), nil)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// streamEvent SSE 事件
type streamEvent struct {
	Type     string          `json:"type"`
	Progress *batch.Progress `json:"progress,omitempty"`
	Reports  interface{}     `json:"reports,omitempty"`
	Error    string          `json:"error,omitempty"`
	Kind     string          `json:"kind,omitempty"`
}

// StreamReports 分类报告并以 SSE 推送进度
// GET /api/periods/:id/reports/stream
func (h *Handler) StreamReports(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "streaming unsupported", "kind": "internal"})
		return
	}

	// 设置 SSE 响应头
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	send := func(ev streamEvent) {
		data, err := json.Marshal(ev)
		if err != nil {
			return
		}
		// SSE 格式: data: {json}\n\n
		fmt.Fprintf(c.Writer, "data: %s\n\n", data)
		flusher.Flush()
	}

	// 进度回调已在编排器内串行化
	reports, err := h.catalog.ListReports(c.Request.Context(), c.Param("id"), func(p batch.Progress) {
		send(streamEvent{Type: "progress", Progress: &p})
	})
	if err != nil {
		_, kind := errorKind(err)
		send(streamEvent{Type: "error", Error: err.Error(), Kind: kind})
		return
	}
	send(streamEvent{Type: "done", Reports: reports})
}

// GetAlerts 周期告警汇总
// GET /api/periods/:id/alerts
func (h *Handler) GetAlerts(c *gin.Context) {
	overview, err := h.catalog.Alerts(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, overview)
}

// GetReport 单报告详情
// GET /api/reports/:id
func (h *Handler) GetReport(c *gin.Context) {
	details, err := h.catalog.ReportDetails(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

// Search 按公寓名搜索
// GET /api/search?q=&period=
func (h *Handler) Search(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	results, err := h.catalog.Search(c.Request.Context(), query, c.Query("period"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"query": query, "results": results})
}

// invalidateRequest 缓存失效请求，FileIDs 为空时清空全部
type invalidateRequest struct {
	FileIDs []string `json:"fileIds"`
}

// InvalidateCache 使缓存失效
// POST /api/cache/invalidate
func (h *Handler) InvalidateCache(c *gin.Context) {
	var req invalidateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "kind": "invalid_argument"})
			return
		}
	}

	if len(req.FileIDs) == 0 {
		h.cache.InvalidateAll()
		c.JSON(http.StatusOK, gin.H{"invalidated": "all"})
		return
	}
	for _, id := range req.FileIDs {
		h.cache.Invalidate(id)
	}
	c.JSON(http.StatusOK, gin.H{"invalidated": len(req.FileIDs)})
}
