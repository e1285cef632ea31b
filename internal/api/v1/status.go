package v1

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Techmetria-Diego/IoT-Monitor/internal/auth"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/model"
)

// StatusResponse 系统状态响应
type StatusResponse struct {
	Auth         auth.Status   `json:"auth"`
	AuthMode     string        `json:"authMode"`
	CacheEntries int           `json:"cacheEntries"`
	LastRun      *model.RunLog `json:"lastRun"`
}

// GetStatus 获取系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	resp := StatusResponse{AuthMode: "service_account"}
	if h.auth != nil {
		resp.AuthMode = "oauth"
		resp.Auth = h.auth.Status()
	} else {
		resp.Auth = auth.Status{Authenticated: true}
	}
	if h.cache != nil {
		resp.CacheEntries = h.cache.Len()
	}
	if h.runs != nil {
		last, err := h.runs.LastRunLog()
		if err != nil {
			log.Printf("[api] 读取执行记录失败: %v", err)
		}
		resp.LastRun = last
	}

	c.JSON(http.StatusOK, resp)
}
