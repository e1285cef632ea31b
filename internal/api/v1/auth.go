package v1

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Login 跳转到 Google 登录页
// GET /api/auth/login
func (h *Handler) Login(c *gin.Context) {
	if h.auth == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "service account mode has no interactive login", "kind": "unsupported"})
		return
	}
	c.Redirect(http.StatusFound, h.auth.AuthCodeURL())
}

// Callback OAuth 回调
// GET /api/auth/callback
func (h *Handler) Callback(c *gin.Context) {
	if h.auth == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "service account mode has no interactive login", "kind": "unsupported"})
		return
	}
	if reason := c.Query("error"); reason != "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "authorization denied: " + reason, "kind": "denied"})
		return
	}
	code := c.Query("code")
	if code == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing authorization code", "kind": "invalid_argument"})
		return
	}

	if err := h.auth.Exchange(c.Request.Context(), c.Query("state"), code); err != nil {
		h.fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, h.homeURL)
}

// Logout 退出登录
// POST /api/auth/logout
func (h *Handler) Logout(c *gin.Context) {
	if h.auth == nil {
		c.JSON(http.StatusConflict, gin.H{"error": "service account mode has no interactive login", "kind": "unsupported"})
		return
	}
	if err := h.auth.Logout(); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
