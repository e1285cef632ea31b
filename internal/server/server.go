package server

import (
	"log"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	v1 "github.com/Techmetria-Diego/IoT-Monitor/internal/api/v1"
)

// devFrontend 开发模式下的前端开发服务器
const devFrontend = "http://localhost:5173"

// Options 服务器参数
type Options struct {
	DevMode bool
	// StaticDir 前端构建产物目录，为空或不存在时只提供 API
	StaticDir string
}

// Server HTTP服务器
type Server struct {
	router *gin.Engine
	v1     *v1.Handler
}

// NewServer 创建服务器
func NewServer(handler *v1.Handler, opts Options) *Server {
	if !opts.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		router: gin.Default(),
		v1:     handler,
	}
	s.setupRoutes(opts)
	return s
}

// setupRoutes 设置路由
func (s *Server) setupRoutes(opts Options) {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	// V1 API 路由
	api := s.router.Group("/api")
	{
		s.v1.RegisterRoutes(api)
	}

	// 静态资源
	if opts.DevMode {
		// 开发模式：代理到前端开发服务器
		s.router.NoRoute(func(c *gin.Context) {
			if isAPIPath(c.Request.URL.Path) {
				c.JSON(http.StatusNotFound, gin.H{"error": "route not found", "kind": "not_found"})
				return
			}
			c.Redirect(http.StatusTemporaryRedirect, devFrontend+c.Request.URL.Path)
		})
		return
	}

	index := filepath.Join(opts.StaticDir, "index.html")
	if opts.StaticDir == "" || !fileExists(index) {
		if opts.StaticDir != "" {
			log.Printf("[server] 前端目录不可用 (%s)，仅提供 API", opts.StaticDir)
		}
		s.router.NoRoute(func(c *gin.Context) {
			c.JSON(http.StatusNotFound, gin.H{"error": "route not found", "kind": "not_found"})
		})
		return
	}

	// 静态资源 - assets 目录
	s.router.Static("/assets", filepath.Join(opts.StaticDir, "assets"))

	// 首页
	s.router.GET("/", func(c *gin.Context) {
		c.File(index)
	})

	// SPA 路由 fallback
	s.router.NoRoute(func(c *gin.Context) {
		if isAPIPath(c.Request.URL.Path) {
			c.JSON(http.StatusNotFound, gin.H{"error": "route not found", "kind": "not_found"})
			return
		}
		// 根目录下的文件（favicon 等）直接返回
		name := filepath.Join(opts.StaticDir, filepath.Clean("/"+c.Request.URL.Path))
		if c.Request.URL.Path != "/" && fileExists(name) {
			c.File(name)
			return
		}
		c.File(index)
	})
}

func isAPIPath(path string) bool {
	return path == "/api" || strings.HasPrefix(path, "/api/")
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Handler 返回 http.Handler（用于 http.Server 与测试）
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run 启动服务器
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}
