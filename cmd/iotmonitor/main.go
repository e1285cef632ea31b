package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"

	v1 "github.com/Techmetria-Diego/IoT-Monitor/internal/api/v1"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/auth"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/config"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/drive"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/server"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/service/batch"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/service/cache"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/service/catalog"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/service/classifier"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/service/warmer"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/store"
	"github.com/Techmetria-Diego/IoT-Monitor/internal/util"
)

var (
	port    = flag.Int("port", 0, "服务端口 (config.toml 优先；仅当未显式配置 port 时生效)")
	devMode = flag.Bool("dev", false, "开发模式")
	dataDir = flag.String("dataDir", "", "数据目录 (覆盖配置文件)")
)

func main() {
	flag.Parse()

	fmt.Println("==========================================")
	fmt.Println("  IoT Monitor - 水气表读数报告监控")
	fmt.Println("==========================================")

	// 加载配置
	cfg, info, err := config.LoadConfigWithInfo()
	if err != nil {
		log.Printf("加载配置失败，使用默认配置: %v", err)
		cfg = config.DefaultConfig()
		info = config.LoadConfigInfo{}
	}

	// 命令行参数覆盖配置
	if *port > 0 && !info.PortSpecified {
		cfg.Server.Port = *port
	}
	if *devMode {
		cfg.Server.DevMode = true
	}
	if *dataDir != "" {
		cfg.Data.DataDir = *dataDir
	}

	// 确保数据目录存在
	dir, err := config.EnsureDataDir(cfg)
	if err != nil {
		log.Printf("创建数据目录失败: %v", err)
		dir = cfg.Data.DataDir
	} else {
		fmt.Printf("数据目录: %s\n", dir)
	}

	st, err := store.New(filepath.Join(dir, "iotmonitor.db"))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	statusCache := cache.Open(st, cache.Options{
		TTL:        cfg.CacheTTL(),
		MaxEntries: cfg.Cache.MaxEntries,
	})

	// 远端访问：服务账号或交互式 OAuth
	var (
		authFlow    v1.Auth
		driveClient *drive.Client
	)
	if cfg.Drive.CredentialsFile != "" {
		ts, err := serviceAccountTokenSource(ctx, cfg)
		if err != nil {
			log.Fatalf("加载服务账号失败: %v", err)
		}
		driveClient, err = drive.New(ctx, ts, nil)
		if err != nil {
			log.Fatalf("创建 Drive 客户端失败: %v", err)
		}
		fmt.Println("认证方式: 服务账号")
	} else {
		if cfg.OAuth.ClientID == "" {
			log.Printf("未配置 OAuth client_id，登录将不可用")
		}
		manager := auth.NewManager(
			auth.NewOAuthConfig(cfg.OAuth.ClientID, cfg.OAuth.ClientSecret, cfg.OAuth.RedirectURL, cfg.OAuth.Scopes),
			st,
		)
		driveClient, err = drive.New(ctx, manager, manager)
		if err != nil {
			log.Fatalf("创建 Drive 客户端失败: %v", err)
		}
		authFlow = manager
		fmt.Println("认证方式: OAuth")
	}

	// 分类链路
	pipeline := classifier.NewPipeline(driveClient)
	orchestrator := batch.NewOrchestrator(pipeline, statusCache, cfg.Batch.Size)
	cat := catalog.New(driveClient, orchestrator, pipeline, st, catalog.Options{
		RootFolderID:     cfg.Drive.RootFolderID,
		ExcludeSubstring: cfg.Drive.ExcludeSubstring,
	})

	go warmer.New(cat, cfg.RefreshInterval()).Run(ctx)

	// 构建地址
	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	url := fmt.Sprintf("http://localhost:%d", cfg.Server.Port)

	handler := v1.NewHandler(cat, authFlow, statusCache, st, url+"/")
	srv := server.NewServer(handler, server.Options{
		DevMode:   cfg.Server.DevMode,
		StaticDir: config.ResolveStaticDir(cfg),
	})
	httpServer := &http.Server{Addr: addr, Handler: srv.Handler()}

	// 启动服务器
	go func() {
		fmt.Printf("服务启动中，监听端口 %d ...\n", cfg.Server.Port)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("服务启动失败: %v", err)
		}
	}()

	// 打开浏览器
	if !cfg.Server.DevMode && cfg.Server.OpenBrowser {
		fmt.Printf("正在打开浏览器: %s\n", url)
		if err := util.OpenBrowserWithFallback(url); err != nil {
			fmt.Printf("无法自动打开浏览器，请手动访问: %s\n", url)
		}
	} else {
		fmt.Printf("请访问 %s\n", url)
	}

	fmt.Println("\n按 Ctrl+C 停止服务...")

	// 等待信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\n正在关闭服务...")
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), 10*time.Second)
	defer done()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Printf("关闭 HTTP 服务失败: %v", err)
	}
	if err := statusCache.Close(); err != nil {
		log.Printf("退出前保存缓存失败: %v", err)
	}
	if err := st.Close(); err != nil {
		log.Printf("关闭数据库失败: %v", err)
	}
}

// serviceAccountTokenSource 从服务账号 JSON 创建令牌源
func serviceAccountTokenSource(ctx context.Context, cfg *config.AppConfig) (oauth2.TokenSource, error) {
	data, err := os.ReadFile(cfg.Drive.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read credentials file: %w", err)
	}
	scopes := cfg.OAuth.Scopes
	if len(scopes) == 0 {
		scopes = auth.DefaultScopes
	}
	creds, err := google.CredentialsFromJSON(ctx, data, scopes...)
	if err != nil {
		return nil, fmt.Errorf("parse credentials: %w", err)
	}
	return creds.TokenSource, nil
}
