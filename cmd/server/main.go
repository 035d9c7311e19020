package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go-pusher-gateway/internal/api"
	"go-pusher-gateway/internal/channels"
	"go-pusher-gateway/internal/pusher"
	"go-pusher-gateway/internal/service"
	internalws "go-pusher-gateway/internal/websocket"
	"go-pusher-gateway/pkg/config"
	"go-pusher-gateway/pkg/db"
	"go-pusher-gateway/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", "", "path to config file (defaults to config/config.yaml)")
	flag.Parse()

	// 初始化配置
	var err error
	if *configPath != "" {
		err = config.InitFile(*configPath)
	} else {
		err = config.Init()
	}
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg := config.GlobalConfig

	// 初始化日志
	if err := logger.InitLogger(cfg.Log.Level, cfg.Log.Production); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	gin.SetMode(cfg.Server.Mode)

	// 仅在使用数据库提供 App 时连接数据库
	if cfg.Apps.Provider == config.AppProviderDatabase {
		if err := db.InitDB(cfg.Database.DSN); err != nil {
			logger.L.Fatal("Failed to initialize database", zap.Error(err))
		}
	}

	apps, err := service.NewAppServiceFromConfig(cfg.Apps)
	if err != nil {
		logger.L.Fatal("Failed to create app service", zap.Error(err))
	}
	if all, err := apps.All(); err != nil {
		logger.L.Fatal("Failed to load applications", zap.Error(err))
	} else {
		logger.L.Info("Applications loaded", zap.String("provider", cfg.Apps.Provider), zap.Int("count", len(all)))
	}

	// 组装协议层
	manager := channels.NewManager()
	server := pusher.NewServer(
		manager,
		pusher.NewEventHandler(manager, time.Duration(cfg.WebSocket.ActivityTimeoutSeconds)*time.Second),
		pusher.NewClientEventHandler(manager),
	)
	hub := internalws.NewHub()

	router := api.NewRouter(
		api.NewWSHandler(apps, hub, server, cfg.WebSocket),
		api.NewHealthHandler(hub),
		api.NewAppHandler(apps, hub, manager),
	)

	// 定期断开长时间没有活动的连接
	pruneCtx, stopPruner := context.WithCancel(context.Background())
	defer stopPruner()
	activityTimeout := time.Duration(cfg.WebSocket.ActivityTimeoutSeconds) * time.Second
	go hub.RunPruner(pruneCtx, activityTimeout, activityTimeout+cfg.WebSocket.PongWait())

	httpServer := &http.Server{
		Addr:    cfg.Server.Address,
		Handler: router,
	}

	// 启动服务器
	go func() {
		logger.L.Info("Starting server", zap.String("address", cfg.Server.Address))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.L.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.L.Info("Received shutdown signal", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout())
	defer cancel()

	// 被劫持的 websocket 连接不受 Shutdown 管理，需要单独断开
	stopPruner()
	hub.CloseAll()
	if err := httpServer.Shutdown(ctx); err != nil {
		logger.L.Error("Server shutdown error", zap.Error(err))
	}
	logger.L.Info("Server stopped")
}
