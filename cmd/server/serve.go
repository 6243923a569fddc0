package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"rdo-fidel/backend/internal/api/handler"
	"rdo-fidel/backend/internal/api/middleware"
	"rdo-fidel/backend/internal/api/router"
	"rdo-fidel/backend/internal/repository"
	"rdo-fidel/backend/internal/service"
	"rdo-fidel/backend/pkg/database"
	"rdo-fidel/backend/pkg/jwt"
	"rdo-fidel/backend/pkg/redis"
	"rdo-fidel/backend/pkg/weather"
)

var skipMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "启动 HTTP 服务",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "启动时不执行数据库迁移")
}

func runServe(_ *cobra.Command, _ []string) error {
	// 1. 配置与日志
	cfg, logger, err := bootstrap()
	if err != nil {
		return err
	}
	defer logger.Sync()

	logger.Info("应用启动中...",
		zap.Int("port", cfg.Server.Port),
		zap.String("log_level", cfg.Log.Level),
		zap.String("sequence_strategy", cfg.Report.SequenceStrategy),
	)

	// 2. 连接数据库并迁移
	db, err := database.NewDB(&cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("数据库连接失败: %w", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	defer sqlDB.Close()

	if !skipMigrate {
		if err := database.RunMigrations(sqlDB, logger); err != nil {
			return err
		}
	}

	// 3. Redis：草稿存储、限流、令牌黑名单。未启用或连接失败时草稿退回进程内存储。
	var (
		rdb       *redis.Client
		drafts    service.DraftStore
		blacklist middleware.TokenBlacklist
		limiter   middleware.RateLimiter
	)
	if cfg.Redis.Enabled {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，草稿改用内存存储，限流与令牌吊销不可用", zap.Error(err))
			rdb = nil
		}
	}
	if rdb != nil {
		defer rdb.Close()
		drafts = service.NewRedisDraftStore(rdb, cfg.Report.DraftTTL)
		blacklist, limiter = rdb, rdb
	} else {
		drafts = service.NewMemoryDraftStore(cfg.Report.DraftTTL)
	}

	// 4. 天气
	weatherClient := weather.NewClient(weather.Options{
		APIKey:        cfg.Weather.APIKey,
		BaseURL:       cfg.Weather.BaseURL,
		Lang:          cfg.Weather.Lang,
		Timeout:       cfg.Weather.Timeout,
		RatePerSecond: cfg.Weather.RatePerSecond,
		Burst:         cfg.Weather.Burst,
	})
	weatherSvc := service.NewWeatherService(cfg.Weather, service.NewWeatherProvider(weatherClient), logger)

	// 5. 依赖注入: Repository → Service → Handler
	// 服务端不直连读卡器和摄像头，设备采集由终端完成后以序列号或图像提交
	repo := repository.NewRepository(db)
	svc := service.NewService(cfg, repo, drafts, weatherSvc, service.Devices{}, logger)
	h := handler.NewHandler(svc)

	// 6. 路由
	gin.SetMode(gin.ReleaseMode)
	engine := router.Setup(cfg, h, jwt.NewManager(&cfg.Auth), blacklist, limiter, logger)

	// 7. 启动 HTTP 服务器（优雅关闭）
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      engine,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP 服务器已启动", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// 8. 监听系统信号，优雅关闭
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-quit:
		logger.Info("收到关闭信号，开始优雅关闭...", zap.String("signal", sig.String()))
	case err := <-errCh:
		return fmt.Errorf("HTTP 服务器异常: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("服务器关闭异常", zap.Error(err))
	}

	logger.Info("服务器已关闭")
	return nil
}
