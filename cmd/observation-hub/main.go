package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"observation-hub/internal/config"
	"observation-hub/internal/consumer"
	"observation-hub/internal/httpapi"
	"observation-hub/internal/logging"
	"observation-hub/internal/repository"
	"observation-hub/internal/service"
)

func main() {
	// 1. 加载配置
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. 初始化日志
	logger, err := logging.New(cfg)
	if err != nil {
		panic(fmt.Sprintf("Failed to init logger: %v", err))
	}
	defer logger.Sync()

	// 3. 连接 PostgreSQL
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Database.Host, cfg.Database.Port, cfg.Database.User,
		cfg.Database.Password, cfg.Database.Database, cfg.Database.SSLMode)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		logger.Fatal("Failed to open database",
			zap.Error(err),
		)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal("Failed to ping database",
			zap.String("host", cfg.Database.Host),
			zap.Error(err),
		)
	}

	// 4. 连接 Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(context.Background()).Err(); err != nil {
		logger.Fatal("Failed to ping redis",
			zap.String("addr", cfg.Redis.Addr),
			zap.Error(err),
		)
	}

	// 5. 组装服务
	alertRepo := repository.NewAlertsRepository(db, logger)
	feed := consumer.NewFeedConsumer(cfg, redisClient, logger)

	var agent *service.AgentClient
	if cfg.Agent.BaseURL != "" {
		agent = service.NewAgentClient(cfg.Agent.BaseURL, logger)
	}

	alertService := service.NewAlertService(cfg, alertRepo, feed, agent, logger)
	defer alertService.Stop()

	// 6. HTTP API
	router := httpapi.NewRouter(logger)
	router.RegisterHealthRoute()
	router.RegisterAlertRoutes(httpapi.NewAlertHandler(alertService, alertRepo, logger))

	httpServer := &http.Server{
		Addr:    cfg.HTTP.ListenAddr,
		Handler: router,
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 7. 启动消费循环与 HTTP 服务
	errChan := make(chan error, 2)
	go func() {
		if err := alertService.Start(ctx); err != nil {
			errChan <- fmt.Errorf("alert service: %w", err)
		}
	}()
	go func() {
		logger.Info("HTTP server listening",
			zap.String("addr", cfg.HTTP.ListenAddr),
		)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- fmt.Errorf("http server: %w", err)
		}
	}()

	// 8. 等待信号（优雅关闭）
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Received signal, shutting down",
			zap.String("signal", sig.String()),
		)
	case err := <-errChan:
		logger.Error("Service error, shutting down",
			zap.Error(err),
		)
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown failed",
			zap.Error(err),
		)
	}

	logger.Info("Observation hub stopped")
}
