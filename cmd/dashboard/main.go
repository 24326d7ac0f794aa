package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Wuchinator/intent-scoring/internal/config"
	"github.com/Wuchinator/intent-scoring/internal/dashboard"
	"github.com/Wuchinator/intent-scoring/pkg/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	log, err := logger.NewLogger(cfg.LogLevel, cfg.Environment)
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer log.Sync()

	log = logger.WithComponent(log, "dashboard")
	log.Info("Starting dashboard",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Dashboard.Port),
		zap.String("scores_file", cfg.Data.UserScoresFile),
	)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	service := dashboard.NewService(
		cfg.Data.UserScoresFile,
		cfg.Dashboard.TopN,
		cfg.Dashboard.CacheTTL,
		log,
	)
	handler := dashboard.NewHandler(service, log)

	router := gin.New()
	router.Use(gin.Recovery())
	handler.RegisterRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Dashboard.Port,
		Handler: router,
	}

	go func() {
		log.Info("HTTP server starting", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to serve HTTP", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Warn("Shutdown timeout, forcing stop", zap.Error(err))
	}

	log.Info("Dashboard stopped")
}
