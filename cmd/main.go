package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"erp-helpdesk-assistant/internal/config"
	"erp-helpdesk-assistant/internal/engine"
	"erp-helpdesk-assistant/internal/logger"
	"erp-helpdesk-assistant/internal/queue"
	"erp-helpdesk-assistant/internal/telemetry"
	"erp-helpdesk-assistant/middleware"
	"erp-helpdesk-assistant/routes"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	logger.InitLogger(cfg)

	if cfg.OTELEnabled {
		shutdown, err := telemetry.InitTracer("erp-helpdesk-assistant", cfg.OTELEndpoint, cfg.OTELSampleRatio)
		if err != nil {
			logger.Warn("Tracing disabled", "error", err)
		} else {
			defer shutdown()
		}
	}

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("Metrics disabled", "error", err)
	}

	eng, err := engine.New(context.Background(), cfg, metrics)
	if err != nil {
		log.Fatal("Failed to initialize engine:", err)
	}
	defer eng.Close()

	if cfg.GinMode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.CORSMiddlewareWithOrigins(cfg.CORSOrigins))
	if cfg.OTELEnabled {
		router.Use(middleware.TracingMiddleware())
		router.Use(middleware.EnrichTrace())
	}
	router.Use(middleware.MetricsMiddleware(metrics))

	// Redis is optional: without it there is no rate limiting and reindexing
	// runs in-process
	var enqueuer routes.ReindexEnqueuer
	if cfg.RedisURL != "" {
		rdb, err := config.NewRedisClient(cfg)
		if err != nil {
			logger.Warn("Redis unavailable, rate limiting disabled", "error", err)
		} else {
			defer rdb.Close()
			router.Use(middleware.RateLimitMiddleware(rdb, cfg))

			opt, err := queue.RedisConnOpt(cfg)
			if err == nil {
				q := queue.NewEnqueuer(opt)
				defer q.Close()
				enqueuer = q
			}
		}
	}

	routes.SetupHealthRoutes(router)
	routes.SetupChatRoutes(router, eng)
	if cfg.EnableAdminRoutes {
		routes.SetupAdminRoutes(router, cfg, eng, enqueuer)
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port, "llm", cfg.LLMProvider, "store", cfg.VectorStore)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	// generation can be slow, give in-flight answers time to finish
	ctx, cancel := context.WithTimeout(context.Background(), cfg.GenerationTimeout+5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	logger.Info("Server exited")
}
