package routes

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"erp-helpdesk-assistant/internal/config"
	"erp-helpdesk-assistant/internal/ingest"
	"erp-helpdesk-assistant/internal/logger"
	"erp-helpdesk-assistant/middleware"
	"erp-helpdesk-assistant/models"
	"erp-helpdesk-assistant/utils"

	"github.com/gin-gonic/gin"
)

const inProcessReindexTimeout = 30 * time.Minute

// IndexAdmin is what the admin routes need from the engine.
type IndexAdmin interface {
	Count(ctx context.Context) (int, error)
	Reindex(ctx context.Context) (*ingest.Result, error)
}

// ReindexEnqueuer hands reindex runs to the background worker.
type ReindexEnqueuer interface {
	EnqueueReindex(ctx context.Context, reason, requestID string) (string, error)
}

// SetupAdminRoutes registers /admin. With a nil enqueuer reindexing runs
// inside this process, one run at a time.
func SetupAdminRoutes(router *gin.Engine, cfg *config.Config, admin IndexAdmin, enqueuer ReindexEnqueuer) {
	group := router.Group("/admin")
	group.GET("/index/stats", handleIndexStats(cfg, admin))

	if enqueuer != nil {
		group.POST("/reindex", handleEnqueueReindex(enqueuer))
	} else {
		group.POST("/reindex", handleLocalReindex(admin))
	}
}

func handleIndexStats(cfg *config.Config, admin IndexAdmin) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := utils.WithTimeout(c.Request.Context())
		defer cancel()

		n, err := admin.Count(ctx)
		if err != nil {
			logger.Error("Reading index stats failed", "request_id", middleware.GetRequestID(c), "error", err)
			utils.RespondWithServiceUnavailable(c, "store_unavailable", "The document index is unavailable.")
			return
		}

		c.JSON(http.StatusOK, models.IndexStats{
			Documents:  n,
			Store:      cfg.VectorStore,
			Collection: cfg.VectorCollection,
			CheckedAt:  time.Now().UTC(),
		})
	}
}

func handleEnqueueReindex(enqueuer ReindexEnqueuer) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := middleware.GetRequestID(c)
		taskID, err := enqueuer.EnqueueReindex(c.Request.Context(), "admin", requestID)
		if err != nil {
			logger.Error("Enqueue reindex failed", "request_id", requestID, "error", err)
			utils.RespondWithServiceUnavailable(c, "queue_unavailable", "Reindexing could not be scheduled.")
			return
		}

		status := "queued"
		if taskID == "" {
			status = "already_queued"
		}
		c.JSON(http.StatusAccepted, models.ReindexResponse{Status: status, TaskID: taskID})
	}
}

func handleLocalReindex(admin IndexAdmin) gin.HandlerFunc {
	var running sync.Mutex

	return func(c *gin.Context) {
		if !running.TryLock() {
			utils.RespondWithConflict(c, "reindex_running", "A reindex is already running.")
			return
		}

		requestID := middleware.GetRequestID(c)
		go func() {
			defer running.Unlock()

			ctx, cancel := context.WithTimeout(context.Background(), inProcessReindexTimeout)
			defer cancel()

			res, err := admin.Reindex(ctx)
			var fatal *ingest.FatalDiscoveryError
			switch {
			case errors.As(err, &fatal):
				logger.Error("Reindex failed: no modules discovered", "request_id", requestID, "error", err)
			case err != nil:
				logger.Error("Reindex failed", "request_id", requestID, "error", err)
			default:
				logger.Info("Reindex completed", "request_id", requestID, "run_id", res.RunID, "indexed", res.Indexed)
			}
		}()

		c.JSON(http.StatusAccepted, models.ReindexResponse{Status: "started"})
	}
}
