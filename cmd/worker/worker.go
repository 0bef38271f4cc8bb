package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"erp-helpdesk-assistant/internal/config"
	"erp-helpdesk-assistant/internal/engine"
	"erp-helpdesk-assistant/internal/logger"
	"erp-helpdesk-assistant/internal/queue"
	"erp-helpdesk-assistant/internal/scheduler"
	"erp-helpdesk-assistant/internal/telemetry"

	"github.com/hibiken/asynq"
)

// reindexLockTTL outlives the task timeout so the lock cannot expire under
// a healthy run.
const reindexLockTTL = 45 * time.Minute

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}
	logger.InitLogger(cfg)

	metrics, err := telemetry.InitMetrics()
	if err != nil {
		logger.Warn("Metrics disabled", "error", err)
	}

	redisOpt, err := queue.RedisConnOpt(cfg)
	if err != nil {
		log.Fatal("Worker needs Redis:", err)
	}
	rdb, err := config.NewRedisClient(cfg)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer rdb.Close()

	eng, err := engine.New(context.Background(), cfg, metrics)
	if err != nil {
		log.Fatal("Failed to initialize engine:", err)
	}
	defer eng.Close()

	// ingestion is sequential; more than one worker slot would only queue
	// behind the lock
	server := asynq.NewServer(
		redisOpt,
		asynq.Config{
			Concurrency: 1,
			Queues: map[string]int{
				"default": 1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				retried, _ := asynq.GetRetryCount(ctx)
				maxRetry, _ := asynq.GetMaxRetry(ctx)
				logger.Error("Task failed", "type", task.Type(), "retry", retried, "max_retry", maxRetry, "error", err)
			}),
		},
	)

	processor := queue.NewTaskProcessor(eng, queue.NewRedisLocker(rdb, reindexLockTTL))

	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TaskReindex, processor.ProcessReindex)

	var sched *scheduler.Scheduler
	if cfg.ReindexCron != "" {
		enqueuer := queue.NewEnqueuer(redisOpt)
		defer enqueuer.Close()

		sched = scheduler.NewScheduler()
		err := sched.ScheduleJob("reindex", cfg.ReindexCron, func() error {
			_, err := enqueuer.EnqueueReindex(context.Background(), "schedule", "")
			return err
		})
		if err != nil {
			log.Fatal("Invalid REINDEX_CRON:", err)
		}
		sched.Start()
		defer sched.Stop()
		logger.Info("Scheduled reindex", "cron", cfg.ReindexCron, "jobs", sched.Tags())
	}

	logger.Info("Starting Asynq worker", "queue", "default", "concurrency", 1)

	if err := server.Start(mux); err != nil {
		log.Fatal("Failed to start worker:", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down worker...")
	server.Shutdown()
}
