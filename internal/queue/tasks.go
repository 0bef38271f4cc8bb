package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"erp-helpdesk-assistant/internal/config"
	"erp-helpdesk-assistant/internal/ingest"
	"erp-helpdesk-assistant/internal/logger"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
)

const (
	TaskReindex = "reindex:run"

	reindexQueue   = "default"
	reindexTimeout = 30 * time.Minute
	lockKey        = "erp-helpdesk:reindex:lock"
)

// ErrLocked means another reindex run holds the lock.
var ErrLocked = errors.New("reindex already running")

type ReindexPayload struct {
	Reason    string    `json:"reason"`
	RequestID string    `json:"request_id,omitempty"`
	QueuedAt  time.Time `json:"queued_at"`
}

// NewReindexTask builds a reindex task. Unique keeps at most one pending
// reindex in the queue at a time.
func NewReindexTask(reason, requestID string) (*asynq.Task, error) {
	payload, err := json.Marshal(ReindexPayload{
		Reason:    reason,
		RequestID: requestID,
		QueuedAt:  time.Now().UTC(),
	})
	if err != nil {
		return nil, err
	}

	return asynq.NewTask(
		TaskReindex,
		payload,
		asynq.MaxRetry(3),
		asynq.Timeout(reindexTimeout),
		asynq.Queue(reindexQueue),
		asynq.Unique(reindexTimeout),
	), nil
}

// Reindexer runs one ingestion pass.
type Reindexer interface {
	Reindex(ctx context.Context) (*ingest.Result, error)
}

// Locker guards against two ingestion runs writing at once.
type Locker interface {
	Acquire(ctx context.Context) (release func(), err error)
}

// RedisLocker is a SET NX lock with a TTL; the holder's token is checked
// before deletion so an expired holder cannot release a newer lock.
type RedisLocker struct {
	rdb *redis.Client
	key string
	ttl time.Duration
}

func NewRedisLocker(rdb *redis.Client, ttl time.Duration) *RedisLocker {
	return &RedisLocker{rdb: rdb, key: lockKey, ttl: ttl}
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

func (l *RedisLocker) Acquire(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	ok, err := l.rdb.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquiring reindex lock: %w", err)
	}
	if !ok {
		return nil, ErrLocked
	}
	return func() {
		if err := releaseScript.Run(context.Background(), l.rdb, []string{l.key}, token).Err(); err != nil {
			logger.Warn("Failed to release reindex lock", "error", err)
		}
	}, nil
}

// TaskProcessor handles reindex tasks.
type TaskProcessor struct {
	reindexer Reindexer
	locker    Locker
}

func NewTaskProcessor(reindexer Reindexer, locker Locker) *TaskProcessor {
	return &TaskProcessor{reindexer: reindexer, locker: locker}
}

func (p *TaskProcessor) ProcessReindex(ctx context.Context, t *asynq.Task) error {
	var payload ReindexPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal failed: %v: %w", err, asynq.SkipRetry)
	}

	release, err := p.locker.Acquire(ctx)
	if errors.Is(err, ErrLocked) {
		logger.Info("Reindex already running, dropping task", "reason", payload.Reason, "request_id", payload.RequestID)
		return nil
	}
	if err != nil {
		return err
	}
	defer release()

	logger.Info("Processing reindex task", "reason", payload.Reason, "request_id", payload.RequestID)

	res, err := p.reindexer.Reindex(ctx)
	if errors.Is(err, ingest.ErrNothingToIndex) {
		// retrying cannot produce chunks the source does not have
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}
	if err != nil {
		return err
	}

	logger.Info("Reindex task completed",
		"run_id", res.RunID,
		"indexed", res.Indexed,
		"skipped_modules", len(res.SkippedModules))
	return nil
}

// Enqueuer submits reindex tasks.
type Enqueuer struct {
	client *asynq.Client
}

func NewEnqueuer(opt asynq.RedisConnOpt) *Enqueuer {
	return &Enqueuer{client: asynq.NewClient(opt)}
}

// EnqueueReindex queues a reindex. A reindex already waiting in the queue
// is reported as ErrDuplicateTask by asynq and treated as success.
func (e *Enqueuer) EnqueueReindex(ctx context.Context, reason, requestID string) (string, error) {
	task, err := NewReindexTask(reason, requestID)
	if err != nil {
		return "", err
	}
	info, err := e.client.EnqueueContext(ctx, task)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("enqueue reindex: %w", err)
	}
	return info.ID, nil
}

func (e *Enqueuer) Close() error {
	return e.client.Close()
}

// RedisConnOpt maps the configured Redis connection onto asynq's options.
func RedisConnOpt(cfg *config.Config) (asynq.RedisClientOpt, error) {
	if cfg.RedisURL == "" {
		return asynq.RedisClientOpt{}, fmt.Errorf("REDIS_URL is not set")
	}
	opt, err := config.RedisOptions(cfg)
	if err != nil {
		return asynq.RedisClientOpt{}, err
	}
	return asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}, nil
}
