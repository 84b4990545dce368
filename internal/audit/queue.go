package audit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"

	"github.com/harentsoaR/dentaheal/internal/models"
)

const (
	TaskTypeWrite = "audit:write"
	queueName     = "audit"
)

// Enqueuer is the subset of *asynq.Client used by QueueStore.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueStore is a Store that hands entries to asynq instead of writing them.
// Plug it under a Writer so that the enqueue round trip to Redis also stays
// off the request path.
type QueueStore struct {
	client Enqueuer
}

func NewQueueStore(client Enqueuer) *QueueStore {
	return &QueueStore{client: client}
}

func (q *QueueStore) Insert(ctx context.Context, entry *models.AuditEntry) error {
	if entry == nil {
		return errors.New("audit: entry is nil")
	}
	body, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("audit: encode entry: %w", err)
	}
	task := asynq.NewTask(TaskTypeWrite, body, asynq.Queue(queueName), asynq.MaxRetry(0))
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("audit: enqueue: %w", err)
	}
	return nil
}

// Worker consumes queued audit entries and persists them.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	store  Store
	log    zerolog.Logger
}

func NewWorker(redisOpt asynq.RedisConnOpt, store Store, log zerolog.Logger) *Worker {
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: 2,
		Queues:      map[string]int{queueName: 1},
	})
	w := &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
		store:  store,
		log:    log.With().Str("component", "audit-worker").Logger(),
	}
	w.mux.HandleFunc(TaskTypeWrite, w.HandleWrite)
	return w
}

// Start runs the asynq server in the background.
func (w *Worker) Start() {
	go func() {
		if err := w.server.Run(w.mux); err != nil && !errors.Is(err, asynq.ErrServerClosed) {
			w.log.Error().Err(err).Msg("audit worker stopped")
		}
	}()
}

func (w *Worker) Shutdown() {
	w.server.Shutdown()
}

// HandleWrite persists one entry. Failures are logged and not retried.
func (w *Worker) HandleWrite(ctx context.Context, task *asynq.Task) error {
	var entry models.AuditEntry
	if err := json.Unmarshal(task.Payload(), &entry); err != nil {
		w.log.Error().Err(err).Msg("audit task payload unreadable")
		return fmt.Errorf("decode audit entry: %v: %w", err, asynq.SkipRetry)
	}
	if err := w.store.Insert(ctx, &entry); err != nil {
		w.log.Error().Err(err).
			Str("action", entry.Action).
			Str("entity_id", entry.EntityID).
			Msg("audit write failed")
		return fmt.Errorf("insert audit entry: %v: %w", err, asynq.SkipRetry)
	}
	return nil
}
