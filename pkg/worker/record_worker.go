package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	"github.com/jordaandigi/pdflingo/internal/models"
	"github.com/jordaandigi/pdflingo/internal/store"
	"github.com/jordaandigi/pdflingo/pkg/logger"
	"github.com/jordaandigi/pdflingo/pkg/queue"
)

// RecordWorker persists translation records enqueued by the API.
type RecordWorker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	store  store.Store
	logger logger.Logger
}

func NewRecordWorker(cfg *Config, s store.Store, log logger.Logger) (*RecordWorker, error) {
	server := asynq.NewServer(
		asynq.RedisClientOpt{Addr: cfg.RedisAddr, DB: cfg.RedisDB},
		asynq.Config{
			Concurrency: cfg.Concurrency,
			Queues:      cfg.Queues,
			RetryDelayFunc: func(n int, err error, task *asynq.Task) time.Duration {
				return time.Duration(n) * time.Minute
			},
		},
	)

	w := &RecordWorker{
		server: server,
		mux:    asynq.NewServeMux(),
		store:  s,
		logger: log,
	}
	w.mux.HandleFunc(queue.TaskTypeTranslationRecord, w.handleTranslationRecord)
	return w, nil
}

func (w *RecordWorker) handleTranslationRecord(ctx context.Context, t *asynq.Task) error {
	var record models.TranslationRecord
	if err := json.Unmarshal(t.Payload(), &record); err != nil {
		w.logger.Error("Failed to unmarshal record",
			logger.Error(err),
			logger.String("payload", string(t.Payload())),
		)
		return fmt.Errorf("failed to unmarshal record: %w", err)
	}

	if record.ID == "" || record.UserID == "" {
		w.logger.Error("Invalid record data",
			logger.String("recordId", record.ID),
			logger.String("userId", record.UserID),
		)
		return fmt.Errorf("invalid record data: missing required fields")
	}

	if err := w.store.SaveRecord(ctx, &record); err != nil {
		w.logger.Error("Failed to persist record",
			logger.String("recordId", record.ID),
			logger.Error(err),
		)
		return err
	}

	w.logger.Info("Persisted translation record",
		logger.String("recordId", record.ID),
		logger.String("userId", record.UserID),
		logger.String("status", string(record.Status)),
	)
	return nil
}

func (w *RecordWorker) Start(ctx context.Context) error {
	go func() {
		if err := w.server.Run(w.mux); err != nil {
			w.logger.Error("Worker server stopped", logger.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		w.Stop()
	}()

	return nil
}

func (w *RecordWorker) Stop() {
	w.server.Stop()
	w.server.Shutdown()
}
