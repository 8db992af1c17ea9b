// Package queue hands completed translation records off to the worker
// process. Enqueueing is fire and forget; a queue outage must never
// fail the upload that produced the record.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"

	cfg "github.com/jordaandigi/pdflingo/config"
	"github.com/jordaandigi/pdflingo/internal/models"
)

// TaskTypeTranslationRecord carries one finished (or failed) translation
// to be written to the history table.
const TaskTypeTranslationRecord = "translation:record"

// Queue accepts translation records for asynchronous persistence.
type Queue interface {
	EnqueueRecord(ctx context.Context, record *models.TranslationRecord) error
}

// AsynqQueue is the redis-backed implementation.
type AsynqQueue struct {
	client  *asynq.Client
	retries int
	timeout time.Duration
}

// Config defines queue connection settings.
type Config struct {
	RedisAddr  string
	RedisDB    int
	MaxRetries int
	Timeout    time.Duration
}

// GetQueue creates a queue from the redis environment config.
func GetQueue() (*AsynqQueue, error) {
	redisConfig := cfg.GetRedisConfig()
	return NewAsynqQueue(&Config{
		RedisAddr:  redisConfig.Addr,
		RedisDB:    redisConfig.DB,
		MaxRetries: 3,
		Timeout:    time.Minute,
	})
}

func NewAsynqQueue(config *Config) (*AsynqQueue, error) {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr: config.RedisAddr,
		DB:   config.RedisDB,
	})

	return &AsynqQueue{
		client:  client,
		retries: config.MaxRetries,
		timeout: config.Timeout,
	}, nil
}

// EnqueueRecord serializes the record and queues it for the worker.
func (q *AsynqQueue) EnqueueRecord(ctx context.Context, record *models.TranslationRecord) error {
	payload, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}

	task := asynq.NewTask(TaskTypeTranslationRecord, payload,
		asynq.MaxRetry(q.retries),
		asynq.Timeout(q.timeout),
		asynq.TaskID(record.ID),
	)
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		return fmt.Errorf("failed to enqueue record: %w", err)
	}

	return nil
}

func (q *AsynqQueue) Close() error {
	return q.client.Close()
}
