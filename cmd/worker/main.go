package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jordaandigi/pdflingo/config"
	"github.com/jordaandigi/pdflingo/internal/store"
	"github.com/jordaandigi/pdflingo/pkg/logger"
	"github.com/jordaandigi/pdflingo/pkg/storage"
	"github.com/jordaandigi/pdflingo/pkg/worker"
)

const documentRetention = 30 * 24 * time.Hour

func main() {
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/worker.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	databaseConfig := config.GetDatabaseConfig()
	redisConfig := config.GetRedisConfig()
	serverConfig := config.GetServerConfig()

	db, err := store.NewGormStore(databaseConfig.DSN)
	if err != nil {
		log.Error("Failed to connect to database", logger.Error(err))
		os.Exit(1)
	}

	workerCfg := &worker.Config{
		RedisAddr:   redisConfig.Addr,
		RedisDB:     redisConfig.DB,
		Concurrency: 10,
		Queues: map[string]int{
			"default": 1,
		},
	}

	recordWorker, err := worker.NewRecordWorker(workerCfg, db, log)
	if err != nil {
		log.Error("Failed to create record worker", logger.Error(err))
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := recordWorker.Start(ctx); err != nil {
		log.Error("Failed to start worker", logger.Error(err))
		os.Exit(1)
	}

	st, err := storage.NewStorage(storage.Type(serverConfig.StorageType), log.Named("storage"))
	if err != nil {
		log.Error("Failed to initialize storage", logger.Error(err))
		os.Exit(1)
	}
	go runCleanup(ctx, st, log)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down worker...")
	recordWorker.Stop()
	log.Info("Worker stopped")
}

// runCleanup sweeps expired translated documents out of object storage.
func runCleanup(ctx context.Context, st storage.Storage, log logger.Logger) {
	ticker := time.NewTicker(12 * time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			threshold := time.Now().Add(-documentRetention)
			if err := st.CleanupBefore(ctx, threshold); err != nil {
				log.Error("Document cleanup failed", logger.Error(err))
				continue
			}
			log.Info("Document cleanup completed", logger.Time("threshold", threshold))
		}
	}
}
