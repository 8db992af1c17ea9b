package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/jordaandigi/pdflingo/api/handlers"
	"github.com/jordaandigi/pdflingo/api/routes"
	"github.com/jordaandigi/pdflingo/config"
	"github.com/jordaandigi/pdflingo/internal/auth"
	"github.com/jordaandigi/pdflingo/internal/docstate"
	"github.com/jordaandigi/pdflingo/internal/service/chat"
	"github.com/jordaandigi/pdflingo/internal/service/document"
	"github.com/jordaandigi/pdflingo/internal/store"
	"github.com/jordaandigi/pdflingo/internal/webhook"
	"github.com/jordaandigi/pdflingo/pkg/logger"
	"github.com/jordaandigi/pdflingo/pkg/storage"
)

func main() {
	log, err := logger.NewLogger(
		logger.WithLevel("info"),
		logger.WithEncoding("json"),
		logger.WithOutputPaths([]string{"stdout", "logs/pdflingo.log"}),
	)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	serverConfig := config.GetServerConfig()
	authConfig := config.GetAuthConfig()
	redisConfig := config.GetRedisConfig()
	databaseConfig := config.GetDatabaseConfig()

	db, err := store.NewGormStore(databaseConfig.DSN)
	if err != nil {
		log.Fatal("Failed to connect to database", logger.Error(err))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr: redisConfig.Addr,
		DB:   redisConfig.DB,
	})
	authService := auth.NewService(db, auth.NewRedisRevoker(redisClient), authConfig.JWTSecret, authConfig.TokenTTL, log)

	sessions := docstate.NewStore()
	webhookClient := webhook.NewClient(config.GetWebhooksConfig(), log.Named("webhook"))

	st, err := storage.NewStorage(storage.Type(serverConfig.StorageType), log.Named("storage"))
	if err != nil {
		log.Fatal("Failed to initialize storage", logger.Error(err))
	}

	docService, err := document.GetService(sessions, webhookClient, st, db, log.Named("document"))
	if err != nil {
		log.Fatal("Failed to create document service", logger.Error(err))
	}
	chatService := chat.NewService(sessions, webhookClient, st, log.Named("chat"))

	h := handlers.NewHandlers(authService, docService, chatService, log)
	r := gin.New()
	r.Use(gin.Recovery())
	routes.SetupRoutes(r, h, authService)

	srv := &http.Server{
		Addr:    serverConfig.Addr,
		Handler: r,
	}

	go func() {
		log.Info("Server starting", logger.String("addr", serverConfig.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server error", logger.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", logger.Error(err))
	}
}
