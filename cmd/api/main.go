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
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/BruksfildServices01/courier-manager/internal/backup"
	"github.com/BruksfildServices01/courier-manager/internal/config"
	dbpkg "github.com/BruksfildServices01/courier-manager/internal/db"
	"github.com/BruksfildServices01/courier-manager/internal/infra/kv"
	"github.com/BruksfildServices01/courier-manager/internal/infra/local"
	infraRepo "github.com/BruksfildServices01/courier-manager/internal/infra/repository"
	"github.com/BruksfildServices01/courier-manager/internal/models"
	"github.com/BruksfildServices01/courier-manager/internal/monitoring"
	"github.com/BruksfildServices01/courier-manager/internal/routes"
	"github.com/BruksfildServices01/courier-manager/internal/storage"
)

func main() {

	cfg := config.Load()
	setupLogger(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	kvStore, err := openKV(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.KVDriver).Msg("failed to open key/value store")
	}

	store, err := openStorage(cfg, kvStore)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.StorageBackend).Msg("failed to open storage")
	}
	defer store.Close()
	// The local adapter closes kvStore itself.
	if cfg.StorageBackend == config.BackendRemote {
		defer kvStore.Close()
	}

	if err := store.Initialize(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to initialize storage")
	}

	monitoring.InitMetrics()

	// Backup targets always live in the key/value store, whatever the backend.
	connections := backup.NewStore(kvStore)
	runner := backup.NewRunner(
		connections,
		store,
		map[models.ConnectionProvider]backup.Uploader{
			models.ProviderS3:      backup.NewS3Uploader(cfg.BackupS3Region),
			models.ProviderWebhook: backup.NewWebhookUploader(nil),
		},
		cfg.BackupQueueSize,
	)
	runner.Start(ctx)

	if cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	routes.RegisterRoutes(r, store, connections, runner, cfg)

	srv := &http.Server{
		Addr:    cfg.Addr(),
		Handler: r,
	}

	go func() {
		log.Info().
			Str("addr", cfg.Addr()).
			Str("backend", cfg.StorageBackend).
			Str("kv", cfg.KVDriver).
			Msg("server running")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server shutdown failed")
	}
	runner.Wait()
}

func setupLogger(level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", c.Writer.Status()).
			Dur("latency", time.Since(start)).
			Msg("request")
	}
}

func openKV(ctx context.Context, cfg *config.Config) (kv.Store, error) {
	switch cfg.KVDriver {
	case config.KVRedis:
		return kv.NewRedis(ctx, kv.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   "courier",
		})
	case config.KVMemory:
		return kv.NewMemory(), nil
	default:
		return kv.NewFile(cfg.DataDir)
	}
}

func openStorage(cfg *config.Config, kvStore kv.Store) (storage.Adapter, error) {
	if cfg.StorageBackend != config.BackendRemote {
		return local.New(kvStore), nil
	}
	db, err := dbpkg.NewDB(cfg)
	if err != nil {
		return nil, err
	}
	return infraRepo.NewDeliveryGormRepository(db), nil
}
