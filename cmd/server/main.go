// @title           Photo Versions API
// @version         1.0.0
// @description     Manages user photos stored as an original plus an optional edited version. Bytes move through presigned URLs; the API keeps the metadata and enforces ownership.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"photo-versions-backend/internal/config"
	"photo-versions-backend/internal/database"
	"photo-versions-backend/internal/dynamo"
	"photo-versions-backend/internal/handlers"
	"photo-versions-backend/internal/logger"
	"photo-versions-backend/internal/memstore"
	"photo-versions-backend/internal/middleware"
	"photo-versions-backend/internal/s3store"
	"photo-versions-backend/internal/services"
	"photo-versions-backend/internal/supabase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	checks := map[string]handlers.HealthCheck{}
	var closers []func() error
	defer func() {
		for _, c := range closers {
			if err := c(); err != nil {
				log.Warn().Err(err).Msg("close failed")
			}
		}
	}()

	metadata, err := newMetadataStore(ctx, cfg, log, checks, &closers)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.MetadataBackend).Msg("initialize metadata store")
	}
	blobs, err := newBlobStore(ctx, cfg, log, checks)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.BlobBackend).Msg("initialize blob store")
	}

	var events services.EventPublisher
	if cfg.EventsEnabled {
		client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey)
		if err != nil {
			log.Fatal().Err(err).Msg("initialize supabase client")
		}
		events = supabase.NewRealtimeClient(client.Supabase)
		log.Info().Msg("photo events enabled")
	}

	var uploadLimit gin.HandlerFunc
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("parse REDIS_URL")
		}
		redisClient := redis.NewClient(opts)
		closers = append(closers, redisClient.Close)
		uploadLimit = middleware.NewUploadRateLimiter(redisClient, cfg.UploadRateLimit, cfg.UploadRateWindow, log).Middleware()
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	photoService := services.NewPhotoService(metadata, blobs, events, services.Options{
		Buckets:    services.Buckets{Originals: cfg.OriginalsBucket, Edited: cfg.EditedBucket},
		PresignTTL: cfg.PresignTTL,
	}, log)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.CORS(cfg))

	// No auth
	router.GET("/health", handlers.NewHealthHandler(checks).Health)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))
	handlers.NewPhotoHandler(photoService).Register(api, uploadLimit)

	if err := serve(ctx, cfg, router, log); err != nil {
		log.Error().Err(err).Msg("server stopped with error")
		return
	}
	log.Info().Msg("server exited cleanly")
}

func newMetadataStore(ctx context.Context, cfg *config.Config, log zerolog.Logger, checks map[string]handlers.HealthCheck, closers *[]func() error) (services.MetadataStore, error) {
	switch cfg.MetadataBackend {
	case config.BackendPostgres:
		db, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, db.Close)
		if err := database.NewMigrator(db.DB(), log).Run(ctx); err != nil {
			return nil, fmt.Errorf("run migrations: %w", err)
		}
		checks["postgres"] = db.Ping
		return db, nil

	case config.BackendDynamoDB:
		store, err := dynamo.New(ctx, dynamo.Config{
			Table:           cfg.DynamoDBTable,
			Region:          cfg.S3Region,
			Endpoint:        cfg.DynamoDBEndpoint,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
		}, log)
		if err != nil {
			return nil, err
		}
		checks["dynamodb"] = store.Ping
		return store, nil

	default:
		log.Warn().Msg("using in-memory metadata store, records are lost on restart")
		store := memstore.NewMetadataStore()
		checks["memory"] = store.Ping
		return store, nil
	}
}

func newBlobStore(ctx context.Context, cfg *config.Config, log zerolog.Logger, checks map[string]handlers.HealthCheck) (services.BlobStore, error) {
	buckets := []string{cfg.OriginalsBucket, cfg.EditedBucket}

	switch cfg.BlobBackend {
	case config.BackendSupabase:
		storage, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabaseServiceKey)
		if err != nil {
			return nil, err
		}
		checks["supabase_storage"] = func(ctx context.Context) error { return storage.Ping(ctx, buckets...) }
		return storage, nil

	case config.BackendS3:
		store, err := s3store.New(ctx, s3store.Config{
			Endpoint:        cfg.S3Endpoint,
			Region:          cfg.S3Region,
			AccessKeyID:     cfg.S3AccessKeyID,
			SecretAccessKey: cfg.S3SecretAccessKey,
			UsePathStyle:    cfg.S3UsePathStyle,
		}, log)
		if err != nil {
			return nil, err
		}
		checks["s3"] = func(ctx context.Context) error { return store.Ping(ctx, buckets...) }
		return store, nil

	default:
		log.Warn().Msg("using in-memory blob store, presigned URLs are not served")
		return memstore.NewBlobStore(""), nil
	}
}

// serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests for up to ShutdownTimeout.
func serve(ctx context.Context, cfg *config.Config, handler http.Handler, log zerolog.Logger) error {
	server := &http.Server{
		Addr:    cfg.Addr(),
		Handler: handler,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down server")
	case err := <-errCh:
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
