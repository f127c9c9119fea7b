package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"thumbnail-editor-backend/internal/config"
	"thumbnail-editor-backend/internal/database"
	"thumbnail-editor-backend/internal/handlers"
	"thumbnail-editor-backend/internal/imagegen"
	"thumbnail-editor-backend/internal/lock"
	"thumbnail-editor-backend/internal/objectstore"
	"thumbnail-editor-backend/internal/services"
	"thumbnail-editor-backend/internal/supabase"
)

// buildApp wires the configured backends into the router. cleanup releases
// every connection opened along the way.
func buildApp(ctx context.Context, cfg *config.Config, log *zap.Logger) (*gin.Engine, func(), error) {
	var closers []func() error
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				log.Warn("failed to close resource", zap.Error(err))
			}
		}
	}
	fail := func(err error) (*gin.Engine, func(), error) {
		cleanup()
		return nil, nil, err
	}

	checks := make(map[string]handlers.Check)

	store, err := newStore(ctx, cfg, log, &closers, checks)
	if err != nil {
		return fail(err)
	}

	objects, err := newObjectStore(ctx, cfg)
	if err != nil {
		return fail(err)
	}

	generator, err := newGenerator(ctx, cfg, objects, &closers)
	if err != nil {
		return fail(err)
	}

	var locker lock.Locker = lock.NewMemoryLocker()
	if cfg.RedisURL != "" {
		redisLocker, err := lock.NewRedisLocker(cfg.RedisURL, log)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, redisLocker.Close)
		checks["redis"] = redisLocker.Ping
		locker = redisLocker
	}

	authClient, err := supabase.NewClient(cfg)
	if err != nil {
		return fail(fmt.Errorf("failed to initialize Supabase client: %w", err))
	}

	editService := services.NewEditService(store, objects, generator, locker, services.EditServiceConfig{
		LockTTL:       cfg.EditLockTTL,
		MaxImageBytes: cfg.MaxImageBytes,
	}, log)
	historyService := services.NewHistoryService(store, log)
	projectService := services.NewProjectService(store, objects, cfg.MaxImageBytes, log)

	router := handlers.NewRouter(cfg, log, handlers.Handlers{
		Health:   handlers.NewHealthHandler(checks),
		Auth:     handlers.NewAuthHandler(supabase.NewAuthClient(authClient), cfg, log),
		Projects: handlers.NewProjectsHandler(projectService),
		Edits:    handlers.NewEditsHandler(editService, historyService, projectService),
		Generate: handlers.NewGenerateHandler(editService),
	})

	return router, cleanup, nil
}

func newStore(ctx context.Context, cfg *config.Config, log *zap.Logger, closers *[]func() error, checks map[string]handlers.Check) (database.Store, error) {
	switch cfg.StoreBackend {
	case config.StoreBackendPostgres:
		migrator, err := database.NewMigrator(cfg.DatabaseURL, log)
		if err != nil {
			return nil, err
		}
		err = migrator.Run(ctx)
		migrator.Close()
		if err != nil {
			return nil, fmt.Errorf("migration failed: %w", err)
		}

		dbClient, err := supabase.NewDatabaseClient(cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, dbClient.Close)
		checks["database"] = dbClient.Ping
		return dbClient, nil

	case config.StoreBackendPostgREST:
		client, err := supabase.NewServiceClient(cfg)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Supabase client: %w", err)
		}
		return supabase.NewRestStore(client), nil

	case config.StoreBackendMemory:
		log.Warn("using in-memory store, projects are lost on restart")
		return database.NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("unknown STORE_BACKEND %q", cfg.StoreBackend)
}

func newObjectStore(ctx context.Context, cfg *config.Config) (objectstore.Store, error) {
	switch cfg.StorageBackend {
	case config.StorageBackendMinio:
		return objectstore.NewMinioStore(ctx, objectstore.MinioConfig{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
			PublicURL: cfg.MinioPublicURL,
			Region:    cfg.MinioRegion,
		})
	default:
		return supabase.NewStorageClient(cfg.SupabaseURL, cfg.StorageKey(), cfg.SupabaseStorageBucket)
	}
}

func newGenerator(ctx context.Context, cfg *config.Config, objects objectstore.Store, closers *[]func() error) (imagegen.Generator, error) {
	switch cfg.ImageProvider {
	case config.ImageProviderGemini:
		gemini, err := imagegen.NewGeminiClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, objects, cfg.FalTimeout, cfg.MaxImageBytes)
		if err != nil {
			return nil, err
		}
		*closers = append(*closers, gemini.Close)
		return gemini, nil
	default:
		return imagegen.NewFalClient(cfg.FalBaseURL, cfg.FalAPIKey, cfg.FalModel, cfg.FalTimeout), nil
	}
}
