package bootstrap

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"strings"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"

	"library-backend/internal/documents"
	"library-backend/internal/indexing"
	"library-backend/internal/ingest"
	"library-backend/internal/library"
	"library-backend/internal/qa"
	"library-backend/internal/services/health"
	"library-backend/internal/shared/config"
	"library-backend/internal/shared/server"
	"library-backend/internal/shared/storage/db"
	"library-backend/internal/shared/storage/kv"
	filekv "library-backend/internal/shared/storage/kv/file"
	memkv "library-backend/internal/shared/storage/kv/memory"
	rediskv "library-backend/internal/shared/storage/kv/redis"
	"library-backend/internal/shared/storage/object"
	localstore "library-backend/internal/shared/storage/object/local"
	s3store "library-backend/internal/shared/storage/object/s3"
)

// App holds shared dependencies and the HTTP router.
type App struct {
	Config       config.Config
	Router       *gin.Engine
	DB           *sql.DB
	Redis        *goredis.Client
	Store        object.ObjectStore
	Snapshots    kv.Store
	Index        *indexing.Client
	DocumentRepo documents.Repo
	QARepo       qa.Repo
	Registry     *library.Registry
	Health       *health.Service
}

// Build prepares shared dependencies and wires routes.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	ctx := context.Background()

	app := &App{Config: cfg, Health: health.NewService(0)}

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.DB = sqlDB

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}
	app.Store = store

	if err := buildSnapshots(ctx, app); err != nil {
		return nil, err
	}

	index, err := indexing.New(indexing.Options{
		BaseURL: cfg.IndexServiceURL,
		Timeout: cfg.IndexTimeout,
		RPS:     cfg.IndexRPS,
	})
	if err != nil {
		return nil, err
	}
	app.Index = index

	buildServices(app)

	app.Router = server.NewRouter(server.RouterDeps{
		Config: cfg,
		Health: app.Health,
		Library: library.NewHandler(app.Registry, library.Options{
			ServeFiles:    cfg.ObjectStoreType == "local",
			PublicBaseURL: cfg.PublicBaseURL,
		}),
	})
	return app, nil
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if config.IsDevLike(cfg.Env) {
			log.Printf("bootstrap: DATABASE_URL empty; using in-memory repositories")
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	opts := db.OptionsFromEnv(db.DefaultServerOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err == nil {
		err = db.RunMigrations(ctx, sqlDB)
		if err != nil {
			sqlDB.Close()
			err = fmt.Errorf("run migrations: %w", err)
		}
	}
	if err != nil {
		if config.IsDevLike(cfg.Env) {
			log.Printf("bootstrap: database unavailable; using in-memory repositories: %v", err)
			return nil, nil
		}
		return nil, err
	}
	return sqlDB, nil
}

func buildStore(ctx context.Context, cfg config.Config) (object.ObjectStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, s3store.Options{
			Region:   cfg.AWSRegion,
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			KMSKeyID: cfg.SSEKMSKeyID,
			Endpoint: cfg.S3Endpoint,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func buildSnapshots(ctx context.Context, app *App) error {
	cfg := app.Config
	switch cfg.QACacheType {
	case "redis":
		client, err := rediskv.Connect(ctx, cfg.RedisURL)
		if err != nil {
			if config.IsDevLike(cfg.Env) {
				log.Printf("bootstrap: redis unavailable; using in-memory qa cache: %v", err)
				app.Snapshots = memkv.New()
				return nil
			}
			return err
		}
		app.Redis = client
		app.Snapshots = rediskv.New(client, "")
		app.Health.Register("redis", func(ctx context.Context) error { return client.Ping(ctx).Err() })
	case "memory":
		app.Snapshots = memkv.New()
	default:
		store, err := filekv.New(cfg.QACacheDir)
		if err != nil {
			return fmt.Errorf("qa cache dir: %w", err)
		}
		app.Snapshots = store
	}
	return nil
}

func buildServices(app *App) {
	if app.DB != nil {
		app.DocumentRepo = &documents.PGRepo{DB: app.DB}
		app.QARepo = &qa.PGRepo{DB: app.DB}
		sqlDB := app.DB
		app.Health.Register("database", sqlDB.PingContext)
	} else {
		app.DocumentRepo = documents.NewMemoryRepo()
		app.QARepo = qa.NewMemoryRepo()
	}

	app.Registry = library.NewRegistry(ingest.Deps{
		Store:            app.Store,
		Index:            app.Index,
		Catalog:          app.DocumentRepo,
		ProgressInterval: app.Config.ProgressInterval,
	}, app.QARepo, app.Snapshots)
}

// Close releases pooled connections.
func (a *App) Close() {
	if a.DB != nil {
		_ = a.DB.Close()
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
}
