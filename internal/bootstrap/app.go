package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"

	googleauth "registry-backend/internal/auth"
	"registry-backend/internal/events"
	"registry-backend/internal/files"
	"registry-backend/internal/registry"
	"registry-backend/internal/services/health"
	"registry-backend/internal/shared/auth"
	"registry-backend/internal/shared/config"
	"registry-backend/internal/shared/server"
	"registry-backend/internal/shared/server/middleware"
	"registry-backend/internal/shared/storage/db"
	"registry-backend/internal/shared/storage/object"
	localstore "registry-backend/internal/shared/storage/object/local"
	miniostore "registry-backend/internal/shared/storage/object/minio"
	s3store "registry-backend/internal/shared/storage/object/s3"
	"registry-backend/internal/shared/telemetry"
	"registry-backend/internal/users"
)

// App holds shared dependencies and the router built from them.
type App struct {
	Config       config.Config
	Router       *gin.Engine
	DB           *sql.DB
	Store        object.BlobStore
	Events       events.Publisher
	Signer       *auth.Signer
	FilesRepo    files.Repo
	UsersRepo    users.Repo
	Counters     registry.CounterStore
	Allocator    *registry.Allocator
	FilesService *files.Service
	UsersService *users.Service
	FilesHandler *files.Handler
	UsersHandler *users.Handler
	GoogleAuth   *googleauth.GoogleService
	Health       *health.Service
}

// Build prepares shared dependencies and wires the router.
func Build(cfg config.Config) (*App, error) {
	if strings.TrimSpace(cfg.Env) == "" {
		cfg.Env = "dev"
	}
	if strings.TrimSpace(cfg.ObjectStoreType) == "" {
		cfg.ObjectStoreType = "local"
	}
	telemetry.Configure(telemetry.FileSink{
		Path:       cfg.LogFile,
		MaxSizeMB:  cfg.LogMaxSizeMB,
		MaxBackups: cfg.LogMaxBackups,
		MaxAgeDays: cfg.LogMaxAgeDays,
	})
	ctx := context.Background()

	sqlDB, err := buildDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	store, err := buildStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	publisher, err := events.NewPublisher(ctx, events.Options{
		Backend:      cfg.EventsBackend,
		AWSRegion:    cfg.AWSRegion,
		SQSQueueURL:  cfg.SQSQueueURL,
		KafkaBrokers: cfg.KafkaBrokers,
		KafkaTopic:   cfg.KafkaTopic,
	})
	if err != nil {
		return nil, fmt.Errorf("events publisher: %w", err)
	}

	signer, err := auth.NewSigner(cfg.JWTSecret, cfg.TokenTTL, cfg.Env)
	if err != nil {
		return nil, err
	}

	app := &App{
		Config: cfg,
		DB:     sqlDB,
		Store:  store,
		Events: publisher,
		Signer: signer,
	}

	if err := buildServices(app); err != nil {
		return nil, err
	}

	app.Router = server.NewRouter(server.RouterDeps{
		Config:      app.Config,
		Signer:      app.Signer,
		Identities:  app.UsersService,
		UserHandler: app.UsersHandler,
		FileHandler: app.FilesHandler,
		GoogleAuth:  app.GoogleAuth,
		Health:      app.Health,
		RateLimiter: middleware.NewRateLimiter(nil),
	})

	return app, nil
}

// Close releases the publisher and the database pool.
func (a *App) Close() error {
	var errs []error
	if a.Events != nil {
		errs = append(errs, a.Events.Close())
	}
	if a.DB != nil && !db.IsLambdaRuntime() {
		errs = append(errs, a.DB.Close())
	}
	return errors.Join(errs...)
}

func buildDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	if strings.TrimSpace(cfg.DatabaseURL) == "" {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{"reason": "DATABASE_URL empty"})
			return nil, nil
		}
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	var (
		sqlDB *sql.DB
		err   error
	)
	if db.IsLambdaRuntime() {
		opts := db.OptionsFromEnv(db.DefaultLambdaOptions())
		sqlDB, err = db.GetSingleton(ctx, cfg.DatabaseURL, opts)
	} else {
		opts := db.OptionsFromEnv(db.DefaultServerOptions())
		sqlDB, err = db.Connect(ctx, cfg.DatabaseURL, opts)
	}
	if err != nil {
		if isDevLike(cfg.Env) {
			telemetry.Warn("bootstrap.memory_repositories", map[string]any{
				"reason": "database connect failed",
				"error":  err.Error(),
			})
			return nil, nil
		}
		return nil, err
	}

	return sqlDB, nil
}

// BuildStore selects the blob backend named by OBJECT_STORE.
func BuildStore(ctx context.Context, cfg config.Config) (object.BlobStore, error) {
	return buildStore(ctx, cfg)
}

func buildStore(ctx context.Context, cfg config.Config) (object.BlobStore, error) {
	switch cfg.ObjectStoreType {
	case "s3":
		return s3store.New(ctx, cfg.AWSRegion, cfg.S3Bucket, cfg.S3Prefix, cfg.SSEKMSKeyID)
	case "minio":
		return miniostore.New(ctx, miniostore.Options{
			Endpoint:  cfg.MinioEndpoint,
			AccessKey: cfg.MinioAccessKey,
			SecretKey: cfg.MinioSecretKey,
			Bucket:    cfg.MinioBucket,
			UseSSL:    cfg.MinioUseSSL,
		})
	default:
		return localstore.New(cfg.LocalStoreDir), nil
	}
}

func isDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local":
		return true
	default:
		return false
	}
}

func buildServices(app *App) error {
	var filesRepo files.Repo
	var userRepo users.Repo
	var counters registry.CounterStore

	if app.DB != nil {
		filesRepo = &files.PGRepo{DB: app.DB}
		userRepo = &users.PGRepo{DB: app.DB}
		counters = &registry.PGCounterStore{DB: app.DB}
		app.Health = health.NewService(app.DB)
	} else {
		filesRepo = files.NewMemoryRepo()
		userRepo = users.NewMemoryRepo()
		counters = registry.NewMemoryCounterStore()
		app.Health = health.NewService(nil)
	}

	allocator := registry.NewAllocator(counters, filesRepo)
	filesSvc := &files.Service{
		Repo:      filesRepo,
		Store:     app.Store,
		Allocator: allocator,
		Events:    app.Events,
		Cache:     fileCache(app.Config),
	}
	usersSvc := users.NewService(userRepo, app.Signer)

	app.FilesRepo = filesRepo
	app.UsersRepo = userRepo
	app.Counters = counters
	app.Allocator = allocator
	app.FilesService = filesSvc
	app.UsersService = usersSvc
	app.FilesHandler = files.NewHandler(filesSvc, app.Config.MaxUploadBytes)
	app.UsersHandler = users.NewHandler(usersSvc)
	app.GoogleAuth = googleauth.NewGoogleService(
		app.Config.GoogleClientID,
		app.Config.GoogleClientSecret,
		app.Config.GoogleRedirectURL,
		app.Config.UIRedirectURL,
		usersSvc,
	)

	if app.FilesHandler == nil || app.UsersHandler == nil {
		return errors.New("failed to initialize handlers")
	}
	return nil
}

// fileCache builds the per-instance record cache. Deletes only evict the local
// copy, so the cache stays off unless configured and is never used on Lambda,
// where many instances serve the same table.
func fileCache(cfg config.Config) *files.Cache {
	if cfg.CacheSize <= 0 {
		return nil
	}
	if db.IsLambdaRuntime() {
		telemetry.Warn("bootstrap.cache_disabled", map[string]any{
			"reason": "lambda runtime",
			"size":   cfg.CacheSize,
		})
		return nil
	}
	return files.NewCache(cfg.CacheSize, cfg.CacheTTL)
}
