package container

import (
	"context"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	"bookreview-backend/internal/config"
	bookHandler "bookreview-backend/internal/domains/book/handler"
	bookJob "bookreview-backend/internal/domains/book/job"
	bookRepo "bookreview-backend/internal/domains/book/repository"
	bookService "bookreview-backend/internal/domains/book/service"
	"bookreview-backend/internal/domains/rating"
	reviewHandler "bookreview-backend/internal/domains/review/handler"
	reviewRepo "bookreview-backend/internal/domains/review/repository"
	reviewService "bookreview-backend/internal/domains/review/service"
	"bookreview-backend/internal/domains/user"
	userHandler "bookreview-backend/internal/domains/user/handler"
	userJob "bookreview-backend/internal/domains/user/job"
	userRepo "bookreview-backend/internal/domains/user/repository"
	userService "bookreview-backend/internal/domains/user/service"
	infraCache "bookreview-backend/internal/infrastructure/cache"
	infraDB "bookreview-backend/internal/infrastructure/database"
	"bookreview-backend/internal/infrastructure/queue"
	"bookreview-backend/internal/infrastructure/storage"
	"bookreview-backend/pkg/database"
	"bookreview-backend/pkg/jwt"
	"bookreview-backend/pkg/logger"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container giữ toàn bộ dependency graph của application.
// cmd/api dùng các handler, cmd/worker dùng các job handler.
type Container struct {
	// Infrastructure
	Config     *config.Config
	DB         *infraDB.PostgresDB
	Cache      *infraCache.RedisCache
	Storage    *storage.MinIOStorage
	Queue      *queue.Client
	RedisOpt   asynq.RedisClientOpt
	JWTManager *jwt.Manager
	TxManager  database.TxManager

	// Repositories
	UserRepo   user.Repository
	BookRepo   bookRepo.BookRepository
	ReviewRepo reviewRepo.ReviewRepository

	// Services
	CounterService user.CounterSynchronizer
	Aggregator     *rating.Aggregator
	UserService    user.Service
	BookService    bookService.ServiceInterface
	CoverService   bookService.CoverServiceInterface
	ReportService  bookService.ReportServiceInterface
	ReviewService  reviewService.ServiceInterface

	// HTTP handlers
	UserHandler   *userHandler.UserHandler
	BookHandler   *bookHandler.Handler
	ReviewHandler *reviewHandler.ReviewHandler

	// Job handlers (cmd/worker)
	ProcessCoverJob      *bookJob.ProcessCoverHandler
	DeleteCoverJob       *bookJob.DeleteCoverHandler
	ReconcileCountersJob *userJob.ReconcileCountersHandler
}

// ========================================
// CONSTRUCTOR
// ========================================

// NewContainer tạo và initialize toàn bộ dependency graph
//
// Thứ tự initialization:
// 1. Config
// 2. Infrastructure (DB, Redis, MinIO, queue)
// 3. Repositories
// 4. Services
// 5. Handlers
func NewContainer() (*Container, error) {
	c := &Container{}

	// ========================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	logger.Init(cfg.App.Environment, cfg.App.LogLevel)
	logger.Info("Config loaded", map[string]interface{}{"environment": cfg.App.Environment})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	// ========================================
	// STEP 2: INITIALIZE INFRASTRUCTURE
	// ========================================
	if err := c.initInfrastructure(ctx); err != nil {
		c.Cleanup()
		return nil, err
	}

	// ========================================
	// STEP 3: INITIALIZE REPOSITORIES
	// ========================================
	c.initRepositories()

	// ========================================
	// STEP 4: INITIALIZE SERVICES
	// ========================================
	c.initServices()

	// ========================================
	// STEP 5: INITIALIZE HANDLERS
	// ========================================
	c.initHandlers()

	log.Info().Msg("DI container initialized")
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initInfrastructure(ctx context.Context) error {
	cfg := c.Config

	// PostgreSQL: bắt buộc
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	db := infraDB.NewPostgresDB(dbConfig)
	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	c.DB = db
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	c.TxManager = database.NewTxManager(db.Pool)
	log.Info().Str("host", dbConfig.Host).Str("db", dbConfig.DBName).Msg("Database connected")

	// Redis: login throttle và token blacklist fail-open nên chỉ warn
	c.Cache = infraCache.NewRedisCache(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := c.Cache.Connect(ctx); err != nil {
		logger.Warn("Redis connection failed (non-critical)", map[string]interface{}{"error": err.Error()})
	} else {
		log.Info().Str("addr", cfg.Redis.Host).Msg("Redis connected")
	}

	// MinIO: bắt buộc cho upload/resize ảnh bìa
	store, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
	if err != nil {
		return fmt.Errorf("failed to init minio storage: %w", err)
	}
	c.Storage = store
	log.Info().Str("endpoint", cfg.MinIO.Endpoint).Str("bucket", cfg.MinIO.Bucket).Msg("MinIO connected")

	// Asynq dùng chung Redis với cache
	c.RedisOpt = asynq.RedisClientOpt{
		Addr:     cfg.Redis.Host,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}
	c.Queue = queue.NewClient(c.RedisOpt)

	c.JWTManager = jwt.NewManager(cfg.JWT.Secret, cfg.JWT.TokenExpiry)
	return nil
}

// initRepositories: tất cả repository đọc connection từ ctx (tx) hoặc pool
func (c *Container) initRepositories() {
	pool := c.DB.Pool

	c.UserRepo = userRepo.NewPostgresRepository(pool)
	c.BookRepo = bookRepo.NewPostgresRepository(pool)
	c.ReviewRepo = reviewRepo.NewPostgresRepository(pool)
}

func (c *Container) initServices() {
	// ----------------------------------------
	// SHARED COLLABORATORS
	// ----------------------------------------
	c.CounterService = userService.NewCounterService(c.UserRepo)
	c.Aggregator = rating.NewAggregator(c.ReviewRepo, c.BookRepo)

	// ----------------------------------------
	// USER SERVICE
	// ----------------------------------------
	c.UserService = userService.NewUserService(
		c.UserRepo,
		c.CounterService,
		c.ReviewRepo,
		c.JWTManager,
		c.Cache,
		userService.LoginThrottle{
			MaxAttempts: c.Config.Jobs.LoginMaxAttempts,
			LockWindow:  c.Config.Jobs.LoginLockWindow,
		},
	)

	// ----------------------------------------
	// BOOK SERVICES
	// ----------------------------------------
	c.BookService = bookService.NewService(
		c.BookRepo,
		c.ReviewRepo,
		c.UserRepo,
		c.CounterService,
		c.Aggregator,
		c.TxManager,
		c.Queue,
	)
	c.CoverService = bookService.NewCoverService(c.BookRepo, c.Storage, storage.NewImageProcessor(), c.Queue)
	c.ReportService = bookService.NewReportService(c.BookRepo, c.ReviewRepo)

	// ----------------------------------------
	// REVIEW SERVICE
	// ----------------------------------------
	c.ReviewService = reviewService.NewReviewService(
		c.ReviewRepo,
		c.BookRepo,
		c.UserRepo,
		c.CounterService,
		c.Aggregator,
		c.TxManager,
	)
}

func (c *Container) initHandlers() {
	c.UserHandler = userHandler.NewUserHandler(c.UserService, c.Queue)
	c.BookHandler = bookHandler.NewHandler(c.BookService, c.CoverService, c.ReportService)
	c.ReviewHandler = reviewHandler.NewReviewHandler(c.ReviewService)

	c.ProcessCoverJob = bookJob.NewProcessCoverHandler(c.CoverService)
	c.DeleteCoverJob = bookJob.NewDeleteCoverHandler(c.CoverService)
	c.ReconcileCountersJob = userJob.NewReconcileCountersHandler(c.CounterService)
}

// ========================================
// CLEANUP
// ========================================

// Cleanup đóng connections khi shutdown (gọi được nhiều lần, bỏ qua field nil)
func (c *Container) Cleanup() {
	if c.Queue != nil {
		if err := c.Queue.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close asynq client")
		}
	}

	if c.Cache != nil {
		if err := c.Cache.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close Redis")
		}
	}

	if c.DB != nil {
		c.DB.Close()
	}

	log.Info().Msg("Container cleanup completed")
}
