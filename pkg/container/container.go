package container

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/hibiken/asynq"
	"go.mongodb.org/mongo-driver/mongo"

	"storyforge-backend/internal/config"
	"storyforge-backend/internal/domains/access"
	"storyforge-backend/internal/infrastructure/ai"
	infraCache "storyforge-backend/internal/infrastructure/cache"
	"storyforge-backend/internal/infrastructure/database"
	"storyforge-backend/internal/infrastructure/queue"
	"storyforge-backend/internal/infrastructure/storage"
	"storyforge-backend/internal/transport/procedure"
	pkgdb "storyforge-backend/pkg/database"
	"storyforge-backend/pkg/jwt"
	"storyforge-backend/pkg/ratelimit"

	aiHandler "storyforge-backend/internal/domains/ai/handler"
	aiRepo "storyforge-backend/internal/domains/ai/repository"
	aiService "storyforge-backend/internal/domains/ai/service"
	chapterHandler "storyforge-backend/internal/domains/chapter/handler"
	chapterRepo "storyforge-backend/internal/domains/chapter/repository"
	chapterService "storyforge-backend/internal/domains/chapter/service"
	characterHandler "storyforge-backend/internal/domains/character/handler"
	characterRepo "storyforge-backend/internal/domains/character/repository"
	characterService "storyforge-backend/internal/domains/character/service"
	exportHandler "storyforge-backend/internal/domains/export/handler"
	exportRepo "storyforge-backend/internal/domains/export/repository"
	exportService "storyforge-backend/internal/domains/export/service"
	plotHandler "storyforge-backend/internal/domains/plot/handler"
	plotRepo "storyforge-backend/internal/domains/plot/repository"
	plotService "storyforge-backend/internal/domains/plot/service"
	projectHandler "storyforge-backend/internal/domains/project/handler"
	projectRepo "storyforge-backend/internal/domains/project/repository"
	projectService "storyforge-backend/internal/domains/project/service"
	userHandler "storyforge-backend/internal/domains/user/handler"
	userRepo "storyforge-backend/internal/domains/user/repository"
	userService "storyforge-backend/internal/domains/user/service"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container chứa TẤT CẢ dependencies của application
// Struct này là "root" của dependency graph, dùng chung cho API và worker
type Container struct {
	// ========================================
	// INFRASTRUCTURE LAYER
	// ========================================
	Config     *config.Config
	Mongo      *database.MongoDB
	Redis      *infraCache.RedisClient
	JWTManager *jwt.Manager
	Tx         pkgdb.TxManager
	Storage    *storage.MinIOStorage
	Queue      *queue.Client
	AIProvider ai.Provider
	AILimiter  *ratelimit.KeyedLimiter

	// ========================================
	// REPOSITORY LAYER (DATA ACCESS)
	// ========================================
	UserRepo       userRepo.Repository
	TokenStore     userRepo.TokenStore
	ProjectRepo    projectRepo.Repository
	CharacterRepo  characterRepo.Repository
	PlotRepo       plotRepo.Repository
	ChapterRepo    chapterRepo.Repository
	ExportRepo     exportRepo.Repository
	GenerationRepo aiRepo.Repository

	// ========================================
	// SERVICE LAYER (BUSINESS LOGIC)
	// ========================================
	Access           *access.Checker
	UserService      userService.Service
	ProjectService   projectService.Service
	CharacterService characterService.Service
	PlotService      plotService.Service
	ChapterService   chapterService.Service
	ExportService    exportService.Service
	ExportProcessor  *exportService.Processor
	AIService        aiService.Service

	// ========================================
	// TRANSPORT
	// ========================================
	// Registry là bảng procedure duy nhất; REST, RPC và OpenAPI đều đọc từ đây
	Registry *procedure.Registry

	stopCleanup chan struct{}
}

// ========================================
// CONSTRUCTOR: BUILD CONTAINER
// ========================================

// NewContainer tạo và initialize toàn bộ dependency graph
//
// QUAN TRỌNG: Thứ tự initialization:
// 1. Config (không phụ thuộc gì)
// 2. Infrastructure (Mongo, Redis, MinIO, queue, AI) - phụ thuộc Config
// 3. Repositories - phụ thuộc Mongo và Redis
// 4. Services - phụ thuộc Repositories
// 5. Procedures - phụ thuộc Services
func NewContainer() (*Container, error) {
	log.Println("🔧 Initializing DI Container...")

	c := &Container{stopCleanup: make(chan struct{})}

	// ========================================
	// STEP 1: LOAD CONFIGURATION
	// ========================================
	log.Println("📋 Loading configuration...")

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg
	log.Printf("✅ Config loaded (Environment: %s)", cfg.App.Environment)

	// ========================================
	// STEP 2: INITIALIZE INFRASTRUCTURE
	// ========================================
	if err := c.initInfrastructure(); err != nil {
		c.Cleanup()
		return nil, err
	}

	// ========================================
	// STEP 3: INITIALIZE REPOSITORIES
	// ========================================
	log.Println("📦 Initializing repositories...")

	if err := c.initRepositories(); err != nil {
		c.Cleanup()
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}
	log.Println("✅ Repositories initialized")

	// ========================================
	// STEP 4: INITIALIZE SERVICES
	// ========================================
	log.Println("⚙️  Initializing services...")

	c.initServices()
	log.Println("✅ Services initialized")

	// ========================================
	// STEP 5: REGISTER PROCEDURES
	// ========================================
	log.Println("🎯 Registering procedures...")

	if err := c.initProcedures(); err != nil {
		c.Cleanup()
		return nil, fmt.Errorf("failed to register procedures: %w", err)
	}
	log.Printf("✅ %d procedures registered", len(c.Registry.All()))

	log.Println("🎉 DI Container initialized successfully")
	return c, nil
}

// ========================================
// PRIVATE INITIALIZATION METHODS
// ========================================

func (c *Container) initInfrastructure() error {
	cfg := c.Config

	// ----------------------------------------
	// MONGODB
	// ----------------------------------------
	log.Println("🗄️  Connecting to MongoDB...")

	c.Mongo = database.NewMongoDB(cfg.DatabaseConfig())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := c.Mongo.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	log.Println("✅ MongoDB connected")

	if cfg.Mongo.Transactions {
		c.Tx = pkgdb.NewMongoTxManager(c.Mongo.Client)
		log.Println("✅ Multi-document transactions enabled")
	} else {
		c.Tx = pkgdb.SequentialTxManager{}
		log.Println("⚠️  MONGO_TRANSACTIONS=false, multi-document writes run sequentially")
	}

	// ----------------------------------------
	// REDIS
	// ----------------------------------------
	log.Println("🔴 Connecting to Redis...")

	c.Redis = infraCache.NewRedisClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB)
	if err := c.Redis.Connect(ctx); err != nil {
		// Redis lỗi không chặn startup: token revocation và profile cache degrade
		log.Printf("⚠️  Redis connection failed (non-critical): %v", err)
	} else {
		log.Println("✅ Redis connected")
	}

	// ----------------------------------------
	// JWT
	// ----------------------------------------
	c.JWTManager = jwt.NewManager(
		cfg.JWT.Secret,
		time.Duration(cfg.JWT.AccessTokenExpiry)*time.Minute,
		time.Duration(cfg.JWT.RefreshTokenExpiry)*time.Hour,
	)

	// ----------------------------------------
	// OBJECT STORAGE
	// ----------------------------------------
	log.Println("🪣 Connecting to MinIO...")

	store, err := storage.NewMinIOStorage(ctx, cfg.MinIO)
	if err != nil {
		return fmt.Errorf("failed to init object storage: %w", err)
	}
	c.Storage = store
	log.Printf("✅ MinIO ready (bucket: %s)", cfg.MinIO.Bucket)

	// ----------------------------------------
	// TASK QUEUE
	// ----------------------------------------
	c.Queue = queue.NewClient(cfg.Redis.Host, cfg.Redis.Password, cfg.Redis.DB, cfg.Export.MaxRetry)
	log.Println("✅ Asynq client ready")

	// ----------------------------------------
	// AI PROVIDER
	// ----------------------------------------
	provider, err := ai.NewFromConfig(ctx, cfg.AI)
	if err != nil {
		return fmt.Errorf("failed to init ai provider: %w", err)
	}
	c.AIProvider = provider
	if ai.Configured(provider) {
		log.Printf("✅ AI provider: %s", provider.Name())
	} else {
		log.Printf("⚠️  AI provider %s has no API key, generation calls will fail", provider.Name())
	}

	c.AILimiter = ratelimit.NewPerMinute(cfg.AI.RequestsPerMinute, cfg.AI.Burst)
	go c.AILimiter.RunCleanup(10*time.Minute, c.stopCleanup)

	return nil
}

// initRepositories khởi tạo repositories và đảm bảo indexes
func (c *Container) initRepositories() error {
	db := c.Mongo.DB

	c.UserRepo = userRepo.NewMongoRepository(db)
	c.TokenStore = userRepo.NewTokenStore(c.Redis)
	c.ProjectRepo = projectRepo.NewMongoRepository(db)
	c.CharacterRepo = characterRepo.NewMongoRepository(db)
	c.PlotRepo = plotRepo.NewMongoRepository(db)
	c.ChapterRepo = chapterRepo.NewMongoRepository(db)
	c.ExportRepo = exportRepo.NewMongoRepository(db)
	c.GenerationRepo = aiRepo.NewMongoRepository(db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	indexes := []struct {
		name   string
		ensure func(context.Context, *mongo.Database) error
	}{
		{"users", userRepo.EnsureIndexes},
		{"projects", projectRepo.EnsureIndexes},
		{"characters", characterRepo.EnsureIndexes},
		{"plots", plotRepo.EnsureIndexes},
		{"chapters", chapterRepo.EnsureIndexes},
		{"exports", exportRepo.EnsureIndexes},
		{"ai_generations", aiRepo.EnsureIndexes},
	}
	for _, idx := range indexes {
		if err := idx.ensure(ctx, db); err != nil {
			return fmt.Errorf("%s: %w", idx.name, err)
		}
	}
	log.Println("✅ Indexes ensured")
	return nil
}

// initServices khởi tạo tất cả services
func (c *Container) initServices() {
	cfg := c.Config

	c.Access = access.NewChecker(c.ProjectRepo)

	userOpts := userService.Options{
		ResetTokenTTL:    time.Duration(cfg.JWT.ResetTokenExpiry) * time.Minute,
		ExposeResetToken: cfg.IsDevelopment(),
	}
	if cfg.SMTP.Enabled {
		userOpts.Mailer = c.Queue
	}
	c.UserService = userService.NewService(c.UserRepo, c.TokenStore, c.JWTManager, c.Redis, userOpts)

	// Project delete cascade xóa mọi collection con trong một transaction
	c.ProjectService = projectService.NewService(
		c.ProjectRepo,
		c.Access,
		c.UserRepo,
		c.Tx,
		c.Storage,
		projectService.Child{Collection: "characters", Deleter: c.CharacterRepo},
		projectService.Child{Collection: "plots", Deleter: c.PlotRepo},
		projectService.Child{Collection: "chapters", Deleter: c.ChapterRepo},
		projectService.Child{Collection: "exports", Deleter: c.ExportRepo},
		projectService.Child{Collection: "ai_generations", Deleter: c.GenerationRepo},
	)

	c.CharacterService = characterService.NewService(c.CharacterRepo, c.Access, c.Tx)
	c.PlotService = plotService.NewService(c.PlotRepo, c.Access)
	c.ChapterService = chapterService.NewService(c.ChapterRepo, c.Access, c.Tx)

	c.ExportService = exportService.NewService(c.ExportRepo, c.Access, c.ChapterRepo, c.Queue, c.Storage, exportService.Options{
		ProcessDelay: cfg.Export.ProcessDelay,
		DownloadTTL:  cfg.Export.DownloadTTL,
	})
	c.ExportProcessor = exportService.NewProcessor(c.ExportRepo, c.Storage, c.Queue)

	c.AIService = aiService.NewService(
		c.GenerationRepo,
		c.Access,
		c.AIProvider,
		c.AILimiter,
		storage.NewImageProcessor(),
		c.Storage,
		c.CharacterRepo,
	)
}

func (c *Container) initProcedures() error {
	reg, err := procedure.NewRegistry(
		userHandler.NewHandler(c.UserService),
		projectHandler.NewHandler(c.ProjectService),
		characterHandler.NewHandler(c.CharacterService),
		plotHandler.NewHandler(c.PlotService),
		chapterHandler.NewHandler(c.ChapterService),
		exportHandler.NewHandler(c.ExportService),
		aiHandler.NewHandler(c.AIService),
	)
	if err != nil {
		return err
	}
	c.Registry = reg
	return nil
}

// ========================================
// WORKER WIRING
// ========================================

// RedisOpt là connection option dùng chung cho asynq server và scheduler
func (c *Container) RedisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     c.Config.Redis.Host,
		Password: c.Config.Redis.Password,
		DB:       c.Config.Redis.DB,
	}
}

// Cleanup dọn dẹp resources khi shutdown
func (c *Container) Cleanup() {
	log.Println("🧹 Cleaning up container resources...")

	select {
	case <-c.stopCleanup:
	default:
		close(c.stopCleanup)
	}

	if c.Queue != nil {
		if err := c.Queue.Close(); err != nil {
			log.Printf("⚠️  Failed to close asynq client: %v", err)
		}
	}

	if c.Mongo != nil && c.Mongo.Client != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := c.Mongo.Close(ctx); err != nil {
			log.Printf("⚠️  Failed to close MongoDB: %v", err)
		} else {
			log.Println("✅ MongoDB connections closed")
		}
	}

	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			log.Printf("⚠️  Failed to close Redis: %v", err)
		} else {
			log.Println("✅ Redis connections closed")
		}
	}

	log.Println("✅ Container cleanup completed")
}
