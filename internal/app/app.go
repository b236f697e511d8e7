package app

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"talentflow_backend/internal/cache"
	"talentflow_backend/internal/config"
	"talentflow_backend/internal/controller"
	"talentflow_backend/internal/middleware"
	"talentflow_backend/internal/repository"
	"talentflow_backend/internal/service"
	"talentflow_backend/internal/util"
	"talentflow_backend/pkg/configwatcher"
	"talentflow_backend/pkg/database"
	"talentflow_backend/pkg/logger"
	"talentflow_backend/pkg/monitoring"
	"talentflow_backend/pkg/security"
	"talentflow_backend/pkg/tracing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

type App struct {
	Config          *config.Config
	Router          *gin.Engine
	DB              *gorm.DB
	Redis           *redis.Client
	services        *services
	repos           *repositories
	tracer          *sdktrace.TracerProvider
	ctx             context.Context
	cancel          context.CancelFunc
	configCallbacks []func(*config.Config)
}

type repositories struct {
	assessment *repository.AssessmentRepository
	store      *repository.SimulatedStore
}

type services struct {
	sync       *service.SyncService
	hub        *service.SyncHub
	editor     *service.EditorService
	preview    *service.PreviewService
	assessment *service.AssessmentService
}

type controllers struct {
	assessment *controller.AssessmentController
	builder    *controller.BuilderController
	preview    *controller.PreviewController
	health     *controller.HealthController
}

func (a *App) RegisterConfigCallback(callback func(*config.Config)) {
	a.configCallbacks = append(a.configCallbacks, callback)
}

func (a *App) initRepositories(db *gorm.DB, cfg *config.Config) *repositories {
	assessments := repository.NewAssessmentRepository(db)
	return &repositories{
		assessment: assessments,
		store:      repository.NewSimulatedStore(assessments, cfg.Simulation),
	}
}

func (a *App) initServices(repos *repositories, cfg *config.Config, rdb *redis.Client) *services {
	s := &services{}

	s.hub = service.NewSyncHub(rdb)
	s.sync = service.NewSyncService(repos.store, s.hub, cfg.Sync)
	s.editor = service.NewEditorService(repos.store, s.sync)

	var sessions cache.SessionCache
	if rdb != nil {
		sessions = cache.NewRedisSessionCache(rdb, cfg.Preview.SessionTTL)
	} else {
		sessions = cache.NewMemorySessionCache(cfg.Preview.SessionTTL)
	}
	s.preview = service.NewPreviewService(s.editor, sessions, repos.store)
	s.assessment = service.NewAssessmentService(repos.store, repos.assessment, s.editor)

	return s
}

func (a *App) initControllers(s *services, repos *repositories) *controllers {
	return &controllers{
		assessment: controller.NewAssessmentController(s.assessment, s.editor, s.preview),
		builder:    controller.NewBuilderController(s.editor, s.sync, s.hub),
		preview:    controller.NewPreviewController(s.preview),
		health:     controller.NewHealthController(a.DB, a.Redis, s.sync, repos.store),
	}
}

func (a *App) setupMiddlewares(router *gin.Engine, cfg *config.Config) {
	router.Use(middleware.Recovery(), middleware.RequestLogger())
	router.Use(security.CORS(cfg.CORS.AllowedOrigins))
	router.Use(security.Secure())
	router.Use(security.RateLimiter(a.ctx, cfg.RateLimit.MaxRequests, time.Duration(cfg.RateLimit.WindowMinutes)*time.Minute))

	// 分布式追踪中间件
	if cfg.Tracing.Enabled {
		router.Use(tracing.GinMiddleware())
	}

	router.Use(monitoring.MetricsMiddleware())
}

func (a *App) startBackgroundTasks(s *services, repos *repositories) {
	go s.hub.Run(a.ctx)
	go s.sync.Run(a.ctx)

	// 网络模拟参数热更新
	a.RegisterConfigCallback(func(cfg *config.Config) {
		repos.store.Update(cfg.Simulation)
	})
	if a.Config.File == "" {
		return
	}
	go func() {
		err := configwatcher.WatchConfig(a.ctx, a.Config.File, func(cfg *config.Config) {
			for _, cb := range a.configCallbacks {
				cb(cfg)
			}
		})
		if err != nil {
			logger.Log.Error("Config watcher stopped", zap.Error(err))
		}
	}()
}

func NewApp(cfg *config.Config) *App {
	logger.InitLogger(cfg)

	logger.Log.Info("Logger initialized successfully")

	db, err := database.InitDB(&cfg.Database, cfg.Server.Mode, cfg.ForceMigrate)
	if err != nil {
		logger.Log.Fatal("Failed to initialize database", zap.Error(err))
		log.Fatalf("Failed to initialize database: %v", err)
	}

	var rdb *redis.Client
	if cfg.Redis.Enabled {
		rdb, err = database.InitRedis(&cfg.Redis)
		if err != nil {
			logger.Log.Fatal("Failed to initialize redis", zap.Error(err))
			log.Fatalf("Failed to initialize redis: %v", err)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	app := &App{
		Config: cfg,
		DB:     db,
		Redis:  rdb,
		ctx:    ctx,
		cancel: cancel,
	}
	if cfg.MigrateOnly {
		return app
	}

	repos := app.initRepositories(db, cfg)
	services := app.initServices(repos, cfg, rdb)
	app.repos = repos
	app.services = services
	controllers := app.initControllers(services, repos)

	// 监控初始化
	monitoring.Init()

	gin.SetMode(cfg.Server.Mode)
	router := gin.New()
	router.MaxMultipartMemory = util.MaxUploadMemory
	app.Router = router

	app.setupMiddlewares(router, cfg)

	if cfg.Tracing.Enabled {
		tp, err := tracing.InitTracer("talentflow-assessments", cfg.Tracing.CollectorEndpoint)
		if err != nil {
			logger.Log.Fatal("Failed to initialize tracing", zap.Error(err))
		}
		app.tracer = tp
	}

	app.registerRoutes(router, controllers)
	app.startBackgroundTasks(services, repos)

	return app
}

func (a *App) Run() {
	srv := &http.Server{
		Addr:    ":" + a.Config.Server.Port,
		Handler: a.Router,
	}

	// 启动服务器
	go func() {
		logger.Log.Info("Server running", zap.String("port", a.Config.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("listen failed", zap.Error(err))
		}
	}()

	// 等待中断信号优雅地关闭服务器
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}
	a.Close(ctx)

	logger.Log.Info("Server exiting")
}

// Close 停止后台任务，等待进行中的保存并释放连接。
// 之后仍未同步的文档会记录到日志
func (a *App) Close(ctx context.Context) {
	a.cancel()

	if a.services != nil {
		if err := a.services.sync.Wait(ctx); err != nil {
			logger.Log.Warn("In-flight saves did not finish", zap.Error(err))
		}
		for _, st := range a.services.sync.Unsynced() {
			logger.Log.Warn("Assessment not synced at shutdown",
				zap.String("job_id", st.JobID),
				zap.Int64("revision", st.Revision),
				zap.Int64("saved_revision", st.SavedRevision),
			)
		}
	}

	if a.tracer != nil {
		if err := a.tracer.Shutdown(ctx); err != nil {
			logger.Log.Error("Failed to shutdown tracer provider", zap.Error(err))
		}
	}
	if a.Redis != nil {
		_ = a.Redis.Close()
	}
	if sqlDB, err := a.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	logger.Sync()
}
