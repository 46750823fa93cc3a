package main

import (
	"context"
	"fmt"
	"log"
	"net/http/pprof"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/arka-widjaja/timetable-engine/api/swagger"
	internalhandler "github.com/arka-widjaja/timetable-engine/internal/handler"
	internalmiddleware "github.com/arka-widjaja/timetable-engine/internal/middleware"
	"github.com/arka-widjaja/timetable-engine/internal/models"
	"github.com/arka-widjaja/timetable-engine/internal/repository"
	"github.com/arka-widjaja/timetable-engine/internal/service"
	"github.com/arka-widjaja/timetable-engine/pkg/cache"
	"github.com/arka-widjaja/timetable-engine/pkg/config"
	"github.com/arka-widjaja/timetable-engine/pkg/database"
	"github.com/arka-widjaja/timetable-engine/pkg/jobs"
	"github.com/arka-widjaja/timetable-engine/pkg/logger"
	corsmiddleware "github.com/arka-widjaja/timetable-engine/pkg/middleware/cors"
	reqidmiddleware "github.com/arka-widjaja/timetable-engine/pkg/middleware/requestid"
	"github.com/arka-widjaja/timetable-engine/pkg/storage"
)

// @title Timetable Engine API
// @version 0.1.0
// @description Constraint-driven academic timetable generation service
// @BasePath /
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	metricsSvc := service.NewMetricsService()
	metricsHandler := internalhandler.NewMetricsHandler(metricsSvc)

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to initialise audit database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("proposal cache disabled", "error", err)
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	fileStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	exportSigner := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	auditRepo := repository.NewRunAuditRepository(db)
	proposalCache := repository.NewProposalCacheRepository(redisClient, cfg.Scheduler.CacheTTL, metricsSvc, logr)

	generatorSvc := service.NewScheduleGeneratorService(logr)
	feasibilitySvc := service.NewFeasibilityService()
	relaxationSvc := service.NewRelaxationService()
	partialSvc := service.NewPartialScheduleService(feasibilitySvc, relaxationSvc)
	conflictSvc := service.NewConflictService()
	adjustmentSvc := service.NewManualAdjustmentService(conflictSvc)

	appSvc := service.NewSchedulerAppService(
		generatorSvc,
		feasibilitySvc,
		relaxationSvc,
		partialSvc,
		conflictSvc,
		adjustmentSvc,
		auditRepo,
		metricsSvc,
		logr,
	)

	tokens := service.NewTokenService(cfg.JWT)

	workers := cfg.Jobs.WorkerConcurrency
	if workers <= 0 {
		workers = 1
	}
	queueCfg := jobs.QueueConfig{
		Workers:    workers,
		BufferSize: cfg.Jobs.QueueSize,
		MaxRetries: cfg.Jobs.WorkerRetries,
		RetryDelay: 5 * time.Second,
		Logger:     logr,
	}
	generationJobs := internalhandler.NewGenerationJobRunner(appSvc, proposalCache, logr)
	queueCtx, cancelQueue := context.WithCancel(context.Background())
	jobQueue := jobs.NewQueue("schedule-generation", generationJobs.Handle, queueCfg)
	jobQueue.Start(queueCtx)
	defer func() {
		cancelQueue()
		jobQueue.Stop()
	}()

	exportHandler := internalhandler.NewExportHandler(fileStore, exportSigner, cfg.APIPrefix, nil)
	schedulerHandler := internalhandler.NewScheduleGeneratorHandler(appSvc, nil)
	asyncHandler := internalhandler.NewAsyncGenerationHandler(jobQueue, proposalCache)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Health)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
		registerPprof(r)
	}

	api := r.Group(cfg.APIPrefix)

	authRoutes := api.Group("/auth")
	authHandler := internalhandler.NewAuthHandler(tokens, nil)
	authRoutes.POST("/tokens", authHandler.IssueToken)

	secured := api.Group("/schedules")
	secured.Use(internalmiddleware.JWT(tokens))
	secured.Use(internalmiddleware.Audit(logr, "schedule"))

	secured.POST("/analyze", schedulerHandler.Analyze)
	secured.POST("/conflicts", schedulerHandler.Conflicts)
	secured.POST("/relaxation-plan", schedulerHandler.RelaxationPlan)

	mutating := secured.Group("")
	mutating.Use(internalmiddleware.RequireMutate())
	mutating.POST("/generate", schedulerHandler.Generate)
	mutating.POST("/generate/async", asyncHandler.Submit)
	mutating.GET("/generate/async/:jobId", asyncHandler.Status)
	mutating.POST("/relaxation-apply", schedulerHandler.RelaxationApply)
	mutating.POST("/partial", schedulerHandler.Partial)
	mutating.POST("/conflicts/resolve", schedulerHandler.ResolveConflicts)
	mutating.POST("/adjust", schedulerHandler.Adjust)
	mutating.POST("/export.pdf", exportHandler.SchedulePDF)
	mutating.POST("/export.csv", exportHandler.ScheduleCSV)

	api.GET("/exports/download", exportHandler.Download)

	admin := secured.Group("")
	admin.Use(internalmiddleware.RequireRole(models.RoleAdmin))
	admin.GET("/runs", internalhandler.NewAuditHandler(auditRepo).ListRecent)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}

func registerPprof(r *gin.Engine) {
	group := r.Group("/debug/pprof")
	group.GET("/", gin.WrapF(pprof.Index))
	group.GET("/cmdline", gin.WrapF(pprof.Cmdline))
	group.GET("/profile", gin.WrapF(pprof.Profile))
	group.POST("/symbol", gin.WrapF(pprof.Symbol))
	group.GET("/symbol", gin.WrapF(pprof.Symbol))
	group.GET("/trace", gin.WrapF(pprof.Trace))
	group.GET("/allocs", gin.WrapH(pprof.Handler("allocs")))
	group.GET("/block", gin.WrapH(pprof.Handler("block")))
	group.GET("/goroutine", gin.WrapH(pprof.Handler("goroutine")))
	group.GET("/heap", gin.WrapH(pprof.Handler("heap")))
	group.GET("/mutex", gin.WrapH(pprof.Handler("mutex")))
	group.GET("/threadcreate", gin.WrapH(pprof.Handler("threadcreate")))
}
