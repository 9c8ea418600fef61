package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/casebuddy/casebuddy-api/api/swagger"
	"github.com/casebuddy/casebuddy-api/internal/handler"
	internalmiddleware "github.com/casebuddy/casebuddy-api/internal/middleware"
	"github.com/casebuddy/casebuddy-api/internal/models"
	"github.com/casebuddy/casebuddy-api/internal/repository"
	"github.com/casebuddy/casebuddy-api/internal/search"
	"github.com/casebuddy/casebuddy-api/internal/service"
	"github.com/casebuddy/casebuddy-api/pkg/ai"
	"github.com/casebuddy/casebuddy-api/pkg/cache"
	"github.com/casebuddy/casebuddy-api/pkg/config"
	"github.com/casebuddy/casebuddy-api/pkg/database"
	"github.com/casebuddy/casebuddy-api/pkg/export"
	"github.com/casebuddy/casebuddy-api/pkg/extract"
	"github.com/casebuddy/casebuddy-api/pkg/jobs"
	"github.com/casebuddy/casebuddy-api/pkg/logger"
	corsmiddleware "github.com/casebuddy/casebuddy-api/pkg/middleware/cors"
	reqidmiddleware "github.com/casebuddy/casebuddy-api/pkg/middleware/requestid"
	"github.com/casebuddy/casebuddy-api/pkg/storage"
)

// @title CaseBuddy API
// @version 1.0.0
// @description Case management, AI legal analytics, document search and billing for law practices.
// @BasePath /api
// @schemes http https
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

const (
	shutdownTimeout     = 15 * time.Second
	exportPurgeInterval = 30 * time.Minute
)

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

	if err := run(cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(cfg *config.Config, logr *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db); err != nil {
			return fmt.Errorf("migrate database: %w", err)
		}
	}

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	completer, closeAI, err := ai.New(ctx, cfg.AI.APIKey, func(ctx context.Context) (*ai.GeminiCompleter, error) {
		return ai.NewGeminiCompleter(ctx, cfg.AI)
	})
	if err != nil {
		return fmt.Errorf("init ai client: %w", err)
	}
	defer closeAI() //nolint:errcheck
	if cfg.AI.APIKey == "" {
		logr.Warn("AI_API_KEY not set; AI features run in demo mode")
	}

	documentStore, err := storage.NewDocumentStore(ctx, cfg.Documents)
	if err != nil {
		return fmt.Errorf("init document storage: %w", err)
	}
	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return fmt.Errorf("init export storage: %w", err)
	}

	metrics := service.NewMetricsService()
	completer = ai.Instrument(completer, metrics)
	validate := validator.New()

	users := repository.NewUserRepository(db)
	cases := repository.NewCaseRepository(db)
	motions := repository.NewMotionRepository(db)
	deadlines := repository.NewDeadlineRepository(db)
	coupons := repository.NewCouponRepository(db)

	cacheSvc := service.NewCacheService(repository.NewCacheRepository(redisClient), metrics, cfg.Dashboard.CacheTTL, logr, redisClient != nil)
	authSvc := service.NewAuthService(users, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
		TrialDays:          cfg.Subscription.TrialDays,
	})
	couponSvc := service.NewCouponService(coupons, validate, logr)
	subscriptionSvc := service.NewSubscriptionService(service.SubscriptionParams{
		Users:      users,
		Coupons:    couponSvc,
		Validator:  validate,
		Logger:     logr,
		TrialDays:  cfg.Subscription.TrialDays,
		PeriodDays: cfg.Subscription.PeriodDays,
	})
	caseSvc := service.NewCaseService(cases, cacheSvc, validate, logr)
	motionSvc := service.NewMotionService(motions, cases, cacheSvc, validate, logr)
	deadlineSvc := service.NewDeadlineService(service.DeadlineParams{
		Repo: deadlines, Cases: cases, Cache: cacheSvc, Validator: validate, Logger: logr,
	})
	dashboardSvc := service.NewDashboardService(service.DashboardServiceParams{
		Cases:     cases,
		Motions:   motions,
		Deadlines: deadlines,
		Cache:     cacheSvc,
		Logger:    logr,
		Config:    service.DashboardServiceConfig{CacheTTL: cfg.Dashboard.CacheTTL},
	})
	exportSvc := service.NewExportService(service.ExportParams{
		Cases:     cases,
		Deadlines: deadlines,
		Store:     exportStore,
		Signer:    storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL),
		CSV:       export.NewCSVExporter(),
		PDF:       export.NewPDFExporter(),
		Logger:    logr,
		Config:    service.ExportConfig{APIPrefix: cfg.APIPrefix, ResultTTL: cfg.Exports.SignedURLTTL},
	})
	analyticsSvc := service.NewLegalAnalyticsService(completer, validate, logr)
	briefSvc := service.NewBriefService(completer, exportSvc, validate, logr)
	researchSvc := service.NewPrecedentResearchService(completer, validate, logr)
	searchSvc := service.NewSearchService(service.SearchServiceParams{
		Index:     search.NewIndex(),
		Store:     documentStore,
		Cases:     cases,
		Completer: completer,
		Metrics:   metrics,
		Validator: validate,
		Logger:    logr,
	})

	ocrParams := service.OCRServiceParams{
		Store:       documentStore,
		Extractor:   extract.New(cfg.Extract, extract.WithObserver(metrics), extract.WithLogger(logr)),
		Completer:   completer,
		Catalog:     searchSvc,
		Cases:       cases,
		Validator:   validate,
		Logger:      logr,
		MaxFileSize: cfg.Documents.MaxFileSizeBytes,
	}
	ocrWorker := service.NewOCRWorker(ocrParams)
	ocrQueue := jobs.NewQueue(service.JobTypeOCR, ocrWorker.Handle, jobs.QueueConfig{
		Workers:    cfg.Documents.Workers,
		MaxRetries: cfg.Documents.WorkerRetries,
		OnFailure:  ocrWorker.Fail,
		Logger:     logr,
	})
	ocrQueue.Start(ctx)
	defer ocrQueue.Stop()
	ocrParams.Queue = ocrQueue
	ocrSvc := service.NewOCRService(ocrParams)

	transcriptionSvc := service.NewTranscriptionService(&http.Client{Timeout: 2 * time.Minute}, service.TranscriptionConfig{
		BaseURL:      cfg.Transcription.BaseURL,
		APIToken:     cfg.Transcription.APIToken,
		PollInterval: cfg.Transcription.PollInterval,
		MaxPolls:     cfg.Transcription.MaxPolls,
		MaxFileSize:  cfg.Documents.MaxFileSizeBytes,
	}, logr)
	if transcriptionSvc.Demo() {
		logr.Warn("TRANSCRIPTION_API_TOKEN not set; transcription returns a demo transcript")
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metrics))
	r.Use(internalmiddleware.WithResponseMeta())

	health := handler.NewMetricsHandler(metrics, readinessChecks(db, redisClient))
	r.GET("/health", health.Health)
	r.GET("/ready", health.Ready)
	r.GET("/metrics", health.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:          handler.NewAuthHandler(authSvc, handler.CookieConfig{Name: cfg.JWT.CookieName, Secure: cfg.Env == config.EnvProduction}),
		Subscription:  handler.NewSubscriptionHandler(subscriptionSvc),
		Coupons:       handler.NewCouponHandler(couponSvc),
		Cases:         handler.NewCaseHandler(caseSvc),
		Motions:       handler.NewMotionHandler(motionSvc),
		Deadlines:     handler.NewDeadlineHandler(deadlineSvc),
		Dashboard:     handler.NewDashboardHandler(dashboardSvc),
		Exports:       handler.NewExportHandler(exportSvc),
		Analytics:     handler.NewAnalyticsHandler(analyticsSvc),
		Briefs:        handler.NewBriefHandler(briefSvc),
		Documents:     handler.NewDocumentHandler(ocrSvc, searchSvc, cfg.Documents.MaxFileSizeBytes),
		Research:      handler.NewResearchHandler(researchSvc),
		Transcription: handler.NewTranscriptionHandler(transcriptionSvc, cfg.Documents.MaxFileSizeBytes),
	}, handler.RouteMiddleware{
		Authenticate: internalmiddleware.JWT(authSvc, cfg.JWT.CookieName),
		Identify:     internalmiddleware.OptionalJWT(authSvc, cfg.JWT.CookieName),
		RequireAdmin: internalmiddleware.RequireRoles(models.RoleAdmin),
		Subscription: internalmiddleware.SubscriptionGate(subscriptionSvc, cfg.Subscription.GateEnabled && !cfg.IsDevelopment()),
		Audit: func(action, resource string) gin.HandlerFunc {
			return internalmiddleware.Audit(users, logr, action, resource)
		},
	})

	go purgeExports(ctx, exportSvc, logr)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func readinessChecks(db *sqlx.DB, redisClient *redis.Client) map[string]handler.Pinger {
	checks := map[string]handler.Pinger{
		"database": handler.PingerFunc(db.PingContext),
	}
	if redisClient != nil {
		checks["redis"] = handler.PingerFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}
	return checks
}

func purgeExports(ctx context.Context, exports *service.ExportService, logr *zap.Logger) {
	ticker := time.NewTicker(exportPurgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := exports.PurgeExpired(); removed > 0 {
				logr.Info("purged expired exports", zap.Int("count", removed))
			}
		}
	}
}
