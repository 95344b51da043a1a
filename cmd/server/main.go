package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/AnshRaj112/blog-backend/internal/config"
	"github.com/AnshRaj112/blog-backend/internal/database"
	"github.com/AnshRaj112/blog-backend/internal/handlers"
	"github.com/AnshRaj112/blog-backend/internal/logger"
	"github.com/AnshRaj112/blog-backend/internal/middleware"
	"github.com/AnshRaj112/blog-backend/internal/routes"
	"github.com/AnshRaj112/blog-backend/internal/services"
)

const shutdownTimeout = 15 * time.Second

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}
	cfg := config.Load()
	appLogger := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(appLogger)

	if err := run(cfg, appLogger); err != nil {
		appLogger.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.ConnectPostgres(ctx, cfg.PostgresURI, logger)
	if err != nil {
		return err
	}
	defer db.Close()

	rdb, err := database.ConnectRedis(ctx, cfg.RedisURI, logger)
	if err != nil {
		return err
	}
	defer rdb.Close()

	// The SMS audit log is optional.
	var smsLog services.SMSLogStore
	if cfg.MongoURI != "" {
		mongoClient, mongoDB, err := database.ConnectMongo(ctx, cfg.MongoURI, logger)
		if err != nil {
			logger.Warn("MongoDB unavailable, SMS audit log disabled", "err", err)
		} else {
			defer database.DisconnectMongo(mongoClient)
			store := services.NewMongoSMSLogStore(mongoDB)
			if err := store.EnsureIndexes(ctx); err != nil {
				logger.Warn("failed to ensure sms log indexes", "err", err)
			}
			smsLog = store
		}
	}

	var images services.ImageStore
	if cfg.UploadsEnabled() {
		cld, err := services.NewCloudinaryService(cfg.CloudinaryName, cfg.CloudinaryAPIKey, cfg.CloudinaryAPISecret)
		if err != nil {
			logger.Warn("failed to initialize Cloudinary, uploads disabled", "err", err)
		} else {
			images = cld
			logger.Info("Cloudinary service initialized")
		}
	} else {
		logger.Warn("Cloudinary credentials not found, uploads disabled")
	}

	smsClient := services.NewTemplateSMSClient(cfg.SMSAPIURL, cfg.SMSAPIKey, cfg.SMSDryRun, logger)
	if smsClient.DryRun() {
		logger.Warn("SMS dry run enabled, codes are logged instead of sent")
	}

	verifier := services.NewVerificationService(rdb, services.NewDigitCaptcha(), smsClient, services.VerificationOptions{
		TemplateID: cfg.SMSTemplateID,
		TTL:        cfg.VerifyCodeTTL,
		SMSLog:     smsLog,
	}, logger)
	sessions := services.NewSessionService(rdb)
	articles := services.NewArticleService(db, services.NewCacheService(rdb), logger)

	hub := services.NewCommentHub(rdb, logger)
	hub.Start(ctx)

	h := handlers.New(handlers.Deps{
		Config:   cfg,
		Verifier: verifier,
		Sessions: sessions,
		Users:    services.NewUserService(db),
		Articles: articles,
		Images:   images,
		Comments: hub,
		Logger:   logger,
	})

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.RequestMetrics)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders → HostCheck → GlobalRateLimit → LoginRateLimit.
	// Non-production: Redis-based rate limit only.
	if cfg.IsProduction() {
		for _, mw := range middleware.ProductionSecurity(cfg.AllowedHost) {
			r.Use(mw)
		}
		logger.Info("production security enabled", "allowed_host", cfg.AllowedHost)
	} else {
		r.Use(middleware.NewRedisRateLimiter(rdb, logger).Middleware)
	}
	r.Use(middleware.LoadSession(sessions, logger))

	routes.SetupRoutes(r, h, middleware.NewSMSCodeLimiter())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("blog backend running", "port", cfg.Port, "env", cfg.Environment)
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

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
