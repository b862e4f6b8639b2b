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
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"feedback-moderation-server/cache"
	"feedback-moderation-server/config"
	"feedback-moderation-server/database"
	"feedback-moderation-server/jobs"
	"feedback-moderation-server/logging"
	"feedback-moderation-server/middleware"
	"feedback-moderation-server/repository"
	"feedback-moderation-server/routes"
	"feedback-moderation-server/services"
	"feedback-moderation-server/utils"
	ws "feedback-moderation-server/websocket"
)

func main() {
	if len(os.Args) > 1 && os.Args[1] == "hash-password" {
		if err := hashPassword(os.Args[2:]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
		return
	}

	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	provider, err := config.DefaultProvider(
		getEnv("SECRETS_DIR", "/run/secrets"),
		getEnv("CONFIG_FILE", "config.yaml"),
	)
	if err != nil {
		log.Fatal("Failed to read configuration: ", err)
	}
	cfg, err := config.Load(provider)
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}

	logger, err := logging.New(cfg.Server.Env, cfg.Server.LogLevel)
	if err != nil {
		log.Fatal("Failed to build logger: ", err)
	}
	defer logger.Sync()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Initialize(cfg.Database, logger)
	if err != nil {
		return err
	}
	repo := repository.NewGormFeedbackRepository(db)

	analysisCache, closeCache, err := newCache(ctx, cfg.Cache, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	classifier := services.NewCachedClassifier(
		services.NewContentSafetyClient(cfg.ContentSafety, logger), analysisCache, cfg.Cache.TTL)
	analyzer := services.NewCachedAnalyzer(
		services.NewTextAnalyticsClient(cfg.TextAnalytics, logger), analysisCache, cfg.Cache.TTL)

	hub := ws.NewHub(cfg.Server.AllowedOrigins, logger)
	go hub.Run(ctx)

	feedbackService := services.NewFeedbackService(repo, classifier, analyzer, hub, services.PipelineOptions{
		MinLength:       cfg.Pipeline.MinLength,
		MaxLength:       cfg.Pipeline.MaxLength,
		StoreRetryDelay: cfg.Pipeline.StoreRetryDelay,
	}, logger)
	reviewService := services.NewReviewService(repo, analyzer, hub, cfg.Pipeline.StoreRetryDelay, logger)
	dashboardService := services.NewDashboardService(repo)

	reviewJob := jobs.NewReviewQueueJob(reviewService, cfg.Pipeline.ReviewInterval, cfg.Pipeline.StaleAfter, logger)
	reviewJob.Start(ctx)
	defer reviewJob.Stop()

	limiter := middleware.NewRateLimiter()
	go sweepLimiters(ctx, limiter)

	gin.SetMode(cfg.Server.GinMode)
	router := routes.SetupRouter(routes.Dependencies{
		Config:    cfg,
		Feedback:  feedbackService,
		Review:    reviewService,
		Dashboard: dashboardService,
		Hub:       hub,
		Limiter:   limiter,
		Log:       logger,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting", zap.String("port", cfg.Server.Port), zap.String("env", cfg.Server.Env))
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
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	return nil
}

// newCache returns the analysis cache selected by cfg and a func releasing it
func newCache(ctx context.Context, cfg config.CacheConfig, logger *zap.Logger) (cache.Cache, func(), error) {
	switch cfg.Backend {
	case "redis":
		rc := cache.NewRedisCache(cache.RedisOptions{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := rc.Ping(pingCtx); err != nil {
			// Cache faults are served as misses.
			logger.Warn("redis unreachable at startup", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		} else {
			logger.Info("using redis analysis cache", zap.String("addr", cfg.RedisAddr))
		}
		return rc, func() { rc.Close() }, nil
	default:
		logger.Info("using in-memory analysis cache", zap.Duration("ttl", cfg.TTL))
		return cache.NewMemoryCache(cfg.TTL, 10*time.Minute), func() {}, nil
	}
}

func sweepLimiters(ctx context.Context, rl *middleware.RateLimiter) {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.Cleanup(30 * time.Minute)
		case <-ctx.Done():
			return
		}
	}
}

func hashPassword(args []string) error {
	if len(args) != 1 {
		return errors.New("usage: feedback-moderation-server hash-password <password>")
	}
	hash, err := utils.HashPassword(args[0])
	if err != nil {
		return err
	}
	fmt.Println(hash)
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
