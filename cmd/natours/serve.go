package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	configs "github.com/natours/api/config"
	"github.com/natours/api/internal/handler"
	"github.com/natours/api/internal/jobs"
	"github.com/natours/api/internal/middleware"
	"github.com/natours/api/internal/repository"
	"github.com/natours/api/internal/router"
	"github.com/natours/api/internal/service"
	"github.com/natours/api/pkg/cache"
	"github.com/natours/api/pkg/circuit"
	"github.com/natours/api/pkg/database"
	"github.com/natours/api/pkg/logger"
	"github.com/natours/api/pkg/mailer"
	"github.com/natours/api/pkg/metrics"
	"github.com/natours/api/pkg/redis"
	"go.uber.org/zap"
)

func serve(ctx context.Context, config *configs.Config, migrate bool) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.GetLogger().Info("Application starting",
		zap.String("app_name", config.App.Name),
		zap.String("environment", config.App.Environment),
	)

	db, err := openDB(config)
	if err != nil {
		return err
	}
	defer database.CloseDB(db)

	if migrate {
		if err := database.AutoMigrate(db); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.GetLogger().Info("Database migrated successfully")
	}

	// Redis when configured and reachable, the in-process cache otherwise.
	var (
		store  service.Cache
		pinger handler.Pinger
	)
	if config.Redis.Enabled {
		client, err := redis.NewClient(config)
		if err != nil {
			logger.GetLogger().Warn("Redis unavailable, using in-memory cache", zap.Error(err))
		} else {
			defer client.Close()
			breaker := circuit.NewBreaker("redis", circuit.Config{
				Threshold:        config.Redis.BreakerThreshold,
				Cooldown:         config.Redis.BreakerCooldown,
				SuccessThreshold: 2,
				MaxHalfOpen:      1,
			}, logger.GetLogger(), circuit.WithStateChange(func(name string, _, to circuit.State) {
				metrics.BreakerState(name, int(to))
			}))
			store, pinger = service.NewGuardedCache(client, breaker), client
		}
	}
	if store == nil {
		mem := cache.NewCache(time.Minute)
		defer mem.Close()
		store = mem
	}

	// Repositories
	tourRepo := repository.NewTourRepository(db)
	userRepo := repository.NewUserRepository(db)
	reviewRepo := repository.NewReviewRepository(db)

	// Services
	tokens, err := service.NewTokenService(config.JWT.Secret, config.JWT.ExpiresIn)
	if err != nil {
		return err
	}
	mail, err := mailer.New(config.Mail.From, mailer.LogSender{})
	if err != nil {
		return err
	}
	cacheService := service.NewCacheService(store, config.Redis.CacheTTL)
	authService := service.NewAuthService(userRepo, tokens, mail, config.App.BaseURL)
	tourService := service.NewTourService(tourRepo, cacheService)
	reviewService := service.NewReviewService(reviewRepo, tourRepo, cacheService)
	userService := service.NewUserService(userRepo, cacheService)

	// Middleware
	limiter := middleware.NewRateLimiter(config.RateLimit.MaxRequests, config.RateLimit.Window)

	engine := router.NewRouter(
		handler.NewTourHandler(tourService),
		handler.NewUserHandler(userService),
		handler.NewReviewHandler(reviewService),
		handler.NewAuthHandler(authService, config.JWT.CookieExpiresIn),
		handler.NewCacheHandler(cacheService),
		handler.NewHealthHandler(db, pinger),

		middleware.NewValidationMiddleware(),
		middleware.NewAuthenticator(tokens, userRepo),
		limiter,
		config,
	).SetupRoutes()

	scheduler := jobs.NewScheduler()
	if err := scheduler.Add(config.Jobs.CleanupSchedule, jobs.JobResetTokenCleanup,
		jobs.ResetTokenCleanup(userRepo, time.Now)); err != nil {
		return fmt.Errorf("schedule %s: %w", jobs.JobResetTokenCleanup, err)
	}
	if err := scheduler.Add(fmt.Sprintf("@every %s", config.RateLimit.Window), jobs.JobRateLimitSweep,
		jobs.RateLimitSweep(limiter)); err != nil {
		return fmt.Errorf("schedule %s: %w", jobs.JobRateLimitSweep, err)
	}
	scheduler.Start()

	server := &http.Server{
		Addr:              ":" + config.App.Port,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.GetLogger().Info("Server starting", zap.String("port", config.App.Port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("server: %w", err)
		}
	case <-ctx.Done():
	}

	logger.GetLogger().Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	scheduler.Stop(shutdownCtx)
	return server.Shutdown(shutdownCtx)
}
