package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/avitalak/salon-api/internal/config"
	"github.com/avitalak/salon-api/internal/email"
	"github.com/avitalak/salon-api/internal/handler"
	appointmentHandler "github.com/avitalak/salon-api/internal/handler/appointment"
	authHandler "github.com/avitalak/salon-api/internal/handler/auth"
	serviceHandler "github.com/avitalak/salon-api/internal/handler/service"
	templateHandler "github.com/avitalak/salon-api/internal/handler/template"
	userHandler "github.com/avitalak/salon-api/internal/handler/user"
	waitlistHandler "github.com/avitalak/salon-api/internal/handler/waitlist"
	"github.com/avitalak/salon-api/internal/middleware"
	"github.com/avitalak/salon-api/internal/repository/postgres"
	"github.com/avitalak/salon-api/internal/router"
	appointmentService "github.com/avitalak/salon-api/internal/service/appointment"
	authService "github.com/avitalak/salon-api/internal/service/auth"
	catalogService "github.com/avitalak/salon-api/internal/service/catalog"
	notificationService "github.com/avitalak/salon-api/internal/service/notification"
	userService "github.com/avitalak/salon-api/internal/service/user"
	waitlistService "github.com/avitalak/salon-api/internal/service/waitlist"
	pkgauth "github.com/avitalak/salon-api/pkg/auth"
	"github.com/avitalak/salon-api/pkg/logger"
	"github.com/avitalak/salon-api/pkg/messaging/redis"
	"github.com/avitalak/salon-api/pkg/metrics"
	"github.com/avitalak/salon-api/pkg/worker"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{URL: cfg.Redis.URL}, &log.Logger)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer broker.Close()

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	serviceRepo := postgres.NewServiceRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)
	waitlistRepo := postgres.NewWaitlistRepository(db)
	templateRepo := postgres.NewTemplateRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	// Services
	sender := email.NewSMTPSender(cfg.SMTP)
	notifier := notificationService.NewService(templateRepo, sender, broker, &log.Logger)
	jwtManager := pkgauth.NewJWTManager(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	authSvc := authService.NewService(userRepo, jwtManager)
	userSvc := userService.NewService(userRepo)
	catalogSvc := catalogService.NewService(serviceRepo)
	waitlistSvc := waitlistService.NewService(waitlistRepo, userRepo, serviceRepo, notifier, &log.Logger)
	appointmentSvc := appointmentService.NewService(
		appointmentRepo, userRepo, catalogSvc, waitlistSvc, notifier,
		&log.Logger, cfg.Booking.HorizonDays,
	)
	templateAdmin := notificationService.NewTemplateAdmin(templateRepo)

	// HTTP layer
	authMiddleware := middleware.NewAuthMiddleware(authSvc)
	r := router.NewRouter(
		authMiddleware,
		handler.NewHealthHandler(db),
		authHandler.NewHandler(authSvc),
		serviceHandler.NewHandler(catalogSvc),
		appointmentHandler.NewHandler(appointmentSvc),
		waitlistHandler.NewHandler(waitlistSvc),
		userHandler.NewHandler(userSvc),
		templateHandler.NewHandler(templateAdmin),
		router.Config{
			RateLimit:     rate.Limit(cfg.Server.RateLimitRPS),
			RateBurst:     cfg.Server.RateLimitBurst,
			Timeout:       time.Duration(cfg.Server.TimeoutSeconds) * time.Second,
			CORSConfig:    middleware.DefaultCORSConfig(),
			MetricsPrefix: "salon_api",
		},
	)
	r.Setup()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Drain the outbox from the API process too, so events flow even when no
	// dedicated worker is running.
	outboxProcessor := worker.NewOutboxProcessor(
		outboxRepo, broker, worker.OutboxProcessorConfig{},
		logger.NewLogger(nil), metrics.NewMetrics("salon", "api"),
	)
	go outboxProcessor.Start(ctx)

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
