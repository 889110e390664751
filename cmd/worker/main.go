package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/kelseyhightower/envconfig"
	_ "github.com/lib/pq"
	"github.com/rs/zerolog/log"
	"go.uber.org/zap"

	appconfig "github.com/avitalak/salon-api/internal/config"
	"github.com/avitalak/salon-api/internal/email"
	"github.com/avitalak/salon-api/internal/repository/postgres"
	notificationService "github.com/avitalak/salon-api/internal/service/notification"
	reminderWorker "github.com/avitalak/salon-api/internal/worker"
	"github.com/avitalak/salon-api/pkg/logger"
	"github.com/avitalak/salon-api/pkg/messaging/redis"
	"github.com/avitalak/salon-api/pkg/metrics"
	"github.com/avitalak/salon-api/pkg/worker"
)

// workerConfig is environment-only: the worker ships as a sidecar container
// and has no config file.
type workerConfig struct {
	DatabaseURL         string        `envconfig:"DATABASE_URL" required:"true"`
	RedisURL            string        `envconfig:"REDIS_URL" required:"true"`
	SMTPHost            string        `envconfig:"SMTP_HOST" required:"true"`
	SMTPPort            int           `envconfig:"SMTP_PORT" default:"587"`
	SMTPUsername        string        `envconfig:"SMTP_USERNAME"`
	SMTPPassword        string        `envconfig:"SMTP_PASSWORD"`
	SMTPFrom            string        `envconfig:"SMTP_FROM" required:"true"`
	ReminderWindow      time.Duration `envconfig:"REMINDER_WINDOW" default:"24h"`
	OutboxBatchSize     int           `envconfig:"OUTBOX_BATCH_SIZE" default:"50"`
	OutboxPollInterval  time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"5s"`
	OutboxRetryAttempts int           `envconfig:"OUTBOX_RETRY_ATTEMPTS" default:"3"`
	HealthPort          string        `envconfig:"HEALTH_PORT" default:"8081"`
}

func main() {
	var cfg workerConfig
	if err := envconfig.Process("", &cfg); err != nil {
		log.Fatal().Err(err).Msg("failed to load worker configuration")
	}

	zlog, err := zap.NewProduction()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build logger")
	}
	defer zlog.Sync()

	db, err := sqlx.Connect("postgres", cfg.DatabaseURL)
	if err != nil {
		zlog.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	broker, err := redis.NewRedisBroker(redis.Config{URL: cfg.RedisURL}, &log.Logger)
	if err != nil {
		zlog.Fatal("failed to connect to Redis", zap.Error(err))
	}
	defer broker.Close()

	appointmentRepo := postgres.NewAppointmentRepository(db)
	userRepo := postgres.NewUserRepository(db)
	serviceRepo := postgres.NewServiceRepository(db)
	templateRepo := postgres.NewTemplateRepository(db)
	outboxRepo := postgres.NewOutboxRepository(db)

	sender := email.NewSMTPSender(appconfig.SMTPConfig{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.SMTPFrom,
	})
	notifier := notificationService.NewService(templateRepo, sender, broker, &log.Logger)

	m := metrics.NewMetrics("salon", "worker")

	outboxProcessor := worker.NewOutboxProcessor(
		outboxRepo, broker,
		worker.OutboxProcessorConfig{
			BatchSize:     cfg.OutboxBatchSize,
			PollInterval:  cfg.OutboxPollInterval,
			RetryAttempts: cfg.OutboxRetryAttempts,
		},
		logger.NewLogger(nil), m,
	)

	reminders := reminderWorker.NewReminderDispatcher(
		appointmentRepo, userRepo, serviceRepo, notifier,
		m, zlog, cfg.ReminderWindow,
	)

	startHealthCheck(cfg.HealthPort, zlog)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		zlog.Info("shutting down")
		cancel()
	}()

	go reminders.Start(ctx)
	outboxProcessor.Start(ctx)
}

func startHealthCheck(port string, zlog *zap.Logger) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	go func() {
		if err := http.ListenAndServe(":"+port, mux); err != nil {
			zlog.Error("health check server failed", zap.Error(err))
			os.Exit(1)
		}
	}()
}
