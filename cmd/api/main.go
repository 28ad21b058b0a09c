package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata" // TIMEZONE must resolve on hosts without zoneinfo

	// Application Layer
	appService "subtrack/internal/application/service"
	"subtrack/internal/config"

	// Infrastructure Layer
	"subtrack/internal/infrastructure/database/sqlite"
	lineClient "subtrack/internal/infrastructure/line"
	"subtrack/internal/infrastructure/lock"
	"subtrack/internal/infrastructure/mail"
	"subtrack/internal/infrastructure/metrics"
	"subtrack/internal/infrastructure/scheduler"

	// Interfaces Layer
	"subtrack/internal/interfaces/api/handler"
	"subtrack/internal/interfaces/api/router"

	// Packages
	appLogger "subtrack/internal/pkg/logger"

	_ "github.com/joho/godotenv/autoload" // Automatically load .env file
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

// gracefulShutdown waits for ctx to end, then stops the scheduler, the HTTP
// server and the store in that order.
func gracefulShutdown(ctx context.Context, apiServer *http.Server, schedulerService appService.SchedulerService, conn *sqlite.Connection, log appLogger.Logger) error {
	<-ctx.Done()

	log.Info("Shutting down gracefully, press Ctrl+C again to force")

	// Stop the scheduler first; this waits for running jobs.
	log.Info("Stopping scheduler...")
	schedulerService.Stop()
	log.Info("Scheduler stopped.")

	// The context is used to inform the server it has 5 seconds to finish
	// the request it is currently handling
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err)
	}

	log.Info("Closing database connection...")
	if err := conn.Close(); err != nil {
		log.Error("Error closing database", err)
		return err
	}
	log.Info("Database connection closed.")
	return nil
}

func newMailTransport(ctx context.Context, cfg *config.Config, log appLogger.Logger) (appService.MailTransport, error) {
	switch cfg.MailProvider {
	case config.MailProviderSMTP:
		return mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.MailFrom,
			FromName: cfg.MailFromName,
		}, log), nil
	case config.MailProviderSES:
		sender, err := mail.NewSESSender(ctx, mail.SESConfig{
			Region:    cfg.SESRegion,
			AccessKey: cfg.SESAccessKey,
			SecretKey: cfg.SESSecretKey,
			From:      cfg.MailFrom,
			FromName:  cfg.MailFromName,
		}, log)
		if err != nil {
			return nil, err
		}
		return sender, nil
	default:
		log.Warn("MAIL_PROVIDER is log; reminders will be written to the log instead of being sent")
		return mail.NewLogSender(log), nil
	}
}

func newAlerter(cfg *config.Config, log appLogger.Logger) (appService.Alerter, error) {
	if !cfg.LineAlertsEnabled() {
		log.Warn("ADMIN_LINE_USER_ID not set. Operator alerts go to the error log.")
		return appService.NewLogAlerter(log), nil
	}
	client, err := lineClient.NewClient(cfg.LineChannelSecret, cfg.LineChannelAccessToken, cfg.AdminLineUserID, log)
	if err != nil {
		return nil, err
	}
	return client, nil
}

func newJobLocker(ctx context.Context, cfg *config.Config, log appLogger.Logger) (appService.JobLocker, func() error, error) {
	if cfg.RedisURL == "" {
		log.Info("REDIS_URL not set, scheduled jobs run without cross-process locks.")
		return nil, func() error { return nil }, nil
	}
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		// Jobs still run when Redis is down; the locker reports the error per run.
		log.Warn(fmt.Sprintf("Redis not reachable at startup: %v", err))
	}
	return lock.NewRedisLocker(client), client.Close, nil
}

func main() {
	// --- Initialization ---
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "🔴 ERROR: invalid configuration:\n%v\n", err)
		os.Exit(1)
	}
	appLog := appLogger.New(cfg.LogLevel)
	appLog.Info("Logger initialized.")

	loc, _ := cfg.Location() // validated by LoadConfig
	ctx := context.Background()

	// --- Infrastructure ---
	conn, err := sqlite.Open(cfg.DatabaseURL, cfg.DBLogSQL, appLog)
	if err != nil {
		appLog.Error("Failed to open database", err)
		os.Exit(1)
	}
	userRepo := sqlite.NewUserRepository(conn.DB())
	subRepo := sqlite.NewSubscriptionRepository(conn.DB(), appLog)
	logRepo := sqlite.NewReminderLogRepository(conn.DB(), loc)
	appLog.Info("Database and repositories initialized.")

	transport, err := newMailTransport(ctx, cfg, appLog)
	if err != nil {
		appLog.Error("Failed to initialize mail transport", err)
		os.Exit(1)
	}
	alerter, err := newAlerter(cfg, appLog)
	if err != nil {
		appLog.Error("Failed to initialize LINE alerter", err)
		os.Exit(1)
	}
	locker, closeLocker, err := newJobLocker(ctx, cfg, appLog)
	if err != nil {
		appLog.Error("Failed to initialize job locker", err)
		os.Exit(1)
	}
	defer func() { _ = closeLocker() }()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	cronScheduler := scheduler.NewScheduler(loc, appLog)

	// --- Application Services ---
	composer, err := appService.NewMessageComposer(cfg.DashboardURL)
	if err != nil {
		appLog.Error("Failed to parse email templates", err)
		os.Exit(1)
	}
	notifier := metrics.NewNotifier(appService.NewNotifier(composer, transport, appLog), registry)

	userSvc := appService.NewUserService(userRepo, appLog)
	subscriptionSvc := appService.NewSubscriptionService(subRepo, logRepo, appLog)
	reminderSvc := appService.NewReminderService(subRepo, logRepo, notifier, alerter, appService.ReminderOptions{
		BatchSize:   cfg.BatchSize,
		BatchDelay:  cfg.BatchDelay,
		SendTimeout: cfg.SendTimeout,
		Location:    loc,
	}, appLog)
	schedulerSvc := appService.NewSchedulerService(cronScheduler, reminderSvc, locker, appService.ScheduleConfig{
		ReminderSpec:  cfg.ReminderSchedule,
		OverdueSpec:   cfg.OverdueSchedule,
		CleanupSpec:   cfg.CleanupSchedule,
		LookaheadDays: cfg.LookaheadDays,
		RetentionDays: cfg.LogRetentionDays,
		PassTimeout:   cfg.PassTimeout,
	}, appLog)
	appLog.Info("Application services initialized.")

	// --- Initialize Schedules ---
	if err := schedulerSvc.Start(ctx); err != nil {
		appLog.Error("Failed to start scheduler", err)
		os.Exit(1)
	}
	for name, next := range schedulerSvc.NextRuns() {
		appLog.Info(fmt.Sprintf("Job %s next runs at %s", name, next.Format(time.RFC3339)))
	}

	// --- Router ---
	echoRouter := router.NewRouter(&router.Config{
		SubscriptionHandler: handler.NewSubscriptionHandler(subscriptionSvc, appLog),
		UserHandler:         handler.NewUserHandler(userSvc, appLog),
		HealthHandler:       handler.NewHealthHandler(conn, schedulerSvc, appLog),
		Auth:                handler.NewAuthMiddleware(userSvc, appLog),
		Gatherer:            registry,
		Logger:              appLog,
	})

	// --- HTTP Server ---
	apiServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      echoRouter,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// --- Start Server & Shutdown Handling ---
	// Shutdown starts on SIGINT/SIGTERM or when the server fails.
	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(sigCtx)

	g.Go(func() error {
		appLog.Info(fmt.Sprintf("Server starting on port %d", cfg.Port))
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		return gracefulShutdown(gctx, apiServer, schedulerSvc, conn, appLog)
	})

	if err := g.Wait(); err != nil {
		appLog.Error("Server exited with error", err)
		os.Exit(1)
	}
	appLog.Info("Graceful shutdown complete.")
}
