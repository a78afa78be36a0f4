package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/medibook/appointment-scheduling/internal/config"
	"github.com/medibook/appointment-scheduling/internal/db"
	"github.com/medibook/appointment-scheduling/internal/logging"
	"github.com/medibook/appointment-scheduling/internal/mail"
	"github.com/medibook/appointment-scheduling/internal/scheduling"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.NewLogger(cfg.Env)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	logger.Info("reminder-worker starting up",
		zap.String("env", cfg.Env),
		zap.Duration("interval", cfg.ReminderInterval),
		zap.Duration("lead", cfg.ReminderLead),
	)

	if !cfg.MailEnabled() {
		logger.Fatal("SMTP_HOST is required for the reminder worker")
	}

	loc, err := cfg.Location()
	if err != nil {
		logger.Fatal("timezone error", zap.Error(err))
	}

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN, 4)
	cancelPg()
	if err != nil {
		logger.Fatal("postgres connection error", zap.Error(err))
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	notifier := mail.New(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.MailFrom)
	repo := scheduling.NewPgRepository(pgPool)
	scheduler := scheduling.NewScheduler(repo, notifier, nil, loc, logger)

	// Run once at startup
	runOnce(rootCtx, scheduler, cfg.ReminderLead, logger)

	ticker := time.NewTicker(cfg.ReminderInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rootCtx.Done():
			logger.Info("shutdown signal received, stopping reminder worker")
			return
		case <-ticker.C:
			runOnce(rootCtx, scheduler, cfg.ReminderLead, logger)
		}
	}
}

func runOnce(ctx context.Context, scheduler *scheduling.Scheduler, lead time.Duration, logger *zap.Logger) {
	runCtx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	start := time.Now()
	if err := scheduler.SendDueReminders(runCtx, lead); err != nil {
		logger.Error("reminder run error", zap.Error(err))
		return
	}
	logger.Info("reminder run complete", zap.Duration("took", time.Since(start)))
}
