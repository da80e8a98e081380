package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/xavierca1/followup-core/internal/config"
	"github.com/xavierca1/followup-core/internal/infra/database"
	"github.com/xavierca1/followup-core/internal/infra/http/handlers"
	"github.com/xavierca1/followup-core/internal/infra/queue"
	"github.com/xavierca1/followup-core/internal/rules"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		l := config.NewLogger("info", "json")
		l.Fatal().Err(err).Msg("invalid configuration")
	}
	logger := config.NewLogger(cfg.LogLevel, cfg.LogFormat)
	loc, _ := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := database.NewDBConnection(cfg.DatabaseDriver, cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.DatabaseDriver).Msg("failed to open database")
	}
	defer conn.Close()

	a := newApp(cfg, conn, loc, logger)

	// 4. Reminder delivery: inline, or through RabbitMQ
	var (
		dispatcher  rules.Dispatcher = a.sendReminder
		queueHealth handlers.QueueHealth
	)
	if cfg.QueueEnabled {
		rabbitMQ, err := queue.NewRabbitMQ(cfg.RabbitMQURL)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to connect to rabbitmq")
		}
		defer rabbitMQ.Close()

		dispatcher = queue.NewProducer(rabbitMQ.Ch)
		queueHealth = rabbitMQ

		consumerCh, err := rabbitMQ.Conn.Channel()
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to open consumer channel")
		}
		reminderWorker := queue.NewWorker(consumerCh, a.sendReminder, logger)
		go func() {
			if err := reminderWorker.Start(ctx, queue.QueueName); err != nil {
				logger.Error().Err(err).Msg("reminder worker stopped")
			}
		}()
	}

	// 5. Scheduler
	if cfg.SchedulerEnabled {
		go a.scheduler(dispatcher, cfg.SchedulerInterval).Start(ctx)
	}

	// 6. HTTP
	router := a.router(cfg.CORSAllowedOrigins, queueHealth)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("🔥 follow-up API listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
}
