package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chart-registry/internal/config"
	"chart-registry/internal/messaging"
	"chart-registry/internal/observability"
)

func main() {
	cfg := config.Load()

	logLevel := os.Getenv("LOG_LEVEL")
	if logLevel == "" {
		logLevel = "info"
	}
	logFormat := os.Getenv("LOG_FORMAT")
	if logFormat == "" {
		logFormat = "json"
	}
	observability.InitLogger(logLevel, logFormat)

	slog.Info("starting session auditor")

	if cfg.RabbitMQURL == "" {
		slog.Error("RABBITMQ_URL is required for the session auditor")
		os.Exit(1)
	}

	rmqCtx, rmqCancel := context.WithTimeout(context.Background(), 60*time.Second)
	publisher, err := messaging.NewPublisherWithRetry(rmqCtx, cfg.RabbitMQURL)
	rmqCancel()
	if err != nil {
		slog.Error("failed to connect to rabbitmq", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer publisher.Close()
	slog.Info("connected to rabbitmq")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer := messaging.NewAuditConsumer(publisher)
	if err := consumer.Start(ctx); err != nil {
		slog.Error("failed to start audit consumer", slog.String("error", err.Error()))
		os.Exit(1)
	}
	slog.Info("audit consumer started")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	slog.Info("shutting down session auditor")
	cancel()

	time.Sleep(100 * time.Millisecond)

	slog.Info("session auditor stopped")
}
