package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vitor-labes/catalogue-scraper/internal/config"
	"github.com/vitor-labes/catalogue-scraper/internal/domain"
	"github.com/vitor-labes/catalogue-scraper/internal/metrics"
	"github.com/vitor-labes/catalogue-scraper/internal/queue"
	"github.com/vitor-labes/catalogue-scraper/internal/repository"
)

func main() {
	cfg, err := config.Load(os.Getenv("CONFIG_FILE"))
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	}))
	slog.SetDefault(logger)

	// Metrics
	go func() {
		slog.Info("starting metrics server", "addr", cfg.MetricsAddr)
		if err := metrics.StartMetricsServer(cfg.MetricsAddr); err != nil {
			log.Fatalf("failed to start metrics server: %v", err)
		}
	}()

	slog.Info("starting consumer",
		"queue", cfg.QueueName,
	)

	repo, err := repository.NewProductRepository(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer repo.Close()

	handler := func(ctx context.Context, product domain.Product) error {
		startTime := time.Now()

		err := repo.Save(ctx, product)

		duration := time.Since(startTime).Seconds()
		metrics.MessageProcessingDuration.Observe(duration)

		if err != nil {
			metrics.MessagesProcessed.WithLabelValues("error").Inc()
			metrics.DatabaseInserts.WithLabelValues("error").Inc()
			return err
		}

		metrics.MessagesProcessed.WithLabelValues("success").Inc()
		metrics.DatabaseInserts.WithLabelValues("success").Inc()
		return nil
	}

	consumer, err := queue.NewConsumer(cfg.RabbitMQURL, cfg.QueueName, handler)
	if err != nil {
		log.Fatalf("failed to create consumer: %v", err)
	}
	defer consumer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- consumer.Start(ctx)
	}()

	select {
	case sig := <-sigChan:
		slog.Info("signal received, shutting down", "signal", sig)
		cancel()
	case err := <-errChan:
		if err != nil && err != context.Canceled {
			log.Fatalf("consumer error: %v", err)
		}
	}

	slog.Info("consumer stopped")
}
