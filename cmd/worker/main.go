package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cmlabs-hris/workforce-backend-go/internal/bootstrap"
	"github.com/cmlabs-hris/workforce-backend-go/internal/config"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/queue"
	scheduleService "github.com/cmlabs-hris/workforce-backend-go/internal/service/schedule"
	amqp "github.com/rabbitmq/amqp091-go"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}
	logger := bootstrap.NewLogger(cfg, "worker")

	if err := run(cfg, logger); err != nil {
		logger.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	if cfg.RabbitMQ.URL == "" {
		return fmt.Errorf("RABBITMQ_URL is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := bootstrap.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	engine := bootstrap.NewEngine(cfg, db)
	stopSweep := engine.StartSweep(ctx, cfg)
	defer stopSweep()

	conn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer conn.Close()

	consumer, err := queue.NewConsumer(conn, cfg.RabbitMQ.Queue, cfg.RabbitMQ.Prefetch)
	if err != nil {
		return err
	}
	defer consumer.Close()

	logger.Info("worker consuming", "queue", cfg.RabbitMQ.Queue, "prefetch", cfg.RabbitMQ.Prefetch)
	return consumer.Run(ctx, handleTask(engine.Recalculator, logger))
}

func handleTask(recalculator *scheduleService.Recalculator, logger *slog.Logger) queue.HandlerFunc {
	return func(ctx context.Context, body []byte) error {
		result, err := recalculator.HandleTask(ctx, body)
		if err != nil {
			return err
		}
		logger.Info("recalculation finished",
			"template_id", result.TemplateID,
			"date", result.Date,
			"processed", result.Processed,
			"updated", result.Updated,
			"failures", len(result.Failures),
		)
		return nil
	}
}
