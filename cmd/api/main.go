package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/cmlabs-hris/workforce-backend-go/internal/bootstrap"
	"github.com/cmlabs-hris/workforce-backend-go/internal/config"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/schedule"
	appHTTP "github.com/cmlabs-hris/workforce-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/queue"
	"github.com/cmlabs-hris/workforce-backend-go/internal/repository/postgresql"
	scheduleService "github.com/cmlabs-hris/workforce-backend-go/internal/service/schedule"
	amqp "github.com/rabbitmq/amqp091-go"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}
	logger := bootstrap.NewLogger(cfg, "api")

	if err := run(cfg, logger); err != nil {
		logger.Error("api stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := bootstrap.OpenDatabase(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	cache, closeCache, err := bootstrap.PlanCache(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeCache()

	engine := bootstrap.NewEngine(cfg, db)
	txManager := postgresql.NewTxManager(db)

	var trigger schedule.RecalculationTrigger
	switch cfg.Schedule.RecalcMode {
	case config.RecalcModeQueue:
		conn, err := amqp.Dial(cfg.RabbitMQ.URL)
		if err != nil {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}
		defer conn.Close()

		publisher, err := queue.NewPublisher(conn, cfg.RabbitMQ.Queue, cfg.RabbitMQ.PublishTimeout)
		if err != nil {
			return err
		}
		defer publisher.Close()
		trigger = scheduleService.NewQueuedTrigger(publisher)
	default:
		trigger = scheduleService.NewSyncTrigger(engine.Recalculator)
		// Without a worker the api owns the daily sweep.
		stopSweep := engine.StartSweep(ctx, cfg)
		defer stopSweep()
	}
	logger.Info("recalculation trigger ready", "mode", cfg.Schedule.RecalcMode)

	scheduleSvc := scheduleService.NewScheduleService(txManager, engine.Repos, cache, trigger, engine.Recalculator, engine.Clock)
	assignmentSvc := scheduleService.NewAssignmentService(txManager, engine.Repos, cache, engine.Recalculator, engine.Clock)
	planSvc := scheduleService.NewPlanService(engine.Resolver, engine.Repos.Guard, cache)

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			AppName:        cfg.App.Name,
			Version:        cfg.App.Version,
			Env:            cfg.App.Env,
			AllowedOrigins: cfg.App.AllowedOrigins,
			LogLevel:       cfg.SlogLevel(),
		},
		JWTService,
		appHTTP.NewScheduleHandler(scheduleSvc),
		appHTTP.NewAssignmentHandler(assignmentSvc),
		appHTTP.NewPlanHandler(planSvc, engine.Clock),
	)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server running", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
