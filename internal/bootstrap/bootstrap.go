// Package bootstrap holds the wiring shared by the api and worker binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/cmlabs-hris/workforce-backend-go/internal/config"
	"github.com/cmlabs-hris/workforce-backend-go/internal/domain/schedule"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/plancache"
	"github.com/cmlabs-hris/workforce-backend-go/internal/repository/postgresql"
	scheduleService "github.com/cmlabs-hris/workforce-backend-go/internal/service/schedule"
	"github.com/redis/go-redis/v9"
)

// NewLogger installs a JSON slog logger as the process default.
func NewLogger(cfg *config.Config, component string) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.SlogLevel(),
	})).With(
		slog.String("app", cfg.App.Name),
		slog.String("component", component),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)
	return logger
}

// OpenDatabase connects to PostgreSQL, migrating first when configured to.
func OpenDatabase(cfg *config.Config) (*database.DB, error) {
	dsn := cfg.DatabaseURL()
	if cfg.Database.AutoMigrate {
		if err := database.RunMigrations(dsn); err != nil {
			return nil, err
		}
	}

	db, err := database.NewPostgreSQLDB(dsn, database.PoolOptions{MaxConns: cfg.Database.MaxConns})
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return db, nil
}

// Repositories builds every store the schedule services need.
func Repositories(db *database.DB) scheduleService.Repositories {
	return scheduleService.Repositories{
		Templates:   postgresql.NewTemplateRepository(db),
		Days:        postgresql.NewWeeklyDayRepository(db),
		Exceptions:  postgresql.NewExceptionRepository(db),
		Blocks:      postgresql.NewBlockRepository(db),
		Assignments: postgresql.NewAssignmentRepository(db),
		Employees:   postgresql.NewEmployeeRepository(db),
		Clients:     postgresql.NewClientRepository(db),
		Guard:       postgresql.NewOwnershipGuard(db),
	}
}

// PlanCache returns a Redis cache, or a no-op cache when Redis is not
// configured. The returned close func is never nil.
func PlanCache(ctx context.Context, cfg *config.Config) (schedule.PlanCache, func() error, error) {
	if cfg.Redis.Addr == "" {
		slog.Info("redis not configured, plan cache disabled")
		return plancache.NewNoop(), func() error { return nil }, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, nil, fmt.Errorf("connect redis: %w", err)
	}
	return plancache.NewRedis(rdb, cfg.Redis.PlanTTL), rdb.Close, nil
}

// Engine is the resolver and recalculator pair every binary shares.
type Engine struct {
	Repos        scheduleService.Repositories
	Clock        schedule.Clock
	Resolver     *scheduleService.Resolver
	Recalculator *scheduleService.Recalculator
}

func NewEngine(cfg *config.Config, db *database.DB) Engine {
	repos := Repositories(db)
	clock := schedule.NewClock(cfg.Location())
	resolver := scheduleService.NewResolver(repos)
	return Engine{
		Repos:        repos,
		Clock:        clock,
		Resolver:     resolver,
		Recalculator: scheduleService.NewRecalculator(resolver, repos, clock),
	}
}

// StartSweep starts the daily reclassification. The returned stop func is
// never nil.
func (e Engine) StartSweep(ctx context.Context, cfg *config.Config) func() {
	if cfg.Schedule.SweepInterval <= 0 {
		return func() {}
	}
	scheduler := cron.NewScheduler(ctx)
	cron.NewReclassifyJobs(e.Repos.Employees, e.Recalculator, e.Clock).RegisterJobs(scheduler, cfg.Schedule.SweepInterval)
	scheduler.Start()
	return scheduler.Stop
}
