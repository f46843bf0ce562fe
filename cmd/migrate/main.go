package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/cmlabs-hris/workforce-backend-go/internal/bootstrap"
	"github.com/cmlabs-hris/workforce-backend-go/internal/config"
	"github.com/cmlabs-hris/workforce-backend-go/internal/pkg/database"
	"github.com/golang-migrate/migrate/v4"
)

// Usage: migrate [-steps N] up|down|version
func main() {
	steps := flag.Int("steps", 0, "number of migrations to apply or roll back (0 = all)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}
	logger := bootstrap.NewLogger(cfg, "migrate")

	m, err := database.NewMigrator(cfg.DatabaseURL())
	if err != nil {
		logger.Error("migrator init failed", "error", err)
		os.Exit(1)
	}
	defer m.Close()

	switch flag.Arg(0) {
	case "up":
		if *steps > 0 {
			err = m.Steps(*steps)
		} else {
			err = m.Up()
		}
	case "down":
		if *steps > 0 {
			err = m.Steps(-*steps)
		} else {
			err = m.Down()
		}
	case "version":
	default:
		fmt.Println("usage: migrate [-steps N] up|down|version")
		os.Exit(2)
	}

	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		logger.Error("migration failed", "command", flag.Arg(0), "error", err)
		os.Exit(1)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		logger.Error("read migration version failed", "error", err)
		os.Exit(1)
	}
	logger.Info("migration state", "version", version, "dirty", dirty)
}
