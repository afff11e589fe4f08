package main

import (
	"errors"
	"flag"
	"fmt"
	"log"

	"github.com/golang-migrate/migrate/v4"

	"ReviewHarvester/internal/config"
	"ReviewHarvester/internal/infrastructure/storage"
	"ReviewHarvester/pkg/logger"
)

func main() {
	var (
		driver  = flag.String("driver", "", "Database driver (pgx or sqlite); defaults to config")
		dsn     = flag.String("dsn", "", "Database connection string; defaults to config")
		up      = flag.Bool("up", false, "Run all up migrations")
		down    = flag.Bool("down", false, "Run all down migrations")
		steps   = flag.Int("steps", 0, "Number of migrations (positive=up, negative=down)")
		version = flag.Bool("version", false, "Print current migration version")
		force   = flag.Int("force", -1, "Force set version (use with caution)")
		verbose = flag.Bool("verbose", false, "Log every migration step")
	)
	flag.Parse()

	forceSet := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "force" {
			forceSet = true
		}
	})

	cfg := config.Load().Database
	if *driver != "" {
		cfg.Driver = *driver
	}
	if *dsn != "" {
		cfg.DSN = *dsn
	}

	m, err := storage.NewMigrator(cfg)
	if err != nil {
		log.Fatalf("failed to create migrator: %v", err)
	}
	defer m.Close()
	m.Log = logger.New("migrate", *verbose)

	switch {
	case *version:
		v, dirty, err := m.Version()
		if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
			log.Fatalf("failed to get version: %v", err)
		}
		fmt.Printf("version: %d, dirty: %v\n", v, dirty)
	case forceSet:
		if err := m.Force(*force); err != nil {
			log.Fatalf("failed to force version: %v", err)
		}
		fmt.Printf("forced to version %d\n", *force)
	case *up:
		if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("failed to run up migrations: %v", err)
		}
		fmt.Println("migrations applied successfully")
	case *down:
		if err := m.Down(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("failed to run down migrations: %v", err)
		}
		fmt.Println("migrations reverted successfully")
	case *steps != 0:
		if err := m.Steps(*steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
			log.Fatalf("failed to run migrations: %v", err)
		}
		fmt.Printf("applied %d migration steps\n", *steps)
	default:
		fmt.Println("usage: migrate [-driver pgx|sqlite] [-dsn <connection-string>] [-up|-down|-steps N|-version|-force N]")
		flag.PrintDefaults()
	}
}
