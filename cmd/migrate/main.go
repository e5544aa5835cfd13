package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"petitionhub-backend/config"
	"petitionhub-backend/logger"
	"petitionhub-backend/migrations"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	direction := flag.String("direction", "up", "migration direction: up, down or version")
	flag.Parse()

	cfg, _, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.App.Env, cfg.App.LogLevel)

	pool, err := pgxpool.New(context.Background(), cfg.Database.URL)
	if err != nil {
		log.Error("failed to connect to database", logger.Err(err))
		os.Exit(1)
	}
	defer pool.Close()

	switch *direction {
	case "up":
		err = migrations.Up(pool)
	case "down":
		err = migrations.Down(pool)
	case "version":
	default:
		log.Error("unknown direction", "direction", *direction)
		os.Exit(2)
	}
	if err != nil {
		log.Error("migration failed", "direction", *direction, logger.Err(err))
		os.Exit(1)
	}

	version, dirty, err := migrations.Version(pool)
	if err != nil {
		log.Error("failed to read schema version", logger.Err(err))
		os.Exit(1)
	}
	fmt.Printf("✓ schema version %d (dirty: %t)\n", version, dirty)
}
