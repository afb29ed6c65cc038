package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/migration"
)

func main() {
	var (
		source = flag.String("source", "file://migrations", "migration source URL")
		down   = flag.Bool("down", false, "roll back the most recent migration instead of migrating up")
	)
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	if *down {
		err = migration.Down(cfg.Database.DSN(), *source, log)
	} else {
		err = migration.Run(cfg.Database.DSN(), *source, log)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "fatal:", err)
		os.Exit(1)
	}
}
