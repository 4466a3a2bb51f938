package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/gestor/backoffice/pkg/config"
	"github.com/gestor/backoffice/pkg/database"
	"github.com/gestor/backoffice/pkg/logger"
)

func main() {
	steps := flag.Int("steps", 0, "migrations to roll back with down (0 rolls back all)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: migrate [-steps n] up|down\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	_ = godotenv.Load()

	cfg, err := config.LoadWithValidation("migrate")
	if err != nil {
		fmt.Fprintf(os.Stderr, "configuration error: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("migrate", cfg.Server.Environment)
	url := cfg.Database.MigrationURL()

	switch flag.Arg(0) {
	case "up":
		err = database.Migrate(url, log)
	case "down":
		err = database.MigrateDown(url, *steps)
		if err == nil {
			log.Info().Int("steps", *steps).Msg("migrations rolled back")
		}
	default:
		flag.Usage()
		os.Exit(2)
	}

	if err != nil {
		log.Fatal().Err(err).Msg("migration failed")
	}
}
