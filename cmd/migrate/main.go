package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/romariotrain/content-pipeline/internal/app"
	"github.com/romariotrain/content-pipeline/internal/config"
	pg "github.com/romariotrain/content-pipeline/internal/storage/postgres"
)

func main() {
	flag.Parse()

	code := app.Run("migrate", func(ctx context.Context, logger zerolog.Logger) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		command := flag.Arg(0)
		if command == "" {
			return fmt.Errorf("usage: migrate <up|down|version>")
		}

		return pg.Migrate(logger, cfg.DatabaseURL, command)
	})
	os.Exit(code)
}
