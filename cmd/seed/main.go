// Command seed wipes the configured database and loads the demo liquor
// store dataset. It is destructive and refuses to run without DATABASE_URL.
package main

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"

	"lisearch/backend/internal/config"
	pgstore "lisearch/backend/internal/store/postgres"
)

func main() {
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}).
		With().Timestamp().Str("service", "lisearch-seed").Logger()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	if cfg.DatabaseURL == "" {
		log.Fatal().Msg("DATABASE_URL is required; the in-memory store seeds itself")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pg, err := pgstore.New(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("connecting to postgres")
	}
	defer pg.Close()

	if err := pg.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("applying schema")
	}
	if err := pg.Seed(ctx); err != nil {
		log.Fatal().Err(err).Msg("seeding database")
	}

	log.Info().Msg("database seeded")
}
