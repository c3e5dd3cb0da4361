package main

import (
	"context"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkarlsson/memchess/internal/catalog"
	"github.com/dkarlsson/memchess/internal/httpserver"
	"github.com/dkarlsson/memchess/internal/store"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	st, err := store.Open(getEnv("DATABASE_URL", "chess_memory.db"))
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	// A fresh database gets the embedded starter positions so the game is
	// playable before any puzzle file has been loaded.
	if n, err := catalog.SeedIfEmpty(context.Background(), st); err != nil {
		log.Fatal().Err(err).Msg("failed to seed starter catalog")
	} else if n > 0 {
		log.Info().Int("positions", n).Msg("starter catalog installed")
	}

	srv := httpserver.New(st)
	port := getEnv("PORT", "8080")
	log.Info().Str("port", port).Msg("starting memchess server")
	if err := srv.Start(":" + port); err != nil {
		log.Fatal().Err(err).Msg("server exited")
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
