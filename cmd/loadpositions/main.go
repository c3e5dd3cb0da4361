// cmd/loadpositions/main.go
//
// Replaces the position catalog from a CSV file:
//
//	loadpositions [-db URL] [file]
//
// The file defaults to data/puzzles.csv; the database to $DATABASE_URL
// or chess_memory.db. Game sessions are never touched.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dkarlsson/memchess/internal/catalog"
	"github.com/dkarlsson/memchess/internal/store"
)

func main() {
	_ = godotenv.Load()
	if lvl, err := zerolog.ParseLevel(getEnv("LOG_LEVEL", "info")); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	dbURL := flag.String("db", "", "database URL (default $DATABASE_URL or chess_memory.db)")
	flag.Parse()

	url := *dbURL
	if url == "" {
		url = getEnv("DATABASE_URL", "chess_memory.db")
	}
	path := flag.Arg(0)
	if path == "" {
		path = "data/puzzles.csv"
	}

	st, err := store.Open(url)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open store")
	}
	defer st.Close()

	log.Info().Str("file", path).Msg("loading positions")
	res, err := catalog.LoadFile(context.Background(), st, path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("load failed")
	}

	log.Info().Int("loaded", res.Loaded).Int("skipped", res.Skipped).Msg("catalog replaced")
	for count := 2; count <= 32; count++ {
		if n := res.ByCount[count]; n > 0 {
			log.Info().Int("pieces", count).Int("positions", n).Msg("available")
		}
	}
}

func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
