// internal/catalog/loader.go
//
// Position catalog loading.
//
// Responsibilities:
//   - Parse position CSV files: column 0 placement, column 1 optional
//     evaluation, column 2 piece count; the header row is always skipped.
//   - Validate rows through the board codec before they reach the store;
//     bad rows are skipped with a warning, not fatal.
//   - Bulk-replace the catalog in one transaction.
//   - Seed the embedded starter catalog into an empty store.

package catalog

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/dkarlsson/memchess/assets"
	"github.com/dkarlsson/memchess/internal/board"
	"github.com/dkarlsson/memchess/internal/store"
)

// Result summarizes one load run.
type Result struct {
	Loaded  int     // rows stored
	Skipped int     // rows rejected
	ByCount [33]int // loaded positions per piece count, indexed 2..32
}

// Load reads CSV rows from r and replaces the store's position catalog
// with the valid ones.
func Load(ctx context.Context, st store.Store, r io.Reader) (*Result, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1 // column count is checked per row below

	res := &Result{}
	positions := make([]store.Position, 0)
	row := 0
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv: %w", err)
		}
		row++
		if row == 1 {
			continue // header
		}
		p, ok := parseRow(record, row)
		if !ok {
			res.Skipped++
			continue
		}
		positions = append(positions, p)
		res.Loaded++
		res.ByCount[p.PieceCount]++
		if res.Loaded%100 == 0 {
			log.Info().Int("loaded", res.Loaded).Msg("loading positions")
		}
	}

	if err := st.ReplacePositions(ctx, positions); err != nil {
		return nil, fmt.Errorf("replace positions: %w", err)
	}
	log.Info().Int("loaded", res.Loaded).Int("skipped", res.Skipped).Msg("position catalog replaced")
	return res, nil
}

// LoadFile is Load over a file on disk.
func LoadFile(ctx context.Context, st store.Store, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return Load(ctx, st, f)
}

// SeedIfEmpty loads the embedded starter catalog when the store holds no
// positions yet. Returns how many positions were seeded; 0 means the
// catalog was already populated and was left alone.
func SeedIfEmpty(ctx context.Context, st store.Store) (int, error) {
	existing, err := st.ListPositions(ctx)
	if err != nil {
		return 0, fmt.Errorf("check catalog: %w", err)
	}
	if len(existing) > 0 {
		return 0, nil
	}

	res, err := Load(ctx, st, bytes.NewReader(assets.StarterCSV()))
	if err != nil {
		return 0, fmt.Errorf("seed starter catalog: %w", err)
	}
	log.Info().Int("positions", res.Loaded).Msg("seeded starter catalog")
	return res.Loaded, nil
}

// parseRow turns one CSV record into a Position, or reports it bad.
func parseRow(record []string, row int) (store.Position, bool) {
	var p store.Position
	if len(record) < 3 {
		log.Warn().Int("row", row).Int("columns", len(record)).Msg("skipping short row")
		return p, false
	}

	fen := strings.TrimSpace(record[0])
	if _, err := board.Decode(fen); err != nil {
		log.Warn().Int("row", row).Err(err).Msg("skipping undecodable placement")
		return p, false
	}

	count, err := strconv.Atoi(strings.TrimSpace(record[2]))
	if err != nil || count < 2 || count > 32 {
		log.Warn().Int("row", row).Str("pieceCount", record[2]).Msg("skipping bad piece count")
		return p, false
	}

	// Evaluation is optional; unparsable values degrade to 0.
	eval := 0.0
	if v := strings.TrimSpace(record[1]); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			eval = f
		}
	}

	p = store.Position{FEN: fen, Evaluation: eval, PieceCount: count}
	return p, true
}
