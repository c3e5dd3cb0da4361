// cmd/smokecheck/main.go
//
// Black-box smoke check against a running server:
//
//	smokecheck [-url http://localhost:8080] [-timeout 5s] [-play]
//
// Runs health → positions → positions/count/32 → stats, printing one
// ✓/✗ line per check. -play additionally plays a full round: start a
// 32-piece game, submit the shown position straight back, and expect a
// perfect score with no differences. Exits 0 only if every check passed.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dkarlsson/memchess/internal/apiclient"
)

func main() {
	baseURL := flag.String("url", envOr("CHESS_API_URL", "http://localhost:8080"), "server base URL")
	timeout := flag.Duration("timeout", 5*time.Second, "per-request timeout")
	play := flag.Bool("play", false, "also play one full round")
	flag.Parse()

	c := apiclient.NewClient(*baseURL, apiclient.WithTimeout(*timeout))
	ctx := context.Background()

	fmt.Printf("Checking %s\n", *baseURL)

	passed, total := 0, 0
	check := func(name string, fn func() (string, error)) {
		total++
		detail, err := fn()
		if err != nil {
			fmt.Printf("✗ %s: %v\n", name, err)
			return
		}
		passed++
		if detail != "" {
			fmt.Printf("✓ %s (%s)\n", name, detail)
			return
		}
		fmt.Printf("✓ %s\n", name)
	}

	check("health", func() (string, error) {
		h, err := c.Health(ctx)
		if err != nil {
			return "", err
		}
		if h.Status != "healthy" {
			return "", fmt.Errorf("status %q", h.Status)
		}
		return h.Message, nil
	})

	check("positions", func() (string, error) {
		positions, err := c.Positions(ctx)
		if err != nil {
			return "", err
		}
		if len(positions) == 0 {
			return "", fmt.Errorf("catalog is empty")
		}
		return fmt.Sprintf("%d positions", len(positions)), nil
	})

	check("positions/count/32", func() (string, error) {
		positions, err := c.PositionsByCount(ctx, 32)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d with 32 pieces", len(positions)), nil
	})

	check("stats", func() (string, error) {
		stats, err := c.Stats(ctx)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d games, average %.2f", stats.TotalGames, stats.AverageScore), nil
	})

	if *play {
		check("full round", func() (string, error) {
			return playRound(ctx, c)
		})
	}

	fmt.Printf("Results: %d/%d checks passed\n", passed, total)
	if passed != total {
		os.Exit(1)
	}
}

// playRound starts a 32-piece game and submits the shown position back.
func playRound(ctx context.Context, c *apiclient.Client) (string, error) {
	start, err := c.StartGame(ctx, 32)
	if err != nil {
		return "", fmt.Errorf("start: %w", err)
	}
	result, err := c.SubmitAnswer(ctx, start.SessionID, start.FEN)
	if err != nil {
		return "", fmt.Errorf("submit: %w", err)
	}
	if result.Score != start.PieceCount {
		return "", fmt.Errorf("score %d/%d on a perfect answer", result.Score, start.PieceCount)
	}
	if len(result.Differences) != 0 {
		return "", fmt.Errorf("%d differences on a perfect answer", len(result.Differences))
	}
	return fmt.Sprintf("session %d scored %d/%d", start.SessionID, result.Score, result.TotalPieces), nil
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
