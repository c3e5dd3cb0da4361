// internal/board/fen.go
//
// Responsibilities:
// - Decode the piece-placement field of a FEN string into a Board
// - Encode a Board back into a piece-placement string
//
// Only the first whitespace-separated field of a FEN is looked at, so both
// bare placements ("8/8/8/4k3/8/4P3/4K3/8") and full six-field FENs are
// accepted. Decoding is strict: wrong rank counts, over- or under-filled
// ranks and unknown piece letters all return an error rather than a
// half-built board.
package board

import (
	"fmt"
	"strconv"
	"strings"
)

// Decode parses the piece placement of fen into a Board.
func Decode(fen string) (Board, error) {
	var b Board

	fields := strings.Fields(fen)
	if len(fields) == 0 {
		return b, fmt.Errorf("empty FEN")
	}

	ranks := strings.Split(fields[0], "/")
	if len(ranks) != 8 {
		return b, fmt.Errorf("expected 8 ranks, got %d", len(ranks))
	}

	for row, rank := range ranks {
		col := 0
		for _, c := range rank {
			switch {
			case c >= '1' && c <= '8':
				n := int(c - '0')
				if col+n > 8 {
					return b, fmt.Errorf("rank %d overflows 8 files", 8-row)
				}
				for i := 0; i < n; i++ {
					b[row][col] = Empty
					col++
				}
			case isPieceChar(c):
				if col >= 8 {
					return b, fmt.Errorf("rank %d overflows 8 files", 8-row)
				}
				b[row][col] = byte(c)
				col++
			default:
				return b, fmt.Errorf("invalid piece character %q in rank %d", c, 8-row)
			}
		}
		if col != 8 {
			return b, fmt.Errorf("rank %d has %d files, want 8", 8-row, col)
		}
	}
	return b, nil
}

// Encode renders b as a FEN piece-placement string, folding runs of empty
// squares into digits.
func Encode(b Board) string {
	var sb strings.Builder
	for row := 0; row < 8; row++ {
		if row > 0 {
			sb.WriteByte('/')
		}
		empty := 0
		for col := 0; col < 8; col++ {
			if b[row][col] == Empty || b[row][col] == 0 {
				empty++
				continue
			}
			if empty > 0 {
				sb.WriteString(strconv.Itoa(empty))
				empty = 0
			}
			sb.WriteByte(b[row][col])
		}
		if empty > 0 {
			sb.WriteString(strconv.Itoa(empty))
		}
	}
	return sb.String()
}

func isPieceChar(c rune) bool {
	switch c {
	case 'p', 'n', 'b', 'r', 'q', 'k', 'P', 'N', 'B', 'R', 'Q', 'K':
		return true
	}
	return false
}
