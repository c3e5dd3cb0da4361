// internal/board/score.go
package board

// CountPieces returns the number of occupied squares on b.
func CountPieces(b Board) int {
	n := 0
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if b[row][col] != Empty {
				n++
			}
		}
	}
	return n
}

// Score counts the squares where the user placed the exact piece the
// original position holds. Squares that are empty in the original never
// score, so correctly leaving a square empty earns nothing.
func Score(original, user Board) int {
	score := 0
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if original[row][col] != Empty && original[row][col] == user[row][col] {
				score++
			}
		}
	}
	return score
}

// Diff lists every square where the two boards disagree, in row-major
// order from a8 to h1. Identical boards yield an empty (non-nil) slice.
func Diff(original, user Board) []Mismatch {
	diffs := make([]Mismatch, 0)
	for row := 0; row < 8; row++ {
		for col := 0; col < 8; col++ {
			if original[row][col] != user[row][col] {
				diffs = append(diffs, Mismatch{
					Square:  squareName(row, col),
					Correct: string(original[row][col]),
					User:    string(user[row][col]),
				})
			}
		}
	}
	return diffs
}

// squareName converts grid coordinates to algebraic notation, e.g.
// row 0, col 0 -> "a8" and row 7, col 7 -> "h1".
func squareName(row, col int) string {
	return string([]byte{'a' + byte(col), '8' - byte(row)})
}
