// internal/board/types.go
package board

// Empty marks a square with no piece on it.
const Empty byte = '.'

// StartFEN is the piece placement of the standard chess starting position.
const StartFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR"

// Board is an 8x8 grid of piece letters, row 0 being rank 8 (the black
// back rank) and column 0 being the a-file. Squares hold a FEN piece
// letter ('p','N','k', ...) or Empty.
type Board [8][8]byte

// Mismatch reports one square where the reconstructed board differs from
// the original position.
type Mismatch struct {
	Square  string `json:"square"`
	Correct string `json:"correct"`
	User    string `json:"user"`
}
