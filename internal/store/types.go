// internal/store/types.go
package store

import "time"

// Position is a chess position available for memorization rounds.
type Position struct {
	ID         int64   `json:"id"`
	FEN        string  `json:"fen"`
	Evaluation float64 `json:"evaluation"`
	PieceCount int     `json:"piece_count"`
}

// Session is one round of the memory game. UserFEN and Score stay nil
// until the player submits a reconstruction; resubmitting overwrites both.
//
// PositionID is a weak reference: reloading the position catalog does not
// touch historical sessions, so a session may outlive its position.
type Session struct {
	ID         int64     `json:"id"`
	PieceCount int       `json:"piece_count"`
	PositionID int64     `json:"position_id"`
	UserFEN    *string   `json:"user_answer"`
	Score      *int      `json:"score"`
	CreatedAt  time.Time `json:"created_at"`
}

// Stats aggregates finished sessions. AverageScore is the share of pieces
// placed correctly across all scored sessions, as a percentage rounded to
// two decimals. With no scored sessions both fields are zero.
type Stats struct {
	TotalGames   int     `json:"total_games"`
	AverageScore float64 `json:"average_score"`
}
