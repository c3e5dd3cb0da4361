// internal/apiclient/types.go
package apiclient

import "time"

// Wire types for the game API. Field tags mirror the server's JSON
// contract exactly.

type Health struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type Position struct {
	ID         int64   `json:"id"`
	FEN        string  `json:"fen"`
	Evaluation float64 `json:"evaluation"`
	PieceCount int     `json:"piece_count"`
}

type GameStart struct {
	SessionID  int64  `json:"session_id"`
	FEN        string `json:"fen"`
	PieceCount int    `json:"piece_count"`
}

type Mismatch struct {
	Square  string `json:"square"`
	Correct string `json:"correct"`
	User    string `json:"user"`
}

type GameResult struct {
	Score       int        `json:"score"`
	TotalPieces int        `json:"total_pieces"`
	CorrectFEN  string     `json:"correct_fen"`
	UserFEN     string     `json:"user_fen"`
	Differences []Mismatch `json:"differences"`
}

type Session struct {
	ID         int64     `json:"id"`
	PieceCount int       `json:"piece_count"`
	PositionID int64     `json:"position_id"`
	UserAnswer *string   `json:"user_answer"`
	Score      *int      `json:"score"`
	CreatedAt  time.Time `json:"created_at"`
}

type Stats struct {
	TotalGames   int     `json:"total_games"`
	AverageScore float64 `json:"average_score"`
}
