// internal/httpserver/routes_api.go
//
// Game API endpoints, mounted under /api:
//   GET  /api/positions             full position catalog
//   GET  /api/positions/count/{n}   positions with exactly n pieces
//   POST /api/game/start            begin a round: pick a position, open a session
//   POST /api/game/submit           score a reconstruction against its session
//   GET  /api/sessions              recent sessions, newest first
//   GET  /api/stats                 accuracy aggregates over scored sessions

package httpserver

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/dkarlsson/memchess/internal/board"
	"github.com/dkarlsson/memchess/internal/store"
)

// mountAPIRoutes registers the game endpoints.
func (s *Server) mountAPIRoutes() {
	s.r.Route("/api", func(r chi.Router) {
		r.Get("/positions", s.handleListPositions)
		r.Get("/positions/count/{count}", s.handleListPositionsByCount)
		r.Post("/game/start", s.handleStartGame)
		r.Post("/game/submit", s.handleSubmitAnswer)
		r.Get("/sessions", s.handleListSessions)
		r.Get("/stats", s.handleStats)
	})
}

// ----------------------------- positions -----------------------------------

func (s *Server) handleListPositions(w http.ResponseWriter, r *http.Request) {
	positions, err := s.store.ListPositions(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("list positions")
		respondError(w, http.StatusInternalServerError, "Failed to fetch positions")
		return
	}
	respondJSON(w, http.StatusOK, positions)
}

func (s *Server) handleListPositionsByCount(w http.ResponseWriter, r *http.Request) {
	count, err := strconv.Atoi(chi.URLParam(r, "count"))
	if err != nil || count < 2 || count > 32 {
		respondError(w, http.StatusBadRequest, "Piece count must be between 2 and 32")
		return
	}
	positions, err := s.store.ListPositionsByCount(r.Context(), count)
	if err != nil {
		log.Error().Err(err).Int("pieceCount", count).Msg("list positions by count")
		respondError(w, http.StatusInternalServerError, "Failed to fetch positions")
		return
	}
	respondJSON(w, http.StatusOK, positions)
}

// ------------------------------- game --------------------------------------

// startGameReq/Res payloads for POST /api/game/start.
type startGameReq struct {
	PieceCount *int `json:"piece_count"` // pointer: a missing field must be told apart from 0
}
type startGameRes struct {
	SessionID  int64  `json:"session_id"`
	FEN        string `json:"fen"`
	PieceCount int    `json:"piece_count"`
}

// handleStartGame picks a random position with the requested piece count
// and opens a session for it.
func (s *Server) handleStartGame(w http.ResponseWriter, r *http.Request) {
	var req startGameReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "piece_count must be an integer between 2 and 32")
		return
	}
	if req.PieceCount == nil {
		respondError(w, http.StatusBadRequest, "piece_count is required")
		return
	}
	pieceCount := *req.PieceCount
	if pieceCount < 2 || pieceCount > 32 {
		respondError(w, http.StatusBadRequest, "piece_count must be an integer between 2 and 32")
		return
	}

	positions, err := s.store.ListPositionsByCount(r.Context(), pieceCount)
	if err != nil {
		log.Error().Err(err).Msg("start game: list positions")
		respondError(w, http.StatusInternalServerError, "Failed to start game")
		return
	}
	if len(positions) == 0 {
		respondError(w, http.StatusNotFound, "No positions available for "+strconv.Itoa(pieceCount)+" pieces")
		return
	}
	selected := positions[s.pick(len(positions))]

	sess := store.Session{PieceCount: pieceCount, PositionID: selected.ID}
	if err := s.store.CreateSession(r.Context(), &sess); err != nil {
		log.Error().Err(err).Msg("start game: create session")
		respondError(w, http.StatusInternalServerError, "Failed to start game")
		return
	}
	log.Info().Int64("sessionId", sess.ID).Int64("positionId", selected.ID).Msg("game session created")

	respondJSON(w, http.StatusCreated, startGameRes{
		SessionID:  sess.ID,
		FEN:        selected.FEN,
		PieceCount: pieceCount,
	})
}

// submitReq/Res payloads for POST /api/game/submit.
type submitReq struct {
	SessionID *int64  `json:"session_id"`
	UserFEN   *string `json:"user_fen"`
}
type submitRes struct {
	Score       int              `json:"score"`
	TotalPieces int              `json:"total_pieces"`
	CorrectFEN  string           `json:"correct_fen"`
	UserFEN     string           `json:"user_fen"`
	Differences []board.Mismatch `json:"differences"`
}

// handleSubmitAnswer scores a submitted reconstruction against the
// session's position and records the result. Resubmitting overwrites the
// earlier answer and score.
func (s *Server) handleSubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var req submitReq
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "session_id and user_fen are required")
		return
	}
	if req.SessionID == nil || req.UserFEN == nil {
		respondError(w, http.StatusBadRequest, "session_id and user_fen are required")
		return
	}

	ctx := r.Context()
	sess, err := s.store.GetSession(ctx, *req.SessionID)
	if errors.Is(err, store.ErrNotFound) {
		respondError(w, http.StatusNotFound, "Session not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("submit: get session")
		respondError(w, http.StatusInternalServerError, "Failed to submit answer")
		return
	}

	// The position reference is weak; a catalog reload may have removed
	// the row out from under the session.
	position, err := s.store.GetPosition(ctx, sess.PositionID)
	if err != nil {
		log.Error().Err(err).Int64("sessionId", sess.ID).Int64("positionId", sess.PositionID).Msg("submit: position lookup")
		respondError(w, http.StatusInternalServerError, "Failed to submit answer")
		return
	}

	original, err := board.Decode(position.FEN)
	if err != nil {
		log.Error().Err(err).Int64("positionId", position.ID).Msg("submit: stored position does not decode")
		respondError(w, http.StatusInternalServerError, "Failed to submit answer")
		return
	}
	user, err := board.Decode(*req.UserFEN)
	if err != nil {
		respondError(w, http.StatusBadRequest, "Invalid user_fen: "+err.Error())
		return
	}

	score := board.Score(original, user)
	diffs := board.Diff(original, user)

	if err := s.store.UpdateSessionResult(ctx, sess.ID, *req.UserFEN, score); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			respondError(w, http.StatusNotFound, "Session not found")
			return
		}
		log.Error().Err(err).Int64("sessionId", sess.ID).Msg("submit: update session")
		respondError(w, http.StatusInternalServerError, "Failed to submit answer")
		return
	}
	log.Info().Int64("sessionId", sess.ID).Int("score", score).Int("pieces", sess.PieceCount).Msg("answer submitted")

	respondJSON(w, http.StatusOK, submitRes{
		Score:       score,
		TotalPieces: sess.PieceCount,
		CorrectFEN:  position.FEN,
		UserFEN:     *req.UserFEN,
		Differences: diffs,
	})
}

// ------------------------- sessions & statistics ---------------------------

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.store.ListSessions(r.Context(), 100)
	if err != nil {
		log.Error().Err(err).Msg("list sessions")
		respondError(w, http.StatusInternalServerError, "Failed to fetch sessions")
		return
	}
	respondJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("stats")
		respondError(w, http.StatusInternalServerError, "Failed to fetch statistics")
		return
	}
	respondJSON(w, http.StatusOK, stats)
}
