// internal/httpserver/routes_api_test.go
package httpserver

import (
	"context"
	"net/http"
	"strconv"
	"strings"
	"testing"

	"github.com/dkarlsson/memchess/internal/board"
	"github.com/dkarlsson/memchess/internal/store"
)

func TestListPositions(t *testing.T) {
	s, mem := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/api/positions", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := strings.TrimSpace(w.Body.String()); got != "[]" {
		t.Errorf("empty catalog body = %q, want []", got)
	}

	seedPosition(t, mem, board.StartFEN, 32)
	seedPosition(t, mem, "8/8/8/3k4/8/3K4/8/8", 2)

	w = doRequest(t, s, http.MethodGet, "/api/positions", "")
	var positions []store.Position
	decodeJSON(t, w, &positions)
	if len(positions) != 2 {
		t.Fatalf("len = %d, want 2", len(positions))
	}
	if positions[0].FEN != board.StartFEN || positions[0].PieceCount != 32 {
		t.Errorf("positions[0] = %+v", positions[0])
	}
}

func TestListPositionsByCount(t *testing.T) {
	s, mem := newTestServer(t)
	seedPosition(t, mem, board.StartFEN, 32)
	two := seedPosition(t, mem, "8/8/8/3k4/8/3K4/8/8", 2)

	w := doRequest(t, s, http.MethodGet, "/api/positions/count/2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var positions []store.Position
	decodeJSON(t, w, &positions)
	if len(positions) != 1 || positions[0].ID != two.ID {
		t.Errorf("count/2 = %+v, want just the two-piece position", positions)
	}

	// No entries for a valid count is an empty list, not an error.
	w = doRequest(t, s, http.MethodGet, "/api/positions/count/7", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	decodeJSON(t, w, &positions)
	if len(positions) != 0 {
		t.Errorf("count/7 = %+v, want empty list", positions)
	}
}

func TestListPositionsByCountRejectsBadCounts(t *testing.T) {
	s, _ := newTestServer(t)

	for _, raw := range []string{"1", "33", "100", "0", "-4", "abc"} {
		t.Run(raw, func(t *testing.T) {
			w := doRequest(t, s, http.MethodGet, "/api/positions/count/"+raw, "")
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if !strings.Contains(w.Body.String(), "Piece count must be between 2 and 32") {
				t.Errorf("body = %q", w.Body.String())
			}
		})
	}
}

func TestStartGameValidation(t *testing.T) {
	s, mem := newTestServer(t)
	seedPosition(t, mem, board.StartFEN, 32)

	cases := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{"empty body", "", "piece_count is required"},
		{"empty object", "{}", "piece_count is required"},
		{"null value", `{"piece_count": null}`, "piece_count is required"},
		{"string value", `{"piece_count": "eight"}`, "piece_count must be an integer between 2 and 32"},
		{"fractional value", `{"piece_count": 2.5}`, "piece_count must be an integer between 2 and 32"},
		{"too small", `{"piece_count": 1}`, "piece_count must be an integer between 2 and 32"},
		{"too large", `{"piece_count": 33}`, "piece_count must be an integer between 2 and 32"},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := doRequest(t, s, http.MethodPost, "/api/game/start", c.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if !strings.Contains(w.Body.String(), c.wantMsg) {
				t.Errorf("body = %q, want %q", w.Body.String(), c.wantMsg)
			}
		})
	}
}

func TestStartGameNoMatchingPositions(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/game/start", `{"piece_count": 16}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), "No positions available for 16 pieces") {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestStartGameCreatesSession(t *testing.T) {
	s, mem := newTestServer(t)
	pos := seedPosition(t, mem, board.StartFEN, 32)

	w := doRequest(t, s, http.MethodPost, "/api/game/start", `{"piece_count": 32}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %q", w.Code, w.Body.String())
	}
	var res struct {
		SessionID  int64  `json:"session_id"`
		FEN        string `json:"fen"`
		PieceCount int    `json:"piece_count"`
	}
	decodeJSON(t, w, &res)
	if res.SessionID == 0 || res.FEN != board.StartFEN || res.PieceCount != 32 {
		t.Errorf("start response = %+v", res)
	}

	sess, err := mem.GetSession(context.Background(), res.SessionID)
	if err != nil {
		t.Fatalf("session not persisted: %v", err)
	}
	if sess.PositionID != pos.ID || sess.UserFEN != nil || sess.Score != nil {
		t.Errorf("persisted session = %+v", sess)
	}
}

func TestStartGamePicksFromMatchingSubset(t *testing.T) {
	var sawN int
	picker := func(n int) int {
		sawN = n
		return n - 1
	}

	mem := store.NewMemory()
	s := New(mem, WithRandInt(picker))

	seedPosition(t, mem, "8/8/8/3k4/8/3K4/8/8", 2)
	seedPosition(t, mem, board.StartFEN, 32)
	second := seedPosition(t, mem, "r1bqkbnr/pppp1ppp/2n5/1B2p3/4P3/5N2/PPPP1PPP/RNBQK2R", 32)

	w := doRequest(t, s, http.MethodPost, "/api/game/start", `{"piece_count": 32}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201", w.Code)
	}
	var res struct {
		FEN string `json:"fen"`
	}
	decodeJSON(t, w, &res)

	if sawN != 2 {
		t.Errorf("picker saw %d candidates, want only the 2 matching positions", sawN)
	}
	if res.FEN != second.FEN {
		t.Errorf("fen = %q, want the picker's choice %q", res.FEN, second.FEN)
	}
}

func TestSubmitValidation(t *testing.T) {
	s, _ := newTestServer(t)

	cases := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"empty object", "{}"},
		{"missing user_fen", `{"session_id": 1}`},
		{"missing session_id", `{"user_fen": "8/8/8/8/8/8/8/8"}`},
		{"wrongly typed session_id", `{"session_id": "one", "user_fen": "8/8/8/8/8/8/8/8"}`},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			w := doRequest(t, s, http.MethodPost, "/api/game/submit", c.body)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", w.Code)
			}
			if !strings.Contains(w.Body.String(), "session_id and user_fen are required") {
				t.Errorf("body = %q", w.Body.String())
			}
		})
	}
}

func TestSubmitUnknownSession(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(t, s, http.MethodPost, "/api/game/submit",
		`{"session_id": 999, "user_fen": "8/8/8/8/8/8/8/8"}`)
	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Session not found") {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestSubmitRejectsMalformedUserFEN(t *testing.T) {
	s, mem := newTestServer(t)
	seedPosition(t, mem, board.StartFEN, 32)

	start := doRequest(t, s, http.MethodPost, "/api/game/start", `{"piece_count": 32}`)
	var started struct {
		SessionID int64 `json:"session_id"`
	}
	decodeJSON(t, start, &started)

	w := doRequest(t, s, http.MethodPost, "/api/game/submit",
		`{"session_id": `+itoa(started.SessionID)+`, "user_fen": "8/8"}`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400, body %q", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Invalid user_fen") {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestSubmitDanglingPositionReference(t *testing.T) {
	s, mem := newTestServer(t)

	// A session whose position has vanished (e.g. catalog reloaded).
	sess := store.Session{PieceCount: 2, PositionID: 12345}
	if err := mem.CreateSession(context.Background(), &sess); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}

	w := doRequest(t, s, http.MethodPost, "/api/game/submit",
		`{"session_id": `+itoa(sess.ID)+`, "user_fen": "8/8/8/8/8/8/8/8"}`)
	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", w.Code)
	}
	if !strings.Contains(w.Body.String(), "Failed to submit answer") {
		t.Errorf("body = %q", w.Body.String())
	}
}

func TestGameRoundTrip(t *testing.T) {
	s, mem := newTestServer(t)
	seedPosition(t, mem, board.StartFEN, 32)

	start := doRequest(t, s, http.MethodPost, "/api/game/start", `{"piece_count": 32}`)
	if start.Code != http.StatusCreated {
		t.Fatalf("start status = %d, want 201", start.Code)
	}
	var started struct {
		SessionID int64  `json:"session_id"`
		FEN       string `json:"fen"`
	}
	decodeJSON(t, start, &started)

	// Perfect reconstruction first.
	w := doRequest(t, s, http.MethodPost, "/api/game/submit",
		`{"session_id": `+itoa(started.SessionID)+`, "user_fen": "`+started.FEN+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("submit status = %d, want 200, body %q", w.Code, w.Body.String())
	}
	var perfect struct {
		Score       int              `json:"score"`
		TotalPieces int              `json:"total_pieces"`
		CorrectFEN  string           `json:"correct_fen"`
		UserFEN     string           `json:"user_fen"`
		Differences []board.Mismatch `json:"differences"`
	}
	decodeJSON(t, w, &perfect)
	if perfect.Score != 32 || perfect.TotalPieces != 32 {
		t.Errorf("perfect submit = %+v", perfect)
	}
	if len(perfect.Differences) != 0 {
		t.Errorf("differences = %+v, want none", perfect.Differences)
	}
	if !strings.Contains(w.Body.String(), `"differences":[]`) {
		t.Errorf("differences must encode as [], body %q", w.Body.String())
	}

	// Resubmit with the h1 rook left off.
	altered := "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBN1"
	w = doRequest(t, s, http.MethodPost, "/api/game/submit",
		`{"session_id": `+itoa(started.SessionID)+`, "user_fen": "`+altered+`"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("resubmit status = %d, want 200", w.Code)
	}
	var imperfect struct {
		Score       int              `json:"score"`
		Differences []board.Mismatch `json:"differences"`
	}
	decodeJSON(t, w, &imperfect)
	if imperfect.Score != 31 {
		t.Errorf("score = %d, want 31", imperfect.Score)
	}
	if len(imperfect.Differences) != 1 {
		t.Fatalf("differences = %+v, want exactly one", imperfect.Differences)
	}
	if d := imperfect.Differences[0]; d.Square != "h1" || d.Correct != "R" || d.User != "." {
		t.Errorf("difference = %+v, want {h1 R .}", d)
	}

	// The session keeps the latest answer.
	sessions := doRequest(t, s, http.MethodGet, "/api/sessions", "")
	var list []store.Session
	decodeJSON(t, sessions, &list)
	if len(list) != 1 {
		t.Fatalf("sessions = %+v, want 1", list)
	}
	if list[0].Score == nil || *list[0].Score != 31 {
		t.Errorf("session score = %v, want 31 after resubmission", list[0].Score)
	}
	if list[0].UserFEN == nil || *list[0].UserFEN != altered {
		t.Errorf("session answer = %v, want %q", list[0].UserFEN, altered)
	}

	// One scored session at 31/32 pieces.
	stats := doRequest(t, s, http.MethodGet, "/api/stats", "")
	var got store.Stats
	decodeJSON(t, stats, &got)
	if got.TotalGames != 1 || got.AverageScore != 96.88 {
		t.Errorf("stats = %+v, want 1 game at 96.88", got)
	}
}

func TestListSessionsNewestFirst(t *testing.T) {
	s, mem := newTestServer(t)
	seedPosition(t, mem, board.StartFEN, 32)

	var last int64
	for i := 0; i < 3; i++ {
		w := doRequest(t, s, http.MethodPost, "/api/game/start", `{"piece_count": 32}`)
		var res struct {
			SessionID int64 `json:"session_id"`
		}
		decodeJSON(t, w, &res)
		last = res.SessionID
	}

	w := doRequest(t, s, http.MethodGet, "/api/sessions", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var list []store.Session
	decodeJSON(t, w, &list)
	if len(list) != 3 {
		t.Fatalf("len = %d, want 3", len(list))
	}
	if list[0].ID != last {
		t.Errorf("first session ID = %d, want most recent %d", list[0].ID, last)
	}
}

func TestStatsEmpty(t *testing.T) {
	s, _ := newTestServer(t)

	w := doRequest(t, s, http.MethodGet, "/api/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	var got store.Stats
	decodeJSON(t, w, &got)
	if got.TotalGames != 0 || got.AverageScore != 0 {
		t.Errorf("stats = %+v, want zeros", got)
	}
}

func itoa(n int64) string { return strconv.FormatInt(n, 10) }
