// internal/store/sqlite.go
//
// SQLite implementation of the Store interface, via mattn/go-sqlite3.
// This is the default backend: a DATABASE_URL that is a bare file path or
// a sqlite:// URL lands here. The schema is applied on open, so a fresh
// file works without a migration step.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// position_id is a weak reference on purpose: replacing the position
// catalog must not invalidate finished sessions.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS chess_positions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	fen         TEXT    NOT NULL,
	evaluation  REAL    NOT NULL DEFAULT 0,
	piece_count INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chess_positions_piece_count ON chess_positions(piece_count);

CREATE TABLE IF NOT EXISTS game_sessions (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	piece_count INTEGER NOT NULL,
	position_id INTEGER NOT NULL,
	user_answer TEXT,
	score       INTEGER,
	created_at  TEXT    NOT NULL
);
`

// SQLite is a file-backed Store.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database file at path and
// applies the schema. Parent directories are created as required.
func OpenSQLite(path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "/" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
	}

	// WAL keeps readers unblocked during writes; the busy timeout rides
	// out short write contention instead of failing with SQLITE_BUSY.
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) InsertPosition(ctx context.Context, p *Position) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO chess_positions (fen, evaluation, piece_count) VALUES (?, ?, ?)`,
		p.FEN, p.Evaluation, p.PieceCount)
	if err != nil {
		return fmt.Errorf("insert position: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("insert position id: %w", err)
	}
	p.ID = id
	return nil
}

func (s *SQLite) ReplacePositions(ctx context.Context, positions []Position) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chess_positions`); err != nil {
		return fmt.Errorf("clear positions: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chess_positions (fen, evaluation, piece_count) VALUES (?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range positions {
		res, err := stmt.ExecContext(ctx, positions[i].FEN, positions[i].Evaluation, positions[i].PieceCount)
		if err != nil {
			return fmt.Errorf("insert position %q: %w", positions[i].FEN, err)
		}
		id, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("insert position id: %w", err)
		}
		positions[i].ID = id
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

func (s *SQLite) ListPositions(ctx context.Context) ([]Position, error) {
	return s.queryPositions(ctx,
		`SELECT id, fen, evaluation, piece_count FROM chess_positions ORDER BY id`)
}

func (s *SQLite) ListPositionsByCount(ctx context.Context, pieceCount int) ([]Position, error) {
	return s.queryPositions(ctx,
		`SELECT id, fen, evaluation, piece_count FROM chess_positions WHERE piece_count = ? ORDER BY id`,
		pieceCount)
}

func (s *SQLite) queryPositions(ctx context.Context, query string, args ...any) ([]Position, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	out := make([]Position, 0)
	for rows.Next() {
		var p Position
		if err := rows.Scan(&p.ID, &p.FEN, &p.Evaluation, &p.PieceCount); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate positions: %w", err)
	}
	return out, nil
}

func (s *SQLite) GetPosition(ctx context.Context, id int64) (*Position, error) {
	var p Position
	err := s.db.QueryRowContext(ctx,
		`SELECT id, fen, evaluation, piece_count FROM chess_positions WHERE id = ?`, id).
		Scan(&p.ID, &p.FEN, &p.Evaluation, &p.PieceCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get position %d: %w", id, err)
	}
	return &p, nil
}

func (s *SQLite) CreateSession(ctx context.Context, sess *Session) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO game_sessions (piece_count, position_id, user_answer, score, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		sess.PieceCount, sess.PositionID, sess.UserFEN, sess.Score,
		sess.CreatedAt.UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("create session id: %w", err)
	}
	sess.ID = id
	return nil
}

func (s *SQLite) GetSession(ctx context.Context, id int64) (*Session, error) {
	sess, err := scanSessionText(s.db.QueryRowContext(ctx,
		`SELECT id, piece_count, position_id, user_answer, score, created_at
		 FROM game_sessions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %d: %w", id, err)
	}
	return &sess, nil
}

func (s *SQLite) UpdateSessionResult(ctx context.Context, id int64, userFEN string, score int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE game_sessions SET user_answer = ?, score = ? WHERE id = ?`,
		userFEN, score, id)
	if err != nil {
		return fmt.Errorf("update session %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update session %d: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLite) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, piece_count, position_id, user_answer, score, created_at
		 FROM game_sessions ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := make([]Session, 0)
	for rows.Next() {
		sess, err := scanSessionText(rows)
		if err != nil {
			return nil, fmt.Errorf("scan session: %w", err)
		}
		out = append(out, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}
	return out, nil
}

func (s *SQLite) Stats(ctx context.Context) (*Stats, error) {
	var games int
	var totalScore, totalPieces int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(score), 0), COALESCE(SUM(piece_count), 0)
		 FROM game_sessions WHERE score IS NOT NULL`).
		Scan(&games, &totalScore, &totalPieces)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return &Stats{TotalGames: games, AverageScore: averagePct(totalScore, totalPieces)}, nil
}

func (s *SQLite) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *SQLite) Close() error { return s.db.Close() }

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanSessionText reads a session row whose created_at column is an
// RFC 3339 string, as SQLite stores it.
func scanSessionText(row rowScanner) (Session, error) {
	var sess Session
	var answer sql.NullString
	var score sql.NullInt64
	var created string
	if err := row.Scan(&sess.ID, &sess.PieceCount, &sess.PositionID, &answer, &score, &created); err != nil {
		return sess, err
	}
	if answer.Valid {
		sess.UserFEN = &answer.String
	}
	if score.Valid {
		v := int(score.Int64)
		sess.Score = &v
	}
	t, err := time.Parse(time.RFC3339, created)
	if err != nil {
		return sess, fmt.Errorf("parse created_at: %w", err)
	}
	sess.CreatedAt = t
	return sess, nil
}
