// internal/store/postgres.go
//
// Postgres implementation of the Store interface, via lib/pq. Selected
// when DATABASE_URL starts with postgres:// or postgresql://.

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS chess_positions (
	id          BIGSERIAL PRIMARY KEY,
	fen         TEXT             NOT NULL,
	evaluation  DOUBLE PRECISION NOT NULL DEFAULT 0,
	piece_count INTEGER          NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_chess_positions_piece_count ON chess_positions(piece_count);

CREATE TABLE IF NOT EXISTS game_sessions (
	id          BIGSERIAL PRIMARY KEY,
	piece_count INTEGER     NOT NULL,
	position_id BIGINT      NOT NULL,
	user_answer TEXT,
	score       INTEGER,
	created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
);
`

// Postgres is a Store backed by a Postgres database.
type Postgres struct {
	db *sql.DB
}

// OpenPostgres connects to the database at url, verifies the connection
// and applies the schema.
func OpenPostgres(url string) (*Postgres, error) {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) InsertPosition(ctx context.Context, pos *Position) error {
	err := p.db.QueryRowContext(ctx,
		`INSERT INTO chess_positions (fen, evaluation, piece_count) VALUES ($1, $2, $3) RETURNING id`,
		pos.FEN, pos.Evaluation, pos.PieceCount).Scan(&pos.ID)
	if err != nil {
		return fmt.Errorf("insert position: %w", err)
	}
	return nil
}

func (p *Postgres) ReplacePositions(ctx context.Context, positions []Position) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM chess_positions`); err != nil {
		return fmt.Errorf("clear positions: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO chess_positions (fen, evaluation, piece_count) VALUES ($1, $2, $3) RETURNING id`)
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i := range positions {
		err := stmt.QueryRowContext(ctx,
			positions[i].FEN, positions[i].Evaluation, positions[i].PieceCount).
			Scan(&positions[i].ID)
		if err != nil {
			return fmt.Errorf("insert position %q: %w", positions[i].FEN, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace: %w", err)
	}
	return nil
}

func (p *Postgres) ListPositions(ctx context.Context) ([]Position, error) {
	return p.queryPositions(ctx,
		`SELECT id, fen, evaluation, piece_count FROM chess_positions ORDER BY id`)
}

func (p *Postgres) ListPositionsByCount(ctx context.Context, pieceCount int) ([]Position, error) {
	return p.queryPositions(ctx,
		`SELECT id, fen, evaluation, piece_count FROM chess_positions WHERE piece_count = $1 ORDER BY id`,
		pieceCount)
}

func (p *Postgres) queryPositions(ctx context.Context, query string, args ...any) ([]Position, error) {
	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query positions: %w", err)
	}
	defer rows.Close()

	out := make([]Position, 0)
	for rows.Next() {
		var pos Position
		if err := rows.Scan(&pos.ID, &pos.FEN, &pos.Evaluation, &pos.PieceCount); err != nil {
			return nil, fmt.Errorf("scan position: %w", err)
		}
		out = append(out, pos)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate positions: %w", err)
	}
	return out, nil
}

func (p *Postgres) GetPosition(ctx context.Context, id int64) (*Position, error) {
	var pos Position
	err := p.db.QueryRowContext(ctx,
		`SELECT id, fen, evaluation, piece_count FROM chess_positions WHERE id = $1`, id).
		Scan(&pos.ID, &pos.FEN, &pos.Evaluation, &pos.PieceCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get position %d: %w", id, err)
	}
	return &pos, nil
}

func (p *Postgres) CreateSession(ctx context.Context, sess *Session) error {
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	err := p.db.QueryRowContext(ctx,
		`INSERT INTO game_sessions (piece_count, position_id, user_answer, score, created_at)
		 VALUES ($1, $2, $3, $4, $5) RETURNING id`,
		sess.PieceCount, sess.PositionID, sess.UserFEN, sess.Score, sess.CreatedAt).
		Scan(&sess.ID)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (p *Postgres) GetSession(ctx context.Context, id int64) (*Session, error) {
	sess, err := scanSessionTime(p.db.QueryRowContext(ctx,
		`SELECT id, piece_count, position_id, user_answer, score, created_at
		 FROM game_sessions WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get session %d: %w", id, err)
	}
	return &sess, nil
}

func (p *Postgres) UpdateSessionResult(ctx context.Context, id int64, userFEN string, score int) error {
	res, err := p.db.ExecContext(ctx,
		`UPDATE game_sessions SET user_answer = $1, score = $2 WHERE id = $3`,
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

func (p *Postgres) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := p.db.QueryContext(ctx,
		`SELECT id, piece_count, position_id, user_answer, score, created_at
		 FROM game_sessions ORDER BY created_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query sessions: %w", err)
	}
	defer rows.Close()

	out := make([]Session, 0)
	for rows.Next() {
		sess, err := scanSessionTime(rows)
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

func (p *Postgres) Stats(ctx context.Context) (*Stats, error) {
	var games int
	var totalScore, totalPieces int64
	err := p.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(score), 0), COALESCE(SUM(piece_count), 0)
		 FROM game_sessions WHERE score IS NOT NULL`).
		Scan(&games, &totalScore, &totalPieces)
	if err != nil {
		return nil, fmt.Errorf("stats: %w", err)
	}
	return &Stats{TotalGames: games, AverageScore: averagePct(totalScore, totalPieces)}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

// scanSessionTime reads a session row whose created_at column is a native
// timestamp, as Postgres stores it.
func scanSessionTime(row rowScanner) (Session, error) {
	var sess Session
	var answer sql.NullString
	var score sql.NullInt64
	if err := row.Scan(&sess.ID, &sess.PieceCount, &sess.PositionID, &answer, &score, &sess.CreatedAt); err != nil {
		return sess, err
	}
	if answer.Valid {
		sess.UserFEN = &answer.String
	}
	if score.Valid {
		v := int(score.Int64)
		sess.Score = &v
	}
	sess.CreatedAt = sess.CreatedAt.UTC()
	return sess, nil
}
