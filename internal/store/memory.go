// internal/store/memory.go
//
// In-memory implementation of the Store interface.
//
// Characteristics:
//   - Positions and sessions live in maps keyed by their assigned IDs.
//   - Concurrency-safe via RWMutex (concurrent reads allowed, writes exclusive).
//   - State is lost when the process restarts.
//   - Selected with DATABASE_URL=memory://; also the backend the tests use.

package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// Memory is a map-backed Store implementation.
type Memory struct {
	mu        sync.RWMutex // guards all fields below
	positions map[int64]Position
	sessions  map[int64]Session
	nextPos   int64 // next position ID to hand out
	nextSess  int64 // next session ID to hand out
}

// NewMemory constructs an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		positions: make(map[int64]Position),
		sessions:  make(map[int64]Session),
		nextPos:   1,
		nextSess:  1,
	}
}

func (m *Memory) InsertPosition(ctx context.Context, p *Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	p.ID = m.nextPos
	m.nextPos++
	m.positions[p.ID] = *p
	return nil
}

func (m *Memory) ReplacePositions(ctx context.Context, positions []Position) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.positions = make(map[int64]Position, len(positions))
	for i := range positions {
		positions[i].ID = m.nextPos
		m.nextPos++
		m.positions[positions[i].ID] = positions[i]
	}
	return nil
}

func (m *Memory) ListPositions(ctx context.Context) ([]Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Position, 0, len(m.positions))
	for _, p := range m.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) ListPositionsByCount(ctx context.Context, pieceCount int) ([]Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Position, 0)
	for _, p := range m.positions {
		if p.PieceCount == pieceCount {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *Memory) GetPosition(ctx context.Context, id int64) (*Position, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	p, ok := m.positions[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (m *Memory) CreateSession(ctx context.Context, sess *Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now().UTC()
	}
	sess.ID = m.nextSess
	m.nextSess++
	m.sessions[sess.ID] = cloneSession(*sess)
	return nil
}

func (m *Memory) GetSession(ctx context.Context, id int64) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	s = cloneSession(s)
	return &s, nil
}

func (m *Memory) UpdateSessionResult(ctx context.Context, id int64, userFEN string, score int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s, ok := m.sessions[id]
	if !ok {
		return ErrNotFound
	}
	s.UserFEN = &userFEN
	s.Score = &score
	m.sessions[id] = s
	return nil
}

func (m *Memory) ListSessions(ctx context.Context, limit int) ([]Session, error) {
	if limit <= 0 {
		limit = 100
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, cloneSession(s))
	}
	// Newest first; IDs break ties between sessions created in the same
	// instant.
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *Memory) Stats(ctx context.Context) (*Stats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var games int
	var totalScore, totalPieces int64
	for _, s := range m.sessions {
		if s.Score == nil {
			continue
		}
		games++
		totalScore += int64(*s.Score)
		totalPieces += int64(s.PieceCount)
	}
	return &Stats{
		TotalGames:   games,
		AverageScore: averagePct(totalScore, totalPieces),
	}, nil
}

func (m *Memory) Ping(ctx context.Context) error { return nil }

func (m *Memory) Close() error { return nil }

// cloneSession deep-copies the pointer fields so callers cannot mutate
// stored state through a returned session.
func cloneSession(s Session) Session {
	if s.UserFEN != nil {
		v := *s.UserFEN
		s.UserFEN = &v
	}
	if s.Score != nil {
		v := *s.Score
		s.Score = &v
	}
	return s
}
