package history

import (
	"context"
	"sort"
	"sync"

	"github.com/park285/chess-rules/internal/chess"
)

// memrepo keeps games in process memory; used when no database is configured.
type memrepo struct {
	mu    sync.RWMutex
	games map[int64]*chess.SavedGame
}

func NewMemoryRepository() Repository {
	return &memrepo{games: make(map[int64]*chess.SavedGame)}
}

func (m *memrepo) Insert(_ context.Context, g *chess.SavedGame) (int64, error) {
	if g == nil {
		return 0, ErrDuplicateGame
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.games[g.ID]; exists {
		return 0, ErrDuplicateGame
	}
	m.games[g.ID] = cloneGame(g)
	return g.ID, nil
}

func (m *memrepo) Get(_ context.Context, id int64) (*chess.SavedGame, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	g, ok := m.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return cloneGame(g), nil
}

func (m *memrepo) List(_ context.Context, limit int) ([]*chess.SavedGame, error) {
	m.mu.RLock()
	items := make([]*chess.SavedGame, 0, len(m.games))
	for _, g := range m.games {
		items = append(items, cloneGame(g))
	}
	m.mu.RUnlock()

	sort.Slice(items, func(i, j int) bool { return items[i].ID > items[j].ID })
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (m *memrepo) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.games[id]; !ok {
		return ErrNotFound
	}
	delete(m.games, id)
	return nil
}

func (m *memrepo) Clear(_ context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := len(m.games)
	m.games = make(map[int64]*chess.SavedGame)
	return n, nil
}
