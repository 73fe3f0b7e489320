package game

import (
	"context"
	"iter"
	"sort"
	"sync"
)

// MemoryRepo keeps games in process memory. Used by tests and the
// "memory" store driver.
type MemoryRepo struct {
	mu    sync.RWMutex
	games map[string]Game
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{games: make(map[string]Game)}
}

func (r *MemoryRepo) Get(_ context.Context, id string) (*Game, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	g, ok := r.games[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &g, nil
}

func (r *MemoryRepo) Create(_ context.Context, g *Game) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.games[g.ID]; ok {
		return ErrAlreadyExists
	}
	r.games[g.ID] = *g
	return nil
}

func (r *MemoryRepo) Update(_ context.Context, g *Game, prevTokenHash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.games[g.ID]
	if !ok || stored.TurnTokenHash != prevTokenHash {
		return ErrTokenMismatch
	}
	r.games[g.ID] = *g
	return nil
}

func (r *MemoryRepo) Query(_ context.Context, f Filter) iter.Seq2[*Game, error] {
	return func(yield func(*Game, error) bool) {
		r.mu.RLock()
		matched := make([]Game, 0, len(r.games))
		for _, g := range r.games {
			if f.Match(&g) {
				matched = append(matched, g)
			}
		}
		r.mu.RUnlock()

		sort.Slice(matched, func(i, j int) bool {
			return matched[i].ID < matched[j].ID
		})

		for i := range matched {
			if !yield(&matched[i], nil) {
				return
			}
		}
	}
}

func (r *MemoryRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.games, id)
	return nil
}
