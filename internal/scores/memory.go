package scores

import (
	"context"
	"sort"
	"sync"
	"time"
)

type entryKey struct{ game, player string }

// memoryStore keeps scores in a locked map. It backs tests and dev runs
// without a DATABASE_URL; state is lost on restart.
type memoryStore struct {
	mu            sync.RWMutex
	entries       map[entryKey]Score
	lowerIsBetter Direction
	nextID        uint
}

func NewMemoryStore(lowerIsBetter Direction) Store {
	return &memoryStore{
		entries:       make(map[entryKey]Score),
		lowerIsBetter: lowerIsBetter,
	}
}

func (m *memoryStore) Submit(ctx context.Context, game, player string, value int) (SubmitResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := entryKey{game: game, player: player}
	existing, ok := m.entries[key]
	if !ok {
		m.nextID++
		m.entries[key] = Score{
			ID:        m.nextID,
			Game:      game,
			Player:    player,
			Score:     value,
			CreatedAt: time.Now(),
		}
		return Created, nil
	}

	if !beats(value, existing.Score, m.lowerIsBetter(game)) {
		return NotImproved, nil
	}
	existing.Score = value
	m.entries[key] = existing
	return Improved, nil
}

func (m *memoryStore) Top(ctx context.Context, game string, limit int) ([]Score, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	lower := m.lowerIsBetter(game)
	out := make([]Score, 0)
	for key, s := range m.entries {
		if key.game != game || s.Score <= 0 {
			continue
		}
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool {
		if lower {
			return out[i].Score < out[j].Score
		}
		return out[i].Score > out[j].Score
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
