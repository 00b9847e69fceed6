package service

import (
	"context"
	"sort"
	"sync"

	"github.com/guttosm/varpulse/internal/domain/models"
)

// MemoryStore keeps runs in process memory. Records are lost on restart.
type MemoryStore struct {
	mu   sync.RWMutex
	runs map[string]models.Run
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{runs: make(map[string]models.Run)}
}

func (s *MemoryStore) Save(_ context.Context, run models.Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (models.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	run, ok := s.runs[id]
	if !ok {
		return models.Run{}, ErrRunNotFound
	}
	return run, nil
}

func (s *MemoryStore) List(_ context.Context, limit int) ([]models.Run, error) {
	s.mu.RLock()
	out := make([]models.Run, 0, len(s.runs))
	for _, r := range s.runs {
		out = append(out, r)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].StartedAt.After(out[j].StartedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryStore) Ping(context.Context) error { return nil }
