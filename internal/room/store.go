package room

import (
	"context"
	"errors"
	"sync"

	"github.com/paul0vinicius/chasing-chairs/internal/engine"
)

var ErrRoomNotFound = errors.New("room not found")

// Store is the get/put/delete-by-code capability behind the room manager.
// Rooms handed out by Get must be written back with Put after mutation.
type Store interface {
	Get(ctx context.Context, code string) (*engine.Room, error)
	Put(ctx context.Context, r *engine.Room) error
	Delete(ctx context.Context, code string) (bool, error)
	Codes(ctx context.Context) ([]string, error)
}

type MemoryStore struct {
	mu    sync.RWMutex
	rooms map[string]*engine.Room
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{rooms: make(map[string]*engine.Room)}
}

func (s *MemoryStore) Get(_ context.Context, code string) (*engine.Room, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.rooms[code]
	if !ok {
		return nil, ErrRoomNotFound
	}
	return r, nil
}

func (s *MemoryStore) Put(_ context.Context, r *engine.Room) error {
	s.mu.Lock()
	s.rooms[r.Code] = r
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.rooms[code]
	delete(s.rooms, code)
	return ok, nil
}

func (s *MemoryStore) Codes(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.rooms))
	for code := range s.rooms {
		out = append(out, code)
	}
	return out, nil
}
