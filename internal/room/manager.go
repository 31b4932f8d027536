package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/paul0vinicius/chasing-chairs/internal/engine"
)

var ErrRoomFull = errors.New("room is full")
var ErrRoomNotWaiting = errors.New("room is not accepting players")
var ErrCodeSpace = errors.New("no free room code")

const Capacity = 4

const codeAttempts = 32

// Manager implements the room operations on top of a Store. It is not safe
// for concurrent use; the hub loop is its only caller.
type Manager struct {
	store Store
	rng   engine.Rand
	codes func() (string, error)
}

func NewManager(store Store, rng engine.Rand) *Manager {
	if rng == nil {
		rng = engine.DefaultRand
	}
	return &Manager{store: store, rng: rng, codes: GenerateCode}
}

func (m *Manager) CreateRoom(ctx context.Context, hostID, hostName string) (*engine.Room, error) {
	code, err := m.freeCode(ctx)
	if err != nil {
		return nil, err
	}

	r := engine.NewRoom(code, engine.RandomMap(m.rng))
	spawn := engine.PickSpawn(r.MapData, r.Occupied(), m.rng)
	r.Players[hostID] = engine.NewPlayer(hostID, hostName, spawn)

	if err := m.store.Put(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (m *Manager) freeCode(ctx context.Context) (string, error) {
	for i := 0; i < codeAttempts; i++ {
		code, err := m.codes()
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		_, err = m.store.Get(ctx, code)
		if errors.Is(err, ErrRoomNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", ErrCodeSpace
}

func (m *Manager) JoinRoom(ctx context.Context, code, playerID, playerName string) (*engine.Room, error) {
	r, err := m.store.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if r.Status != engine.StatusWaiting {
		return nil, ErrRoomNotWaiting
	}
	if len(r.Players) >= Capacity {
		return nil, ErrRoomFull
	}

	spawn := engine.PickSpawn(r.MapData, r.Occupied(), m.rng)
	r.Players[playerID] = engine.NewPlayer(playerID, playerName, spawn)

	if err := m.store.Put(ctx, r); err != nil {
		delete(r.Players, playerID)
		return nil, err
	}
	return r, nil
}

func (m *Manager) GetRoom(ctx context.Context, code string) (*engine.Room, error) {
	return m.store.Get(ctx, code)
}

func (m *Manager) DeleteRoom(ctx context.Context, code string) (bool, error) {
	return m.store.Delete(ctx, code)
}

// SetStatus is a no-op for an absent room.
func (m *Manager) SetStatus(ctx context.Context, code string, status engine.Status) error {
	_, err := m.Update(ctx, code, func(r *engine.Room) error {
		r.Status = status
		return nil
	})
	if errors.Is(err, ErrRoomNotFound) {
		return nil
	}
	return err
}

// Update loads a room, runs fn and writes it back unless fn fails.
func (m *Manager) Update(ctx context.Context, code string, fn func(r *engine.Room) error) (*engine.Room, error) {
	r, err := m.store.Get(ctx, code)
	if err != nil {
		return nil, err
	}
	if err := fn(r); err != nil {
		return r, err
	}
	if err := m.store.Put(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// RemovePlayer drops playerID and deletes the room once it is empty.
func (m *Manager) RemovePlayer(ctx context.Context, code, playerID string) (r *engine.Room, emptied bool, err error) {
	r, err = m.store.Get(ctx, code)
	if err != nil {
		return nil, false, err
	}
	delete(r.Players, playerID)

	if len(r.Players) == 0 {
		if _, err := m.store.Delete(ctx, code); err != nil {
			return r, false, err
		}
		return r, true, nil
	}
	if err := m.store.Put(ctx, r); err != nil {
		return r, false, err
	}
	return r, false, nil
}

func (m *Manager) Codes(ctx context.Context) ([]string, error) {
	return m.store.Codes(ctx)
}
