package engine

import "encoding/json"

func NewPlayer(id, name string, at Position) *Player {
	return &Player{
		ID:       id,
		Name:     name,
		Position: at,
		Speed:    1,
	}
}

func NewRoom(code string, grid Grid) *Room {
	return &Room{
		Code:    code,
		Players: map[string]*Player{},
		Chair:   Chair{IsActive: false, Position: NoPosition},
		Status:  StatusWaiting,
		MapData: grid,
	}
}

// Occupied lists every player position.
func (r *Room) Occupied() []Position {
	out := make([]Position, 0, len(r.Players))
	for _, p := range r.Players {
		out = append(out, p.Position)
	}
	return out
}

// PlayerTable copies the players so the copy can leave the owning goroutine.
func (r *Room) PlayerTable() map[string]Player {
	out := make(map[string]Player, len(r.Players))
	for id, p := range r.Players {
		out[id] = *p
	}
	return out
}

func (r *Room) Clone() *Room {
	if r == nil {
		return nil
	}
	c := *r
	c.MapData = r.MapData.Clone()
	c.Players = make(map[string]*Player, len(r.Players))
	for id, p := range r.Players {
		cp := *p
		c.Players[id] = &cp
	}
	return &c
}

func (r Room) MarshalBinary() ([]byte, error) {
	return json.Marshal(r)
}

func (r *Room) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, r)
}
