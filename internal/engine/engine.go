package engine

import (
	"errors"
)

var ErrUnknownPlayer = errors.New("unknown player")
var ErrChairInactive = errors.New("chair is not active")
var ErrChairActive = errors.New("chair is already active")
var ErrBadDirection = errors.New("invalid direction")
var ErrUnsupportedCommand = errors.New("unsupported command")

type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// NoPosition is where an inactive chair sits.
var NoPosition = Position{X: -1, Y: -1}

type Player struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Position  Position `json:"position"`
	IsSitting bool     `json:"isSitting"`
	Speed     int      `json:"speed"`
	Score     int      `json:"score"`
}

type Chair struct {
	IsActive bool     `json:"isActive"`
	Position Position `json:"position"`
}

type Room struct {
	Code    string             `json:"code"`
	Players map[string]*Player `json:"players"`
	Chair   Chair              `json:"chair"`
	Status  Status             `json:"status"`
	MapData Grid               `json:"mapData"`
	Round   int                `json:"round"`
}

type CommandType string

const (
	CmdMove       CommandType = "Move"
	CmdClaimChair CommandType = "ClaimChair"
	CmdSpawnChair CommandType = "SpawnChair"
	CmdResetChair CommandType = "ResetChair"
)

/*
	CmdMove       -> EvtPlayerMoved
	CmdSpawnChair -> EvtChairSpawned (position is picked by the caller, Apply stays deterministic)
	CmdClaimChair -> EvtChairTaken -> EvtScoreChanged
	CmdResetChair -> EvtChairReset
*/

type Command struct {
	Type      CommandType
	PlayerID  string
	Direction Direction
	Position  Position
}

type EventType string

const (
	EvtPlayerMoved  EventType = "PlayerMoved"
	EvtChairSpawned EventType = "ChairSpawned"
	EvtChairTaken   EventType = "ChairTaken"
	EvtScoreChanged EventType = "ScoreChanged"
	EvtChairReset   EventType = "ChairReset"
)

type Event struct {
	Type      EventType
	PlayerID  string
	Direction Direction
	Position  Position
	Score     int
}

// Apply mutates r in place. On error r is left untouched.
func Apply(r *Room, cmd Command) ([]Event, error) {
	switch cmd.Type {
	case CmdMove:
		p, ok := r.Players[cmd.PlayerID]
		if !ok {
			return nil, ErrUnknownPlayer
		}
		if !cmd.Direction.Valid() {
			return nil, ErrBadDirection
		}

		// No wall or bounds check; collision is client-side.
		dx, dy := cmd.Direction.Delta()
		p.Position.X += dx * p.Speed
		p.Position.Y += dy * p.Speed

		return []Event{
			{Type: EvtPlayerMoved, PlayerID: p.ID, Direction: cmd.Direction, Position: p.Position},
		}, nil

	case CmdSpawnChair:
		if r.Chair.IsActive {
			return nil, ErrChairActive
		}
		r.Chair = Chair{IsActive: true, Position: cmd.Position}
		return []Event{{Type: EvtChairSpawned, Position: cmd.Position}}, nil

	case CmdClaimChair:
		p, ok := r.Players[cmd.PlayerID]
		if !ok {
			return nil, ErrUnknownPlayer
		}
		// Check-and-clear first. A second claim sees an inactive chair.
		if !r.Chair.IsActive {
			return nil, ErrChairInactive
		}
		at := r.Chair.Position
		r.Chair = Chair{IsActive: false, Position: NoPosition}

		p.IsSitting = true
		p.Score++

		return []Event{
			{Type: EvtChairTaken, PlayerID: p.ID, Position: at},
			{Type: EvtScoreChanged, PlayerID: p.ID, Score: p.Score},
		}, nil

	case CmdResetChair:
		r.Chair = Chair{IsActive: false, Position: NoPosition}
		for _, p := range r.Players {
			p.IsSitting = false
		}
		return []Event{{Type: EvtChairReset}}, nil

	default:
		return nil, ErrUnsupportedCommand
	}
}
