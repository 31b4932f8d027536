package ws

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/paul0vinicius/chasing-chairs/internal/engine"
	"github.com/paul0vinicius/chasing-chairs/internal/hub"
	"github.com/paul0vinicius/chasing-chairs/internal/room"
	"github.com/paul0vinicius/chasing-chairs/internal/types"
)

var (
	ErrBadMessage   = errors.New("bad message")
	ErrUnknownType  = errors.New("unknown message type")
	ErrMissingField = errors.New("missing field")
)

// maxNameLen caps display names in runes. Longer names are cut, not refused.
const maxNameLen = 20

// Decode turns one client frame into a hub command. Nothing invalid gets past it.
func Decode(data []byte) (hub.Command, error) {
	var m types.ClientMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	return toCommand(m)
}

func toCommand(m types.ClientMessage) (hub.Command, error) {
	switch m.Type {
	case types.TypeCreateRoom:
		name, err := playerName(m.PlayerName)
		if err != nil {
			return nil, err
		}
		return hub.CreateRoom{PlayerName: name}, nil

	case types.TypeJoinRoom:
		code, err := roomCode(m.RoomCode)
		if err != nil {
			return nil, err
		}
		name, err := playerName(m.PlayerName)
		if err != nil {
			return nil, err
		}
		return hub.JoinRoom{RoomCode: code, PlayerName: name}, nil

	case types.TypeStartGame:
		code, err := roomCode(m.RoomCode)
		if err != nil {
			return nil, err
		}
		return hub.StartGame{RoomCode: code}, nil

	case types.TypePlayerMoved:
		code, err := roomCode(m.RoomCode)
		if err != nil {
			return nil, err
		}
		if m.Direction == "" {
			return nil, fmt.Errorf("%w: direction", ErrMissingField)
		}
		dir, ok := engine.ParseDirection(m.Direction)
		if !ok {
			return nil, fmt.Errorf("%w: direction %q", ErrBadMessage, m.Direction)
		}
		return hub.MovePlayer{RoomCode: code, Direction: dir, Target: m.Position}, nil

	case types.TypePlayerSat:
		code, err := roomCode(m.RoomCode)
		if err != nil {
			return nil, err
		}
		return hub.ClaimChair{RoomCode: code}, nil

	case types.TypeRequestSync:
		code, err := roomCode(m.RoomCode)
		if err != nil {
			return nil, err
		}
		return hub.RequestSync{RoomCode: code}, nil

	case types.TypeRestartRound:
		code, err := roomCode(m.RoomCode)
		if err != nil {
			return nil, err
		}
		return hub.RestartRound{RoomCode: code}, nil

	case "":
		return nil, fmt.Errorf("%w: type", ErrMissingField)

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, m.Type)
	}
}

// roomCode accepts codes the way people type them: any case, stray spaces.
func roomCode(s string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(s))
	if code == "" {
		return "", fmt.Errorf("%w: roomCode", ErrMissingField)
	}
	if !room.ValidCode(code) {
		return "", fmt.Errorf("%w: room code %q", ErrBadMessage, s)
	}
	return code, nil
}

func playerName(s string) (string, error) {
	name := strings.TrimSpace(s)
	if name == "" {
		return "", fmt.Errorf("%w: playerName", ErrMissingField)
	}
	if !utf8.ValidString(name) {
		return "", fmt.Errorf("%w: playerName is not utf-8", ErrBadMessage)
	}
	if utf8.RuneCountInString(name) > maxNameLen {
		name = string([]rune(name)[:maxNameLen])
	}
	return name, nil
}
