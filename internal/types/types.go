package types

import "github.com/paul0vinicius/chasing-chairs/internal/engine"

// Client -> server message types.
const (
	TypeCreateRoom   = "createRoom"
	TypeJoinRoom     = "joinRoom"
	TypeStartGame    = "startGame"
	TypePlayerMoved  = "playerMoved"
	TypePlayerSat    = "playerSat"
	TypeRequestSync  = "requestSync"
	TypeRestartRound = "restartRound"
)

// Server -> client message types.
const (
	TypeConnected          = "connected"
	TypeRoomCreated        = "roomCreated"
	TypeRoomJoined         = "roomJoined"
	TypePlayerJoined       = "playerJoined"
	TypePlayerDisconnected = "playerDisconnected"
	TypeGameStarted        = "gameStarted"
	TypeMusicStarted       = "musicStarted"
	TypeMusicStopped       = "musicStopped"
	TypeChairSpawned       = "chairSpawned"
	TypeChairTaken         = "chairTaken"
	TypeUpdatedPlayers     = "updatedPlayers"
	TypeGameOver           = "gameOver"
	TypeError              = "error"
)

type ClientMessage struct {
	Type       string           `json:"type"`
	RoomCode   string           `json:"roomCode,omitempty"`
	PlayerName string           `json:"playerName,omitempty"`
	Direction  string           `json:"direction,omitempty"`
	Position   *engine.Position `json:"position,omitempty"`
}

// ServerMessage values leave the hub goroutine, so every pointer or map in
// them must be a private copy.
type ServerMessage struct {
	Type      string                   `json:"type"`
	ID        string                   `json:"id,omitempty"`
	Room      *engine.Room             `json:"room,omitempty"`
	Player    *engine.Player           `json:"player,omitempty"`
	Players   map[string]engine.Player `json:"players,omitempty"`
	PlayerID  string                   `json:"playerId,omitempty"`
	Direction engine.Direction         `json:"direction,omitempty"`
	Position  *engine.Position         `json:"position,omitempty"`
	URL       string                   `json:"url,omitempty"`
	Message   string                   `json:"message,omitempty"`
}

func Connected(id string) ServerMessage {
	return ServerMessage{Type: TypeConnected, ID: id}
}

func RoomCreated(r *engine.Room) ServerMessage {
	return ServerMessage{Type: TypeRoomCreated, Room: r.Clone()}
}

func RoomJoined(r *engine.Room) ServerMessage {
	return ServerMessage{Type: TypeRoomJoined, Room: r.Clone()}
}

func PlayerJoined(p engine.Player) ServerMessage {
	return ServerMessage{Type: TypePlayerJoined, Player: &p}
}

func PlayerMoved(id string, dir engine.Direction, at engine.Position) ServerMessage {
	return ServerMessage{Type: TypePlayerMoved, PlayerID: id, Direction: dir, Position: &at}
}

func PlayerDisconnected(id string) ServerMessage {
	return ServerMessage{Type: TypePlayerDisconnected, PlayerID: id}
}

func GameStarted(players map[string]engine.Player) ServerMessage {
	return ServerMessage{Type: TypeGameStarted, Players: players}
}

func MusicStarted(url string) ServerMessage {
	return ServerMessage{Type: TypeMusicStarted, URL: url}
}

func MusicStopped() ServerMessage {
	return ServerMessage{Type: TypeMusicStopped}
}

func ChairSpawned(at engine.Position) ServerMessage {
	return ServerMessage{Type: TypeChairSpawned, Position: &at}
}

func ChairTaken(playerID string) ServerMessage {
	return ServerMessage{Type: TypeChairTaken, PlayerID: playerID}
}

func UpdatedPlayers(players map[string]engine.Player) ServerMessage {
	return ServerMessage{Type: TypeUpdatedPlayers, Players: players}
}

func GameOver(winnerID string, players map[string]engine.Player) ServerMessage {
	return ServerMessage{Type: TypeGameOver, PlayerID: winnerID, Players: players}
}

func Error(message string) ServerMessage {
	return ServerMessage{Type: TypeError, Message: message}
}
