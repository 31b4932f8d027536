package hub

import (
	"errors"

	"go.uber.org/zap"

	"github.com/paul0vinicius/chasing-chairs/internal/engine"
	"github.com/paul0vinicius/chasing-chairs/internal/room"
	"github.com/paul0vinicius/chasing-chairs/internal/types"
)

// Command is a validated client request.
type Command interface{ isCommand() }

type CreateRoom struct {
	PlayerName string
}

type JoinRoom struct {
	RoomCode   string
	PlayerName string
}

type StartGame struct {
	RoomCode string
}

type MovePlayer struct {
	RoomCode  string
	Direction engine.Direction
	Target    *engine.Position // where the client thinks it ended up; advisory
}

type ClaimChair struct {
	RoomCode string
}

type RequestSync struct {
	RoomCode string
}

type RestartRound struct {
	RoomCode string
}

func (CreateRoom) isCommand()   {}
func (JoinRoom) isCommand()     {}
func (StartGame) isCommand()    {}
func (MovePlayer) isCommand()   {}
func (ClaimChair) isCommand()   {}
func (RequestSync) isCommand()  {}
func (RestartRound) isCommand() {}

const errNotInRoom = "not in room"

// matchPlayers is the head count that kicks off a waiting room.
const matchPlayers = 2

func (h *Hub) handle(connID string, cmd Command) {
	c, ok := h.clients[connID]
	if !ok {
		return
	}

	switch cmd := cmd.(type) {
	case CreateRoom:
		h.createRoom(connID, c, cmd)

	case JoinRoom:
		h.joinRoom(connID, c, cmd)

	case StartGame:
		if !h.requireMember(connID, c, cmd.RoomCode) {
			return
		}
		h.sched.BeginMatch(h.ctx, cmd.RoomCode)

	case MovePlayer:
		if !h.requireMember(connID, c, cmd.RoomCode) {
			return
		}
		h.movePlayer(connID, cmd)

	case ClaimChair:
		if !h.requireMember(connID, c, cmd.RoomCode) {
			return
		}
		h.sched.Claim(h.ctx, cmd.RoomCode, connID)

	case RequestSync:
		r, err := h.rooms.GetRoom(h.ctx, cmd.RoomCode)
		if err != nil {
			h.toConn(connID, types.Error(rejection(err)))
			return
		}
		h.toConn(connID, types.UpdatedPlayers(r.PlayerTable()))

	case RestartRound:
		if !h.requireMember(connID, c, cmd.RoomCode) {
			return
		}
		h.sched.Restart(h.ctx, cmd.RoomCode)
	}
}

func (h *Hub) requireMember(connID string, c *client, code string) bool {
	if c.room != code {
		h.toConn(connID, types.Error(errNotInRoom))
		return false
	}
	h.activity[code] = h.clock.Now()
	return true
}

func (h *Hub) createRoom(connID string, c *client, cmd CreateRoom) {
	h.leave(connID, c)

	r, err := h.rooms.CreateRoom(h.ctx, connID, cmd.PlayerName)
	if err != nil {
		h.log.Error("create room", zap.String("conn", connID), zap.Error(err))
		h.toConn(connID, types.Error(rejection(err)))
		return
	}
	h.enter(connID, c, r.Code)
	h.toConn(connID, types.RoomCreated(r))
	h.log.Info("room created", zap.String("room", r.Code), zap.String("host", cmd.PlayerName))
}

func (h *Hub) joinRoom(connID string, c *client, cmd JoinRoom) {
	if c.room == cmd.RoomCode {
		if r, err := h.rooms.GetRoom(h.ctx, cmd.RoomCode); err == nil {
			h.toConn(connID, types.RoomJoined(r))
			return
		}
	}

	r, err := h.rooms.JoinRoom(h.ctx, cmd.RoomCode, connID, cmd.PlayerName)
	if err != nil {
		h.toConn(connID, types.Error(rejection(err)))
		return
	}
	h.leave(connID, c)
	h.enter(connID, c, r.Code)

	h.toConn(connID, types.RoomJoined(r))
	h.toRoomExcept(r.Code, connID, types.PlayerJoined(*r.Players[connID]))
	h.log.Info("player joined",
		zap.String("room", r.Code),
		zap.String("conn", connID),
		zap.Int("players", len(r.Players)),
	)

	if len(r.Players) == matchPlayers && r.Status == engine.StatusWaiting {
		h.sched.ScheduleMatch(h.ctx, r.Code)
	}
}

// movePlayer relays the server's position, not the client's.
func (h *Hub) movePlayer(connID string, cmd MovePlayer) {
	var at engine.Position
	_, err := h.rooms.Update(h.ctx, cmd.RoomCode, func(r *engine.Room) error {
		_, err := engine.Apply(r, engine.Command{Type: engine.CmdMove, PlayerID: connID, Direction: cmd.Direction})
		if err != nil {
			return err
		}
		at = r.Players[connID].Position
		return nil
	})
	if err != nil {
		h.log.Debug("move rejected", zap.String("room", cmd.RoomCode), zap.String("conn", connID), zap.Error(err))
		return
	}

	if cmd.Target != nil && *cmd.Target != at {
		h.log.Debug("position desync",
			zap.String("room", cmd.RoomCode),
			zap.String("conn", connID),
			zap.Any("client", *cmd.Target),
			zap.Any("server", at),
		)
	}
	h.toRoomExcept(cmd.RoomCode, connID, types.PlayerMoved(connID, cmd.Direction, at))
}

func (h *Hub) enter(connID string, c *client, code string) {
	c.room = code
	ids, ok := h.members[code]
	if !ok {
		ids = make(map[string]struct{})
		h.members[code] = ids
	}
	ids[connID] = struct{}{}
	h.activity[code] = h.clock.Now()
	delete(h.stale[code], connID)
}

// leave takes the connection out of its current room and tears the room down
// when nobody is left. If the store cannot drop the player the rest of the
// room is still told, and retryStale removes the entry later.
func (h *Hub) leave(connID string, c *client) {
	code := c.room
	if code == "" {
		return
	}
	c.room = ""
	delete(h.members[code], connID)

	_, emptied, err := h.rooms.RemovePlayer(h.ctx, code, connID)
	switch {
	case errors.Is(err, room.ErrRoomNotFound):
		h.teardown(code)
		return
	case err != nil:
		h.log.Error("remove player", zap.String("room", code), zap.String("conn", connID), zap.Error(err))
		h.markStale(code, connID)
		if len(h.members[code]) == 0 {
			h.sched.Teardown(code)
			return
		}
	case emptied:
		h.teardown(code)
		h.log.Info("room deleted", zap.String("room", code))
		return
	}
	h.ToRoom(code, types.PlayerDisconnected(connID))
}

func rejection(err error) string {
	switch {
	case errors.Is(err, room.ErrRoomNotFound),
		errors.Is(err, room.ErrRoomFull),
		errors.Is(err, room.ErrRoomNotWaiting):
		return err.Error()
	default:
		return "internal error"
	}
}
