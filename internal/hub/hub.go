package hub

import (
	"context"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"go.uber.org/zap"

	"github.com/paul0vinicius/chasing-chairs/internal/engine"
	"github.com/paul0vinicius/chasing-chairs/internal/history"
	"github.com/paul0vinicius/chasing-chairs/internal/music"
	"github.com/paul0vinicius/chasing-chairs/internal/room"
	"github.com/paul0vinicius/chasing-chairs/internal/round"
	"github.com/paul0vinicius/chasing-chairs/internal/types"
)

var ErrStopped = errors.New("hub stopped")

type HubMsg interface{ isHubMsg() }

// Connect registers a socket. The hub owns Outbox from here on and closes it
// when the connection leaves or falls behind.
type Connect struct {
	ConnID string
	Outbox chan types.ServerMessage
}

type Disconnect struct {
	ConnID string
}

type FromClient struct {
	ConnID string
	Cmd    Command
}

type GetRoom struct {
	Code  string
	Reply chan *engine.Room // nil when absent
}

type ShutdownHub struct{}

type invoke struct {
	fn func()
}

func (Connect) isHubMsg()     {}
func (Disconnect) isHubMsg()  {}
func (FromClient) isHubMsg()  {}
func (GetRoom) isHubMsg()     {}
func (ShutdownHub) isHubMsg() {}
func (invoke) isHubMsg()      {}

type Options struct {
	Store   room.Store
	Music   music.Resolver
	History history.Recorder
	Clock   clock.Clock
	Rand    engine.Rand
	Round   round.Config
	// RoomTTL reaps rooms with no client activity for that long. 0 keeps them forever.
	RoomTTL time.Duration
	Logger  *zap.Logger
}

type client struct {
	outbox  chan types.ServerMessage
	room    string // last joined, "" when in none
	dropped bool
}

// Hub is the only goroutine that touches rooms. Socket messages, timer
// callbacks and music results all arrive through its inbox.
type Hub struct {
	inbox    chan HubMsg
	rooms    *room.Manager
	sched    *round.Scheduler
	clock    clock.Clock
	roomTTL  time.Duration
	log      *zap.Logger
	clients  map[string]*client
	members  map[string]map[string]struct{}
	activity map[string]time.Time
	stale    map[string]map[string]struct{} // players the store still lists after they left
	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
}

func NewHub(parent context.Context, opts Options) *Hub {
	if opts.Store == nil {
		opts.Store = room.NewMemoryStore()
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	ctx, cancel := context.WithCancel(parent)
	h := &Hub{
		inbox:    make(chan HubMsg, 64),
		rooms:    room.NewManager(opts.Store, opts.Rand),
		clock:    opts.Clock,
		roomTTL:  opts.RoomTTL,
		log:      opts.Logger.Named("hub"),
		clients:  make(map[string]*client),
		members:  make(map[string]map[string]struct{}),
		activity: make(map[string]time.Time),
		stale:    make(map[string]map[string]struct{}),
		ctx:      ctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	h.sched = round.New(opts.Round, round.Deps{
		Rooms:    h.rooms,
		Notifier: h,
		Music:    opts.Music,
		History:  opts.History,
		Clock:    opts.Clock,
		Exec:     h.exec,
		Rand:     opts.Rand,
		Logger:   opts.Logger.Named("round"),
	})

	go h.loop()
	return h
}

func (h *Hub) Inbox() chan<- HubMsg { return h.inbox }

// Send delivers msg unless the hub has stopped.
func (h *Hub) Send(msg HubMsg) bool {
	if h.ctx.Err() != nil {
		return false
	}
	select {
	case h.inbox <- msg:
		return true
	case <-h.ctx.Done():
		return false
	}
}

// Done is closed once the loop has exited.
func (h *Hub) Done() <-chan struct{} { return h.done }

// Room returns a copy of the room with the given code.
func (h *Hub) Room(ctx context.Context, code string) (*engine.Room, error) {
	reply := make(chan *engine.Room, 1)
	if !h.Send(GetRoom{Code: code, Reply: reply}) {
		return nil, ErrStopped
	}
	select {
	case r := <-reply:
		if r == nil {
			return nil, room.ErrRoomNotFound
		}
		return r, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-h.done:
		return nil, ErrStopped
	}
}

func (h *Hub) exec(fn func()) {
	h.Send(invoke{fn: fn})
}

func (h *Hub) loop() {
	defer close(h.done)

	retry := h.clock.Ticker(retryInterval)
	defer retry.Stop()

	var reap <-chan time.Time
	if h.roomTTL > 0 {
		t := h.clock.Ticker(reapInterval(h.roomTTL))
		defer t.Stop()
		reap = t.C
	}

	for {
		select {
		case <-h.ctx.Done():
			h.shutdown()
			return

		case <-retry.C:
			h.retryStale()

		case now := <-reap:
			h.reapIdle(now)

		case m := <-h.inbox:
			switch msg := m.(type) {
			case Connect:
				h.clients[msg.ConnID] = &client{outbox: msg.Outbox}
				h.toConn(msg.ConnID, types.Connected(msg.ConnID))
				h.log.Debug("connected", zap.String("conn", msg.ConnID))

			case Disconnect:
				h.disconnect(msg.ConnID)

			case FromClient:
				h.handle(msg.ConnID, msg.Cmd)

			case GetRoom:
				r, err := h.rooms.GetRoom(h.ctx, msg.Code)
				if err != nil {
					msg.Reply <- nil
					break
				}
				msg.Reply <- r.Clone()

			case invoke:
				msg.fn()

			case ShutdownHub:
				h.shutdown()
				return
			}
		}
	}
}

func (h *Hub) shutdown() {
	h.sched.Stop()
	for id, c := range h.clients {
		if !c.dropped {
			close(c.outbox)
		}
		delete(h.clients, id)
	}
	clear(h.members)
	clear(h.activity)
	clear(h.stale)
	h.cancel()
}

func (h *Hub) disconnect(connID string) {
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	h.leave(connID, c)
	if !c.dropped {
		close(c.outbox)
	}
	delete(h.clients, connID)
	h.log.Debug("disconnected", zap.String("conn", connID))
}

// ToRoom sends msgs, in order, to every connection in the room.
func (h *Hub) ToRoom(code string, msgs ...types.ServerMessage) {
	h.toRoomExcept(code, "", msgs...)
}

func (h *Hub) toRoomExcept(code, skip string, msgs ...types.ServerMessage) {
	for id := range h.members[code] {
		if id != skip {
			h.toConn(id, msgs...)
		}
	}
}

// toConn never blocks. A client whose outbox is full is cut off; its socket
// notices the closed outbox and disconnects.
func (h *Hub) toConn(connID string, msgs ...types.ServerMessage) {
	c, ok := h.clients[connID]
	if !ok || c.dropped {
		return
	}
	for _, m := range msgs {
		select {
		case c.outbox <- m:
		default:
			c.dropped = true
			close(c.outbox)
			h.log.Warn("dropping slow client", zap.String("conn", connID), zap.String("room", c.room))
			return
		}
	}
}

// retryInterval paces store cleanups that failed the first time.
const retryInterval = 5 * time.Second

func reapInterval(ttl time.Duration) time.Duration {
	if every := ttl / 2; every > time.Second {
		return every
	}
	return time.Second
}

// reapIdle deletes rooms nobody has touched for roomTTL. A room the store
// refuses to delete stays tracked and is tried again on the next tick.
func (h *Hub) reapIdle(now time.Time) {
	h.adoptStored(now)

	for code, last := range h.activity {
		if now.Sub(last) < h.roomTTL {
			continue
		}
		if _, err := h.rooms.DeleteRoom(h.ctx, code); err != nil {
			h.log.Error("delete expired room", zap.String("room", code), zap.Error(err))
			continue
		}
		h.ToRoom(code, types.Error("room expired"))
		for id := range h.members[code] {
			if c, ok := h.clients[id]; ok {
				c.room = ""
			}
		}
		h.teardown(code)
		h.log.Info("room expired", zap.String("room", code), zap.Duration("idle", now.Sub(last)))
	}
}

// adoptStored starts the idle clock on stored rooms the hub is not tracking,
// e.g. ones a previous process left in redis.
func (h *Hub) adoptStored(now time.Time) {
	codes, err := h.rooms.Codes(h.ctx)
	if err != nil {
		h.log.Warn("list rooms", zap.Error(err))
		return
	}
	for _, code := range codes {
		if _, ok := h.activity[code]; !ok {
			h.activity[code] = now
		}
	}
}

func (h *Hub) markStale(code, connID string) {
	ids, ok := h.stale[code]
	if !ok {
		ids = make(map[string]struct{})
		h.stale[code] = ids
	}
	ids[connID] = struct{}{}
}

// retryStale finishes removals the store refused when the player left.
func (h *Hub) retryStale() {
	for code, ids := range h.stale {
		for id := range ids {
			_, emptied, err := h.rooms.RemovePlayer(h.ctx, code, id)
			if err != nil && !errors.Is(err, room.ErrRoomNotFound) {
				h.log.Warn("retry remove player", zap.String("room", code), zap.String("conn", id), zap.Error(err))
				continue
			}
			delete(ids, id)
			if err != nil || emptied {
				h.teardown(code)
				h.log.Info("room deleted", zap.String("room", code))
				break
			}
		}
		if len(ids) == 0 {
			delete(h.stale, code)
		}
	}
}

// teardown forgets everything the hub tracks for a room that no longer exists.
func (h *Hub) teardown(code string) {
	h.sched.Teardown(code)
	delete(h.members, code)
	delete(h.activity, code)
	delete(h.stale, code)
}
