package round

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
	"github.com/paul0vinicius/chasing-chairs/internal/types"
)

// Phase is where a room is in its round. Announcing covers the music lookup;
// MusicPlaying and ChairPending both wait on the spawn timer, with and
// without a track.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseAnnouncing   Phase = "announcing"
	PhaseMusicPlaying Phase = "musicPlaying"
	PhaseChairPending Phase = "chairPending"
	PhaseChairActive  Phase = "chairActive"
	PhaseCelebrating  Phase = "celebrating"
)

// Notifier delivers to every connection in a room, in order.
type Notifier interface {
	ToRoom(code string, msgs ...types.ServerMessage)
}

type Config struct {
	GraceDelay       time.Duration
	SpawnDelayMin    time.Duration
	SpawnDelayMax    time.Duration
	CelebrationDelay time.Duration
	MusicTimeout     time.Duration
	// WinScore ends the match when a player reaches it. 0 plays forever.
	WinScore int
}

func (c Config) spawnDelay(rng engine.Rand) time.Duration {
	if c.SpawnDelayMax <= c.SpawnDelayMin {
		return c.SpawnDelayMin
	}
	spread := int(c.SpawnDelayMax - c.SpawnDelayMin)
	return c.SpawnDelayMin + time.Duration(rng.IntN(spread+1))
}

type Deps struct {
	Rooms    *room.Manager
	Notifier Notifier
	Music    music.Resolver
	History  history.Recorder
	Clock    clock.Clock
	// Exec runs fn on the loop that owns the rooms. Must be safe from any goroutine.
	Exec   func(fn func())
	Rand   engine.Rand
	Logger *zap.Logger
}

type roundState struct {
	phase Phase
	round int
}

// Scheduler drives each room through its rounds. Like the room manager it
// belongs to a single loop goroutine.
type Scheduler struct {
	cfg     Config
	rooms   *room.Manager
	notify  Notifier
	music   music.Resolver
	history history.Recorder
	clock   clock.Clock
	exec    func(func())
	rng     engine.Rand
	log     *zap.Logger

	timers *Timers
	rounds map[string]*roundState
}

func New(cfg Config, d Deps) *Scheduler {
	if d.Music == nil {
		d.Music = music.Nop{}
	}
	if d.History == nil {
		d.History = history.Nop{}
	}
	if d.Clock == nil {
		d.Clock = clock.New()
	}
	if d.Rand == nil {
		d.Rand = engine.DefaultRand
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return &Scheduler{
		cfg:     cfg,
		rooms:   d.Rooms,
		notify:  d.Notifier,
		music:   d.Music,
		history: d.History,
		clock:   d.Clock,
		exec:    d.Exec,
		rng:     d.Rand,
		log:     d.Logger,
		timers:  NewTimers(d.Clock, d.Exec),
		rounds:  make(map[string]*roundState),
	}
}

func (s *Scheduler) state(code string) *roundState {
	st, ok := s.rounds[code]
	if !ok {
		st = &roundState{phase: PhaseIdle}
		s.rounds[code] = st
	}
	return st
}

func (s *Scheduler) Phase(code string) Phase {
	if st, ok := s.rounds[code]; ok {
		return st.phase
	}
	return PhaseIdle
}

func (s *Scheduler) Pending(code string) bool { return s.timers.Pending(code) }

// ScheduleMatch starts the match after the grace delay, giving clients time to load.
func (s *Scheduler) ScheduleMatch(ctx context.Context, code string) {
	s.timers.Arm(code, s.cfg.GraceDelay, func() { s.BeginMatch(ctx, code) })
}

// BeginMatch flips a waiting room to playing and starts its first round.
// Both the grace timer and a manual start land here.
func (s *Scheduler) BeginMatch(ctx context.Context, code string) bool {
	r, err := s.rooms.GetRoom(ctx, code)
	if err != nil || r.Status != engine.StatusWaiting {
		return false
	}
	s.timers.Cancel(code)
	if err := s.rooms.SetStatus(ctx, code, engine.StatusPlaying); err != nil {
		s.log.Error("set status", zap.String("room", code), zap.Error(err))
		return false
	}
	s.StartRound(ctx, code)
	return true
}

// StartRound is a no-op when the room is gone or its chair is still up.
func (s *Scheduler) StartRound(ctx context.Context, code string) {
	var players map[string]engine.Player
	var round int

	_, err := s.rooms.Update(ctx, code, func(r *engine.Room) error {
		if r.Chair.IsActive {
			return engine.ErrChairActive
		}
		if _, err := engine.Apply(r, engine.Command{Type: engine.CmdResetChair}); err != nil {
			return err
		}
		r.Round++
		round = r.Round
		players = r.PlayerTable()
		return nil
	})
	if err != nil {
		if !errors.Is(err, room.ErrRoomNotFound) && !errors.Is(err, engine.ErrChairActive) {
			s.log.Error("start round", zap.String("room", code), zap.Error(err))
		}
		return
	}

	s.timers.Cancel(code)
	st := s.state(code)
	st.round = round
	st.phase = PhaseAnnouncing
	s.notify.ToRoom(code, types.GameStarted(players))
	go s.resolveMusic(ctx, code, round)
}

func (s *Scheduler) resolveMusic(ctx context.Context, code string, round int) {
	mctx, cancel := context.WithTimeout(ctx, s.cfg.MusicTimeout)
	url, err := s.music.Resolve(mctx)
	cancel()
	s.exec(func() { s.musicResolved(ctx, code, round, url, err) })
}

func (s *Scheduler) musicResolved(ctx context.Context, code string, round int, url string, resolveErr error) {
	st, ok := s.rounds[code]
	if !ok || st.round != round || st.phase != PhaseAnnouncing {
		s.log.Debug("stale music result", zap.String("room", code), zap.Int("round", round))
		return
	}
	if _, err := s.rooms.GetRoom(ctx, code); err != nil {
		return
	}

	if resolveErr != nil && !errors.Is(resolveErr, music.ErrDisabled) {
		s.log.Warn("music lookup failed, round continues silently", zap.String("room", code), zap.Error(resolveErr))
	}

	delay := s.cfg.spawnDelay(s.rng)
	s.timers.Arm(code, delay, func() { s.spawnChair(ctx, code) })

	if resolveErr != nil || url == "" {
		st.phase = PhaseChairPending
		return
	}
	st.phase = PhaseMusicPlaying
	s.notify.ToRoom(code, types.MusicStarted(url))
}

// spawnChair re-reads the room; the one seen at arm time may be gone.
func (s *Scheduler) spawnChair(ctx context.Context, code string) {
	var at engine.Position
	_, err := s.rooms.Update(ctx, code, func(r *engine.Room) error {
		at = engine.PickSpawn(r.MapData, r.Occupied(), s.rng)
		_, err := engine.Apply(r, engine.Command{Type: engine.CmdSpawnChair, Position: at})
		return err
	})
	if err != nil {
		return
	}

	s.state(code).phase = PhaseChairActive
	s.notify.ToRoom(code, types.MusicStopped(), types.ChairSpawned(at))
	s.log.Info("chair spawned", zap.String("room", code), zap.Int("x", at.X), zap.Int("y", at.Y))
}

// Claim reports whether playerID won the chair. Losing claims change nothing.
func (s *Scheduler) Claim(ctx context.Context, code, playerID string) bool {
	var winner engine.Player
	var players map[string]engine.Player
	var round int

	_, err := s.rooms.Update(ctx, code, func(r *engine.Room) error {
		if _, err := engine.Apply(r, engine.Command{Type: engine.CmdClaimChair, PlayerID: playerID}); err != nil {
			return err
		}
		winner = *r.Players[playerID]
		players = r.PlayerTable()
		round = r.Round
		return nil
	})
	if err != nil {
		return false
	}

	s.timers.Cancel(code)
	s.history.RecordWin(history.Win{
		RoomCode:   code,
		WinnerID:   winner.ID,
		WinnerName: winner.Name,
		Score:      winner.Score,
		Round:      round,
		At:         s.clock.Now(),
	})
	s.log.Info("round won",
		zap.String("room", code),
		zap.String("player", winner.ID),
		zap.String("name", winner.Name),
		zap.Int("score", winner.Score),
	)

	st := s.state(code)
	if s.cfg.WinScore > 0 && winner.Score >= s.cfg.WinScore {
		if err := s.rooms.SetStatus(ctx, code, engine.StatusFinished); err != nil {
			s.log.Error("set status", zap.String("room", code), zap.Error(err))
		}
		st.phase = PhaseIdle
		s.notify.ToRoom(code,
			types.ChairTaken(winner.ID),
			types.UpdatedPlayers(players),
			types.GameOver(winner.ID, players),
		)
		return true
	}

	st.phase = PhaseCelebrating
	s.timers.Arm(code, s.cfg.CelebrationDelay, func() { s.StartRound(ctx, code) })
	s.notify.ToRoom(code, types.ChairTaken(winner.ID), types.UpdatedPlayers(players))
	return true
}

// Restart throws away the current round of a playing room and starts a new one.
func (s *Scheduler) Restart(ctx context.Context, code string) bool {
	r, err := s.rooms.GetRoom(ctx, code)
	if err != nil || r.Status != engine.StatusPlaying {
		return false
	}

	s.timers.Cancel(code)
	_, err = s.rooms.Update(ctx, code, func(r *engine.Room) error {
		_, err := engine.Apply(r, engine.Command{Type: engine.CmdResetChair})
		return err
	})
	if err != nil {
		return false
	}
	s.StartRound(ctx, code)
	return true
}

// Teardown forgets a room and cancels anything pending for it.
func (s *Scheduler) Teardown(code string) {
	s.timers.Cancel(code)
	delete(s.rounds, code)
}

func (s *Scheduler) Stop() {
	s.timers.CancelAll()
	clear(s.rounds)
}
