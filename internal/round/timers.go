package round

import (
	"time"

	"github.com/benbjohnson/clock"
)

// Timers holds at most one pending action per room. Actions run through exec
// on the owning loop, never on the timer goroutine. Arm, Cancel and Pending
// must only be called from that loop.
type Timers struct {
	clock clock.Clock
	exec  func(func())
	slots map[string]slot
	seq   uint64
}

type slot struct {
	timer *clock.Timer
	token uint64
}

func NewTimers(clk clock.Clock, exec func(func())) *Timers {
	return &Timers{
		clock: clk,
		exec:  exec,
		slots: make(map[string]slot),
	}
}

// Arm replaces whatever was pending for code.
func (t *Timers) Arm(code string, delay time.Duration, fn func()) {
	t.Cancel(code)

	t.seq++
	token := t.seq
	timer := t.clock.AfterFunc(delay, func() {
		t.exec(func() { t.fire(code, token, fn) })
	})
	t.slots[code] = slot{timer: timer, token: token}
}

// fire drops callbacks whose slot was cancelled or re-armed after the timer
// already expired but before the loop got to them.
func (t *Timers) fire(code string, token uint64, fn func()) {
	s, ok := t.slots[code]
	if !ok || s.token != token {
		return
	}
	delete(t.slots, code)
	fn()
}

func (t *Timers) Cancel(code string) bool {
	s, ok := t.slots[code]
	if !ok {
		return false
	}
	s.timer.Stop()
	delete(t.slots, code)
	return true
}

func (t *Timers) Pending(code string) bool {
	_, ok := t.slots[code]
	return ok
}

func (t *Timers) CancelAll() {
	for code := range t.slots {
		t.Cancel(code)
	}
}
