package round

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestTimers() (*Timers, *clock.Mock, chan func()) {
	clk := clock.NewMock()
	queue := make(chan func(), 16)
	return NewTimers(clk, func(fn func()) { queue <- fn }), clk, queue
}

// helper: run the next posted callback, failing instead of hanging
func runNext(t *testing.T, queue <-chan func()) {
	t.Helper()
	select {
	case fn := <-queue:
		fn()
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for timer callback")
	}
}

func requireNothingPosted(t *testing.T, queue <-chan func(), within time.Duration) {
	t.Helper()
	select {
	case <-queue:
		t.Fatalf("expected no timer callback within %v", within)
	case <-time.After(within):
	}
}

func TestTimers_FiresOnceAfterDelay(t *testing.T) {
	timers, clk, queue := newTestTimers()

	fired := 0
	timers.Arm("ABCD", time.Second, func() { fired++ })
	assert.True(t, timers.Pending("ABCD"))

	clk.Add(999 * time.Millisecond)
	requireNothingPosted(t, queue, 50*time.Millisecond)

	clk.Add(time.Millisecond)
	runNext(t, queue)
	assert.Equal(t, 1, fired)
	assert.False(t, timers.Pending("ABCD"))

	clk.Add(time.Hour)
	requireNothingPosted(t, queue, 50*time.Millisecond)
}

func TestTimers_ArmReplacesPendingAction(t *testing.T) {
	timers, clk, queue := newTestTimers()

	var got []string
	timers.Arm("ABCD", time.Second, func() { got = append(got, "first") })
	timers.Arm("ABCD", 2*time.Second, func() { got = append(got, "second") })

	clk.Add(2 * time.Second)
	runNext(t, queue)
	requireNothingPosted(t, queue, 50*time.Millisecond)

	assert.Equal(t, []string{"second"}, got)
}

func TestTimers_DropsCallbackThatLostTheRace(t *testing.T) {
	timers, clk, queue := newTestTimers()

	var got []string
	timers.Arm("ABCD", time.Second, func() { got = append(got, "stale") })
	clk.Add(time.Second)

	// the expired callback is already queued when the slot is re-armed
	var stale func()
	select {
	case stale = <-queue:
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for timer callback")
	}
	timers.Arm("ABCD", 5*time.Second, func() { got = append(got, "fresh") })

	stale()
	assert.Empty(t, got)
	assert.True(t, timers.Pending("ABCD"))

	clk.Add(5 * time.Second)
	runNext(t, queue)
	assert.Equal(t, []string{"fresh"}, got)
}

func TestTimers_Cancel(t *testing.T) {
	timers, clk, queue := newTestTimers()

	timers.Arm("ABCD", time.Second, func() { t.Fatalf("cancelled action ran") })
	assert.True(t, timers.Cancel("ABCD"))
	assert.False(t, timers.Cancel("ABCD"))
	assert.False(t, timers.Pending("ABCD"))

	clk.Add(time.Minute)
	requireNothingPosted(t, queue, 50*time.Millisecond)
}

func TestTimers_SlotsAreIndependentPerRoom(t *testing.T) {
	timers, clk, queue := newTestTimers()

	var got []string
	timers.Arm("ABCD", time.Second, func() { got = append(got, "ABCD") })
	timers.Arm("WXYZ", time.Second, func() { got = append(got, "WXYZ") })
	timers.Cancel("ABCD")

	clk.Add(time.Second)
	runNext(t, queue)
	requireNothingPosted(t, queue, 50*time.Millisecond)
	require.Equal(t, []string{"WXYZ"}, got)
}

func TestTimers_CancelAll(t *testing.T) {
	timers, clk, queue := newTestTimers()

	timers.Arm("ABCD", time.Second, func() {})
	timers.Arm("WXYZ", 2*time.Second, func() {})
	timers.CancelAll()

	assert.False(t, timers.Pending("ABCD"))
	assert.False(t, timers.Pending("WXYZ"))
	clk.Add(time.Minute)
	requireNothingPosted(t, queue, 50*time.Millisecond)
}
