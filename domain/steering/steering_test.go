package steering

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/soocke/cursor-pilot/domain/action"
	"github.com/soocke/cursor-pilot/domain/action/actiontest"
	"github.com/soocke/cursor-pilot/domain/perf"
)

var testScreen = action.Screen{Width: 1920, Height: 1080}

func TestAbsoluteStep(t *testing.T) {
	p := DefaultParams()
	cases := []struct {
		name     string
		cur, tgt Point
		screen   action.Screen
		want     Point
		ok       bool
	}{
		{"within stop threshold", Point{100, 100}, Point{101, 101}, testScreen, Point{100, 100}, false},
		{"anti-stick on sub-pixel move", Point{100, 100}, Point{110, 100}, testScreen, Point{101, 100}, true},
		{"proportional step", Point{0, 0}, Point{1000, 0}, testScreen, Point{1, 0}, true},
		{"negative direction", Point{500, 500}, Point{0, 0}, testScreen, Point{499, 499}, true},
		{"clamped to screen", Point{99, 50}, Point{500, 50}, action.Screen{Width: 100, Height: 100}, Point{99, 50}, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, ok := AbsoluteStep(c.cur, c.tgt, c.screen, p)
			assert.Equal(t, c.ok, ok)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestAbsoluteConverges(t *testing.T) {
	p := DefaultParams()
	cur, tgt := Point{0, 0}, Point{500, 300}
	ticks := 0
	for {
		next, ok := AbsoluteStep(cur, tgt, testScreen, p)
		if !ok {
			break
		}
		cur = next
		ticks++
		require.Less(t, ticks, 2000, "absolute mode did not settle")
	}
	assert.LessOrEqual(t, tgt.Vec().Sub(cur.Vec()).Mag(), p.StopThreshold)
}

func TestRelativeStep(t *testing.T) {
	p := DefaultParams()
	center := Point{960, 540}

	delta, shifted, ok := RelativeStep(Point{1160, 540}, center, p)
	require.True(t, ok)
	assert.Equal(t, Point{2, 0}, delta)
	assert.Equal(t, Point{1150, 540}, shifted)

	_, same, ok := RelativeStep(Point{1000, 560}, center, p)
	assert.False(t, ok)
	assert.Equal(t, Point{1000, 560}, same)

	// zero rounding is forced to a one-count step in the direction's sign
	delta, _, ok = RelativeStep(Point{960 + 400, 540 - 10}, center, p)
	require.True(t, ok)
	assert.Equal(t, -1, delta.Y)
}

func TestRelativeConvergesWithVirtualShift(t *testing.T) {
	p := DefaultParams()
	center := Point{960, 540}
	for _, off := range []Point{{600, -400}, {400, 0}, {-1500, 900}, {0, 81}, {3, -2000}} {
		tgt := Point{center.X + off.X, center.Y + off.Y}
		ticks := 0
		for {
			_, next, ok := RelativeStep(tgt, center, p)
			if !ok {
				break
			}
			tgt = next
			ticks++
			require.Less(t, ticks, 1000, "offset %v did not converge", off)
		}
		assert.LessOrEqual(t, tgt.Vec().Sub(center.Vec()).Mag(), p.RelativeStopThreshold)
	}
}

func TestRelativeWithoutShiftNeverConverges(t *testing.T) {
	p := DefaultParams()
	p.VirtualTargetShift = 0
	center := Point{960, 540}
	tgt := Point{1360, 540}
	for i := 0; i < 1000; i++ {
		_, next, ok := RelativeStep(tgt, center, p)
		require.True(t, ok)
		tgt = next
	}
}

func TestTargetCell(t *testing.T) {
	var c TargetCell
	assert.Equal(t, TargetSnapshot{}, c.Load())

	c.Publish(10, 20)
	s := c.Load()
	assert.True(t, s.HasBox)
	assert.Equal(t, uint64(1), s.Version)

	c.Clear()
	s = c.Load()
	assert.False(t, s.HasBox)
	assert.Equal(t, Point{10, 20}, s.Target())
	assert.Equal(t, uint64(2), s.Version)

	c.Clear()
	assert.Equal(t, uint64(2), c.Load().Version)
}

func newTestLoop(fake *actiontest.Fake, cell *TargetCell) *Loop {
	return NewLoop(fake, cell, Options{Screen: testScreen, Reporter: action.NewErrorReporter(nil, time.Second)}, nil)
}

func TestLoopIdleWithoutTarget(t *testing.T) {
	fake := actiontest.New(0, 0)
	l := newTestLoop(fake, &TargetCell{})
	for i := 0; i < 10; i++ {
		l.tick()
	}
	assert.Empty(t, fake.Calls())
	st := l.Stats()
	assert.Equal(t, uint64(10), st.Idle)
	assert.Equal(t, ModeIdle, st.Mode)
}

func TestLoopAbsoluteMovesPointer(t *testing.T) {
	fake := actiontest.New(0, 0)
	cell := &TargetCell{}
	l := newTestLoop(fake, cell)
	cell.Publish(500, 300)
	for i := 0; i < 600; i++ {
		l.tick()
	}
	x, y := fake.Pos()
	assert.InDelta(t, 500, x, 2)
	assert.InDelta(t, 300, y, 2)
	assert.Equal(t, ModeAbsolute, l.Stats().Mode)
	assert.Zero(t, fake.Count(action.OpMoveRelative))
}

func TestLoopDisabledDoesBookkeepingOnly(t *testing.T) {
	fake := actiontest.New(0, 0)
	cell := &TargetCell{}
	l := newTestLoop(fake, cell)
	l.SetEnabled(false)
	cell.Publish(500, 300)
	for i := 0; i < 5; i++ {
		l.tick()
	}
	assert.Empty(t, fake.Calls())
	assert.Equal(t, uint64(5), l.Stats().Ticks)
}

func TestLoopRelativeRecentersAndSettles(t *testing.T) {
	fake := actiontest.New(960, 540)
	cell := &TargetCell{}
	l := newTestLoop(fake, cell)
	l.SetRelative(true)
	cell.Publish(960+400, 540)

	for i := 0; i < 100; i++ {
		l.tick()
	}
	moves := fake.Count(action.OpMoveRelative)
	assert.Equal(t, 32, moves)
	assert.Equal(t, moves, fake.Count(action.OpSetCursorPos))
	x, y := fake.Pos()
	assert.Equal(t, 960, x)
	assert.Equal(t, 540, y)

	// A fresh publish re-seeds the virtual target.
	cell.Publish(960+400, 540)
	l.tick()
	assert.Equal(t, moves+1, fake.Count(action.OpMoveRelative))
}

func TestLoopOSErrorsDoNotStopTicks(t *testing.T) {
	fake := actiontest.New(0, 0)
	fake.FailOp(action.OpCursorPos, errors.New("access denied"))
	cell := &TargetCell{}
	l := newTestLoop(fake, cell)
	cell.Publish(100, 100)
	for i := 0; i < 3; i++ {
		l.tick()
	}
	assert.Equal(t, uint64(3), l.Stats().Errors)

	fake.FailOp(action.OpCursorPos, nil)
	l.tick()
	assert.Equal(t, uint64(1), l.Stats().Moves)
}

func TestLoopStartStop(t *testing.T) {
	defer goleak.VerifyNone(t)

	fake := actiontest.New(0, 0)
	cell := &TargetCell{}
	timing := perf.NewCounter(perf.StageTick, 16)
	l := NewLoop(fake, cell, Options{Screen: testScreen, Interval: time.Millisecond, Timing: timing}, nil)
	cell.Publish(800, 600)

	l.Start()
	l.Start()
	require.Eventually(t, func() bool { return fake.Count(action.OpSetCursorPos) > 5 }, time.Second, 5*time.Millisecond)
	assert.True(t, l.Running())
	assert.True(t, l.Stop(time.Second))
	assert.True(t, l.Stop(time.Second))
	assert.False(t, l.Running())
	assert.NotZero(t, timing.Snapshot().Count)
}
