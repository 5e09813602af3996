package steering

import (
	"log/slog"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/soocke/cursor-pilot/domain/action"
	"github.com/soocke/cursor-pilot/domain/perf"
)

// DefaultInterval is the 500 Hz tick period.
const DefaultInterval = 2 * time.Millisecond

// Mode is the steering state reported in Stats.
type Mode int

const (
	ModeIdle Mode = iota
	ModeAbsolute
	ModeRelative
)

func (m Mode) String() string {
	switch m {
	case ModeIdle:
		return "idle"
	case ModeAbsolute:
		return "absolute"
	case ModeRelative:
		return "relative"
	default:
		return "unknown"
	}
}

// Stats summarises loop activity for instrumentation.
type Stats struct {
	Running bool
	Mode    Mode
	Ticks   uint64
	Moves   uint64
	Idle    uint64
	Errors  uint64
}

// Options configure a Loop.
type Options struct {
	Params   Params
	Interval time.Duration
	Screen   action.Screen
	Reporter *action.ErrorReporter
	Timing   *perf.Counter
}

// Loop is the fixed-rate steering task. The frame context publishes targets into
// the TargetCell; the loop owns the relative-mode virtual target.
type Loop struct {
	ptr      action.Pointer
	cell     *TargetCell
	params   Params
	interval time.Duration
	screen   action.Screen
	reporter *action.ErrorReporter
	timing   *perf.Counter
	logger   *slog.Logger

	relative atomic.Bool
	enabled  atomic.Bool

	mu      sync.Mutex
	running atomic.Bool
	stop    chan struct{}
	done    chan struct{}

	// touched only by the loop goroutine
	seen    uint64
	virtual Point

	mode   atomic.Int32
	ticks  atomic.Uint64
	moves  atomic.Uint64
	idle   atomic.Uint64
	errors atomic.Uint64
}

// NewLoop builds a stopped loop with cursor control enabled in absolute mode.
func NewLoop(ptr action.Pointer, cell *TargetCell, opts Options, logger *slog.Logger) *Loop {
	if opts.Interval <= 0 {
		opts.Interval = DefaultInterval
	}
	if opts.Params == (Params{}) {
		opts.Params = DefaultParams()
	}
	l := &Loop{
		ptr:      ptr,
		cell:     cell,
		params:   opts.Params,
		interval: opts.Interval,
		screen:   opts.Screen,
		reporter: opts.Reporter,
		timing:   opts.Timing,
		logger:   logger,
	}
	l.enabled.Store(true)
	return l
}

func (l *Loop) SetRelative(on bool) { l.relative.Store(on) }
func (l *Loop) Relative() bool      { return l.relative.Load() }

// SetEnabled gates all OS calls; a disabled loop keeps ticking for bookkeeping.
func (l *Loop) SetEnabled(on bool) { l.enabled.Store(on) }
func (l *Loop) Enabled() bool      { return l.enabled.Load() }

func (l *Loop) Running() bool { return l.running.Load() }

// Start launches the tick goroutine. Calling Start on a running loop is a no-op.
func (l *Loop) Start() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.running.Load() {
		return
	}
	l.stop = make(chan struct{})
	l.done = make(chan struct{})
	l.running.Store(true)
	go l.run(l.stop, l.done)
}

// Stop signals the loop and waits up to timeout for it to exit. It returns false
// if the goroutine did not park in time; callers proceed with cleanup either way.
func (l *Loop) Stop(timeout time.Duration) bool {
	l.mu.Lock()
	if !l.running.Load() {
		l.mu.Unlock()
		return true
	}
	close(l.stop)
	l.running.Store(false)
	done := l.done
	l.mu.Unlock()

	t := time.NewTimer(timeout)
	defer t.Stop()
	select {
	case <-done:
		return true
	case <-t.C:
		if l.logger != nil {
			l.logger.Warn("steering loop did not stop in time", "timeout", timeout)
		}
		return false
	}
}

func (l *Loop) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
		}
		select {
		case <-stop:
			return
		default:
		}
		start := time.Now()
		l.safeTick()
		if l.timing != nil {
			l.timing.Since(start)
		}
	}
}

func (l *Loop) safeTick() {
	defer func() {
		if r := recover(); r != nil && l.logger != nil {
			l.logger.Error("steering tick panic", "error", r, "stack", string(debug.Stack()))
		}
	}()
	l.tick()
}

func (l *Loop) tick() {
	l.ticks.Add(1)
	snap := l.cell.Load()
	if snap.Version != l.seen {
		l.seen = snap.Version
		l.virtual = snap.Target()
	}
	if !snap.HasBox {
		l.mode.Store(int32(ModeIdle))
		l.idle.Add(1)
		return
	}
	relative := l.relative.Load()
	if relative {
		l.mode.Store(int32(ModeRelative))
	} else {
		l.mode.Store(int32(ModeAbsolute))
	}
	if !l.enabled.Load() {
		return
	}
	if relative {
		l.stepRelative()
	} else {
		l.stepAbsolute(snap.Target())
	}
}

func (l *Loop) stepAbsolute(tgt Point) {
	x, y, err := l.ptr.CursorPos()
	if err != nil {
		l.fail(err)
		return
	}
	next, ok := AbsoluteStep(Point{X: x, Y: y}, tgt, l.screen, l.params)
	if !ok {
		return
	}
	if err := l.ptr.SetCursorPos(next.X, next.Y); err != nil {
		l.fail(err)
		return
	}
	l.moves.Add(1)
}

func (l *Loop) stepRelative() {
	cx, cy := l.screen.Center()
	center := Point{X: cx, Y: cy}
	delta, shifted, ok := RelativeStep(l.virtual, center, l.params)
	if !ok {
		return
	}
	l.virtual = shifted
	if err := l.ptr.MoveRelative(delta.X, delta.Y); err != nil {
		l.fail(err)
		return
	}
	if err := l.ptr.SetCursorPos(center.X, center.Y); err != nil {
		l.fail(err)
		return
	}
	l.moves.Add(1)
}

func (l *Loop) fail(err error) {
	l.errors.Add(1)
	l.reporter.Report(err)
}

func (l *Loop) Stats() Stats {
	return Stats{
		Running: l.running.Load(),
		Mode:    Mode(l.mode.Load()),
		Ticks:   l.ticks.Load(),
		Moves:   l.moves.Load(),
		Idle:    l.idle.Load(),
		Errors:  l.errors.Load(),
	}
}
