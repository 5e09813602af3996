// Package controller orchestrates target filtering, key automation and the steering
// loop behind a single per-frame entry point and a handful of toggles.
package controller

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/soocke/cursor-pilot/config"
	"github.com/soocke/cursor-pilot/domain/action"
	"github.com/soocke/cursor-pilot/domain/filter"
	"github.com/soocke/cursor-pilot/domain/keyauto"
	"github.com/soocke/cursor-pilot/domain/perf"
	"github.com/soocke/cursor-pilot/domain/steering"
	"github.com/soocke/cursor-pilot/domain/target"
)

// Controller owns the filters, the key automaton and the steering loop.
// HandleTargetUpdate is called from the frame context; toggles and getters may be
// called from any goroutine.
type Controller struct {
	cfg      *config.Config
	input    action.Input
	logger   *slog.Logger
	reporter *action.ErrorReporter
	perf     *perf.Monitor
	rand     func() float64

	mu           sync.Mutex
	box          *filter.BoxFilter
	dist         *filter.ScalarKalman
	state        TargetState
	hasTarget    bool
	lastDistance float64

	cell   *steering.TargetCell
	loop   *steering.Loop
	keys   *keyauto.Machine
	ignore *target.IgnoreSet

	following     atomic.Bool
	cursorControl atomic.Bool
	attack        atomic.Bool
	debounce      *debouncer
	invalidLog    rate.Sometimes

	startOnce    sync.Once
	started      atomic.Bool
	shutdownOnce sync.Once
	closed       atomic.Bool
	attackStop   chan struct{}
	attackDone   chan struct{}
}

// New wires a controller from configuration. The steering loop is not started
// until Start.
func New(cfg *config.Config, deps Deps) (*Controller, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if deps.Input == nil {
		return nil, errors.New("controller: input backend is required")
	}
	forward, err := action.ParseVK(cfg.ForwardKey)
	if err != nil {
		return nil, fmt.Errorf("controller: forward key: %w", err)
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Rand == nil {
		deps.Rand = rand.Float64
	}
	if deps.Perf == nil {
		deps.Perf = perf.NewMonitor(0)
	}
	if deps.Reporter == nil {
		deps.Reporter = action.NewErrorReporter(deps.Logger, time.Duration(cfg.OSErrorLogIntervalSeconds)*time.Second)
	}
	ignore, unknown := target.NewIgnoreSetFromNames(cfg.IgnoredClasses)
	if len(unknown) > 0 && deps.Logger != nil {
		deps.Logger.Warn("unknown classes in ignore list", "classes", unknown)
	}

	c := &Controller{
		cfg:        cfg,
		input:      deps.Input,
		logger:     deps.Logger,
		reporter:   deps.Reporter,
		perf:       deps.Perf,
		rand:       deps.Rand,
		box:        filter.NewBoxFilter(cfg.BoxProcessVariance, cfg.BoxMeasurementVariance),
		dist:       filter.NewScalarKalman(cfg.DistanceProcessVariance, cfg.DistanceMeasurementVariance),
		cell:       &steering.TargetCell{},
		ignore:     ignore,
		debounce:   newDebouncer(cfg.ToggleDebounce(), deps.Now),
		invalidLog: rate.Sometimes{Interval: 5 * time.Second},
		attackStop: make(chan struct{}),
		attackDone: make(chan struct{}),
	}
	c.keys = keyauto.New(deps.Input, forward, keyauto.Options{
		Thresholds:  keyauto.Thresholds{Press: cfg.PressDistance, Release: cfg.ReleaseDistance},
		VerifyDelay: time.Duration(cfg.ReleaseVerifyMillis) * time.Millisecond,
	}, deps.Logger)
	c.loop = steering.NewLoop(deps.Input, c.cell, steering.Options{
		Params:   paramsFrom(cfg),
		Interval: cfg.TickInterval(),
		Screen:   deps.Screen,
		Reporter: deps.Reporter,
		Timing:   deps.Perf.Counter(perf.StageTick),
	}, deps.Logger)

	c.following.Store(cfg.Following)
	c.cursorControl.Store(cfg.CursorControl)
	c.loop.SetEnabled(cfg.CursorControl)
	c.loop.SetRelative(cfg.RelativeMode)
	return c, nil
}

func paramsFrom(cfg *config.Config) steering.Params {
	return steering.Params{
		StopThreshold:         cfg.StopThreshold,
		SlowFactor:            cfg.SlowFactor,
		MinMove:               cfg.MinMove,
		SmoothingFactor:       cfg.SmoothingFactor,
		RelativeStopThreshold: cfg.RelativeStopThreshold,
		RelativeSlowFactor:    cfg.RelativeSlowFactor,
		RelativeStepScale:     cfg.RelativeStepScale,
		RelativeMinMove:       cfg.RelativeMinMove,
		RelativeOutputScale:   cfg.RelativeOutputScale,
		VirtualTargetShift:    cfg.VirtualTargetShift,
	}
}

// Start launches the steering loop and the attack clicker.
func (c *Controller) Start() {
	if c.closed.Load() {
		return
	}
	c.startOnce.Do(func() {
		c.started.Store(true)
		c.loop.Start()
		go c.attackLoop()
		if c.logger != nil {
			c.logger.Info("controller started",
				"following", c.following.Load(),
				"relative", c.loop.Relative(),
				"cursor_control", c.cursorControl.Load(),
			)
		}
	})
}

// HandleTargetUpdate ingests one frame. distance <= 0 (or NaN) means the detector
// produced no usable distance; box == nil means no target this frame.
func (c *Controller) HandleTargetUpdate(distance float64, box *target.Rect) {
	if c.closed.Load() {
		return
	}
	start := time.Now()
	defer c.perf.Counter(perf.StageFilter).Since(start)

	c.mu.Lock()
	defer c.mu.Unlock()

	hasDistance := target.UsableDistance(distance)
	if hasDistance {
		c.lastDistance = distance
	}
	if box == nil {
		c.targetLostLocked()
		return
	}
	if !box.Valid() {
		c.rejectBoxLocked(*box)
		return
	}
	if !hasDistance {
		return
	}
	filtered, err := c.box.Update(*box)
	if err != nil {
		c.rejectBoxLocked(*box)
		return
	}
	cx, cy, _ := c.box.Center()
	fd := c.dist.Update(distance)
	c.state = TargetState{
		FilteredBox:      filtered,
		FilteredDistance: fd,
		X:                int(math.Floor(cx)),
		Y:                int(math.Floor(cy)),
	}
	c.hasTarget = true

	c.report(c.keys.Update(fd, c.following.Load()))
	if c.cursorControl.Load() {
		c.cell.Publish(c.state.X, c.state.Y)
	}
}

// rejectBoxLocked treats an invalid rectangle as no target this frame.
func (c *Controller) rejectBoxLocked(r target.Rect) {
	c.invalidLog.Do(func() {
		if c.logger != nil {
			c.logger.Warn("rejected target box", "box", r)
		}
	})
	c.targetLostLocked()
}

func (c *Controller) targetLostLocked() {
	c.hasTarget = false
	c.cell.Clear()
	c.report(c.keys.TargetLost())
}

func (c *Controller) report(err error) {
	if err != nil {
		c.reporter.Report(err)
	}
}

// ToggleFollowing flips following and returns the resulting value. Turning
// following off releases an automation-held key immediately.
func (c *Controller) ToggleFollowing() bool {
	if !c.debounce.allow("following") {
		return c.following.Load()
	}
	v := !c.following.Load()
	c.following.Store(v)
	if !v {
		c.mu.Lock()
		c.report(c.keys.Update(c.state.FilteredDistance, false))
		c.mu.Unlock()
	}
	c.logToggle("following", v)
	return v
}

// ToggleMode switches between absolute and relative steering; true means relative.
func (c *Controller) ToggleMode() bool {
	if !c.debounce.allow("mode") {
		return c.loop.Relative()
	}
	v := !c.loop.Relative()
	c.loop.SetRelative(v)
	c.logToggle("relative_mode", v)
	return v
}

func (c *Controller) ToggleCursorControl() bool {
	if !c.debounce.allow("cursor_control") {
		return c.cursorControl.Load()
	}
	v := !c.cursorControl.Load()
	c.mu.Lock()
	c.cursorControl.Store(v)
	c.loop.SetEnabled(v)
	if !v {
		// a re-enabled loop must wait for a fresh frame
		c.cell.Clear()
	}
	c.mu.Unlock()
	c.logToggle("cursor_control", v)
	return v
}

func (c *Controller) ToggleAttack() bool {
	if !c.debounce.allow("attack") {
		return c.attack.Load()
	}
	v := !c.attack.Load()
	c.attack.Store(v)
	c.logToggle("attack", v)
	return v
}

// ToggleClassIgnore flips a class (by name or numeric id) in the ignore set and
// reports whether it is now ignored.
func (c *Controller) ToggleClassIgnore(token string) (bool, error) {
	id, err := target.ParseClass(token)
	if err != nil {
		return false, err
	}
	if !c.debounce.allow("class:" + id.String()) {
		return c.ignore.Contains(id), nil
	}
	ignored := c.ignore.Toggle(id)
	if c.logger != nil {
		c.logger.Info("class ignore toggled", "class", id.String(), "ignored", ignored)
	}
	return ignored, nil
}

func (c *Controller) logToggle(name string, v bool) {
	if c.logger != nil {
		c.logger.Info("toggle", "flag", name, "enabled", v)
	}
}

func (c *Controller) attackLoop() {
	defer close(c.attackDone)
	defer func() {
		if r := recover(); r != nil && c.logger != nil {
			c.logger.Error("attack loop panic", "error", r)
		}
	}()
	timer := time.NewTimer(c.attackInterval())
	defer timer.Stop()
	for {
		select {
		case <-c.attackStop:
			return
		case <-timer.C:
		}
		if c.attack.Load() {
			c.report(c.input.ClickLeft())
		}
		timer.Reset(c.attackInterval())
	}
}

func (c *Controller) attackInterval() time.Duration {
	lo := time.Duration(c.cfg.AttackMinMillis) * time.Millisecond
	hi := time.Duration(c.cfg.AttackMaxMillis) * time.Millisecond
	if hi <= lo {
		return lo
	}
	return lo + time.Duration(c.rand()*float64(hi-lo))
}

// Shutdown stops the steering loop (bounded wait) and then releases an
// automation-held key. It is safe to call more than once.
func (c *Controller) Shutdown() error {
	var err error
	c.shutdownOnce.Do(func() {
		c.closed.Store(true)
		wait := c.cfg.ShutdownWait()
		stopped := c.loop.Stop(wait)

		// Blocks until a concurrent Start finishes and forbids later ones.
		c.startOnce.Do(func() {})
		close(c.attackStop)
		attackStopped := !c.started.Load()
		if !attackStopped {
			select {
			case <-c.attackDone:
				attackStopped = true
			case <-time.After(wait):
			}
		}

		released, kerr := c.keys.Shutdown()
		err = kerr
		if c.logger != nil {
			c.logger.Info("controller shutdown",
				"loop_stopped", stopped,
				"attack_stopped", attackStopped,
				"key_released", released,
			)
		}
	})
	return err
}

// Closed reports whether Shutdown has run.
func (c *Controller) Closed() bool { return c.closed.Load() }

func (c *Controller) Following() bool     { return c.following.Load() }
func (c *Controller) RelativeMode() bool  { return c.loop.Relative() }
func (c *Controller) CursorControl() bool { return c.cursorControl.Load() }
func (c *Controller) Attack() bool        { return c.attack.Load() }

// Target returns the filtered target, if one is present this frame.
func (c *Controller) Target() (TargetState, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state, c.hasTarget
}

// FilteredDistance returns the smoothed distance estimate.
func (c *Controller) FilteredDistance() (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dist.Estimate()
}

// LastDistance returns the last raw distance reported, kept across target loss.
func (c *Controller) LastDistance() float64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastDistance
}

func (c *Controller) IgnoredClasses() []string      { return c.ignore.Names() }
func (c *Controller) IgnoreSet() *target.IgnoreSet  { return c.ignore }
func (c *Controller) KeyState() keyauto.State       { return c.keys.State() }
func (c *Controller) SteeringStats() steering.Stats { return c.loop.Stats() }
func (c *Controller) SelectionMode() target.Mode    { return target.ModeFor(c.following.Load()) }

// Perf exposes the timing monitor shared with the feed pipeline.
func (c *Controller) Perf() *perf.Monitor { return c.perf }

// OSErrors returns the total number of failed OS input calls.
func (c *Controller) OSErrors() uint64 { return c.reporter.Total() }

var (
	_ StatusSource = (*Controller)(nil)
	_ Toggler      = (*Controller)(nil)
)
