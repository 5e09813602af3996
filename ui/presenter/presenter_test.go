package presenter

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/soocke/cursor-pilot/config"
	"github.com/soocke/cursor-pilot/domain/action"
	"github.com/soocke/cursor-pilot/domain/action/actiontest"
	"github.com/soocke/cursor-pilot/domain/controller"
	"github.com/soocke/cursor-pilot/domain/feed"
	"github.com/soocke/cursor-pilot/domain/keyauto"
	"github.com/soocke/cursor-pilot/domain/steering"
	"github.com/soocke/cursor-pilot/domain/target"
	"github.com/soocke/cursor-pilot/ui/model"
)

type mockToggler struct {
	mu    sync.Mutex
	calls []string
}

func (m *mockToggler) rec(name string) {
	m.mu.Lock()
	m.calls = append(m.calls, name)
	m.mu.Unlock()
}

func (m *mockToggler) snapshot() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func (m *mockToggler) ToggleFollowing() bool     { m.rec("following"); return true }
func (m *mockToggler) ToggleMode() bool          { m.rec("mode"); return true }
func (m *mockToggler) ToggleCursorControl() bool { m.rec("cursor"); return true }
func (m *mockToggler) ToggleAttack() bool        { m.rec("attack"); return true }
func (m *mockToggler) ToggleClassIgnore(token string) (bool, error) {
	m.rec("class:" + token)
	return true, nil
}

var _ controller.Toggler = (*mockToggler)(nil)

func waitUntil(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestHotkeyWatcher_FiresOncePerPress(t *testing.T) {
	defer goleak.VerifyNone(t)
	kb := actiontest.New(0, 0)
	var fired atomic.Int32
	key := action.MustParseVK("-")
	w := NewHotkeyWatcher(kb, nil, nil, time.Millisecond, Hotkey{Name: "mode", Key: key, Fire: func() { fired.Add(1) }})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() { _ = w.Run(ctx); close(done) }()

	kb.SetHuman(key, true)
	waitUntil(t, func() bool { return fired.Load() == 1 })
	// still held: no repeat
	time.Sleep(20 * time.Millisecond)
	if n := fired.Load(); n != 1 {
		t.Fatalf("held key repeated: %d", n)
	}
	kb.SetHuman(key, false)
	time.Sleep(10 * time.Millisecond)
	kb.SetHuman(key, true)
	waitUntil(t, func() bool { return fired.Load() == 2 })

	cancel()
	<-done
}

func TestHotkeyWatcher_PollErrorKeepsState(t *testing.T) {
	kb := actiontest.New(0, 0)
	key := action.MustParseVK("F1")
	fired := 0
	w := NewHotkeyWatcher(kb, nil, action.NewErrorReporter(nil, time.Second), time.Millisecond, Hotkey{Name: "exit", Key: key, Fire: func() { fired++ }})

	kb.SetHuman(key, true)
	w.poll()
	kb.FailOp(action.OpKeyState, errors.New("boom"))
	w.poll()
	kb.FailOp(action.OpKeyState, nil)
	w.poll()
	if fired != 1 {
		t.Fatalf("a failed poll must not produce a second press edge, fired=%d", fired)
	}
}

func TestHotkeyWatcher_RecoversPanickingAction(t *testing.T) {
	kb := actiontest.New(0, 0)
	key := action.MustParseVK("]")
	w := NewHotkeyWatcher(kb, nil, nil, time.Millisecond, Hotkey{Name: "bad", Key: key, Fire: func() { panic("x") }})
	kb.SetHuman(key, true)
	w.poll() // must not panic
}

func TestControllerHotkeys_Table(t *testing.T) {
	cfg := config.DefaultConfig()
	tog := &mockToggler{}
	exited := false
	keys, err := ControllerHotkeys(cfg, tog, nil, func() { exited = true })
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(keys) != 6 {
		t.Fatalf("expected 6 bindings, got %d", len(keys))
	}
	for _, k := range keys {
		k.Fire()
	}
	got := strings.Join(tog.snapshot(), ",")
	if got != "mode,following,attack,class:person,cursor" {
		t.Fatalf("unexpected toggle order: %s", got)
	}
	if !exited {
		t.Fatalf("exit binding not fired")
	}
	if keys[5].Key != action.MustParseVK("F1") {
		t.Fatalf("exit bound to %s", keys[5].Key)
	}
}

func TestControllerHotkeys_BadKey(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.HotkeyAttack = "nope"
	keys, err := ControllerHotkeys(cfg, &mockToggler{}, nil, func() {})
	if err == nil {
		t.Fatalf("expected error for unknown key")
	}
	if len(keys) != 5 {
		t.Fatalf("valid bindings should survive, got %d", len(keys))
	}
}

type mockStatus struct {
	following, relative, cursor, attack bool
	target                              controller.TargetState
	hasTarget                           bool
	lastDistance                        float64
	ignored                             []string
}

func (m *mockStatus) Following() bool     { return m.following }
func (m *mockStatus) RelativeMode() bool  { return m.relative }
func (m *mockStatus) CursorControl() bool { return m.cursor }
func (m *mockStatus) Attack() bool        { return m.attack }
func (m *mockStatus) Target() (controller.TargetState, bool) {
	return m.target, m.hasTarget
}
func (m *mockStatus) LastDistance() float64    { return m.lastDistance }
func (m *mockStatus) IgnoredClasses() []string { return m.ignored }
func (m *mockStatus) KeyState() keyauto.State  { return keyauto.AutoPressed }
func (m *mockStatus) SteeringStats() steering.Stats {
	return steering.Stats{Mode: steering.ModeAbsolute, Moves: 42}
}
func (m *mockStatus) SelectionMode() target.Mode { return target.ModeFor(m.following) }

var _ controller.StatusSource = (*mockStatus)(nil)

type mockStatusView struct {
	pushes int
	last   StatusLines
}

func (v *mockStatusView) SetStatus(l StatusLines) { v.pushes++; v.last = l }

type mockFrames struct {
	res feed.FrameResult
	ok  bool
}

func (f *mockFrames) Latest() (feed.FrameResult, bool) { return f.res, f.ok }

func TestStatusPresenter_FormatsAndDedupes(t *testing.T) {
	src := &mockStatus{following: true, cursor: true, lastDistance: 2.2, ignored: []string{"car", "dog"}}
	view := &mockStatusView{}
	frames := &mockFrames{}
	p := NewStatusPresenter(src, frames, view)
	now := time.Unix(100, 0)

	p.Tick(now)
	if view.pushes != 1 {
		t.Fatalf("expected first push")
	}
	l := view.last
	if l.Following != "Following: on" || l.Mode != "Mode: absolute" || l.Attack != "Attack: off" {
		t.Fatalf("unexpected flags: %+v", l)
	}
	if l.Target != "Target: <none>" || l.Distance != "Distance: -- (raw 2.20 m)" {
		t.Fatalf("unexpected target lines: %q %q", l.Target, l.Distance)
	}
	if l.Ignored != "Ignored (2): car, dog" || l.Feed != "Feed: waiting" {
		t.Fatalf("unexpected lines: %q %q", l.Ignored, l.Feed)
	}
	if l.Steering != "Steering: absolute, 42 moves" {
		t.Fatalf("unexpected steering line: %q", l.Steering)
	}

	p.Tick(now)
	if view.pushes != 1 {
		t.Fatalf("unchanged status must not be pushed again")
	}

	src.relative = true
	src.target, src.hasTarget = controller.TargetState{X: 960, Y: 540, FilteredDistance: 2.05}, true
	frames.res = feed.FrameResult{
		Seq:         7,
		Objects:     make([]target.Annotated, 3),
		Selected:    target.DetectedObject{Class: target.ClassPerson, DistanceM: 2.2},
		HasTarget:   true,
		ProcessedAt: now.Add(-15 * time.Millisecond),
	}
	frames.ok = true
	p.Tick(now)
	if view.pushes != 2 {
		t.Fatalf("changed status must be pushed")
	}
	l = view.last
	if l.Mode != "Mode: relative" || l.Target != "Target: (960, 540)" || l.Distance != "Distance: 2.05 m (raw 2.20 m)" {
		t.Fatalf("unexpected lines: %+v", l)
	}
	if l.Feed != "Frame #7: 3 objects, person at 2.20 m (15ms ago)" {
		t.Fatalf("unexpected feed line: %q", l.Feed)
	}
}

func TestAbbreviate(t *testing.T) {
	names := []string{"a", "b", "c", "d"}
	if got := abbreviate(names, 2); got != "a, b, +2 more" {
		t.Fatalf("got %q", got)
	}
}

type mockSessionView struct{ current, total time.Duration }

func (v *mockSessionView) SetSession(c, t time.Duration) { v.current, v.total = c, t }

func TestLoop_DrivesPresenters(t *testing.T) {
	src := &mockStatus{following: true}
	sv := &mockStatusView{}
	sessView := &mockSessionView{}
	scheduled := 0
	base := time.Unix(0, 0)
	clock := base

	l := NewLoop(NewStatusPresenter(src, nil, sv), NewSessionPresenter(model.NewFollowSessionModel(), src, sessView), func() { scheduled++ })
	l.now = func() time.Time { return clock }

	l.Tick()
	clock = base.Add(3 * time.Second)
	l.Tick()
	if scheduled != 2 || sv.pushes != 1 {
		t.Fatalf("scheduled=%d pushes=%d", scheduled, sv.pushes)
	}
	if sessView.current != 3*time.Second || sessView.total != 3*time.Second {
		t.Fatalf("session view got %v/%v", sessView.current, sessView.total)
	}

	var nilLoop *Loop
	nilLoop.Tick()
	(&Loop{}).Tick()
}
