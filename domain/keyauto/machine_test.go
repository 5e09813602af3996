package keyauto

import (
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/soocke/cursor-pilot/domain/action"
	"github.com/soocke/cursor-pilot/domain/action/actiontest"
)

var discardLogger = slog.New(slog.NewTextHandler(&discardWriter{}, nil))

type discardWriter struct{}

func (d *discardWriter) Write(p []byte) (int, error) { return len(p), nil }

const keyW = action.VK('W')

func newTestMachine() (*Machine, *actiontest.Fake) {
	kb := actiontest.New(0, 0)
	m := New(kb, keyW, Options{Thresholds: DefaultThresholds()}, discardLogger)
	m.sleep = func(time.Duration) {}
	return m, kb
}

type transitionRecorder struct {
	mu  sync.Mutex
	seq []State
}

func (r *transitionRecorder) listener(prev, next State) {
	r.mu.Lock()
	r.seq = append(r.seq, next)
	r.mu.Unlock()
}

func TestMachine_Hysteresis(t *testing.T) {
	m, kb := newTestMachine()
	rec := &transitionRecorder{}
	m.AddListener(rec.listener)

	want := []State{Released, AutoPressed, AutoPressed, Released}
	for i, d := range []float64{1.0, 2.0, 1.85, 1.75} {
		if err := m.Update(d, true); err != nil {
			t.Fatalf("update %v: %v", d, err)
		}
		if got := m.State(); got != want[i] {
			t.Fatalf("after %v: expected %v, got %v", d, want[i], got)
		}
	}
	if n := kb.Count(action.OpKeyDown); n != 1 {
		t.Fatalf("expected 1 key down, got %d", n)
	}
	if n := kb.Count(action.OpKeyUp); n != 1 {
		t.Fatalf("expected 1 key up, got %d", n)
	}
	if len(rec.seq) != 2 || rec.seq[0] != AutoPressed || rec.seq[1] != Released {
		t.Fatalf("unexpected transitions %v", rec.seq)
	}
}

func TestMachine_ManualOverrideBlocksAutomation(t *testing.T) {
	m, kb := newTestMachine()
	kb.SetHuman(keyW, true)

	for _, d := range []float64{3.0, 0.5, 5.0, 1.0} {
		if err := m.Update(d, true); err != nil {
			t.Fatal(err)
		}
		if m.State() != ManualOverride {
			t.Fatalf("expected manual override at %v, got %v", d, m.State())
		}
	}
	if err := m.TargetLost(); err != nil {
		t.Fatal(err)
	}
	if err := m.Update(3.0, false); err != nil {
		t.Fatal(err)
	}
	if calls := kb.Calls(); len(calls) != 0 {
		t.Fatalf("expected no synthesized keys during override, got %v", calls)
	}

	// Human lets go: eligible again in the same frame.
	kb.SetHuman(keyW, false)
	if err := m.Update(3.0, true); err != nil {
		t.Fatal(err)
	}
	if m.State() != AutoPressed {
		t.Fatalf("expected auto press after human release, got %v", m.State())
	}
}

func TestMachine_OwnHoldIsNotManual(t *testing.T) {
	m, _ := newTestMachine()
	_ = m.Update(2.5, true)
	// The poll now reads held because of our own key-down.
	_ = m.Update(2.5, true)
	if m.State() != AutoPressed {
		t.Fatalf("expected auto pressed, got %v", m.State())
	}
}

func TestMachine_FollowingOffReleases(t *testing.T) {
	m, kb := newTestMachine()
	_ = m.Update(2.5, true)
	if err := m.Update(2.5, false); err != nil {
		t.Fatal(err)
	}
	if m.State() != Released || kb.SyntheticDown(keyW) {
		t.Fatalf("expected release when following disabled, got %v", m.State())
	}
	// Not following never presses.
	_ = m.Update(9, false)
	if kb.Count(action.OpKeyDown) != 1 {
		t.Fatalf("unexpected press while not following")
	}
}

func TestMachine_TargetLostReleases(t *testing.T) {
	m, kb := newTestMachine()
	_ = m.Update(2.5, true)
	if err := m.TargetLost(); err != nil {
		t.Fatal(err)
	}
	if m.State() != Released || kb.SyntheticDown(keyW) {
		t.Fatalf("expected release on target loss")
	}
	// No release without a hold.
	_ = m.TargetLost()
	if kb.Count(action.OpKeyUp) != 1 {
		t.Fatalf("expected exactly one key up, got %d", kb.Count(action.OpKeyUp))
	}
}

func TestMachine_OSFailureKeepsState(t *testing.T) {
	m, kb := newTestMachine()
	kb.FailOp(action.OpKeyDown, errors.New("denied"))
	err := m.Update(2.5, true)
	var oe *action.OSError
	if !errors.As(err, &oe) || oe.Op != action.OpKeyDown {
		t.Fatalf("expected key down OSError, got %v", err)
	}
	if m.State() != Released {
		t.Fatalf("state changed despite failure: %v", m.State())
	}
	kb.FailOp(action.OpKeyDown, nil)
	if err := m.Update(2.5, true); err != nil || m.State() != AutoPressed {
		t.Fatalf("expected recovery next frame, got %v / %v", err, m.State())
	}
}

func TestMachine_PollFailureSkipsFrame(t *testing.T) {
	m, kb := newTestMachine()
	kb.FailOp(action.OpKeyState, errors.New("busy"))
	if err := m.Update(2.5, true); err == nil {
		t.Fatal("expected poll error")
	}
	if kb.Count(action.OpKeyDown) != 0 {
		t.Fatal("pressed without a successful poll")
	}
}

func TestMachine_ShutdownReleasesExactlyOnce(t *testing.T) {
	m, kb := newTestMachine()
	_ = m.Update(2.5, true)

	released, err := m.Shutdown()
	if err != nil || !released {
		t.Fatalf("expected release, got %v %v", released, err)
	}
	released, err = m.Shutdown()
	if err != nil || released {
		t.Fatalf("second shutdown should be a no-op, got %v %v", released, err)
	}
	if n := kb.Count(action.OpKeyUp); n != 1 {
		t.Fatalf("expected exactly one key up, got %d", n)
	}
	if m.State() != Closed {
		t.Fatalf("expected closed, got %v", m.State())
	}
	// Closed machines ignore input.
	_ = m.Update(5, true)
	if kb.Count(action.OpKeyDown) != 1 {
		t.Fatal("pressed after shutdown")
	}
}

func TestMachine_ShutdownRetriesWhenStillHeld(t *testing.T) {
	m, kb := newTestMachine()
	_ = m.Update(2.5, true)
	kb.SetHuman(keyW, true) // verification poll reads held

	released, _ := m.Shutdown()
	if !released {
		t.Fatal("expected release")
	}
	if n := kb.Count(action.OpKeyUp); n != 2 {
		t.Fatalf("expected release plus one retry, got %d", n)
	}
}

func TestMachine_ShutdownWithoutHoldDoesNotRelease(t *testing.T) {
	m, kb := newTestMachine()
	kb.SetHuman(keyW, true)
	_ = m.Update(2.5, true) // manual override

	released, err := m.Shutdown()
	if err != nil || released {
		t.Fatalf("unexpected release %v %v", released, err)
	}
	if kb.Count(action.OpKeyUp) != 0 {
		t.Fatal("released a human-held key")
	}
}
