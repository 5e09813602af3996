package presenter

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/soocke/cursor-pilot/config"
	"github.com/soocke/cursor-pilot/domain/action"
	"github.com/soocke/cursor-pilot/domain/controller"
)

// Hotkey binds a virtual key to an action fired on the press edge.
type Hotkey struct {
	Name string
	Key  action.VK
	Fire func()
}

// HotkeyWatcher polls the keyboard and fires a binding once per press. Holding a
// key does not repeat; the controller's debounce still applies on top.
type HotkeyWatcher struct {
	kb       action.Keyboard
	logger   *slog.Logger
	reporter *action.ErrorReporter
	interval time.Duration
	bindings []Hotkey
	held     []bool
}

func NewHotkeyWatcher(kb action.Keyboard, logger *slog.Logger, reporter *action.ErrorReporter, interval time.Duration, bindings ...Hotkey) *HotkeyWatcher {
	if interval <= 0 {
		interval = 30 * time.Millisecond
	}
	return &HotkeyWatcher{
		kb:       kb,
		logger:   logger,
		reporter: reporter,
		interval: interval,
		bindings: bindings,
		held:     make([]bool, len(bindings)),
	}
}

// Run polls until ctx is done.
func (w *HotkeyWatcher) Run(ctx context.Context) error {
	if w == nil || w.kb == nil || len(w.bindings) == 0 {
		<-ctx.Done()
		return nil
	}
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			w.poll()
		}
	}
}

func (w *HotkeyWatcher) poll() {
	for i, b := range w.bindings {
		down, err := w.kb.IsKeyHeld(b.Key)
		if err != nil {
			// keep the previous state so a transient failure is not read as a release
			w.reporter.Report(err)
			continue
		}
		if down && !w.held[i] {
			w.fire(b)
		}
		w.held[i] = down
	}
}

func (w *HotkeyWatcher) fire(b Hotkey) {
	defer func() {
		if r := recover(); r != nil && w.logger != nil {
			w.logger.Error("hotkey action panicked", "hotkey", b.Name, "panic", r)
		}
	}()
	if w.logger != nil {
		w.logger.Debug("hotkey", "name", b.Name, "key", b.Key.String())
	}
	if b.Fire != nil {
		b.Fire()
	}
}

// ControllerHotkeys builds the hotkey table from configuration. exit is fired by
// the exit key.
func ControllerHotkeys(cfg *config.Config, t controller.Toggler, logger *slog.Logger, exit func()) ([]Hotkey, error) {
	type entry struct {
		name, key string
		fire      func()
	}
	entries := []entry{
		{"mode", cfg.HotkeyMode, func() { t.ToggleMode() }},
		{"following", cfg.HotkeyFollowing, func() { t.ToggleFollowing() }},
		{"attack", cfg.HotkeyAttack, func() { t.ToggleAttack() }},
		{"toggle_person", cfg.HotkeyTogglePerson, func() {
			if _, err := t.ToggleClassIgnore("person"); err != nil && logger != nil {
				logger.Warn("toggle person ignore failed", "error", err)
			}
		}},
		{"cursor_control", cfg.HotkeyCursorControl, func() { t.ToggleCursorControl() }},
		{"exit", cfg.HotkeyExit, exit},
	}
	out := make([]Hotkey, 0, len(entries))
	var errs []error
	for _, e := range entries {
		vk, err := action.ParseVK(e.key)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, Hotkey{Name: e.name, Key: vk, Fire: e.fire})
	}
	return out, errors.Join(errs...)
}
