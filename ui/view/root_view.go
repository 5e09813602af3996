package view

import (
	"log/slog"
	"strings"
	"time"

	"github.com/soocke/cursor-pilot/config"
	"github.com/soocke/cursor-pilot/ui/presenter"
	"github.com/soocke/cursor-pilot/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Actions are the callbacks behind the panel buttons.
type Actions struct {
	ToggleFollowing     func()
	ToggleMode          func()
	ToggleCursorControl func()
	ToggleAttack        func()
	ToggleClass         func(token string)
	Exit                func()
}

// RootView lays out the status labels, toggle buttons and the settings panel.
type RootView struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger

	Session     SessionStats
	ConfigPanel ConfigPanel

	header    *TLabelWidget
	status    map[string]*TLabelWidget
	classText *TextWidget
}

// UI is the subset of the view the presenters drive.
type UI interface {
	presenter.StatusView
	presenter.SessionView
}

var _ UI = (*RootView)(nil)

// statusOrder fixes the label rows.
var statusOrder = []string{"following", "mode", "cursor", "attack", "selection", "target", "distance", "key", "steering", "feed", "ignored"}

func NewRootView(cfg *config.Config, cfgPath string, logger *slog.Logger) *RootView {
	return &RootView{cfg: cfg, cfgPath: cfgPath, logger: logger, status: make(map[string]*TLabelWidget)}
}

// Build constructs the layout.
func (rv *RootView) Build(a Actions) {
	if rv == nil {
		return
	}
	rv.header = TLabel(Style(theme.StyleHeaderLabel), Txt("cursor-pilot"))
	Grid(rv.header, Row(0), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))

	statusFrame := Frame()
	Grid(statusFrame, Row(1), Column(0), Sticky("nwe"), Padx("0.4m"), Pady("0.3m"))
	rv.Session = NewSessionStats(statusFrame, 0, 0)
	for i, id := range statusOrder {
		l := TLabel(Style(theme.StyleStatusLabel), Txt(""), Anchor("w"))
		Grid(l, In(statusFrame), Row(i+1), Column(0), Columnspan(2), Sticky("we"), Padx("0.2m"))
		rv.status[id] = l
	}

	btnFrame := Frame()
	Grid(btnFrame, Row(1), Column(1), Sticky("ne"), Padx("0.3m"), Pady("0.3m"))
	buttons := []struct {
		label string
		fn    func()
	}{
		{"Toggle Following", a.ToggleFollowing},
		{"Toggle Mode", a.ToggleMode},
		{"Cursor Control", a.ToggleCursorControl},
		{"Attack", a.ToggleAttack},
	}
	row := 0
	for _, b := range buttons {
		if b.fn == nil {
			continue
		}
		btn := TButton(Style(theme.StyleToggleButton), Txt(b.label), Command(b.fn))
		Grid(btn, In(btnFrame), Row(row), Column(0), Columnspan(2), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
		row++
	}
	if a.ToggleClass != nil {
		rv.classText = Text(Height(1), Width(12))
		Grid(rv.classText, In(btnFrame), Row(row), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
		classBtn := TButton(Style(theme.StyleToggleButton), Txt("Ignore Class"), Command(func() {
			if token := rv.classToken(); token != "" {
				a.ToggleClass(token)
			}
		}))
		Grid(classBtn, In(btnFrame), Row(row), Column(1), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
		row++
	}
	darkBtn := TButton(Style(theme.StyleToggleButton), Txt("Dark Mode"), Command(func() { theme.ToggleDark() }))
	Grid(darkBtn, In(btnFrame), Row(row), Column(0), Columnspan(2), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	row++
	if a.Exit != nil {
		exitBtn := TButton(Style(theme.StyleDangerButton), Txt("Exit"), Command(a.Exit))
		Grid(exitBtn, In(btnFrame), Row(row), Column(0), Columnspan(2), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	}

	settings := Frame()
	Grid(settings, Row(2), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	rv.ConfigPanel = NewConfigPanel(rv.cfg, rv.cfgPath, rv.logger)
	rv.ConfigPanel.Build(settings, 0)
}

func (rv *RootView) classToken() string {
	if rv.classText == nil {
		return ""
	}
	return strings.TrimSpace(strings.Join(rv.classText.Get("1.0", END), ""))
}

// SetStatus updates every status label.
func (rv *RootView) SetStatus(l presenter.StatusLines) {
	if rv == nil || len(rv.status) == 0 {
		return
	}
	for id, text := range map[string]string{
		"following": l.Following,
		"mode":      l.Mode,
		"cursor":    l.Cursor,
		"attack":    l.Attack,
		"selection": l.Selection,
		"target":    l.Target,
		"distance":  l.Distance,
		"key":       l.Key,
		"steering":  l.Steering,
		"feed":      l.Feed,
		"ignored":   l.Ignored,
	} {
		if w := rv.status[id]; w != nil {
			w.Configure(Txt(text))
		}
	}
}

func (rv *RootView) SetSession(current, total time.Duration) {
	if rv != nil && rv.Session != nil {
		rv.Session.SetSession(current, total)
	}
}
