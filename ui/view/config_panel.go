package view

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/soocke/cursor-pilot/config"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// ConfigPanel edits the tuning values and persists them. Saved values take effect
// on the next start; the running controller keeps its configuration.
type ConfigPanel interface {
	Build(parent *FrameWidget, startRow int) (endRow int)
	ApplyChanges() error
}

type configPanel struct {
	cfg      *config.Config
	cfgPath  string
	logger   *slog.Logger
	widgets  map[string]*TextWidget
	statusLb *LabelWidget
}

func NewConfigPanel(cfg *config.Config, cfgPath string, logger *slog.Logger) ConfigPanel {
	return &configPanel{cfg: cfg, cfgPath: cfgPath, logger: logger, widgets: make(map[string]*TextWidget)}
}

type field struct {
	id, label string
	get       func(c *config.Config) string
	set       func(c *config.Config, s string) bool
}

func floatField(id, label string, p func(c *config.Config) *float64) field {
	return field{id, label,
		func(c *config.Config) string { return strconv.FormatFloat(*p(c), 'g', -1, 64) },
		func(c *config.Config, s string) bool {
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return false
			}
			*p(c) = f
			return true
		}}
}

func intField(id, label string, p func(c *config.Config) *int) field {
	return field{id, label,
		func(c *config.Config) string { return strconv.Itoa(*p(c)) },
		func(c *config.Config, s string) bool {
			i, err := strconv.Atoi(s)
			if err != nil {
				return false
			}
			*p(c) = i
			return true
		}}
}

func stringField(id, label string, p func(c *config.Config) *string) field {
	return field{id, label,
		func(c *config.Config) string { return *p(c) },
		func(c *config.Config, s string) bool {
			if s == "" {
				return false
			}
			*p(c) = s
			return true
		}}
}

var panelFields = []field{
	stringField("forwardKey", "Forward Key", func(c *config.Config) *string { return &c.ForwardKey }),
	floatField("pressDistance", "Press Distance (m)", func(c *config.Config) *float64 { return &c.PressDistance }),
	floatField("releaseDistance", "Release Distance (m)", func(c *config.Config) *float64 { return &c.ReleaseDistance }),
	floatField("stopThreshold", "Stop Threshold (px)", func(c *config.Config) *float64 { return &c.StopThreshold }),
	floatField("smoothing", "Smoothing Factor", func(c *config.Config) *float64 { return &c.SmoothingFactor }),
	floatField("relStop", "Relative Stop Threshold (px)", func(c *config.Config) *float64 { return &c.RelativeStopThreshold }),
	intField("shift", "Virtual Target Shift (px)", func(c *config.Config) *int { return &c.VirtualTargetShift }),
	intField("attackMin", "Attack Min (ms)", func(c *config.Config) *int { return &c.AttackMinMillis }),
	intField("attackMax", "Attack Max (ms)", func(c *config.Config) *int { return &c.AttackMaxMillis }),
}

func (v *configPanel) Build(parent *FrameWidget, startRow int) (row int) {
	row = startRow
	for _, f := range panelFields {
		lbl := Label(Txt(f.label), Anchor("w"))
		Grid(lbl, In(parent), Row(row), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
		w := Text(Height(1), Width(16))
		Grid(w, In(parent), Row(row), Column(1), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		w.Delete("1.0", END)
		w.Insert("1.0", f.get(v.cfg))
		v.widgets[f.id] = w
		row++
	}
	apply := Button(Txt("Save Settings"), Command(func() { _ = v.ApplyChanges() }))
	Grid(apply, In(parent), Row(row), Column(0), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	v.statusLb = Label(Txt(""), Anchor("w"))
	Grid(v.statusLb, In(parent), Row(row), Column(1), Sticky("w"), Padx("0.4m"), Pady("0.3m"))
	return row + 1
}

func (v *configPanel) ApplyChanges() error {
	if v.cfg == nil {
		return nil
	}
	cfg := *v.cfg
	cfg.IgnoredClasses = append([]string(nil), v.cfg.IgnoredClasses...)
	for _, f := range panelFields {
		if w := v.widgets[f.id]; w != nil {
			f.set(&cfg, strings.TrimSpace(strings.Join(w.Get("1.0", END), "")))
		}
	}
	if err := cfg.Validate(); err != nil {
		v.setStatus(fmt.Sprintf("Invalid: %v", err))
		return err
	}
	*v.cfg = cfg
	if err := v.cfg.Save(v.cfgPath); err != nil {
		if v.logger != nil {
			v.logger.Error("config save failed", "error", err)
		}
		v.setStatus("Save failed")
		return err
	}
	if v.logger != nil {
		v.logger.Info("config saved", "path", v.cfgPath)
	}
	v.setStatus("Saved; restart to apply")
	return nil
}

func (v *configPanel) setStatus(s string) {
	if v.statusLb != nil {
		v.statusLb.Configure(Txt(s))
	}
}
