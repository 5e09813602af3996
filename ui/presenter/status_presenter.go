package presenter

import (
	"fmt"
	"strings"
	"time"

	"github.com/soocke/cursor-pilot/domain/controller"
	"github.com/soocke/cursor-pilot/domain/feed"
)

// StatusLines are the formatted labels of the control panel.
type StatusLines struct {
	Following string
	Mode      string
	Cursor    string
	Attack    string
	Selection string
	Target    string
	Distance  string
	Key       string
	Ignored   string
	Steering  string
	Feed      string
}

// StatusView displays StatusLines.
type StatusView interface{ SetStatus(StatusLines) }

// FrameSource exposes the latest processed frame.
type FrameSource interface {
	Latest() (feed.FrameResult, bool)
}

// StatusPresenter pulls controller state and pushes labels to the view when they
// change.
type StatusPresenter struct {
	src    controller.StatusSource
	frames FrameSource
	view   StatusView
	last   StatusLines
	pushed bool
}

func NewStatusPresenter(src controller.StatusSource, frames FrameSource, view StatusView) *StatusPresenter {
	return &StatusPresenter{src: src, frames: frames, view: view}
}

func (p *StatusPresenter) Tick(now time.Time) {
	if p == nil || p.src == nil || p.view == nil {
		return
	}
	lines := p.Format(now)
	if p.pushed && lines == p.last {
		return
	}
	p.last, p.pushed = lines, true
	p.view.SetStatus(lines)
}

// Format renders the current state.
func (p *StatusPresenter) Format(now time.Time) StatusLines {
	s := p.src
	mode := "absolute"
	if s.RelativeMode() {
		mode = "relative"
	}
	l := StatusLines{
		Following: "Following: " + onOff(s.Following()),
		Mode:      "Mode: " + mode,
		Cursor:    "Cursor control: " + onOff(s.CursorControl()),
		Attack:    "Attack: " + onOff(s.Attack()),
		Selection: "Selection: " + s.SelectionMode().String(),
		Key:       "Forward key: " + s.KeyState().String(),
	}

	raw := "--"
	if d := s.LastDistance(); d > 0 {
		raw = fmt.Sprintf("%.2f m", d)
	}
	if ts, ok := s.Target(); ok {
		l.Target = fmt.Sprintf("Target: (%d, %d)", ts.X, ts.Y)
		l.Distance = fmt.Sprintf("Distance: %.2f m (raw %s)", ts.FilteredDistance, raw)
	} else {
		l.Target = "Target: <none>"
		l.Distance = fmt.Sprintf("Distance: -- (raw %s)", raw)
	}

	if ignored := s.IgnoredClasses(); len(ignored) > 0 {
		l.Ignored = fmt.Sprintf("Ignored (%d): %s", len(ignored), abbreviate(ignored, 6))
	} else {
		l.Ignored = "Ignored: none"
	}

	st := s.SteeringStats()
	l.Steering = fmt.Sprintf("Steering: %s, %d moves", st.Mode, st.Moves)

	l.Feed = "Feed: waiting"
	if p.frames != nil {
		if fr, ok := p.frames.Latest(); ok {
			l.Feed = formatFrame(fr, now)
		}
	}
	return l
}

func formatFrame(fr feed.FrameResult, now time.Time) string {
	age := now.Sub(fr.ProcessedAt).Round(time.Millisecond)
	if age < 0 {
		age = 0
	}
	switch {
	case fr.Err != nil:
		return fmt.Sprintf("Frame #%d: malformed (%s ago)", fr.Seq, age)
	case fr.HasTarget:
		return fmt.Sprintf("Frame #%d: %d objects, %s at %.2f m (%s ago)", fr.Seq, len(fr.Objects), fr.Selected.Name(), fr.Selected.DistanceM, age)
	default:
		return fmt.Sprintf("Frame #%d: %d objects, no target (%s ago)", fr.Seq, len(fr.Objects), age)
	}
}

func onOff(b bool) string {
	if b {
		return "on"
	}
	return "off"
}

func abbreviate(names []string, n int) string {
	if len(names) <= n {
		return strings.Join(names, ", ")
	}
	return strings.Join(names[:n], ", ") + fmt.Sprintf(", +%d more", len(names)-n)
}
