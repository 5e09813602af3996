package view

import (
	"fmt"
	"time"

	//lint:ignore ST1001 Dot import for concise Tk widget DSL.
	. "modernc.org/tk9.0"
)

// SessionStats shows the current following stretch and the accumulated total.
type SessionStats interface {
	SetSession(current, total time.Duration)
}

type sessionStats struct {
	currentLbl *LabelWidget
	totalLbl   *LabelWidget
}

// NewSessionStats grids both labels into parent at row, starting at startCol.
func NewSessionStats(parent *FrameWidget, row, startCol int) SessionStats {
	s := &sessionStats{currentLbl: Label(Width(16)), totalLbl: Label(Width(16))}
	Grid(s.currentLbl, In(parent), Row(row), Column(startCol), Sticky("w"), Padx("0.2m"))
	Grid(s.totalLbl, In(parent), Row(row), Column(startCol+1), Sticky("w"), Padx("0.2m"))
	s.SetSession(0, 0)
	return s
}

func (s *sessionStats) SetSession(current, total time.Duration) {
	if s == nil || s.currentLbl == nil || s.totalLbl == nil {
		return
	}
	s.currentLbl.Configure(Txt("Following: " + clock(current)))
	s.totalLbl.Configure(Txt("Total: " + clock(total)))
}

// clock formats d as mm:ss, or h:mm:ss past the hour.
func clock(d time.Duration) string {
	secs := int(d.Seconds())
	if secs >= 3600 {
		return fmt.Sprintf("%d:%02d:%02d", secs/3600, secs%3600/60, secs%60)
	}
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}
