package presenter

import "time"

// Loop drives the presenters from the UI tick. The zero value is usable.
type Loop struct {
	Status   *StatusPresenter
	Session  *SessionPresenter
	Schedule func()
	now      func() time.Time
}

func NewLoop(status *StatusPresenter, session *SessionPresenter, schedule func()) *Loop {
	return &Loop{Status: status, Session: session, Schedule: schedule}
}

func (l *Loop) Tick() {
	if l == nil {
		return
	}
	now := time.Now()
	if l.now != nil {
		now = l.now()
	}
	l.Status.Tick(now)
	l.Session.Tick(now)
	if l.Schedule != nil {
		l.Schedule()
	}
}
