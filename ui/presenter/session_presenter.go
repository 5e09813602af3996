package presenter

import (
	"time"

	"github.com/soocke/cursor-pilot/ui/model"
)

// FollowingSource reports whether following is enabled.
type FollowingSource interface{ Following() bool }

// SessionView displays the current following stretch and the total.
type SessionView interface {
	SetSession(current, total time.Duration)
}

// SessionPresenter advances the follow-session model and pushes durations.
type SessionPresenter struct {
	sess *model.FollowSessionModel
	src  FollowingSource
	view SessionView
}

func NewSessionPresenter(sess *model.FollowSessionModel, src FollowingSource, view SessionView) *SessionPresenter {
	return &SessionPresenter{sess: sess, src: src, view: view}
}

func (p *SessionPresenter) Tick(now time.Time) {
	if p == nil || p.sess == nil || p.src == nil || p.view == nil {
		return
	}
	p.sess.OnTick(p.src.Following(), now)
	p.view.SetSession(p.sess.Values())
}
