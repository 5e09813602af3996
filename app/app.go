package app

import (
	"fmt"
	"sync"
	"time"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"

	"github.com/soocke/cursor-pilot/ui/presenter"
	"github.com/soocke/cursor-pilot/ui/theme"
)

// app runs the Tk control panel. Run must be called from the main goroutine.
type app struct {
	c       *AppContainer
	title   string
	width   int
	height  int
	refresh time.Duration
	afterID string

	done      <-chan struct{}
	exit      func()
	closeOnce sync.Once
}

// NewApp returns a panel that closes when done is closed and calls exit when the
// user closes it.
func NewApp(title string, width, height int, c *AppContainer, done <-chan struct{}, exit func()) *app {
	refresh := 100 * time.Millisecond
	if c.Config != nil && c.Config.UIRefreshMillis > 0 {
		refresh = time.Duration(c.Config.UIRefreshMillis) * time.Millisecond
	}
	return &app{c: c, title: title, width: width, height: height, refresh: refresh, done: done, exit: exit}
}

// Run builds the window and blocks in the Tk event loop.
func (a *app) Run() {
	App.WmTitle(a.title)
	WmProtocol(App, "WM_DELETE_WINDOW", a.exitHandler)
	WmGeometry(App, fmt.Sprintf("%dx%d+100+100", a.width, a.height))
	theme.InitStyles()

	a.c.RootView.Build(a.c.Actions(a.exitHandler))
	a.c.Loop = presenter.NewLoop(a.c.StatusPresenter, a.c.SessionPresenter, a.scheduleUpdate)
	a.scheduleUpdate()
	App.Wait()
}

func (a *app) update() {
	select {
	case <-a.done:
		a.close()
		return
	default:
	}
	func() {
		defer func() {
			if r := recover(); r != nil {
				if a.c.Logger != nil {
					a.c.Logger.Error("ui tick panicked", "panic", r)
				}
				a.scheduleUpdate()
			}
		}()
		a.c.Loop.Tick()
	}()
}

// scheduleUpdate queues the next tick on Tk's event loop thread.
func (a *app) scheduleUpdate() {
	a.afterID = TclAfter(a.refresh, a.update)
}

func (a *app) exitHandler() {
	if a.exit != nil {
		a.exit()
	}
	a.close()
}

func (a *app) close() {
	a.closeOnce.Do(func() {
		if a.afterID != "" {
			TclAfterCancel(a.afterID)
		}
		Destroy(App)
	})
}
