package app

import (
	"log/slog"

	"github.com/soocke/cursor-pilot/config"
	"github.com/soocke/cursor-pilot/domain/controller"
	"github.com/soocke/cursor-pilot/ui/model"
	"github.com/soocke/cursor-pilot/ui/presenter"
	"github.com/soocke/cursor-pilot/ui/view"
)

// Controller is what the control panel reads and toggles.
type Controller interface {
	controller.StatusSource
	controller.Toggler
}

// AppContainer assembles models, presenters and the root view around a running
// controller.
type AppContainer struct {
	Config     *config.Config
	ConfigPath string
	Logger     *slog.Logger
	Controller Controller
	Frames     presenter.FrameSource
	Session    *model.FollowSessionModel
	RootView   *view.RootView
	UI         view.UI

	StatusPresenter  *presenter.StatusPresenter
	SessionPresenter *presenter.SessionPresenter
	Loop             *presenter.Loop
}

// BuildContainer constructs the view and presenters. No widgets are created until
// the app builds the view.
func BuildContainer(cfg *config.Config, cfgPath string, logger *slog.Logger, ctrl Controller, frames presenter.FrameSource) *AppContainer {
	c := &AppContainer{Config: cfg, ConfigPath: cfgPath, Logger: logger, Controller: ctrl, Frames: frames}
	c.Session = model.NewFollowSessionModel()
	c.RootView = view.NewRootView(cfg, cfgPath, logger)
	c.UI = c.RootView
	c.StatusPresenter = presenter.NewStatusPresenter(ctrl, frames, c.UI)
	c.SessionPresenter = presenter.NewSessionPresenter(c.Session, ctrl, c.UI)
	return c
}

// Actions maps the panel buttons onto the controller.
func (c *AppContainer) Actions(exit func()) view.Actions {
	ctrl := c.Controller
	return view.Actions{
		ToggleFollowing:     func() { ctrl.ToggleFollowing() },
		ToggleMode:          func() { ctrl.ToggleMode() },
		ToggleCursorControl: func() { ctrl.ToggleCursorControl() },
		ToggleAttack:        func() { ctrl.ToggleAttack() },
		ToggleClass: func(token string) {
			ignored, err := ctrl.ToggleClassIgnore(token)
			if c.Logger == nil {
				return
			}
			if err != nil {
				c.Logger.Warn("class toggle rejected", "class", token, "error", err)
				return
			}
			c.Logger.Info("class ignore toggled", "class", token, "ignored", ignored)
		},
		Exit: exit,
	}
}
