package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/soocke/cursor-pilot/app"
	"github.com/soocke/cursor-pilot/config"
	"github.com/soocke/cursor-pilot/debug"
	"github.com/soocke/cursor-pilot/domain/action"
	"github.com/soocke/cursor-pilot/domain/controller"
	"github.com/soocke/cursor-pilot/domain/feed"
	"github.com/soocke/cursor-pilot/domain/perf"
	"github.com/soocke/cursor-pilot/ui/presenter"
)

// runtimeDeps are the process-level collaborators of a run.
type runtimeDeps struct {
	input  action.Input
	screen func() (action.Screen, error)
	ui     func(c *app.AppContainer, done <-chan struct{}, exit func())
}

func defaultRuntime() runtimeDeps {
	return runtimeDeps{
		input:  action.NewOSInput(),
		screen: action.ScreenBounds,
		ui: func(c *app.AppContainer, done <-chan struct{}, exit func()) {
			app.NewApp("cursor-pilot", 520, 720, c, done, exit).Run()
		},
	}
}

// errFeedClosed ends a run whose feed reached EOF.
var errFeedClosed = errors.New("detection feed closed")

func runPilot(cmd *cobra.Command, opts *rootOptions, ro *runOptions, rt runtimeDeps) error {
	cfg, err := loadConfig(cmd, opts, ro)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	logger, closeLog, err := NewLogger(cfg.LogLevel, cfg.LogFile, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	screen, err := rt.screen()
	if err != nil {
		return err
	}
	logger.Info("starting",
		"version", Version,
		"config", opts.configPath,
		"feed", cfg.Feed,
		"screen", fmt.Sprintf("%dx%d", screen.Width, screen.Height),
		"headless", ro.headless,
	)
	logger.Debug("config", configSnapshot(cfg)...)

	reporter := action.NewErrorReporter(logger, time.Duration(cfg.OSErrorLogIntervalSeconds)*time.Second)
	mon := perf.NewMonitor(0)
	ctrl, err := controller.New(cfg, controller.Deps{
		Input:    rt.input,
		Screen:   screen,
		Logger:   logger,
		Perf:     mon,
		Reporter: reporter,
	})
	if err != nil {
		return err
	}
	reader := feed.NewReader(logger)
	pipeline := feed.NewPipeline(ctrl, mon, logger)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	exit := func() {
		logger.Info("exit requested")
		cancel()
	}
	hotkeys, err := presenter.ControllerHotkeys(cfg, ctrl, logger, exit)
	if err != nil {
		logger.Warn("some hotkeys are disabled", "error", err)
	}
	watcher := presenter.NewHotkeyWatcher(rt.input, logger, reporter, time.Duration(cfg.HotkeyPollMillis)*time.Millisecond, hotkeys...)

	ctrl.Start()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return readFeed(gctx, reader, cfg.Feed, cmd.InOrStdin(), logger) })
	g.Go(func() error { return pipeline.Run(gctx, reader.Frames()) })
	g.Go(func() error { return watcher.Run(gctx) })
	if cfg.Debug {
		rtDone := debug.StartRuntimeLogger(gctx, 2*time.Second, logger)
		statsDone := debug.StartStatsLogger(gctx, time.Duration(cfg.StatsIntervalSeconds)*time.Second, logger, debug.StatsSources{
			Steering: ctrl.SteeringStats,
			Reader:   reader.Stats,
			Pipeline: pipeline.Stats,
			OSErrors: ctrl.OSErrors,
			Perf:     mon,
		})
		g.Go(func() error {
			<-rtDone
			<-statsDone
			return nil
		})
	}

	if ro.headless || rt.ui == nil {
		<-gctx.Done()
	} else {
		c := app.BuildContainer(cfg, opts.configPath, logger, ctrl, pipeline)
		rt.ui(c, gctx.Done(), exit)
		cancel()
	}

	err = g.Wait()
	if errors.Is(err, errFeedClosed) {
		err = nil
	}
	if serr := ctrl.Shutdown(); serr != nil {
		err = errors.Join(err, serr)
	}
	if err != nil {
		logger.Error("stopped with error", "error", err)
	} else {
		logger.Info("stopped")
	}
	return err
}

// readFeed feeds reader from stdin ("-") or by following a file.
func readFeed(ctx context.Context, reader *feed.Reader, source string, stdin io.Reader, logger *slog.Logger) error {
	if source == "-" {
		if err := reader.ReadFrom(ctx, stdin); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
		logger.Info("feed reached end of input")
		return errFeedClosed
	}
	return reader.Follow(ctx, source)
}

// configSnapshot is logged at debug level so a run can be reproduced.
func configSnapshot(cfg *config.Config) []any {
	return []any{
		"following", cfg.Following,
		"relative_mode", cfg.RelativeMode,
		"cursor_control", cfg.CursorControl,
		"forward_key", cfg.ForwardKey,
		"press_distance", cfg.PressDistance,
		"release_distance", cfg.ReleaseDistance,
		"tick_hz", cfg.TickHz,
		"ignored_classes", len(cfg.IgnoredClasses),
	}
}
