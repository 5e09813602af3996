// Package cmd implements the cursor-pilot command line.
package cmd

import (
	"context"
	"os"

	"github.com/spf13/cobra"

	"github.com/soocke/cursor-pilot/config"
)

const defaultConfigPath = "cursor-pilot.json"

type rootOptions struct {
	configPath string
	logLevel   string
	logFile    string
}

type runOptions struct {
	feed     string
	headless bool
	debug    bool
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

// NewRootCmd builds a fresh command tree. Running the root without a sub-command is
// the same as "run".
func NewRootCmd() *cobra.Command {
	root, _, _ := newRootCmd()
	return root
}

func newRootCmd() (*cobra.Command, *rootOptions, *runOptions) {
	opts := &rootOptions{}
	ro := &runOptions{}

	root := &cobra.Command{
		Use:          "cursor-pilot",
		Short:        "Steers the cursor toward detected targets and automates the forward key.",
		Version:      Version,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPilot(cmd, opts, ro, defaultRuntime())
		},
	}
	root.SetVersionTemplate(`{{printf "%s\n" .Version}}`)

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.configPath, "config", "c", defaultConfigPath, "config file (JSON); missing file means defaults")
	pf.StringVar(&opts.logLevel, "log-level", "info", "log level: debug, info, warn, error")
	pf.StringVar(&opts.logFile, "log-file", "", "also write logs to this rotating file")

	run := &cobra.Command{
		Use:   "run",
		Short: "Start tracking (default)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPilot(cmd, opts, ro, defaultRuntime())
		},
	}
	for _, c := range []*cobra.Command{root, run} {
		f := c.Flags()
		f.StringVar(&ro.feed, "feed", "", `detection feed: a JSON-lines file to follow, or "-" for stdin`)
		f.BoolVar(&ro.headless, "headless", false, "run without the control panel")
		f.BoolVar(&ro.debug, "debug", false, "log runtime and controller statistics")
	}

	root.AddCommand(run, newVersionCmd())
	return root, opts, ro
}

// loadConfig reads the config file with env overrides, then applies flags that were
// set explicitly.
func loadConfig(cmd *cobra.Command, opts *rootOptions, ro *runOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	f := cmd.Flags()
	if f.Changed("log-level") {
		cfg.LogLevel = opts.logLevel
	}
	if f.Changed("log-file") {
		cfg.LogFile = opts.logFile
	}
	if f.Changed("feed") {
		cfg.Feed = ro.feed
	}
	if f.Changed("debug") {
		cfg.Debug = ro.debug
	}
	if cfg.Feed == "" {
		cfg.Feed = "-"
	}
	return cfg, cfg.Validate()
}
