// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"log/slog"
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/ofxbundle/internal/config"
	"github.com/holomush/ofxbundle/internal/logging"
	"github.com/holomush/ofxbundle/internal/script"
	"github.com/holomush/ofxbundle/internal/xdg"
	"github.com/holomush/ofxbundle/pkg/ofx/bundle"
	"github.com/holomush/ofxbundle/plugins/examples"
	"github.com/holomush/ofxbundle/plugins/luafx"
)

// app is the state shared by subcommands of one root command.
type app struct {
	configFile string
	cfg        *config.Config
	logger     *slog.Logger
	facade     *bundle.Facade
}

// NewRootCmd creates the root command for the ofxbundle CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:   "ofxbundle",
		Short: "Inspect and exercise an OFX plugin bundle",
		Long: `ofxbundle lists the image effect plugins a bundle exports, sends
them host calls, runs them through a simulated host session and checks
them against a bundle manifest.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file path (default $XDG_CONFIG_HOME/ofxbundle/config.yaml if present)")
	flags.String("log-format", config.DefaultLogFormat, "log format (json or text)")
	flags.String("log-level", config.DefaultLogLevel, "log level (debug, info, warn, error)")
	flags.String("filter", "", "only plugins whose identifier matches this glob")
	flags.String("lua-script", "", "Lua script replacing the built-in luafx effect")

	cmd.AddCommand(newListCmd(a))
	cmd.AddCommand(newDescribeCmd(a))
	cmd.AddCommand(newDispatchCmd(a))
	cmd.AddCommand(newSimulateCmd(a))
	cmd.AddCommand(newValidateCmd(a))

	return cmd
}

// setup loads configuration, installs the logger and builds the facade. The
// registry itself is built lazily on the first plugin call.
func (a *app) setup(cmd *cobra.Command) error {
	path := a.configFile
	if path == "" {
		path = xdg.DefaultConfigFile()
	}
	cfg, err := config.Load(path, cmd.Flags())
	if err != nil {
		return err
	}
	a.cfg = cfg

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return oops.Code("CONFIG_INVALID").Wrap(err)
	}
	a.logger = logging.SetDefault(logging.Options{
		Service: "ofxbundle",
		Version: version,
		Format:  cfg.LogFormat,
		Level:   level,
		Writer:  cmd.ErrOrStderr(),
	})

	opts := examples.Options{LuaOpts: []luafx.Option{luafx.WithLogger(a.logger)}}
	if cfg.LuaScript != "" {
		chunk, err := loadScript(cfg.LuaScript)
		if err != nil {
			return err
		}
		opts.LuaScript = chunk
	}

	a.facade = bundle.NewFacade(examples.Build(opts), bundle.WithLogger(a.logger))
	return nil
}

func loadScript(path string) (*script.Chunk, error) {
	src, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied
	if err != nil {
		return nil, oops.Code("SCRIPT_READ").With("path", path).Wrap(err)
	}
	return script.Compile(path, string(src))
}
