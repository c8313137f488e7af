// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"fmt"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/ofxbundle/internal/simulate"
	"github.com/holomush/ofxbundle/pkg/errutil"
	"github.com/holomush/ofxbundle/pkg/ofx"
)

type dispatchConfig struct {
	setHost bool
}

func newDispatchCmd(a *app) *cobra.Command {
	cfg := &dispatchConfig{}

	cmd := &cobra.Command{
		Use:   "dispatch <module> <action>",
		Short: "Send one host call to a plugin",
		Long: `Send one main-entry call to the named module and print the status it
returns. The action is passed through unchanged, so unknown action names can be
used to check the default reply. By default a standard host is installed
through set-host first.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDispatch(cmd.Context(), cmd, a, cfg, args[0], args[1])
		},
	}

	cmd.Flags().BoolVar(&cfg.setHost, "set-host", true, "install a standard host before the call")

	return cmd
}

func runDispatch(ctx context.Context, cmd *cobra.Command, a *app, cfg *dispatchConfig, module, action string) error {
	if ctx == nil {
		ctx = context.Background()
	}

	if cfg.setHost {
		status, err := a.facade.Dispatch(ctx, module, ofx.SetHost{Host: simulate.StandardHost()})
		cmd.Println(formatResult("set_host", status, err))
		if status.Failed() {
			return oops.Code("DISPATCH_FAILED").With("module", module).With("status", status.String()).
				Errorf("set-host failed")
		}
	}

	status, err := a.facade.Dispatch(ctx, module, ofx.MainEntry{Action: action})
	cmd.Println(formatResult(action, status, err))
	if status.Failed() {
		return oops.Code("DISPATCH_FAILED").With("module", module).With("action", action).
			With("status", status.String()).Errorf("%s returned %s", action, status)
	}
	return nil
}

func formatResult(action string, status ofx.Status, err error) string {
	line := fmt.Sprintf("%s: %s (%d)", action, status, int32(status))
	if err != nil {
		if code := errutil.Code(err); code != "" {
			line += fmt.Sprintf(" [%s]", code)
		}
	}
	return line
}
