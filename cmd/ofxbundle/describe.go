// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"github.com/spf13/cobra"
)

func newDescribeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "describe",
		Short: "Print one line per exported plugin",
		Long: `Print every exported plugin as index:module "identifier" api=N v=M.m,
ignoring --filter.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, line := range a.facade.Describe() {
				cmd.Println(line)
			}
			return nil
		},
	}
}
