// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"os"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/ofxbundle/internal/manifest"
)

func newValidateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "validate <bundle.yaml>",
		Short: "Check the bundle against a manifest",
		Long: `Validate a bundle manifest against its JSON Schema, then compare it with
the plugins the bundle actually exports: order, module names, identifiers,
API versions and version constraints.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied
			if err != nil {
				return oops.Code("MANIFEST_READ").With("path", path).Wrap(err)
			}

			m, err := manifest.Parse(data)
			if err != nil {
				cmd.PrintErrln(manifest.FormatSchemaError(err))
				return err
			}

			a.facade.EnsureInitialized()
			mismatches := manifest.Verify(m, a.facade.Registry().Descriptors())
			if len(mismatches) == 0 {
				cmd.Printf("%s: %d plugins match\n", m.Bundle, len(m.Plugins))
				return nil
			}

			for _, mm := range mismatches {
				cmd.Println(mm.String())
			}
			return oops.Code("MANIFEST_MISMATCH").With("path", path).With("mismatches", len(mismatches)).
				Errorf("bundle does not match %s", path)
		},
	}
}
