// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

// PluginInfo is one row of the plugin listing.
type PluginInfo struct {
	Index      int    `json:"index"`
	Module     string `json:"module"`
	Identifier string `json:"identifier"`
	API        string `json:"api"`
	APIVersion int    `json:"api_version"`
	Version    string `json:"version"`
}

type listConfig struct {
	jsonOutput bool
}

func newListCmd(a *app) *cobra.Command {
	cfg := &listConfig{}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the plugins the bundle exports",
		Long: `List the plugins the bundle exports in index order, the way a host
enumerates them through GetNumberOfPlugins and GetPlugin.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			plugins, err := a.plugins()
			if err != nil {
				return err
			}

			if cfg.jsonOutput {
				data, err := json.MarshalIndent(plugins, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal plugins: %w", err)
				}
				cmd.Println(string(data))
				return nil
			}
			cmd.Print(formatPluginTable(plugins))
			return nil
		},
	}

	cmd.Flags().BoolVar(&cfg.jsonOutput, "json", false, "output plugins as JSON")

	return cmd
}

// plugins enumerates the exported plugins that pass the configured filter.
func (a *app) plugins() ([]PluginInfo, error) {
	match, err := a.cfg.Matcher()
	if err != nil {
		return nil, err
	}

	out := []PluginInfo{}
	for i := range a.facade.Count() {
		p := a.facade.Plugin(i)
		if p == nil || !match.Match(p.Identifier) {
			continue
		}
		d, err := a.facade.Registry().Descriptor(i)
		if err != nil {
			return nil, err
		}
		out = append(out, PluginInfo{
			Index:      i,
			Module:     d.ModuleName,
			Identifier: p.Identifier,
			API:        p.PluginAPI,
			APIVersion: int(p.APIVersion),
			Version:    p.Version().String(),
		})
	}
	return out, nil
}

func formatPluginTable(plugins []PluginInfo) string {
	var buf []byte
	w := tabwriter.NewWriter((*byteWriter)(&buf), 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "INDEX\tMODULE\tIDENTIFIER\tAPI\tVERSION")
	for _, p := range plugins {
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%s\n", p.Index, p.Module, p.Identifier, p.APIVersion, p.Version)
	}

	_ = w.Flush()
	return string(buf)
}

// byteWriter is a simple io.Writer that appends to a byte slice.
type byteWriter []byte

func (b *byteWriter) Write(p []byte) (int, error) {
	*b = append(*b, p...)
	return len(p), nil
}
