// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/samber/oops"
	"github.com/spf13/cobra"

	"github.com/holomush/ofxbundle/internal/config"
	"github.com/holomush/ofxbundle/internal/observability"
	"github.com/holomush/ofxbundle/internal/simulate"
	"github.com/holomush/ofxbundle/pkg/errutil"
)

// SessionReport is the JSON form of one simulated session.
type SessionReport struct {
	Index      int            `json:"index"`
	Module     string         `json:"module"`
	Identifier string         `json:"identifier"`
	OK         bool           `json:"ok"`
	Retries    int            `json:"retries"`
	Steps      []StepReport   `json:"steps"`
	Tally      map[string]int `json:"tally"`
}

// StepReport is one host call of a session.
type StepReport struct {
	Action string `json:"action"`
	Status string `json:"status"`
}

type simulateConfig struct {
	jsonOutput bool
}

func newSimulateCmd(a *app) *cobra.Command {
	cfg := &simulateConfig{}

	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Drive every plugin through a simulated host session",
		Long: `Act as a host: install a standard host, then load, describe, create an
instance, render it, destroy it and unload, for every plugin. Plugins run in
parallel. With --metrics-addr, Prometheus metrics and health probes are served
while the simulation runs.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			return runSimulate(ctx, cmd, a, cfg)
		},
	}

	flags := cmd.Flags()
	flags.BoolVar(&cfg.jsonOutput, "json", false, "output sessions as JSON")
	flags.Int("renders", config.DefaultRenders, "renders per instance")
	flags.Int("concurrency", config.DefaultConcurrency, "plugins driven at once")
	flags.Int("memory-retries", config.DefaultMemoryRetries, "render retries after kOfxStatErrMemory")
	flags.String("metrics-addr", "", "serve metrics and health probes on this address while running")

	return cmd
}

func runSimulate(ctx context.Context, cmd *cobra.Command, a *app, cfg *simulateConfig) error {
	match, err := a.cfg.Matcher()
	if err != nil {
		return err
	}

	opts := simulate.Options{
		Renders:       a.cfg.Renders,
		Concurrency:   a.cfg.Concurrency,
		Filter:        match,
		MemoryRetries: uint64(a.cfg.MemoryRetries), //nolint:gosec // validated non-negative
		Logger:        a.logger,
	}

	if a.cfg.MetricsAddr != "" {
		srv := observability.NewServer(a.cfg.MetricsAddr, a.facade.Initialized, observability.WithLogger(a.logger))
		errCh, err := srv.Start()
		if err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Stop(stopCtx); err != nil {
				errutil.LogError(a.logger, "failed to stop observability server", err)
			}
		}()
		go func() {
			for err := range errCh {
				errutil.LogError(a.logger, "observability server failed", err)
			}
		}()
		opts.Metrics = srv.Metrics()
	}

	results, err := simulate.Run(ctx, a.facade, opts)
	if err != nil {
		return err
	}

	reports := toReports(results)
	if cfg.jsonOutput {
		data, err := json.MarshalIndent(reports, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal sessions: %w", err)
		}
		cmd.Println(string(data))
	} else {
		cmd.Print(formatSessionTable(reports))
	}

	var failed []string
	for _, r := range reports {
		if !r.OK {
			failed = append(failed, r.Module)
		}
	}
	if len(failed) > 0 {
		return oops.Code("SIMULATION_FAILED").With("modules", failed).
			Errorf("%d of %d sessions failed", len(failed), len(reports))
	}
	return nil
}

func toReports(results []simulate.Result) []SessionReport {
	reports := make([]SessionReport, 0, len(results))
	for _, r := range results {
		rep := SessionReport{
			Index:      r.Index,
			Module:     r.Module,
			Identifier: r.Identifier,
			OK:         r.OK(),
			Retries:    r.Retries,
			Tally:      make(map[string]int, len(r.Tally)),
		}
		for _, s := range r.Steps {
			rep.Steps = append(rep.Steps, StepReport{Action: s.Action, Status: s.Status.String()})
		}
		for status, n := range r.Tally {
			rep.Tally[status.String()] = n
		}
		reports = append(reports, rep)
	}
	return reports
}

func formatSessionTable(reports []SessionReport) string {
	var buf []byte
	w := tabwriter.NewWriter((*byteWriter)(&buf), 0, 0, 2, ' ', 0)

	_, _ = fmt.Fprintln(w, "INDEX\tMODULE\tRESULT\tSTEPS\tRETRIES\tSTATUSES")
	for _, r := range reports {
		result := "ok"
		if !r.OK {
			result = "failed"
		}
		_, _ = fmt.Fprintf(w, "%d\t%s\t%s\t%d\t%d\t%s\n",
			r.Index, r.Module, result, len(r.Steps), r.Retries, formatTally(r.Tally))
	}

	_ = w.Flush()
	return string(buf)
}

// formatTally renders a tally as "kOfxStatOK=9 kOfxStatReplyDefault=1", most
// frequent first.
func formatTally(tally map[string]int) string {
	names := make([]string, 0, len(tally))
	for name := range tally {
		names = append(names, name)
	}
	slices.SortFunc(names, func(a, b string) int {
		if tally[a] != tally[b] {
			return tally[b] - tally[a]
		}
		return strings.Compare(a, b)
	})

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, fmt.Sprintf("%s=%d", name, tally[name]))
	}
	return strings.Join(parts, " ")
}
