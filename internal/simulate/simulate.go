// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package simulate plays the part of an OFX host: it enumerates the plugins a
// facade exports and drives each one through the standard call sequence.
package simulate

import (
	"context"
	"errors"
	"log/slog"
	"time"
	"unsafe"

	"github.com/samber/oops"
	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/errgroup"

	"github.com/holomush/ofxbundle/internal/observability"
	"github.com/holomush/ofxbundle/pkg/ofx"
	"github.com/holomush/ofxbundle/pkg/ofx/bundle"
)

// Matcher selects plugins by identifier. glob.Glob satisfies it.
type Matcher interface {
	Match(string) bool
}

// Options configures a simulation run.
type Options struct {
	// Renders is the number of renders per instance. Defaults to 1.
	Renders int
	// Concurrency bounds how many plugins are driven at once. Defaults to 1.
	Concurrency int
	// Filter selects plugins by identifier. Nil selects all.
	Filter Matcher
	// Host is delivered through set-host. Defaults to StandardHost().
	Host *ofx.Host
	// MemoryRetries is how many times a render failing with kOfxStatErrMemory
	// is retried after purging caches.
	MemoryRetries uint64
	// RetryBackoff is the first delay between memory retries. Defaults to 10ms.
	RetryBackoff time.Duration
	Metrics      *observability.Metrics
	Logger       *slog.Logger
}

// Step is one host call and the status it returned.
type Step struct {
	Action string
	Status ofx.Status
}

// Result is the outcome of driving one plugin.
type Result struct {
	Index      int
	Module     string
	Identifier string
	Steps      []Step
	Tally      map[ofx.Status]int
	Retries    int
}

// OK reports whether no call failed. Replies, including the default reply to
// an unsupported action, are not failures.
func (r Result) OK() bool {
	for _, s := range r.Steps {
		if s.Status == ofx.StatusUnresolved || s.Status.Failed() {
			return false
		}
	}
	return true
}

var (
	propertySuite    byte
	imageEffectSuite byte
	memorySuite      byte
)

// StandardHost returns a host offering the property, image effect and memory
// suites. The suite pointers are placeholders and must not be dereferenced.
func StandardHost() *ofx.Host {
	return &ofx.Host{FetchSuite: func(name string, _ int) unsafe.Pointer {
		switch name {
		case ofx.PropertySuite:
			return unsafe.Pointer(&propertySuite)
		case ofx.ImageEffectSuite:
			return unsafe.Pointer(&imageEffectSuite)
		case ofx.MemorySuite:
			return unsafe.Pointer(&memorySuite)
		default:
			return nil
		}
	}}
}

// Run drives every selected plugin of f and returns one Result per plugin in
// index order. Like a real host it only touches the plugin records: the count
// and get-plugin entry points, then each record's set-host and main entry.
// It fails only when ctx is done.
func Run(ctx context.Context, f *bundle.Facade, opts Options) ([]Result, error) {
	opts = withDefaults(opts)

	type target struct {
		index  int
		module string
		plugin *ofx.Plugin
	}
	var targets []target
	for i := range f.Count() {
		p := f.Plugin(i)
		if p == nil {
			continue
		}
		if opts.Filter != nil && !opts.Filter.Match(p.Identifier) {
			continue
		}
		d, err := f.Registry().Descriptor(i)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target{index: i, module: d.ModuleName, plugin: p})
	}

	results := make([]Result, len(targets))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Concurrency)
	for i, t := range targets {
		g.Go(func() error {
			s := &session{plugin: t.plugin, opts: opts, result: Result{
				Index:      t.index,
				Module:     t.module,
				Identifier: t.plugin.Identifier,
				Tally:      make(map[ofx.Status]int),
			}}
			if err := s.run(gctx); err != nil {
				return err
			}
			results[i] = s.result
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, oops.Code("SIMULATION_ABORTED").Wrap(err)
	}
	return results, nil
}

func withDefaults(opts Options) Options {
	if opts.Renders < 1 {
		opts.Renders = 1
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.Host == nil {
		opts.Host = StandardHost()
	}
	if opts.RetryBackoff <= 0 {
		opts.RetryBackoff = 10 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return opts
}

// instance is the host-side object whose address serves as an instance handle.
type instance struct {
	module string
}

type session struct {
	plugin *ofx.Plugin
	opts   Options
	result Result
}

// run plays set-host, load, describe, describe-in-context, create-instance,
// renders, destroy-instance and unload. A failed load ends the session; a
// failed create-instance skips straight to unload.
func (s *session) run(ctx context.Context) error {
	log := s.opts.Logger.With("module", s.result.Module)
	defer func() {
		s.opts.Metrics.RecordSimulation(s.result.Module, s.result.OK())
		log.Info("simulation finished", "ok", s.result.OK(), "steps", len(s.result.Steps), "retries", s.result.Retries)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}

	// set-host reports nothing back to the host.
	s.plugin.SetHost(s.opts.Host)
	s.record("set_host", ofx.StatOK)

	if status := s.call(ofx.ActionLoad, nil); status.Failed() {
		return ctx.Err()
	}
	s.call(ofx.ActionDescribe, nil)
	s.call(ofx.ActionDescribeInContext, nil)

	inst := &instance{module: s.result.Module}
	handle := ofx.Handle(unsafe.Pointer(inst))
	if status := s.call(ofx.ActionCreateInstance, handle); !status.Failed() {
		for range s.opts.Renders {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.render(ctx, handle)
		}
		s.call(ofx.ActionDestroyInstance, handle)
	}

	s.call(ofx.ActionUnload, nil)
	return ctx.Err()
}

func (s *session) call(action ofx.Action, handle ofx.Handle) ofx.Status {
	status := s.plugin.MainEntry(action.String(), handle, nil, nil)
	s.record(action.String(), status)
	return status
}

func (s *session) record(action string, status ofx.Status) {
	s.result.Steps = append(s.result.Steps, Step{Action: action, Status: status})
	s.result.Tally[status]++
	s.opts.Metrics.RecordStep(s.result.Module, status.String())
}

var errOutOfMemory = errors.New("render ran out of memory")

// render renders once. A kOfxStatErrMemory answer makes the host purge the
// plugin's caches and try again with exponential backoff. Only the final
// render status is recorded.
func (s *session) render(ctx context.Context, handle ofx.Handle) {
	var status ofx.Status
	attempts := 0

	backoff := retry.WithMaxRetries(s.opts.MemoryRetries, retry.NewExponential(s.opts.RetryBackoff))
	_ = retry.Do(ctx, backoff, func(context.Context) error {
		if attempts > 0 {
			s.result.Retries++
			s.call(ofx.ActionPurgeCaches, nil)
		}
		attempts++
		status = s.plugin.MainEntry(ofx.ActionRender.String(), handle, nil, nil)
		if status == ofx.StatErrMemory {
			return retry.RetryableError(errOutOfMemory)
		}
		return nil
	})
	s.record(ofx.ActionRender.String(), status)
}
