// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package bundle

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/holomush/ofxbundle/pkg/errutil"
	"github.com/holomush/ofxbundle/pkg/ofx"
	"github.com/holomush/ofxbundle/pkg/ofx/registry"
)

var defaultTracer = otel.Tracer("ofxbundle/dispatch")

// unresolvedModule labels dispatches to a module name the registry does not know.
const unresolvedModule = "unresolved"

// Facade is the single object the ABI-facing functions consult. It builds its
// registry lazily, exactly once, on the first call to any of its entry points.
//
// The plugin records of the installed facade carry each module's Shim, which
// routes through the process-wide entry points. Records of any other facade
// are bound to that facade, so a host holding one reaches the plugin that
// produced it.
//
// Facade is safe for concurrent use.
type Facade struct {
	build    BuildFunc
	shared   bool
	once     sync.Once
	registry atomic.Pointer[registry.Registry]
	logger   *slog.Logger
	tracer   trace.Tracer
}

// FacadeOption configures a Facade during construction.
type FacadeOption func(*Facade)

// WithLogger sets the logger used for dispatch diagnostics. If not provided,
// slog.Default() is used at call time.
func WithLogger(l *slog.Logger) FacadeOption {
	return func(f *Facade) {
		f.logger = l
	}
}

// WithTracer sets the tracer used for dispatch spans.
func WithTracer(t trace.Tracer) FacadeOption {
	return func(f *Facade) {
		f.tracer = t
	}
}

// NewFacade creates a facade that will populate its registry with build.
// Nothing is built until the first entry point is called.
func NewFacade(build BuildFunc, opts ...FacadeOption) *Facade {
	if build == nil {
		panic("bundle.NewFacade: build cannot be nil")
	}
	f := &Facade{
		build:  build,
		tracer: defaultTracer,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *Facade) log() *slog.Logger {
	if f.logger != nil {
		return f.logger
	}
	return slog.Default()
}

// EnsureInitialized builds the registry if it has not been built yet. Calls
// racing with the first build block until it completes. A build error is a
// broken static configuration with no channel to report it to the host, so
// it panics.
func (f *Facade) EnsureInitialized() {
	f.once.Do(func() {
		var opts []registry.Option
		if !f.shared {
			opts = append(opts, registry.WithBinder(f.bind))
		}
		r := registry.New(opts...)
		if err := f.build(r); err != nil {
			errutil.LogError(f.log(), "plugin registry build failed", err)
			panic(err)
		}
		r.Seal()
		f.registry.Store(r)
		RegistryBuilds.Inc()
		f.log().Debug("plugin registry built", "plugins", r.Count())
	})
}

// bind returns entry points that deliver to module through f.
func (f *Facade) bind(module string) (ofx.SetHostFunc, ofx.MainEntryFunc) {
	setHost := func(host *ofx.Host) {
		f.SetHost(module, host)
	}
	mainEntry := func(action string, handle ofx.Handle, inArgs, outArgs ofx.PropertySetHandle) ofx.Status {
		return f.MainEntry(module, action, handle, inArgs, outArgs)
	}
	return setHost, mainEntry
}

// Initialized reports whether the registry has been built.
func (f *Facade) Initialized() bool {
	return f.registry.Load() != nil
}

// Registry returns the built registry. Calling it before EnsureInitialized is
// a programming error and panics with a NOT_INITIALIZED error.
func (f *Facade) Registry() *registry.Registry {
	r := f.registry.Load()
	if r == nil {
		panic(ofx.ErrNotInitialized())
	}
	return r
}

// Count implements the plugin-count entry point.
func (f *Facade) Count() int {
	f.EnsureInitialized()
	return f.Registry().Count()
}

// Plugin implements the get-plugin entry point. The host may only ask for
// indices in [0, Count()); any other index is logged and answered with nil.
func (f *Facade) Plugin(index int) *ofx.Plugin {
	f.EnsureInitialized()
	p, err := f.Registry().Plugin(index)
	if err != nil {
		errutil.LogError(f.log(), "host requested an invalid plugin index", err)
		return nil
	}
	return p
}

// Dispatch routes a raw message to module and returns the resulting status
// together with any structured error. It never panics on a plugin failure.
func (f *Facade) Dispatch(ctx context.Context, module string, msg ofx.RawMessage) (status ofx.Status, err error) {
	f.EnsureInitialized()

	// Labels are bounded: an unresolved module or an action outside the
	// catalog gets a fixed label and its raw name only reaches the debug log.
	label := module
	if _, ok := f.Registry().Lookup(module); !ok {
		label = unresolvedModule
	}
	kind := ofx.Kind(msg)
	callID := ulid.Make().String()
	start := time.Now()

	ctx, span := f.tracer.Start(ctx, "ofx.dispatch",
		trace.WithAttributes(
			attribute.String("ofx.module", label),
			attribute.String("ofx.action", kind),
			attribute.String("ofx.call_id", callID),
		),
	)
	defer func() {
		span.SetAttributes(attribute.String("ofx.status", status.String()))
		if err != nil && !ofx.IsUnsupported(err) {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		recordDispatch(label, kind, status.String(), time.Since(start))
	}()

	f.log().DebugContext(ctx, "dispatching plugin message",
		"module", module,
		"action", ofx.RawAction(msg),
		"call_id", callID)

	status, err = f.Registry().Dispatch(ctx, module, msg)
	switch {
	case err == nil:
	case ofx.IsUnsupported(err):
		f.log().DebugContext(ctx, "plugin did not handle action",
			"module", module,
			"action", ofx.RawAction(msg),
			"call_id", callID)
	default:
		f.log().WarnContext(ctx, "plugin dispatch failed",
			"module", module,
			"action", kind,
			"call_id", callID,
			"status", status.String(),
			"error", err)
	}
	return status, err
}

// SetHost implements a module's set-host entry point. The host has no way to
// observe a failure here, so failures are only logged.
func (f *Facade) SetHost(module string, host *ofx.Host) {
	_, _ = f.Dispatch(context.Background(), module, ofx.SetHost{Host: host})
}

// MainEntry implements a module's main entry point. A module that cannot be
// resolved yields StatusUnresolved.
func (f *Facade) MainEntry(module, action string, handle ofx.Handle, inArgs, outArgs ofx.PropertySetHandle) ofx.Status {
	status, _ := f.Dispatch(context.Background(), module, ofx.MainEntry{
		Action:  action,
		Handle:  handle,
		InArgs:  inArgs,
		OutArgs: outArgs,
	})
	return status
}

// Describe enumerates plugins through the count and get-plugin entry points
// and renders one line per plugin.
func (f *Facade) Describe() []string {
	n := f.Count()
	// Walk get-plugin the way a host would before reading the entries.
	for i := range n {
		f.Plugin(i)
	}
	out := make([]string, 0, n)
	for _, e := range f.Registry().Entries() {
		out = append(out, e.String())
	}
	return out
}
