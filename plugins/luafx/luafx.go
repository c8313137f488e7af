// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package luafx is an effect whose action handlers are written in Lua.
//
// A script defines a global table named actions whose keys are OFX action
// names and whose values are functions taking a call table:
//
//	actions.OfxImageEffectActionRender = function(call)
//	  if call.instance == nil then return ofx.status.ErrBadHandle end
//	end
//
// A handler returns an ofx.status value, or nothing for OK. Raising an error
// fails the action. Actions missing from the table are unsupported.
package luafx

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"

	lua "github.com/yuin/gopher-lua"

	"github.com/holomush/ofxbundle/internal/script"
	"github.com/holomush/ofxbundle/pkg/ofx"
	"github.com/holomush/ofxbundle/pkg/ofx/bundle"
)

// Identifier is the plugin identifier reported to the host.
const Identifier = "net.example.luafx"

// Version is the plugin version reported to the host.
var Version = ofx.PluginVersion{Major: 0, Minor: 3}

// Module names the luafx entry points.
type Module struct{}

// ModuleName implements bundle.ModuleName.
func (Module) ModuleName() string { return "luafx" }

//go:embed effect.lua
var defaultSource string

// DefaultChunk returns the compiled built-in script.
var DefaultChunk = sync.OnceValues(func() (*script.Chunk, error) {
	return script.Compile("effect.lua", defaultSource)
})

var errNoActions = errors.New("script does not define an actions table")

// Option configures an Effect.
type Option func(*Effect)

// WithLogger sets the logger behind ofx.log. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(e *Effect) {
		e.logger = l
	}
}

// WithStateFactory sets the factory used to create the Lua state.
func WithStateFactory(f *script.StateFactory) Option {
	return func(e *Effect) {
		e.factory = f
	}
}

// Effect is the luafx capability. It is not safe for concurrent use; the
// dispatch core serializes calls into one plugin.
type Effect struct {
	chunk   *script.Chunk
	factory *script.StateFactory
	logger  *slog.Logger

	router  *ofx.Router
	state   *lua.LState
	initErr error
}

// Compile-time interface check.
var _ ofx.Executable = (*Effect)(nil)

// New creates an effect running chunk. The Lua state is created on the first
// message.
func New(chunk *script.Chunk, opts ...Option) *Effect {
	e := &Effect{
		chunk:   chunk,
		factory: script.NewStateFactory(),
		router:  ofx.NewRouter(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("module", Module{}.ModuleName(), "script", chunk.Name())
	return e
}

// Handle implements ofx.Executable.
func (e *Effect) Handle(ctx context.Context, msg ofx.Message) (ofx.Status, error) {
	if e.state == nil && e.initErr == nil {
		e.initErr = e.init()
	}
	if e.initErr != nil {
		if call, ok := msg.(ofx.Call); ok {
			return ofx.StatErrFatal, ofx.ErrActionFailed(call.Action, e.initErr)
		}
		return ofx.StatErrFatal, e.initErr
	}

	e.state.SetContext(ctx)
	defer e.state.RemoveContext()
	return e.router.Handle(ctx, msg)
}

// Close releases the Lua state.
func (e *Effect) Close() {
	if e.state != nil {
		e.state.Close()
		e.state = nil
	}
}

func (e *Effect) init() error {
	L, err := e.factory.Load(context.Background(), e.chunk, e.registerHostFunctions)
	if err != nil {
		return err
	}

	actions, ok := L.GetGlobal("actions").(*lua.LTable)
	if !ok {
		L.Close()
		return errNoActions
	}

	actions.ForEach(func(key, value lua.LValue) {
		name, isString := key.(lua.LString)
		fn, isFunc := value.(*lua.LFunction)
		if !isString || !isFunc {
			e.logger.Warn("ignoring non-function entry in actions table", "key", key.String())
			return
		}
		action, known := ofx.DecodeAction(string(name))
		if !known {
			e.logger.Warn("ignoring unknown action in actions table", "action", string(name))
			return
		}
		e.router.On(action, e.invoke(fn))
	})

	e.state = L
	return nil
}

func (e *Effect) invoke(fn *lua.LFunction) ofx.ActionHandler {
	return func(_ context.Context, _ *ofx.Host, call ofx.Call) (ofx.Status, error) {
		L := e.state
		args := L.NewTable()
		L.SetField(args, "action", lua.LString(call.Action.String()))
		if call.Handle != nil {
			L.SetField(args, "instance", lua.LString(fmt.Sprintf("%x", uintptr(call.Handle))))
		}

		ret, err := script.Call(L, fn, args)
		if err != nil {
			return ofx.StatFailed, ofx.ErrActionFailed(call.Action, err)
		}
		switch v := ret.(type) {
		case *lua.LNilType:
			return ofx.StatOK, nil
		case lua.LNumber:
			return statusOf(call.Action, float64(v))
		default:
			return ofx.StatErrValue, ofx.ErrActionFailed(call.Action,
				fmt.Errorf("handler returned %s, want a status number", ret.Type()))
		}
	}
}

// statusOf accepts only whole numbers naming an OFX status.
func statusOf(action ofx.Action, n float64) (ofx.Status, error) {
	if n != math.Trunc(n) || n < math.MinInt32 || n > math.MaxInt32 || !ofx.Status(n).Valid() {
		return ofx.StatErrValue, ofx.ErrActionFailed(action,
			fmt.Errorf("handler returned %v, which is not a status code", n))
	}
	return ofx.Status(n), nil
}

// registerHostFunctions installs the ofx table: status codes, log and
// host_has_suite.
func (e *Effect) registerHostFunctions(L *lua.LState) {
	mod := L.NewTable()

	statuses := L.NewTable()
	for s := ofx.StatOK; s <= ofx.StatReplyDefault; s++ {
		L.SetField(statuses, strings.TrimPrefix(s.String(), "kOfxStat"), lua.LNumber(s))
	}
	L.SetField(mod, "status", statuses)

	L.SetField(mod, "log", L.NewFunction(func(L *lua.LState) int {
		level := L.CheckString(1)
		message := L.CheckString(2)
		switch level {
		case "debug":
			e.logger.Debug(message)
		case "warn":
			e.logger.Warn(message)
		case "error":
			e.logger.Error(message)
		default:
			e.logger.Info(message)
		}
		return 0
	}))

	L.SetField(mod, "host_has_suite", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(1)
		version := L.OptInt(2, 1)
		L.Push(lua.LBool(e.router.Host().Suite(name, version) != nil))
		return 1
	}))

	L.SetGlobal("ofx", mod)
}

// Definition declares the luafx module running chunk. A nil chunk selects the
// built-in script.
func Definition(chunk *script.Chunk, opts ...Option) (bundle.Module, error) {
	if chunk == nil {
		var err error
		if chunk, err = DefaultChunk(); err != nil {
			return bundle.Module{}, err
		}
	}
	return bundle.Define[Module](Identifier, 1, Version, func() ofx.Executable {
		return New(chunk, opts...)
	}), nil
}
