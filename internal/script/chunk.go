// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package script

import (
	"context"
	"strings"

	"github.com/samber/oops"
	lua "github.com/yuin/gopher-lua"
	"github.com/yuin/gopher-lua/parse"
)

// Chunk is Lua source compiled once and runnable in any number of states.
type Chunk struct {
	name  string
	proto *lua.FunctionProto
}

// Compile parses and compiles source. Syntax errors are reported here, not
// when the chunk first runs.
func Compile(name, source string) (*Chunk, error) {
	stmts, err := parse.Parse(strings.NewReader(source), name)
	if err != nil {
		return nil, oops.In("lua").Code("SCRIPT_SYNTAX").With("script", name).Wrap(err)
	}
	proto, err := lua.Compile(stmts, name)
	if err != nil {
		return nil, oops.In("lua").Code("SCRIPT_SYNTAX").With("script", name).Wrap(err)
	}
	return &Chunk{name: name, proto: proto}, nil
}

// Name returns the chunk name used in Lua error messages.
func (c *Chunk) Name() string {
	return c.name
}

// Run executes the chunk's top level in L.
func (c *Chunk) Run(L *lua.LState) error {
	L.Push(L.NewFunctionFromProto(c.proto))
	if err := L.PCall(0, lua.MultRet, nil); err != nil {
		return oops.In("lua").Code("SCRIPT_RUNTIME").With("script", c.name).Wrap(err)
	}
	return nil
}

// Load creates a state from the factory, lets setup install host functions,
// and runs the chunk in it. setup may be nil.
func (f *StateFactory) Load(ctx context.Context, c *Chunk, setup func(*lua.LState)) (*lua.LState, error) {
	L, err := f.NewState(ctx)
	if err != nil {
		return nil, err
	}
	if setup != nil {
		setup(L)
	}
	if err := c.Run(L); err != nil {
		L.Close()
		return nil, err
	}
	return L, nil
}

// Call invokes fn with args in protected mode and returns its first result.
func Call(L *lua.LState, fn lua.LValue, args ...lua.LValue) (lua.LValue, error) {
	if err := L.CallByParam(lua.P{Fn: fn, NRet: 1, Protect: true}, args...); err != nil {
		return lua.LNil, oops.In("lua").Code("SCRIPT_RUNTIME").Wrap(err)
	}
	ret := L.Get(-1)
	L.Pop(1)
	return ret, nil
}
