// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package examples is the registration list of the example bundle. Order here
// is the index order the host sees.
package examples

import (
	"github.com/holomush/ofxbundle/internal/script"
	"github.com/holomush/ofxbundle/pkg/ofx/bundle"
	"github.com/holomush/ofxbundle/pkg/ofx/registry"
	"github.com/holomush/ofxbundle/plugins/blur"
	"github.com/holomush/ofxbundle/plugins/luafx"
	"github.com/holomush/ofxbundle/plugins/sharpen"
)

// Options customizes the example bundle.
type Options struct {
	// LuaScript replaces the built-in luafx script when non-nil.
	LuaScript *script.Chunk
	LuaOpts   []luafx.Option
}

// Build returns the BuildFunc registering blur, sharpen and luafx.
func Build(opts Options) bundle.BuildFunc {
	lua, err := luafx.Definition(opts.LuaScript, opts.LuaOpts...)
	if err != nil {
		return func(*registry.Registry) error { return err }
	}
	return bundle.Modules(
		blur.Definition(),
		sharpen.Definition(),
		lua,
	)
}
