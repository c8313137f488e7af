// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package sharpen is an example effect with a minimal action set. It never
// reports itself as an identity and leaves sequence renders unsupported.
package sharpen

import (
	"context"

	"github.com/holomush/ofxbundle/pkg/ofx"
	"github.com/holomush/ofxbundle/pkg/ofx/bundle"
	"github.com/holomush/ofxbundle/plugins/internal/lifecycle"
)

// Identifier is the plugin identifier reported to the host.
const Identifier = "net.example.sharpen"

// Version is the plugin version reported to the host.
var Version = ofx.PluginVersion{Major: 1, Minor: 2}

// Module names the sharpen entry points.
type Module struct{}

// ModuleName implements bundle.ModuleName.
func (Module) ModuleName() string { return "sharpen" }

// Effect is the sharpen capability.
type Effect struct {
	*ofx.Router
	*lifecycle.Tracker
}

// New creates a sharpen effect.
func New() *Effect {
	e := &Effect{Router: ofx.NewRouter(), Tracker: lifecycle.NewTracker()}
	e.Install(e.Router,
		ofx.ActionLoad,
		ofx.ActionUnload,
		ofx.ActionDescribe,
		ofx.ActionDescribeInContext,
		ofx.ActionCreateInstance,
		ofx.ActionDestroyInstance,
		ofx.ActionRender,
	)
	e.On(ofx.ActionIsIdentity, func(context.Context, *ofx.Host, ofx.Call) (ofx.Status, error) {
		return ofx.StatReplyNo, nil
	})
	return e
}

// Definition declares the sharpen module.
func Definition() bundle.Module {
	return bundle.Define[Module](Identifier, 1, Version, func() ofx.Executable { return New() })
}
