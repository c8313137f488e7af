// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

// Package blur is an example effect that supports the full render lifecycle,
// including sequence renders. It requires the host property suite.
package blur

import (
	"context"
	"errors"

	"github.com/holomush/ofxbundle/pkg/ofx"
	"github.com/holomush/ofxbundle/pkg/ofx/bundle"
	"github.com/holomush/ofxbundle/plugins/internal/lifecycle"
)

// Identifier is the plugin identifier reported to the host.
const Identifier = "net.example.blur"

// Version is the plugin version reported to the host.
var Version = ofx.PluginVersion{Major: 1, Minor: 0}

// Module names the blur entry points.
type Module struct{}

// ModuleName implements bundle.ModuleName.
func (Module) ModuleName() string { return "blur" }

var errNoPropertySuite = errors.New("host does not provide " + ofx.PropertySuite)

// Effect is the blur capability.
type Effect struct {
	*ofx.Router
	*lifecycle.Tracker
}

// New creates a blur effect.
func New() *Effect {
	e := &Effect{Router: ofx.NewRouter(), Tracker: lifecycle.NewTracker()}
	e.Install(e.Router,
		ofx.ActionLoad,
		ofx.ActionUnload,
		ofx.ActionDescribeInContext,
		ofx.ActionCreateInstance,
		ofx.ActionDestroyInstance,
		ofx.ActionRender,
		ofx.ActionBeginSequenceRender,
		ofx.ActionEndSequenceRender,
		ofx.ActionPurgeCaches,
	)
	e.On(ofx.ActionDescribe, describe)
	return e
}

func describe(_ context.Context, host *ofx.Host, call ofx.Call) (ofx.Status, error) {
	if host.Suite(ofx.PropertySuite, 1) == nil {
		return ofx.StatErrMissingHostFeature, ofx.ErrActionFailed(call.Action, errNoPropertySuite)
	}
	return ofx.StatOK, nil
}

// Definition declares the blur module.
func Definition() bundle.Module {
	return bundle.Define[Module](Identifier, 1, Version, func() ofx.Executable { return New() })
}
